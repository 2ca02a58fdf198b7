package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/shared"
)

const DefaultBaseURL = "http://localhost:8000/api/v1"

// Options configures an [APIService]. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	Client     *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	Backoff    time.Duration
	Logger     *log.Logger
}

// APIService implements [SongService] over the song discovery HTTP API.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *log.Logger
}

var _ SongService = (*APIService)(nil)

// NewAPIService creates a new API service instance.
func NewAPIService(opts Options) *APIService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    limiter,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

// NewAPIServiceFromConfig builds an [APIService] from the [api] config section.
func NewAPIServiceFromConfig(cfg shared.APIConfig, logger *log.Logger) *APIService {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	return NewAPIService(Options{
		BaseURL:    cfg.BaseURL,
		Client:     &http.Client{Timeout: cfg.Timeout()},
		Limiter:    rate.NewLimiter(limit, burst),
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff(),
		Logger:     logger,
	})
}

// BaseURL returns the API root requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// ListSongs calls GET /songs/.
func (a *APIService) ListSongs(ctx context.Context, skip, limit int, search string) ([]models.Song, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(limit))
	if search = strings.TrimSpace(search); search != "" {
		query.Set("search", search)
	}

	songs := []models.Song{}
	if err := a.doRequest(ctx, http.MethodGet, "/songs/", query, nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// GetSong calls GET /songs/{track_id}.
func (a *APIService) GetSong(ctx context.Context, trackID string) (*models.Song, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var song models.Song
	if err := a.doRequest(ctx, http.MethodGet, "/songs/"+url.PathEscape(trackID), nil, nil, &song); err != nil {
		return nil, err
	}
	return &song, nil
}

// GetAudio calls GET /music/audio/{track_id}.
func (a *APIService) GetAudio(ctx context.Context, trackID string) (*models.AudioAsset, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var asset models.AudioAsset
	if err := a.doRequest(ctx, http.MethodGet, "/music/audio/"+url.PathEscape(trackID), nil, nil, &asset); err != nil {
		return nil, err
	}
	if asset.TrackID == "" {
		asset.TrackID = trackID
	}
	return &asset, nil
}

// Recommend calls POST /recommend/ with every id in trackIDs.
func (a *APIService) Recommend(ctx context.Context, trackIDs []string, limit int) ([]models.Song, error) {
	body := models.RecommendRequest{SongIDs: trackIDs, Limit: limit}

	songs := []models.Song{}
	if err := a.doRequest(ctx, http.MethodPost, "/recommend/", nil, body, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// RecommendText calls POST /recommend/text with the raw prompt.
func (a *APIService) RecommendText(ctx context.Context, text string, limit int) ([]models.Song, error) {
	body := models.TextRecommendRequest{TextInput: text, Limit: limit}

	songs := []models.Song{}
	if err := a.doRequest(ctx, http.MethodPost, "/recommend/text", nil, body, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// doRequest sends a JSON request and decodes a JSON response into result.
//
// The last attempt is never retried; its response (or error) is returned to the caller as-is.
func (a *APIService) doRequest(ctx context.Context, method, path string, query url.Values, body, result any) error {
	apiURL := a.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = data
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := range a.maxRetries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("request canceled: %w", err)
		}
		if err := a.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, apiURL, reader)
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err = a.httpClient.Do(req)
		retryAfter, retry := shouldRetry(resp, err)
		if !retry || attempt == a.maxRetries-1 {
			break
		}

		if err != nil {
			a.logger.Warn("retrying request", "path", path, "attempt", attempt+1, "error", err)
		} else {
			a.logger.Warn("retrying request", "path", path, "attempt", attempt+1, "status", resp.StatusCode)
			resp.Body.Close()
		}

		if err := sleepWithContext(ctx, backoffFor(a.backoff, attempt, retryAfter)); err != nil {
			return err
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, path, data)
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

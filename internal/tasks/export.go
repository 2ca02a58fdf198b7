package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/sonar/internal/formatter"
	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/services"
	"github.com/desertthunder/sonar/internal/shared"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "export_manifest.json"
)

// CardExportOpts contains configuration for bulk card exports.
type CardExportOpts struct {
	Format     formatter.Format // Card format; markdown cards include the cover
	OutputDir  string           // Base output directory (default: sonar_cards_{epoch})
	NumWorkers int              // Concurrent writers (default: 5, max: 10)
	RateLimit  float64          // Service requests per second (default: 5)
}

// CardResult describes one exported card.
type CardResult struct {
	TrackID  string   `json:"track_id"`
	Title    string   `json:"title"`
	Success  bool     `json:"success"`
	Fallback bool     `json:"fallback,omitempty"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
	Err      error    `json:"-"`
}

// CardExportResult summarizes a bulk export.
type CardExportResult struct {
	Total           int          `json:"total"`
	Succeeded       int          `json:"succeeded"`
	Failed          int          `json:"failed"`
	OutputDirectory string       `json:"output_directory"`
	ManifestPath    string       `json:"-"`
	Results         []CardResult `json:"results"`
}

type cardJob struct {
	index int
	song  models.Song
	asset *models.AudioAsset
}

// CardExporter writes song cards for many tracks concurrently.
type CardExporter struct {
	svc    services.SongService
	client *http.Client
	logger *log.Logger
}

// NewCardExporter creates a CardExporter. A nil client downloads covers with [http.DefaultClient].
func NewCardExporter(svc services.SongService, client *http.Client, logger *log.Logger) *CardExporter {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CardExporter{svc: svc, client: client, logger: logger}
}

// Export fetches every track in ids and writes its card, reporting progress on prog.
//
// Fetch failures become failed results rather than aborting the export. Results
// keep the order of ids.
func (e *CardExporter) Export(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts CardExportOpts) (*CardExportResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no track ids", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatMarkdown
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("sonar_cards_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan cardJob, len(ids))
	results := make(chan indexedResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.worker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if ctx.Err() != nil {
				return
			}
			sendProgress(prog, fetchingSongUpdate(i+1, len(ids), id))

			job, err := e.fetch(ctx, limiter, i, id)
			if err != nil {
				results <- indexedResult{index: i, CardResult: CardResult{TrackID: id, Title: id, Err: err}}
				continue
			}
			jobs <- job
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*CardResult, len(ids))
	completed := 0
	for res := range results {
		completed++
		if res.Err != nil {
			res.Error = res.Err.Error()
			sendProgress(prog, cardFailedUpdate(completed, len(ids), res.CardResult))
		} else {
			sendProgress(prog, cardCompletedUpdate(completed, len(ids), res.CardResult))
		}
		card := res.CardResult
		ordered[res.index] = &card
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &CardExportResult{Total: len(ids), OutputDirectory: opts.OutputDir}
	for i, card := range ordered {
		if card == nil {
			card = &CardResult{TrackID: ids[i], Title: ids[i], Error: "not exported"}
		}
		if card.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, *card)
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

type indexedResult struct {
	index int
	CardResult
}

// fetch resolves the song and its audio. A missing preview is not an error.
func (e *CardExporter) fetch(ctx context.Context, limiter *rate.Limiter, index int, id string) (cardJob, error) {
	if err := limiter.Wait(ctx); err != nil {
		return cardJob{}, err
	}
	song, err := e.svc.GetSong(ctx, id)
	if err != nil {
		return cardJob{}, fmt.Errorf("failed to fetch song: %w", err)
	}

	if err := limiter.Wait(ctx); err != nil {
		return cardJob{}, err
	}
	asset, err := e.svc.GetAudio(ctx, id)
	if err != nil {
		if !services.IsNotFound(err) {
			return cardJob{}, fmt.Errorf("failed to fetch audio: %w", err)
		}
		e.logger.Debug("no preview for card", "track", id)
		asset = nil
	}
	return cardJob{index: index, song: *song, asset: asset}, nil
}

// worker writes cards from the jobs channel.
func (e *CardExporter) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan cardJob, results chan<- indexedResult, opts CardExportOpts) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- indexedResult{index: job.index, CardResult: e.writeCard(ctx, job, opts)}
	}
}

func (e *CardExporter) writeCard(ctx context.Context, j cardJob, opts CardExportOpts) CardResult {
	song := j.song
	result := CardResult{
		TrackID:  song.TrackID,
		Title:    fmt.Sprintf("%s - %s", song.TrackArtist, song.TrackName),
		Fallback: j.asset == nil,
	}

	export := &formatter.Export{Title: result.Title, Songs: []models.Song{song}}
	var imageURL string
	if j.asset != nil {
		if j.asset.PreviewURL != nil {
			export.Description = "Preview: " + *j.asset.PreviewURL
		}
		if j.asset.AlbumImage != nil {
			imageURL = *j.asset.AlbumImage
		}
	}

	name := formatter.Slug(song.TrackID)
	switch opts.Format {
	case formatter.FormatMarkdown:
		md, err := formatter.WriteMarkdownExport(ctx, e.client, export, filepath.Join(opts.OutputDir, name), imageURL, io.Discard)
		if err != nil {
			result.Err = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		if imageURL != "" && md.CoverImage == "" {
			e.logger.Warn("cover not saved", "track", song.TrackID, "url", imageURL)
		}
		result.Files = md.Files
	default:
		path, err := formatter.WriteExport(export, opts.Format, filepath.Join(opts.OutputDir, name+opts.Format.Ext()))
		if err != nil {
			result.Err = fmt.Errorf("%s export failed: %w", opts.Format, err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/sonar/internal/formatter"
	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/player"
	"github.com/desertthunder/sonar/internal/services"
	"github.com/desertthunder/sonar/internal/shared"
	tu "github.com/desertthunder/sonar/internal/testing"
)

// endingSink finishes every track right after it loads.
type endingSink struct {
	*tu.RecordingSink
	onEnded player.EndedFunc
}

func (s *endingSink) Load(ctx context.Context, asset models.AudioAsset, playing bool) error {
	if err := s.RecordingSink.Load(ctx, asset, playing); err != nil {
		return err
	}
	go s.onEnded(asset.TrackID)
	return nil
}

func newTestRunner(svc *tu.FakeSongService, output io.Writer) *Runner {
	return NewRunner(RunnerOpts{
		Service: svc,
		Output:  output,
		Logger:  shared.NewLogger(io.Discard),
	})
}

func runApp(r *Runner, args ...string) error {
	app := &cli.Command{Name: "sonar", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"sonar"}, args...))
}

func decodeExport(t *testing.T, data []byte) formatter.Export {
	t.Helper()
	var export formatter.Export
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, data)
	}
	return export
}

func songIDs(songs []models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.TrackID
	}
	return out
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			svc := &tu.FakeSongService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Service:    svc,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.service != svc {
				t.Error("expected service to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil service uses the HTTP client", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.BaseURL = "http://api.test/v1"
			runner := NewRunner(RunnerOpts{Config: config})

			api, ok := runner.service.(*services.APIService)
			if !ok {
				t.Fatalf("expected *services.APIService, got %T", runner.service)
			}
			if api.BaseURL() != "http://api.test/v1" {
				t.Errorf("expected configured base URL, got %s", api.BaseURL())
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with none backend builds a silent sink", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Player.Backend = player.BackendNone
			runner := NewRunner(RunnerOpts{Config: config, Service: &tu.FakeSongService{}})

			sink, err := runner.openSink(nil, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, ok := sink.(*player.NopSink); !ok {
				t.Errorf("expected NopSink, got %T", sink)
			}
		})
	})

	t.Run("openSink", func(t *testing.T) {
		unavailable := func(*log.Logger, player.EndedFunc) (player.Sink, error) {
			return nil, fmt.Errorf("%w: mpv not found", shared.ErrPlayerUnavailable)
		}

		t.Run("falls back when the player is missing", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Service: &tu.FakeSongService{}, Logger: shared.NewLogger(io.Discard), NewSink: unavailable})

			sink, err := runner.openSink(nil, true)
			if err != nil {
				t.Fatalf("expected fallback, got %v", err)
			}
			if _, ok := sink.(*player.NopSink); !ok {
				t.Errorf("expected NopSink, got %T", sink)
			}
		})

		t.Run("reports a missing player without fallback", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Service: &tu.FakeSongService{}, NewSink: unavailable})

			if _, err := runner.openSink(nil, false); !errors.Is(err, shared.ErrPlayerUnavailable) {
				t.Errorf("expected ErrPlayerUnavailable, got %v", err)
			}
		})

		t.Run("never hides config errors", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Service: &tu.FakeSongService{},
				NewSink: func(*log.Logger, player.EndedFunc) (player.Sink, error) {
					return nil, shared.ErrInvalidConfig
				},
			})

			if _, err := runner.openSink(nil, true); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done")
			if result := output.String(); result != "\ndone\n" {
				t.Errorf("expected wrapped text, got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Service: &tu.FakeSongService{}})
		commands := runner.register()

		var names []string
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}
		for _, want := range []string{"songs", "audio", "recommend", "export", "play", "tui", "setup"} {
			if !slices.Contains(names, want) {
				t.Errorf("expected %s command, got %v", want, names)
			}
		}
	})
}

func TestSongsCommands(t *testing.T) {
	t.Run("list first page", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 15)}

		if err := runApp(newTestRunner(svc, output), "songs", "list", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		export := decodeExport(t, output.Bytes())
		if len(export.Songs) != 10 {
			t.Errorf("expected default page of 10, got %d", len(export.Songs))
		}
		if !strings.Contains(export.Description, "more available") {
			t.Errorf("expected more-available note, got %q", export.Description)
		}
	})

	t.Run("list with skip and search", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 15)}

		err := runApp(newTestRunner(svc, output), "songs", "list", "--skip", "10", "--limit", "10", "--search", "artist a", "--format", "json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		export := decodeExport(t, output.Bytes())
		if len(export.Songs) != 5 || export.Songs[0].TrackID != "a-11" {
			t.Errorf("expected a-11..a-15, got %v", songIDs(export.Songs))
		}
		if svc.LastSearch != "artist a" {
			t.Errorf("expected search forwarded, got %q", svc.LastSearch)
		}
	})

	t.Run("list to file", func(t *testing.T) {
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 3)}
		path := filepath.Join(t.TempDir(), "songs.csv")

		if err := runApp(newTestRunner(svc, &bytes.Buffer{}), "songs", "list", "--format", "csv", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "a-2,Song a-2") {
			t.Errorf("expected CSV rows, got %s", content)
		}
	})

	t.Run("list rejects unknown format", func(t *testing.T) {
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 3)}

		err := runApp(newTestRunner(svc, &bytes.Buffer{}), "songs", "list", "--format", "yaml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("list surfaces service errors", func(t *testing.T) {
		svc := &tu.FakeSongService{
			ListSongsFunc: func(context.Context, int, int, string) ([]models.Song, error) {
				return nil, &services.APIError{StatusCode: http.StatusServiceUnavailable, Detail: "down"}
			},
		}

		err := runApp(newTestRunner(svc, &bytes.Buffer{}), "songs", "list")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("get", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 3)}

		if err := runApp(newTestRunner(svc, output), "songs", "get", "a-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"track_id": "a-1"`) {
			t.Errorf("expected song JSON, got %s", output.String())
		}
	})

	t.Run("get requires an id", func(t *testing.T) {
		err := runApp(newTestRunner(&tu.FakeSongService{}, &bytes.Buffer{}), "songs", "get")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("more walks pages until the catalog ends", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 14)}

		if err := runApp(newTestRunner(svc, output), "songs", "more", "--pages", "5", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		export := decodeExport(t, output.Bytes())
		if len(export.Songs) != 14 {
			t.Errorf("expected all 14 songs, got %d", len(export.Songs))
		}
		if got := svc.Calls("ListSongs"); got != 2 {
			t.Errorf("expected 2 page requests, got %d", got)
		}
	})

	t.Run("more rejects non-positive pages", func(t *testing.T) {
		err := runApp(newTestRunner(&tu.FakeSongService{}, &bytes.Buffer{}), "songs", "more", "--pages", "0")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestAudioCommand(t *testing.T) {
	t.Run("resolves a preview", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 2)}

		if err := runApp(newTestRunner(svc, output), "audio", "a-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "https://cdn.example.com/a-1.mp3") {
			t.Errorf("expected preview URL, got %s", output.String())
		}
	})

	t.Run("falls back when no preview exists", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{
			Catalog: tu.MakeSongs("a", 2),
			GetAudioFunc: func(context.Context, string) (*models.AudioAsset, error) {
				return nil, &services.APIError{StatusCode: http.StatusNotFound, Detail: "no preview"}
			},
		}

		if err := runApp(newTestRunner(svc, output), "audio", "a-1"); err != nil {
			t.Fatalf("expected fallback, got %v", err)
		}
		if !strings.Contains(output.String(), player.FallbackURL) {
			t.Errorf("expected fallback URL, got %s", output.String())
		}
		if !strings.Contains(output.String(), `"album_image": null`) {
			t.Errorf("expected nil album image, got %s", output.String())
		}
	})

	t.Run("fails on transport errors", func(t *testing.T) {
		svc := &tu.FakeSongService{
			Catalog: tu.MakeSongs("a", 1),
			GetAudioFunc: func(context.Context, string) (*models.AudioAsset, error) {
				return nil, fmt.Errorf("%w: connection refused", shared.ErrAPIRequest)
			},
		}

		err := runApp(newTestRunner(svc, &bytes.Buffer{}), "audio", "a-1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("exports a card with the cover", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		svc := &tu.FakeSongService{
			Catalog: tu.MakeSongs("a", 1),
			GetAudioFunc: func(_ context.Context, id string) (*models.AudioAsset, error) {
				return &models.AudioAsset{TrackID: id, PreviewURL: models.StringPtr("https://cdn.example.com/p.mp3"), AlbumImage: models.StringPtr(server.URL + "/cover.jpg")}, nil
			},
		}
		dir := filepath.Join(t.TempDir(), "card")

		if err := runApp(newTestRunner(svc, &bytes.Buffer{}), "audio", "--export", dir, "a-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "cover.jpg"))
		if content := tu.MustReadFile(t, filepath.Join(dir, "README.md")); !strings.Contains(content, "Song a-1") {
			t.Errorf("expected song in card, got %s", content)
		}
	})
}

func TestRecommendCommands(t *testing.T) {
	recommended := func(context.Context, []string, int) ([]models.Song, error) {
		return tu.MakeSongs("r", 3), nil
	}

	t.Run("similar", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{RecommendFunc: recommended}

		err := runApp(newTestRunner(svc, output), "recommend", "similar", "--id", "b", "--id", "a", "--limit", "3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !slices.Equal(svc.LastRecommendIDs, []string{"a", "b"}) {
			t.Errorf("expected both seeds, got %v", svc.LastRecommendIDs)
		}
		if svc.LastRecommendLimit != 3 {
			t.Errorf("expected limit 3, got %d", svc.LastRecommendLimit)
		}
		if !strings.Contains(output.String(), "Song r-2") {
			t.Errorf("expected recommendations, got %s", output.String())
		}
	})

	t.Run("similar uses the configured limit", func(t *testing.T) {
		svc := &tu.FakeSongService{RecommendFunc: recommended}

		if err := runApp(newTestRunner(svc, &bytes.Buffer{}), "recommend", "similar", "--id", "a"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.LastRecommendLimit != shared.DefaultConfig().Session.RecommendLimit {
			t.Errorf("expected default limit, got %d", svc.LastRecommendLimit)
		}
	})

	t.Run("text", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{
			RecommendTextFunc: func(context.Context, string, int) ([]models.Song, error) {
				return tu.MakeSongs("t", 2), nil
			},
		}

		if err := runApp(newTestRunner(svc, output), "recommend", "text", "--format", "json", "rainy night jazz"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.LastText != "rainy night jazz" {
			t.Errorf("expected prompt forwarded, got %q", svc.LastText)
		}
		if export := decodeExport(t, output.Bytes()); len(export.Songs) != 2 {
			t.Errorf("expected 2 songs, got %d", len(export.Songs))
		}
	})

	t.Run("text requires a prompt", func(t *testing.T) {
		svc := &tu.FakeSongService{}

		err := runApp(newTestRunner(svc, &bytes.Buffer{}), "recommend", "text", "   ")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if svc.TotalCalls() != 0 {
			t.Error("expected no service calls")
		}
	})

	t.Run("pick", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 4), RecommendFunc: recommended}
		var offered []string
		runner := NewRunner(RunnerOpts{
			Service: svc,
			Output:  output,
			Logger:  shared.NewLogger(io.Discard),
			Picker: func(songs []models.Song) ([]string, error) {
				offered = songIDs(songs)
				return []string{"a-3", "a-1"}, nil
			},
		})

		if err := runApp(runner, "recommend", "pick"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(offered) != 4 {
			t.Errorf("expected the catalog page offered, got %v", offered)
		}
		if !slices.Equal(svc.LastRecommendIDs, []string{"a-1", "a-3"}) {
			t.Errorf("expected picked seeds, got %v", svc.LastRecommendIDs)
		}
	})

	t.Run("pick with nothing selected", func(t *testing.T) {
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 2)}
		runner := NewRunner(RunnerOpts{
			Service: svc,
			Output:  &bytes.Buffer{},
			Logger:  shared.NewLogger(io.Discard),
			Picker:  func([]models.Song) ([]string, error) { return nil, nil },
		})

		if err := runApp(runner, "recommend", "pick"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.Calls("Recommend") != 0 {
			t.Error("expected no recommendation request")
		}
	})

	t.Run("pick on an empty catalog", func(t *testing.T) {
		err := runApp(newTestRunner(&tu.FakeSongService{}, &bytes.Buffer{}), "recommend", "pick")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("cards for ids", func(t *testing.T) {
		output := &bytes.Buffer{}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 3)}
		dir := t.TempDir()

		err := runApp(newTestRunner(svc, output), "export", "--id", "a-1", "--id", "a-3", "--format", "json", "--dir", dir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "a-1.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "a-3.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(output.String(), "Exported 2/2 cards") {
			t.Errorf("expected summary, got %q", output.String())
		}
	})

	t.Run("cards for a search page", func(t *testing.T) {
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 12)}
		dir := t.TempDir()

		if err := runApp(newTestRunner(svc, &bytes.Buffer{}), "export", "--format", "text", "--dir", dir); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "a-10.txt"))
		if _, err := os.Stat(filepath.Join(dir, "a-11.txt")); !os.IsNotExist(err) {
			t.Error("expected only the first page exported")
		}
	})

	t.Run("nothing to export", func(t *testing.T) {
		err := runApp(newTestRunner(&tu.FakeSongService{}, &bytes.Buffer{}), "export", "--dir", t.TempDir())
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPlayCommand(t *testing.T) {
	newPlayRunner := func(svc *tu.FakeSongService, output io.Writer, sink *endingSink) *Runner {
		return NewRunner(RunnerOpts{
			Service: svc,
			Output:  output,
			Logger:  shared.NewLogger(io.Discard),
			NewSink: func(_ *log.Logger, onEnded player.EndedFunc) (player.Sink, error) {
				sink.onEnded = onEnded
				return sink, nil
			},
		})
	}

	t.Run("plays through the catalog", func(t *testing.T) {
		output := &bytes.Buffer{}
		sink := &endingSink{RecordingSink: &tu.RecordingSink{}}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 3)}

		if err := runApp(newPlayRunner(svc, output, sink), "play"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := songIDsFromAssets(sink.Loaded()); !slices.Equal(got, []string{"a-1", "a-2", "a-3"}) {
			t.Errorf("expected every song loaded in order, got %v", got)
		}
		want := "▶ Artist a - Song a-1\n▶ Artist a - Song a-2\n▶ Artist a - Song a-3\n"
		if output.String() != want {
			t.Errorf("expected every song announced in order, got %q", output.String())
		}
	})

	t.Run("starts from a track id", func(t *testing.T) {
		sink := &endingSink{RecordingSink: &tu.RecordingSink{}}
		svc := &tu.FakeSongService{Catalog: tu.MakeSongs("a", 3)}

		if err := runApp(newPlayRunner(svc, &bytes.Buffer{}, sink), "play", "--volume", "0.2", "a-2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := songIDsFromAssets(sink.Loaded()); !slices.Equal(got, []string{"a-2", "a-3"}) {
			t.Errorf("expected a-2 then a-3, got %v", got)
		}
		if !slices.Contains(sink.Calls(), "volume:0.20") {
			t.Errorf("expected volume applied, got %v", sink.Calls())
		}
	})

	t.Run("empty catalog", func(t *testing.T) {
		output := &bytes.Buffer{}
		sink := &endingSink{RecordingSink: &tu.RecordingSink{}}

		if err := runApp(newPlayRunner(&tu.FakeSongService{}, output, sink), "play"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No songs to play") {
			t.Errorf("expected empty notice, got %q", output.String())
		}
	})

	t.Run("requires a player", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Service: &tu.FakeSongService{},
			Logger:  shared.NewLogger(io.Discard),
			NewSink: func(*log.Logger, player.EndedFunc) (player.Sink, error) {
				return nil, shared.ErrPlayerUnavailable
			},
		})

		if err := runApp(runner, "play"); !errors.Is(err, shared.ErrPlayerUnavailable) {
			t.Errorf("expected ErrPlayerUnavailable, got %v", err)
		}
	})
}

func songIDsFromAssets(assets []models.AudioAsset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.TrackID
	}
	return out
}

func TestSetupCommand(t *testing.T) {
	t.Run("writes the example config", func(t *testing.T) {
		output := &bytes.Buffer{}
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := runApp(newTestRunner(&tu.FakeSongService{}, output), "setup", "config", "--path", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), path) {
			t.Errorf("expected path in output, got %q", output.String())
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[api]\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := runApp(newTestRunner(&tu.FakeSongService{}, &bytes.Buffer{}), "setup", "config", "--path", path); err == nil {
			t.Error("expected error for existing file")
		}
	})
}

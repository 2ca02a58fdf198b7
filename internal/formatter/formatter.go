// package formatter renders song lists as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/sonar/internal/models"
	"github.com/desertthunder/sonar/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists every supported format, in flag help order.
var Formats = []Format{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// Export is a titled song list, such as a search page or a recommendation result.
type Export struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Songs       []models.Song `json:"songs"`
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Render encodes export in the given format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatText:
		return ExportToText(export)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// ExportToJSON encodes the export as indented JSON.
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ExportToCSV writes one row per song with display fields and the headline audio features.
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Released", "Genre", "Popularity", "Duration", "Tempo", "Energy", "Valence", "Danceability"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range export.Songs {
		record := []string{
			song.TrackID,
			song.TrackName,
			song.TrackArtist,
			song.TrackAlbumName,
			song.TrackAlbumReleaseDate,
			song.Genre(),
			strconv.Itoa(song.TrackPopularity),
			FormatDuration(song.DurationMS),
			strconv.FormatFloat(song.Tempo, 'f', 1, 64),
			strconv.FormatFloat(song.Energy, 'f', 3, 64),
			strconv.FormatFloat(song.Valence, 'f', 3, 64),
			strconv.FormatFloat(song.Danceability, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a numbered song list with an optional cover image.
func ExportToMarkdown(export *Export, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if export.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", export.Description)
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(export.Songs))

	buf.WriteString("## Songs\n\n")
	for i, song := range export.Songs {
		albumPart := ""
		if song.TrackAlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", song.TrackAlbumName)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, song.TrackArtist, song.TrackName, albumPart, FormatDuration(song.DurationMS))
	}

	return buf.Bytes(), nil
}

// ExportToText renders a plain numbered list.
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", export.Title)
	if export.Description != "" {
		fmt.Fprintf(&buf, "%s\n", export.Description)
	}
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(export.Songs))

	for i, song := range export.Songs {
		fmt.Fprintf(&buf, "%2d. %s - %s [%s] (%s)\n", i+1, song.TrackArtist, song.TrackName, FormatDuration(song.DurationMS), song.TrackID)
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an album image and returns the raw bytes.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a file name stem.
func Slug(title string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return "songs"
	}
	return slug
}

// WriteExport renders export and writes it to path.
//
// An empty path defaults to the slugged title with the format's extension.
func WriteExport(export *Export, format Format, path string) (string, error) {
	if path == "" {
		path = Slug(export.Title) + format.Ext()
	}

	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when imageURL downloads, {dir}/cover.jpg.
//
// A failed cover download is reported through warn and does not fail the export.
func WriteMarkdownExport(ctx context.Context, client *http.Client, export *Export, outputDir, imageURL string, warn io.Writer) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Slug(export.Title)
	}
	if warn == nil {
		warn = io.Discard
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(ctx, client, imageURL)
		if err != nil {
			fmt.Fprintf(warn, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

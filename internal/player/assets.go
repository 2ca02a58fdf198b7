package player

import (
	_ "embed"
	"fmt"
	"os"
)

// FallbackURL stands in for a preview URL when the song API has no audio for a track.
const FallbackURL = "sonar://fallback.wav"

//go:embed assets/fallback.wav
var fallbackWAV []byte

// FallbackAudio returns the embedded fallback clip.
func FallbackAudio() []byte {
	return fallbackWAV
}

// writeFallback materializes the fallback clip to a temp file for external players.
func writeFallback() (string, error) {
	f, err := os.CreateTemp("", "sonar-fallback-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create fallback file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(fallbackWAV); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write fallback file: %w", err)
	}
	return f.Name(), nil
}

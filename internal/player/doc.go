// Package player drives audio playback for the session controller.
//
// A [Sink] is the single active output. [MPVSink] runs one external mpv process per
// track and controls it over mpv's JSON IPC socket; [NopSink] accepts every call and plays nothing.
//
// When the song API has no audio for a track, the controller loads [FallbackURL]. Sinks
// resolve it to a short WAV embedded in this package.
package player

// Package tasks runs bulk work against the song service with progress reporting.
//
// # Card Export
//
// [CardExporter.Export] writes one "card" per track: the song's details plus its
// preview link, and for Markdown a directory holding README.md and the album cover.
//
//   - A single producer fetches each song and its audio under a [rate.Limiter]
//   - A fixed pool of workers renders and writes the files
//   - A manifest (export_manifest.json) summarizes every card, including failures
//
// A track without a preview (the service answers 404) still gets a card; it is
// marked as a fallback and has no cover.
//
// # Progress Reporting
//
// Progress goes out on an optional channel as [ProgressUpdate] values. Sends use
// select with default, so a slow or absent reader never stalls the export.
package tasks

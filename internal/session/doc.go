// Package session owns the mutable state of one song discovery session.
//
// A [Controller] holds the catalog, the selection set, the recommendation mode flag and
// the playback cursor. Every mutation goes through a named operation; readers take a
// [Snapshot] or follow [Controller.Updates].
//
// # Catalog
//
// [Controller.FetchCatalog] replaces the catalog when offset is 0 and appends otherwise.
// HasMore is the heuristic len(page) == limit, so an exactly full last page reports
// more-available once. Recommendations replace the catalog and turn pagination off.
//
// # Playback
//
// The cursor moves Idle → Loading → Ready/Playing or Ready/Paused on every song change.
// Playing the current song again only flips play/pause. Failed audio resolution is looked
// up in a [RecoveryPolicy]; the default recovers not-found with the embedded fallback clip.
//
// # Overlapping requests
//
// Each catalog or playback request takes a generation number. With DiscardStale set, a
// response that settles after a newer request was issued is dropped; without it the last
// settlement wins.
package session

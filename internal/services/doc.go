// Package services defines the [SongService] interface for the song discovery API and implements it over HTTP.
//
// # Song Service Interface
//
// The session controller depends only on [SongService], so tests swap in a fake
// and the TUI and CLI share one client.
//
// # HTTP Implementation
//
// [APIService] talks JSON to the recommendation service:
//   - GET  /songs/               : paginated catalog (skip, limit, search)
//   - GET  /songs/{track_id}     : single song
//   - GET  /music/audio/{track_id} : audio asset, 404 when no preview exists
//   - POST /recommend/           : similarity recommendation by ids
//   - POST /recommend/text       : free-text recommendation
//
// Requests pass through a client-side [rate.Limiter] and are retried with
// exponential backoff on transport errors, 429 and 5xx responses. Retry-After is honored.
//
// # Error Handling
//
// Non-2xx responses become [*APIError] carrying the status code and the FastAPI "detail" message:
//   - errors.Is(err, [shared.ErrAPIRequest]) : every API error
//   - errors.Is(err, [shared.ErrNotFound]) : 404
//   - errors.Is(err, [shared.ErrServiceUnavailable]) : 503 or retries exhausted
package services

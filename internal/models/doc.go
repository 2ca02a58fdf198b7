// Package models defines domain entities for the sonar song discovery client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): values decoded from the recommendation service
//   - [Song] : Catalog entry with display metadata and audio features
//   - [AudioAsset] : Playable media resolved for a single song
//   - [RecommendRequest], [TextRecommendRequest] : Recommendation request bodies
//
// 2. Session Entities: rows kept in the in-memory session journal
//   - [HistoryEntry] : A search, recommendation or play recorded during the session
//
// Session entities implement the [Model] interface providing ID, timestamps and validation.
// Nothing in this package outlives the process.
package models

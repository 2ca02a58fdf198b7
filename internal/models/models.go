// package models defines the data model for the song discovery client
package models

import (
	"time"
)

// Model defines the base interface for session entities stored in the journal.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Song is a catalog entry served by the recommendation service.
//
// Audio features are carried through untouched; the service uses them for similarity.
type Song struct {
	TrackID               string  `json:"track_id"`
	TrackName             string  `json:"track_name"`
	TrackArtist           string  `json:"track_artist"`
	TrackPopularity       int     `json:"track_popularity"`
	TrackAlbumID          string  `json:"track_album_id"`
	TrackAlbumName        string  `json:"track_album_name"`
	TrackAlbumReleaseDate string  `json:"track_album_release_date"`
	PlaylistName          *string `json:"playlist_name,omitempty"`
	PlaylistID            *string `json:"playlist_id,omitempty"`
	PlaylistGenre         *string `json:"playlist_genre,omitempty"`
	PlaylistSubgenre      *string `json:"playlist_subgenre,omitempty"`
	DurationMS            int     `json:"duration_ms"`

	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
}

// Genre returns the playlist genre or an empty string.
func (s Song) Genre() string {
	if s.PlaylistGenre == nil {
		return ""
	}
	return *s.PlaylistGenre
}

// AudioAsset is the playable media resolved for a [Song].
type AudioAsset struct {
	TrackID    string  `json:"track_id"`
	PreviewURL *string `json:"preview_url"`
	AlbumImage *string `json:"album_image"`
	Name       string  `json:"name,omitempty"`
	Artist     string  `json:"artist,omitempty"`
}

// Playable reports whether the asset carries a preview URL.
func (a AudioAsset) Playable() bool {
	return a.PreviewURL != nil && *a.PreviewURL != ""
}

// RecommendRequest is the body of POST /recommend/.
type RecommendRequest struct {
	SongIDs []string `json:"song_ids"`
	Limit   int      `json:"limit"`
}

// TextRecommendRequest is the body of POST /recommend/text.
type TextRecommendRequest struct {
	TextInput string `json:"text_input"`
	Limit     int    `json:"limit"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

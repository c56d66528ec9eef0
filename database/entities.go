package database

import (
	"time"

	"github.com/google/uuid"
)

type LocalArtist struct {
	ID       string `db:"artist_id"`
	Name     string `db:"name"`
	ImageURL string `db:"image_url"`
}

type LocalSimplifiedArtist struct {
	ID   string `db:"simplified_artist_id"`
	Name string `db:"name"`
}

type LocalAlbum struct {
	ID          string `db:"album_id"`
	Type        string `db:"album_type"`
	ImageURL    string `db:"image_url"`
	Name        string `db:"name"`
	ReleaseDate string `db:"release_date"`
}

type LocalTrack struct {
	ID         string `db:"track_id"`
	Name       string `db:"name"`
	AlbumID    string `db:"album_id"`
	DurationMS int64  `db:"duration_ms"`
	Explicit   bool   `db:"explicit"`
	PreviewURL string `db:"preview_url"`
}

type LocalSimplifiedTrack struct {
	ID          string `db:"simplified_track_id"`
	Name        string `db:"name"`
	DurationMS  int64  `db:"duration_ms"`
	TrackNumber int    `db:"track_number"`
	DiscNumber  int    `db:"disc_number"`
}

// LocalRecommendation marks a cached track as part of the current
// recommendation set. Its ID is the track ID.
type LocalRecommendation struct {
	ID       string `db:"recommendation_id"`
	Position int    `db:"position"`
}

type LocalRecentlyPlayed struct {
	ID       string `db:"recently_played_id"`
	TrackID  string `db:"track_id"`
	PlayedAt int64  `db:"played_at"` // unix milliseconds
}

// NewLocalRecentlyPlayed keys a play by track and timestamp so fetching the
// same history twice yields the same rows.
func NewLocalRecentlyPlayed(trackID string, playedAt time.Time) LocalRecentlyPlayed {
	name := trackID + "@" + playedAt.UTC().Format(time.RFC3339Nano)
	return LocalRecentlyPlayed{
		ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String(),
		TrackID:  trackID,
		PlayedAt: playedAt.UnixMilli(),
	}
}

func (r LocalRecentlyPlayed) PlayedAtTime() time.Time {
	return time.UnixMilli(r.PlayedAt).UTC()
}

type TrackArtistCrossRef struct {
	TrackID  string `db:"track_id"`
	ArtistID string `db:"artist_id"`
	Position int    `db:"position"`
}

type AlbumArtistCrossRef struct {
	AlbumID            string `db:"album_id"`
	SimplifiedArtistID string `db:"simplified_artist_id"`
	Position           int    `db:"position"`
}

type AlbumTrackCrossRef struct {
	AlbumID           string `db:"album_id"`
	SimplifiedTrackID string `db:"simplified_track_id"`
}

type SimplifiedTrackArtistCrossRef struct {
	SimplifiedTrackID  string `db:"simplified_track_id"`
	SimplifiedArtistID string `db:"simplified_artist_id"`
	Position           int    `db:"position"`
}

type LocalAlbumWithArtists struct {
	Album   LocalAlbum
	Artists []LocalSimplifiedArtist
}

type LocalTrackWithArtists struct {
	Track   LocalTrack
	Album   LocalAlbumWithArtists
	Artists []LocalArtist
}

type LocalSimplifiedTrackWithArtists struct {
	Track   LocalSimplifiedTrack
	Artists []LocalSimplifiedArtist
}

type LocalRecentlyPlayedWithArtists struct {
	RecentlyPlayed LocalRecentlyPlayed
	Track          LocalTrackWithArtists
}

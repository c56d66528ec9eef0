package database

// SchemaVersion is stored in PRAGMA user_version. Bumping it wipes the cache
// on the next start; there is no data migration.
const SchemaVersion = 25

const (
	tableArtists               = "artists"
	tableSimplifiedArtists     = "simplified_artists"
	tableAlbums                = "albums"
	tableTracks                = "tracks"
	tableSimplifiedTracks      = "simplified_tracks"
	tableRecommendations       = "recommendations"
	tableRecentlyPlayed        = "recently_played"
	tableTrackArtist           = "track_artist"
	tableAlbumArtist           = "album_artist"
	tableAlbumTrack            = "album_track"
	tableSimplifiedTrackArtist = "simplified_track_artist"
)

// dropOrder lists every table children first so drops never trip a foreign key.
var dropOrder = []string{
	tableSimplifiedTrackArtist,
	tableAlbumTrack,
	tableAlbumArtist,
	tableTrackArtist,
	tableRecentlyPlayed,
	tableRecommendations,
	tableSimplifiedTracks,
	tableTracks,
	tableAlbums,
	tableSimplifiedArtists,
	tableArtists,
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		artist_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS simplified_artists (
		simplified_artist_id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS albums (
		album_id TEXT PRIMARY KEY,
		album_type TEXT NOT NULL DEFAULT 'album',
		image_url TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		release_date TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		track_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		album_id TEXT NOT NULL REFERENCES albums(album_id),
		duration_ms INTEGER NOT NULL DEFAULT 0,
		explicit BOOLEAN NOT NULL DEFAULT 0,
		preview_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_album_id ON tracks(album_id)`,
	`CREATE TABLE IF NOT EXISTS simplified_tracks (
		simplified_track_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		track_number INTEGER NOT NULL DEFAULT 0,
		disc_number INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		recommendation_id TEXT PRIMARY KEY REFERENCES tracks(track_id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS recently_played (
		recently_played_id TEXT PRIMARY KEY,
		track_id TEXT NOT NULL REFERENCES tracks(track_id) ON DELETE CASCADE,
		played_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recently_played_played_at ON recently_played(played_at DESC)`,
	`CREATE TABLE IF NOT EXISTS track_artist (
		track_id TEXT NOT NULL REFERENCES tracks(track_id) ON DELETE CASCADE,
		artist_id TEXT NOT NULL REFERENCES artists(artist_id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (track_id, artist_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_track_artist_artist_id ON track_artist(artist_id)`,
	`CREATE TABLE IF NOT EXISTS album_artist (
		album_id TEXT NOT NULL REFERENCES albums(album_id) ON DELETE CASCADE,
		simplified_artist_id TEXT NOT NULL REFERENCES simplified_artists(simplified_artist_id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (album_id, simplified_artist_id)
	)`,
	`CREATE TABLE IF NOT EXISTS album_track (
		album_id TEXT NOT NULL REFERENCES albums(album_id) ON DELETE CASCADE,
		simplified_track_id TEXT NOT NULL REFERENCES simplified_tracks(simplified_track_id) ON DELETE CASCADE,
		PRIMARY KEY (album_id, simplified_track_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_album_track_track_id ON album_track(simplified_track_id)`,
	`CREATE TABLE IF NOT EXISTS simplified_track_artist (
		simplified_track_id TEXT NOT NULL REFERENCES simplified_tracks(simplified_track_id) ON DELETE CASCADE,
		simplified_artist_id TEXT NOT NULL REFERENCES simplified_artists(simplified_artist_id) ON DELETE CASCADE,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (simplified_track_id, simplified_artist_id)
	)`,
}

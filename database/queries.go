package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type trackArtistRow struct {
	TrackID string `db:"track_id"`
	LocalArtist
}

type albumArtistRow struct {
	AlbumID string `db:"album_id"`
	LocalSimplifiedArtist
}

type simplifiedTrackArtistRow struct {
	SimplifiedTrackID string `db:"simplified_track_id"`
	LocalSimplifiedArtist
}

func selectIn[T any](ctx context.Context, q sqlx.QueryerContext, query string, ids []string) ([]T, error) {
	var rows []T
	if len(ids) == 0 {
		return rows, nil
	}
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func loadAlbumsWithArtists(ctx context.Context, tx *sqlx.Tx, albums []LocalAlbum) ([]LocalAlbumWithArtists, error) {
	ids := make([]string, 0, len(albums))
	for _, a := range albums {
		ids = append(ids, a.ID)
	}

	rows, err := selectIn[albumArtistRow](ctx, tx,
		`SELECT aa.album_id, sa.simplified_artist_id, sa.name
		FROM album_artist aa
		JOIN simplified_artists sa ON sa.simplified_artist_id = aa.simplified_artist_id
		WHERE aa.album_id IN (?)
		ORDER BY aa.album_id, aa.position`, distinct(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load album artists: %w", err)
	}

	byAlbum := make(map[string][]LocalSimplifiedArtist)
	for _, r := range rows {
		byAlbum[r.AlbumID] = append(byAlbum[r.AlbumID], r.LocalSimplifiedArtist)
	}

	result := make([]LocalAlbumWithArtists, 0, len(albums))
	for _, a := range albums {
		result = append(result, LocalAlbumWithArtists{Album: a, Artists: byAlbum[a.ID]})
	}
	return result, nil
}

// loadTracksWithArtists resolves the album and artists of each track, in the
// order the tracks were given.
func loadTracksWithArtists(ctx context.Context, tx *sqlx.Tx, tracks []LocalTrack) ([]LocalTrackWithArtists, error) {
	trackIDs := make([]string, 0, len(tracks))
	albumIDs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		trackIDs = append(trackIDs, t.ID)
		albumIDs = append(albumIDs, t.AlbumID)
	}

	artistRows, err := selectIn[trackArtistRow](ctx, tx,
		`SELECT ta.track_id, a.artist_id, a.name, a.image_url
		FROM track_artist ta
		JOIN artists a ON a.artist_id = ta.artist_id
		WHERE ta.track_id IN (?)
		ORDER BY ta.track_id, ta.position`, distinct(trackIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load track artists: %w", err)
	}
	byTrack := make(map[string][]LocalArtist)
	for _, r := range artistRows {
		byTrack[r.TrackID] = append(byTrack[r.TrackID], r.LocalArtist)
	}

	albums, err := selectIn[LocalAlbum](ctx, tx,
		`SELECT album_id, album_type, image_url, name, release_date FROM albums WHERE album_id IN (?)`,
		distinct(albumIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load track albums: %w", err)
	}
	withArtists, err := loadAlbumsWithArtists(ctx, tx, albums)
	if err != nil {
		return nil, err
	}
	byAlbum := make(map[string]LocalAlbumWithArtists, len(withArtists))
	for _, a := range withArtists {
		byAlbum[a.Album.ID] = a
	}

	result := make([]LocalTrackWithArtists, 0, len(tracks))
	for _, t := range tracks {
		result = append(result, LocalTrackWithArtists{
			Track:   t,
			Album:   byAlbum[t.AlbumID],
			Artists: byTrack[t.ID],
		})
	}
	return result, nil
}

func loadSimplifiedTracksWithArtists(ctx context.Context, tx *sqlx.Tx, tracks []LocalSimplifiedTrack) ([]LocalSimplifiedTrackWithArtists, error) {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}

	rows, err := selectIn[simplifiedTrackArtistRow](ctx, tx,
		`SELECT sta.simplified_track_id, sa.simplified_artist_id, sa.name
		FROM simplified_track_artist sta
		JOIN simplified_artists sa ON sa.simplified_artist_id = sta.simplified_artist_id
		WHERE sta.simplified_track_id IN (?)
		ORDER BY sta.simplified_track_id, sta.position`, distinct(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load simplified track artists: %w", err)
	}
	byTrack := make(map[string][]LocalSimplifiedArtist)
	for _, r := range rows {
		byTrack[r.SimplifiedTrackID] = append(byTrack[r.SimplifiedTrackID], r.LocalSimplifiedArtist)
	}

	result := make([]LocalSimplifiedTrackWithArtists, 0, len(tracks))
	for _, t := range tracks {
		result = append(result, LocalSimplifiedTrackWithArtists{Track: t, Artists: byTrack[t.ID]})
	}
	return result, nil
}

func queryAllTracks(ctx context.Context, tx *sqlx.Tx) ([]LocalTrackWithArtists, bool, error) {
	var tracks []LocalTrack
	if err := tx.SelectContext(ctx, &tracks, `SELECT track_id, name, album_id, duration_ms, explicit, preview_url FROM tracks ORDER BY name`); err != nil {
		return nil, false, fmt.Errorf("failed to select tracks: %w", err)
	}
	result, err := loadTracksWithArtists(ctx, tx, tracks)
	return result, err == nil, err
}

func queryAllArtists(ctx context.Context, tx *sqlx.Tx) ([]LocalArtist, bool, error) {
	artists := []LocalArtist{}
	if err := tx.SelectContext(ctx, &artists, `SELECT artist_id, name, image_url FROM artists ORDER BY name`); err != nil {
		return nil, false, fmt.Errorf("failed to select artists: %w", err)
	}
	return artists, true, nil
}

func queryAllSimplifiedArtists(ctx context.Context, tx *sqlx.Tx) ([]LocalSimplifiedArtist, bool, error) {
	artists := []LocalSimplifiedArtist{}
	if err := tx.SelectContext(ctx, &artists, `SELECT simplified_artist_id, name FROM simplified_artists ORDER BY name`); err != nil {
		return nil, false, fmt.Errorf("failed to select simplified artists: %w", err)
	}
	return artists, true, nil
}

func queryAllAlbums(ctx context.Context, tx *sqlx.Tx) ([]LocalAlbumWithArtists, bool, error) {
	var albums []LocalAlbum
	if err := tx.SelectContext(ctx, &albums, `SELECT album_id, album_type, image_url, name, release_date FROM albums ORDER BY name`); err != nil {
		return nil, false, fmt.Errorf("failed to select albums: %w", err)
	}
	result, err := loadAlbumsWithArtists(ctx, tx, albums)
	return result, err == nil, err
}

func queryRecommendations(ctx context.Context, tx *sqlx.Tx) ([]LocalTrackWithArtists, bool, error) {
	var tracks []LocalTrack
	err := tx.SelectContext(ctx, &tracks,
		`SELECT t.track_id, t.name, t.album_id, t.duration_ms, t.explicit, t.preview_url
		FROM tracks t
		JOIN recommendations r ON r.recommendation_id = t.track_id
		ORDER BY r.position`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to select recommendations: %w", err)
	}
	result, err := loadTracksWithArtists(ctx, tx, tracks)
	return result, err == nil, err
}

func queryRecentlyPlayed(ctx context.Context, tx *sqlx.Tx) ([]LocalRecentlyPlayedWithArtists, bool, error) {
	var history []LocalRecentlyPlayed
	err := tx.SelectContext(ctx, &history,
		`SELECT recently_played_id, track_id, played_at FROM recently_played ORDER BY played_at DESC`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to select recently played: %w", err)
	}

	trackIDs := make([]string, 0, len(history))
	for _, h := range history {
		trackIDs = append(trackIDs, h.TrackID)
	}
	tracks, err := selectIn[LocalTrack](ctx, tx,
		`SELECT track_id, name, album_id, duration_ms, explicit, preview_url FROM tracks WHERE track_id IN (?)`,
		distinct(trackIDs))
	if err != nil {
		return nil, false, fmt.Errorf("failed to select recently played tracks: %w", err)
	}
	withArtists, err := loadTracksWithArtists(ctx, tx, tracks)
	if err != nil {
		return nil, false, err
	}
	byID := make(map[string]LocalTrackWithArtists, len(withArtists))
	for _, t := range withArtists {
		byID[t.Track.ID] = t
	}

	result := make([]LocalRecentlyPlayedWithArtists, 0, len(history))
	for _, h := range history {
		result = append(result, LocalRecentlyPlayedWithArtists{RecentlyPlayed: h, Track: byID[h.TrackID]})
	}
	return result, true, nil
}

func queryTrack(id string) queryFunc[LocalTrackWithArtists] {
	return func(ctx context.Context, tx *sqlx.Tx) (LocalTrackWithArtists, bool, error) {
		var track LocalTrack
		err := tx.GetContext(ctx, &track,
			`SELECT track_id, name, album_id, duration_ms, explicit, preview_url FROM tracks WHERE track_id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return LocalTrackWithArtists{}, false, nil
		}
		if err != nil {
			return LocalTrackWithArtists{}, false, fmt.Errorf("failed to select track %s: %w", id, err)
		}
		result, err := loadTracksWithArtists(ctx, tx, []LocalTrack{track})
		if err != nil {
			return LocalTrackWithArtists{}, false, err
		}
		return result[0], true, nil
	}
}

func queryAlbum(id string) queryFunc[LocalAlbumWithArtists] {
	return func(ctx context.Context, tx *sqlx.Tx) (LocalAlbumWithArtists, bool, error) {
		var album LocalAlbum
		err := tx.GetContext(ctx, &album,
			`SELECT album_id, album_type, image_url, name, release_date FROM albums WHERE album_id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return LocalAlbumWithArtists{}, false, nil
		}
		if err != nil {
			return LocalAlbumWithArtists{}, false, fmt.Errorf("failed to select album %s: %w", id, err)
		}
		result, err := loadAlbumsWithArtists(ctx, tx, []LocalAlbum{album})
		if err != nil {
			return LocalAlbumWithArtists{}, false, err
		}
		return result[0], true, nil
	}
}

func queryAlbumTracks(id string) queryFunc[[]LocalSimplifiedTrackWithArtists] {
	return func(ctx context.Context, tx *sqlx.Tx) ([]LocalSimplifiedTrackWithArtists, bool, error) {
		var tracks []LocalSimplifiedTrack
		err := tx.SelectContext(ctx, &tracks,
			`SELECT st.simplified_track_id, st.name, st.duration_ms, st.track_number, st.disc_number
			FROM simplified_tracks st
			JOIN album_track atr ON atr.simplified_track_id = st.simplified_track_id
			WHERE atr.album_id = ?
			ORDER BY st.disc_number, st.track_number`, id)
		if err != nil {
			return nil, false, fmt.Errorf("failed to select tracks of album %s: %w", id, err)
		}
		result, err := loadSimplifiedTracksWithArtists(ctx, tx, tracks)
		return result, err == nil, err
	}
}

var (
	trackTables          = []string{tableTracks, tableTrackArtist, tableArtists, tableAlbums, tableAlbumArtist, tableSimplifiedArtists}
	albumTables          = []string{tableAlbums, tableAlbumArtist, tableSimplifiedArtists}
	albumTrackTables     = []string{tableSimplifiedTracks, tableAlbumTrack, tableSimplifiedTrackArtist, tableSimplifiedArtists}
	recommendationTables = append([]string{tableRecommendations}, trackTables...)
	recentlyPlayedTables = append([]string{tableRecentlyPlayed}, trackTables...)
)

func (d *Database) ObserveAllTracks(ctx context.Context) <-chan []LocalTrackWithArtists {
	return observe(ctx, d, "all_tracks", trackTables, queryAllTracks)
}

func (d *Database) ObserveAllArtists(ctx context.Context) <-chan []LocalArtist {
	return observe(ctx, d, "all_artists", []string{tableArtists}, queryAllArtists)
}

func (d *Database) ObserveAllSimplifiedArtists(ctx context.Context) <-chan []LocalSimplifiedArtist {
	return observe(ctx, d, "all_simplified_artists", []string{tableSimplifiedArtists}, queryAllSimplifiedArtists)
}

func (d *Database) ObserveAllAlbums(ctx context.Context) <-chan []LocalAlbumWithArtists {
	return observe(ctx, d, "all_albums", albumTables, queryAllAlbums)
}

func (d *Database) ObserveRecommendations(ctx context.Context) <-chan []LocalTrackWithArtists {
	return observe(ctx, d, "recommendations", recommendationTables, queryRecommendations)
}

func (d *Database) ObserveRecentlyPlayed(ctx context.Context) <-chan []LocalRecentlyPlayedWithArtists {
	return observe(ctx, d, "recently_played", recentlyPlayedTables, queryRecentlyPlayed)
}

// ObserveTrack emits nothing until a track with id exists.
func (d *Database) ObserveTrack(ctx context.Context, id string) <-chan LocalTrackWithArtists {
	return observe(ctx, d, "track", trackTables, queryTrack(id))
}

// ObserveAlbum emits nothing until an album with id exists.
func (d *Database) ObserveAlbum(ctx context.Context, id string) <-chan LocalAlbumWithArtists {
	return observe(ctx, d, "album", albumTables, queryAlbum(id))
}

func (d *Database) ObserveAlbumTracks(ctx context.Context, id string) <-chan []LocalSimplifiedTrackWithArtists {
	return observe(ctx, d, "album_tracks", albumTrackTables, queryAlbumTracks(id))
}

// One-shot reads.

func (d *Database) GetRecommendations(ctx context.Context) ([]LocalTrackWithArtists, error) {
	tracks, _, err := read(ctx, d, queryRecommendations)
	return tracks, err
}

func (d *Database) GetRecentlyPlayed(ctx context.Context) ([]LocalRecentlyPlayedWithArtists, error) {
	history, _, err := read(ctx, d, queryRecentlyPlayed)
	return history, err
}

func (d *Database) GetAllAlbums(ctx context.Context) ([]LocalAlbumWithArtists, error) {
	albums, _, err := read(ctx, d, queryAllAlbums)
	return albums, err
}

// GetTrack returns (zero, false, nil) when the track is not cached.
func (d *Database) GetTrack(ctx context.Context, id string) (LocalTrackWithArtists, bool, error) {
	return read(ctx, d, queryTrack(id))
}

func (d *Database) GetAlbumTracks(ctx context.Context, id string) ([]LocalSimplifiedTrackWithArtists, error) {
	tracks, _, err := read(ctx, d, queryAlbumTracks(id))
	return tracks, err
}

// GetAlbum returns (zero, false, nil) when the album is not cached.
func (d *Database) GetAlbum(ctx context.Context, id string) (LocalAlbumWithArtists, bool, error) {
	return read(ctx, d, queryAlbum(id))
}

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	upsertArtistQuery = `INSERT INTO artists (artist_id, name, image_url)
		VALUES (:artist_id, :name, :image_url)
		ON CONFLICT(artist_id) DO UPDATE SET name = excluded.name, image_url = excluded.image_url`

	upsertSimplifiedArtistQuery = `INSERT INTO simplified_artists (simplified_artist_id, name)
		VALUES (:simplified_artist_id, :name)
		ON CONFLICT(simplified_artist_id) DO UPDATE SET name = excluded.name`

	upsertAlbumQuery = `INSERT INTO albums (album_id, album_type, image_url, name, release_date)
		VALUES (:album_id, :album_type, :image_url, :name, :release_date)
		ON CONFLICT(album_id) DO UPDATE SET
			album_type = excluded.album_type,
			image_url = excluded.image_url,
			name = excluded.name,
			release_date = excluded.release_date`

	upsertTrackQuery = `INSERT INTO tracks (track_id, name, album_id, duration_ms, explicit, preview_url)
		VALUES (:track_id, :name, :album_id, :duration_ms, :explicit, :preview_url)
		ON CONFLICT(track_id) DO UPDATE SET
			name = excluded.name,
			album_id = excluded.album_id,
			duration_ms = excluded.duration_ms,
			explicit = excluded.explicit,
			preview_url = excluded.preview_url`

	upsertSimplifiedTrackQuery = `INSERT INTO simplified_tracks (simplified_track_id, name, duration_ms, track_number, disc_number)
		VALUES (:simplified_track_id, :name, :duration_ms, :track_number, :disc_number)
		ON CONFLICT(simplified_track_id) DO UPDATE SET
			name = excluded.name,
			duration_ms = excluded.duration_ms,
			track_number = excluded.track_number,
			disc_number = excluded.disc_number`

	upsertRecommendationQuery = `INSERT INTO recommendations (recommendation_id, position)
		VALUES (:recommendation_id, :position)
		ON CONFLICT(recommendation_id) DO UPDATE SET position = excluded.position`

	upsertRecentlyPlayedQuery = `INSERT INTO recently_played (recently_played_id, track_id, played_at)
		VALUES (:recently_played_id, :track_id, :played_at)
		ON CONFLICT(recently_played_id) DO UPDATE SET track_id = excluded.track_id, played_at = excluded.played_at`

	upsertTrackArtistQuery = `INSERT INTO track_artist (track_id, artist_id, position)
		VALUES (:track_id, :artist_id, :position)
		ON CONFLICT(track_id, artist_id) DO UPDATE SET position = excluded.position`

	upsertAlbumArtistQuery = `INSERT INTO album_artist (album_id, simplified_artist_id, position)
		VALUES (:album_id, :simplified_artist_id, :position)
		ON CONFLICT(album_id, simplified_artist_id) DO UPDATE SET position = excluded.position`

	upsertAlbumTrackQuery = `INSERT INTO album_track (album_id, simplified_track_id)
		VALUES (:album_id, :simplified_track_id)
		ON CONFLICT(album_id, simplified_track_id) DO NOTHING`

	upsertSimplifiedTrackArtistQuery = `INSERT INTO simplified_track_artist (simplified_track_id, simplified_artist_id, position)
		VALUES (:simplified_track_id, :simplified_artist_id, :position)
		ON CONFLICT(simplified_track_id, simplified_artist_id) DO UPDATE SET position = excluded.position`
)

// upsertRows writes rows one by one through a prepared named statement.
// Rows later in the slice win over earlier ones with the same key.
func upsertRows[T any](ctx context.Context, tx *Tx, table, query string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert into %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", table, err)
		}
	}

	tx.touch(table)
	return nil
}

func (tx *Tx) UpsertArtists(ctx context.Context, artists []LocalArtist) error {
	return upsertRows(ctx, tx, tableArtists, upsertArtistQuery, artists)
}

func (tx *Tx) UpsertSimplifiedArtists(ctx context.Context, artists []LocalSimplifiedArtist) error {
	return upsertRows(ctx, tx, tableSimplifiedArtists, upsertSimplifiedArtistQuery, artists)
}

func (tx *Tx) UpsertAlbums(ctx context.Context, albums []LocalAlbum) error {
	return upsertRows(ctx, tx, tableAlbums, upsertAlbumQuery, albums)
}

func (tx *Tx) UpsertTracks(ctx context.Context, tracks []LocalTrack) error {
	return upsertRows(ctx, tx, tableTracks, upsertTrackQuery, tracks)
}

func (tx *Tx) UpsertSimplifiedTracks(ctx context.Context, tracks []LocalSimplifiedTrack) error {
	return upsertRows(ctx, tx, tableSimplifiedTracks, upsertSimplifiedTrackQuery, tracks)
}

func (tx *Tx) UpsertRecommendations(ctx context.Context, recommendations []LocalRecommendation) error {
	return upsertRows(ctx, tx, tableRecommendations, upsertRecommendationQuery, recommendations)
}

func (tx *Tx) UpsertRecentlyPlayed(ctx context.Context, history []LocalRecentlyPlayed) error {
	return upsertRows(ctx, tx, tableRecentlyPlayed, upsertRecentlyPlayedQuery, history)
}

func (tx *Tx) UpsertTrackArtistCrossRefs(ctx context.Context, refs []TrackArtistCrossRef) error {
	return upsertRows(ctx, tx, tableTrackArtist, upsertTrackArtistQuery, refs)
}

func (tx *Tx) UpsertAlbumArtistCrossRefs(ctx context.Context, refs []AlbumArtistCrossRef) error {
	return upsertRows(ctx, tx, tableAlbumArtist, upsertAlbumArtistQuery, refs)
}

func (tx *Tx) UpsertAlbumTrackCrossRefs(ctx context.Context, refs []AlbumTrackCrossRef) error {
	return upsertRows(ctx, tx, tableAlbumTrack, upsertAlbumTrackQuery, refs)
}

func (tx *Tx) UpsertSimplifiedTrackArtistCrossRefs(ctx context.Context, refs []SimplifiedTrackArtistCrossRef) error {
	return upsertRows(ctx, tx, tableSimplifiedTrackArtist, upsertSimplifiedTrackArtistQuery, refs)
}

func (tx *Tx) exec(ctx context.Context, query string, args []any, tables ...string) error {
	if _, err := tx.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to exec %q: %w", query, err)
	}
	tx.touch(tables...)
	return nil
}

func (tx *Tx) DeleteRecommendations(ctx context.Context) error {
	return tx.exec(ctx, "DELETE FROM recommendations", nil, tableRecommendations)
}

func (tx *Tx) DeleteRecentlyPlayed(ctx context.Context) error {
	return tx.exec(ctx, "DELETE FROM recently_played", nil, tableRecentlyPlayed)
}

// DeleteSimplifiedTracks also removes their album and artist links.
func (tx *Tx) DeleteSimplifiedTracks(ctx context.Context) error {
	return tx.exec(ctx, "DELETE FROM simplified_tracks", nil,
		tableSimplifiedTracks, tableAlbumTrack, tableSimplifiedTrackArtist)
}

// DeleteAlbumTracks unlinks every track from albumID, leaving the tracks.
func (tx *Tx) DeleteAlbumTracks(ctx context.Context, albumID string) error {
	return tx.exec(ctx, "DELETE FROM album_track WHERE album_id = ?", []any{albumID}, tableAlbumTrack)
}

// execIn runs a statement with a single IN (?) clause expanded to ids.
func (tx *Tx) execIn(ctx context.Context, query string, ids []string, tables ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(query, ids)
	if err != nil {
		return fmt.Errorf("failed to expand query: %w", err)
	}
	return tx.exec(ctx, query, args, tables...)
}

// DeleteTrackArtists unlinks every artist from the given tracks so a fetched
// artist list replaces the cached one.
func (tx *Tx) DeleteTrackArtists(ctx context.Context, trackIDs []string) error {
	return tx.execIn(ctx, "DELETE FROM track_artist WHERE track_id IN (?)", trackIDs, tableTrackArtist)
}

func (tx *Tx) DeleteAlbumArtists(ctx context.Context, albumIDs []string) error {
	return tx.execIn(ctx, "DELETE FROM album_artist WHERE album_id IN (?)", albumIDs, tableAlbumArtist)
}

func (tx *Tx) DeleteSimplifiedTrackArtists(ctx context.Context, trackIDs []string) error {
	return tx.execIn(ctx, "DELETE FROM simplified_track_artist WHERE simplified_track_id IN (?)",
		trackIDs, tableSimplifiedTrackArtist)
}

// Single-statement helpers for callers that do not need to group writes.

func (d *Database) UpsertArtists(ctx context.Context, artists []LocalArtist) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertArtists(ctx, artists) })
}

func (d *Database) UpsertSimplifiedArtists(ctx context.Context, artists []LocalSimplifiedArtist) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertSimplifiedArtists(ctx, artists) })
}

func (d *Database) UpsertAlbum(ctx context.Context, album LocalAlbum) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertAlbums(ctx, []LocalAlbum{album}) })
}

func (d *Database) UpsertTracks(ctx context.Context, tracks []LocalTrack) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertTracks(ctx, tracks) })
}

func (d *Database) UpsertSimplifiedTracks(ctx context.Context, tracks []LocalSimplifiedTrack) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertSimplifiedTracks(ctx, tracks) })
}

func (d *Database) UpsertRecommendations(ctx context.Context, recommendations []LocalRecommendation) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertRecommendations(ctx, recommendations) })
}

func (d *Database) UpsertRecentlyPlayed(ctx context.Context, history []LocalRecentlyPlayed) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertRecentlyPlayed(ctx, history) })
}

func (d *Database) UpsertTrackArtistCrossRef(ctx context.Context, ref TrackArtistCrossRef) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertTrackArtistCrossRefs(ctx, []TrackArtistCrossRef{ref}) })
}

func (d *Database) UpsertAlbumArtistCrossRef(ctx context.Context, ref AlbumArtistCrossRef) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertAlbumArtistCrossRefs(ctx, []AlbumArtistCrossRef{ref}) })
}

func (d *Database) UpsertAlbumTrackCrossRef(ctx context.Context, ref AlbumTrackCrossRef) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.UpsertAlbumTrackCrossRefs(ctx, []AlbumTrackCrossRef{ref}) })
}

func (d *Database) UpsertSimplifiedTrackArtistCrossRef(ctx context.Context, ref SimplifiedTrackArtistCrossRef) error {
	return d.WithTx(ctx, func(tx *Tx) error {
		return tx.UpsertSimplifiedTrackArtistCrossRefs(ctx, []SimplifiedTrackArtistCrossRef{ref})
	})
}

func (d *Database) DeleteRecommendations(ctx context.Context) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.DeleteRecommendations(ctx) })
}

func (d *Database) DeleteRecentlyPlayed(ctx context.Context) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.DeleteRecentlyPlayed(ctx) })
}

func (d *Database) DeleteSimplifiedTracks(ctx context.Context) error {
	return d.WithTx(ctx, func(tx *Tx) error { return tx.DeleteSimplifiedTracks(ctx) })
}

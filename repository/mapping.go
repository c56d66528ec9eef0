package repository

import (
	"context"
	"time"

	spotifyclient "github.com/zmb3/spotify/v2"

	"mymusic/database"
	"mymusic/models"
)

func firstImageURL(images []spotifyclient.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// trackBatch collects the rows a set of catalog tracks expands into, keyed so
// a track or artist seen twice is written once.
type trackBatch struct {
	artists           []database.LocalArtist
	simplifiedArtists []database.LocalSimplifiedArtist
	albums            []database.LocalAlbum
	tracks            []database.LocalTrack
	trackArtists      []database.TrackArtistCrossRef
	albumArtists      []database.AlbumArtistCrossRef

	seen map[string]struct{}
}

func (b *trackBatch) once(key string) bool {
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	if _, ok := b.seen[key]; ok {
		return false
	}
	b.seen[key] = struct{}{}
	return true
}

func (b *trackBatch) add(t spotifyclient.SimpleTrack) {
	album := t.Album
	albumID := album.ID.String()

	if b.once("album:" + albumID) {
		b.albums = append(b.albums, database.LocalAlbum{
			ID:          albumID,
			Type:        string(models.ParseAlbumType(album.AlbumType)),
			ImageURL:    firstImageURL(album.Images),
			Name:        album.Name,
			ReleaseDate: album.ReleaseDate,
		})
		for i, a := range album.Artists {
			if b.once("simplified_artist:" + a.ID.String()) {
				b.simplifiedArtists = append(b.simplifiedArtists, database.LocalSimplifiedArtist{
					ID:   a.ID.String(),
					Name: a.Name,
				})
			}
			b.albumArtists = append(b.albumArtists, database.AlbumArtistCrossRef{
				AlbumID:            albumID,
				SimplifiedArtistID: a.ID.String(),
				Position:           i,
			})
		}
	}

	trackID := t.ID.String()
	if !b.once("track:" + trackID) {
		return
	}
	b.tracks = append(b.tracks, database.LocalTrack{
		ID:         trackID,
		Name:       t.Name,
		AlbumID:    albumID,
		DurationMS: int64(t.Duration),
		Explicit:   t.Explicit,
		PreviewURL: t.PreviewURL,
	})
	for i, a := range t.Artists {
		if b.once("artist:" + a.ID.String()) {
			b.artists = append(b.artists, database.LocalArtist{
				ID:   a.ID.String(),
				Name: a.Name,
			})
		}
		b.trackArtists = append(b.trackArtists, database.TrackArtistCrossRef{
			TrackID:  trackID,
			ArtistID: a.ID.String(),
			Position: i,
		})
	}
}

// write stores entities before the junction rows that reference them. The
// artist links of every album and track in the batch are replaced, not merged.
func (b *trackBatch) write(ctx context.Context, tx *database.Tx) error {
	if err := tx.UpsertArtists(ctx, b.artists); err != nil {
		return err
	}
	if err := tx.UpsertSimplifiedArtists(ctx, b.simplifiedArtists); err != nil {
		return err
	}
	if err := tx.UpsertAlbums(ctx, b.albums); err != nil {
		return err
	}
	if err := tx.UpsertTracks(ctx, b.tracks); err != nil {
		return err
	}

	albumIDs := make([]string, 0, len(b.albums))
	for _, a := range b.albums {
		albumIDs = append(albumIDs, a.ID)
	}
	if err := tx.DeleteAlbumArtists(ctx, albumIDs); err != nil {
		return err
	}
	trackIDs := make([]string, 0, len(b.tracks))
	for _, t := range b.tracks {
		trackIDs = append(trackIDs, t.ID)
	}
	if err := tx.DeleteTrackArtists(ctx, trackIDs); err != nil {
		return err
	}

	if err := tx.UpsertAlbumArtistCrossRefs(ctx, b.albumArtists); err != nil {
		return err
	}
	return tx.UpsertTrackArtistCrossRefs(ctx, b.trackArtists)
}

type albumTrackBatch struct {
	artists      []database.LocalSimplifiedArtist
	tracks       []database.LocalSimplifiedTrack
	albumTracks  []database.AlbumTrackCrossRef
	trackArtists []database.SimplifiedTrackArtistCrossRef
}

func newAlbumTrackBatch(albumID string, page []spotifyclient.SimpleTrack) albumTrackBatch {
	var b albumTrackBatch
	seenArtists := make(map[string]struct{})
	for _, t := range page {
		trackID := t.ID.String()
		b.tracks = append(b.tracks, database.LocalSimplifiedTrack{
			ID:          trackID,
			Name:        t.Name,
			DurationMS:  int64(t.Duration),
			TrackNumber: int(t.TrackNumber),
			DiscNumber:  int(t.DiscNumber),
		})
		b.albumTracks = append(b.albumTracks, database.AlbumTrackCrossRef{
			AlbumID:           albumID,
			SimplifiedTrackID: trackID,
		})
		for i, a := range t.Artists {
			if _, ok := seenArtists[a.ID.String()]; !ok {
				seenArtists[a.ID.String()] = struct{}{}
				b.artists = append(b.artists, database.LocalSimplifiedArtist{ID: a.ID.String(), Name: a.Name})
			}
			b.trackArtists = append(b.trackArtists, database.SimplifiedTrackArtistCrossRef{
				SimplifiedTrackID:  trackID,
				SimplifiedArtistID: a.ID.String(),
				Position:           i,
			})
		}
	}
	return b
}

func (b albumTrackBatch) write(ctx context.Context, tx *database.Tx) error {
	if err := tx.UpsertSimplifiedArtists(ctx, b.artists); err != nil {
		return err
	}
	if err := tx.UpsertSimplifiedTracks(ctx, b.tracks); err != nil {
		return err
	}

	trackIDs := make([]string, 0, len(b.tracks))
	for _, t := range b.tracks {
		trackIDs = append(trackIDs, t.ID)
	}
	if err := tx.DeleteSimplifiedTrackArtists(ctx, trackIDs); err != nil {
		return err
	}

	if err := tx.UpsertAlbumTrackCrossRefs(ctx, b.albumTracks); err != nil {
		return err
	}
	return tx.UpsertSimplifiedTrackArtistCrossRefs(ctx, b.trackArtists)
}

func toSimplifiedArtists(local []database.LocalSimplifiedArtist) []models.SimplifiedArtist {
	artists := make([]models.SimplifiedArtist, 0, len(local))
	for _, a := range local {
		artists = append(artists, models.SimplifiedArtist{ID: a.ID, Name: a.Name})
	}
	return artists
}

func toSimplifiedAlbum(local database.LocalAlbumWithArtists) models.SimplifiedAlbum {
	return models.SimplifiedAlbum{
		ID:          local.Album.ID,
		Type:        models.ParseAlbumType(local.Album.Type),
		ImageURL:    local.Album.ImageURL,
		Name:        local.Album.Name,
		ReleaseDate: local.Album.ReleaseDate,
		Artists:     toSimplifiedArtists(local.Artists),
	}
}

func toTrack(local database.LocalTrackWithArtists) models.Track {
	artists := make([]models.Artist, 0, len(local.Artists))
	for _, a := range local.Artists {
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name, ImageURL: a.ImageURL})
	}
	return models.Track{
		ID:         local.Track.ID,
		Name:       local.Track.Name,
		Album:      toSimplifiedAlbum(local.Album),
		Artists:    artists,
		Duration:   time.Duration(local.Track.DurationMS) * time.Millisecond,
		Explicit:   local.Track.Explicit,
		PreviewURL: local.Track.PreviewURL,
	}
}

func toTracks(local []database.LocalTrackWithArtists) []models.Track {
	tracks := make([]models.Track, 0, len(local))
	for _, t := range local {
		tracks = append(tracks, toTrack(t))
	}
	return tracks
}

func toSimplifiedTracks(local []database.LocalSimplifiedTrackWithArtists) []models.SimplifiedTrack {
	tracks := make([]models.SimplifiedTrack, 0, len(local))
	for _, t := range local {
		tracks = append(tracks, models.SimplifiedTrack{
			ID:          t.Track.ID,
			Name:        t.Track.Name,
			Artists:     toSimplifiedArtists(t.Artists),
			TrackNumber: t.Track.TrackNumber,
			DiscNumber:  t.Track.DiscNumber,
			Duration:    time.Duration(t.Track.DurationMS) * time.Millisecond,
		})
	}
	return tracks
}

// toRecentlyPlayed drops plays whose track row is missing.
func toRecentlyPlayed(local []database.LocalRecentlyPlayedWithArtists) []models.Track {
	tracks := make([]models.Track, 0, len(local))
	for _, h := range local {
		if h.Track.Track.ID == "" {
			continue
		}
		tracks = append(tracks, toTrack(h.Track))
	}
	return tracks
}

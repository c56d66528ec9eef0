package repository

import (
	"context"
	"errors"
	"fmt"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"mymusic/database"
	"mymusic/helpers"
	"mymusic/models"
	"mymusic/sentryhelper"
	"mymusic/spotify"
)

var (
	// ErrRefreshFailed wraps the *spotify.ErrorResponse of a failed fetch.
	// The cache is left untouched when it is returned.
	ErrRefreshFailed = errors.New("refresh failed")
	ErrUnknownAlbum  = errors.New("album is not cached")
)

type MusicRepository struct {
	api    spotify.API
	db     *database.Database
	logger *log.Entry
}

func New(api spotify.API, db *database.Database) *MusicRepository {
	return &MusicRepository{
		api: api,
		db:  db,
		logger: log.WithFields(log.Fields{
			"module": "repository",
		}),
	}
}

func (r *MusicRepository) fetchFailed(ctx context.Context, method string, apiErr *spotify.ErrorResponse) error {
	err := fmt.Errorf("%w: %s: %w", ErrRefreshFailed, method, apiErr)
	r.logger.WithField("method", method).Warnf("keeping cached data: %v", apiErr)
	sentryhelper.AddBreadcrumb(ctx, &sentry.Breadcrumb{
		Category: "sync",
		Message:  err.Error(),
		Level:    sentry.LevelWarning,
	})
	return err
}

// RefreshRecommendations replaces the cached recommendation set with a fresh
// one from the API.
func (r *MusicRepository) RefreshRecommendations(ctx context.Context) error {
	result := r.api.GetRecommendations(ctx)
	if !result.OK() {
		return r.fetchFailed(ctx, "RefreshRecommendations", result.Err)
	}

	var batch trackBatch
	var recommendations []database.LocalRecommendation
	if result.Value != nil {
		for i, t := range result.Value.Tracks {
			batch.add(t)
			recommendations = append(recommendations, database.LocalRecommendation{ID: t.ID.String(), Position: i})
		}
	}

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := tx.DeleteRecommendations(ctx); err != nil {
			return err
		}
		if err := batch.write(ctx, tx); err != nil {
			return err
		}
		return tx.UpsertRecommendations(ctx, recommendations)
	})
	if err != nil {
		return fmt.Errorf("failed to store recommendations: %w", err)
	}

	r.logger.WithField("method", "RefreshRecommendations").Debugf("Stored %d recommendations", len(recommendations))
	return nil
}

// RefreshRecentlyPlayed replaces the cached listening history.
func (r *MusicRepository) RefreshRecentlyPlayed(ctx context.Context) error {
	result := r.api.GetRecentlyPlayed(ctx)
	if !result.OK() {
		return r.fetchFailed(ctx, "RefreshRecentlyPlayed", result.Err)
	}

	var batch trackBatch
	history := make([]database.LocalRecentlyPlayed, 0, len(result.Value))
	for _, item := range result.Value {
		batch.add(item.Track)
		history = append(history, database.NewLocalRecentlyPlayed(item.Track.ID.String(), item.PlayedAt))
	}

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := tx.DeleteRecentlyPlayed(ctx); err != nil {
			return err
		}
		if err := batch.write(ctx, tx); err != nil {
			return err
		}
		return tx.UpsertRecentlyPlayed(ctx, history)
	})
	if err != nil {
		return fmt.Errorf("failed to store recently played: %w", err)
	}

	r.logger.WithField("method", "RefreshRecentlyPlayed").Debugf("Stored %d plays", len(history))
	return nil
}

// RefreshAlbumTracks replaces the cached track listing of an album. The album
// itself must already be cached.
func (r *MusicRepository) RefreshAlbumTracks(ctx context.Context, albumID string) error {
	if _, found, err := r.db.GetAlbum(ctx, albumID); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("%w: %s", ErrUnknownAlbum, albumID)
	}

	result := r.api.GetAlbumTracks(ctx, albumID)
	if !result.OK() {
		return r.fetchFailed(ctx, "RefreshAlbumTracks", result.Err)
	}

	var batch albumTrackBatch
	if result.Value != nil {
		batch = newAlbumTrackBatch(albumID, result.Value.Tracks)
	}

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := tx.DeleteAlbumTracks(ctx, albumID); err != nil {
			return err
		}
		return batch.write(ctx, tx)
	})
	if err != nil {
		return fmt.Errorf("failed to store tracks of album %s: %w", albumID, err)
	}

	r.logger.WithField("method", "RefreshAlbumTracks").Debugf("Stored %d tracks of album %s", len(batch.tracks), albumID)
	return nil
}

// RefreshHome refreshes both home collections concurrently. A failure of one
// does not cancel the other; the errors are joined.
func (r *MusicRepository) RefreshHome(ctx context.Context) error {
	var g errgroup.Group
	var recErr, historyErr error
	g.Go(func() error {
		recErr = r.RefreshRecommendations(ctx)
		return nil
	})
	g.Go(func() error {
		historyErr = r.RefreshRecentlyPlayed(ctx)
		return nil
	})
	_ = g.Wait()
	return errors.Join(recErr, historyErr)
}

// SyncAll refreshes the home collections and then the track listing of every
// cached album.
func (r *MusicRepository) SyncAll(ctx context.Context) error {
	errs := []error{r.RefreshHome(ctx)}

	albums, err := r.db.GetAllAlbums(ctx)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, a := range albums {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		errs = append(errs, r.RefreshAlbumTracks(ctx, a.Album.ID))
	}
	return errors.Join(errs...)
}

func (r *MusicRepository) ObserveRecommendations(ctx context.Context) <-chan []models.Track {
	return helpers.Map(ctx, r.db.ObserveRecommendations(ctx), toTracks)
}

// ObserveRecentlyPlayed emits the history newest first.
func (r *MusicRepository) ObserveRecentlyPlayed(ctx context.Context) <-chan []models.Track {
	return helpers.Map(ctx, r.db.ObserveRecentlyPlayed(ctx), toRecentlyPlayed)
}

// ObserveTrack emits nothing until the track is cached.
func (r *MusicRepository) ObserveTrack(ctx context.Context, id string) <-chan models.Track {
	return helpers.Map(ctx, r.db.ObserveTrack(ctx, id), toTrack)
}

// ObserveAlbum emits the album with its current track listing once the album
// is cached.
func (r *MusicRepository) ObserveAlbum(ctx context.Context, id string) <-chan models.Album {
	return helpers.CombineLatest(ctx, r.db.ObserveAlbum(ctx, id), r.db.ObserveAlbumTracks(ctx, id),
		func(album database.LocalAlbumWithArtists, tracks []database.LocalSimplifiedTrackWithArtists) models.Album {
			return models.Album{
				SimplifiedAlbum: toSimplifiedAlbum(album),
				Tracks:          toSimplifiedTracks(tracks),
			}
		})
}

func (r *MusicRepository) ObserveAllAlbums(ctx context.Context) <-chan []models.SimplifiedAlbum {
	return helpers.Map(ctx, r.db.ObserveAllAlbums(ctx), func(local []database.LocalAlbumWithArtists) []models.SimplifiedAlbum {
		albums := make([]models.SimplifiedAlbum, 0, len(local))
		for _, a := range local {
			albums = append(albums, toSimplifiedAlbum(a))
		}
		return albums
	})
}

// Recommendations reads the cached recommendations once, in position order.
func (r *MusicRepository) Recommendations(ctx context.Context) ([]models.Track, error) {
	local, err := r.db.GetRecommendations(ctx)
	if err != nil {
		return nil, err
	}
	return toTracks(local), nil
}

// RecentlyPlayed reads the cached history once, newest first.
func (r *MusicRepository) RecentlyPlayed(ctx context.Context) ([]models.Track, error) {
	local, err := r.db.GetRecentlyPlayed(ctx)
	if err != nil {
		return nil, err
	}
	return toRecentlyPlayed(local), nil
}

// Albums reads every cached album once, sorted by name.
func (r *MusicRepository) Albums(ctx context.Context) ([]models.SimplifiedAlbum, error) {
	local, err := r.db.GetAllAlbums(ctx)
	if err != nil {
		return nil, err
	}
	albums := make([]models.SimplifiedAlbum, 0, len(local))
	for _, a := range local {
		albums = append(albums, toSimplifiedAlbum(a))
	}
	return albums, nil
}

// Track reads one cached track. found is false when it is not cached.
func (r *MusicRepository) Track(ctx context.Context, id string) (track models.Track, found bool, err error) {
	local, found, err := r.db.GetTrack(ctx, id)
	if err != nil || !found {
		return models.Track{}, found, err
	}
	return toTrack(local), true, nil
}

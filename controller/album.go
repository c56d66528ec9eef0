package controller

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"mymusic/models"
	"mymusic/repository"
)

type AlbumUiState struct {
	Loading bool          `json:"loading"`
	Album   *models.Album `json:"album,omitempty"`
}

type AlbumController struct {
	repo           *repository.MusicRepository
	refreshTimeout time.Duration
	logger         *log.Entry
}

func NewAlbumController(repo *repository.MusicRepository, refreshTimeout time.Duration) *AlbumController {
	return &AlbumController{
		repo:           repo,
		refreshTimeout: refreshTimeout,
		logger: log.WithFields(log.Fields{
			"module": "controller",
			"screen": "album",
		}),
	}
}

// Observe emits Loading until albumID is cached, then the album with its
// track listing whenever either changes. The listing is refreshed once.
func (c *AlbumController) Observe(ctx context.Context, albumID string) <-chan AlbumUiState {
	out := make(chan AlbumUiState)
	albums := c.repo.ObserveAlbum(ctx, albumID)

	go func() {
		defer close(out)
		select {
		case out <- AlbumUiState{Loading: true}:
		case <-ctx.Done():
			return
		}

		c.Refresh(ctx, albumID)

		for album := range albums {
			select {
			case out <- AlbumUiState{Album: &album}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (c *AlbumController) Refresh(ctx context.Context, albumID string) <-chan error {
	return refreshInBackground(ctx, c.logger.WithField("album_id", albumID), "album", c.refreshTimeout,
		func(ctx context.Context) error {
			return c.repo.RefreshAlbumTracks(ctx, albumID)
		})
}

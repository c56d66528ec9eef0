package controller

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"mymusic/helpers"
	"mymusic/models"
	"mymusic/repository"
)

// HomeUiState is Loading until both home collections have been read from the
// cache at least once.
type HomeUiState struct {
	Loading         bool                  `json:"loading"`
	TopPicks        []models.Track        `json:"topPicks"`
	RecentlyPlayed  []models.Track        `json:"recentlyPlayed"`
	MoreLikeArtists []models.ArtistTracks `json:"moreLikeArtists"`
}

type HomeController struct {
	repo           *repository.MusicRepository
	refreshTimeout time.Duration
	logger         *log.Entry
}

func NewHomeController(repo *repository.MusicRepository, refreshTimeout time.Duration) *HomeController {
	return &HomeController{
		repo:           repo,
		refreshTimeout: refreshTimeout,
		logger: log.WithFields(log.Fields{
			"module": "controller",
			"screen": "home",
		}),
	}
}

// Observe emits a Loading state, then a new state whenever recommendations
// or recently played change. It also starts a refresh of both.
func (c *HomeController) Observe(ctx context.Context) <-chan HomeUiState {
	out := make(chan HomeUiState)
	states := helpers.CombineLatest(ctx, c.repo.ObserveRecommendations(ctx), c.repo.ObserveRecentlyPlayed(ctx),
		func(recommendations, history []models.Track) HomeUiState {
			return HomeUiState{
				TopPicks:        recommendations,
				RecentlyPlayed:  history,
				MoreLikeArtists: models.GroupByFirstArtist(recommendations),
			}
		})

	go func() {
		defer close(out)
		select {
		case out <- HomeUiState{Loading: true}:
		case <-ctx.Done():
			return
		}

		c.Refresh(ctx)

		for state := range states {
			select {
			case out <- state:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Refresh re-fetches both home collections in the background.
func (c *HomeController) Refresh(ctx context.Context) <-chan error {
	return refreshInBackground(ctx, c.logger, "home", c.refreshTimeout, c.repo.RefreshHome)
}

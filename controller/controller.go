package controller

import (
	"context"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"mymusic/lyrics"
	"mymusic/repository"
	"mymusic/sentryhelper"
)

// Controller bundles the per-screen controllers over one repository.
type Controller struct {
	Home    *HomeController
	Library *LibraryController
	Album   *AlbumController
	Player  *PlayerController
}

// LyricsSource finds lyrics for the player screen.
type LyricsSource interface {
	Search(ctx context.Context, trackName, artistName string) (lyrics.Lyrics, error)
}

func NewController(repo *repository.MusicRepository, lyricsSource LyricsSource, refreshTimeout time.Duration) *Controller {
	return &Controller{
		Home:    NewHomeController(repo, refreshTimeout),
		Library: NewLibraryController(repo),
		Album:   NewAlbumController(repo, refreshTimeout),
		Player:  NewPlayerController(repo, lyricsSource),
	}
}

// refreshInBackground runs fn detached from ctx so a refresh started by a
// short-lived screen or request still completes and lands in the cache.
// Failures are logged; screens keep showing cached data.
func refreshInBackground(ctx context.Context, logger *log.Entry, name string, timeout time.Duration, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		ctx, span := sentryhelper.StartSyncTransaction(sentryhelper.DetachFromTransaction(ctx), name, "screen")
		defer span.Finish()

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		err := fn(ctx)
		if err != nil {
			span.Status = sentry.SpanStatusInternalError
			logger.Warnf("refresh %s failed: %v", name, err)
		} else {
			span.Status = sentry.SpanStatusOK
		}
		done <- err
	}()
	return done
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	appConfig "mymusic/config"
	"mymusic/controller"
	"mymusic/database"
	"mymusic/handlers"
	"mymusic/lyrics"
	"mymusic/pages"
	"mymusic/repository"
	"mymusic/sentry"
	"mymusic/sentryhelper"
	"mymusic/spotify"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mymusic",
		Short:         "Spotify-backed music client with a local cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newShowCommand())
	return rootCmd
}

// openRepository opens the cache. Without online the repository can only
// read what is already cached.
func openRepository(ctx context.Context, online bool) (*repository.MusicRepository, func(), error) {
	cfg := appConfig.Config

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}

	var api spotify.API
	if online {
		client, err := spotify.NewClient(ctx, cfg.Spotify)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		api = client
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}
	return repository.New(api, db), closeFn, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the listen-now page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := appConfig.Config

	repo, closeRepo, err := openRepository(ctx, true)
	if err != nil {
		return err
	}
	defer closeRepo()

	timeout := time.Duration(cfg.Options.RequestTimeoutSeconds) * time.Second
	ctrl := controller.NewController(repo, lyrics.New(cfg.Options.LyricsBaseURL), timeout)
	router := handlers.NewManager(ctrl, repo, timeout).Router()

	port := cfg.Options.Port
	if port == "" {
		port = "8080"
	}
	server := &http.Server{Addr: ":" + port, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on :%s", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newSyncCommand() *cobra.Command {
	var homeOnly bool
	var albumID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local cache from Spotify",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeRepo()

			sentry.SetContext("command", map[string]interface{}{
				"name":  "sync",
				"home":  homeOnly,
				"album": albumID,
			})
			ctx, span := sentryhelper.StartSyncTransaction(cmd.Context(), "cli", "cli")
			defer span.Finish()

			switch {
			case albumID != "":
				err = repo.RefreshAlbumTracks(ctx, albumID)
			case homeOnly:
				err = repo.RefreshHome(ctx)
			default:
				err = repo.SyncAll(ctx)
			}
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&homeOnly, "home", false, "Only refresh recommendations and recently played")
	cmd.Flags().StringVar(&albumID, "album", "", "Only refresh the tracks of this cached album")
	return cmd
}

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "show [recommendations|recent|library|album <id>]",
		Short:     "Print cached collections",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"recommendations", "recent", "library", "album"},
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeRepo()

			sentry.SetContext("command", map[string]interface{}{
				"name":       "show",
				"collection": args[0],
			})

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch args[0] {
			case "recommendations":
				tracks, err := repo.Recommendations(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTracks(tracks))
			case "recent":
				tracks, err := repo.RecentlyPlayed(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTracks(tracks))
			case "library":
				albums, err := repo.Albums(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderAlbums(albums))
			case "album":
				if len(args) < 2 {
					return errors.New("show album needs an album id")
				}
				ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
				defer cancel()
				album, ok := <-repo.ObserveAlbum(ctx, args[1])
				if !ok {
					return fmt.Errorf("album %s is not cached", args[1])
				}
				fmt.Fprintf(out, "%s (%s)\n", album.Name, album.Type.DisplayName())
				fmt.Fprintln(out, renderAlbumTracks(album))
			default:
				return fmt.Errorf("unknown collection %q", args[0])
			}
			return nil
		},
	}
	return cmd
}

func formatDuration(d time.Duration) string {
	return pages.FormatDuration(d)
}

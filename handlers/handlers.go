package handlers

// handlers expose the screen controllers over HTTP. One-shot reads return the
// first ready state; /api/home/stream pushes every state as server-sent events.

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"mymusic/controller"
	"mymusic/pages"
	"mymusic/repository"
	"mymusic/sentry"
	"mymusic/sentryhelper"
	"mymusic/spotify"
)

type Manager struct {
	Controller *controller.Controller
	Repository *repository.MusicRepository
	// Timeout bounds how long a one-shot read waits for a ready state.
	Timeout time.Duration
	logger  *log.Entry
}

func NewManager(ctrl *controller.Controller, repo *repository.MusicRepository, timeout time.Duration) *Manager {
	return &Manager{
		Controller: ctrl,
		Repository: repo,
		Timeout:    timeout,
		logger: log.WithFields(log.Fields{
			"module": "handlers",
		}),
	}
}

// Router builds the gin engine with every route registered.
func (m *Manager) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), sentry.GetSentryGin())
	router.SetHTMLTemplate(pages.Templates())

	router.GET("/", m.ListenNow)

	api := router.Group("/api")
	api.GET("/home", m.Home)
	api.GET("/home/stream", m.HomeStream)
	api.GET("/library", m.Library)
	api.GET("/albums/:id", m.Album)
	api.GET("/tracks/:id", m.Track)
	api.GET("/open", m.Open)
	api.POST("/player/:action", m.PlayerAction)
	api.POST("/sync", m.Sync)

	return router
}

// firstReady waits for the first state accepted by ready.
func firstReady[T any](ctx context.Context, states <-chan T, ready func(T) bool) (T, bool) {
	for {
		select {
		case state, ok := <-states:
			if !ok {
				var zero T
				return zero, false
			}
			if ready(state) {
				return state, true
			}
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

func (m *Manager) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), m.Timeout)
}

func (m *Manager) homeState(c *gin.Context) (controller.HomeUiState, bool) {
	ctx, cancel := m.requestContext(c)
	defer cancel()
	return firstReady(ctx, m.Controller.Home.Observe(ctx), func(s controller.HomeUiState) bool { return !s.Loading })
}

func (m *Manager) ListenNow(c *gin.Context) {
	state, ok := m.homeState(c)
	if !ok {
		state = controller.HomeUiState{Loading: true}
	}
	c.HTML(http.StatusOK, pages.ListenNowName, state)
}

func (m *Manager) Home(c *gin.Context) {
	state, ok := m.homeState(c)
	if !ok {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "home is still loading"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// HomeStream sends a "home" event for every home state until the client
// goes away.
func (m *Manager) HomeStream(c *gin.Context) {
	ctx := c.Request.Context()
	states := m.Controller.Home.Observe(ctx)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	for {
		select {
		case state, ok := <-states:
			if !ok {
				return
			}
			c.SSEvent("home", state)
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) Library(c *gin.Context) {
	option := m.Controller.Library.CurrentSortOption()
	if raw, ok := c.GetQuery("sort"); ok {
		parsed, err := controller.ParseSortOption(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		option = parsed
		m.Controller.Library.SetSortOption(option)
	}

	ctx, cancel := m.requestContext(c)
	defer cancel()
	state, err := m.Controller.Library.Snapshot(ctx, option)
	if err != nil {
		m.logger.WithField("method", "Library").Errorf("failed to read library: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read library"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (m *Manager) Album(c *gin.Context) {
	ctx, cancel := m.requestContext(c)
	defer cancel()

	id := c.Param("id")
	state, ok := firstReady(ctx, m.Controller.Album.Observe(ctx, id), func(s controller.AlbumUiState) bool { return s.Album != nil })
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "album not cached", "id": id})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (m *Manager) Track(c *gin.Context) {
	ctx, cancel := m.requestContext(c)
	defer cancel()

	id := c.Param("id")
	state, ok := firstReady(ctx, m.Controller.Player.Observe(ctx, id), func(s controller.PlayerUiState) bool { return s.Track != nil })
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not cached", "id": id})
		return
	}
	c.JSON(http.StatusOK, state)
}

// Open resolves a shared open.spotify.com link to the matching route.
func (m *Manager) Open(c *gin.Context) {
	link, err := spotify.ParseLink(c.Query("url"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch link.Kind {
	case spotify.LinkAlbum:
		c.Redirect(http.StatusFound, "/api/albums/"+link.ID)
	default:
		c.Redirect(http.StatusFound, "/api/tracks/"+link.ID)
	}
}

func (m *Manager) PlayerAction(c *gin.Context) {
	player := m.Controller.Player

	var playback controller.Playback
	switch c.Param("action") {
	case "play":
		playback = player.Play()
	case "pause":
		playback = player.Pause()
	case "next":
		playback = player.SkipNext()
	case "previous":
		playback = player.SkipPrevious()
	case "album":
		albumID, err := player.OnAlbumClick(c.Request.Context())
		if errors.Is(err, controller.ErrNothingPlaying) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			m.logger.WithField("method", "PlayerAction").Errorf("album lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "album lookup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"albumId": albumID})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown player action", "action": c.Param("action")})
		return
	}

	c.JSON(http.StatusOK, playback)
}

// Sync refreshes every cached collection and reports what failed.
func (m *Manager) Sync(c *gin.Context) {
	ctx, span := sentryhelper.StartSyncTransaction(c.Request.Context(), "all", "http")
	defer span.Finish()

	if err := m.Repository.SyncAll(ctx); err != nil {
		m.logger.WithField("method", "Sync").Warnf("sync finished with errors: %v", err)

		var apiErr *spotify.ErrorResponse
		if errors.As(err, &apiErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": apiErr.Kind})
			return
		}
		sentryhelper.CaptureException(ctx, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

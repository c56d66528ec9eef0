package spotify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"mymusic/config"
)

type ErrorKind string

const (
	// ErrorKindServer means the API answered with an error status and body.
	ErrorKindServer  ErrorKind = "server"
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindUnknown ErrorKind = "unknown"
)

// ErrorResponse is the structured failure of a catalog request.
type ErrorResponse struct {
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

func (e *ErrorResponse) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("spotify %s error (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("spotify %s error: %s", e.Kind, e.Message)
}

// Result is either a Value or an Err, never both.
type Result[T any] struct {
	Value T
	Err   *ErrorResponse
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

func success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func failure[T any](err error) Result[T] {
	return Result[T]{Err: toErrorResponse(err)}
}

func toErrorResponse(err error) *ErrorResponse {
	var apiErr spotifyclient.Error
	if errors.As(err, &apiErr) {
		return &ErrorResponse{Kind: ErrorKindServer, Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *spotifyclient.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ErrorResponse{Kind: ErrorKindServer, Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ErrorResponse{Kind: ErrorKindNetwork, Message: err.Error()}
	}

	return &ErrorResponse{Kind: ErrorKindUnknown, Message: err.Error()}
}

// API is the read surface the repository depends on.
type API interface {
	GetRecommendations(ctx context.Context) Result[*spotifyclient.Recommendations]
	GetRecentlyPlayed(ctx context.Context) Result[[]spotifyclient.RecentlyPlayedItem]
	GetAlbumTracks(ctx context.Context, id string) Result[*spotifyclient.SimpleTrackPage]
}

type Client struct {
	api     *spotifyclient.Client
	limiter *rate.Limiter
	cfg     config.SpotifyConfig
	logger  *log.Entry
}

// NewClient authenticates against Spotify. A configured user token is used
// as is (and refreshed when a refresh token is present); otherwise the
// client-credentials flow is used, which cannot read listening history.
func NewClient(ctx context.Context, cfg config.SpotifyConfig) (*Client, error) {
	var httpClient *http.Client

	switch {
	case cfg.RefreshToken != "":
		conf := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		}
		httpClient = conf.Client(ctx, &oauth2.Token{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
		})
	case cfg.AccessToken != "":
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		}))
	default:
		conf := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		if _, err := conf.Token(ctx); err != nil {
			sentry.CaptureException(err)
			return nil, fmt.Errorf("failed to fetch client credentials token: %w", err)
		}
		log.Warn("no Spotify user token configured, recently played will be unavailable")
		httpClient = conf.Client(ctx)
	}

	return NewClientWithHTTP(httpClient, cfg), nil
}

// NewClientWithHTTP wraps an already authenticated HTTP client.
func NewClientWithHTTP(httpClient *http.Client, cfg config.SpotifyConfig) *Client {
	var opts []spotifyclient.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotifyclient.WithBaseURL(cfg.BaseURL))
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		api:     spotifyclient.New(httpClient, opts...),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cfg:     cfg,
		logger: log.WithFields(log.Fields{
			"module": "spotify",
		}),
	}
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// GetRecommendations fetches recommendations seeded by the configured genres.
func (c *Client) GetRecommendations(ctx context.Context) Result[*spotifyclient.Recommendations] {
	span := sentry.StartSpan(ctx, "spotify.get_recommendations")
	span.Description = "Get recommendations from Spotify API"
	defer span.Finish()

	if err := c.wait(span.Context()); err != nil {
		span.Status = sentry.SpanStatusDeadlineExceeded
		return failure[*spotifyclient.Recommendations](err)
	}

	var opts []spotifyclient.RequestOption
	if c.cfg.RecommendationLimit > 0 {
		opts = append(opts, spotifyclient.Limit(c.cfg.RecommendationLimit))
	}
	seeds := spotifyclient.Seeds{Genres: c.cfg.SeedGenres}
	recs, err := c.api.GetRecommendations(span.Context(), seeds, nil, opts...)
	if err != nil {
		c.logger.Errorf("Failed to fetch recommendations: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return failure[*spotifyclient.Recommendations](err)
	}

	c.logger.Debugf("Fetched %d recommendations", len(recs.Tracks))
	span.Status = sentry.SpanStatusOK
	span.SetData("tracks_count", len(recs.Tracks))
	return success(recs)
}

// GetRecentlyPlayed fetches the user's listening history, newest first.
func (c *Client) GetRecentlyPlayed(ctx context.Context) Result[[]spotifyclient.RecentlyPlayedItem] {
	span := sentry.StartSpan(ctx, "spotify.get_recently_played")
	span.Description = "Get recently played tracks from Spotify API"
	defer span.Finish()

	if err := c.wait(span.Context()); err != nil {
		span.Status = sentry.SpanStatusDeadlineExceeded
		return failure[[]spotifyclient.RecentlyPlayedItem](err)
	}

	var opts *spotifyclient.RecentlyPlayedOptions
	if c.cfg.RecentlyPlayedLimit > 0 {
		opts = &spotifyclient.RecentlyPlayedOptions{Limit: spotifyclient.Numeric(c.cfg.RecentlyPlayedLimit)}
	}
	items, err := c.api.PlayerRecentlyPlayedOpt(span.Context(), opts)
	if err != nil {
		c.logger.Errorf("Failed to fetch recently played: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return failure[[]spotifyclient.RecentlyPlayedItem](err)
	}

	if limit := c.cfg.RecentlyPlayedLimit; limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	c.logger.Debugf("Fetched %d recently played items", len(items))
	span.Status = sentry.SpanStatusOK
	span.SetData("items_count", len(items))
	return success(items)
}

// GetAlbumTracks fetches the first page of an album's track listing.
func (c *Client) GetAlbumTracks(ctx context.Context, id string) Result[*spotifyclient.SimpleTrackPage] {
	log.Tracef("Fetching album tracks from Spotify API: %s", id)

	span := sentry.StartSpan(ctx, "spotify.get_album_tracks")
	span.Description = "Get album tracks from Spotify API"
	span.SetTag("album_id", id)
	defer span.Finish()

	if err := c.wait(span.Context()); err != nil {
		span.Status = sentry.SpanStatusDeadlineExceeded
		return failure[*spotifyclient.SimpleTrackPage](err)
	}

	page, err := c.api.GetAlbumTracks(span.Context(), spotifyclient.ID(id))
	if err != nil {
		c.logger.Errorf("Failed to fetch tracks of album %s: %v", id, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return failure[*spotifyclient.SimpleTrackPage](err)
	}

	c.logger.Debugf("Fetched %d tracks of album %s", len(page.Tracks), id)
	span.Status = sentry.SpanStatusOK
	return success(page)
}

package config

import (
	"os"
	"strconv"
	"strings"
)

type ConfigStruct struct {
	Spotify  SpotifyConfig
	Database DatabaseConfig
	Options  Options
	Sentry   SentryConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	// RefreshToken is a user token with the user-read-recently-played scope.
	// Without it the client falls back to client credentials, which cannot
	// read the listening history.
	RefreshToken        string
	AccessToken         string
	BaseURL             string
	RecommendationLimit int
	RecentlyPlayedLimit int
	SeedGenres          []string
	RequestsPerSecond   float64
}

type DatabaseConfig struct {
	Path string
}

type SentryConfig struct {
	DSN     string
	Release string
}

type Options struct {
	Port     string
	LogLevel string
	// RequestTimeoutSeconds bounds one-shot HTTP reads of screen state.
	RequestTimeoutSeconds int
	LyricsBaseURL         string
}

func (s *SentryConfig) IsEnabled() bool {
	return s.DSN != ""
}

func (s *SpotifyConfig) HasUserToken() bool {
	return s.RefreshToken != "" || s.AccessToken != ""
}

var Config *ConfigStruct

// NewConfig loads the configuration from the environment into Config.
func NewConfig() {
	Config = Load()
}

func Load() *ConfigStruct {
	return &ConfigStruct{
		Spotify: SpotifyConfig{
			ClientID:            os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret:        os.Getenv("SPOTIFY_CLIENT_SECRET"),
			RefreshToken:        os.Getenv("SPOTIFY_REFRESH_TOKEN"),
			AccessToken:         os.Getenv("SPOTIFY_ACCESS_TOKEN"),
			BaseURL:             os.Getenv("SPOTIFY_BASE_URL"),
			RecommendationLimit: getRecommendationLimit(),
			RecentlyPlayedLimit: getRecentlyPlayedLimit(),
			SeedGenres:          getSeedGenres(),
			RequestsPerSecond:   getRequestsPerSecond(),
		},
		Database: DatabaseConfig{
			Path: getDBPath(),
		},
		Options: Options{
			Port:                  os.Getenv("PORT"),
			LogLevel:              os.Getenv("LOG_LEVEL"),
			RequestTimeoutSeconds: getRequestTimeout(),
			LyricsBaseURL:         getLyricsBaseURL(),
		},
		Sentry: SentryConfig{
			DSN:     os.Getenv("SENTRY_DSN"),
			Release: os.Getenv("RELEASE"),
		},
	}
}

func getDBPath() string {
	path := os.Getenv("DB_PATH")
	if path == "" {
		return "data/mymusic.db"
	}
	return path
}

func getRecommendationLimit() int {
	limitStr := os.Getenv("SPOTIFY_RECOMMENDATION_LIMIT")
	if limitStr == "" {
		return 10
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100 // API maximum for recommendations
	}
	return limit
}

func getRecentlyPlayedLimit() int {
	limitStr := os.Getenv("SPOTIFY_RECENTLY_PLAYED_LIMIT")
	if limitStr == "" {
		return 20
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50 // API maximum for recently played
	}
	return limit
}

func getSeedGenres() []string {
	raw := os.Getenv("SPOTIFY_SEED_GENRES")
	if raw == "" {
		return []string{"pop"}
	}
	var genres []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	if len(genres) == 0 {
		return []string{"pop"}
	}
	// Spotify accepts at most five seeds in total
	if len(genres) > 5 {
		genres = genres[:5]
	}
	return genres
}

func getRequestsPerSecond() float64 {
	rpsStr := os.Getenv("SPOTIFY_REQUESTS_PER_SECOND")
	if rpsStr == "" {
		return 5
	}
	rps, err := strconv.ParseFloat(rpsStr, 64)
	if err != nil || rps <= 0 {
		return 5
	}
	return rps
}

func getRequestTimeout() int {
	timeoutStr := os.Getenv("REQUEST_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		return 10
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil || timeout <= 0 {
		return 10
	}
	return timeout
}

func getLyricsBaseURL() string {
	base := os.Getenv("LYRICS_BASE_URL")
	if base == "" {
		return "https://lrclib.net"
	}
	return base
}

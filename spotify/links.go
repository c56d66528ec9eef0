package spotify

import (
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
)

type LinkKind string

const (
	LinkTrack LinkKind = "track"
	LinkAlbum LinkKind = "album"
)

// Link is a shared open.spotify.com URL resolved to something the app can show.
type Link struct {
	Kind LinkKind
	ID   string
}

var ErrInvalidLink = errors.New("invalid Spotify URL")

func ParseLink(url string) (Link, error) {
	if !strings.HasPrefix(url, "https://open.spotify.com/") {
		log.Warnf("URL does not start with https://open.spotify.com/: %s", url)
		return Link{}, ErrInvalidLink
	}

	parts := strings.Split(url, "/")
	if len(parts) < 5 {
		log.Warnf("Invalid Spotify URL format (too few parts): %s", url)
		return Link{}, ErrInvalidLink
	}

	// Strip query parameters from ID (e.g., ?si=tracking_id)
	id := strings.Split(parts[4], "?")[0]
	if id == "" {
		return Link{}, ErrInvalidLink
	}

	switch LinkKind(parts[3]) {
	case LinkTrack:
		log.Tracef("Parsed Spotify track URL: %s", id)
		return Link{Kind: LinkTrack, ID: id}, nil
	case LinkAlbum:
		log.Tracef("Parsed Spotify album URL: %s", id)
		return Link{Kind: LinkAlbum, ID: id}, nil
	}

	return Link{}, ErrInvalidLink
}

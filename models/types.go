package models

import (
	"strings"
	"time"
)

type AlbumType string

const (
	AlbumTypeAlbum       AlbumType = "album"
	AlbumTypeSingle      AlbumType = "single"
	AlbumTypeCompilation AlbumType = "compilation"
)

// ParseAlbumType maps the catalog's album_type string, defaulting to album.
func ParseAlbumType(s string) AlbumType {
	switch AlbumType(strings.ToLower(s)) {
	case AlbumTypeSingle:
		return AlbumTypeSingle
	case AlbumTypeCompilation:
		return AlbumTypeCompilation
	default:
		return AlbumTypeAlbum
	}
}

func (t AlbumType) DisplayName() string {
	switch t {
	case AlbumTypeSingle:
		return "Single"
	case AlbumTypeCompilation:
		return "Compilation"
	default:
		return "Album"
	}
}

type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// SimplifiedArtist is used where the catalog response omits artist images.
type SimplifiedArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SimplifiedAlbum is an album without its track listing.
type SimplifiedAlbum struct {
	ID          string             `json:"id"`
	Type        AlbumType          `json:"type"`
	ImageURL    string             `json:"imageUrl"`
	Name        string             `json:"name"`
	ReleaseDate string             `json:"releaseDate,omitempty"`
	Artists     []SimplifiedArtist `json:"artists"`
}

// Album holds an album together with its tracks. Screens that only need the
// cover and title use SimplifiedAlbum instead.
type Album struct {
	SimplifiedAlbum
	Tracks []SimplifiedTrack `json:"tracks"`
}

type Track struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Album      SimplifiedAlbum `json:"album"`
	Artists    []Artist        `json:"artists"`
	Duration   time.Duration   `json:"duration"`
	Explicit   bool            `json:"explicit"`
	PreviewURL string          `json:"previewUrl,omitempty"`
}

func (t Track) ImageURL() string {
	return t.Album.ImageURL
}

// ArtistNames joins the track's artist names for display.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// SimplifiedTrack is a track listed inside an album; it carries no album.
type SimplifiedTrack struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Artists     []SimplifiedArtist `json:"artists"`
	TrackNumber int                `json:"trackNumber"`
	DiscNumber  int                `json:"discNumber"`
	Duration    time.Duration      `json:"duration"`
}

// ArtistTracks is one "more like" carousel on the home screen.
type ArtistTracks struct {
	Artist Artist  `json:"artist"`
	Tracks []Track `json:"tracks"`
}

// GroupByFirstArtist groups tracks by their first credited artist, keeping
// the order in which each artist first appears.
func GroupByFirstArtist(tracks []Track) []ArtistTracks {
	var groups []ArtistTracks
	index := make(map[string]int)
	for _, t := range tracks {
		if len(t.Artists) == 0 {
			continue
		}
		artist := t.Artists[0]
		i, ok := index[artist.ID]
		if !ok {
			i = len(groups)
			index[artist.ID] = i
			groups = append(groups, ArtistTracks{Artist: artist})
		}
		groups[i].Tracks = append(groups[i].Tracks, t)
	}
	return groups
}

package controller

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"mymusic/models"
	"mymusic/repository"
)

type SortOption string

const (
	SortAlphabetical SortOption = "alphabetical"
	SortCreator      SortOption = "creator"
)

func ParseSortOption(s string) (SortOption, error) {
	switch SortOption(strings.ToLower(s)) {
	case SortAlphabetical, "":
		return SortAlphabetical, nil
	case SortCreator:
		return SortCreator, nil
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

type LibraryUiState struct {
	Loading    bool                     `json:"loading"`
	SortOption SortOption               `json:"sortOption"`
	Albums     []models.SimplifiedAlbum `json:"albums"`
}

type LibraryController struct {
	repo   *repository.MusicRepository
	logger *log.Entry

	mu         sync.Mutex
	sortOption SortOption
	sortEvents broadcaster[SortOption]
}

func NewLibraryController(repo *repository.MusicRepository) *LibraryController {
	return &LibraryController{
		repo:       repo,
		sortOption: SortAlphabetical,
		logger: log.WithFields(log.Fields{
			"module": "controller",
			"screen": "library",
		}),
	}
}

func (c *LibraryController) CurrentSortOption() SortOption {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortOption
}

// SetSortOption changes the order for every open library observer.
func (c *LibraryController) SetSortOption(option SortOption) {
	c.mu.Lock()
	c.sortOption = option
	c.mu.Unlock()

	c.logger.WithField("method", "SetSortOption").Debugf("sorting library by %s", option)
	c.sortEvents.publish(option)
}

// Observe emits Loading, then the cached albums in the current sort order
// whenever the albums or the sort option change.
func (c *LibraryController) Observe(ctx context.Context) <-chan LibraryUiState {
	out := make(chan LibraryUiState)
	id, sortEvents := c.sortEvents.subscribe()
	albumsIn := c.repo.ObserveAllAlbums(ctx)

	go func() {
		defer close(out)
		defer c.sortEvents.unsubscribe(id)

		option := c.CurrentSortOption()
		select {
		case out <- LibraryUiState{Loading: true, SortOption: option}:
		case <-ctx.Done():
			return
		}

		var albums []models.SimplifiedAlbum
		loaded := false
		for {
			select {
			case a, ok := <-albumsIn:
				if !ok {
					return
				}
				albums, loaded = a, true
			case option = <-sortEvents:
			case <-ctx.Done():
				return
			}

			if !loaded {
				continue
			}
			select {
			case out <- LibraryUiState{SortOption: option, Albums: sortAlbums(albums, option)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Snapshot reads the cached albums once in the given order. The shared sort
// option is left untouched.
func (c *LibraryController) Snapshot(ctx context.Context, option SortOption) (LibraryUiState, error) {
	albums, err := c.repo.Albums(ctx)
	if err != nil {
		return LibraryUiState{}, err
	}
	return LibraryUiState{SortOption: option, Albums: sortAlbums(albums, option)}, nil
}

func firstArtistName(a models.SimplifiedAlbum) string {
	if len(a.Artists) == 0 {
		return ""
	}
	return a.Artists[0].Name
}

// sortAlbums returns a sorted copy. Creator order falls back to the album
// name for albums by the same artist.
func sortAlbums(albums []models.SimplifiedAlbum, option SortOption) []models.SimplifiedAlbum {
	sorted := make([]models.SimplifiedAlbum, len(albums))
	copy(sorted, albums)

	byName := func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	}
	switch option {
	case SortCreator:
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := strings.ToLower(firstArtistName(sorted[i])), strings.ToLower(firstArtistName(sorted[j]))
			if a != b {
				return a < b
			}
			return byName(i, j)
		})
	default:
		sort.SliceStable(sorted, byName)
	}
	return sorted
}

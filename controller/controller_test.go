package controller

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	spotifyclient "github.com/zmb3/spotify/v2"

	"mymusic/database"
	"mymusic/lyrics"
	"mymusic/models"
	"mymusic/repository"
	"mymusic/spotify"
)

type fakeAPI struct {
	mu              sync.Mutex
	recommendations spotify.Result[*spotifyclient.Recommendations]
	history         spotify.Result[[]spotifyclient.RecentlyPlayedItem]
	albumTracks     spotify.Result[*spotifyclient.SimpleTrackPage]
}

func (f *fakeAPI) GetRecommendations(ctx context.Context) spotify.Result[*spotifyclient.Recommendations] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recommendations
}

func (f *fakeAPI) GetRecentlyPlayed(ctx context.Context) spotify.Result[[]spotifyclient.RecentlyPlayedItem] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history
}

func (f *fakeAPI) GetAlbumTracks(ctx context.Context, id string) spotify.Result[*spotifyclient.SimpleTrackPage] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.albumTracks
}

type fakeLyrics struct{}

func (fakeLyrics) Search(ctx context.Context, trackName, artistName string) (lyrics.Lyrics, error) {
	return lyrics.Lyrics{Text: "words of " + trackName, TrackInfo: trackName + " - " + artistName}, nil
}

func track(id, albumID, albumName, artistID, artistName string) spotifyclient.SimpleTrack {
	artists := []spotifyclient.SimpleArtist{{ID: spotifyclient.ID(artistID), Name: artistName}}
	return spotifyclient.SimpleTrack{
		ID:       spotifyclient.ID(id),
		Name:     "Track " + id,
		Artists:  artists,
		Duration: 60000,
		Album: spotifyclient.SimpleAlbum{
			ID:        spotifyclient.ID(albumID),
			Name:      albumName,
			AlbumType: "album",
			Artists:   artists,
		},
	}
}

func defaultAPI() *fakeAPI {
	return &fakeAPI{
		recommendations: spotify.Result[*spotifyclient.Recommendations]{Value: &spotifyclient.Recommendations{
			Tracks: []spotifyclient.SimpleTrack{
				track("t1", "al1", "Zebra Songs", "ar1", "Alpha"),
				track("t2", "al2", "Apple Tunes", "ar2", "Beta"),
				track("t3", "al1", "Zebra Songs", "ar1", "Alpha"),
			},
		}},
		history: spotify.Result[[]spotifyclient.RecentlyPlayedItem]{Value: []spotifyclient.RecentlyPlayedItem{
			{Track: track("t2", "al2", "Apple Tunes", "ar2", "Beta"), PlayedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		}},
		albumTracks: spotify.Result[*spotifyclient.SimpleTrackPage]{Value: &spotifyclient.SimpleTrackPage{
			Tracks: []spotifyclient.SimpleTrack{
				{ID: "s1", Name: "Opening", TrackNumber: 1, DiscNumber: 1, Duration: 1000},
			},
		}},
	}
}

func newTestController(t *testing.T, api *fakeAPI) (*Controller, *repository.MusicRepository) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.New(api, db)
	return NewController(repo, fakeLyrics{}, 5*time.Second), repo
}

// waitFor receives from ch until match accepts a value.
func waitFor[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatal("channel closed before a matching value")
			}
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching value")
		}
	}
}

func TestHomeStartsLoadingThenShowsRefreshedData(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, _ := newTestController(t, defaultAPI())

	states := c.Home.Observe(ctx)
	first := waitFor(t, states, func(HomeUiState) bool { return true })
	if !first.Loading {
		t.Fatalf("first state = %+v, want Loading", first)
	}

	state := waitFor(t, states, func(s HomeUiState) bool {
		return !s.Loading && len(s.TopPicks) == 3 && len(s.RecentlyPlayed) == 1
	})
	if state.TopPicks[0].ID != "t1" || state.RecentlyPlayed[0].ID != "t2" {
		t.Errorf("unexpected home state %+v", state)
	}
	if len(state.MoreLikeArtists) != 2 {
		t.Fatalf("MoreLikeArtists = %+v, want 2 groups", state.MoreLikeArtists)
	}
	if got := state.MoreLikeArtists[0]; got.Artist.Name != "Alpha" || len(got.Tracks) != 2 {
		t.Errorf("first group = %+v, want Alpha with 2 tracks", got)
	}
}

func TestHomeRefreshFailureShowsCachedData(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api := defaultAPI()
	c, repo := newTestController(t, api)

	if err := repo.RefreshHome(ctx); err != nil {
		t.Fatalf("RefreshHome() error = %v", err)
	}

	api.mu.Lock()
	failure := &spotify.ErrorResponse{Kind: spotify.ErrorKindNetwork, Message: "offline"}
	api.recommendations = spotify.Result[*spotifyclient.Recommendations]{Err: failure}
	api.history = spotify.Result[[]spotifyclient.RecentlyPlayedItem]{Err: failure}
	api.mu.Unlock()

	err := <-c.Home.Refresh(ctx)
	if !errors.Is(err, repository.ErrRefreshFailed) {
		t.Fatalf("Refresh() error = %v, want ErrRefreshFailed", err)
	}

	states := c.Home.Observe(ctx)
	state := waitFor(t, states, func(s HomeUiState) bool { return !s.Loading })
	if len(state.TopPicks) != 3 {
		t.Errorf("TopPicks = %d tracks, want the 3 cached ones", len(state.TopPicks))
	}
}

func TestLibrarySortOptions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, repo := newTestController(t, defaultAPI())
	if err := repo.RefreshRecommendations(ctx); err != nil {
		t.Fatal(err)
	}

	states := c.Library.Observe(ctx)
	state := waitFor(t, states, func(s LibraryUiState) bool { return !s.Loading && len(s.Albums) == 2 })
	if state.SortOption != SortAlphabetical || state.Albums[0].Name != "Apple Tunes" {
		t.Errorf("alphabetical state = %+v", state)
	}

	c.Library.SetSortOption(SortCreator)
	state = waitFor(t, states, func(s LibraryUiState) bool { return s.SortOption == SortCreator })
	if state.Albums[0].Name != "Zebra Songs" {
		t.Errorf("creator order starts with %q, want the album by Alpha", state.Albums[0].Name)
	}
}

func TestLibrarySnapshotKeepsSharedSortOption(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestController(t, defaultAPI())
	if err := repo.RefreshRecommendations(ctx); err != nil {
		t.Fatal(err)
	}

	state, err := c.Library.Snapshot(ctx, SortCreator)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if state.Loading || state.SortOption != SortCreator || len(state.Albums) != 2 || state.Albums[0].Name != "Zebra Songs" {
		t.Errorf("Snapshot(creator) = %+v", state)
	}
	if got := c.Library.CurrentSortOption(); got != SortAlphabetical {
		t.Errorf("CurrentSortOption() = %s, want alphabetical", got)
	}
}

func TestSortAlbums(t *testing.T) {
	albums := []models.SimplifiedAlbum{
		{Name: "b", Artists: []models.SimplifiedArtist{{Name: "Zed"}}},
		{Name: "C", Artists: []models.SimplifiedArtist{{Name: "amy"}}},
		{Name: "a", Artists: []models.SimplifiedArtist{{Name: "Amy"}}},
		{Name: "d"},
	}
	tests := []struct {
		option SortOption
		want   []string
	}{
		{SortAlphabetical, []string{"a", "b", "C", "d"}},
		{SortCreator, []string{"d", "a", "C", "b"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			got := sortAlbums(albums, tt.option)
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
	if albums[0].Name != "b" {
		t.Error("sortAlbums modified its input")
	}
}

func TestParseSortOption(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOption
		wantErr bool
	}{
		{"", SortAlphabetical, false},
		{"alphabetical", SortAlphabetical, false},
		{"Creator", SortCreator, false},
		{"recent", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortOption(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSortOption(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestAlbumShowsTracks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, repo := newTestController(t, defaultAPI())
	if err := repo.RefreshRecommendations(ctx); err != nil {
		t.Fatal(err)
	}

	states := c.Album.Observe(ctx, "al1")
	state := waitFor(t, states, func(s AlbumUiState) bool { return s.Album != nil && len(s.Album.Tracks) == 1 })
	if state.Album.Name != "Zebra Songs" || state.Album.Tracks[0].Name != "Opening" {
		t.Errorf("album state = %+v", state.Album)
	}
}

func TestPlayerQueueFollowsRecommendations(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestController(t, defaultAPI())
	if err := repo.RefreshRecommendations(ctx); err != nil {
		t.Fatal(err)
	}
	player := c.Player

	pb := player.Load(ctx, "t2")
	if pb.TrackID != "t2" || pb.QueuePosition != 1 || pb.QueueLength != 3 || !pb.Playing {
		t.Fatalf("Load() = %+v", pb)
	}

	if pb = player.Pause(); pb.Playing || pb.Event != PlaybackPaused {
		t.Errorf("Pause() = %+v", pb)
	}
	if pb = player.Play(); !pb.Playing || pb.Event != PlaybackResumed {
		t.Errorf("Play() = %+v", pb)
	}
	if pb = player.SkipNext(); pb.TrackID != "t3" || pb.Event != PlaybackSkipped {
		t.Errorf("SkipNext() = %+v", pb)
	}
	if pb = player.SkipNext(); pb.TrackID != "t3" || pb.Playing || pb.Event != PlaybackStopped {
		t.Errorf("SkipNext() at end = %+v", pb)
	}
	player.SkipPrevious()
	if pb = player.SkipPrevious(); pb.TrackID != "t1" {
		t.Errorf("SkipPrevious() = %+v", pb)
	}
	if pb = player.SkipPrevious(); pb.TrackID != "t1" || pb.Event != PlaybackStarted {
		t.Errorf("SkipPrevious() at start = %+v", pb)
	}

	albumID, err := player.OnAlbumClick(ctx)
	if err != nil || albumID != "al1" {
		t.Errorf("OnAlbumClick() = %q, %v", albumID, err)
	}
}

func TestPlayerUnknownTrackGoesFirst(t *testing.T) {
	ctx := context.Background()
	c, repo := newTestController(t, defaultAPI())
	if err := repo.RefreshRecommendations(ctx); err != nil {
		t.Fatal(err)
	}

	pb := c.Player.Load(ctx, "elsewhere")
	if pb.TrackID != "elsewhere" || pb.QueuePosition != 0 || pb.QueueLength != 4 {
		t.Errorf("Load() = %+v", pb)
	}
}

func TestPlayerObserveSwitchesTrackOnSkip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, repo := newTestController(t, defaultAPI())
	if err := repo.RefreshRecommendations(ctx); err != nil {
		t.Fatal(err)
	}

	states := c.Player.Observe(ctx, "t1")
	state := waitFor(t, states, func(s PlayerUiState) bool { return s.Track != nil })
	if state.Track.ID != "t1" || state.Lyrics.Text != "words of Track t1" {
		t.Errorf("player state = %+v", state)
	}

	c.Player.SkipNext()
	state = waitFor(t, states, func(s PlayerUiState) bool { return s.Track != nil && s.Track.ID == "t2" })
	if state.Playback.TrackID != "t2" || state.Lyrics.TrackInfo != "Track t2 - Beta" {
		t.Errorf("player state after skip = %+v", state)
	}
}

func TestOnAlbumClickWithoutTrack(t *testing.T) {
	c, _ := newTestController(t, defaultAPI())
	if _, err := c.Player.OnAlbumClick(context.Background()); !errors.Is(err, ErrNothingPlaying) {
		t.Errorf("OnAlbumClick() error = %v, want ErrNothingPlaying", err)
	}
}

func TestBroadcasterKeepsLatest(t *testing.T) {
	var b broadcaster[int]
	id, ch := b.subscribe()
	b.publish(1)
	b.publish(2)
	if got := <-ch; got != 2 {
		t.Errorf("received %d, want 2", got)
	}

	b.unsubscribe(id)
	b.publish(3)
	select {
	case v := <-ch:
		t.Errorf("received %d after unsubscribe", v)
	default:
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	spotifyclient "github.com/zmb3/spotify/v2"

	"mymusic/controller"
	"mymusic/database"
	"mymusic/lyrics"
	"mymusic/repository"
	"mymusic/spotify"
)

type fakeAPI struct {
	failing bool
}

var offline = &spotify.ErrorResponse{Kind: spotify.ErrorKindNetwork, Message: "offline"}

func (f *fakeAPI) GetRecommendations(ctx context.Context) spotify.Result[*spotifyclient.Recommendations] {
	if f.failing {
		return spotify.Result[*spotifyclient.Recommendations]{Err: offline}
	}
	artists := []spotifyclient.SimpleArtist{{ID: "ar1", Name: "Artist"}}
	return spotify.Result[*spotifyclient.Recommendations]{Value: &spotifyclient.Recommendations{
		Tracks: []spotifyclient.SimpleTrack{
			{ID: "t1", Name: "One", Artists: artists, Duration: 1000,
				Album: spotifyclient.SimpleAlbum{ID: "al1", Name: "Album", AlbumType: "album", Artists: artists}},
			{ID: "t2", Name: "Two", Artists: artists, Duration: 1000,
				Album: spotifyclient.SimpleAlbum{ID: "al1", Name: "Album", AlbumType: "album", Artists: artists}},
		},
	}}
}

func (f *fakeAPI) GetRecentlyPlayed(ctx context.Context) spotify.Result[[]spotifyclient.RecentlyPlayedItem] {
	if f.failing {
		return spotify.Result[[]spotifyclient.RecentlyPlayedItem]{Err: offline}
	}
	return spotify.Result[[]spotifyclient.RecentlyPlayedItem]{}
}

func (f *fakeAPI) GetAlbumTracks(ctx context.Context, id string) spotify.Result[*spotifyclient.SimpleTrackPage] {
	if f.failing {
		return spotify.Result[*spotifyclient.SimpleTrackPage]{Err: offline}
	}
	return spotify.Result[*spotifyclient.SimpleTrackPage]{Value: &spotifyclient.SimpleTrackPage{
		Tracks: []spotifyclient.SimpleTrack{{ID: "s1", Name: "One", TrackNumber: 1, DiscNumber: 1}},
	}}
}

type noLyrics struct{}

func (noLyrics) Search(ctx context.Context, trackName, artistName string) (lyrics.Lyrics, error) {
	return lyrics.Lyrics{}, nil
}

func newTestRouter(t *testing.T, api *fakeAPI, timeout time.Duration) (*gin.Engine, *repository.MusicRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.New(api, db)
	ctrl := controller.NewController(repo, noLyrics{}, 5*time.Second)
	return NewManager(ctrl, repo, timeout).Router(), repo
}

func serve(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHomeReturnsCachedState(t *testing.T) {
	router, repo := newTestRouter(t, &fakeAPI{}, 5*time.Second)
	if err := repo.RefreshHome(context.Background()); err != nil {
		t.Fatal(err)
	}

	w := serve(router, http.MethodGet, "/api/home")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	var state controller.HomeUiState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(state.TopPicks) != 2 || state.TopPicks[0].ID != "t1" {
		t.Errorf("TopPicks = %+v", state.TopPicks)
	}
}

func TestListenNowPage(t *testing.T) {
	router, repo := newTestRouter(t, &fakeAPI{}, 5*time.Second)
	if err := repo.RefreshHome(context.Background()); err != nil {
		t.Fatal(err)
	}

	w := serve(router, http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, "More like Artist") {
		t.Errorf("page missing artist carousel: %s", body)
	}
}

func TestHomeStreamSendsEvents(t *testing.T) {
	router, _ := newTestRouter(t, &fakeAPI{}, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/home/stream", nil).WithContext(ctx)
	router.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event:home") {
		t.Fatalf("no home events in %q", body)
	}
	if !strings.Contains(body, `"loading":true`) {
		t.Errorf("stream did not start with a loading state: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestLibrarySortParameter(t *testing.T) {
	router, repo := newTestRouter(t, &fakeAPI{}, 5*time.Second)
	if err := repo.RefreshRecommendations(context.Background()); err != nil {
		t.Fatal(err)
	}

	w := serve(router, http.MethodGet, "/api/library?sort=creator")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var state controller.LibraryUiState
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.SortOption != controller.SortCreator || len(state.Albums) != 1 {
		t.Errorf("state = %+v", state)
	}

	if w := serve(router, http.MethodGet, "/api/library?sort=bogus"); w.Code != http.StatusBadRequest {
		t.Errorf("bogus sort status = %d, want 400", w.Code)
	}
}

func TestLibraryOverlappingSortRequests(t *testing.T) {
	router, repo := newTestRouter(t, &fakeAPI{}, 2*time.Second)
	if err := repo.RefreshRecommendations(context.Background()); err != nil {
		t.Fatal(err)
	}

	options := []controller.SortOption{controller.SortAlphabetical, controller.SortCreator}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		option := options[i%len(options)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := serve(router, http.MethodGet, "/api/library?sort="+string(option))
			if w.Code != http.StatusOK {
				t.Errorf("sort=%s: status = %d, body = %s", option, w.Code, w.Body)
				return
			}
			var state controller.LibraryUiState
			if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
				t.Errorf("sort=%s: invalid JSON: %v", option, err)
				return
			}
			if state.SortOption != option {
				t.Errorf("sort=%s: got state sorted by %s", option, state.SortOption)
			}
		}()
	}
	wg.Wait()
}

func TestAlbumNotCached(t *testing.T) {
	router, _ := newTestRouter(t, &fakeAPI{}, 200*time.Millisecond)

	if w := serve(router, http.MethodGet, "/api/albums/missing"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestTrackAndPlayerActions(t *testing.T) {
	router, repo := newTestRouter(t, &fakeAPI{}, 5*time.Second)
	if err := repo.RefreshRecommendations(context.Background()); err != nil {
		t.Fatal(err)
	}

	w := serve(router, http.MethodGet, "/api/tracks/t1")
	if w.Code != http.StatusOK {
		t.Fatalf("track status = %d, body = %s", w.Code, w.Body)
	}

	tests := []struct {
		action   string
		wantCode int
		wantBody string
	}{
		{"pause", http.StatusOK, `"playing":false`},
		{"play", http.StatusOK, `"playing":true`},
		{"next", http.StatusOK, `"trackId":"t2"`},
		{"previous", http.StatusOK, `"trackId":"t1"`},
		{"album", http.StatusOK, `"albumId":"al1"`},
		{"rewind", http.StatusBadRequest, "unknown player action"},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			w := serve(router, http.MethodPost, "/api/player/"+tt.action)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %s missing %s", w.Body, tt.wantBody)
			}
		})
	}
}

func TestOpenRedirects(t *testing.T) {
	router, _ := newTestRouter(t, &fakeAPI{}, time.Second)

	tests := []struct {
		url      string
		wantCode int
		wantLoc  string
	}{
		{"https://open.spotify.com/album/al1?si=x", http.StatusFound, "/api/albums/al1"},
		{"https://open.spotify.com/track/t1", http.StatusFound, "/api/tracks/t1"},
		{"https://example.com/track/t1", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		w := serve(router, http.MethodGet, "/api/open?url="+tt.url)
		if w.Code != tt.wantCode {
			t.Errorf("%s: status = %d, want %d", tt.url, w.Code, tt.wantCode)
		}
		if loc := w.Header().Get("Location"); loc != tt.wantLoc {
			t.Errorf("%s: Location = %q, want %q", tt.url, loc, tt.wantLoc)
		}
	}
}

func TestSyncReportsUpstreamFailure(t *testing.T) {
	api := &fakeAPI{}
	router, _ := newTestRouter(t, api, time.Second)

	if w := serve(router, http.MethodPost, "/api/sync"); w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}

	api.failing = true
	w := serve(router, http.MethodPost, "/api/sync")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"kind":"network"`) {
		t.Errorf("body = %s", w.Body)
	}
}

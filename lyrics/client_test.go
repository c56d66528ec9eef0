package lyrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    Lyrics
		wantErr bool
	}{
		{
			name:   "plain lyrics",
			body:   `[{"trackName": "Song", "artistName": "Band", "plainLyrics": "la la la"}]`,
			status: http.StatusOK,
			want:   Lyrics{Text: "la la la", TrackInfo: "Song - Band"},
		},
		{
			name:   "synced lyrics lose their timestamps",
			body:   `[{"trackName": "Song", "artistName": "Band", "syncedLyrics": "[00:01.00] first\n[00:02.50] second"}]`,
			status: http.StatusOK,
			want:   Lyrics{Text: "first\n second", TrackInfo: "Song - Band"},
		},
		{
			name:   "instrumental match",
			body:   `[{"trackName": "Song", "artistName": "Band"}]`,
			status: http.StatusOK,
			want:   Lyrics{TrackInfo: "Song - Band"},
		},
		{
			name:   "no match",
			body:   `[]`,
			status: http.StatusOK,
			want:   Lyrics{},
		},
		{
			name:    "server error",
			body:    `{}`,
			status:  http.StatusInternalServerError,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search" || r.URL.Query().Get("track_name") != "Song" {
					t.Errorf("unexpected request %s", r.URL)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			got, err := New(srv.URL).Search(context.Background(), "Song", "Band")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Search() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Search() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

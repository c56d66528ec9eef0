package main

import (
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"mymusic/models"
)

func TestRenderTable(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		want    []string
	}{
		{"no headers", nil, [][]string{{"x"}}, nil},
		{"short row padded", []string{"A", "B"}, [][]string{{"only"}}, []string{"A", "B", "only"}},
		{"rounded style", []string{"Name"}, [][]string{{"value"}}, []string{"╭", "value", "╰"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderTable(tt.headers, tt.rows, nil)
			if tt.want == nil && got != "" {
				t.Fatalf("renderTable() = %q, want empty", got)
			}
			for _, s := range tt.want {
				if !strings.Contains(got, s) {
					t.Errorf("renderTable() missing %q in\n%s", s, got)
				}
			}
		})
	}
}

func TestRenderTracks(t *testing.T) {
	tracks := []models.Track{{
		ID:       "t1",
		Name:     "Song",
		Album:    models.SimplifiedAlbum{Name: "Record"},
		Artists:  []models.Artist{{Name: "A"}, {Name: "B"}},
		Duration: 3*time.Minute + 5*time.Second,
	}}

	got := renderTracks(tracks)
	for _, s := range []string{"Song", "A, B", "Record", "3:05"} {
		if !strings.Contains(got, s) {
			t.Errorf("renderTracks() missing %q in\n%s", s, got)
		}
	}
}

func TestSetupLoggingFallsBackToInfo(t *testing.T) {
	setupLogging("not-a-level")
	if got := log.GetLevel(); got != log.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}
	setupLogging("debug")
	if got := log.GetLevel(); got != log.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
	setupLogging("info")
}

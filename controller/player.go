package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"mymusic/lyrics"
	"mymusic/models"
	"mymusic/repository"
)

const lyricsTimeout = 5 * time.Second

var ErrNothingPlaying = errors.New("nothing is playing")

type PlaybackEvent string

const (
	PlaybackStarted PlaybackEvent = "started"
	PlaybackPaused  PlaybackEvent = "paused"
	PlaybackResumed PlaybackEvent = "resumed"
	PlaybackSkipped PlaybackEvent = "skipped"
	// PlaybackStopped means a skip ran past the end of the queue.
	PlaybackStopped PlaybackEvent = "stopped"
)

type Playback struct {
	TrackID       string        `json:"trackId"`
	Playing       bool          `json:"playing"`
	Event         PlaybackEvent `json:"event"`
	QueuePosition int           `json:"queuePosition"`
	QueueLength   int           `json:"queueLength"`
}

type PlayerUiState struct {
	Loading  bool          `json:"loading"`
	Track    *models.Track `json:"track,omitempty"`
	Lyrics   lyrics.Lyrics `json:"lyrics"`
	Playback Playback      `json:"playback"`
}

// PlayerController keeps one playback queue for the whole app. The queue is
// taken from the recommendations when a track is opened.
type PlayerController struct {
	repo   *repository.MusicRepository
	lyrics LyricsSource
	logger *log.Entry

	mu       sync.Mutex
	queue    []string
	position int
	playing  bool
	event    PlaybackEvent
	events   broadcaster[Playback]
}

func NewPlayerController(repo *repository.MusicRepository, lyricsSource LyricsSource) *PlayerController {
	return &PlayerController{
		repo:   repo,
		lyrics: lyricsSource,
		logger: log.WithFields(log.Fields{
			"module": "controller",
			"screen": "player",
		}),
	}
}

// snapshot must be called with mu held.
func (c *PlayerController) snapshot() Playback {
	pb := Playback{
		Playing:       c.playing,
		Event:         c.event,
		QueuePosition: c.position,
		QueueLength:   len(c.queue),
	}
	if c.position < len(c.queue) {
		pb.TrackID = c.queue[c.position]
	}
	return pb
}

func (c *PlayerController) Playback() Playback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// update applies fn under the lock and tells every observer about the result.
func (c *PlayerController) update(fn func()) Playback {
	c.mu.Lock()
	fn()
	pb := c.snapshot()
	c.mu.Unlock()

	c.logger.Tracef("Playback event: %s (%s)", pb.Event, pb.TrackID)
	c.events.publish(pb)
	return pb
}

// Load starts playing trackID with the cached recommendations queued around
// it. A track that is not among them is put at the front of the queue.
func (c *PlayerController) Load(ctx context.Context, trackID string) Playback {
	queue := []string{trackID}
	position := 0

	recommendations, err := c.repo.Recommendations(ctx)
	if err != nil {
		c.logger.WithField("method", "Load").Errorf("failed to read recommendations: %v", err)
		sentry.CaptureException(err)
	}
	for i, t := range recommendations {
		if t.ID == trackID {
			queue = queue[:0]
			for _, r := range recommendations {
				queue = append(queue, r.ID)
			}
			position = i
			break
		}
	}
	if len(queue) == 1 {
		for _, r := range recommendations {
			if r.ID != trackID {
				queue = append(queue, r.ID)
			}
		}
	}

	return c.update(func() {
		c.queue = queue
		c.position = position
		c.playing = true
		c.event = PlaybackStarted
	})
}

func (c *PlayerController) Play() Playback {
	return c.update(func() {
		if len(c.queue) == 0 {
			return
		}
		c.playing = true
		c.event = PlaybackResumed
	})
}

func (c *PlayerController) Pause() Playback {
	return c.update(func() {
		if len(c.queue) == 0 {
			return
		}
		c.playing = false
		c.event = PlaybackPaused
	})
}

// SkipNext moves to the next queued track. On the last track it stops
// playback and stays put.
func (c *PlayerController) SkipNext() Playback {
	return c.update(func() {
		if len(c.queue) == 0 {
			return
		}
		if c.position+1 < len(c.queue) {
			c.position++
			c.playing = true
			c.event = PlaybackSkipped
			return
		}
		c.playing = false
		c.event = PlaybackStopped
	})
}

// SkipPrevious moves to the previous queued track, or restarts the first one.
func (c *PlayerController) SkipPrevious() Playback {
	return c.update(func() {
		if len(c.queue) == 0 {
			return
		}
		c.playing = true
		if c.position > 0 {
			c.position--
			c.event = PlaybackSkipped
			return
		}
		c.event = PlaybackStarted
	})
}

// OnAlbumClick returns the album of the current track to navigate to.
func (c *PlayerController) OnAlbumClick(ctx context.Context) (string, error) {
	trackID := c.Playback().TrackID
	if trackID == "" {
		return "", ErrNothingPlaying
	}
	track, found, err := c.repo.Track(ctx, trackID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNothingPlaying
	}
	return track.Album.ID, nil
}

func (c *PlayerController) findLyrics(ctx context.Context, track models.Track) lyrics.Lyrics {
	if c.lyrics == nil {
		return lyrics.Lyrics{}
	}
	ctx, cancel := context.WithTimeout(ctx, lyricsTimeout)
	defer cancel()

	var artist string
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}
	found, err := c.lyrics.Search(ctx, track.Name, artist)
	if err != nil {
		c.logger.WithField("method", "findLyrics").Warnf("lyrics lookup for %s failed: %v", track.ID, err)
	}
	return found
}

// Observe loads trackID (unless it is already current) and emits the player
// state: Loading until the current track is cached, then the track with its
// lyrics and playback. Skipping switches the observed track.
func (c *PlayerController) Observe(ctx context.Context, trackID string) <-chan PlayerUiState {
	out := make(chan PlayerUiState)
	id, events := c.events.subscribe()

	current := c.Playback()
	if trackID != "" && trackID != current.TrackID {
		current = c.Load(ctx, trackID)
	}

	go func() {
		defer close(out)
		defer c.events.unsubscribe(id)

		trackCtx, cancelTrack := context.WithCancel(ctx)
		defer func() { cancelTrack() }()
		tracks := c.repo.ObserveTrack(trackCtx, current.TrackID)

		state := PlayerUiState{Loading: true, Playback: current}
		for {
			select {
			case out <- state:
			case <-ctx.Done():
				return
			}

			select {
			case t, ok := <-tracks:
				if !ok {
					tracks = nil
					continue
				}
				if state.Track == nil || state.Track.ID != t.ID {
					state.Lyrics = c.findLyrics(ctx, t)
				}
				state.Track = &t
				state.Loading = false
			case pb := <-events:
				if pb.TrackID != state.Playback.TrackID {
					cancelTrack()
					trackCtx, cancelTrack = context.WithCancel(ctx)
					tracks = c.repo.ObserveTrack(trackCtx, pb.TrackID)
					state = PlayerUiState{Loading: true}
				}
				state.Playback = pb
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

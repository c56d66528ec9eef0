package sentry

import (
	"errors"
	"testing"

	sentry "github.com/getsentry/sentry-go"
)

func captureEvents(t *testing.T) *[]*sentry.Event {
	t.Helper()
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("sentry.NewClient() error = %v", err)
	}

	hub := sentry.CurrentHub()
	hub.PushScope()
	hub.BindClient(client)
	t.Cleanup(hub.PopScope)
	return &events
}

func TestReportErrorCarriesCommandContext(t *testing.T) {
	events := captureEvents(t)

	SetContext("command", map[string]interface{}{"name": "sync"})
	ReportError(errors.New("sync failed"))

	if len(*events) != 1 {
		t.Fatalf("captured %d events, want 1", len(*events))
	}
	event := (*events)[0]
	if len(event.Exception) == 0 || event.Exception[len(event.Exception)-1].Value != "sync failed" {
		t.Errorf("exception = %+v", event.Exception)
	}
	if got := event.Contexts["command"]["name"]; got != "sync" {
		t.Errorf("command context name = %v, want sync", got)
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"observo/internal/models"
	"observo/internal/notify"
)

type dispatchCall struct {
	settings models.AlertSettings
	alert    notify.Alert
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (f *fakeNotifier) Dispatch(ctx context.Context, settings models.AlertSettings, alert notify.Alert) []models.DispatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{settings: settings, alert: alert})
	return []models.DispatchResult{{AlertDispatch: models.AlertDispatch{Channel: models.ChannelEmail, Subject: alert.Subject}}}
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// staticSettings serves a fixed document.
type staticSettings struct {
	mu  sync.Mutex
	doc map[string]any
	err error
}

func (s *staticSettings) GetSettings(ctx context.Context) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Settings{}, s.err
	}
	return models.Settings{Version: 1, Data: cloneDocument(s.doc)}, nil
}

func (s *staticSettings) set(section string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		s.doc = map[string]any{}
	}
	s.doc[section] = data
}

type fakeLogStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakeLogStore) Store(ctx context.Context, rec models.LogRecord) (string, error) {
	return "id", nil
}

func (f *fakeLogStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

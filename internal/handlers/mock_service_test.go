package handlers

import (
	"context"
	"sync"
	"time"

	"observo/internal/broadcast"
	"observo/internal/logger"
	"observo/internal/models"
	"observo/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type memSettingsRepo struct {
	mu  sync.Mutex
	doc *models.Settings
}

func (r *memSettingsRepo) Load(ctx context.Context) (models.Settings, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return models.Settings{}, false, nil
	}
	return *r.doc, true, nil
}

func (r *memSettingsRepo) Save(ctx context.Context, s models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = &s
	return nil
}

type mockRetention struct {
	lastDays int
	deleted  int64
	err      error
}

func (m *mockRetention) Run(ctx context.Context, tick time.Duration) {}
func (m *mockRetention) Sweep(ctx context.Context) (int64, error)   { return 0, nil }
func (m *mockRetention) Cleanup(ctx context.Context, days int) (int64, error) {
	m.lastDays = days
	return m.deleted, m.err
}

type mockConsumer struct{ running bool }

func (m mockConsumer) Running() bool { return m.running }

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	handler   *Handler
	router    *gin.Engine
	hub       *broadcast.Hub
	retention *mockRetention
}

func newTestEnv() *testEnv {
	log := logger.Nop()
	ret := &mockRetention{deleted: 7}
	s := &service.Service{
		Settings:  service.NewSettingsService(&memSettingsRepo{}, log),
		Retention: ret,
	}
	hub := broadcast.NewHub(8, log, nil)
	h := NewHandler(s, hub, mockConsumer{running: true}, nil, log)
	return &testEnv{handler: h, router: h.InitRoutes(), hub: hub, retention: ret}
}

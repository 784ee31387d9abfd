package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"observo/internal/apperrors"
	"observo/internal/logger"
	"observo/internal/models"
	"observo/internal/repository"
)

// SettingsCacheTTL bounds how stale a cached settings snapshot may be.
const SettingsCacheTTL = 5 * time.Minute

// SettingsService owns the global settings document: validated section
// updates, deep merge, and a TTL-cached snapshot.
type SettingsService struct {
	repo repository.SettingsRepo
	log  *logger.Logger
	ttl  time.Duration
	now  func() time.Time

	// writeMu serializes read-merge-save cycles.
	writeMu sync.Mutex

	cacheMu     sync.RWMutex
	cached      *models.Settings
	cacheExpiry time.Time
	// generation changes on every invalidate; a load that started under an
	// older generation must not refill the cache.
	generation uint64
}

func NewSettingsService(repo repository.SettingsRepo, log *logger.Logger) *SettingsService {
	return &SettingsService{
		repo: repo,
		log:  log,
		ttl:  SettingsCacheTTL,
		now:  time.Now,
	}
}

// GetSettings returns the current document, served from cache while fresh.
// The returned Data is a private copy.
func (s *SettingsService) GetSettings(ctx context.Context) (models.Settings, error) {
	st, err := s.current(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	st.Data = cloneDocument(st.Data)
	return st, nil
}

// GetSection returns one section of the document.
func (s *SettingsService) GetSection(ctx context.Context, name string) (map[string]any, error) {
	st, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	section, ok := st.Data[CanonicalSection(name)].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSectionNotFound, name)
	}
	return cloneDocument(section), nil
}

// UpdateSettings validates every provided section, then merges the partial
// document into the stored one. On any validation failure nothing changes.
func (s *SettingsService) UpdateSettings(ctx context.Context, partial map[string]any) (models.Settings, error) {
	if len(partial) == 0 {
		return models.Settings{}, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "settings", Message: "must contain at least one section"},
		}}
	}
	normalized, err := normalizeDocument(partial)
	if err != nil {
		return models.Settings{}, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "settings", Message: "must be a JSON object"},
		}}
	}
	if errs := validateDocument(normalized); len(errs) > 0 {
		s.log.Warnw("settings_update_rejected", "fields", errs)
		return models.Settings{}, &apperrors.ValidationError{Fields: errs}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	st, err := s.loadLocked(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	next := models.Settings{
		Version:   st.Version + 1,
		Data:      deepMerge(st.Data, normalized),
		CreatedAt: st.CreatedAt,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return models.Settings{}, err
	}
	s.invalidate()

	s.log.Infow("settings_updated", "version", next.Version, "sections", sortedKeys(normalized))
	next.Data = cloneDocument(next.Data)
	return next, nil
}

// UpdateSection validates and merges a single section.
func (s *SettingsService) UpdateSection(ctx context.Context, name string, data map[string]any) (models.Settings, error) {
	name = CanonicalSection(name)
	if _, ok := sectionRules[name]; !ok {
		return models.Settings{}, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: name, Message: "unknown section"},
		}}
	}
	if data == nil {
		data = map[string]any{}
	}
	return s.UpdateSettings(ctx, map[string]any{name: data})
}

// ResetToDefaults replaces the whole document with the defaults.
func (s *SettingsService) ResetToDefaults(ctx context.Context) (models.Settings, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	st, err := s.loadLocked(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	next := models.Settings{
		Version:   st.Version + 1,
		Data:      defaultDocument(),
		CreatedAt: st.CreatedAt,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return models.Settings{}, err
	}
	s.invalidate()

	s.log.Infow("settings_reset", "version", next.Version)
	next.Data = cloneDocument(next.Data)
	return next, nil
}

// Export returns the current document in portable form.
func (s *SettingsService) Export(ctx context.Context) (models.SettingsExport, error) {
	st, err := s.GetSettings(ctx)
	if err != nil {
		return models.SettingsExport{}, err
	}
	return models.SettingsExport{
		Settings:   st.Data,
		ExportedAt: s.now().UTC(),
		Version:    st.Version,
	}, nil
}

// Import validates an exported document and merges it like an update.
func (s *SettingsService) Import(ctx context.Context, payload models.SettingsExport) (models.Settings, error) {
	if payload.Settings == nil {
		return models.Settings{}, &apperrors.ValidationError{Fields: []apperrors.FieldError{
			{Field: "settings", Message: "import payload has no settings object"},
		}}
	}
	st, err := s.UpdateSettings(ctx, payload.Settings)
	if err != nil {
		return models.Settings{}, err
	}
	s.log.Infow("settings_imported", "version", st.Version, "source_version", payload.Version)
	return st, nil
}

// current returns the cached snapshot or reloads it, bootstrapping the
// defaults when no document exists.
func (s *SettingsService) current(ctx context.Context) (models.Settings, error) {
	s.cacheMu.RLock()
	if s.cached != nil && s.now().Before(s.cacheExpiry) {
		st := *s.cached
		s.cacheMu.RUnlock()
		return st, nil
	}
	gen := s.generation
	s.cacheMu.RUnlock()

	st, found, err := s.repo.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if !found {
		s.writeMu.Lock()
		st, err = s.loadLocked(ctx)
		s.writeMu.Unlock()
		if err != nil {
			return models.Settings{}, err
		}
	}

	s.cacheMu.Lock()
	if s.generation == gen {
		s.cached = &st
		s.cacheExpiry = s.now().Add(s.ttl)
	}
	s.cacheMu.Unlock()
	return st, nil
}

// loadLocked reads the stored document, saving the defaults as version 1
// when there is none. Callers hold writeMu.
func (s *SettingsService) loadLocked(ctx context.Context) (models.Settings, error) {
	st, found, err := s.repo.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if found {
		return st, nil
	}
	now := s.now().UTC()
	st = models.Settings{Version: 1, Data: defaultDocument(), CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Save(ctx, st); err != nil {
		return models.Settings{}, err
	}
	s.log.Infow("settings_defaults_initialized")
	return st, nil
}

func (s *SettingsService) invalidate() {
	s.cacheMu.Lock()
	s.cached = nil
	s.cacheExpiry = time.Time{}
	s.generation++
	s.cacheMu.Unlock()
}

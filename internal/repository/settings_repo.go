package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"observo/internal/apperrors"
	"observo/internal/models"
	"observo/internal/repository/db"
)

// SettingsSQL keeps the single settings document under a fixed key.
type SettingsSQL struct {
	db *sql.DB

	upsertSQL string
	selectSQL string
}

func NewSettingsSQL(conn *sql.DB, driver string) *SettingsSQL {
	return &SettingsSQL{
		db:        conn,
		upsertSQL: db.Rebind(driver, upsertSettingsSQL),
		selectSQL: db.Rebind(driver, selectSettingsSQL),
	}
}

const (
	settingsKey = "global"

	upsertSettingsSQL = `
		INSERT INTO settings (key, data, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data=excluded.data,
			version=excluded.version,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT data, version, created_at, updated_at
		FROM settings WHERE key=?
	`
)

// Load returns the stored document; found is false when none exists yet.
func (r *SettingsSQL) Load(ctx context.Context) (models.Settings, bool, error) {
	var (
		s    models.Settings
		data string
	)
	err := r.db.QueryRowContext(ctx, r.selectSQL, settingsKey).
		Scan(&data, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, false, nil
	}
	if err != nil {
		return models.Settings{}, false, &apperrors.PersistenceError{Op: "load settings", Cause: err}
	}
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return models.Settings{}, false, &apperrors.PersistenceError{Op: "decode settings", Cause: err}
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, true, nil
}

// Save upserts the document. created_at is kept from the first insert.
func (r *SettingsSQL) Save(ctx context.Context, s models.Settings) error {
	b, err := json.Marshal(s.Data)
	if err != nil {
		return &apperrors.PersistenceError{Op: "encode settings", Cause: err}
	}

	now := time.Now().UTC()
	created := s.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = now
	}

	_, err = r.db.ExecContext(ctx, r.upsertSQL,
		settingsKey,
		string(b),
		s.Version,
		created.UTC(),
		updated.UTC(),
	)
	if err != nil {
		return &apperrors.PersistenceError{Op: "save settings", Cause: err}
	}
	return nil
}

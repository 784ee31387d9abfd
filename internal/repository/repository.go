package repository

import (
	"context"
	"database/sql"
	"time"

	"observo/internal/models"
)

type LogStore interface {
	Store(ctx context.Context, rec models.LogRecord) (string, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type SettingsRepo interface {
	Load(ctx context.Context) (models.Settings, bool, error)
	Save(ctx context.Context, s models.Settings) error
}

type Repository struct {
	Logs     LogStore
	Settings SettingsRepo
}

func NewRepository(conn *sql.DB, driver string) *Repository {
	return &Repository{
		Logs:     NewLogSQL(conn, driver),
		Settings: NewSettingsSQL(conn, driver),
	}
}

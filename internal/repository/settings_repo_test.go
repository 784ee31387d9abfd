package repository

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"observo/internal/apperrors"
	"observo/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSettingsSQL_Load_NotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	repo := NewSettingsSQL(conn, "sqlite")
	mock.ExpectQuery(regexp.QuoteMeta("FROM settings WHERE key=?")).
		WithArgs("global").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version", "created_at", "updated_at"}))

	_, found, err := repo.Load(ctx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}
}

func TestSettingsSQL_Load_DecodesDocument(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	repo := NewSettingsSQL(conn, "sqlite")
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"data", "version", "created_at", "updated_at"}).
		AddRow(`{"dataRetention":{"days":30}}`, 3, now, now)
	mock.ExpectQuery("SELECT data, version").WithArgs("global").WillReturnRows(rows)

	s, found, err := repo.Load(ctx(t))
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if s.Version != 3 {
		t.Fatalf("expected version 3, got %d", s.Version)
	}
	retention, ok := s.Data[models.SectionDataRetention].(map[string]any)
	if !ok || retention["days"] != float64(30) {
		t.Fatalf("unexpected document: %#v", s.Data)
	}
}

func TestSettingsSQL_Load_CorruptDocument(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	repo := NewSettingsSQL(conn, "sqlite")
	now := time.Now()
	mock.ExpectQuery("SELECT data, version").
		WillReturnRows(sqlmock.NewRows([]string{"data", "version", "created_at", "updated_at"}).
			AddRow(`{not json`, 1, now, now))

	_, _, err = repo.Load(ctx(t))
	var pe *apperrors.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestSettingsSQL_Save_Upserts(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	repo := NewSettingsSQL(conn, "postgres")

	isUTC := argFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		return ok && tm.Location() == time.UTC
	})
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT(key) DO UPDATE")).
		WithArgs("global", `{"user":{"theme":"light"}}`, 2, isUTC, isUTC).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(ctx(t), models.Settings{
		Version: 2,
		Data:    map[string]any{"user": map[string]any{"theme": "light"}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSettingsSQL_Save_DBError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()

	repo := NewSettingsSQL(conn, "sqlite")
	mock.ExpectExec("INSERT INTO settings").WillReturnError(errors.New("locked"))

	err = repo.Save(ctx(t), models.Settings{Version: 1, Data: map[string]any{}})
	var pe *apperrors.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

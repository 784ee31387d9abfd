package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"observo/internal/apperrors"
	"observo/internal/models"
	"observo/internal/repository/db"

	"github.com/google/uuid"
)

// LogSQL persists normalized log records. It is append-only on the
// ingestion path; DeleteBefore serves the retention sweeper.
type LogSQL struct {
	db     *sql.DB
	driver string

	insertSQL string
	deleteSQL string
}

func NewLogSQL(conn *sql.DB, driver string) *LogSQL {
	return &LogSQL{
		db:        conn,
		driver:    driver,
		insertSQL: db.Rebind(driver, insertLogSQL),
		deleteSQL: db.Rebind(driver, deleteLogsBeforeSQL),
	}
}

const (
	insertLogSQL = `
		INSERT INTO logs (id, ts, level, message, service, tag, metadata, source_metadata, raw, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	deleteLogsBeforeSQL = `DELETE FROM logs WHERE ts < ?`
)

// Store inserts the record under a freshly generated id and returns it.
func (r *LogSQL) Store(ctx context.Context, rec models.LogRecord) (string, error) {
	id := uuid.NewString()

	metadata, err := marshalColumn(rec.Metadata)
	if err != nil {
		return "", &apperrors.PersistenceError{Op: "encode metadata", Cause: err}
	}
	source, err := marshalColumn(rec.SourceMetadata)
	if err != nil {
		return "", &apperrors.PersistenceError{Op: "encode kafka metadata", Cause: err}
	}
	var raw *string
	if rec.Raw != nil {
		s, err := marshalColumn(rec.Raw)
		if err != nil {
			return "", &apperrors.PersistenceError{Op: "encode raw payload", Cause: err}
		}
		raw = &s
	}

	receivedAt := rec.SourceMetadata.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, r.insertSQL,
		id,
		rec.Timestamp.UTC(),
		string(rec.Level),
		rec.Message,
		rec.Service,
		rec.Tag,
		metadata,
		source,
		raw,
		receivedAt.UTC(),
	)
	if err != nil {
		return "", &apperrors.PersistenceError{Op: "insert log", Cause: err}
	}
	return id, nil
}

// DeleteBefore removes records whose timestamp is older than cutoff.
func (r *LogSQL) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.deleteSQL, cutoff.UTC())
	if err != nil {
		return 0, &apperrors.PersistenceError{Op: "delete logs", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &apperrors.PersistenceError{Op: "delete logs rows affected", Cause: err}
	}
	return n, nil
}

func marshalColumn(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

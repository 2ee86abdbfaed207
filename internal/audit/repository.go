package audit

import (
	"context"
	"database/sql"
	"errors"
)

const insertEntry = `
INSERT INTO audit_log (
	id, actor, action, resource_type, resource_id,
	metadata, payload_digest, ip, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Repository persists audit entries in Postgres. The audit_log table is
// append-only; there is no read path in the service.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

// Log appends one entry, assigning id, timestamp and payload digest when
// the caller left them blank.
func (r *Repository) Log(ctx context.Context, entry Entry) error {
	if r == nil || r.db == nil {
		return errors.New("audit repository: nil db")
	}
	entry.normalize()

	_, err := r.db.ExecContext(ctx, insertEntry,
		entry.ID, entry.Actor, entry.Action, entry.ResourceType, entry.ResourceID,
		entry.Metadata, entry.PayloadDigest, entry.IP, entry.UserAgent, entry.CreatedAt)
	return err
}

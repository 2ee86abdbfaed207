package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded security-relevant action: who did what to which
// resource, from where. Metadata carries optional structured details and
// PayloadDigest pins their content.
type Entry struct {
	ID            string
	Actor         string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger records audit entries. Implementations must be safe for
// concurrent use.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// normalize fills the fields callers usually leave blank.
func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = "audit-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.PayloadDigest == "" && len(e.Metadata) > 0 {
		sum := sha256.Sum256(e.Metadata)
		e.PayloadDigest = hex.EncodeToString(sum[:])
	}
}

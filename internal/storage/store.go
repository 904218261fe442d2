package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/echome-smart/focus-device/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store is the session history interface. The core treats it as an
// external collaborator: every call is best-effort and a failure
// never interrupts a running session.
type Store interface {
	CreateSession(ctx context.Context, record *models.SessionRecord) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.SessionRecord, error)
	ListSessions(ctx context.Context, limit, offset int) ([]*models.SessionRecord, int64, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	Close() error
}

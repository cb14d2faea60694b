// Package persistence defines the storage boundaries of the engine: the
// flow repository holding flow definitions and the session store holding
// suspended test sessions.
package persistence

import (
	"context"
	"time"

	"github.com/botfluent/botfluent/pkg/models"
)

// FlowRepository stores flow definitions.
type FlowRepository interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	FlowByID(ctx context.Context, id string) (*models.Flow, error)
	SaveFlow(ctx context.Context, flow *models.Flow) error
	DeleteFlow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// SessionRecord is the persisted snapshot of a test session between
// suspend and resume. Status, Awaiting and Variables mirror the
// interpreter's session state verbatim.
type SessionRecord struct {
	ID           string         `json:"id"`
	FlowID       string         `json:"flowId"`
	Status       string         `json:"status"`
	ActiveNodeID string         `json:"activeNodeId,omitempty"`
	Awaiting     string         `json:"awaiting,omitempty"`
	EndReason    string         `json:"endReason,omitempty"`
	LastInput    string         `json:"lastInput,omitempty"`
	Variables    map[string]any `json:"variables"`
	StartedAt    time.Time      `json:"startedAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// SessionStore persists suspended sessions. ExpireIdle removes sessions
// that have not been touched within the given duration and reports how
// many were dropped; stores with native TTL expiry may return zero.
type SessionStore interface {
	SaveSession(ctx context.Context, record *SessionRecord) error
	SessionByID(ctx context.Context, id string) (*SessionRecord, error)
	DeleteSession(ctx context.Context, id string) error
	ExpireIdle(ctx context.Context, idleFor time.Duration) (int, error)
	Close(ctx context.Context) error
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/classify/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for planning runs and the
// instructor profile cache.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, req model.PlanRequest) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.PlanResult) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Profile cache. A miss returns nil, nil.
	GetCachedProfile(ctx context.Context, key string) (*model.ProfessorProfile, error)
	SetCachedProfile(ctx context.Context, key string, profile *model.ProfessorProfile, ttl time.Duration) error
	DeleteExpiredProfiles(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

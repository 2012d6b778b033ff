package orchestrator

import (
	"context"
	"sync"
	"time"
)

// Status is a task's lifecycle state, reported at the pipeline's
// job-status/health surface.
type Status string

const (
	StatusPending      Status = "pending"
	StatusSeparating   Status = "separating"
	StatusTranscribing Status = "transcribing"
	StatusSegmenting   Status = "segmenting"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Task is one translation job's externally visible status row, read and
// written by the orchestrator as a job progresses.
type Task struct {
	ID              string
	TranscriptionID string
	Status          Status
	ErrorReason     string
	TotalSegments   int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskStore persists Task rows. MemTaskStore is the only implementation
// shipped in this repo; a deployment may back it with pkg/store instead.
type TaskStore interface {
	Create(ctx context.Context, task Task) error
	Update(ctx context.Context, task Task) error
	Get(ctx context.Context, id string) (Task, bool, error)
}

// MemTaskStore is a goroutine-safe in-memory TaskStore.
type MemTaskStore struct {
	mu    sync.Mutex
	tasks map[string]Task
}

// NewMemTaskStore returns an empty MemTaskStore.
func NewMemTaskStore() *MemTaskStore {
	return &MemTaskStore{tasks: make(map[string]Task)}
}

var _ TaskStore = (*MemTaskStore)(nil)

func (m *MemTaskStore) Create(ctx context.Context, task Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *MemTaskStore) Update(ctx context.Context, task Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *MemTaskStore) Get(ctx context.Context, id string) (Task, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok, nil
}

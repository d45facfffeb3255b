// Package outbox records secondary updates that failed after a primary write
// succeeded, so that they can be retried by the reconciler.
//
// Every task kind is safe to apply more than once.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindDistributionLink      Kind = "distribution.link"
	KindDistributionUnlink    Kind = "distribution.unlink"
	KindDistributionRecompute Kind = "distribution.recompute"
	KindUserYearPush          Kind = "user.year.push"
	KindUserYearPull          Kind = "user.year.pull"
)

type Task struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	CourseID       string    `json:"course_id"`
	DistributionID string    `json:"distribution_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	Year           string    `json:"year,omitempty"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store is a durable worklist. Pending returns tasks oldest first.
type Store interface {
	Enqueue(ctx context.Context, t *Task) error
	Pending(ctx context.Context, limit int) ([]Task, error)
	Ack(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, cause error) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// prepare stamps a new task. Version 7 ids sort by creation time, which
// gives byte-ordered stores FIFO iteration for free.
func prepare(t *Task, now time.Time) error {
	if t.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.ID = id.String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return nil
}

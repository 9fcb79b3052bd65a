package scheduler

import (
	"context"
	"time"
)

// NewSyncTask builds the recurring sync pass task. The pass runs once
// at startup and then on the given schedule.
func NewSyncTask(schedule Schedule, timeout time.Duration, run TaskFunc) *Task {
	return &Task{
		ID:          "sync",
		Name:        "Sync Pass",
		Description: "Resolve sources and reconcile all targets",
		Schedule:    schedule,
		Enabled:     true,
		RunOnStart:  true,
		Timeout:     timeout,
		Func:        run,
	}
}

// NewJournalPruneTask builds the nightly journal retention task.
func NewJournalPruneTask(prune func(ctx context.Context) (int64, error)) *Task {
	return &Task{
		ID:          "journal-prune",
		Name:        "Journal Prune",
		Description: "Delete journal entries past retention",
		Schedule:    MustCron("17 3 * * *"),
		Enabled:     true,
		Timeout:     time.Minute,
		Func: func(ctx context.Context) error {
			_, err := prune(ctx)
			return err
		},
	}
}

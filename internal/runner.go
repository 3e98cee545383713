package internal

import (
	"context"
	"sync"

	"github.com/starford/notesync/internal/models"
	"github.com/starford/notesync/internal/pipeline"
)

// syncRunner serializes sync runs triggered by the watcher and the status
// server and remembers the last summary.
type syncRunner struct {
	syncer *pipeline.Syncer

	runMu sync.Mutex

	mu   sync.RWMutex
	last *models.Summary
}

func newSyncRunner(s *pipeline.Syncer) *syncRunner {
	return &syncRunner{syncer: s}
}

// Sync runs one full rebuild, waiting for any run already in progress.
func (r *syncRunner) Sync(ctx context.Context) (models.Summary, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	sum, err := r.syncer.Run(ctx)
	if err == nil {
		r.mu.Lock()
		r.last = &sum
		r.mu.Unlock()
	}
	return sum, err
}

// Last returns the summary of the last successful run.
func (r *syncRunner) Last() (models.Summary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return models.Summary{}, false
	}
	return *r.last, true
}

package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// runLocker is the remote half of the run guard, held in Redis so replicas
// sharing one target database cannot sync concurrently.
type runLocker interface {
	AcquireLock(ctx context.Context, runID string) (bool, error)
	ReleaseLock(ctx context.Context, runID string) error
}

// RunGuard serializes sync runs. A local mutex covers this process; the
// optional remote lock covers other replicas.
type RunGuard struct {
	mu     sync.Mutex
	remote runLocker
	logger *zap.Logger

	// heldRunID is the run id the remote lock was taken under, empty when
	// the remote lock is not held. Release passes it back so only our own
	// lock entry is deleted.
	heldRunID string
}

// NewRunGuard constructs a run guard. remote may be nil, in which case only
// the local mutex applies.
func NewRunGuard(remote runLocker, logger *zap.Logger) *RunGuard {
	return &RunGuard{remote: remote, logger: logger}
}

// Acquire takes the guard for the given run id. It returns false when
// another run is already in flight. A remote lock error is logged and the
// run proceeds on the local lock alone, so a Redis outage cannot halt
// syncing.
func (g *RunGuard) Acquire(ctx context.Context, runID string) bool {
	if !g.mu.TryLock() {
		return false
	}
	g.heldRunID = ""

	if g.remote == nil {
		return true
	}

	ok, err := g.remote.AcquireLock(ctx, runID)
	if err != nil {
		g.logger.Warn("run lock unavailable, proceeding with local lock only", zap.Error(err))
		return true
	}
	if !ok {
		g.mu.Unlock()
		return false
	}

	g.heldRunID = runID
	return true
}

// Release frees the guard after a run. Callers should pass a context that
// survives run cancellation so the remote lock is not leaked until its TTL.
func (g *RunGuard) Release(ctx context.Context) {
	if g.heldRunID != "" && g.remote != nil {
		if err := g.remote.ReleaseLock(ctx, g.heldRunID); err != nil {
			g.logger.Warn("run lock release failed", zap.Error(err))
		}
		g.heldRunID = ""
	}
	g.mu.Unlock()
}

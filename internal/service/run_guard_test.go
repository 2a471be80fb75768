package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLocker struct {
	acquireOK  bool
	acquireErr error
	acquired   int
	released   int
	releasedID string
}

func (s *stubLocker) AcquireLock(ctx context.Context, runID string) (bool, error) {
	s.acquired++
	return s.acquireOK, s.acquireErr
}

func (s *stubLocker) ReleaseLock(ctx context.Context, runID string) error {
	s.released++
	s.releasedID = runID
	return nil
}

func TestRunGuard_LocalContention(t *testing.T) {
	guard := NewRunGuard(nil, zap.NewNop())
	ctx := context.Background()

	require.True(t, guard.Acquire(ctx, "run-1"))
	assert.False(t, guard.Acquire(ctx, "run-2"), "second acquire must fail while the first holds")

	guard.Release(ctx)
	assert.True(t, guard.Acquire(ctx, "run-3"))
	guard.Release(ctx)
}

func TestRunGuard_RemoteDeniedReleasesLocalLock(t *testing.T) {
	locker := &stubLocker{acquireOK: false}
	guard := NewRunGuard(locker, zap.NewNop())
	ctx := context.Background()

	assert.False(t, guard.Acquire(ctx, "run-1"))
	assert.Equal(t, 1, locker.acquired)

	locker.acquireOK = true
	assert.True(t, guard.Acquire(ctx, "run-2"), "local lock must be free after a remote denial")
	guard.Release(ctx)
}

func TestRunGuard_RemoteErrorFailsOpen(t *testing.T) {
	locker := &stubLocker{acquireErr: errors.New("redis down")}
	guard := NewRunGuard(locker, zap.NewNop())
	ctx := context.Background()

	require.True(t, guard.Acquire(ctx, "run-1"), "a remote lock outage must not block syncing")

	guard.Release(ctx)
	assert.Zero(t, locker.released, "a lock that was never taken must not be released")
}

func TestRunGuard_ReleasesRemoteWhenHeld(t *testing.T) {
	locker := &stubLocker{acquireOK: true}
	guard := NewRunGuard(locker, zap.NewNop())
	ctx := context.Background()

	require.True(t, guard.Acquire(ctx, "run-1"))
	guard.Release(ctx)

	assert.Equal(t, 1, locker.released)
	assert.Equal(t, "run-1", locker.releasedID, "release must name the run that took the lock")
}

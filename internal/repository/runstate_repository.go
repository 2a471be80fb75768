package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vinceyvincey/google-calendar-sync/internal/models"
	appErrors "github.com/vinceyvincey/google-calendar-sync/pkg/errors"
)

const (
	runLockKey = "calendar-sync:run-lock"
	lastRunKey = "calendar-sync:last-run"
)

// RunStateRepository keeps the distributed run lock and the last completed
// run record in Redis. A nil client disables persistence: lock acquisition
// reports success and run records are dropped.
type RunStateRepository struct {
	client  *redis.Client
	lockTTL time.Duration
}

// NewRunStateRepository constructs a run state repository. lockTTL bounds
// how long a crashed run can hold the lock.
func NewRunStateRepository(client *redis.Client, lockTTL time.Duration) *RunStateRepository {
	return &RunStateRepository{client: client, lockTTL: lockTTL}
}

// AcquireLock attempts to take the run lock for the given run id. It returns
// false when another run currently holds the lock.
func (r *RunStateRepository) AcquireLock(ctx context.Context, runID string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	ok, err := r.client.SetNX(ctx, runLockKey, runID, r.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", runLockKey, err)
	}
	return ok, nil
}

// The stored value is compared before deletion so a run that outlived the
// lock TTL cannot drop a newer run's lock.
var releaseLockScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// ReleaseLock drops the run lock if runID still holds it.
func (r *RunStateRepository) ReleaseLock(ctx context.Context, runID string) error {
	if r.client == nil {
		return nil
	}

	if err := releaseLockScript.Run(ctx, r.client, []string{runLockKey}, runID).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", runLockKey, err)
	}
	return nil
}

// SaveRun stores the record of the last completed run. The record has no
// TTL; each run overwrites the previous one.
func (r *RunStateRepository) SaveRun(ctx context.Context, record models.RunRecord) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	if err := r.client.Set(ctx, lastRunKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", lastRunKey, err)
	}
	return nil
}

// LastRun returns the most recent run record, or ErrNotFound when no run
// has completed yet.
func (r *RunStateRepository) LastRun(ctx context.Context) (*models.RunRecord, error) {
	if r.client == nil {
		return nil, appErrors.ErrNotFound
	}

	raw, err := r.client.Get(ctx, lastRunKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", lastRunKey, err)
	}

	var record models.RunRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal run record: %w", err)
	}
	return &record, nil
}

// Close releases the underlying Redis connection if present.
func (r *RunStateRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

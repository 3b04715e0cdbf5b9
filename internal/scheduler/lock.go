// internal/scheduler/lock.go
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// jobLock is a best-effort Redis mutex keyed by job name. It prevents two
// concurrent runs of the same job (scheduled vs. admin-triggered); upserts are
// idempotent so a lost lock is wasteful, not corrupting.
type jobLock struct {
	client *redis.Client
	ttl    time.Duration
	token  string
}

func newJobLock(client *redis.Client, ttl time.Duration) *jobLock {
	return &jobLock{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

func (l *jobLock) key(job string) string {
	return "lock:statistics:" + job
}

// Acquire takes the lock for job; returns false when another holder owns it.
func (l *jobLock) Acquire(ctx context.Context, job string) (bool, error) {
	return l.client.SetNX(ctx, l.key(job), l.token, l.ttl).Result()
}

// Release drops the lock only if this process still holds it.
func (l *jobLock) Release(ctx context.Context, job string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	l.client.Eval(ctx, script, []string{l.key(job)}, l.token)
}

// Package lock serialises work on a key (a verifier transaction, a signing
// state, an application) across concurrent pollers and replayed callbacks.
package lock

import (
	"context"
	"hash/fnv"
	"time"

	dErrors "onboard/pkg/domain-errors"
)

// Locker runs fn while holding the lock for key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

const numShards = 128

// defaultTimeout bounds lock acquisition plus fn when ctx has no deadline.
const defaultTimeout = 5 * time.Second

// Sharded is an in-process Locker. Keys hash onto a fixed set of shards, so
// unrelated keys may occasionally share one.
type Sharded struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
}

func NewSharded() *Sharded {
	s := &Sharded{timeout: defaultTimeout}
	for i := range s.shards {
		s.shards[i] = make(chan struct{}, 1)
	}
	return s
}

func (s *Sharded) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := s.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for lock")
	}
	defer func() { <-shard }()

	return fn(ctx)
}

func hashKey(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

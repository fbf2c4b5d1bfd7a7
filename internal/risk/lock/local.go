// Package lock serializes remediation runs per record. Local guards a single
// process; Redis and Postgres guard a fleet sharing the same stores.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
	psync "custodia/pkg/platform/sync"
)

// Local is an in-process per-record lock.
type Local struct {
	shards *psync.ShardedLock
}

func NewLocal() *Local {
	return &Local{shards: psync.NewShardedLock()}
}

// Acquire blocks until the record is free or ctx is done.
func (l *Local) Acquire(ctx context.Context, recordID id.RecordID) (func(), error) {
	key := recordID.String()
	if err := l.shards.Lock(ctx, key); err != nil {
		return nil, waitError(recordID, err)
	}
	var once sync.Once
	return func() { once.Do(func() { l.shards.Unlock(key) }) }, nil
}

func waitError(recordID id.RecordID, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("lock record %s: %w", recordID, sentinel.ErrTimeout)
	}
	return fmt.Errorf("lock record %s: %w", recordID, err)
}

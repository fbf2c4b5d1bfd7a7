// Package sync provides keyed locking primitives.
package sync

import "context"

const shardCount = 32

// ShardedLock serializes work per key across a fixed set of shards. Keys
// that hash to the same shard share a slot, so holders must not nest locks.
// Lock honours context cancellation, which a sync.Mutex cannot.
type ShardedLock struct {
	shards [shardCount]chan struct{}
}

func NewShardedLock() *ShardedLock {
	l := &ShardedLock{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

// Lock blocks until the key's shard is free or ctx is done.
func (l *ShardedLock) Lock(ctx context.Context, key string) error {
	select {
	case l.shards[shardFor(key)] <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryLock acquires the key's shard only if it is free.
func (l *ShardedLock) TryLock(key string) bool {
	select {
	case l.shards[shardFor(key)] <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock releases the key's shard. Unlocking a free shard panics.
func (l *ShardedLock) Unlock(key string) {
	select {
	case <-l.shards[shardFor(key)]:
	default:
		panic("sync: unlock of unlocked shard")
	}
}

// shardFor maps a key to its shard. Empty keys use shard 0.
func shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % shardCount)
}

// hashString is a djb2-style hash.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

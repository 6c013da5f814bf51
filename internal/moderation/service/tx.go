package service

import (
	"context"
	"sync"
	"time"

	id "modgate/pkg/domain"
	dErrors "modgate/pkg/domain-errors"
)

// shardedTx serializes transitions per resource using sharded mutexes.
// Instead of a single global lock, operations are distributed across N shards
// based on a hash of the resource ID, so unrelated resources transition fully
// in parallel while two transitions on the same resource never interleave.
const numTxShards = 128

// defaultTxTimeout bounds how long a transition may hold its shard.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func newShardedTx() *shardedTx {
	return &shardedTx{}
}

func (t *shardedTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// selectShard picks a shard from the resource ID in context, or shard 0 when
// the context carries none.
func (t *shardedTx) selectShard(ctx context.Context) int {
	if resourceID, ok := ctx.Value(txResourceKeyCtx).(id.ResourceID); ok && !resourceID.IsNil() {
		return int(hashID(resourceID.String()) % numTxShards)
	}
	return 0
}

// hashID uses FNV-1a for even shard distribution.
func hashID(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

type txResourceKey struct{}

var txResourceKeyCtx = txResourceKey{}

// withTxResource tags the context with the resource a transaction is about,
// so the sharded tx can pick the right lock.
func withTxResource(ctx context.Context, resourceID id.ResourceID) context.Context {
	return context.WithValue(ctx, txResourceKeyCtx, resourceID)
}

// Package sharded provides lock-striped concurrent collections keyed by path.
package sharded

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// numShards must be a power of 2 for the bitwise AND optimization to work.
const numShards = 64

// getShardIndex calculates the shard index for a given key using xxHash.
func getShardIndex(key string) int {
	return int(xxhash.Sum64String(key) & uint64(numShards-1))
}

type mapShard struct {
	mu    sync.RWMutex
	items map[string]any
}

// ShardedMap is a concurrent map keyed by string, striped across shards so
// that many workers can record results without contending on a single lock.
type ShardedMap []*mapShard

// NewShardedMap creates an empty ShardedMap.
func NewShardedMap() *ShardedMap {
	m := make(ShardedMap, numShards)
	for i := range numShards {
		m[i] = &mapShard{items: make(map[string]any)}
	}
	return &m
}

func (m *ShardedMap) getShard(key string) *mapShard {
	return (*m)[getShardIndex(key)]
}

// Store adds a key-value pair to the map.
func (m *ShardedMap) Store(key string, value any) {
	shard := m.getShard(key)
	shard.mu.Lock()
	shard.items[key] = value
	shard.mu.Unlock()
}

// Load retrieves the value for a key.
func (m *ShardedMap) Load(key string) (any, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	v, ok := shard.items[key]
	shard.mu.RUnlock()
	return v, ok
}

// Delete removes a key from the map.
func (m *ShardedMap) Delete(key string) {
	shard := m.getShard(key)
	shard.mu.Lock()
	delete(shard.items, key)
	shard.mu.Unlock()
}

// Count returns the total number of entries across all shards.
func (m *ShardedMap) Count() int {
	count := 0
	for i := range numShards {
		shard := (*m)[i]
		shard.mu.RLock()
		count += len(shard.items)
		shard.mu.RUnlock()
	}
	return count
}

// Items returns a snapshot copy of the whole map.
func (m *ShardedMap) Items() map[string]any {
	out := make(map[string]any, m.Count())
	for i := range numShards {
		shard := (*m)[i]
		shard.mu.RLock()
		for k, v := range shard.items {
			out[k] = v
		}
		shard.mu.RUnlock()
	}
	return out
}

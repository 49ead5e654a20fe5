// Package dedup tracks, per client, which message ids a stateful stage
// has already applied — the mechanism that turns at-least-once bus
// delivery into exactly-once processing effect. Each client's set is
// capped at a fixed size with LRU eviction so a long-running client
// can't grow a stage's memory without bound (see SPEC_FULL.md §2
// Aggregators / dedup bound; grounded on the teacher's
// internal/dedup adaptive-cache shape, simplified to a fixed-size LRU).
package dedup

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// MaxEntriesPerClient bounds how many processed message ids a single
// client's dedup set retains before the oldest is evicted.
const MaxEntriesPerClient = 500

// Registry holds one bounded dedup set per client.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*lru.Cache[string, struct{}]
	logger  *zap.Logger
}

// NewRegistry builds an empty per-client dedup registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{clients: make(map[string]*lru.Cache[string, struct{}]), logger: logger}
}

// Seen reports whether messageID has already been recorded for
// clientID, recording it if not. The first call for any (client,
// message) pair returns false; every subsequent call returns true until
// the entry is evicted or the client is forgotten.
func (r *Registry) Seen(clientID, messageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cache, ok := r.clients[clientID]
	if !ok {
		cache, _ = lru.New[string, struct{}](MaxEntriesPerClient)
		r.clients[clientID] = cache
	}
	if _, ok := cache.Get(messageID); ok {
		return true
	}
	cache.Add(messageID, struct{}{})
	return false
}

// Forget drops clientID's entire dedup set, freeing its memory once the
// client's EOF ring has closed or it disconnected.
func (r *Registry) Forget(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	r.logger.Debug("dedup_forget_client", zap.String("client_id", clientID))
}

// Snapshot returns every message id currently tracked for clientID, for
// persisting alongside a stage's own state on crash-safe storage.
func (r *Registry) Snapshot(clientID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cache, ok := r.clients[clientID]
	if !ok {
		return nil
	}
	return cache.Keys()
}

// Restore repopulates clientID's dedup set from a prior Snapshot, used
// when a stage recovers state from storage after a restart.
func (r *Registry) Restore(clientID string, messageIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cache, ok := r.clients[clientID]
	if !ok {
		cache, _ = lru.New[string, struct{}](MaxEntriesPerClient)
		r.clients[clientID] = cache
	}
	for _, id := range messageIDs {
		cache.Add(id, struct{}{})
	}
}

// Package router implements the stateless sharding stage that fans a
// batch of records out to one of N downstream partitions by a hash of
// the record's key, and propagates the EOF ring token to every shard of
// the cluster it owns (controllers/router/src/router.py).
package router

import (
	"strconv"

	"github.com/distribudata/movie-pipeline/internal/codec"
	"github.com/distribudata/movie-pipeline/internal/ids"
)

// HashShard returns the 1-indexed destination shard for key among
// destNodesAmount shards, matching router.py's __hash_id:
// (id % dest_nodes_amount) + 1.
func HashShard(key int64, destNodesAmount int) int {
	if destNodesAmount <= 0 {
		return 1
	}
	mod := key % int64(destNodesAmount)
	if mod < 0 {
		mod += int64(destNodesAmount)
	}
	return int(mod) + 1
}

// Router shards one kind of record across a downstream cluster. Router
// itself holds no per-client state; it derives everything it needs from
// the record and the EOF token in front of it.
type Router struct {
	ShardID         int
	ClusterSize     int
	DestNodesAmount int
}

// RouteKey picks the destination shard for key and a deterministic
// per-destination message id derived from parentMessageID, so
// redelivering the same batch always reproduces the same routed id.
func (r Router) RouteKey(parentMessageID string, key int64) (shard int, childMessageID string, err error) {
	shard = HashShard(key, r.DestNodesAmount)
	childMessageID, err = ids.Derive(parentMessageID, routingSlot(shard))
	return shard, childMessageID, err
}

func routingSlot(shard int) string {
	return strconv.Itoa(shard)
}

// ForwardEOF records this shard's id on the ring token. When every shard
// of this cluster has been seen, it returns one onward token per
// destination shard (broadcast EOFs fanned out to the next cluster),
// each with its own deterministically derived message id. When the ring
// is not yet closed, it reports that the token, now carrying this
// shard's id, should simply be requeued for the next shard in the ring
// to see.
func (r Router) ForwardEOF(eof codec.EOF) (ring codec.EOF, complete bool, broadcasts []codec.EOF, err error) {
	ring = eof.WithSeenID(r.ShardID)
	if !ring.SeenAll(r.ClusterSize) {
		return ring, false, nil, nil
	}
	broadcasts = make([]codec.EOF, 0, r.DestNodesAmount)
	for shard := 1; shard <= r.DestNodesAmount; shard++ {
		childID, derr := ids.Derive(ring.MessageID, routingSlot(shard))
		if derr != nil {
			return ring, true, nil, derr
		}
		broadcasts = append(broadcasts, codec.NewEOF(childID, ring.ClientID))
	}
	return ring, true, broadcasts, nil
}

// NextRingShard returns the next shard id a token should be reenqueued
// to when the ring is not yet closed: router.py's
// __next_id = (id % cluster_size) + 1.
func (r Router) NextRingShard() int {
	return (r.ShardID % r.ClusterSize) + 1
}

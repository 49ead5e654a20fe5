package codec

import (
	"sort"
	"strconv"
)

// EOF is the ring token that circulates through a stage cluster's queue
// until every shard has observed it. SeenIDs accumulates the shard
// indices that have forwarded the token so far; the ring is closed
// (and the cluster emits exactly one onward EOF) once len(SeenIDs)
// equals the cluster's shard count (common/monitorable.py, and its use
// in router.py / movies_joiner.py).
type EOF struct {
	Base
	SeenIDs map[int]struct{}
}

func (EOF) PacketType() PacketType { return PacketEOF }

// NewEOF starts a fresh ring token for a client, seen by no shard yet.
func NewEOF(messageID, clientID string) EOF {
	return EOF{Base: Base{MessageID: messageID, ClientID: clientID}, SeenIDs: map[int]struct{}{}}
}

// WithSeenID returns a copy of e with shardID added to the seen set —
// EOF handling never mutates a token shared with the queue's message
// channel buffer.
func (e EOF) WithSeenID(shardID int) EOF {
	next := make(map[int]struct{}, len(e.SeenIDs)+1)
	for id := range e.SeenIDs {
		next[id] = struct{}{}
	}
	next[shardID] = struct{}{}
	return EOF{Base: e.Base, SeenIDs: next}
}

// SeenAll reports whether every shard in [1, clusterSize] has been
// recorded on the token.
func (e EOF) SeenAll(clusterSize int) bool {
	if len(e.SeenIDs) < clusterSize {
		return false
	}
	for i := 1; i <= clusterSize; i++ {
		if _, ok := e.SeenIDs[i]; !ok {
			return false
		}
	}
	return true
}

func (e EOF) encode() []byte {
	out := encodeTag(PacketEOF)
	out = append(out, e.Base.encode()...)
	ids := make([]int, 0, len(e.SeenIDs))
	for id := range e.SeenIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}
	return append(out, encodeStringsIterable(strs)...)
}

func decodeEOFBody(payload []byte, offset int) (EOF, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return EOF{}, err
	}
	strs, _, err := decodeStringsList(offset, payload)
	if err != nil {
		return EOF{}, err
	}
	seen := make(map[int]struct{}, len(strs))
	for _, s := range strs {
		id, err := strconv.Atoi(s)
		if err != nil {
			return EOF{}, err
		}
		seen[id] = struct{}{}
	}
	return EOF{Base: base, SeenIDs: seen}, nil
}

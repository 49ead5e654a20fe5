// Package ids mints and derives the UUIDs that flow through every record
// in the pipeline: a fresh random id per client session or per
// originally-produced batch, and deterministic "child" ids derived from
// a parent id plus a slot key so that re-processing the same parent
// always reproduces the same children (the mechanism that makes the
// whole pipeline idempotent under at-least-once redelivery; see
// SPEC_FULL.md §2 "Record Codec" and spec.md §3 "Invariants").
package ids

import (
	"github.com/google/uuid"
)

// New mints a fresh random id, used for client_id at session start and
// for message_id on batches a stage originates rather than derives.
func New() string {
	return uuid.NewString()
}

// Derive computes uuid5(parent, slot): the canonical way to fan out a
// single parent message into many deterministic children (per-country,
// per-actor, per-destination-shard, per-sentiment, ...). Reimplements
// RFC 4122 §4.3 via google/uuid's NewSHA1, matching uuid.uuid5 in the
// reference Python implementation byte for byte.
func Derive(parentMessageID string, slot string) (string, error) {
	parent, err := uuid.Parse(parentMessageID)
	if err != nil {
		return "", err
	}
	child := uuid.NewSHA1(parent, []byte(slot))
	return child.String(), nil
}

// MustDerive panics on a malformed parent id. Stages call this only after
// the parent id has already round-tripped through the wire codec, where a
// malformed UUID would itself be a protocol violation worth crashing on.
func MustDerive(parentMessageID string, slot string) string {
	child, err := Derive(parentMessageID, slot)
	if err != nil {
		panic("ids: malformed parent message id: " + err.Error())
	}
	return child
}

package joiner

import (
	"github.com/distribudata/movie-pipeline/internal/storageadapter"
)

func init() {
	storageadapter.RegisterType(MovieIndex{})
}

// Snapshot returns idx in a form StorageAdapter.Update can persist
// (movies[client_id] in spec.md §4.4.3, reloaded by Restore after a
// crash).
func (idx MovieIndex) Snapshot() any {
	return idx
}

// Restore rebuilds a MovieIndex from a snapshot previously returned by
// Snapshot, or an empty index if none was persisted yet.
func Restore(state any) MovieIndex {
	idx, ok := state.(MovieIndex)
	if !ok || idx == nil {
		return NewMovieIndex()
	}
	return idx
}

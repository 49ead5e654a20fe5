// Package joiner implements the two-phase stream join used by the
// credits and ratings joiners: drain every Movie from the movies input
// first, building an in-memory id→title index, then switch to the
// second input stream and attach a title to each credit or rating that
// references a known movie id (controllers/movies_credits_joiner and
// controllers/movies_ratings_joiner). A to-join item whose movie id
// isn't indexed yet, and whose client hasn't yet received every movie,
// must not be dropped: the whole batch is re-enqueued and the client's
// EOF deferred until the movie arrives (__join_batch in
// original_source/controllers/movies_joiner/src/movies_joiner.py).
package joiner

import (
	"github.com/distribudata/movie-pipeline/internal/codec"
)

// MovieIndex is the per-client id→title map built from the first input
// phase. It is intentionally a plain map, not a concurrent structure:
// each joiner shard owns one index per client and touches it only from
// its single consume loop. Movies and to-join items are consumed
// interleaved; an item whose movie is not indexed yet is deferred, not
// joined.
type MovieIndex map[int64]string

// NewMovieIndex returns an empty index ready to absorb MoviesBatch
// records.
func NewMovieIndex() MovieIndex {
	return make(MovieIndex)
}

// Empty reports whether no movie has been absorbed for this client yet
// — the movies_joiner.py "not self.movies_titles[client_id]" check that
// forces every to-join batch to wait for the movies stream to start
// filling in.
func (idx MovieIndex) Empty() bool {
	return len(idx) == 0
}

// Absorb records every movie's id→title pair from batch into the index.
func (idx MovieIndex) Absorb(batch codec.MoviesBatch) {
	for _, m := range batch.Movies {
		if !m.HasID || !m.HasTitle {
			continue
		}
		idx[m.ID] = m.Title
	}
}

// JoinCredits attaches the indexed title to every credit in batch,
// stopping short and returning shouldDefer=true the moment a credit's
// movie id isn't indexed yet and allMoviesReceived is false — the
// caller must re-enqueue the whole batch and defer the client's EOF
// rather than publish a partial join. Once allMoviesReceived is true a
// miss can only mean the movie never existed, so it is dropped.
func (idx MovieIndex) JoinCredits(batch codec.CreditsBatch, allMoviesReceived bool) (out codec.MovieCreditsBatch, shouldDefer bool) {
	out = codec.MovieCreditsBatch{Base: batch.Base}
	for _, c := range batch.Credits {
		title, ok := idx[c.MovieID]
		if !ok {
			if !allMoviesReceived {
				return codec.MovieCreditsBatch{}, true
			}
			continue
		}
		out.MovieCredits = append(out.MovieCredits, codec.MovieCredit{
			MovieID: c.MovieID,
			Title:   title,
			Cast:    c.Cast,
		})
	}
	return out, false
}

// JoinRatings attaches the indexed title to every rating in batch,
// with the same defer-on-miss behavior as JoinCredits.
func (idx MovieIndex) JoinRatings(batch codec.RatingsBatch, allMoviesReceived bool) (out codec.MovieRatingsBatch, shouldDefer bool) {
	out = codec.MovieRatingsBatch{Base: batch.Base}
	for _, r := range batch.Ratings {
		title, ok := idx[r.MovieID]
		if !ok {
			if !allMoviesReceived {
				return codec.MovieRatingsBatch{}, true
			}
			continue
		}
		out.MovieRatings = append(out.MovieRatings, codec.MovieRating{
			MovieID: r.MovieID,
			Title:   title,
			Rating:  r.Rating,
		})
	}
	return out, false
}

// Phase identifies which half of the two-phase join a shard is
// currently in.
type Phase int

const (
	// PhaseIndexing is draining the movies input and building the
	// index; a matching EOF there switches the shard to PhaseJoining.
	PhaseIndexing Phase = iota
	// PhaseJoining is draining the second input (credits or ratings)
	// and emitting joined records.
	PhaseJoining
)

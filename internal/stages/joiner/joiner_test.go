package joiner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/distribudata/movie-pipeline/internal/codec"
)

func TestMovieIndexJoinCredits(t *testing.T) {
	idx := NewMovieIndex()
	idx.Absorb(codec.MoviesBatch{Movies: []codec.Movie{
		{ID: 1, Title: "Alpha", HasID: true, HasTitle: true},
		{ID: 2, Title: "Beta", HasID: true, HasTitle: true},
	}})

	batch := codec.CreditsBatch{
		Base: codec.Base{MessageID: "m1", ClientID: "c1"},
		Credits: []codec.Credit{
			{MovieID: 1, Cast: []string{"Actor A"}},
		},
	}

	out, shouldDefer := idx.JoinCredits(batch, false)
	require.False(t, shouldDefer)
	require.Len(t, out.MovieCredits, 1)
	require.Equal(t, "Alpha", out.MovieCredits[0].Title)
	require.Equal(t, []string{"Actor A"}, out.MovieCredits[0].Cast)
}

func TestMovieIndexJoinCreditsDefersOnMissBeforeAllMoviesReceived(t *testing.T) {
	idx := NewMovieIndex()
	idx.Absorb(codec.MoviesBatch{Movies: []codec.Movie{
		{ID: 1, Title: "Alpha", HasID: true, HasTitle: true},
	}})

	batch := codec.CreditsBatch{
		Base: codec.Base{MessageID: "m1", ClientID: "c1"},
		Credits: []codec.Credit{
			{MovieID: 1, Cast: []string{"Actor A"}},
			{MovieID: 99, Cast: []string{"Actor Z"}},
		},
	}

	out, shouldDefer := idx.JoinCredits(batch, false)
	require.True(t, shouldDefer)
	require.Empty(t, out.MovieCredits)
}

func TestMovieIndexJoinCreditsDropsUnmatchedOnceAllMoviesReceived(t *testing.T) {
	idx := NewMovieIndex()
	idx.Absorb(codec.MoviesBatch{Movies: []codec.Movie{
		{ID: 1, Title: "Alpha", HasID: true, HasTitle: true},
	}})

	batch := codec.CreditsBatch{
		Base: codec.Base{MessageID: "m1", ClientID: "c1"},
		Credits: []codec.Credit{
			{MovieID: 1, Cast: []string{"Actor A"}},
			{MovieID: 99, Cast: []string{"Actor Z"}},
		},
	}

	out, shouldDefer := idx.JoinCredits(batch, true)
	require.False(t, shouldDefer)
	require.Len(t, out.MovieCredits, 1)
	require.Equal(t, "Alpha", out.MovieCredits[0].Title)
}

func TestMovieIndexJoinRatings(t *testing.T) {
	idx := NewMovieIndex()
	idx.Absorb(codec.MoviesBatch{Movies: []codec.Movie{
		{ID: 1, Title: "Alpha", HasID: true, HasTitle: true},
	}})

	batch := codec.RatingsBatch{
		Base:    codec.Base{MessageID: "m1", ClientID: "c1"},
		Ratings: []codec.Rating{{MovieID: 1, Rating: 4.5}},
	}

	out, shouldDefer := idx.JoinRatings(batch, false)
	require.False(t, shouldDefer)
	require.Len(t, out.MovieRatings, 1)
	require.Equal(t, "Alpha", out.MovieRatings[0].Title)
	require.Equal(t, 4.5, out.MovieRatings[0].Rating)
}

func TestMovieIndexJoinRatingsDefersOnMissBeforeAllMoviesReceived(t *testing.T) {
	idx := NewMovieIndex()

	batch := codec.RatingsBatch{
		Base:    codec.Base{MessageID: "m1", ClientID: "c1"},
		Ratings: []codec.Rating{{MovieID: 42, Rating: 1}},
	}

	out, shouldDefer := idx.JoinRatings(batch, false)
	require.True(t, shouldDefer)
	require.Empty(t, out.MovieRatings)
}

func TestMovieIndexJoinRatingsDropsUnmatchedOnceAllMoviesReceived(t *testing.T) {
	idx := NewMovieIndex()
	idx.Absorb(codec.MoviesBatch{Movies: []codec.Movie{
		{ID: 1, Title: "Alpha", HasID: true, HasTitle: true},
	}})

	batch := codec.RatingsBatch{
		Base: codec.Base{MessageID: "m1", ClientID: "c1"},
		Ratings: []codec.Rating{
			{MovieID: 1, Rating: 4.5},
			{MovieID: 42, Rating: 1},
		},
	}

	out, shouldDefer := idx.JoinRatings(batch, true)
	require.False(t, shouldDefer)
	require.Len(t, out.MovieRatings, 1)
	require.Equal(t, "Alpha", out.MovieRatings[0].Title)
}

func TestMovieIndexEmpty(t *testing.T) {
	idx := NewMovieIndex()
	require.True(t, idx.Empty())
	idx.Absorb(codec.MoviesBatch{Movies: []codec.Movie{{ID: 1, Title: "Alpha", HasID: true, HasTitle: true}}})
	require.False(t, idx.Empty())
}

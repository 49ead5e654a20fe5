package sentiment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/distribudata/movie-pipeline/internal/codec"
)

func TestFromPolarityClassification(t *testing.T) {
	require.Equal(t, codec.SentimentNegative, FromPolarity(-0.1))
	require.Equal(t, codec.SentimentPositive, FromPolarity(0))
	require.Equal(t, codec.SentimentPositive, FromPolarity(0.5))
}

func wordCountPolarity(text string) float64 {
	if strings.Contains(text, "bad") {
		return -1
	}
	return 1
}

func TestStageAnalyzeDropsMovieIdentity(t *testing.T) {
	s := Stage{Score: wordCountPolarity}
	batch := codec.MoviesBatch{
		Base: codec.Base{MessageID: "m1", ClientID: "c1"},
		Movies: []codec.Movie{
			{ID: 1, Budget: 100, Revenue: 200, Overview: "a bad movie"},
			{ID: 2, Budget: 50, Revenue: 75, Overview: "a great movie"},
		},
	}

	out := s.Analyze(batch)
	require.Equal(t, "m1", out.MessageID)
	require.Len(t, out.Movies, 2)
	require.Equal(t, codec.SentimentNegative, out.Movies[0].Sentiment)
	require.Equal(t, codec.SentimentPositive, out.Movies[1].Sentiment)
	require.Equal(t, int64(100), out.Movies[0].Budget)
	require.Equal(t, 200.0, out.Movies[0].Revenue)
}

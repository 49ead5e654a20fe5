// Package sentiment implements the stateless sentiment-analysis stage:
// score each movie's overview text and reduce it to the
// {revenue, budget, sentiment} triple the downstream aggregator needs
// (controllers/movies_sentiment_analyzer/src/movies_sentiment_analyzer.py).
package sentiment

import (
	"github.com/distribudata/movie-pipeline/internal/codec"
)

// Scorer scores free text with a polarity; FromPolarity classifies that
// score. The reference implementation uses TextBlob; Scorer lets that be swapped for any
// polarity function without the stage caring how it's computed.
type Scorer func(text string) (polarity float64)

// FromPolarity classifies a polarity score the way
// messages/analyzed_movie.py's Sentiment.from_polarity does: negative
// scores are NEGATIVE, everything else (including exactly zero) is
// POSITIVE.
func FromPolarity(polarity float64) codec.Sentiment {
	if polarity < 0 {
		return codec.SentimentNegative
	}
	return codec.SentimentPositive
}

// Stage reduces every movie in a batch to its sentiment-analyzed form.
type Stage struct {
	Score Scorer
}

// Analyze runs Score over each movie's overview and emits the analyzed
// batch with the same Base as the input (movies_batch.client_id,
// movies_batch.message_id carry straight through).
func (s Stage) Analyze(batch codec.MoviesBatch) codec.AnalyzedMoviesBatch {
	out := codec.AnalyzedMoviesBatch{Base: batch.Base}
	for _, m := range batch.Movies {
		polarity := s.Score(m.Overview)
		out.Movies = append(out.Movies, codec.AnalyzedMovie{
			Revenue:   m.Revenue,
			Budget:    m.Budget,
			Sentiment: FromPolarity(polarity),
		})
	}
	return out
}

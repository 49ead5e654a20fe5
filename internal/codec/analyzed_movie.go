package codec

// Sentiment is the coarse polarity the Sentiment stage assigns to a
// movie's overview text (messages/analyzed_movie.py's Sentiment IntEnum).
type Sentiment string

const (
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentPositive Sentiment = "POSITIVE"
)

func sentimentValue(s Sentiment) int {
	if s == SentimentPositive {
		return 1
	}
	return 0
}

func sentimentFromValue(v int) Sentiment {
	if v == 1 {
		return SentimentPositive
	}
	return SentimentNegative
}

// AnalyzedMovie is a movie after sentiment analysis of its overview,
// reduced to the fields the budget/revenue aggregator needs: its own
// budget and revenue are meaningless without a client-scoped batch
// envelope, so movie identity is dropped once sentiment is computed.
type AnalyzedMovie struct {
	Revenue   float64
	Budget    int64
	Sentiment Sentiment
}

func (m AnalyzedMovie) encode() []byte {
	out := encodeFloat(m.Revenue, true)
	out = append(out, encodeInt(m.Budget, true)...)
	return append(out, encodeInt(int64(sentimentValue(m.Sentiment)), true)...)
}

func decodeAnalyzedMovie(payload []byte, offset int) (AnalyzedMovie, int, error) {
	revenue, _, offset, err := decodeFloat(offset, payload)
	if err != nil {
		return AnalyzedMovie{}, offset, err
	}
	budget, _, offset, err := decodeInt(offset, payload)
	if err != nil {
		return AnalyzedMovie{}, offset, err
	}
	sentimentValue, _, offset, err := decodeInt(offset, payload)
	if err != nil {
		return AnalyzedMovie{}, offset, err
	}
	return AnalyzedMovie{Revenue: revenue, Budget: budget, Sentiment: sentimentFromValue(int(sentimentValue))}, offset, nil
}

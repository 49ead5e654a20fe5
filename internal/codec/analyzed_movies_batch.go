package codec

// AnalyzedMoviesBatch carries movies after sentiment analysis, on their
// way to the budget/revenue-by-sentiment Aggregator.
type AnalyzedMoviesBatch struct {
	Base
	Movies []AnalyzedMovie
}

func (AnalyzedMoviesBatch) PacketType() PacketType { return PacketAnalyzedMoviesBatch }

func (b AnalyzedMoviesBatch) encode() []byte {
	out := encodeTag(PacketAnalyzedMoviesBatch)
	out = append(out, b.Base.encode()...)
	var body []byte
	for _, m := range b.Movies {
		body = append(body, m.encode()...)
	}
	return append(out, encodeFieldBytes(body)...)
}

func decodeAnalyzedMoviesBatchBody(payload []byte, offset int) (AnalyzedMoviesBatch, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return AnalyzedMoviesBatch{}, err
	}
	blob, _, err := readField(payload, offset)
	if err != nil {
		return AnalyzedMoviesBatch{}, err
	}
	var movies []AnalyzedMovie
	inner := 0
	for inner < len(blob) {
		m, next, err := decodeAnalyzedMovie(blob, inner)
		if err != nil {
			return AnalyzedMoviesBatch{}, err
		}
		movies = append(movies, m)
		inner = next
	}
	return AnalyzedMoviesBatch{Base: base, Movies: movies}, nil
}

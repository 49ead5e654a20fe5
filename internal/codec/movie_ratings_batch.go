package codec

// MovieRatingsBatch carries joined (movie, rating) rows between the
// Joiner and the rating Aggregator, and again carries the Aggregator's
// final top-N answer back to the Results Handler.
type MovieRatingsBatch struct {
	Base
	MovieRatings []MovieRating
}

func (MovieRatingsBatch) PacketType() PacketType { return PacketMovieRatingsBatch }

func (b MovieRatingsBatch) encode() []byte {
	out := encodeTag(PacketMovieRatingsBatch)
	out = append(out, b.Base.encode()...)
	var body []byte
	for _, r := range b.MovieRatings {
		body = append(body, r.encode()...)
	}
	return append(out, encodeFieldBytes(body)...)
}

func decodeMovieRatingsBatchBody(payload []byte, offset int) (MovieRatingsBatch, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return MovieRatingsBatch{}, err
	}
	blob, _, err := readField(payload, offset)
	if err != nil {
		return MovieRatingsBatch{}, err
	}
	var ratings []MovieRating
	inner := 0
	for inner < len(blob) {
		r, next, err := decodeMovieRating(blob, inner)
		if err != nil {
			return MovieRatingsBatch{}, err
		}
		ratings = append(ratings, r)
		inner = next
	}
	return MovieRatingsBatch{Base: base, MovieRatings: ratings}, nil
}

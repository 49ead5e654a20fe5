package codec

// MovieRating is the Joiner's output when it pairs a Rating with the
// Movie it references: one row per rating, carrying the movie's title
// alongside the score. The Aggregator stage reuses the same shape for
// its final answer, replacing Rating with the movie's running average.
type MovieRating struct {
	MovieID int64
	Title   string
	Rating  float64
}

func (r MovieRating) encode() []byte {
	out := encodeInt(r.MovieID, true)
	out = append(out, encodeString(r.Title)...)
	return append(out, encodeFloat(r.Rating, true)...)
}

func decodeMovieRating(payload []byte, offset int) (MovieRating, int, error) {
	movieID, _, offset, err := decodeInt(offset, payload)
	if err != nil {
		return MovieRating{}, offset, err
	}
	title, offset, err := decodeString("title", offset, payload)
	if err != nil {
		return MovieRating{}, offset, err
	}
	rating, _, offset, err := decodeFloat(offset, payload)
	if err != nil {
		return MovieRating{}, offset, err
	}
	return MovieRating{MovieID: movieID, Title: title, Rating: rating}, offset, nil
}

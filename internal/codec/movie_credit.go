package codec

// MovieCredit is the Joiner's output when it pairs a Credit with the
// Movie it references (movies_joiner.py's __join_credits). Country
// filtering happens upstream, before the credit ever reaches the
// joiner, so only cast and title need to survive the join.
type MovieCredit struct {
	MovieID int64
	Title   string
	Cast    []string
}

func (c MovieCredit) encode() []byte {
	out := encodeInt(c.MovieID, true)
	out = append(out, encodeString(c.Title)...)
	return append(out, encodeStringsIterable(c.Cast)...)
}

func decodeMovieCredit(payload []byte, offset int) (MovieCredit, int, error) {
	movieID, _, offset, err := decodeInt(offset, payload)
	if err != nil {
		return MovieCredit{}, offset, err
	}
	title, offset, err := decodeString("title", offset, payload)
	if err != nil {
		return MovieCredit{}, offset, err
	}
	cast, offset, err := decodeStringsList(offset, payload)
	if err != nil {
		return MovieCredit{}, offset, err
	}
	return MovieCredit{MovieID: movieID, Title: title, Cast: cast}, offset, nil
}

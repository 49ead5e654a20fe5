package codec

// MovieCreditsBatch carries joined (movie, credit) rows between the
// Joiner and the actor-participation Aggregator.
type MovieCreditsBatch struct {
	Base
	MovieCredits []MovieCredit
}

func (MovieCreditsBatch) PacketType() PacketType { return PacketMovieCreditsBatch }

func (b MovieCreditsBatch) encode() []byte {
	out := encodeTag(PacketMovieCreditsBatch)
	out = append(out, b.Base.encode()...)
	var body []byte
	for _, c := range b.MovieCredits {
		body = append(body, c.encode()...)
	}
	return append(out, encodeFieldBytes(body)...)
}

func decodeMovieCreditsBatchBody(payload []byte, offset int) (MovieCreditsBatch, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return MovieCreditsBatch{}, err
	}
	blob, _, err := readField(payload, offset)
	if err != nil {
		return MovieCreditsBatch{}, err
	}
	var credits []MovieCredit
	inner := 0
	for inner < len(blob) {
		c, next, err := decodeMovieCredit(blob, inner)
		if err != nil {
			return MovieCreditsBatch{}, err
		}
		credits = append(credits, c)
		inner = next
	}
	return MovieCreditsBatch{Base: base, MovieCredits: credits}, nil
}

package codec

// RatingsBatch carries raw (movie_id, rating) rows straight from the
// ratings dataset shard a client streamed in.
type RatingsBatch struct {
	Base
	Ratings []Rating
}

func (RatingsBatch) PacketType() PacketType { return PacketRatingsBatch }

func (b RatingsBatch) encode() []byte {
	out := encodeTag(PacketRatingsBatch)
	out = append(out, b.Base.encode()...)
	var body []byte
	for _, r := range b.Ratings {
		body = append(body, r.encode()...)
	}
	return append(out, encodeFieldBytes(body)...)
}

func decodeRatingsBatchBody(payload []byte, offset int) (RatingsBatch, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return RatingsBatch{}, err
	}
	blob, _, err := readField(payload, offset)
	if err != nil {
		return RatingsBatch{}, err
	}
	var ratings []Rating
	inner := 0
	for inner < len(blob) {
		r, next, err := decodeRating(blob, inner)
		if err != nil {
			return RatingsBatch{}, err
		}
		ratings = append(ratings, r)
		inner = next
	}
	return RatingsBatch{Base: base, Ratings: ratings}, nil
}

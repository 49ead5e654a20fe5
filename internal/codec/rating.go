package codec

const ratingCSVFieldCount = 4

// Rating mirrors messages/rating.py: a single user rating row from the
// ratings dataset, reduced to the two columns the pipeline needs.
type Rating struct {
	MovieID int64
	Rating  float64
}

// ParseRatingCSVLine parses one raw ratings.csv line: userId,movieId,rating,timestamp.
func ParseRatingCSVLine(line string) (Rating, error) {
	fields, err := readOneCSVRecord(line)
	if err != nil {
		return Rating{}, &InvalidLineError{Reason: err.Error()}
	}
	if len(fields) != ratingCSVFieldCount {
		return Rating{}, &InvalidLineError{Reason: "invalid amount of line fields"}
	}
	movieID, err := parseDecimalInt(fields[1])
	if err != nil {
		return Rating{}, &InvalidLineError{Reason: "invalid movie id: " + fields[1]}
	}
	rating, err := parseDecimalFloat(fields[2])
	if err != nil {
		return Rating{}, &InvalidLineError{Reason: "invalid rating: " + fields[2]}
	}
	return Rating{MovieID: movieID, Rating: rating}, nil
}

func (r Rating) encode() []byte {
	out := encodeInt(r.MovieID, true)
	return append(out, encodeFloat(r.Rating, true)...)
}

func decodeRating(payload []byte, offset int) (Rating, int, error) {
	movieID, _, offset, err := decodeInt(offset, payload)
	if err != nil {
		return Rating{}, offset, err
	}
	rating, _, offset, err := decodeFloat(offset, payload)
	if err != nil {
		return Rating{}, offset, err
	}
	return Rating{MovieID: movieID, Rating: rating}, offset, nil
}

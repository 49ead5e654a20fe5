package codec

const creditCSVFieldCount = 3

// Credit mirrors messages/credit.py: the cast list and movie id from one
// credits.csv row. A malformed cast literal degrades to an empty cast
// rather than rejecting the row, matching from_csv_line's behavior.
type Credit struct {
	MovieID int64
	Cast    []string
}

// ParseCreditCSVLine parses one raw credits.csv line: cast,crew,id.
func ParseCreditCSVLine(line string) (Credit, error) {
	fields, err := readOneCSVRecord(line)
	if err != nil {
		return Credit{}, &InvalidLineError{Reason: err.Error()}
	}
	if len(fields) != creditCSVFieldCount {
		return Credit{}, &InvalidLineError{Reason: "invalid amount of line fields"}
	}
	movieID, err := parseDecimalInt(fields[2])
	if err != nil {
		return Credit{}, &InvalidLineError{Reason: "invalid movie id: " + fields[2]}
	}
	cast := parseNameList(fields[0])
	return Credit{MovieID: movieID, Cast: cast}, nil
}

func (c Credit) encode() []byte {
	out := encodeInt(c.MovieID, true)
	return append(out, encodeStringsIterable(c.Cast)...)
}

func decodeCredit(payload []byte, offset int) (Credit, int, error) {
	movieID, _, offset, err := decodeInt(offset, payload)
	if err != nil {
		return Credit{}, offset, err
	}
	cast, offset, err := decodeStringsList(offset, payload)
	if err != nil {
		return Credit{}, offset, err
	}
	return Credit{MovieID: movieID, Cast: cast}, offset, nil
}

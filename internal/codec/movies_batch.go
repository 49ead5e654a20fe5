package codec

import (
	"fmt"
)

// MoviesBatch carries a slice of movies, each serialized with only its
// present fields tagged by FieldType — this is what lets the Filter
// stage forward, say, only {id, title, genres} downstream while the
// Joiner stage needs {id, title, release_date, overview} from the very
// same original row (messages/movies_batch.py, packet_serde.py).
type MoviesBatch struct {
	Base
	Movies []Movie
}

func (MoviesBatch) PacketType() PacketType { return PacketMoviesBatch }

// InvalidMovieInBatchError reports a movie whose required fields are
// absent for the context the batch is being built in (mirrors
// InvalidMovieInBatchError in the reference implementation).
type InvalidMovieInBatchError struct {
	Field string
}

func (e *InvalidMovieInBatchError) Error() string {
	return fmt.Sprintf("movie missing required batch field %q", e.Field)
}

// RequireFields validates that every movie in the batch carries all of
// the named fields, for callers that only work with a fixed subset of
// columns. Encoding a MoviesBatch does not run this check.
func (b MoviesBatch) RequireFields(fields ...FieldType) error {
	for _, m := range b.Movies {
		for _, f := range fields {
			if !movieHasField(m, f) {
				return &InvalidMovieInBatchError{Field: fieldTypeName(f)}
			}
		}
	}
	return nil
}

func movieHasField(m Movie, f FieldType) bool {
	switch f {
	case FieldID:
		return m.HasID
	case FieldTitle:
		return m.HasTitle
	case FieldGenres:
		return m.HasGenres
	case FieldProductionCountries:
		return m.HasProductionCountries
	case FieldReleaseDate:
		return m.HasReleaseDate
	case FieldBudget:
		return m.HasBudget
	case FieldOverview:
		return m.HasOverview
	case FieldRevenue:
		return m.HasRevenue
	default:
		return false
	}
}

func fieldTypeName(f FieldType) string {
	switch f {
	case FieldID:
		return "id"
	case FieldTitle:
		return "title"
	case FieldGenres:
		return "genres"
	case FieldProductionCountries:
		return "production_countries"
	case FieldReleaseDate:
		return "release_date"
	case FieldBudget:
		return "budget"
	case FieldOverview:
		return "overview"
	case FieldRevenue:
		return "revenue"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

func (b MoviesBatch) encode() []byte {
	out := encodeTag(PacketMoviesBatch)
	out = append(out, b.Base.encode()...)
	var moviesBody []byte
	for _, m := range b.Movies {
		moviesBody = append(moviesBody, encodeMovie(m)...)
	}
	return append(out, encodeFieldBytes(moviesBody)...)
}

func encodeMovie(m Movie) []byte {
	type fv struct {
		tag   FieldType
		value []byte
	}
	var present []fv
	if m.HasID {
		present = append(present, fv{FieldID, encodeInt(m.ID, true)})
	}
	if m.HasTitle {
		present = append(present, fv{FieldTitle, encodeString(m.Title)})
	}
	if m.HasGenres {
		present = append(present, fv{FieldGenres, encodeStringsIterable(m.Genres)})
	}
	if m.HasProductionCountries {
		present = append(present, fv{FieldProductionCountries, encodeStringsIterable(m.ProductionCountries)})
	}
	if m.HasReleaseDate {
		present = append(present, fv{FieldReleaseDate, encodeDate(m.ReleaseDate, true)})
	}
	if m.HasBudget {
		present = append(present, fv{FieldBudget, encodeInt(m.Budget, true)})
	}
	if m.HasOverview {
		present = append(present, fv{FieldOverview, encodeString(m.Overview)})
	}
	if m.HasRevenue {
		present = append(present, fv{FieldRevenue, encodeFloat(m.Revenue, true)})
	}

	body := []byte{byte(len(present))}
	for _, f := range present {
		body = append(body, byte(f.tag))
		body = append(body, f.value...)
	}
	return encodeFieldBytes(body)
}

func decodeMoviesBatchBody(payload []byte, offset int) (MoviesBatch, error) {
	base, offset, err := decodeBase(payload, offset)
	if err != nil {
		return MoviesBatch{}, err
	}
	moviesBlob, _, err := readField(payload, offset)
	if err != nil {
		return MoviesBatch{}, err
	}

	var movies []Movie
	inner := 0
	for inner < len(moviesBlob) {
		m, next, err := decodeMovie(moviesBlob, inner)
		if err != nil {
			return MoviesBatch{}, err
		}
		movies = append(movies, m)
		inner = next
	}
	return MoviesBatch{Base: base, Movies: movies}, nil
}

func decodeMovie(payload []byte, offset int) (Movie, int, error) {
	entryBytes, next, err := readField(payload, offset)
	if err != nil {
		return Movie{}, offset, err
	}
	var m Movie
	if len(entryBytes) == 0 {
		return m, next, nil
	}
	count := int(entryBytes[0])
	pos := 1
	for i := 0; i < count; i++ {
		if pos >= len(entryBytes) {
			return Movie{}, offset, fmt.Errorf("codec: truncated movie entry")
		}
		tag := FieldType(entryBytes[pos])
		pos++
		switch tag {
		case FieldID:
			v, _, n, err := decodeInt(pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.ID, m.HasID, pos = v, true, n
		case FieldTitle:
			v, n, err := decodeString("title", pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.Title, m.HasTitle, pos = v, true, n
		case FieldGenres:
			v, n, err := decodeStringsList(pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.Genres, m.HasGenres, pos = v, true, n
		case FieldProductionCountries:
			v, n, err := decodeStringsList(pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.ProductionCountries, m.HasProductionCountries, pos = v, true, n
		case FieldReleaseDate:
			v, _, n, err := decodeDate(pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.ReleaseDate, m.HasReleaseDate, pos = v, true, n
		case FieldBudget:
			v, _, n, err := decodeInt(pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.Budget, m.HasBudget, pos = v, true, n
		case FieldOverview:
			v, n, err := decodeString("overview", pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.Overview, m.HasOverview, pos = v, true, n
		case FieldRevenue:
			v, _, n, err := decodeFloat(pos, entryBytes)
			if err != nil {
				return Movie{}, offset, err
			}
			m.Revenue, m.HasRevenue, pos = v, true, n
		default:
			return Movie{}, offset, fmt.Errorf("codec: unknown movie field tag %d", tag)
		}
	}
	return m, next, nil
}

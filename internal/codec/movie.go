package codec

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldType tags which Movie field a block of the MoviesBatch payload
// carries, letting a batch serialize any subset of fields while still
// being self-describing on the wire.
type FieldType byte

const (
	FieldID                  FieldType = 1
	FieldTitle               FieldType = 2
	FieldGenres              FieldType = 3
	FieldProductionCountries FieldType = 4
	FieldReleaseDate         FieldType = 5
	FieldBudget              FieldType = 6
	FieldOverview            FieldType = 7
	FieldRevenue             FieldType = 8
)

// Movie mirrors messages/movie.py: any subset of fields may be present,
// tracked explicitly since zero values (0, "", nil) are valid data.
type Movie struct {
	ID                     int64
	HasID                  bool
	Title                  string
	HasTitle               bool
	Genres                 []string
	HasGenres              bool
	ProductionCountries    []string
	HasProductionCountries bool
	ReleaseDate            time.Time
	HasReleaseDate         bool
	Budget                 int64
	HasBudget              bool
	Overview               string
	HasOverview            bool
	Revenue                float64
	HasRevenue             bool
}

// InvalidLineError reports a CSV line that fails validation; the caller
// drops the line rather than crashing, per spec.md §4.3.
type InvalidLineError struct {
	Reason string
}

func (e *InvalidLineError) Error() string { return "invalid line: " + e.Reason }

const movieCSVFieldCount = 24

// ParseMovieCSVLine parses one raw (unbatched) CSV line from the movies
// metadata file, matching Movie.from_csv_line's fixed column layout:
// budget@2, genres@3, id@5, overview@9, production_countries@13,
// release_date@14, revenue@15, title@20 (0-indexed, 24 columns total).
func ParseMovieCSVLine(line string) (Movie, error) {
	fields, err := readOneCSVRecord(line)
	if err != nil {
		return Movie{}, &InvalidLineError{Reason: err.Error()}
	}
	if len(fields) != movieCSVFieldCount {
		return Movie{}, &InvalidLineError{Reason: fmt.Sprintf("invalid amount of line fields: %d", len(fields))}
	}

	budget, err := parseDecimalInt(fields[2])
	if err != nil {
		return Movie{}, &InvalidLineError{Reason: "invalid budget: " + fields[2]}
	}
	genres := parseNameList(fields[3])
	id, err := parseDecimalInt(fields[5])
	if err != nil {
		return Movie{}, &InvalidLineError{Reason: "invalid id: " + fields[5]}
	}
	overview := fields[9]
	countries := parseNameList(fields[13])
	releaseDate, err := time.Parse(dateLayout, fields[14])
	if err != nil {
		return Movie{}, &InvalidLineError{Reason: "invalid release date: " + fields[14]}
	}
	revenue, err := parseDecimalFloat(fields[15])
	if err != nil {
		return Movie{}, &InvalidLineError{Reason: "invalid revenue: " + fields[15]}
	}
	title := fields[20]

	return Movie{
		ID: id, HasID: true,
		Title: title, HasTitle: true,
		Genres: genres, HasGenres: true,
		ProductionCountries: countries, HasProductionCountries: true,
		ReleaseDate: releaseDate, HasReleaseDate: true,
		Budget: budget, HasBudget: true,
		Overview: overview, HasOverview: true,
		Revenue: revenue, HasRevenue: true,
	}, nil
}

func parseDecimalInt(s string) (int64, error) {
	if s == "" || strings.ContainsAny(s, " \t") {
		return 0, fmt.Errorf("not decimal")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not decimal")
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseDecimalFloat(s string) (float64, error) {
	stripped := strings.Replace(s, ".", "", 1)
	if stripped == "" {
		return 0, fmt.Errorf("not decimal")
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not decimal")
		}
	}
	return strconv.ParseFloat(s, 64)
}

var nameFieldPattern = regexp.MustCompile(`['"]name['"]\s*:\s*['"]([^'"]*)['"]`)
var plainListPattern = regexp.MustCompile(`['"]([^'"]*)['"]`)

// parseNameList reads either a Python-list-of-dicts literal
// (`[{'id': 18, 'name': 'Drama'}]`, the raw dataset format) or a plain
// list of strings (`["Drama"]`) and returns the list of names/values.
// An empty literal yields an empty (non-nil-meaning) slice, matching
// __parse_genres's `if not genres_str: return []`.
func parseNameList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return []string{}
	}
	if matches := nameFieldPattern.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		out := make([]string, 0, len(matches))
		for _, m := range matches {
			out = append(out, m[1])
		}
		return out
	}
	matches := plainListPattern.FindAllStringSubmatch(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func readOneCSVRecord(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = ','
	r.LazyQuotes = false
	return r.Read()
}

// ToCSVLine reproduces Movie.to_csv_line: only present fields are joined
// by commas, in field declaration order.
func (m Movie) ToCSVLine() string {
	var parts []string
	if m.HasID {
		parts = append(parts, strconv.FormatInt(m.ID, 10))
	}
	if m.HasTitle {
		parts = append(parts, m.Title)
	}
	if m.HasGenres {
		parts = append(parts, formatStringList(m.Genres))
	}
	if m.HasProductionCountries {
		parts = append(parts, formatStringList(m.ProductionCountries))
	}
	if m.HasReleaseDate {
		parts = append(parts, m.ReleaseDate.Format(dateLayout))
	}
	if m.HasBudget {
		parts = append(parts, strconv.FormatInt(m.Budget, 10))
	}
	if m.HasOverview {
		parts = append(parts, m.Overview)
	}
	if m.HasRevenue {
		parts = append(parts, strconv.FormatFloat(m.Revenue, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func formatStringList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

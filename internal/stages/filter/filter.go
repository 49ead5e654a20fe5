// Package filter implements the stateless movie filter stage: for every
// movie in an incoming MoviesBatch, keep it only if it matches a
// configured predicate (a single genre, a set of production countries,
// or a release-year range), forwarding only the output field subset the
// stage downstream actually needs (controllers/movies_filter/src/movies_filter.py).
package filter

import (
	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/codec"
	"github.com/distribudata/movie-pipeline/internal/obslog"
)

// Predicate reports whether a movie should be kept.
type Predicate func(codec.Movie) bool

// ByGenre keeps movies whose Genres include genre.
func ByGenre(genre string) Predicate {
	return func(m codec.Movie) bool {
		if !m.HasGenres {
			return false
		}
		for _, g := range m.Genres {
			if g == genre {
				return true
			}
		}
		return false
	}
}

// ByProductionCountries keeps movies produced in every one of countries
// (moviess_filter.py requires all listed countries to be present).
func ByProductionCountries(countries []string) Predicate {
	return func(m codec.Movie) bool {
		if !m.HasProductionCountries {
			return false
		}
		set := make(map[string]struct{}, len(m.ProductionCountries))
		for _, c := range m.ProductionCountries {
			set[c] = struct{}{}
		}
		for _, want := range countries {
			if _, ok := set[want]; !ok {
				return false
			}
		}
		return true
	}
}

// ByReleaseYearRange keeps movies whose release year falls in
// [minYear, maxYear] inclusive.
func ByReleaseYearRange(minYear, maxYear int) Predicate {
	return func(m codec.Movie) bool {
		if !m.HasReleaseDate {
			return false
		}
		y := m.ReleaseDate.Year()
		return y >= minYear && y <= maxYear
	}
}

// FieldProjector trims a movie down to the subset of fields a
// downstream stage needs, mirroring PacketSerde.serialize(fields_subset=...).
type FieldProjector func(codec.Movie) codec.Movie

// Stage applies a predicate to every movie in a batch and projects the
// surviving ones to a field subset before re-batching them.
type Stage struct {
	Predicate Predicate
	Project   FieldProjector
	Logger    *zap.Logger
}

// Apply filters batch.Movies in place order, returning a new batch (same
// Base) containing only the movies that matched, each projected.
func (s Stage) Apply(batch codec.MoviesBatch) codec.MoviesBatch {
	kept := make([]codec.Movie, 0, len(batch.Movies))
	for _, m := range batch.Movies {
		if !s.Predicate(m) {
			continue
		}
		out := m
		if s.Project != nil {
			out = s.Project(m)
		}
		kept = append(kept, out)
		if s.Logger != nil {
			obslog.Action(s.Logger, "movie_filtered", nil, zap.Int64("movie_id", m.ID))
		}
	}
	return codec.MoviesBatch{Base: batch.Base, Movies: kept}
}

// ProjectFields keeps only the named fields of a movie, zeroing the rest
// — the Go equivalent of Movie.serialize(fields_subset=...).
func ProjectFields(fields ...codec.FieldType) FieldProjector {
	keep := make(map[codec.FieldType]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	return func(m codec.Movie) codec.Movie {
		var out codec.Movie
		if keep[codec.FieldID] && m.HasID {
			out.ID, out.HasID = m.ID, true
		}
		if keep[codec.FieldTitle] && m.HasTitle {
			out.Title, out.HasTitle = m.Title, true
		}
		if keep[codec.FieldGenres] && m.HasGenres {
			out.Genres, out.HasGenres = m.Genres, true
		}
		if keep[codec.FieldProductionCountries] && m.HasProductionCountries {
			out.ProductionCountries, out.HasProductionCountries = m.ProductionCountries, true
		}
		if keep[codec.FieldReleaseDate] && m.HasReleaseDate {
			out.ReleaseDate, out.HasReleaseDate = m.ReleaseDate, true
		}
		if keep[codec.FieldBudget] && m.HasBudget {
			out.Budget, out.HasBudget = m.Budget, true
		}
		if keep[codec.FieldOverview] && m.HasOverview {
			out.Overview, out.HasOverview = m.Overview, true
		}
		if keep[codec.FieldRevenue] && m.HasRevenue {
			out.Revenue, out.HasRevenue = m.Revenue, true
		}
		return out
	}
}

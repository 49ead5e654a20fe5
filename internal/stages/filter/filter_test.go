package filter

import (
	"testing"
	"time"

	"github.com/distribudata/movie-pipeline/internal/codec"
)

func movie(id int64, title string, countries []string, genres []string, release string) codec.Movie {
	m := codec.Movie{
		ID: id, HasID: true,
		Title: title, HasTitle: true,
		ProductionCountries: countries, HasProductionCountries: countries != nil,
		Genres: genres, HasGenres: genres != nil,
	}
	if release != "" {
		t, err := time.Parse("2006-01-02", release)
		if err != nil {
			panic(err)
		}
		m.ReleaseDate, m.HasReleaseDate = t, true
	}
	return m
}

func TestByProductionCountriesRequiresAllListed(t *testing.T) {
	pred := ByProductionCountries([]string{"Argentina", "Spain"})

	both := movie(1, "A", []string{"Argentina", "Spain"}, nil, "")
	if !pred(both) {
		t.Error("expected movie with both countries to match")
	}

	onlyOne := movie(2, "B", []string{"Argentina"}, nil, "")
	if pred(onlyOne) {
		t.Error("expected movie missing Spain not to match")
	}

	noCountries := codec.Movie{ID: 3, HasID: true}
	if pred(noCountries) {
		t.Error("expected movie with no production_countries field not to match")
	}
}

func TestByReleaseYearRangeInclusive(t *testing.T) {
	pred := ByReleaseYearRange(2000, 2005)

	if !pred(movie(1, "A", nil, nil, "2005-06-01")) {
		t.Error("expected upper bound year to match")
	}
	if !pred(movie(2, "B", nil, nil, "2000-01-01")) {
		t.Error("expected lower bound year to match")
	}
	if pred(movie(3, "C", nil, nil, "1999-01-01")) {
		t.Error("expected year below range not to match")
	}
	if pred(movie(4, "D", nil, nil, "2006-01-01")) {
		t.Error("expected year above range not to match")
	}
	if pred(codec.Movie{ID: 5, HasID: true}) {
		t.Error("expected movie with no release_date field not to match")
	}
}

func TestByGenre(t *testing.T) {
	pred := ByGenre("Drama")
	if !pred(movie(1, "A", nil, []string{"Drama", "Action"}, "")) {
		t.Error("expected movie with Drama genre to match")
	}
	if pred(movie(2, "B", nil, []string{"Action"}, "")) {
		t.Error("expected movie without Drama genre not to match")
	}
}

func TestStageApplyFiltersAndPreservesBase(t *testing.T) {
	base := codec.Base{MessageID: "m1", ClientID: "c1"}
	batch := codec.MoviesBatch{
		Base: base,
		Movies: []codec.Movie{
			movie(1, "A", []string{"Argentina", "Spain"}, nil, "2005-06-01"),
			movie(2, "B", []string{"Argentina", "Spain"}, nil, "1999-01-01"),
		},
	}

	stage := Stage{Predicate: ByReleaseYearRange(2000, 2010)}
	out := stage.Apply(batch)

	if out.Base != base {
		t.Errorf("expected Base preserved, got %+v", out.Base)
	}
	if len(out.Movies) != 1 || out.Movies[0].ID != 1 {
		t.Fatalf("expected exactly movie 1 to survive, got %+v", out.Movies)
	}
}

func TestStageApplyProjectsFields(t *testing.T) {
	batch := codec.MoviesBatch{
		Base: codec.Base{MessageID: "m1", ClientID: "c1"},
		Movies: []codec.Movie{
			movie(1, "A", []string{"Drama"}, []string{"Drama"}, "2005-06-01"),
		},
	}
	stage := Stage{
		Predicate: func(codec.Movie) bool { return true },
		Project:   ProjectFields(codec.FieldID, codec.FieldTitle),
	}
	out := stage.Apply(batch)
	if len(out.Movies) != 1 {
		t.Fatalf("expected one movie, got %d", len(out.Movies))
	}
	got := out.Movies[0]
	if !got.HasID || got.ID != 1 {
		t.Errorf("expected id field kept, got %+v", got)
	}
	if !got.HasTitle || got.Title != "A" {
		t.Errorf("expected title field kept, got %+v", got)
	}
	if got.HasGenres || got.HasProductionCountries || got.HasReleaseDate {
		t.Errorf("expected unselected fields dropped, got %+v", got)
	}
}

func TestStageApplyEmptyWhenNoneMatch(t *testing.T) {
	batch := codec.MoviesBatch{
		Base: codec.Base{MessageID: "m1", ClientID: "c1"},
		Movies: []codec.Movie{
			movie(1, "A", []string{"Argentina"}, nil, ""),
		},
	}
	stage := Stage{Predicate: ByProductionCountries([]string{"France"})}
	out := stage.Apply(batch)
	if len(out.Movies) != 0 {
		t.Fatalf("expected no movies to survive, got %+v", out.Movies)
	}
}

package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoviesBatchRoundTrip(t *testing.T) {
	batch := MoviesBatch{
		Base: Base{MessageID: "m1", ClientID: "c1"},
		Movies: []Movie{
			{
				ID: 1, HasID: true,
				Title: "Drama Movie", HasTitle: true,
				Genres: []string{"Drama", "Romance"}, HasGenres: true,
			},
			{
				ID: 2, HasID: true,
				Overview: "a story", HasOverview: true,
				Revenue: 123.5, HasRevenue: true,
			},
		},
	}

	raw, err := Encode(batch)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)

	got, ok := decoded.(MoviesBatch)
	require.True(t, ok)
	assert.Equal(t, batch.MessageID, got.MessageID)
	assert.Equal(t, batch.ClientID, got.ClientID)
	require.Len(t, got.Movies, 2)
	assert.Equal(t, int64(1), got.Movies[0].ID)
	assert.Equal(t, "Drama Movie", got.Movies[0].Title)
	assert.Equal(t, []string{"Drama", "Romance"}, got.Movies[0].Genres)
	assert.False(t, got.Movies[0].HasRevenue)
	assert.Equal(t, 123.5, got.Movies[1].Revenue)
	assert.False(t, got.Movies[1].HasTitle)
}

func TestParseMovieCSVLine(t *testing.T) {
	fields := make([]string, movieCSVFieldCount)
	for i := range fields {
		fields[i] = ""
	}
	fields[2] = "1000000"
	fields[3] = "[{'id': 18, 'name': 'Drama'}]"
	fields[5] = "42"
	fields[9] = "an overview"
	fields[13] = "[{'iso_3166_1': 'US', 'name': 'United States'}]"
	fields[14] = "1999-03-05"
	fields[15] = "2000000"
	fields[20] = "Some Title"

	line := csvJoin(fields)

	m, err := ParseMovieCSVLine(line)
	require.NoError(t, err)
	assert.Equal(t, int64(42), m.ID)
	assert.Equal(t, "Some Title", m.Title)
	assert.Equal(t, []string{"Drama"}, m.Genres)
	assert.Equal(t, []string{"United States"}, m.ProductionCountries)
	assert.Equal(t, int64(1000000), m.Budget)
	assert.Equal(t, float64(2000000), m.Revenue)
	assert.Equal(t, "an overview", m.Overview)
	assert.True(t, m.ReleaseDate.Equal(time.Date(1999, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func TestParseMovieCSVLineWrongFieldCount(t *testing.T) {
	_, err := ParseMovieCSVLine("a,b,c")
	require.Error(t, err)
	var invalid *InvalidLineError
	assert.ErrorAs(t, err, &invalid)
}

func TestEOFSeenAll(t *testing.T) {
	eof := NewEOF("m1", "c1")
	assert.False(t, eof.SeenAll(3))

	eof = eof.WithSeenID(1).WithSeenID(2)
	assert.False(t, eof.SeenAll(3))

	eof = eof.WithSeenID(3)
	assert.True(t, eof.SeenAll(3))

	raw, err := Encode(eof)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got, ok := decoded.(EOF)
	require.True(t, ok)
	assert.True(t, got.SeenAll(3))
}

func TestRatingsBatchRoundTrip(t *testing.T) {
	batch := RatingsBatch{
		Base:    Base{MessageID: "m2", ClientID: "c2"},
		Ratings: []Rating{{MovieID: 7, Rating: 4.5}, {MovieID: 8, Rating: 2}},
	}
	raw, err := Encode(batch)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(RatingsBatch)
	require.Len(t, got.Ratings, 2)
	assert.Equal(t, int64(7), got.Ratings[0].MovieID)
	assert.Equal(t, 4.5, got.Ratings[0].Rating)
}

func TestClientDisconnectedRoundTrip(t *testing.T) {
	msg := ClientDisconnected{Base: Base{MessageID: "m3", ClientID: "c3"}}
	raw, err := Encode(msg)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(ClientDisconnected)
	assert.Equal(t, "c3", got.ClientID)
}

func TestInvestorCountryRoundTrip(t *testing.T) {
	msg := InvestorCountry{Base: Base{MessageID: "m4", ClientID: "c4"}, Country: "US", Investment: 1000000}
	raw, err := Encode(msg)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(InvestorCountry)
	assert.Equal(t, "US", got.Country)
	assert.Equal(t, int64(1000000), got.Investment)
	assert.Equal(t, "c4", got.ClientID)
}

func TestActorParticipationRoundTrip(t *testing.T) {
	msg := ActorParticipation{Base: Base{MessageID: "m5", ClientID: "c5"}, Actor: "Keanu Reeves", Participation: 12}
	raw, err := Encode(msg)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(ActorParticipation)
	assert.Equal(t, "Keanu Reeves", got.Actor)
	assert.Equal(t, int64(12), got.Participation)
}

func TestAvgRateRevenueBudgetRoundTrip(t *testing.T) {
	msg := AvgRateRevenueBudget{Base: Base{MessageID: "m6", ClientID: "c6"}, Sentiment: SentimentPositive, Avg: 2.5}
	raw, err := Encode(msg)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(AvgRateRevenueBudget)
	assert.Equal(t, SentimentPositive, got.Sentiment)
	assert.Equal(t, 2.5, got.Avg)
}

func TestAnalyzedMoviesBatchRoundTrip(t *testing.T) {
	batch := AnalyzedMoviesBatch{
		Base: Base{MessageID: "m7", ClientID: "c7"},
		Movies: []AnalyzedMovie{
			{Revenue: 100, Budget: 50, Sentiment: SentimentPositive},
			{Revenue: 10, Budget: 20, Sentiment: SentimentNegative},
		},
	}
	raw, err := Encode(batch)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(AnalyzedMoviesBatch)
	require.Len(t, got.Movies, 2)
	assert.Equal(t, SentimentPositive, got.Movies[0].Sentiment)
	assert.Equal(t, SentimentNegative, got.Movies[1].Sentiment)
	assert.Equal(t, 100.0, got.Movies[0].Revenue)
}

func TestMovieCreditsBatchRoundTrip(t *testing.T) {
	batch := MovieCreditsBatch{
		Base: Base{MessageID: "m8", ClientID: "c8"},
		MovieCredits: []MovieCredit{
			{MovieID: 1, Title: "Alpha", Cast: []string{"Actor A", "Actor B"}},
		},
	}
	raw, err := Encode(batch)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(MovieCreditsBatch)
	require.Len(t, got.MovieCredits, 1)
	assert.Equal(t, "Alpha", got.MovieCredits[0].Title)
	assert.Equal(t, []string{"Actor A", "Actor B"}, got.MovieCredits[0].Cast)
}

func TestMovieRatingsBatchRoundTrip(t *testing.T) {
	batch := MovieRatingsBatch{
		Base: Base{MessageID: "m9", ClientID: "c9"},
		MovieRatings: []MovieRating{
			{MovieID: 1, Title: "Alpha", Rating: 4.5},
			{MovieID: 2, Title: "Beta", Rating: 1},
		},
	}
	raw, err := Encode(batch)
	require.NoError(t, err)
	decoded, err := Decode(raw)
	require.NoError(t, err)
	got := decoded.(MovieRatingsBatch)
	require.Len(t, got.MovieRatings, 2)
	assert.Equal(t, "Beta", got.MovieRatings[1].Title)
}

func csvJoin(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		if needsQuoting(f) {
			out += `"` + f + `"`
		} else {
			out += f
		}
	}
	return out
}

func needsQuoting(f string) bool {
	for _, r := range f {
		if r == ',' || r == '"' {
			return true
		}
	}
	return false
}

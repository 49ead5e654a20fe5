package resultshandler

import (
	"fmt"

	"github.com/distribudata/movie-pipeline/internal/codec"
)

// RenderMovies formats a MoviesBatch as one CSV line per movie, using
// whatever fields the upstream filter projected onto it (query 1:
// id,title,genres — results_receiver.py's QUERY_RESULTS_HEADERS[0]).
func RenderMovies(msg codec.Message) ([]ResultRow, error) {
	batch, ok := msg.(codec.MoviesBatch)
	if !ok {
		return nil, fmt.Errorf("resultshandler: expected MoviesBatch, got %T", msg)
	}
	rows := make([]ResultRow, 0, len(batch.Movies))
	for _, m := range batch.Movies {
		rows = append(rows, ResultRow{ClientID: batch.ClientID, Line: m.ToCSVLine()})
	}
	return rows, nil
}

// RenderMovieRatings formats a MovieRatingsBatch as one CSV line per
// row: movie_id,title,rating — the most/least-rated-movies query's
// result rows (messages/movie_rating.py's to_csv_line).
func RenderMovieRatings(msg codec.Message) ([]ResultRow, error) {
	batch, ok := msg.(codec.MovieRatingsBatch)
	if !ok {
		return nil, fmt.Errorf("resultshandler: expected MovieRatingsBatch, got %T", msg)
	}
	rows := make([]ResultRow, 0, len(batch.MovieRatings))
	for _, r := range batch.MovieRatings {
		rows = append(rows, ResultRow{
			ClientID: batch.ClientID,
			Line:     fmt.Sprintf("%d,%s,%g", r.MovieID, r.Title, r.Rating),
		})
	}
	return rows, nil
}

// RenderInvestorCountry formats a single InvestorCountry row as
// country,investment.
func RenderInvestorCountry(msg codec.Message) ([]ResultRow, error) {
	m, ok := msg.(codec.InvestorCountry)
	if !ok {
		return nil, fmt.Errorf("resultshandler: expected InvestorCountry, got %T", msg)
	}
	return []ResultRow{{ClientID: m.ClientID, Line: fmt.Sprintf("%s,%d", m.Country, m.Investment)}}, nil
}

// RenderActorParticipation formats a single ActorParticipation row as
// actor,participation.
func RenderActorParticipation(msg codec.Message) ([]ResultRow, error) {
	m, ok := msg.(codec.ActorParticipation)
	if !ok {
		return nil, fmt.Errorf("resultshandler: expected ActorParticipation, got %T", msg)
	}
	return []ResultRow{{ClientID: m.ClientID, Line: fmt.Sprintf("%s,%d", m.Actor, m.Participation)}}, nil
}

// RenderAvgRateRevenueBudget formats a single AvgRateRevenueBudget row
// as sentiment,avg.
func RenderAvgRateRevenueBudget(msg codec.Message) ([]ResultRow, error) {
	m, ok := msg.(codec.AvgRateRevenueBudget)
	if !ok {
		return nil, fmt.Errorf("resultshandler: expected AvgRateRevenueBudget, got %T", msg)
	}
	return []ResultRow{{ClientID: m.ClientID, Line: fmt.Sprintf("%s,%g", m.Sentiment, m.Avg)}}, nil
}

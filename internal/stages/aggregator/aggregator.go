// Package aggregator implements the four per-client stateful
// calculators that close the pipeline's four query answers: top
// investor countries by budget, top participating actors, average
// revenue/budget ratio by sentiment, and the most/least rated movies.
// Each accumulates running state per client as batches arrive and
// drains it into result messages once its input's EOF ring has closed
// (controllers/top_investor_countries_calculator,
// controllers/top_actors_participation_calculator,
// controllers/avg_rate_revenue_budget_calculator,
// controllers/most_least_rated_movies_calculator).
package aggregator

import (
	"sort"

	"github.com/distribudata/movie-pipeline/internal/codec"
	"github.com/distribudata/movie-pipeline/internal/ids"
)

const (
	// topInvestorCountries is the N in "top N investor countries".
	topInvestorCountries = 5
	// topParticipatingActors is the N in "top N participating actors".
	topParticipatingActors = 10
)

// InvestorCountryAggregator accumulates total invested budget per
// production country, per client.
type InvestorCountryAggregator struct {
	clients map[string]map[string]int64
}

func NewInvestorCountryAggregator() *InvestorCountryAggregator {
	return &InvestorCountryAggregator{clients: make(map[string]map[string]int64)}
}

// Accumulate attributes movie's full budget to every one of its
// production countries (movies reaching this stage are already
// filtered to have both fields present).
func (a *InvestorCountryAggregator) Accumulate(clientID string, movie codec.Movie) {
	totals, ok := a.clients[clientID]
	if !ok {
		totals = make(map[string]int64)
		a.clients[clientID] = totals
	}
	for _, country := range movie.ProductionCountries {
		totals[country] += movie.Budget
	}
}

// Drain returns the client's top investor countries as individual
// InvestorCountry messages, each with a message id deterministically
// derived from the closing EOF's message id and the country name, and
// clears the client's state.
func (a *InvestorCountryAggregator) Drain(clientID string, eofMessageID string) ([]codec.InvestorCountry, error) {
	totals := a.clients[clientID]
	delete(a.clients, clientID)

	type row struct {
		country string
		total   int64
	}
	rows := make([]row, 0, len(totals))
	for country, total := range totals {
		rows = append(rows, row{country, total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].total != rows[j].total {
			return rows[i].total > rows[j].total
		}
		return rows[i].country < rows[j].country
	})
	if len(rows) > topInvestorCountries {
		rows = rows[:topInvestorCountries]
	}

	out := make([]codec.InvestorCountry, 0, len(rows))
	for _, r := range rows {
		messageID, err := ids.Derive(eofMessageID, r.country)
		if err != nil {
			return nil, err
		}
		out = append(out, codec.InvestorCountry{
			Base:       codec.Base{MessageID: messageID, ClientID: clientID},
			Country:    r.country,
			Investment: r.total,
		})
	}
	return out, nil
}

// CleanClientState drops state for a disconnected client without
// emitting a result.
func (a *InvestorCountryAggregator) CleanClientState(clientID string) {
	delete(a.clients, clientID)
}

// ActorParticipationAggregator accumulates appearance counts per actor,
// per client.
type ActorParticipationAggregator struct {
	clients map[string]map[string]int64
}

func NewActorParticipationAggregator() *ActorParticipationAggregator {
	return &ActorParticipationAggregator{clients: make(map[string]map[string]int64)}
}

// Accumulate records one appearance for every actor in credit.Cast.
func (a *ActorParticipationAggregator) Accumulate(clientID string, credit codec.MovieCredit) {
	counts, ok := a.clients[clientID]
	if !ok {
		counts = make(map[string]int64)
		a.clients[clientID] = counts
	}
	for _, actor := range credit.Cast {
		counts[actor]++
	}
}

// Drain returns the client's top participating actors, one
// ActorParticipation message per actor, and clears client state.
func (a *ActorParticipationAggregator) Drain(clientID string, eofMessageID string) ([]codec.ActorParticipation, error) {
	counts := a.clients[clientID]
	delete(a.clients, clientID)

	type row struct {
		actor string
		count int64
	}
	rows := make([]row, 0, len(counts))
	for actor, count := range counts {
		rows = append(rows, row{actor, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].actor < rows[j].actor
	})
	if len(rows) > topParticipatingActors {
		rows = rows[:topParticipatingActors]
	}

	out := make([]codec.ActorParticipation, 0, len(rows))
	for _, r := range rows {
		messageID, err := ids.Derive(eofMessageID, r.actor)
		if err != nil {
			return nil, err
		}
		out = append(out, codec.ActorParticipation{
			Base:          codec.Base{MessageID: messageID, ClientID: clientID},
			Actor:         r.actor,
			Participation: r.count,
		})
	}
	return out, nil
}

func (a *ActorParticipationAggregator) CleanClientState(clientID string) {
	delete(a.clients, clientID)
}

// sentimentTotals is gob-encoded directly by StorageAdapter.Update, which
// refuses a struct with no exported fields — hence exported fields here
// rather than the unexported sum/count a non-persisted accumulator could
// get away with.
type sentimentTotals struct {
	Sum   float64
	Count int64
}

// AvgRateRevenueBudgetAggregator accumulates the revenue/budget ratio
// per sentiment bucket, per client.
type AvgRateRevenueBudgetAggregator struct {
	clients map[string]map[codec.Sentiment]*sentimentTotals
}

func NewAvgRateRevenueBudgetAggregator() *AvgRateRevenueBudgetAggregator {
	return &AvgRateRevenueBudgetAggregator{clients: make(map[string]map[codec.Sentiment]*sentimentTotals)}
}

// Accumulate folds one analyzed movie into its sentiment bucket's
// running ratio average. Movies with a zero budget contribute nothing,
// since the ratio is undefined for them.
func (a *AvgRateRevenueBudgetAggregator) Accumulate(clientID string, movie codec.AnalyzedMovie) {
	if movie.Budget == 0 {
		return
	}
	buckets, ok := a.clients[clientID]
	if !ok {
		buckets = make(map[codec.Sentiment]*sentimentTotals)
		a.clients[clientID] = buckets
	}
	totals, ok := buckets[movie.Sentiment]
	if !ok {
		totals = &sentimentTotals{}
		buckets[movie.Sentiment] = totals
	}
	totals.Sum += movie.Revenue / float64(movie.Budget)
	totals.Count++
}

// Drain returns one AvgRateRevenueBudget message per sentiment bucket
// the client accumulated, and clears client state.
func (a *AvgRateRevenueBudgetAggregator) Drain(clientID string, eofMessageID string) ([]codec.AvgRateRevenueBudget, error) {
	buckets := a.clients[clientID]
	delete(a.clients, clientID)

	sentiments := make([]codec.Sentiment, 0, len(buckets))
	for s := range buckets {
		sentiments = append(sentiments, s)
	}
	sort.Slice(sentiments, func(i, j int) bool { return sentiments[i] < sentiments[j] })

	out := make([]codec.AvgRateRevenueBudget, 0, len(sentiments))
	for _, s := range sentiments {
		totals := buckets[s]
		messageID, err := ids.Derive(eofMessageID, string(s))
		if err != nil {
			return nil, err
		}
		out = append(out, codec.AvgRateRevenueBudget{
			Base:      codec.Base{MessageID: messageID, ClientID: clientID},
			Sentiment: s,
			Avg:       totals.Sum / float64(totals.Count),
		})
	}
	return out, nil
}

func (a *AvgRateRevenueBudgetAggregator) CleanClientState(clientID string) {
	delete(a.clients, clientID)
}

// ratingTotals is gob-encoded directly by StorageAdapter.Update, which
// refuses a struct with no exported fields.
type ratingTotals struct {
	Title string
	Sum   float64
	Count int64
}

// MostLeastRatedMoviesAggregator accumulates a running rating average
// per movie, per client.
type MostLeastRatedMoviesAggregator struct {
	clients map[string]map[int64]*ratingTotals
}

func NewMostLeastRatedMoviesAggregator() *MostLeastRatedMoviesAggregator {
	return &MostLeastRatedMoviesAggregator{clients: make(map[string]map[int64]*ratingTotals)}
}

// Accumulate folds one joined rating into its movie's running average.
func (a *MostLeastRatedMoviesAggregator) Accumulate(clientID string, rating codec.MovieRating) {
	movies, ok := a.clients[clientID]
	if !ok {
		movies = make(map[int64]*ratingTotals)
		a.clients[clientID] = movies
	}
	totals, ok := movies[rating.MovieID]
	if !ok {
		totals = &ratingTotals{Title: rating.Title}
		movies[rating.MovieID] = totals
	}
	totals.Sum += rating.Rating
	totals.Count++
}

// Drain returns the client's most- and least-rated movies as a single
// two-item MovieRatingsBatch (most_least_rated_movies_calculator.py's
// fixed "most_least_rated_movies_calculator" slot key), and clears
// client state. ok is false if the client never reported any ratings.
func (a *MostLeastRatedMoviesAggregator) Drain(clientID string, eofMessageID string) (codec.MovieRatingsBatch, bool, error) {
	movies := a.clients[clientID]
	delete(a.clients, clientID)
	if len(movies) == 0 {
		return codec.MovieRatingsBatch{}, false, nil
	}

	type row struct {
		movieID int64
		title   string
		avg     float64
	}
	rows := make([]row, 0, len(movies))
	for movieID, totals := range movies {
		rows = append(rows, row{movieID, totals.Title, totals.Sum / float64(totals.Count)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].avg != rows[j].avg {
			return rows[i].avg > rows[j].avg
		}
		return rows[i].movieID < rows[j].movieID
	})

	most := rows[0]
	least := rows[len(rows)-1]

	messageID, err := ids.Derive(eofMessageID, "most_least_rated_movies_calculator")
	if err != nil {
		return codec.MovieRatingsBatch{}, false, err
	}
	batch := codec.MovieRatingsBatch{
		Base: codec.Base{MessageID: messageID, ClientID: clientID},
		MovieRatings: []codec.MovieRating{
			{MovieID: most.movieID, Title: most.title, Rating: most.avg},
			{MovieID: least.movieID, Title: least.title, Rating: least.avg},
		},
	}
	return batch, true, nil
}

func (a *MostLeastRatedMoviesAggregator) CleanClientState(clientID string) {
	delete(a.clients, clientID)
}

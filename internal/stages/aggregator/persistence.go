package aggregator

import (
	"github.com/distribudata/movie-pipeline/internal/codec"
	"github.com/distribudata/movie-pipeline/internal/storageadapter"
)

// Persistable is implemented by every aggregator so a cmd/aggregator
// runner can snapshot a client's state after each mutation and restore
// it on startup without knowing which of the four concrete aggregators
// it is driving (spec.md §4.4.4: "snapshots state after each mutation").
type Persistable interface {
	Snapshot(clientID string) any
	Restore(clientID string, state any)
}

func init() {
	storageadapter.RegisterType(map[string]int64{})
	storageadapter.RegisterType(map[codec.Sentiment]*sentimentTotals{})
	storageadapter.RegisterType(map[int64]*ratingTotals{})
}

// Snapshot returns clientID's current country->budget totals, nil if the
// client has no state yet.
func (a *InvestorCountryAggregator) Snapshot(clientID string) any {
	return a.clients[clientID]
}

// Restore replaces clientID's state with a snapshot previously returned
// by Snapshot, as loaded back from storage after a crash.
func (a *InvestorCountryAggregator) Restore(clientID string, state any) {
	totals, ok := state.(map[string]int64)
	if !ok || totals == nil {
		return
	}
	a.clients[clientID] = totals
}

// Snapshot returns clientID's current actor->count totals.
func (a *ActorParticipationAggregator) Snapshot(clientID string) any {
	return a.clients[clientID]
}

// Restore replaces clientID's state with a previously snapshotted map.
func (a *ActorParticipationAggregator) Restore(clientID string, state any) {
	counts, ok := state.(map[string]int64)
	if !ok || counts == nil {
		return
	}
	a.clients[clientID] = counts
}

// Snapshot returns clientID's current per-sentiment revenue/budget totals.
func (a *AvgRateRevenueBudgetAggregator) Snapshot(clientID string) any {
	return a.clients[clientID]
}

// Restore replaces clientID's state with a previously snapshotted map.
func (a *AvgRateRevenueBudgetAggregator) Restore(clientID string, state any) {
	buckets, ok := state.(map[codec.Sentiment]*sentimentTotals)
	if !ok || buckets == nil {
		return
	}
	a.clients[clientID] = buckets
}

// Snapshot returns clientID's current per-movie rating totals.
func (a *MostLeastRatedMoviesAggregator) Snapshot(clientID string) any {
	return a.clients[clientID]
}

// Restore replaces clientID's state with a previously snapshotted map.
func (a *MostLeastRatedMoviesAggregator) Restore(clientID string, state any) {
	movies, ok := state.(map[int64]*ratingTotals)
	if !ok || movies == nil {
		return
	}
	a.clients[clientID] = movies
}

// Package cleaner implements the Data Cleaner: the pipeline's ingest
// front door. One goroutine per connected client reads three
// semicolon-batched CSV streams in a fixed order (movies, ratings,
// credits), turns each into codec batches tagged with the client's id,
// and publishes them onto the bus, closing every stream with an EOF
// token (original_source/controllers/data_cleaner/src/{data_cleaner,
// client_handler,client_state,messages_sender}.py).
package cleaner

import (
	"bufio"
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/codec"
	"github.com/distribudata/movie-pipeline/internal/ids"
	"github.com/distribudata/movie-pipeline/internal/obslog"
	"github.com/distribudata/movie-pipeline/internal/storageadapter"
	"github.com/distribudata/movie-pipeline/internal/wire"
)

// ClientState is the dataset a client is currently streaming.
// Clients always move forward through the states in this order and
// never revisit one (client_state.py).
type ClientState int

const (
	StateMovies ClientState = iota
	StateRatings
	StateCredits
	StateFinished
)

func (s ClientState) String() string {
	switch s {
	case StateMovies:
		return "MOVIES"
	case StateRatings:
		return "RATINGS"
	case StateCredits:
		return "CREDITS"
	default:
		return "FINISHED"
	}
}

// batchSize bounds how many parsed CSV rows accumulate before a batch
// is flushed downstream, mirroring the reference implementation's
// fixed-size batching of each dataset stream.
const batchSize = 500

const connectedClientsFileKey = "connected_clients"

func init() {
	storageadapter.RegisterType(map[string]struct{}{})
}

// Publisher is the subset of the bus client the cleaner needs. Kept as
// an interface so client-handling logic can be tested without a real
// broker connection.
type Publisher interface {
	PublishToQueue(ctx context.Context, queue string, body []byte) error
}

// Queues names the destination queue for each dataset/EOF stream a
// client produces.
type Queues struct {
	Movies  string
	Ratings string
	Credits string
}

// Cleaner owns the set of currently-connected clients and publishes
// their parsed records downstream.
type Cleaner struct {
	publisher Publisher
	storage   *storageadapter.StorageAdapter
	queues    Queues
	logger    *zap.Logger

	mu        sync.Mutex
	connected map[string]struct{}
}

// New constructs a Cleaner. storage may be nil if crash-recovery of
// lingering clients is not needed (e.g. in tests).
func New(publisher Publisher, storage *storageadapter.StorageAdapter, queues Queues, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		publisher: publisher,
		storage:   storage,
		queues:    queues,
		logger:    logger,
		connected: make(map[string]struct{}),
	}
}

// RecoverPreviousClients synthesizes a ClientDisconnected for every
// client left connected across a previous crash, then clears the
// persisted snapshot (data_cleaner.py's
// __notify_disconnection_of_previous_clients). A client mid-stream at
// crash time may be in any of the three stages, so the disconnect
// notice is broadcast to all three downstream queues.
func (c *Cleaner) RecoverPreviousClients(ctx context.Context) error {
	if c.storage == nil {
		return nil
	}
	data, err := c.storage.LoadData(connectedClientsFileKey)
	if err != nil {
		return err
	}
	snapshot, _ := data[""].(map[string]struct{})
	for clientID := range snapshot {
		msg := codec.ClientDisconnected{Base: codec.Base{MessageID: ids.New(), ClientID: clientID}}
		raw, err := codec.Encode(msg)
		if err != nil {
			return err
		}
		for _, queue := range []string{c.queues.Movies, c.queues.Ratings, c.queues.Credits} {
			if err := c.publisher.PublishToQueue(ctx, queue, raw); err != nil {
				return err
			}
		}
		obslog.Action(c.logger, "client_disconnected_recovered", nil, zap.String("client_id", clientID))
	}
	return c.persistConnected()
}

func (c *Cleaner) markConnected(clientID string) error {
	c.mu.Lock()
	c.connected[clientID] = struct{}{}
	c.mu.Unlock()
	return c.persistConnected()
}

func (c *Cleaner) markDisconnected(clientID string) error {
	c.mu.Lock()
	delete(c.connected, clientID)
	c.mu.Unlock()
	return c.persistConnected()
}

func (c *Cleaner) persistConnected() error {
	if c.storage == nil {
		return nil
	}
	c.mu.Lock()
	snapshot := make(map[string]struct{}, len(c.connected))
	for id := range c.connected {
		snapshot[id] = struct{}{}
	}
	c.mu.Unlock()
	return c.storage.Update(connectedClientsFileKey, snapshot, "")
}

// HandleClient drains the client's three CSV streams in order from r,
// publishing batches and a closing EOF for each, then marks the client
// finished. A read error before the credits stream's EOF has been sent
// means the client disconnected mid-stream (client_handler.py:
// "not has_finished_sending()"): every downstream stage must be told via
// a broadcast ClientDisconnected rather than left to infer it, and the
// connected-clients snapshot must drop the client immediately rather
// than wait for a restart to synthesize the notice.
func (c *Cleaner) HandleClient(ctx context.Context, clientID string, r *bufio.Reader) error {
	if err := c.markConnected(clientID); err != nil {
		return err
	}
	obslog.Action(c.logger, "client_connected", nil, zap.String("client_id", clientID))

	stages := []struct {
		state ClientState
		queue string
		parse func(line string) (any, error)
	}{
		{StateMovies, c.queues.Movies, func(line string) (any, error) { return codec.ParseMovieCSVLine(line) }},
		{StateRatings, c.queues.Ratings, func(line string) (any, error) { return codec.ParseRatingCSVLine(line) }},
		{StateCredits, c.queues.Credits, func(line string) (any, error) { return codec.ParseCreditCSVLine(line) }},
	}

	for _, stage := range stages {
		if err := c.drainStage(ctx, clientID, stage.queue, stage.state, r, stage.parse); err != nil {
			if notifyErr := c.notifyDisconnected(ctx, clientID); notifyErr != nil {
				obslog.Action(c.logger, "client_disconnected_notify_failed", notifyErr, zap.String("client_id", clientID))
			}
			return err
		}
	}

	obslog.Action(c.logger, "client_finished", nil, zap.String("client_id", clientID))
	return c.markDisconnected(clientID)
}

// notifyDisconnected broadcasts a ClientDisconnected control message to
// every dataset queue so every stage downstream deletes the client's
// per-client state (spec.md §4.3, §7 "Client disconnect"), and drops
// clientID from the persisted connected-clients snapshot so a restart
// does not also synthesize a second notice for it.
func (c *Cleaner) notifyDisconnected(ctx context.Context, clientID string) error {
	msg := codec.ClientDisconnected{Base: codec.Base{MessageID: ids.New(), ClientID: clientID}}
	raw, err := codec.Encode(msg)
	if err != nil {
		return err
	}
	for _, queue := range []string{c.queues.Movies, c.queues.Ratings, c.queues.Credits} {
		if err := c.publisher.PublishToQueue(ctx, queue, raw); err != nil {
			return err
		}
	}
	obslog.Action(c.logger, "client_disconnected", nil, zap.String("client_id", clientID))
	return c.markDisconnected(clientID)
}

func (c *Cleaner) drainStage(ctx context.Context, clientID, queue string, state ClientState, r *bufio.Reader, parse func(string) (any, error)) error {
	var pending []any
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		raw, err := encodeBatch(state, clientID, pending)
		if err != nil {
			return err
		}
		pending = pending[:0]
		return c.publisher.PublishToQueue(ctx, queue, raw)
	}

	for {
		payload, err := wire.ReadMessage(r)
		if err != nil {
			return fmt.Errorf("cleaner: read %s stream: %w", state, err)
		}
		if wire.IsEOF(payload) {
			if err := flush(); err != nil {
				return err
			}
			eofMsg := codec.NewEOF(ids.New(), clientID)
			body, err := codec.Encode(eofMsg)
			if err != nil {
				return err
			}
			if err := c.publisher.PublishToQueue(ctx, queue, body); err != nil {
				return err
			}
			obslog.Action(c.logger, "stage_eof_sent", nil, zap.String("client_id", clientID), zap.String("stage", state.String()))
			return nil
		}

		rows, err := wire.DecodeBatch(payload)
		if err != nil {
			obslog.Action(c.logger, "batch_decode", err, zap.String("client_id", clientID))
			continue
		}
		for _, row := range rows {
			parsed, err := parse(row)
			if err != nil {
				obslog.Action(c.logger, "line_parse", err, zap.String("client_id", clientID))
				continue
			}
			pending = append(pending, parsed)
			if len(pending) >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
}

func encodeBatch(state ClientState, clientID string, rows []any) ([]byte, error) {
	base := codec.Base{MessageID: ids.New(), ClientID: clientID}
	switch state {
	case StateMovies:
		movies := make([]codec.Movie, len(rows))
		for i, r := range rows {
			movies[i] = r.(codec.Movie)
		}
		return codec.Encode(codec.MoviesBatch{Base: base, Movies: movies})
	case StateRatings:
		ratings := make([]codec.Rating, len(rows))
		for i, r := range rows {
			ratings[i] = r.(codec.Rating)
		}
		return codec.Encode(codec.RatingsBatch{Base: base, Ratings: ratings})
	case StateCredits:
		credits := make([]codec.Credit, len(rows))
		for i, r := range rows {
			credits[i] = r.(codec.Credit)
		}
		return codec.Encode(codec.CreditsBatch{Base: base, Credits: credits})
	default:
		return nil, fmt.Errorf("cleaner: no batch encoding for state %s", state)
	}
}

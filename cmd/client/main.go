// Command client streams the three movie datasets to the pipeline over
// one TCP connection and receives the five queries' results over a
// second, writing each to its own CSV file (spec.md §4.6,
// client/src/client.py + results_receiver.py).
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/config"
	"github.com/distribudata/movie-pipeline/internal/obslog"
	"github.com/distribudata/movie-pipeline/internal/pipelineclient"
	"github.com/distribudata/movie-pipeline/internal/session"
	"github.com/distribudata/movie-pipeline/internal/wire"
)

// queryResultsHeaders mirrors results_receiver.py's QUERY_RESULTS_HEADERS,
// indexed by the same query tags cmd/resultshandler assigns.
var queryResultsHeaders = map[string]string{
	"1": "id,title,genres",
	"2": "country,investment",
	"3": "id,title,avg_rating",
	"4": "actor,participation",
	"5": "sentiment,avg_rate_revenue_budget",
}

type clientConfig struct {
	LoggingLevel     string
	ServerAddrData   string
	ServerAddrResult string
	MoviesPath       string
	RatingsPath      string
	CreditsPath      string
	ResultsDir       string
}

func loadConfig() (clientConfig, error) {
	loader, err := config.NewLoader(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return clientConfig{}, err
	}
	dataPort, err := loader.Int("SERVER_PORT_DATA", 5000)
	if err != nil {
		return clientConfig{}, err
	}
	resultsPort, err := loader.Int("SERVER_PORT_RESULTS", 6000)
	if err != nil {
		return clientConfig{}, err
	}
	return clientConfig{
		LoggingLevel:     loader.String("LOGGING_LEVEL", "INFO"),
		ServerAddrData:   net.JoinHostPort(loader.String("SERVER_IP_DATA", "data_cleaner"), strconv.Itoa(dataPort)),
		ServerAddrResult: net.JoinHostPort(loader.String("SERVER_IP_RESULTS", "results_handler"), strconv.Itoa(resultsPort)),
		MoviesPath:       loader.String("MOVIES_PATH", "/data/movies_metadata.csv"),
		RatingsPath:      loader.String("RATINGS_PATH", "/data/ratings.csv"),
		CreditsPath:      loader.String("CREDITS_PATH", "/data/credits.csv"),
		ResultsDir:       loader.String("RESULTS_DIR", "/results"),
	}, nil
}

// skipHeader opens path and returns a reader positioned after its first
// line, matching client.py's `next(file)` header skip.
func skipHeader(path string) (*os.File, *bufio.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := bufio.NewReader(f)
	if _, err := r.ReadString('\n'); err != nil && err != io.EOF {
		f.Close()
		return nil, nil, err
	}
	return f, r, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "client: configuration error:", err)
		os.Exit(1)
	}
	logger := obslog.New("client", cfg.LoggingLevel)
	defer logger.Sync()

	lifecycle := session.New(logger)
	ctx := lifecycle.Context()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := runSender(ctx, cfg, logger); err != nil {
			obslog.Action(logger, "send_data", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := runReceiver(ctx, cfg, logger); err != nil {
			obslog.Action(logger, "receive_results", err)
		}
	}()
	wg.Wait()
}

func runSender(ctx context.Context, cfg clientConfig, logger *zap.Logger) error {
	conn, err := pipelineclient.Dial(ctx, cfg.ServerAddrData, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	clientID, err := wire.ReadMessage(r)
	if err != nil {
		return fmt.Errorf("client: read client id: %w", err)
	}
	obslog.Action(logger, "client_id_received", nil, zap.String("client_id", clientID))

	datasets := []struct {
		name string
		path string
	}{
		{"movies", cfg.MoviesPath},
		{"ratings", cfg.RatingsPath},
		{"credits", cfg.CreditsPath},
	}

	var entries []pipelineclient.Dataset
	for _, ds := range datasets {
		f, reader, err := skipHeader(ds.path)
		if err != nil {
			return fmt.Errorf("client: open %s: %w", ds.name, err)
		}
		defer f.Close()
		entries = append(entries, pipelineclient.Dataset{Name: ds.name, Source: reader})
	}

	return pipelineclient.SendDatasets(conn, entries, logger)
}

func runReceiver(ctx context.Context, cfg clientConfig, logger *zap.Logger) error {
	conn, err := pipelineclient.Dial(ctx, cfg.ServerAddrResult, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	clientID := os.Getenv("CLIENT_ID")
	if err := wire.WriteMessage(conn, clientID); err != nil {
		return fmt.Errorf("client: send_id: %w", err)
	}
	obslog.Action(logger, "send_id", nil, zap.String("client_id", clientID))

	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return err
	}
	return pipelineclient.ReceiveResults(bufio.NewReader(conn), queryResultsHeaders, cfg.ResultsDir, logger)
}

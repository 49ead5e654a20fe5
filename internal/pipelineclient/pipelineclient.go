// Package pipelineclient implements the pipeline-facing client: a
// sender that streams the three CSV datasets to the Data Cleaner over a
// reconnecting TCP connection, and a results receiver that demuxes the
// five queries' result rows off one socket into five output files
// (original_source/client/src/{client,results_receiver}.py).
package pipelineclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/obslog"
	"github.com/distribudata/movie-pipeline/internal/wire"
)

// maxSendAttempts bounds reconnect attempts for the sender, per
// spec.md's "capped at 5 attempts" requirement.
const maxSendAttempts = 5

// sendBatchSize bounds how many CSV lines accumulate into one framed
// transport message before being flushed.
const sendBatchSize = 500

// Dataset is one of the three CSV streams the sender uploads in order.
type Dataset struct {
	Name   string
	Source io.Reader
}

// Dial opens a TCP connection to addr, retrying with exponential
// backoff up to maxSendAttempts times.
func Dial(ctx context.Context, addr string, logger *zap.Logger) (net.Conn, error) {
	var conn net.Conn
	policy := backoff.WithMaxRetries(backoff.WithContext(backoff.NewExponentialBackOff(), ctx), maxSendAttempts-1)
	err := backoff.Retry(func() error {
		var dialErr error
		conn, dialErr = (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		return dialErr
	}, policy)
	if err != nil {
		obslog.Action(logger, "client_dial", err, zap.String("addr", addr))
		return nil, fmt.Errorf("pipelineclient: dial %s: %w", addr, err)
	}
	obslog.Action(logger, "client_dial", nil, zap.String("addr", addr))
	return conn, nil
}

// SendDatasets streams every line of each dataset to w in order,
// batching lines up to sendBatchSize before flushing, and writes the
// EOF sentinel once each dataset is exhausted.
func SendDatasets(w io.Writer, datasets []Dataset, logger *zap.Logger) error {
	for _, ds := range datasets {
		if err := sendOneDataset(w, ds); err != nil {
			return fmt.Errorf("pipelineclient: send %s: %w", ds.Name, err)
		}
		obslog.Action(logger, "dataset_sent", nil, zap.String("dataset", ds.Name))
	}
	return nil
}

func sendOneDataset(w io.Writer, ds Dataset) error {
	sc := bufio.NewScanner(ds.Source)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var pending []string
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		payload, err := wire.EncodeBatch(pending)
		if err != nil {
			return err
		}
		pending = pending[:0]
		return wire.WriteMessage(w, payload)
	}
	for sc.Scan() {
		pending = append(pending, sc.Text())
		if len(pending) >= sendBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}
	return wire.WriteMessage(w, wire.EOFSentinel)
}

// QueryOutputs maps a query's wire tag to the file its rows are
// appended to.
type QueryOutputs map[string]*os.File

// ReceiveResults reads tagged result rows off r until the connection
// closes, appending each row to its query's output file (opening it
// with header on first use) and closing the file once that query's EOF
// tag arrives.
func ReceiveResults(r *bufio.Reader, headers map[string]string, outDir string, logger *zap.Logger) error {
	files := make(QueryOutputs)
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for {
		payload, err := wire.ReadMessage(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("pipelineclient: read results: %w", err)
		}
		query, line, ok := strings.Cut(payload, "\t")
		if !ok {
			return fmt.Errorf("pipelineclient: malformed result row %q", payload)
		}

		f, ok := files[query]
		if !ok {
			var err error
			f, err = openResultFile(outDir, query, headers[query])
			if err != nil {
				return err
			}
			files[query] = f
		}

		if wire.IsEOF(line) {
			f.Close()
			delete(files, query)
			obslog.Action(logger, "query_results_closed", nil, zap.String("query", query))
			continue
		}
		if _, err := fmt.Fprintln(f, line); err != nil {
			return err
		}
	}
}

func openResultFile(outDir, query, header string) (*os.File, error) {
	path := outDir + string(os.PathSeparator) + query + ".csv"
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if header != "" {
		if _, err := fmt.Fprintln(f, header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

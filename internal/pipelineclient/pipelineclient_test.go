package pipelineclient

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/distribudata/movie-pipeline/internal/wire"
)

func TestSendDatasetsFramesLinesAndEOF(t *testing.T) {
	var buf bytes.Buffer
	datasets := []Dataset{
		{Name: "movies", Source: strings.NewReader("line1\nline2\n")},
		{Name: "ratings", Source: strings.NewReader("r1\n")},
	}
	require.NoError(t, SendDatasets(&buf, datasets, zaptest.NewLogger(t)))

	r := bufio.NewReader(&buf)

	batch, err := wire.ReadMessage(r)
	require.NoError(t, err)
	rows, err := wire.DecodeBatch(batch)
	require.NoError(t, err)
	require.Equal(t, []string{"line1", "line2"}, rows)

	eof, err := wire.ReadMessage(r)
	require.NoError(t, err)
	require.True(t, wire.IsEOF(eof))

	batch2, err := wire.ReadMessage(r)
	require.NoError(t, err)
	rows2, err := wire.DecodeBatch(batch2)
	require.NoError(t, err)
	require.Equal(t, []string{"r1"}, rows2)

	eof2, err := wire.ReadMessage(r)
	require.NoError(t, err)
	require.True(t, wire.IsEOF(eof2))
}

func TestReceiveResultsDemuxesQueriesIntoSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, wire.WriteMessage(&buf, "investor_countries\tUS,100"))
	require.NoError(t, wire.WriteMessage(&buf, "actor_participation\tAlice,4"))
	require.NoError(t, wire.WriteMessage(&buf, "investor_countries\t"+wire.EOFSentinel))
	require.NoError(t, wire.WriteMessage(&buf, "actor_participation\t"+wire.EOFSentinel))

	headers := map[string]string{
		"investor_countries":   "country,investment",
		"actor_participation": "actor,participation",
	}
	r := bufio.NewReader(&buf)
	require.NoError(t, ReceiveResults(r, headers, dir, zaptest.NewLogger(t)))

	investorContents, err := os.ReadFile(dir + "/investor_countries.csv")
	require.NoError(t, err)
	require.Equal(t, "country,investment\nUS,100\n", string(investorContents))

	actorContents, err := os.ReadFile(dir + "/actor_participation.csv")
	require.NoError(t, err)
	require.Equal(t, "actor,participation\nAlice,4\n", string(actorContents))
}

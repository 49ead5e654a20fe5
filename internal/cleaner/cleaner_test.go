package cleaner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/distribudata/movie-pipeline/internal/codec"
	"github.com/distribudata/movie-pipeline/internal/wire"
)

type fakePublisher struct {
	byQueue map[string][][]byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{byQueue: make(map[string][][]byte)}
}

func (f *fakePublisher) PublishToQueue(_ context.Context, queue string, body []byte) error {
	f.byQueue[queue] = append(f.byQueue[queue], body)
	return nil
}

func writeBatch(t *testing.T, buf *bytes.Buffer, lines []string) {
	t.Helper()
	payload, err := wire.EncodeBatch(lines)
	require.NoError(t, err)
	require.NoError(t, wire.WriteMessage(buf, payload))
}

func writeEOF(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	require.NoError(t, wire.WriteMessage(buf, wire.EOFSentinel))
}

func csvRow(fields []string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(fields)
	w.Flush()
	return strings.TrimSuffix(sb.String(), "\r\n")
}

func movieLine(id int64, title string) string {
	fields := make([]string, 24)
	fields[2] = "0"
	fields[5] = strconv.FormatInt(id, 10)
	fields[14] = "2000-01-01"
	fields[15] = "0"
	fields[20] = title
	return csvRow(fields)
}

func ratingLine(movieID int64, rating float64) string {
	return csvRow([]string{"", strconv.FormatInt(movieID, 10), strconv.FormatFloat(rating, 'f', -1, 64), ""})
}

func creditLine(movieID int64, cast []string) string {
	names := "[" + strings.Join(quoteEach(cast), ", ") + "]"
	return csvRow([]string{names, "", strconv.FormatInt(movieID, 10)})
}

func quoteEach(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "'" + n + "'"
	}
	return out
}

func TestHandleClientPublishesBatchesAndEOFsInOrder(t *testing.T) {
	var buf bytes.Buffer

	writeBatch(t, &buf, []string{movieLine(42, "Title")})
	writeEOF(t, &buf)

	writeBatch(t, &buf, []string{ratingLine(42, 4.5)})
	writeEOF(t, &buf)

	writeBatch(t, &buf, []string{creditLine(42, []string{"Actor A"})})
	writeEOF(t, &buf)

	pub := newFakePublisher()
	queues := Queues{Movies: "movies_q", Ratings: "ratings_q", Credits: "credits_q"}
	c := New(pub, nil, queues, zaptest.NewLogger(t))

	r := bufio.NewReader(&buf)
	require.NoError(t, c.HandleClient(context.Background(), "client-1", r))

	require.Len(t, pub.byQueue["movies_q"], 2)
	require.Len(t, pub.byQueue["ratings_q"], 2)
	require.Len(t, pub.byQueue["credits_q"], 2)

	decoded, err := codec.Decode(pub.byQueue["movies_q"][0])
	require.NoError(t, err)
	moviesBatch, ok := decoded.(codec.MoviesBatch)
	require.True(t, ok)
	require.Len(t, moviesBatch.Movies, 1)
	require.Equal(t, "client-1", moviesBatch.ClientID)
	require.Equal(t, "Title", moviesBatch.Movies[0].Title)

	decodedEOF, err := codec.Decode(pub.byQueue["credits_q"][1])
	require.NoError(t, err)
	_, ok = decodedEOF.(codec.EOF)
	require.True(t, ok)
}

func TestHandleClientDisconnectMidStreamBroadcastsClientDisconnected(t *testing.T) {
	var buf bytes.Buffer
	writeBatch(t, &buf, []string{movieLine(42, "Title")})
	writeEOF(t, &buf)
	// Ratings stream starts but the connection drops before its own EOF
	// arrives: the remaining bytes are truncated, so wire.ReadMessage
	// eventually hits an error reading the length prefix.
	writeBatch(t, &buf, []string{ratingLine(42, 4.5)})

	pub := newFakePublisher()
	queues := Queues{Movies: "movies_q", Ratings: "ratings_q", Credits: "credits_q"}
	c := New(pub, nil, queues, zaptest.NewLogger(t))

	r := bufio.NewReader(&buf)
	err := c.HandleClient(context.Background(), "client-3", r)
	require.Error(t, err)

	for _, queue := range []string{"movies_q", "ratings_q", "credits_q"} {
		messages := pub.byQueue[queue]
		require.NotEmpty(t, messages)
		decoded, decErr := codec.Decode(messages[len(messages)-1])
		require.NoError(t, decErr)
		disconnected, ok := decoded.(codec.ClientDisconnected)
		require.True(t, ok, "expected last message on %s to be ClientDisconnected", queue)
		require.Equal(t, "client-3", disconnected.ClientID)
	}
}

func TestHandleClientCleanFinishDoesNotBroadcastClientDisconnected(t *testing.T) {
	var buf bytes.Buffer
	writeBatch(t, &buf, []string{movieLine(42, "Title")})
	writeEOF(t, &buf)
	writeBatch(t, &buf, []string{ratingLine(42, 4.5)})
	writeEOF(t, &buf)
	writeBatch(t, &buf, []string{creditLine(42, []string{"Actor A"})})
	writeEOF(t, &buf)

	pub := newFakePublisher()
	queues := Queues{Movies: "movies_q", Ratings: "ratings_q", Credits: "credits_q"}
	c := New(pub, nil, queues, zaptest.NewLogger(t))

	r := bufio.NewReader(&buf)
	require.NoError(t, c.HandleClient(context.Background(), "client-4", r))

	for _, queue := range []string{"movies_q", "ratings_q", "credits_q"} {
		for _, raw := range pub.byQueue[queue] {
			decoded, decErr := codec.Decode(raw)
			require.NoError(t, decErr)
			_, ok := decoded.(codec.ClientDisconnected)
			require.False(t, ok, "did not expect ClientDisconnected on a clean finish")
		}
	}
}

func TestHandleClientSkipsMalformedLinesWithoutFailing(t *testing.T) {
	var buf bytes.Buffer
	writeBatch(t, &buf, []string{"not,enough,fields"})
	writeEOF(t, &buf)
	writeEOF(t, &buf)
	writeEOF(t, &buf)

	pub := newFakePublisher()
	queues := Queues{Movies: "movies_q", Ratings: "ratings_q", Credits: "credits_q"}
	c := New(pub, nil, queues, zaptest.NewLogger(t))

	r := bufio.NewReader(&buf)
	require.NoError(t, c.HandleClient(context.Background(), "client-2", r))
	require.Len(t, pub.byQueue["movies_q"], 1)

	decoded, err := codec.Decode(pub.byQueue["movies_q"][0])
	require.NoError(t, err)
	_, ok := decoded.(codec.EOF)
	require.True(t, ok)
}

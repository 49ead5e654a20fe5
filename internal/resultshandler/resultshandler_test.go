package resultshandler

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/distribudata/movie-pipeline/internal/codec"
	"github.com/distribudata/movie-pipeline/internal/wire"
)

func TestHandlerRoutesRenderedRowToClientSocket(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	registry := NewSocketRegistry(zaptest.NewLogger(t))
	registry.Register("client-1", server)

	h := NewHandler("investor_countries", registry, RenderInvestorCountry, zaptest.NewLogger(t))

	msg := codec.InvestorCountry{Base: codec.Base{MessageID: "m1", ClientID: "client-1"}, Country: "US", Investment: 100}
	raw, err := codec.Encode(msg)
	require.NoError(t, err)

	require.NoError(t, h.HandleMessage(raw))

	r := bufio.NewReader(client)
	line, err := wire.ReadMessage(r)
	require.NoError(t, err)
	require.Equal(t, "investor_countries\tUS,100", line)
}

func TestHandlerDropsDuplicateMessageID(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	registry := NewSocketRegistry(zaptest.NewLogger(t))
	registry.Register("client-1", server)
	h := NewHandler("investor_countries", registry, RenderInvestorCountry, zaptest.NewLogger(t))

	msg := codec.InvestorCountry{Base: codec.Base{MessageID: "dup", ClientID: "client-1"}, Country: "US", Investment: 1}
	raw, err := codec.Encode(msg)
	require.NoError(t, err)

	require.NoError(t, h.HandleMessage(raw))
	require.NoError(t, h.HandleMessage(raw))

	r := bufio.NewReader(client)
	_, err = wire.ReadMessage(r)
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err = wire.ReadMessage(r)
	require.Error(t, err, "expected no second message for a duplicate message id")
}

func TestHandlerForwardsEOFAsSentinel(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	registry := NewSocketRegistry(zaptest.NewLogger(t))
	registry.Register("client-1", server)
	h := NewHandler("investor_countries", registry, RenderInvestorCountry, zaptest.NewLogger(t))

	eof := codec.NewEOF("m1", "client-1")
	raw, err := codec.Encode(eof)
	require.NoError(t, err)
	require.NoError(t, h.HandleMessage(raw))

	r := bufio.NewReader(client)
	line, err := wire.ReadMessage(r)
	require.NoError(t, err)
	require.Equal(t, "investor_countries\t"+wire.EOFSentinel, line)
}

package session

import (
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("finding free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServeHealthChecksAcceptsConnections(t *testing.T) {
	lifecycle := New(zap.NewNop())
	defer lifecycle.Stop()

	port := freePort(t)
	started := make(chan error, 1)
	go func() { started <- lifecycle.ServeHealthChecks(port) }()

	var conn net.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, err = net.DialTimeout("tcp", portAddr(port), 100*time.Millisecond)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("expected health port to accept a connection, got %v", err)
	}
	conn.Close()
}

func TestStopCancelsContext(t *testing.T) {
	lifecycle := New(zap.NewNop())
	select {
	case <-lifecycle.Context().Done():
		t.Fatal("context cancelled before Stop was called")
	default:
	}
	lifecycle.Stop()
	select {
	case <-lifecycle.Context().Done():
	default:
		t.Fatal("expected context to be cancelled after Stop")
	}
}

func TestServeHealthChecksStopsOnContextCancel(t *testing.T) {
	lifecycle := New(zap.NewNop())
	port := freePort(t)
	done := make(chan error, 1)
	go func() { done <- lifecycle.ServeHealthChecks(port) }()

	time.Sleep(50 * time.Millisecond)
	lifecycle.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected ServeHealthChecks to return after context cancellation")
	}
}

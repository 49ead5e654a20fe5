// Package session gives every long-running process (stage, cleaner,
// results handler, health guard) the same shutdown and health-check
// plumbing: a context cancelled on SIGTERM/SIGINT, and a TCP listener
// that answers health probes by accepting and immediately closing the
// connection (common/monitorable.py + common/health_checks_receiver.py).
package session

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/obslog"
)

// Lifecycle carries the cancellation context every long-running loop in
// a process should select on.
type Lifecycle struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

// New installs a SIGTERM/SIGINT handler that cancels the returned
// context once.
func New(logger *zap.Logger) *Lifecycle {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-sig
		logger.Info("shutdown_signal_received", zap.String("signal", s.String()))
		cancel()
	}()
	return &Lifecycle{ctx: ctx, cancel: cancel, logger: logger}
}

// Context is cancelled once a shutdown signal arrives.
func (l *Lifecycle) Context() context.Context { return l.ctx }

// Stop cancels the context directly, for tests and for callers that
// decide to shut down without an OS signal.
func (l *Lifecycle) Stop() { l.cancel() }

// ServeHealthChecks listens on port and, until the lifecycle's context
// is cancelled, accepts every connection and closes it immediately —
// the health guard only cares that the dial succeeded.
func (l *Lifecycle) ServeHealthChecks(port int) error {
	listener, err := net.Listen("tcp", portAddr(port))
	if err != nil {
		obslog.Action(l.logger, "health_checks_receiver_started", err, zap.Int("port", port))
		return err
	}
	obslog.Action(l.logger, "health_checks_receiver_started", nil, zap.Int("port", port))

	go func() {
		<-l.ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-l.ctx.Done():
				return nil
			default:
				l.logger.Error("accept_connection_failed", zap.Error(err))
				continue
			}
		}
		l.logger.Info("received_health_check", zap.String("from", conn.RemoteAddr().String()))
		conn.Close()
	}
}

func portAddr(port int) string {
	return ":" + strconv.Itoa(port)
}

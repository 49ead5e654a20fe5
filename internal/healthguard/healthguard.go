// Package healthguard implements the fleet-wide liveness ring: every
// guard is responsible for a deterministic subset of the fleet, dials
// each guarded container's health port, and asks the container
// supervisor to restart whatever fails to answer
// (original_source/health_guard/src/health_guard.py).
package healthguard

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/obslog"
)

// dialTimeout bounds a single health-check connect attempt
// (HEALTH_CHECK_TIMEOUT in health_guard.py).
const dialTimeout = 5 * time.Second

// Container is the subset of a supervisor-reported container this
// package needs: its name and the address its health check dials.
type Container struct {
	Name    string
	Address string
}

// Supervisor is the external container orchestrator contract (spec.md
// §1 "container supervisor ... treated as an external service"):
// list containers in the guarded project, restart one by name.
type Supervisor interface {
	ListContainers(ctx context.Context) ([]Container, error)
	Restart(ctx context.Context, name string) error
}

// Config parameterizes one guard in the ring.
type Config struct {
	ID                  int
	ClusterSize         int
	ServicePrefix       string
	DontGuardContainers []string
	HealthCheckPort     int
	CheckInterval       time.Duration
}

// Guard is one member of the health-guard ring.
type Guard struct {
	cfg        Config
	supervisor Supervisor
	logger     *zap.Logger
	breakers   map[string]*gobreaker.CircuitBreaker
}

// New builds a Guard that checks containers via supervisor.
func New(cfg Config, supervisor Supervisor, logger *zap.Logger) *Guard {
	return &Guard{
		cfg:        cfg,
		supervisor: supervisor,
		logger:     logger,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// hashName deterministically maps a container name to an integer, the
// Go equivalent of Python's hash(container.name) (health_guard.py's
// __should_guard) — xxhash gives every guard process the same answer,
// unlike CPython's per-process-randomized hash() without a pinned seed.
func hashName(name string) uint64 {
	return xxhash.Sum64String(name)
}

// ShouldGuard reports whether this guard owns container, per spec.md
// Open Question (d): a guard-role container is owned by
// id % cluster_size + 1 of its peer guards (guard-on-guard); every other
// container is owned by hash(name) % cluster_size + 1, unless it's on
// the fixed allow-list, which no guard ever touches.
func (g *Guard) ShouldGuard(name string) bool {
	if isGuardContainer(name, g.cfg.ServicePrefix) {
		guardID := lastSegmentInt(name)
		return guardID == g.cfg.ID%g.cfg.ClusterSize+1
	}
	for _, allowed := range g.cfg.DontGuardContainers {
		if strings.HasPrefix(name, allowed) {
			return false
		}
	}
	return int(hashName(name)%uint64(g.cfg.ClusterSize))+1 == g.cfg.ID
}

func isGuardContainer(name, servicePrefix string) bool {
	return servicePrefix != "" && strings.HasPrefix(name, servicePrefix)
}

func lastSegmentInt(name string) int {
	parts := strings.Split(name, "_")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return -1
	}
	return n
}

func (g *Guard) breakerFor(name string) *gobreaker.CircuitBreaker {
	if b, ok := g.breakers[name]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: g.cfg.CheckInterval * 2,
	})
	g.breakers[name] = b
	return b
}

// Check dials container's health port once, through a per-container
// circuit breaker so a sustained outage stops being hammered every
// cycle (enrichment over the distilled spec, grounded on the teacher's
// internal/circuitbreaker pattern applied via sony/gobreaker).
func (g *Guard) Check(ctx context.Context, c Container) error {
	breaker := g.breakerFor(c.Name)
	_, err := breaker.Execute(func() (any, error) {
		addr := net.JoinHostPort(c.Address, strconv.Itoa(g.cfg.HealthCheckPort))
		conn, dialErr := net.DialTimeout("tcp", addr, dialTimeout)
		if dialErr != nil {
			return nil, dialErr
		}
		return nil, conn.Close()
	})
	return err
}

// RunOnce lists the fleet, checks every container this guard owns, and
// restarts the ones that fail — one pass of health_guard.py's run loop.
func (g *Guard) RunOnce(ctx context.Context) error {
	containers, err := g.supervisor.ListContainers(ctx)
	if err != nil {
		obslog.Action(g.logger, "list_containers", err)
		return err
	}
	for _, c := range containers {
		if !g.ShouldGuard(c.Name) {
			continue
		}
		if err := g.Check(ctx, c); err != nil {
			obslog.Action(g.logger, "health_check", err, zap.String("container", c.Name))
			if restartErr := g.supervisor.Restart(ctx, c.Name); restartErr != nil {
				obslog.Action(g.logger, "revive", restartErr, zap.String("container", c.Name))
				continue
			}
			obslog.Action(g.logger, "revive", nil, zap.String("container", c.Name))
			continue
		}
		obslog.Action(g.logger, "health_check", nil, zap.String("container", c.Name))
	}
	return nil
}

// Run repeats RunOnce every cfg.CheckInterval until ctx is cancelled.
func (g *Guard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		if err := g.RunOnce(ctx); err != nil {
			obslog.Action(g.logger, "health_guard_cycle", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

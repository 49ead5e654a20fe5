// Command healthguard runs one member of the health-guard ring: it
// periodically lists the compose project's containers, checks the ones
// it owns, and asks Docker to restart whichever stop answering
// (spec.md §4.8, original_source/health_guard/src/health_guard.py).
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/distribudata/movie-pipeline/internal/config"
	"github.com/distribudata/movie-pipeline/internal/healthguard"
	"github.com/distribudata/movie-pipeline/internal/metrics"
	"github.com/distribudata/movie-pipeline/internal/obslog"
	"github.com/distribudata/movie-pipeline/internal/session"
)

type stageConfig struct {
	config.Base
	ServicePrefix       string
	DontGuardContainers []string
	ComposeProjectName  string
	DockerSocket        string
	CheckInterval       time.Duration
}

func loadConfig() (stageConfig, error) {
	loader, err := config.NewLoader(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return stageConfig{}, err
	}
	base, err := config.LoadBase(loader)
	if err != nil {
		return stageConfig{}, err
	}
	interval, err := loader.Duration("CHECK_INTERVAL", 5*time.Second)
	if err != nil {
		return stageConfig{}, err
	}
	return stageConfig{
		Base:                base,
		ServicePrefix:       loader.String("SERVICE_PREFIX", "health_guard"),
		DontGuardContainers: loader.StringList("DONT_GUARD_CONTAINERS"),
		ComposeProjectName:  loader.String("COMPOSE_PROJECT_NAME", "movie-pipeline"),
		DockerSocket:        loader.String("DOCKER_SOCKET", "/var/run/docker.sock"),
		CheckInterval:       interval,
	}, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "healthguard: configuration error:", err)
		os.Exit(1)
	}
	logger := obslog.New("healthguard", cfg.LoggingLevel)
	defer logger.Sync()

	lifecycle := session.New(logger)
	go metrics.Serve(":" + strconv.Itoa(cfg.ServerPort))
	go lifecycle.ServeHealthChecks(cfg.HealthCheckPort)

	supervisor := healthguard.NewDockerSupervisor(cfg.DockerSocket, cfg.ComposeProjectName)
	guard := healthguard.New(healthguard.Config{
		ID:                  cfg.ID,
		ClusterSize:         cfg.ClusterSize,
		ServicePrefix:       cfg.ServicePrefix,
		DontGuardContainers: cfg.DontGuardContainers,
		HealthCheckPort:     cfg.HealthCheckPort,
		CheckInterval:       cfg.CheckInterval,
	}, supervisor, logger)

	obslog.Action(logger, "health_guard_started", nil, zap.Int("id", cfg.ID), zap.Int("cluster_size", cfg.ClusterSize))
	guard.Run(lifecycle.Context())
}

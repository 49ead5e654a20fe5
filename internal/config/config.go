// Package config loads per-process configuration the way every role in
// the pipeline does: defaults come from a ".ini"-style key=value file,
// environment variables override them. See Open Question (a) in
// SPEC_FULL.md — env overrides file, never the reverse.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Base holds the configuration keys common to every long-running process
// (cmd/*), per spec.md §6 ("Every long-running process reads its
// configuration from environment variables; a .ini file provides
// defaults").
type Base struct {
	ServerPort         int
	LoggingLevel       string
	StoragePath        string
	FailureProbability float64
	ClusterSize        int
	ID                  int
	HealthCheckPort    int
}

// Loader reads a defaults file (if present) then overlays the process
// environment, key by key.
type Loader struct {
	env map[string]string
}

// NewLoader reads defaultsFile (an .ini-like KEY=VALUE file; missing file
// is not an error, matching the teacher's permissive godotenv usage in
// internal/config) and overlays os.Environ() on top of it.
func NewLoader(defaultsFile string) (*Loader, error) {
	fileValues := map[string]string{}
	if defaultsFile != "" {
		if _, err := os.Stat(defaultsFile); err == nil {
			values, err := godotenv.Read(defaultsFile)
			if err != nil {
				return nil, fmt.Errorf("config: reading defaults file %s: %w", defaultsFile, err)
			}
			fileValues = values
		}
	}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		fileValues[parts[0]] = parts[1]
	}
	return &Loader{env: fileValues}, nil
}

// String returns the raw value for key, or def if absent.
func (l *Loader) String(key, def string) string {
	if v, ok := l.env[key]; ok && v != "" {
		return v
	}
	return def
}

// Int returns the parsed integer for key, or def if absent; a value that
// does not parse is an error.
func (l *Loader) Int(key string, def int) (int, error) {
	v, ok := l.env[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid int for %s: %q", key, v)
	}
	return n, nil
}

// Float returns the parsed float for key, or def if absent; a value that
// does not parse is an error.
func (l *Loader) Float(key string, def float64) (float64, error) {
	v, ok := l.env[key]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid float for %s: %q", key, v)
	}
	return f, nil
}

// Duration returns the parsed duration for key, or def if absent; a
// value that does not parse is an error.
func (l *Loader) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := l.env[key]
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid duration for %s: %q", key, v)
	}
	return d, nil
}

// StringList splits a comma-separated value, trimming whitespace around
// each element; an absent key returns nil.
func (l *Loader) StringList(key string) []string {
	v, ok := l.env[key]
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadBase parses the keys common to every process. Configuration errors
// abort the process per spec.md §7 ("Configuration errors: raise at
// startup, abort").
func LoadBase(l *Loader) (Base, error) {
	var b Base
	var err error

	b.ServerPort, err = l.Int("SERVER_PORT", 0)
	if err != nil {
		return b, err
	}
	b.LoggingLevel = l.String("LOGGING_LEVEL", "INFO")
	b.StoragePath = l.String("STORAGE_PATH", "")
	if b.StoragePath == "" {
		return b, fmt.Errorf("config: STORAGE_PATH is required")
	}

	b.FailureProbability, err = l.Float("FAILURE_PROBABILITY", 0)
	if err != nil {
		return b, err
	}
	if b.FailureProbability < 0 || b.FailureProbability > 1 {
		return b, fmt.Errorf("config: FAILURE_PROBABILITY must be within [0,1], got %f", b.FailureProbability)
	}

	b.ClusterSize, err = l.Int("CLUSTER_SIZE", 1)
	if err != nil {
		return b, err
	}
	if b.ClusterSize < 1 {
		return b, fmt.Errorf("config: CLUSTER_SIZE must be >= 1")
	}

	b.ID, err = l.Int("ID", 1)
	if err != nil {
		return b, err
	}
	if b.ID < 1 || b.ID > b.ClusterSize {
		return b, fmt.Errorf("config: ID must be within [1, CLUSTER_SIZE]")
	}

	b.HealthCheckPort, err = l.Int("HEALTH_CHECK_PORT", 9911)
	if err != nil {
		return b, err
	}

	return b, nil
}

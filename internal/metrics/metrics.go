// Package metrics exposes the pipeline's Prometheus registry over HTTP,
// the way the teacher's cmd/cb-monitor wires gorilla/mux to
// promhttp.Handler.
package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve starts an HTTP server exposing /metrics on addr. Callers run it
// in its own goroutine; it returns only when the listener fails.
func Serve(addr string) error {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, r)
}

package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the optional --metrics-addr listener (SPEC_FULL.md §4.7),
// grounded on the go-chi/chi router pattern the example pack's xg2g API
// uses for its own /healthz and metrics-middleware routes.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server exposing /metrics (Prometheus text format) and
// /healthz on addr. It does not start listening until Start is called.
func NewServer(addr string) *Server {
	r := chi.NewRouter()
	r.Get("/metrics", promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{httpServer: &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start runs the listener in a background goroutine. Errors other than a
// clean shutdown are dropped on the floor: a metrics listener failing is
// never allowed to fail the supervised run itself (spec.md §6's runner
// contract covers only the supervise-and-verify path).
func (s *Server) Start() {
	go func() {
		_ = s.httpServer.ListenAndServe()
	}()
}

// Shutdown stops the listener, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

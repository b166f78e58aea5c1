// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the query path.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"raglayer/src/log"
)

var (
	// ChunksIndexed counts chunks written to the vector and keyword indexes
	ChunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raglayer_chunks_indexed_total",
		Help: "Total number of chunks indexed",
	})

	// IndexJobs counts background index jobs by outcome
	IndexJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raglayer_index_jobs_total",
		Help: "Total number of index jobs processed",
	}, []string{"status"})

	// Searches counts retrieval requests by mode
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raglayer_searches_total",
		Help: "Total number of search requests",
	}, []string{"mode"})

	// Completions counts chat completions generated
	Completions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raglayer_completions_total",
		Help: "Total number of chat completions generated",
	})

	// CompletionDuration observes end to end completion latency
	CompletionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "raglayer_completion_duration_seconds",
		Help:    "Time spent generating a chat completion",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

// Server serves the Prometheus scrape endpoint
type Server struct {
	srv *http.Server
}

func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Start() {
	go func() {
		log.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "metrics server failed")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// internal/monitor/server.go
package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server is the HTTP surface: /health always, /metrics and any extra
// routes (the websocket endpoint) when mounted.
type Server struct {
	srv *http.Server
	mux *http.ServeMux
	log *logrus.Entry
}

// NewServer builds the server. Metrics may be nil to leave /metrics off.
func NewServer(listen string, m *Metrics, log *logrus.Entry) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	return &Server{
		srv: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		mux: mux,
		log: log,
	}
}

// Handle mounts an extra route. Call before Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Start serves in the background.
func (s *Server) Start() {
	s.log.Infof("http server listening on %s", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("http server error: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

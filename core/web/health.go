// Package web serves the optional health endpoint.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mehradnfi/shadwbot/core/buildinfo"
	"github.com/mehradnfi/shadwbot/core/ledger"
	"github.com/mehradnfi/shadwbot/core/logger"
	"log/slog"
)

// HealthServer answers liveness probes with build info and a user count.
type HealthServer struct {
	srv   *http.Server
	store *ledger.Store
}

// NewHealthServer builds a server bound to addr. A nil store reports zero users.
func NewHealthServer(addr string, store *ledger.Store) *HealthServer {
	h := &HealthServer{store: store}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealthz)
	h.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return h
}

// Start serves in the background until Stop is called.
func (h *HealthServer) Start() {
	go func() {
		logger.Info(logger.Background(), "web", "health.listen",
			slog.String("status", "ok"),
			slog.String("addr", h.srv.Addr),
		)
		if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(logger.Background(), "web", "health.serve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Stop gracefully shuts the server down.
func (h *HealthServer) Stop(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}

func (h *HealthServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	users := 0
	if h.store != nil {
		users = h.store.Len()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"users":   users,
	})
}

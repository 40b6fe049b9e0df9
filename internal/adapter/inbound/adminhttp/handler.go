// Package adminhttp serves the liveness and readiness endpoints that run
// next to the SSE transport.
package adminhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/inovexcorp/mobi-mcp/internal/adapter/outbound/mobi"
)

// CatalogPinger is the slice of the catalog client the readiness check needs.
type CatalogPinger interface {
	ListRecords(ctx context.Context, p mobi.ListRecordsParams) (any, error)
}

// Handlers holds dependencies for the admin HTTP handlers.
type Handlers struct {
	client CatalogPinger
	logger *slog.Logger
}

// NewHandlers creates a new Handlers struct.
func NewHandlers(client CatalogPinger, logger *slog.Logger) *Handlers {
	return &Handlers{
		client: client,
		logger: logger.With("component", "admin_handler"),
	}
}

// Register sets up the admin routes.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleReadyz)
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// handleReadyz asks the backend for a single record from the local catalog.
// The client collapses every failure to nil, so an absent result means the
// backend is unreachable or unhealthy.
func (h *Handlers) handleReadyz(w http.ResponseWriter, r *http.Request) {
	res, err := h.client.ListRecords(r.Context(), mobi.ListRecordsParams{Limit: 1})
	if err != nil || res == nil {
		h.logger.Warn("Readiness probe failed, backend not reachable.", slog.Any("error", err))
		http.Error(w, "mobi backend not reachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}

package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/kerem-kaynak/japanese-lookup/pkg/termstore"
)

type statser interface {
	Stats(ctx context.Context) (termstore.Stats, error)
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	store   statser
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(store statser, version string) *HealthHandler {
	return &HealthHandler{store: store, version: version}
}

// HealthResponse is the JSON response for /live and /health.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Terms   int    `json:"terms,omitempty"`
}

// Register adds the health routes to mux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /live", h.Live)
	mux.HandleFunc("GET /health", h.Health)
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health opens the term store if needed and reports its size. 503 if the
// store cannot be opened.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	st, err := h.store.Stats(ctx)
	latency := time.Since(start)

	resp := HealthResponse{
		Status:     "ok",
		Version:    h.version,
		Components: map[string]CompStatus{},
		Timestamp:  time.Now(),
	}
	status := http.StatusOK
	if err != nil {
		resp.Status = "degraded"
		resp.Components["store"] = CompStatus{Status: "down"}
		status = http.StatusServiceUnavailable
	} else {
		resp.Components["store"] = CompStatus{
			Status:  "ok",
			Latency: latency.String(),
			Terms:   st.Terms,
		}
	}
	writeJSON(w, status, resp)
}

package health

import (
	"context"
	"net/http"
	"time"

	httputil "staybook/pkg/http"
	"staybook/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const readyTimeout = 2 * time.Second

const (
	statusOK          = "ok"
	statusReady       = "ready"
	statusUnavailable = "unavailable"
	statusError       = "error"
)

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Stats        map[string]any    `json:"stats,omitempty"`
}

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

type namedCheck struct {
	name  string
	check Check
}

type HealthHandler struct {
	checks []namedCheck
	stats  map[string]func() any
	log    *logger.Logger
}

func NewHealthHandler(log *logger.Logger) *HealthHandler {
	return &HealthHandler{log: log}
}

// WithCheck adds a readiness probe reported under name.
func (h *HealthHandler) WithCheck(name string, check Check) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
	return h
}

// WithStats adds a snapshot reported by the readiness endpoint.
func (h *HealthHandler) WithStats(name string, snapshot func() any) *HealthHandler {
	if h.stats == nil {
		h.stats = make(map[string]func() any)
	}
	h.stats[name] = snapshot
	return h
}

func (h *HealthHandler) snapshot() map[string]any {
	if len(h.stats) == 0 {
		return nil
	}
	out := make(map[string]any, len(h.stats))
	for name, fn := range h.stats {
		out[name] = fn()
	}
	return out
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: statusOK})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	deps := make(map[string]string, len(h.checks))
	healthy := true
	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			h.log.Error("Dependency health check failed",
				"dependency", c.name,
				"error", err,
				"path", r.URL.Path,
			)
			deps[c.name] = statusError
			healthy = false
			continue
		}
		deps[c.name] = statusOK
	}

	if !healthy {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:       statusUnavailable,
			Dependencies: deps,
			Stats:        h.snapshot(),
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:       statusReady,
		Dependencies: deps,
		Stats:        h.snapshot(),
	})
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

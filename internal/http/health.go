package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/database"
)

const healthCheckTimeout = 2 * time.Second

// Pinger is anything the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// HealthController reports on the database and, when present, the task queue.
// A probe registered with a nil Pinger reports "not configured" without
// failing the overall status.
type HealthController struct {
	probes  map[string]Pinger
	version string
	now     func() time.Time
}

func NewHealthController(db *database.Database, version string) *HealthController {
	hc := &HealthController{
		probes:  make(map[string]Pinger),
		version: version,
		now:     time.Now,
	}
	if db != nil {
		hc.probes["database"] = db
	} else {
		hc.probes["database"] = nil
	}
	return hc
}

// WithProbe adds a named dependency to the report.
func (h *HealthController) WithProbe(name string, p Pinger) *HealthController {
	h.probes[name] = p
	return h
}

// Status handles GET /health
func (h *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	checks := make(map[string]string, len(names))
	for _, name := range names {
		p := h.probes[name]
		if p == nil {
			checks[name] = "not configured"
			continue
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = "error: " + err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	resp := HealthResponse{
		Status:  "healthy",
		Time:    h.now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	c.IndentedJSON(code, resp)
}

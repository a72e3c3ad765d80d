package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/pkg/response"
)

type sourceStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Role     string `json:"role"`
	LineItem bool   `json:"lineItem"`
	Kind     string `json:"kind"`
}

// SourcesList describes the configured sources for the settings page.
// Credentials and connection details stay server-side.
func (h *Handler) SourcesList(w http.ResponseWriter, r *http.Request) {
	configs := h.Agg.Sources()
	out := make([]sourceStatus, 0, len(configs))
	for _, cfg := range configs {
		kind := "table"
		if cfg.WorkbookKey != "" {
			kind = "workbook"
		}
		out = append(out, sourceStatus{
			ID:       cfg.ID,
			Name:     cfg.Name,
			Active:   cfg.Active,
			Role:     string(cfg.Role),
			LineItem: cfg.LineItem,
			Kind:     kind,
		})
	}
	response.Success(w, map[string]any{"sources": out})
}

// SourcesRefresh drops every cache and runs a fresh aggregation pass for the
// current month, so the next dashboard load is warm. It also announces the
// refresh on the queue for other listeners.
func (h *Handler) SourcesRefresh(w http.ResponseWriter, r *http.Request) {
	invalidateSnapshotCache()
	h.Agg.ClearCache()

	dr := daterange.Resolve("month", time.Now(), h.Config.WeekMode)
	snap := h.Agg.KPIs(r.Context(), dr)

	if h.Queue != nil {
		if err := h.Queue.PublishJSON(r.Context(), h.Config.EventsExchange, "kpi.refresh", map[string]any{
			"requestedAt": time.Now().UTC(),
			"status":      snap.Status,
		}); err != nil {
			h.Logger.Warn("refresh event publish failed", zap.Error(err))
		}
	}

	h.Logger.Info("sources refreshed",
		zap.String("status", string(snap.Status)),
		zap.Int("used", len(snap.SourcesUsed)),
		zap.Int("skipped", len(snap.SourcesSkipped)))
	response.SuccessWithStatus(w, snap, string(snap.Status))
}

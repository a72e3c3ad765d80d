package handlers

import (
	"net/http"
	"time"

	"fieldmetrics-dashboard/internal/aggregator"
	"fieldmetrics-dashboard/internal/scoring"
	"fieldmetrics-dashboard/pkg/response"
)

// DashboardKPIs serves the consolidated KPI snapshot for a period. The
// response is always structurally complete; dataStatus tells the client
// whether it is looking at real, partial, demo or unconfigured data.
func (h *Handler) DashboardKPIs(w http.ResponseWriter, r *http.Request) {
	period, dr, err := h.resolveDashboardRange(r.URL.Query())
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	// Rolling periods anchor End to now, so key on the day plus a coarse
	// time bucket rather than the exact range.
	cacheBucket := time.Now().Truncate(5 * time.Minute)
	cacheKey := snapshotCacheKey("kpis", period,
		dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"),
		cacheBucket.Format(time.RFC3339))
	if cached, ok := getSnapshotCache(cacheKey); ok {
		response.JSON(w, http.StatusOK, cached)
		return
	}

	snap := h.Agg.KPIs(r.Context(), dr)

	payload := map[string]any{
		"success":    true,
		"data":       snap,
		"dataStatus": string(snap.Status),
	}
	// Synthetic results are never cached; the next request should retry the
	// real sources.
	if !snap.Synthetic {
		setSnapshotCache(cacheKey, payload, h.Config.SnapshotTTL)
	}
	response.JSON(w, http.StatusOK, payload)
}

// DashboardTrends serves the pooled daily revenue curve for trend charts.
func (h *Handler) DashboardTrends(w http.ResponseWriter, r *http.Request) {
	period, dr, err := h.resolveDashboardRange(r.URL.Query())
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	cacheBucket := time.Now().Truncate(5 * time.Minute)
	cacheKey := snapshotCacheKey("trends", period,
		dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"),
		cacheBucket.Format(time.RFC3339))
	if cached, ok := getSnapshotCache(cacheKey); ok {
		response.JSON(w, http.StatusOK, cached)
		return
	}

	points, status := h.Agg.TimeSeries(r.Context(), dr)
	payload := map[string]any{
		"success":    true,
		"data":       map[string]any{"points": points, "range": dr},
		"dataStatus": string(status),
	}
	if status == aggregator.StatusReal || status == aggregator.StatusPartial {
		setSnapshotCache(cacheKey, payload, h.Config.SnapshotTTL)
	}
	response.JSON(w, http.StatusOK, payload)
}

type scoredMetric struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Score  int     `json:"score"`
}

// DashboardScores grades every KPI 1-10 under the effective score ranges.
func (h *Handler) DashboardScores(w http.ResponseWriter, r *http.Request) {
	_, dr, err := h.resolveDashboardRange(r.URL.Query())
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	snap := h.Agg.KPIs(r.Context(), dr)

	scores := make([]scoredMetric, 0, len(scoring.MetricKeys))
	total := 0
	for _, key := range scoring.MetricKeys {
		value := snap.Report.Value(key)
		score := h.Scores.ScoreMetric(key, value)
		total += score
		scores = append(scores, scoredMetric{Metric: key, Value: value, Score: score})
	}

	overall := 0.0
	if len(scores) > 0 {
		overall = float64(total) / float64(len(scores))
	}

	response.SuccessWithStatus(w, map[string]any{
		"scores":  scores,
		"overall": overall,
		"range":   snap.Range,
	}, string(snap.Status))
}

// DashboardCacheClear drops both the HTTP payload cache and the aggregator's
// row cache. Admin only.
func (h *Handler) DashboardCacheClear(w http.ResponseWriter, r *http.Request) {
	invalidateSnapshotCache()
	h.Agg.ClearCache()
	h.Logger.Info("dashboard caches cleared")
	response.Success(w, map[string]any{"cleared": true})
}

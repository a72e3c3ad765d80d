package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"

	"fieldmetrics-dashboard/internal/aggregator"
	"fieldmetrics-dashboard/internal/scoring"
	"fieldmetrics-dashboard/pkg/response"
)

var metricLabels = map[string]string{
	"installRate":              "Install Rate (%)",
	"installRevenuePerJob":     "Install Revenue / Job",
	"jettingRate":              "Jetting Rate (%)",
	"jettingRevenuePerJob":     "Jetting Revenue / Job",
	"descalingRate":            "Descaling Rate (%)",
	"descalingRevenuePerJob":   "Descaling Revenue / Job",
	"zeroRevenueRate":          "Zero Revenue Rate (%)",
	"diagnosticOnlyRate":       "Diagnostic Only Rate (%)",
	"callbackRate":             "Callback Rate (%)",
	"complaintRate":            "Complaint Rate (%)",
	"membershipConversionRate": "Membership Conversion (%)",
	"membershipsRenewed":       "Memberships Renewed",
	"jobEfficiency":            "Job Efficiency (%)",
	"laborRevenuePerHour":      "Labor Revenue / Hour",
	"techPayRate":              "Tech Pay Rate (%)",
	"averageTicket":            "Average Ticket",
}

// DashboardReportPDF renders the period's scorecard as a downloadable PDF.
// With ?archive=true and a configured object store, a copy is written under
// the report archive prefix.
func (h *Handler) DashboardReportPDF(w http.ResponseWriter, r *http.Request) {
	period, dr, err := h.resolveDashboardRange(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := h.Agg.KPIs(r.Context(), dr)

	buf, err := h.renderScorecardPDF(period, snap)
	if err != nil {
		h.Logger.Error("scorecard render failed", zapError(err))
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("scorecard_%s_%s.pdf",
		sanitizeFilename(period), dr.Start.Format("20060102"))

	if r.URL.Query().Get("archive") == "true" && h.Store != nil {
		key := h.Config.ReportArchivePrefix + filename
		if err := h.Store.PutObject(r.Context(), key, buf.Bytes(), "application/pdf"); err != nil {
			h.Logger.Warn("report archive failed", zap.String("key", key), zap.Error(err))
		} else {
			h.Logger.Info("report archived", zap.String("key", key))
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(buf.Bytes())
}

// DashboardReportArchive lists previously archived scorecards.
func (h *Handler) DashboardReportArchive(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		response.Success(w, []string{})
		return
	}
	keys, err := h.Store.ListKeys(r.Context(), h.Config.ReportArchivePrefix)
	if err != nil {
		h.Logger.Error("report archive list failed", zapError(err))
		http.Error(w, "failed to list archived reports", http.StatusInternalServerError)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	response.Success(w, keys)
}

func sanitizeFilename(value string) string {
	re := regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	clean := re.ReplaceAllString(value, "_")
	return strings.Trim(clean, "_")
}

func (h *Handler) renderScorecardPDF(period string, snap aggregator.Snapshot) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Field Metrics Scorecard", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Period: %s", period), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("%s - %s",
		snap.Range.Start.Format("Jan 2, 2006"), snap.Range.End.Format("Jan 2, 2006")), "", 1, "C", false, 0, "")
	if snap.Synthetic {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 5, "Demo data - connect your sources for real figures", "", 1, "C", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(110, 6, "Metric", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Value", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Score", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	total := 0
	for _, key := range scoring.MetricKeys {
		value := snap.Report.Value(key)
		score := h.Scores.ScoreMetric(key, value)
		total += score

		label := metricLabels[key]
		if label == "" {
			label = key
		}
		pdf.CellFormat(110, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 5, formatMetricValue(key, value), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%d / 10", score), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	overall := float64(total) / float64(len(scoring.MetricKeys))
	pdf.CellFormat(0, 6, fmt.Sprintf("Overall: %.1f / 10", overall), "T", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	pdf.Ln(2)
	pdf.CellFormat(0, 4, fmt.Sprintf("Generated %s | data: %s",
		time.Now().Format("Jan 2, 2006 15:04"), snap.Status), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func formatMetricValue(key string, value float64) string {
	switch key {
	case "installRevenuePerJob", "jettingRevenuePerJob", "descalingRevenuePerJob",
		"laborRevenuePerHour", "averageTicket":
		return fmt.Sprintf("$%.2f", value)
	case "membershipsRenewed":
		return fmt.Sprintf("%.0f", value)
	default:
		return fmt.Sprintf("%.1f", value)
	}
}

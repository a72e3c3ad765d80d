package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"fieldmetrics-dashboard/internal/daterange"
)

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

const customDateLayout = "2006-01-02"

// resolveDashboardRange maps the period query parameters to a concrete range.
// period=custom reads startDate/endDate; bad or missing custom bounds fall
// back to the trailing-30-day default rather than erroring.
func (h *Handler) resolveDashboardRange(query url.Values) (string, daterange.Range, error) {
	period := strings.ToLower(defaultString(query.Get("period"), "month"))
	if period != "custom" {
		return period, daterange.Resolve(period, time.Now(), h.Config.WeekMode), nil
	}

	rawStart := strings.TrimSpace(query.Get("startDate"))
	rawEnd := strings.TrimSpace(query.Get("endDate"))
	if rawStart == "" || rawEnd == "" {
		return period, daterange.Resolve(period, time.Now(), h.Config.WeekMode), nil
	}

	start, err := time.ParseInLocation(customDateLayout, rawStart, time.Local)
	if err != nil {
		return period, daterange.Range{}, fmt.Errorf("invalid startDate %q", rawStart)
	}
	end, err := time.ParseInLocation(customDateLayout, rawEnd, time.Local)
	if err != nil {
		return period, daterange.Range{}, fmt.Errorf("invalid endDate %q", rawEnd)
	}
	return period, daterange.Custom(start, end), nil
}

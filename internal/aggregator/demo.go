package aggregator

import (
	"math"
	"time"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/metrics"
)

// demoMultiplier scales synthetic volume figures by period length so a
// year-long demo view doesn't show one day's worth of work.
func demoMultiplier(dr daterange.Range) float64 {
	switch days := dr.Days(); {
	case days <= 1:
		return 0.3
	case days <= 7:
		return 0.6
	case days <= 31:
		return 1.0
	case days <= 90:
		return 1.1
	default:
		return 1.2
	}
}

// DemoReport produces deterministic placeholder KPIs for the given period.
// Volume metrics scale up with period length; "bad" rates (callbacks,
// complaints, zero-revenue) scale down, since longer windows smooth them out.
func DemoReport(dr daterange.Range) metrics.Report {
	m := demoMultiplier(dr)
	worse := func(rate float64) float64 {
		return math.Floor(rate / m)
	}
	return metrics.Report{
		InstallRate:              round1(12.0 * m),
		InstallRevenuePerJob:     round1(8500 * m),
		JettingRate:              round1(18.0 * m),
		JettingRevenuePerJob:     round1(1450 * m),
		DescalingRate:            round1(6.0 * m),
		DescalingRevenuePerJob:   round1(2100 * m),
		ZeroRevenueRate:          worse(9),
		DiagnosticOnlyRate:       worse(14),
		CallbackRate:             worse(4),
		ComplaintRate:            worse(2),
		MembershipConversionRate: round1(11.0 * m),
		MembershipsRenewed:       int(math.Round(6 * m)),
		JobEfficiency:            95,
		LaborRevenuePerHour:      round1(210 * m),
		TechPayRate:              round1(22 * m),
		AverageTicket:            round1(640 * m),
	}
}

// Point is one time-series sample for trend charts.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

// DemoSeries produces a deterministic daily revenue curve spanning the period.
func DemoSeries(dr daterange.Range) []Point {
	days := int(dr.Days()) + 1
	if days > 120 {
		days = 120
	}
	points := make([]Point, 0, days)
	for i := 0; i < days; i++ {
		day := dr.Start.AddDate(0, 0, i)
		// Weekly rhythm: weekday service volume with a weekend dip.
		base := 5200.0
		switch day.Weekday() {
		case time.Saturday:
			base = 3100
		case time.Sunday:
			base = 1800
		}
		wave := 900 * math.Sin(float64(i)*2*math.Pi/7)
		points = append(points, Point{
			Date:  day.Format("2006-01-02"),
			Value: round1(base + wave),
			Label: "demo",
		})
	}
	return points
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

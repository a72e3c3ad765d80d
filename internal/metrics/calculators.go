package metrics

import (
	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/rows"
)

// defaultJobEfficiency is reported when no row carries both estimated and
// actual time.
const defaultJobEfficiency = 95

// FilterByDate keeps the rows whose date column parses inside dr. A negative
// column index means no date filtering is possible and the grid passes
// through unchanged; the orchestrator decides whether that is acceptable.
func FilterByDate(g rows.Grid, col int, dr daterange.Range) rows.Grid {
	if col < 0 {
		return g
	}
	out := rows.Grid{Header: g.Header}
	for _, row := range g.Rows {
		t, ok := rows.ParseRowDate(row, col)
		if !ok || !dr.Contains(t) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Calculate produces the full 16-field report over an already date-filtered
// row set. Every ratio guards its denominator; zero qualifying rows yield 0,
// never NaN.
func Calculate(g rows.Grid, cols rows.Columns, rules Rules) Report {
	report := Report{}

	jobs := UniqueJobs(g, cols, nil, rules)
	jobCount := float64(len(jobs))
	revenueByJob := JobRevenue(g, cols, nil, rules)

	report.InstallRate, report.InstallRevenuePerJob = installMetrics(revenueByJob, jobCount, rules.InstallRevenueFloor)
	report.JettingRate, report.JettingRevenuePerJob = serviceMetrics(g, cols, rules, rules.IsJetting, jobCount)
	report.DescalingRate, report.DescalingRevenuePerJob = serviceMetrics(g, cols, rules, rules.IsDescaling, jobCount)

	total := float64(len(g.Rows))
	var zero, diagnostic, callbacks, complaints, memberships, renewals int
	var totalRevenue, totalHours, totalTechPay float64
	var efficiencySum float64
	var efficiencyRows int

	for _, row := range g.Rows {
		amount := rows.ParseMoney(row.Cell(cols.Amount))
		totalRevenue += amount
		if amount == 0 {
			zero++
		}
		if amount > 0 && amount <= rules.DiagnosticFeeCap {
			diagnostic++
		}
		if scanRow(row, rules.IsCallback) {
			callbacks++
		}
		if scanRow(row, rules.IsComplaint) {
			complaints++
		}
		if scanRow(row, rules.IsMembership) {
			memberships++
			if scanRow(row, rules.IsRenewal) {
				renewals++
			}
		}
		if hours, ok := rows.ParseNumber(row.Cell(cols.Duration)); ok {
			totalHours += hours
		}
		if pay, ok := rows.ParseNumber(row.Cell(cols.TechPay)); ok {
			totalTechPay += pay
		}
		est, okEst := rows.ParseNumber(row.Cell(cols.EstimatedHours))
		act, okAct := rows.ParseNumber(row.Cell(cols.ActualHours))
		if okEst && okAct && est > 0 && act > 0 {
			efficiencySum += est / act * 100
			efficiencyRows++
		}
	}

	report.ZeroRevenueRate = ratio(float64(zero), total)
	report.DiagnosticOnlyRate = ratio(float64(diagnostic), total)
	report.CallbackRate = ratio(float64(callbacks), total)
	report.ComplaintRate = ratio(float64(complaints), total)
	report.MembershipConversionRate = ratio(float64(memberships), total)
	report.MembershipsRenewed = renewals

	if efficiencyRows > 0 {
		report.JobEfficiency = efficiencySum / float64(efficiencyRows)
	} else {
		report.JobEfficiency = defaultJobEfficiency
	}
	report.LaborRevenuePerHour = divide(totalRevenue, totalHours)
	if totalRevenue > 0 {
		report.TechPayRate = totalTechPay / totalRevenue * 100
	}
	report.AverageTicket = divide(totalRevenue, total)

	return report
}

func installMetrics(revenueByJob map[string]float64, jobCount, floor float64) (rate, perJob float64) {
	if jobCount == 0 {
		return 0, 0
	}
	var installs float64
	var installRevenue float64
	for _, revenue := range revenueByJob {
		if revenue >= floor {
			installs++
			installRevenue += revenue
		}
	}
	return installs / jobCount * 100, installRevenue / jobCount
}

func serviceMetrics(g rows.Grid, cols rows.Columns, rules Rules, match Classifier, jobCount float64) (rate, perJob float64) {
	if jobCount == 0 {
		return 0, 0
	}
	jobs, revenue := jobsMatching(g, cols, nil, rules, match)
	return float64(len(jobs)) / jobCount * 100, revenue / jobCount
}

// scanRow checks every cell, not just the description: callback and
// complaint flags live in trailing columns whose position varies by export.
func scanRow(row rows.Row, match Classifier) bool {
	if match == nil {
		return false
	}
	for i := range row.Cells {
		if match(row.Cell(i)) {
			return true
		}
	}
	return false
}

func ratio(count, total float64) float64 {
	if total == 0 {
		return 0
	}
	return count / total * 100
}

func divide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

package metrics

import (
	"strings"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/rows"
)

// UniqueJobs derives the distinct job identifiers present after applying the
// department and date filters. This is the authoritative denominator for
// every "percentage of jobs" metric; it is recomputed per filter combination
// and never cached across different criteria.
func UniqueJobs(g rows.Grid, cols rows.Columns, dr *daterange.Range, rules Rules) map[string]struct{} {
	jobs := make(map[string]struct{})
	for _, row := range g.Rows {
		id := strings.TrimSpace(row.Cell(cols.Job))
		if id == "" {
			continue
		}
		if !rules.matchDepartment(row.Cell(cols.Department)) {
			continue
		}
		if dr != nil {
			t, ok := rows.ParseRowDate(row, cols.Date)
			if !ok || !dr.Contains(t) {
				continue
			}
		}
		jobs[id] = struct{}{}
	}
	return jobs
}

// JobRevenue builds the per-job revenue rollup in a single grouping pass over
// the rows that satisfy the same filters as UniqueJobs. Rows with an
// unparseable amount contribute 0.
func JobRevenue(g rows.Grid, cols rows.Columns, dr *daterange.Range, rules Rules) map[string]float64 {
	revenue := make(map[string]float64)
	for _, row := range g.Rows {
		id := strings.TrimSpace(row.Cell(cols.Job))
		if id == "" {
			continue
		}
		if !rules.matchDepartment(row.Cell(cols.Department)) {
			continue
		}
		if dr != nil {
			t, ok := rows.ParseRowDate(row, cols.Date)
			if !ok || !dr.Contains(t) {
				continue
			}
		}
		revenue[id] += rows.ParseMoney(row.Cell(cols.Amount))
	}
	return revenue
}

// jobsMatching returns the jobs having at least one qualifying line item
// whose description matches the classifier, plus the revenue summed over the
// matching line items only.
func jobsMatching(g rows.Grid, cols rows.Columns, dr *daterange.Range, rules Rules, match Classifier) (map[string]struct{}, float64) {
	jobs := make(map[string]struct{})
	var revenue float64
	if match == nil {
		return jobs, 0
	}
	for _, row := range g.Rows {
		id := strings.TrimSpace(row.Cell(cols.Job))
		if id == "" {
			continue
		}
		if !rules.matchDepartment(row.Cell(cols.Department)) {
			continue
		}
		if dr != nil {
			t, ok := rows.ParseRowDate(row, cols.Date)
			if !ok || !dr.Contains(t) {
				continue
			}
		}
		if !match(row.Cell(cols.Description)) {
			continue
		}
		jobs[id] = struct{}{}
		revenue += rows.ParseMoney(row.Cell(cols.Amount))
	}
	return jobs, revenue
}

package aggregator

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/rows"
	"fieldmetrics-dashboard/internal/source"
)

// TimeSeries pools the timeseries-role sources into one daily revenue curve.
// Like KPIs it never errors; with no usable sources it serves the demo curve.
func (a *Aggregator) TimeSeries(ctx context.Context, dr daterange.Range) ([]Point, Status) {
	active := a.activeSources(source.RoleTimeSeries)
	if len(active) == 0 {
		return DemoSeries(dr), StatusConfigRequired
	}

	fetched, skipped := a.fetchAll(ctx, active, dr)
	if len(fetched) == 0 {
		return DemoSeries(dr), StatusDemo
	}

	byDay := make(map[string]float64)
	for _, result := range fetched {
		cols := rows.ResolveColumns(result.grid.Header)
		dateCol := cols.Date
		if dateCol < 0 {
			dateCol = rows.FindDateColumn(result.grid)
		}
		if dateCol < 0 || cols.Amount < 0 {
			a.log.Warn("timeseries source lacks date or amount column",
				zap.String("source", result.cfg.ID))
			continue
		}
		for _, row := range result.grid.Rows {
			when, ok := rows.ParseCellDate(row.Cell(dateCol))
			if !ok || !dr.Contains(when) {
				continue
			}
			byDay[when.Format("2006-01-02")] += rows.ParseMoney(row.Cell(cols.Amount))
		}
	}
	if len(byDay) == 0 {
		return DemoSeries(dr), StatusDemo
	}

	points := make([]Point, 0, len(byDay))
	for day, total := range byDay {
		points = append(points, Point{Date: day, Value: round1(total)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	status := StatusReal
	if len(skipped) > 0 {
		status = StatusPartial
	}
	return points, status
}

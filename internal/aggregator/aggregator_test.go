package aggregator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/metrics"
	"fieldmetrics-dashboard/internal/rows"
	"fieldmetrics-dashboard/internal/source"
)

type fakeSource struct {
	cfg    source.Config
	grid   rows.Grid
	err    error
	panics bool
	calls  atomic.Int32
}

func (f *fakeSource) Config() source.Config { return f.cfg }

func (f *fakeSource) Fetch(ctx context.Context, dr daterange.Range) (rows.Grid, error) {
	f.calls.Add(1)
	if f.panics {
		panic("fetch blew up")
	}
	return f.grid, f.err
}

func januaryRange(t *testing.T) daterange.Range {
	t.Helper()
	return daterange.Range{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local),
		End:   time.Date(2024, time.January, 31, 23, 59, 59, 0, time.Local),
	}
}

func callsGrid() rows.Grid {
	return rows.FromMatrix([][]string{
		{"Date", "Job", "Department", "Description", "Amount"},
		{"1/5/2024", "J1", "Drain Cleaning", "Jetting main line", "$12,000.00"},
		{"1/5/2024", "J1", "Drain Cleaning", "Camera inspection", "$500.00"},
		{"1/8/2024", "J2", "Drain Cleaning", "Snake drain", "$200.00"},
	})
}

func expectedReport(g rows.Grid, dr daterange.Range) metrics.Report {
	cols := rows.ResolveColumns(g.Header)
	return metrics.Calculate(metrics.FilterByDate(g, cols.Date, dr), cols, metrics.DefaultRules())
}

func kpiConfig(id string) source.Config {
	return source.Config{ID: id, Name: id, Active: true, Role: source.RoleKPI}
}

func TestKPIsAllSourcesHealthy(t *testing.T) {
	dr := januaryRange(t)
	src := &fakeSource{cfg: kpiConfig("calls"), grid: callsGrid()}
	agg := New([]source.Source{src}, metrics.DefaultRules(), zap.NewNop())

	snap := agg.KPIs(context.Background(), dr)

	if snap.Status != StatusReal {
		t.Fatalf("status = %s, want %s", snap.Status, StatusReal)
	}
	if snap.Synthetic {
		t.Fatal("healthy aggregation marked synthetic")
	}
	if want := expectedReport(callsGrid(), dr); snap.Report != want {
		t.Fatalf("report = %+v, want %+v", snap.Report, want)
	}
	if len(snap.SourcesUsed) != 1 || snap.SourcesUsed[0] != "calls" {
		t.Fatalf("sources used = %v", snap.SourcesUsed)
	}
	latest, ok := agg.Latest()
	if !ok || latest.Status != StatusReal {
		t.Fatalf("latest snapshot not stored: %v %v", latest, ok)
	}
}

func TestKPIsPartialWhenOneSourceFails(t *testing.T) {
	dr := januaryRange(t)
	healthy := &fakeSource{cfg: kpiConfig("calls"), grid: callsGrid()}
	broken := &fakeSource{
		cfg: kpiConfig("invoices"),
		err: &source.Error{SourceID: "invoices", Kind: source.KindUnreachable, Err: errors.New("dial tcp: timeout")},
	}
	agg := New([]source.Source{broken, healthy}, metrics.DefaultRules(), zap.NewNop())

	snap := agg.KPIs(context.Background(), dr)

	if snap.Status != StatusPartial {
		t.Fatalf("status = %s, want %s", snap.Status, StatusPartial)
	}
	// The result must match aggregating the healthy source alone.
	if want := expectedReport(callsGrid(), dr); snap.Report != want {
		t.Fatalf("report = %+v, want %+v", snap.Report, want)
	}
	if len(snap.SourcesSkipped) != 1 || snap.SourcesSkipped[0].ID != "invoices" {
		t.Fatalf("skipped = %v", snap.SourcesSkipped)
	}
	if snap.SourcesSkipped[0].Kind != source.KindUnreachable.String() {
		t.Fatalf("skip kind = %s", snap.SourcesSkipped[0].Kind)
	}
}

func TestKPIsDemoWhenEverySourceFails(t *testing.T) {
	dr := januaryRange(t)
	agg := New([]source.Source{
		&fakeSource{cfg: kpiConfig("a"), err: errors.New("boom")},
		&fakeSource{cfg: kpiConfig("b"), panics: true},
	}, metrics.DefaultRules(), zap.NewNop())

	snap := agg.KPIs(context.Background(), dr)

	if snap.Status != StatusDemo || !snap.Synthetic {
		t.Fatalf("status = %s synthetic = %v, want demo/synthetic", snap.Status, snap.Synthetic)
	}
	if len(snap.SourcesSkipped) != 2 {
		t.Fatalf("skipped = %v, want both sources", snap.SourcesSkipped)
	}
	if snap.Report.JobEfficiency != 95 {
		t.Fatalf("demo efficiency = %v, want default 95", snap.Report.JobEfficiency)
	}
	if snap.Report.AverageTicket <= 0 || snap.Report.InstallRate <= 0 {
		t.Fatalf("demo report has empty fields: %+v", snap.Report)
	}
}

func TestKPIsConfigRequiredWithNoSources(t *testing.T) {
	agg := New(nil, metrics.DefaultRules(), zap.NewNop())
	snap := agg.KPIs(context.Background(), januaryRange(t))
	if snap.Status != StatusConfigRequired || !snap.Synthetic {
		t.Fatalf("status = %s synthetic = %v", snap.Status, snap.Synthetic)
	}
}

func TestLineItemSourceOverridesServiceRates(t *testing.T) {
	dr := januaryRange(t)
	// Coarse source has no jetting work at all.
	coarse := &fakeSource{cfg: kpiConfig("summary"), grid: rows.FromMatrix([][]string{
		{"Date", "Job", "Department", "Description", "Amount"},
		{"1/3/2024", "J10", "Drain Cleaning", "Snake drain", "$300.00"},
		{"1/4/2024", "J11", "Drain Cleaning", "Snake drain", "$250.00"},
	})}
	detailCfg := kpiConfig("lineitems")
	detailCfg.LineItem = true
	detail := &fakeSource{cfg: detailCfg, grid: rows.FromMatrix([][]string{
		{"Date", "Job", "Department", "Description", "Amount"},
		{"1/5/2024", "J1", "Drain Cleaning", "Jetting main line", "$1,000.00"},
		{"1/8/2024", "J2", "Drain Cleaning", "Snake drain", "$200.00"},
	})}
	agg := New([]source.Source{coarse, detail}, metrics.DefaultRules(), zap.NewNop())

	snap := agg.KPIs(context.Background(), dr)

	want := expectedReport(detail.grid, dr)
	if snap.Report.JettingRate != want.JettingRate {
		t.Fatalf("jetting rate = %v, want detail source's %v", snap.Report.JettingRate, want.JettingRate)
	}
	if snap.Report.JettingRevenuePerJob != want.JettingRevenuePerJob {
		t.Fatalf("jetting revenue/job = %v, want %v", snap.Report.JettingRevenuePerJob, want.JettingRevenuePerJob)
	}
	// Non-service fields still blend both sources.
	if snap.Report.AverageTicket == want.AverageTicket {
		t.Fatal("average ticket should merge both sources, not mirror the detail source")
	}
}

func TestRowCacheSkipsRefetch(t *testing.T) {
	dr := januaryRange(t)
	src := &fakeSource{cfg: kpiConfig("calls"), grid: callsGrid()}
	agg := New([]source.Source{src}, metrics.DefaultRules(), zap.NewNop())

	agg.KPIs(context.Background(), dr)
	agg.KPIs(context.Background(), dr)
	if n := src.calls.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1 (second pass served from cache)", n)
	}

	agg.ClearCache()
	agg.KPIs(context.Background(), dr)
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("fetch calls after ClearCache = %d, want 2", n)
	}
}

func TestRowCacheHoldsOneEntryPerSource(t *testing.T) {
	src := &fakeSource{cfg: kpiConfig("calls"), grid: callsGrid()}
	agg := New([]source.Source{src}, metrics.DefaultRules(), zap.NewNop())

	// Rolling windows anchor End to now, so every pass sees a slightly
	// different range. The cache must replace, not accumulate.
	dr := januaryRange(t)
	for i := 0; i < 50; i++ {
		dr.End = dr.End.Add(time.Second)
		agg.KPIs(context.Background(), dr)
	}

	agg.mu.Lock()
	entries := len(agg.cache)
	agg.mu.Unlock()
	if entries != 1 {
		t.Fatalf("row cache holds %d entries for one source, want 1", entries)
	}
	// Each pass asked for a new window, so none were cache hits.
	if n := src.calls.Load(); n != 50 {
		t.Fatalf("fetch calls = %d, want 50 (window changed every pass)", n)
	}
}

func TestRowCacheNotReusedAcrossRanges(t *testing.T) {
	src := &fakeSource{cfg: kpiConfig("calls"), grid: callsGrid()}
	agg := New([]source.Source{src}, metrics.DefaultRules(), zap.NewNop())

	january := januaryRange(t)
	agg.KPIs(context.Background(), january)

	week := daterange.Range{
		Start: time.Date(2024, time.January, 8, 0, 0, 0, 0, time.Local),
		End:   time.Date(2024, time.January, 14, 23, 59, 59, 0, time.Local),
	}
	agg.KPIs(context.Background(), week)
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("fetch calls = %d, want 2 (different window must refetch)", n)
	}

	// Returning to the cached window after it was replaced refetches too.
	agg.KPIs(context.Background(), january)
	if n := src.calls.Load(); n != 3 {
		t.Fatalf("fetch calls = %d, want 3 (cache holds only the last window)", n)
	}
}

func TestStaleResultNeverBecomesLatest(t *testing.T) {
	dr := januaryRange(t)
	src := &fakeSource{cfg: kpiConfig("calls"), grid: callsGrid()}
	agg := New([]source.Source{src}, metrics.DefaultRules(), zap.NewNop())

	agg.KPIs(context.Background(), dr)
	gen := agg.generation.Load()

	// A newer request starts before the stale pass publishes.
	agg.generation.Add(1)
	agg.publish(context.Background(), gen, agg.demoSnapshot(dr, StatusDemo))

	latest, ok := agg.Latest()
	if !ok {
		t.Fatal("latest snapshot missing")
	}
	if latest.Status != StatusReal {
		t.Fatalf("latest status = %s, stale demo result overwrote newer snapshot", latest.Status)
	}
}

type capturingPublisher struct {
	exchange string
	key      string
	payloads int
}

func (p *capturingPublisher) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	p.exchange = exchange
	p.key = routingKey
	p.payloads++
	return nil
}

func TestSnapshotPublishedToQueue(t *testing.T) {
	pub := &capturingPublisher{}
	src := &fakeSource{cfg: kpiConfig("calls"), grid: callsGrid()}
	agg := New([]source.Source{src}, metrics.DefaultRules(), zap.NewNop(),
		WithPublisher(pub, "dashboard.events"))

	agg.KPIs(context.Background(), januaryRange(t))

	if pub.payloads != 1 {
		t.Fatalf("published %d payloads, want 1", pub.payloads)
	}
	if pub.exchange != "dashboard.events" || pub.key != "kpi.snapshot.refreshed" {
		t.Fatalf("published to %s/%s", pub.exchange, pub.key)
	}
}

func TestInactiveAndWrongRoleSourcesIgnored(t *testing.T) {
	inactive := kpiConfig("off")
	inactive.Active = false
	series := kpiConfig("trend")
	series.Role = source.RoleTimeSeries

	agg := New([]source.Source{
		&fakeSource{cfg: inactive, grid: callsGrid()},
		&fakeSource{cfg: series, grid: callsGrid()},
	}, metrics.DefaultRules(), zap.NewNop())

	snap := agg.KPIs(context.Background(), januaryRange(t))
	if snap.Status != StatusConfigRequired {
		t.Fatalf("status = %s, want %s with no active kpi sources", snap.Status, StatusConfigRequired)
	}
}

package aggregator

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"fieldmetrics-dashboard/internal/daterange"
	"fieldmetrics-dashboard/internal/metrics"
	"fieldmetrics-dashboard/internal/rows"
	"fieldmetrics-dashboard/internal/source"
)

// Status is the caller-visible data state. The UI renders these four states;
// the engine never surfaces an error instead.
type Status string

const (
	StatusReal           Status = "real"
	StatusPartial        Status = "partial"
	StatusDemo           Status = "demo"
	StatusConfigRequired Status = "config_required"
)

// SkippedSource records why a source dropped out of an aggregation pass.
type SkippedSource struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Snapshot is the consolidated result of one aggregation pass. Structurally
// complete on every path: all 16 report fields are always present.
type Snapshot struct {
	Report         metrics.Report  `json:"report"`
	Status         Status          `json:"status"`
	Synthetic      bool            `json:"synthetic"`
	Range          daterange.Range `json:"range"`
	SourcesUsed    []string        `json:"sourcesUsed"`
	SourcesSkipped []SkippedSource `json:"sourcesSkipped"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// Publisher is the slice of the queue client the aggregator notifies after a
// successful pass. Optional; nil disables publishing.
type Publisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

type Option func(*Aggregator)

func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithPublisher(pub Publisher, exchange string) Option {
	return func(a *Aggregator) {
		a.pub = pub
		a.exchange = exchange
	}
}

// Aggregator coordinates calculators across the configured sources and owns
// the fallback chain down to demo data.
type Aggregator struct {
	sources  []source.Source
	rules    metrics.Rules
	log      *zap.Logger
	timeout  time.Duration
	pub      Publisher
	exchange string

	// generation implements last-request-wins: stale passes may return to
	// their caller but never become the published latest snapshot.
	generation atomic.Uint64

	mu     sync.Mutex
	cache  map[string]cachedFetch
	latest *Snapshot
}

// cachedFetch is the most recent row set fetched from one source, tagged
// with the window it was fetched for. One entry per source id: the same
// source fetched for a different period refetches and replaces the entry
// rather than reusing stale rows.
type cachedFetch struct {
	dr   daterange.Range
	grid rows.Grid
}

func New(sources []source.Source, rules metrics.Rules, log *zap.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources: sources,
		rules:   rules,
		log:     log,
		timeout: 15 * time.Second,
		cache:   make(map[string]cachedFetch),
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// KPIs runs one aggregation pass. It never returns an error: any failure
// degrades to demo data with the status explaining what the caller got.
func (a *Aggregator) KPIs(ctx context.Context, dr daterange.Range) (snap Snapshot) {
	gen := a.generation.Add(1)

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("aggregation panic, serving demo data", zap.Any("panic", r))
			snap = a.demoSnapshot(dr, StatusDemo)
		}
		a.publish(ctx, gen, snap)
	}()

	active := a.activeSources(source.RoleKPI)
	if len(active) == 0 {
		return a.demoSnapshot(dr, StatusConfigRequired)
	}

	fetched, skipped := a.fetchAll(ctx, active, dr)
	if len(fetched) == 0 {
		snap = a.demoSnapshot(dr, StatusDemo)
		snap.SourcesSkipped = skipped
		return snap
	}

	parts := make([]metrics.Report, 0, len(fetched))
	used := make([]string, 0, len(fetched))
	var detail *metrics.Report
	for i := range fetched {
		result := &fetched[i]
		parts = append(parts, a.calculate(result.grid, dr, result.cfg))
		used = append(used, result.cfg.ID)
		if result.cfg.LineItem && detail == nil {
			detail = &parts[len(parts)-1]
		}
	}

	report := metrics.MergeReports(parts)

	// The line-item source carries per-job detail the coarse sources lack;
	// its install/jetting/descaling figures always win when present.
	if detail != nil {
		report.InstallRate = detail.InstallRate
		report.InstallRevenuePerJob = detail.InstallRevenuePerJob
		report.JettingRate = detail.JettingRate
		report.JettingRevenuePerJob = detail.JettingRevenuePerJob
		report.DescalingRate = detail.DescalingRate
		report.DescalingRevenuePerJob = detail.DescalingRevenuePerJob
	}

	status := StatusReal
	if len(skipped) > 0 {
		status = StatusPartial
	}
	return Snapshot{
		Report:         report,
		Status:         status,
		Range:          dr,
		SourcesUsed:    used,
		SourcesSkipped: skipped,
		GeneratedAt:    time.Now(),
	}
}

func (a *Aggregator) calculate(grid rows.Grid, dr daterange.Range, cfg source.Config) metrics.Report {
	cols := rows.ResolveColumns(grid.Header)
	dateCol := cols.Date
	if dateCol < 0 {
		dateCol = rows.FindDateColumn(grid)
	}
	if dateCol < 0 {
		// No date column anywhere: run over the full row set rather than
		// dropping the source. Demo fallback is reserved for fetch failure.
		a.log.Warn("no date column detected, aggregating unfiltered",
			zap.String("source", cfg.ID))
		return metrics.Calculate(grid, cols, a.rules)
	}
	cols.Date = dateCol
	return metrics.Calculate(metrics.FilterByDate(grid, dateCol, dr), cols, a.rules)
}

type fetchResult struct {
	cfg  source.Config
	grid rows.Grid
}

// fetchAll issues all source fetches concurrently, each inside its own
// failure boundary so one bad source neither cancels nor fails the rest.
func (a *Aggregator) fetchAll(ctx context.Context, active []source.Source, dr daterange.Range) ([]fetchResult, []SkippedSource) {
	type outcome struct {
		result *fetchResult
		skip   *SkippedSource
	}
	outcomes := make([]outcome, len(active))

	var wg sync.WaitGroup
	for i, src := range active {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			cfg := src.Config()
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("source fetch panic", zap.String("source", cfg.ID), zap.Any("panic", r))
					outcomes[i] = outcome{skip: &SkippedSource{ID: cfg.ID, Kind: source.KindUnknown.String()}}
				}
			}()

			if grid, ok := a.cachedRows(cfg.ID, dr); ok {
				outcomes[i] = outcome{result: &fetchResult{cfg: cfg, grid: grid}}
				return
			}

			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			grid, err := src.Fetch(fetchCtx, dr)
			if err != nil {
				kind := source.KindOf(err)
				a.log.Warn("source skipped",
					zap.String("source", cfg.ID),
					zap.String("kind", kind.String()),
					zap.Error(err))
				outcomes[i] = outcome{skip: &SkippedSource{ID: cfg.ID, Kind: kind.String()}}
				return
			}
			if grid.Empty() {
				outcomes[i] = outcome{skip: &SkippedSource{ID: cfg.ID, Kind: source.KindNoData.String()}}
				return
			}
			a.storeRows(cfg.ID, dr, grid)
			outcomes[i] = outcome{result: &fetchResult{cfg: cfg, grid: grid}}
		}(i, src)
	}
	wg.Wait()

	var fetched []fetchResult
	var skipped []SkippedSource
	for _, o := range outcomes {
		if o.result != nil {
			fetched = append(fetched, *o.result)
		}
		if o.skip != nil {
			skipped = append(skipped, *o.skip)
		}
	}
	return fetched, skipped
}

func (a *Aggregator) activeSources(role source.Role) []source.Source {
	var out []source.Source
	for _, src := range a.sources {
		cfg := src.Config()
		if cfg.Active && cfg.Role == role {
			out = append(out, src)
		}
	}
	return out
}

func (a *Aggregator) cachedRows(id string, dr daterange.Range) (rows.Grid, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.cache[id]
	if !ok || !entry.dr.Start.Equal(dr.Start) || !entry.dr.End.Equal(dr.End) {
		return rows.Grid{}, false
	}
	return entry.grid, true
}

func (a *Aggregator) storeRows(id string, dr daterange.Range, grid rows.Grid) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache[id] = cachedFetch{dr: dr, grid: grid}
}

// ClearCache drops all cached rows; the next pass refetches everything.
func (a *Aggregator) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache = make(map[string]cachedFetch)
}

// Latest returns the most recent non-stale snapshot, if any pass completed.
func (a *Aggregator) Latest() (Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest == nil {
		return Snapshot{}, false
	}
	return *a.latest, true
}

func (a *Aggregator) demoSnapshot(dr daterange.Range, status Status) Snapshot {
	return Snapshot{
		Report:      DemoReport(dr),
		Status:      status,
		Synthetic:   true,
		Range:       dr,
		GeneratedAt: time.Now(),
	}
}

// publish stores the snapshot as latest and notifies listeners, unless a
// newer request started while this pass ran (last-request-wins).
func (a *Aggregator) publish(ctx context.Context, gen uint64, snap Snapshot) {
	if a.generation.Load() != gen {
		a.log.Debug("discarding stale aggregation result", zap.Uint64("generation", gen))
		return
	}
	a.mu.Lock()
	copied := snap
	a.latest = &copied
	a.mu.Unlock()

	if a.pub != nil {
		if err := a.pub.PublishJSON(ctx, a.exchange, "kpi.snapshot.refreshed", snap); err != nil {
			a.log.Warn("snapshot publish failed", zap.Error(err))
		}
	}
}

// Sources exposes the configured descriptors for the settings surface.
func (a *Aggregator) Sources() []source.Config {
	out := make([]source.Config, 0, len(a.sources))
	for _, src := range a.sources {
		out = append(out, src.Config())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

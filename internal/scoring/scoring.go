package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Range maps the half-open interval [Min, Max) to a 1-10 score. A nil Max
// means unbounded.
type Range struct {
	Min   float64  `json:"min"`
	Max   *float64 `json:"max,omitempty"`
	Score int      `json:"score"`
}

// Score evaluates value against ranges in iteration order: the first range
// whose Min the value meets and whose Max it stays strictly below wins.
// Returns 0 when nothing matches; validated sets always match.
func Score(value float64, ranges []Range) int {
	for _, r := range ranges {
		if value < r.Min {
			continue
		}
		if r.Max != nil && value >= *r.Max {
			continue
		}
		return r.Score
	}
	return 0
}

// Validate rejects ambiguous configurations before they reach the evaluator:
// ranges must be sorted, contiguous, non-overlapping, cover [0, +inf) and
// carry scores in 1..10.
func Validate(ranges []Range) error {
	if len(ranges) == 0 {
		return fmt.Errorf("score ranges: empty set")
	}
	if !sort.SliceIsSorted(ranges, func(i, j int) bool { return ranges[i].Min < ranges[j].Min }) {
		return fmt.Errorf("score ranges: not sorted by min")
	}
	if ranges[0].Min != 0 {
		return fmt.Errorf("score ranges: first range must start at 0, got %v", ranges[0].Min)
	}
	for i, r := range ranges {
		if r.Score < 1 || r.Score > 10 {
			return fmt.Errorf("score ranges: score %d out of 1-10", r.Score)
		}
		last := i == len(ranges)-1
		if last {
			if r.Max != nil {
				return fmt.Errorf("score ranges: last range must be unbounded")
			}
			continue
		}
		if r.Max == nil {
			return fmt.Errorf("score ranges: only the last range may be unbounded")
		}
		if *r.Max <= r.Min {
			return fmt.Errorf("score ranges: range %d is empty or inverted", i)
		}
		if ranges[i+1].Min != *r.Max {
			return fmt.Errorf("score ranges: gap or overlap between %v and %v", *r.Max, ranges[i+1].Min)
		}
	}
	return nil
}

// Overrides maps a metric key (the report's JSON field name) to its range
// set. Metrics without an override use the built-in defaults.
type Overrides map[string][]Range

// LoadOverrides reads and validates a JSON override file. An empty path
// yields nil overrides without error.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("score overrides: %w", err)
	}
	var overrides Overrides
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("score overrides: %w", err)
	}
	for metric, ranges := range overrides {
		if err := Validate(ranges); err != nil {
			return nil, fmt.Errorf("metric %q: %w", metric, err)
		}
	}
	return overrides, nil
}

// Ranges returns the effective range set for a metric.
func (o Overrides) Ranges(metric string) []Range {
	if o != nil {
		if ranges, ok := o[metric]; ok {
			return ranges
		}
	}
	return defaultRanges[metric]
}

// ScoreMetric grades a metric value 1-10 under the effective ranges.
func (o Overrides) ScoreMetric(metric string, value float64) int {
	return Score(value, o.Ranges(metric))
}

// ascending builds a 10-band set where higher values score higher; cuts are
// the nine interior boundaries.
func ascending(cuts ...float64) []Range {
	ranges := make([]Range, 0, len(cuts)+1)
	min := 0.0
	for i, cut := range cuts {
		c := cut
		ranges = append(ranges, Range{Min: min, Max: &c, Score: i + 1})
		min = cut
	}
	ranges = append(ranges, Range{Min: min, Score: len(cuts) + 1})
	return ranges
}

// descending builds a 10-band set where lower values score higher (complaint
// and callback style metrics).
func descending(cuts ...float64) []Range {
	ranges := make([]Range, 0, len(cuts)+1)
	min := 0.0
	top := len(cuts) + 1
	for i, cut := range cuts {
		c := cut
		ranges = append(ranges, Range{Min: min, Max: &c, Score: top - i})
		min = cut
	}
	ranges = append(ranges, Range{Min: min, Score: 1})
	return ranges
}

var defaultRanges = map[string][]Range{
	"installRate":              ascending(3, 6, 9, 12, 15, 18, 21, 24, 27),
	"installRevenuePerJob":     ascending(200, 400, 600, 800, 1000, 1250, 1500, 1750, 2000),
	"jettingRate":              ascending(5, 10, 15, 20, 25, 30, 35, 40, 45),
	"jettingRevenuePerJob":     ascending(50, 100, 150, 200, 250, 300, 350, 400, 450),
	"descalingRate":            ascending(2, 4, 6, 8, 10, 12, 14, 16, 18),
	"descalingRevenuePerJob":   ascending(25, 50, 75, 100, 125, 150, 175, 200, 225),
	"zeroRevenueRate":          descending(2, 4, 6, 8, 10, 13, 16, 20, 25),
	"diagnosticOnlyRate":       descending(3, 6, 9, 12, 15, 18, 22, 26, 30),
	"callbackRate":             descending(1, 2, 3, 4, 5, 6, 8, 10, 12),
	"complaintRate":            descending(0.5, 1, 1.5, 2, 3, 4, 5, 7, 9),
	"membershipConversionRate": ascending(2, 4, 6, 8, 10, 12, 15, 18, 21),
	"membershipsRenewed":       ascending(2, 4, 6, 9, 12, 15, 20, 25, 30),
	"jobEfficiency":            ascending(50, 60, 70, 78, 85, 90, 95, 100, 110),
	"laborRevenuePerHour":      ascending(100, 150, 200, 250, 300, 350, 400, 450, 500),
	"techPayRate":              descending(12, 15, 18, 21, 24, 27, 30, 34, 38),
	"averageTicket":            ascending(150, 250, 350, 450, 550, 650, 750, 900, 1100),
}

// MetricKeys lists the scoreable report fields in display order.
var MetricKeys = []string{
	"installRate", "installRevenuePerJob",
	"jettingRate", "jettingRevenuePerJob",
	"descalingRate", "descalingRevenuePerJob",
	"zeroRevenueRate", "diagnosticOnlyRate",
	"callbackRate", "complaintRate",
	"membershipConversionRate", "membershipsRenewed",
	"jobEfficiency", "laborRevenuePerHour",
	"techPayRate", "averageTicket",
}

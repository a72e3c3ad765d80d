package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func bounded(min, max float64, score int) Range {
	return Range{Min: min, Max: &max, Score: score}
}

func TestScoreFirstMatch(t *testing.T) {
	ranges := []Range{
		bounded(0, 5, 1),
		bounded(5, 10, 2),
		{Min: 10, Score: 3},
	}
	cases := []struct {
		value float64
		want  int
	}{
		{4, 1},
		{5, 2},
		{10, 3},
		{1000, 3},
		{0, 1},
		{-1, 0},
	}
	for _, tc := range cases {
		if got := Score(tc.value, ranges); got != tc.want {
			t.Fatalf("Score(%v) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestScoreOverlapFirstWins(t *testing.T) {
	// Unvalidated overlapping set: evaluation order decides.
	ranges := []Range{
		bounded(0, 10, 7),
		bounded(5, 15, 2),
	}
	if got := Score(7, ranges); got != 7 {
		t.Fatalf("first matching range must win, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	valid := []Range{bounded(0, 5, 1), bounded(5, 10, 2), {Min: 10, Score: 3}}
	if err := Validate(valid); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}

	cases := []struct {
		name   string
		ranges []Range
	}{
		{"empty", nil},
		{"gap", []Range{bounded(0, 5, 1), bounded(6, 10, 2), {Min: 10, Score: 3}}},
		{"overlap", []Range{bounded(0, 6, 1), bounded(5, 10, 2), {Min: 10, Score: 3}}},
		{"unsorted", []Range{bounded(5, 10, 2), bounded(0, 5, 1), {Min: 10, Score: 3}}},
		{"bounded tail", []Range{bounded(0, 5, 1), bounded(5, 10, 2)}},
		{"nonzero start", []Range{bounded(1, 5, 1), {Min: 5, Score: 2}}},
		{"score out of band", []Range{bounded(0, 5, 11), {Min: 5, Score: 2}}},
		{"interior unbounded", []Range{{Min: 0, Score: 1}, {Min: 5, Score: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.ranges); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefaultRangesAllValid(t *testing.T) {
	for _, metric := range MetricKeys {
		ranges := Overrides(nil).Ranges(metric)
		if len(ranges) == 0 {
			t.Fatalf("metric %q has no default ranges", metric)
		}
		if err := Validate(ranges); err != nil {
			t.Fatalf("metric %q defaults invalid: %v", metric, err)
		}
		if got := Score(0, ranges); got < 1 || got > 10 {
			t.Fatalf("metric %q: zero scored %d", metric, got)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.json")
	payload := `{"installRate":[{"min":0,"max":50,"score":1},{"min":50,"score":10}]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	overrides, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if got := overrides.ScoreMetric("installRate", 60); got != 10 {
		t.Fatalf("override score = %d, want 10", got)
	}
	// Non-overridden metrics fall back to defaults.
	if got := overrides.ScoreMetric("callbackRate", 0); got != 10 {
		t.Fatalf("default callback score at 0 = %d, want 10", got)
	}

	if _, err := LoadOverrides(""); err != nil {
		t.Fatalf("empty path must be a no-op, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"installRate":[{"min":5,"score":1}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOverrides(bad); err == nil {
		t.Fatal("invalid override set must be rejected at load")
	}
}

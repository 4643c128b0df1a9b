package analytics

import (
	"math"
	"testing"
	"time"
)

func series(values ...float64) []Point {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Timestamp: start.Add(time.Duration(i) * 24 * time.Hour), Value: v}
	}
	return points
}

func TestParseViewCount(t *testing.T) {
	cases := map[string]int64{
		"1.2K":                  1200,
		"3M":                    3000000,
		"":                      0,
		"500":                   500,
		"1,234,567 views":       1234567,
		"2.5B views":            2500000000,
		"1.5M views":            1500000,
		"No views":              0,
		"k":                     0,
		".5k":                   500,
		"12.":                   12,
		"1.2.3k":                1200,
		"999.6":                 1000,
		"99999999999999999999b": math.MaxInt64,
		"9223372036854775807":   math.MaxInt64,
	}
	for input, want := range cases {
		if got := ParseViewCount(input); got != want {
			t.Errorf("ParseViewCount(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestCategoryToCode(t *testing.T) {
	if got := CategoryToCode("Gaming"); got != 20 {
		t.Fatalf("Gaming should map to 20, got %d", got)
	}
	if got := CategoryToCode("unknown-xyz"); got != 0 {
		t.Fatalf("unknown category should map to 0, got %d", got)
	}
	if got := CategoryToCode("HEALTH"); got != 45 {
		t.Fatalf("HEALTH should map to 45, got %d", got)
	}
	if KnownCategory("unknown-xyz") {
		t.Fatal("unknown-xyz should not be a known category")
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []Point
		want   Trend
	}{
		{"empty", nil, TrendStable},
		{"single point", series(42), TrendStable},
		{"flat", series(5, 5, 5, 5, 5, 5), TrendStable},
		{"rising", series(10, 10, 10, 20, 20, 20), TrendRising},
		{"falling", series(20, 20, 20, 10, 10, 10), TrendFalling},
		{"inside band", series(10, 10, 10, 10.5, 10.5, 10.5), TrendStable},
		{"only last six count", series(100, 100, 100, 10, 10, 10, 20, 20, 20), TrendRising},
		// an empty earlier window averages 0, so any positive recent mean rises
		{"empty earlier window", series(5, 10), TrendRising},
		{"all zero", series(0, 0, 0), TrendStable},
		{"non-finite treated as zero", series(10, 10, 10, math.NaN(), math.Inf(1), 0), TrendFalling},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyTrend(tc.series); got != tc.want {
				t.Fatalf("ClassifyTrend = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAverageVolume(t *testing.T) {
	if got := AverageVolume(nil); got != 0 {
		t.Fatalf("empty series should average 0, got %d", got)
	}
	if got := AverageVolume(series(10, 20)); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if got := AverageVolume(series(1, 2)); got != 2 {
		t.Fatalf("1.5 should round up to 2, got %d", got)
	}
	if got := AverageVolume(series(0.4)); got != 0 {
		t.Fatalf("0.4 should round to 0, got %d", got)
	}
	if got := AverageVolume(series(1e300)); got != math.MaxInt64 {
		t.Fatalf("oversized mean should clamp to MaxInt64, got %d", got)
	}
	if got := AverageVolume(series(-10, -20)); got != 0 {
		t.Fatalf("negative mean should clamp to 0, got %d", got)
	}
}

func TestIsFresh(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	if !IsFresh(now.Add(-30*time.Minute), time.Hour, now) {
		t.Fatal("30 minutes old record should be fresh in a 1h window")
	}
	if IsFresh(now.Add(-90*time.Minute), time.Hour, now) {
		t.Fatal("90 minutes old record should be stale in a 1h window")
	}
	if IsFresh(now.Add(-time.Hour), time.Hour, now) {
		t.Fatal("record exactly one window old should be stale")
	}
}

func TestCachePolicyForcedFresh(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	policy := CachePolicy{Window: KeywordWindow}

	if !policy.Serve(now.Add(-time.Minute), false, now) {
		t.Fatal("recent record should be served from cache")
	}
	if policy.Serve(now.Add(-time.Minute), true, now) {
		t.Fatal("fresh=true must force a miss")
	}
	if policy.Serve(now, true, now) {
		t.Fatal("fresh=true must force a miss even for a record written now")
	}
	if got := policy.Cutoff(now); !got.Equal(now.Add(-6 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", got)
	}
}

func TestParseTrend(t *testing.T) {
	if _, err := ParseTrend("rising"); err != nil {
		t.Fatalf("rising should parse: %v", err)
	}
	if _, err := ParseTrend("sideways"); err == nil {
		t.Fatal("unknown label should fail")
	}
}

// Package analytics derives keyword trend labels, volumes and cache decisions from provider data.
package analytics

import (
	"fmt"
	"math"
	"time"
)

// Trend labels a keyword's recent search interest.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendStable  Trend = "stable"
	TrendFalling Trend = "falling"
)

const (
	trendWindow   = 3
	risingFactor  = 1.1
	fallingFactor = 0.9
)

// ParseTrend validates a stored trend label.
func ParseTrend(s string) (Trend, error) {
	switch t := Trend(s); t {
	case TrendRising, TrendStable, TrendFalling:
		return t, nil
	default:
		return "", fmt.Errorf("unknown trend %q", s)
	}
}

// Point is one sample of an interest-over-time series.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// ClassifyTrend compares the mean of the last three points against the three before them.
// The earlier window is the fixed slice [-6,-3) regardless of sampling spacing.
func ClassifyTrend(series []Point) Trend {
	if len(series) < 2 {
		return TrendStable
	}

	n := len(series)
	recent := series[max(n-trendWindow, 0):]
	earlier := series[max(n-2*trendWindow, 0):max(n-trendWindow, 0)]

	recentMean := meanValue(recent)
	earlierMean := meanValue(earlier)

	switch {
	case recentMean > earlierMean*risingFactor:
		return TrendRising
	case recentMean < earlierMean*fallingFactor:
		return TrendFalling
	default:
		return TrendStable
	}
}

func meanValue(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += pointValue(p)
	}
	return sum / float64(len(points))
}

// pointValue treats non-finite provider values as missing.
func pointValue(p Point) float64 {
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return 0
	}
	return p.Value
}

package analytics

import "time"

// Cache windows for stored provider data.
const (
	NewsWindow        = time.Hour
	KeywordWindow     = 6 * time.Hour
	TopSearchesWindow = time.Hour
)

// IsFresh reports whether a record refreshed at lastUpdated may still be served at now.
func IsFresh(lastUpdated time.Time, window time.Duration, now time.Time) bool {
	return now.Sub(lastUpdated) < window
}

// CachePolicy applies a freshness window to stored records.
type CachePolicy struct {
	Window time.Duration
}

// Serve decides between a cache hit and a refresh. forceFresh always forces a miss.
func (p CachePolicy) Serve(lastUpdated time.Time, forceFresh bool, now time.Time) bool {
	if forceFresh {
		return false
	}
	return IsFresh(lastUpdated, p.Window, now)
}

// Cutoff is the exclusive lower bound on lastUpdated for records still fresh at now.
func (p CachePolicy) Cutoff(now time.Time) time.Time {
	return now.Add(-p.Window)
}

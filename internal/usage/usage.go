// Package usage implements the per-identity daily call counter that admits rate-limited requests.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Tier is an identity's subscription level.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Unlimited reports whether the tier bypasses daily limits.
func (t Tier) Unlimited() bool {
	return t == TierPremium
}

// ErrLimitExceeded matches any *LimitError.
var ErrLimitExceeded = errors.New("usage: daily api limit exceeded")

// LimitError reports a denied admission together with the limit that was applied.
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily api limit exceeded (limit %d)", e.Limit)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// Counter is the usage state embedded in an identity record.
type Counter struct {
	CallsToday int        `json:"apiCallsToday"`
	LastCall   *time.Time `json:"lastApiCall"`
}

// Account is the slice of an identity the gate needs.
type Account struct {
	Identity string
	Tier     Tier
	Counter  Counter
}

// Decision is the outcome of one admission check.
type Decision struct {
	Admitted bool
	Limit    int
	Counter  Counter
}

// Err returns a *LimitError for denied decisions and nil otherwise.
func (d Decision) Err() error {
	if d.Admitted {
		return nil
	}
	return &LimitError{Limit: d.Limit}
}

// DayStart returns local midnight of t's calendar day in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Evaluate applies the lazy daily reset and the limit check for a call made at now.
// A denied call leaves the counter unincremented.
func Evaluate(account Account, limit int, now time.Time) Decision {
	counter := account.Counter
	if counter.LastCall == nil || counter.LastCall.Before(DayStart(now)) {
		counter.CallsToday = 0
	}

	if counter.CallsToday >= limit && !account.Tier.Unlimited() {
		return Decision{Admitted: false, Limit: limit, Counter: counter}
	}

	stamp := now
	counter.CallsToday++
	counter.LastCall = &stamp
	return Decision{Admitted: true, Limit: limit, Counter: counter}
}

// Ledger loads an identity's account, runs evaluate and persists the resulting counter when admitted.
type Ledger interface {
	ApplyUsage(ctx context.Context, identity string, evaluate func(Account) Decision) (Decision, error)
}

// Clock supplies wall-clock time; the server's local zone defines the day boundary.
type Clock func() time.Time

// Gate binds Evaluate to a Ledger and a clock.
type Gate struct {
	ledger Ledger
	now    Clock
	logger zerolog.Logger
}

// NewGate constructs an admission gate. A nil clock uses time.Now.
func NewGate(ledger Ledger, clock Clock, logger zerolog.Logger) *Gate {
	if clock == nil {
		clock = time.Now
	}
	return &Gate{ledger: ledger, now: clock, logger: logger.With().Str("component", "usage_gate").Logger()}
}

// Check admits or denies one call for identity against limit.
// The returned error is non-nil only when the ledger fails.
func (g *Gate) Check(ctx context.Context, identity string, limit int) (Decision, error) {
	if g.ledger == nil {
		return Decision{}, errors.New("usage ledger not configured")
	}

	now := g.now()
	decision, err := g.ledger.ApplyUsage(ctx, identity, func(a Account) Decision {
		return Evaluate(a, limit, now)
	})
	if err != nil {
		return Decision{}, fmt.Errorf("apply usage: %w", err)
	}

	if !decision.Admitted {
		g.logger.Info().Str("identity", identity).Int("limit", limit).
			Int("calls_today", decision.Counter.CallsToday).
			Msg("admission denied")
	}
	return decision, nil
}

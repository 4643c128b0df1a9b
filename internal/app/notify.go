package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"creator-trends/internal/alerting"
	"creator-trends/internal/analytics"
	"creator-trends/internal/auth"
	"creator-trends/internal/storage"
)

// NotifyTest pushes a sample rising-keyword alert through the configured channels.
func (a *App) NotifyTest(ctx context.Context, keyword string) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is disabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		keyword = "creator-trends test"
	}

	return notifier.Notify(ctx, alerting.Notification{
		Keyword:       keyword,
		SearchVolume:  42,
		Previous:      analytics.TrendStable,
		Current:       analytics.TrendRising,
		ObservedAt:    time.Now().UTC(),
		Channels:      a.Config.Alerting.Channels,
		AdditionalMsg: "test notification",
	})
}

// IssueToken signs a bearer token for uid with the configured secret.
func (a *App) IssueToken(uid, email string) (string, error) {
	return auth.NewTokens(a.Config.Auth).Issue(storage.Identity{
		UID:         uid,
		Email:       email,
		DisplayName: uid,
		Verified:    email != "",
	})
}

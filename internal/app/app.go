package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"creator-trends/internal/alerting"
	"creator-trends/internal/config"
	"creator-trends/internal/fetcher"
	"creator-trends/internal/scheduler"
	"creator-trends/internal/service"
	"creator-trends/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() *fetcher.SERP {
	return fetcher.NewSERP(fetcher.SERPOptions{
		BaseURL:   a.Config.SERP.BaseURL,
		APIKey:    a.Config.SERP.APIKey,
		Timeout:   a.Config.SERP.RequestTimeout,
		UserAgent: a.Config.SERP.UserAgent,
	}, a.Logger)
}

func (a *App) newGenerator() *fetcher.OpenRouter {
	return fetcher.NewOpenRouter(fetcher.OpenRouterOptions{
		BaseURL: a.Config.OpenRouter.BaseURL,
		APIKey:  a.Config.OpenRouter.APIKey,
		Model:   a.Config.OpenRouter.Model,
		Timeout: a.Config.OpenRouter.RequestTimeout,
		Referer: a.Config.OpenRouter.Referer,
		Title:   a.Config.OpenRouter.Title,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newScheduler() *scheduler.Scheduler {
	if a.Config.Refresh.Interval <= 0 {
		return nil
	}
	return scheduler.New(scheduler.Options{
		Interval:     a.Config.Refresh.Interval,
		AlignToStart: a.Config.Refresh.AlignToBucket,
		StartupDelay: a.Config.Refresh.StartupDelay,
		RunOnStart:   a.Config.Refresh.RunOnStart,
	}, a.Logger)
}

func (a *App) newService(store *storage.Store, sched *scheduler.Scheduler) *service.Service {
	return service.New(a.Config, service.Deps{
		Scheduler:  sched,
		Source:     a.newSource(),
		Generator:  a.newGenerator(),
		Store:      store,
		Thumbnails: store,
		Notifier:   a.newNotifier(),
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Refresh runs a single top-searches refresh round for every configured category.
func (a *App) Refresh(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := a.newService(store, nil)
	round := time.Now().UTC()
	if a.Config.Refresh.Interval > 0 {
		round = round.Truncate(a.Config.Refresh.Interval)
	}

	a.Logger.Info().Strs("categories", a.Config.Refresh.Categories).Msg("refreshing top searches")
	return svc.RefreshTopSearches(ctx, round)
}

// Migrate applies the SQL scripts under database.migrations_path.
func (a *App) Migrate(ctx context.Context) error {
	if a.Config.Database.DSN == "" {
		return errors.New("database.dsn not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := storage.Migrate(ctx, pool, a.Config.Database.MigrationsPath)
	if err != nil {
		return err
	}
	a.Logger.Info().Strs("applied", applied).Msg("migrations applied")
	return nil
}

// ExportOptions hold parameters for exporting stored keywords.
type ExportOptions struct {
	PNGPath     string
	CSVPath     string
	MaxKeywords int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit    int
	Category string
	Since    time.Duration
}

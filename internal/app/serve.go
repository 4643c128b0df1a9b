package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"creator-trends/internal/api"
	"creator-trends/internal/auth"
	"creator-trends/internal/usage"
)

// Serve runs the REST API and, when refresh.interval is set, the background refresh loop.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := a.newScheduler()
	svc := a.newService(store, sched)

	tokens := auth.NewTokens(a.Config.Auth)
	router := api.NewRouter(api.Deps{
		Config:   a.Config,
		Service:  svc,
		Users:    store,
		Gate:     usage.NewGate(store, nil, a.Logger),
		Verifier: tokens,
		Issuer:   tokens,
		Logger:   a.Logger,
	})

	server := &http.Server{
		Addr:         a.Config.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  a.Config.HTTP.ReadTimeout,
		WriteTimeout: a.Config.HTTP.WriteTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info().Str("addr", server.Addr).Str("environment", a.Config.App.Environment).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.Logger.Info().Msg("shutting down http server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancelShutdown()
		return server.Shutdown(shutdownCtx)
	})

	if sched != nil {
		g.Go(func() error {
			a.Logger.Info().Dur("interval", a.Config.Refresh.Interval).Msg("starting top-searches refresh loop")
			if err := svc.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.Logger.Error().Err(err).Msg("server terminated with error")
		return err
	}

	a.Logger.Info().Msg("server stopped")
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.Config.HTTP.ShutdownTimeout > 0 {
		return a.Config.HTTP.ShutdownTimeout
	}
	return 10 * time.Second
}

package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/glowmart/loyalty/internal/adapter/realtime"
	"github.com/glowmart/loyalty/internal/config"
	"github.com/glowmart/loyalty/internal/usecase"
	"github.com/glowmart/loyalty/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewLoyaltyFacade,
		newHTTPServer,
		newReconciler,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type reconcilerParams struct {
	fx.In

	Config *config.Config
	Source worker.EventSource
	Ledger worker.Ledger
	Logger *slog.Logger
}

func newReconciler(p reconcilerParams) *worker.Reconciler {
	return worker.NewReconciler(p.Config.AccountID, p.Source, p.Ledger, p.Logger)
}

type lifecycleParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Shutdowner  fx.Shutdowner
	Logger      *slog.Logger
	Server      *http.Server
	Channel     *realtime.Client
	Reconciler  *worker.Reconciler
	Activations *usecase.ActivationQueue
	Config      *config.Config
}

func registerLifecycle(p lifecycleParams) {
	var (
		runCancel   context.CancelFunc
		channelDone chan struct{}
	)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting loyalty service",
				slog.String("addr", p.Server.Addr),
				slog.String("account", p.Config.AccountID),
			)

			// The run context outlives the fx start context.
			runCtx, cancel := context.WithCancel(context.Background())
			runCancel = cancel

			channelDone = make(chan struct{})
			go func() {
				defer close(channelDone)
				p.Channel.Run(runCtx)
			}()
			p.Reconciler.Start(runCtx)
			p.Activations.Start(runCtx)

			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Reconciler.Stop()
			p.Activations.Stop()
			if runCancel != nil {
				runCancel()
			}
			if channelDone != nil {
				select {
				case <-channelDone:
				case <-ctx.Done():
				}
			}

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("loyalty service stopped")
			return nil
		},
	})
}

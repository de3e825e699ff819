// Package app wires the bot together: config, logging, metrics, the
// Discord session, and the Watermill router carrying the
// gather → format → game event chain.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/mk-lounge/gatherbot/app/discord"
	"github.com/mk-lounge/gatherbot/app/eventbus"
	"github.com/mk-lounge/gatherbot/app/events"
	formathandlers "github.com/mk-lounge/gatherbot/app/modules/format/handlers"
	gatherhandlers "github.com/mk-lounge/gatherbot/app/modules/gather/handlers"
	gamehandlers "github.com/mk-lounge/gatherbot/app/modules/game/handlers"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
	"github.com/mk-lounge/gatherbot/config"
	"github.com/mk-lounge/gatherbot/internal/metrics"
)

type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	bus     *eventbus.EventBus
	router  *message.Router
	bot     *discord.Bot
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	m := metrics.New()
	bus := eventbus.New(logger)

	wmLogger := watermill.NewSlogLogger(logger)
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)
	wmmetrics.NewPrometheusMetricsBuilder(m.Registry(), "gatherbot", "").AddPrometheusRouterMetrics(router)

	bot, err := discord.New(cfg.Discord, logger, m)
	if err != nil {
		return nil, err
	}

	fetchOpts := tables.FetchOptions{
		MessageLimit: cfg.Fetch.MessageLimit,
		MaxAge:       cfg.Fetch.MaxAge,
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	gatherHandlers := gatherhandlers.New(bot.Sender(), bus, logger)
	formatHandlers := formathandlers.New(bot.Sender(), bus, logger)
	gameHandlers := gamehandlers.New(bot.Sender(), bot.Session(), m, logger, rng, bot.BotID(), fetchOpts)

	gatherHandlers.Register(bot)
	formatHandlers.Register(bot)
	gameHandlers.Register(bot)

	router.AddNoPublisherHandler(
		"format.on-gather-completed",
		events.GatherCompleted,
		bus.Subscriber(),
		formatHandlers.HandleGatherCompleted,
	)
	router.AddNoPublisherHandler(
		"game.on-format-resolved",
		events.FormatResolved,
		bus.Subscriber(),
		gameHandlers.HandleFormatResolved,
	)

	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		bus:     bus,
		router:  router,
		bot:     bot,
	}, nil
}

// Run starts the router, the metrics listener, and the gateway, then
// blocks until the context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		if err := a.router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("router: %w", err)
		}
	}()
	go func() {
		if err := a.metrics.Serve(ctx, a.cfg.Metrics.Address, a.logger); err != nil {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	// Handlers must be registered and running before interactions
	// start arriving.
	select {
	case <-a.router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := a.bot.Open(ctx); err != nil {
		return err
	}
	a.logger.Info("gatherbot is ready")

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Close tears the components down in reverse start order.
func (a *App) Close() error {
	var errs []error
	if err := a.bot.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing gateway: %w", err))
	}
	if err := a.router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing router: %w", err))
	}
	if err := a.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing event bus: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

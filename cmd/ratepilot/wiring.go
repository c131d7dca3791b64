package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"ratepilot/internal/app/commands"
	"ratepilot/internal/app/dto"
	availabilityapp "ratepilot/internal/app/handlers/availability"
	calendarapp "ratepilot/internal/app/handlers/calendar"
	insightsapp "ratepilot/internal/app/handlers/insights"
	pricingapp "ratepilot/internal/app/handlers/pricing"
	revenueapp "ratepilot/internal/app/handlers/revenue"
	"ratepilot/internal/app/middleware"
	appoutbox "ratepilot/internal/app/outbox"
	"ratepilot/internal/app/policies"
	"ratepilot/internal/app/queries"
	domainavailability "ratepilot/internal/domain/availability"
	domaincalendar "ratepilot/internal/domain/calendar"
	domaininsights "ratepilot/internal/domain/insights"
	domainpricing "ratepilot/internal/domain/pricing"
	"ratepilot/internal/domain/property"
	domainrevenue "ratepilot/internal/domain/revenue"
	rediscache "ratepilot/internal/infra/cache/redis"
	"ratepilot/internal/infra/config"
	mongodb "ratepilot/internal/infra/db/mongo"
	ginserver "ratepilot/internal/infra/http/gin"
	"ratepilot/internal/infra/obs"
	infraoutbox "ratepilot/internal/infra/outbox"
	pricinginfra "ratepilot/internal/infra/pricing"
	"ratepilot/internal/infra/providers"
	"ratepilot/internal/infra/storage/memory"
	s3storage "ratepilot/internal/infra/storage/s3"
	"ratepilot/internal/infra/storage/scylla"
)

// outboxStore is written by handlers and drained by the relay worker.
type outboxStore interface {
	appoutbox.Outbox
	infraoutbox.Source
}

type dataProviders interface {
	domainpricing.MarketDataProvider
	domainpricing.CompetitorProvider
	domainpricing.DemandProvider
	domaininsights.MarketTrendsProvider
	domaininsights.CompetitorAnalysisProvider
	domaininsights.PerformanceProvider
	domainrevenue.ProjectionSource
}

type stores struct {
	properties  property.Repository
	calendars   domaincalendar.Store
	rules       domainavailability.RuleStore
	strategies  domainpricing.StrategyStore
	idempotency middleware.IdempotencyStore
	outbox      outboxStore
}

type application struct {
	handlers ginserver.Handlers
	commands commands.Bus
	outbox   outboxStore
	checks   map[string]obs.Check
	closers  []func(context.Context) error
	wg       sync.WaitGroup
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}

	st, err := app.buildStores(ctx, cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	if err := seedFixtures(ctx, cfg, st, logger); err != nil {
		app.close(logger)
		return nil, err
	}
	data, err := buildProviders(cfg, st.properties, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}

	engine := &domainpricing.Engine{
		Properties:      st.properties,
		Market:          data,
		Competitors:     data,
		Demand:          data,
		MultiplierFloor: cfg.MultiplierFloor,
		Logger:          logger,
	}
	bounds := pricinginfra.LoadClampConfig(cfg.PriceBounds, logger)
	board := memory.NewRateBoard(st.properties)
	encoder := appoutbox.JSONEventEncoder{}

	var quoteCache policies.QuoteCache
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		cache := &rediscache.QuoteCache{Client: client, TTL: cfg.QuoteCacheTTL}
		quoteCache = cache
		app.checks["redis"] = cache.Ping
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		logger.Info("quote cache enabled", "addr", cfg.RedisAddr)
	}

	var archive policies.ReportArchive
	if cfg.S3Endpoint != "" {
		client, err := s3storage.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			app.close(logger)
			return nil, err
		}
		archive = &s3storage.ReportArchive{Uploader: client, NewID: uuid.NewString}
		app.checks["s3"] = client.Ping
		logger.Info("report archive enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	}

	syncLog, err := app.buildSyncLog(cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}
	synchronizer := &domaincalendar.Synchronizer{
		Store:    st.calendars,
		Resolver: conflictLogger{logger: logger},
		Log:      syncLog,
		Logger:   logger,
	}
	optimizer := &domainrevenue.Optimizer{
		Quoter:      engine,
		Prices:      board,
		Projections: data,
		Logger:      logger,
	}
	insightsService := &domaininsights.Service{
		Properties:  st.properties,
		Market:      data,
		Competitors: data,
		Performance: data,
		Logger:      logger,
	}

	commandBus := commands.NewInMemoryBus()
	commands.Register[pricingapp.UpdatePricingStrategyCommand, dto.PricingStrategyResult](commandBus, pricingapp.UpdatePricingStrategyCommand{}.Key(), &pricingapp.UpdatePricingStrategyHandler{
		Properties: st.properties,
		Strategies: st.strategies,
		Engine:     engine,
		Publisher:  board,
		Outbox:     st.outbox,
		Encoder:    encoder,
		NewID:      uuid.NewString,
		Logger:     logger,
	})
	commands.Register[pricingapp.RunDueStrategiesCommand, pricingapp.RunDueStrategiesResult](commandBus, pricingapp.RunDueStrategiesCommand{}.Key(), &pricingapp.RunDueStrategiesHandler{
		Properties: st.properties,
		Strategies: st.strategies,
		Engine:     engine,
		Publisher:  board,
		Outbox:     st.outbox,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[revenueapp.OptimizeRevenueCommand, dto.RevenueReport](commandBus, revenueapp.OptimizeRevenueCommand{}.Key(), &revenueapp.OptimizeRevenueHandler{
		Properties: st.properties,
		Optimizer:  optimizer,
		Archive:    archive,
		Outbox:     st.outbox,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.Register[calendarapp.SyncCalendarsCommand, dto.SyncResult](commandBus, calendarapp.SyncCalendarsCommand{}.Key(), &calendarapp.SyncCalendarsHandler{
		Properties:   st.properties,
		Synchronizer: synchronizer,
		Outbox:       st.outbox,
		Encoder:      encoder,
		Logger:       logger,
	})
	commands.Register[availabilityapp.SetAvailabilityRulesCommand, dto.AvailabilityResult](commandBus, availabilityapp.SetAvailabilityRulesCommand{}.Key(), &availabilityapp.SetAvailabilityRulesHandler{
		Properties: st.properties,
		Rules:      st.rules,
		Calendars:  st.calendars,
		Outbox:     st.outbox,
		Encoder:    encoder,
		NewID:      uuid.NewString,
		Logger:     logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.Register[pricingapp.GetQuoteQuery, dto.PriceQuote](queryBus, pricingapp.GetQuoteQuery{}.Key(), &pricingapp.GetQuoteHandler{
		Engine:      engine,
		Properties:  st.properties,
		Bounds:      bounds,
		Cache:       quoteCache,
		StaleServed: obs.StaleQuotes,
		Logger:      logger,
	})
	queries.Register[calendarapp.GetCalendarQuery, dto.Calendar](queryBus, calendarapp.GetCalendarQuery{}.Key(), &calendarapp.GetCalendarHandler{
		Properties: st.properties,
		Store:      st.calendars,
	})
	queries.Register[availabilityapp.CheckStayQuery, availabilityapp.StayCheck](queryBus, availabilityapp.CheckStayQuery{}.Key(), &availabilityapp.CheckStayHandler{
		Properties: st.properties,
		Rules:      st.rules,
		Calendars:  st.calendars,
	})
	queries.Register[insightsapp.GetInsightsQuery, dto.MarketInsights](queryBus, insightsapp.GetInsightsQuery{}.Key(), &insightsapp.GetInsightsHandler{
		Service: insightsService,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(),
		middleware.ObserveCommands(logger, obs.ObserveDispatch),
		middleware.Idempotency(st.idempotency, nil, nil),
		middleware.OutboxFlush(st.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(),
		middleware.ObserveQueries(logger, obs.ObserveDispatch),
	)

	app.commands = commandBusWithMiddleware
	app.outbox = st.outbox
	app.handlers = ginserver.Handlers{
		Pricing: ginserver.PricingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Revenue: ginserver.RevenueHandler{
			Commands: commandBusWithMiddleware,
			Logger:   logger,
		},
		Calendar: ginserver.CalendarHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Availability: ginserver.AvailabilityHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Insights: ginserver.InsightsHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
	}
	return app, nil
}

func (a *application) buildStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return stores{}, fmt.Errorf("mongo: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx); err != nil {
			return stores{}, fmt.Errorf("mongo: ping: %w", err)
		}
		a.checks["mongo"] = client.Ping
		logger.Info("mongo storage enabled", "database", cfg.MongoDB)
		return stores{
			properties:  mongodb.NewPropertyRepository(client.DB),
			calendars:   mongodb.NewCalendarStore(client.DB),
			rules:       mongodb.NewRuleStore(client.DB),
			strategies:  mongodb.NewStrategyStore(client.DB),
			idempotency: mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
			outbox:      infraoutbox.NewStore(client.DB),
		}, nil
	case config.StorageMemory, "":
		return stores{
			properties:  memory.NewPropertyRepository(),
			calendars:   memory.NewCalendarStore(),
			rules:       memory.NewRuleStore(),
			strategies:  memory.NewStrategyStore(),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			outbox:      memory.NewOutbox(),
		}, nil
	default:
		return stores{}, fmt.Errorf("unknown storage mode %q", cfg.StorageMode)
	}
}

func (a *application) buildSyncLog(cfg config.Config, logger *slog.Logger) (domaincalendar.SyncLog, error) {
	if len(cfg.ScyllaHosts) == 0 {
		return memory.NewSyncLog(100), nil
	}
	session, err := scylla.NewSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error {
		session.Close()
		return nil
	})
	a.checks["scylla"] = func(ctx context.Context) error {
		return session.Query("SELECT now() FROM system.local").WithContext(ctx).Consistency(gocql.One).Exec()
	}
	return scylla.NewSyncLog(session, logger), nil
}

func buildProviders(cfg config.Config, props property.Reader, logger *slog.Logger) (dataProviders, error) {
	if cfg.MarketDataURL != "" {
		logger.Info("market data provider enabled", "url", cfg.MarketDataURL)
		return providers.New(cfg.MarketDataURL, cfg.ProviderTimeout, logger), nil
	}
	fixtures, err := memory.LoadFixtures(cfg.FixturesPath)
	if err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	return &memory.FixtureProviders{Fixtures: fixtures, Properties: props}, nil
}

// seedFixtures loads the demo portfolio. Mongo is only seeded when a
// fixtures file is given explicitly.
func seedFixtures(ctx context.Context, cfg config.Config, st stores, logger *slog.Logger) error {
	if cfg.StorageMode == config.StorageMongo && cfg.FixturesPath == "" {
		return nil
	}
	fixtures, err := memory.LoadFixtures(cfg.FixturesPath)
	if err != nil {
		return fmt.Errorf("fixtures: %w", err)
	}
	if err := fixtures.Seed(ctx, st.properties, st.calendars); err != nil {
		return fmt.Errorf("fixtures: seed: %w", err)
	}
	logger.Info("fixtures imported", "properties", len(fixtures.Properties), "path", cfg.FixturesPath)
	return nil
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		fn := a.closers[i]
		closeQuietly(logger, "resource", func() error { return fn(ctx) })
	}
	a.closers = nil
}

func (a *application) wait() {
	a.wg.Wait()
}

// conflictLogger records conflicts. The master calendar still wins.
type conflictLogger struct {
	logger *slog.Logger
}

func (l conflictLogger) Resolve(_ context.Context, id property.ID, platform string, conflicts []domaincalendar.ConflictRecord) error {
	l.logger.Warn("calendar conflicts overridden by master",
		"property_id", string(id),
		"platform", platform,
		"conflicts", len(conflicts),
	)
	return nil
}

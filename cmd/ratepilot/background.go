package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	pricingapp "ratepilot/internal/app/handlers/pricing"
	"ratepilot/internal/app/schedule"
	"ratepilot/internal/infra/broker/kafka"
	"ratepilot/internal/infra/config"
	"ratepilot/internal/infra/obs"
	infraoutbox "ratepilot/internal/infra/outbox"
)

func (a *application) startBackground(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	var producer infraoutbox.Producer = logProducer{logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := kafka.NewProducer(cfg.KafkaBrokers, "ratepilot", nil)
		if err != nil {
			logger.Error("kafka producer unavailable, events are logged only", "error", err)
		} else {
			producer = kp
			a.closers = append(a.closers, func(context.Context) error { return kp.Close() })
		}
	}

	hostname, _ := os.Hostname()
	worker := &infraoutbox.Worker{
		Store:       a.outbox,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		ID:          hostname,
		Backoff:     cfg.RetryBackoff,
		OnRelayed:   func(status string) { obs.OutboxRelayed.WithLabelValues(status).Inc() },
		Logger:      logger,
	}
	a.spawn(ctx, logger, "outbox worker", worker.Run)

	if cfg.StrategyTick > 0 {
		ticker := &schedule.Ticker{
			Bus:      a.commands,
			Command:  pricingapp.RunDueStrategiesCommand{},
			Interval: cfg.StrategyTick,
			Logger:   logger,
		}
		a.spawn(ctx, logger, "strategy scheduler", ticker.Run)
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSyncTopic != "" {
		handler := &kafka.SyncTriggerHandler{Bus: a.commands, Logger: logger}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, handler, logger)
		if err != nil {
			logger.Error("kafka consumer unavailable, sync triggers disabled", "error", err)
			return
		}
		consumer.Backoff = cfg.RetryBackoff
		a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
		topic := cfg.TopicFor(cfg.KafkaSyncTopic)
		logger.Info("sync trigger consumer starting", "topic", topic, "group", cfg.KafkaGroupID)
		a.spawn(ctx, logger, "sync trigger consumer", func(ctx context.Context) error {
			return consumer.Run(ctx, []string{topic})
		})
	}
}

func (a *application) spawn(ctx context.Context, logger *slog.Logger, name string, run func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("background task stopped", "task", name, "error", err)
		}
	}()
}

// logProducer stands in for Kafka when no brokers are configured.
type logProducer struct {
	logger *slog.Logger
}

func (p logProducer) Publish(_ context.Context, topic, key string, payload []byte, _ map[string]string) error {
	p.logger.Debug("event relayed", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}

// Command audit-projector consumes the audit topics written by the Kafka sink
// and projects them into the audit_events table.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"

	"sanitrack/internal/platform/config"
	"sanitrack/internal/platform/logger"
	"sanitrack/internal/platform/postgres"
	audit "sanitrack/pkg/platform/audit"
	"sanitrack/pkg/platform/audit/consumer"
	auditpostgres "sanitrack/pkg/platform/audit/store/postgres"
	"sanitrack/pkg/platform/audit/worker"
)

const consumerGroup = "sanitrack-audit-projector"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log).With("component", "audit-projector")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("audit projector stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.Database.URL == "" || len(cfg.Audit.KafkaBrokers) == 0 {
		return errors.New("audit projector requires DATABASE_URL and KAFKA_BROKERS")
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	store := auditpostgres.New(db)
	router := consumer.NewRouter(log, nil)
	for _, category := range []audit.EventCategory{audit.CategoryCompliance, audit.CategorySecurity} {
		router.Register(cfg.Audit.TopicPrefix+"."+string(category), consumer.NewStoreHandler(category, store, log))
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Audit.KafkaBrokers...),
		kgo.ConsumerGroup(consumerGroup),
		kgo.ConsumeTopics(router.Topics()...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return fmt.Errorf("kafka client: %w", err)
	}
	defer client.Close()

	log.Info("projecting audit topics", "topics", router.Topics(), "group", consumerGroup)
	return worker.NewWorker(client, router, log).Run(ctx)
}

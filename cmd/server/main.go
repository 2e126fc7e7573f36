package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	jwttoken "sanitrack/internal/jwt_token"
	"sanitrack/internal/platform/config"
	"sanitrack/internal/platform/httpserver"
	"sanitrack/internal/platform/logger"
	"sanitrack/internal/platform/metrics"
	"sanitrack/internal/platform/postgres"
	"sanitrack/internal/platform/redis"
	"sanitrack/internal/query"
	"sanitrack/internal/tenancy"
	tenancymetrics "sanitrack/internal/tenancy/metrics"
	"sanitrack/internal/tenancy/mutations"
	"sanitrack/internal/tenancy/rolegate"
	httptransport "sanitrack/internal/transport/http"
	audit "sanitrack/pkg/platform/audit"
	"sanitrack/pkg/platform/audit/publishers/compliance"
	"sanitrack/pkg/platform/audit/publishers/security"
	auditkafka "sanitrack/pkg/platform/audit/store/kafka"
	auditmemory "sanitrack/pkg/platform/audit/store/memory"
	auditpostgres "sanitrack/pkg/platform/audit/store/postgres"
	"sanitrack/pkg/platform/circuit"
)

// main wires the tenancy stack behind the HTTP router and runs it until
// SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type infra struct {
	db     *sql.DB
	redis  *redis.Client
	kafka  *kgo.Client
	closer []func()
}

func (i *infra) close() {
	for n := len(i.closer) - 1; n >= 0; n-- {
		i.closer[n]()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.UsesDevSigningKey() {
		log.Warn("using development JWT signing key; set JWT_SIGNING_KEY")
	}

	deps, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	appMetrics := metrics.New()
	tenancyMetrics := tenancymetrics.New(appMetrics.Registry)

	var exec query.Executor
	if deps.db != nil {
		exec = query.NewSQLExecutor(deps.db)
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
		exec = query.NewMemoryExecutor()
	}
	client := query.NewClient(exec)

	var lookup rolegate.MembershipLookup = rolegate.NewProfileLookup(client)
	if deps.redis != nil {
		lookup = rolegate.NewCachingLookup(lookup, deps.redis,
			rolegate.WithTTL(cfg.Redis.MembershipTTL),
			rolegate.WithLogger(log),
			rolegate.WithMetrics(tenancyMetrics),
			rolegate.WithBreaker(circuit.New("membership-cache")),
		)
	}
	gate := rolegate.NewMembershipGate(lookup)

	store, reader := auditSink(cfg, deps)
	compliancePub := compliance.New(store,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(appMetrics.Registry)),
	)
	defer compliancePub.Close()
	securityPub := security.New(store,
		security.WithLogger(log),
		security.WithBufferSize(cfg.Audit.BufferSize),
		security.WithFlushInterval(cfg.Audit.FlushInterval),
	)
	defer securityPub.Close()

	svc, err := mutations.New(client, gate,
		mutations.WithLogger(log),
		mutations.WithComplianceAuditor(compliancePub),
		mutations.WithSecurityAuditor(securityPub),
		mutations.WithMetrics(tenancyMetrics),
	)
	if err != nil {
		return fmt.Errorf("build mutation service: %w", err)
	}
	safe := tenancy.NewSafe(client, tenancy.WithMetrics(tenancyMetrics))

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	routerDeps := httptransport.RouterDeps{
		Logger:         log,
		Metrics:        appMetrics,
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		AdminToken:     cfg.Server.AdminToken,
		AdminTokenHash: cfg.Server.AdminTokenHash,
		Entities:       httptransport.NewEntityHandler(svc, safe, gate, log),
		Health:         healthChecks(deps),
	}
	if reader != nil {
		routerDeps.Audit = httptransport.NewAuditHandler(reader, log)
	}

	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(routerDeps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sanitrack", "addr", cfg.Server.Addr, "audit_sink", cfg.Audit.Sink)
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
	})
	return g.Wait()
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		deps.db = db
		deps.closer = append(deps.closer, func() { _ = db.Close() })
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db, log); err != nil {
				deps.close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		// The membership cache is optional; lookups go straight to the database.
		log.Warn("redis unavailable; membership cache disabled", "error", err)
	} else if rc != nil {
		deps.redis = rc
		deps.closer = append(deps.closer, func() { _ = rc.Close() })
	}

	if cfg.Audit.Sink == "kafka" {
		kc, err := kgo.NewClient(kgo.SeedBrokers(cfg.Audit.KafkaBrokers...))
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("kafka client: %w", err)
		}
		deps.kafka = kc
		deps.closer = append(deps.closer, kc.Close)
	}
	return deps, nil
}

// auditSink returns the store publishers write to and, when the sink can be
// read back, a reader for the admin audit endpoint. With the Kafka sink the
// projector fills the postgres table, so that table is read when available.
func auditSink(cfg config.Config, deps *infra) (audit.Store, audit.Reader) {
	switch cfg.Audit.Sink {
	case "postgres":
		s := auditpostgres.New(deps.db)
		return s, s
	case "kafka":
		s := auditkafka.New(deps.kafka, cfg.Audit.TopicPrefix)
		if deps.db != nil {
			return s, auditpostgres.New(deps.db)
		}
		return s, nil
	default:
		s := auditmemory.NewInMemoryStore()
		return s, s
	}
}

func healthChecks(deps *infra) map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if deps.db != nil {
		checks["postgres"] = deps.db.PingContext
	}
	if deps.redis != nil {
		checks["redis"] = deps.redis.Health
	}
	if deps.kafka != nil {
		checks["kafka"] = deps.kafka.Ping
	}
	return checks
}

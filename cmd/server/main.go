// main wires the aid gateway: config, stores, component services, audit
// pipeline, and the HTTP server lifecycle. Business logic lives in the
// internal component packages; this file only assembles them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq"

	"aidgate/internal/accesscontrol"
	achandler "aidgate/internal/accesscontrol/handler"
	"aidgate/internal/audit"
	audithandler "aidgate/internal/audit/handler"
	"aidgate/internal/claims"
	claimshandler "aidgate/internal/claims/handler"
	claimsmetrics "aidgate/internal/claims/metrics"
	"aidgate/internal/distribution"
	distributionhandler "aidgate/internal/distribution/handler"
	distributionmetrics "aidgate/internal/distribution/metrics"
	"aidgate/internal/eligibility"
	eligibilityhandler "aidgate/internal/eligibility/handler"
	"aidgate/internal/governance"
	governancehandler "aidgate/internal/governance/handler"
	governancemetrics "aidgate/internal/governance/metrics"
	"aidgate/internal/identity"
	identityhandler "aidgate/internal/identity/handler"
	"aidgate/internal/jwtauth"
	"aidgate/internal/ledger"
	ledgerhandler "aidgate/internal/ledger/handler"
	ledgermetrics "aidgate/internal/ledger/metrics"
	"aidgate/internal/platform/config"
	"aidgate/internal/platform/httpserver"
	"aidgate/internal/platform/logger"
	platformredis "aidgate/internal/platform/redis"
	"aidgate/internal/platform/sequence"
	httptransport "aidgate/internal/transport/http"
	id "aidgate/pkg/domain"
	"aidgate/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	owner, err := id.ParseAccountID(cfg.OwnerID)
	if err != nil {
		log.Error("OWNER_ACCOUNT must be a valid account UUID", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		db         *sql.DB
		runner     tx.Runner
		roleStore  accesscontrol.Store
		ledgStore  ledger.Store
		identStore identity.Store
		eligStore  eligibility.Store
		distStore  distribution.Store
		propStore  governance.Store
	)
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		runner = tx.NewSQLRunner(db)
		pgRoles := accesscontrol.NewPostgres(db)
		if err := seedOwner(pgRoles, owner); err != nil {
			log.Error("failed to seed owner", "error", err)
			os.Exit(1)
		}
		roleStore = pgRoles
		ledgStore = ledger.NewPostgres(db)
		identStore = identity.NewPostgres(db)
		eligStore = eligibility.NewPostgres(db)
		distStore = distribution.NewPostgres(db)
		propStore = governance.NewPostgres(db)
	} else {
		runner = tx.NewMemoryRunner()
		roleStore = accesscontrol.NewInMemoryStore(owner)
		ledgStore = ledger.NewInMemoryStore()
		identStore = identity.NewInMemoryStore()
		eligStore = eligibility.NewInMemoryStore()
		distStore = distribution.NewInMemoryStore()
		propStore = governance.NewInMemoryStore()
	}

	// Audit pipeline: in-memory trail always, Redis and Kafka sinks when
	// configured. Delivery is best-effort off the request path.
	auditTrail := audit.NewInMemoryStore()
	sinks := []audit.Sink{auditTrail}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sinks = append(sinks, audit.NewRedisStore(redisClient.Client, 100_000))
		log.Info("redis audit sink enabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.Error("failed to start kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("kafka audit sink enabled", "topic", cfg.Kafka.AuditTopic)
	}

	auditor := audit.NewPublisher(1024, log)
	auditWorker := audit.NewWorker(auditor.Inbox(), log, sinks...)

	// Component services.
	roles := accesscontrol.New(roleStore,
		accesscontrol.WithAuditor(auditor),
		accesscontrol.WithLogger(log),
	)
	ledgerSvc := ledger.New(ledgStore, roles,
		ledger.Info{
			Name:      cfg.Ledger.TokenName,
			Symbol:    cfg.Ledger.TokenSymbol,
			MaxSupply: cfg.Ledger.MaxSupply,
		},
		ledger.WithAuditor(auditor),
		ledger.WithMetrics(ledgermetrics.New(registry)),
		ledger.WithLogger(log),
	)
	identitySvc := identity.New(identStore, roles, ledgStore,
		identity.WithAuditor(auditor),
		identity.WithLogger(log),
	)
	eligibilitySvc := eligibility.New(eligStore, identStore, roles, runner,
		eligibility.WithAuditor(auditor),
		eligibility.WithLogger(log),
	)

	claimCfg := claims.Config{
		Amount:   cfg.Claims.Amount,
		Cooldown: cfg.Claims.Cooldown,
		Funding:  cfg.Claims.Funding,
	}
	if cfg.Claims.Funding == config.FundingTreasury {
		treasury, err := id.ParseAccountID(cfg.Claims.Treasury)
		if err != nil {
			log.Error("CLAIM_TREASURY_ACCOUNT must be a valid account UUID", "error", err)
			os.Exit(1)
		}
		claimCfg.Treasury = treasury
	}
	claimsSvc := claims.New(ledgerSvc, eligStore, runner, claimCfg,
		claims.WithAuditor(auditor),
		claims.WithMetrics(claimsmetrics.New(registry)),
		claims.WithLogger(log),
	)

	distributionSvc := distribution.New(distStore, ledgerSvc, roleStore,
		distribution.WithAuditor(auditor),
		distribution.WithMetrics(distributionmetrics.New(registry)),
		distribution.WithLogger(log),
	)
	governanceSvc := governance.New(propStore, roles, cfg.Governance.MinVotes,
		governance.WithAuditor(auditor),
		governance.WithMetrics(governancemetrics.New(registry)),
		governance.WithLogger(log),
	)

	// HTTP surface.
	validator := jwtauth.New(cfg.Server.JWTSigningKey, "aidgate", "aidgate")
	clock := sequence.NewCounter(uint64(time.Now().Unix()))
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: validator,
		Clock:     clock,
		Registry:  registry,
		Handlers: []httptransport.Registrar{
			achandler.New(roles, log),
			ledgerhandler.New(ledgerSvc, log),
			identityhandler.New(identitySvc, log),
			eligibilityhandler.New(eligibilitySvc, log),
			claimshandler.New(claimsSvc, log),
			distributionhandler.New(distributionSvc, log),
			governancehandler.New(governanceSvc, log),
			audithandler.New(auditTrail, roles, log),
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(rootCtx)
	g.Go(func() error {
		return auditWorker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting aidgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// seedOwner installs the configured owner on first boot. An existing owner
// binding wins: ownership afterwards moves only through role transfer.
func seedOwner(store *accesscontrol.PostgresStore, owner id.AccountID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := store.Owner(ctx); err == nil {
		return nil
	}
	return store.SetOwner(ctx, owner)
}

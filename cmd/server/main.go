// Command server runs the KYC onboarding portal API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"kycportal/internal/audit"
	companyhandler "kycportal/internal/company/handler"
	companyservice "kycportal/internal/company/service"
	companystore "kycportal/internal/company/store"
	"kycportal/internal/directory"
	httpapi "kycportal/internal/http"
	identityhandler "kycportal/internal/identity/handler"
	identityservice "kycportal/internal/identity/service"
	identitystore "kycportal/internal/identity/store"
	"kycportal/internal/identity/token"
	notificationhandler "kycportal/internal/notification/handler"
	notificationmetrics "kycportal/internal/notification/metrics"
	notificationservice "kycportal/internal/notification/service"
	notificationstore "kycportal/internal/notification/store"
	"kycportal/internal/platform/config"
	"kycportal/internal/platform/httpserver"
	"kycportal/internal/platform/logger"
	"kycportal/internal/platform/middleware"
	platformpostgres "kycportal/internal/platform/postgres"
	platformredis "kycportal/internal/platform/redis"
	rddhandler "kycportal/internal/rdd/handler"
	rddservice "kycportal/internal/rdd/service"
	rddstore "kycportal/internal/rdd/store"
	workflowhandler "kycportal/internal/workflow/handler"
	workflowmetrics "kycportal/internal/workflow/metrics"
	workflowservice "kycportal/internal/workflow/service"
	workflowstore "kycportal/internal/workflow/store"
	id "kycportal/pkg/domain"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage. PostgreSQL when DATABASE_URL is set, in-memory otherwise.
	var (
		db             *sql.DB
		companyStore   companyservice.Store
		workflowStore  workflowservice.StatusStore
		notifStore     notificationservice.Store
		rddStore       rddservice.Store
		auditStore     audit.Store
		companyReader  workflowservice.CompanyReader
		healthCheckers = map[string]httpapi.HealthChecker{}
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		if err := platformpostgres.Migrate(ctx, db); err != nil {
			return err
		}

		pgCompanies := companystore.NewPostgres(db)
		companyStore = pgCompanies
		companyReader = pgCompanies
		workflowStore = workflowstore.NewPostgres(db)
		notifStore = notificationstore.NewPostgres(db)
		rddStore = rddstore.NewPostgres(db)
		auditStore = audit.NewPostgresOutbox(db)
		healthCheckers["database"] = db.PingContext
		log.Info("using postgres storage")
	} else {
		memCompanies := companystore.NewInMemory()
		companyStore = memCompanies
		companyReader = memCompanies
		workflowStore = workflowstore.NewInMemory()
		notifStore = notificationstore.NewInMemory()
		rddStore = rddstore.NewInMemory()
		auditStore = audit.NewMemoryOutbox()
		log.Info("using in-memory storage")
	}

	// Redis takes over notification storage when configured.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		notifStore = notificationstore.NewRedis(redisClient.Client)
		healthCheckers["redis"] = redisClient.Health
		log.Info("using redis notification storage")
	}

	// Identity. Accounts are provisioned from the seed list at startup.
	users := identitystore.NewInMemory()
	if err := identitystore.Seed(ctx, users, identitystore.DefaultSeedAccounts()); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	dir := directory.NewUserDirectory(users)
	tokens := token.NewJWTService(cfg.JWTSigningKey, "kycportal", "kycportal")
	identitySvc := identityservice.New(users, tokens, identityservice.WithLogger(log))

	// Services.
	auditPublisher := audit.NewPublisher(auditStore)
	notifSvc := notificationservice.New(notifStore, dir,
		notificationservice.WithLogger(log),
		notificationservice.WithMetrics(notificationmetrics.New()),
	)
	workflowSvc := workflowservice.New(workflowStore, companyReader, dir, notifSvc,
		workflowservice.WithLogger(log),
		workflowservice.WithMetrics(workflowmetrics.New()),
		workflowservice.WithAuditPublisher(auditPublisher),
	)
	companySvc := companyservice.New(companyStore, workflowSvc, companyservice.WithLogger(log))
	rddSvc := rddservice.New(rddStore, companyReader, dir, notifSvc, rddservice.WithLogger(log))

	router := httpapi.NewRouter(httpapi.Deps{
		Identity:       identityhandler.New(identitySvc, log),
		Company:        companyhandler.New(companySvc, log),
		Workflow:       workflowhandler.New(workflowSvc, log),
		Notifications:  notificationhandler.New(notifSvc, log),
		RDD:            rddhandler.New(rddSvc, log),
		JWTValidator:   &claimsAdapter{tokens: tokens},
		Logger:         log,
		HealthCheckers: healthCheckers,
	})
	server := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	// Audit events drain from the outbox to Kafka when brokers are configured.
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer sink.Close()
		worker := audit.NewWorker(auditStore, sink, log)
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}

	return g.Wait()
}

// claimsAdapter converts JWT claims into the typed form the auth middleware
// expects.
type claimsAdapter struct {
	tokens *token.JWTService
}

func (a *claimsAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{UserID: userID, Roles: claims.Roles}, nil
}

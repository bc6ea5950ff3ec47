package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	appHandler "onboard/internal/application/handler"
	appService "onboard/internal/application/service"
	appStore "onboard/internal/application/store"
	"onboard/internal/audit"
	auditStore "onboard/internal/audit/store"
	"onboard/internal/claims"
	"onboard/internal/events"
	"onboard/internal/events/kafka"
	issuanceClient "onboard/internal/issuance/client"
	issuanceHandler "onboard/internal/issuance/handler"
	issuanceService "onboard/internal/issuance/service"
	issuanceStore "onboard/internal/issuance/store"
	"onboard/internal/keystore"
	"onboard/internal/platform/config"
	"onboard/internal/platform/database"
	"onboard/internal/platform/httpclient"
	"onboard/internal/platform/httpserver"
	"onboard/internal/platform/lock"
	"onboard/internal/platform/logger"
	"onboard/internal/platform/metrics"
	"onboard/internal/platform/redis"
	"onboard/internal/signing/contract"
	signingHandler "onboard/internal/signing/handler"
	signingService "onboard/internal/signing/service"
	signingStore "onboard/internal/signing/store"
	httptransport "onboard/internal/transport/http"
	verificationClient "onboard/internal/verification/client"
	verificationHandler "onboard/internal/verification/handler"
	verificationService "onboard/internal/verification/service"
	verificationStore "onboard/internal/verification/store"
	"onboard/pkg/platform/circuit"
	txcontext "onboard/pkg/platform/tx"
)

const auditBufferSize = 256

// main wires configuration, storage, backends and HTTP, then blocks until
// SIGINT or SIGTERM and shuts everything down in order.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// stores groups the persistence adapters for one backend.
type stores struct {
	applications applicationStore
	credentials  verificationService.CredentialStore
	documents    signingService.DocumentStore
	offers       offerStore
	audit        audit.Store
	tx           txcontext.Runner
}

type applicationStore interface {
	verificationService.ApplicationStore
	signingService.ApplicationStore
	issuanceService.ApplicationStore
	appService.Store
}

type offerStore interface {
	issuanceService.OfferStore
	appService.OfferLister
}

// newStores returns postgres adapters sharing db, or in-memory ones when db is nil.
func newStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			applications: appStore.NewInMemory(),
			credentials:  verificationStore.NewInMemory(),
			documents:    signingStore.NewInMemory(),
			offers:       issuanceStore.NewInMemory(),
			audit:        auditStore.NewInMemory(),
			tx:           txcontext.NoopRunner{},
		}
	}
	return stores{
		applications: appStore.NewPostgres(db),
		credentials:  verificationStore.NewPostgres(db),
		documents:    signingStore.NewPostgres(db),
		offers:       issuanceStore.NewPostgres(db),
		audit:        auditStore.NewPostgres(db),
		tx:           txcontext.NewPostgresRunner(db),
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	checks := map[string]httptransport.HealthCheck{}

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = database.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		checks["postgres"] = db.PingContext
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}
	st := newStores(db)

	var locker lock.Locker = lock.NewSharded()
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		locker = lock.NewRedis(rdb.Client, cfg.Redis.LockTTL)
		checks["redis"] = rdb.Health
		log.Info("using redis locks")
	}

	keys, err := loadKeystore(cfg)
	if err != nil {
		return err
	}

	dispatcher := events.NewDispatcher(events.WithLogger(log))
	dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		m.IncDomainEvent(e.Name())
		return nil
	})

	inbox := make(chan audit.Entry, auditBufferSize)
	trail := audit.NewPublisher(st.audit)
	dispatcher.SubscribeAll(audit.NewSubscriber(inbox).Handle)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafka.WithLogger(log))
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return err
		}
		dispatcher.SubscribeAll(producer.Handle)
		log.Info("publishing domain events to kafka", "topic", cfg.Kafka.Topic)
	}

	verifier := verificationClient.New(cfg.Verifier.BaseURL,
		verificationClient.WithHTTPClient(httpclient.New(ctx, cfg.Verifier.Timeout, cfg.Verifier.OAuth2,
			httpclient.WithBreaker(circuit.New("verifier"), log))),
		verificationClient.WithWalletScheme(cfg.Verifier.WalletScheme),
		verificationClient.WithDecoder(claims.NewDecoder(claims.WithLogger(log))),
		verificationClient.WithLogger(log),
		verificationClient.WithMetrics(m),
	)
	issuer := issuanceClient.New(cfg.Issuer.BaseURL, cfg.Issuer.IssuerID, cfg.Issuer.Audience, keys,
		issuanceClient.WithHTTPClient(httpclient.New(ctx, cfg.Issuer.Timeout, cfg.Issuer.OAuth2,
			httpclient.WithBreaker(circuit.New("issuer"), log))),
		issuanceClient.WithLogger(log),
		issuanceClient.WithMetrics(m),
	)

	apps := st.applications
	applications := appService.New(apps, st.credentials, st.documents, st.offers, trail,
		appService.WithLogger(log),
		appService.WithMetrics(m),
		appService.WithLocker(locker),
	)
	verification := verificationService.New(apps, st.credentials, verifier, dispatcher,
		verificationService.WithLogger(log),
		verificationService.WithMetrics(m),
		verificationService.WithLocker(locker),
		verificationService.WithTxRunner(st.tx),
		verificationService.WithRedirectBaseURL(cfg.Verifier.RedirectBaseURL),
	)
	signing := signingService.New(apps, st.documents,
		contract.NewRenderer(contract.WithEmployer(cfg.Employer.Name), contract.WithDocumentType(cfg.Signing.DocumentType)),
		keys, dispatcher,
		signingService.Config{
			ClientID:      cfg.Signing.ClientID,
			PublicBaseURL: cfg.Server.PublicBaseURL,
			WalletScheme:  cfg.Signing.WalletScheme,
			RequestTTL:    cfg.Signing.RequestTTL,
		},
		signingService.WithLogger(log),
		signingService.WithMetrics(m),
		signingService.WithLocker(locker),
		signingService.WithTxRunner(st.tx),
	)
	issuance := issuanceService.New(apps, st.offers, issuer, dispatcher,
		issuanceService.Config{
			CredentialConfigurationID: cfg.Issuer.CredentialConfigurationID,
			OfferTTL:                  cfg.Issuer.OfferTTL,
			Employer:                  cfg.Employer.Name,
			DefaultCountryCode:        cfg.Employer.DefaultCountryCode,
		},
		issuanceService.WithLogger(log),
		issuanceService.WithMetrics(m),
		issuanceService.WithLocker(locker),
		issuanceService.WithTxRunner(st.tx),
	)

	appRoutes := appHandler.New(applications, log)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:        log,
		Metrics:       m,
		Gatherer:      reg,
		OperatorToken: cfg.Server.OperatorToken,
		Checks:        checks,
		Handlers: []httptransport.Registrar{
			appRoutes,
			verificationHandler.New(verification, log),
			signingHandler.New(signing, log),
			issuanceHandler.New(issuance, log),
		},
		Operators: []httptransport.OperatorRegistrar{appRoutes},
	})
	if cfg.Server.OperatorToken == "" {
		log.Warn("ONBOARD_OPERATOR_TOKEN not set, operator endpoints reject every request")
	}

	srv := httpserver.New(cfg.Server.Addr, router, log)
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := audit.NewWorker(trail, inbox, log).Run(workerCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting onboard server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Requests are finished; let the worker drain what they queued.
		stopWorker()
		if err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func loadKeystore(cfg config.Config) (keystore.Keystore, error) {
	if cfg.Keystore.CertificatePath != "" {
		ks, err := keystore.LoadPEM(cfg.Keystore.CertificatePath, cfg.Keystore.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		return ks, nil
	}
	slog.Warn("keystore paths not set, generating an ephemeral signing key", "dns_name", cfg.Signing.ClientID)
	ks, err := keystore.NewEphemeral(cfg.Signing.ClientID, time.Now())
	if err != nil {
		return nil, err
	}
	return ks, nil
}

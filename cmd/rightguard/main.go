package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rightguard/internal/alert"
	"rightguard/internal/auth"
	"rightguard/internal/config"
	"rightguard/internal/contact"
	"rightguard/internal/db"
	"rightguard/internal/guide"
	httpx "rightguard/internal/http"
	"rightguard/internal/incident"
	"rightguard/internal/jobs"
	"rightguard/internal/logging"
	"rightguard/internal/metrics"
	"rightguard/internal/payment"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		return err
	}

	m := metrics.New()
	users := &auth.Service{DB: gdb, Metrics: m}

	var jwtSvc *auth.JWT
	if cfg.JWTSecret != "" {
		jwtSvc = auth.NewJWT(cfg.JWTSecret)
	}

	var generator guide.Generator = guide.FallbackGenerator{}
	if cfg.GeminiAPIKey != "" {
		g, err := guide.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		generator = g
	} else {
		logger.Warn("GEMINI_API_KEY not set, legal guides come from built-in content")
	}

	var uploader incident.Uploader
	if cfg.PinataJWT != "" {
		uploader = incident.NewPinataUploader(cfg.PinataAPIURL, cfg.PinataGatewayURL, cfg.PinataJWT)
	} else {
		logger.Warn("PINATA_JWT not set, recordings are stored without media")
	}

	verifier, err := payment.NewRPCVerifier(cfg.BaseRPCURL, cfg.TreasuryAddress)
	if err != nil {
		return err
	}

	jobsRepo := &jobs.Repo{DB: gdb}
	sms := alert.NewSimulatedChannel(contact.KindSMS, cfg.SMSFailureRate, logger)
	sms.Deferred = cfg.SMSReceipts
	alerts := &alert.Service{
		DB: gdb,
		Channels: map[contact.Kind]alert.Channel{
			contact.KindSMS:    sms,
			contact.KindSocial: alert.NewSimulatedChannel(contact.KindSocial, cfg.SocialFailureRate, logger),
			contact.KindEmail:  alert.NewSimulatedChannel(contact.KindEmail, 0, logger),
		},
		Jobs:         jobsRepo,
		ReceiptDelay: cfg.AlertReceiptDelay,
		Log:          logger,
		Metrics:      m,
	}

	r := httpx.NewRouter(cfg, httpx.Deps{
		Users:     users,
		JWT:       jwtSvc,
		Guides:    &guide.Service{DB: gdb, Generator: generator, Log: logger, Metrics: m},
		Incidents: &incident.Service{DB: gdb, Uploader: uploader, Log: logger, Metrics: m},
		Alerts:    alerts,
		Payments:  &payment.Service{DB: gdb, Users: users, Verifier: verifier, Log: logger, Metrics: m},
		Metrics:   m,
		Log:       logger,
	})

	hostname, _ := os.Hostname()
	worker := &jobs.Worker{
		ID:       fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		Repo:     jobsRepo,
		Handlers: map[string]jobs.HandlerFunc{jobs.TypeAlertReceipt: alerts.ReceiptHandler()},
		Interval: cfg.WorkerPollInterval,
		Log:      logger,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"zapledger/internal/amqp"
	"zapledger/internal/backend"
	"zapledger/internal/cli"
	"zapledger/internal/config"
	"zapledger/internal/core"
	apphttp "zapledger/internal/http"
	"zapledger/internal/log"
	"zapledger/internal/notify"
	"zapledger/internal/reply"
	"zapledger/internal/services"
	"zapledger/internal/whatsapp"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp, (*config.Config).Validate)
	logger.Info("Starting zapledger",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"schema", cfg.MessageSchema,
		"dimension", cfg.AggregateDimension)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	ledgerBackend := cli.InitBackend(ctx, logger, backendCfg)
	defer func() {
		if err := ledgerBackend.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	notifier := newNotifier(cfg, logger)
	formatter := reply.NewFormatter(reply.Locale{
		Symbol:       cfg.CurrencySymbol,
		ThousandsSep: cfg.ThousandsSeparator,
		DecimalSep:   cfg.DecimalSeparator,
	}, cfg.Schema())

	var opts []services.DispatcherOption
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts = append(opts, services.WithEvents(amqpClient))
		logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	dispatcher := services.NewDispatcher(services.DispatcherConfig{
		Schema:               cfg.Schema(),
		Dimension:            cfg.Dimension(),
		NotifyOnStoreFailure: cfg.NotifyOnStoreFailure,
	},
		core.NewValidator(cfg.Language(), cfg.Schema(), cfg.DefaultPaymentType),
		ledgerBackend.Store,
		formatter,
		notifier,
		opts...)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		VerifyToken:        cfg.WhatsAppVerifyToken,
		AppSecret:          cfg.WhatsAppAppSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		Logger:             logger,
		Ready: func(context.Context) error {
			return ctx.Err()
		},
	}, dispatcher, services.NewAggregator(ledgerBackend.Store), formatter)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func newNotifier(cfg *config.Config, logger *log.Logger) services.Notifier {
	if cfg.WhatsAppToken == "" {
		logger.Warn("WHATSAPP_TOKEN not set, replies are only logged")
		return notify.NewLogNotifier(logger)
	}
	client, err := whatsapp.NewClient(whatsapp.Config{
		Token:         cfg.WhatsAppToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		APIVersion:    cfg.WhatsAppAPIVersion,
		BaseURL:       cfg.WhatsAppAPIBaseURL,
		Timeout:       cfg.HTTPClientTimeout,
	})
	if err != nil {
		logger.Error("Failed to initialize WhatsApp client", log.FieldError, err)
		os.Exit(1)
	}
	return client
}

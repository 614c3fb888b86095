package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/invoicesheet/internal/api"
	"github.com/dgallion1/invoicesheet/internal/cleaner"
	"github.com/dgallion1/invoicesheet/internal/config"
	"github.com/dgallion1/invoicesheet/internal/metrics"
	"github.com/dgallion1/invoicesheet/internal/parser"
	"github.com/dgallion1/invoicesheet/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Table finding and cleaning.
	strategy, err := parser.ParseStrategy(cfg.ExtractStrategy)
	if err != nil {
		log.Error("invalid extract strategy", "error", err)
		os.Exit(1)
	}
	fcfg := parser.DefaultFinderConfig()
	fcfg.Strategy = strategy
	finder := parser.NewFinder(fcfg)

	classifier, err := cleaner.NewClassifier(cleaner.DefaultRules())
	if err != nil {
		log.Error("invalid cleaning rules", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	m := metrics.New()
	agg := pipeline.NewAggregator(
		pipeline.OpenPDF(finder, cfg.PDFValidate),
		cleaner.NewCleaner(classifier),
		cfg.MaxUploadBytes,
		log,
	)
	conv := pipeline.NewConverter(cfg, agg, m, log)
	conv.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(conv, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		conv.Stop()
	}()

	log.Info("starting invoicesheet",
		"port", cfg.Port,
		"default_variant", cfg.DefaultVariant,
		"strategy", strategy,
		"pdf_validate", cfg.PDFValidate,
		"api_auth", cfg.APIKey != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

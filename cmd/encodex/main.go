package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/encodex/internal/cli"
	"github.com/dmitrijs2005/encodex/internal/config"
	"github.com/dmitrijs2005/encodex/internal/logging"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LoggingOptions())
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// A signal cancels ctx; Run returns once the current command finishes
	// or aborts, and the store is closed below. A second signal is fatal.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-sigs
		signal.Stop(sigs)
		logger.Info(ctx, "shutting down", "signal", sig.String())
		cancel()
	}()

	app.Run(ctx)

	if err := app.Close(); err != nil {
		logger.Error(ctx, "error closing storage", "error", err)
	}
}

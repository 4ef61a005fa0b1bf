package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilal/speedcheck/internal/capture"
	"github.com/bilal/speedcheck/internal/communicator"
	"github.com/bilal/speedcheck/internal/config"
	"github.com/bilal/speedcheck/internal/logger"
	"github.com/bilal/speedcheck/internal/metrics"
	"github.com/bilal/speedcheck/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	cfgPath := flag.String("config", "", "path to the YAML config file; defaults and SPEEDCHECK_* env vars apply when empty")
	flag.Parse()

	// Load config
	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Init logger
	logger.Init(cfg.Logging)
	log.Info().Str("name", cfg.Name).Msg("starting speedcheck")

	// OS Signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	//------------------------------------------
	// START COMMUNICATOR
	//------------------------------------------
	sinks, closeSinks, err := communicator.SinksFromConfig(cfg.Publish)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build publish sinks")
	}
	comm := communicator.New(cfg.Publish, sinks...)
	if cfg.Publish.Enabled() {
		comm.Start()
	}

	//------------------------------------------
	// SESSIONS + TREND
	//------------------------------------------
	trend := metrics.NewTrend(cfg.Trend.AgeSamples)
	registry := capture.NewRegistry(
		cfg.Capture.SessionTimeout(),
		cfg.Capture.TerminalMarker,
		capture.WithMaxSessions(cfg.Capture.MaxSessions),
		capture.WithOnCapture(func(c capture.Capture) {
			metrics.ObserveResult(c.Result)
			trend.Add(c.Raw)
			if cfg.Publish.Enabled() {
				comm.Send(communicator.NewReport(cfg.Name, c))
			}
		}),
	)

	//------------------------------------------
	// START HTTP SERVER
	//------------------------------------------
	srv := server.New(cfg.Server, registry, trend)
	srv.SetRunning(true)

	go func() {
		if err := srv.Serve(); err != nil {
			log.Error().Err(err).Msg("http server stopped")
			sigChan <- syscall.SIGTERM
		}
	}()

	//------------------------------------------
	// WAIT FOR SHUTDOWN SIGNAL
	//------------------------------------------
	sig := <-sigChan
	log.Warn().Str("signal", sig.String()).Msg("shutdown signal received")

	//------------------------------------------
	// SHUTDOWN SEQUENCE
	//------------------------------------------
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Info().Msg("stopping http server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown incomplete")
	}

	if cfg.Publish.Enabled() {
		log.Info().Msg("stopping communicator...")
		comm.Shutdown(shutdownCtx)
	}
	if err := closeSinks(); err != nil {
		log.Warn().Err(err).Msg("closing sinks failed")
	}

	log.Info().Msg("speedcheck stopped cleanly")
}

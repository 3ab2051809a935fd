package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/wlanix/internal/config"
	"github.com/HerbHall/wlanix/internal/gateway"
	"github.com/HerbHall/wlanix/internal/ifacemgr"
	"github.com/HerbHall/wlanix/internal/server"
	"github.com/HerbHall/wlanix/internal/telemetry"
	"github.com/HerbHall/wlanix/internal/version"
	"github.com/HerbHall/wlanix/internal/wlanix"
	"github.com/HerbHall/wlanix/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("wlanix gateway starting", zap.String("version", version.Short()))

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	// Telemetry journal; an empty path disables persistence.
	var journal *telemetry.Journal
	if path := v.GetString("telemetry.journal"); path != "" {
		journal, err = telemetry.OpenJournal(path)
		if err != nil {
			logger.Fatal("failed to open telemetry journal", zap.Error(err))
		}
		defer journal.Close()
		logger.Info("telemetry journal opened", zap.String("path", path))
	}

	tel, events := telemetry.NewSender(logger, v.GetInt("telemetry.buffer"))
	telemetryService := telemetry.NewService(logger, events, journal)

	// Live event feed over WebSocket.
	feed := ws.NewHandler(logger.Named("ws"))
	telemetryService.OnEvent = feed.BroadcastEvent

	// Station management backend.
	var mgr ifacemgr.IfaceManager
	switch backend := v.GetString("sme.backend"); backend {
	case "simulated":
		mgr = ifacemgr.NewSim(logger)
	default:
		logger.Fatal("unsupported sme backend", zap.String("backend", backend))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go telemetryService.Run(ctx)

	gw := gateway.New(logger, mgr, tel)
	rootRequests := make(chan wlanix.WlanixRequest)
	go gw.ServeRoot(ctx, rootRequests)

	// Observability HTTP server.
	addr := fmt.Sprintf("%s:%d", v.GetString("server.host"), v.GetInt("server.port"))
	srv := server.New(addr, logger.Named("http"), journal, feed)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()
	close(rootRequests)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	logger.Info("wlanix gateway stopped")
}

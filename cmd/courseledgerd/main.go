package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courseledger/config"
	"courseledger/core"
	"courseledger/core/events"
	"courseledger/observability/logging"
	"courseledger/rpc"
	"courseledger/storage"
)

const envEnvironment = "CRS_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envEnvironment))
	logger := logging.Setup("courseledgerd", env, "")

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.LogFile != "" {
		logger = logging.Setup("courseledgerd", env, cfg.LogFile)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open state database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	journal, err := events.OpenJournal(filepath.Join(cfg.DataDir, "events.db"), logger)
	if err != nil {
		logger.Error("failed to open event journal", slog.Any("error", err))
		os.Exit(1)
	}
	defer journal.Close()

	node := core.NewNode(db, journal)

	authorizer, err := cfg.AuthorizerBytes()
	if err != nil {
		logger.Error("failed to decode authorizer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := node.Bootstrap(authorizer, cfg.RewardParams()); err != nil {
		logger.Error("failed to bootstrap state", slog.Any("error", err))
		os.Exit(1)
	}

	go serveMetrics(cfg.MetricsAddress, logger)

	server := rpc.NewServer(node, journal, cfg, logger)
	logger.Info("node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.String("metrics", cfg.MetricsAddress),
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		logger.Error("metrics server stopped", slog.Any("error", fmt.Errorf("listen %s: %w", addr, err)))
	}
}

package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"givechain/config"
	"givechain/core"
	"givechain/observability/logging"
	"givechain/storage"
)

const ownerEnv = "GIVECHAIN_OWNER"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	ownerFlag := flag.String("owner", "", "Hex-encoded owner address (overrides GIVECHAIN_OWNER)")
	metricsAddr := flag.String("metrics", ":9464", "Listen address for the Prometheus metrics endpoint")
	replayInterval := flag.Duration("replay-interval", time.Minute, "How often due recurring intents are processed")
	logLevel := flag.String("log-level", defaultLogLevel(), "Minimum log level (debug, info, warn, error)")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("GIVECHAIN_ENV"))
	logger := logging.Setup("givechain", env, *logLevel)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	owner, err := resolveOwner(*ownerFlag)
	if err != nil {
		logger.Error("failed to resolve owner address", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "error", err, "dir", cfg.DataDir)
		os.Exit(1)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	platform, err := core.NewPlatform(cfg, owner, db, logger)
	if err != nil {
		logger.Error("failed to assemble platform", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsServer := &http.Server{Addr: *metricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	logger.Info("platform started",
		"owner", hex.EncodeToString(owner[:]),
		"feeBps", cfg.FeeBps,
		"categories", strings.Join(cfg.Categories, ","),
	)

	ticker := time.NewTicker(*replayInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = metricsServer.Shutdown(shutdownCtx)
			cancel()
			if err := platform.Commit(); err != nil {
				logger.Error("failed to persist state on shutdown", "error", err)
				os.Exit(1)
			}
			logger.Info("platform stopped")
			return
		case <-ticker.C:
			donors := platform.State().IntentDonors()
			if len(donors) == 0 {
				continue
			}
			processed, err := platform.Recurring.ProcessDue(owner, donors)
			if err != nil {
				logger.Error("recurring replay pass failed", "error", err)
				continue
			}
			if processed > 0 {
				logger.Info("recurring replay pass complete", "processed", processed)
				if err := platform.Commit(); err != nil {
					logger.Error("failed to persist state", "error", err)
				}
			}
		}
	}
}

func defaultLogLevel() string {
	if level := strings.TrimSpace(os.Getenv("GIVECHAIN_LOG_LEVEL")); level != "" {
		return level
	}
	return "info"
}

func resolveOwner(flagValue string) ([20]byte, error) {
	var owner [20]byte
	value := strings.TrimSpace(flagValue)
	if value == "" {
		value = strings.TrimSpace(os.Getenv(ownerEnv))
	}
	if value == "" {
		return owner, fmt.Errorf("owner address required via -owner or %s", ownerEnv)
	}
	value = strings.TrimPrefix(value, "0x")
	raw, err := hex.DecodeString(value)
	if err != nil {
		return owner, fmt.Errorf("invalid owner address: %w", err)
	}
	if len(raw) != len(owner) {
		return owner, fmt.Errorf("owner address must be %d bytes, got %d", len(owner), len(raw))
	}
	copy(owner[:], raw)
	return owner, nil
}

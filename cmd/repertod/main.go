// Command repertod runs the local development backend for the reperto CLI.
// It serves the full HTTP contract from deterministic in-memory data and
// reseeds the demo records daily so their relative ages stay fresh.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"

	"github.com/reperto/reperto-cli/config"
	"github.com/reperto/reperto-cli/internal/stub"
	"github.com/reperto/reperto-cli/logging"
)

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	writer := logging.Init("logs", logging.ParseLevel(cfg.LogLevel), cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	if writer != nil {
		defer writer.Close()
	}

	store := stub.NewStore()
	stub.Seed(store)

	// Reseed daily so the demo timestamps keep exercising every
	// relative-age bucket.
	scheduler := gocron.NewScheduler(time.Local)
	if _, err := scheduler.Every(1).Day().At("06:00").Do(func() {
		stub.Seed(store)
	}); err != nil {
		logging.Error("Failed to schedule demo reseed", "error", err)
		os.Exit(1)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	server := stub.NewServer(cfg, store)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the ranch records server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Initialize SQLite store
  3. Wire the farm service (ledger sync, optional Kafka events)
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080, env PORT)
  -db      SQLite database path (default: ranch.db, env DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  PORT           HTTP server port
  DB_PATH        SQLite database path
  KAFKA_BROKERS  Comma-separated broker list; events disabled when unset
  KAFKA_TOPIC    Event topic (default: ledger_synced)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the event publisher and database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/ranch.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - farm/service.go: Composite operations
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartranch/ranch-engine/api"
	"github.com/smartranch/ranch-engine/events"
	"github.com/smartranch/ranch-engine/events/kafka"
	"github.com/smartranch/ranch-engine/farm"
	"github.com/smartranch/ranch-engine/store/sqlite"
)

func main() {
	// .env is optional; flags override it.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "ranch.db"), "SQLite database path")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Event publisher: Kafka when brokers are configured, otherwise a no-op.
	var publisher events.Publisher = events.Noop{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := envStr("KAFKA_TOPIC", kafka.DefaultTopic)
		kp := kafka.NewPublisher(strings.Split(brokers, ","), topic)
		defer kp.Close()
		publisher = kp
		log.Info("kafka events enabled", "brokers", brokers, "topic", topic)
	}

	svc := farm.NewService(store, nil, publisher, log)

	handler := api.NewHandler(svc)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

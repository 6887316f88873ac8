/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the credit ledger server: configuration,
  store selection, crash recovery, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Open the selected store backend
  3. Roll forward any transfer intents left by a crash
  4. Start the HTTP server hosting the socket endpoint

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -store   Store backend: redis, sqlite, or memory (default: redis)
  -db      SQLite database path, for -store=sqlite (default: ledger.db)
  -store-timeout
           Deadline for one operation's store access (default: 5s)

ENVIRONMENT (redis backend):
  REDIS_ADDR      host:port (default: localhost:6379)
  REDIS_PASSWORD  optional
  REDIS_DB        database index (default: 0)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Redis from .env
  ./server

  # Single-node file database
  ./server -store=sqlite -db=./data/ledger.db

  # Throwaway in-memory ledger
  ./server -store=memory
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/credit-ledger/api"
	"github.com/warp/credit-ledger/ledger"
	"github.com/warp/credit-ledger/store/memory"
	redisstore "github.com/warp/credit-ledger/store/redis"
	"github.com/warp/credit-ledger/store/sqlite"
)

func main() {
	// .env is optional; flags and real environment win.
	_ = godotenv.Load()

	port := flag.Int("port", 8080, "HTTP server port")
	backend := flag.String("store", "redis", "store backend: redis, sqlite, or memory")
	dbPath := flag.String("db", "ledger.db", "SQLite database path (for -store=sqlite)")
	storeTimeout := flag.Duration("store-timeout", 5*time.Second, "deadline for one ledger operation's store access")
	flag.Parse()

	store, closer, err := openStore(*backend, *dbPath)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", *backend, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	// Interrupted transfers must be rolled forward before any client
	// can touch the affected accounts.
	recoverCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ledger.RecoverIntents(recoverCtx, store); err != nil {
		cancel()
		log.Fatalf("Failed to recover transfer intents: %v", err)
	}
	cancel()

	svc := ledger.NewService(store).WithTimeout(*storeTimeout)
	router := api.NewRouter(svc)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", *port),
		Handler:     api.NewServer(router),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Ledger server starting on :%d (store: %s)", *port, *backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// openStore builds the selected backend. The returned closer is nil
// for backends with nothing to release.
func openStore(backend, dbPath string) (ledger.Store, io.Closer, error) {
	switch backend {
	case "redis":
		db := 0
		if v := os.Getenv("REDIS_DB"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
			}
			db = parsed
		}
		s, err := redisstore.New(redisstore.Config{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "sqlite":
		s, err := sqlite.New(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "memory":
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

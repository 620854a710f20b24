package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/joho/godotenv"

	"github.com/tinoosan/accounts/internal/accounts"
	httpapi "github.com/tinoosan/accounts/internal/httpapi/v1"
	"github.com/tinoosan/accounts/internal/storage/memory"
	pgstore "github.com/tinoosan/accounts/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	var srvMux http.Handler
	var closeFn func()

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		// Use Postgres store when DATABASE_URL is provided
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		// Optional dev seed for compose/local
		if dev := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED"))); dev == "1" || dev == "true" || dev == "yes" {
			owner, accs, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "postgres", owner, accs)
				printDevSeedBanner(owner, accs)
			}
		}
		srvMux = httpapi.New(pg, pg, logger).Handler()
		logger.Info("storage backend: postgres")
	} else {
		// Default to in-memory store with a small dev seed
		store := memory.New()
		owner := uuid.NewString()
		opening := decimal.MustParse("100.00")
		current := store.Seed(accounts.Account{OwnerID: owner, Type: accounts.AccountTypeCurrent, OpenBalance: opening, Balance: opening})
		savings := store.Seed(accounts.Account{OwnerID: owner, Type: accounts.AccountTypeSavings, OpenBalance: opening, Balance: opening})
		logDevSeed(logger, "memory", owner, []accounts.Account{current, savings})
		printDevSeedBanner(owner, []accounts.Account{current, savings})
		srvMux = httpapi.New(store, store, logger).Handler()
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           srvMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("accounts service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// logDevSeed emits structured logs with useful IDs
func logDevSeed(l *slog.Logger, backend string, owner string, accs []accounts.Account) {
	ids := map[string]int64{}
	for _, a := range accs {
		switch a.Type {
		case accounts.AccountTypeCurrent:
			ids["current_account_id"] = a.ID
		case accounts.AccountTypeSavings:
			ids["savings_account_id"] = a.ID
		}
	}
	l.Info("DEV seed ("+backend+")", "owner_id", owner, "ids", ids)
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(owner string, accs []accounts.Account) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("owner_id: %s\n", owner)
	for _, a := range accs {
		fmt.Printf("%s_account_id: %d\n", strings.ToLower(string(a.Type)), a.ID)
	}
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

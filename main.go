package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ballotcore/ballotcore/cliparse"
	"github.com/ballotcore/ballotcore/clock"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/encryption"
	"github.com/ballotcore/ballotcore/handlers"
	"github.com/ballotcore/ballotcore/idempotency"
	"github.com/ballotcore/ballotcore/ledger"
	"github.com/ballotcore/ballotcore/router"
	"github.com/ballotcore/ballotcore/voterlock"
	"github.com/ballotcore/ballotcore/voting"
)

// ledgerClient is the union of the orchestrator-facing and admin-facing
// contract surfaces; both ledger.Client and ledger.Disabled satisfy it.
type ledgerClient interface {
	voting.Ledger
	handlers.Ledger
}

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}
	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()
	if driver == "sqlite" {
		// The in-process driver needs a single writer connection.
		dbConn.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Connect to the ledger; without an endpoint every ledger call reports
	// unavailable and the strict flag decides what happens to votes.
	var led ledgerClient = ledger.Disabled{}
	if cfg.LedgerRPCURL != "" {
		client, err := ledger.Dial(context.Background(), cfg.LedgerRPCURL, cfg.LedgerContractAddr, cfg.LedgerPrivateKey, cfg.LedgerArtifactPath)
		if err != nil {
			slog.Error("ledger connection failed", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		led = client
		slog.Info("Ledger connected", "rpc", cfg.LedgerRPCURL, "contract", cfg.LedgerContractAddr)
	} else {
		slog.Warn("No ledger endpoint configured", "strict", cfg.LedgerStrict)
	}

	codec, err := encryption.NewCodec(cfg.EncryptionKey)
	if err != nil {
		slog.Error("encryption key invalid", "error", err)
		os.Exit(1)
	}

	// Assemble the election core
	store := db.NewStore(dbConn)
	clk := clock.System{}
	cache := idempotency.NewCache(idempotency.DefaultTTL, idempotency.DefaultMaxEntries, clk)
	orch := voting.NewOrchestrator(store, led, codec, voterlock.NewRegistry(), cache, clk, cfg.LedgerStrict)
	tally := voting.NewTally(store, codec, clk)

	// Start the open/close scheduler
	schedCtx, stopSched := context.WithCancel(context.Background())
	defer stopSched()
	go voting.NewScheduler(store, clk, cfg.SchedulerInterval).Run(schedCtx)

	// Create router
	mux := router.NewRouter(store, orch, tally, led, cfg)

	// Create server
	server := http.Server{
		Handler: mux,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		stopSched()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

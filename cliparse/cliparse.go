package cliparse

import (
	"encoding/hex"
	"errors"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKeySalt string

	// EncryptionKey is the 32-byte AES key (hex encoded) used to seal the
	// party-choice field of every vote row.
	EncryptionKey string

	// Ledger (smart contract) connection.
	LedgerRPCURL       string
	LedgerContractAddr string
	LedgerPrivateKey   string
	LedgerArtifactPath string

	// LedgerStrict controls the ledger-unavailable policy: when true a vote
	// cast fails hard if the ledger cannot be reached; when false the vote is
	// persisted with an empty tx handle and flagged in the receipt.
	LedgerStrict bool

	SchedulerInterval time.Duration
}

// ParseFlags validates flags, falling back to environment variables.
// A .env file in the working directory is loaded first if present.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Missing .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("ballotcore", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Ledger config
	fs.StringVar(&cfg.LedgerRPCURL, "ledger-rpc", "", "Ledger RPC endpoint (prefer env)")
	fs.StringVar(&cfg.LedgerContractAddr, "ledger-contract", "", "Deployed voting contract address (prefer env)")
	fs.StringVar(&cfg.LedgerArtifactPath, "ledger-artifact", "", "Compiled contract artifact JSON path (prefer env)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.EncryptionKey, "encryption-key", "", "Vote encryption key, 32 bytes hex (prefer env)")

	strict := fs.Bool("ledger-strict", true, "Fail vote casts when the ledger is unreachable")
	interval := fs.Duration("scheduler-interval", 3*time.Second, "Election scheduler poll interval")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.LedgerStrict = *strict
	cfg.SchedulerInterval = *interval

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8000 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("DATABASE_TYPE must be sqlite or postgres")
	}

	if cfg.LedgerRPCURL == "" {
		cfg.LedgerRPCURL = os.Getenv("LEDGER_RPC_URL")
	}
	if cfg.LedgerContractAddr == "" {
		cfg.LedgerContractAddr = os.Getenv("LEDGER_CONTRACT_ADDR")
	}
	if cfg.LedgerArtifactPath == "" {
		cfg.LedgerArtifactPath = os.Getenv("LEDGER_ARTIFACT_PATH")
	}
	cfg.LedgerPrivateKey = os.Getenv("LEDGER_PRIVATE_KEY")

	if env := os.Getenv("LEDGER_STRICT"); env != "" {
		v, err := strconv.ParseBool(env)
		if err != nil {
			return Config{}, errors.New("invalid LEDGER_STRICT env variable")
		}
		cfg.LedgerStrict = v
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.EncryptionKey == "" {
		cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")
	}
	if cfg.EncryptionKey == "" {
		return Config{}, errors.New("ENCRYPTION_KEY required")
	}
	if raw, err := hex.DecodeString(cfg.EncryptionKey); err != nil || len(raw) != 32 {
		return Config{}, errors.New("ENCRYPTION_KEY must be 32 bytes of hex")
	}

	return cfg, nil
}

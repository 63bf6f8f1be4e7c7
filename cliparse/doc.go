// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded (via godotenv) before any
environment lookup, so local development can keep secrets out of the shell.

# Config Fields

  - Port: Server listen port (default: 8000)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - EncryptionKey: 32-byte hex AES key for sealing vote choices (required)
  - LedgerRPCURL / LedgerContractAddr / LedgerPrivateKey / LedgerArtifactPath:
    smart-contract ledger connection
  - LedgerStrict: ledger-unavailable policy (default: true, fail hard)
  - SchedulerInterval: election scheduler poll interval (default: 3s)

# Environment Variables

Flags fall back to environment variables:

	PORT                 → -p
	DATABASE_URL         → -d
	DATABASE_TYPE        → -t
	ADMIN_KEY_SALT       → -admin-salt
	ENCRYPTION_KEY       → -encryption-key
	LEDGER_RPC_URL       → -ledger-rpc
	LEDGER_CONTRACT_ADDR → -ledger-contract
	LEDGER_ARTIFACT_PATH → -ledger-artifact
	LEDGER_PRIVATE_KEY   (env only)
	LEDGER_STRICT        → -ledger-strict

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL must be provided
  - ADMIN_KEY_SALT must be provided
  - ENCRYPTION_KEY must be exactly 32 bytes of hex
  - DATABASE_TYPE must be sqlite or postgres
*/
package cliparse

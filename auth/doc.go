// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential and key primitives for the API.

# Admin Keys

The election admin key is an HMAC of a fixed scope under the deployment
secret, so it is deterministic and verifiable without storage:

	key := auth.GenerateAdminKey(cfg.AdminKeySalt)
	err := auth.ValidateAdminKey(providedKey, cfg.AdminKeySalt)

Admin endpoints require the X-Admin-Key header.

# Voter Credentials

Passwords are hashed with bcrypt (cost 12) at registration and verified at
login:

	hash, err := auth.HashCredential(password)
	err = auth.CheckCredential(password, hash)

# Voter Identifiers

Voter ids are externally issued, alphanumeric tokens. ValidVoterID trims
incidental whitespace and rejects anything else before the id reaches the
store or the ledger.

# Privacy Hashes

HashPhoto tokenizes a registration photo (SHA-256 digest, raw image never
stored). HashIP produces a salted, truncated digest for audit entries.
*/
package auth

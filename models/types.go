package models

import "time"

// User roles
const (
	RoleVoter = "voter"
	RoleAdmin = "admin"
)

// Vote receipt statuses
const (
	StatusSuccess           = "success"
	StatusLedgerUnavailable = "ledger-unavailable"
)

// Request types

type RegisterVoterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	VoterID     string `json:"voter_id"`
	Role        string `json:"role,omitempty"`
	PhotoBase64 string `json:"photo_base64,omitempty"`
}

type LoginRequest struct {
	VoterID  string `json:"voter_id"`
	Password string `json:"password"`
}

type CastVoteRequest struct {
	VoterID        string `json:"voter_id"`
	PartyName      string `json:"party_name"`
	BoothID        string `json:"booth_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type AddPartyRequest struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description,omitempty"`
	Manifesto   string `json:"manifesto,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type UpdateSettingsRequest struct {
	IsActive         *bool   `json:"is_active,omitempty"`
	RegistrationOpen *bool   `json:"registration_open,omitempty"`
	StartTime        *string `json:"start_time,omitempty"` // RFC3339 UTC
	EndTime          *string `json:"end_time,omitempty"`   // RFC3339 UTC
	MinVotingAge     *int    `json:"min_voting_age,omitempty"`
}

// Response types

type RegisterVoterResponse struct {
	VoterID string `json:"voter_id"`
}

type LoginResponse struct {
	VoterID  string `json:"voter_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// VoteReceipt is the full response payload of a vote cast. It is the value
// cached under the caller's idempotency key, so retried requests replay it
// byte for byte.
type VoteReceipt struct {
	Status   string `json:"status"`
	TxHandle string `json:"tx_handle,omitempty"`
	VoteHash string `json:"vote_hash,omitempty"`
	Message  string `json:"message"`
}

type VerifyVoteResponse struct {
	Verified bool   `json:"verified"`
	VoteHash string `json:"vote_hash,omitempty"`
	TxHandle string `json:"tx_handle,omitempty"`
	Message  string `json:"message,omitempty"`
}

type AddPartyResponse struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

// ResetElectionResponse reports the fresh contract binding after a reset.
type ResetElectionResponse struct {
	ContractAddress string `json:"contract_address,omitempty"`
	Parties         int    `json:"parties"`
	Message         string `json:"message"`
}

type TurnoutResponse struct {
	Total      int     `json:"total"`
	Voted      int     `json:"voted"`
	Percentage float64 `json:"percentage"`
}

// Domain types

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	CredentialHash string    `json:"-"` // Never expose in JSON
	VoterID        string    `json:"voter_id"`
	Role           string    `json:"role"`
	PhotoHash      string    `json:"-"` // Tokenized registration photo
	CreatedAt      time.Time `json:"created_at"`
}

type Party struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UID         string    `json:"uid,omitempty"` // Stable cross-ledger identity
	Symbol      string    `json:"symbol"`
	Description string    `json:"description,omitempty"`
	Manifesto   string    `json:"manifesto,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Votes       int       `json:"votes"`
	CreatedAt   time.Time `json:"created_at"`
}

type VoteRecord struct {
	ID              string    `json:"id"`
	VoterID         string    `json:"voter_id"`
	EncryptedChoice string    `json:"-"` // Decrypt-on-read only
	VoteHash        string    `json:"vote_hash"`
	TxHash          string    `json:"tx_hash"`
	BoothID         string    `json:"booth_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// InvalidVote is the reconciliation record for votes the ledger accepted but
// the relational store failed to persist.
type InvalidVote struct {
	ID        string    `json:"id"`
	TxHash    string    `json:"tx_hash"`
	VoterID   string    `json:"voter_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type ElectionSettings struct {
	IsActive         bool       `json:"is_active"`
	RegistrationOpen bool       `json:"registration_open"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	MinVotingAge     int        `json:"min_voting_age"`
}

// TallyResult is the post-close decrypted aggregate.
type TallyResult struct {
	Tally         map[string]int `json:"tally"`
	TotalVotes    int            `json:"total_votes"`
	VerifiedVotes int            `json:"verified_votes"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// TxHandle carries the ledger transaction handle on persistence failures
	// so a human operator can reconcile the two stores manually.
	TxHandle string `json:"tx_handle,omitempty"`
}

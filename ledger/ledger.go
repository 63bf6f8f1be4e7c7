// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrUnavailable covers transport-level failures: the RPC endpoint is
	// unreachable, timed out, or the transaction never reached finality.
	ErrUnavailable = errors.New("ledger unavailable")

	// ErrRejected covers contract-level refusals (reverts). The ledger was
	// reachable and said no.
	ErrRejected = errors.New("ledger rejected transaction")

	// ErrAlreadyVoted is the rejection for a voter the contract has already
	// recorded.
	ErrAlreadyVoted = fmt.Errorf("%w: already voted", ErrRejected)

	// ErrUnknownCandidate is the rejection for a candidate identity the
	// contract does not know.
	ErrUnknownCandidate = fmt.Errorf("%w: unknown candidate", ErrRejected)
)

// votingABI is the VotingSystem contract surface consumed by this client.
const votingABI = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"_electionName","type":"string"}]},
  {"type":"function","name":"addCandidate","stateMutability":"nonpayable","inputs":[{"name":"_name","type":"string"},{"name":"_uid","type":"string"}],"outputs":[]},
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"_candidateId","type":"uint256"},{"name":"_voterId","type":"string"},{"name":"_voteHash","type":"string"}],"outputs":[]},
  {"type":"function","name":"hasVoted","stateMutability":"view","inputs":[{"name":"_voterId","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getVoteHash","stateMutability":"view","inputs":[{"name":"_voterId","type":"string"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"candidateIdByUid","stateMutability":"view","inputs":[{"name":"_uid","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"candidatesCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"candidates","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"id","type":"uint256"},{"name":"name","type":"string"},{"name":"voteCount","type":"uint256"}]}
]`

// Candidate mirrors the contract's candidates(i) getter.
type Candidate struct {
	ID        int64
	Name      string
	VoteCount int64
}

// Client is the thin RPC façade over the VotingSystem smart contract.
// Submissions block until ledger finality and transactions are serialized by
// a mutex so concurrent casts cannot collide on the account nonce.
type Client struct {
	eth      *ethclient.Client
	parsed   abi.ABI
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	artifact string

	mu       sync.Mutex // guards contract/addr swap on redeploy and tx nonce order
	contract *bind.BoundContract
	addr     common.Address
}

// Dial connects to the ledger RPC endpoint and binds the deployed contract.
func Dial(ctx context.Context, rpcURL, contractAddr, privateKeyHex, artifactPath string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, rpcURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %v", ErrUnavailable, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse ledger private key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(votingABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	c := &Client{
		eth:      eth,
		parsed:   parsed,
		key:      key,
		chainID:  chainID,
		artifact: artifactPath,
	}
	if contractAddr != "" {
		c.addr = common.HexToAddress(contractAddr)
		c.contract = bind.NewBoundContract(c.addr, parsed, eth, eth, eth)
	}
	return c, nil
}

// Address returns the bound contract address.
func (c *Client) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr.Hex()
}

func (c *Client) Close() {
	c.eth.Close()
}

// bound returns the current contract binding. Dial leaves it nil when no
// contract address is configured, and Redeploy swaps it, so every access
// goes through here.
func (c *Client) bound() (*bind.BoundContract, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contract == nil {
		return nil, fmt.Errorf("%w: no contract bound", ErrUnavailable)
	}
	return c.contract, nil
}

func (c *Client) txOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// classify splits an RPC error into the rejected/unavailable taxonomy. The
// orchestrator treats the two very differently, so a wrong bucket here turns
// a policy decision into silent data loss.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert") {
		switch {
		case strings.Contains(msg, "already voted"):
			return ErrAlreadyVoted
		case strings.Contains(msg, "unknown candidate"), strings.Contains(msg, "invalid candidate"):
			return ErrUnknownCandidate
		default:
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// resolveCandidate maps a party to the contract's numeric candidate id. The
// UUID path is authoritative; the positional name scan exists only for
// candidates registered before the UUID migration and is logged every time
// it fires, because it breaks if insert order ever diverged between stores.
func (c *Client) resolveCandidate(ctx context.Context, partyName, partyUID string) (*big.Int, error) {
	if partyUID != "" {
		contract, err := c.bound()
		if err != nil {
			return nil, err
		}
		var out []any
		if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "candidateIdByUid", partyUID); err != nil {
			return nil, classify(err)
		}
		if id := out[0].(*big.Int); id.Sign() > 0 {
			return id, nil
		}
	}

	count, err := c.CandidatesCount(ctx)
	if err != nil {
		return nil, err
	}
	for i := int64(1); i <= count; i++ {
		cand, err := c.CandidateAt(ctx, i)
		if err != nil {
			return nil, err
		}
		if cand.Name == partyName {
			slog.Warn("candidate resolved by positional fallback, not uid",
				"party", partyName, "candidate_id", cand.ID)
			return big.NewInt(cand.ID), nil
		}
	}
	return nil, ErrUnknownCandidate
}

// SubmitVote records a vote on the ledger and blocks until the transaction
// is mined, returning the transaction handle.
func (c *Client) SubmitVote(ctx context.Context, partyName, partyUID, voterID, voteHash string) (string, error) {
	candidateID, err := c.resolveCandidate(ctx, partyName, partyUID)
	if err != nil {
		return "", err
	}

	tx, err := c.transact(ctx, "vote", candidateID, voterID, voteHash)
	if err != nil {
		return "", err
	}
	if err := c.waitMined(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

// HasVoted queries the contract's voter registry.
func (c *Client) HasVoted(ctx context.Context, voterID string) (bool, error) {
	contract, err := c.bound()
	if err != nil {
		return false, err
	}
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "hasVoted", voterID); err != nil {
		return false, classify(err)
	}
	return out[0].(bool), nil
}

// VoteHash returns the vote hash the contract recorded for a voter.
func (c *Client) VoteHash(ctx context.Context, voterID string) (string, error) {
	contract, err := c.bound()
	if err != nil {
		return "", err
	}
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "getVoteHash", voterID); err != nil {
		return "", classify(err)
	}
	return out[0].(string), nil
}

// AddCandidate registers a candidate with its stable UID on the ledger.
func (c *Client) AddCandidate(ctx context.Context, name, uid string) (string, error) {
	tx, err := c.transact(ctx, "addCandidate", name, uid)
	if err != nil {
		return "", err
	}
	if err := c.waitMined(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (c *Client) CandidatesCount(ctx context.Context) (int64, error) {
	contract, err := c.bound()
	if err != nil {
		return 0, err
	}
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "candidatesCount"); err != nil {
		return 0, classify(err)
	}
	return out[0].(*big.Int).Int64(), nil
}

func (c *Client) CandidateAt(ctx context.Context, i int64) (Candidate, error) {
	contract, err := c.bound()
	if err != nil {
		return Candidate{}, err
	}
	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "candidates", big.NewInt(i)); err != nil {
		return Candidate{}, classify(err)
	}
	return Candidate{
		ID:        out[0].(*big.Int).Int64(),
		Name:      out[1].(string),
		VoteCount: out[2].(*big.Int).Int64(),
	}, nil
}

type artifact struct {
	Bytecode string `json:"bytecode"`
}

// Redeploy deploys a fresh VotingSystem contract from the compiled artifact
// and rebinds the client to it. Used only by election reset, never the hot
// path.
func (c *Client) Redeploy(ctx context.Context, electionName string) (string, error) {
	if c.artifact == "" {
		return "", errors.New("no contract artifact path configured")
	}
	raw, err := os.ReadFile(c.artifact)
	if err != nil {
		return "", fmt.Errorf("read contract artifact: %w", err)
	}
	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return "", fmt.Errorf("parse contract artifact: %w", err)
	}

	opts, err := c.txOpts(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	addr, tx, contract, err := bind.DeployContract(opts, c.parsed, common.FromHex(art.Bytecode), c.eth, electionName)
	if err != nil {
		c.mu.Unlock()
		return "", classify(err)
	}
	c.addr = addr
	c.contract = contract
	c.mu.Unlock()

	if _, err := bind.WaitDeployed(ctx, c.eth, tx); err != nil {
		return "", fmt.Errorf("%w: wait deployed: %v", ErrUnavailable, err)
	}
	slog.Info("voting contract deployed", "address", addr.Hex())
	return addr.Hex(), nil
}

func (c *Client) transact(ctx context.Context, method string, args ...any) (*types.Transaction, error) {
	opts, err := c.txOpts(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contract == nil {
		return nil, fmt.Errorf("%w: no contract bound", ErrUnavailable)
	}
	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, classify(err)
	}
	return tx, nil
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("%w: wait mined %s: %v", ErrUnavailable, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: tx %s reverted", ErrRejected, tx.Hash().Hex())
	}
	return nil
}

// Package chain wraps the remote ledger behind a narrow read/write surface.
// The engine and executor depend only on the Ledger interface; Client is the
// JSON-RPC implementation, and tests substitute fakes.
package chain

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/perpwatch/liquidator/internal/domain"
)

// KeyedAccount pairs an account address with its raw data bytes.
type KeyedAccount struct {
	Address solana.PublicKey
	Data    []byte
}

// Ledger is the read/write surface of the remote ledger. Submission is
// fire-and-forget: no delivery confirmation is consumed.
type Ledger interface {
	// ProgramAccounts lists every account owned by program. Used once, at
	// bootstrap.
	ProgramAccounts(ctx context.Context, program solana.PublicKey) ([]KeyedAccount, error)
	// AccountData fetches the raw bytes stored at addr.
	AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error)
	// LatestBlockhash fetches the most recent network checkpoint a
	// transaction can be built against.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// SendTransaction submits a signed transaction.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Client implements Ledger over the venue's JSON-RPC endpoint.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewClient creates a Client against endpoint. The timeout bounds every
// request; commitment is one of processed, confirmed, finalized.
func NewClient(endpoint, commitment string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		rpc: rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
			HTTPClient: httpClient,
		})),
		commitment: parseCommitment(commitment),
	}
}

func parseCommitment(s string) rpc.CommitmentType {
	switch s {
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentProcessed
	}
}

func (c *Client) ProgramAccounts(ctx context.Context, program solana.PublicKey) ([]KeyedAccount, error) {
	out, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("chain: list program accounts: %w", err)
	}
	accounts := make([]KeyedAccount, 0, len(out))
	for _, keyed := range out {
		accounts = append(accounts, KeyedAccount{
			Address: keyed.Pubkey,
			Data:    keyed.Account.Data.GetBinary(),
		})
	}
	return accounts, nil
}

func (c *Client) AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("chain: fetch %s: %w", addr, err)
	}
	if res.Value == nil {
		return nil, fmt.Errorf("chain: fetch %s: %w", addr, domain.ErrNotFound)
	}
	return res.Value.Data.GetBinary(), nil
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("chain: latest blockhash: %w", err)
	}
	return res.Value.Blockhash, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("chain: send transaction: %w", err)
	}
	return sig, nil
}

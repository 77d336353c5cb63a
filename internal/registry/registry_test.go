package registry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"log/slog"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perpwatch/liquidator/internal/chain"
	"github.com/perpwatch/liquidator/internal/venue"
)

type fakeLedger struct {
	program []chain.KeyedAccount
}

func (f *fakeLedger) ProgramAccounts(context.Context, solana.PublicKey) ([]chain.KeyedAccount, error) {
	return f.program, nil
}

func (f *fakeLedger) AccountData(context.Context, solana.PublicKey) ([]byte, error) {
	return nil, nil
}

func (f *fakeLedger) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (f *fakeLedger) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func encodeAccount(t *testing.T, name string, v interface{}) []byte {
	t.Helper()
	sum := sha256.Sum256([]byte("account:" + name))
	var buf bytes.Buffer
	buf.Write(sum[:8])
	require.NoError(t, bin.NewBorshEncoder(&buf).Encode(v))
	return buf.Bytes()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func keyed(t *testing.T, name string, v interface{}) chain.KeyedAccount {
	t.Helper()
	return chain.KeyedAccount{
		Address: solana.NewWallet().PublicKey(),
		Data:    encodeAccount(t, name, v),
	}
}

func TestBootstrapClassifiesWorkingSet(t *testing.T) {
	authority := solana.NewWallet().PublicKey()

	own := venue.Trader{Authority: authority, Positions: solana.NewWallet().PublicKey()}
	other := venue.Trader{Authority: solana.NewWallet().PublicKey(), Positions: solana.NewWallet().PublicKey()}
	var table venue.MarketTable
	table.Markets[0].Initialized = true
	params := venue.Params{Admin: solana.NewWallet().PublicKey()}

	ownAcct := keyed(t, "Trader", &own)
	otherAcct := keyed(t, "Trader", &other)
	tableAcct := keyed(t, "MarketTable", &table)
	paramsAcct := keyed(t, "Params", &params)
	garbage := chain.KeyedAccount{Address: solana.NewWallet().PublicKey(), Data: []byte{1, 2, 3}}

	ledger := &fakeLedger{program: []chain.KeyedAccount{otherAcct, garbage, tableAcct, ownAcct, paramsAcct}}

	result, err := Bootstrap(context.Background(), ledger, solana.NewWallet().PublicKey(), authority, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Registry.Len())
	assert.Equal(t, tableAcct.Address, result.TableAddr)
	require.NotNil(t, result.Table)
	assert.True(t, result.Table.Markets[0].Initialized)
	assert.Equal(t, paramsAcct.Address, result.ParamsAddr)
	require.NotNil(t, result.Params)
	assert.Equal(t, ownAcct.Address, result.OwnAccount)

	addrs := []solana.PublicKey{
		result.Registry.Accounts()[0].Address,
		result.Registry.Accounts()[1].Address,
	}
	assert.Contains(t, addrs, ownAcct.Address)
	assert.Contains(t, addrs, otherAcct.Address)
}

func TestBootstrapRequiresMarketTable(t *testing.T) {
	params := venue.Params{}
	ledger := &fakeLedger{program: []chain.KeyedAccount{keyed(t, "Params", &params)}}

	_, err := Bootstrap(context.Background(), ledger, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market table")
}

func TestBootstrapRequiresParams(t *testing.T) {
	var table venue.MarketTable
	ledger := &fakeLedger{program: []chain.KeyedAccount{keyed(t, "MarketTable", &table)}}

	_, err := Bootstrap(context.Background(), ledger, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "params")
}

func TestBootstrapToleratesMissingOwnAccount(t *testing.T) {
	trader := venue.Trader{Authority: solana.NewWallet().PublicKey()}
	var table venue.MarketTable
	params := venue.Params{}
	ledger := &fakeLedger{program: []chain.KeyedAccount{
		keyed(t, "Trader", &trader),
		keyed(t, "MarketTable", &table),
		keyed(t, "Params", &params),
	}}

	result, err := Bootstrap(context.Background(), ledger, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), testLogger())
	require.NoError(t, err)
	assert.True(t, result.OwnAccount.IsZero())
	assert.Equal(t, 1, result.Registry.Len())
}

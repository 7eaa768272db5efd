package wallet

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/client/wallet/packages/consolidateoptions"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

func TestWallet_ConsolidateFunds(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 6)

	for i := 0; i < 5; i++ {
		connector.fund(addresses[3].Address, 100_000, nil)
	}
	connector.fund(addresses[1].Address, 200_000, nil)
	connector.fund(addresses[4].Address, 300_000, nil)

	target, err := wallet.ConsolidateFunds(context.Background(), consolidateoptions.AddressRange(0, 6))
	require.NoError(t, err)
	assert.Equal(t, addresses[0].Bech32, target.Bech32)

	transactions := connector.postedTransactions()
	require.Len(t, transactions, 1, "only the address with more than one output is consolidated")
	assert.Len(t, transactions[0].Essence.Inputs, 5)

	targetBalance, targetOutputs := connector.balance(addresses[0].Address)
	assert.Equal(t, uint64(500_000), targetBalance)
	assert.Equal(t, 1, targetOutputs)

	consolidatedBalance, consolidatedOutputs := connector.balance(addresses[3].Address)
	assert.Zero(t, consolidatedBalance)
	assert.Zero(t, consolidatedOutputs)

	// the total balance is conserved
	var total uint64
	for _, addr := range addresses {
		balance, _ := connector.balance(addr.Address)
		total += balance
	}
	assert.Equal(t, uint64(1_000_000), total)
}

func testNativeTokens(first, count int) (nativeTokens ledgerstate.NativeTokens) {
	for i := first; i < first+count; i++ {
		nativeTokens = append(nativeTokens, ledgerstate.NewNativeToken(ledgerstate.TokenID{0x08, byte(i)}, big.NewInt(int64(i+1))))
	}

	return nativeTokens.Sorted()
}

func TestWallet_ConsolidateFunds_NativeTokenLimit(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 2)

	// any two of the first two outputs together hold more distinct tokens than fit into one output
	connector.fund(addresses[1].Address, 100_000, testNativeTokens(0, 40))
	connector.fund(addresses[1].Address, 100_000, testNativeTokens(40, 40))
	connector.fund(addresses[1].Address, 100_000, testNativeTokens(80, 20))

	target, err := wallet.ConsolidateFunds(context.Background(), consolidateoptions.AddressRange(0, 2))
	require.NoError(t, err)
	assert.Equal(t, addresses[0].Bech32, target.Bech32)

	transactions := connector.postedTransactions()
	require.Len(t, transactions, 2)

	consolidated := make(ledgerstate.NativeTokenSum)
	for _, transaction := range transactions {
		require.Len(t, transaction.Essence.Outputs, 1)
		nativeTokens := transaction.Essence.Outputs[0].NativeTokenList()
		assert.LessOrEqual(t, len(nativeTokens), ledgerstate.MaxNativeTokensPerOutput)
		consolidated.AddAll(nativeTokens.Sum())
	}

	assert.Len(t, consolidated, 100)
	for i := 0; i < 100; i++ {
		assert.Equal(t, int64(i+1), consolidated[ledgerstate.TokenID{0x08, byte(i)}].Int64())
	}

	balance, outputCount := connector.balance(addresses[0].Address)
	assert.Equal(t, uint64(300_000), balance)
	assert.Equal(t, 2, outputCount)
}

func TestConsolidationChunks(t *testing.T) {
	owner := ledgerstate.NewAliasAddress(ledgerstate.AliasID{1})
	output := func(nativeTokens ledgerstate.NativeTokens) *Output {
		return &Output{UTXO: &ledgerstate.UTXO{Output: basicOutput(owner, 1_000, nativeTokens...)}}
	}

	plain := make([]*Output, ledgerstate.MaxInputCount+1)
	for i := range plain {
		plain[i] = output(nil)
	}
	chunks := consolidationChunks(plain)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], ledgerstate.MaxInputCount)
	assert.Len(t, chunks[1], 1)

	// shared tokens are only counted once
	chunks = consolidationChunks([]*Output{output(testNativeTokens(0, 64)), output(testNativeTokens(0, 64)), output(testNativeTokens(64, 1))})
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 1)

	assert.Empty(t, consolidationChunks(nil))
}

func TestWallet_ConsolidateFunds_PartialFailure(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	connector.failingInputs[connector.fund(addresses[2].Address, 100_000, nil)] = true
	connector.fund(addresses[2].Address, 100_000, nil)
	connector.fund(addresses[3].Address, 100_000, nil)
	connector.fund(addresses[3].Address, 100_000, nil)

	target, err := wallet.ConsolidateFunds(context.Background(), consolidateoptions.AddressRange(0, 4), consolidateoptions.Parallelism(2))
	require.NoError(t, err)
	assert.Equal(t, addresses[0].Bech32, target.Bech32)

	require.Len(t, connector.postedTransactions(), 1, "the failing address does not stop the others")
	balance, _ := connector.balance(addresses[0].Address)
	assert.Equal(t, uint64(200_000), balance)

	remaining, outputCount := connector.balance(addresses[2].Address)
	assert.Equal(t, uint64(200_000), remaining)
	assert.Equal(t, 2, outputCount)
}

func TestWallet_ConsolidateFunds_AllFailed(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	connector.failingInputs[connector.fund(addresses[2].Address, 100_000, nil)] = true
	connector.fund(addresses[2].Address, 100_000, nil)

	_, err := wallet.ConsolidateFunds(context.Background(), consolidateoptions.AddressRange(0, 4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, clienterrors.ErrNode))
	assert.Empty(t, connector.postedTransactions())
}

func TestWallet_ConsolidateFunds_WaitForInclusion(t *testing.T) {
	connector := newMockConnector()
	connector.metadataFunc = func(id tangle.BlockID, poll int) (*tangle.BlockMetadata, error) {
		return confirmedMetadata(id), nil
	}
	wallet := newTestWallet(t, connector, WithRetryInterval(time.Millisecond))
	addresses := testAddresses(t, wallet, 3)

	connector.fund(addresses[0].Address, 100_000, nil)
	connector.fund(addresses[0].Address, 100_000, nil)
	connector.fund(addresses[2].Address, 100_000, nil)
	connector.fund(addresses[2].Address, 100_000, nil)

	target, err := wallet.ConsolidateFunds(context.Background(), consolidateoptions.AddressRange(0, 3), consolidateoptions.WaitForInclusion(true))
	require.NoError(t, err)
	assert.Equal(t, addresses[0].Bech32, target.Bech32)

	assert.Len(t, connector.postedTransactions(), 2, "the lowest address is consolidated into itself as well")
	balance, outputCount := connector.balance(addresses[0].Address)
	assert.Equal(t, uint64(400_000), balance)
	assert.Equal(t, 2, outputCount)
}

func TestWallet_ConsolidateFunds_InvalidRange(t *testing.T) {
	wallet := newTestWallet(t, newMockConnector())

	_, err := wallet.ConsolidateFunds(context.Background(), consolidateoptions.AddressRange(3, 3))
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	_, err = New().ConsolidateFunds(context.Background())
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

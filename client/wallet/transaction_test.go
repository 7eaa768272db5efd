package wallet

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/client/wallet/packages/transactionoptions"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

func TestWallet_BuildTransaction(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 6)

	connector.fund(addresses[0].Address, 400_000, nil)
	connector.fund(addresses[1].Address, 700_000, nil)

	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 500_000),
	})
	require.NoError(t, err)

	essence := transaction.Essence
	require.Len(t, essence.Inputs, 2)
	require.Len(t, essence.Outputs, 2)
	assert.Equal(t, uint64(500_000), essence.Outputs[0].Deposit())

	remainder := essence.Outputs[1]
	assert.Equal(t, uint64(600_000), remainder.Deposit())
	assert.True(t, remainder.UnlockConditionSet().Address().Address.Equals(addresses[0].Address), "the remainder goes to the lowest address")

	// two owners, two signatures
	for _, unlock := range transaction.Unlocks {
		assert.IsType(t, &ledgerstate.SignatureUnlock{}, unlock)
	}
	assert.Equal(t, connector.parameters.NetworkID(), essence.NetworkID)
}

func TestWallet_BuildTransaction_RemainderAddress(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 6)

	connector.fund(addresses[2].Address, 1_000_000, nil)

	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 300_000),
	}, transactionoptions.RemainderAddress(addresses[5].Address), transactionoptions.TaggedData([]byte("tag"), []byte("data")))
	require.NoError(t, err)

	require.Len(t, transaction.Essence.Outputs, 2)
	assert.True(t, transaction.Essence.Outputs[1].UnlockConditionSet().Address().Address.Equals(addresses[5].Address))
	require.NotNil(t, transaction.Essence.Payload)
	assert.Equal(t, []byte("tag"), transaction.Essence.Payload.Tag)
}

func TestWallet_BuildTransaction_ExactAmount(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 2)

	connector.fund(addresses[0].Address, 400_000, nil)
	connector.fund(addresses[1].Address, 700_000, nil)

	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[1].Address, 400_000),
	}, transactionoptions.AddressRange(0, 1))
	require.NoError(t, err)

	assert.Len(t, transaction.Essence.Inputs, 1)
	assert.Len(t, transaction.Essence.Outputs, 1, "no remainder is created for an exact match")
}

func TestWallet_BuildTransaction_NoDoubleSelection(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	for i := 0; i < 3; i++ {
		connector.fund(addresses[0].Address, 300_000, nil)
	}

	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 800_000),
	})
	require.NoError(t, err)

	inputs := transaction.Essence.Inputs
	require.Len(t, inputs, 3)
	seen := make(map[ledgerstate.OutputID]bool)
	for _, input := range inputs {
		assert.False(t, seen[input.OutputID()], "input %s selected twice", input.OutputID().Hex())
		seen[input.OutputID()] = true
	}

	// one signature for the owner, references for the rest
	assert.IsType(t, &ledgerstate.SignatureUnlock{}, transaction.Unlocks[0])
	assert.Equal(t, &ledgerstate.ReferenceUnlock{ReferencedIndex: 0}, transaction.Unlocks[1])
	assert.Equal(t, &ledgerstate.ReferenceUnlock{ReferencedIndex: 0}, transaction.Unlocks[2])
}

func TestWallet_BuildTransaction_InsufficientFunds(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	connector.fund(addresses[0].Address, 400_000, nil)
	connector.fund(addresses[1].Address, 700_000, nil)

	_, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 2_000_000),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, clienterrors.ErrInsufficientFunds))

	var insufficientFunds *clienterrors.InsufficientFundsError
	require.True(t, errors.As(err, &insufficientFunds))
	assert.Equal(t, "base token", insufficientFunds.Asset)
	assert.Equal(t, big.NewInt(2_000_000), insufficientFunds.Required)
	assert.Equal(t, big.NewInt(1_100_000), insufficientFunds.Available)
	assert.Equal(t, big.NewInt(900_000), insufficientFunds.Shortfall())
}

func TestWallet_BuildTransaction_InsufficientAmount(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	connector.fund(addresses[0].Address, 1_000, nil)

	_, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 800),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, clienterrors.ErrInsufficientAmount))

	var insufficientAmount *clienterrors.InsufficientAmountError
	require.True(t, errors.As(err, &insufficientAmount))
	assert.Equal(t, uint64(200), insufficientAmount.Found)
	assert.Greater(t, insufficientAmount.Required, uint64(200))
}

func TestWallet_BuildTransaction_InvalidOutputs(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 1)

	_, err := wallet.BuildTransaction(context.Background(), nil)
	assert.True(t, errors.Is(err, clienterrors.ErrEmptyOutputs))
	assert.Equal(t, "EmptyOutputsError", clienterrors.Kind(err))

	_, err = wallet.BuildTransaction(context.Background(), []ledgerstate.Output{basicOutput(addresses[0].Address, 10)})
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation))

	_, err = wallet.BuildTransaction(context.Background(), []ledgerstate.Output{basicOutput(addresses[0].Address, 1_000)},
		transactionoptions.AddressRange(3, 1))
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestWallet_BuildTransaction_SkipsLockedOutputs(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	connector := newMockConnector()
	wallet := newTestWallet(t, connector, WithClock(func() time.Time { return now }))
	addresses := testAddresses(t, wallet, 4)

	connector.fund(addresses[0].Address, 1_000_000, nil, &ledgerstate.TimelockUnlockCondition{UnixTime: uint32(now.Unix()) + 3600})
	connector.fund(addresses[1].Address, 1_000_000, nil, &ledgerstate.StorageDepositReturnUnlockCondition{ReturnAddress: addresses[3].Address, Amount: 50_000})
	connector.fund(addresses[2].Address, 100_000, nil)

	_, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 500_000),
	})

	var insufficientFunds *clienterrors.InsufficientFundsError
	require.True(t, errors.As(err, &insufficientFunds))
	assert.Equal(t, big.NewInt(100_000), insufficientFunds.Available)
}

func TestWallet_BuildTransaction_NativeTokens(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	tokenID := ledgerstate.TokenID{0x08, 0x01}
	connector.fund(addresses[0].Address, 500_000, nil)
	tokenOutputID := connector.fund(addresses[1].Address, 500_000, ledgerstate.NativeTokens{ledgerstate.NewNativeToken(tokenID, big.NewInt(100))})

	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 100_000, ledgerstate.NewNativeToken(tokenID, big.NewInt(40))),
	})
	require.NoError(t, err)

	require.Len(t, transaction.Essence.Inputs, 1, "the output holding the token covers everything")
	assert.Equal(t, tokenOutputID, transaction.Essence.Inputs[0].OutputID())

	require.Len(t, transaction.Essence.Outputs, 2)
	remainder := transaction.Essence.Outputs[1]
	assert.Equal(t, uint64(400_000), remainder.Deposit())
	assert.Equal(t, big.NewInt(60), remainder.NativeTokenList().Sum().Get(tokenID))

	_, err = wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 100_000, ledgerstate.NewNativeToken(tokenID, big.NewInt(150))),
	})
	var insufficientFunds *clienterrors.InsufficientFundsError
	require.True(t, errors.As(err, &insufficientFunds))
	assert.Equal(t, tokenID.Hex(), insufficientFunds.Asset)
	assert.Equal(t, big.NewInt(50), insufficientFunds.Shortfall())
}

func TestWallet_BuildTransaction_Burn(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	tokenID := ledgerstate.TokenID{0x08, 0x02}
	connector.fund(addresses[0].Address, 500_000, ledgerstate.NativeTokens{ledgerstate.NewNativeToken(tokenID, big.NewInt(100))})

	burn := &ledgerstate.Burn{NativeTokens: ledgerstate.NativeTokenSum{tokenID: big.NewInt(100)}}
	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 500_000),
	}, transactionoptions.Burn(burn))
	require.NoError(t, err)

	require.Len(t, transaction.Essence.Outputs, 1, "burned tokens need no remainder")
	assert.Empty(t, transaction.Essence.Outputs[0].NativeTokenList())
}

func TestWallet_BuildTransaction_ExplicitInputs(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)
	addresses := testAddresses(t, wallet, 4)

	connector.fund(addresses[0].Address, 500_000, nil)
	explicitInput := connector.fund(addresses[1].Address, 500_000, nil)

	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 500_000),
	}, transactionoptions.Inputs(explicitInput))
	require.NoError(t, err)
	require.Len(t, transaction.Essence.Inputs, 1)
	assert.Equal(t, explicitInput, transaction.Essence.Inputs[0].OutputID())

	// explicit inputs are never topped up from the address range
	_, err = wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 600_000),
	}, transactionoptions.Inputs(explicitInput))
	assert.True(t, errors.Is(err, clienterrors.ErrInsufficientFunds))

	_, err = wallet.BuildTransaction(context.Background(), []ledgerstate.Output{
		basicOutput(addresses[3].Address, 500_000),
	}, transactionoptions.Inputs(ledgerstate.OutputID{0x01}))
	assert.True(t, clienterrors.IsNotFound(err))
}

func TestWallet_Offline(t *testing.T) {
	wallet := New(WithBech32HRP(testHRP))

	_, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{basicOutput(&ledgerstate.Ed25519Address{}, 1_000)})
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	_, err = wallet.GenerateAddresses(context.Background(), 0, 1, false)
	assert.True(t, errors.Is(err, clienterrors.ErrSecretManager), "the placeholder secret manager can not derive")

	_, err = New().GenerateAddresses(context.Background(), 0, 1, false)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation), "an offline wallet needs a configured hrp")
}

package wallet

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

func TestWallet_GenerateAddresses(t *testing.T) {
	secretManager, err := secretmanager.NewSeedSecretManagerFromHex(testSeed)
	require.NoError(t, err)

	// offline with a configured hrp
	offline := New(WithSecretManager(secretManager), WithBech32HRP(testHRP))
	assert.True(t, offline.Offline())

	addresses, err := offline.GenerateAddresses(context.Background(), 0, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"atoi1qzt0nhsf38nh6rs4p6zs5knqp6psgha9wsv74uajqgjmwc75ugupx3y7x0r",
		"atoi1qpnrumvaex24dy0duulp4q07lpa00w20ze6jfd0xly422kdcjxzakzsz5kf",
	}, addresses.Bech32())

	// online wallets ask the node for the hrp
	online := newTestWallet(t, newMockConnector())
	onlineAddresses, err := online.GenerateAddresses(context.Background(), 0, 2, false)
	require.NoError(t, err)
	assert.Equal(t, addresses.Bech32(), onlineAddresses.Bech32())

	internal, err := online.GenerateAddresses(context.Background(), 0, 2, true)
	require.NoError(t, err)
	assert.True(t, internal[0].Internal())
	assert.Equal(t, "atoi1qprxpfvaz2peggq6f8k9cj8zfsxuw69e4nszjyv5kuf8yt70t2847shpjak", internal[0].Bech32)

	_, err = online.GenerateAddresses(context.Background(), 2, 1, false)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestWallet_CoinTypeAndAccount(t *testing.T) {
	secretManager, err := secretmanager.NewSeedSecretManagerFromHex(testSeed)
	require.NoError(t, err)

	iotaWallet := New(WithSecretManager(secretManager), WithBech32HRP(testHRP))
	shimmer := New(WithSecretManager(secretManager), WithBech32HRP(testHRP), WithCoinType(seed.ShimmerCoinType))
	account := New(WithSecretManager(secretManager), WithBech32HRP(testHRP), WithAccountIndex(1))

	iotaAddresses, err := iotaWallet.GenerateAddresses(context.Background(), 0, 1, false)
	require.NoError(t, err)
	shimmerAddresses, err := shimmer.GenerateAddresses(context.Background(), 0, 1, false)
	require.NoError(t, err)
	accountAddresses, err := account.GenerateAddresses(context.Background(), 0, 1, false)
	require.NoError(t, err)

	assert.NotEqual(t, iotaAddresses[0].Bech32, shimmerAddresses[0].Bech32)
	assert.NotEqual(t, iotaAddresses[0].Bech32, accountAddresses[0].Bech32)
	assert.Equal(t, "m/44'/4219'/0'/0'/0'", shimmerAddresses[0].Path.String())
}

// countingSecretManager counts the derivations of the wrapped SecretManager.
type countingSecretManager struct {
	secretmanager.SecretManager
	derivations *atomic.Int32
}

func (c *countingSecretManager) GenerateAddresses(ctx context.Context, options *secretmanager.GenerateAddressesOptions) (address.Addresses, error) {
	c.derivations.Inc()
	return c.SecretManager.GenerateAddresses(ctx, options)
}

func TestAddressManager_Cache(t *testing.T) {
	secretManager, err := secretmanager.NewSeedSecretManagerFromHex(testSeed)
	require.NoError(t, err)
	counting := &countingSecretManager{SecretManager: secretManager, derivations: atomic.NewInt32(0)}

	addressManager := NewAddressManager(counting, seed.IotaCoinType)
	first, err := addressManager.Addresses(context.Background(), 0, 0, 5, false, testHRP)
	require.NoError(t, err)
	subset, err := addressManager.Addresses(context.Background(), 0, 1, 3, false, testHRP)
	require.NoError(t, err)
	assert.Equal(t, first[1:3], subset)
	assert.Equal(t, int32(1), counting.derivations.Load())

	_, err = addressManager.Addresses(context.Background(), 0, 0, 5, false, "rms")
	require.NoError(t, err)
	assert.Equal(t, int32(2), counting.derivations.Load(), "addresses are cached per hrp")

	all, err := addressManager.AllAddresses(context.Background(), 0, 0, 2, testHRP)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.False(t, all[1].Internal())
	assert.True(t, all[2].Internal())
}

func TestSpendable(t *testing.T) {
	secretManager, err := secretmanager.NewSeedSecretManagerFromHex(testSeed)
	require.NoError(t, err)
	addresses, err := New(WithSecretManager(secretManager), WithBech32HRP(testHRP)).GenerateAddresses(context.Background(), 0, 2, false)
	require.NoError(t, err)
	owner, other := addresses[0].Address, addresses[1].Address

	utxo := func(conditions ...ledgerstate.UnlockCondition) *ledgerstate.UTXO {
		return &ledgerstate.UTXO{Output: &ledgerstate.BasicOutput{
			Amount:     1_000,
			Conditions: append(ledgerstate.UnlockConditions{&ledgerstate.AddressUnlockCondition{Address: owner}}, conditions...).Sorted(),
		}}
	}

	assert.True(t, Spendable(utxo(), owner, 100))
	assert.False(t, Spendable(utxo(), other, 100))
	assert.False(t, Spendable(utxo(&ledgerstate.TimelockUnlockCondition{UnixTime: 200}), owner, 100))
	assert.True(t, Spendable(utxo(&ledgerstate.TimelockUnlockCondition{UnixTime: 50}), owner, 100))
	assert.False(t, Spendable(utxo(&ledgerstate.StorageDepositReturnUnlockCondition{ReturnAddress: other, Amount: 500}), owner, 100))
	assert.False(t, Spendable(utxo(&ledgerstate.ExpirationUnlockCondition{ReturnAddress: other, UnixTime: 50}), owner, 100), "expired to the return address")
	assert.True(t, Spendable(utxo(&ledgerstate.ExpirationUnlockCondition{ReturnAddress: other, UnixTime: 50}), other, 100))
}

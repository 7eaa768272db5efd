// Package wallet implements the workflows of a stardust wallet on top of a Connector and a SecretManager: address
// generation, transaction building, block submission and the inclusion engine that promotes and reattaches blocks
// until they are included.
package wallet

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
	"github.com/iotaledger/stardust-client/packages/blockfactory"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/metrics"
	"github.com/iotaledger/stardust-client/packages/pow"
)

// region Wallet ///////////////////////////////////////////////////////////////////////////////////////////////////////

const (
	// DefaultRetryInterval is the polling interval of RetryUntilIncluded if no positive interval is given.
	DefaultRetryInterval = 5 * time.Second

	// DefaultRetryMaxAttempts is the number of polls of RetryUntilIncluded if no positive number is given.
	DefaultRetryMaxAttempts = 40
)

// Wallet is a wallet that builds, signs and submits transactions for the addresses of one seed.
type Wallet struct {
	connector      Connector
	secretManager  secretmanager.SecretManager
	addressManager *AddressManager
	blockFactory   *blockfactory.Factory
	powProvider    pow.Provider
	log            *zap.SugaredLogger
	metrics        *metrics.Metrics

	coinType     uint32
	accountIndex uint32
	bech32HRP    string
	clock        func() time.Time

	retryInterval    time.Duration
	retryMaxAttempts int
}

// New is the factory method of the wallet. A wallet without Connector works offline: it derives addresses but can not
// touch the ledger.
func New(options ...Option) (wallet *Wallet) {
	// create wallet
	wallet = &Wallet{
		secretManager:    secretmanager.PlaceholderSecretManager{},
		log:              zap.NewNop().Sugar(),
		coinType:         seed.IotaCoinType,
		clock:            time.Now,
		retryInterval:    DefaultRetryInterval,
		retryMaxAttempts: DefaultRetryMaxAttempts,
	}

	// configure wallet
	for _, option := range options {
		option(wallet)
	}

	wallet.addressManager = NewAddressManager(wallet.secretManager, wallet.coinType)

	if wallet.powProvider == nil {
		wallet.powProvider = pow.New(runtime.NumCPU(), pow.WithLogger(wallet.log))
	}

	// initialize the block factory with the tip selection and parameters of the connector if none was provided
	if wallet.blockFactory == nil && wallet.connector != nil {
		wallet.blockFactory = blockfactory.NewBlockFactory(
			wallet.connector,
			wallet.connector.ProtocolParameters,
			wallet.powProvider,
			blockfactory.WithLogger(wallet.log),
			blockfactory.WithMetrics(wallet.metrics),
		)
	}

	return wallet
}

// Offline returns true if the wallet has no Connector.
func (wallet *Wallet) Offline() bool {
	return wallet.connector == nil
}

// Connector returns the Connector of the wallet (nil for offline wallets).
func (wallet *Wallet) Connector() Connector {
	return wallet.connector
}

// SecretManager returns the SecretManager of the wallet.
func (wallet *Wallet) SecretManager() secretmanager.SecretManager {
	return wallet.secretManager
}

// AccountIndex returns the account the wallet operates on.
func (wallet *Wallet) AccountIndex() uint32 {
	return wallet.accountIndex
}

// Bech32HRP returns the human-readable part of the addresses: the configured one or the one of the network.
func (wallet *Wallet) Bech32HRP(ctx context.Context) (string, error) {
	if wallet.bech32HRP != "" {
		return wallet.bech32HRP, nil
	}
	if wallet.Offline() {
		return "", clienterrors.Validationf("an offline wallet needs a configured bech32 human-readable part")
	}

	protocolParameters, err := wallet.connector.ProtocolParameters(ctx)
	if err != nil {
		return "", err
	}

	return protocolParameters.Bech32HRP, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region GenerateAddresses ////////////////////////////////////////////////////////////////////////////////////////////

// GenerateAddresses derives the addresses in the half-open index range [start, end) of the configured account. It
// does not touch the network if a bech32 human-readable part is configured.
func (wallet *Wallet) GenerateAddresses(ctx context.Context, start, end uint32, internal bool) (address.Addresses, error) {
	return wallet.GenerateAccountAddresses(ctx, wallet.accountIndex, start, end, internal, "")
}

// GenerateAccountAddresses derives the addresses in [start, end) of the given account. An empty hrp falls back to
// Bech32HRP.
func (wallet *Wallet) GenerateAccountAddresses(ctx context.Context, accountIndex, start, end uint32, internal bool, hrp string) (address.Addresses, error) {
	if end < start {
		return nil, clienterrors.Validationf("invalid address range [%d, %d)", start, end)
	}

	if hrp == "" {
		var err error
		if hrp, err = wallet.Bech32HRP(ctx); err != nil {
			return nil, err
		}
	}

	return wallet.addressManager.Addresses(ctx, accountIndex, start, end, internal, hrp)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Internal Methods /////////////////////////////////////////////////////////////////////////////////////////////

func (wallet *Wallet) requireOnline() error {
	if wallet.Offline() {
		return clienterrors.Validationf("wallet is offline")
	}

	return nil
}

func (wallet *Wallet) protocolParameters(ctx context.Context) (*jsonmodels.ProtocolParameters, error) {
	if err := wallet.requireOnline(); err != nil {
		return nil, err
	}

	return wallet.connector.ProtocolParameters(ctx)
}

func (wallet *Wallet) unixTime() uint32 {
	return uint32(wallet.clock().Unix())
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

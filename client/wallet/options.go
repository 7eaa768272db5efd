package wallet

import (
	"time"

	"go.uber.org/zap"

	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/packages/blockfactory"
	"github.com/iotaledger/stardust-client/packages/metrics"
	"github.com/iotaledger/stardust-client/packages/pow"
)

// Option represents an optional parameter of the Wallet.
type Option func(*Wallet)

// WithConnector connects the wallet to the network.
func WithConnector(connector Connector) Option {
	return func(wallet *Wallet) {
		wallet.connector = connector
	}
}

// WithWebConnector connects the wallet to a node through its REST API.
func WithWebConnector(connector *WebConnector) Option {
	return WithConnector(connector)
}

// WithSecretManager sets the backend that derives the addresses and signs the transactions.
func WithSecretManager(secretManager secretmanager.SecretManager) Option {
	return func(wallet *Wallet) {
		wallet.secretManager = secretManager
	}
}

// WithBlockFactory replaces the block factory built from the connector.
func WithBlockFactory(blockFactory *blockfactory.Factory) Option {
	return func(wallet *Wallet) {
		wallet.blockFactory = blockFactory
	}
}

// WithPoWProvider sets how the nonce of new blocks is found.
func WithPoWProvider(powProvider pow.Provider) Option {
	return func(wallet *Wallet) {
		wallet.powProvider = powProvider
	}
}

// WithLogger sets the logger of the wallet.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(wallet *Wallet) {
		wallet.log = log
	}
}

// WithMetrics records the activity of the wallet.
func WithMetrics(m *metrics.Metrics) Option {
	return func(wallet *Wallet) {
		wallet.metrics = m
	}
}

// WithCoinType sets the coin type of the derivation paths.
func WithCoinType(coinType uint32) Option {
	return func(wallet *Wallet) {
		wallet.coinType = coinType
	}
}

// WithAccountIndex sets the account of the derivation paths.
func WithAccountIndex(accountIndex uint32) Option {
	return func(wallet *Wallet) {
		wallet.accountIndex = accountIndex
	}
}

// WithBech32HRP sets the human-readable part of the addresses instead of asking the node.
func WithBech32HRP(hrp string) Option {
	return func(wallet *Wallet) {
		wallet.bech32HRP = hrp
	}
}

// WithClock sets the clock that time dependent unlock conditions are evaluated against.
func WithClock(clock func() time.Time) Option {
	return func(wallet *Wallet) {
		wallet.clock = clock
	}
}

// WithRetryInterval sets the default polling interval of RetryUntilIncluded.
func WithRetryInterval(interval time.Duration) Option {
	return func(wallet *Wallet) {
		if interval > 0 {
			wallet.retryInterval = interval
		}
	}
}

// WithRetryMaxAttempts sets the default number of polls of RetryUntilIncluded.
func WithRetryMaxAttempts(maxAttempts int) Option {
	return func(wallet *Wallet) {
		if maxAttempts > 0 {
			wallet.retryMaxAttempts = maxAttempts
		}
	}
}

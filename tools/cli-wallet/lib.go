package main

import (
	"context"
	"net/http"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iotaledger/stardust-client/client"
	"github.com/iotaledger/stardust-client/client/wallet"
	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
	"github.com/iotaledger/stardust-client/packages/metrics"
	"github.com/iotaledger/stardust-client/packages/pow"
)

// newLogger builds the root logger from the logger.* keys.
func newLogger(config *viper.Viper) (*zap.SugaredLogger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(config.GetString(CfgLoggerLevel))); err != nil {
		return nil, errors.Errorf("invalid log level %q: %w", config.GetString(CfgLoggerLevel), err)
	}

	zapConfig := zap.Config{
		Level:             level,
		DisableCaller:     config.GetBool(CfgLoggerDisableCaller),
		DisableStacktrace: true,
		Encoding:          config.GetString(CfgLoggerEncoding),
		EncoderConfig:     zap.NewDevelopmentEncoderConfig(),
		OutputPaths:       config.GetStringSlice(CfgLoggerOutputPaths),
		ErrorOutputPaths:  []string{"stderr"},
	}
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := zapConfig.Build()
	if err != nil {
		return nil, errors.Errorf("failed to build logger: %w", err)
	}

	return log.Sugar(), nil
}

// newSecretManager picks the first configured secret: vault, mnemonic or seed. Without one the wallet can only run
// commands that do not sign or derive.
func newSecretManager(config *viper.Viper) (secretmanager.SecretManager, error) {
	switch {
	case config.GetString(CfgWalletVaultPath) != "":
		sealed, err := os.ReadFile(config.GetString(CfgWalletVaultPath))
		if err != nil {
			return nil, errors.Errorf("failed to read vault: %w", err)
		}
		vault := secretmanager.NewVaultSecretManager(sealed)
		if err = vault.Unlock([]byte(config.GetString(CfgWalletVaultPassword))); err != nil {
			return nil, err
		}

		return vault, nil
	case config.GetString(CfgWalletMnemonic) != "":
		return secretmanager.NewMnemonicSecretManager(config.GetString(CfgWalletMnemonic), config.GetString(CfgWalletMnemonicPassphrase))
	case config.GetString(CfgWalletSeed) != "":
		return secretmanager.NewSeedSecretManagerFromHex(config.GetString(CfgWalletSeed))
	default:
		return secretmanager.PlaceholderSecretManager{}, nil
	}
}

// newPoWProvider combines the local workers with the optional remote service.
func newPoWProvider(config *viper.Viper, log *zap.SugaredLogger) (pow.Provider, error) {
	workers := config.GetInt(CfgPoWWorkers)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	local := pow.New(workers, pow.WithLogger(log.Named("pow")))

	remoteURL := config.GetString(CfgPoWRemoteURL)
	if remoteURL == "" {
		if !config.GetBool(CfgPoWLocal) {
			return nil, errors.Errorf("local proof of work is disabled but %s is not set", CfgPoWRemoteURL)
		}

		return local, nil
	}

	remote := pow.NewRemoteProvider(remoteURL, config.GetDuration(CfgPoWRemoteTimeout))

	return pow.NewFallbackProvider(remote, local, config.GetBool(CfgPoWLocal) && config.GetBool(CfgPoWFallbackToLocal), log.Named("pow")), nil
}

// newNodeAPI creates the client of the configured node.
func newNodeAPI(config *viper.Viper, log *zap.SugaredLogger) *client.NodeAPI {
	options := []client.Option{
		client.WithTimeout(config.GetDuration(CfgNodeTimeout)),
		client.WithInfoCacheTTL(config.GetDuration(CfgNodeInfoCacheTTL)),
		client.WithLogger(log.Named("client")),
	}
	if requestsPerSecond := config.GetFloat64(CfgNodeRequestsPerSecond); requestsPerSecond > 0 {
		options = append(options, client.WithRateLimit(requestsPerSecond, 1))
	}
	if username := config.GetString(CfgNodeUsername); username != "" {
		options = append(options, client.WithBasicAuth(username, config.GetString(CfgNodePassword)))
	}
	if jwt := config.GetString(CfgNodeJWT); jwt != "" {
		options = append(options, client.WithJWT(jwt))
	}

	return client.NewNodeAPI(config.GetString(CfgNodeURL), options...)
}

// newWallet wires the wallet from the configuration.
func newWallet(config *viper.Viper, log *zap.SugaredLogger, registry prometheus.Registerer) (*wallet.Wallet, error) {
	secretManager, err := newSecretManager(config)
	if err != nil {
		return nil, err
	}
	powProvider, err := newPoWProvider(config, log)
	if err != nil {
		return nil, err
	}

	options := []wallet.Option{
		wallet.WithWebConnector(wallet.NewWebConnectorWithAPI(newNodeAPI(config, log))),
		wallet.WithSecretManager(secretManager),
		wallet.WithPoWProvider(powProvider),
		wallet.WithLogger(log.Named("wallet")),
		wallet.WithCoinType(config.GetUint32(CfgWalletCoinType)),
		wallet.WithAccountIndex(config.GetUint32(CfgWalletAccountIndex)),
		wallet.WithRetryInterval(config.GetDuration(CfgRetryInterval)),
		wallet.WithRetryMaxAttempts(config.GetInt(CfgRetryMaxAttempts)),
	}
	if hrp := config.GetString(CfgWalletBech32HRP); hrp != "" {
		options = append(options, wallet.WithBech32HRP(hrp))
	}
	if registry != nil {
		options = append(options, wallet.WithMetrics(metrics.New(registry)))
	}

	return wallet.New(options...), nil
}

// serveMetrics exposes the registry until the context is done.
func serveMetrics(ctx context.Context, bindAddress string, registry *prometheus.Registry, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: bindAddress, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	go func() {
		log.Infow("serving metrics", "bindAddress", bindAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnw("metrics endpoint stopped", "err", err)
		}
	}()
}

// sealVault encrypts the configured seed into the vault file.
func sealVault(config *viper.Viper) error {
	vaultPath := config.GetString(CfgWalletVaultPath)
	if vaultPath == "" {
		return errors.Errorf("%s is not set", CfgWalletVaultPath)
	}
	password := config.GetString(CfgWalletVaultPassword)
	if password == "" {
		return errors.Errorf("%s is not set", CfgWalletVaultPassword)
	}

	walletSeed, err := seed.FromHex(config.GetString(CfgWalletSeed))
	if err != nil {
		return err
	}

	sealed, err := secretmanager.SealSeed(walletSeed, []byte(password), secretmanager.DefaultKeyDerivationParams())
	if err != nil {
		return err
	}

	return os.WriteFile(vaultPath, sealed, 0o600)
}

package main

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/iotaledger/stardust-client/client/wallet"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
)

const (
	// CfgNodeURL is the base URL of the node REST API.
	CfgNodeURL = "node.url"
	// CfgNodeTimeout is the timeout of a single node request.
	CfgNodeTimeout = "node.timeout"
	// CfgNodeRequestsPerSecond throttles the node requests. Zero disables throttling.
	CfgNodeRequestsPerSecond = "node.requestsPerSecond"
	// CfgNodeInfoCacheTTL defines how long the node info is cached.
	CfgNodeInfoCacheTTL = "node.infoCacheTTL"
	// CfgNodeUsername and CfgNodePassword enable basic auth.
	CfgNodeUsername = "node.username"
	CfgNodePassword = "node.password"
	// CfgNodeJWT is sent as bearer token.
	CfgNodeJWT = "node.jwt"

	// CfgPoWLocal enables local proof of work.
	CfgPoWLocal = "pow.local"
	// CfgPoWWorkers is the number of local PoW workers.
	CfgPoWWorkers = "pow.workers"
	// CfgPoWRemoteURL is the URL of a remote PoW service.
	CfgPoWRemoteURL = "pow.remoteURL"
	// CfgPoWRemoteTimeout is the timeout of a remote PoW request.
	CfgPoWRemoteTimeout = "pow.remoteTimeout"
	// CfgPoWFallbackToLocal mines locally if the remote service is unavailable.
	CfgPoWFallbackToLocal = "pow.fallbackToLocal"

	// CfgWalletCoinType is the BIP44 coin type of the derived addresses.
	CfgWalletCoinType = "wallet.coinType"
	// CfgWalletAccountIndex is the account the wallet operates on.
	CfgWalletAccountIndex = "wallet.accountIndex"
	// CfgWalletBech32HRP overrides the human-readable part announced by the node.
	CfgWalletBech32HRP = "wallet.bech32Hrp"
	// CfgWalletSeed is a hex encoded seed.
	CfgWalletSeed = "wallet.seed"
	// CfgWalletMnemonic is a BIP39 mnemonic, CfgWalletMnemonicPassphrase its optional passphrase.
	CfgWalletMnemonic           = "wallet.mnemonic"
	CfgWalletMnemonicPassphrase = "wallet.mnemonicPassphrase"
	// CfgWalletVaultPath is the file of an encrypted seed, CfgWalletVaultPassword unlocks it.
	CfgWalletVaultPath     = "wallet.vaultPath"
	CfgWalletVaultPassword = "wallet.vaultPassword"

	// CfgRetryInterval is the default polling interval of retryUntilIncluded.
	CfgRetryInterval = "retry.interval"
	// CfgRetryMaxAttempts is the default number of polls of retryUntilIncluded.
	CfgRetryMaxAttempts = "retry.maxAttempts"

	// CfgLoggerLevel is the minimum enabled logging level.
	CfgLoggerLevel = "logger.level"
	// CfgLoggerDisableCaller stops annotating logs with the calling function.
	CfgLoggerDisableCaller = "logger.disableCaller"
	// CfgLoggerEncoding sets the logger encoding ("console" or "json").
	CfgLoggerEncoding = "logger.encoding"
	// CfgLoggerOutputPaths is a list of URLs or file paths to write logging output to.
	CfgLoggerOutputPaths = "logger.outputPaths"

	// CfgMetricsEnabled serves the prometheus metrics while a command runs.
	CfgMetricsEnabled = "metrics.enabled"
	// CfgMetricsBindAddress is the address of the metrics endpoint.
	CfgMetricsBindAddress = "metrics.bindAddress"
)

var (
	configName          = flag.StringP("config", "c", "config", "Filename of the config file without the file extension")
	configDirPath       = flag.StringP("config-dir", "d", ".", "Path to the directory containing the config file")
	skipConfigAvailable = flag.Bool("skip-config", true, "Skip config file availability check")
)

func init() {
	flag.String(CfgNodeURL, "http://127.0.0.1:14265", "the URL of the node API")
	flag.Duration(CfgNodeTimeout, 60*time.Second, "the timeout of a node request")
	flag.Float64(CfgNodeRequestsPerSecond, 0, "the maximum number of node requests per second (0 = unlimited)")
	flag.Duration(CfgNodeInfoCacheTTL, 30*time.Second, "how long the node info is cached")
	flag.String(CfgNodeUsername, "", "the basic auth username of the node API")
	flag.String(CfgNodePassword, "", "the basic auth password of the node API")
	flag.String(CfgNodeJWT, "", "the JWT of the node API")

	flag.Bool(CfgPoWLocal, true, "whether to do the proof of work locally")
	flag.Int(CfgPoWWorkers, 0, "the number of local PoW workers (0 = number of CPUs)")
	flag.String(CfgPoWRemoteURL, "", "the URL of a remote PoW service")
	flag.Duration(CfgPoWRemoteTimeout, 30*time.Second, "the timeout of a remote PoW request")
	flag.Bool(CfgPoWFallbackToLocal, true, "whether to do the PoW locally if the remote service is unavailable")

	flag.Uint32(CfgWalletCoinType, seed.IotaCoinType, "the BIP44 coin type of the addresses")
	flag.Uint32(CfgWalletAccountIndex, 0, "the account index of the wallet")
	flag.String(CfgWalletBech32HRP, "", "the human-readable part of the addresses (empty = ask the node)")
	flag.String(CfgWalletSeed, "", "the hex encoded seed of the wallet")
	flag.String(CfgWalletMnemonic, "", "the BIP39 mnemonic of the wallet")
	flag.String(CfgWalletMnemonicPassphrase, "", "the passphrase of the mnemonic")
	flag.String(CfgWalletVaultPath, "", "the path of an encrypted seed vault")
	flag.String(CfgWalletVaultPassword, "", "the password of the seed vault")

	flag.Duration(CfgRetryInterval, wallet.DefaultRetryInterval, "the polling interval of retryUntilIncluded")
	flag.Int(CfgRetryMaxAttempts, wallet.DefaultRetryMaxAttempts, "the number of polls of retryUntilIncluded")

	flag.String(CfgLoggerLevel, "info", "the minimum enabled logging level")
	flag.Bool(CfgLoggerDisableCaller, true, "stop annotating logs with the calling function")
	flag.String(CfgLoggerEncoding, "console", "the logger's encoding")
	flag.StringSlice(CfgLoggerOutputPaths, []string{"stderr"}, "a list of URLs or file paths to write logging output to")

	flag.Bool(CfgMetricsEnabled, false, "whether to serve prometheus metrics while a command runs")
	flag.String(CfgMetricsBindAddress, "127.0.0.1:9311", "the bind address of the metrics endpoint")
}

// loadConfig parses the flags and merges them with the environment and the optional config file.
func loadConfig(arguments []string) (*viper.Viper, error) {
	config := viper.New()

	// replace dots with underscores in env
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err := flag.CommandLine.Parse(arguments); err != nil {
		return nil, err
	}
	if err := config.BindPFlags(flag.CommandLine); err != nil {
		return nil, err
	}
	if err := loadConfigFile(config, *configDirPath, *configName, *skipConfigAvailable); err != nil {
		return nil, err
	}

	return config, nil
}

// loadConfigFile merges the config file with the given name from the given directory. A missing file is only an
// error if skipMissing is false.
func loadConfigFile(config *viper.Viper, configDir, name string, skipMissing bool) error {
	config.SetConfigName(name)
	config.AddConfigPath(configDir)

	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && skipMissing {
			return nil
		}

		return errors.Errorf("failed to read config file %s from %s: %w", name, configDir, err)
	}

	return nil
}

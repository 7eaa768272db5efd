package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/iotaledger/stardust-client/client/commands"
	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
)

// verbs lists the commands that are forwarded to the dispatcher.
var verbs = []struct {
	name        string
	description string
}{
	{"generateAddresses", "derive addresses of the wallet"},
	{"buildBasicOutput", "build a basic output"},
	{"buildAliasOutput", "build an alias output"},
	{"buildFoundryOutput", "build a foundry output"},
	{"buildNftOutput", "build an nft output"},
	{"buildAndPostBlock", "issue a block with an optional payload"},
	{"postBlock", "submit a complete block"},
	{"retryUntilIncluded", "promote or reattach a block until it is included"},
	{"consolidateFunds", "merge the outputs of every address into the lowest address"},
	{"computeAliasId", "derive an alias id from its origin output id"},
	{"computeNftId", "derive an nft id from its origin output id"},
	{"computeFoundryId", "derive a foundry id"},
	{"hexToBech32", "encode an ed25519 address digest as bech32"},
	{"bech32ToHex", "decode a bech32 address into its digest"},
	{"isAddressValid", "check a bech32 address"},
	{"getInfo", "display the node info"},
	{"getOutputs", "fetch outputs by id"},
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = printUsage

	config, err := loadConfig(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR:\n  %s\n", err)
		return 1
	}

	arguments := flag.Args()
	if len(arguments) < 1 {
		printUsage()
		return 1
	}

	switch arguments[0] {
	case "help":
		printUsage()
		return 0
	case "mnemonic":
		mnemonic, mnemonicErr := secretmanager.GenerateMnemonic()
		if mnemonicErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "ERROR:\n  %s\n", mnemonicErr)
			return 1
		}
		fmt.Println(mnemonic)

		return 0
	case "seal-vault":
		if err = sealVault(config); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "ERROR:\n  %s\n", err)
			return 1
		}
		fmt.Println("sealed seed into", config.GetString(CfgWalletVaultPath))

		return 0
	}

	log, err := newLogger(config)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR:\n  %s\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var registerer prometheus.Registerer
	if config.GetBool(CfgMetricsEnabled) {
		registry := prometheus.NewRegistry()
		serveMetrics(ctx, config.GetString(CfgMetricsBindAddress), registry, log.Named("metrics"))
		registerer = registry
	}

	cliWallet, err := newWallet(config, log, registerer)
	if err != nil {
		log.Errorw("failed to create wallet", "err", err)
		return 1
	}

	data, err := commandData(arguments[1:])
	if err != nil {
		log.Errorw("failed to read command data", "err", err)
		return 1
	}

	dispatcher := commands.New(cliWallet, commands.WithLogger(log.Named("commands")))
	response := dispatcher.Call(ctx, &jsonmodels.Command{Name: arguments[0], Data: data})

	output, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(response, "", "  ")
	if err != nil {
		log.Errorw("failed to encode response", "err", err)
		return 1
	}
	fmt.Println(string(output))

	if response.Type == commands.ErrorResponseType {
		return 1
	}

	return 0
}

// commandData returns the JSON data of the command: the argument itself, or stdin if the argument is "-".
func commandData(arguments []string) ([]byte, error) {
	if len(arguments) == 0 {
		return nil, nil
	}
	if arguments[0] == "-" {
		return io.ReadAll(os.Stdin)
	}

	return []byte(arguments[0]), nil
}

func printUsage() {
	fmt.Println("IOTA Stardust CLI-Wallet")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  " + filepath.Base(os.Args[0]) + " [OPTIONS] [COMMAND] [JSON DATA | -]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	for _, verb := range verbs {
		fmt.Println("  " + verb.name)
		fmt.Println("        " + verb.description)
	}
	fmt.Println("  mnemonic")
	fmt.Println("        generate a new BIP39 mnemonic")
	fmt.Println("  seal-vault")
	fmt.Println("        encrypt the configured seed into the vault file")
	fmt.Println("  help")
	fmt.Println("        display this help screen")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
}

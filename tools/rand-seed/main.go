package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
)

var (
	outputFile = flag.String("file", "random-seed.txt", "the file the seed is written to")
	hrp        = flag.String("hrp", "iota", "the human-readable part of the printed address")
	coinType   = flag.Uint32("coin-type", seed.IotaCoinType, "the BIP44 coin type of the printed address")
)

func main() {
	flag.Parse()

	walletSeed, err := seed.Random()
	if err != nil {
		fmt.Println(err)
		return
	}

	addresses, err := secretmanager.NewSeedSecretManager(walletSeed).GenerateAddresses(context.Background(), &secretmanager.GenerateAddressesOptions{
		CoinType:  *coinType,
		End:       1,
		Bech32HRP: *hrp,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	// If the file doesn't exist, create it, or truncate the file
	f, err := os.OpenFile(*outputFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()

	_, _ = f.WriteString("hex:" + walletSeed.Hex() + "\n")
	_, _ = f.WriteString("base58:" + walletSeed.Base58() + "\n")
	_, _ = f.WriteString("address:" + addresses[0].Bech32 + "\n")

	fmt.Printf("New random seed generated (hex and base58 encoded) and written in %s\n", *outputFile)
	fmt.Printf("First address: %s (%s)\n", addresses[0].Bech32, addresses[0].Path)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/iotaledger/stardust-client/client/wallet"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/pow"
)

const (
	cfgNodeURI = "node"
	cfgTag     = "tag"
	cfgMessage = "message"
	cfgRate    = "rate"
	cfgCount   = "count"
)

func init() {
	flag.String(cfgNodeURI, "http://127.0.0.1:14265", "the URI of the node API")
	flag.String(cfgTag, "spammer", "the tag of the tagged data payloads")
	flag.String(cfgMessage, "", "the data of the tagged data payloads")
	flag.Float64(cfgRate, 1, "the number of blocks issued per second")
	flag.Int(cfgCount, 0, "the number of blocks to issue (0 = until interrupted)")
}

func main() {
	flag.Parse()
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}

	payload, err := ledgerstate.NewTaggedData([]byte(viper.GetString(cfgTag)), []byte(viper.GetString(cfgMessage)))
	if err != nil {
		panic(err)
	}

	spamWallet := wallet.New(
		wallet.WithWebConnector(wallet.NewWebConnector(viper.GetString(cfgNodeURI))),
		wallet.WithPoWProvider(pow.New(runtime.NumCPU())),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(viper.GetFloat64(cfgRate)), 1)
	count := viper.GetInt(cfgCount)

	var issued, failed int
	for count == 0 || issued+failed < count {
		if err = limiter.Wait(ctx); err != nil {
			break
		}

		fmt.Printf("issued %d, failed %d\r", issued, failed)
		if _, _, err = spamWallet.BuildAndPostBlock(ctx, payload); err != nil {
			failed++
			continue
		}
		issued++
	}
	fmt.Printf("issued %d, failed %d\n", issued, failed)
}

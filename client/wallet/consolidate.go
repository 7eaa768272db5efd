package wallet

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/consolidateoptions"
	"github.com/iotaledger/stardust-client/client/wallet/packages/transactionoptions"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// region ConsolidateFunds /////////////////////////////////////////////////////////////////////////////////////////////

// ConsolidateFunds sends the outputs of every address in the range that holds more than one output to the lowest
// address of the range and returns that address. Addresses are consolidated concurrently and independently: a
// failure is logged and does not stop the others. An error is only returned if no address could be consolidated.
func (wallet *Wallet) ConsolidateFunds(ctx context.Context, options ...consolidateoptions.ConsolidateFundsOption) (*address.Address, error) {
	if err := wallet.requireOnline(); err != nil {
		return nil, err
	}

	consolidateOptions, err := consolidateoptions.Build(options...)
	if err != nil {
		return nil, err
	}

	accountIndex := wallet.accountIndex
	if consolidateOptions.AccountIndex != nil {
		accountIndex = *consolidateOptions.AccountIndex
	}

	hrp, err := wallet.Bech32HRP(ctx)
	if err != nil {
		return nil, err
	}

	addresses, err := wallet.addressManager.Addresses(ctx, accountIndex, consolidateOptions.AddressStart, consolidateOptions.AddressEnd, false, hrp)
	if err != nil {
		return nil, err
	}
	target := addresses.Lowest()

	unspentOutputManager := NewUnspentOutputManager(wallet.connector, wallet.unixTime())
	if err = unspentOutputManager.Refresh(ctx, addresses); err != nil {
		return nil, errors.Errorf("failed to retrieve unspent outputs: %w", err)
	}

	consolidation := &consolidation{
		wallet:       wallet,
		options:      consolidateOptions,
		accountIndex: accountIndex,
		target:       target,
	}

	// failures stay inside their unit of work, so the group never cancels the others
	group := new(errgroup.Group)
	group.SetLimit(consolidateOptions.Parallelism)
	for _, addr := range addresses {
		addr := addr
		outputs := unspentOutputManager.UnspentOutputs(addr)
		if len(outputs) <= 1 {
			continue
		}

		group.Go(func() error {
			consolidation.consolidateAddress(ctx, addr, outputs)
			return nil
		})
	}
	_ = group.Wait()

	if ctx.Err() != nil {
		return nil, errors.Errorf("consolidation was canceled: %w", ctx.Err())
	}
	if consolidation.succeeded == 0 && consolidation.lastErr != nil {
		return nil, errors.Errorf("failed to consolidate %d addresses: %w", consolidation.failed, consolidation.lastErr)
	}

	wallet.log.Infow("consolidated funds", "address", target.Bech32, "consolidatedAddresses", consolidation.succeeded, "failedAddresses", consolidation.failed)

	return target, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region consolidation ////////////////////////////////////////////////////////////////////////////////////////////////

type consolidation struct {
	wallet       *Wallet
	options      *consolidateoptions.ConsolidateFundsOptions
	accountIndex uint32
	target       *address.Address

	mutex     sync.Mutex
	succeeded int
	failed    int
	lastErr   error
}

// consolidateAddress moves the outputs of one address in chunks of at most MaxInputCount inputs that together hold no
// more distinct native tokens than fit into the consolidated output.
func (c *consolidation) consolidateAddress(ctx context.Context, addr *address.Address, outputs []*Output) {
	log := c.wallet.log.With("address", addr.Bech32)

	for _, chunk := range consolidationChunks(outputs) {
		if err := c.consolidateChunk(ctx, chunk); err != nil {
			log.Warnw("failed to consolidate address", "outputs", len(outputs), "err", err)
			c.wallet.metrics.ConsolidationFailed()
			c.record(err)

			return
		}
	}

	log.Debugw("consolidated address", "outputs", len(outputs))
	c.wallet.metrics.Consolidated()
	c.record(nil)
}

// consolidationChunks splits the outputs in order, starting a new chunk whenever the next output would exceed
// MaxInputCount inputs or MaxNativeTokensPerOutput distinct native tokens.
func consolidationChunks(outputs []*Output) (chunks [][]*Output) {
	var (
		chunk  []*Output
		tokens = make(map[ledgerstate.TokenID]struct{})
	)
	for _, output := range outputs {
		outputTokens := output.UTXO.Output.NativeTokenList()

		newTokens := 0
		for _, nativeToken := range outputTokens {
			if _, exists := tokens[nativeToken.ID]; !exists {
				newTokens++
			}
		}

		if len(chunk) == ledgerstate.MaxInputCount || len(tokens)+newTokens > ledgerstate.MaxNativeTokensPerOutput {
			chunks = append(chunks, chunk)
			chunk = nil
			tokens = make(map[ledgerstate.TokenID]struct{})
		}

		chunk = append(chunk, output)
		for _, nativeToken := range outputTokens {
			tokens[nativeToken.ID] = struct{}{}
		}
	}
	if len(chunk) != 0 {
		chunks = append(chunks, chunk)
	}

	return chunks
}

func (c *consolidation) consolidateChunk(ctx context.Context, outputs []*Output) error {
	inputs := make(ledgerstate.UTXOs, len(outputs))
	for i, output := range outputs {
		inputs[i] = output.UTXO
	}

	consolidatedOutput := &ledgerstate.BasicOutput{
		Amount:       inputs.TotalDeposit(),
		NativeTokens: ledgerstate.NativeTokensFromSum(inputs.NativeTokenSum()),
		Conditions: ledgerstate.UnlockConditions{
			&ledgerstate.AddressUnlockCondition{Address: c.target.Address},
		},
	}

	transaction, err := c.wallet.BuildTransaction(ctx, []ledgerstate.Output{consolidatedOutput},
		transactionoptions.Inputs(inputs.IDs()...),
		transactionoptions.AccountIndex(c.accountIndex),
		transactionoptions.AddressRange(c.options.AddressStart, c.options.AddressEnd),
	)
	if err != nil {
		return err
	}

	blockID, _, err := c.wallet.BuildAndPostBlock(ctx, transaction)
	if err != nil {
		return err
	}

	if !c.options.WaitForInclusion {
		return nil
	}

	_, err = c.wallet.RetryUntilIncluded(ctx, blockID, 0, 0)

	return err
}

func (c *consolidation) record(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err != nil {
		c.failed++
		c.lastErr = err

		return
	}
	c.succeeded++
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package wallet

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/transactionoptions"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// region BuildTransaction /////////////////////////////////////////////////////////////////////////////////////////////

// BuildTransaction creates a signed Transaction that creates the given outputs. The inputs are either the explicitly
// given ones or selected from the unspent outputs of the address range. A positive balance is sent back as remainder.
func (wallet *Wallet) BuildTransaction(ctx context.Context, outputs []ledgerstate.Output, options ...transactionoptions.TransactionOption) (*ledgerstate.Transaction, error) {
	transaction, _, err := wallet.buildTransaction(ctx, outputs, options...)

	return transaction, err
}

func (wallet *Wallet) buildTransaction(ctx context.Context, outputs []ledgerstate.Output, options ...transactionoptions.TransactionOption) (transaction *ledgerstate.Transaction, inputs ledgerstate.UTXOs, err error) {
	txOptions, err := transactionoptions.Build(options...)
	if err != nil {
		return nil, nil, err
	}

	if len(outputs) == 0 {
		return nil, nil, errors.Errorf("failed to build transaction: %w", clienterrors.ErrEmptyOutputs)
	}
	if len(outputs) > ledgerstate.MaxOutputCount {
		return nil, nil, clienterrors.Validationf("%d outputs exceed the maximum of %d", len(outputs), ledgerstate.MaxOutputCount)
	}

	protocolParameters, err := wallet.protocolParameters(ctx)
	if err != nil {
		return nil, nil, err
	}
	rentStructure := protocolParameters.RentStructure.ToRentStructure()

	for i, output := range outputs {
		if err = ledgerstate.ValidateOutput(output, rentStructure); err != nil {
			return nil, nil, errors.Errorf("output %d is invalid: %w", i, err)
		}
	}

	hrp, err := wallet.Bech32HRP(ctx)
	if err != nil {
		return nil, nil, err
	}

	accountIndex := wallet.accountIndex
	if txOptions.AccountIndex != nil {
		accountIndex = *txOptions.AccountIndex
	}

	addresses, err := wallet.addressManager.AllAddresses(ctx, accountIndex, txOptions.AddressStart, txOptions.AddressEnd, hrp)
	if err != nil {
		return nil, nil, err
	}

	remainderAddress := txOptions.RemainderAddress
	if remainderAddress == nil {
		if lowest := addresses.Lowest(); lowest != nil {
			remainderAddress = lowest.Address
		}
	}

	unixTime := wallet.unixTime()
	selector := newInputSelector(outputs, txOptions.Burn, rentStructure, remainderAddress)
	if len(txOptions.Inputs) != 0 {
		explicitInputs, resolveErr := wallet.resolveInputs(ctx, txOptions.Inputs)
		if resolveErr != nil {
			return nil, nil, resolveErr
		}
		selector.selected = explicitInputs
	} else {
		unspentOutputManager := NewUnspentOutputManager(wallet.connector, unixTime)
		if err = unspentOutputManager.Refresh(ctx, addresses); err != nil {
			return nil, nil, errors.Errorf("failed to retrieve unspent outputs: %w", err)
		}
		selector.pool = unspentOutputManager
		selector.addresses = addresses
	}

	selectedInputs, remainder, err := selector.Select()
	if err != nil {
		return nil, nil, err
	}

	finalOutputs := make([]ledgerstate.Output, len(outputs), len(outputs)+1)
	copy(finalOutputs, outputs)
	if remainder != nil {
		if len(finalOutputs) == ledgerstate.MaxOutputCount {
			return nil, nil, clienterrors.Validationf("no room for a remainder output next to %d outputs", len(outputs))
		}
		finalOutputs = append(finalOutputs, remainder)
	}

	if inputs, err = ledgerstate.OrderInputs(selectedInputs, finalOutputs, unixTime); err != nil {
		return nil, nil, err
	}

	essence := &ledgerstate.TransactionEssence{
		NetworkID:        protocolParameters.NetworkID(),
		Inputs:           make([]*ledgerstate.UTXOInput, len(inputs)),
		InputsCommitment: ledgerstate.InputsCommitment(inputs.Outputs()),
		Outputs:          finalOutputs,
		Payload:          txOptions.TaggedData,
	}
	for i, input := range inputs {
		essence.Inputs[i] = input.ID.UTXOInput()
	}

	unlocks, err := wallet.unlockInputs(ctx, essence, inputs, addresses, unixTime)
	if err != nil {
		return nil, nil, err
	}

	if transaction, err = wallet.verifyTransaction(ledgerstate.NewTransaction(essence, unlocks), inputs, txOptions.Burn, rentStructure, unixTime); err != nil {
		return nil, nil, err
	}

	wallet.log.Debugw("built transaction", "transactionID", transaction.ID().Hex(), "inputs", len(inputs), "outputs", len(finalOutputs))

	return transaction, inputs, nil
}

// resolveInputs retrieves the given outputs concurrently, keeping their order.
func (wallet *Wallet) resolveInputs(ctx context.Context, outputIDs []ledgerstate.OutputID) (ledgerstate.UTXOs, error) {
	inputs := make(ledgerstate.UTXOs, len(outputIDs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelOutputRequests)
	for i, outputID := range outputIDs {
		i, outputID := i, outputID
		group.Go(func() (err error) {
			if inputs[i], err = wallet.connector.Output(groupCtx, outputID); err != nil {
				return errors.Errorf("failed to resolve input %s: %w", outputID.Hex(), err)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return inputs, nil
}

// unlockInputs signs the essence once per owner address and references the first signature for further inputs.
func (wallet *Wallet) unlockInputs(ctx context.Context, essence *ledgerstate.TransactionEssence, inputs ledgerstate.UTXOs, addresses address.Addresses, unixTime uint32) (ledgerstate.Unlocks, error) {
	requirements, err := ledgerstate.PlanUnlocks(inputs, essence.Outputs, unixTime)
	if err != nil {
		return nil, err
	}

	essenceHash := essence.Hash()
	unlocks := make(ledgerstate.Unlocks, len(requirements))
	for i, requirement := range requirements {
		switch requirement.Type {
		case ledgerstate.SignatureUnlockType:
			owner, found := addresses.Find(requirement.Owner)
			if !found {
				return nil, clienterrors.Validationf("input %d is owned by %s which is not an address of the wallet", i, requirement.Owner)
			}

			signature, signErr := wallet.secretManager.SignEd25519(ctx, essenceHash[:], owner.Path)
			if signErr != nil {
				return nil, errors.Errorf("failed to sign input %d: %w", i, signErr)
			}
			unlocks[i] = &ledgerstate.SignatureUnlock{Signature: signature}
		case ledgerstate.ReferenceUnlockType:
			unlocks[i] = &ledgerstate.ReferenceUnlock{ReferencedIndex: requirement.ReferencedIndex}
		case ledgerstate.AliasUnlockType:
			unlocks[i] = &ledgerstate.AliasUnlock{ReferencedIndex: requirement.ReferencedIndex}
		case ledgerstate.NFTUnlockType:
			unlocks[i] = &ledgerstate.NFTUnlock{ReferencedIndex: requirement.ReferencedIndex}
		default:
			return nil, clienterrors.Validationf("unsupported unlock type %s", requirement.Type)
		}
	}

	return unlocks, nil
}

// verifyTransaction parses the serialized transaction again and runs the checks of a node against it.
func (wallet *Wallet) verifyTransaction(transaction *ledgerstate.Transaction, inputs ledgerstate.UTXOs, burn *ledgerstate.Burn, rentStructure *ledgerstate.RentStructure, unixTime uint32) (*ledgerstate.Transaction, error) {
	parsedTransaction, err := ledgerstate.TransactionFromBytes(transaction.Bytes())
	if err != nil {
		return nil, errors.Errorf("built transaction can not be parsed: %w", err)
	}
	if parsedTransaction.ID() != transaction.ID() {
		return nil, clienterrors.Validationf("built transaction changed its id after serialization")
	}

	if err = ledgerstate.ValidateTransaction(parsedTransaction, inputs, burn, rentStructure, unixTime); err != nil {
		return nil, errors.Errorf("built transaction is invalid: %w", err)
	}

	return parsedTransaction, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region inputSelector ////////////////////////////////////////////////////////////////////////////////////////////////

// inputSelector greedily adds unspent outputs until the requested outputs are covered and the remainder (if any)
// carries its own storage deposit. Every picked output is marked as spent in the pool, so it is considered only once.
type inputSelector struct {
	outputs          []ledgerstate.Output
	burn             *ledgerstate.Burn
	rentStructure    *ledgerstate.RentStructure
	remainderAddress ledgerstate.Address

	selected  ledgerstate.UTXOs
	pool      *UnspentOutputManager
	addresses address.Addresses
}

func newInputSelector(outputs []ledgerstate.Output, burn *ledgerstate.Burn, rentStructure *ledgerstate.RentStructure, remainderAddress ledgerstate.Address) *inputSelector {
	return &inputSelector{
		outputs:          outputs,
		burn:             burn,
		rentStructure:    rentStructure,
		remainderAddress: remainderAddress,
	}
}

// Select returns the inputs and the remainder output (nil if the inputs match the outputs exactly).
func (s *inputSelector) Select() (inputs ledgerstate.UTXOs, remainder *ledgerstate.BasicOutput, err error) {
	for {
		availableBase, requiredBase, availableTokens, requiredTokens := s.balances()

		if missing := s.firstShortfall(availableBase, requiredBase, availableTokens, requiredTokens); missing != nil {
			if !s.pick(missing.tokenID) {
				return nil, nil, missing.err
			}

			continue
		}

		surplusTokens := make(ledgerstate.NativeTokenSum)
		for _, tokenID := range availableTokens.IDs() {
			if surplus := new(big.Int).Sub(availableTokens.Get(tokenID), requiredTokens.Get(tokenID)); surplus.Sign() > 0 {
				surplusTokens.Add(tokenID, surplus)
			}
		}

		remainderAmount := new(big.Int).Sub(availableBase, requiredBase).Uint64()
		if remainderAmount == 0 && len(surplusTokens.IDs()) == 0 {
			return s.selected, nil, nil
		}

		if s.remainderAddress == nil {
			return nil, nil, clienterrors.Validationf("a remainder of %d is left but there is no remainder address", remainderAmount)
		}

		remainder = &ledgerstate.BasicOutput{
			Amount:       remainderAmount,
			NativeTokens: ledgerstate.NativeTokensFromSum(surplusTokens),
			Conditions: ledgerstate.UnlockConditions{
				&ledgerstate.AddressUnlockCondition{Address: s.remainderAddress},
			},
		}
		if minimumDeposit := s.rentStructure.MinimumStorageDeposit(remainder); remainderAmount < minimumDeposit {
			// try to lift the remainder above its storage deposit with further inputs
			if !s.pick(nil) {
				return nil, nil, &clienterrors.InsufficientAmountError{Found: remainderAmount, Required: minimumDeposit}
			}

			continue
		}

		return s.selected, remainder, nil
	}
}

// balances returns what the selected inputs provide and what the outputs and burns consume.
func (s *inputSelector) balances() (availableBase, requiredBase *big.Int, availableTokens, requiredTokens ledgerstate.NativeTokenSum) {
	availableBase = new(big.Int).SetUint64(s.selected.TotalDeposit())
	requiredBase = new(big.Int)
	for _, output := range s.outputs {
		requiredBase.Add(requiredBase, new(big.Int).SetUint64(output.Deposit()))
	}

	availableTokens = s.selected.NativeTokenSum()
	requiredTokens = make(ledgerstate.NativeTokenSum)
	for _, output := range s.outputs {
		requiredTokens.AddAll(output.NativeTokenList().Sum())
	}

	minted, melted := ledgerstate.SupplyChanges(s.selected, s.outputs)
	availableTokens.AddAll(minted)
	requiredTokens.AddAll(melted)
	if s.burn != nil {
		requiredTokens.AddAll(s.burn.NativeTokens)
	}

	return availableBase, requiredBase, availableTokens, requiredTokens
}

type shortfall struct {
	// tokenID is nil for base tokens.
	tokenID *ledgerstate.TokenID
	err     error
}

func (s *inputSelector) firstShortfall(availableBase, requiredBase *big.Int, availableTokens, requiredTokens ledgerstate.NativeTokenSum) *shortfall {
	for _, tokenID := range requiredTokens.IDs() {
		if available, required := availableTokens.Get(tokenID), requiredTokens.Get(tokenID); available.Cmp(required) < 0 {
			tokenID := tokenID

			return &shortfall{
				tokenID: &tokenID,
				err:     &clienterrors.InsufficientFundsError{Asset: tokenID.Hex(), Required: required, Available: available},
			}
		}
	}

	if availableBase.Cmp(requiredBase) < 0 {
		return &shortfall{
			err: &clienterrors.InsufficientFundsError{Asset: "base token", Required: requiredBase, Available: availableBase},
		}
	}

	return nil
}

// pick adds the next unspent output of the pool. If a token is missing, outputs holding that token are preferred and
// required.
func (s *inputSelector) pick(tokenID *ledgerstate.TokenID) bool {
	if s.pool == nil || len(s.selected) >= ledgerstate.MaxInputCount {
		return false
	}

	for _, candidate := range s.pool.UnspentOutputs(s.addresses...) {
		if tokenID != nil && candidate.UTXO.Output.NativeTokenList().Sum().Get(*tokenID).Sign() == 0 {
			continue
		}

		s.pool.MarkOutputSpent(candidate.UTXO.ID)
		s.selected = append(s.selected, candidate.UTXO)

		return true
	}

	return false
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package ledgerstate

import (
	"math/big"

	"github.com/cockroachdb/errors"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region Burn /////////////////////////////////////////////////////////////////////////////////////////////////////////

// Burn lists what a Transaction is allowed to destroy. Everything else has to be conserved.
type Burn struct {
	Aliases      []AliasID
	NFTs         []NFTID
	Foundries    []FoundryID
	NativeTokens NativeTokenSum
}

// HasAlias returns true if the alias may be destroyed.
func (b *Burn) HasAlias(aliasID AliasID) bool {
	if b == nil {
		return false
	}
	for _, burned := range b.Aliases {
		if burned == aliasID {
			return true
		}
	}

	return false
}

// HasNFT returns true if the NFT may be destroyed.
func (b *Burn) HasNFT(nftID NFTID) bool {
	if b == nil {
		return false
	}
	for _, burned := range b.NFTs {
		if burned == nftID {
			return true
		}
	}

	return false
}

// HasFoundry returns true if the foundry may be destroyed.
func (b *Burn) HasFoundry(foundryID FoundryID) bool {
	if b == nil {
		return false
	}
	for _, burned := range b.Foundries {
		if burned == foundryID {
			return true
		}
	}

	return false
}

// NativeToken returns the amount of the token that may be burned.
func (b *Burn) NativeToken(tokenID TokenID) *big.Int {
	if b == nil || b.NativeTokens == nil {
		return new(big.Int)
	}

	return b.NativeTokens.Get(tokenID)
}

// Empty returns true if nothing may be burned.
func (b *Burn) Empty() bool {
	return b == nil || (len(b.Aliases) == 0 && len(b.NFTs) == 0 && len(b.Foundries) == 0 && len(b.NativeTokens.IDs()) == 0)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region unlock planning //////////////////////////////////////////////////////////////////////////////////////////////

// UnlockRequirement describes the Unlock that an input needs.
type UnlockRequirement struct {
	// Owner is the Address that has to authorize the input.
	Owner Address

	// Type is SignatureUnlockType for the first input of an Ed25519 owner, and a referencing type otherwise.
	Type UnlockType

	// ReferencedIndex is the index of the input that unlocks Owner. Unused for SignatureUnlockType.
	ReferencedIndex uint16
}

// isStateTransition returns true if the alias input is followed by an output that advances its state index.
func isStateTransition(input *UTXO, outputs []Output) bool {
	aliasInput, isAlias := input.Output.(*AliasOutput)
	if !isAlias {
		return false
	}

	aliasID := aliasInput.ResolvedAliasID(input.ID)
	for _, output := range outputs {
		if aliasOutput, isAliasOutput := output.(*AliasOutput); isAliasOutput && aliasOutput.AliasID == aliasID {
			return aliasOutput.StateIndex == aliasInput.StateIndex+1
		}
	}

	return false
}

// InputOwner returns the Address that has to authorize the consumption of the input at the given unix time.
func InputOwner(input *UTXO, outputs []Output, unixTime uint32) (Address, error) {
	if input.Output.UnlockConditionSet().TimelockedAt(unixTime) {
		return nil, clienterrors.Validationf("input %s is timelocked", input.ID.Hex())
	}

	owner := OwnerAddress(input.Output, unixTime, isStateTransition(input, outputs))
	if owner == nil {
		return nil, clienterrors.Validationf("input %s has no owner", input.ID.Hex())
	}

	return owner, nil
}

// OrderInputs sorts the inputs by OutputID and moves inputs that are owned by an alias or NFT behind the input that
// consumes that chain, so every referencing Unlock points backwards.
func OrderInputs(inputs UTXOs, outputs []Output, unixTime uint32) (UTXOs, error) {
	pending := make(UTXOs, len(inputs))
	copy(pending, inputs)
	pending.SortByID()

	owners := make(map[OutputID]Address, len(pending))
	for _, input := range pending {
		owner, err := InputOwner(input, outputs, unixTime)
		if err != nil {
			return nil, err
		}
		owners[input.ID] = owner
	}

	ordered := make(UTXOs, 0, len(pending))
	unlockedChains := make(map[string]bool)
	for len(pending) > 0 {
		remaining := pending[:0:0]
		for _, input := range pending {
			owner := owners[input.ID]
			if owner.Type() != Ed25519AddressType && !unlockedChains[owner.Key()] {
				remaining = append(remaining, input)
				continue
			}

			ordered = append(ordered, input)
			if chainAddress := ChainAddress(input.Output, input.ID); chainAddress != nil {
				unlockedChains[chainAddress.Key()] = true
			}
		}

		if len(remaining) == len(pending) {
			return nil, clienterrors.Validationf("input %s is owned by %s which is not consumed by the transaction",
				remaining[0].ID.Hex(), owners[remaining[0].ID])
		}
		pending = remaining
	}

	return ordered, nil
}

// PlanUnlocks determines the Unlock each input needs. The inputs have to be in their final order.
func PlanUnlocks(inputs UTXOs, outputs []Output, unixTime uint32) ([]*UnlockRequirement, error) {
	chainIndexes := make(map[string]int)
	signerIndexes := make(map[string]int)
	requirements := make([]*UnlockRequirement, len(inputs))

	for i, input := range inputs {
		owner, err := InputOwner(input, outputs, unixTime)
		if err != nil {
			return nil, err
		}

		requirement := &UnlockRequirement{Owner: owner}
		switch owner.Type() {
		case Ed25519AddressType:
			if signerIndex, signed := signerIndexes[owner.Key()]; signed {
				requirement.Type = ReferenceUnlockType
				requirement.ReferencedIndex = uint16(signerIndex)
			} else {
				requirement.Type = SignatureUnlockType
				signerIndexes[owner.Key()] = i
			}
		case AliasAddressType, NFTAddressType:
			chainIndex, consumed := chainIndexes[owner.Key()]
			if !consumed {
				return nil, clienterrors.Validationf("input %d is owned by %s which is not consumed before it", i, owner)
			}
			requirement.Type = AliasUnlockType
			if owner.Type() == NFTAddressType {
				requirement.Type = NFTUnlockType
			}
			requirement.ReferencedIndex = uint16(chainIndex)
		default:
			return nil, clienterrors.Validationf("unsupported owner type %s", owner.Type())
		}
		requirements[i] = requirement

		if chainAddress := ChainAddress(input.Output, input.ID); chainAddress != nil {
			chainIndexes[chainAddress.Key()] = i
		}
	}

	return requirements, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region semantic validation //////////////////////////////////////////////////////////////////////////////////////////

// ValidateTransaction runs all checks a node would run against the consumed inputs. The inputs have to be given in
// the order of the essence. A nil RentStructure skips the storage deposit checks.
func ValidateTransaction(transaction *Transaction, inputs UTXOs, burn *Burn, rentStructure *RentStructure, unixTime uint32) error {
	essence := transaction.Essence
	if err := essence.SyntacticallyValid(); err != nil {
		return err
	}

	if len(inputs) != len(essence.Inputs) {
		return clienterrors.Validationf("%d resolved inputs for %d essence inputs", len(inputs), len(essence.Inputs))
	}
	for i, input := range essence.Inputs {
		if input.OutputID() != inputs[i].ID {
			return clienterrors.Validationf("resolved input %d does not match the essence", i)
		}
	}
	if InputsCommitment(inputs.Outputs()) != essence.InputsCommitment {
		return clienterrors.Validationf("inputs commitment mismatch")
	}

	for i, output := range essence.Outputs {
		if err := ValidateOutput(output, rentStructure); err != nil {
			return errors.Wrapf(err, "output %d", i)
		}
	}

	if err := ValidateFoundrySerials(essence.Outputs); err != nil {
		return err
	}
	if err := ValidateBalances(inputs, essence.Outputs, burn); err != nil {
		return err
	}
	if err := ValidateChainTransitions(inputs, essence.Outputs, burn); err != nil {
		return err
	}
	if err := ValidateStorageDepositReturns(inputs, essence.Outputs, unixTime); err != nil {
		return err
	}
	if err := validateSenders(inputs, essence.Outputs, unixTime); err != nil {
		return err
	}

	return UnlocksValid(transaction, inputs, unixTime)
}

// ValidateBalances checks that base tokens are conserved exactly, and that every native token satisfies
// inputs + minted = outputs + melted + burned.
func ValidateBalances(inputs UTXOs, outputs []Output, burn *Burn) error {
	inputSum, outputSum := new(big.Int), new(big.Int)
	for _, input := range inputs {
		inputSum.Add(inputSum, new(big.Int).SetUint64(input.Output.Deposit()))
	}
	for _, output := range outputs {
		outputSum.Add(outputSum, new(big.Int).SetUint64(output.Deposit()))
	}
	if inputSum.Cmp(outputSum) != 0 {
		return clienterrors.Validationf("base tokens are not balanced: inputs %s, outputs %s", inputSum, outputSum)
	}

	available := inputs.NativeTokenSum()
	required := make(NativeTokenSum)
	for _, output := range outputs {
		required.AddAll(output.NativeTokenList().Sum())
	}

	minted, melted := SupplyChanges(inputs, outputs)
	available.AddAll(minted)
	required.AddAll(melted)
	if burn != nil {
		required.AddAll(burn.NativeTokens)
	}

	if !available.Equal(required) {
		for _, tokenID := range append(available.IDs(), required.IDs()...) {
			if available.Get(tokenID).Cmp(required.Get(tokenID)) != 0 {
				return clienterrors.Validationf("native token %s is not balanced: available %s, required %s",
					tokenID.Hex(), available.Get(tokenID), required.Get(tokenID))
			}
		}
	}

	return nil
}

// SupplyChanges returns the amounts minted and melted by the foundry transitions of a transaction.
func SupplyChanges(inputs UTXOs, outputs []Output) (minted, melted NativeTokenSum) {
	minted, melted = make(NativeTokenSum), make(NativeTokenSum)

	inputFoundries := make(map[FoundryID]*FoundryOutput)
	for _, input := range inputs {
		if foundry, isFoundry := input.Output.(*FoundryOutput); isFoundry {
			inputFoundries[foundry.FoundryID()] = foundry
		}
	}

	for _, output := range outputs {
		foundry, isFoundry := output.(*FoundryOutput)
		if !isFoundry {
			continue
		}

		previousMinted, previousMelted := new(big.Int), new(big.Int)
		if previous, exists := inputFoundries[foundry.FoundryID()]; exists {
			previousMinted, previousMelted = previous.TokenScheme.MintedTokens, previous.TokenScheme.MeltedTokens
		}

		if delta := new(big.Int).Sub(foundry.TokenScheme.MintedTokens, previousMinted); delta.Sign() != 0 {
			minted.Add(foundry.TokenID(), delta)
		}
		if delta := new(big.Int).Sub(foundry.TokenScheme.MeltedTokens, previousMelted); delta.Sign() != 0 {
			melted.Add(foundry.TokenID(), delta)
		}
	}

	return minted, melted
}

// ValidateChainTransitions checks that every consumed alias, NFT and foundry is either carried over or explicitly
// burned, and that new foundries are created by a transition of their alias.
func ValidateChainTransitions(inputs UTXOs, outputs []Output, burn *Burn) error {
	inputAliases := make(map[AliasID]*AliasOutput)
	inputNFTs := make(map[NFTID]bool)
	inputFoundries := make(map[FoundryID]bool)
	for _, input := range inputs {
		switch typedOutput := input.Output.(type) {
		case *AliasOutput:
			inputAliases[typedOutput.ResolvedAliasID(input.ID)] = typedOutput
		case *NFTOutput:
			inputNFTs[typedOutput.ResolvedNFTID(input.ID)] = true
		case *FoundryOutput:
			inputFoundries[typedOutput.FoundryID()] = true
		case *BasicOutput:
		}
	}

	outputAliases := make(map[AliasID]*AliasOutput)
	outputNFTs := make(map[NFTID]bool)
	outputFoundries := make(map[FoundryID]bool)
	newFoundries := make(map[AliasID][]*FoundryOutput)
	for _, output := range outputs {
		switch typedOutput := output.(type) {
		case *AliasOutput:
			if typedOutput.AliasID.Empty() {
				continue
			}
			if _, exists := outputAliases[typedOutput.AliasID]; exists {
				return clienterrors.Validationf("alias %s is transitioned twice", typedOutput.AliasID.Hex())
			}
			if _, consumed := inputAliases[typedOutput.AliasID]; !consumed {
				return clienterrors.Validationf("alias %s is not consumed by the transaction", typedOutput.AliasID.Hex())
			}
			outputAliases[typedOutput.AliasID] = typedOutput
		case *NFTOutput:
			if typedOutput.NFTID.Empty() {
				continue
			}
			if outputNFTs[typedOutput.NFTID] {
				return clienterrors.Validationf("nft %s is transitioned twice", typedOutput.NFTID.Hex())
			}
			if !inputNFTs[typedOutput.NFTID] {
				return clienterrors.Validationf("nft %s is not consumed by the transaction", typedOutput.NFTID.Hex())
			}
			outputNFTs[typedOutput.NFTID] = true
		case *FoundryOutput:
			foundryID := typedOutput.FoundryID()
			if outputFoundries[foundryID] {
				return clienterrors.Validationf("foundry %s appears twice", foundryID.Hex())
			}
			outputFoundries[foundryID] = true
			if !inputFoundries[foundryID] {
				aliasID := foundryID.AliasAddress().AliasID()
				newFoundries[aliasID] = append(newFoundries[aliasID], typedOutput)
			}
		case *BasicOutput:
		}
	}

	for aliasID, aliasInput := range inputAliases {
		aliasOutput, transitioned := outputAliases[aliasID]
		if !transitioned {
			if !burn.HasAlias(aliasID) {
				return clienterrors.Validationf("alias %s is consumed without being transitioned or burned", aliasID.Hex())
			}
			continue
		}

		switch aliasOutput.StateIndex {
		case aliasInput.StateIndex + 1:
			if aliasOutput.FoundryCounter < aliasInput.FoundryCounter {
				return clienterrors.Validationf("alias %s decreases its foundry counter", aliasID.Hex())
			}
		case aliasInput.StateIndex:
			if aliasOutput.FoundryCounter != aliasInput.FoundryCounter || string(aliasOutput.StateMetadata) != string(aliasInput.StateMetadata) {
				return clienterrors.Validationf("governance transition of alias %s changes its state", aliasID.Hex())
			}
		default:
			return clienterrors.Validationf("alias %s jumps from state index %d to %d", aliasID.Hex(), aliasInput.StateIndex, aliasOutput.StateIndex)
		}
		if !aliasOutput.ImmutableFeatures.Equal(aliasInput.ImmutableFeatures) {
			return clienterrors.Validationf("alias %s changes its immutable features", aliasID.Hex())
		}
	}

	for nftID := range inputNFTs {
		if !outputNFTs[nftID] && !burn.HasNFT(nftID) {
			return clienterrors.Validationf("nft %s is consumed without being transitioned or burned", nftID.Hex())
		}
	}

	for foundryID := range inputFoundries {
		if !outputFoundries[foundryID] && !burn.HasFoundry(foundryID) {
			return clienterrors.Validationf("foundry %s is consumed without being transitioned or burned", foundryID.Hex())
		}
	}

	return validateNewFoundries(inputAliases, outputAliases, newFoundries)
}

func validateNewFoundries(inputAliases, outputAliases map[AliasID]*AliasOutput, newFoundries map[AliasID][]*FoundryOutput) error {
	for aliasID, foundries := range newFoundries {
		aliasInput, consumed := inputAliases[aliasID]
		aliasOutput, transitioned := outputAliases[aliasID]
		if !consumed || !transitioned || aliasOutput.StateIndex != aliasInput.StateIndex+1 {
			return clienterrors.Validationf("new foundries of alias %s require a state transition of the alias", aliasID.Hex())
		}

		if created := aliasOutput.FoundryCounter - aliasInput.FoundryCounter; int(created) != len(foundries) {
			return clienterrors.Validationf("alias %s creates %d foundries but increases its counter by %d", aliasID.Hex(), len(foundries), created)
		}
		for _, foundry := range foundries {
			if foundry.SerialNumber <= aliasInput.FoundryCounter || foundry.SerialNumber > aliasOutput.FoundryCounter {
				return clienterrors.Validationf("foundry serial number %d of alias %s is out of range", foundry.SerialNumber, aliasID.Hex())
			}
		}
	}

	return nil
}

// ValidateFoundrySerials checks that no two foundries of the same alias share a serial number.
func ValidateFoundrySerials(outputs []Output) error {
	seen := make(map[FoundryID]bool)
	for _, output := range outputs {
		foundry, isFoundry := output.(*FoundryOutput)
		if !isFoundry {
			continue
		}

		aliasAddress := foundry.Conditions.ImmutableAlias()
		if aliasAddress == nil {
			return clienterrors.OutputValidationf("foundry output without immutable alias address")
		}

		// the scheme type is not part of the uniqueness constraint
		foundryID := ComputeFoundryID(aliasAddress.Address, foundry.SerialNumber, SimpleTokenSchemeType)
		if seen[foundryID] {
			return clienterrors.OutputValidationf("serial number %d is used twice by alias %s", foundry.SerialNumber, aliasAddress.Address.AliasID().Hex())
		}
		seen[foundryID] = true
	}

	return nil
}

// ValidateStorageDepositReturns checks that every consumed output with a pending storage deposit return is paid back
// by basic outputs to the return address.
func ValidateStorageDepositReturns(inputs UTXOs, outputs []Output, unixTime uint32) error {
	required := make(map[string]uint64)
	addresses := make(map[string]Address)
	for _, input := range inputs {
		conditions := input.Output.UnlockConditionSet()
		storageDepositReturn := conditions.StorageDepositReturn()
		if storageDepositReturn == nil {
			continue
		}

		// an expired output is owned by the return address, nothing has to be returned
		if expiration := conditions.Expiration(); expiration != nil && unixTime >= expiration.UnixTime {
			continue
		}

		key := storageDepositReturn.ReturnAddress.Key()
		required[key] += storageDepositReturn.Amount
		addresses[key] = storageDepositReturn.ReturnAddress
	}

	for key, amount := range required {
		var returned uint64
		for _, output := range outputs {
			basicOutput, isBasic := output.(*BasicOutput)
			if !isBasic || len(basicOutput.Conditions) != 1 {
				continue
			}
			if owner := basicOutput.SimpleOwner(); owner != nil && owner.Key() == key {
				returned += basicOutput.Amount
			}
		}
		if returned < amount {
			return clienterrors.Validationf("storage deposit return of %d to %s is not fulfilled (%d returned)", amount, addresses[key], returned)
		}
	}

	return nil
}

func validateSenders(inputs UTXOs, outputs []Output, unixTime uint32) error {
	unlocked := make(map[string]bool)
	for _, input := range inputs {
		owner, err := InputOwner(input, outputs, unixTime)
		if err != nil {
			return err
		}
		unlocked[owner.Key()] = true
		if chainAddress := ChainAddress(input.Output, input.ID); chainAddress != nil {
			unlocked[chainAddress.Key()] = true
		}
	}

	for i, output := range outputs {
		if sender := output.FeatureSet().Sender(); sender != nil && !unlocked[sender.Address.Key()] {
			return clienterrors.Validationf("sender %s of output %d is not unlocked by the transaction", sender.Address, i)
		}
	}

	return nil
}

// UnlocksValid checks that every input is unlocked by the Unlock at its index.
func UnlocksValid(transaction *Transaction, inputs UTXOs, unixTime uint32) error {
	if len(transaction.Unlocks) != len(inputs) {
		return clienterrors.Validationf("%d unlocks for %d inputs", len(transaction.Unlocks), len(inputs))
	}

	requirements, err := PlanUnlocks(inputs, transaction.Essence.Outputs, unixTime)
	if err != nil {
		return err
	}

	essenceHash := transaction.Essence.Hash()
	for i, requirement := range requirements {
		unlock := transaction.Unlocks[i]
		if unlock.Type() != requirement.Type {
			return clienterrors.Validationf("input %d requires a %s but has a %s", i, requirement.Type, unlock.Type())
		}

		switch typedUnlock := unlock.(type) {
		case *SignatureUnlock:
			if !typedUnlock.Signature.SignsAddress(requirement.Owner, essenceHash[:]) {
				return clienterrors.Validationf("invalid signature for input %d", i)
			}
		case *ReferenceUnlock:
			if typedUnlock.ReferencedIndex != requirement.ReferencedIndex {
				return clienterrors.Validationf("reference unlock %d points to %d instead of %d", i, typedUnlock.ReferencedIndex, requirement.ReferencedIndex)
			}
		case *AliasUnlock:
			if typedUnlock.ReferencedIndex != requirement.ReferencedIndex {
				return clienterrors.Validationf("alias unlock %d points to %d instead of %d", i, typedUnlock.ReferencedIndex, requirement.ReferencedIndex)
			}
		case *NFTUnlock:
			if typedUnlock.ReferencedIndex != requirement.ReferencedIndex {
				return clienterrors.Validationf("nft unlock %d points to %d instead of %d", i, typedUnlock.ReferencedIndex, requirement.ReferencedIndex)
			}
		default:
			return clienterrors.Validationf("unsupported unlock %T", unlock)
		}
	}

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

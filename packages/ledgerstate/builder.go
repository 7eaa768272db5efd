package ledgerstate

import (
	"bytes"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region params ///////////////////////////////////////////////////////////////////////////////////////////////////////

// BasicOutputParams contains the fields of a BasicOutput under construction.
type BasicOutputParams struct {
	// Amount is ignored if UseMinimumStorageDeposit is set.
	Amount                   uint64
	UseMinimumStorageDeposit bool
	NativeTokens             NativeTokens
	UnlockConditions         UnlockConditions
	Features                 Features
}

// AliasOutputParams contains the fields of an AliasOutput under construction.
type AliasOutputParams struct {
	Amount                   uint64
	UseMinimumStorageDeposit bool
	NativeTokens             NativeTokens
	AliasID                  AliasID
	StateIndex               uint32
	StateMetadata            []byte
	FoundryCounter           uint32
	UnlockConditions         UnlockConditions
	Features                 Features
	ImmutableFeatures        Features
}

// FoundryOutputParams contains the fields of a FoundryOutput under construction.
type FoundryOutputParams struct {
	Amount                   uint64
	UseMinimumStorageDeposit bool
	NativeTokens             NativeTokens
	SerialNumber             uint32
	TokenScheme              *SimpleTokenScheme
	UnlockConditions         UnlockConditions
	Features                 Features
	ImmutableFeatures        Features
}

// NFTOutputParams contains the fields of an NFTOutput under construction.
type NFTOutputParams struct {
	Amount                   uint64
	UseMinimumStorageDeposit bool
	NativeTokens             NativeTokens
	NFTID                    NFTID
	UnlockConditions         UnlockConditions
	Features                 Features
	ImmutableFeatures        Features
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region builders /////////////////////////////////////////////////////////////////////////////////////////////////////

// BuildBasicOutput creates a validated BasicOutput. The sets are brought into canonical order before validation.
func BuildBasicOutput(params *BasicOutputParams, rentStructure *RentStructure) (*BasicOutput, error) {
	output := &BasicOutput{
		Amount:       params.Amount,
		NativeTokens: params.NativeTokens.Sorted(),
		Conditions:   params.UnlockConditions.Clone().Sorted(),
		Features:     params.Features.Clone().Sorted(),
	}
	if params.UseMinimumStorageDeposit {
		output.Amount = rentStructure.MinimumStorageDeposit(output)
	}

	if err := ValidateOutput(output, rentStructure); err != nil {
		return nil, err
	}

	return output, nil
}

// BuildAliasOutput creates a validated AliasOutput. A zero AliasID creates a new alias.
func BuildAliasOutput(params *AliasOutputParams, rentStructure *RentStructure) (*AliasOutput, error) {
	output := &AliasOutput{
		Amount:            params.Amount,
		NativeTokens:      params.NativeTokens.Sorted(),
		AliasID:           params.AliasID,
		StateIndex:        params.StateIndex,
		StateMetadata:     append([]byte(nil), params.StateMetadata...),
		FoundryCounter:    params.FoundryCounter,
		Conditions:        params.UnlockConditions.Clone().Sorted(),
		Features:          params.Features.Clone().Sorted(),
		ImmutableFeatures: params.ImmutableFeatures.Clone().Sorted(),
	}
	if params.UseMinimumStorageDeposit {
		output.Amount = rentStructure.MinimumStorageDeposit(output)
	}

	if err := ValidateOutput(output, rentStructure); err != nil {
		return nil, err
	}

	return output, nil
}

// BuildFoundryOutput creates a validated FoundryOutput.
func BuildFoundryOutput(params *FoundryOutputParams, rentStructure *RentStructure) (*FoundryOutput, error) {
	if params.TokenScheme == nil {
		return nil, clienterrors.OutputValidationf("foundry output requires a token scheme")
	}

	output := &FoundryOutput{
		Amount:            params.Amount,
		NativeTokens:      params.NativeTokens.Sorted(),
		SerialNumber:      params.SerialNumber,
		TokenScheme:       params.TokenScheme.Clone(),
		Conditions:        params.UnlockConditions.Clone().Sorted(),
		Features:          params.Features.Clone().Sorted(),
		ImmutableFeatures: params.ImmutableFeatures.Clone().Sorted(),
	}
	if params.UseMinimumStorageDeposit {
		output.Amount = rentStructure.MinimumStorageDeposit(output)
	}

	if err := ValidateOutput(output, rentStructure); err != nil {
		return nil, err
	}

	return output, nil
}

// BuildNFTOutput creates a validated NFTOutput. A zero NFTID mints a new NFT.
func BuildNFTOutput(params *NFTOutputParams, rentStructure *RentStructure) (*NFTOutput, error) {
	output := &NFTOutput{
		Amount:            params.Amount,
		NativeTokens:      params.NativeTokens.Sorted(),
		NFTID:             params.NFTID,
		Conditions:        params.UnlockConditions.Clone().Sorted(),
		Features:          params.Features.Clone().Sorted(),
		ImmutableFeatures: params.ImmutableFeatures.Clone().Sorted(),
	}
	if params.UseMinimumStorageDeposit {
		output.Amount = rentStructure.MinimumStorageDeposit(output)
	}

	if err := ValidateOutput(output, rentStructure); err != nil {
		return nil, err
	}

	return output, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region validation ///////////////////////////////////////////////////////////////////////////////////////////////////

// ValidateOutput checks the structural rules of the Output and that it holds its minimum storage deposit. A nil
// RentStructure skips the deposit check.
func ValidateOutput(output Output, rentStructure *RentStructure) (err error) {
	if output == nil {
		return clienterrors.OutputValidationf("output is nil")
	}

	switch typedOutput := output.(type) {
	case *BasicOutput:
		err = validateBasicOutput(typedOutput)
	case *AliasOutput:
		err = validateAliasOutput(typedOutput)
	case *FoundryOutput:
		err = validateFoundryOutput(typedOutput)
	case *NFTOutput:
		err = validateNFTOutput(typedOutput)
	default:
		return clienterrors.OutputValidationf("unsupported output type %T", output)
	}
	if err != nil {
		return err
	}

	if err = output.NativeTokenList().Validate(); err != nil {
		return err
	}
	if err = validateTemporalConditions(output.UnlockConditionSet()); err != nil {
		return err
	}
	if rentStructure == nil {
		return nil
	}

	if minimum := rentStructure.MinimumStorageDeposit(output); output.Deposit() < minimum {
		return clienterrors.OutputValidationf("%s amount %d is below the minimum storage deposit of %d", output.Type(), output.Deposit(), minimum)
	}
	if storageDepositReturn := output.UnlockConditionSet().StorageDepositReturn(); storageDepositReturn != nil {
		minimumReturn := rentStructure.MinimumStorageDepositForAddress(storageDepositReturn.ReturnAddress)
		if storageDepositReturn.Amount < minimumReturn {
			return clienterrors.OutputValidationf("storage deposit return amount %d is below the minimum of %d", storageDepositReturn.Amount, minimumReturn)
		}
		if storageDepositReturn.Amount > output.Deposit() {
			return clienterrors.OutputValidationf("storage deposit return amount %d exceeds the output amount %d", storageDepositReturn.Amount, output.Deposit())
		}
	}

	return nil
}

func validateBasicOutput(output *BasicOutput) error {
	if output.Amount == 0 {
		return clienterrors.OutputValidationf("basic output amount must not be zero")
	}
	if err := output.Conditions.Validate(AddressUnlockConditionType, StorageDepositReturnUnlockConditionType, TimelockUnlockConditionType, ExpirationUnlockConditionType); err != nil {
		return err
	}
	if !output.Conditions.Has(AddressUnlockConditionType) {
		return clienterrors.OutputValidationf("basic output requires an address unlock condition")
	}

	return output.Features.Validate(SenderFeatureType, MetadataFeatureType, TagFeatureType)
}

func validateAliasOutput(output *AliasOutput) error {
	if output.Amount == 0 {
		return clienterrors.OutputValidationf("alias output amount must not be zero")
	}
	if err := output.Conditions.Validate(StateControllerAddressUnlockConditionType, GovernorAddressUnlockConditionType); err != nil {
		return err
	}
	if !output.Conditions.Has(StateControllerAddressUnlockConditionType) || !output.Conditions.Has(GovernorAddressUnlockConditionType) {
		return clienterrors.OutputValidationf("alias output requires state controller and governor unlock conditions")
	}
	if len(output.StateMetadata) > MaxMetadataLength {
		return clienterrors.OutputValidationf("state metadata exceeds %d bytes", MaxMetadataLength)
	}
	if output.AliasID.Empty() && (output.StateIndex != 0 || output.FoundryCounter != 0) {
		return clienterrors.OutputValidationf("new alias output must start with state index and foundry counter 0")
	}
	if !output.AliasID.Empty() {
		self := NewAliasAddress(output.AliasID)
		if self.Equals(output.Conditions.StateController().Address) || self.Equals(output.Conditions.Governor().Address) {
			return clienterrors.OutputValidationf("alias %s must not control itself", output.AliasID.Hex())
		}
	}
	if err := output.Features.Validate(SenderFeatureType, MetadataFeatureType); err != nil {
		return err
	}

	return output.ImmutableFeatures.Validate(IssuerFeatureType, MetadataFeatureType)
}

func validateFoundryOutput(output *FoundryOutput) error {
	if output.Amount == 0 {
		return clienterrors.OutputValidationf("foundry output amount must not be zero")
	}
	if err := output.Conditions.Validate(ImmutableAliasAddressUnlockConditionType); err != nil {
		return err
	}
	if !output.Conditions.Has(ImmutableAliasAddressUnlockConditionType) {
		return clienterrors.OutputValidationf("foundry output requires an immutable alias address unlock condition")
	}
	if output.TokenScheme == nil {
		return clienterrors.OutputValidationf("foundry output requires a token scheme")
	}
	if err := output.TokenScheme.Validate(); err != nil {
		return err
	}

	// a foundry may only hold its own tokens if the circulating supply covers them
	for _, nativeToken := range output.NativeTokens {
		if nativeToken.ID == output.TokenID() && nativeToken.Amount.Cmp(output.TokenScheme.CirculatingSupply()) > 0 {
			return clienterrors.OutputValidationf("foundry holds more of its tokens than are circulating")
		}
	}
	if err := output.Features.Validate(MetadataFeatureType); err != nil {
		return err
	}

	return output.ImmutableFeatures.Validate(MetadataFeatureType)
}

func validateNFTOutput(output *NFTOutput) error {
	if output.Amount == 0 {
		return clienterrors.OutputValidationf("nft output amount must not be zero")
	}
	if err := output.Conditions.Validate(AddressUnlockConditionType, StorageDepositReturnUnlockConditionType, TimelockUnlockConditionType, ExpirationUnlockConditionType); err != nil {
		return err
	}
	if !output.Conditions.Has(AddressUnlockConditionType) {
		return clienterrors.OutputValidationf("nft output requires an address unlock condition")
	}
	if !output.NFTID.Empty() {
		self := NewNFTAddress(output.NFTID)
		if self.Equals(output.Conditions.Address().Address) {
			return clienterrors.OutputValidationf("nft %s must not own itself", output.NFTID.Hex())
		}
	}
	if err := output.Features.Validate(SenderFeatureType, IssuerFeatureType, MetadataFeatureType, TagFeatureType); err != nil {
		return err
	}

	return output.ImmutableFeatures.Validate(IssuerFeatureType, MetadataFeatureType)
}

func validateTemporalConditions(conditions UnlockConditions) error {
	if timelock := conditions.Timelock(); timelock != nil && timelock.UnixTime == 0 {
		return clienterrors.OutputValidationf("timelock must not be zero")
	}
	if expiration := conditions.Expiration(); expiration != nil && expiration.UnixTime == 0 {
		return clienterrors.OutputValidationf("expiration must not be zero")
	}

	return nil
}

// OutputsEqual returns true if both Outputs serialize to the same bytes.
func OutputsEqual(a, b Output) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

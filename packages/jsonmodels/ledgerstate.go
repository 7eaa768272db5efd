package jsonmodels

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// region Address //////////////////////////////////////////////////////////////////////////////////////////////////////

// Address represents the JSON model of a ledgerstate.Address.
type Address struct {
	Type       ledgerstate.AddressType `json:"type"`
	PubKeyHash string                  `json:"pubKeyHash,omitempty"`
	AliasID    string                  `json:"aliasId,omitempty"`
	NFTID      string                  `json:"nftId,omitempty"`
}

// NewAddress returns an Address from the given ledgerstate.Address.
func NewAddress(address ledgerstate.Address) *Address {
	if address == nil {
		return nil
	}

	result := &Address{Type: address.Type()}
	digest := EncodeHex(address.Digest())
	switch address.Type() {
	case ledgerstate.Ed25519AddressType:
		result.PubKeyHash = digest
	case ledgerstate.AliasAddressType:
		result.AliasID = digest
	case ledgerstate.NFTAddressType:
		result.NFTID = digest
	}

	return result
}

// ToAddress converts the JSON model into a ledgerstate.Address.
func (a *Address) ToAddress() (ledgerstate.Address, error) {
	if a == nil {
		return nil, clienterrors.Validationf("missing address")
	}

	var digestHex string
	switch a.Type {
	case ledgerstate.Ed25519AddressType:
		digestHex = a.PubKeyHash
	case ledgerstate.AliasAddressType:
		digestHex = a.AliasID
	case ledgerstate.NFTAddressType:
		digestHex = a.NFTID
	default:
		return nil, clienterrors.Validationf("unsupported address type %d", a.Type)
	}

	digest, err := DecodeHex(digestHex)
	if err != nil {
		return nil, err
	}
	address, consumedBytes, err := ledgerstate.AddressFromBytes(append([]byte{byte(a.Type)}, digest...))
	if err != nil || consumedBytes != ledgerstate.AddressLength {
		return nil, clienterrors.Validationf("invalid %s digest %q", a.Type, digestHex)
	}

	return address, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NativeToken //////////////////////////////////////////////////////////////////////////////////////////////////

// NativeToken represents the JSON model of a ledgerstate.NativeToken. The amount is hex encoded.
type NativeToken struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

// NewNativeTokens returns the JSON models of the given ledgerstate.NativeTokens.
func NewNativeTokens(nativeTokens ledgerstate.NativeTokens) []*NativeToken {
	if len(nativeTokens) == 0 {
		return nil
	}

	result := make([]*NativeToken, len(nativeTokens))
	for i, nativeToken := range nativeTokens {
		result[i] = &NativeToken{
			ID:     nativeToken.ID.Hex(),
			Amount: EncodeUint256(nativeToken.Amount),
		}
	}

	return result
}

// ToNativeTokens converts the JSON models into sorted ledgerstate.NativeTokens.
func ToNativeTokens(nativeTokens []*NativeToken) (ledgerstate.NativeTokens, error) {
	if len(nativeTokens) == 0 {
		return nil, nil
	}

	result := make(ledgerstate.NativeTokens, len(nativeTokens))
	for i, nativeToken := range nativeTokens {
		tokenID, err := ledgerstate.FoundryIDFromHex(nativeToken.ID)
		if err != nil {
			return nil, err
		}
		amount, err := ledgerstate.ParseUint256(nativeToken.Amount)
		if err != nil {
			return nil, err
		}
		result[i] = ledgerstate.NewNativeToken(tokenID, amount)
	}

	return result.Sorted(), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region TokenScheme //////////////////////////////////////////////////////////////////////////////////////////////////

// TokenScheme represents the JSON model of a ledgerstate.SimpleTokenScheme.
type TokenScheme struct {
	Type          ledgerstate.TokenSchemeType `json:"type"`
	MintedTokens  string                      `json:"mintedTokens"`
	MeltedTokens  string                      `json:"meltedTokens"`
	MaximumSupply string                      `json:"maximumSupply"`
}

// NewTokenScheme returns a TokenScheme from the given ledgerstate.SimpleTokenScheme.
func NewTokenScheme(tokenScheme *ledgerstate.SimpleTokenScheme) *TokenScheme {
	if tokenScheme == nil {
		return nil
	}

	return &TokenScheme{
		Type:          tokenScheme.Type(),
		MintedTokens:  EncodeUint256(tokenScheme.MintedTokens),
		MeltedTokens:  EncodeUint256(tokenScheme.MeltedTokens),
		MaximumSupply: EncodeUint256(tokenScheme.MaximumSupply),
	}
}

// ToTokenScheme converts the JSON model into a ledgerstate.SimpleTokenScheme.
func (t *TokenScheme) ToTokenScheme() (*ledgerstate.SimpleTokenScheme, error) {
	if t == nil {
		return nil, clienterrors.Validationf("missing token scheme")
	}
	if t.Type != ledgerstate.SimpleTokenSchemeType {
		return nil, clienterrors.Validationf("unsupported token scheme type %d", t.Type)
	}

	minted, err := ledgerstate.ParseUint256(t.MintedTokens)
	if err != nil {
		return nil, err
	}
	melted, err := ledgerstate.ParseUint256(t.MeltedTokens)
	if err != nil {
		return nil, err
	}
	maximumSupply, err := ledgerstate.ParseUint256(t.MaximumSupply)
	if err != nil {
		return nil, err
	}

	return ledgerstate.NewSimpleTokenScheme(minted, melted, maximumSupply), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region UnlockCondition //////////////////////////////////////////////////////////////////////////////////////////////

// UnlockCondition represents the JSON model of every ledgerstate.UnlockCondition. Only the fields of the given Type
// are set.
type UnlockCondition struct {
	Type          ledgerstate.UnlockConditionType `json:"type"`
	Address       *Address                        `json:"address,omitempty"`
	ReturnAddress *Address                        `json:"returnAddress,omitempty"`
	Amount        string                          `json:"amount,omitempty"`
	UnixTime      uint32                          `json:"unixTime,omitempty"`
}

// NewUnlockCondition returns an UnlockCondition from the given ledgerstate.UnlockCondition.
func NewUnlockCondition(unlockCondition ledgerstate.UnlockCondition) *UnlockCondition {
	result := &UnlockCondition{Type: unlockCondition.Type()}
	switch condition := unlockCondition.(type) {
	case *ledgerstate.AddressUnlockCondition:
		result.Address = NewAddress(condition.Address)
	case *ledgerstate.StorageDepositReturnUnlockCondition:
		result.ReturnAddress = NewAddress(condition.ReturnAddress)
		result.Amount = strconv.FormatUint(condition.Amount, 10)
	case *ledgerstate.TimelockUnlockCondition:
		result.UnixTime = condition.UnixTime
	case *ledgerstate.ExpirationUnlockCondition:
		result.ReturnAddress = NewAddress(condition.ReturnAddress)
		result.UnixTime = condition.UnixTime
	case *ledgerstate.StateControllerAddressUnlockCondition:
		result.Address = NewAddress(condition.Address)
	case *ledgerstate.GovernorAddressUnlockCondition:
		result.Address = NewAddress(condition.Address)
	case *ledgerstate.ImmutableAliasAddressUnlockCondition:
		result.Address = NewAddress(condition.Address)
	}

	return result
}

// ToUnlockCondition converts the JSON model into a ledgerstate.UnlockCondition.
func (u *UnlockCondition) ToUnlockCondition() (ledgerstate.UnlockCondition, error) {
	switch u.Type {
	case ledgerstate.AddressUnlockConditionType:
		address, err := u.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		return &ledgerstate.AddressUnlockCondition{Address: address}, nil
	case ledgerstate.StorageDepositReturnUnlockConditionType:
		returnAddress, err := u.ReturnAddress.ToAddress()
		if err != nil {
			return nil, err
		}
		amount, err := ParseAmount(u.Amount)
		if err != nil {
			return nil, err
		}
		return &ledgerstate.StorageDepositReturnUnlockCondition{ReturnAddress: returnAddress, Amount: amount}, nil
	case ledgerstate.TimelockUnlockConditionType:
		return &ledgerstate.TimelockUnlockCondition{UnixTime: u.UnixTime}, nil
	case ledgerstate.ExpirationUnlockConditionType:
		returnAddress, err := u.ReturnAddress.ToAddress()
		if err != nil {
			return nil, err
		}
		return &ledgerstate.ExpirationUnlockCondition{ReturnAddress: returnAddress, UnixTime: u.UnixTime}, nil
	case ledgerstate.StateControllerAddressUnlockConditionType:
		address, err := u.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		return &ledgerstate.StateControllerAddressUnlockCondition{Address: address}, nil
	case ledgerstate.GovernorAddressUnlockConditionType:
		address, err := u.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		return &ledgerstate.GovernorAddressUnlockCondition{Address: address}, nil
	case ledgerstate.ImmutableAliasAddressUnlockConditionType:
		address, err := u.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		aliasAddress, isAlias := address.(*ledgerstate.AliasAddress)
		if !isAlias {
			return nil, clienterrors.Validationf("immutable alias address unlock condition needs an alias address, got %s", address.Type())
		}
		return &ledgerstate.ImmutableAliasAddressUnlockCondition{Address: aliasAddress}, nil
	default:
		return nil, clienterrors.Validationf("unsupported unlock condition type %d", u.Type)
	}
}

// NewUnlockConditions returns the JSON models of the given ledgerstate.UnlockConditions.
func NewUnlockConditions(unlockConditions ledgerstate.UnlockConditions) []*UnlockCondition {
	result := make([]*UnlockCondition, len(unlockConditions))
	for i, unlockCondition := range unlockConditions {
		result[i] = NewUnlockCondition(unlockCondition)
	}

	return result
}

// ToUnlockConditions converts the JSON models into ledgerstate.UnlockConditions sorted by type.
func ToUnlockConditions(unlockConditions []*UnlockCondition) (ledgerstate.UnlockConditions, error) {
	result := make(ledgerstate.UnlockConditions, len(unlockConditions))
	for i, unlockCondition := range unlockConditions {
		converted, err := unlockCondition.ToUnlockCondition()
		if err != nil {
			return nil, errors.Errorf("failed to convert unlock condition %d: %w", i, err)
		}
		result[i] = converted
	}

	return result.Sorted(), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Feature //////////////////////////////////////////////////////////////////////////////////////////////////////

// Feature represents the JSON model of every ledgerstate.Feature. Data and Tag are hex encoded.
type Feature struct {
	Type    ledgerstate.FeatureType `json:"type"`
	Address *Address                `json:"address,omitempty"`
	Data    string                  `json:"data,omitempty"`
	Tag     string                  `json:"tag,omitempty"`
}

// NewFeature returns a Feature from the given ledgerstate.Feature.
func NewFeature(feature ledgerstate.Feature) *Feature {
	result := &Feature{Type: feature.Type()}
	switch f := feature.(type) {
	case *ledgerstate.SenderFeature:
		result.Address = NewAddress(f.Address)
	case *ledgerstate.IssuerFeature:
		result.Address = NewAddress(f.Address)
	case *ledgerstate.MetadataFeature:
		result.Data = EncodeHex(f.Data)
	case *ledgerstate.TagFeature:
		result.Tag = EncodeHex(f.Tag)
	}

	return result
}

// ToFeature converts the JSON model into a ledgerstate.Feature.
func (f *Feature) ToFeature() (ledgerstate.Feature, error) {
	switch f.Type {
	case ledgerstate.SenderFeatureType:
		address, err := f.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		return &ledgerstate.SenderFeature{Address: address}, nil
	case ledgerstate.IssuerFeatureType:
		address, err := f.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		return &ledgerstate.IssuerFeature{Address: address}, nil
	case ledgerstate.MetadataFeatureType:
		data, err := DecodeHex(f.Data)
		if err != nil {
			return nil, err
		}
		return &ledgerstate.MetadataFeature{Data: data}, nil
	case ledgerstate.TagFeatureType:
		tag, err := DecodeHex(f.Tag)
		if err != nil {
			return nil, err
		}
		return &ledgerstate.TagFeature{Tag: tag}, nil
	default:
		return nil, clienterrors.Validationf("unsupported feature type %d", f.Type)
	}
}

// NewFeatures returns the JSON models of the given ledgerstate.Features.
func NewFeatures(features ledgerstate.Features) []*Feature {
	if len(features) == 0 {
		return nil
	}

	result := make([]*Feature, len(features))
	for i, feature := range features {
		result[i] = NewFeature(feature)
	}

	return result
}

// ToFeatures converts the JSON models into ledgerstate.Features sorted by type.
func ToFeatures(features []*Feature) (ledgerstate.Features, error) {
	if len(features) == 0 {
		return nil, nil
	}

	result := make(ledgerstate.Features, len(features))
	for i, feature := range features {
		converted, err := feature.ToFeature()
		if err != nil {
			return nil, errors.Errorf("failed to convert feature %d: %w", i, err)
		}
		result[i] = converted
	}

	return result.Sorted(), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Output ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Output represents the JSON model of every ledgerstate.Output. The amount is a decimal string.
type Output struct {
	Type              ledgerstate.OutputType `json:"type"`
	Amount            string                 `json:"amount"`
	NativeTokens      []*NativeToken         `json:"nativeTokens,omitempty"`
	AliasID           string                 `json:"aliasId,omitempty"`
	StateIndex        uint32                 `json:"stateIndex,omitempty"`
	StateMetadata     string                 `json:"stateMetadata,omitempty"`
	FoundryCounter    uint32                 `json:"foundryCounter,omitempty"`
	SerialNumber      uint32                 `json:"serialNumber,omitempty"`
	TokenScheme       *TokenScheme           `json:"tokenScheme,omitempty"`
	NFTID             string                 `json:"nftId,omitempty"`
	UnlockConditions  []*UnlockCondition     `json:"unlockConditions"`
	Features          []*Feature             `json:"features,omitempty"`
	ImmutableFeatures []*Feature             `json:"immutableFeatures,omitempty"`
}

// NewOutput returns an Output from the given ledgerstate.Output.
func NewOutput(output ledgerstate.Output) *Output {
	result := &Output{
		Type:             output.Type(),
		Amount:           strconv.FormatUint(output.Deposit(), 10),
		NativeTokens:     NewNativeTokens(output.NativeTokenList()),
		UnlockConditions: NewUnlockConditions(output.UnlockConditionSet()),
		Features:         NewFeatures(output.FeatureSet()),
	}

	switch o := output.(type) {
	case *ledgerstate.BasicOutput:
	case *ledgerstate.AliasOutput:
		result.AliasID = o.AliasID.Hex()
		result.StateIndex = o.StateIndex
		if len(o.StateMetadata) != 0 {
			result.StateMetadata = EncodeHex(o.StateMetadata)
		}
		result.FoundryCounter = o.FoundryCounter
		result.ImmutableFeatures = NewFeatures(o.ImmutableFeatures)
	case *ledgerstate.FoundryOutput:
		result.SerialNumber = o.SerialNumber
		result.TokenScheme = NewTokenScheme(o.TokenScheme)
		result.ImmutableFeatures = NewFeatures(o.ImmutableFeatures)
	case *ledgerstate.NFTOutput:
		result.NFTID = o.NFTID.Hex()
		result.ImmutableFeatures = NewFeatures(o.ImmutableFeatures)
	}

	return result
}

// ToOutput converts the JSON model into a ledgerstate.Output. It does not validate the result.
func (o *Output) ToOutput() (output ledgerstate.Output, err error) {
	amount, err := ParseAmount(o.Amount)
	if err != nil {
		return nil, err
	}
	nativeTokens, err := ToNativeTokens(o.NativeTokens)
	if err != nil {
		return nil, err
	}
	unlockConditions, err := ToUnlockConditions(o.UnlockConditions)
	if err != nil {
		return nil, err
	}
	features, err := ToFeatures(o.Features)
	if err != nil {
		return nil, err
	}
	immutableFeatures, err := ToFeatures(o.ImmutableFeatures)
	if err != nil {
		return nil, err
	}

	switch o.Type {
	case ledgerstate.BasicOutputType:
		return &ledgerstate.BasicOutput{
			Amount:       amount,
			NativeTokens: nativeTokens,
			Conditions:   unlockConditions,
			Features:     features,
		}, nil
	case ledgerstate.AliasOutputType:
		aliasID := ledgerstate.EmptyAliasID
		if o.AliasID != "" {
			if aliasID, err = ledgerstate.AliasIDFromHex(o.AliasID); err != nil {
				return nil, err
			}
		}
		stateMetadata, err := DecodeHex(o.StateMetadata)
		if err != nil {
			return nil, err
		}
		return &ledgerstate.AliasOutput{
			Amount:            amount,
			NativeTokens:      nativeTokens,
			AliasID:           aliasID,
			StateIndex:        o.StateIndex,
			StateMetadata:     stateMetadata,
			FoundryCounter:    o.FoundryCounter,
			Conditions:        unlockConditions,
			Features:          features,
			ImmutableFeatures: immutableFeatures,
		}, nil
	case ledgerstate.FoundryOutputType:
		tokenScheme, err := o.TokenScheme.ToTokenScheme()
		if err != nil {
			return nil, err
		}
		return &ledgerstate.FoundryOutput{
			Amount:            amount,
			NativeTokens:      nativeTokens,
			SerialNumber:      o.SerialNumber,
			TokenScheme:       tokenScheme,
			Conditions:        unlockConditions,
			Features:          features,
			ImmutableFeatures: immutableFeatures,
		}, nil
	case ledgerstate.NFTOutputType:
		nftID := ledgerstate.EmptyNFTID
		if o.NFTID != "" {
			if nftID, err = ledgerstate.NFTIDFromHex(o.NFTID); err != nil {
				return nil, err
			}
		}
		return &ledgerstate.NFTOutput{
			Amount:            amount,
			NativeTokens:      nativeTokens,
			NFTID:             nftID,
			Conditions:        unlockConditions,
			Features:          features,
			ImmutableFeatures: immutableFeatures,
		}, nil
	default:
		return nil, clienterrors.Validationf("unsupported output type %d", o.Type)
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region OutputMetadata ///////////////////////////////////////////////////////////////////////////////////////////////

// OutputMetadata represents the JSON model of the metadata the node keeps next to an output.
type OutputMetadata struct {
	BlockID                  string `json:"blockId"`
	TransactionID            string `json:"transactionId"`
	OutputIndex              uint16 `json:"outputIndex"`
	IsSpent                  bool   `json:"isSpent"`
	MilestoneIndexSpent      uint32 `json:"milestoneIndexSpent,omitempty"`
	MilestoneTimestampSpent  uint32 `json:"milestoneTimestampSpent,omitempty"`
	TransactionIDSpent       string `json:"transactionIdSpent,omitempty"`
	MilestoneIndexBooked     uint32 `json:"milestoneIndexBooked"`
	MilestoneTimestampBooked uint32 `json:"milestoneTimestampBooked"`
	LedgerIndex              uint32 `json:"ledgerIndex"`
}

// OutputID returns the ledgerstate.OutputID the metadata belongs to.
func (o *OutputMetadata) OutputID() (ledgerstate.OutputID, error) {
	transactionID, err := ledgerstate.TransactionIDFromHex(o.TransactionID)
	if err != nil {
		return ledgerstate.EmptyOutputID, err
	}

	return ledgerstate.NewOutputID(transactionID, o.OutputIndex), nil
}

// OutputResponse is returned by the node for a single output.
type OutputResponse struct {
	Metadata *OutputMetadata `json:"metadata"`
	Output   *Output         `json:"output"`
}

// ToUTXO converts the response into a ledgerstate.UTXO.
func (o *OutputResponse) ToUTXO() (*ledgerstate.UTXO, error) {
	if o.Metadata == nil || o.Output == nil {
		return nil, clienterrors.Validationf("incomplete output response")
	}

	outputID, err := o.Metadata.OutputID()
	if err != nil {
		return nil, err
	}
	output, err := o.Output.ToOutput()
	if err != nil {
		return nil, errors.Errorf("failed to convert output %s: %w", outputID.Hex(), err)
	}

	return &ledgerstate.UTXO{ID: outputID, Output: output}, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region utils ////////////////////////////////////////////////////////////////////////////////////////////////////////

// EncodeHex returns the 0x-prefixed hex encoding of the data.
func EncodeHex(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// DecodeHex decodes a 0x-prefixed (or plain) hex string. An empty string decodes to nil.
func DecodeHex(hexString string) ([]byte, error) {
	if hexString == "" {
		return nil, nil
	}

	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(hexString, "0x"), "0X"))
	if err != nil {
		return nil, clienterrors.Validationf("invalid hex string %q: %v", hexString, err)
	}

	return data, nil
}

// EncodeUint256 returns the 0x-prefixed hex encoding of the value.
func EncodeUint256(value *big.Int) string {
	if value == nil {
		return "0x0"
	}

	return "0x" + value.Text(16)
}

// ParseAmount parses a decimal base token amount.
func ParseAmount(amount string) (uint64, error) {
	value, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return 0, clienterrors.Validationf("invalid amount %q", amount)
	}

	return value, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package ledgerstate

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region AliasID //////////////////////////////////////////////////////////////////////////////////////////////////////

// AliasIDLength contains the length of an AliasID.
const AliasIDLength = 32

// AliasID is the identifier of an alias chain. A freshly created AliasOutput carries the zero AliasID; its real
// identifier is derived from the OutputID that created it.
type AliasID [AliasIDLength]byte

// EmptyAliasID is the AliasID of an alias that is being created.
var EmptyAliasID AliasID

// ComputeAliasID returns the identifier of the alias created by the output with the given OutputID.
func ComputeAliasID(outputID OutputID) AliasID {
	return blake2b.Sum256(outputID[:])
}

// AliasIDFromHex parses a hex encoded AliasID.
func AliasIDFromHex(hexString string) (aliasID AliasID, err error) {
	data, err := decodeHex(hexString)
	if err != nil {
		return aliasID, clienterrors.Validationf("invalid alias id %q: %v", hexString, err)
	}
	if len(data) != AliasIDLength {
		return aliasID, clienterrors.Validationf("invalid alias id length %d, expected %d", len(data), AliasIDLength)
	}
	copy(aliasID[:], data)

	return aliasID, nil
}

// Empty returns true if the AliasID is the zero value.
func (a AliasID) Empty() bool {
	return a == EmptyAliasID
}

// Hex returns the 0x-prefixed hex encoding of the AliasID.
func (a AliasID) Hex() string {
	return encodeHex(a[:])
}

// Base58 returns a base58 encoded version of the AliasID.
func (a AliasID) Base58() string {
	return base58.Encode(a[:])
}

// String returns a human-readable version of the AliasID.
func (a AliasID) String() string {
	return "AliasID(" + a.Hex() + ")"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region AliasOutput //////////////////////////////////////////////////////////////////////////////////////////////////

// AliasOutput carries the state of an alias chain. The state controller advances StateIndex, the governor changes the
// controllers.
type AliasOutput struct {
	Amount            uint64
	NativeTokens      NativeTokens
	AliasID           AliasID
	StateIndex        uint32
	StateMetadata     []byte
	FoundryCounter    uint32
	Conditions        UnlockConditions
	Features          Features
	ImmutableFeatures Features
}

func aliasOutputFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (output *AliasOutput, err error) {
	output = &AliasOutput{}
	if output.Amount, output.NativeTokens, err = readAmountAndNativeTokens(marshalUtil); err != nil {
		return nil, err
	}

	aliasIDBytes, err := marshalUtil.ReadBytes(AliasIDLength)
	if err != nil {
		return nil, errors.Errorf("failed to parse AliasID (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	copy(output.AliasID[:], aliasIDBytes)

	if output.StateIndex, err = marshalUtil.ReadUint32(); err != nil {
		return nil, errors.Errorf("failed to parse state index (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	metadataLength, err := marshalUtil.ReadUint16()
	if err != nil {
		return nil, errors.Errorf("failed to parse state metadata length (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if output.StateMetadata, err = marshalUtil.ReadBytes(int(metadataLength)); err != nil {
		return nil, errors.Errorf("failed to parse state metadata (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if output.FoundryCounter, err = marshalUtil.ReadUint32(); err != nil {
		return nil, errors.Errorf("failed to parse foundry counter (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if output.Conditions, err = UnlockConditionsFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}
	if output.Features, err = FeaturesFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}
	if output.ImmutableFeatures, err = FeaturesFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}

	return output, nil
}

// ResolvedAliasID returns the AliasID of the chain, deriving it from the OutputID for freshly created aliases.
func (a *AliasOutput) ResolvedAliasID(outputID OutputID) AliasID {
	if a.AliasID.Empty() {
		return ComputeAliasID(outputID)
	}

	return a.AliasID
}

// Type returns the OutputType.
func (a *AliasOutput) Type() OutputType {
	return AliasOutputType
}

// Deposit returns the amount of base tokens held by the Output.
func (a *AliasOutput) Deposit() uint64 {
	return a.Amount
}

// NativeTokenList returns the native tokens held by the Output.
func (a *AliasOutput) NativeTokenList() NativeTokens {
	return a.NativeTokens
}

// UnlockConditionSet returns the UnlockConditions of the Output.
func (a *AliasOutput) UnlockConditionSet() UnlockConditions {
	return a.Conditions
}

// FeatureSet returns the mutable Features of the Output.
func (a *AliasOutput) FeatureSet() Features {
	return a.Features
}

// Clone creates a copy of the Output.
func (a *AliasOutput) Clone() Output {
	return &AliasOutput{
		Amount:            a.Amount,
		NativeTokens:      a.NativeTokens.Clone(),
		AliasID:           a.AliasID,
		StateIndex:        a.StateIndex,
		StateMetadata:     append([]byte(nil), a.StateMetadata...),
		FoundryCounter:    a.FoundryCounter,
		Conditions:        a.Conditions.Clone(),
		Features:          a.Features.Clone(),
		ImmutableFeatures: a.ImmutableFeatures.Clone(),
	}
}

// Bytes returns a marshaled version of the Output.
func (a *AliasOutput) Bytes() []byte {
	return outputBytes(a)
}

func (a *AliasOutput) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(AliasOutputType))
	marshalUtil.WriteUint64(a.Amount)
	a.NativeTokens.writeTo(marshalUtil)
	marshalUtil.WriteBytes(a.AliasID[:])
	marshalUtil.WriteUint32(a.StateIndex)
	marshalUtil.WriteUint16(uint16(len(a.StateMetadata)))
	marshalUtil.WriteBytes(a.StateMetadata)
	marshalUtil.WriteUint32(a.FoundryCounter)
	a.Conditions.writeTo(marshalUtil)
	a.Features.writeTo(marshalUtil)
	a.ImmutableFeatures.writeTo(marshalUtil)
}

// String returns a human readable version of the Output.
func (a *AliasOutput) String() string {
	return stringify.Struct("AliasOutput",
		stringify.StructField("Amount", a.Amount),
		stringify.StructField("AliasID", a.AliasID.Hex()),
		stringify.StructField("StateIndex", a.StateIndex),
		stringify.StructField("FoundryCounter", a.FoundryCounter),
		stringify.StructField("NativeTokens", len(a.NativeTokens)),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Output = &AliasOutput{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package ledgerstate

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
)

// FoundryOutput controls the supply of the native token that shares its FoundryID.
type FoundryOutput struct {
	Amount            uint64
	NativeTokens      NativeTokens
	SerialNumber      uint32
	TokenScheme       *SimpleTokenScheme
	Conditions        UnlockConditions
	Features          Features
	ImmutableFeatures Features
}

func foundryOutputFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (output *FoundryOutput, err error) {
	output = &FoundryOutput{}
	if output.Amount, output.NativeTokens, err = readAmountAndNativeTokens(marshalUtil); err != nil {
		return nil, err
	}
	if output.SerialNumber, err = marshalUtil.ReadUint32(); err != nil {
		return nil, errors.Errorf("failed to parse serial number (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if output.TokenScheme, err = TokenSchemeFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
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

// FoundryID returns the identifier of the foundry. It panics if the ImmutableAliasAddressUnlockCondition is missing,
// which builders and the parser never allow to happen for validated outputs.
func (f *FoundryOutput) FoundryID() FoundryID {
	condition := f.Conditions.ImmutableAlias()
	if condition == nil {
		panic("foundry output without immutable alias address unlock condition")
	}

	return ComputeFoundryID(condition.Address, f.SerialNumber, f.TokenScheme.Type())
}

// TokenID returns the identifier of the native token controlled by the foundry.
func (f *FoundryOutput) TokenID() TokenID {
	return f.FoundryID()
}

// Type returns the OutputType.
func (f *FoundryOutput) Type() OutputType {
	return FoundryOutputType
}

// Deposit returns the amount of base tokens held by the Output.
func (f *FoundryOutput) Deposit() uint64 {
	return f.Amount
}

// NativeTokenList returns the native tokens held by the Output.
func (f *FoundryOutput) NativeTokenList() NativeTokens {
	return f.NativeTokens
}

// UnlockConditionSet returns the UnlockConditions of the Output.
func (f *FoundryOutput) UnlockConditionSet() UnlockConditions {
	return f.Conditions
}

// FeatureSet returns the mutable Features of the Output.
func (f *FoundryOutput) FeatureSet() Features {
	return f.Features
}

// Clone creates a copy of the Output.
func (f *FoundryOutput) Clone() Output {
	cloned := &FoundryOutput{
		Amount:            f.Amount,
		NativeTokens:      f.NativeTokens.Clone(),
		SerialNumber:      f.SerialNumber,
		Conditions:        f.Conditions.Clone(),
		Features:          f.Features.Clone(),
		ImmutableFeatures: f.ImmutableFeatures.Clone(),
	}
	if f.TokenScheme != nil {
		cloned.TokenScheme = f.TokenScheme.Clone()
	}

	return cloned
}

// Bytes returns a marshaled version of the Output.
func (f *FoundryOutput) Bytes() []byte {
	return outputBytes(f)
}

func (f *FoundryOutput) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(FoundryOutputType))
	marshalUtil.WriteUint64(f.Amount)
	f.NativeTokens.writeTo(marshalUtil)
	marshalUtil.WriteUint32(f.SerialNumber)
	f.TokenScheme.writeTo(marshalUtil)
	f.Conditions.writeTo(marshalUtil)
	f.Features.writeTo(marshalUtil)
	f.ImmutableFeatures.writeTo(marshalUtil)
}

// String returns a human readable version of the Output.
func (f *FoundryOutput) String() string {
	return stringify.Struct("FoundryOutput",
		stringify.StructField("Amount", f.Amount),
		stringify.StructField("SerialNumber", f.SerialNumber),
		stringify.StructField("TokenScheme", f.TokenScheme),
		stringify.StructField("NativeTokens", len(f.NativeTokens)),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Output = &FoundryOutput{}

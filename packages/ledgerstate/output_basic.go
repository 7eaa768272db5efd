package ledgerstate

import (
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
)

// BasicOutput holds base tokens and native tokens owned by an Address.
type BasicOutput struct {
	Amount       uint64
	NativeTokens NativeTokens
	Conditions   UnlockConditions
	Features     Features
}

func basicOutputFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (output *BasicOutput, err error) {
	output = &BasicOutput{}
	if output.Amount, output.NativeTokens, err = readAmountAndNativeTokens(marshalUtil); err != nil {
		return nil, err
	}
	if output.Conditions, err = UnlockConditionsFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}
	if output.Features, err = FeaturesFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}

	return output, nil
}

// Type returns the OutputType.
func (b *BasicOutput) Type() OutputType {
	return BasicOutputType
}

// Deposit returns the amount of base tokens held by the Output.
func (b *BasicOutput) Deposit() uint64 {
	return b.Amount
}

// NativeTokenList returns the native tokens held by the Output.
func (b *BasicOutput) NativeTokenList() NativeTokens {
	return b.NativeTokens
}

// UnlockConditionSet returns the UnlockConditions of the Output.
func (b *BasicOutput) UnlockConditionSet() UnlockConditions {
	return b.Conditions
}

// FeatureSet returns the Features of the Output.
func (b *BasicOutput) FeatureSet() Features {
	return b.Features
}

// Clone creates a copy of the Output.
func (b *BasicOutput) Clone() Output {
	return &BasicOutput{
		Amount:       b.Amount,
		NativeTokens: b.NativeTokens.Clone(),
		Conditions:   b.Conditions.Clone(),
		Features:     b.Features.Clone(),
	}
}

// Bytes returns a marshaled version of the Output.
func (b *BasicOutput) Bytes() []byte {
	return outputBytes(b)
}

// SimpleOwner returns the owning Address if the only unlock condition is an AddressUnlockCondition. Those outputs can
// be spent without any further obligation.
func (b *BasicOutput) SimpleOwner() Address {
	if len(b.Conditions) != 1 {
		return nil
	}
	if condition := b.Conditions.Address(); condition != nil {
		return condition.Address
	}

	return nil
}

func (b *BasicOutput) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(BasicOutputType))
	marshalUtil.WriteUint64(b.Amount)
	b.NativeTokens.writeTo(marshalUtil)
	b.Conditions.writeTo(marshalUtil)
	b.Features.writeTo(marshalUtil)
}

// String returns a human readable version of the Output.
func (b *BasicOutput) String() string {
	return stringify.Struct("BasicOutput",
		stringify.StructField("Amount", b.Amount),
		stringify.StructField("NativeTokens", len(b.NativeTokens)),
		stringify.StructField("Conditions", len(b.Conditions)),
		stringify.StructField("Features", len(b.Features)),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Output = &BasicOutput{}

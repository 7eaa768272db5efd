package ledgerstate

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
	"github.com/mr-tron/base58"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region Constraints for syntactical validation ///////////////////////////////////////////////////////////////////////

const (
	// MinOutputCount defines the minimum amount of Outputs in a Transaction.
	MinOutputCount = 1

	// MaxOutputCount defines the maximum amount of Outputs in a Transaction.
	MaxOutputCount = 128
)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region OutputType ///////////////////////////////////////////////////////////////////////////////////////////////////

// OutputType represents the type of an Output.
type OutputType uint8

const (
	// BasicOutputType represents an Output holding tokens that is owned by an Address.
	BasicOutputType OutputType = 3

	// AliasOutputType represents an Output that carries the state of an alias chain.
	AliasOutputType OutputType = 4

	// FoundryOutputType represents an Output that controls the supply of a native token.
	FoundryOutputType OutputType = 5

	// NFTOutputType represents an Output that carries a non-fungible token.
	NFTOutputType OutputType = 6
)

// String returns a human-readable representation of the OutputType.
func (o OutputType) String() string {
	switch o {
	case BasicOutputType:
		return "BasicOutput"
	case AliasOutputType:
		return "AliasOutput"
	case FoundryOutputType:
		return "FoundryOutput"
	case NFTOutputType:
		return "NFTOutput"
	default:
		return "UnknownOutput"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region OutputID /////////////////////////////////////////////////////////////////////////////////////////////////////

// OutputIDLength contains the amount of bytes that a marshaled version of the OutputID contains.
const OutputIDLength = TransactionIDLength + marshalutil.Uint16Size

// OutputID is the data type that represents the identifier of an Output (which consists of a TransactionID and the
// index of the Output in the Transaction that created it).
type OutputID [OutputIDLength]byte

// EmptyOutputID represents the zero-value of an OutputID.
var EmptyOutputID OutputID

// NewOutputID is the constructor for the OutputID.
func NewOutputID(transactionID TransactionID, outputIndex uint16) (outputID OutputID) {
	copy(outputID[:TransactionIDLength], transactionID[:])
	binary.LittleEndian.PutUint16(outputID[TransactionIDLength:], outputIndex)

	return
}

// OutputIDFromMarshalUtil unmarshals an OutputID using a MarshalUtil (for easier unmarshaling).
func OutputIDFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (outputID OutputID, err error) {
	outputIDBytes, err := marshalUtil.ReadBytes(OutputIDLength)
	if err != nil {
		err = errors.Errorf("failed to parse OutputID (%v): %w", err, cerrors.ErrParseBytesFailed)
		return
	}
	copy(outputID[:], outputIDBytes)

	if outputID.Index() >= MaxOutputCount {
		err = errors.Errorf("output index exceeds threshold defined by MaxOutputCount (%d): %w", MaxOutputCount, cerrors.ErrParseBytesFailed)
		return
	}

	return
}

// OutputIDFromHex parses a hex encoded OutputID.
func OutputIDFromHex(hexString string) (outputID OutputID, err error) {
	data, err := decodeHex(hexString)
	if err != nil {
		return outputID, clienterrors.Validationf("invalid output id %q: %v", hexString, err)
	}
	if len(data) != OutputIDLength {
		return outputID, clienterrors.Validationf("invalid output id length %d, expected %d", len(data), OutputIDLength)
	}
	if outputID, err = OutputIDFromMarshalUtil(marshalutil.New(data)); err != nil {
		return outputID, clienterrors.Validationf("%v", err)
	}

	return outputID, nil
}

// TransactionID returns the TransactionID part of an OutputID.
func (o OutputID) TransactionID() (transactionID TransactionID) {
	copy(transactionID[:], o[:TransactionIDLength])

	return
}

// Index returns the Output index part of an OutputID.
func (o OutputID) Index() uint16 {
	return binary.LittleEndian.Uint16(o[TransactionIDLength:])
}

// UTXOInput returns an Input that references the Output.
func (o OutputID) UTXOInput() *UTXOInput {
	return &UTXOInput{TransactionID: o.TransactionID(), OutputIndex: o.Index()}
}

// Bytes marshals the OutputID into a sequence of bytes.
func (o OutputID) Bytes() []byte {
	return o[:]
}

// Hex returns the 0x-prefixed hex encoding of the OutputID.
func (o OutputID) Hex() string {
	return encodeHex(o[:])
}

// Base58 returns a base58 encoded version of the OutputID.
func (o OutputID) Base58() string {
	return base58.Encode(o[:])
}

// String creates a human readable version of the OutputID.
func (o OutputID) String() string {
	return stringify.Struct("OutputID",
		stringify.StructField("transactionID", o.TransactionID().Hex()),
		stringify.StructField("outputIndex", o.Index()),
	)
}

// SortOutputIDs sorts the OutputIDs in place by their byte representation.
func SortOutputIDs(outputIDs []OutputID) {
	sort.Slice(outputIDs, func(i, j int) bool {
		return bytes.Compare(outputIDs[i][:], outputIDs[j][:]) < 0
	})
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Output ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Output is the sum type of BasicOutput, AliasOutput, FoundryOutput and NFTOutput. It is sealed by the unexported
// writeTo method, so every switch over the concrete types in this package is exhaustive.
type Output interface {
	// Type returns the OutputType which allows us to generically handle Outputs of different types.
	Type() OutputType

	// Deposit returns the amount of base tokens held by the Output.
	Deposit() uint64

	// NativeTokenList returns the native tokens held by the Output.
	NativeTokenList() NativeTokens

	// UnlockConditionSet returns the UnlockConditions of the Output.
	UnlockConditionSet() UnlockConditions

	// FeatureSet returns the mutable Features of the Output.
	FeatureSet() Features

	// Clone creates a copy of the Output.
	Clone() Output

	// Bytes returns a marshaled version of the Output.
	Bytes() []byte

	// String returns a human readable version of the Output for debug purposes.
	String() string

	writeTo(marshalUtil *marshalutil.MarshalUtil)
}

// OutputFromBytes unmarshals an Output from a sequence of bytes.
func OutputFromBytes(data []byte) (output Output, consumedBytes int, err error) {
	marshalUtil := marshalutil.New(data)
	if output, err = OutputFromMarshalUtil(marshalUtil); err != nil {
		err = errors.Errorf("failed to parse Output from MarshalUtil: %w", err)
		return
	}
	consumedBytes = marshalUtil.ReadOffset()

	return
}

// OutputFromMarshalUtil unmarshals an Output using a MarshalUtil (for easier unmarshaling).
func OutputFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (output Output, err error) {
	outputType, err := marshalUtil.ReadByte()
	if err != nil {
		err = errors.Errorf("failed to parse OutputType (%v): %w", err, cerrors.ErrParseBytesFailed)
		return
	}

	switch OutputType(outputType) {
	case BasicOutputType:
		return basicOutputFromMarshalUtil(marshalUtil)
	case AliasOutputType:
		return aliasOutputFromMarshalUtil(marshalUtil)
	case FoundryOutputType:
		return foundryOutputFromMarshalUtil(marshalUtil)
	case NFTOutputType:
		return nftOutputFromMarshalUtil(marshalUtil)
	default:
		err = errors.Errorf("unsupported OutputType (%X): %w", outputType, cerrors.ErrParseBytesFailed)
		return
	}
}

// OutputFromHex parses a hex encoded Output.
func OutputFromHex(hexString string) (Output, error) {
	data, err := decodeHex(hexString)
	if err != nil {
		return nil, clienterrors.Validationf("invalid output hex: %v", err)
	}
	output, consumedBytes, err := OutputFromBytes(data)
	if err != nil {
		return nil, err
	}
	if consumedBytes != len(data) {
		return nil, errors.Errorf("%d trailing bytes after output: %w", len(data)-consumedBytes, cerrors.ErrParseBytesFailed)
	}

	return output, nil
}

// readAmountAndNativeTokens reads the fields every Output starts with after its type.
func readAmountAndNativeTokens(marshalUtil *marshalutil.MarshalUtil) (amount uint64, nativeTokens NativeTokens, err error) {
	if amount, err = marshalUtil.ReadUint64(); err != nil {
		err = errors.Errorf("failed to parse amount (%v): %w", err, cerrors.ErrParseBytesFailed)
		return
	}
	if nativeTokens, err = NativeTokensFromMarshalUtil(marshalUtil); err != nil {
		err = errors.Errorf("failed to parse native tokens: %w", err)
		return
	}

	return
}

func outputBytes(output Output) []byte {
	marshalUtil := marshalutil.New()
	output.writeTo(marshalUtil)

	return marshalUtil.Bytes()
}

// OwnerAddress returns the Address that has to unlock the Output when it is consumed at the given unix time. Alias
// outputs are unlocked by their state controller when stateTransition is true and by their governor otherwise.
func OwnerAddress(output Output, unixTime uint32, stateTransition bool) Address {
	switch typedOutput := output.(type) {
	case *BasicOutput:
		return typedOutput.Conditions.OwnerAt(unixTime)
	case *NFTOutput:
		return typedOutput.Conditions.OwnerAt(unixTime)
	case *AliasOutput:
		if stateTransition {
			if condition := typedOutput.Conditions.StateController(); condition != nil {
				return condition.Address
			}
			return nil
		}
		if condition := typedOutput.Conditions.Governor(); condition != nil {
			return condition.Address
		}
		return nil
	case *FoundryOutput:
		if condition := typedOutput.Conditions.ImmutableAlias(); condition != nil {
			return condition.Address
		}
		return nil
	default:
		panic(errors.Errorf("unsupported output type %T", output))
	}
}

// ChainAddress returns the Address that the chain carried by the Output exposes, or nil for basic and foundry
// outputs. The OutputID is needed to resolve the identifier of freshly created chains.
func ChainAddress(output Output, outputID OutputID) Address {
	switch typedOutput := output.(type) {
	case *AliasOutput:
		return NewAliasAddress(typedOutput.ResolvedAliasID(outputID))
	case *NFTOutput:
		return NewNFTAddress(typedOutput.ResolvedNFTID(outputID))
	case *BasicOutput, *FoundryOutput:
		return nil
	default:
		panic(errors.Errorf("unsupported output type %T", output))
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region UTXO /////////////////////////////////////////////////////////////////////////////////////////////////////////

// UTXO bundles an unspent Output with the identifier it was created with.
type UTXO struct {
	ID     OutputID
	Output Output
}

// String returns a human readable version of the UTXO.
func (u *UTXO) String() string {
	return stringify.Struct("UTXO",
		stringify.StructField("ID", u.ID.Hex()),
		stringify.StructField("Output", u.Output),
	)
}

// UTXOs is a list of UTXO.
type UTXOs []*UTXO

// Outputs returns the Outputs of the UTXOs in order.
func (u UTXOs) Outputs() []Output {
	outputs := make([]Output, len(u))
	for i, utxo := range u {
		outputs[i] = utxo.Output
	}

	return outputs
}

// IDs returns the OutputIDs of the UTXOs in order.
func (u UTXOs) IDs() []OutputID {
	ids := make([]OutputID, len(u))
	for i, utxo := range u {
		ids[i] = utxo.ID
	}

	return ids
}

// TotalDeposit returns the sum of the base tokens held by the UTXOs.
func (u UTXOs) TotalDeposit() (total uint64) {
	for _, utxo := range u {
		total += utxo.Output.Deposit()
	}

	return total
}

// NativeTokenSum returns the sum of the native tokens held by the UTXOs.
func (u UTXOs) NativeTokenSum() NativeTokenSum {
	sum := make(NativeTokenSum)
	for _, utxo := range u {
		sum.AddAll(utxo.Output.NativeTokenList().Sum())
	}

	return sum
}

// SortByID sorts the UTXOs in place by their OutputID.
func (u UTXOs) SortByID() {
	sort.Slice(u, func(i, j int) bool {
		return bytes.Compare(u[i].ID[:], u[j].ID[:]) < 0
	})
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

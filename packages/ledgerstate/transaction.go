package ledgerstate

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region Constraints for syntactical validation ///////////////////////////////////////////////////////////////////////

const (
	// MinInputCount defines the minimum amount of Inputs in a Transaction.
	MinInputCount = 1

	// MaxInputCount defines the maximum amount of Inputs in a Transaction.
	MaxInputCount = 128
)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region TransactionID ////////////////////////////////////////////////////////////////////////////////////////////////

// TransactionIDLength contains the amount of bytes that a marshaled version of the ID contains.
const TransactionIDLength = 32

// TransactionID is the type that represents the identifier of a Transaction.
type TransactionID [TransactionIDLength]byte

// TransactionIDFromHex parses a hex encoded TransactionID.
func TransactionIDFromHex(hexString string) (transactionID TransactionID, err error) {
	data, err := decodeHex(hexString)
	if err != nil {
		return transactionID, clienterrors.Validationf("invalid transaction id %q: %v", hexString, err)
	}
	if len(data) != TransactionIDLength {
		return transactionID, clienterrors.Validationf("invalid transaction id length %d, expected %d", len(data), TransactionIDLength)
	}
	copy(transactionID[:], data)

	return transactionID, nil
}

// TransactionIDFromMarshalUtil unmarshals a TransactionID using a MarshalUtil (for easier unmarshaling).
func TransactionIDFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (transactionID TransactionID, err error) {
	transactionIDBytes, err := marshalUtil.ReadBytes(TransactionIDLength)
	if err != nil {
		err = errors.Errorf("failed to parse TransactionID (%v): %w", err, cerrors.ErrParseBytesFailed)
		return
	}
	copy(transactionID[:], transactionIDBytes)

	return
}

// Bytes returns a marshaled version of the TransactionID.
func (i TransactionID) Bytes() []byte {
	return i[:]
}

// Hex returns the 0x-prefixed hex encoding of the TransactionID.
func (i TransactionID) Hex() string {
	return encodeHex(i[:])
}

// Base58 returns a base58 encoded version of the TransactionID.
func (i TransactionID) Base58() string {
	return base58.Encode(i[:])
}

// String creates a human readable version of the TransactionID.
func (i TransactionID) String() string {
	return "TransactionID(" + i.Hex() + ")"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region UTXOInput ////////////////////////////////////////////////////////////////////////////////////////////////////

// UTXOInputType is the only input type: a reference to an unspent Output.
const UTXOInputType byte = 0

// UTXOInput references the Output that a Transaction consumes.
type UTXOInput struct {
	TransactionID TransactionID
	OutputIndex   uint16
}

// UTXOInputFromMarshalUtil unmarshals a UTXOInput using a MarshalUtil (for easier unmarshaling).
func UTXOInputFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (input *UTXOInput, err error) {
	inputType, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse InputType (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if inputType != UTXOInputType {
		return nil, errors.Errorf("unsupported input type (%X): %w", inputType, cerrors.ErrParseBytesFailed)
	}

	outputID, err := OutputIDFromMarshalUtil(marshalUtil)
	if err != nil {
		return nil, err
	}

	return outputID.UTXOInput(), nil
}

// OutputID returns the identifier of the referenced Output.
func (u *UTXOInput) OutputID() OutputID {
	return NewOutputID(u.TransactionID, u.OutputIndex)
}

func (u *UTXOInput) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(UTXOInputType)
	marshalUtil.WriteBytes(u.TransactionID[:])
	marshalUtil.WriteUint16(u.OutputIndex)
}

// String returns a human readable version of the UTXOInput.
func (u *UTXOInput) String() string {
	return stringify.Struct("UTXOInput",
		stringify.StructField("TransactionID", u.TransactionID.Hex()),
		stringify.StructField("OutputIndex", u.OutputIndex),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region TransactionEssence ///////////////////////////////////////////////////////////////////////////////////////////

// TransactionEssenceType is the type of the only known essence.
const TransactionEssenceType byte = 1

// InputsCommitmentLength contains the length of the inputs commitment.
const InputsCommitmentLength = 32

// NetworkIDFromName derives the network identifier from the network name.
func NetworkIDFromName(networkName string) uint64 {
	hash := blake2b.Sum256([]byte(networkName))
	return binary.LittleEndian.Uint64(hash[:8])
}

// InputsCommitment commits to the consumed Outputs in input order: the hash of the concatenated hashes of their
// serialized forms.
func InputsCommitment(outputs []Output) (commitment [InputsCommitmentLength]byte) {
	hasher, _ := blake2b.New256(nil)
	for _, output := range outputs {
		outputHash := blake2b.Sum256(output.Bytes())
		_, _ = hasher.Write(outputHash[:])
	}
	copy(commitment[:], hasher.Sum(nil))

	return
}

// TransactionEssence is the signed part of a Transaction.
type TransactionEssence struct {
	NetworkID        uint64
	Inputs           []*UTXOInput
	InputsCommitment [InputsCommitmentLength]byte
	Outputs          []Output
	Payload          *TaggedData
}

// TransactionEssenceFromMarshalUtil unmarshals a TransactionEssence using a MarshalUtil (for easier unmarshaling).
func TransactionEssenceFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (essence *TransactionEssence, err error) {
	essenceType, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse essence type (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if essenceType != TransactionEssenceType {
		return nil, errors.Errorf("unsupported essence type (%X): %w", essenceType, cerrors.ErrParseBytesFailed)
	}

	essence = &TransactionEssence{}
	if essence.NetworkID, err = marshalUtil.ReadUint64(); err != nil {
		return nil, errors.Errorf("failed to parse network id (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	inputCount, err := marshalUtil.ReadUint16()
	if err != nil {
		return nil, errors.Errorf("failed to parse input count (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if inputCount < MinInputCount || inputCount > MaxInputCount {
		return nil, errors.Errorf("input count %d out of bounds: %w", inputCount, cerrors.ErrParseBytesFailed)
	}
	essence.Inputs = make([]*UTXOInput, inputCount)
	for i := range essence.Inputs {
		if essence.Inputs[i], err = UTXOInputFromMarshalUtil(marshalUtil); err != nil {
			return nil, errors.Errorf("failed to parse input %d: %w", i, err)
		}
	}

	commitment, err := marshalUtil.ReadBytes(InputsCommitmentLength)
	if err != nil {
		return nil, errors.Errorf("failed to parse inputs commitment (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	copy(essence.InputsCommitment[:], commitment)

	outputCount, err := marshalUtil.ReadUint16()
	if err != nil {
		return nil, errors.Errorf("failed to parse output count (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if outputCount < MinOutputCount || outputCount > MaxOutputCount {
		return nil, errors.Errorf("output count %d out of bounds: %w", outputCount, cerrors.ErrParseBytesFailed)
	}
	essence.Outputs = make([]Output, outputCount)
	for i := range essence.Outputs {
		if essence.Outputs[i], err = OutputFromMarshalUtil(marshalUtil); err != nil {
			return nil, errors.Errorf("failed to parse output %d: %w", i, err)
		}
	}

	payload, err := ReadOptionalPayload(marshalUtil)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		taggedData, isTaggedData := payload.(*TaggedData)
		if !isTaggedData {
			return nil, errors.Errorf("essence carries a %s payload: %w", payload.Type(), cerrors.ErrParseBytesFailed)
		}
		essence.Payload = taggedData
	}

	return essence, nil
}

// Bytes returns a marshaled version of the TransactionEssence.
func (t *TransactionEssence) Bytes() []byte {
	marshalUtil := marshalutil.New()
	t.writeTo(marshalUtil)

	return marshalUtil.Bytes()
}

// Hash returns the hash that every signature of the Transaction signs.
func (t *TransactionEssence) Hash() [32]byte {
	return blake2b.Sum256(t.Bytes())
}

// SyntacticallyValid checks the limits of the essence independent of the ledger state.
func (t *TransactionEssence) SyntacticallyValid() error {
	if len(t.Outputs) < MinOutputCount {
		return clienterrors.ErrEmptyOutputs
	}
	if len(t.Outputs) > MaxOutputCount {
		return clienterrors.Validationf("%d outputs exceed the maximum of %d", len(t.Outputs), MaxOutputCount)
	}
	if len(t.Inputs) < MinInputCount || len(t.Inputs) > MaxInputCount {
		return clienterrors.Validationf("input count %d must be between %d and %d", len(t.Inputs), MinInputCount, MaxInputCount)
	}

	seen := make(map[OutputID]bool, len(t.Inputs))
	for _, input := range t.Inputs {
		if seen[input.OutputID()] {
			return clienterrors.Validationf("input %s is consumed twice", input.OutputID().Hex())
		}
		seen[input.OutputID()] = true
	}

	return nil
}

func (t *TransactionEssence) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(TransactionEssenceType)
	marshalUtil.WriteUint64(t.NetworkID)
	marshalUtil.WriteUint16(uint16(len(t.Inputs)))
	for _, input := range t.Inputs {
		input.writeTo(marshalUtil)
	}
	marshalUtil.WriteBytes(t.InputsCommitment[:])
	marshalUtil.WriteUint16(uint16(len(t.Outputs)))
	for _, output := range t.Outputs {
		output.writeTo(marshalUtil)
	}

	// a nil *TaggedData must not end up as a non-nil Payload
	if t.Payload == nil {
		WriteOptionalPayload(marshalUtil, nil)
		return
	}
	WriteOptionalPayload(marshalUtil, t.Payload)
}

// String returns a human readable version of the TransactionEssence.
func (t *TransactionEssence) String() string {
	return stringify.Struct("TransactionEssence",
		stringify.StructField("NetworkID", t.NetworkID),
		stringify.StructField("Inputs", len(t.Inputs)),
		stringify.StructField("Outputs", len(t.Outputs)),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Transaction //////////////////////////////////////////////////////////////////////////////////////////////////

// Transaction is the Payload that transfers funds: an essence plus one Unlock per input.
type Transaction struct {
	Essence *TransactionEssence
	Unlocks Unlocks
}

// NewTransaction creates a new Transaction from the given details.
func NewTransaction(essence *TransactionEssence, unlocks Unlocks) *Transaction {
	return &Transaction{Essence: essence, Unlocks: unlocks}
}

// TransactionFromBytes unmarshals a Transaction payload (including its type) from a sequence of bytes.
func TransactionFromBytes(data []byte) (*Transaction, error) {
	payload, err := PayloadFromBytes(data)
	if err != nil {
		return nil, err
	}
	transaction, isTransaction := payload.(*Transaction)
	if !isTransaction {
		return nil, errors.Errorf("payload is a %s: %w", payload.Type(), cerrors.ErrParseBytesFailed)
	}

	return transaction, nil
}

func transactionFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (transaction *Transaction, err error) {
	transaction = &Transaction{}
	if transaction.Essence, err = TransactionEssenceFromMarshalUtil(marshalUtil); err != nil {
		return nil, errors.Errorf("failed to parse TransactionEssence: %w", err)
	}
	if transaction.Unlocks, err = UnlocksFromMarshalUtil(marshalUtil); err != nil {
		return nil, errors.Errorf("failed to parse Unlocks: %w", err)
	}
	if len(transaction.Unlocks) != len(transaction.Essence.Inputs) {
		return nil, errors.Errorf("amount of Unlocks (%d) does not match amount of Inputs (%d): %w",
			len(transaction.Unlocks), len(transaction.Essence.Inputs), cerrors.ErrParseBytesFailed)
	}

	return transaction, nil
}

// ID returns the identifier of the Transaction: the hash of its serialized form.
func (t *Transaction) ID() TransactionID {
	return blake2b.Sum256(t.Bytes())
}

// OutputID returns the identifier the Output at the given index will have once the Transaction is booked.
func (t *Transaction) OutputID(index uint16) OutputID {
	return NewOutputID(t.ID(), index)
}

// Type returns the PayloadType.
func (t *Transaction) Type() PayloadType {
	return TransactionPayloadType
}

// Bytes returns a marshaled version of the Transaction including its PayloadType.
func (t *Transaction) Bytes() []byte {
	marshalUtil := marshalutil.New()
	marshalUtil.WriteUint32(uint32(TransactionPayloadType))
	t.Essence.writeTo(marshalUtil)
	t.Unlocks.writeTo(marshalUtil)

	return marshalUtil.Bytes()
}

// String returns a human readable version of the Transaction.
func (t *Transaction) String() string {
	return stringify.Struct("Transaction",
		stringify.StructField("id", t.ID().Hex()),
		stringify.StructField("essence", t.Essence),
		stringify.StructField("unlocks", len(t.Unlocks)),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Payload = &Transaction{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

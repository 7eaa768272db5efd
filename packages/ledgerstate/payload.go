package ledgerstate

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region PayloadType //////////////////////////////////////////////////////////////////////////////////////////////////

// PayloadType represents the type of a Payload.
type PayloadType uint32

const (
	// TaggedDataPayloadType is the type of TaggedData.
	TaggedDataPayloadType PayloadType = 5

	// TransactionPayloadType is the type of a Transaction.
	TransactionPayloadType PayloadType = 6
)

// String returns a human-readable representation of the PayloadType.
func (p PayloadType) String() string {
	switch p {
	case TaggedDataPayloadType:
		return "TaggedData"
	case TransactionPayloadType:
		return "Transaction"
	default:
		return "UnknownPayload"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Payload //////////////////////////////////////////////////////////////////////////////////////////////////////

// Payload is the content of a block.
type Payload interface {
	// Type returns the PayloadType.
	Type() PayloadType

	// Bytes returns a marshaled version of the Payload including its type.
	Bytes() []byte

	// String returns a human-readable version of the Payload.
	String() string
}

// PayloadFromBytes unmarshals a Payload from exactly the given bytes.
func PayloadFromBytes(data []byte) (payload Payload, err error) {
	marshalUtil := marshalutil.New(data)
	payloadType, err := marshalUtil.ReadUint32()
	if err != nil {
		return nil, errors.Errorf("failed to parse PayloadType (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	switch PayloadType(payloadType) {
	case TaggedDataPayloadType:
		payload, err = taggedDataFromMarshalUtil(marshalUtil)
	case TransactionPayloadType:
		payload, err = transactionFromMarshalUtil(marshalUtil)
	default:
		return nil, errors.Errorf("unsupported payload type (%d): %w", payloadType, cerrors.ErrParseBytesFailed)
	}
	if err != nil {
		return nil, err
	}

	if marshalUtil.ReadOffset() != len(data) {
		return nil, errors.Errorf("%d trailing bytes after payload: %w", len(data)-marshalUtil.ReadOffset(), cerrors.ErrParseBytesFailed)
	}

	return payload, nil
}

// ReadOptionalPayload reads a length prefixed Payload. A zero length means no Payload.
func ReadOptionalPayload(marshalUtil *marshalutil.MarshalUtil) (Payload, error) {
	length, err := marshalUtil.ReadUint32()
	if err != nil {
		return nil, errors.Errorf("failed to parse payload length (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if length == 0 {
		return nil, nil
	}

	payloadBytes, err := marshalUtil.ReadBytes(int(length))
	if err != nil {
		return nil, errors.Errorf("failed to parse payload (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	return PayloadFromBytes(payloadBytes)
}

// WriteOptionalPayload writes the length prefixed Payload, or a zero length if there is none.
func WriteOptionalPayload(marshalUtil *marshalutil.MarshalUtil, payload Payload) {
	if payload == nil {
		marshalUtil.WriteUint32(0)
		return
	}

	payloadBytes := payload.Bytes()
	marshalUtil.WriteUint32(uint32(len(payloadBytes)))
	marshalUtil.WriteBytes(payloadBytes)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region TaggedData ///////////////////////////////////////////////////////////////////////////////////////////////////

// MaxTaggedDataLength defines the maximum size of the data of TaggedData.
const MaxTaggedDataLength = 32 * 1024

// TaggedData is a Payload that carries arbitrary data under an optional tag.
type TaggedData struct {
	Tag  []byte
	Data []byte
}

// NewTaggedData creates validated TaggedData.
func NewTaggedData(tag, data []byte) (*TaggedData, error) {
	if len(tag) > MaxTagLength {
		return nil, clienterrors.Validationf("tag of %d bytes exceeds the maximum of %d", len(tag), MaxTagLength)
	}
	if len(data) > MaxTaggedDataLength {
		return nil, clienterrors.Validationf("data of %d bytes exceeds the maximum of %d", len(data), MaxTaggedDataLength)
	}

	return &TaggedData{Tag: append([]byte(nil), tag...), Data: append([]byte(nil), data...)}, nil
}

func taggedDataFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (taggedData *TaggedData, err error) {
	taggedData = &TaggedData{}

	tagLength, err := marshalUtil.ReadUint8()
	if err != nil {
		return nil, errors.Errorf("failed to parse tag length (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if taggedData.Tag, err = marshalUtil.ReadBytes(int(tagLength)); err != nil {
		return nil, errors.Errorf("failed to parse tag (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	dataLength, err := marshalUtil.ReadUint32()
	if err != nil {
		return nil, errors.Errorf("failed to parse data length (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if taggedData.Data, err = marshalUtil.ReadBytes(int(dataLength)); err != nil {
		return nil, errors.Errorf("failed to parse data (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	return taggedData, nil
}

// Type returns the PayloadType.
func (t *TaggedData) Type() PayloadType {
	return TaggedDataPayloadType
}

// Bytes returns a marshaled version of the TaggedData.
func (t *TaggedData) Bytes() []byte {
	marshalUtil := marshalutil.New(marshalutil.Uint32Size + 1 + len(t.Tag) + marshalutil.Uint32Size + len(t.Data))
	marshalUtil.WriteUint32(uint32(TaggedDataPayloadType))
	marshalUtil.WriteByte(byte(len(t.Tag)))
	marshalUtil.WriteBytes(t.Tag)
	marshalUtil.WriteUint32(uint32(len(t.Data)))
	marshalUtil.WriteBytes(t.Data)

	return marshalUtil.Bytes()
}

// String returns a human-readable version of the TaggedData.
func (t *TaggedData) String() string {
	return stringify.Struct("TaggedData",
		stringify.StructField("Tag", t.Tag),
		stringify.StructField("Data", len(t.Data)),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Payload = &TaggedData{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package tangle

import (
	"bytes"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

const (
	// MaxBlockSize defines the maximum size of a serialized block.
	MaxBlockSize = 32 * 1024

	// BlockIDLength defines the length of a BlockID.
	BlockIDLength = blake2b.Size256

	// MinParentsCount defines the minimum number of parents a block must have.
	MinParentsCount = 1

	// MaxParentsCount defines the maximum number of parents a block may have.
	MaxParentsCount = 8

	// NonceLength defines the length of the nonce at the end of a serialized block.
	NonceLength = marshalutil.Uint64Size
)

// region BlockID //////////////////////////////////////////////////////////////////////////////////////////////////////

// BlockID identifies a block via the BLAKE2b-256 hash of its bytes.
type BlockID [BlockIDLength]byte

// EmptyBlockID is an empty id.
var EmptyBlockID BlockID

// BlockIDFromMarshalUtil unmarshals a BlockID using a MarshalUtil (for easier unmarshaling).
func BlockIDFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (blockID BlockID, err error) {
	blockIDBytes, err := marshalUtil.ReadBytes(BlockIDLength)
	if err != nil {
		return blockID, errors.Errorf("failed to parse BlockID (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	copy(blockID[:], blockIDBytes)

	return blockID, nil
}

// BlockIDFromHex parses a 0x-prefixed hex encoded BlockID.
func BlockIDFromHex(hexString string) (blockID BlockID, err error) {
	data, err := hex.DecodeString(strings.TrimPrefix(hexString, "0x"))
	if err != nil {
		return blockID, clienterrors.Validationf("invalid block id %q: %v", hexString, err)
	}
	if len(data) != BlockIDLength {
		return blockID, clienterrors.Validationf("invalid block id length %d, expected %d", len(data), BlockIDLength)
	}
	copy(blockID[:], data)

	return blockID, nil
}

// Bytes returns a marshaled version of the BlockID.
func (b BlockID) Bytes() []byte {
	return b[:]
}

// Hex returns the 0x-prefixed hex encoding of the BlockID, which is the form the node API uses.
func (b BlockID) Hex() string {
	return "0x" + hex.EncodeToString(b[:])
}

// Base58 returns a base58 encoded version of the BlockID.
func (b BlockID) Base58() string {
	return base58.Encode(b[:])
}

// CompareTo does a lexicographical comparison to another BlockID.
func (b BlockID) CompareTo(other BlockID) int {
	return bytes.Compare(b[:], other[:])
}

// String returns a human-readable version of the BlockID.
func (b BlockID) String() string {
	return "BlockID(" + b.Hex() + ")"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region BlockIDs /////////////////////////////////////////////////////////////////////////////////////////////////////

// BlockIDs is a list of BlockIDs.
type BlockIDs []BlockID

// BlockIDsFromHex parses a list of hex encoded BlockIDs.
func BlockIDsFromHex(hexStrings []string) (BlockIDs, error) {
	blockIDs := make(BlockIDs, len(hexStrings))
	for i, hexString := range hexStrings {
		blockID, err := BlockIDFromHex(hexString)
		if err != nil {
			return nil, err
		}
		blockIDs[i] = blockID
	}

	return blockIDs, nil
}

// Sorted returns a lexicographically sorted copy without duplicates.
func (b BlockIDs) Sorted() BlockIDs {
	sorted := make(BlockIDs, 0, len(b))
	seen := make(map[BlockID]bool, len(b))
	for _, blockID := range b {
		if !seen[blockID] {
			seen[blockID] = true
			sorted = append(sorted, blockID)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompareTo(sorted[j]) < 0
	})

	return sorted
}

// Contains returns true if the list holds the BlockID.
func (b BlockIDs) Contains(blockID BlockID) bool {
	for _, candidate := range b {
		if candidate == blockID {
			return true
		}
	}

	return false
}

// Hex returns the hex encodings of the BlockIDs.
func (b BlockIDs) Hex() []string {
	result := make([]string, len(b))
	for i, blockID := range b {
		result[i] = blockID.Hex()
	}

	return result
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Block ////////////////////////////////////////////////////////////////////////////////////////////////////////

// Block is a vertex of the tangle. It references its parents, carries an optional Payload and a nonce proving work.
type Block struct {
	ProtocolVersion uint8
	Parents         BlockIDs
	Payload         ledgerstate.Payload
	Nonce           uint64
}

// NewBlock creates a Block without nonce. The parents are sorted and deduplicated.
func NewBlock(protocolVersion uint8, parents BlockIDs, payload ledgerstate.Payload) *Block {
	return &Block{
		ProtocolVersion: protocolVersion,
		Parents:         parents.Sorted(),
		Payload:         payload,
	}
}

// BlockFromBytes parses the given bytes into a Block.
func BlockFromBytes(data []byte) (block *Block, err error) {
	marshalUtil := marshalutil.New(data)
	if block, err = BlockFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}
	if marshalUtil.ReadOffset() != len(data) {
		return nil, errors.Errorf("%d trailing bytes after block: %w", len(data)-marshalUtil.ReadOffset(), cerrors.ErrParseBytesFailed)
	}

	return block, nil
}

// BlockFromMarshalUtil unmarshals a Block using a MarshalUtil (for easier unmarshaling).
func BlockFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (block *Block, err error) {
	block = &Block{}
	if block.ProtocolVersion, err = marshalUtil.ReadByte(); err != nil {
		return nil, errors.Errorf("failed to parse protocol version (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	parentsCount, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse parents count (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if parentsCount < MinParentsCount || parentsCount > MaxParentsCount {
		return nil, errors.Errorf("invalid parents count %d: %w", parentsCount, cerrors.ErrParseBytesFailed)
	}
	block.Parents = make(BlockIDs, parentsCount)
	for i := range block.Parents {
		if block.Parents[i], err = BlockIDFromMarshalUtil(marshalUtil); err != nil {
			return nil, errors.Errorf("failed to parse parent %d: %w", i, err)
		}
	}

	if block.Payload, err = ledgerstate.ReadOptionalPayload(marshalUtil); err != nil {
		return nil, errors.Errorf("failed to parse payload: %w", err)
	}

	if block.Nonce, err = marshalUtil.ReadUint64(); err != nil {
		return nil, errors.Errorf("failed to parse nonce (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	return block, nil
}

// Bytes returns a marshaled version of the Block.
func (b *Block) Bytes() []byte {
	marshalUtil := b.writeContent()
	marshalUtil.WriteUint64(b.Nonce)

	return marshalUtil.Bytes()
}

// POWData returns the bytes the proof of work is computed over: the serialized block without its nonce.
func (b *Block) POWData() []byte {
	return b.writeContent().Bytes()
}

func (b *Block) writeContent() *marshalutil.MarshalUtil {
	marshalUtil := marshalutil.New()
	marshalUtil.WriteByte(b.ProtocolVersion)
	marshalUtil.WriteByte(byte(len(b.Parents)))
	for _, parent := range b.Parents {
		marshalUtil.WriteBytes(parent.Bytes())
	}
	ledgerstate.WriteOptionalPayload(marshalUtil, b.Payload)

	return marshalUtil
}

// ID returns the BlockID, the hash of the serialized Block.
func (b *Block) ID() BlockID {
	return blake2b.Sum256(b.Bytes())
}

// Size returns the length of the serialized Block.
func (b *Block) Size() int {
	return len(b.Bytes())
}

// SyntacticallyValid checks the parent rules and the size limit.
func (b *Block) SyntacticallyValid() error {
	if len(b.Parents) < MinParentsCount || len(b.Parents) > MaxParentsCount {
		return clienterrors.Validationf("a block needs between %d and %d parents, got %d", MinParentsCount, MaxParentsCount, len(b.Parents))
	}
	for i := 1; i < len(b.Parents); i++ {
		if b.Parents[i-1].CompareTo(b.Parents[i]) >= 0 {
			return clienterrors.Validationf("parents must be sorted and unique")
		}
	}
	if size := b.Size(); size > MaxBlockSize {
		return clienterrors.Validationf("block size %d exceeds the maximum of %d", size, MaxBlockSize)
	}

	return nil
}

// Transaction returns the Transaction payload of the Block or nil.
func (b *Block) Transaction() *ledgerstate.Transaction {
	transaction, _ := b.Payload.(*ledgerstate.Transaction)

	return transaction
}

// String returns a human-readable version of the Block.
func (b *Block) String() string {
	structBuilder := stringify.StructBuilder("Block",
		stringify.StructField("ID", b.ID().Hex()),
		stringify.StructField("ProtocolVersion", b.ProtocolVersion),
	)
	for i, parent := range b.Parents {
		structBuilder.AddField(stringify.StructField("Parent"+strconv.Itoa(i), parent.Hex()))
	}
	structBuilder.AddField(stringify.StructField("Payload", b.Payload))
	structBuilder.AddField(stringify.StructField("Nonce", b.Nonce))

	return structBuilder.String()
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

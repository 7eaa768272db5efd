package jsonmodels

import (
	"strconv"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

// region Block ////////////////////////////////////////////////////////////////////////////////////////////////////////

// Block represents the JSON model of a tangle.Block. The payload is kept in its hex encoded binary form.
type Block struct {
	BlockID         string                  `json:"blockId"`
	ProtocolVersion uint8                   `json:"protocolVersion"`
	Parents         []string                `json:"parents"`
	PayloadType     ledgerstate.PayloadType `json:"payloadType,omitempty"`
	Payload         string                  `json:"payload,omitempty"`
	Nonce           string                  `json:"nonce"`
}

// NewBlock returns a Block from the given tangle.Block.
func NewBlock(block *tangle.Block) *Block {
	result := &Block{
		BlockID:         block.ID().Hex(),
		ProtocolVersion: block.ProtocolVersion,
		Parents:         block.Parents.Hex(),
		Nonce:           strconv.FormatUint(block.Nonce, 10),
	}
	if block.Payload != nil {
		result.PayloadType = block.Payload.Type()
		result.Payload = EncodeHex(block.Payload.Bytes())
	}

	return result
}

// ToBlock converts the JSON model into a tangle.Block. A set BlockID must match the content.
func (b *Block) ToBlock() (*tangle.Block, error) {
	parents, err := tangle.BlockIDsFromHex(b.Parents)
	if err != nil {
		return nil, err
	}
	nonce, err := strconv.ParseUint(b.Nonce, 10, 64)
	if err != nil {
		return nil, clienterrors.Validationf("invalid nonce %q", b.Nonce)
	}

	block := &tangle.Block{ProtocolVersion: b.ProtocolVersion, Parents: parents, Nonce: nonce}
	if b.Payload != "" {
		payloadBytes, decodeErr := DecodeHex(b.Payload)
		if decodeErr != nil {
			return nil, decodeErr
		}
		if block.Payload, err = ledgerstate.PayloadFromBytes(payloadBytes); err != nil {
			return nil, clienterrors.Validationf("invalid payload: %v", err)
		}
	}

	if b.BlockID != "" && block.ID().Hex() != b.BlockID {
		return nil, clienterrors.Validationf("block id %s does not match the block content", b.BlockID)
	}

	return block, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region BlockMetadata ////////////////////////////////////////////////////////////////////////////////////////////////

// BlockMetadata represents the JSON model of the tangle.BlockMetadata.
type BlockMetadata struct {
	BlockID                    string   `json:"blockId"`
	Parents                    []string `json:"parents"`
	IsSolid                    bool     `json:"isSolid"`
	ReferencedByMilestoneIndex uint32   `json:"referencedByMilestoneIndex,omitempty"`
	MilestoneIndex             uint32   `json:"milestoneIndex,omitempty"`
	LedgerInclusionState       string   `json:"ledgerInclusionState,omitempty"`
	ConflictReason             uint8    `json:"conflictReason,omitempty"`
	WhiteFlagIndex             uint32   `json:"whiteFlagIndex,omitempty"`
	ShouldPromote              *bool    `json:"shouldPromote,omitempty"`
	ShouldReattach             *bool    `json:"shouldReattach,omitempty"`
}

// NewBlockMetadata returns a BlockMetadata from the given tangle.BlockMetadata.
func NewBlockMetadata(metadata *tangle.BlockMetadata) *BlockMetadata {
	result := &BlockMetadata{
		BlockID:                    metadata.BlockID.Hex(),
		Parents:                    metadata.Parents.Hex(),
		IsSolid:                    metadata.Solid,
		ReferencedByMilestoneIndex: metadata.ReferencedByMilestoneIndex,
		MilestoneIndex:             metadata.MilestoneIndex,
		LedgerInclusionState:       string(metadata.LedgerInclusionState),
		ConflictReason:             uint8(metadata.ConflictReason),
		WhiteFlagIndex:             metadata.WhiteFlagIndex,
	}
	if !metadata.Referenced() {
		result.ShouldPromote = &metadata.ShouldPromote
		result.ShouldReattach = &metadata.ShouldReattach
	}

	return result
}

// ToBlockMetadata converts the JSON model into a tangle.BlockMetadata.
func (b *BlockMetadata) ToBlockMetadata() (*tangle.BlockMetadata, error) {
	blockID, err := tangle.BlockIDFromHex(b.BlockID)
	if err != nil {
		return nil, err
	}
	parents, err := tangle.BlockIDsFromHex(b.Parents)
	if err != nil {
		return nil, err
	}

	metadata := &tangle.BlockMetadata{
		BlockID:                    blockID,
		Parents:                    parents,
		Solid:                      b.IsSolid,
		ReferencedByMilestoneIndex: b.ReferencedByMilestoneIndex,
		MilestoneIndex:             b.MilestoneIndex,
		LedgerInclusionState:       tangle.LedgerInclusionState(b.LedgerInclusionState),
		ConflictReason:             tangle.ConflictReason(b.ConflictReason),
		WhiteFlagIndex:             b.WhiteFlagIndex,
	}
	if b.ShouldPromote != nil {
		metadata.ShouldPromote = *b.ShouldPromote
	}
	if b.ShouldReattach != nil {
		metadata.ShouldReattach = *b.ShouldReattach
	}

	return metadata, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Tips /////////////////////////////////////////////////////////////////////////////////////////////////////////

// TipsResponse is returned by the node for a tip selection request.
type TipsResponse struct {
	Tips []string `json:"tips"`
}

// ToBlockIDs parses the tips.
func (t *TipsResponse) ToBlockIDs() (tangle.BlockIDs, error) {
	return tangle.BlockIDsFromHex(t.Tips)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region PostBlockResponse ////////////////////////////////////////////////////////////////////////////////////////////

// PostBlockResponse is returned by the node after it accepted a block.
type PostBlockResponse struct {
	BlockID string `json:"blockId"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package tangle

import (
	"github.com/iotaledger/hive.go/stringify"
)

// region InclusionState ///////////////////////////////////////////////////////////////////////////////////////////////

// InclusionState is the client side view on whether a block made it into the ledger.
type InclusionState uint8

const (
	// Pending means that no milestone referenced the block yet.
	Pending InclusionState = iota

	// Confirmed means that a milestone referenced the block and its payload (if any) was applied to the ledger.
	Confirmed

	// Conflicting means that a milestone referenced the block but its transaction was rejected.
	Conflicting
)

// String returns a human-readable version of the InclusionState.
func (i InclusionState) String() string {
	switch i {
	case Pending:
		return "Pending"
	case Confirmed:
		return "Confirmed"
	case Conflicting:
		return "Conflicting"
	default:
		return "Unknown"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region LedgerInclusionState /////////////////////////////////////////////////////////////////////////////////////////

// LedgerInclusionState is the node's verdict about the payload of a referenced block.
type LedgerInclusionState string

const (
	// LedgerInclusionStateNoTransaction is reported for referenced blocks without a transaction.
	LedgerInclusionStateNoTransaction LedgerInclusionState = "noTransaction"

	// LedgerInclusionStateIncluded is reported for referenced blocks whose transaction was applied.
	LedgerInclusionStateIncluded LedgerInclusionState = "included"

	// LedgerInclusionStateConflicting is reported for referenced blocks whose transaction was rejected.
	LedgerInclusionStateConflicting LedgerInclusionState = "conflicting"
)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region ConflictReason ///////////////////////////////////////////////////////////////////////////////////////////////

// ConflictReason explains why the transaction of a block was rejected.
type ConflictReason uint8

const (
	ConflictNone ConflictReason = iota
	ConflictInputUTXOAlreadySpent
	ConflictInputUTXOAlreadySpentInThisMilestone
	ConflictInputUTXONotFound
	ConflictCreatedConsumedAmountMismatch
	ConflictInvalidSignature
	ConflictTimelockNotExpired
	ConflictInvalidNativeTokens
	ConflictStorageDepositReturnUnfulfilled
	ConflictInvalidUnlock
	ConflictInputsCommitmentInvalid
	ConflictInvalidSender
	ConflictInvalidChainStateTransition

	ConflictSemanticValidationFailed ConflictReason = 255
)

var conflictReasonNames = map[ConflictReason]string{
	ConflictNone:                                 "none",
	ConflictInputUTXOAlreadySpent:                "input already spent",
	ConflictInputUTXOAlreadySpentInThisMilestone: "input already spent in this milestone",
	ConflictInputUTXONotFound:                    "input not found",
	ConflictCreatedConsumedAmountMismatch:        "created and consumed amounts do not match",
	ConflictInvalidSignature:                     "invalid signature",
	ConflictTimelockNotExpired:                   "timelock not expired",
	ConflictInvalidNativeTokens:                  "invalid native tokens",
	ConflictStorageDepositReturnUnfulfilled:      "storage deposit return unfulfilled",
	ConflictInvalidUnlock:                        "invalid unlock",
	ConflictInputsCommitmentInvalid:              "inputs commitment invalid",
	ConflictInvalidSender:                        "invalid sender",
	ConflictInvalidChainStateTransition:          "invalid chain state transition",
	ConflictSemanticValidationFailed:             "semantic validation failed",
}

// String returns a human-readable version of the ConflictReason.
func (c ConflictReason) String() string {
	if name, exists := conflictReasonNames[c]; exists {
		return name
	}

	return "unknown conflict reason"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region BlockMetadata ////////////////////////////////////////////////////////////////////////////////////////////////

// BlockMetadata is what a node knows about a block it has seen.
type BlockMetadata struct {
	BlockID                    BlockID
	Parents                    BlockIDs
	Solid                      bool
	ReferencedByMilestoneIndex uint32
	MilestoneIndex             uint32
	LedgerInclusionState       LedgerInclusionState
	ConflictReason             ConflictReason
	WhiteFlagIndex             uint32

	// ShouldPromote and ShouldReattach are only reported for blocks that are not referenced yet.
	ShouldPromote  bool
	ShouldReattach bool
}

// Referenced returns true if a milestone referenced the block.
func (m *BlockMetadata) Referenced() bool {
	return m.ReferencedByMilestoneIndex != 0 || m.LedgerInclusionState != ""
}

// InclusionState derives the client side InclusionState.
func (m *BlockMetadata) InclusionState() InclusionState {
	if !m.Referenced() {
		return Pending
	}
	if m.LedgerInclusionState == LedgerInclusionStateConflicting {
		return Conflicting
	}

	return Confirmed
}

// String returns a human-readable version of the BlockMetadata.
func (m *BlockMetadata) String() string {
	return stringify.Struct("BlockMetadata",
		stringify.StructField("BlockID", m.BlockID.Hex()),
		stringify.StructField("Solid", m.Solid),
		stringify.StructField("ReferencedByMilestoneIndex", m.ReferencedByMilestoneIndex),
		stringify.StructField("LedgerInclusionState", string(m.LedgerInclusionState)),
		stringify.StructField("ConflictReason", m.ConflictReason.String()),
		stringify.StructField("ShouldPromote", m.ShouldPromote),
		stringify.StructField("ShouldReattach", m.ShouldReattach),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

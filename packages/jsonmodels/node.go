package jsonmodels

import (
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// region Info /////////////////////////////////////////////////////////////////////////////////////////////////////////

// RentStructure represents the JSON model of the ledgerstate.RentStructure.
type RentStructure struct {
	VByteCost       uint32 `json:"vByteCost"`
	VByteFactorData uint8  `json:"vByteFactorData"`
	VByteFactorKey  uint8  `json:"vByteFactorKey"`
}

// ToRentStructure converts the JSON model into a ledgerstate.RentStructure.
func (r RentStructure) ToRentStructure() *ledgerstate.RentStructure {
	return &ledgerstate.RentStructure{
		VByteCost:       r.VByteCost,
		VByteFactorData: r.VByteFactorData,
		VByteFactorKey:  r.VByteFactorKey,
	}
}

// ProtocolParameters holds the network governed parameters a client has to track.
type ProtocolParameters struct {
	Version       uint8         `json:"version"`
	NetworkName   string        `json:"networkName"`
	Bech32HRP     string        `json:"bech32Hrp"`
	MinPoWScore   uint32        `json:"minPowScore"`
	BelowMaxDepth uint8         `json:"belowMaxDepth"`
	RentStructure RentStructure `json:"rentStructure"`
	TokenSupply   string        `json:"tokenSupply"`
}

// NetworkID returns the id of the network the parameters belong to.
func (p *ProtocolParameters) NetworkID() uint64 {
	return ledgerstate.NetworkIDFromName(p.NetworkName)
}

// NodeStatus describes the health of a node.
type NodeStatus struct {
	IsHealthy                   bool   `json:"isHealthy"`
	LatestMilestoneIndex        uint32 `json:"latestMilestoneIndex"`
	LatestMilestoneTimestamp    uint32 `json:"latestMilestoneTimestamp"`
	ConfirmedMilestoneIndex     uint32 `json:"confirmedMilestoneIndex"`
	ConfirmedMilestoneTimestamp uint32 `json:"confirmedMilestoneTimestamp"`
	PruningIndex                uint32 `json:"pruningIndex"`
}

// InfoResponse is returned by the node info endpoint.
type InfoResponse struct {
	Name     string             `json:"name"`
	Version  string             `json:"version"`
	Status   NodeStatus         `json:"status"`
	Protocol ProtocolParameters `json:"protocol"`
	Features []string           `json:"features"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Indexer //////////////////////////////////////////////////////////////////////////////////////////////////////

// OutputIDsResponse is one page of an indexer query.
type OutputIDsResponse struct {
	LedgerIndex uint32   `json:"ledgerIndex"`
	PageSize    int      `json:"pageSize"`
	Items       []string `json:"items"`
	Cursor      string   `json:"cursor,omitempty"`
}

// ToOutputIDs parses the items of the page.
func (o *OutputIDsResponse) ToOutputIDs() ([]ledgerstate.OutputID, error) {
	outputIDs := make([]ledgerstate.OutputID, len(o.Items))
	for i, item := range o.Items {
		outputID, err := ledgerstate.OutputIDFromHex(item)
		if err != nil {
			return nil, err
		}
		outputIDs[i] = outputID
	}

	return outputIDs, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Milestone ////////////////////////////////////////////////////////////////////////////////////////////////////

// Milestone represents the JSON model of a milestone payload.
type Milestone struct {
	Type                uint32   `json:"type"`
	Index               uint32   `json:"index"`
	Timestamp           uint32   `json:"timestamp"`
	ProtocolVersion     uint8    `json:"protocolVersion"`
	PreviousMilestoneID string   `json:"previousMilestoneId"`
	Parents             []string `json:"parents"`
	InclusionMerkleRoot string   `json:"inclusionMerkleRoot"`
	AppliedMerkleRoot   string   `json:"appliedMerkleRoot"`
	Metadata            string   `json:"metadata,omitempty"`
}

// UTXOChanges lists the outputs a milestone created and consumed.
type UTXOChanges struct {
	Index           uint32   `json:"index"`
	CreatedOutputs  []string `json:"createdOutputs"`
	ConsumedOutputs []string `json:"consumedOutputs"`
}

// Receipt is a migration receipt included by a milestone.
type Receipt struct {
	MilestoneIndex uint32                 `json:"milestoneIndex"`
	Receipt        map[string]interface{} `json:"receipt"`
}

// ReceiptsResponse is returned by the receipts endpoints.
type ReceiptsResponse struct {
	Receipts []*Receipt `json:"receipts"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Error ////////////////////////////////////////////////////////////////////////////////////////////////////////

// ErrorResponse is the body a node sends with a failed request.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

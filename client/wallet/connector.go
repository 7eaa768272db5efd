package wallet

import (
	"context"

	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

// Connector represents an interface that defines how the wallet interacts with the network. The wallet only talks to
// the network through it, so tests can replace the node by an in-memory ledger.
type Connector interface {
	// ProtocolParameters returns the current parameters of the network.
	ProtocolParameters(ctx context.Context) (*jsonmodels.ProtocolParameters, error)

	// Tips returns blocks that are suitable as parents of a new block.
	Tips(ctx context.Context) (tangle.BlockIDs, error)

	// UnspentOutputs returns the unspent basic outputs that are unlockable by the bech32 encoded address.
	UnspentOutputs(ctx context.Context, bech32Address string) (ledgerstate.UTXOs, error)

	// Output returns the unspent output with the given id. Spent outputs fail with clienterrors.ErrOutputSpent.
	Output(ctx context.Context, outputID ledgerstate.OutputID) (*ledgerstate.UTXO, error)

	// PostBlock submits the block. Submitting an already known block returns its id without error.
	PostBlock(ctx context.Context, block *tangle.Block) (tangle.BlockID, error)

	// Block returns the block with the given id.
	Block(ctx context.Context, blockID tangle.BlockID) (*tangle.Block, error)

	// BlockMetadata returns the metadata of the block with the given id.
	BlockMetadata(ctx context.Context, blockID tangle.BlockID) (*tangle.BlockMetadata, error)
}

package wallet

import (
	"context"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/iotaledger/stardust-client/client"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

// maxParallelOutputRequests limits the concurrent output lookups of a single call.
const maxParallelOutputRequests = 16

// WebConnector implements a connector that uses the web API to connect to a node to implement the required functions
// for the wallet.
type WebConnector struct {
	client *client.NodeAPI
}

// NewWebConnector is the constructor for the WebConnector.
func NewWebConnector(baseURL string, setters ...client.Option) *WebConnector {
	return NewWebConnectorWithAPI(client.NewNodeAPI(baseURL, setters...))
}

// NewWebConnectorWithAPI creates a WebConnector that shares an existing NodeAPI.
func NewWebConnectorWithAPI(api *client.NodeAPI) *WebConnector {
	return &WebConnector{client: api}
}

// API returns the NodeAPI of the connector.
func (webConnector *WebConnector) API() *client.NodeAPI {
	return webConnector.client
}

// ProtocolParameters returns the current parameters of the network (cached by the NodeAPI).
func (webConnector *WebConnector) ProtocolParameters(ctx context.Context) (*jsonmodels.ProtocolParameters, error) {
	return webConnector.client.ProtocolParameters(ctx)
}

// Tips returns blocks that are suitable as parents of a new block.
func (webConnector *WebConnector) Tips(ctx context.Context) (tangle.BlockIDs, error) {
	return webConnector.client.Tips(ctx)
}

// UnspentOutputs queries the indexer for the basic outputs of the address and fetches them concurrently. Outputs that
// were consumed between the indexer query and the lookup are left out.
func (webConnector *WebConnector) UnspentOutputs(ctx context.Context, bech32Address string) (ledgerstate.UTXOs, error) {
	outputIDs, err := webConnector.client.BasicOutputIDs(ctx, &client.OutputQuery{Address: bech32Address})
	if err != nil {
		return nil, err
	}

	return webConnector.fetchOutputs(ctx, outputIDs, true)
}

// Outputs fetches the unspent outputs with the given ids concurrently. The result has the order of the ids.
func (webConnector *WebConnector) Outputs(ctx context.Context, outputIDs []ledgerstate.OutputID) (ledgerstate.UTXOs, error) {
	return webConnector.fetchOutputs(ctx, outputIDs, false)
}

// Output returns the unspent output with the given id. A spent output fails with clienterrors.ErrOutputSpent.
func (webConnector *WebConnector) Output(ctx context.Context, outputID ledgerstate.OutputID) (*ledgerstate.UTXO, error) {
	utxo, metadata, err := webConnector.client.Output(ctx, outputID)
	if err != nil {
		return nil, err
	}
	if metadata.IsSpent {
		return nil, errors.Wrapf(clienterrors.ErrOutputSpent, "output %s spent by %s", outputID.Hex(), metadata.TransactionIDSpent)
	}

	return utxo, nil
}

// fetchOutputs looks up the outputs concurrently and keeps the order of the ids. With skipConsumed set, outputs that
// are spent or no longer known to the node are dropped instead of failing the whole lookup.
func (webConnector *WebConnector) fetchOutputs(ctx context.Context, outputIDs []ledgerstate.OutputID, skipConsumed bool) (ledgerstate.UTXOs, error) {
	outputs := make(ledgerstate.UTXOs, len(outputIDs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelOutputRequests)
	for i, outputID := range outputIDs {
		i, outputID := i, outputID
		group.Go(func() error {
			utxo, err := webConnector.Output(groupCtx, outputID)
			if err != nil {
				if skipConsumed && (errors.Is(err, clienterrors.ErrOutputSpent) || clienterrors.IsNotFound(err)) {
					return nil
				}

				return err
			}
			outputs[i] = utxo

			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	unspent := outputs[:0]
	for _, utxo := range outputs {
		if utxo != nil {
			unspent = append(unspent, utxo)
		}
	}

	return unspent, nil
}

// PostBlock submits the block.
func (webConnector *WebConnector) PostBlock(ctx context.Context, block *tangle.Block) (tangle.BlockID, error) {
	return webConnector.client.PostBlock(ctx, block)
}

// Block returns the block with the given id.
func (webConnector *WebConnector) Block(ctx context.Context, blockID tangle.BlockID) (*tangle.Block, error) {
	return webConnector.client.Block(ctx, blockID)
}

// BlockMetadata returns the metadata of the block with the given id.
func (webConnector *WebConnector) BlockMetadata(ctx context.Context, blockID tangle.BlockID) (*tangle.BlockMetadata, error) {
	return webConnector.client.BlockMetadata(ctx, blockID)
}

// Interface contract: make compiler warn if the interface is not implemented correctly.
var _ Connector = &WebConnector{}

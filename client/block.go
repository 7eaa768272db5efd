package client

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

const (
	routeBlocks        = "/api/core/v2/blocks"
	routeBlock         = "/api/core/v2/blocks/{blockId}"
	routeBlockMetadata = "/api/core/v2/blocks/{blockId}/metadata"
)

// PostBlock submits the binary representation of the block. Submitting a block the node already knows is not an error
// and returns the id of the block.
func (api *NodeAPI) PostBlock(ctx context.Context, block *tangle.Block) (tangle.BlockID, error) {
	req, err := api.request(ctx)
	if err != nil {
		return tangle.EmptyBlockID, err
	}

	result := &jsonmodels.PostBlockResponse{}
	res, err := req.
		SetHeader("Content-Type", MIMEApplicationVendorIOTASerializerV1).
		SetBody(block.Bytes()).
		SetResult(result).
		Post(routeBlocks)
	if err = InterpretResponse(routeBlocks, res, err); err != nil {
		if clienterrors.IsAlreadyKnown(err) {
			api.log.Debugw("block already known", "blockID", block.ID().Hex())
			return block.ID(), nil
		}

		return tangle.EmptyBlockID, err
	}

	blockID, err := tangle.BlockIDFromHex(result.BlockID)
	if err != nil {
		return tangle.EmptyBlockID, errors.Errorf("node returned an invalid block id: %w", err)
	}

	return blockID, nil
}

// Block gets the block with the given id.
func (api *NodeAPI) Block(ctx context.Context, blockID tangle.BlockID) (*tangle.Block, error) {
	blockBytes, err := api.getBytes(ctx, blockRoute(routeBlock, blockID))
	if err != nil {
		return nil, err
	}

	block, err := tangle.BlockFromBytes(blockBytes)
	if err != nil {
		return nil, errors.Errorf("node returned an invalid block: %w", err)
	}

	return block, nil
}

// BlockMetadata gets the metadata of the block with the given id.
func (api *NodeAPI) BlockMetadata(ctx context.Context, blockID tangle.BlockID) (*tangle.BlockMetadata, error) {
	res := &jsonmodels.BlockMetadata{}
	if err := api.get(ctx, blockRoute(routeBlockMetadata, blockID), nil, res); err != nil {
		return nil, err
	}

	metadata, err := res.ToBlockMetadata()
	if err != nil {
		return nil, errors.Errorf("node returned invalid block metadata: %w", err)
	}

	return metadata, nil
}

func blockRoute(route string, blockID tangle.BlockID) string {
	return replaceParam(route, "{blockId}", blockID.Hex())
}

package wallet

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/iotaledger/stardust-client/client/wallet/packages/transactionoptions"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

// BlockWithID bundles a Block with its BlockID.
type BlockWithID struct {
	ID    tangle.BlockID
	Block *tangle.Block
}

// region block submission /////////////////////////////////////////////////////////////////////////////////////////////

// PostBlock submits the block. Submitting a block that the node already knows returns its id without error.
func (wallet *Wallet) PostBlock(ctx context.Context, block *tangle.Block) (tangle.BlockID, error) {
	if err := wallet.requireOnline(); err != nil {
		return tangle.EmptyBlockID, err
	}

	blockID, err := wallet.connector.PostBlock(ctx, block)
	if err != nil {
		if !clienterrors.IsAlreadyKnown(err) {
			return tangle.EmptyBlockID, errors.Errorf("failed to post block: %w", err)
		}

		blockID = block.ID()
		wallet.log.Debugw("block was already known", "blockID", blockID.Hex())
	}
	wallet.metrics.BlockSubmitted()

	return blockID, nil
}

// BuildAndPostBlock wraps the payload (which may be nil) into a block with proof of work and submits it. Tips of the
// node are used as parents if none are given.
func (wallet *Wallet) BuildAndPostBlock(ctx context.Context, payload ledgerstate.Payload, parents ...tangle.BlockID) (tangle.BlockID, *tangle.Block, error) {
	if err := wallet.requireOnline(); err != nil {
		return tangle.EmptyBlockID, nil, err
	}

	block, err := wallet.blockFactory.IssuePayload(ctx, payload, parents...)
	if err != nil {
		return tangle.EmptyBlockID, nil, errors.Errorf("failed to issue block: %w", err)
	}

	blockID, err := wallet.PostBlock(ctx, block)
	if err != nil {
		return tangle.EmptyBlockID, nil, err
	}

	return blockID, block, nil
}

// SendOutputs builds a transaction that creates the given outputs and submits it.
func (wallet *Wallet) SendOutputs(ctx context.Context, outputs []ledgerstate.Output, options ...transactionoptions.TransactionOption) (tangle.BlockID, *ledgerstate.Transaction, error) {
	txOptions, err := transactionoptions.Build(options...)
	if err != nil {
		return tangle.EmptyBlockID, nil, err
	}

	transaction, err := wallet.BuildTransaction(ctx, outputs, options...)
	if err != nil {
		return tangle.EmptyBlockID, nil, err
	}

	blockID, _, err := wallet.BuildAndPostBlock(ctx, transaction, txOptions.Parents...)
	if err != nil {
		return tangle.EmptyBlockID, nil, err
	}

	wallet.log.Infow("sent transaction", "transactionID", transaction.ID().Hex(), "blockID", blockID.Hex())

	return blockID, transaction, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region promotion and reattachment ///////////////////////////////////////////////////////////////////////////////////

// Promote attaches an empty block that approves the given block next to fresh tips.
func (wallet *Wallet) Promote(ctx context.Context, blockID tangle.BlockID) (tangle.BlockID, *tangle.Block, error) {
	if err := wallet.requireOnline(); err != nil {
		return tangle.EmptyBlockID, nil, err
	}

	tips, err := wallet.connector.Tips(ctx)
	if err != nil {
		return tangle.EmptyBlockID, nil, errors.Errorf("failed to retrieve tips for promotion: %w", err)
	}

	parents := make(tangle.BlockIDs, 0, len(tips)+1)
	parents = append(parents, blockID)
	for _, tip := range tips {
		if tip != blockID {
			parents = append(parents, tip)
		}
	}

	promotionID, promotion, err := wallet.BuildAndPostBlock(ctx, nil, parents...)
	if err != nil {
		return tangle.EmptyBlockID, nil, errors.Errorf("failed to promote %s: %w", blockID.Hex(), err)
	}
	wallet.metrics.Promoted()
	wallet.log.Infow("promoted block", "blockID", blockID.Hex(), "promotionID", promotionID.Hex())

	return promotionID, promotion, nil
}

// Reattach submits the payload of the given block again in a new block with fresh parents and proof of work.
func (wallet *Wallet) Reattach(ctx context.Context, blockID tangle.BlockID) (tangle.BlockID, *tangle.Block, error) {
	if err := wallet.requireOnline(); err != nil {
		return tangle.EmptyBlockID, nil, err
	}

	block, err := wallet.connector.Block(ctx, blockID)
	if err != nil {
		return tangle.EmptyBlockID, nil, errors.Errorf("failed to retrieve block %s for reattachment: %w", blockID.Hex(), err)
	}

	return wallet.reattachPayload(ctx, blockID, block.Payload)
}

func (wallet *Wallet) reattachPayload(ctx context.Context, blockID tangle.BlockID, payload ledgerstate.Payload) (tangle.BlockID, *tangle.Block, error) {
	if payload == nil {
		return tangle.EmptyBlockID, nil, clienterrors.Validationf("block %s has no payload to reattach", blockID.Hex())
	}

	reattachmentID, reattachment, err := wallet.BuildAndPostBlock(ctx, payload)
	if err != nil {
		return tangle.EmptyBlockID, nil, errors.Errorf("failed to reattach %s: %w", blockID.Hex(), err)
	}
	wallet.metrics.Reattached()
	wallet.log.Infow("reattached block", "blockID", blockID.Hex(), "reattachmentID", reattachmentID.Hex())

	return reattachmentID, reattachment, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

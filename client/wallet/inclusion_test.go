package wallet

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

func confirmedMetadata(blockID tangle.BlockID) *tangle.BlockMetadata {
	return &tangle.BlockMetadata{
		BlockID:                    blockID,
		Solid:                      true,
		ReferencedByMilestoneIndex: 7,
		LedgerInclusionState:       tangle.LedgerInclusionStateIncluded,
	}
}

func pendingMetadata(blockID tangle.BlockID) *tangle.BlockMetadata {
	return &tangle.BlockMetadata{BlockID: blockID, Solid: true}
}

func postTaggedData(t *testing.T, wallet *Wallet) (tangle.BlockID, *tangle.Block) {
	taggedData, err := ledgerstate.NewTaggedData([]byte("inclusion"), []byte("test"))
	require.NoError(t, err)

	blockID, block, err := wallet.BuildAndPostBlock(context.Background(), taggedData)
	require.NoError(t, err)

	return blockID, block
}

func TestWallet_PostBlock_Idempotent(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, block := postTaggedData(t, wallet)
	assert.Equal(t, block.ID(), blockID)

	resubmittedID, err := wallet.PostBlock(context.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, blockID, resubmittedID)
	assert.Len(t, connector.posted, 1)
}

func TestWallet_Promote(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, _ := postTaggedData(t, wallet)

	promotionID, promotion, err := wallet.Promote(context.Background(), blockID)
	require.NoError(t, err)
	assert.NotEqual(t, blockID, promotionID)
	assert.Nil(t, promotion.Payload)
	assert.True(t, promotion.Parents.Contains(blockID))
	assert.True(t, promotion.Parents.Contains(tangle.BlockID{1}))
}

func TestWallet_Reattach(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, block := postTaggedData(t, wallet)

	reattachmentID, reattachment, err := wallet.Reattach(context.Background(), blockID)
	require.NoError(t, err)
	assert.NotEqual(t, blockID, reattachmentID)
	assert.Equal(t, block.Payload.Bytes(), reattachment.Payload.Bytes())
	assert.False(t, reattachment.Parents.Contains(blockID))

	emptyID, _, err := wallet.BuildAndPostBlock(context.Background(), nil)
	require.NoError(t, err)
	_, _, err = wallet.Reattach(context.Background(), emptyID)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestWallet_RetryUntilIncluded_Promotion(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, _ := postTaggedData(t, wallet)
	connector.metadataFunc = func(id tangle.BlockID, poll int) (*tangle.BlockMetadata, error) {
		if id == blockID && poll == 1 {
			metadata := pendingMetadata(id)
			metadata.ShouldPromote = true

			return metadata, nil
		}

		return confirmedMetadata(id), nil
	}

	chain, err := wallet.RetryUntilIncluded(context.Background(), blockID, time.Millisecond, 5)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, blockID, chain[0].ID)
	assert.Nil(t, chain[1].Block.Payload)
	assert.True(t, chain[1].Block.Parents.Contains(blockID), "the promotion approves the stale block")
}

func TestWallet_RetryUntilIncluded_Reattachment(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, block := postTaggedData(t, wallet)
	connector.metadataFunc = func(id tangle.BlockID, poll int) (*tangle.BlockMetadata, error) {
		if id == blockID {
			metadata := pendingMetadata(id)
			metadata.ShouldReattach = true

			return metadata, nil
		}

		return confirmedMetadata(id), nil
	}

	chain, err := wallet.RetryUntilIncluded(context.Background(), blockID, time.Millisecond, 5)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, blockID, chain[0].ID)
	assert.NotEqual(t, blockID, chain[1].ID)
	assert.Equal(t, block.Payload.Bytes(), chain[1].Block.Payload.Bytes())
}

func TestWallet_RetryUntilIncluded_UnknownBlockIsReattached(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, _ := postTaggedData(t, wallet)
	connector.metadataFunc = func(id tangle.BlockID, poll int) (*tangle.BlockMetadata, error) {
		if id == blockID {
			return nil, &clienterrors.NodeError{StatusCode: http.StatusNotFound, Route: "api/core/v2/blocks", Message: "block not found"}
		}

		return confirmedMetadata(id), nil
	}

	chain, err := wallet.RetryUntilIncluded(context.Background(), blockID, time.Millisecond, 5)
	require.NoError(t, err)
	assert.Len(t, chain, 2)
}

func TestWallet_RetryUntilIncluded_Timeout(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector, WithRetryInterval(time.Millisecond), WithRetryMaxAttempts(3))

	blockID, _ := postTaggedData(t, wallet)

	chain, err := wallet.RetryUntilIncluded(context.Background(), blockID, 0, 0)
	require.Error(t, err)
	assert.Nil(t, chain)
	assert.True(t, errors.Is(err, clienterrors.ErrInclusionTimeout))

	var timeoutErr *clienterrors.InclusionTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, 3, timeoutErr.Attempts)
	assert.Equal(t, tangle.Pending.String(), timeoutErr.LastState)
	assert.Equal(t, blockID.Hex(), timeoutErr.BlockID)
	assert.Equal(t, 3, connector.polls[blockID])
}

func TestWallet_RetryUntilIncluded_Conflicting(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, _ := postTaggedData(t, wallet)
	connector.metadataFunc = func(id tangle.BlockID, poll int) (*tangle.BlockMetadata, error) {
		return &tangle.BlockMetadata{
			BlockID:                    id,
			ReferencedByMilestoneIndex: 9,
			LedgerInclusionState:       tangle.LedgerInclusionStateConflicting,
			ConflictReason:             tangle.ConflictInputUTXOAlreadySpent,
		}, nil
	}

	_, err := wallet.RetryUntilIncluded(context.Background(), blockID, time.Millisecond, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, clienterrors.ErrConflictingTransaction))
	assert.Contains(t, err.Error(), tangle.ConflictInputUTXOAlreadySpent.String())
	assert.Equal(t, "ConflictingTransactionError", clienterrors.Kind(err))
}

func TestWallet_RetryUntilIncluded_Canceled(t *testing.T) {
	connector := newMockConnector()
	wallet := newTestWallet(t, connector)

	blockID, _ := postTaggedData(t, wallet)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := wallet.RetryUntilIncluded(ctx, blockID, time.Hour, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation aborts the wait")
	assert.Zero(t, connector.polls[blockID])
}

func TestInclusionStateMachine(t *testing.T) {
	ctx := context.Background()

	included := newInclusionStateMachine()
	require.NoError(t, included.Event(ctx, eventInclude))
	assert.Equal(t, stateIncluded, included.Current())
	assert.Error(t, included.Event(ctx, eventAbandon), "included blocks are final")

	conflicting := newInclusionStateMachine()
	require.NoError(t, conflicting.Event(ctx, eventConflict))
	require.NoError(t, conflicting.Event(ctx, eventAbandon))
	assert.Equal(t, stateAbandoned, conflicting.Current())
	assert.False(t, conflicting.Can(eventInclude))
}

package wallet

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looplab/fsm"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/metrics"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

// region RetryUntilIncluded ///////////////////////////////////////////////////////////////////////////////////////////

// RetryUntilIncluded polls the metadata of the block every interval and promotes or reattaches it while it is stale.
// It returns the chain of blocks issued for the block in chronological order, starting with the block itself, once
// one of the blocks carrying its payload is included. Non-positive arguments fall back to the wallet defaults.
func (wallet *Wallet) RetryUntilIncluded(ctx context.Context, blockID tangle.BlockID, interval time.Duration, maxAttempts int) ([]BlockWithID, error) {
	if err := wallet.requireOnline(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = wallet.retryInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = wallet.retryMaxAttempts
	}

	block, err := wallet.connector.Block(ctx, blockID)
	if err != nil {
		return nil, errors.Errorf("failed to retrieve block %s: %w", blockID.Hex(), err)
	}

	return newInclusionTracker(wallet, blockID, block).run(ctx, interval, maxAttempts)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region inclusionTracker /////////////////////////////////////////////////////////////////////////////////////////////

const (
	stateSubmitted   = "Submitted"
	stateIncluded    = "Included"
	stateConflicting = "Conflicting"
	stateAbandoned   = "Abandoned"

	eventInclude  = "include"
	eventConflict = "conflict"
	eventAbandon  = "abandon"
)

// newInclusionStateMachine creates the state machine of a tracked block. A conflicting block is abandoned right away,
// so Included and Abandoned are the only final states.
func newInclusionStateMachine() *fsm.FSM {
	return fsm.NewFSM(
		stateSubmitted,
		fsm.Events{
			{
				Name: eventInclude,
				Src:  []string{stateSubmitted},
				Dst:  stateIncluded,
			},
			{
				Name: eventConflict,
				Src:  []string{stateSubmitted},
				Dst:  stateConflicting,
			},
			{
				Name: eventAbandon,
				Src:  []string{stateSubmitted, stateConflicting},
				Dst:  stateAbandoned,
			},
		},
		fsm.Callbacks{},
	)
}

// inclusionTracker follows one block and the promotions and reattachments issued for it.
type inclusionTracker struct {
	wallet  *Wallet
	blockID tangle.BlockID
	payload ledgerstate.Payload

	// chain holds every issued block in chronological order.
	chain []BlockWithID
	// payloadBlocks holds the block and its reattachments, newest last.
	payloadBlocks tangle.BlockIDs

	stateMachine *fsm.FSM
	lastState    string
}

func newInclusionTracker(wallet *Wallet, blockID tangle.BlockID, block *tangle.Block) *inclusionTracker {
	return &inclusionTracker{
		wallet:        wallet,
		blockID:       blockID,
		payload:       block.Payload,
		chain:         []BlockWithID{{ID: blockID, Block: block}},
		payloadBlocks: tangle.BlockIDs{blockID},
		stateMachine:  newInclusionStateMachine(),
		lastState:     tangle.Pending.String(),
	}
}

func (t *inclusionTracker) run(ctx context.Context, interval time.Duration, maxAttempts int) ([]BlockWithID, error) {
	log := t.wallet.log.With("blockID", t.blockID.Hex())

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, t.cancel(ctx)
		case <-timer.C:
		}

		done, err := t.poll(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			log.Infow("block included", "attempts", attempt, "issuedBlocks", len(t.chain))

			return t.chain, nil
		}

		log.Debugw("block not included yet", "attempt", attempt, "state", t.lastState)
		timer.Reset(interval)
	}

	t.transition(ctx, eventAbandon)
	t.wallet.metrics.InclusionOutcome(metrics.OutcomeTimeout)

	return nil, &clienterrors.InclusionTimeoutError{BlockID: t.blockID.Hex(), Attempts: maxAttempts, LastState: t.lastState}
}

// poll checks the blocks carrying the payload and promotes or reattaches the newest one if it is stale.
func (t *inclusionTracker) poll(ctx context.Context) (included bool, err error) {
	var latestMetadata *tangle.BlockMetadata
	latestMissing := false
	conflicting := make([]*tangle.BlockMetadata, 0)

	for i, blockID := range t.payloadBlocks {
		metadata, metadataErr := t.wallet.connector.BlockMetadata(ctx, blockID)
		if metadataErr != nil {
			if ctx.Err() != nil {
				return false, t.cancel(ctx)
			}
			if !clienterrors.IsNotFound(metadataErr) && !clienterrors.IsTransient(metadataErr) {
				return false, errors.Errorf("failed to retrieve metadata of %s: %w", blockID.Hex(), metadataErr)
			}
			t.wallet.log.Debugw("failed to retrieve block metadata", "blockID", blockID.Hex(), "err", metadataErr)
			if i == len(t.payloadBlocks)-1 && clienterrors.IsNotFound(metadataErr) {
				latestMissing = true
			}

			continue
		}

		switch metadata.InclusionState() {
		case tangle.Confirmed:
			t.lastState = tangle.Confirmed.String()
			t.transition(ctx, eventInclude)
			t.wallet.metrics.InclusionOutcome(metrics.OutcomeIncluded)

			return true, nil
		case tangle.Conflicting:
			conflicting = append(conflicting, metadata)
		}

		if i == len(t.payloadBlocks)-1 {
			latestMetadata = metadata
		}
	}

	// a conflict only counts if no reattachment made it into the ledger
	if len(conflicting) != 0 {
		t.lastState = tangle.Conflicting.String()
		t.transition(ctx, eventConflict)
		t.transition(ctx, eventAbandon)
		t.wallet.metrics.InclusionOutcome(metrics.OutcomeConflicting)

		return false, errors.Errorf("block %s was rejected (%s): %w", t.blockID.Hex(), conflicting[0].ConflictReason, clienterrors.ErrConflictingTransaction)
	}

	if latestMissing {
		t.lastState = "not found"
		return false, t.recover(ctx, true)
	}
	if latestMetadata == nil {
		// the node could not answer, try again in the next attempt
		return false, nil
	}

	t.lastState = latestMetadata.InclusionState().String()
	switch {
	case latestMetadata.ShouldReattach:
		return false, t.recover(ctx, true)
	case latestMetadata.ShouldPromote:
		return false, t.recover(ctx, false)
	default:
		return false, nil
	}
}

// recover reattaches the payload or promotes the newest block carrying it. Blocks without payload can only be
// promoted.
func (t *inclusionTracker) recover(ctx context.Context, reattach bool) (err error) {
	var (
		blockID tangle.BlockID
		block   *tangle.Block
	)

	latest := t.payloadBlocks[len(t.payloadBlocks)-1]
	if reattach && t.payload != nil {
		if blockID, block, err = t.wallet.reattachPayload(ctx, latest, t.payload); err == nil {
			t.payloadBlocks = append(t.payloadBlocks, blockID)
		}
	} else {
		blockID, block, err = t.wallet.Promote(ctx, latest)
	}

	if err != nil {
		if ctx.Err() != nil {
			return t.cancel(ctx)
		}
		if clienterrors.IsTransient(err) {
			t.wallet.log.Warnw("failed to recover stale block", "blockID", latest.Hex(), "err", err)
			return nil
		}

		return err
	}

	t.chain = append(t.chain, BlockWithID{ID: blockID, Block: block})

	return nil
}

func (t *inclusionTracker) cancel(ctx context.Context) error {
	t.transition(ctx, eventAbandon)
	t.wallet.metrics.InclusionOutcome(metrics.OutcomeCanceled)

	return errors.Errorf("stopped waiting for inclusion of %s: %w", t.blockID.Hex(), ctx.Err())
}

func (t *inclusionTracker) transition(ctx context.Context, event string) {
	// the machine has to move even if the caller gave up already
	if err := t.stateMachine.Event(context.WithoutCancel(ctx), event); err != nil {
		t.wallet.log.Debugw("ignored inclusion state transition", "blockID", t.blockID.Hex(), "event", event, "err", err)
	}
}

// State returns the current state of the tracked block.
func (t *inclusionTracker) State() string {
	return t.stateMachine.Current()
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

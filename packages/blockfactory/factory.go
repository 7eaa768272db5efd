package blockfactory

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/metrics"
	"github.com/iotaledger/stardust-client/packages/pow"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

// region Factory //////////////////////////////////////////////////////////////////////////////////////////////////////

// Factory acts as a factory to create new blocks.
type Factory struct {
	tipSelector            TipSelector
	protocolParametersFunc ProtocolParametersFunc
	powProvider            pow.Provider

	log     *zap.SugaredLogger
	metrics *metrics.Metrics

	optsTipSelectionTimeout       time.Duration
	optsTipSelectionRetryInterval time.Duration
}

// NewBlockFactory creates a new block factory.
func NewBlockFactory(tipSelector TipSelector, protocolParametersFunc ProtocolParametersFunc, powProvider pow.Provider, opts ...Option) *Factory {
	f := &Factory{
		tipSelector:                   tipSelector,
		protocolParametersFunc:        protocolParametersFunc,
		powProvider:                   powProvider,
		log:                           zap.NewNop().Sugar(),
		optsTipSelectionTimeout:       10 * time.Second,
		optsTipSelectionRetryInterval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// IssuePayload creates a new block carrying the payload (which may be nil). The given parents are referenced first,
// tip selection is only used if no parents are given. The nonce satisfies the current minimum PoW score of the network.
func (f *Factory) IssuePayload(ctx context.Context, p ledgerstate.Payload, parents ...tangle.BlockID) (*tangle.Block, error) {
	protocolParameters, err := f.protocolParametersFunc(ctx)
	if err != nil {
		return nil, errors.Errorf("cannot retrieve protocol parameters: %w", err)
	}

	if len(parents) == 0 {
		if parents, err = f.tryGetReferences(ctx); err != nil {
			return nil, errors.Errorf("error while trying to get references: %w", err)
		}
	}

	block := tangle.NewBlock(protocolParameters.Version, capParents(parents), p)
	if err = block.SyntacticallyValid(); err != nil {
		return nil, errors.Errorf("there is a problem with the block syntax: %w", err)
	}

	if err = f.doPOW(ctx, block, protocolParameters.MinPoWScore); err != nil {
		return nil, err
	}

	return block, nil
}

func (f *Factory) doPOW(ctx context.Context, block *tangle.Block, minPoWScore uint32) error {
	if minPoWScore == 0 {
		return nil
	}

	start := time.Now()
	nonce, err := f.powProvider.Mine(ctx, block.POWData(), minPoWScore)
	if err != nil {
		return errors.Errorf("failed to do PoW for block: %w", err)
	}
	f.metrics.PoWDone(time.Since(start))
	block.Nonce = nonce

	f.log.Debugw("PoW done", "blockID", block.ID().Hex(), "minPoWScore", minPoWScore, "duration", time.Since(start))

	return nil
}

func (f *Factory) tryGetReferences(ctx context.Context) (references tangle.BlockIDs, err error) {
	references, err = f.getReferences(ctx)
	if err == nil {
		return references, nil
	}
	f.log.Warnw("could not get references", "err", err)

	timeout := time.NewTimer(f.optsTipSelectionTimeout)
	defer timeout.Stop()
	interval := time.NewTicker(f.optsTipSelectionRetryInterval)
	defer interval.Stop()
	for {
		select {
		case <-interval.C:
			references, err = f.getReferences(ctx)
			if err != nil {
				f.log.Warnw("could not get references", "err", err)
				continue
			}

			return references, nil
		case <-timeout.C:
			return nil, errors.Errorf("timeout while trying to select tips: %w", err)
		case <-ctx.Done():
			return nil, errors.Errorf("tip selection aborted: %w", ctx.Err())
		}
	}
}

func (f *Factory) getReferences(ctx context.Context) (tangle.BlockIDs, error) {
	tips, err := f.tipSelector.Tips(ctx)
	if err != nil {
		return nil, err
	}
	if len(tips) == 0 {
		return nil, errors.Errorf("no parents were selected in tip selection")
	}

	return tips, nil
}

// capParents removes duplicates and keeps at most MaxParentsCount parents, preferring the ones listed first.
func capParents(parents tangle.BlockIDs) tangle.BlockIDs {
	capped := make(tangle.BlockIDs, 0, tangle.MaxParentsCount)
	for _, parent := range parents {
		if len(capped) == tangle.MaxParentsCount {
			break
		}
		if !capped.Contains(parent) {
			capped = append(capped, parent)
		}
	}

	return capped
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region TipSelector //////////////////////////////////////////////////////////////////////////////////////////////////

// A TipSelector selects the parents of a new block.
type TipSelector interface {
	Tips(ctx context.Context) (parents tangle.BlockIDs, err error)
}

// The TipSelectorFunc type is an adapter to allow the use of ordinary functions as tip selectors.
type TipSelectorFunc func(ctx context.Context) (parents tangle.BlockIDs, err error)

// Tips calls f().
func (f TipSelectorFunc) Tips(ctx context.Context) (parents tangle.BlockIDs, err error) {
	return f(ctx)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region ProtocolParametersFunc ///////////////////////////////////////////////////////////////////////////////////////

// ProtocolParametersFunc is a function type that returns the current protocol parameters of the network.
type ProtocolParametersFunc func(ctx context.Context) (*jsonmodels.ProtocolParameters, error)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Options //////////////////////////////////////////////////////////////////////////////////////////////////////

// Option is a function setting an option of the Factory.
type Option func(*Factory)

// WithTipSelectionTimeout sets how long tip selection is retried before IssuePayload gives up.
func WithTipSelectionTimeout(timeout time.Duration) Option {
	return func(factory *Factory) {
		factory.optsTipSelectionTimeout = timeout
	}
}

// WithTipSelectionRetryInterval sets the pause between two tip selection attempts.
func WithTipSelectionRetryInterval(interval time.Duration) Option {
	return func(factory *Factory) {
		factory.optsTipSelectionRetryInterval = interval
	}
}

// WithLogger sets the logger of the Factory.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(factory *Factory) {
		factory.log = log
	}
}

// WithMetrics sets the collectors the Factory reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(factory *Factory) {
		factory.metrics = m
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package blockfactory

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/pow"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

func protocolParameters(minPoWScore uint32) ProtocolParametersFunc {
	return func(ctx context.Context) (*jsonmodels.ProtocolParameters, error) {
		return &jsonmodels.ProtocolParameters{Version: 2, MinPoWScore: minPoWScore}, nil
	}
}

func staticTips(tips ...tangle.BlockID) TipSelectorFunc {
	return func(ctx context.Context) (tangle.BlockIDs, error) {
		return tips, nil
	}
}

func TestFactory_IssuePayload(t *testing.T) {
	factory := NewBlockFactory(staticTips(tangle.BlockID{3}, tangle.BlockID{1}), protocolParameters(10), pow.New(2))

	taggedData, err := ledgerstate.NewTaggedData([]byte("tag"), []byte("data"))
	require.NoError(t, err)

	block, err := factory.IssuePayload(context.Background(), taggedData)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), block.ProtocolVersion)
	assert.Equal(t, tangle.BlockIDs{{1}, {3}}, block.Parents)
	assert.True(t, pow.Valid(block.POWData(), block.Nonce, 10))
	assert.NoError(t, block.SyntacticallyValid())
}

func TestFactory_ExplicitParents(t *testing.T) {
	tipsCalled := atomic.NewBool(false)
	tips := TipSelectorFunc(func(ctx context.Context) (tangle.BlockIDs, error) {
		tipsCalled.Store(true)
		return tangle.BlockIDs{{1}}, nil
	})
	factory := NewBlockFactory(tips, protocolParameters(0), pow.New(1))

	parents := make(tangle.BlockIDs, 0, 10)
	for i := 10; i > 0; i-- {
		parents = append(parents, tangle.BlockID{byte(i)})
	}
	parents = append(parents, tangle.BlockID{10})

	block, err := factory.IssuePayload(context.Background(), nil, parents...)
	require.NoError(t, err)
	assert.False(t, tipsCalled.Load())
	assert.Len(t, block.Parents, tangle.MaxParentsCount)
	assert.True(t, block.Parents.Contains(tangle.BlockID{10}), "the first given parent is always kept")
	assert.False(t, block.Parents.Contains(tangle.BlockID{1}))
	assert.Equal(t, uint64(0), block.Nonce)
}

func TestFactory_TipSelectionRetry(t *testing.T) {
	attempts := atomic.NewInt32(0)
	tips := TipSelectorFunc(func(ctx context.Context) (tangle.BlockIDs, error) {
		if attempts.Inc() < 3 {
			return nil, errors.New("no tips yet")
		}
		return tangle.BlockIDs{{1}}, nil
	})

	factory := NewBlockFactory(tips, protocolParameters(0), pow.New(1), WithTipSelectionRetryInterval(time.Millisecond))
	block, err := factory.IssuePayload(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, tangle.BlockIDs{{1}}, block.Parents)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFactory_TipSelectionTimeout(t *testing.T) {
	tips := TipSelectorFunc(func(ctx context.Context) (tangle.BlockIDs, error) {
		return nil, nil
	})

	factory := NewBlockFactory(tips, protocolParameters(0), pow.New(1),
		WithTipSelectionTimeout(20*time.Millisecond),
		WithTipSelectionRetryInterval(5*time.Millisecond),
	)
	_, err := factory.IssuePayload(context.Background(), nil)
	assert.Error(t, err)
}

func TestFactory_PoWError(t *testing.T) {
	failing := pow.ProviderFunc(func(ctx context.Context, powData []byte, targetScore uint32) (uint64, error) {
		return 0, pow.ErrCancelled
	})

	factory := NewBlockFactory(staticTips(tangle.BlockID{1}), protocolParameters(10), failing)
	_, err := factory.IssuePayload(context.Background(), nil)
	assert.True(t, errors.Is(err, pow.ErrCancelled))
}

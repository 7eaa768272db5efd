package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

const testBaseURL = "http://node.test"

func newTestAPI(t *testing.T, options ...Option) *NodeAPI {
	api := NewNodeAPI(testBaseURL, options...)
	httpmock.ActivateNonDefault(api.HTTPClient())
	t.Cleanup(func() {
		httpmock.DeactivateAndReset()
		_ = api.Close()
	})

	return api
}

const testInfo = `{
	"name": "HORNET",
	"version": "2.0.0",
	"status": {"isHealthy": true, "latestMilestoneIndex": 10, "confirmedMilestoneIndex": 10},
	"protocol": {
		"version": 2,
		"networkName": "testnet",
		"bech32Hrp": "atoi",
		"minPowScore": 1000,
		"belowMaxDepth": 15,
		"rentStructure": {"vByteCost": 100, "vByteFactorData": 1, "vByteFactorKey": 10},
		"tokenSupply": "1450896407249092"
	}
}`

func TestNodeAPI_InfoIsCached(t *testing.T) {
	api := newTestAPI(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+routeInfo, httpmock.NewStringResponder(http.StatusOK, testInfo).HeaderSet(http.Header{"Content-Type": {contentTypeJSON}}))

	info, err := api.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "atoi", info.Protocol.Bech32HRP)
	assert.Equal(t, uint32(1000), info.Protocol.MinPoWScore)
	assert.Equal(t, uint32(100), info.Protocol.RentStructure.ToRentStructure().VByteCost)

	parameters, err := api.ProtocolParameters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledgerstate.NetworkIDFromName("testnet"), parameters.NetworkID())
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	_, err = api.RefreshInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}

func TestNodeAPI_Health(t *testing.T) {
	api := newTestAPI(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+routeHealth, httpmock.NewStringResponder(http.StatusServiceUnavailable, ""))
	healthy, err := api.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, healthy)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+routeHealth, httpmock.NewStringResponder(http.StatusOK, ""))
	healthy, err = api.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)
}

func TestNodeAPI_Errors(t *testing.T) {
	api := newTestAPI(t)

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+routeTips,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"error":{"code":"503","message":"node is not synced"}}`))
	_, err := api.Tips(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, clienterrors.ErrNode))
	assert.True(t, clienterrors.IsTransient(err))

	var nodeErr *clienterrors.NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, http.StatusServiceUnavailable, nodeErr.StatusCode)
	assert.Equal(t, "node is not synced", nodeErr.Message)

	blockID := tangle.BlockID{1}
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+blockRoute(routeBlockMetadata, blockID),
		httpmock.NewStringResponder(http.StatusNotFound, `{"error":{"code":"404","message":"block not found"}}`))
	_, err = api.BlockMetadata(context.Background(), blockID)
	assert.True(t, clienterrors.IsNotFound(err))
	assert.False(t, clienterrors.IsTransient(err))

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+routeInfo, httpmock.NewErrorResponder(errors.New("connection refused")))
	_, err = api.Info(context.Background())
	assert.True(t, clienterrors.IsTransient(err))
}

func TestNodeAPI_PostBlock(t *testing.T) {
	api := newTestAPI(t)
	block := tangle.NewBlock(2, tangle.BlockIDs{{1}}, nil)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+routeBlocks, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Content-Type") != MIMEApplicationVendorIOTASerializerV1 {
			return httpmock.NewStringResponse(http.StatusBadRequest, `{"error":{"message":"wrong content type"}}`), nil
		}

		return httpmock.NewJsonResponse(http.StatusCreated, map[string]string{"blockId": block.ID().Hex()})
	})

	blockID, err := api.PostBlock(context.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, block.ID(), blockID)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+routeBlocks,
		httpmock.NewStringResponder(http.StatusBadRequest, `{"error":{"code":"400","message":"block already known"}}`))
	blockID, err = api.PostBlock(context.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, block.ID(), blockID)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+routeBlocks,
		httpmock.NewStringResponder(http.StatusBadRequest, `{"error":{"code":"400","message":"invalid parents"}}`))
	_, err = api.PostBlock(context.Background(), block)
	assert.True(t, errors.Is(err, clienterrors.ErrNode))
}

func TestNodeAPI_Block(t *testing.T) {
	api := newTestAPI(t)
	block := tangle.NewBlock(2, tangle.BlockIDs{{1}, {2}}, nil)
	block.Nonce = 7

	httpmock.RegisterResponder(http.MethodGet, testBaseURL+blockRoute(routeBlock, block.ID()), httpmock.NewBytesResponder(http.StatusOK, block.Bytes()))

	fetched, err := api.Block(context.Background(), block.ID())
	require.NoError(t, err)
	assert.Equal(t, block.ID(), fetched.ID())
}

func TestNodeAPI_OutputIDsFollowsCursor(t *testing.T) {
	api := newTestAPI(t)

	first := ledgerstate.NewOutputID(ledgerstate.TransactionID{1}, 0)
	second := ledgerstate.NewOutputID(ledgerstate.TransactionID{2}, 1)

	httpmock.RegisterResponderWithQuery(http.MethodGet, testBaseURL+routeBasicOutputs, "address=atoi1test",
		httpmock.NewStringResponder(http.StatusOK, `{"ledgerIndex":1,"pageSize":1,"items":["`+first.Hex()+`"],"cursor":"next"}`).HeaderSet(http.Header{"Content-Type": {contentTypeJSON}}))
	httpmock.RegisterResponderWithQuery(http.MethodGet, testBaseURL+routeBasicOutputs, "address=atoi1test&cursor=next",
		httpmock.NewStringResponder(http.StatusOK, `{"ledgerIndex":1,"pageSize":1,"items":["`+second.Hex()+`"]}`).HeaderSet(http.Header{"Content-Type": {contentTypeJSON}}))

	outputIDs, err := api.BasicOutputIDs(context.Background(), &OutputQuery{Address: "atoi1test"})
	require.NoError(t, err)
	assert.Equal(t, []ledgerstate.OutputID{first, second}, outputIDs)
}

func TestNodeAPI_RateLimitHonoursContext(t *testing.T) {
	api := newTestAPI(t, WithRateLimit(0.001, 1))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+routeHealth, httpmock.NewStringResponder(http.StatusOK, ""))

	_, err := api.Health(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = api.Health(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

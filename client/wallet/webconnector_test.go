package wallet

import (
	"context"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/client"
	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/client/wallet/packages/transactionoptions"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

const testNodeURL = "http://node.test"

const testNodeInfo = `{
	"name": "HORNET",
	"version": "2.0.0",
	"status": {"isHealthy": true, "latestMilestoneIndex": 10, "confirmedMilestoneIndex": 10},
	"protocol": {
		"version": 2,
		"networkName": "testnet",
		"bech32Hrp": "atoi",
		"minPowScore": 0,
		"belowMaxDepth": 15,
		"rentStructure": {"vByteCost": 1, "vByteFactorData": 1, "vByteFactorKey": 10},
		"tokenSupply": "1450896407249092"
	}
}`

func newTestWebConnector(t *testing.T) *WebConnector {
	api := client.NewNodeAPI(testNodeURL)
	httpmock.ActivateNonDefault(api.HTTPClient())
	t.Cleanup(func() {
		httpmock.DeactivateAndReset()
		_ = api.Close()
	})

	httpmock.RegisterResponder(http.MethodGet, testNodeURL+"/api/core/v2/info",
		httpmock.NewStringResponder(http.StatusOK, testNodeInfo).HeaderSet(http.Header{"Content-Type": {"application/json"}}))

	return NewWebConnectorWithAPI(api)
}

// registerIndexedOutputs makes the indexer list the given output ids for every address.
func registerIndexedOutputs(outputIDs ...ledgerstate.OutputID) {
	items := make([]string, len(outputIDs))
	for i, outputID := range outputIDs {
		items[i] = outputID.Hex()
	}

	httpmock.RegisterResponder(http.MethodGet, testNodeURL+"/api/indexer/v1/outputs/basic",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, &jsonmodels.OutputIDsResponse{LedgerIndex: 10, PageSize: 100, Items: items}))
}

func registerOutput(outputID ledgerstate.OutputID, output ledgerstate.Output, spent bool) {
	response := &jsonmodels.OutputResponse{
		Metadata: &jsonmodels.OutputMetadata{
			BlockID:       tangle.BlockID{1}.Hex(),
			TransactionID: outputID.TransactionID().Hex(),
			OutputIndex:   outputID.Index(),
			IsSpent:       spent,
			LedgerIndex:   10,
		},
		Output: jsonmodels.NewOutput(output),
	}
	if spent {
		response.Metadata.TransactionIDSpent = ledgerstate.TransactionID{0xaa}.Hex()
	}

	httpmock.RegisterResponder(http.MethodGet, testNodeURL+"/api/core/v2/outputs/"+outputID.Hex(), httpmock.NewJsonResponderOrPanic(http.StatusOK, response))
}

func registerPrunedOutput(outputID ledgerstate.OutputID) {
	httpmock.RegisterResponder(http.MethodGet, testNodeURL+"/api/core/v2/outputs/"+outputID.Hex(),
		httpmock.NewStringResponder(http.StatusNotFound, `{"error":{"code":"404","message":"output not found"}}`))
}

func TestWebConnector_UnspentOutputsSkipsConsumedOutputs(t *testing.T) {
	connector := newTestWebConnector(t)
	owner := ledgerstate.NewAliasAddress(ledgerstate.AliasID{7})

	unspentID := ledgerstate.NewOutputID(ledgerstate.TransactionID{1}, 0)
	spentID := ledgerstate.NewOutputID(ledgerstate.TransactionID{2}, 0)
	prunedID := ledgerstate.NewOutputID(ledgerstate.TransactionID{3}, 1)

	registerIndexedOutputs(spentID, unspentID, prunedID)
	registerOutput(unspentID, basicOutput(owner, 1_000), false)
	registerOutput(spentID, basicOutput(owner, 2_000), true)
	registerPrunedOutput(prunedID)

	utxos, err := connector.UnspentOutputs(context.Background(), owner.Bech32(testHRP))
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	assert.Equal(t, unspentID, utxos[0].ID)

	// explicitly requested outputs are not skipped
	_, err = connector.Outputs(context.Background(), []ledgerstate.OutputID{unspentID, spentID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputSpent))
	assert.False(t, errors.Is(err, clienterrors.ErrValidation))
	assert.Equal(t, "OutputSpentError", clienterrors.Kind(err))

	_, err = connector.Output(context.Background(), prunedID)
	assert.True(t, clienterrors.IsNotFound(err))
}

func TestWebConnector_BuildTransactionWithStaleIndexer(t *testing.T) {
	connector := newTestWebConnector(t)

	secretManager, err := secretmanager.NewSeedSecretManagerFromHex(testSeed)
	require.NoError(t, err)
	wallet := New(WithWebConnector(connector), WithSecretManager(secretManager), WithBech32HRP(testHRP))
	addresses := testAddresses(t, wallet, 1)

	unspentID := ledgerstate.NewOutputID(ledgerstate.TransactionID{1}, 0)
	spentID := ledgerstate.NewOutputID(ledgerstate.TransactionID{2}, 0)
	registerIndexedOutputs(spentID, unspentID)
	registerOutput(unspentID, basicOutput(addresses[0].Address, 10_000), false)
	registerOutput(spentID, basicOutput(addresses[0].Address, 20_000), true)

	transaction, err := wallet.BuildTransaction(context.Background(), []ledgerstate.Output{basicOutput(addresses[0].Address, 1_000)},
		transactionoptions.AddressRange(0, 1))
	require.NoError(t, err)
	require.Len(t, transaction.Essence.Inputs, 1)
	assert.Equal(t, unspentID, transaction.Essence.Inputs[0].OutputID())

	// an explicit input that was spent in the meantime is reported as such
	_, err = wallet.BuildTransaction(context.Background(), []ledgerstate.Output{basicOutput(addresses[0].Address, 1_000)},
		transactionoptions.Inputs(spentID))
	assert.True(t, errors.Is(err, clienterrors.ErrOutputSpent))
	assert.False(t, errors.Is(err, clienterrors.ErrValidation))
}

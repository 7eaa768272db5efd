package client

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

const (
	routeOutput         = "/api/core/v2/outputs/{outputId}"
	routeOutputMetadata = "/api/core/v2/outputs/{outputId}/metadata"

	routeBasicOutputs   = "/api/indexer/v1/outputs/basic"
	routeAliasOutputs   = "/api/indexer/v1/outputs/alias"
	routeAliasOutput    = "/api/indexer/v1/outputs/alias/{aliasId}"
	routeFoundryOutputs = "/api/indexer/v1/outputs/foundry"
	routeFoundryOutput  = "/api/indexer/v1/outputs/foundry/{foundryId}"
	routeNFTOutputs     = "/api/indexer/v1/outputs/nft"
	routeNFTOutput      = "/api/indexer/v1/outputs/nft/{nftId}"
)

// region Outputs //////////////////////////////////////////////////////////////////////////////////////////////////////

// Output gets the output with the given id together with its metadata.
func (api *NodeAPI) Output(ctx context.Context, outputID ledgerstate.OutputID) (*ledgerstate.UTXO, *jsonmodels.OutputMetadata, error) {
	res := &jsonmodels.OutputResponse{}
	if err := api.get(ctx, replaceParam(routeOutput, "{outputId}", outputID.Hex()), nil, res); err != nil {
		return nil, nil, err
	}

	utxo, err := res.ToUTXO()
	if err != nil {
		return nil, nil, errors.Errorf("node returned an invalid output: %w", err)
	}
	if utxo.ID != outputID {
		return nil, nil, errors.Errorf("node returned output %s instead of %s", utxo.ID.Hex(), outputID.Hex())
	}

	return utxo, res.Metadata, nil
}

// OutputMetadata gets the metadata of the output with the given id.
func (api *NodeAPI) OutputMetadata(ctx context.Context, outputID ledgerstate.OutputID) (*jsonmodels.OutputMetadata, error) {
	res := &jsonmodels.OutputMetadata{}
	if err := api.get(ctx, replaceParam(routeOutputMetadata, "{outputId}", outputID.Hex()), nil, res); err != nil {
		return nil, err
	}

	return res, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Indexer //////////////////////////////////////////////////////////////////////////////////////////////////////

// OutputQuery filters the outputs returned by the indexer. Empty fields do not filter.
type OutputQuery struct {
	// Address is the bech32 encoded owner (unlock address) of the outputs.
	Address string

	HasNativeTokens         *bool
	HasStorageDepositReturn *bool
	HasTimelock             *bool
	HasExpiration           *bool
	StateController         string
	Governor                string
	Issuer                  string
	Sender                  string
	Tag                     string
	AliasAddress            string

	// PageSize is the number of ids requested per page. Zero uses the default of the node.
	PageSize int
}

func (q *OutputQuery) params() map[string]string {
	params := make(map[string]string)
	if q == nil {
		return params
	}

	setString := func(key, value string) {
		if value != "" {
			params[key] = value
		}
	}
	setBool := func(key string, value *bool) {
		if value != nil {
			params[key] = strconv.FormatBool(*value)
		}
	}

	setString("address", q.Address)
	setBool("hasNativeTokens", q.HasNativeTokens)
	setBool("hasStorageDepositReturn", q.HasStorageDepositReturn)
	setBool("hasTimelock", q.HasTimelock)
	setBool("hasExpiration", q.HasExpiration)
	setString("stateController", q.StateController)
	setString("governor", q.Governor)
	setString("issuer", q.Issuer)
	setString("sender", q.Sender)
	setString("tag", q.Tag)
	setString("aliasAddress", q.AliasAddress)
	if q.PageSize > 0 {
		params["pageSize"] = strconv.Itoa(q.PageSize)
	}

	return params
}

// BasicOutputIDs returns the ids of all unspent basic outputs matching the query.
func (api *NodeAPI) BasicOutputIDs(ctx context.Context, query *OutputQuery) ([]ledgerstate.OutputID, error) {
	return api.outputIDs(ctx, routeBasicOutputs, query)
}

// AliasOutputIDs returns the ids of all unspent alias outputs matching the query.
func (api *NodeAPI) AliasOutputIDs(ctx context.Context, query *OutputQuery) ([]ledgerstate.OutputID, error) {
	return api.outputIDs(ctx, routeAliasOutputs, query)
}

// FoundryOutputIDs returns the ids of all unspent foundry outputs matching the query.
func (api *NodeAPI) FoundryOutputIDs(ctx context.Context, query *OutputQuery) ([]ledgerstate.OutputID, error) {
	return api.outputIDs(ctx, routeFoundryOutputs, query)
}

// NFTOutputIDs returns the ids of all unspent NFT outputs matching the query.
func (api *NodeAPI) NFTOutputIDs(ctx context.Context, query *OutputQuery) ([]ledgerstate.OutputID, error) {
	return api.outputIDs(ctx, routeNFTOutputs, query)
}

// AliasOutputID returns the id of the current output of the alias chain.
func (api *NodeAPI) AliasOutputID(ctx context.Context, aliasID ledgerstate.AliasID) (ledgerstate.OutputID, error) {
	return api.singleOutputID(ctx, replaceParam(routeAliasOutput, "{aliasId}", aliasID.Hex()))
}

// FoundryOutputID returns the id of the current output of the foundry.
func (api *NodeAPI) FoundryOutputID(ctx context.Context, foundryID ledgerstate.FoundryID) (ledgerstate.OutputID, error) {
	return api.singleOutputID(ctx, replaceParam(routeFoundryOutput, "{foundryId}", foundryID.Hex()))
}

// NFTOutputID returns the id of the current output of the NFT.
func (api *NodeAPI) NFTOutputID(ctx context.Context, nftID ledgerstate.NFTID) (ledgerstate.OutputID, error) {
	return api.singleOutputID(ctx, replaceParam(routeNFTOutput, "{nftId}", nftID.Hex()))
}

// outputIDs follows the cursor of the indexer until all pages were read.
func (api *NodeAPI) outputIDs(ctx context.Context, route string, query *OutputQuery) ([]ledgerstate.OutputID, error) {
	var outputIDs []ledgerstate.OutputID

	params := query.params()
	for {
		res := &jsonmodels.OutputIDsResponse{}
		if err := api.get(ctx, route, params, res); err != nil {
			return nil, err
		}

		pageIDs, err := res.ToOutputIDs()
		if err != nil {
			return nil, errors.Errorf("indexer returned invalid output ids: %w", err)
		}
		outputIDs = append(outputIDs, pageIDs...)

		if res.Cursor == "" || len(pageIDs) == 0 {
			return outputIDs, nil
		}
		params["cursor"] = res.Cursor
	}
}

func (api *NodeAPI) singleOutputID(ctx context.Context, route string) (ledgerstate.OutputID, error) {
	res := &jsonmodels.OutputIDsResponse{}
	if err := api.get(ctx, route, nil, res); err != nil {
		return ledgerstate.EmptyOutputID, err
	}

	outputIDs, err := res.ToOutputIDs()
	if err != nil {
		return ledgerstate.EmptyOutputID, errors.Errorf("indexer returned invalid output ids: %w", err)
	}
	if len(outputIDs) != 1 {
		return ledgerstate.EmptyOutputID, errors.Errorf("indexer returned %d output ids for %s instead of one", len(outputIDs), route)
	}

	return outputIDs[0], nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

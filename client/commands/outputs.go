package commands

import (
	"context"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// maxParallelOutputRequests limits the concurrent lookups of getOutputs.
const maxParallelOutputRequests = 16

// region build*Output /////////////////////////////////////////////////////////////////////////////////////////////////

// outputParams holds the fields that all output kinds share.
type outputParams struct {
	amount                   uint64
	useMinimumStorageDeposit bool
	nativeTokens             ledgerstate.NativeTokens
	unlockConditions         ledgerstate.UnlockConditions
	features                 ledgerstate.Features
	immutableFeatures        ledgerstate.Features
	rentStructure            *ledgerstate.RentStructure
}

func (d *Dispatcher) buildBasicOutput(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request, params, err := d.decodeBuildOutputRequest(ctx, data)
	if err != nil {
		return "", nil, err
	}
	if len(request.ImmutableFeatures) != 0 {
		return "", nil, clienterrors.OutputValidationf("basic outputs have no immutable features")
	}

	output, err := ledgerstate.BuildBasicOutput(&ledgerstate.BasicOutputParams{
		Amount:                   params.amount,
		UseMinimumStorageDeposit: params.useMinimumStorageDeposit,
		NativeTokens:             params.nativeTokens,
		UnlockConditions:         params.unlockConditions,
		Features:                 params.features,
	}, params.rentStructure)
	if err != nil {
		return "", nil, err
	}

	return "builtOutput", jsonmodels.NewOutput(output), nil
}

func (d *Dispatcher) buildAliasOutput(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request, params, err := d.decodeBuildOutputRequest(ctx, data)
	if err != nil {
		return "", nil, err
	}

	var aliasID ledgerstate.AliasID
	if request.AliasID != "" {
		if aliasID, err = ledgerstate.AliasIDFromHex(request.AliasID); err != nil {
			return "", nil, err
		}
	}
	stateMetadata, err := jsonmodels.DecodeHex(request.StateMetadata)
	if err != nil {
		return "", nil, err
	}

	output, err := ledgerstate.BuildAliasOutput(&ledgerstate.AliasOutputParams{
		Amount:                   params.amount,
		UseMinimumStorageDeposit: params.useMinimumStorageDeposit,
		NativeTokens:             params.nativeTokens,
		AliasID:                  aliasID,
		StateIndex:               request.StateIndex,
		StateMetadata:            stateMetadata,
		FoundryCounter:           request.FoundryCounter,
		UnlockConditions:         params.unlockConditions,
		Features:                 params.features,
		ImmutableFeatures:        params.immutableFeatures,
	}, params.rentStructure)
	if err != nil {
		return "", nil, err
	}

	return "builtOutput", jsonmodels.NewOutput(output), nil
}

func (d *Dispatcher) buildFoundryOutput(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request, params, err := d.decodeBuildOutputRequest(ctx, data)
	if err != nil {
		return "", nil, err
	}

	tokenScheme, err := request.TokenScheme.ToTokenScheme()
	if err != nil {
		return "", nil, err
	}

	output, err := ledgerstate.BuildFoundryOutput(&ledgerstate.FoundryOutputParams{
		Amount:                   params.amount,
		UseMinimumStorageDeposit: params.useMinimumStorageDeposit,
		NativeTokens:             params.nativeTokens,
		SerialNumber:             request.SerialNumber,
		TokenScheme:              tokenScheme,
		UnlockConditions:         params.unlockConditions,
		Features:                 params.features,
		ImmutableFeatures:        params.immutableFeatures,
	}, params.rentStructure)
	if err != nil {
		return "", nil, err
	}

	return "builtOutput", jsonmodels.NewOutput(output), nil
}

func (d *Dispatcher) buildNFTOutput(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request, params, err := d.decodeBuildOutputRequest(ctx, data)
	if err != nil {
		return "", nil, err
	}

	var nftID ledgerstate.NFTID
	if request.NFTID != "" {
		if nftID, err = ledgerstate.NFTIDFromHex(request.NFTID); err != nil {
			return "", nil, err
		}
	}

	output, err := ledgerstate.BuildNFTOutput(&ledgerstate.NFTOutputParams{
		Amount:                   params.amount,
		UseMinimumStorageDeposit: params.useMinimumStorageDeposit,
		NativeTokens:             params.nativeTokens,
		NFTID:                    nftID,
		UnlockConditions:         params.unlockConditions,
		Features:                 params.features,
		ImmutableFeatures:        params.immutableFeatures,
	}, params.rentStructure)
	if err != nil {
		return "", nil, err
	}

	return "builtOutput", jsonmodels.NewOutput(output), nil
}

// decodeBuildOutputRequest parses the shared fields of the build*Output commands. A missing amount selects the minimum
// storage deposit.
func (d *Dispatcher) decodeBuildOutputRequest(ctx context.Context, data jsoniter.RawMessage) (request *jsonmodels.BuildOutputRequest, params *outputParams, err error) {
	request = new(jsonmodels.BuildOutputRequest)
	if err = decode(data, request); err != nil {
		return nil, nil, err
	}

	params = &outputParams{useMinimumStorageDeposit: request.Amount == ""}
	if !params.useMinimumStorageDeposit {
		if params.amount, err = jsonmodels.ParseAmount(request.Amount); err != nil {
			return nil, nil, err
		}
	}
	if params.nativeTokens, err = jsonmodels.ToNativeTokens(request.NativeTokens); err != nil {
		return nil, nil, err
	}
	if params.unlockConditions, err = jsonmodels.ToUnlockConditions(request.UnlockConditions); err != nil {
		return nil, nil, err
	}
	if params.features, err = jsonmodels.ToFeatures(request.Features); err != nil {
		return nil, nil, err
	}
	if params.immutableFeatures, err = jsonmodels.ToFeatures(request.ImmutableFeatures); err != nil {
		return nil, nil, err
	}
	if params.rentStructure, err = d.rentStructure(ctx, request.RentStructure); err != nil {
		return nil, nil, err
	}

	return request, params, nil
}

// rentStructure returns the requested rent structure or the one of the connected network.
func (d *Dispatcher) rentStructure(ctx context.Context, requested *jsonmodels.RentStructure) (*ledgerstate.RentStructure, error) {
	if requested != nil {
		return requested.ToRentStructure(), nil
	}
	if d.wallet.Offline() {
		return nil, clienterrors.Validationf("an offline wallet needs an explicit rent structure")
	}

	protocolParameters, err := d.wallet.Connector().ProtocolParameters(ctx)
	if err != nil {
		return nil, errors.Errorf("failed to retrieve the rent structure: %w", err)
	}

	return protocolParameters.RentStructure.ToRentStructure(), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region getOutputs ///////////////////////////////////////////////////////////////////////////////////////////////////

// getOutputs fetches the outputs concurrently. The result has the order of the requested ids.
func (d *Dispatcher) getOutputs(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	if err := d.requireOnline(); err != nil {
		return "", nil, err
	}

	request := new(jsonmodels.GetOutputsRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	outputIDs := make([]ledgerstate.OutputID, len(request.OutputIDs))
	for i, outputIDHex := range request.OutputIDs {
		outputID, err := ledgerstate.OutputIDFromHex(outputIDHex)
		if err != nil {
			return "", nil, err
		}
		outputIDs[i] = outputID
	}

	outputs := make([]*jsonmodels.OutputWithID, len(outputIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelOutputRequests)
	for i, outputID := range outputIDs {
		i, outputID := i, outputID
		group.Go(func() error {
			utxo, err := d.wallet.Connector().Output(groupCtx, outputID)
			if err != nil {
				return errors.Errorf("failed to fetch output %s: %w", outputID.Hex(), err)
			}
			outputs[i] = &jsonmodels.OutputWithID{OutputID: outputID.Hex(), Output: jsonmodels.NewOutput(utxo.Output)}

			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", nil, err
	}

	return "outputs", outputs, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package commands

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/iotaledger/stardust-client/client/wallet/packages/consolidateoptions"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

func (d *Dispatcher) buildAndPostBlock(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.BuildAndPostBlockRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	payload, err := decodePayload(request)
	if err != nil {
		return "", nil, err
	}
	parents, err := tangle.BlockIDsFromHex(request.Parents)
	if err != nil {
		return "", nil, err
	}

	_, block, err := d.wallet.BuildAndPostBlock(ctx, payload, parents...)
	if err != nil {
		return "", nil, err
	}

	return "block", jsonmodels.NewBlock(block), nil
}

func (d *Dispatcher) postBlock(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.PostBlockRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}
	if request.Block == nil {
		return "", nil, clienterrors.Validationf("missing block")
	}

	block, err := request.Block.ToBlock()
	if err != nil {
		return "", nil, err
	}

	blockID, err := d.wallet.PostBlock(ctx, block)
	if err != nil {
		return "", nil, err
	}

	return "blockId", blockID.Hex(), nil
}

func (d *Dispatcher) retryUntilIncluded(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.RetryUntilIncludedRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	blockID, err := tangle.BlockIDFromHex(request.BlockID)
	if err != nil {
		return "", nil, err
	}

	chain, err := d.wallet.RetryUntilIncluded(ctx, blockID, time.Duration(request.Interval)*time.Second, request.MaxAttempts)
	if err != nil {
		return "", nil, err
	}

	blocks := make([]*jsonmodels.Block, len(chain))
	for i, blockWithID := range chain {
		blocks[i] = jsonmodels.NewBlock(blockWithID.Block)
	}

	return "retryUntilIncludedSuccessful", blocks, nil
}

func (d *Dispatcher) consolidateFunds(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.ConsolidateFundsRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	options := []consolidateoptions.ConsolidateFundsOption{consolidateoptions.WaitForInclusion(request.WaitForInclusion)}
	if request.AddressEnd != 0 || request.AddressStart != 0 {
		options = append(options, consolidateoptions.AddressRange(request.AddressStart, request.AddressEnd))
	}
	if request.AccountIndex != nil {
		options = append(options, consolidateoptions.AccountIndex(*request.AccountIndex))
	}
	if request.Parallelism != 0 {
		options = append(options, consolidateoptions.Parallelism(request.Parallelism))
	}

	target, err := d.wallet.ConsolidateFunds(ctx, options...)
	if err != nil {
		return "", nil, err
	}

	return "consolidatedFunds", target.Bech32, nil
}

// decodePayload returns the payload of the request. A missing payload is a nil interface, not a typed nil.
func decodePayload(request *jsonmodels.BuildAndPostBlockRequest) (ledgerstate.Payload, error) {
	switch {
	case request.Payload != "":
		payloadBytes, err := jsonmodels.DecodeHex(request.Payload)
		if err != nil {
			return nil, err
		}
		payload, err := ledgerstate.PayloadFromBytes(payloadBytes)
		if err != nil {
			return nil, clienterrors.Validationf("invalid payload: %v", err)
		}

		return payload, nil
	case request.TaggedData != nil:
		tag, err := jsonmodels.DecodeHex(request.TaggedData.Tag)
		if err != nil {
			return nil, err
		}
		taggedDataBytes, err := jsonmodels.DecodeHex(request.TaggedData.Data)
		if err != nil {
			return nil, err
		}

		taggedData, err := ledgerstate.NewTaggedData(tag, taggedDataBytes)
		if err != nil {
			return nil, err
		}

		return taggedData, nil
	default:
		return nil, nil
	}
}

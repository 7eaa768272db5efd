package commands

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

func (d *Dispatcher) generateAddresses(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.GenerateAddressesRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	accountIndex := d.wallet.AccountIndex()
	if request.AccountIndex != nil {
		accountIndex = *request.AccountIndex
	}

	addresses, err := d.wallet.GenerateAccountAddresses(ctx, accountIndex, request.Start, request.End, request.Internal, request.Bech32HRP)
	if err != nil {
		return "", nil, err
	}

	generated := make([]*jsonmodels.GeneratedAddress, len(addresses))
	for i, addr := range addresses {
		generated[i] = &jsonmodels.GeneratedAddress{Address: addr.Bech32, Path: addr.Path.String()}
	}

	return "generatedAddresses", generated, nil
}

func (d *Dispatcher) hexToBech32(ctx context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.HexToBech32Request)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	hrp := request.Bech32HRP
	if hrp == "" {
		var err error
		if hrp, err = d.wallet.Bech32HRP(ctx); err != nil {
			return "", nil, err
		}
	}

	bech32, err := ledgerstate.HexToBech32(request.Hex, hrp)
	if err != nil {
		return "", nil, err
	}

	return "bech32Address", bech32, nil
}

func (d *Dispatcher) bech32ToHex(_ context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.Bech32ToHexRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	hexDigest, err := ledgerstate.Bech32ToHex(request.Bech32)
	if err != nil {
		return "", nil, err
	}

	return "hexAddress", hexDigest, nil
}

func (d *Dispatcher) isAddressValid(_ context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.IsAddressValidRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	return "bool", ledgerstate.IsAddressValid(request.Address), nil
}

func (d *Dispatcher) computeAliasID(_ context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	outputID, err := decodeChainOrigin(data)
	if err != nil {
		return "", nil, err
	}

	return "aliasId", ledgerstate.ComputeAliasID(outputID).Hex(), nil
}

func (d *Dispatcher) computeNFTID(_ context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	outputID, err := decodeChainOrigin(data)
	if err != nil {
		return "", nil, err
	}

	return "nftId", ledgerstate.ComputeNFTID(outputID).Hex(), nil
}

// computeFoundryID accepts the controlling alias as bech32 address or as hex encoded AliasID.
func (d *Dispatcher) computeFoundryID(_ context.Context, data jsoniter.RawMessage) (string, interface{}, error) {
	request := new(jsonmodels.ComputeFoundryIDRequest)
	if err := decode(data, request); err != nil {
		return "", nil, err
	}

	var aliasAddress *ledgerstate.AliasAddress
	if strings.HasPrefix(request.AliasAddress, "0x") {
		aliasID, err := ledgerstate.AliasIDFromHex(request.AliasAddress)
		if err != nil {
			return "", nil, err
		}
		aliasAddress = ledgerstate.NewAliasAddress(aliasID)
	} else {
		_, parsed, err := ledgerstate.ParseBech32(request.AliasAddress)
		if err != nil {
			return "", nil, err
		}
		var isAlias bool
		if aliasAddress, isAlias = parsed.(*ledgerstate.AliasAddress); !isAlias {
			return "", nil, clienterrors.AddressFormatf("%s is not an alias address", request.AliasAddress)
		}
	}

	return "foundryId", ledgerstate.ComputeFoundryID(aliasAddress, request.SerialNumber, ledgerstate.TokenSchemeType(request.TokenSchemeType)).Hex(), nil
}

func decodeChainOrigin(data jsoniter.RawMessage) (ledgerstate.OutputID, error) {
	request := new(jsonmodels.ComputeChainIDRequest)
	if err := decode(data, request); err != nil {
		return ledgerstate.OutputID{}, err
	}

	return ledgerstate.OutputIDFromHex(request.OutputID)
}

package jsonmodels

import (
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/crypto/ed25519"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func testAddress(seed byte) ledgerstate.Address {
	seedBytes := make([]byte, 32)
	seedBytes[0] = seed

	return ledgerstate.NewEd25519Address(ed25519.PrivateKeyFromSeed(seedBytes).Public())
}

func TestOutput_BasicRoundTrip(t *testing.T) {
	owner := testAddress(1)
	tokenID := ledgerstate.ComputeFoundryID(ledgerstate.NewAliasAddress(ledgerstate.AliasID{7}), 1, ledgerstate.SimpleTokenSchemeType)

	output := &ledgerstate.BasicOutput{
		Amount:       1000000,
		NativeTokens: ledgerstate.NativeTokens{ledgerstate.NewNativeToken(tokenID, big.NewInt(255))},
		Conditions: ledgerstate.UnlockConditions{
			&ledgerstate.AddressUnlockCondition{Address: owner},
			&ledgerstate.StorageDepositReturnUnlockCondition{ReturnAddress: testAddress(2), Amount: 42600},
			&ledgerstate.ExpirationUnlockCondition{ReturnAddress: testAddress(2), UnixTime: 100},
		},
		Features: ledgerstate.Features{
			&ledgerstate.MetadataFeature{Data: []byte("hello")},
			&ledgerstate.TagFeature{Tag: []byte("tag")},
		},
	}

	encoded, err := json.Marshal(NewOutput(output))
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"amount":"1000000"`)
	assert.Contains(t, string(encoded), `"amount":"0xff"`)
	assert.Contains(t, string(encoded), `"pubKeyHash":"`+EncodeHex(owner.Digest())+`"`)

	decoded := &Output{}
	require.NoError(t, json.Unmarshal(encoded, decoded))
	restored, err := decoded.ToOutput()
	require.NoError(t, err)
	assert.Equal(t, output.Bytes(), restored.Bytes())
}

func TestOutput_ChainOutputsRoundTrip(t *testing.T) {
	aliasAddress := ledgerstate.NewAliasAddress(ledgerstate.AliasID{9})

	outputs := []ledgerstate.Output{
		&ledgerstate.AliasOutput{
			Amount:         500000,
			StateIndex:     3,
			StateMetadata:  []byte{1, 2, 3},
			FoundryCounter: 1,
			Conditions: ledgerstate.UnlockConditions{
				&ledgerstate.StateControllerAddressUnlockCondition{Address: testAddress(1)},
				&ledgerstate.GovernorAddressUnlockCondition{Address: testAddress(2)},
			},
			ImmutableFeatures: ledgerstate.Features{&ledgerstate.IssuerFeature{Address: testAddress(3)}},
		},
		&ledgerstate.FoundryOutput{
			Amount:       500000,
			SerialNumber: 1,
			TokenScheme:  ledgerstate.NewSimpleTokenScheme(big.NewInt(10), big.NewInt(2), big.NewInt(1000)),
			Conditions: ledgerstate.UnlockConditions{
				&ledgerstate.ImmutableAliasAddressUnlockCondition{Address: aliasAddress},
			},
		},
		&ledgerstate.NFTOutput{
			Amount: 500000,
			NFTID:  ledgerstate.NFTID{4},
			Conditions: ledgerstate.UnlockConditions{
				&ledgerstate.AddressUnlockCondition{Address: aliasAddress},
				&ledgerstate.TimelockUnlockCondition{UnixTime: 50},
			},
			Features: ledgerstate.Features{&ledgerstate.SenderFeature{Address: testAddress(1)}},
		},
	}

	for _, output := range outputs {
		t.Run(output.Type().String(), func(t *testing.T) {
			encoded, err := json.Marshal(NewOutput(output))
			require.NoError(t, err)

			decoded := &Output{}
			require.NoError(t, json.Unmarshal(encoded, decoded))
			restored, err := decoded.ToOutput()
			require.NoError(t, err)
			assert.Equal(t, output.Bytes(), restored.Bytes())
		})
	}
}

func TestOutput_Invalid(t *testing.T) {
	_, err := (&Output{Type: 42, Amount: "1"}).ToOutput()
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	_, err = (&Output{Type: ledgerstate.BasicOutputType, Amount: "-1"}).ToOutput()
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	_, err = (&Output{
		Type:   ledgerstate.FoundryOutputType,
		Amount: "1",
		UnlockConditions: []*UnlockCondition{{
			Type:    ledgerstate.ImmutableAliasAddressUnlockConditionType,
			Address: NewAddress(testAddress(1)),
		}},
	}).ToOutput()
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestAddress_ToAddress(t *testing.T) {
	for _, address := range []ledgerstate.Address{
		testAddress(1),
		ledgerstate.NewAliasAddress(ledgerstate.AliasID{1}),
		ledgerstate.NewNFTAddress(ledgerstate.NFTID{2}),
	} {
		restored, err := NewAddress(address).ToAddress()
		require.NoError(t, err)
		assert.True(t, address.Equals(restored))
	}

	_, err := (&Address{Type: ledgerstate.Ed25519AddressType, PubKeyHash: "0x1234"}).ToAddress()
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestOutputResponse_ToUTXO(t *testing.T) {
	body := []byte(`{
		"metadata": {
			"blockId": "0x0000000000000000000000000000000000000000000000000000000000000001",
			"transactionId": "0x0100000000000000000000000000000000000000000000000000000000000000",
			"outputIndex": 2,
			"isSpent": false,
			"ledgerIndex": 10
		},
		"output": {
			"type": 3,
			"amount": "1000000",
			"unlockConditions": [{"type": 0, "address": {"type": 8, "aliasId": "0x0900000000000000000000000000000000000000000000000000000000000000"}}]
		}
	}`)

	response := &OutputResponse{}
	require.NoError(t, json.Unmarshal(body, response))

	utxo, err := response.ToUTXO()
	require.NoError(t, err)
	assert.Equal(t, ledgerstate.NewOutputID(ledgerstate.TransactionID{1}, 2), utxo.ID)
	assert.Equal(t, uint64(1000000), utxo.Output.Deposit())
	assert.True(t, ledgerstate.NewAliasAddress(ledgerstate.AliasID{9}).Equals(utxo.Output.UnlockConditionSet().Address().Address))
}

func TestBlockMetadata_ToBlockMetadata(t *testing.T) {
	body := []byte(`{
		"blockId": "0x0100000000000000000000000000000000000000000000000000000000000000",
		"parents": ["0x0200000000000000000000000000000000000000000000000000000000000000"],
		"isSolid": true,
		"referencedByMilestoneIndex": 15,
		"ledgerInclusionState": "conflicting",
		"conflictReason": 1
	}`)

	decoded := &BlockMetadata{}
	require.NoError(t, json.Unmarshal(body, decoded))
	metadata, err := decoded.ToBlockMetadata()
	require.NoError(t, err)
	assert.Equal(t, tangle.BlockID{1}, metadata.BlockID)
	assert.Equal(t, tangle.Conflicting, metadata.InclusionState())
	assert.Equal(t, tangle.ConflictInputUTXOAlreadySpent, metadata.ConflictReason)

	pending := NewBlockMetadata(&tangle.BlockMetadata{BlockID: tangle.BlockID{1}, Parents: tangle.BlockIDs{{2}}, ShouldPromote: true})
	restored, err := pending.ToBlockMetadata()
	require.NoError(t, err)
	assert.True(t, restored.ShouldPromote)
	assert.False(t, restored.ShouldReattach)
	assert.Equal(t, tangle.Pending, restored.InclusionState())
}

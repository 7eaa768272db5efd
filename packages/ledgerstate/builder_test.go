package ledgerstate

import (
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

var testRentStructure = &RentStructure{VByteCost: 100, VByteFactorData: 1, VByteFactorKey: 10}

func TestRentStructure_MinimumStorageDeposit(t *testing.T) {
	address := newTestKeyPair(1).address
	output := &BasicOutput{Amount: 1, Conditions: UnlockConditions{&AddressUnlockCondition{Address: address}}}

	assert.Len(t, output.Bytes(), 46)
	assert.EqualValues(t, 10*34+1*(40+46), testRentStructure.VirtualBytes(output))
	assert.EqualValues(t, 42600, testRentStructure.MinimumStorageDeposit(output))
	assert.EqualValues(t, 42600, testRentStructure.MinimumStorageDepositForAddress(address))

	// more bytes cost more
	output.Features = Features{&TagFeature{Tag: []byte("tag")}}
	assert.Greater(t, testRentStructure.MinimumStorageDeposit(output), uint64(42600))
}

func TestBuildBasicOutput(t *testing.T) {
	address := newTestKeyPair(1).address

	output, err := BuildBasicOutput(&BasicOutputParams{
		Amount:           1000000,
		UnlockConditions: UnlockConditions{&AddressUnlockCondition{Address: address}},
	}, testRentStructure)
	require.NoError(t, err)
	assert.EqualValues(t, 1000000, output.Amount)
	assert.True(t, address.Equals(output.SimpleOwner()))

	minimal, err := BuildBasicOutput(&BasicOutputParams{
		UseMinimumStorageDeposit: true,
		UnlockConditions:         UnlockConditions{&AddressUnlockCondition{Address: address}},
	}, testRentStructure)
	require.NoError(t, err)
	assert.EqualValues(t, 42600, minimal.Amount)

	_, err = BuildBasicOutput(&BasicOutputParams{Amount: 1000000}, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation))

	_, err = BuildBasicOutput(&BasicOutputParams{
		Amount:           42599,
		UnlockConditions: UnlockConditions{&AddressUnlockCondition{Address: address}},
	}, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation))
}

func TestBuildBasicOutput_CanonicalOrder(t *testing.T) {
	address := newTestKeyPair(1).address

	output, err := BuildBasicOutput(&BasicOutputParams{
		Amount: 1000000,
		UnlockConditions: UnlockConditions{
			&TimelockUnlockCondition{UnixTime: 100},
			&AddressUnlockCondition{Address: address},
		},
		Features: Features{&TagFeature{Tag: []byte("t")}, &SenderFeature{Address: address}},
	}, testRentStructure)
	require.NoError(t, err)

	assert.Equal(t, AddressUnlockConditionType, output.Conditions[0].Type())
	assert.Equal(t, TimelockUnlockConditionType, output.Conditions[1].Type())
	assert.Equal(t, SenderFeatureType, output.Features[0].Type())
	assert.Nil(t, output.SimpleOwner())
}

func TestBuildBasicOutput_StorageDepositReturn(t *testing.T) {
	owner := newTestKeyPair(1).address
	returnAddress := newTestKeyPair(2).address

	params := &BasicOutputParams{
		Amount: 1000000,
		UnlockConditions: UnlockConditions{
			&AddressUnlockCondition{Address: owner},
			&StorageDepositReturnUnlockCondition{ReturnAddress: returnAddress, Amount: 42600},
			&ExpirationUnlockCondition{ReturnAddress: returnAddress, UnixTime: 1000},
		},
	}
	_, err := BuildBasicOutput(params, testRentStructure)
	require.NoError(t, err)

	params.UnlockConditions[1] = &StorageDepositReturnUnlockCondition{ReturnAddress: returnAddress, Amount: 1}
	_, err = BuildBasicOutput(params, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation))

	params.UnlockConditions[1] = &StorageDepositReturnUnlockCondition{ReturnAddress: returnAddress, Amount: 2000000}
	_, err = BuildBasicOutput(params, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation))
}

func TestBuildAliasOutput(t *testing.T) {
	controller := newTestKeyPair(1).address

	output, err := BuildAliasOutput(&AliasOutputParams{
		UseMinimumStorageDeposit: true,
		StateMetadata:            []byte("state"),
		UnlockConditions: UnlockConditions{
			&GovernorAddressUnlockCondition{Address: controller},
			&StateControllerAddressUnlockCondition{Address: controller},
		},
	}, testRentStructure)
	require.NoError(t, err)
	assert.Equal(t, StateControllerAddressUnlockConditionType, output.Conditions[0].Type())
	assert.Equal(t, testRentStructure.MinimumStorageDeposit(output), output.Amount)

	_, err = BuildAliasOutput(&AliasOutputParams{
		Amount:     1000000,
		StateIndex: 1,
		UnlockConditions: UnlockConditions{
			&StateControllerAddressUnlockCondition{Address: controller},
			&GovernorAddressUnlockCondition{Address: controller},
		},
	}, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation), "new aliases start at state index 0")

	aliasID := AliasID{1}
	_, err = BuildAliasOutput(&AliasOutputParams{
		Amount:  1000000,
		AliasID: aliasID,
		UnlockConditions: UnlockConditions{
			&StateControllerAddressUnlockCondition{Address: NewAliasAddress(aliasID)},
			&GovernorAddressUnlockCondition{Address: controller},
		},
	}, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation), "aliases must not control themselves")
}

func TestBuildFoundryOutput(t *testing.T) {
	aliasAddress := NewAliasAddress(AliasID{7})

	output, err := BuildFoundryOutput(&FoundryOutputParams{
		UseMinimumStorageDeposit: true,
		SerialNumber:             1,
		TokenScheme:              NewSimpleTokenScheme(big.NewInt(100), big.NewInt(0), big.NewInt(1000)),
		UnlockConditions:         UnlockConditions{&ImmutableAliasAddressUnlockCondition{Address: aliasAddress}},
	}, testRentStructure)
	require.NoError(t, err)
	assert.Equal(t, ComputeFoundryID(aliasAddress, 1, SimpleTokenSchemeType), output.FoundryID())
	assert.EqualValues(t, 1, output.FoundryID().SerialNumber())
	assert.True(t, aliasAddress.Equals(output.FoundryID().AliasAddress()))

	_, err = BuildFoundryOutput(&FoundryOutputParams{
		Amount:           1000000,
		SerialNumber:     1,
		TokenScheme:      NewSimpleTokenScheme(big.NewInt(2000), big.NewInt(0), big.NewInt(1000)),
		UnlockConditions: UnlockConditions{&ImmutableAliasAddressUnlockCondition{Address: aliasAddress}},
	}, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation), "minted tokens exceed the maximum supply")

	_, err = BuildFoundryOutput(&FoundryOutputParams{Amount: 1000000, SerialNumber: 1}, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation))
}

func TestBuildNFTOutput(t *testing.T) {
	owner := newTestKeyPair(1).address

	output, err := BuildNFTOutput(&NFTOutputParams{
		UseMinimumStorageDeposit: true,
		UnlockConditions:         UnlockConditions{&AddressUnlockCondition{Address: owner}},
		ImmutableFeatures:        Features{&MetadataFeature{Data: []byte("immutable")}},
	}, testRentStructure)
	require.NoError(t, err)
	assert.True(t, output.NFTID.Empty())

	_, err = BuildNFTOutput(&NFTOutputParams{
		Amount:            1000000,
		UnlockConditions:  UnlockConditions{&AddressUnlockCondition{Address: owner}},
		ImmutableFeatures: Features{&TagFeature{Tag: []byte("tag")}},
	}, testRentStructure)
	assert.True(t, errors.Is(err, clienterrors.ErrOutputValidation), "tags are not immutable features")
}

func TestNativeTokens_Validate(t *testing.T) {
	tokenA := ComputeFoundryID(NewAliasAddress(AliasID{1}), 1, SimpleTokenSchemeType)
	tokenB := ComputeFoundryID(NewAliasAddress(AliasID{2}), 1, SimpleTokenSchemeType)

	sorted := NativeTokens{NewNativeToken(tokenB, big.NewInt(1)), NewNativeToken(tokenA, big.NewInt(2))}.Sorted()
	require.NoError(t, sorted.Validate())
	assert.Equal(t, tokenA, sorted[0].ID)

	duplicate := NativeTokens{NewNativeToken(tokenA, big.NewInt(1)), NewNativeToken(tokenA, big.NewInt(2))}
	assert.True(t, errors.Is(duplicate.Validate(), clienterrors.ErrOutputValidation))

	zero := NativeTokens{NewNativeToken(tokenA, big.NewInt(0))}
	assert.True(t, errors.Is(zero.Validate(), clienterrors.ErrOutputValidation))

	sum := sorted.Sum()
	sum.Add(tokenA, big.NewInt(3))
	assert.Equal(t, "5", sum.Get(tokenA).String())
	assert.Zero(t, sum.Get(ComputeFoundryID(NewAliasAddress(AliasID{3}), 1, SimpleTokenSchemeType)).Sign())
}

func TestOutputFromBytes(t *testing.T) {
	owner := newTestKeyPair(1).address
	aliasAddress := NewAliasAddress(AliasID{9})
	tokenID := ComputeFoundryID(aliasAddress, 1, SimpleTokenSchemeType)

	outputs := []Output{
		&BasicOutput{
			Amount:       1000000,
			NativeTokens: NativeTokens{NewNativeToken(tokenID, big.NewInt(10))},
			Conditions: UnlockConditions{
				&AddressUnlockCondition{Address: owner},
				&StorageDepositReturnUnlockCondition{ReturnAddress: aliasAddress, Amount: 50000},
				&TimelockUnlockCondition{UnixTime: 10},
				&ExpirationUnlockCondition{ReturnAddress: aliasAddress, UnixTime: 20},
			},
			Features: Features{
				&SenderFeature{Address: owner},
				&MetadataFeature{Data: []byte("metadata")},
				&TagFeature{Tag: []byte("tag")},
			},
		},
		&AliasOutput{
			Amount:         2000000,
			AliasID:        AliasID{9},
			StateIndex:     3,
			StateMetadata:  []byte("state"),
			FoundryCounter: 1,
			Conditions: UnlockConditions{
				&StateControllerAddressUnlockCondition{Address: owner},
				&GovernorAddressUnlockCondition{Address: owner},
			},
			ImmutableFeatures: Features{&IssuerFeature{Address: owner}},
		},
		&FoundryOutput{
			Amount:       3000000,
			SerialNumber: 1,
			TokenScheme:  NewSimpleTokenScheme(big.NewInt(100), big.NewInt(10), big.NewInt(1000)),
			Conditions:   UnlockConditions{&ImmutableAliasAddressUnlockCondition{Address: aliasAddress}},
		},
		&NFTOutput{
			Amount:            4000000,
			NFTID:             NFTID{4},
			Conditions:        UnlockConditions{&AddressUnlockCondition{Address: aliasAddress}},
			ImmutableFeatures: Features{&MetadataFeature{Data: []byte("nft")}},
		},
	}

	for _, output := range outputs {
		require.NoError(t, ValidateOutput(output, testRentStructure))

		parsed, consumedBytes, err := OutputFromBytes(output.Bytes())
		require.NoError(t, err)
		assert.Equal(t, len(output.Bytes()), consumedBytes)
		assert.Equal(t, output.Type(), parsed.Type())
		assert.True(t, OutputsEqual(output, parsed))
		assert.True(t, OutputsEqual(output, output.Clone()))
	}

	_, _, err := OutputFromBytes([]byte{byte(BasicOutputType), 1, 2})
	assert.Error(t, err)
}

func TestOwnerAddress(t *testing.T) {
	owner := newTestKeyPair(1).address
	returnAddress := newTestKeyPair(2).address

	basic := &BasicOutput{
		Amount: 1000000,
		Conditions: UnlockConditions{
			&AddressUnlockCondition{Address: owner},
			&ExpirationUnlockCondition{ReturnAddress: returnAddress, UnixTime: 100},
		},
	}
	assert.True(t, owner.Equals(OwnerAddress(basic, 99, false)))
	assert.True(t, returnAddress.Equals(OwnerAddress(basic, 100, false)))

	governor := newTestKeyPair(3).address
	alias := &AliasOutput{
		Amount: 1000000,
		Conditions: UnlockConditions{
			&StateControllerAddressUnlockCondition{Address: owner},
			&GovernorAddressUnlockCondition{Address: governor},
		},
	}
	assert.True(t, owner.Equals(OwnerAddress(alias, 0, true)))
	assert.True(t, governor.Equals(OwnerAddress(alias, 0, false)))

	outputID := NewOutputID(TransactionID{5}, 0)
	assert.True(t, NewAliasAddress(ComputeAliasID(outputID)).Equals(ChainAddress(alias, outputID)))
	assert.Nil(t, ChainAddress(basic, outputID))
}

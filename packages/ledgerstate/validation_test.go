package ledgerstate

import (
	"math/big"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

const testUnixTime = 1000

type testKeyPair struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	address    *Ed25519Address
}

func newTestKeyPair(seed byte) *testKeyPair {
	seedBytes := make([]byte, 32)
	seedBytes[0] = seed

	privateKey := ed25519.PrivateKeyFromSeed(seedBytes)
	return &testKeyPair{
		privateKey: privateKey,
		publicKey:  privateKey.Public(),
		address:    NewEd25519Address(privateKey.Public()),
	}
}

func basicUTXO(transactionID byte, amount uint64, owner Address) *UTXO {
	return &UTXO{
		ID: NewOutputID(TransactionID{transactionID}, 0),
		Output: &BasicOutput{
			Amount:     amount,
			Conditions: UnlockConditions{&AddressUnlockCondition{Address: owner}},
		},
	}
}

func basicOutput(amount uint64, owner Address) *BasicOutput {
	return &BasicOutput{Amount: amount, Conditions: UnlockConditions{&AddressUnlockCondition{Address: owner}}}
}

// signTestTransaction orders the inputs, builds the essence and creates the unlocks with the given key pairs.
func signTestTransaction(t *testing.T, inputs UTXOs, outputs []Output, signers ...*testKeyPair) (*Transaction, UTXOs) {
	ordered, err := OrderInputs(inputs, outputs, testUnixTime)
	require.NoError(t, err)

	essence := &TransactionEssence{
		NetworkID:        NetworkIDFromName("testnet"),
		InputsCommitment: InputsCommitment(ordered.Outputs()),
		Outputs:          outputs,
	}
	for _, input := range ordered {
		essence.Inputs = append(essence.Inputs, input.ID.UTXOInput())
	}

	requirements, err := PlanUnlocks(ordered, outputs, testUnixTime)
	require.NoError(t, err)

	essenceHash := essence.Hash()
	unlocks := make(Unlocks, len(requirements))
	for i, requirement := range requirements {
		switch requirement.Type {
		case SignatureUnlockType:
			for _, signer := range signers {
				if signer.address.Equals(requirement.Owner) {
					unlocks[i] = &SignatureUnlock{Signature: &Ed25519Signature{
						PublicKey: signer.publicKey,
						Signature: signer.privateKey.Sign(essenceHash[:]),
					}}
				}
			}
			require.NotNil(t, unlocks[i], "no signer for input %d", i)
		case ReferenceUnlockType:
			unlocks[i] = &ReferenceUnlock{ReferencedIndex: requirement.ReferencedIndex}
		case AliasUnlockType:
			unlocks[i] = &AliasUnlock{ReferencedIndex: requirement.ReferencedIndex}
		case NFTUnlockType:
			unlocks[i] = &NFTUnlock{ReferencedIndex: requirement.ReferencedIndex}
		}
	}

	return NewTransaction(essence, unlocks), ordered
}

func TestValidateTransaction_SignatureAndReference(t *testing.T) {
	alice, bob := newTestKeyPair(1), newTestKeyPair(2)

	inputs := UTXOs{basicUTXO(2, 1000000, alice.address), basicUTXO(1, 1000000, alice.address)}
	transaction, ordered := signTestTransaction(t, inputs, []Output{basicOutput(2000000, bob.address)}, alice)

	assert.Equal(t, NewOutputID(TransactionID{1}, 0), ordered[0].ID)
	require.IsType(t, &SignatureUnlock{}, transaction.Unlocks[0])
	require.IsType(t, &ReferenceUnlock{}, transaction.Unlocks[1])
	assert.EqualValues(t, 0, transaction.Unlocks[1].(*ReferenceUnlock).ReferencedIndex)

	require.NoError(t, ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime))

	// a signature of the wrong key
	transaction.Unlocks[0] = &SignatureUnlock{Signature: &Ed25519Signature{
		PublicKey: bob.publicKey,
		Signature: bob.privateKey.Sign(transaction.Essence.Bytes()),
	}}
	err := ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestValidateTransaction_Unbalanced(t *testing.T) {
	alice, bob := newTestKeyPair(1), newTestKeyPair(2)

	inputs := UTXOs{basicUTXO(1, 2000000, alice.address)}
	transaction, ordered := signTestTransaction(t, inputs, []Output{basicOutput(1999999, bob.address)}, alice)

	err := ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestValidateTransaction_InputsCommitment(t *testing.T) {
	alice, bob := newTestKeyPair(1), newTestKeyPair(2)

	inputs := UTXOs{basicUTXO(1, 2000000, alice.address)}
	transaction, ordered := signTestTransaction(t, inputs, []Output{basicOutput(2000000, bob.address)}, alice)

	// the resolved input differs from what was committed to
	tampered := UTXOs{{ID: ordered[0].ID, Output: basicOutput(2000000, bob.address)}}
	err := ValidateTransaction(transaction, tampered, nil, testRentStructure, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestValidateTransaction_EmptyOutputs(t *testing.T) {
	alice := newTestKeyPair(1)

	inputs := UTXOs{basicUTXO(1, 2000000, alice.address)}
	transaction, ordered := signTestTransaction(t, inputs, []Output{}, alice)

	err := ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrEmptyOutputs))
}

func TestValidateTransaction_Timelock(t *testing.T) {
	alice := newTestKeyPair(1)

	timelocked := basicUTXO(1, 2000000, alice.address)
	timelocked.Output.(*BasicOutput).Conditions = append(timelocked.Output.(*BasicOutput).Conditions, &TimelockUnlockCondition{UnixTime: testUnixTime + 1})

	_, err := OrderInputs(UTXOs{timelocked}, []Output{basicOutput(2000000, alice.address)}, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	_, err = OrderInputs(UTXOs{timelocked}, []Output{basicOutput(2000000, alice.address)}, testUnixTime+1)
	assert.NoError(t, err)
}

func TestValidateTransaction_NFTOwnedInput(t *testing.T) {
	alice, bob := newTestKeyPair(1), newTestKeyPair(2)

	nftCreatedAt := NewOutputID(TransactionID{0xF0}, 0)
	nftID := ComputeNFTID(nftCreatedAt)
	nftInput := &UTXO{ID: nftCreatedAt, Output: &NFTOutput{
		Amount:     1000000,
		Conditions: UnlockConditions{&AddressUnlockCondition{Address: alice.address}},
	}}
	ownedByNFT := basicUTXO(1, 1000000, NewNFTAddress(nftID))

	outputs := []Output{
		&NFTOutput{Amount: 1000000, NFTID: nftID, Conditions: UnlockConditions{&AddressUnlockCondition{Address: alice.address}}},
		basicOutput(1000000, bob.address),
	}
	transaction, ordered := signTestTransaction(t, UTXOs{ownedByNFT, nftInput}, outputs, alice)

	// the NFT has to be unlocked before the input it owns
	assert.Equal(t, nftCreatedAt, ordered[0].ID)
	require.IsType(t, &NFTUnlock{}, transaction.Unlocks[1])
	assert.EqualValues(t, 0, transaction.Unlocks[1].(*NFTUnlock).ReferencedIndex)

	require.NoError(t, ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime))

	// the owning NFT is missing from the inputs
	_, err := OrderInputs(UTXOs{ownedByNFT}, outputs, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestValidateTransaction_BurnNFT(t *testing.T) {
	alice := newTestKeyPair(1)

	nftInput := &UTXO{ID: NewOutputID(TransactionID{1}, 0), Output: &NFTOutput{
		Amount:     1000000,
		NFTID:      NFTID{3},
		Conditions: UnlockConditions{&AddressUnlockCondition{Address: alice.address}},
	}}
	transaction, ordered := signTestTransaction(t, UTXOs{nftInput}, []Output{basicOutput(1000000, alice.address)}, alice)

	err := ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	require.NoError(t, ValidateTransaction(transaction, ordered, &Burn{NFTs: []NFTID{{3}}}, testRentStructure, testUnixTime))
}

func TestValidateTransaction_NativeTokens(t *testing.T) {
	alice := newTestKeyPair(1)
	tokenID := ComputeFoundryID(NewAliasAddress(AliasID{1}), 1, SimpleTokenSchemeType)

	input := basicUTXO(1, 1000000, alice.address)
	input.Output.(*BasicOutput).NativeTokens = NativeTokens{NewNativeToken(tokenID, big.NewInt(50))}

	transaction, ordered := signTestTransaction(t, UTXOs{input}, []Output{basicOutput(1000000, alice.address)}, alice)
	err := ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	burn := &Burn{NativeTokens: NativeTokenSum{tokenID: big.NewInt(50)}}
	require.NoError(t, ValidateTransaction(transaction, ordered, burn, testRentStructure, testUnixTime))

	withTokens := basicOutput(1000000, alice.address)
	withTokens.NativeTokens = NativeTokens{NewNativeToken(tokenID, big.NewInt(50))}
	transaction, ordered = signTestTransaction(t, UTXOs{input}, []Output{withTokens}, alice)
	require.NoError(t, ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime))
}

func TestValidateTransaction_CreateFoundry(t *testing.T) {
	alice := newTestKeyPair(1)
	aliasID := AliasID{0xAA}
	aliasAddress := NewAliasAddress(aliasID)

	aliasInput := &UTXO{ID: NewOutputID(TransactionID{1}, 0), Output: &AliasOutput{
		Amount:  3000000,
		AliasID: aliasID,
		Conditions: UnlockConditions{
			&StateControllerAddressUnlockCondition{Address: alice.address},
			&GovernorAddressUnlockCondition{Address: alice.address},
		},
	}}

	newOutputs := func(foundryCounter uint32) []Output {
		foundry := &FoundryOutput{
			Amount:       1000000,
			SerialNumber: 1,
			TokenScheme:  NewSimpleTokenScheme(big.NewInt(100), big.NewInt(0), big.NewInt(1000)),
			Conditions:   UnlockConditions{&ImmutableAliasAddressUnlockCondition{Address: aliasAddress}},
		}
		holder := basicOutput(1000000, alice.address)
		holder.NativeTokens = NativeTokens{NewNativeToken(foundry.TokenID(), big.NewInt(100))}

		return []Output{
			&AliasOutput{
				Amount:         1000000,
				AliasID:        aliasID,
				StateIndex:     1,
				FoundryCounter: foundryCounter,
				Conditions: UnlockConditions{
					&StateControllerAddressUnlockCondition{Address: alice.address},
					&GovernorAddressUnlockCondition{Address: alice.address},
				},
			},
			foundry,
			holder,
		}
	}

	transaction, ordered := signTestTransaction(t, UTXOs{aliasInput}, newOutputs(1), alice)
	require.NoError(t, ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime))

	minted, melted := SupplyChanges(ordered, transaction.Essence.Outputs)
	assert.Equal(t, "100", minted.Get(transaction.Essence.Outputs[1].(*FoundryOutput).TokenID()).String())
	assert.Empty(t, melted.IDs())

	// the foundry counter of the alias has to account for the new foundry
	transaction, ordered = signTestTransaction(t, UTXOs{aliasInput}, newOutputs(0), alice)
	err := ValidateTransaction(transaction, ordered, nil, testRentStructure, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))
}

func TestValidateFoundrySerials(t *testing.T) {
	aliasAddress := NewAliasAddress(AliasID{1})
	foundry := func(serialNumber uint32) Output {
		return &FoundryOutput{
			Amount:       1000000,
			SerialNumber: serialNumber,
			TokenScheme:  NewSimpleTokenScheme(big.NewInt(0), big.NewInt(0), big.NewInt(1)),
			Conditions:   UnlockConditions{&ImmutableAliasAddressUnlockCondition{Address: aliasAddress}},
		}
	}

	assert.NoError(t, ValidateFoundrySerials([]Output{foundry(1), foundry(2)}))
	assert.True(t, errors.Is(ValidateFoundrySerials([]Output{foundry(1), foundry(1)}), clienterrors.ErrOutputValidation))
}

func TestValidateStorageDepositReturns(t *testing.T) {
	alice, bob := newTestKeyPair(1), newTestKeyPair(2)

	input := basicUTXO(1, 1000000, alice.address)
	input.Output.(*BasicOutput).Conditions = UnlockConditions{
		&AddressUnlockCondition{Address: alice.address},
		&StorageDepositReturnUnlockCondition{ReturnAddress: bob.address, Amount: 50000},
		&ExpirationUnlockCondition{ReturnAddress: bob.address, UnixTime: testUnixTime + 10},
	}

	err := ValidateStorageDepositReturns(UTXOs{input}, []Output{basicOutput(1000000, alice.address)}, testUnixTime)
	assert.True(t, errors.Is(err, clienterrors.ErrValidation))

	outputs := []Output{basicOutput(950000, alice.address), basicOutput(50000, bob.address)}
	assert.NoError(t, ValidateStorageDepositReturns(UTXOs{input}, outputs, testUnixTime))

	// expired outputs belong to the return address
	assert.NoError(t, ValidateStorageDepositReturns(UTXOs{input}, []Output{basicOutput(1000000, bob.address)}, testUnixTime+10))
}

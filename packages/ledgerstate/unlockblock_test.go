package ledgerstate

import (
	"testing"

	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlocks_Bytes(t *testing.T) {
	alice := newTestKeyPair(1)
	data := []byte("TEST DATA TO SIGN")

	signature := &Ed25519Signature{PublicKey: alice.publicKey, Signature: alice.privateKey.Sign(data)}
	assert.True(t, signature.SignsAddress(alice.address, data))
	assert.False(t, signature.SignsAddress(newTestKeyPair(2).address, data))
	assert.False(t, signature.SignsAddress(alice.address, []byte("other data")))

	unlocks := Unlocks{
		&SignatureUnlock{Signature: signature},
		&ReferenceUnlock{ReferencedIndex: 0},
		&AliasUnlock{ReferencedIndex: 1},
		&NFTUnlock{ReferencedIndex: 2},
	}

	marshalUtil := marshalutil.New()
	unlocks.writeTo(marshalUtil)
	serialized := marshalUtil.Bytes()
	assert.Len(t, serialized, 2+(1+1+32+64)+3*3)

	parsed, err := UnlocksFromMarshalUtil(marshalutil.New(serialized))
	require.NoError(t, err)
	require.Len(t, parsed, len(unlocks))
	for i := range unlocks {
		assert.Equal(t, unlocks[i], parsed[i])
	}

	_, err = UnlocksFromMarshalUtil(marshalutil.New([]byte{1, 0, 9}))
	assert.Error(t, err)
}

func TestTransaction_Bytes(t *testing.T) {
	alice, bob := newTestKeyPair(1), newTestKeyPair(2)

	transaction, _ := signTestTransaction(t,
		UTXOs{basicUTXO(1, 1000000, alice.address), basicUTXO(2, 1000000, alice.address)},
		[]Output{basicOutput(1500000, bob.address), basicOutput(500000, alice.address)},
		alice,
	)
	taggedData, err := NewTaggedData([]byte("tag"), []byte("data"))
	require.NoError(t, err)
	transaction.Essence.Payload = taggedData

	parsed, err := TransactionFromBytes(transaction.Bytes())
	require.NoError(t, err)
	assert.Equal(t, transaction.Bytes(), parsed.Bytes())
	assert.Equal(t, transaction.ID(), parsed.ID())
	assert.Equal(t, transaction.Essence.Hash(), parsed.Essence.Hash())
	assert.Equal(t, taggedData, parsed.Essence.Payload)
	assert.Equal(t, NewOutputID(transaction.ID(), 1), parsed.OutputID(1))

	payload, err := PayloadFromBytes(transaction.Bytes())
	require.NoError(t, err)
	assert.Equal(t, TransactionPayloadType, payload.Type())

	_, err = PayloadFromBytes(append(transaction.Bytes(), 0))
	assert.Error(t, err, "trailing bytes")
}

func TestTaggedData(t *testing.T) {
	taggedData, err := NewTaggedData([]byte("tag"), []byte("hello"))
	require.NoError(t, err)

	payload, err := PayloadFromBytes(taggedData.Bytes())
	require.NoError(t, err)
	assert.Equal(t, taggedData, payload)

	_, err = NewTaggedData(make([]byte, MaxTagLength+1), nil)
	assert.Error(t, err)
	_, err = NewTaggedData(nil, make([]byte, MaxTaggedDataLength+1))
	assert.Error(t, err)
}

func TestIdentifiers(t *testing.T) {
	transactionID := TransactionID{1, 2, 3}
	outputID := NewOutputID(transactionID, 5)
	assert.Equal(t, transactionID, outputID.TransactionID())
	assert.EqualValues(t, 5, outputID.Index())

	fromHex, err := OutputIDFromHex(outputID.Hex())
	require.NoError(t, err)
	assert.Equal(t, outputID, fromHex)

	_, err = OutputIDFromHex(NewOutputID(transactionID, MaxOutputCount).Hex())
	assert.Error(t, err, "index out of range")

	aliasID := ComputeAliasID(outputID)
	aliasIDFromHex, err := AliasIDFromHex(aliasID.Hex())
	require.NoError(t, err)
	assert.Equal(t, aliasID, aliasIDFromHex)

	// alias and nft ids of the same output are identical digests
	nftID := ComputeNFTID(outputID)
	assert.Equal(t, aliasID[:], nftID[:])

	assert.Equal(t, NetworkIDFromName("testnet"), NetworkIDFromName("testnet"))
	assert.NotEqual(t, NetworkIDFromName("testnet"), NetworkIDFromName("mainnet"))
}

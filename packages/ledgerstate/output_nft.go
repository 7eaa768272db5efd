package ledgerstate

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region NFTID ////////////////////////////////////////////////////////////////////////////////////////////////////////

// NFTIDLength contains the length of an NFTID.
const NFTIDLength = 32

// NFTID is the identifier of an NFT. A freshly minted NFTOutput carries the zero NFTID.
type NFTID [NFTIDLength]byte

// EmptyNFTID is the NFTID of an NFT that is being minted.
var EmptyNFTID NFTID

// ComputeNFTID returns the identifier of the NFT minted by the output with the given OutputID.
func ComputeNFTID(outputID OutputID) NFTID {
	return blake2b.Sum256(outputID[:])
}

// NFTIDFromHex parses a hex encoded NFTID.
func NFTIDFromHex(hexString string) (nftID NFTID, err error) {
	data, err := decodeHex(hexString)
	if err != nil {
		return nftID, clienterrors.Validationf("invalid nft id %q: %v", hexString, err)
	}
	if len(data) != NFTIDLength {
		return nftID, clienterrors.Validationf("invalid nft id length %d, expected %d", len(data), NFTIDLength)
	}
	copy(nftID[:], data)

	return nftID, nil
}

// Empty returns true if the NFTID is the zero value.
func (n NFTID) Empty() bool {
	return n == EmptyNFTID
}

// Hex returns the 0x-prefixed hex encoding of the NFTID.
func (n NFTID) Hex() string {
	return encodeHex(n[:])
}

// Base58 returns a base58 encoded version of the NFTID.
func (n NFTID) Base58() string {
	return base58.Encode(n[:])
}

// String returns a human-readable version of the NFTID.
func (n NFTID) String() string {
	return "NFTID(" + n.Hex() + ")"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NFTOutput ////////////////////////////////////////////////////////////////////////////////////////////////////

// NFTOutput carries a non-fungible token.
type NFTOutput struct {
	Amount            uint64
	NativeTokens      NativeTokens
	NFTID             NFTID
	Conditions        UnlockConditions
	Features          Features
	ImmutableFeatures Features
}

func nftOutputFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (output *NFTOutput, err error) {
	output = &NFTOutput{}
	if output.Amount, output.NativeTokens, err = readAmountAndNativeTokens(marshalUtil); err != nil {
		return nil, err
	}

	nftIDBytes, err := marshalUtil.ReadBytes(NFTIDLength)
	if err != nil {
		return nil, errors.Errorf("failed to parse NFTID (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	copy(output.NFTID[:], nftIDBytes)

	if output.Conditions, err = UnlockConditionsFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}
	if output.Features, err = FeaturesFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}
	if output.ImmutableFeatures, err = FeaturesFromMarshalUtil(marshalUtil); err != nil {
		return nil, err
	}

	return output, nil
}

// ResolvedNFTID returns the NFTID, deriving it from the OutputID for freshly minted NFTs.
func (n *NFTOutput) ResolvedNFTID(outputID OutputID) NFTID {
	if n.NFTID.Empty() {
		return ComputeNFTID(outputID)
	}

	return n.NFTID
}

// Type returns the OutputType.
func (n *NFTOutput) Type() OutputType {
	return NFTOutputType
}

// Deposit returns the amount of base tokens held by the Output.
func (n *NFTOutput) Deposit() uint64 {
	return n.Amount
}

// NativeTokenList returns the native tokens held by the Output.
func (n *NFTOutput) NativeTokenList() NativeTokens {
	return n.NativeTokens
}

// UnlockConditionSet returns the UnlockConditions of the Output.
func (n *NFTOutput) UnlockConditionSet() UnlockConditions {
	return n.Conditions
}

// FeatureSet returns the mutable Features of the Output.
func (n *NFTOutput) FeatureSet() Features {
	return n.Features
}

// Clone creates a copy of the Output.
func (n *NFTOutput) Clone() Output {
	return &NFTOutput{
		Amount:            n.Amount,
		NativeTokens:      n.NativeTokens.Clone(),
		NFTID:             n.NFTID,
		Conditions:        n.Conditions.Clone(),
		Features:          n.Features.Clone(),
		ImmutableFeatures: n.ImmutableFeatures.Clone(),
	}
}

// Bytes returns a marshaled version of the Output.
func (n *NFTOutput) Bytes() []byte {
	return outputBytes(n)
}

func (n *NFTOutput) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(NFTOutputType))
	marshalUtil.WriteUint64(n.Amount)
	n.NativeTokens.writeTo(marshalUtil)
	marshalUtil.WriteBytes(n.NFTID[:])
	n.Conditions.writeTo(marshalUtil)
	n.Features.writeTo(marshalUtil)
	n.ImmutableFeatures.writeTo(marshalUtil)
}

// String returns a human readable version of the Output.
func (n *NFTOutput) String() string {
	return stringify.Struct("NFTOutput",
		stringify.StructField("Amount", n.Amount),
		stringify.StructField("NFTID", n.NFTID.Hex()),
		stringify.StructField("NativeTokens", len(n.NativeTokens)),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Output = &NFTOutput{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package ledgerstate

import (
	"bytes"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/byteutils"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
	"golang.org/x/crypto/blake2b"
)

// region AddressType //////////////////////////////////////////////////////////////////////////////////////////////////

const (
	// Ed25519AddressType represents an Address secured by the Ed25519 signature scheme.
	Ed25519AddressType AddressType = 0

	// AliasAddressType represents the Address of an AliasOutput.
	AliasAddressType AddressType = 8

	// NFTAddressType represents the Address of an NFTOutput.
	NFTAddressType AddressType = 16
)

// AddressDigestLength contains the length of the digest of every Address type.
const AddressDigestLength = 32

// AddressLength contains the length of a serialized address (type length = 1, digest length = 32).
const AddressLength = 1 + AddressDigestLength

// AddressType represents the type of the Address.
type AddressType byte

// String returns a human-readable representation of the AddressType.
func (a AddressType) String() string {
	switch a {
	case Ed25519AddressType:
		return "Ed25519Address"
	case AliasAddressType:
		return "AliasAddress"
	case NFTAddressType:
		return "NFTAddress"
	default:
		return "UnknownAddress"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Address //////////////////////////////////////////////////////////////////////////////////////////////////////

// Address is an interface for the different kind of Addresses that can own outputs.
type Address interface {
	// Type returns the AddressType of the Address.
	Type() AddressType

	// Digest returns the 32 byte digest that identifies the Address.
	Digest() []byte

	// Clone creates a copy of the Address.
	Clone() Address

	// Equals returns true if the two Addresses are equal.
	Equals(other Address) bool

	// Bytes returns a marshaled version of the Address.
	Bytes() []byte

	// Key returns a comparable representation that can be used as a map key.
	Key() string

	// Bech32 returns the bech32 encoded version of the Address with the given human-readable part.
	Bech32(hrp string) string

	// Hex returns the 0x-prefixed hex encoded serialized Address.
	Hex() string

	// String returns a human-readable version of the Address for debug purposes.
	String() string
}

// AddressFromBytes unmarshals an Address from a sequence of bytes.
func AddressFromBytes(data []byte) (address Address, consumedBytes int, err error) {
	marshalUtil := marshalutil.New(data)
	if address, err = AddressFromMarshalUtil(marshalUtil); err != nil {
		err = errors.Errorf("failed to parse Address from MarshalUtil: %w", err)
		return
	}
	consumedBytes = marshalUtil.ReadOffset()

	return
}

// AddressFromMarshalUtil reads an Address from the bytes in the given MarshalUtil.
func AddressFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (address Address, err error) {
	addressType, err := marshalUtil.ReadByte()
	if err != nil {
		err = errors.Errorf("failed to parse AddressType (%v): %w", err, cerrors.ErrParseBytesFailed)
		return
	}

	digest, err := marshalUtil.ReadBytes(AddressDigestLength)
	if err != nil {
		err = errors.Errorf("failed to parse address digest (%v): %w", err, cerrors.ErrParseBytesFailed)
		return
	}

	return newAddress(AddressType(addressType), digest)
}

// newAddress creates the Address of the given type from a raw digest.
func newAddress(addressType AddressType, digest []byte) (Address, error) {
	if len(digest) != AddressDigestLength {
		return nil, errors.Errorf("invalid digest length %d: %w", len(digest), cerrors.ErrParseBytesFailed)
	}

	switch addressType {
	case Ed25519AddressType:
		address := &Ed25519Address{}
		copy(address.digest[:], digest)
		return address, nil
	case AliasAddressType:
		address := &AliasAddress{}
		copy(address.digest[:], digest)
		return address, nil
	case NFTAddressType:
		address := &NFTAddress{}
		copy(address.digest[:], digest)
		return address, nil
	default:
		return nil, errors.Errorf("unsupported address type (%X): %w", byte(addressType), cerrors.ErrParseBytesFailed)
	}
}

// AddressFromHex parses a 0x-prefixed (or plain) hex encoded serialized Address.
func AddressFromHex(hexString string) (Address, error) {
	data, err := decodeHex(hexString)
	if err != nil {
		return nil, err
	}
	address, consumedBytes, err := AddressFromBytes(data)
	if err != nil {
		return nil, err
	}
	if consumedBytes != len(data) {
		return nil, errors.Errorf("%d trailing bytes after address: %w", len(data)-consumedBytes, cerrors.ErrParseBytesFailed)
	}

	return address, nil
}

func encodeHex(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

func decodeHex(hexString string) ([]byte, error) {
	if len(hexString) >= 2 && hexString[0] == '0' && (hexString[1] == 'x' || hexString[1] == 'X') {
		hexString = hexString[2:]
	}

	return hex.DecodeString(hexString)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Ed25519Address ///////////////////////////////////////////////////////////////////////////////////////////////

// Ed25519Address represents an Address that is secured by the Ed25519 signature scheme.
type Ed25519Address struct {
	digest [AddressDigestLength]byte
}

// NewEd25519Address creates a new Ed25519Address from the given public key.
func NewEd25519Address(publicKey ed25519.PublicKey) *Ed25519Address {
	return &Ed25519Address{
		digest: blake2b.Sum256(publicKey[:]),
	}
}

// Type returns the AddressType of the Address.
func (e *Ed25519Address) Type() AddressType {
	return Ed25519AddressType
}

// Digest returns the hashed version of the Addresses public key.
func (e *Ed25519Address) Digest() []byte {
	return e.digest[:]
}

// Clone creates a copy of the Address.
func (e *Ed25519Address) Clone() Address {
	return &Ed25519Address{digest: e.digest}
}

// Equals returns true if the two Addresses are equal.
func (e *Ed25519Address) Equals(other Address) bool {
	return other != nil && e.Type() == other.Type() && bytes.Equal(e.Digest(), other.Digest())
}

// Bytes returns a marshaled version of the Address.
func (e *Ed25519Address) Bytes() []byte {
	return byteutils.ConcatBytes([]byte{byte(Ed25519AddressType)}, e.digest[:])
}

// Key returns a comparable representation that can be used as a map key.
func (e *Ed25519Address) Key() string {
	return string(e.Bytes())
}

// Bech32 returns the bech32 encoded version of the Address.
func (e *Ed25519Address) Bech32(hrp string) string {
	return mustBech32(hrp, e)
}

// Hex returns the hex encoded serialized Address.
func (e *Ed25519Address) Hex() string {
	return encodeHex(e.Bytes())
}

// String returns a human-readable version of the Address for debug purposes.
func (e *Ed25519Address) String() string {
	return stringify.Struct("Ed25519Address",
		stringify.StructField("Digest", e.Digest()),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Address = &Ed25519Address{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region AliasAddress /////////////////////////////////////////////////////////////////////////////////////////////////

// AliasAddress represents an Address which is not backed by a private key directly, but by the state controller or
// governor of the AliasOutput it names.
type AliasAddress struct {
	digest [AddressDigestLength]byte
}

// NewAliasAddress creates the AliasAddress of the given AliasID.
func NewAliasAddress(aliasID AliasID) *AliasAddress {
	return &AliasAddress{digest: aliasID}
}

// AliasID returns the AliasID this Address refers to.
func (a *AliasAddress) AliasID() AliasID {
	return a.digest
}

// Type returns the AddressType of the Address.
func (a *AliasAddress) Type() AddressType {
	return AliasAddressType
}

// Digest returns the AliasID the Address refers to.
func (a *AliasAddress) Digest() []byte {
	return a.digest[:]
}

// Clone creates a copy of the Address.
func (a *AliasAddress) Clone() Address {
	return &AliasAddress{digest: a.digest}
}

// Equals returns true if the two Addresses are equal.
func (a *AliasAddress) Equals(other Address) bool {
	return other != nil && a.Type() == other.Type() && bytes.Equal(a.Digest(), other.Digest())
}

// Bytes returns a marshaled version of the Address.
func (a *AliasAddress) Bytes() []byte {
	return byteutils.ConcatBytes([]byte{byte(AliasAddressType)}, a.digest[:])
}

// Key returns a comparable representation that can be used as a map key.
func (a *AliasAddress) Key() string {
	return string(a.Bytes())
}

// Bech32 returns the bech32 encoded version of the Address.
func (a *AliasAddress) Bech32(hrp string) string {
	return mustBech32(hrp, a)
}

// Hex returns the hex encoded serialized Address.
func (a *AliasAddress) Hex() string {
	return encodeHex(a.Bytes())
}

// String returns a human-readable version of the Address for debug purposes.
func (a *AliasAddress) String() string {
	return stringify.Struct("AliasAddress",
		stringify.StructField("AliasID", a.AliasID().String()),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Address = &AliasAddress{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NFTAddress ///////////////////////////////////////////////////////////////////////////////////////////////////

// NFTAddress represents the Address of an NFTOutput.
type NFTAddress struct {
	digest [AddressDigestLength]byte
}

// NewNFTAddress creates the NFTAddress of the given NFTID.
func NewNFTAddress(nftID NFTID) *NFTAddress {
	return &NFTAddress{digest: nftID}
}

// NFTID returns the NFTID this Address refers to.
func (n *NFTAddress) NFTID() NFTID {
	return n.digest
}

// Type returns the AddressType of the Address.
func (n *NFTAddress) Type() AddressType {
	return NFTAddressType
}

// Digest returns the NFTID the Address refers to.
func (n *NFTAddress) Digest() []byte {
	return n.digest[:]
}

// Clone creates a copy of the Address.
func (n *NFTAddress) Clone() Address {
	return &NFTAddress{digest: n.digest}
}

// Equals returns true if the two Addresses are equal.
func (n *NFTAddress) Equals(other Address) bool {
	return other != nil && n.Type() == other.Type() && bytes.Equal(n.Digest(), other.Digest())
}

// Bytes returns a marshaled version of the Address.
func (n *NFTAddress) Bytes() []byte {
	return byteutils.ConcatBytes([]byte{byte(NFTAddressType)}, n.digest[:])
}

// Key returns a comparable representation that can be used as a map key.
func (n *NFTAddress) Key() string {
	return string(n.Bytes())
}

// Bech32 returns the bech32 encoded version of the Address.
func (n *NFTAddress) Bech32(hrp string) string {
	return mustBech32(hrp, n)
}

// Hex returns the hex encoded serialized Address.
func (n *NFTAddress) Hex() string {
	return encodeHex(n.Bytes())
}

// String returns a human-readable version of the Address for debug purposes.
func (n *NFTAddress) String() string {
	return stringify.Struct("NFTAddress",
		stringify.StructField("NFTID", n.NFTID().String()),
	)
}

// code contract (make sure the struct implements all required methods).
var _ Address = &NFTAddress{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

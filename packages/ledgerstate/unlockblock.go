package ledgerstate

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
)

// region UnlockType ///////////////////////////////////////////////////////////////////////////////////////////////////

const (
	// SignatureUnlockType represents the type of a SignatureUnlock.
	SignatureUnlockType UnlockType = iota

	// ReferenceUnlockType represents the type of a ReferenceUnlock.
	ReferenceUnlockType

	// AliasUnlockType represents the type of an AliasUnlock.
	AliasUnlockType

	// NFTUnlockType represents the type of an NFTUnlock.
	NFTUnlockType
)

// UnlockType represents the type of the Unlock. Different types of Unlocks can unlock different types of Outputs.
type UnlockType uint8

// String returns a human readable representation of the UnlockType.
func (u UnlockType) String() string {
	switch u {
	case SignatureUnlockType:
		return "SignatureUnlock"
	case ReferenceUnlockType:
		return "ReferenceUnlock"
	case AliasUnlockType:
		return "AliasUnlock"
	case NFTUnlockType:
		return "NFTUnlock"
	default:
		return "UnknownUnlock"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Ed25519Signature /////////////////////////////////////////////////////////////////////////////////////////////

// Ed25519SignatureType is the type of an Ed25519Signature.
const Ed25519SignatureType byte = 0

// Ed25519Signature is a signature together with the public key that produced it.
type Ed25519Signature struct {
	PublicKey ed25519.PublicKey
	Signature ed25519.Signature
}

// Ed25519SignatureFromMarshalUtil unmarshals an Ed25519Signature using a MarshalUtil (for easier unmarshaling).
func Ed25519SignatureFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (signature *Ed25519Signature, err error) {
	signatureType, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse SignatureType (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if signatureType != Ed25519SignatureType {
		return nil, errors.Errorf("unsupported signature type (%X): %w", signatureType, cerrors.ErrParseBytesFailed)
	}

	signature = &Ed25519Signature{}
	publicKeyBytes, err := marshalUtil.ReadBytes(ed25519.PublicKeySize)
	if err != nil {
		return nil, errors.Errorf("failed to parse public key (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	copy(signature.PublicKey[:], publicKeyBytes)

	signatureBytes, err := marshalUtil.ReadBytes(ed25519.SignatureSize)
	if err != nil {
		return nil, errors.Errorf("failed to parse signature (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	copy(signature.Signature[:], signatureBytes)

	return signature, nil
}

// SignsAddress returns true if the public key belongs to the Address and the signature over the data is valid.
func (e *Ed25519Signature) SignsAddress(address Address, data []byte) bool {
	if !NewEd25519Address(e.PublicKey).Equals(address) {
		return false
	}

	return e.PublicKey.VerifySignature(data, e.Signature)
}

// Address returns the Ed25519Address of the public key.
func (e *Ed25519Signature) Address() *Ed25519Address {
	return NewEd25519Address(e.PublicKey)
}

func (e *Ed25519Signature) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(Ed25519SignatureType)
	marshalUtil.WriteBytes(e.PublicKey[:])
	marshalUtil.WriteBytes(e.Signature[:])
}

// String returns a human readable version of the Ed25519Signature.
func (e *Ed25519Signature) String() string {
	return stringify.Struct("Ed25519Signature",
		stringify.StructField("publicKey", e.PublicKey),
		stringify.StructField("signature", e.Signature),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Unlock ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Unlock proves the right to consume the input at the same index.
type Unlock interface {
	// Type returns the UnlockType of this Unlock.
	Type() UnlockType

	// String returns a human readable version of this Unlock.
	String() string

	writeTo(marshalUtil *marshalutil.MarshalUtil)
}

// UnlockFromMarshalUtil unmarshals an Unlock using a MarshalUtil (for easier unmarshaling).
func UnlockFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (unlock Unlock, err error) {
	unlockType, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse UnlockType (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	if UnlockType(unlockType) == SignatureUnlockType {
		signature, signatureErr := Ed25519SignatureFromMarshalUtil(marshalUtil)
		if signatureErr != nil {
			return nil, errors.Errorf("failed to parse Signature from MarshalUtil: %w", signatureErr)
		}
		return &SignatureUnlock{Signature: signature}, nil
	}

	referencedIndex, err := marshalUtil.ReadUint16()
	if err != nil {
		return nil, errors.Errorf("failed to parse referenced index (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	switch UnlockType(unlockType) {
	case ReferenceUnlockType:
		return &ReferenceUnlock{ReferencedIndex: referencedIndex}, nil
	case AliasUnlockType:
		return &AliasUnlock{ReferencedIndex: referencedIndex}, nil
	case NFTUnlockType:
		return &NFTUnlock{ReferencedIndex: referencedIndex}, nil
	default:
		return nil, errors.Errorf("unsupported UnlockType (%X): %w", unlockType, cerrors.ErrParseBytesFailed)
	}
}

// SignatureUnlock carries the signature of the Ed25519Address that owns an input.
type SignatureUnlock struct {
	Signature *Ed25519Signature
}

// Type returns the UnlockType of this Unlock.
func (s *SignatureUnlock) Type() UnlockType {
	return SignatureUnlockType
}

func (s *SignatureUnlock) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(SignatureUnlockType))
	s.Signature.writeTo(marshalUtil)
}

// String returns a human readable version of this Unlock.
func (s *SignatureUnlock) String() string {
	return stringify.Struct("SignatureUnlock", stringify.StructField("signature", s.Signature))
}

// ReferenceUnlock reuses the SignatureUnlock at ReferencedIndex, for inputs owned by an already signing address.
type ReferenceUnlock struct {
	ReferencedIndex uint16
}

// Type returns the UnlockType of this Unlock.
func (r *ReferenceUnlock) Type() UnlockType {
	return ReferenceUnlockType
}

func (r *ReferenceUnlock) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(ReferenceUnlockType))
	marshalUtil.WriteUint16(r.ReferencedIndex)
}

// String returns a human readable version of this Unlock.
func (r *ReferenceUnlock) String() string {
	return stringify.Struct("ReferenceUnlock", stringify.StructField("referencedIndex", r.ReferencedIndex))
}

// AliasUnlock unlocks an input owned by the alias that is consumed at ReferencedIndex.
type AliasUnlock struct {
	ReferencedIndex uint16
}

// Type returns the UnlockType of this Unlock.
func (a *AliasUnlock) Type() UnlockType {
	return AliasUnlockType
}

func (a *AliasUnlock) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(AliasUnlockType))
	marshalUtil.WriteUint16(a.ReferencedIndex)
}

// String returns a human readable version of this Unlock.
func (a *AliasUnlock) String() string {
	return stringify.Struct("AliasUnlock", stringify.StructField("referencedIndex", a.ReferencedIndex))
}

// NFTUnlock unlocks an input owned by the NFT that is consumed at ReferencedIndex.
type NFTUnlock struct {
	ReferencedIndex uint16
}

// Type returns the UnlockType of this Unlock.
func (n *NFTUnlock) Type() UnlockType {
	return NFTUnlockType
}

func (n *NFTUnlock) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(NFTUnlockType))
	marshalUtil.WriteUint16(n.ReferencedIndex)
}

// String returns a human readable version of this Unlock.
func (n *NFTUnlock) String() string {
	return stringify.Struct("NFTUnlock", stringify.StructField("referencedIndex", n.ReferencedIndex))
}

// code contract (make sure the types implement all required methods)
var (
	_ Unlock = &SignatureUnlock{}
	_ Unlock = &ReferenceUnlock{}
	_ Unlock = &AliasUnlock{}
	_ Unlock = &NFTUnlock{}
)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Unlocks //////////////////////////////////////////////////////////////////////////////////////////////////////

// Unlocks is the list of Unlocks of a Transaction, one per input.
type Unlocks []Unlock

// UnlocksFromMarshalUtil unmarshals Unlocks using a MarshalUtil (for easier unmarshaling).
func UnlocksFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (unlocks Unlocks, err error) {
	count, err := marshalUtil.ReadUint16()
	if err != nil {
		return nil, errors.Errorf("failed to parse unlock count (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	unlocks = make(Unlocks, count)
	for i := range unlocks {
		if unlocks[i], err = UnlockFromMarshalUtil(marshalUtil); err != nil {
			return nil, errors.Errorf("failed to parse unlock %d: %w", i, err)
		}
	}

	return unlocks, nil
}

func (u Unlocks) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteUint16(uint16(len(u)))
	for _, unlock := range u {
		unlock.writeTo(marshalUtil)
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

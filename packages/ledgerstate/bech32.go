package ledgerstate

import (
	"github.com/btcsuite/btcutil/bech32"
	"github.com/cockroachdb/errors"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

const (
	// MaxBech32HRPLength is the maximum length of a human-readable part.
	MaxBech32HRPLength = 83

	// maxBech32Length is the maximum length of a bech32 string that can be decoded again.
	maxBech32Length = 90

	// addressBech32Overhead is the length of an encoded Address without its hrp: separator, 53 data characters and
	// the 6 character checksum.
	addressBech32Overhead = 1 + (AddressLength*8+4)/5 + 6
)

// ValidateBech32HRP checks that the human-readable part only consists of lowercase printable ASCII characters, has
// between 1 and MaxBech32HRPLength characters and leaves encoded addresses short enough to be decoded again.
func ValidateBech32HRP(hrp string) error {
	if len(hrp) == 0 || len(hrp) > MaxBech32HRPLength {
		return clienterrors.AddressFormatf("bech32 hrp must have between 1 and %d characters, got %d", MaxBech32HRPLength, len(hrp))
	}

	if len(hrp)+addressBech32Overhead > maxBech32Length {
		return clienterrors.AddressFormatf("bech32 hrp %q is too long for an address", hrp)
	}

	for i := 0; i < len(hrp); i++ {
		if c := hrp[i]; c < 33 || c > 126 || (c >= 'A' && c <= 'Z') {
			return clienterrors.AddressFormatf("invalid character %q in bech32 hrp %q", c, hrp)
		}
	}

	return nil
}

// mustBech32 encodes the serialized Address. Encoding only fails for invalid human-readable parts.
func mustBech32(hrp string, address Address) string {
	encoded, err := encodeBech32(hrp, address)
	if err != nil {
		panic(err)
	}

	return encoded
}

func encodeBech32(hrp string, address Address) (string, error) {
	if err := ValidateBech32HRP(hrp); err != nil {
		return "", err
	}

	converted, err := bech32.ConvertBits(address.Bytes(), 8, 5, true)
	if err != nil {
		return "", clienterrors.AddressFormatf("failed to convert address bits: %v", err)
	}

	encoded, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", clienterrors.AddressFormatf("failed to encode address with hrp %q: %v", hrp, err)
	}

	return encoded, nil
}

// ParseBech32 decodes a bech32 encoded Address and returns its human-readable part.
func ParseBech32(encoded string) (hrp string, address Address, err error) {
	hrp, data, err := bech32.Decode(encoded)
	if err != nil {
		return "", nil, clienterrors.AddressFormatf("invalid bech32 string %q: %v", encoded, err)
	}

	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, clienterrors.AddressFormatf("invalid bech32 payload: %v", err)
	}
	if len(decoded) != AddressLength {
		return "", nil, clienterrors.AddressFormatf("invalid address length %d", len(decoded))
	}

	if address, _, err = AddressFromBytes(decoded); err != nil {
		return "", nil, clienterrors.AddressFormatf("%v", err)
	}

	return hrp, address, nil
}

// HexToBech32 encodes the hex encoded digest of an Ed25519Address with the given human-readable part.
func HexToBech32(hexDigest, hrp string) (string, error) {
	if err := ValidateBech32HRP(hrp); err != nil {
		return "", err
	}

	digest, err := decodeHex(hexDigest)
	if err != nil {
		return "", clienterrors.AddressFormatf("invalid hex %q: %v", hexDigest, err)
	}
	if len(digest) != AddressDigestLength {
		return "", clienterrors.AddressFormatf("invalid digest length %d, expected %d", len(digest), AddressDigestLength)
	}

	address, err := newAddress(Ed25519AddressType, digest)
	if err != nil {
		return "", clienterrors.AddressFormatf("%v", err)
	}

	return encodeBech32(hrp, address)
}

// Bech32ToHex decodes a bech32 encoded Address and returns the 0x-prefixed hex encoding of its digest.
func Bech32ToHex(encoded string) (string, error) {
	_, address, err := ParseBech32(encoded)
	if err != nil {
		return "", err
	}

	return encodeHex(address.Digest()), nil
}

// IsAddressValid returns true if the string is a bech32 encoded Address with a valid checksum and a known type.
func IsAddressValid(encoded string) bool {
	_, _, err := ParseBech32(encoded)
	return err == nil
}

// AddressFromBech32 decodes the bech32 string and checks that it carries the expected human-readable part.
func AddressFromBech32(encoded, expectedHRP string) (Address, error) {
	hrp, address, err := ParseBech32(encoded)
	if err != nil {
		return nil, err
	}
	if expectedHRP != "" && hrp != expectedHRP {
		return nil, errors.Wrapf(clienterrors.ErrAddressFormat, "address %s has hrp %q instead of %q", encoded, hrp, expectedHRP)
	}

	return address, nil
}

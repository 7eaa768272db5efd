// Package pow implements the proof of work that makes a block acceptable to the network. The blake2b-256 digest of
// the block without its nonce and the nonce itself are b1t6 encoded and hashed with Curl-P-81. The score of a nonce is
// 3^(trailing zero trits of that hash) divided by the length of the block, so longer blocks need more work.
package pow

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/blake2b"
)

// NonceLength is the size of the serialized nonce appended to the pow data.
const NonceLength = 8

var (
	// ErrCancelled is returned when the context was done before a nonce was found.
	ErrCancelled = errors.New("canceled")

	// ErrDone is returned by a worker that stopped because another worker found a nonce.
	ErrDone = errors.New("done")
)

// Provider computes nonces. Local and remote implementations are interchangeable.
type Provider interface {
	// Mine returns a nonce whose Score for the given pow data is at least targetScore.
	Mine(ctx context.Context, powData []byte, targetScore uint32) (nonce uint64, err error)
}

// ProviderFunc is an adapter to allow the use of ordinary functions as Provider.
type ProviderFunc func(ctx context.Context, powData []byte, targetScore uint32) (uint64, error)

// Mine calls f.
func (f ProviderFunc) Mine(ctx context.Context, powData []byte, targetScore uint32) (uint64, error) {
	return f(ctx, powData, targetScore)
}

// TrailingZeros returns the number of trailing zero trits of the Curl-P-81 hash of the pow data digest and the nonce.
func TrailingZeros(powDigest [blake2b.Size256]byte, nonce uint64) int {
	var nonceBytes [NonceLength]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], nonce)

	var block [hashTrits]int8
	n := encodeB1T6(block[:], powDigest[:])
	encodeB1T6(block[n:], nonceBytes[:])
	hash := curlHash(&block)

	return trailingZeroTrits(&hash)
}

// Score returns the score of the nonce for the given pow data.
func Score(powData []byte, nonce uint64) float64 {
	zeros := TrailingZeros(blake2b.Sum256(powData), nonce)

	return math.Pow(3, float64(zeros)) / float64(len(powData)+NonceLength)
}

// RequiredTrailingZeros returns the number of trailing zero trits a nonce needs so that the block reaches targetScore.
func RequiredTrailingZeros(powDataLength int, targetScore uint32) int {
	if targetScore == 0 {
		return 0
	}

	required := uint64(targetScore) * uint64(powDataLength+NonceLength)
	zeros := 0
	for power := uint64(1); power < required; power *= 3 {
		zeros++
	}

	return zeros
}

// Valid returns true if the nonce reaches targetScore. A target score of 0 disables the proof of work.
func Valid(powData []byte, nonce uint64, targetScore uint32) bool {
	if targetScore == 0 {
		return true
	}

	return TrailingZeros(blake2b.Sum256(powData), nonce) >= RequiredTrailingZeros(len(powData), targetScore)
}

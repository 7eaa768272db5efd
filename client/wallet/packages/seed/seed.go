// Package seed derives ed25519 key pairs and addresses from a wallet seed along hardened SLIP-10 paths.
package seed

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/mr-tron/base58"
	"github.com/wollac/iota-crypto-demo/pkg/bip32path"
	"github.com/wollac/iota-crypto-demo/pkg/slip10"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

const (
	// HardenedOffset is added to every index of a path, ed25519 only supports hardened derivation.
	HardenedOffset uint32 = 0x80000000

	// Purpose is the BIP-44 purpose field.
	Purpose uint32 = 44

	// IotaCoinType is the registered coin type of IOTA.
	IotaCoinType uint32 = 4218

	// ShimmerCoinType is the registered coin type of Shimmer.
	ShimmerCoinType uint32 = 4219

	// MinSeedLength and MaxSeedLength bound the length of a seed in bytes.
	MinSeedLength = 16
	MaxSeedLength = 64

	// DefaultSeedLength is the length of seeds created by Random.
	DefaultSeedLength = 32
)

// region Path /////////////////////////////////////////////////////////////////////////////////////////////////////////

// Path is a derivation path. All indexes are stored without the HardenedOffset.
type Path []uint32

// BIP44Path returns the path m/44'/coinType'/account'/internal'/index'.
func BIP44Path(coinType, account uint32, internal bool, index uint32) Path {
	change := uint32(0)
	if internal {
		change = 1
	}

	return Path{Purpose, coinType, account, change, index}
}

// ParsePath parses a path of the form m/44'/4218'/0'/0'/0'. The apostrophes are optional since every segment is
// hardened anyway.
func ParsePath(s string) (Path, error) {
	segments := strings.Split(strings.TrimSpace(s), "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, clienterrors.Validationf("path %q does not start with m", s)
	}

	path := make(Path, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		index, err := strconv.ParseUint(strings.TrimSuffix(segment, "'"), 10, 32)
		if err != nil || uint32(index) >= HardenedOffset {
			return nil, clienterrors.Validationf("invalid segment %q in path %q", segment, s)
		}
		path = append(path, uint32(index))
	}

	return path, nil
}

// Index returns the last segment of the path.
func (p Path) Index() uint32 {
	if len(p) == 0 {
		return 0
	}

	return p[len(p)-1]
}

// Internal returns true if the path is a BIP-44 path of the internal (change) chain.
func (p Path) Internal() bool {
	return len(p) == 5 && p[3] == 1
}

func (p Path) String() string {
	var builder strings.Builder
	builder.WriteString("m")
	for _, index := range p {
		builder.WriteString("/")
		builder.WriteString(strconv.FormatUint(uint64(index), 10))
		builder.WriteString("'")
	}

	return builder.String()
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Seed /////////////////////////////////////////////////////////////////////////////////////////////////////////

// Seed is the secret all keys of a wallet are derived from.
type Seed struct {
	bytes []byte
}

// New creates a Seed from its raw bytes.
func New(seedBytes []byte) (*Seed, error) {
	if len(seedBytes) < MinSeedLength || len(seedBytes) > MaxSeedLength {
		return nil, clienterrors.SecretManagerf("seed must have between %d and %d bytes, got %d", MinSeedLength, MaxSeedLength, len(seedBytes))
	}

	seed := &Seed{bytes: make([]byte, len(seedBytes))}
	copy(seed.bytes, seedBytes)

	return seed, nil
}

// FromHex creates a Seed from its hex representation, with or without 0x prefix.
func FromHex(hexSeed string) (*Seed, error) {
	seedBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexSeed), "0x"))
	if err != nil {
		return nil, clienterrors.SecretManagerf("seed is not valid hex: %v", err)
	}

	return New(seedBytes)
}

// FromBase58 creates a Seed from its base58 representation.
func FromBase58(base58Seed string) (*Seed, error) {
	seedBytes, err := base58.Decode(base58Seed)
	if err != nil {
		return nil, clienterrors.SecretManagerf("seed is not valid base58: %v", err)
	}

	return New(seedBytes)
}

// Random creates a new random Seed.
func Random() (*Seed, error) {
	seedBytes := make([]byte, DefaultSeedLength)
	if _, err := rand.Read(seedBytes); err != nil {
		return nil, errors.Errorf("failed to read random seed: %w", err)
	}

	return New(seedBytes)
}

// Bytes returns a copy of the raw seed.
func (s *Seed) Bytes() []byte {
	seedBytes := make([]byte, len(s.bytes))
	copy(seedBytes, s.bytes)

	return seedBytes
}

// Hex returns the 0x-prefixed hex representation of the seed.
func (s *Seed) Hex() string {
	return "0x" + hex.EncodeToString(s.bytes)
}

// Base58 returns the base58 representation of the seed.
func (s *Seed) Base58() string {
	return base58.Encode(s.bytes)
}

// KeyPair derives the ed25519 key pair at the given path.
func (s *Seed) KeyPair(path Path) (ed25519.KeyPair, error) {
	for _, index := range path {
		if index >= HardenedOffset {
			return ed25519.KeyPair{}, clienterrors.Validationf("index %d of path %s is out of range", index, path)
		}
	}

	bip32Path, err := bip32path.ParsePath(path.String())
	if err != nil {
		return ed25519.KeyPair{}, clienterrors.Validationf("invalid path %s: %v", path, err)
	}

	key, err := slip10.DeriveKeyFromPath(s.bytes, slip10.Ed25519(), bip32Path)
	if err != nil {
		return ed25519.KeyPair{}, clienterrors.SecretManagerf("failed to derive key at %s: %v", path, err)
	}
	_, derivedKey := slip10.Ed25519Key(key)

	privateKey := ed25519.PrivateKeyFromSeed(derivedKey.Seed())

	return ed25519.KeyPair{PrivateKey: privateKey, PublicKey: privateKey.Public()}, nil
}

// Address derives the Ed25519Address at the given path.
func (s *Seed) Address(path Path) (*ledgerstate.Ed25519Address, error) {
	keyPair, err := s.KeyPair(path)
	if err != nil {
		return nil, err
	}

	return ledgerstate.NewEd25519Address(keyPair.PublicKey), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package secretmanager

import (
	"context"

	"github.com/tyler-smith/go-bip39"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// MnemonicEntropyBits is the entropy of mnemonics created by GenerateMnemonic (24 words).
const MnemonicEntropyBits = 256

// region SeedSecretManager ////////////////////////////////////////////////////////////////////////////////////////////

// SeedSecretManager keeps the seed in memory.
type SeedSecretManager struct {
	seed *seed.Seed
}

// NewSeedSecretManager creates a SeedSecretManager for the given seed.
func NewSeedSecretManager(walletSeed *seed.Seed) *SeedSecretManager {
	return &SeedSecretManager{seed: walletSeed}
}

// NewSeedSecretManagerFromHex creates a SeedSecretManager for the hex encoded seed.
func NewSeedSecretManagerFromHex(hexSeed string) (*SeedSecretManager, error) {
	walletSeed, err := seed.FromHex(hexSeed)
	if err != nil {
		return nil, err
	}

	return NewSeedSecretManager(walletSeed), nil
}

// GenerateAddresses implements SecretManager.
func (s *SeedSecretManager) GenerateAddresses(ctx context.Context, options *GenerateAddressesOptions) (address.Addresses, error) {
	return generateAddresses(ctx, options, func(path seed.Path) (ledgerstate.Address, error) {
		return s.seed.Address(path)
	})
}

// SignEd25519 implements SecretManager.
func (s *SeedSecretManager) SignEd25519(ctx context.Context, message []byte, path seed.Path) (*ledgerstate.Ed25519Signature, error) {
	return signWithSeed(ctx, s.seed, message, path)
}

func signWithSeed(ctx context.Context, walletSeed *seed.Seed, message []byte, path seed.Path) (*ledgerstate.Ed25519Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keyPair, err := walletSeed.KeyPair(path)
	if err != nil {
		return nil, clienterrors.SecretManagerf("failed to derive key %s: %v", path, err)
	}

	return &ledgerstate.Ed25519Signature{
		PublicKey: keyPair.PublicKey,
		Signature: keyPair.PrivateKey.Sign(message),
	}, nil
}

// code contract (make sure the struct implements all required methods).
var _ SecretManager = &SeedSecretManager{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region MnemonicSecretManager ////////////////////////////////////////////////////////////////////////////////////////

// MnemonicSecretManager derives its keys from a BIP-39 mnemonic.
type MnemonicSecretManager struct {
	*SeedSecretManager
}

// NewMnemonicSecretManager creates a MnemonicSecretManager. The passphrase may be empty.
func NewMnemonicSecretManager(mnemonic, passphrase string) (*MnemonicSecretManager, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, clienterrors.SecretManagerf("invalid mnemonic")
	}

	seedBytes, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, clienterrors.SecretManagerf("failed to create seed from mnemonic: %v", err)
	}

	walletSeed, err := seed.New(seedBytes)
	if err != nil {
		return nil, err
	}

	return &MnemonicSecretManager{SeedSecretManager: NewSeedSecretManager(walletSeed)}, nil
}

// GenerateMnemonic creates a new random 24 word mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", clienterrors.SecretManagerf("failed to create entropy: %v", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", clienterrors.SecretManagerf("failed to create mnemonic: %v", err)
	}

	return mnemonic, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region PlaceholderSecretManager /////////////////////////////////////////////////////////////////////////////////////

// PlaceholderSecretManager stands in for a wallet without secret. Every call fails.
type PlaceholderSecretManager struct{}

// GenerateAddresses implements SecretManager.
func (PlaceholderSecretManager) GenerateAddresses(context.Context, *GenerateAddressesOptions) (address.Addresses, error) {
	return nil, clienterrors.SecretManagerf("placeholder secret manager can not derive addresses")
}

// SignEd25519 implements SecretManager.
func (PlaceholderSecretManager) SignEd25519(context.Context, []byte, seed.Path) (*ledgerstate.Ed25519Signature, error) {
	return nil, clienterrors.SecretManagerf("placeholder secret manager can not sign")
}

// code contract (make sure the struct implements all required methods).
var _ SecretManager = PlaceholderSecretManager{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

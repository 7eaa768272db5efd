package secretmanager

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

const (
	saltSize = 32

	// sealed vault: salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
	vaultHeaderSize = saltSize + 4 + 4 + 1
)

// KeyDerivationParams are the Argon2id parameters used to derive the vault key from the password.
type KeyDerivationParams struct {
	// Memory in KiB.
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultKeyDerivationParams returns the Argon2id parameters used for new vaults.
func DefaultKeyDerivationParams() KeyDerivationParams {
	return KeyDerivationParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func vaultKey(password, salt []byte, params KeyDerivationParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func wipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
}

// SealSeed encrypts the seed with the password so it can be stored and opened by a VaultSecretManager.
func SealSeed(walletSeed *seed.Seed, password []byte, params KeyDerivationParams) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Errorf("failed to create salt: %w", err)
	}

	key := vaultKey(password, salt, params)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, errors.Errorf("failed to create nonce: %w", err)
	}

	seedBytes := walletSeed.Bytes()
	defer wipe(seedBytes)
	ciphertext := aead.Seal(nil, nonce, seedBytes, nil)

	sealed := make([]byte, 0, vaultHeaderSize+len(nonce)+len(ciphertext))
	sealed = append(sealed, salt...)
	sealed = binary.LittleEndian.AppendUint32(sealed, params.Memory)
	sealed = binary.LittleEndian.AppendUint32(sealed, params.Iterations)
	sealed = append(sealed, params.Parallelism)
	sealed = append(sealed, nonce...)
	sealed = append(sealed, ciphertext...)

	return sealed, nil
}

func openSeed(sealed, password []byte) (*seed.Seed, error) {
	if len(sealed) < vaultHeaderSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, clienterrors.SecretManagerf("vault is too short: %d bytes", len(sealed))
	}

	params := KeyDerivationParams{
		Memory:      binary.LittleEndian.Uint32(sealed[saltSize:]),
		Iterations:  binary.LittleEndian.Uint32(sealed[saltSize+4:]),
		Parallelism: sealed[saltSize+8],
	}
	nonce := sealed[vaultHeaderSize : vaultHeaderSize+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[vaultHeaderSize+chacha20poly1305.NonceSizeX:]

	key := vaultKey(password, sealed[:saltSize], params)
	defer wipe(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, clienterrors.SecretManagerf("failed to create cipher: %v", err)
	}

	seedBytes, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, clienterrors.SecretManagerf("wrong password or corrupted vault")
	}
	defer wipe(seedBytes)

	return seed.New(seedBytes)
}

// region VaultSecretManager ///////////////////////////////////////////////////////////////////////////////////////////

// VaultSecretManager keeps the seed encrypted and only holds the plain seed between Unlock and Lock.
type VaultSecretManager struct {
	sealed []byte

	unlocked      *seed.Seed
	unlockedMutex sync.RWMutex
}

// NewVaultSecretManager creates a locked VaultSecretManager for a vault created by SealSeed.
func NewVaultSecretManager(sealed []byte) *VaultSecretManager {
	return &VaultSecretManager{sealed: sealed}
}

// Unlock decrypts the seed with the password.
func (v *VaultSecretManager) Unlock(password []byte) error {
	unlocked, err := openSeed(v.sealed, password)
	if err != nil {
		return err
	}

	v.unlockedMutex.Lock()
	defer v.unlockedMutex.Unlock()
	v.unlocked = unlocked

	return nil
}

// Lock forgets the plain seed.
func (v *VaultSecretManager) Lock() {
	v.unlockedMutex.Lock()
	defer v.unlockedMutex.Unlock()

	v.unlocked = nil
}

// Locked returns true if the vault has to be unlocked before it can be used.
func (v *VaultSecretManager) Locked() bool {
	v.unlockedMutex.RLock()
	defer v.unlockedMutex.RUnlock()

	return v.unlocked == nil
}

func (v *VaultSecretManager) seed() (*seed.Seed, error) {
	v.unlockedMutex.RLock()
	defer v.unlockedMutex.RUnlock()

	if v.unlocked == nil {
		return nil, clienterrors.SecretManagerf("vault is locked")
	}

	return v.unlocked, nil
}

// GenerateAddresses implements SecretManager.
func (v *VaultSecretManager) GenerateAddresses(ctx context.Context, options *GenerateAddressesOptions) (address.Addresses, error) {
	walletSeed, err := v.seed()
	if err != nil {
		return nil, err
	}

	return generateAddresses(ctx, options, func(path seed.Path) (ledgerstate.Address, error) {
		return walletSeed.Address(path)
	})
}

// SignEd25519 implements SecretManager.
func (v *VaultSecretManager) SignEd25519(ctx context.Context, message []byte, path seed.Path) (*ledgerstate.Ed25519Signature, error) {
	walletSeed, err := v.seed()
	if err != nil {
		return nil, err
	}

	return signWithSeed(ctx, walletSeed, message, path)
}

// code contract (make sure the struct implements all required methods).
var _ SecretManager = &VaultSecretManager{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

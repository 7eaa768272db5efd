// Package secretmanager contains the backends that hold the secret of a wallet. They derive addresses and sign
// transaction essences without ever handing out the secret itself.
package secretmanager

import (
	"context"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// MaxAddressRange is the largest number of addresses derived in one batch.
const MaxAddressRange = 10000

// SecretManager derives addresses and signs messages with the keys of a wallet.
type SecretManager interface {
	// GenerateAddresses derives the addresses in the range of the options. Either all addresses are returned or an
	// error.
	GenerateAddresses(ctx context.Context, options *GenerateAddressesOptions) (address.Addresses, error)

	// SignEd25519 signs the message with the key at the given path.
	SignEd25519(ctx context.Context, message []byte, path seed.Path) (*ledgerstate.Ed25519Signature, error)
}

// GenerateAddressesOptions select the addresses of GenerateAddresses.
type GenerateAddressesOptions struct {
	CoinType     uint32
	AccountIndex uint32

	// Start and End define the half-open index range [Start, End).
	Start     uint32
	End       uint32
	Internal  bool
	Bech32HRP string
}

// Validate checks the range of the options.
func (o *GenerateAddressesOptions) Validate() error {
	if o == nil {
		return clienterrors.Validationf("missing address generation options")
	}
	if o.End < o.Start {
		return clienterrors.Validationf("invalid address range [%d, %d)", o.Start, o.End)
	}
	if o.End-o.Start > MaxAddressRange {
		return clienterrors.Validationf("address range [%d, %d) exceeds the maximum of %d addresses", o.Start, o.End, MaxAddressRange)
	}
	if o.Start >= seed.HardenedOffset || o.End > seed.HardenedOffset {
		return clienterrors.Validationf("address range [%d, %d) exceeds the hardened index space", o.Start, o.End)
	}
	if o.Bech32HRP == "" {
		return clienterrors.Validationf("missing bech32 human-readable part")
	}

	return ledgerstate.ValidateBech32HRP(o.Bech32HRP)
}

// Path returns the derivation path of the address with the given index.
func (o *GenerateAddressesOptions) Path(index uint32) seed.Path {
	return seed.BIP44Path(o.CoinType, o.AccountIndex, o.Internal, index)
}

// generateAddresses derives the addresses of the options with the given derivation function.
func generateAddresses(ctx context.Context, options *GenerateAddressesOptions, derive func(seed.Path) (ledgerstate.Address, error)) (address.Addresses, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}

	addresses := make(address.Addresses, 0, options.End-options.Start)
	for index := options.Start; index < options.End; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := options.Path(index)
		derived, err := derive(path)
		if err != nil {
			return nil, clienterrors.SecretManagerf("failed to derive address %s: %v", path, err)
		}
		addresses = append(addresses, address.New(derived, options.Bech32HRP, path))
	}

	return addresses, nil
}

package wallet

import (
	"context"
	"sync"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
)

// AddressManager is a manager struct that derives the addresses of the wallet through its SecretManager and keeps
// the derived addresses, so repeated builds over the same range do not ask the secret manager again.
type AddressManager struct {
	secretManager secretmanager.SecretManager
	coinType      uint32

	addresses      map[string]*address.Address
	addressesMutex sync.RWMutex
}

// NewAddressManager is the constructor for the AddressManager type.
func NewAddressManager(secretManager secretmanager.SecretManager, coinType uint32) (addressManager *AddressManager) {
	return &AddressManager{
		secretManager: secretManager,
		coinType:      coinType,
		addresses:     make(map[string]*address.Address),
	}
}

// Addresses returns the addresses of the account in the half-open index range [start, end) of the chain selected by
// internal. Either all addresses are returned or an error.
func (addressManager *AddressManager) Addresses(ctx context.Context, accountIndex, start, end uint32, internal bool, hrp string) (addresses address.Addresses, err error) {
	options := &secretmanager.GenerateAddressesOptions{
		CoinType:     addressManager.coinType,
		AccountIndex: accountIndex,
		Start:        start,
		End:          end,
		Internal:     internal,
		Bech32HRP:    hrp,
	}
	if err = options.Validate(); err != nil {
		return nil, err
	}

	if addresses = addressManager.cached(options); addresses != nil {
		return addresses, nil
	}

	if addresses, err = addressManager.secretManager.GenerateAddresses(ctx, options); err != nil {
		return nil, err
	}

	addressManager.addressesMutex.Lock()
	defer addressManager.addressesMutex.Unlock()
	for _, addr := range addresses {
		addressManager.addresses[cacheKey(addr.Path.String(), hrp)] = addr
	}

	return addresses, nil
}

// AllAddresses returns the external addresses of the range followed by the internal ones.
func (addressManager *AddressManager) AllAddresses(ctx context.Context, accountIndex, start, end uint32, hrp string) (address.Addresses, error) {
	external, err := addressManager.Addresses(ctx, accountIndex, start, end, false, hrp)
	if err != nil {
		return nil, err
	}

	internal, err := addressManager.Addresses(ctx, accountIndex, start, end, true, hrp)
	if err != nil {
		return nil, err
	}

	return append(external, internal...), nil
}

// cached returns the addresses of the options if all of them were derived before.
func (addressManager *AddressManager) cached(options *secretmanager.GenerateAddressesOptions) address.Addresses {
	addressManager.addressesMutex.RLock()
	defer addressManager.addressesMutex.RUnlock()

	addresses := make(address.Addresses, 0, options.End-options.Start)
	for index := options.Start; index < options.End; index++ {
		addr, exists := addressManager.addresses[cacheKey(options.Path(index).String(), options.Bech32HRP)]
		if !exists {
			return nil
		}
		addresses = append(addresses, addr)
	}

	return addresses
}

func cacheKey(path, hrp string) string {
	return hrp + "/" + path
}

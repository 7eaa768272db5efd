// Package address contains the address type used by the wallet: a ledger address together with its display encoding
// and the derivation path it was derived from.
package address

import (
	"sort"

	"github.com/iotaledger/hive.go/stringify"

	"github.com/iotaledger/stardust-client/client/wallet/packages/seed"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// Address is an address of the wallet.
type Address struct {
	Address ledgerstate.Address
	Bech32  string
	Path    seed.Path
}

// New creates an Address that is displayed with the given human-readable part.
func New(address ledgerstate.Address, hrp string, path seed.Path) *Address {
	return &Address{
		Address: address,
		Bech32:  address.Bech32(hrp),
		Path:    path,
	}
}

// Index returns the address index within its chain.
func (a *Address) Index() uint32 {
	return a.Path.Index()
}

// Internal returns true if the address belongs to the internal (remainder) chain.
func (a *Address) Internal() bool {
	return a.Path.Internal()
}

// String returns a human readable version of the Address.
func (a *Address) String() string {
	return stringify.Struct("Address",
		stringify.StructField("Bech32", a.Bech32),
		stringify.StructField("Path", a.Path.String()),
	)
}

// Addresses is a list of wallet addresses.
type Addresses []*Address

// Bech32 returns the display encodings of all addresses.
func (a Addresses) Bech32() []string {
	encoded := make([]string, len(a))
	for i, address := range a {
		encoded[i] = address.Bech32
	}

	return encoded
}

// Find returns the wallet address that matches the given ledger address.
func (a Addresses) Find(ledgerAddress ledgerstate.Address) (*Address, bool) {
	for _, address := range a {
		if address.Address.Equals(ledgerAddress) {
			return address, true
		}
	}

	return nil, false
}

// Lowest returns the address with the lowest index, external addresses first.
func (a Addresses) Lowest() *Address {
	if len(a) == 0 {
		return nil
	}

	sorted := make(Addresses, len(a))
	copy(sorted, a)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Index() != sorted[j].Index() {
			return sorted[i].Index() < sorted[j].Index()
		}

		return !sorted[i].Internal() && sorted[j].Internal()
	})

	return sorted[0]
}

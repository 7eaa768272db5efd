package transactionoptions

import (
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

// DefaultAddressRangeEnd is the end of the address range searched for inputs if no range was given.
const DefaultAddressRangeEnd = 20

// TransactionOption is a function that provides options.
type TransactionOption func(options *TransactionOptions) error

// Inputs consumes exactly the given outputs instead of searching the address range.
func Inputs(outputIDs ...ledgerstate.OutputID) TransactionOption {
	return func(options *TransactionOptions) error {
		if len(outputIDs) > ledgerstate.MaxInputCount {
			return clienterrors.Validationf("%d inputs exceed the maximum of %d", len(outputIDs), ledgerstate.MaxInputCount)
		}

		seen := make(map[ledgerstate.OutputID]bool, len(outputIDs))
		for _, outputID := range outputIDs {
			if seen[outputID] {
				return clienterrors.Validationf("input %s is given twice", outputID.Hex())
			}
			seen[outputID] = true
		}
		options.Inputs = outputIDs

		return nil
	}
}

// AddressRange sets the half-open range [start, end) of address indexes that are searched for inputs.
func AddressRange(start, end uint32) TransactionOption {
	return func(options *TransactionOptions) error {
		if end < start {
			return clienterrors.Validationf("invalid address range [%d, %d)", start, end)
		}
		options.AddressStart = start
		options.AddressEnd = end

		return nil
	}
}

// AccountIndex sets the account whose addresses fund the transaction.
func AccountIndex(accountIndex uint32) TransactionOption {
	return func(options *TransactionOptions) error {
		options.AccountIndex = &accountIndex
		return nil
	}
}

// RemainderAddress sends the remainder to the given address instead of the lowest address of the range.
func RemainderAddress(address ledgerstate.Address) TransactionOption {
	return func(options *TransactionOptions) error {
		if address == nil {
			return clienterrors.Validationf("remainder address is nil")
		}
		options.RemainderAddress = address

		return nil
	}
}

// Burn allows the transaction to destroy the given chains and native tokens.
func Burn(burn *ledgerstate.Burn) TransactionOption {
	return func(options *TransactionOptions) error {
		options.Burn = burn
		return nil
	}
}

// TaggedData attaches tagged data to the essence.
func TaggedData(tag, data []byte) TransactionOption {
	return func(options *TransactionOptions) error {
		taggedData, err := ledgerstate.NewTaggedData(tag, data)
		if err != nil {
			return err
		}
		options.TaggedData = taggedData

		return nil
	}
}

// Parents sets the parents of the block that carries the transaction.
func Parents(parents ...tangle.BlockID) TransactionOption {
	return func(options *TransactionOptions) error {
		if len(parents) > tangle.MaxParentsCount {
			return clienterrors.Validationf("%d parents exceed the maximum of %d", len(parents), tangle.MaxParentsCount)
		}
		options.Parents = parents

		return nil
	}
}

// TransactionOptions is a struct that is used to aggregate the optional parameters of BuildTransaction.
type TransactionOptions struct {
	Inputs           []ledgerstate.OutputID
	AccountIndex     *uint32
	AddressStart     uint32
	AddressEnd       uint32
	RemainderAddress ledgerstate.Address
	Burn             *ledgerstate.Burn
	TaggedData       *ledgerstate.TaggedData
	Parents          tangle.BlockIDs
}

// Build builds the options.
func Build(options ...TransactionOption) (result *TransactionOptions, err error) {
	// create options to collect the arguments provided
	result = &TransactionOptions{
		AddressEnd: DefaultAddressRangeEnd,
	}

	// apply arguments to our options
	for _, option := range options {
		if err = option(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

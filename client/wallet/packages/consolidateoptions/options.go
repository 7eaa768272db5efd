package consolidateoptions

import (
	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

const (
	// DefaultAddressRangeEnd is the end of the address range that is consolidated if no range was given.
	DefaultAddressRangeEnd = 20

	// DefaultParallelism is the number of addresses consolidated at the same time.
	DefaultParallelism = 4
)

// ConsolidateFundsOption is a function that provides options.
type ConsolidateFundsOption func(options *ConsolidateFundsOptions) error

// AddressRange sets the half-open range [start, end) of address indexes that are consolidated.
func AddressRange(start, end uint32) ConsolidateFundsOption {
	return func(options *ConsolidateFundsOptions) error {
		if end <= start {
			return clienterrors.Validationf("invalid address range [%d, %d)", start, end)
		}
		options.AddressStart = start
		options.AddressEnd = end

		return nil
	}
}

// AccountIndex sets the account whose addresses are consolidated.
func AccountIndex(accountIndex uint32) ConsolidateFundsOption {
	return func(options *ConsolidateFundsOptions) error {
		options.AccountIndex = &accountIndex
		return nil
	}
}

// Parallelism sets how many addresses are consolidated at the same time.
func Parallelism(parallelism int) ConsolidateFundsOption {
	return func(options *ConsolidateFundsOptions) error {
		if parallelism < 1 {
			return clienterrors.Validationf("parallelism must be positive, got %d", parallelism)
		}
		options.Parallelism = parallelism

		return nil
	}
}

// WaitForInclusion defines if the call should wait until every consolidating block is included before it returns.
func WaitForInclusion(wait bool) ConsolidateFundsOption {
	return func(options *ConsolidateFundsOptions) error {
		options.WaitForInclusion = wait
		return nil
	}
}

// ConsolidateFundsOptions is a struct that is used to aggregate the optional parameters in the ConsolidateFunds call.
type ConsolidateFundsOptions struct {
	AccountIndex     *uint32
	AddressStart     uint32
	AddressEnd       uint32
	Parallelism      int
	WaitForInclusion bool
}

// Build builds the options.
func Build(options ...ConsolidateFundsOption) (result *ConsolidateFundsOptions, err error) {
	// create options to collect the arguments provided
	result = &ConsolidateFundsOptions{
		AddressEnd:  DefaultAddressRangeEnd,
		Parallelism: DefaultParallelism,
	}

	// apply arguments to our options
	for _, option := range options {
		if err = option(result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

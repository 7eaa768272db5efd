// Package clienterrors defines the error taxonomy shared by all client components. Every error returned by the
// client wraps exactly one of the sentinels below, so callers can classify failures with errors.Is.
package clienterrors

import (
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrValidation is returned for malformed requests, bad ranges or ids. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrAddressFormat is returned if an address fails checksum or encoding validation.
	ErrAddressFormat = errors.New("address format error")
	// ErrOutputValidation is returned if an output violates rent or structural rules.
	ErrOutputValidation = errors.New("output validation error")
	// ErrInsufficientFunds is returned if the available inputs do not cover the requested outputs.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientAmount is returned if a remainder would fall below the minimum storage deposit.
	ErrInsufficientAmount = errors.New("insufficient amount")
	// ErrSecretManager is returned if the signing or derivation backend fails.
	ErrSecretManager = errors.New("secret manager error")
	// ErrConflictingTransaction is returned if the ledger rejected a transaction as a double spend.
	ErrConflictingTransaction = errors.New("conflicting transaction")
	// ErrInclusionTimeout is returned if a block was not included within the allowed attempts.
	ErrInclusionTimeout = errors.New("inclusion timeout")
	// ErrNode is returned for transport or protocol failures talking to a node.
	ErrNode = errors.New("node error")
	// ErrEmptyOutputs is returned if a transaction is built without outputs.
	ErrEmptyOutputs = errors.New("transaction has no outputs")
	// ErrOutputSpent is returned if a requested output was consumed in the meantime.
	ErrOutputSpent = errors.New("output already spent")
)

// region InsufficientFundsError ///////////////////////////////////////////////////////////////////////////////////////

// InsufficientFundsError names the shortfall of a transaction build.
type InsufficientFundsError struct {
	// Asset is "base token" or the hex encoded id of a native token.
	Asset     string
	Required  *big.Int
	Available *big.Int
}

// Shortfall returns the missing quantity.
func (e *InsufficientFundsError) Shortfall() *big.Int {
	return new(big.Int).Sub(e.Required, e.Available)
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: %s requires %s but only %s available (missing %s)",
		ErrInsufficientFunds, e.Asset, e.Required, e.Available, e.Shortfall())
}

// Is makes the error match ErrInsufficientFunds.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region InsufficientAmountError //////////////////////////////////////////////////////////////////////////////////////

// InsufficientAmountError is returned if a remainder is smaller than the storage deposit it would need.
type InsufficientAmountError struct {
	Found    uint64
	Required uint64
}

func (e *InsufficientAmountError) Error() string {
	return fmt.Sprintf("%s: remainder of %d is below the minimum storage deposit of %d", ErrInsufficientAmount, e.Found, e.Required)
}

// Is makes the error match ErrInsufficientAmount.
func (e *InsufficientAmountError) Is(target error) bool {
	return target == ErrInsufficientAmount
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NodeError ////////////////////////////////////////////////////////////////////////////////////////////////////

// NodeError describes a failed request against a node.
type NodeError struct {
	// StatusCode is 0 if the request never got a response.
	StatusCode int
	Route      string
	Message    string
}

func (e *NodeError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %s", ErrNode, e.Route, e.Message)
	}

	return fmt.Sprintf("%s: %s returned %d: %s", ErrNode, e.Route, e.StatusCode, e.Message)
}

// Is makes the error match ErrNode.
func (e *NodeError) Is(target error) bool {
	return target == ErrNode
}

// Transient returns true if the request is worth retrying with backoff.
func (e *NodeError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NotFound returns true if the node does not know the requested entity.
func (e *NodeError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region InclusionTimeoutError ////////////////////////////////////////////////////////////////////////////////////////

// InclusionTimeoutError is returned if a block stayed pending for all attempts.
type InclusionTimeoutError struct {
	BlockID   string
	Attempts  int
	LastState string
}

func (e *InclusionTimeoutError) Error() string {
	return fmt.Sprintf("%s: block %s still %s after %d attempts", ErrInclusionTimeout, e.BlockID, e.LastState, e.Attempts)
}

// Is makes the error match ErrInclusionTimeout.
func (e *InclusionTimeoutError) Is(target error) bool {
	return target == ErrInclusionTimeout
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region classification ///////////////////////////////////////////////////////////////////////////////////////////////

var kinds = []struct {
	sentinel error
	name     string
}{
	{ErrEmptyOutputs, "EmptyOutputsError"},
	{ErrAddressFormat, "AddressFormatError"},
	{ErrOutputValidation, "OutputValidationError"},
	{ErrInsufficientFunds, "InsufficientFundsError"},
	{ErrInsufficientAmount, "InsufficientAmountError"},
	{ErrSecretManager, "SecretManagerError"},
	{ErrConflictingTransaction, "ConflictingTransactionError"},
	{ErrInclusionTimeout, "InclusionTimeoutError"},
	{ErrNode, "NodeError"},
	{ErrOutputSpent, "OutputSpentError"},
	{ErrValidation, "ValidationError"},
}

// Kind returns the taxonomy name of the given error. Errors outside the taxonomy are reported as "UnknownError".
func Kind(err error) string {
	for _, kind := range kinds {
		if errors.Is(err, kind.sentinel) {
			return kind.name
		}
	}

	return "UnknownError"
}

// IsTransient returns true if the error is a NodeError that is safe to retry.
func IsTransient(err error) bool {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Transient()
	}

	return false
}

// IsNotFound returns true if the error is a NodeError caused by an unknown entity.
func IsNotFound(err error) bool {
	var nodeErr *NodeError
	return errors.As(err, &nodeErr) && nodeErr.NotFound()
}

// Validationf returns a new ErrValidation with the given message.
func Validationf(format string, args ...interface{}) error {
	return errors.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// OutputValidationf returns a new ErrOutputValidation with the given message.
func OutputValidationf(format string, args ...interface{}) error {
	return errors.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrOutputValidation)
}

// AddressFormatf returns a new ErrAddressFormat with the given message.
func AddressFormatf(format string, args ...interface{}) error {
	return errors.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrAddressFormat)
}

// SecretManagerf returns a new ErrSecretManager with the given message.
func SecretManagerf(format string, args ...interface{}) error {
	return errors.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrSecretManager)
}

// alreadyKnownMarkers are fragments nodes use to reject a resubmitted block.
var alreadyKnownMarkers = []string{"already", "duplicate", "known"}

// IsAlreadyKnown returns true if a node rejected a submission because it already has the block.
func IsAlreadyKnown(err error) bool {
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) || nodeErr.Transient() {
		return false
	}

	message := strings.ToLower(nodeErr.Message)
	for _, marker := range alreadyKnownMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}

	return false
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package jsonmodels

import (
	jsoniter "github.com/json-iterator/go"
)

// region Command //////////////////////////////////////////////////////////////////////////////////////////////////////

// Command is a request to the command surface of the wallet. Data holds the verb specific request.
type Command struct {
	Name string              `json:"name"`
	Data jsoniter.RawMessage `json:"data,omitempty"`
}

// Response is the answer to a Command. Failed commands have the type "error" and an ErrorPayload.
type Response struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ErrorPayload describes a failed Command. Type is the name of the error kind.
type ErrorPayload struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region addresses ////////////////////////////////////////////////////////////////////////////////////////////////////

// GenerateAddressesRequest derives the addresses in the half-open range [Start, End). An unset AccountIndex or
// Bech32HRP falls back to the configuration of the wallet.
type GenerateAddressesRequest struct {
	AccountIndex *uint32 `json:"accountIndex,omitempty"`
	Start        uint32  `json:"start"`
	End          uint32  `json:"end"`
	Internal     bool    `json:"internal,omitempty"`
	Bech32HRP    string  `json:"bech32Hrp,omitempty"`
}

// GeneratedAddress is a derived address together with its derivation path.
type GeneratedAddress struct {
	Address string `json:"address"`
	Path    string `json:"path"`
}

// HexToBech32Request converts the hex digest of an Ed25519 address.
type HexToBech32Request struct {
	Hex       string `json:"hex"`
	Bech32HRP string `json:"bech32Hrp,omitempty"`
}

// Bech32ToHexRequest converts a bech32 address to the hex encoding of its digest.
type Bech32ToHexRequest struct {
	Bech32 string `json:"bech32"`
}

// IsAddressValidRequest checks the bech32 encoding of an address.
type IsAddressValidRequest struct {
	Address string `json:"address"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region outputs //////////////////////////////////////////////////////////////////////////////////////////////////////

// BuildOutputRequest holds the parameters of every build*Output command. A missing Amount uses the minimum storage
// deposit. The rent structure of the node is used unless RentStructure is given.
type BuildOutputRequest struct {
	Amount            string             `json:"amount,omitempty"`
	NativeTokens      []*NativeToken     `json:"nativeTokens,omitempty"`
	AliasID           string             `json:"aliasId,omitempty"`
	StateIndex        uint32             `json:"stateIndex,omitempty"`
	StateMetadata     string             `json:"stateMetadata,omitempty"`
	FoundryCounter    uint32             `json:"foundryCounter,omitempty"`
	SerialNumber      uint32             `json:"serialNumber,omitempty"`
	TokenScheme       *TokenScheme       `json:"tokenScheme,omitempty"`
	NFTID             string             `json:"nftId,omitempty"`
	UnlockConditions  []*UnlockCondition `json:"unlockConditions"`
	Features          []*Feature         `json:"features,omitempty"`
	ImmutableFeatures []*Feature         `json:"immutableFeatures,omitempty"`
	RentStructure     *RentStructure     `json:"rentStructure,omitempty"`
}

// GetOutputsRequest fetches the outputs with the given ids.
type GetOutputsRequest struct {
	OutputIDs []string `json:"outputIds"`
}

// OutputWithID is an Output together with its identifier.
type OutputWithID struct {
	OutputID string  `json:"outputId"`
	Output   *Output `json:"output"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region ids //////////////////////////////////////////////////////////////////////////////////////////////////////////

// ComputeChainIDRequest derives the AliasID or NFTID from the id of the output that created the chain.
type ComputeChainIDRequest struct {
	OutputID string `json:"outputId"`
}

// ComputeFoundryIDRequest derives the FoundryID of a foundry controlled by the alias.
type ComputeFoundryIDRequest struct {
	AliasAddress    string `json:"aliasAddress"`
	SerialNumber    uint32 `json:"serialNumber"`
	TokenSchemeType uint8  `json:"tokenSchemeType"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region blocks ///////////////////////////////////////////////////////////////////////////////////////////////////////

// TaggedData represents the JSON model of a ledgerstate.TaggedData. Tag and Data are hex encoded.
type TaggedData struct {
	Tag  string `json:"tag,omitempty"`
	Data string `json:"data,omitempty"`
}

// BuildAndPostBlockRequest issues a block. Payload is a hex encoded binary payload and takes precedence over
// TaggedData. Without both the block carries no payload.
type BuildAndPostBlockRequest struct {
	TaggedData *TaggedData `json:"taggedData,omitempty"`
	Payload    string      `json:"payload,omitempty"`
	Parents    []string    `json:"parents,omitempty"`
}

// PostBlockRequest submits a complete block.
type PostBlockRequest struct {
	Block *Block `json:"block"`
}

// RetryUntilIncludedRequest watches the block until it is included. Interval is given in seconds, zero values use the
// defaults of the wallet.
type RetryUntilIncludedRequest struct {
	BlockID     string `json:"blockId"`
	Interval    uint64 `json:"interval,omitempty"`
	MaxAttempts int    `json:"maxAttempts,omitempty"`
}

// ConsolidateFundsRequest consolidates the outputs of the address range [AddressStart, AddressEnd).
type ConsolidateFundsRequest struct {
	AccountIndex     *uint32 `json:"accountIndex,omitempty"`
	AddressStart     uint32  `json:"addressStart"`
	AddressEnd       uint32  `json:"addressEnd"`
	Parallelism      int     `json:"parallelism,omitempty"`
	WaitForInclusion bool    `json:"waitForInclusion,omitempty"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

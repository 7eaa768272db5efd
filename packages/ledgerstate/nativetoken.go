package ledgerstate

import (
	"bytes"
	"math/big"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
	"github.com/mr-tron/base58"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

const (
	// MaxNativeTokensPerOutput defines the maximum amount of distinct native tokens that fit into one Output.
	MaxNativeTokensPerOutput = 64

	// Uint256Size contains the amount of bytes of a serialized 256 bit unsigned integer.
	Uint256Size = 32
)

// maxUint256 is the largest value that fits into a serialized native token amount.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// region FoundryID ////////////////////////////////////////////////////////////////////////////////////////////////////

// FoundryIDLength contains the length of a FoundryID (alias address 33 + serial number 4 + token scheme type 1).
const FoundryIDLength = AddressLength + marshalutil.Uint32Size + 1

// FoundryID identifies a FoundryOutput. The tokens minted by a foundry share its identifier, which is why TokenID is
// an alias of this type.
type FoundryID [FoundryIDLength]byte

// TokenID identifies a native token.
type TokenID = FoundryID

// ComputeFoundryID derives the identifier of the foundry with the given serial number controlled by the alias.
func ComputeFoundryID(aliasAddress *AliasAddress, serialNumber uint32, tokenSchemeType TokenSchemeType) (foundryID FoundryID) {
	marshalUtil := marshalutil.New(FoundryIDLength)
	marshalUtil.WriteBytes(aliasAddress.Bytes())
	marshalUtil.WriteUint32(serialNumber)
	marshalUtil.WriteByte(byte(tokenSchemeType))
	copy(foundryID[:], marshalUtil.Bytes())

	return
}

// FoundryIDFromMarshalUtil unmarshals a FoundryID using a MarshalUtil (for easier unmarshaling).
func FoundryIDFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (foundryID FoundryID, err error) {
	foundryIDBytes, err := marshalUtil.ReadBytes(FoundryIDLength)
	if err != nil {
		err = errors.Errorf("failed to parse FoundryID (%v): %w", err, cerrors.ErrParseBytesFailed)
		return
	}
	copy(foundryID[:], foundryIDBytes)

	return
}

// FoundryIDFromHex parses the hex encoded FoundryID.
func FoundryIDFromHex(hexString string) (foundryID FoundryID, err error) {
	data, err := decodeHex(hexString)
	if err != nil {
		return foundryID, clienterrors.Validationf("invalid foundry id %q: %v", hexString, err)
	}
	if len(data) != FoundryIDLength {
		return foundryID, clienterrors.Validationf("invalid foundry id length %d, expected %d", len(data), FoundryIDLength)
	}
	copy(foundryID[:], data)

	return foundryID, nil
}

// AliasAddress returns the address of the alias that controls the foundry.
func (f FoundryID) AliasAddress() *AliasAddress {
	address := &AliasAddress{}
	copy(address.digest[:], f[1:AddressLength])

	return address
}

// SerialNumber returns the serial number part of the FoundryID.
func (f FoundryID) SerialNumber() uint32 {
	serialNumber, _ := marshalutil.New(f[AddressLength:]).ReadUint32()
	return serialNumber
}

// Bytes returns a marshaled version of the FoundryID.
func (f FoundryID) Bytes() []byte {
	return f[:]
}

// Hex returns the 0x-prefixed hex encoding of the FoundryID.
func (f FoundryID) Hex() string {
	return encodeHex(f[:])
}

// Base58 returns a base58 encoded version of the FoundryID.
func (f FoundryID) Base58() string {
	return base58.Encode(f[:])
}

// String returns a human-readable version of the FoundryID.
func (f FoundryID) String() string {
	return "FoundryID(" + f.Hex() + ")"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region uint256 //////////////////////////////////////////////////////////////////////////////////////////////////////

func writeUint256(marshalUtil *marshalutil.MarshalUtil, value *big.Int) {
	var serialized [Uint256Size]byte
	if value != nil {
		bigEndian := value.Bytes()
		for i, b := range bigEndian {
			serialized[len(bigEndian)-1-i] = b
		}
	}
	marshalUtil.WriteBytes(serialized[:])
}

func readUint256(marshalUtil *marshalutil.MarshalUtil) (*big.Int, error) {
	littleEndian, err := marshalUtil.ReadBytes(Uint256Size)
	if err != nil {
		return nil, errors.Errorf("failed to parse uint256 (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	bigEndian := make([]byte, Uint256Size)
	for i, b := range littleEndian {
		bigEndian[Uint256Size-1-i] = b
	}

	return new(big.Int).SetBytes(bigEndian), nil
}

// validUint256 returns true if the value can be serialized as an unsigned 256 bit integer.
func validUint256(value *big.Int) bool {
	return value != nil && value.Sign() >= 0 && value.Cmp(maxUint256) <= 0
}

// ParseUint256 parses a decimal or 0x-prefixed hex encoded unsigned 256 bit integer.
func ParseUint256(s string) (*big.Int, error) {
	value, ok := new(big.Int), false
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		value, ok = value.SetString(s[2:], 16)
	} else {
		value, ok = value.SetString(s, 10)
	}
	if !ok || !validUint256(value) {
		return nil, clienterrors.Validationf("invalid uint256 amount %q", s)
	}

	return value, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NativeToken //////////////////////////////////////////////////////////////////////////////////////////////////

// NativeToken represents an amount of tokens minted by a foundry.
type NativeToken struct {
	ID     TokenID
	Amount *big.Int
}

// NewNativeToken is the constructor of a NativeToken.
func NewNativeToken(id TokenID, amount *big.Int) *NativeToken {
	return &NativeToken{ID: id, Amount: new(big.Int).Set(amount)}
}

// NativeTokenFromMarshalUtil unmarshals a NativeToken using a MarshalUtil (for easier unmarshaling).
func NativeTokenFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (nativeToken *NativeToken, err error) {
	nativeToken = &NativeToken{}
	if nativeToken.ID, err = FoundryIDFromMarshalUtil(marshalUtil); err != nil {
		return nil, errors.Errorf("failed to parse token id: %w", err)
	}
	if nativeToken.Amount, err = readUint256(marshalUtil); err != nil {
		return nil, errors.Errorf("failed to parse token amount: %w", err)
	}

	return nativeToken, nil
}

// Clone creates a copy of the NativeToken.
func (n *NativeToken) Clone() *NativeToken {
	return NewNativeToken(n.ID, n.Amount)
}

// Bytes returns a marshaled version of the NativeToken.
func (n *NativeToken) Bytes() []byte {
	marshalUtil := marshalutil.New(FoundryIDLength + Uint256Size)
	n.writeTo(marshalUtil)

	return marshalUtil.Bytes()
}

func (n *NativeToken) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteBytes(n.ID.Bytes())
	writeUint256(marshalUtil, n.Amount)
}

// String returns a human-readable version of the NativeToken.
func (n *NativeToken) String() string {
	return stringify.Struct("NativeToken",
		stringify.StructField("ID", n.ID.Hex()),
		stringify.StructField("Amount", n.Amount.String()),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NativeTokens /////////////////////////////////////////////////////////////////////////////////////////////////

// NativeTokens is the set of native tokens held by an Output, sorted by TokenID.
type NativeTokens []*NativeToken

// NativeTokensFromMarshalUtil unmarshals NativeTokens using a MarshalUtil (for easier unmarshaling).
func NativeTokensFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (nativeTokens NativeTokens, err error) {
	count, err := marshalUtil.ReadUint8()
	if err != nil {
		return nil, errors.Errorf("failed to parse native token count (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	nativeTokens = make(NativeTokens, count)
	for i := range nativeTokens {
		if nativeTokens[i], err = NativeTokenFromMarshalUtil(marshalUtil); err != nil {
			return nil, errors.Errorf("failed to parse native token %d: %w", i, err)
		}
	}

	return nativeTokens, nil
}

// NativeTokensFromSum creates the sorted set of native tokens with a positive amount in the sum.
func NativeTokensFromSum(sum NativeTokenSum) NativeTokens {
	nativeTokens := make(NativeTokens, 0, len(sum))
	for id, amount := range sum {
		if amount.Sign() > 0 {
			nativeTokens = append(nativeTokens, NewNativeToken(id, amount))
		}
	}

	return nativeTokens.Sorted()
}

// Sorted returns a copy of the NativeTokens sorted by TokenID.
func (n NativeTokens) Sorted() NativeTokens {
	sorted := n.Clone()
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	return sorted
}

// Clone creates a deep copy of the NativeTokens.
func (n NativeTokens) Clone() NativeTokens {
	if n == nil {
		return nil
	}

	cloned := make(NativeTokens, len(n))
	for i, nativeToken := range n {
		cloned[i] = nativeToken.Clone()
	}

	return cloned
}

// Sum returns the amounts of the NativeTokens keyed by their TokenID.
func (n NativeTokens) Sum() NativeTokenSum {
	sum := make(NativeTokenSum, len(n))
	for _, nativeToken := range n {
		sum.Add(nativeToken.ID, nativeToken.Amount)
	}

	return sum
}

// Validate checks that the set is sorted, free of duplicates, bounded in size and only holds positive amounts.
func (n NativeTokens) Validate() error {
	if len(n) > MaxNativeTokensPerOutput {
		return clienterrors.OutputValidationf("%d native tokens exceed the maximum of %d", len(n), MaxNativeTokensPerOutput)
	}

	for i, nativeToken := range n {
		if nativeToken == nil || !validUint256(nativeToken.Amount) || nativeToken.Amount.Sign() == 0 {
			return clienterrors.OutputValidationf("native token %d has an invalid amount", i)
		}
		if i > 0 && bytes.Compare(n[i-1].ID[:], nativeToken.ID[:]) >= 0 {
			return clienterrors.OutputValidationf("native tokens must be sorted by id and unique (index %d)", i)
		}
	}

	return nil
}

func (n NativeTokens) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(len(n)))
	for _, nativeToken := range n {
		nativeToken.writeTo(marshalUtil)
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region NativeTokenSum ///////////////////////////////////////////////////////////////////////////////////////////////

// NativeTokenSum accumulates native token amounts keyed by their TokenID.
type NativeTokenSum map[TokenID]*big.Int

// Add increases the amount of the given token.
func (s NativeTokenSum) Add(id TokenID, amount *big.Int) {
	if current, exists := s[id]; exists {
		current.Add(current, amount)
		return
	}
	s[id] = new(big.Int).Set(amount)
}

// AddAll increases the amounts by all tokens of the other sum.
func (s NativeTokenSum) AddAll(other NativeTokenSum) {
	for id, amount := range other {
		s.Add(id, amount)
	}
}

// Sub decreases the amount of the given token. The result may become negative.
func (s NativeTokenSum) Sub(id TokenID, amount *big.Int) {
	s.Add(id, new(big.Int).Neg(amount))
}

// Get returns the amount of the given token (zero if unknown).
func (s NativeTokenSum) Get(id TokenID) *big.Int {
	if amount, exists := s[id]; exists {
		return new(big.Int).Set(amount)
	}

	return new(big.Int)
}

// Clone creates a deep copy of the NativeTokenSum.
func (s NativeTokenSum) Clone() NativeTokenSum {
	cloned := make(NativeTokenSum, len(s))
	cloned.AddAll(s)

	return cloned
}

// Equal returns true if both sums hold the same amounts, treating missing tokens as zero.
func (s NativeTokenSum) Equal(other NativeTokenSum) bool {
	for id, amount := range s {
		if amount.Cmp(other.Get(id)) != 0 {
			return false
		}
	}
	for id, amount := range other {
		if amount.Cmp(s.Get(id)) != 0 {
			return false
		}
	}

	return true
}

// IDs returns the sorted TokenIDs with a non-zero amount.
func (s NativeTokenSum) IDs() []TokenID {
	ids := make([]TokenID, 0, len(s))
	for id, amount := range s {
		if amount.Sign() != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	return ids
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region TokenScheme //////////////////////////////////////////////////////////////////////////////////////////////////

// TokenSchemeType represents the type of a TokenScheme.
type TokenSchemeType uint8

// SimpleTokenSchemeType is the only token scheme known to the protocol.
const SimpleTokenSchemeType TokenSchemeType = 0

// SimpleTokenScheme tracks the supply of the tokens controlled by a foundry.
type SimpleTokenScheme struct {
	MintedTokens  *big.Int
	MeltedTokens  *big.Int
	MaximumSupply *big.Int
}

// NewSimpleTokenScheme is the constructor of a SimpleTokenScheme.
func NewSimpleTokenScheme(minted, melted, maximumSupply *big.Int) *SimpleTokenScheme {
	return &SimpleTokenScheme{
		MintedTokens:  new(big.Int).Set(minted),
		MeltedTokens:  new(big.Int).Set(melted),
		MaximumSupply: new(big.Int).Set(maximumSupply),
	}
}

// TokenSchemeFromMarshalUtil unmarshals a SimpleTokenScheme using a MarshalUtil (for easier unmarshaling).
func TokenSchemeFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (tokenScheme *SimpleTokenScheme, err error) {
	schemeType, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse TokenSchemeType (%v): %w", err, cerrors.ErrParseBytesFailed)
	}
	if TokenSchemeType(schemeType) != SimpleTokenSchemeType {
		return nil, errors.Errorf("unsupported token scheme type (%X): %w", schemeType, cerrors.ErrParseBytesFailed)
	}

	tokenScheme = &SimpleTokenScheme{}
	if tokenScheme.MintedTokens, err = readUint256(marshalUtil); err != nil {
		return nil, err
	}
	if tokenScheme.MeltedTokens, err = readUint256(marshalUtil); err != nil {
		return nil, err
	}
	if tokenScheme.MaximumSupply, err = readUint256(marshalUtil); err != nil {
		return nil, err
	}

	return tokenScheme, nil
}

// Type returns the TokenSchemeType.
func (s *SimpleTokenScheme) Type() TokenSchemeType {
	return SimpleTokenSchemeType
}

// CirculatingSupply returns the amount of tokens that were minted and not melted.
func (s *SimpleTokenScheme) CirculatingSupply() *big.Int {
	return new(big.Int).Sub(s.MintedTokens, s.MeltedTokens)
}

// Validate checks the internal consistency of the supply counters.
func (s *SimpleTokenScheme) Validate() error {
	switch {
	case !validUint256(s.MintedTokens) || !validUint256(s.MeltedTokens) || !validUint256(s.MaximumSupply):
		return clienterrors.OutputValidationf("token scheme amounts must be unsigned 256 bit integers")
	case s.MaximumSupply.Sign() == 0:
		return clienterrors.OutputValidationf("maximum supply must be greater than zero")
	case s.MintedTokens.Cmp(s.MaximumSupply) > 0:
		return clienterrors.OutputValidationf("minted tokens %s exceed the maximum supply %s", s.MintedTokens, s.MaximumSupply)
	case s.MeltedTokens.Cmp(s.MintedTokens) > 0:
		return clienterrors.OutputValidationf("melted tokens %s exceed the minted tokens %s", s.MeltedTokens, s.MintedTokens)
	}

	return nil
}

// Clone creates a copy of the SimpleTokenScheme.
func (s *SimpleTokenScheme) Clone() *SimpleTokenScheme {
	return NewSimpleTokenScheme(s.MintedTokens, s.MeltedTokens, s.MaximumSupply)
}

func (s *SimpleTokenScheme) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(SimpleTokenSchemeType))
	writeUint256(marshalUtil, s.MintedTokens)
	writeUint256(marshalUtil, s.MeltedTokens)
	writeUint256(marshalUtil, s.MaximumSupply)
}

// String returns a human-readable version of the SimpleTokenScheme.
func (s *SimpleTokenScheme) String() string {
	return stringify.Struct("SimpleTokenScheme",
		stringify.StructField("MintedTokens", s.MintedTokens.String()),
		stringify.StructField("MeltedTokens", s.MeltedTokens.String()),
		stringify.StructField("MaximumSupply", s.MaximumSupply.String()),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

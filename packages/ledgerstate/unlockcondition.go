package ledgerstate

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

// region UnlockConditionType //////////////////////////////////////////////////////////////////////////////////////////

// UnlockConditionType represents the type of an UnlockCondition.
type UnlockConditionType uint8

const (
	// AddressUnlockConditionType names the owner of an Output.
	AddressUnlockConditionType UnlockConditionType = iota

	// StorageDepositReturnUnlockConditionType demands a part of the deposit back to a return address.
	StorageDepositReturnUnlockConditionType

	// TimelockUnlockConditionType forbids spending before a point in time.
	TimelockUnlockConditionType

	// ExpirationUnlockConditionType passes ownership to a return address after a point in time.
	ExpirationUnlockConditionType

	// StateControllerAddressUnlockConditionType names the state controller of an AliasOutput.
	StateControllerAddressUnlockConditionType

	// GovernorAddressUnlockConditionType names the governor of an AliasOutput.
	GovernorAddressUnlockConditionType

	// ImmutableAliasAddressUnlockConditionType binds a FoundryOutput to its controlling alias.
	ImmutableAliasAddressUnlockConditionType
)

// String returns a human-readable representation of the UnlockConditionType.
func (u UnlockConditionType) String() string {
	names := [...]string{
		"AddressUnlockCondition",
		"StorageDepositReturnUnlockCondition",
		"TimelockUnlockCondition",
		"ExpirationUnlockCondition",
		"StateControllerAddressUnlockCondition",
		"GovernorAddressUnlockCondition",
		"ImmutableAliasAddressUnlockCondition",
	}
	if int(u) >= len(names) {
		return "UnknownUnlockCondition"
	}

	return names[u]
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region UnlockCondition //////////////////////////////////////////////////////////////////////////////////////////////

// UnlockCondition is a predicate that controls who may spend an Output and when.
type UnlockCondition interface {
	// Type returns the UnlockConditionType.
	Type() UnlockConditionType

	// Clone creates a copy of the UnlockCondition.
	Clone() UnlockCondition

	// String returns a human-readable version of the UnlockCondition.
	String() string

	writeTo(marshalUtil *marshalutil.MarshalUtil)
}

// UnlockConditionFromMarshalUtil unmarshals an UnlockCondition using a MarshalUtil (for easier unmarshaling).
func UnlockConditionFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (unlockCondition UnlockCondition, err error) {
	conditionType, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse UnlockConditionType (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	switch UnlockConditionType(conditionType) {
	case AddressUnlockConditionType:
		address, addressErr := AddressFromMarshalUtil(marshalUtil)
		if addressErr != nil {
			return nil, addressErr
		}
		return &AddressUnlockCondition{Address: address}, nil
	case StorageDepositReturnUnlockConditionType:
		condition := &StorageDepositReturnUnlockCondition{}
		if condition.ReturnAddress, err = AddressFromMarshalUtil(marshalUtil); err != nil {
			return nil, err
		}
		if condition.Amount, err = marshalUtil.ReadUint64(); err != nil {
			return nil, errors.Errorf("failed to parse return amount (%v): %w", err, cerrors.ErrParseBytesFailed)
		}
		return condition, nil
	case TimelockUnlockConditionType:
		unixTime, readErr := marshalUtil.ReadUint32()
		if readErr != nil {
			return nil, errors.Errorf("failed to parse timelock (%v): %w", readErr, cerrors.ErrParseBytesFailed)
		}
		return &TimelockUnlockCondition{UnixTime: unixTime}, nil
	case ExpirationUnlockConditionType:
		condition := &ExpirationUnlockCondition{}
		if condition.ReturnAddress, err = AddressFromMarshalUtil(marshalUtil); err != nil {
			return nil, err
		}
		if condition.UnixTime, err = marshalUtil.ReadUint32(); err != nil {
			return nil, errors.Errorf("failed to parse expiration (%v): %w", err, cerrors.ErrParseBytesFailed)
		}
		return condition, nil
	case StateControllerAddressUnlockConditionType:
		address, addressErr := AddressFromMarshalUtil(marshalUtil)
		if addressErr != nil {
			return nil, addressErr
		}
		return &StateControllerAddressUnlockCondition{Address: address}, nil
	case GovernorAddressUnlockConditionType:
		address, addressErr := AddressFromMarshalUtil(marshalUtil)
		if addressErr != nil {
			return nil, addressErr
		}
		return &GovernorAddressUnlockCondition{Address: address}, nil
	case ImmutableAliasAddressUnlockConditionType:
		address, addressErr := AddressFromMarshalUtil(marshalUtil)
		if addressErr != nil {
			return nil, addressErr
		}
		aliasAddress, isAlias := address.(*AliasAddress)
		if !isAlias {
			return nil, errors.Errorf("immutable alias unlock condition holds a %s: %w", address.Type(), cerrors.ErrParseBytesFailed)
		}
		return &ImmutableAliasAddressUnlockCondition{Address: aliasAddress}, nil
	default:
		return nil, errors.Errorf("unsupported unlock condition type (%X): %w", conditionType, cerrors.ErrParseBytesFailed)
	}
}

// AddressUnlockCondition names the Address that owns an Output.
type AddressUnlockCondition struct {
	Address Address
}

// Type returns the UnlockConditionType.
func (a *AddressUnlockCondition) Type() UnlockConditionType { return AddressUnlockConditionType }

// Clone creates a copy of the UnlockCondition.
func (a *AddressUnlockCondition) Clone() UnlockCondition {
	return &AddressUnlockCondition{Address: a.Address.Clone()}
}

func (a *AddressUnlockCondition) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(a.Type()))
	marshalUtil.WriteBytes(a.Address.Bytes())
}

// String returns a human-readable version of the UnlockCondition.
func (a *AddressUnlockCondition) String() string {
	return stringify.Struct("AddressUnlockCondition", stringify.StructField("Address", a.Address))
}

// StorageDepositReturnUnlockCondition requires the consuming transaction to send Amount back to ReturnAddress.
type StorageDepositReturnUnlockCondition struct {
	ReturnAddress Address
	Amount        uint64
}

// Type returns the UnlockConditionType.
func (s *StorageDepositReturnUnlockCondition) Type() UnlockConditionType {
	return StorageDepositReturnUnlockConditionType
}

// Clone creates a copy of the UnlockCondition.
func (s *StorageDepositReturnUnlockCondition) Clone() UnlockCondition {
	return &StorageDepositReturnUnlockCondition{ReturnAddress: s.ReturnAddress.Clone(), Amount: s.Amount}
}

func (s *StorageDepositReturnUnlockCondition) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(s.Type()))
	marshalUtil.WriteBytes(s.ReturnAddress.Bytes())
	marshalUtil.WriteUint64(s.Amount)
}

// String returns a human-readable version of the UnlockCondition.
func (s *StorageDepositReturnUnlockCondition) String() string {
	return stringify.Struct("StorageDepositReturnUnlockCondition",
		stringify.StructField("ReturnAddress", s.ReturnAddress),
		stringify.StructField("Amount", s.Amount),
	)
}

// TimelockUnlockCondition forbids spending the Output before UnixTime.
type TimelockUnlockCondition struct {
	UnixTime uint32
}

// Type returns the UnlockConditionType.
func (t *TimelockUnlockCondition) Type() UnlockConditionType { return TimelockUnlockConditionType }

// Clone creates a copy of the UnlockCondition.
func (t *TimelockUnlockCondition) Clone() UnlockCondition {
	return &TimelockUnlockCondition{UnixTime: t.UnixTime}
}

func (t *TimelockUnlockCondition) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(t.Type()))
	marshalUtil.WriteUint32(t.UnixTime)
}

// String returns a human-readable version of the UnlockCondition.
func (t *TimelockUnlockCondition) String() string {
	return stringify.Struct("TimelockUnlockCondition", stringify.StructField("UnixTime", t.UnixTime))
}

// ExpirationUnlockCondition hands the Output over to ReturnAddress once UnixTime is reached.
type ExpirationUnlockCondition struct {
	ReturnAddress Address
	UnixTime      uint32
}

// Type returns the UnlockConditionType.
func (e *ExpirationUnlockCondition) Type() UnlockConditionType { return ExpirationUnlockConditionType }

// Clone creates a copy of the UnlockCondition.
func (e *ExpirationUnlockCondition) Clone() UnlockCondition {
	return &ExpirationUnlockCondition{ReturnAddress: e.ReturnAddress.Clone(), UnixTime: e.UnixTime}
}

func (e *ExpirationUnlockCondition) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(e.Type()))
	marshalUtil.WriteBytes(e.ReturnAddress.Bytes())
	marshalUtil.WriteUint32(e.UnixTime)
}

// String returns a human-readable version of the UnlockCondition.
func (e *ExpirationUnlockCondition) String() string {
	return stringify.Struct("ExpirationUnlockCondition",
		stringify.StructField("ReturnAddress", e.ReturnAddress),
		stringify.StructField("UnixTime", e.UnixTime),
	)
}

// StateControllerAddressUnlockCondition names the Address allowed to perform state transitions of an alias.
type StateControllerAddressUnlockCondition struct {
	Address Address
}

// Type returns the UnlockConditionType.
func (s *StateControllerAddressUnlockCondition) Type() UnlockConditionType {
	return StateControllerAddressUnlockConditionType
}

// Clone creates a copy of the UnlockCondition.
func (s *StateControllerAddressUnlockCondition) Clone() UnlockCondition {
	return &StateControllerAddressUnlockCondition{Address: s.Address.Clone()}
}

func (s *StateControllerAddressUnlockCondition) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(s.Type()))
	marshalUtil.WriteBytes(s.Address.Bytes())
}

// String returns a human-readable version of the UnlockCondition.
func (s *StateControllerAddressUnlockCondition) String() string {
	return stringify.Struct("StateControllerAddressUnlockCondition", stringify.StructField("Address", s.Address))
}

// GovernorAddressUnlockCondition names the Address allowed to perform governance transitions of an alias.
type GovernorAddressUnlockCondition struct {
	Address Address
}

// Type returns the UnlockConditionType.
func (g *GovernorAddressUnlockCondition) Type() UnlockConditionType {
	return GovernorAddressUnlockConditionType
}

// Clone creates a copy of the UnlockCondition.
func (g *GovernorAddressUnlockCondition) Clone() UnlockCondition {
	return &GovernorAddressUnlockCondition{Address: g.Address.Clone()}
}

func (g *GovernorAddressUnlockCondition) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(g.Type()))
	marshalUtil.WriteBytes(g.Address.Bytes())
}

// String returns a human-readable version of the UnlockCondition.
func (g *GovernorAddressUnlockCondition) String() string {
	return stringify.Struct("GovernorAddressUnlockCondition", stringify.StructField("Address", g.Address))
}

// ImmutableAliasAddressUnlockCondition binds a FoundryOutput to the alias that controls it.
type ImmutableAliasAddressUnlockCondition struct {
	Address *AliasAddress
}

// Type returns the UnlockConditionType.
func (i *ImmutableAliasAddressUnlockCondition) Type() UnlockConditionType {
	return ImmutableAliasAddressUnlockConditionType
}

// Clone creates a copy of the UnlockCondition.
func (i *ImmutableAliasAddressUnlockCondition) Clone() UnlockCondition {
	return &ImmutableAliasAddressUnlockCondition{Address: i.Address.Clone().(*AliasAddress)}
}

func (i *ImmutableAliasAddressUnlockCondition) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(i.Type()))
	marshalUtil.WriteBytes(i.Address.Bytes())
}

// String returns a human-readable version of the UnlockCondition.
func (i *ImmutableAliasAddressUnlockCondition) String() string {
	return stringify.Struct("ImmutableAliasAddressUnlockCondition", stringify.StructField("Address", i.Address))
}

// code contract (make sure the structs implement all required methods).
var (
	_ UnlockCondition = &AddressUnlockCondition{}
	_ UnlockCondition = &StorageDepositReturnUnlockCondition{}
	_ UnlockCondition = &TimelockUnlockCondition{}
	_ UnlockCondition = &ExpirationUnlockCondition{}
	_ UnlockCondition = &StateControllerAddressUnlockCondition{}
	_ UnlockCondition = &GovernorAddressUnlockCondition{}
	_ UnlockCondition = &ImmutableAliasAddressUnlockCondition{}
)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region UnlockConditions /////////////////////////////////////////////////////////////////////////////////////////////

// UnlockConditions is the set of UnlockConditions of an Output, sorted by type.
type UnlockConditions []UnlockCondition

// UnlockConditionsFromMarshalUtil unmarshals UnlockConditions using a MarshalUtil (for easier unmarshaling).
func UnlockConditionsFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (unlockConditions UnlockConditions, err error) {
	count, err := marshalUtil.ReadUint8()
	if err != nil {
		return nil, errors.Errorf("failed to parse unlock condition count (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	unlockConditions = make(UnlockConditions, count)
	for i := range unlockConditions {
		if unlockConditions[i], err = UnlockConditionFromMarshalUtil(marshalUtil); err != nil {
			return nil, errors.Errorf("failed to parse unlock condition %d: %w", i, err)
		}
	}

	return unlockConditions, nil
}

// Sorted returns a copy of the UnlockConditions ordered by type.
func (u UnlockConditions) Sorted() UnlockConditions {
	sorted := make(UnlockConditions, 0, len(u))
	for conditionType := AddressUnlockConditionType; conditionType <= ImmutableAliasAddressUnlockConditionType; conditionType++ {
		for _, condition := range u {
			if condition.Type() == conditionType {
				sorted = append(sorted, condition)
			}
		}
	}

	return sorted
}

// Clone creates a deep copy of the UnlockConditions.
func (u UnlockConditions) Clone() UnlockConditions {
	if u == nil {
		return nil
	}

	cloned := make(UnlockConditions, len(u))
	for i, condition := range u {
		cloned[i] = condition.Clone()
	}

	return cloned
}

// Validate checks that the set is sorted by type, free of duplicates and only holds the allowed types.
func (u UnlockConditions) Validate(allowed ...UnlockConditionType) error {
	allowedTypes := make(map[UnlockConditionType]bool, len(allowed))
	for _, conditionType := range allowed {
		allowedTypes[conditionType] = true
	}

	for i, condition := range u {
		if condition == nil {
			return clienterrors.OutputValidationf("unlock condition %d is nil", i)
		}
		if !allowedTypes[condition.Type()] {
			return clienterrors.OutputValidationf("%s is not allowed on this output type", condition.Type())
		}
		if i > 0 && u[i-1].Type() >= condition.Type() {
			return clienterrors.OutputValidationf("unlock conditions must be sorted by type and unique (index %d)", i)
		}
	}

	return nil
}

// Has returns true if an UnlockCondition of the given type is present.
func (u UnlockConditions) Has(conditionType UnlockConditionType) bool {
	return u.get(conditionType) != nil
}

func (u UnlockConditions) get(conditionType UnlockConditionType) UnlockCondition {
	for _, condition := range u {
		if condition.Type() == conditionType {
			return condition
		}
	}

	return nil
}

// Address returns the AddressUnlockCondition or nil.
func (u UnlockConditions) Address() *AddressUnlockCondition {
	condition, _ := u.get(AddressUnlockConditionType).(*AddressUnlockCondition)
	return condition
}

// StorageDepositReturn returns the StorageDepositReturnUnlockCondition or nil.
func (u UnlockConditions) StorageDepositReturn() *StorageDepositReturnUnlockCondition {
	condition, _ := u.get(StorageDepositReturnUnlockConditionType).(*StorageDepositReturnUnlockCondition)
	return condition
}

// Timelock returns the TimelockUnlockCondition or nil.
func (u UnlockConditions) Timelock() *TimelockUnlockCondition {
	condition, _ := u.get(TimelockUnlockConditionType).(*TimelockUnlockCondition)
	return condition
}

// Expiration returns the ExpirationUnlockCondition or nil.
func (u UnlockConditions) Expiration() *ExpirationUnlockCondition {
	condition, _ := u.get(ExpirationUnlockConditionType).(*ExpirationUnlockCondition)
	return condition
}

// StateController returns the StateControllerAddressUnlockCondition or nil.
func (u UnlockConditions) StateController() *StateControllerAddressUnlockCondition {
	condition, _ := u.get(StateControllerAddressUnlockConditionType).(*StateControllerAddressUnlockCondition)
	return condition
}

// Governor returns the GovernorAddressUnlockCondition or nil.
func (u UnlockConditions) Governor() *GovernorAddressUnlockCondition {
	condition, _ := u.get(GovernorAddressUnlockConditionType).(*GovernorAddressUnlockCondition)
	return condition
}

// ImmutableAlias returns the ImmutableAliasAddressUnlockCondition or nil.
func (u UnlockConditions) ImmutableAlias() *ImmutableAliasAddressUnlockCondition {
	condition, _ := u.get(ImmutableAliasAddressUnlockConditionType).(*ImmutableAliasAddressUnlockCondition)
	return condition
}

// TimelockedAt returns true if a timelock forbids spending at the given unix time.
func (u UnlockConditions) TimelockedAt(unixTime uint32) bool {
	timelock := u.Timelock()
	return timelock != nil && timelock.UnixTime > unixTime
}

// OwnerAt returns the Address allowed to unlock a basic or NFT output at the given unix time, taking an expired
// ExpirationUnlockCondition into account.
func (u UnlockConditions) OwnerAt(unixTime uint32) Address {
	if expiration := u.Expiration(); expiration != nil && unixTime >= expiration.UnixTime {
		return expiration.ReturnAddress
	}
	if addressCondition := u.Address(); addressCondition != nil {
		return addressCondition.Address
	}

	return nil
}

func (u UnlockConditions) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(len(u)))
	for _, condition := range u {
		condition.writeTo(marshalUtil)
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

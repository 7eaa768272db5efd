package ledgerstate

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

const (
	// MaxMetadataLength defines the maximum size of the data of a MetadataFeature.
	MaxMetadataLength = 8192

	// MaxTagLength defines the maximum size of a TagFeature or a TaggedData tag.
	MaxTagLength = 64
)

// region FeatureType //////////////////////////////////////////////////////////////////////////////////////////////////

// FeatureType represents the type of a Feature.
type FeatureType uint8

const (
	// SenderFeatureType identifies the sender of an Output.
	SenderFeatureType FeatureType = iota

	// IssuerFeatureType identifies the issuer of an alias or NFT.
	IssuerFeatureType

	// MetadataFeatureType attaches arbitrary binary data.
	MetadataFeatureType

	// TagFeatureType attaches an indexation tag.
	TagFeatureType
)

// String returns a human-readable representation of the FeatureType.
func (f FeatureType) String() string {
	switch f {
	case SenderFeatureType:
		return "SenderFeature"
	case IssuerFeatureType:
		return "IssuerFeature"
	case MetadataFeatureType:
		return "MetadataFeature"
	case TagFeatureType:
		return "TagFeature"
	default:
		return "UnknownFeature"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Feature //////////////////////////////////////////////////////////////////////////////////////////////////////

// Feature is an optional attribute of an Output that does not affect who can unlock it.
type Feature interface {
	// Type returns the FeatureType.
	Type() FeatureType

	// Clone creates a copy of the Feature.
	Clone() Feature

	// String returns a human-readable version of the Feature.
	String() string

	writeTo(marshalUtil *marshalutil.MarshalUtil)
}

// FeatureFromMarshalUtil unmarshals a Feature using a MarshalUtil (for easier unmarshaling).
func FeatureFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (feature Feature, err error) {
	featureType, err := marshalUtil.ReadByte()
	if err != nil {
		return nil, errors.Errorf("failed to parse FeatureType (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	switch FeatureType(featureType) {
	case SenderFeatureType:
		address, addressErr := AddressFromMarshalUtil(marshalUtil)
		if addressErr != nil {
			return nil, addressErr
		}
		return &SenderFeature{Address: address}, nil
	case IssuerFeatureType:
		address, addressErr := AddressFromMarshalUtil(marshalUtil)
		if addressErr != nil {
			return nil, addressErr
		}
		return &IssuerFeature{Address: address}, nil
	case MetadataFeatureType:
		length, readErr := marshalUtil.ReadUint16()
		if readErr != nil {
			return nil, errors.Errorf("failed to parse metadata length (%v): %w", readErr, cerrors.ErrParseBytesFailed)
		}
		data, readErr := marshalUtil.ReadBytes(int(length))
		if readErr != nil {
			return nil, errors.Errorf("failed to parse metadata (%v): %w", readErr, cerrors.ErrParseBytesFailed)
		}
		return &MetadataFeature{Data: data}, nil
	case TagFeatureType:
		length, readErr := marshalUtil.ReadUint8()
		if readErr != nil {
			return nil, errors.Errorf("failed to parse tag length (%v): %w", readErr, cerrors.ErrParseBytesFailed)
		}
		tag, readErr := marshalUtil.ReadBytes(int(length))
		if readErr != nil {
			return nil, errors.Errorf("failed to parse tag (%v): %w", readErr, cerrors.ErrParseBytesFailed)
		}
		return &TagFeature{Tag: tag}, nil
	default:
		return nil, errors.Errorf("unsupported feature type (%X): %w", featureType, cerrors.ErrParseBytesFailed)
	}
}

// SenderFeature names the Address that sent an Output. The Address must unlock an input of the transaction.
type SenderFeature struct {
	Address Address
}

// Type returns the FeatureType.
func (s *SenderFeature) Type() FeatureType { return SenderFeatureType }

// Clone creates a copy of the Feature.
func (s *SenderFeature) Clone() Feature { return &SenderFeature{Address: s.Address.Clone()} }

func (s *SenderFeature) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(s.Type()))
	marshalUtil.WriteBytes(s.Address.Bytes())
}

// String returns a human-readable version of the Feature.
func (s *SenderFeature) String() string {
	return stringify.Struct("SenderFeature", stringify.StructField("Address", s.Address))
}

// IssuerFeature names the Address that issued an alias or NFT.
type IssuerFeature struct {
	Address Address
}

// Type returns the FeatureType.
func (i *IssuerFeature) Type() FeatureType { return IssuerFeatureType }

// Clone creates a copy of the Feature.
func (i *IssuerFeature) Clone() Feature { return &IssuerFeature{Address: i.Address.Clone()} }

func (i *IssuerFeature) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(i.Type()))
	marshalUtil.WriteBytes(i.Address.Bytes())
}

// String returns a human-readable version of the Feature.
func (i *IssuerFeature) String() string {
	return stringify.Struct("IssuerFeature", stringify.StructField("Address", i.Address))
}

// MetadataFeature attaches binary data to an Output.
type MetadataFeature struct {
	Data []byte
}

// Type returns the FeatureType.
func (m *MetadataFeature) Type() FeatureType { return MetadataFeatureType }

// Clone creates a copy of the Feature.
func (m *MetadataFeature) Clone() Feature {
	return &MetadataFeature{Data: append([]byte(nil), m.Data...)}
}

func (m *MetadataFeature) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(m.Type()))
	marshalUtil.WriteUint16(uint16(len(m.Data)))
	marshalUtil.WriteBytes(m.Data)
}

// String returns a human-readable version of the Feature.
func (m *MetadataFeature) String() string {
	return stringify.Struct("MetadataFeature", stringify.StructField("Data", m.Data))
}

// TagFeature attaches an indexation tag to an Output.
type TagFeature struct {
	Tag []byte
}

// Type returns the FeatureType.
func (t *TagFeature) Type() FeatureType { return TagFeatureType }

// Clone creates a copy of the Feature.
func (t *TagFeature) Clone() Feature {
	return &TagFeature{Tag: append([]byte(nil), t.Tag...)}
}

func (t *TagFeature) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(t.Type()))
	marshalUtil.WriteByte(byte(len(t.Tag)))
	marshalUtil.WriteBytes(t.Tag)
}

// String returns a human-readable version of the Feature.
func (t *TagFeature) String() string {
	return stringify.Struct("TagFeature", stringify.StructField("Tag", t.Tag))
}

// code contract (make sure the structs implement all required methods).
var (
	_ Feature = &SenderFeature{}
	_ Feature = &IssuerFeature{}
	_ Feature = &MetadataFeature{}
	_ Feature = &TagFeature{}
)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Features /////////////////////////////////////////////////////////////////////////////////////////////////////

// Features is a set of Features sorted by type.
type Features []Feature

// FeaturesFromMarshalUtil unmarshals Features using a MarshalUtil (for easier unmarshaling).
func FeaturesFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (features Features, err error) {
	count, err := marshalUtil.ReadUint8()
	if err != nil {
		return nil, errors.Errorf("failed to parse feature count (%v): %w", err, cerrors.ErrParseBytesFailed)
	}

	features = make(Features, count)
	for i := range features {
		if features[i], err = FeatureFromMarshalUtil(marshalUtil); err != nil {
			return nil, errors.Errorf("failed to parse feature %d: %w", i, err)
		}
	}

	return features, nil
}

// Sorted returns a copy of the Features ordered by type.
func (f Features) Sorted() Features {
	sorted := make(Features, 0, len(f))
	for featureType := SenderFeatureType; featureType <= TagFeatureType; featureType++ {
		for _, feature := range f {
			if feature.Type() == featureType {
				sorted = append(sorted, feature)
			}
		}
	}

	return sorted
}

// Clone creates a deep copy of the Features.
func (f Features) Clone() Features {
	if f == nil {
		return nil
	}

	cloned := make(Features, len(f))
	for i, feature := range f {
		cloned[i] = feature.Clone()
	}

	return cloned
}

// Validate checks ordering, uniqueness, size limits and that only the allowed types are present.
func (f Features) Validate(allowed ...FeatureType) error {
	allowedTypes := make(map[FeatureType]bool, len(allowed))
	for _, featureType := range allowed {
		allowedTypes[featureType] = true
	}

	for i, feature := range f {
		if feature == nil {
			return clienterrors.OutputValidationf("feature %d is nil", i)
		}
		if !allowedTypes[feature.Type()] {
			return clienterrors.OutputValidationf("%s is not allowed here", feature.Type())
		}
		if i > 0 && f[i-1].Type() >= feature.Type() {
			return clienterrors.OutputValidationf("features must be sorted by type and unique (index %d)", i)
		}

		switch typedFeature := feature.(type) {
		case *MetadataFeature:
			if len(typedFeature.Data) == 0 || len(typedFeature.Data) > MaxMetadataLength {
				return clienterrors.OutputValidationf("metadata must hold 1 to %d bytes", MaxMetadataLength)
			}
		case *TagFeature:
			if len(typedFeature.Tag) == 0 || len(typedFeature.Tag) > MaxTagLength {
				return clienterrors.OutputValidationf("tag must hold 1 to %d bytes", MaxTagLength)
			}
		}
	}

	return nil
}

func (f Features) get(featureType FeatureType) Feature {
	for _, feature := range f {
		if feature.Type() == featureType {
			return feature
		}
	}

	return nil
}

// Sender returns the SenderFeature or nil.
func (f Features) Sender() *SenderFeature {
	feature, _ := f.get(SenderFeatureType).(*SenderFeature)
	return feature
}

// Issuer returns the IssuerFeature or nil.
func (f Features) Issuer() *IssuerFeature {
	feature, _ := f.get(IssuerFeatureType).(*IssuerFeature)
	return feature
}

// Metadata returns the MetadataFeature or nil.
func (f Features) Metadata() *MetadataFeature {
	feature, _ := f.get(MetadataFeatureType).(*MetadataFeature)
	return feature
}

// Tag returns the TagFeature or nil.
func (f Features) Tag() *TagFeature {
	feature, _ := f.get(TagFeatureType).(*TagFeature)
	return feature
}

// Equal returns true if both sets hold the same serialized Features.
func (f Features) Equal(other Features) bool {
	a, b := marshalutil.New(), marshalutil.New()
	f.writeTo(a)
	other.writeTo(b)

	return bytes.Equal(a.Bytes(), b.Bytes())
}

func (f Features) writeTo(marshalUtil *marshalutil.MarshalUtil) {
	marshalUtil.WriteByte(byte(len(f)))
	for _, feature := range f {
		feature.writeTo(marshalUtil)
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

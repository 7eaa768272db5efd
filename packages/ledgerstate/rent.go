package ledgerstate

import (
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"
)

// storageKeyLength is the size of the key a node stores an Output under (its OutputID).
const storageKeyLength = OutputIDLength

// storageMetadataLength is the size of the metadata a node stores next to an Output (block id, milestone index and
// milestone timestamp of its booking).
const storageMetadataLength = 32 + marshalutil.Uint32Size + marshalutil.Uint32Size

// RentStructure holds the network parameters that define the minimum storage deposit of an Output. The values are
// governed by the network and have to be taken from the node info.
type RentStructure struct {
	VByteCost       uint32
	VByteFactorData uint8
	VByteFactorKey  uint8
}

// VirtualBytes returns the weighted size of the Output.
func (r *RentStructure) VirtualBytes(output Output) uint64 {
	offset := uint64(r.VByteFactorKey)*storageKeyLength + uint64(r.VByteFactorData)*storageMetadataLength

	return offset + uint64(r.VByteFactorData)*uint64(len(output.Bytes()))
}

// MinimumStorageDeposit returns the amount of base tokens the Output has to hold at least.
func (r *RentStructure) MinimumStorageDeposit(output Output) uint64 {
	return uint64(r.VByteCost) * r.VirtualBytes(output)
}

// MinimumStorageDepositForAddress returns the minimum deposit of a BasicOutput that is only owned by the Address.
func (r *RentStructure) MinimumStorageDepositForAddress(address Address) uint64 {
	return r.MinimumStorageDeposit(&BasicOutput{
		Conditions: UnlockConditions{&AddressUnlockCondition{Address: address}},
	})
}

// String returns a human readable version of the RentStructure.
func (r *RentStructure) String() string {
	return stringify.Struct("RentStructure",
		stringify.StructField("VByteCost", r.VByteCost),
		stringify.StructField("VByteFactorData", r.VByteFactorData),
		stringify.StructField("VByteFactorKey", r.VByteFactorKey),
	)
}

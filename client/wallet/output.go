package wallet

import (
	"github.com/iotaledger/hive.go/stringify"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// Output is a wallet specific representation of an unspent output: the output together with the wallet address it was
// found on.
type Output struct {
	Address *address.Address
	UTXO    *ledgerstate.UTXO
	Spent   bool
}

// String returns a human-readable representation of the Output.
func (o *Output) String() string {
	return stringify.Struct("Output",
		stringify.StructField("Address", o.Address.Bech32),
		stringify.StructField("OutputID", o.UTXO.ID.Hex()),
		stringify.StructField("Amount", o.UTXO.Output.Deposit()),
		stringify.StructField("Spent", o.Spent),
	)
}

// region OutputsByID //////////////////////////////////////////////////////////////////////////////////////////////////

// OutputsByID is a collection of Outputs associated with their OutputID.
type OutputsByID map[ledgerstate.OutputID]*Output

// OutputsByAddressAndOutputID returns a collection of Outputs associated with their Address and OutputID.
func (o OutputsByID) OutputsByAddressAndOutputID() (outputsByAddressAndOutputID OutputsByAddressAndOutputID) {
	outputsByAddressAndOutputID = make(OutputsByAddressAndOutputID)
	for outputID, output := range o {
		outputsByAddress, exists := outputsByAddressAndOutputID[output.Address.Bech32]
		if !exists {
			outputsByAddress = make(OutputsByID)
			outputsByAddressAndOutputID[output.Address.Bech32] = outputsByAddress
		}

		outputsByAddress[outputID] = output
	}

	return
}

// UTXOs returns the outputs sorted by their OutputID.
func (o OutputsByID) UTXOs() ledgerstate.UTXOs {
	utxos := make(ledgerstate.UTXOs, 0, len(o))
	for _, output := range o {
		utxos = append(utxos, output.UTXO)
	}
	utxos.SortByID()

	return utxos
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region OutputsByAddressAndOutputID //////////////////////////////////////////////////////////////////////////////////

// OutputsByAddressAndOutputID is a collection of Outputs grouped by the bech32 encoding of their address.
type OutputsByAddressAndOutputID map[string]OutputsByID

// OutputsByID returns a collection of Outputs associated with their OutputID.
func (o OutputsByAddressAndOutputID) OutputsByID() (outputsByID OutputsByID) {
	outputsByID = make(OutputsByID)
	for _, outputs := range o {
		for outputID, output := range outputs {
			outputsByID[outputID] = output
		}
	}

	return
}

// OutputCount returns the number of outputs in the collection.
func (o OutputsByAddressAndOutputID) OutputCount() (count int) {
	for _, outputs := range o {
		count += len(outputs)
	}

	return
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

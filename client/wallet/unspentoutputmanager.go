package wallet

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
)

// UnspentOutputManager is a manager for the unspent outputs of the addresses of a wallet. It holds a snapshot of the
// ledger taken by Refresh and keeps track of the outputs that were already selected locally, so the same output is
// never consumed twice while the snapshot is used.
type UnspentOutputManager struct {
	connector      Connector
	unixTime       uint32
	unspentOutputs map[string]OutputsByID
	mutex          sync.Mutex
}

// NewUnspentOutputManager creates a new UnspentOutputManager. Time dependent unlock conditions are evaluated at the
// given unix time.
func NewUnspentOutputManager(connector Connector, unixTime uint32) (outputManager *UnspentOutputManager) {
	return &UnspentOutputManager{
		connector:      connector,
		unixTime:       unixTime,
		unspentOutputs: make(map[string]OutputsByID),
	}
}

// Refresh retrieves the unspent outputs of the given addresses from the node. The addresses are queried concurrently.
// Outputs that were marked as spent before stay spent.
func (unspentOutputManager *UnspentOutputManager) Refresh(ctx context.Context, addresses address.Addresses) (err error) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelOutputRequests)
	for _, addr := range addresses {
		addr := addr
		group.Go(func() error {
			utxos, err := unspentOutputManager.connector.UnspentOutputs(groupCtx, addr.Bech32)
			if err != nil {
				return err
			}
			unspentOutputManager.store(addr, utxos)

			return nil
		})
	}

	return group.Wait()
}

func (unspentOutputManager *UnspentOutputManager) store(addr *address.Address, utxos ledgerstate.UTXOs) {
	unspentOutputManager.mutex.Lock()
	defer unspentOutputManager.mutex.Unlock()

	previousOutputs := unspentOutputManager.unspentOutputs[addr.Bech32]
	outputs := make(OutputsByID)
	for _, utxo := range utxos {
		if !Spendable(utxo, addr.Address, unspentOutputManager.unixTime) {
			continue
		}

		output := &Output{Address: addr, UTXO: utxo}
		// mark the output as spent if we already marked it as spent locally
		if existingOutput, outputExists := previousOutputs[utxo.ID]; outputExists && existingOutput.Spent {
			output.Spent = true
		}
		outputs[utxo.ID] = output
	}
	unspentOutputManager.unspentOutputs[addr.Bech32] = outputs
}

// UnspentOutputs returns the outputs that have not been spent, yet. The outputs are ordered like the addresses and by
// OutputID within an address. An output that is reachable from several addresses is only returned once.
func (unspentOutputManager *UnspentOutputManager) UnspentOutputs(addresses ...*address.Address) (unspentOutputs []*Output) {
	unspentOutputManager.mutex.Lock()
	defer unspentOutputManager.mutex.Unlock()

	seen := make(map[ledgerstate.OutputID]bool)
	for _, addr := range addresses {
		// skip the address if we have no outputs for it stored
		outputsOnAddress, exists := unspentOutputManager.unspentOutputs[addr.Bech32]
		if !exists {
			continue
		}

		for _, utxo := range outputsOnAddress.UTXOs() {
			output := outputsOnAddress[utxo.ID]
			if output.Spent || seen[utxo.ID] {
				continue
			}
			seen[utxo.ID] = true
			unspentOutputs = append(unspentOutputs, output)
		}
	}

	return unspentOutputs
}

// MarkOutputSpent marks the output as spent on every address it was found on.
func (unspentOutputManager *UnspentOutputManager) MarkOutputSpent(outputID ledgerstate.OutputID) {
	unspentOutputManager.mutex.Lock()
	defer unspentOutputManager.mutex.Unlock()

	for _, outputs := range unspentOutputManager.unspentOutputs {
		if output, exists := outputs[outputID]; exists {
			output.Spent = true
		}
	}
}

// Spendable returns true if the output is a basic output that the owner can consume alone at the given unix time:
// no timelock, no storage deposit return obligation and not expired to another address.
func Spendable(utxo *ledgerstate.UTXO, owner ledgerstate.Address, unixTime uint32) bool {
	basicOutput, isBasic := utxo.Output.(*ledgerstate.BasicOutput)
	if !isBasic {
		return false
	}

	conditions := basicOutput.Conditions
	if conditions.TimelockedAt(unixTime) || conditions.StorageDepositReturn() != nil {
		return false
	}

	currentOwner := conditions.OwnerAt(unixTime)

	return currentOwner != nil && currentOwner.Equals(owner)
}

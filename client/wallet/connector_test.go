package wallet

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stardust-client/client/wallet/packages/address"
	"github.com/iotaledger/stardust-client/client/wallet/packages/secretmanager"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/ledgerstate"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

const (
	testSeed = "256a818b2aac458941f7274985a410e57fb750f3a3a67969ece5bd9ae7eef5b2"
	testHRP  = "atoi"
)

// region mockConnector ////////////////////////////////////////////////////////////////////////////////////////////////

// mockConnector is an in-memory ledger and tangle. Posted transactions are applied to the ledger right away.
type mockConnector struct {
	mutex sync.Mutex

	parameters  *jsonmodels.ProtocolParameters
	tips        tangle.BlockIDs
	tipRequests byte

	outputs       map[ledgerstate.OutputID]*ledgerstate.UTXO
	spent         map[ledgerstate.OutputID]bool
	failingInputs map[ledgerstate.OutputID]bool
	outputCounter uint16

	blocks       map[tangle.BlockID]*tangle.Block
	posted       []tangle.BlockID
	polls        map[tangle.BlockID]int
	metadataFunc func(blockID tangle.BlockID, poll int) (*tangle.BlockMetadata, error)
}

func newMockConnector() *mockConnector {
	return &mockConnector{
		parameters: &jsonmodels.ProtocolParameters{
			Version:     2,
			NetworkName: "testnet",
			Bech32HRP:   testHRP,
			RentStructure: jsonmodels.RentStructure{
				VByteCost:       1,
				VByteFactorData: 1,
				VByteFactorKey:  10,
			},
		},
		tips:          tangle.BlockIDs{{1}, {2}},
		outputs:       make(map[ledgerstate.OutputID]*ledgerstate.UTXO),
		spent:         make(map[ledgerstate.OutputID]bool),
		failingInputs: make(map[ledgerstate.OutputID]bool),
		blocks:        make(map[tangle.BlockID]*tangle.Block),
		polls:         make(map[tangle.BlockID]int),
	}
}

// fund creates a basic output on the address.
func (m *mockConnector) fund(owner ledgerstate.Address, amount uint64, nativeTokens ledgerstate.NativeTokens, conditions ...ledgerstate.UnlockCondition) ledgerstate.OutputID {
	output := &ledgerstate.BasicOutput{
		Amount:       amount,
		NativeTokens: nativeTokens,
		Conditions:   append(ledgerstate.UnlockConditions{&ledgerstate.AddressUnlockCondition{Address: owner}}, conditions...).Sorted(),
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.outputCounter++
	outputID := ledgerstate.NewOutputID(ledgerstate.TransactionID{0xff, byte(m.outputCounter >> 8), byte(m.outputCounter)}, 0)
	m.outputs[outputID] = &ledgerstate.UTXO{ID: outputID, Output: output}

	return outputID
}

// balance returns the base tokens held by the unspent outputs of the address.
func (m *mockConnector) balance(owner ledgerstate.Address) (total uint64, outputCount int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for outputID, utxo := range m.outputs {
		if m.spent[outputID] {
			continue
		}
		if condition := utxo.Output.UnlockConditionSet().Address(); condition != nil && condition.Address.Equals(owner) {
			total += utxo.Output.Deposit()
			outputCount++
		}
	}

	return total, outputCount
}

func (m *mockConnector) postedTransactions() (transactions []*ledgerstate.Transaction) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, blockID := range m.posted {
		if transaction := m.blocks[blockID].Transaction(); transaction != nil {
			transactions = append(transactions, transaction)
		}
	}

	return transactions
}

func (m *mockConnector) ProtocolParameters(context.Context) (*jsonmodels.ProtocolParameters, error) {
	return m.parameters, nil
}

// Tips returns the static tips plus one that changes with every request, like a moving tangle would.
func (m *mockConnector) Tips(context.Context) (tangle.BlockIDs, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.tipRequests++

	return append(tangle.BlockIDs{{0xee, m.tipRequests}}, m.tips...), nil
}

func (m *mockConnector) UnspentOutputs(_ context.Context, bech32Address string) (utxos ledgerstate.UTXOs, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for outputID, utxo := range m.outputs {
		if m.spent[outputID] {
			continue
		}
		if condition := utxo.Output.UnlockConditionSet().Address(); condition != nil && condition.Address.Bech32(testHRP) == bech32Address {
			utxos = append(utxos, utxo)
		}
	}

	return utxos, nil
}

func (m *mockConnector) Output(_ context.Context, outputID ledgerstate.OutputID) (*ledgerstate.UTXO, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.failingInputs[outputID] {
		return nil, &clienterrors.NodeError{StatusCode: http.StatusBadRequest, Route: "api/core/v2/outputs", Message: "invalid output"}
	}

	utxo, exists := m.outputs[outputID]
	if !exists {
		return nil, &clienterrors.NodeError{StatusCode: http.StatusNotFound, Route: "api/core/v2/outputs", Message: "output not found"}
	}
	if m.spent[outputID] {
		return nil, errors.Wrapf(clienterrors.ErrOutputSpent, "output %s", outputID.Hex())
	}

	return utxo, nil
}

func (m *mockConnector) PostBlock(_ context.Context, block *tangle.Block) (tangle.BlockID, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	blockID := block.ID()
	if _, exists := m.blocks[blockID]; exists {
		return tangle.EmptyBlockID, &clienterrors.NodeError{StatusCode: http.StatusBadRequest, Route: "api/core/v2/blocks", Message: "block already known"}
	}
	m.blocks[blockID] = block
	m.posted = append(m.posted, blockID)

	if transaction := block.Transaction(); transaction != nil {
		for _, input := range transaction.Essence.Inputs {
			m.spent[input.OutputID()] = true
		}
		for i, output := range transaction.Essence.Outputs {
			outputID := transaction.OutputID(uint16(i))
			m.outputs[outputID] = &ledgerstate.UTXO{ID: outputID, Output: output}
		}
	}

	return blockID, nil
}

func (m *mockConnector) Block(_ context.Context, blockID tangle.BlockID) (*tangle.Block, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	block, exists := m.blocks[blockID]
	if !exists {
		return nil, &clienterrors.NodeError{StatusCode: http.StatusNotFound, Route: "api/core/v2/blocks", Message: "block not found"}
	}

	return block, nil
}

func (m *mockConnector) BlockMetadata(_ context.Context, blockID tangle.BlockID) (*tangle.BlockMetadata, error) {
	m.mutex.Lock()
	m.polls[blockID]++
	poll := m.polls[blockID]
	metadataFunc := m.metadataFunc
	m.mutex.Unlock()

	if metadataFunc == nil {
		return &tangle.BlockMetadata{BlockID: blockID, Solid: true}, nil
	}

	return metadataFunc(blockID, poll)
}

var _ Connector = &mockConnector{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region test helpers /////////////////////////////////////////////////////////////////////////////////////////////////

func newTestWallet(t *testing.T, connector *mockConnector, options ...Option) *Wallet {
	secretManager, err := secretmanager.NewSeedSecretManagerFromHex(testSeed)
	require.NoError(t, err)

	return New(append([]Option{WithConnector(connector), WithSecretManager(secretManager)}, options...)...)
}

func testAddresses(t *testing.T, wallet *Wallet, end uint32) address.Addresses {
	addresses, err := wallet.GenerateAddresses(context.Background(), 0, end, false)
	require.NoError(t, err)

	return addresses
}

func basicOutput(owner ledgerstate.Address, amount uint64, nativeTokens ...*ledgerstate.NativeToken) *ledgerstate.BasicOutput {
	return &ledgerstate.BasicOutput{
		Amount:       amount,
		NativeTokens: nativeTokens,
		Conditions:   ledgerstate.UnlockConditions{&ledgerstate.AddressUnlockCondition{Address: owner}},
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

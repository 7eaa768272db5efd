// Package commands exposes the operations of the wallet as named commands with JSON encoded requests and responses.
package commands

import (
	"context"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/iotaledger/stardust-client/client/wallet"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponseType is the type of every Response of a failed command.
const ErrorResponseType = "error"

// InfoProvider returns the status of the node the wallet is connected to.
type InfoProvider interface {
	Info(ctx context.Context) (*jsonmodels.InfoResponse, error)
}

// handler executes a single command. It returns the type of the response and its payload.
type handler func(ctx context.Context, data jsoniter.RawMessage) (responseType string, payload interface{}, err error)

// region Dispatcher ///////////////////////////////////////////////////////////////////////////////////////////////////

// Dispatcher routes commands to the Wallet.
type Dispatcher struct {
	wallet       *wallet.Wallet
	infoProvider InfoProvider
	log          *zap.SugaredLogger
	handlers     map[string]handler
}

// New creates a Dispatcher for the given Wallet. A wallet that uses a WebConnector answers getInfo through its node
// API unless another InfoProvider is set.
func New(w *wallet.Wallet, options ...Option) *Dispatcher {
	dispatcher := &Dispatcher{
		wallet: w,
		log:    zap.NewNop().Sugar(),
	}
	if webConnector, isWebConnector := w.Connector().(*wallet.WebConnector); isWebConnector {
		dispatcher.infoProvider = webConnector.API()
	}

	for _, option := range options {
		option(dispatcher)
	}

	dispatcher.handlers = map[string]handler{
		"generateAddresses":  dispatcher.generateAddresses,
		"buildBasicOutput":   dispatcher.buildBasicOutput,
		"buildAliasOutput":   dispatcher.buildAliasOutput,
		"buildFoundryOutput": dispatcher.buildFoundryOutput,
		"buildNftOutput":     dispatcher.buildNFTOutput,
		"buildAndPostBlock":  dispatcher.buildAndPostBlock,
		"postBlock":          dispatcher.postBlock,
		"retryUntilIncluded": dispatcher.retryUntilIncluded,
		"consolidateFunds":   dispatcher.consolidateFunds,
		"computeAliasId":     dispatcher.computeAliasID,
		"computeNftId":       dispatcher.computeNFTID,
		"computeFoundryId":   dispatcher.computeFoundryID,
		"hexToBech32":        dispatcher.hexToBech32,
		"bech32ToHex":        dispatcher.bech32ToHex,
		"isAddressValid":     dispatcher.isAddressValid,
		"getInfo":            dispatcher.getInfo,
		"getOutputs":         dispatcher.getOutputs,
	}

	return dispatcher
}

// Handle executes the JSON encoded Command and returns the JSON encoded Response.
func (d *Dispatcher) Handle(ctx context.Context, request []byte) []byte {
	command := new(jsonmodels.Command)
	if err := json.Unmarshal(request, command); err != nil {
		return d.marshal(errorResponse(clienterrors.Validationf("malformed command: %v", err)))
	}

	return d.marshal(d.Call(ctx, command))
}

// Call executes the Command. Failures are reported as a Response of type ErrorResponseType.
func (d *Dispatcher) Call(ctx context.Context, command *jsonmodels.Command) (response *jsonmodels.Response) {
	handle, exists := d.handlers[command.Name]
	if !exists {
		return errorResponse(clienterrors.Validationf("unknown command %q", command.Name))
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("command panicked", "command", command.Name, "panic", r)
			response = errorResponse(errors.Errorf("command %s panicked: %v", command.Name, r))
		}
	}()

	responseType, payload, err := handle(ctx, command.Data)
	if err != nil {
		d.log.Debugw("command failed", "command", command.Name, "kind", clienterrors.Kind(err), "err", err)
		return errorResponse(err)
	}
	d.log.Debugw("command executed", "command", command.Name, "response", responseType)

	return &jsonmodels.Response{Type: responseType, Payload: payload}
}

func (d *Dispatcher) marshal(response *jsonmodels.Response) []byte {
	marshaled, err := json.Marshal(response)
	if err != nil {
		d.log.Errorw("failed to marshal response", "type", response.Type, "err", err)
		marshaled, _ = json.Marshal(errorResponse(errors.Errorf("failed to marshal response: %w", err)))
	}

	return marshaled
}

func (d *Dispatcher) requireOnline() error {
	if d.wallet.Offline() {
		return clienterrors.Validationf("wallet is offline")
	}

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Options //////////////////////////////////////////////////////////////////////////////////////////////////////

// Option configures the Dispatcher.
type Option func(d *Dispatcher)

// WithInfoProvider sets the source of the getInfo command.
func WithInfoProvider(infoProvider InfoProvider) Option {
	return func(d *Dispatcher) {
		d.infoProvider = infoProvider
	}
}

// WithLogger sets the logger of the Dispatcher.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region utils ////////////////////////////////////////////////////////////////////////////////////////////////////////

func errorResponse(err error) *jsonmodels.Response {
	return &jsonmodels.Response{
		Type: ErrorResponseType,
		Payload: &jsonmodels.ErrorPayload{
			Type:  clienterrors.Kind(err),
			Error: err.Error(),
		},
	}
}

// decode unmarshals the data of a command into the request. Commands without data leave the request untouched.
func decode(data jsoniter.RawMessage, request interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, request); err != nil {
		return clienterrors.Validationf("malformed request: %v", err)
	}

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

package pow

import (
	"context"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/iotaledger/stardust-client/client"
	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

const routeNonce = "/api/pow/v1/nonce"

// region RemoteProvider ///////////////////////////////////////////////////////////////////////////////////////////////

type nonceRequest struct {
	PowData     string `json:"powData"`
	TargetScore uint32 `json:"targetScore"`
}

type nonceResponse struct {
	Nonce string `json:"nonce"`
}

// RemoteProvider delegates the nonce search to a PoW service.
type RemoteProvider struct {
	client *resty.Client
}

// NewRemoteProvider creates a RemoteProvider for the PoW service reachable at url.
func NewRemoteProvider(url string, timeout time.Duration) *RemoteProvider {
	return &RemoteProvider{
		client: resty.New().SetHostURL(url).SetTimeout(timeout),
	}
}

// HTTPClient returns the http.Client that performs the requests.
func (r *RemoteProvider) HTTPClient() *http.Client {
	return r.client.GetClient()
}

// Mine implements Provider.
func (r *RemoteProvider) Mine(ctx context.Context, powData []byte, targetScore uint32) (uint64, error) {
	result := &nonceResponse{}
	res, err := r.client.R().
		SetContext(ctx).
		SetBody(&nonceRequest{PowData: "0x" + hex.EncodeToString(powData), TargetScore: targetScore}).
		SetResult(result).
		Post(routeNonce)
	if err = client.InterpretResponse(routeNonce, res, err); err != nil {
		return 0, err
	}

	nonce, err := strconv.ParseUint(result.Nonce, 10, 64)
	if err != nil {
		return 0, &clienterrors.NodeError{StatusCode: res.StatusCode(), Route: routeNonce, Message: "invalid nonce " + strconv.Quote(result.Nonce)}
	}
	if !Valid(powData, nonce, targetScore) {
		return 0, &clienterrors.NodeError{StatusCode: res.StatusCode(), Route: routeNonce, Message: "nonce " + result.Nonce + " does not reach the target score"}
	}

	return nonce, nil
}

// code contract (make sure the struct implements all required methods).
var _ Provider = &RemoteProvider{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region FallbackProvider /////////////////////////////////////////////////////////////////////////////////////////////

// FallbackProvider asks a remote Provider first and uses a local Provider if the remote one is unavailable.
type FallbackProvider struct {
	remote          Provider
	local           Provider
	fallbackToLocal bool
	log             *zap.SugaredLogger
}

// NewFallbackProvider creates a FallbackProvider. Without fallbackToLocal the errors of the remote Provider are
// returned as they are.
func NewFallbackProvider(remote, local Provider, fallbackToLocal bool, log *zap.SugaredLogger) *FallbackProvider {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &FallbackProvider{
		remote:          remote,
		local:           local,
		fallbackToLocal: fallbackToLocal,
		log:             log,
	}
}

// Mine implements Provider. Only transient failures of the remote Provider trigger the local search.
func (f *FallbackProvider) Mine(ctx context.Context, powData []byte, targetScore uint32) (uint64, error) {
	nonce, err := f.remote.Mine(ctx, powData, targetScore)
	if err == nil {
		return nonce, nil
	}
	if !f.fallbackToLocal || !clienterrors.IsTransient(err) || ctx.Err() != nil {
		return 0, errors.Errorf("remote PoW failed: %w", err)
	}

	f.log.Warnw("remote PoW unavailable, falling back to local PoW", "err", err)

	return f.local.Mine(ctx, powData, targetScore)
}

// code contract (make sure the struct implements all required methods).
var _ Provider = &FallbackProvider{}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

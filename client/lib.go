// Package client implements a wrapper for the REST API of a stardust node: the core API and the indexer.
package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
	"github.com/cockroachdb/errors"
	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

const (
	// MIMEApplicationVendorIOTASerializerV1 is the content type of binary encoded blocks.
	MIMEApplicationVendorIOTASerializerV1 = "application/vnd.iota.serializer-v1"

	contentTypeJSON = "application/json"

	// DefaultTimeout is the timeout of a single request if no other timeout was configured.
	DefaultTimeout = 30 * time.Second

	// DefaultInfoCacheTTL is how long the node info (and its protocol parameters) is cached.
	DefaultInfoCacheTTL = time.Minute
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// region NodeAPI //////////////////////////////////////////////////////////////////////////////////////////////////////

// NodeAPI is an API wrapper over the REST API of a node.
type NodeAPI struct {
	baseURL      string
	client       *resty.Client
	limiter      *rate.Limiter
	infoCache    *ttlcache.Cache
	infoCacheTTL time.Duration
	log          *zap.SugaredLogger
}

// NewNodeAPI returns a new NodeAPI for the node reachable at baseURL.
func NewNodeAPI(baseURL string, options ...Option) *NodeAPI {
	api := &NodeAPI{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		client:       resty.New(),
		infoCacheTTL: DefaultInfoCacheTTL,
		log:          zap.NewNop().Sugar(),
	}
	api.client.SetHostURL(api.baseURL)
	api.client.SetTimeout(DefaultTimeout)
	api.client.JSONMarshal = json.Marshal
	api.client.JSONUnmarshal = json.Unmarshal

	for _, option := range options {
		option(api)
	}

	api.infoCache = ttlcache.NewCache()
	api.infoCache.SkipTTLExtensionOnHit(true)
	_ = api.infoCache.SetTTL(api.infoCacheTTL)

	return api
}

// BaseURL returns the baseURL of the API.
func (api *NodeAPI) BaseURL() string {
	return api.baseURL
}

// HTTPClient returns the http.Client that performs the requests.
func (api *NodeAPI) HTTPClient() *http.Client {
	return api.client.GetClient()
}

// Close releases the resources of the info cache.
func (api *NodeAPI) Close() error {
	return api.infoCache.Close()
}

// request prepares a request that waits for the rate limiter and carries the context.
func (api *NodeAPI) request(ctx context.Context) (*resty.Request, error) {
	if api.limiter != nil {
		if err := api.limiter.Wait(ctx); err != nil {
			return nil, errors.Errorf("failed to wait for rate limiter: %w", err)
		}
	}

	return api.client.R().SetContext(ctx), nil
}

// get performs a GET request and decodes the JSON response into resObj.
func (api *NodeAPI) get(ctx context.Context, route string, queryParams map[string]string, resObj interface{}) error {
	req, err := api.request(ctx)
	if err != nil {
		return err
	}

	res, err := req.SetQueryParams(queryParams).SetHeader("Accept", contentTypeJSON).SetResult(resObj).Get(route)

	return InterpretResponse(route, res, err)
}

// getBytes performs a GET request for the binary representation of an entity.
func (api *NodeAPI) getBytes(ctx context.Context, route string) ([]byte, error) {
	req, err := api.request(ctx)
	if err != nil {
		return nil, err
	}

	res, err := req.SetHeader("Accept", MIMEApplicationVendorIOTASerializerV1).Get(route)
	if err = InterpretResponse(route, res, err); err != nil {
		return nil, err
	}

	return res.Body(), nil
}

func replaceParam(route, param, value string) string {
	return strings.Replace(route, param, value, 1)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region InterpretResponse ////////////////////////////////////////////////////////////////////////////////////////////

// InterpretResponse turns the outcome of a resty request into an error of the clienterrors taxonomy. Transport failures
// become NodeErrors without status code, unsuccessful status codes carry the message of the node. Canceled contexts
// are returned as they are.
func InterpretResponse(route string, res *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return errors.Errorf("request to %s aborted: %w", route, err)
		}

		return &clienterrors.NodeError{Route: route, Message: err.Error()}
	}

	if !res.IsError() {
		return nil
	}

	message := jsoniter.Get(res.Body(), "error", "message").ToString()
	if message == "" {
		message = strings.TrimSpace(string(res.Body()))
	}
	if message == "" {
		message = res.Status()
	}

	return &clienterrors.NodeError{StatusCode: res.StatusCode(), Route: route, Message: message}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Options //////////////////////////////////////////////////////////////////////////////////////////////////////

// Option is a function setting an option of the NodeAPI.
type Option func(*NodeAPI)

// WithTimeout sets the timeout of a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(api *NodeAPI) {
		api.client.SetTimeout(timeout)
	}
}

// WithRateLimit limits the requests per second sent to the node. A non-positive limit disables the limiter.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(api *NodeAPI) {
		if requestsPerSecond <= 0 {
			api.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		api.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithInfoCacheTTL sets how long the node info is cached.
func WithInfoCacheTTL(ttl time.Duration) Option {
	return func(api *NodeAPI) {
		api.infoCacheTTL = ttl
	}
}

// WithBasicAuth authenticates every request with the given credentials.
func WithBasicAuth(username, password string) Option {
	return func(api *NodeAPI) {
		api.client.SetBasicAuth(username, password)
	}
}

// WithJWT authenticates every request with the given JSON web token.
func WithJWT(token string) Option {
	return func(api *NodeAPI) {
		api.client.SetAuthToken(token)
	}
}

// WithLogger sets the logger of the NodeAPI.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(api *NodeAPI) {
		api.log = log
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

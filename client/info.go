package client

import (
	"context"
	"net/http"

	"github.com/ReneKroon/ttlcache/v2"
	"github.com/cockroachdb/errors"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
	"github.com/iotaledger/stardust-client/packages/jsonmodels"
	"github.com/iotaledger/stardust-client/packages/tangle"
)

const (
	routeHealth = "/health"
	routeInfo   = "/api/core/v2/info"
	routeTips   = "/api/core/v2/tips"

	infoCacheKey = "info"
)

// Health returns true if the node reports itself as healthy. An unhealthy node is not an error.
func (api *NodeAPI) Health(ctx context.Context) (bool, error) {
	req, err := api.request(ctx)
	if err != nil {
		return false, err
	}

	res, err := req.Get(routeHealth)
	if err == nil && res.StatusCode() == http.StatusServiceUnavailable {
		return false, nil
	}
	if err = InterpretResponse(routeHealth, res, err); err != nil {
		return false, err
	}

	return true, nil
}

// Info gets the info of the node. The response is cached for the configured info cache TTL.
func (api *NodeAPI) Info(ctx context.Context) (*jsonmodels.InfoResponse, error) {
	if cached, err := api.infoCache.Get(infoCacheKey); err == nil {
		return cached.(*jsonmodels.InfoResponse), nil
	} else if !errors.Is(err, ttlcache.ErrNotFound) {
		api.log.Warnw("failed to read info cache", "err", err)
	}

	res := &jsonmodels.InfoResponse{}
	if err := api.get(ctx, routeInfo, nil, res); err != nil {
		return nil, err
	}

	if err := api.infoCache.Set(infoCacheKey, res); err != nil {
		api.log.Warnw("failed to cache info", "err", err)
	}

	return res, nil
}

// RefreshInfo drops the cached node info and fetches it again.
func (api *NodeAPI) RefreshInfo(ctx context.Context) (*jsonmodels.InfoResponse, error) {
	if err := api.infoCache.Remove(infoCacheKey); err != nil && !errors.Is(err, ttlcache.ErrNotFound) {
		api.log.Warnw("failed to invalidate info cache", "err", err)
	}

	return api.Info(ctx)
}

// ProtocolParameters returns the current protocol parameters of the network the node is part of.
func (api *NodeAPI) ProtocolParameters(ctx context.Context) (*jsonmodels.ProtocolParameters, error) {
	info, err := api.Info(ctx)
	if err != nil {
		return nil, err
	}

	return &info.Protocol, nil
}

// Tips returns the blocks the node recommends as parents for a new block.
func (api *NodeAPI) Tips(ctx context.Context) (tangle.BlockIDs, error) {
	res := &jsonmodels.TipsResponse{}
	if err := api.get(ctx, routeTips, nil, res); err != nil {
		return nil, err
	}

	tips, err := res.ToBlockIDs()
	if err != nil {
		return nil, errors.Errorf("node returned invalid tips: %w", err)
	}
	if len(tips) == 0 {
		return nil, &clienterrors.NodeError{StatusCode: http.StatusOK, Route: routeTips, Message: "no tips available"}
	}

	return tips, nil
}

package client

import (
	"context"
	"strconv"

	"github.com/iotaledger/stardust-client/packages/jsonmodels"
)

const (
	routeMilestone                = "/api/core/v2/milestones/{milestoneId}"
	routeMilestoneByIndex         = "/api/core/v2/milestones/by-index/{index}"
	routeMilestoneUTXOChanges     = "/api/core/v2/milestones/{milestoneId}/utxo-changes"
	routeMilestoneUTXOChangesByIx = "/api/core/v2/milestones/by-index/{index}/utxo-changes"
	routeReceipts                 = "/api/core/v2/receipts"
	routeReceiptsByMigratedAt     = "/api/core/v2/receipts/{index}"
)

// Milestone gets the milestone with the given 0x-prefixed id.
func (api *NodeAPI) Milestone(ctx context.Context, milestoneID string) (*jsonmodels.Milestone, error) {
	res := &jsonmodels.Milestone{}
	if err := api.get(ctx, replaceParam(routeMilestone, "{milestoneId}", milestoneID), nil, res); err != nil {
		return nil, err
	}

	return res, nil
}

// MilestoneByIndex gets the milestone with the given index.
func (api *NodeAPI) MilestoneByIndex(ctx context.Context, index uint32) (*jsonmodels.Milestone, error) {
	res := &jsonmodels.Milestone{}
	if err := api.get(ctx, indexRoute(routeMilestoneByIndex, index), nil, res); err != nil {
		return nil, err
	}

	return res, nil
}

// UTXOChanges gets the outputs created and consumed by the milestone with the given id.
func (api *NodeAPI) UTXOChanges(ctx context.Context, milestoneID string) (*jsonmodels.UTXOChanges, error) {
	res := &jsonmodels.UTXOChanges{}
	if err := api.get(ctx, replaceParam(routeMilestoneUTXOChanges, "{milestoneId}", milestoneID), nil, res); err != nil {
		return nil, err
	}

	return res, nil
}

// UTXOChangesByIndex gets the outputs created and consumed by the milestone with the given index.
func (api *NodeAPI) UTXOChangesByIndex(ctx context.Context, index uint32) (*jsonmodels.UTXOChanges, error) {
	res := &jsonmodels.UTXOChanges{}
	if err := api.get(ctx, indexRoute(routeMilestoneUTXOChangesByIx, index), nil, res); err != nil {
		return nil, err
	}

	return res, nil
}

// Receipts gets all migration receipts known to the node.
func (api *NodeAPI) Receipts(ctx context.Context) ([]*jsonmodels.Receipt, error) {
	res := &jsonmodels.ReceiptsResponse{}
	if err := api.get(ctx, routeReceipts, nil, res); err != nil {
		return nil, err
	}

	return res.Receipts, nil
}

// ReceiptsByMigratedAt gets the migration receipts of the milestone with the given index.
func (api *NodeAPI) ReceiptsByMigratedAt(ctx context.Context, index uint32) ([]*jsonmodels.Receipt, error) {
	res := &jsonmodels.ReceiptsResponse{}
	if err := api.get(ctx, indexRoute(routeReceiptsByMigratedAt, index), nil, res); err != nil {
		return nil, err
	}

	return res.Receipts, nil
}

func indexRoute(route string, index uint32) string {
	return replaceParam(route, "{index}", strconv.FormatUint(uint64(index), 10))
}

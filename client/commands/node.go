package commands

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"github.com/iotaledger/stardust-client/packages/clienterrors"
)

func (d *Dispatcher) getInfo(ctx context.Context, _ jsoniter.RawMessage) (string, interface{}, error) {
	if d.infoProvider == nil {
		return "", nil, clienterrors.Validationf("no node info available")
	}

	info, err := d.infoProvider.Info(ctx)
	if err != nil {
		return "", nil, err
	}

	return "info", info, nil
}

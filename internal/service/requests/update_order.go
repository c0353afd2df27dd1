package requests

import (
	"github.com/Swapica/order-proxy-svc/internal/data"
)

type UpdateOrderAttributes struct {
	State string `json:"state"`
	// settlement details, empty for reclaimed orders
	Executor     *string `json:"executor,omitempty"`
	Shape        *string `json:"shape,omitempty"`
	Delivered    *string `json:"delivered,omitempty"`
	Compensation *string `json:"compensation,omitempty"`
}

type UpdateOrder struct {
	Key
	Attributes UpdateOrderAttributes `json:"attributes"`
}

type UpdateOrderRequest struct {
	Data UpdateOrder `json:"data"`
	Meta Meta        `json:"meta"`
}

func NewUpdateOrder(row data.SettlementRow, meta Meta) UpdateOrderRequest {
	attrs := UpdateOrderAttributes{State: row.State}
	if row.Executor != "" {
		attrs.Executor = &row.Executor
		attrs.Shape = &row.Shape
		attrs.Delivered = &row.Delivered
		attrs.Compensation = &row.Compensation
	}

	return UpdateOrderRequest{
		Data: UpdateOrder{
			Key:        OrderKey(row.Run, row.OrderID),
			Attributes: attrs,
		},
		Meta: meta,
	}
}

package requests

import (
	"github.com/Swapica/order-proxy-svc/internal/data"
)

type AddOrderAttributes struct {
	SrcToken        string `json:"src_token"`
	DstToken        string `json:"dst_token"`
	SrcAmount       string `json:"src_amount"`
	MinReturnAmount string `json:"min_return_amount"`
	Compensation    string `json:"compensation"`
	Policy          string `json:"policy"`
	Beneficiary     string `json:"beneficiary"`
	CreatedAt       uint64 `json:"created_at"`
	Expiration      uint64 `json:"expiration"`
	State           string `json:"state"`
}

type AddOrder struct {
	Key
	Attributes AddOrderAttributes `json:"attributes"`
}

type AddOrderRequest struct {
	Data AddOrder `json:"data"`
	Meta Meta     `json:"meta"`
}

func NewAddOrder(o data.Order, policy string, meta Meta) AddOrderRequest {
	return AddOrderRequest{
		Data: AddOrder{
			Key: OrderKey(meta.Run, int64(o.ID)),
			Attributes: AddOrderAttributes{
				SrcToken:        o.SrcToken.Hex(),
				DstToken:        o.DstToken.Hex(),
				SrcAmount:       o.SrcAmount.Dec(),
				MinReturnAmount: o.MinReturnAmount.Dec(),
				Compensation:    o.Compensation.Dec(),
				Policy:          policy,
				Beneficiary:     o.Beneficiary.Hex(),
				CreatedAt:       o.CreatedAt,
				Expiration:      o.Expiration,
				State:           o.State.String(),
			},
		},
		Meta: meta,
	}
}

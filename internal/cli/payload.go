package cli

import (
	"encoding/json"
	"io"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type terms struct {
	Shape     string  `json:"shape"`
	Selector  string  `json:"selector"`
	SrcToken  string  `json:"src_token"`
	DstToken  string  `json:"dst_token"`
	Receiver  *string `json:"receiver"`
	SrcAmount *string `json:"src_amount"`
	MinReturn string  `json:"min_return"`
}

func decodePayload(out io.Writer, raw, wrappedNative string) error {
	payload, err := hexutil.Decode(raw)
	if err != nil {
		return errors.Wrap(err, "payload is not 0x prefixed hex")
	}

	var opts []calldata.Option
	if wrappedNative != "" {
		if !common.IsHexAddress(wrappedNative) {
			return errors.From(errors.New("wrapped native is not an address"), logan.F{
				"wrapped_native": wrappedNative,
			})
		}
		opts = append(opts, calldata.WithWrappedNative(common.HexToAddress(wrappedNative)))
	}

	resolver := asset.NewResolver(asset.NativeSentinel, common.Address{})
	t, err := calldata.NewDecoder(resolver, opts...).Decode(payload)
	if err != nil {
		return err
	}

	res := terms{
		Shape:     t.Shape,
		Selector:  hexutil.Encode(t.Selector[:]),
		SrcToken:  t.SrcToken.Hex(),
		DstToken:  t.DstToken.Hex(),
		MinReturn: t.MinReturn.Dec(),
	}
	if t.Receiver != nil {
		receiver := t.Receiver.Hex()
		res.Receiver = &receiver
	}
	if t.SrcAmount != nil {
		amount := t.SrcAmount.Dec()
		res.SrcAmount = &amount
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(res), "failed to print terms")
}

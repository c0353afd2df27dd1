package config

import (
	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Ledger seeds the sandbox ledger: who holds what at start and the rates
// the simulated exchange fills at.
type Ledger struct {
	Genesis []Allocation
	Rates   []Rate
}

// Allocation credits Amount of Token to Owner. A zero or native token means
// the native coin.
type Allocation struct {
	Owner  common.Address
	Token  common.Address
	Amount *uint256.Int
}

type Rate struct {
	Src common.Address
	Dst common.Address
	Num *uint256.Int
	Den *uint256.Int
}

func (c *config) Ledger() Ledger {
	return c.ledgerOnce.Do(func() interface{} {
		raw := c.optional("ledger")
		var res Ledger

		for i, item := range entries(raw, "genesis") {
			var cfg struct {
				Owner  common.Address `fig:"owner,required"`
				Token  common.Address `fig:"token"`
				Amount string         `fig:"amount,required"`
			}
			figureEntry(&cfg, item, "genesis", i)

			amount, err := asset.Parse(cfg.Amount)
			if err != nil {
				panic(errors.Wrap(err, "failed to parse genesis amount", logan.F{"entry": i}))
			}
			res.Genesis = append(res.Genesis, Allocation{Owner: cfg.Owner, Token: cfg.Token, Amount: amount})
		}

		for i, item := range entries(raw, "rates") {
			var cfg struct {
				Src common.Address `fig:"src,required"`
				Dst common.Address `fig:"dst,required"`
				Num string         `fig:"num,required"`
				Den string         `fig:"den"`
			}
			figureEntry(&cfg, item, "rates", i)
			if cfg.Den == "" {
				cfg.Den = "1"
			}

			num, err := asset.Parse(cfg.Num)
			if err != nil {
				panic(errors.Wrap(err, "failed to parse rate numerator", logan.F{"entry": i}))
			}
			den, err := asset.Parse(cfg.Den)
			if err != nil || den.IsZero() {
				panic(errors.From(errors.New("rate denominator must be a positive integer"), logan.F{"entry": i}))
			}
			res.Rates = append(res.Rates, Rate{Src: cfg.Src, Dst: cfg.Dst, Num: num, Den: den})
		}

		return res
	}).(Ledger)
}

func entries(section map[string]interface{}, key string) []map[string]interface{} {
	v, ok := section[key]
	if !ok || v == nil {
		return nil
	}
	list, err := cast.ToSliceE(v)
	if err != nil {
		panic(errors.Wrap(err, "config value is not a list", logan.F{"key": key}))
	}

	res := make([]map[string]interface{}, 0, len(list))
	for i, item := range list {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			panic(errors.Wrap(err, "list entry is not a map", logan.F{"key": key, "entry": i}))
		}
		res = append(res, m)
	}
	return res
}

func figureEntry(target interface{}, raw map[string]interface{}, key string, i int) {
	err := figure.Out(target).
		With(figure.EthereumHooks).
		From(raw).
		Please()
	if err != nil {
		panic(errors.Wrap(err, "failed to figure out ledger entry", logan.F{"key": key, "entry": i}))
	}
}

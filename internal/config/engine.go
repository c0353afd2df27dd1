package config

import (
	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	PolicyFixedReward = "fixed_reward"
	PolicyGasCapped   = "gas_capped"

	defaultGasOverhead uint64 = 30000
)

type Engine struct {
	Address       common.Address
	Exchange      common.Address
	WrappedNative common.Address
	// NativeAliases are extra addresses treated as the native coin, besides
	// asset.NativeSentinel.
	NativeAliases   []common.Address
	Policy          string
	MinCompensation *uint256.Int
	GasOverhead     uint64
	// GasPrice is a fixed reference price for the gas capped policy, used
	// when no network is configured.
	GasPrice *uint256.Int
}

func (c *config) Engine() Engine {
	return c.engineOnce.Do(func() interface{} {
		var cfg struct {
			Address         common.Address `fig:"address,required"`
			Exchange        common.Address `fig:"exchange,required"`
			WrappedNative   common.Address `fig:"wrapped_native,required"`
			NativeAliases   []string       `fig:"native_aliases"`
			Policy          string         `fig:"policy"`
			MinCompensation string         `fig:"min_compensation"`
			GasOverhead     uint64         `fig:"gas_overhead"`
			GasPrice        string         `fig:"gas_price"`
		}
		err := figure.Out(&cfg).
			With(figure.EthereumHooks).
			From(kv.MustGetStringMap(c.getter, "engine")).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out engine"))
		}

		res := Engine{
			Address:       cfg.Address,
			Exchange:      cfg.Exchange,
			WrappedNative: cfg.WrappedNative,
			Policy:        cfg.Policy,
			GasOverhead:   cfg.GasOverhead,
		}
		if res.Policy == "" {
			res.Policy = PolicyFixedReward
		}
		if res.Policy != PolicyFixedReward && res.Policy != PolicyGasCapped {
			panic(errors.From(errors.New("unknown compensation policy"), logan.F{"policy": res.Policy}))
		}
		if res.GasOverhead == 0 {
			res.GasOverhead = defaultGasOverhead
		}

		for _, alias := range cfg.NativeAliases {
			if !common.IsHexAddress(alias) {
				panic(errors.From(errors.New("native alias is not an address"), logan.F{"alias": alias}))
			}
			res.NativeAliases = append(res.NativeAliases, common.HexToAddress(alias))
		}
		if res.MinCompensation, err = optionalAmount(cfg.MinCompensation); err != nil {
			panic(errors.Wrap(err, "failed to parse min_compensation"))
		}
		if res.GasPrice, err = optionalAmount(cfg.GasPrice); err != nil {
			panic(errors.Wrap(err, "failed to parse gas_price"))
		}

		return res
	}).(Engine)
}

func optionalAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	return asset.Parse(s)
}

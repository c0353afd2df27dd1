package config

import (
	"time"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/oracle"
	"github.com/ethereum/go-ethereum/ethclient"
	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Network is the RPC node used as the gas price reference.
type Network struct {
	GasPricer      oracle.GasPricer
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 10 * time.Second

func (c *config) Network() *Network {
	return c.networkOnce.Do(func() interface{} {
		raw := c.optional("network")
		if raw == nil {
			return (*Network)(nil)
		}

		var cfg struct {
			RPC            string        `fig:"rpc,required"`
			RequestTimeout time.Duration `fig:"request_timeout"`
			MaxGasPrice    string        `fig:"max_gas_price"`
		}
		err := figure.Out(&cfg).
			With(figure.EthereumHooks).
			From(raw).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out network"))
		}

		cli, err := ethclient.Dial(cfg.RPC)
		if err != nil {
			panic(errors.Wrap(err, "failed to connect to RPC provider"))
		}
		if cfg.RequestTimeout == 0 {
			cfg.RequestTimeout = defaultRequestTimeout
		}

		var pricer oracle.GasPricer = oracle.NewNode(cli, cfg.RequestTimeout)
		if cfg.MaxGasPrice != "" {
			max, err := asset.Parse(cfg.MaxGasPrice)
			if err != nil {
				panic(errors.Wrap(err, "failed to parse max_gas_price"))
			}
			pricer = oracle.Capped{GasPricer: pricer, Max: max}
		}

		return &Network{
			GasPricer:      pricer,
			RequestTimeout: cfg.RequestTimeout,
		}
	}).(*Network)
}

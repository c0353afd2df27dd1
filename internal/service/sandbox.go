package service

import (
	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/calldata"
	"github.com/Swapica/order-proxy-svc/internal/config"
	"github.com/Swapica/order-proxy-svc/internal/data/mem"
	"github.com/Swapica/order-proxy-svc/internal/exchange"
	"github.com/Swapica/order-proxy-svc/internal/ledger"
	"github.com/Swapica/order-proxy-svc/internal/oracle"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// sandbox is a self-contained ledger with the engine and a simulated exchange
// deployed on it.
type sandbox struct {
	ledger   *ledger.Ledger
	venue    *exchange.Exchange
	engine   *orderproxy.Engine
	resolver asset.Resolver
	decoder  *calldata.Decoder
}

func newSandbox(
	ec config.Engine, lc config.Ledger, network *config.Network, log *logan.Entry, opts ...orderproxy.Option,
) (*sandbox, error) {
	resolver := asset.NewResolver(asset.NativeSentinel, ec.NativeAliases...)
	decoder := calldata.NewDecoder(resolver, calldata.WithWrappedNative(ec.WrappedNative))

	l := ledger.New()
	venue := exchange.New(ec.Exchange, decoder, resolver, log)
	l.Deploy(ec.Exchange, venue)

	for _, rate := range lc.Rates {
		if err := venue.SetRate(rate.Src, rate.Dst, exchange.Rate{Num: rate.Num, Den: rate.Den}); err != nil {
			return nil, errors.Wrap(err, "failed to set exchange rate", logan.F{
				"src_token": rate.Src.Hex(),
				"dst_token": rate.Dst.Hex(),
			})
		}
	}
	for _, a := range lc.Genesis {
		if resolver.IsNative(a.Token) {
			l.Mint(a.Owner, a.Amount)
			continue
		}
		l.MintToken(a.Token, a.Owner, a.Amount)
	}

	policy, err := newPolicy(ec, network)
	if err != nil {
		return nil, err
	}

	engine, err := orderproxy.New(orderproxy.Config{
		Address:  ec.Address,
		Exchange: ec.Exchange,
		Resolver: resolver,
		Decoder:  decoder,
		Policy:   policy,
	}, l, mem.NewOrders(), log, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create engine")
	}

	return &sandbox{
		ledger:   l,
		venue:    venue,
		engine:   engine,
		resolver: resolver,
		decoder:  decoder,
	}, nil
}

func newPolicy(ec config.Engine, network *config.Network) (orderproxy.CompensationPolicy, error) {
	if ec.Policy != config.PolicyGasCapped {
		return orderproxy.FixedReward{Min: ec.MinCompensation}, nil
	}

	var pricer oracle.GasPricer
	switch {
	case network != nil:
		pricer = network.GasPricer
	case ec.GasPrice != nil:
		pricer = oracle.Static{Price: ec.GasPrice}
	default:
		return nil, errors.New("gas capped policy needs either a network or a static gas_price")
	}
	return orderproxy.GasCapped{Oracle: pricer, Overhead: ec.GasOverhead, Min: ec.MinCompensation}, nil
}

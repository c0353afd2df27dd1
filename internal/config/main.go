package config

import (
	"gitlab.com/distributed_lab/kit/comfig"
	"gitlab.com/distributed_lab/kit/kv"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type Config interface {
	comfig.Logger
	pgdb.Databaser
	comfig.Listenerer

	Engine() Engine
	Ledger() Ledger
	// Network is nil when no RPC node is configured.
	Network() *Network
	// Collector is nil when events are not forwarded anywhere.
	Collector() *Collector
	Publisher() Publisher
	Metrics() Metrics
}

type config struct {
	comfig.Logger
	pgdb.Databaser
	comfig.Listenerer
	getter kv.Getter

	engineOnce    comfig.Once
	ledgerOnce    comfig.Once
	networkOnce   comfig.Once
	collectorOnce comfig.Once
	publisherOnce comfig.Once
	metricsOnce   comfig.Once
}

func New(getter kv.Getter) Config {
	return &config{
		getter:     getter,
		Databaser:  pgdb.NewDatabaser(getter),
		Listenerer: comfig.NewListenerer(getter),
		Logger:     comfig.NewLogger(getter, comfig.LoggerOpts{}),
	}
}

// optional returns the section under key, or nil when it is absent or empty.
func (c *config) optional(key string) map[string]interface{} {
	raw, err := c.getter.GetStringMap(key)
	if err != nil {
		panic(errors.Wrap(err, "failed to get config section", logan.F{"section": key}))
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}

package config

import (
	"time"

	"gitlab.com/distributed_lab/figure/v3"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	JournalMemory   = "memory"
	JournalPostgres = "postgres"
)

type Publisher struct {
	Disabled  bool
	Period    time.Duration
	BatchSize int
	Journal   string
	// Cursor prefixes the persisted position's name, so several sandboxes may
	// share one database. The ledger run id is appended to it.
	Cursor string
}

type Metrics struct {
	Disabled  bool   `fig:"disabled"`
	Namespace string `fig:"namespace"`
}

func (c *config) Publisher() Publisher {
	return c.publisherOnce.Do(func() interface{} {
		cfg := Publisher{
			Period:    5 * time.Second,
			BatchSize: 100,
			Journal:   JournalMemory,
			Cursor:    "order-proxy",
		}
		if raw := c.optional("publisher"); raw != nil {
			var fig struct {
				Disabled  bool          `fig:"disabled"`
				Period    time.Duration `fig:"period"`
				BatchSize int           `fig:"batch_size"`
				Journal   string        `fig:"journal"`
				Cursor    string        `fig:"cursor"`
			}
			if err := figure.Out(&fig).From(raw).Please(); err != nil {
				panic(errors.Wrap(err, "failed to figure out publisher"))
			}

			cfg.Disabled = fig.Disabled
			if fig.Period != 0 {
				cfg.Period = fig.Period
			}
			if fig.BatchSize > 0 {
				cfg.BatchSize = fig.BatchSize
			}
			if fig.Journal != "" {
				cfg.Journal = fig.Journal
			}
			if fig.Cursor != "" {
				cfg.Cursor = fig.Cursor
			}
		}

		if cfg.Journal != JournalMemory && cfg.Journal != JournalPostgres {
			panic(errors.From(errors.New("unknown journal"), logan.F{"journal": cfg.Journal}))
		}
		return cfg
	}).(Publisher)
}

func (c *config) Metrics() Metrics {
	return c.metricsOnce.Do(func() interface{} {
		var cfg Metrics
		if raw := c.optional("metrics"); raw != nil {
			if err := figure.Out(&cfg).From(raw).Please(); err != nil {
				panic(errors.Wrap(err, "failed to figure out metrics"))
			}
		}
		return cfg
	}).(Metrics)
}

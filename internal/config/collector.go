package config

import (
	"net/http"
	"net/url"
	"time"

	"gitlab.com/distributed_lab/figure/v3"
	jsonapi "gitlab.com/distributed_lab/json-api-connector"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/tokend/connectors/signed"
)

const (
	defaultOrdersPath = "/orders"
	defaultCursorPath = "/cursor"
)

// Collector is the JSON:API service order events are forwarded to. Orders and
// Cursor are resolved against the connector's base endpoint.
type Collector struct {
	*jsonapi.Connector
	Orders *url.URL
	Cursor *url.URL
}

func (c *config) Collector() *Collector {
	return c.collectorOnce.Do(func() interface{} {
		raw := c.optional("collector")
		if raw == nil {
			return (*Collector)(nil)
		}

		cfg := struct {
			Endpoint       *url.URL      `fig:"endpoint,required"`
			RequestTimeout time.Duration `fig:"request_timeout"`
			OrdersPath     string        `fig:"orders_path"`
			CursorPath     string        `fig:"cursor_path"`
		}{
			RequestTimeout: defaultRequestTimeout,
			OrdersPath:     defaultOrdersPath,
			CursorPath:     defaultCursorPath,
		}
		err := figure.Out(&cfg).
			From(raw).
			Please()
		if err != nil {
			panic(errors.Wrap(err, "failed to figure out collector"))
		}

		client := signed.NewClient(&http.Client{Timeout: cfg.RequestTimeout}, cfg.Endpoint)
		return &Collector{
			Connector: jsonapi.NewConnector(client),
			Orders:    mustPath(cfg.OrdersPath),
			Cursor:    mustPath(cfg.CursorPath),
		}
	}).(*Collector)
}

func mustPath(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		panic(errors.From(errors.New("collector path must be relative"), logan.F{"path": raw}))
	}
	return u
}

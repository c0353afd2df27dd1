package service

import (
	"context"
	"net/http"
	"time"

	"github.com/Swapica/order-proxy-svc/internal/config"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/data/mem"
	"github.com/Swapica/order-proxy-svc/internal/data/postgres"
	"github.com/Swapica/order-proxy-svc/internal/metrics"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/google/uuid"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
	"gitlab.com/distributed_lab/running"
)

type service struct {
	log       *logan.Entry
	cfg       config.Config
	api       *api
	publisher *publisher
	period    time.Duration
}

func (s *service) run() error {
	s.log.Info("Service started")
	if s.publisher != nil {
		go running.WithBackOff(context.Background(), s.log, "publisher", s.publisher.publish,
			s.period, s.period, time.Minute)
	}

	err := http.Serve(s.cfg.Listener(), s.api.router())
	return errors.Wrap(err, "server stopped")
}

func newService(cfg config.Config) *service {
	log := cfg.Log()
	ec := cfg.Engine()

	m := metrics.New(cfg.Metrics().Namespace)
	sb, err := newSandbox(ec, cfg.Ledger(), cfg.Network(), log, orderproxy.WithObserver(m))
	if err != nil {
		panic(errors.Wrap(err, "failed to build sandbox"))
	}

	s := &service{
		log: log,
		cfg: cfg,
		api: &api{
			log:      log.WithField("component", "api"),
			engine:   sb.engine,
			ledger:   sb.ledger,
			resolver: sb.resolver,
			shapes:   sb.decoder.Shapes(),
		},
	}
	if !cfg.Metrics().Disabled {
		s.api.metrics = m
	}

	pc := cfg.Publisher()
	if pc.Disabled {
		return s
	}

	run := sb.ledger.ID().String()
	journal, cursor := newJournal(cfg, pc, run)
	p := &publisher{
		log:       log.WithFields(logan.F{"component": "publisher", "run": run}),
		source:    sb.ledger,
		journal:   journal,
		cursor:    cursor,
		custody:   sb.engine,
		recorder:  m,
		batch:     pc.BatchSize,
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte("order-proxy:"+ec.Address.Hex())),
	}
	if c := cfg.Collector(); c != nil {
		p.collector, p.ordersURL, p.cursorURL = c.Connector, c.Orders, c.Cursor
	}
	s.publisher, s.period = p, pc.Period
	return s
}

// newJournal names the cursor after the ledger run: sequence numbers restart
// with every fresh ledger, so a position saved by an earlier run is meaningless.
func newJournal(cfg config.Config, pc config.Publisher, run string) (data.Journal, data.Cursor) {
	name := pc.Cursor + "/" + run
	if pc.Journal == config.JournalMemory {
		j := mem.NewJournal()
		return j, j.Cursor(name)
	}

	cursor, err := postgres.NewCursor(cfg.DB(), name)
	if err != nil {
		panic(errors.Wrap(err, "failed to instantiate publish cursor DB API"))
	}
	return postgres.NewJournal(cfg.DB()), cursor
}

func Run(cfg config.Config) {
	if err := newService(cfg).run(); err != nil {
		panic(err)
	}
}

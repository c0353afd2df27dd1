package service

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/data/mem"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/Swapica/order-proxy-svc/internal/service/requests"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3"
)

type call struct {
	method string
	path   string
	body   interface{}
}

type fakeCollector struct {
	mu    sync.Mutex
	calls []call
}

func (c *fakeCollector) PostJSON(endpoint *url.URL, body interface{}, _ context.Context, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{method: "POST", path: endpoint.Path, body: body})
	return nil
}

func (c *fakeCollector) PatchJSON(endpoint *url.URL, body interface{}, _ context.Context, _ interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{method: "PATCH", path: endpoint.Path, body: body})
	return nil
}

func (f *fixture) run() string { return f.sandbox.ledger.ID().String() }

func (f *fixture) rowKey(id int64) data.RowKey { return data.RowKey{Run: f.run(), ID: id} }

func newPublisher(f *fixture, journal *mem.Journal, c collector) *publisher {
	p := &publisher{
		log:       logan.New(),
		source:    f.sandbox.ledger,
		journal:   journal,
		cursor:    journal.Cursor("test/" + f.run()),
		custody:   f.sandbox.engine,
		recorder:  f.metrics,
		batch:     100,
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte("test")),
	}
	if c != nil {
		p.collector = c
		p.ordersURL = &url.URL{Path: "/orders"}
		p.cursorURL = &url.URL{Path: "/cursor"}
	}
	return p
}

func TestPublishMirrorsCommittedEvents(t *testing.T) {
	f := newFixture(t)
	f.nativeOrder()
	_, err := f.sandbox.engine.Execute(context.Background(), orderproxy.ExecuteRequest{
		Executor: bob,
		ID:       0,
		Payload:  f.routerPayload(alice),
	})
	require.NoError(t, err)

	journal := mem.NewJournal()
	c := &fakeCollector{}
	p := newPublisher(f, journal, c)
	require.NoError(t, p.publish(context.Background()))

	require.Contains(t, journal.Orders, f.rowKey(0))
	assert.Equal(t, "executed", journal.Orders[f.rowKey(0)].State)
	assert.Equal(t, orderproxy.PolicyFixedReward, journal.Orders[f.rowKey(0)].Policy)

	settled := journal.Settlements[f.rowKey(0)]
	assert.Equal(t, bob.Hex(), settled.Executor)
	assert.Equal(t, asset.Ether("1200").Dec(), settled.Delivered)

	cursor, err := p.cursor.Get()
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, uint64(len(f.sandbox.ledger.Logs(0, 0))), *cursor)

	require.Len(t, c.calls, 3)
	assert.Equal(t, "POST", c.calls[0].method)
	assert.Equal(t, "/orders", c.calls[0].path)
	assert.Equal(t, "PATCH", c.calls[1].method)
	assert.Equal(t, "/cursor", c.calls[2].path)

	added, ok := c.calls[0].body.(requests.AddOrderRequest)
	require.True(t, ok)
	assert.NotEmpty(t, added.Meta.EventID)
	assert.Equal(t, f.run(), added.Meta.Run)
	assert.Equal(t, f.run()+":0", added.Data.ID)

	series, err := testutil.GatherAndCount(f.metrics.Registry(), "test_events_published_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "one series per published event name")
}

func TestPublishResumesFromCursor(t *testing.T) {
	f := newFixture(t)
	f.nativeOrder()

	journal := mem.NewJournal()
	c := &fakeCollector{}
	p := newPublisher(f, journal, c)
	require.NoError(t, p.publish(context.Background()))
	require.Len(t, c.calls, 2)

	// nothing new was committed
	require.NoError(t, p.publish(context.Background()))
	assert.Len(t, c.calls, 2)

	f.nativeOrder()
	require.NoError(t, p.publish(context.Background()))
	assert.Len(t, c.calls, 4)
	assert.Len(t, journal.Orders, 2)
}

func TestPublishWithoutCollector(t *testing.T) {
	f := newFixture(t)
	f.nativeOrder()

	journal := mem.NewJournal()
	require.NoError(t, newPublisher(f, journal, nil).publish(context.Background()))
	assert.Len(t, journal.Orders, 1)
	assert.Equal(t, "pending", journal.Orders[f.rowKey(0)].State)
}

func TestEventIDsAreStable(t *testing.T) {
	f := newFixture(t)
	f.nativeOrder()

	ids := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		c := &fakeCollector{}
		require.NoError(t, newPublisher(f, mem.NewJournal(), c).publish(context.Background()))
		ids = append(ids, c.calls[0].body.(requests.AddOrderRequest).Meta.EventID)
	}
	assert.Equal(t, ids[0], ids[1])
}

func TestPublishAfterRestartStartsFreshRun(t *testing.T) {
	journal := mem.NewJournal()

	before := newFixture(t)
	before.nativeOrder()
	beforeCollector := &fakeCollector{}
	first := newPublisher(before, journal, beforeCollector)
	require.NoError(t, first.publish(context.Background()))
	saved, err := first.cursor.Get()
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Greater(t, *saved, uint64(0))

	// a restarted process gets a fresh ledger whose order ids and log
	// sequence numbers start from zero again
	after := newFixture(t)
	after.nativeOrder()
	afterCollector := &fakeCollector{}
	second := newPublisher(after, journal, afterCollector)
	require.NoError(t, second.publish(context.Background()))

	require.Len(t, journal.Orders, 2)
	assert.Equal(t, "pending", journal.Orders[before.rowKey(0)].State)
	assert.Equal(t, "pending", journal.Orders[after.rowKey(0)].State)

	resumed, err := second.cursor.Get()
	require.NoError(t, err)
	require.NotNil(t, resumed)
	assert.Equal(t, uint64(len(after.sandbox.ledger.Logs(0, 0))), *resumed)

	kept, err := first.cursor.Get()
	require.NoError(t, err)
	assert.Equal(t, *saved, *kept)

	require.Len(t, afterCollector.calls, 2)
	added := afterCollector.calls[0].body.(requests.AddOrderRequest)
	previous := beforeCollector.calls[0].body.(requests.AddOrderRequest)
	assert.NotEqual(t, previous.Data.ID, added.Data.ID)
	assert.NotEqual(t, previous.Meta.EventID, added.Meta.EventID)
	assert.Equal(t, after.run(), afterCollector.calls[1].body.(requests.UpdateCursorRequest).Data.ID)
}

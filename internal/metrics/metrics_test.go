package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/Swapica/order-proxy-svc/internal/orderproxy"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func TestObserverCounts(t *testing.T) {
	m := New("")

	m.Created(data.Order{})
	m.Created(data.Order{})
	m.Executed(data.Order{}, orderproxy.Receipt{Shape: "one_split.swap", GasUsed: 90000})
	m.Rejected("execute", errors.Wrap(orderproxy.ErrOrderExpired, "refused"))
	m.Rejected("execute", errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.created))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.pending))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.executed.WithLabelValues("one_split.swap")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejected.WithLabelValues("execute", "order_expired")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rejected.WithLabelValues("execute", "internal")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New("test")
	h := m.Middleware("orders")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/7", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("orders", http.MethodGet, "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_http_requests_total"))
}

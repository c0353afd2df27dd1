package orderproxy

import (
	"context"
	"testing"
	"time"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func TestReclaimNativeOrder(t *testing.T) {
	e := newEnv(t, fixedReward())
	o := e.nativeOrder()
	ctx := context.Background()

	_, err := e.engine.Reclaim(ctx, ReclaimRequest{Caller: alice, ID: o.ID})
	assert.Equal(t, ErrOrderNotExpired, errors.Cause(err))

	e.clock.Advance((period + 1) * time.Second)

	_, err = e.engine.Reclaim(ctx, ReclaimRequest{Caller: bob, ID: o.ID})
	assert.Equal(t, ErrNotDepositor, errors.Cause(err))
	_, err = e.engine.Reclaim(ctx, ReclaimRequest{Caller: engineAddr, ID: o.ID})
	assert.Equal(t, ErrReservedAccount, errors.Cause(err))

	reclaimed, err := e.engine.Reclaim(ctx, ReclaimRequest{Caller: alice, ID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, data.StateReclaimed, reclaimed.State)
	assert.Equal(t, asset.Ether("100"), e.ledger.NativeBalance(alice))
	assert.True(t, e.ledger.NativeBalance(engineAddr).IsZero())
	assert.Equal(t, []string{EventOrderCreated, EventOrderReclaimed}, e.logNames())
	assert.Equal(t, 1, e.observed.reclaimed)

	_, err = e.engine.Reclaim(ctx, ReclaimRequest{Caller: alice, ID: o.ID})
	assert.Equal(t, ErrOrderReclaimed, errors.Cause(err))

	_, err = e.execute(o.ID, e.routerPayload(swapDescription(o)))
	assert.Equal(t, ErrOrderReclaimed, errors.Cause(err))
}

func TestReclaimTokenOrder(t *testing.T) {
	e := newEnv(t, fixedReward())
	o := e.tokenOrder()
	e.clock.Advance((period + 1) * time.Second)

	_, err := e.engine.Reclaim(context.Background(), ReclaimRequest{Caller: alice, ID: o.ID})
	require.NoError(t, err)
	assert.Equal(t, asset.Ether("10"), e.ledger.TokenBalance(dai, alice))
	assert.Equal(t, asset.Ether("100"), e.ledger.NativeBalance(alice))

	c, err := e.engine.CheckCustody(context.Background())
	require.NoError(t, err)
	assert.Zero(t, c.Pending)
}

func TestReclaimExecutedOrder(t *testing.T) {
	e := newEnv(t, fixedReward())
	o := e.nativeOrder()
	_, err := e.execute(o.ID, e.routerPayload(swapDescription(o)))
	require.NoError(t, err)
	e.clock.Advance((period + 1) * time.Second)

	_, err = e.engine.Reclaim(context.Background(), ReclaimRequest{Caller: alice, ID: o.ID})
	assert.Equal(t, ErrOrderAlreadyExecuted, errors.Cause(err))

	_, err = e.engine.Reclaim(context.Background(), ReclaimRequest{Caller: alice, ID: 42})
	assert.Equal(t, ErrOrderNotFound, errors.Cause(err))
}

package orderproxy

import (
	"context"
	"testing"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/oracle"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const gwei = 1000000000

type brokenOracle struct{}

func (brokenOracle) GasPrice(context.Context) (*uint256.Int, error) {
	return nil, errors.New("node is down")
}

func TestGasCappedPaysMeteredCost(t *testing.T) {
	policy := GasCapped{Oracle: oracle.Static{Price: uint256.NewInt(gwei)}, Overhead: 10000}
	e := newEnv(t, policy)
	o := e.nativeOrder()

	receipt, err := e.execute(o.ID, e.routerPayload(swapDescription(o)))
	require.NoError(t, err)

	assert.False(t, receipt.Compensation.IsZero())
	assert.True(t, receipt.Compensation.Lt(o.Compensation))
	assert.Equal(t, o.Compensation, new(uint256.Int).Add(receipt.Compensation, receipt.Retained))
	assert.Equal(t, receipt.Compensation, e.ledger.NativeBalance(bob))
	assert.Equal(t, receipt.Retained, e.engine.Pool())
	assert.Equal(t, receipt.Retained, e.ledger.NativeBalance(engineAddr), "surplus stays with the engine")

	_, err = e.engine.CheckCustody(context.Background())
	assert.NoError(t, err)
}

func TestGasCappedNeverExceedsReserve(t *testing.T) {
	policy := GasCapped{Oracle: oracle.Static{Price: asset.Ether("1")}}
	e := newEnv(t, policy)
	o := e.nativeOrder()

	receipt, err := e.execute(o.ID, e.routerPayload(swapDescription(o)))
	require.NoError(t, err)

	assert.Equal(t, o.Compensation, receipt.Compensation)
	assert.True(t, e.engine.Pool().IsZero())
}

func TestGasCappedPoolIsNotSpentOnOtherOrders(t *testing.T) {
	e := newEnv(t, GasCapped{Oracle: oracle.Static{Price: uint256.NewInt(gwei)}})
	first := e.nativeOrder()
	_, err := e.execute(first.ID, e.routerPayload(swapDescription(first)))
	require.NoError(t, err)
	pool := e.engine.Pool()

	e.engine.policy = GasCapped{Oracle: oracle.Static{Price: asset.Ether("1")}}
	second := e.nativeOrder()
	receipt, err := e.execute(second.ID, e.routerPayload(swapDescription(second)))
	require.NoError(t, err)

	assert.Equal(t, second.Compensation, receipt.Compensation)
	assert.Equal(t, pool, e.engine.Pool())
}

func TestGasCappedOracleFailure(t *testing.T) {
	e := newEnv(t, GasCapped{Oracle: brokenOracle{}})
	o := e.nativeOrder()

	_, err := e.execute(o.ID, e.routerPayload(swapDescription(o)))
	assert.Equal(t, ErrExternalCallFailed, errors.Cause(err))
	e.assertUntouched(o)
}

func TestValidateContribution(t *testing.T) {
	min := asset.Ether("0.01")
	policies := []CompensationPolicy{
		FixedReward{Min: min},
		GasCapped{Oracle: oracle.Static{Price: uint256.NewInt(1)}, Min: min},
	}

	for _, p := range policies {
		t.Run(p.Name(), func(t *testing.T) {
			assert.Equal(t, ErrInvalidAmount, errors.Cause(p.Validate(asset.Zero())))
			assert.Equal(t, ErrInvalidAmount, errors.Cause(p.Validate(asset.Ether("0.009"))))
			assert.NoError(t, p.Validate(min))
		})
	}

	assert.NoError(t, FixedReward{}.Validate(uint256.NewInt(1)))
}

func TestGasCappedPayoutOverflow(t *testing.T) {
	p := GasCapped{}
	reserve := asset.Ether("1")
	max := new(uint256.Int).SetAllOne()

	payout, err := p.Payout(Quote{GasPrice: max}, reserve, 2)
	require.NoError(t, err)
	assert.Equal(t, reserve, payout)

	_, err = p.Payout(Quote{}, reserve, 2)
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "order_expired", Kind(errors.Wrap(ErrOrderExpired, "wrapped")))
	assert.Equal(t, "payload_commitment_mismatch", Kind(errors.Wrap(errors.Wrap(ErrPayloadCommitmentMismatch, "inner"), "outer")))
	assert.Equal(t, "internal", Kind(errors.New("boom")))
}

package orderproxy

import (
	"context"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/Swapica/order-proxy-svc/internal/oracle"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const (
	PolicyFixedReward = "fixed_reward"
	PolicyGasCapped   = "gas_capped"
)

// CompensationPolicy decides what an executor earns. The payout always comes
// out of the order's own reserve and never exceeds it.
type CompensationPolicy interface {
	Name() string
	// Validate checks the compensation a depositor attached at creation.
	Validate(contribution *uint256.Int) error
	// Quote collects external inputs before the ledger unit starts.
	Quote(ctx context.Context) (Quote, error)
	Payout(q Quote, reserve *uint256.Int, gasUsed uint64) (*uint256.Int, error)
}

type Quote struct {
	GasPrice *uint256.Int
}

// FixedReward pays the whole reserve to whoever executes.
type FixedReward struct {
	Min *uint256.Int
}

func (p FixedReward) Name() string { return PolicyFixedReward }

func (p FixedReward) Validate(contribution *uint256.Int) error {
	return validateContribution(contribution, p.Min)
}

func (p FixedReward) Quote(context.Context) (Quote, error) {
	return Quote{}, nil
}

func (p FixedReward) Payout(_ Quote, reserve *uint256.Int, _ uint64) (*uint256.Int, error) {
	return reserve.Clone(), nil
}

// GasCapped reimburses the gas actually burnt at the reference price, up to
// the reserve. Whatever is left stays in the engine's pool.
type GasCapped struct {
	Oracle oracle.GasPricer
	// Overhead is gas spent after the metered part of execution: the
	// payout transfer itself and the settlement bookkeeping.
	Overhead uint64
	Min      *uint256.Int
}

func (p GasCapped) Name() string { return PolicyGasCapped }

func (p GasCapped) Validate(contribution *uint256.Int) error {
	return validateContribution(contribution, p.Min)
}

func (p GasCapped) Quote(ctx context.Context) (Quote, error) {
	price, err := p.Oracle.GasPrice(ctx)
	if err != nil {
		return Quote{}, errors.Wrap(err, "failed to get reference gas price")
	}
	return Quote{GasPrice: price}, nil
}

func (p GasCapped) Payout(q Quote, reserve *uint256.Int, gasUsed uint64) (*uint256.Int, error) {
	if q.GasPrice == nil {
		return nil, errors.New("gas price is not quoted")
	}
	cost, err := asset.Mul(uint256.NewInt(gasUsed+p.Overhead), q.GasPrice)
	if err != nil {
		// anything that large is over the cap anyway
		return reserve.Clone(), nil
	}
	return asset.Min(cost, reserve), nil
}

func validateContribution(contribution, min *uint256.Int) error {
	if contribution.IsZero() {
		return errors.From(ErrInvalidAmount, logan.F{"reason": "compensation must be positive"})
	}
	if min != nil && contribution.Lt(min) {
		return errors.From(ErrInvalidAmount, logan.F{
			"reason":       "compensation is below the minimum",
			"compensation": contribution.Dec(),
			"minimum":      min.Dec(),
		})
	}
	return nil
}

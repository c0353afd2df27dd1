// Package oracle provides the gas price reference used to bound executor
// reimbursement.
package oracle

import (
	"context"
	"math/big"
	"time"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

type GasPricer interface {
	GasPrice(ctx context.Context) (*uint256.Int, error)
}

type Static struct {
	Price *uint256.Int
}

func (s Static) GasPrice(context.Context) (*uint256.Int, error) {
	return s.Price.Clone(), nil
}

type gasPriceSuggester interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Node reads eth_gasPrice from an RPC node.
type Node struct {
	client         gasPriceSuggester
	requestTimeout time.Duration
}

func NewNode(client *ethclient.Client, requestTimeout time.Duration) *Node {
	return &Node{client: client, requestTimeout: requestTimeout}
}

func (n *Node) GasPrice(ctx context.Context) (*uint256.Int, error) {
	child, cancel := context.WithTimeout(ctx, n.requestTimeout)
	defer cancel()

	price, err := n.client.SuggestGasPrice(child)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get eth_gasPrice")
	}
	res, err := asset.FromBig(price)
	return res, errors.Wrap(err, "gas price out of range")
}

// Capped never reports more than Max.
type Capped struct {
	GasPricer
	Max *uint256.Int
}

func (c Capped) GasPrice(ctx context.Context) (*uint256.Int, error) {
	price, err := c.GasPricer.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return asset.Min(price, c.Max), nil
}

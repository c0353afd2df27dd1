package calldata

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

// Commitment is what the depositor signed up for when the order was created.
type Commitment struct {
	SrcToken    common.Address
	DstToken    common.Address
	SrcAmount   *uint256.Int
	MinReturn   *uint256.Int
	Beneficiary common.Address
}

// Verify decodes payload and checks it performs exactly the committed swap.
// The payload may promise more than MinReturn, never less.
func (d *Decoder) Verify(c Commitment, payload []byte) (Terms, error) {
	t, err := d.Decode(payload)
	if err != nil {
		return Terms{}, err
	}

	if t.Receiver != nil && *t.Receiver != c.Beneficiary {
		return t, mismatch("receiver", c.Beneficiary.Hex(), t.Receiver.Hex())
	}
	if t.SrcAmount != nil && !t.SrcAmount.Eq(c.SrcAmount) {
		return t, mismatch("src_amount", c.SrcAmount.Dec(), t.SrcAmount.Dec())
	}
	if t.MinReturn.Lt(c.MinReturn) {
		return t, mismatch("min_return", c.MinReturn.Dec(), t.MinReturn.Dec())
	}
	if src := d.resolver.Canonical(c.SrcToken); t.SrcToken != src {
		return t, mismatch("src_token", src.Hex(), t.SrcToken.Hex())
	}
	if dst := d.resolver.Canonical(c.DstToken); t.DstToken != dst {
		return t, mismatch("dst_token", dst.Hex(), t.DstToken.Hex())
	}

	return t, nil
}

func mismatch(field, committed, actual string) error {
	return errors.From(ErrCommitmentMismatch, logan.F{
		"field":     field,
		"committed": committed,
		"payload":   actual,
	})
}

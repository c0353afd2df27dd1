// Package calldata decodes swap payloads built by an external aggregator and
// checks them against what a depositor committed to. It never touches balances.
package calldata

import (
	"bytes"
	"encoding/hex"
	"math/big"

	"github.com/Swapica/order-proxy-svc/internal/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gitlab.com/distributed_lab/logan/v3"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

var (
	ErrShapeUnrecognized  = errors.New("payload shape is not recognized")
	ErrCommitmentMismatch = errors.New("payload does not match order commitment")
)

const selectorLength = 4

// Terms are the swap parameters extracted from a recognized payload. Native
// coin aliases are already replaced by the native sentinel.
type Terms struct {
	Shape    string
	Selector [selectorLength]byte
	SrcToken common.Address
	DstToken common.Address
	// Receiver is nil when the shape has no receiver argument and output goes
	// back to the caller.
	Receiver *common.Address
	// SrcAmount is nil when the amount is carried by call value only.
	SrcAmount *uint256.Int
	MinReturn *uint256.Int
}

type Decoder struct {
	shapes        map[[selectorLength]byte]shape
	resolver      asset.Resolver
	wrappedNative common.Address
}

type Option func(*Decoder)

// WithWrappedNative sets the wrapped native token that V2 router paths use in
// place of the native coin.
func WithWrappedNative(addr common.Address) Option {
	return func(d *Decoder) {
		d.wrappedNative = addr
	}
}

func NewDecoder(resolver asset.Resolver, opts ...Option) *Decoder {
	d := &Decoder{
		shapes:   make(map[[selectorLength]byte]shape),
		resolver: resolver,
	}
	for _, s := range defaultShapes() {
		var id [selectorLength]byte
		copy(id[:], s.method.ID)
		d.shapes[id] = s
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Shapes lists recognized selectors with their shape names.
func (d *Decoder) Shapes() map[string]string {
	res := make(map[string]string, len(d.shapes))
	for id, s := range d.shapes {
		res["0x"+hex.EncodeToString(id[:])] = s.name
	}
	return res
}

// Decode extracts swap terms from payload. Payloads with an unknown selector,
// undecodable arguments or a non-canonical encoding are rejected.
func (d *Decoder) Decode(payload []byte) (Terms, error) {
	if len(payload) < selectorLength {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason": "payload is shorter than a selector",
			"length": len(payload),
		})
	}

	var id [selectorLength]byte
	copy(id[:], payload[:selectorLength])
	s, ok := d.shapes[id]
	if !ok {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason":   "unknown selector",
			"selector": "0x" + hex.EncodeToString(id[:]),
		})
	}

	body := payload[selectorLength:]
	args, err := s.method.Inputs.Unpack(body)
	if err != nil {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason": "failed to unpack arguments: " + err.Error(),
			"shape":  s.name,
		})
	}
	if len(args) != len(s.method.Inputs) {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason": "unexpected argument count",
			"shape":  s.name,
		})
	}

	// trailing bytes or dirty padding would be silently ignored by Unpack
	canonical, err := s.method.Inputs.Pack(args...)
	if err != nil || !bytes.Equal(canonical, body) {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{
			"reason": "non-canonical argument encoding",
			"shape":  s.name,
		})
	}

	terms, err := s.extract(d, args)
	if err != nil {
		return Terms{}, errors.Wrap(err, "failed to extract swap terms", logan.F{"shape": s.name})
	}
	terms.Shape = s.name
	terms.Selector = id
	return terms, nil
}

func (d *Decoder) terms(src, dst common.Address, receiver *common.Address, amount, minReturn *big.Int) (Terms, error) {
	t := Terms{
		SrcToken: d.resolver.Canonical(src),
		DstToken: d.resolver.Canonical(dst),
		Receiver: receiver,
	}

	var err error
	if amount != nil {
		if t.SrcAmount, err = asset.FromBig(amount); err != nil {
			return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{"reason": "source amount out of range"})
		}
	}
	if t.MinReturn, err = asset.FromBig(minReturn); err != nil {
		return Terms{}, errors.From(ErrShapeUnrecognized, logan.F{"reason": "minimum return out of range"})
	}
	return t, nil
}

package zkvm

import (
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/pkg/errors"
)

const (
	expBits = 7
	// absBits bounds |v| in units: MaxMagnitude * 2^64 < 2^91.
	absBits = 92
	// slackBits bounds rounding residuals; the largest is |ratio * entry| < 2^183.
	slackBits = 200
)

func init() {
	solver.RegisterHint(absHint, floatHint)
}

// absHint returns |x| for a field element read as a signed integer.
func absHint(field *big.Int, in, out []*big.Int) error {
	out[0].Set(signedAbs(field, in[0]))
	return nil
}

// floatHint splits |x| into a 24-bit significand and a power-of-two exponent.
func floatHint(field *big.Int, in, out []*big.Int) error {
	a := signedAbs(field, in[0])
	shift := a.BitLen() - mantBits
	if shift < 0 {
		shift = 0
	}
	out[0].Set(a)
	out[1].Rsh(a, uint(shift))
	out[2].SetInt64(int64(shift))
	return nil
}

func signedAbs(field, x *big.Int) *big.Int {
	if x.Cmp(new(big.Int).Rsh(field, 1)) > 0 {
		return new(big.Int).Sub(field, x)
	}
	return new(big.Int).Set(x)
}

// float32Var is a witness constrained to be a float32 value in circuit units.
//
//	v = ±mant * 2^exp, 2^23 <= mant < 2^24, ulp = 2^exp (0 for v = 0)
type float32Var struct {
	v    frontend.Variable
	abs  frontend.Variable
	neg  frontend.Variable // 1 for v < 0
	ulp  frontend.Variable
	top  frontend.Variable // 1 when v is a power of two
	even frontend.Variable // 1 when the significand is even
}

type floatBuilder struct {
	api frontend.API
	err error
}

func (b *floatBuilder) hint(f solver.Hint, n int, in frontend.Variable) []frontend.Variable {
	if b.err != nil {
		return make([]frontend.Variable, n)
	}
	out, err := b.api.Compiler().NewHint(f, n, in)
	if err != nil {
		b.err = errors.Wrap(err, "hint")
		return make([]frontend.Variable, n)
	}
	return out
}

// abs returns |x| and 1 when x < 0.
func (b *floatBuilder) abs(x frontend.Variable, bits int) (abs, neg frontend.Variable) {
	api := b.api
	abs = b.hint(absHint, 1, x)[0]
	if b.err != nil {
		return 0, 0
	}
	api.AssertIsEqual(api.Mul(api.Sub(abs, x), api.Add(abs, x)), 0)
	api.ToBinary(abs, bits)
	return abs, api.Sub(1, api.IsZero(api.Sub(abs, x)))
}

func (b *floatBuilder) float(v frontend.Variable) *float32Var {
	api := b.api
	out := b.hint(floatHint, 3, v)
	if b.err != nil {
		return &float32Var{}
	}
	abs, mant, exp := out[0], out[1], out[2]

	api.AssertIsEqual(api.Mul(api.Sub(abs, v), api.Add(abs, v)), 0)
	api.ToBinary(abs, absBits)

	mb := api.ToBinary(mant, mantBits)
	eb := api.ToBinary(exp, expBits)
	var pow frontend.Variable = 1
	for i, bit := range eb {
		pow = api.Mul(pow, api.Select(bit, new(big.Int).Lsh(big.NewInt(1), 1<<i), 1))
	}
	api.AssertIsEqual(abs, api.Mul(mant, pow))

	// ненулевое значение нормализовано: старший бит мантиссы выставлен
	nonZero := api.Sub(1, api.IsZero(abs))
	api.ToBinary(api.Mul(nonZero, api.Sub(mant, 1<<(mantBits-1))), mantBits-1)

	return &float32Var{
		v:    v,
		abs:  abs,
		neg:  api.Sub(1, api.IsZero(api.Sub(abs, v))),
		ulp:  api.Mul(nonZero, pow),
		top:  api.IsZero(api.Sub(mant, 1<<(mantBits-1))),
		even: api.Sub(1, mb[0]),
	}
}

// rounded asserts y = round-to-nearest-even(num / den) for den > 0.
//
// With err = num - y*den the condition is 2|err| <= ulp*den, ties to an even
// significand. Below a power of two the spacing halves, so on that side the bound
// is ulp*den/2.
func (b *floatBuilder) rounded(y *float32Var, num, den frontend.Variable) {
	api := b.api
	errAbs, errNeg := b.abs(api.Sub(num, api.Mul(y.v, den)), slackBits)
	if b.err != nil {
		return
	}

	towardZero := api.Xor(errNeg, y.neg)
	halved := api.Mul(y.top, towardZero)
	slack := api.Sub(api.Mul(api.Sub(2, halved), y.ulp, den), api.Mul(4, errAbs))
	api.ToBinary(slack, slackBits)

	tie := api.IsZero(slack)
	api.AssertIsEqual(api.Mul(tie, api.Sub(1, y.even)), 0)
}

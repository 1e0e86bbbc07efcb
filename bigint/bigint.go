// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package bigint implements Int257, the arbitrary-precision signed integer
// type used by the VM's operand stack: a 257-bit two's-complement range
// ([-2^256, 2^256)) plus a distinguished NaN sentinel.
//
// Every arithmetic routine comes in two flavors, following the opcode
// convention of a "quiet" prefix bit: the strict form rejects a NaN operand
// or an out-of-range result by reporting ok=false, while the quiet
// form folds either condition into a NaN result instead of failing the
// call. Handlers in package vm/ops choose which form to call based on the
// opcode's quiet bit.
package bigint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Rounding selects how a division-like operation resolves a remainder that
// does not evenly divide.
type Rounding int

const (
	// Floor rounds the quotient toward negative infinity.
	Floor Rounding = iota
	// Nearest rounds the quotient to the nearest integer, ties to even.
	Nearest
	// Ceiling rounds the quotient toward positive infinity.
	Ceiling
)

// limit is 2^256, the exclusive upper bound of the unsigned magnitude space
// addressable by a 257-bit signed value.
var limit = new(big.Int).Lsh(big.NewInt(1), 256)

// maxValue is 2^256 - 1, the largest representable unsigned magnitude and
// the largest representable positive signed value.
var maxValue = new(big.Int).Sub(limit, big.NewInt(1))

// minValue is -2^256, the smallest representable signed value.
var minValue = new(big.Int).Neg(limit)

// Int257 is a 257-bit signed integer or NaN. The zero value is the integer
// zero (not NaN); use NaN() to obtain the sentinel value explicitly.
type Int257 struct {
	v    big.Int
	isNaN bool
}

// NaN returns the distinguished not-a-number sentinel.
func NaN() Int257 {
	return Int257{isNaN: true}
}

// Zero returns the integer 0.
func Zero() Int257 { return FromInt64(0) }

// FromInt64 converts a native int64 to an Int257.
func FromInt64(x int64) Int257 {
	var r Int257
	r.v.SetInt64(x)
	return r
}

// FromUint64 converts a native uint64 to an Int257.
func FromUint64(x uint64) Int257 {
	var r Int257
	r.v.SetUint64(x)
	return r
}

// FromBig converts a math/big.Int to an Int257. The value is copied; if it
// falls outside [-2^256, 2^256) the result is NaN (callers that need a
// strict error should call Invalidate/FitsSigned themselves).
func FromBig(x *big.Int) Int257 {
	var r Int257
	r.v.Set(x)
	if !r.v.IsInt64() && !fitsRange(&r.v) {
		return NaN()
	}
	return r
}

// FromUint256 converts an unsigned 256-bit word (as produced by cell-slice
// fetches) to an Int257, optionally interpreting it as two's-complement
// signed.
func FromUint256(x *uint256.Int, signed bool) Int257 {
	b := x.ToBig()
	if signed && b.Bit(255) == 1 {
		b = new(big.Int).Sub(b, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return FromBig(b)
}

func fitsRange(v *big.Int) bool {
	return v.Cmp(minValue) >= 0 && v.Cmp(maxValue) <= 0
}

// Invalidate returns the NaN sentinel; it models the "invalidate()" path of
// the original implementation used whenever a source-language operation
// cannot produce a well-defined integer.
func Invalidate() Int257 { return NaN() }

// IsNaN reports whether the value is the NaN sentinel.
func (x Int257) IsNaN() bool { return x.isNaN }

// Big returns the underlying arbitrary-precision value. The result is
// unspecified (zero) if x is NaN; callers must check IsNaN first.
func (x Int257) Big() *big.Int {
	r := new(big.Int)
	r.Set(&x.v)
	return r
}

// Sign returns -1, 0, or 1. Calling Sign on NaN panics; callers must check
// IsNaN first, mirroring the "caller must detect" contract in spec.
func (x Int257) Sign() int {
	if x.isNaN {
		panic("bigint: Sign of NaN")
	}
	return x.v.Sign()
}

// Equal reports whether x and y are both non-NaN and numerically equal.
// Two NaNs are never equal (IEEE-754-style, and matches the VM's quiet
// comparison opcodes returning a sentinel rather than true for NaN==NaN).
func (x Int257) Equal(y Int257) bool {
	if x.isNaN || y.isNaN {
		return false
	}
	return x.v.Cmp(&y.v) == 0
}

// Cmp compares x and y; ok is false if either operand is NaN.
func (x Int257) Cmp(y Int257) (c int, ok bool) {
	if x.isNaN || y.isNaN {
		return 0, false
	}
	return x.v.Cmp(&y.v), true
}

// String renders the value for debug/disassembly output.
func (x Int257) String() string {
	if x.isNaN {
		return "NaN"
	}
	return x.v.String()
}

// clamp wraps a big.Int result into Int257, producing NaN if it escapes the
// representable range.
func clamp(v *big.Int) Int257 {
	if !fitsRange(v) {
		return NaN()
	}
	var r Int257
	r.v.Set(v)
	return r
}

// finish applies the overflow policy shared by every binary/unary
// arithmetic routine: NaN operands always propagate to NaN; in quiet mode an
// out-of-range result also becomes NaN, while in strict mode it is reported
// via ok=false so the caller can raise int_ov.
func finish(v *big.Int, anyNaN bool, quiet bool) (Int257, bool) {
	if anyNaN {
		return NaN(), quiet
	}
	if fitsRange(v) {
		var r Int257
		r.v.Set(v)
		return r, true
	}
	if quiet {
		return NaN(), true
	}
	return NaN(), false
}

// Add computes x+y. ok is false only in strict (quiet=false) mode when a
// NaN operand or range overflow occurred.
func Add(x, y Int257, quiet bool) (Int257, bool) {
	v := new(big.Int).Add(&x.v, &y.v)
	return finish(v, x.isNaN || y.isNaN, quiet)
}

// Sub computes x-y.
func Sub(x, y Int257, quiet bool) (Int257, bool) {
	v := new(big.Int).Sub(&x.v, &y.v)
	return finish(v, x.isNaN || y.isNaN, quiet)
}

// Neg computes -x.
func Neg(x Int257, quiet bool) (Int257, bool) {
	v := new(big.Int).Neg(&x.v)
	return finish(v, x.isNaN, quiet)
}

// Mul computes x*y.
func Mul(x, y Int257, quiet bool) (Int257, bool) {
	v := new(big.Int).Mul(&x.v, &y.v)
	return finish(v, x.isNaN || y.isNaN, quiet)
}

// applyRounding resolves a floor-division (q,r) pair produced by
// math/big.Int.DivMod (Euclidean: 0<=r<|y|) into the requested rounding
// mode, matching the TON DIVMOD family's floor/round/ceil semantics.
func applyRounding(q, r, y *big.Int, mode Rounding) (*big.Int, *big.Int) {
	// math/big.DivMod always returns the Euclidean remainder (r has the
	// sign of y's absolute value, i.e. 0 <= r). Convert to the "floor"
	// convention used by spec (0 <= |r| < |y|, sign of r matches y) first.
	if y.Sign() < 0 && r.Sign() != 0 {
		// Euclidean r is in [0,|y|); floor-mode wants q one lower and r
		// shifted negative when y<0.
		q = new(big.Int).Sub(q, big.NewInt(1))
		r = new(big.Int).Add(r, y)
	}
	switch mode {
	case Floor:
		return q, r
	case Ceiling:
		if r.Sign() != 0 {
			q = new(big.Int).Add(q, big.NewInt(1))
			r = new(big.Int).Sub(r, y)
		}
		return q, r
	default: // Nearest, ties to even
		twiceR := new(big.Int).Lsh(new(big.Int).Abs(r), 1)
		absY := new(big.Int).Abs(y)
		cmp := twiceR.Cmp(absY)
		roundUp := cmp > 0
		if cmp == 0 {
			// tie: round to even quotient
			roundUp = q.Bit(0) == 1
		}
		if roundUp && r.Sign() != 0 {
			q = new(big.Int).Add(q, big.NewInt(1))
			r = new(big.Int).Sub(r, y)
		}
		return q, r
	}
}

// DivMod computes (q,r) = divmod(x,y,mode) with the invariant x = q*y + r.
// ok is false in strict mode on division by zero, a NaN operand, or an
// overflowing quotient.
func DivMod(x, y Int257, mode Rounding, quiet bool) (q, r Int257, ok bool) {
	if x.isNaN || y.isNaN {
		if quiet {
			return NaN(), NaN(), true
		}
		return NaN(), NaN(), false
	}
	if y.v.Sign() == 0 {
		if quiet {
			return NaN(), NaN(), true
		}
		return NaN(), NaN(), false
	}
	eq, er := new(big.Int), new(big.Int)
	eq.DivMod(&x.v, &y.v, er)
	fq, fr := applyRounding(eq, er, &y.v, mode)
	qv, qok := finish(fq, false, quiet)
	rv, _ := finish(fr, false, quiet)
	if !qok {
		return NaN(), NaN(), false
	}
	return qv, rv, true
}

// MulDivMod computes (q,r) = (x*y)/z with the product formed in a
// double-width intermediate so it never overflows 257 bits mid-computation,
// matching the *2 internal accumulator described in spec for
// QMULDIVMOD-family opcodes.
func MulDivMod(x, y, z Int257, mode Rounding, quiet bool) (q, r Int257, ok bool) {
	if x.isNaN || y.isNaN || z.isNaN {
		if quiet {
			return NaN(), NaN(), true
		}
		return NaN(), NaN(), false
	}
	prod := new(big.Int).Mul(&x.v, &y.v)
	if z.v.Sign() == 0 {
		if quiet {
			return NaN(), NaN(), true
		}
		return NaN(), NaN(), false
	}
	eq, er := new(big.Int), new(big.Int)
	eq.DivMod(prod, &z.v, er)
	fq, fr := applyRounding(eq, er, &z.v, mode)
	qv, qok := finish(fq, false, quiet)
	rv, _ := finish(fr, false, quiet)
	if !qok {
		return NaN(), NaN(), false
	}
	return qv, rv, true
}

// MulShr computes (x*y)>>n with the given rounding mode applied to the bits
// shifted out, used by MULRSHIFT-family opcodes.
func MulShr(x, y Int257, n uint, mode Rounding, quiet bool) (Int257, bool) {
	if x.isNaN || y.isNaN {
		if quiet {
			return NaN(), true
		}
		return NaN(), false
	}
	prod := new(big.Int).Mul(&x.v, &y.v)
	divisor := new(big.Int).Lsh(big.NewInt(1), n)
	eq, er := new(big.Int), new(big.Int)
	eq.DivMod(prod, divisor, er)
	fq, _ := applyRounding(eq, er, divisor, mode)
	return finish(fq, false, quiet)
}

// ShlDiv computes (x<<n)/y, used by LSHIFTDIV-family opcodes.
func ShlDiv(x Int257, n uint, y Int257, mode Rounding, quiet bool) (Int257, bool) {
	if x.isNaN || y.isNaN {
		if quiet {
			return NaN(), true
		}
		return NaN(), false
	}
	if y.v.Sign() == 0 {
		if quiet {
			return NaN(), true
		}
		return NaN(), false
	}
	shifted := new(big.Int).Lsh(&x.v, n)
	eq, er := new(big.Int), new(big.Int)
	eq.DivMod(shifted, &y.v, er)
	fq, _ := applyRounding(eq, er, &y.v, mode)
	return finish(fq, false, quiet)
}

// Shl computes x << n for n in [0,1023].
func Shl(x Int257, n uint, quiet bool) (Int257, bool) {
	if x.isNaN {
		if quiet {
			return NaN(), true
		}
		return NaN(), false
	}
	v := new(big.Int).Lsh(&x.v, n)
	return finish(v, false, quiet)
}

// Shr computes x >> n with rounding, for n in [0,1023].
func Shr(x Int257, n uint, mode Rounding, quiet bool) (Int257, bool) {
	if x.isNaN {
		if quiet {
			return NaN(), true
		}
		return NaN(), false
	}
	divisor := new(big.Int).Lsh(big.NewInt(1), n)
	eq, er := new(big.Int), new(big.Int)
	eq.DivMod(&x.v, divisor, er)
	fq, _ := applyRounding(eq, er, divisor, mode)
	return finish(fq, false, quiet)
}

// ModPow2 replaces x by its signed residue modulo 2^n, i.e. x & (2^n - 1)
// reinterpreted as a signed value in [-2^(n-1), 2^(n-1)) under Floor; Round
// uses banker's rounding of x/2^n times 2^n subtracted from x; Ceiling takes
// the non-positive residue.
func ModPow2(x Int257, n uint, mode Rounding, quiet bool) (Int257, bool) {
	if x.isNaN {
		if quiet {
			return NaN(), true
		}
		return NaN(), false
	}
	r, _ := Shr(x, n, mode, true)
	if r.isNaN {
		if quiet {
			return NaN(), true
		}
		return NaN(), false
	}
	modulus := new(big.Int).Lsh(big.NewInt(1), n)
	v := new(big.Int).Sub(&x.v, new(big.Int).Mul(r.Big(), modulus))
	if mode == Floor && n > 0 && v.Cmp(new(big.Int).Lsh(big.NewInt(1), n-1)) >= 0 {
		v.Sub(v, modulus)
	}
	return finish(v, false, quiet)
}

// SetPow2 returns 2^n.
func SetPow2(n uint) Int257 {
	var r Int257
	r.v.Lsh(big.NewInt(1), n)
	return r
}

// SignedFitsBits reports whether x fits in a signed n-bit two's-complement
// field (1 <= n <= 257).
func (x Int257) SignedFitsBits(n uint) bool {
	if x.isNaN {
		return false
	}
	if n == 0 {
		return false
	}
	half := new(big.Int).Lsh(big.NewInt(1), n-1)
	lo := new(big.Int).Neg(half)
	hi := new(big.Int).Sub(half, big.NewInt(1))
	return x.v.Cmp(lo) >= 0 && x.v.Cmp(hi) <= 0
}

// UnsignedFitsBits reports whether x fits in an unsigned n-bit field.
func (x Int257) UnsignedFitsBits(n uint) bool {
	if x.isNaN || x.v.Sign() < 0 {
		return false
	}
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), n), big.NewInt(1))
	return x.v.Cmp(hi) <= 0
}

// IntMax is returned by BitSize(signed=false) for a negative value, which
// the caller must detect (matching the source's INT_MAX sentinel contract).
const IntMax = int(^uint(0) >> 1)

// BitSize returns the minimal two's-complement (signed=true) or unsigned
// encoding width for x. For signed=false on a negative x it returns IntMax;
// the caller is responsible for rejecting that case.
func (x Int257) BitSize(signed bool) int {
	if x.isNaN {
		return IntMax
	}
	if !signed && x.v.Sign() < 0 {
		return IntMax
	}
	if x.v.Sign() == 0 {
		if signed {
			return 1
		}
		return 0
	}
	if signed {
		var mag big.Int
		if x.v.Sign() < 0 {
			// two's-complement width of a negative value v is
			// bitlen(-v-1)+1.
			mag.Add(&x.v, big.NewInt(1))
			mag.Neg(&mag)
			return mag.BitLen() + 1
		}
		return x.v.BitLen() + 1
	}
	return x.v.BitLen()
}

// ToUint256 converts a non-negative, in-range x to a fixed 256-bit word
// suitable for cell storage. ok is false if x is NaN, negative, or does not
// fit in 256 bits (callers needing two's-complement encoding of negatives
// should use ToUint256TwosComplement).
func (x Int257) ToUint256() (u uint256.Int, ok bool) {
	if x.isNaN || x.v.Sign() < 0 || x.v.BitLen() > 256 {
		return uint256.Int{}, false
	}
	u.SetFromBig(&x.v)
	return u, true
}

// ToUint256TwosComplement encodes x (which must fit in n<=256 signed bits)
// as its n-bit two's-complement pattern within a 256-bit word.
func ToUint256TwosComplement(x Int257, n uint) (u uint256.Int, ok bool) {
	if x.isNaN || !x.SignedFitsBits(n) {
		return uint256.Int{}, false
	}
	v := new(big.Int).Set(&x.v)
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), n))
	}
	u.SetFromBig(v)
	return u, true
}

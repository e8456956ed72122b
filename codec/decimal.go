// Package codec holds the pure, total conversions between Parquet's wire
// representations (INT32 days, INT32/64 time units, INT64 epoch units,
// fixed/variable byte arrays) and the user-facing value shapes the core
// works with (spec §4.7). No global clock, no system time zone: every
// function takes its unit/scale/precision parameters explicitly.
package codec

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DecimalPhysical is the physical Parquet type chosen for a given decimal
// precision (spec §4.2/§8): INT32 for p<=9, INT64 for 9<p<=18, BINARY
// otherwise.
type DecimalPhysical uint8

const (
	DecimalInt32 DecimalPhysical = iota
	DecimalInt64
	DecimalBinary
)

// PhysicalForPrecision implements the decimal precision bounds testable
// property from spec §8.
func PhysicalForPrecision(precision int) DecimalPhysical {
	switch {
	case precision <= 9:
		return DecimalInt32
	case precision <= 18:
		return DecimalInt64
	default:
		return DecimalBinary
	}
}

var pow10 = func() [39]*big.Int {
	var t [39]*big.Int
	base := big.NewInt(10)
	acc := big.NewInt(1)
	for i := range t {
		t[i] = new(big.Int).Set(acc)
		acc = new(big.Int).Mul(acc, base)
	}
	return t
}()

func pow10At(n int) *big.Int {
	if n >= 0 && n < len(pow10) {
		return pow10[n]
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Rescale returns d's unscaled coefficient at the given target scale
// (rounding half away from zero when d carries more fractional digits),
// erroring if the rescaled value would not fit within precision decimal
// digits.
func Rescale(d decimal.Decimal, precision, scale int) (*big.Int, error) {
	rounded := d.Round(int32(scale))
	unscaled := new(big.Int).Set(rounded.Coefficient())
	if shift := int(rounded.Exponent()) + scale; shift > 0 {
		unscaled.Mul(unscaled, pow10At(shift))
	}
	limit := pow10At(precision)
	abs := new(big.Int).Abs(unscaled)
	if abs.Cmp(limit) >= 0 {
		return nil, fmt.Errorf("codec: decimal value %s does not fit precision %d scale %d", d.String(), precision, scale)
	}
	return unscaled, nil
}

// EncodeInt32 rescales d to scale and encodes it as a 32-bit signed
// unscaled value.
func EncodeInt32(d decimal.Decimal, precision, scale int) (int32, error) {
	unscaled, err := Rescale(d, precision, scale)
	if err != nil {
		return 0, err
	}
	if !unscaled.IsInt64() {
		return 0, fmt.Errorf("codec: decimal %s overflows int32", d.String())
	}
	v := unscaled.Int64()
	if v < int64(-1<<31) || v > int64(1<<31-1) {
		return 0, fmt.Errorf("codec: decimal %s overflows int32", d.String())
	}
	return int32(v), nil
}

// EncodeInt64 rescales d to scale and encodes it as a 64-bit signed
// unscaled value.
func EncodeInt64(d decimal.Decimal, precision, scale int) (int64, error) {
	unscaled, err := Rescale(d, precision, scale)
	if err != nil {
		return 0, err
	}
	if !unscaled.IsInt64() {
		return 0, fmt.Errorf("codec: decimal %s overflows int64", d.String())
	}
	return unscaled.Int64(), nil
}

// EncodeBinary rescales d to scale and encodes it as a minimal-length
// big-endian two's-complement byte array (spec §4.4 BINARY encoding).
func EncodeBinary(d decimal.Decimal, precision, scale int) ([]byte, error) {
	unscaled, err := Rescale(d, precision, scale)
	if err != nil {
		return nil, err
	}
	return twosComplementMinimal(unscaled), nil
}

// EncodeFixed is EncodeBinary but zero/sign-extended (padded) to an exact
// byte length, matching Parquet's FIXED_LEN_BYTE_ARRAY decimal encoding.
func EncodeFixed(d decimal.Decimal, precision, scale, length int) ([]byte, error) {
	b, err := EncodeBinary(d, precision, scale)
	if err != nil {
		return nil, err
	}
	if len(b) > length {
		return nil, fmt.Errorf("codec: decimal %s needs %d bytes, fixed length is %d", d.String(), len(b), length)
	}
	padByte := byte(0)
	if len(b) > 0 && b[0]&0x80 != 0 {
		padByte = 0xff
	}
	out := make([]byte, length)
	for i := 0; i < length-len(b); i++ {
		out[i] = padByte
	}
	copy(out[length-len(b):], b)
	return out, nil
}

func twosComplementMinimal(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	if v.Sign() > 0 {
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// Negative: two's complement over the minimal number of bytes that
	// can hold it: |v|-1 magnitude bits plus the sign bit (so -128 fits
	// in one byte).
	bits := new(big.Int).Not(v).BitLen() + 1
	nbytes := (bits + 7) / 8
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nbytes*8))
	twos := new(big.Int).Add(mod, v)
	b := twos.Bytes()
	for len(b) < nbytes {
		b = append([]byte{0}, b...)
	}
	return b
}

func fromTwosComplement(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	v := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		v.Sub(v, mod)
	}
	return v
}

// DecodeInt32 reconstructs a decimal.Decimal from an INT32 unscaled
// value and scale.
func DecodeInt32(v int32, scale int) decimal.Decimal {
	return decimal.New(int64(v), int32(-scale))
}

// DecodeInt64 reconstructs a decimal.Decimal from an INT64 unscaled
// value and scale.
func DecodeInt64(v int64, scale int) decimal.Decimal {
	return decimal.New(v, int32(-scale))
}

// DecodeBinary reconstructs a decimal.Decimal from a big-endian
// two's-complement byte array and scale.
func DecodeBinary(b []byte, scale int) decimal.Decimal {
	unscaled := fromTwosComplement(b)
	return decimal.NewFromBigInt(unscaled, int32(-scale))
}

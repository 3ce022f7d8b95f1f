package utils

import (
	"encoding/binary"
	"math/big"

	bin "github.com/gagliardetto/binary"
)

func IntX(x *big.Int) *big.Int {
	return new(big.Int).Set(x)
}

func AddX(x *big.Int, y ...*big.Int) *big.Int {
	z := new(big.Int).Set(x)
	for _, v := range y {
		z.Add(z, v)
	}
	return z
}

func SubX(x *big.Int, y ...*big.Int) *big.Int {
	z := new(big.Int).Set(x)
	for _, v := range y {
		z.Sub(z, v)
	}
	return z
}

func MulX(x *big.Int, y ...*big.Int) *big.Int {
	z := new(big.Int).Set(x)
	for _, v := range y {
		z.Mul(z, v)
	}
	return z
}

// DivX truncates toward zero, matching the on-chain integer math.
func DivX(x *big.Int, y ...*big.Int) *big.Int {
	z := new(big.Int).Set(x)
	for _, v := range y {
		z.Quo(z, v)
	}
	return z
}

func ModX(x, y *big.Int) *big.Int {
	return new(big.Int).Rem(x, y)
}

func AbsX(x *big.Int) *big.Int {
	return new(big.Int).Abs(x)
}

func NegX(x *big.Int) *big.Int {
	return new(big.Int).Neg(x)
}

func Min(x *big.Int, y ...*big.Int) *big.Int {
	minValue := x
	for _, v := range y {
		if minValue.Cmp(v) > 0 {
			minValue = v
		}
	}
	return minValue
}

func Max(x *big.Int, y ...*big.Int) *big.Int {
	maxValue := x
	for _, v := range y {
		if maxValue.Cmp(v) < 0 {
			maxValue = v
		}
	}
	return maxValue
}

func BN[T int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64](x T) *big.Int {
	if x < 0 {
		return big.NewInt(int64(x))
	}
	return new(big.Int).SetUint64(uint64(x))
}

func Uint128(x *big.Int) (u bin.Uint128) {
	if x.Sign() < 0 {
		panic("value cannot be negative")
	} else if x.BitLen() > 128 {
		panic("value overflows Uint128")
	}
	u.Lo = x.Uint64()
	u.Hi = new(big.Int).Rsh(x, 64).Uint64()
	u.Endianness = binary.LittleEndian
	return u
}

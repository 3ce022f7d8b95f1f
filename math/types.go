package math

import "math/big"

type AssetReserve struct {
	Base  *big.Int
	Quote *big.Int
}

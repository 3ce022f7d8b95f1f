package dlob

import "github.com/go-errors/errors"

var (
	ErrOraclePriceDataRequired = errors.Errorf("oracle price data required for spot market")
	ErrUnknownNodeType         = errors.Errorf("unknown dlob node type")
	ErrInvalidDLOBOrders       = errors.Errorf("invalid dlob orders snapshot")
	ErrSourceRequired          = errors.Errorf("dlob source and slot source are required")
)

package types

import "errors"

var (
	ErrCapacityExceeded   = errors.New("requested quantity exceeds remaining capacity")
	ErrHoldExpired        = errors.New("hold has expired")
	ErrGatewayMismatch    = errors.New("gateway confirmation does not match recorded payments")
	ErrOrderNotFound      = errors.New("no payments found for order")
	ErrInsufficientPoints = errors.New("not enough points available to redeem")
)

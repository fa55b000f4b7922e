package errors

import "errors"

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEmptyReason           = errors.New("empty reason")
	ErrInsufficientPoints    = errors.New("insufficient points")
	ErrDuplicateTransaction  = errors.New("duplicate transaction")
	ErrDuplicateCompensation = errors.New("duplicate compensation")
	ErrInvalidCompensation   = errors.New("transaction cannot be compensated")
	ErrTierDowngradeBlocked  = errors.New("redemption would downgrade tier")
	ErrChannelDisconnected   = errors.New("realtime channel disconnected")
	ErrNotFound              = errors.New("not found")
)

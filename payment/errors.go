package payment

import "errors"

var (
	// ErrInsufficientFunds indicates custody holds less than the requested payout.
	ErrInsufficientFunds = errors.New("payment: insufficient custody funds")

	// ErrRejected indicates the recipient refused the transfer.
	ErrRejected = errors.New("payment: transfer rejected by recipient")

	// ErrZeroRecipient indicates a transfer to the null identity.
	ErrZeroRecipient = errors.New("payment: zero recipient")

	// ErrOverflow indicates a credit would overflow 256 bits.
	ErrOverflow = errors.New("payment: amount overflows 256 bits")
)

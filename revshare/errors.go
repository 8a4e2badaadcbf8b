package revshare

import "errors"

var (
	// ErrInvalidAddress indicates an address string is malformed.
	ErrInvalidAddress = errors.New("revshare: invalid address")

	// ErrInvalidFeeBps indicates a fee larger than 100%.
	ErrInvalidFeeBps = errors.New("revshare: fee exceeds 10000 basis points")

	// ErrZeroTotalShares indicates total shares is zero.
	ErrZeroTotalShares = errors.New("revshare: zero total shares")

	// ErrPayoutOverflow indicates a payout does not fit in 256 bits.
	ErrPayoutOverflow = errors.New("revshare: payout overflows 256 bits")

	// ErrShareConservationViolation indicates balances do not sum to the total supply.
	ErrShareConservationViolation = errors.New("revshare: share conservation violated")

	// ErrPayoutBoundViolation indicates a snapshot paid out more than it distributes,
	// or its completion flag disagrees with its paid-out amount.
	ErrPayoutBoundViolation = errors.New("revshare: payout bound violated")

	// ErrDistributionExceeded indicates projected payouts sum above the distributable amount.
	ErrDistributionExceeded = errors.New("revshare: distribution exceeds distributable amount")
)

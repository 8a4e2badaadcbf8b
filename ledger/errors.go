package ledger

import "errors"

var (
	// ErrNotFound indicates an unknown asset or snapshot.
	ErrNotFound = errors.New("ledger: not found")

	// ErrUnauthorized indicates the caller is not the required operator or platform owner.
	ErrUnauthorized = errors.New("ledger: unauthorized")

	// ErrInvalidOperator indicates a null identity where an operator or owner is required.
	ErrInvalidOperator = errors.New("ledger: invalid operator")

	// ErrInvalidRecipient indicates a share transfer to the null identity.
	ErrInvalidRecipient = errors.New("ledger: invalid recipient")

	// ErrInvalidShareCount indicates a registration with zero shares.
	ErrInvalidShareCount = errors.New("ledger: invalid share count")

	// ErrAssetInactive indicates a deposit to a deactivated asset.
	ErrAssetInactive = errors.New("ledger: asset inactive")

	// ErrBelowMinimumThreshold indicates a deposit smaller than the platform minimum.
	ErrBelowMinimumThreshold = errors.New("ledger: revenue below minimum threshold")

	// ErrInsufficientBalance indicates a holder owns fewer shares than requested.
	ErrInsufficientBalance = errors.New("ledger: insufficient share balance")

	// ErrAlreadyClaimed indicates the (asset, snapshot, claimant) triple was already paid.
	ErrAlreadyClaimed = errors.New("ledger: already claimed")

	// ErrNoSharesOwned indicates the claimant held no shares for the snapshot.
	ErrNoSharesOwned = errors.New("ledger: no shares owned")

	// ErrZeroPayout indicates the payout truncates to zero or nothing is left to pay.
	ErrZeroPayout = errors.New("ledger: zero payout")

	// ErrInvalidFee indicates a platform fee above the configured maximum.
	ErrInvalidFee = errors.New("ledger: invalid fee")

	// ErrTransferFailed indicates the claim payout could not be transferred.
	ErrTransferFailed = errors.New("ledger: transfer failed")

	// ErrFeeTransferFailed indicates the platform fee could not be transferred.
	ErrFeeTransferFailed = errors.New("ledger: fee transfer failed")

	// ErrReentrantCall indicates a ledger call made from inside an in-flight operation.
	ErrReentrantCall = errors.New("ledger: reentrant call")

	// ErrPaused indicates the platform is paused.
	ErrPaused = errors.New("ledger: paused")

	// ErrNotPaused indicates Unpause was called on a running platform.
	ErrNotPaused = errors.New("ledger: not paused")

	// ErrInvalidAmount indicates a zero or overflowing amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
)

// IsPaymentFailure reports whether err is an outbound transfer failure
// rather than a rejected request.
func IsPaymentFailure(err error) bool {
	return errors.Is(err, ErrTransferFailed) || errors.Is(err, ErrFeeTransferFailed)
}

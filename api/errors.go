package api

import (
	"errors"
	"net/http"

	"github.com/bitfsorg/revledger-go/ledger"
)

var (
	// ErrBadRequest indicates a malformed request body or parameter.
	ErrBadRequest = errors.New("api: bad request")

	// ErrUnauthenticated indicates a missing or invalid request signature.
	ErrUnauthenticated = errors.New("api: unauthenticated")

	// ErrInternal indicates an unexpected server failure.
	ErrInternal = errors.New("api: internal error")
)

type errorCode struct {
	err    error
	status int
	code   string
}

// Payment failures come first: a failed payout may wrap the recipient's own
// ledger error.
var errorCodes = []errorCode{
	{ledger.ErrTransferFailed, http.StatusBadGateway, "TRANSFER_FAILED"},
	{ledger.ErrFeeTransferFailed, http.StatusBadGateway, "FEE_TRANSFER_FAILED"},
	{ledger.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ledger.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
	{ledger.ErrInvalidOperator, http.StatusBadRequest, "INVALID_OPERATOR"},
	{ledger.ErrInvalidRecipient, http.StatusBadRequest, "INVALID_RECIPIENT"},
	{ledger.ErrInvalidShareCount, http.StatusBadRequest, "INVALID_SHARE_COUNT"},
	{ledger.ErrBelowMinimumThreshold, http.StatusBadRequest, "BELOW_MINIMUM_THRESHOLD"},
	{ledger.ErrInvalidFee, http.StatusBadRequest, "INVALID_FEE"},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{ledger.ErrAssetInactive, http.StatusConflict, "ASSET_INACTIVE"},
	{ledger.ErrInsufficientBalance, http.StatusConflict, "INSUFFICIENT_BALANCE"},
	{ledger.ErrAlreadyClaimed, http.StatusConflict, "ALREADY_CLAIMED"},
	{ledger.ErrNoSharesOwned, http.StatusConflict, "NO_SHARES_OWNED"},
	{ledger.ErrZeroPayout, http.StatusConflict, "ZERO_PAYOUT"},
	{ledger.ErrReentrantCall, http.StatusConflict, "REENTRANT_CALL"},
	{ledger.ErrPaused, http.StatusConflict, "PAUSED"},
	{ledger.ErrNotPaused, http.StatusConflict, "NOT_PAUSED"},
	{ErrBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
	{ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.status, ec.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// ErrorForCode returns the sentinel behind an error code, so clients can
// test remote failures with errors.Is. Unknown codes map to ErrInternal.
func ErrorForCode(code string) error {
	for _, ec := range errorCodes {
		if ec.code == code {
			return ec.err
		}
	}
	return ErrInternal
}

package client

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/revledger-go/api"
)

var (
	// ErrConnectionFailed indicates the request never reached the server.
	ErrConnectionFailed = errors.New("client: connection failed")

	// ErrInvalidResponse indicates a response that could not be decoded.
	ErrInvalidResponse = errors.New("client: invalid response")

	// ErrNoKey indicates a signed call on a client without a private key.
	ErrNoKey = errors.New("client: no signing key")
)

// APIError is a non-2xx response from the server. It unwraps to the ledger
// or api sentinel behind its code, so errors.Is(err, ledger.ErrPaused)
// works against a remote ledger.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return api.ErrorForCode(e.Code)
}

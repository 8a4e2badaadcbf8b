// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidStoreType indicates the store backend is not recognized.
	ErrInvalidStoreType = errors.New("config: invalid store (must be \"memory\", \"bolt\", or \"postgres\")")

	// ErrEmptyDSN indicates the postgres store was selected without a DSN.
	ErrEmptyDSN = errors.New("config: postgres.dsn must not be empty")

	// ErrInvalidFeeBps indicates the platform fee settings are out of range.
	ErrInvalidFeeBps = errors.New("config: invalid platform fee basis points")

	// ErrInvalidBalanceMode indicates the ledger balance mode is not recognized.
	ErrInvalidBalanceMode = errors.New("config: invalid balance mode (must be \"lazy\" or \"checkpoint\")")

	// ErrInvalidAmount indicates a configured amount is not a base-10 integer.
	ErrInvalidAmount = errors.New("config: invalid amount")

	// ErrInvalidAddress indicates a configured address is not 20 hex bytes.
	ErrInvalidAddress = errors.New("config: invalid address")

	// ErrInvalidSkew indicates a negative auth skew window.
	ErrInvalidSkew = errors.New("config: auth.maxskew must not be negative")

	// ErrMissingOwner indicates the platform owner is required but unset.
	ErrMissingOwner = errors.New("config: platform.owner must be set")
)

// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/holiman/uint256"

	"github.com/bitfsorg/revledger-go/revshare"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validStores = map[string]bool{
	StoreMemory:   true,
	StoreBolt:     true,
	StorePostgres: true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid. An empty
// platform owner is accepted here; PlatformSettings requires it.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if !validStores[cfg.Store] {
		return fmt.Errorf("%w: %q", ErrInvalidStoreType, cfg.Store)
	}
	if cfg.Store == StorePostgres && cfg.Postgres.DSN == "" {
		return ErrEmptyDSN
	}

	if cfg.Platform.Owner != "" {
		if _, err := revshare.ParseAddress(cfg.Platform.Owner); err != nil {
			return fmt.Errorf("%w: platform.owner: %w", ErrInvalidAddress, err)
		}
	}
	if cfg.Platform.MaxFeeBps > revshare.BasisPoints {
		return fmt.Errorf("%w: maxfeebps %d > %d", ErrInvalidFeeBps, cfg.Platform.MaxFeeBps, revshare.BasisPoints)
	}
	if maxFee := cfg.Platform.maxFee(); cfg.Platform.FeeBps > maxFee {
		return fmt.Errorf("%w: feebps %d > maxfeebps %d", ErrInvalidFeeBps, cfg.Platform.FeeBps, maxFee)
	}
	if _, err := parseAmount(cfg.Platform.MinRevenue); err != nil {
		return err
	}

	if cfg.Ledger.BalanceMode != BalanceLazy && cfg.Ledger.BalanceMode != BalanceCheckpoint {
		return fmt.Errorf("%w: %q", ErrInvalidBalanceMode, cfg.Ledger.BalanceMode)
	}

	if cfg.DNS.Upstream != "" {
		if err := validateAddr(cfg.DNS.Upstream); err != nil {
			return fmt.Errorf("%w: dns.upstream: %w", ErrInvalidListenAddr, err)
		}
	}

	if cfg.Auth.MaxSkew < 0 {
		return ErrInvalidSkew
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	return v, nil
}

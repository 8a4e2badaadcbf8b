// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads revledgerd configuration from a YAML file with
// REVLEDGER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bitfsorg/revledger-go/revshare"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Balance modes.
const (
	BalanceLazy       = "lazy"
	BalanceCheckpoint = "checkpoint"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REVLEDGER"

const configFileName = "config.yaml"

// Config is the full daemon configuration.
type Config struct {
	DataDir    string         `mapstructure:"datadir"`
	ListenAddr string         `mapstructure:"listen"`
	LogLevel   string         `mapstructure:"loglevel"`
	Store      string         `mapstructure:"store"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	Platform   PlatformConfig `mapstructure:"platform"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
	DNS        DNSConfig      `mapstructure:"dns"`
	Auth       AuthConfig     `mapstructure:"auth"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// PlatformConfig seeds the platform settings on first start. Once the store
// holds settings they are changed only through the admin API.
type PlatformConfig struct {
	Owner      string `mapstructure:"owner"`
	FeeBps     uint16 `mapstructure:"feebps"`
	MaxFeeBps  uint16 `mapstructure:"maxfeebps"`
	MinRevenue string `mapstructure:"minrevenue"`
}

type LedgerConfig struct {
	BalanceMode string `mapstructure:"balancemode"`
}

type DNSConfig struct {
	Upstream string `mapstructure:"upstream"`
	DNSSEC   bool   `mapstructure:"dnssec"`
}

type AuthConfig struct {
	MaxSkew time.Duration `mapstructure:"maxskew"`
}

// DefaultDataDir returns ~/.revledger, or ./.revledger if the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".revledger"
	}
	return filepath.Join(home, ".revledger")
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:    DefaultDataDir(),
		ListenAddr: ":8080",
		LogLevel:   "info",
		Store:      StoreBolt,
		Platform: PlatformConfig{
			FeeBps:     250,
			MaxFeeBps:  1000,
			MinRevenue: "0",
		},
		Ledger: LedgerConfig{BalanceMode: BalanceLazy},
		Auth:   AuthConfig{MaxSkew: 5 * time.Minute},
	}
}

// ConfigPath returns the default config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

func settings(cfg Config) map[string]any {
	return map[string]any{
		"datadir":             cfg.DataDir,
		"listen":              cfg.ListenAddr,
		"loglevel":            cfg.LogLevel,
		"store":               cfg.Store,
		"postgres.dsn":        cfg.Postgres.DSN,
		"platform.owner":      cfg.Platform.Owner,
		"platform.feebps":     cfg.Platform.FeeBps,
		"platform.maxfeebps":  cfg.Platform.MaxFeeBps,
		"platform.minrevenue": cfg.Platform.MinRevenue,
		"ledger.balancemode":  cfg.Ledger.BalanceMode,
		"dns.upstream":        cfg.DNS.Upstream,
		"dns.dnssec":          cfg.DNS.DNSSEC,
		"auth.maxskew":        cfg.Auth.MaxSkew.String(),
	}
}

// newViper returns a viper instance seeded with defaults and bound to the
// REVLEDGER_* environment.
func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range settings(DefaultConfig()) {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (Config, error) {
	return decode(newViper())
}

// LoadConfig reads the file at path. Keys missing from the file keep their
// defaults; environment variables override both.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	v := newViper()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return decode(v)
}

// LoadOrDefault loads path if it exists and falls back to FromEnv otherwise.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, ErrConfigNotFound) {
		return FromEnv()
	}
	return cfg, err
}

// SaveConfig writes cfg to path as YAML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	v := viper.New()
	v.SetConfigType("yaml")
	for k, val := range settings(cfg) {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// PlatformSettings converts the platform section into ledger settings.
func (c Config) PlatformSettings() (revshare.Settings, error) {
	if c.Platform.Owner == "" {
		return revshare.Settings{}, ErrMissingOwner
	}
	owner, err := revshare.ParseAddress(c.Platform.Owner)
	if err != nil {
		return revshare.Settings{}, fmt.Errorf("%w: platform.owner: %w", ErrInvalidAddress, err)
	}
	minRevenue, err := parseAmount(c.Platform.MinRevenue)
	if err != nil {
		return revshare.Settings{}, err
	}
	return revshare.Settings{
		Owner:               owner,
		FeeBps:              c.Platform.FeeBps,
		MaxFeeBps:           c.Platform.maxFee(),
		MinRevenueThreshold: *minRevenue,
	}, nil
}

func (p PlatformConfig) maxFee() uint16 {
	if p.MaxFeeBps == 0 {
		return 1000
	}
	return p.MaxFeeBps
}

// Logger builds a logrus logger at the configured level.
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLogLevel, err)
	}
	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

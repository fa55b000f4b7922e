package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress              string
	DatabaseURI             string
	RealtimeAddress         string
	ActivationAddress       string
	AccountID               string
	TierDowngradeOnRedeem   string
	HistoryLimit            int
	ActivationRetryInterval time.Duration
	ActivationMaxAttempts   int
	ReconnectMaxInterval    time.Duration
	ShutdownTimeout         time.Duration
}

const (
	defaultRunAddress              = ":8080"
	defaultTierDowngradePolicy     = "allow"
	defaultHistoryLimit            = 100
	defaultActivationRetryInterval = 5 * time.Second
	defaultActivationMaxAttempts   = 5
	defaultReconnectMaxInterval    = 30 * time.Second
	defaultShutdownTimeout         = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:              getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:             getString(lookup, "DATABASE_URI", ""),
		RealtimeAddress:         getString(lookup, "REALTIME_ADDRESS", ""),
		ActivationAddress:       getString(lookup, "ACTIVATION_ADDRESS", ""),
		AccountID:               getString(lookup, "ACCOUNT_ID", ""),
		TierDowngradeOnRedeem:   getString(lookup, "TIER_DOWNGRADE_ON_REDEEM", defaultTierDowngradePolicy),
		HistoryLimit:            getInt(lookup, "HISTORY_LIMIT", defaultHistoryLimit),
		ActivationRetryInterval: getDuration(lookup, "ACTIVATION_RETRY_INTERVAL", defaultActivationRetryInterval),
		ActivationMaxAttempts:   getInt(lookup, "ACTIVATION_MAX_ATTEMPTS", defaultActivationMaxAttempts),
		ReconnectMaxInterval:    getDuration(lookup, "RECONNECT_MAX_INTERVAL", defaultReconnectMaxInterval),
		ShutdownTimeout:         getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("loyalty", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		retryIntervalStr     = cfg.ActivationRetryInterval.String()
		reconnectIntervalStr = cfg.ReconnectMaxInterval.String()
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RealtimeAddress, "r", cfg.RealtimeAddress, "Realtime channel URL")
	fs.StringVar(&cfg.ActivationAddress, "activation", cfg.ActivationAddress, "Benefit activation service base URL (optional)")
	fs.StringVar(&cfg.AccountID, "account", cfg.AccountID, "Loyalty account identifier served by this instance")
	fs.StringVar(&cfg.TierDowngradeOnRedeem, "tier-downgrade", cfg.TierDowngradeOnRedeem, "Policy when redemption drops below tier threshold (allow|block)")
	fs.IntVar(&cfg.HistoryLimit, "history-limit", cfg.HistoryLimit, "Maximum persisted transactions per account")
	fs.StringVar(&retryIntervalStr, "activation-retry", retryIntervalStr, "Interval between benefit activation retries")
	fs.IntVar(&cfg.ActivationMaxAttempts, "activation-attempts", cfg.ActivationMaxAttempts, "Activation attempts before compensating")
	fs.StringVar(&reconnectIntervalStr, "reconnect-max", reconnectIntervalStr, "Cap for realtime reconnect backoff")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ActivationRetryInterval, err = time.ParseDuration(retryIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid activation retry interval: %w", err)
	}

	if cfg.ReconnectMaxInterval, err = time.ParseDuration(reconnectIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid reconnect max interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}

	if cfg.ActivationRetryInterval <= 0 {
		cfg.ActivationRetryInterval = defaultActivationRetryInterval
	}

	if cfg.ActivationMaxAttempts <= 0 {
		cfg.ActivationMaxAttempts = defaultActivationMaxAttempts
	}

	if cfg.ReconnectMaxInterval <= 0 {
		cfg.ReconnectMaxInterval = defaultReconnectMaxInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.TierDowngradeOnRedeem != "allow" && cfg.TierDowngradeOnRedeem != "block" {
		return nil, fmt.Errorf("tier downgrade policy must be allow or block, got %q", cfg.TierDowngradeOnRedeem)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.RealtimeAddress == "" {
		return nil, fmt.Errorf("realtime channel address must be provided")
	}

	if cfg.AccountID == "" {
		return nil, fmt.Errorf("account identifier must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Package config reads settings from GIFTTERM_* environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"rhystmorgan/giftterm/internal/blockchain"
	"rhystmorgan/giftterm/internal/fhe"
)

const appDir = ".giftterm"

var ErrNoContract = errors.New("registry contract address not configured (set GIFTTERM_CONTRACT)")

type Config struct {
	DataDir         string
	Network         string
	NodeURL         string
	ContractAddress string
	FHEGatewayURL   string
	Timeout         time.Duration
	ConfirmTimeout  time.Duration
	RetryCount      int
	CacheTTL        time.Duration
	SessionTimeout  time.Duration
	Debug           bool
}

// Load reads the environment after applying any .env files found. Missing
// files are ignored; variables already set win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				return nil, fmt.Errorf("load %s: %w", file, err)
			}
		}
	}

	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}

	config := &Config{
		DataDir:         getEnvOrDefault("GIFTTERM_DATA_DIR", dataDir),
		Network:         getEnvOrDefault("GIFTTERM_NETWORK", string(blockchain.Sepolia)),
		NodeURL:         getEnvOrDefault("GIFTTERM_RPC_URL", ""),
		ContractAddress: getEnvOrDefault("GIFTTERM_CONTRACT", ""),
		FHEGatewayURL:   getEnvOrDefault("GIFTTERM_FHE_GATEWAY", fhe.DefaultGatewayURL),
		Timeout:         parseDurationOrDefault("GIFTTERM_TIMEOUT", blockchain.DefaultTimeout),
		ConfirmTimeout:  parseDurationOrDefault("GIFTTERM_CONFIRM_TIMEOUT", blockchain.DefaultConfirmTimeout),
		RetryCount:      parseIntOrDefault("GIFTTERM_RETRY_COUNT", blockchain.DefaultRetryCount),
		CacheTTL:        parseDurationOrDefault("GIFTTERM_CACHE_TTL", 30*time.Second),
		SessionTimeout:  parseDurationOrDefault("GIFTTERM_SESSION_TIMEOUT", 15*time.Minute),
		Debug:           IsDebugEnabled(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, appDir), nil
}

// Validate checks every field that has a fixed shape. The contract address
// may be empty; commands that need it call RequireContract.
func (c *Config) Validate() error {
	switch blockchain.Network(c.Network) {
	case blockchain.MainNet, blockchain.Sepolia, blockchain.Local:
	default:
		return fmt.Errorf("invalid network: %s (must be 'mainnet', 'sepolia' or 'local')", c.Network)
	}

	if c.NodeURL != "" {
		if err := validateURL(c.NodeURL); err != nil {
			return fmt.Errorf("invalid rpc url: %w", err)
		}
	}
	if err := validateURL(c.FHEGatewayURL); err != nil {
		return fmt.Errorf("invalid fhe gateway url: %w", err)
	}

	if c.ContractAddress != "" && !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("invalid contract address: %s", c.ContractAddress)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", c.Timeout)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm timeout must be positive, got: %v", c.ConfirmTimeout)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must be non-negative, got: %d", c.RetryCount)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got: %v", c.CacheTTL)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got: %v", c.SessionTimeout)
	}
	if c.DataDir == "" {
		return errors.New("data directory must be set")
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// RequireContract returns the configured registry address.
func (c *Config) RequireContract() (common.Address, error) {
	if c.ContractAddress == "" {
		return common.Address{}, ErrNoContract
	}
	return common.HexToAddress(c.ContractAddress), nil
}

func (c *Config) BlockchainConfig() blockchain.Config {
	return blockchain.Config{
		Network:        blockchain.Network(c.Network),
		NodeURL:        c.NodeURL,
		Timeout:        c.Timeout,
		RetryCount:     c.RetryCount,
		ConfirmTimeout: c.ConfirmTimeout,
	}
}

func (c *Config) FHEConfig(chainID *big.Int) fhe.Config {
	return fhe.Config{
		URL:     c.FHEGatewayURL,
		Network: c.Network,
		ChainID: chainID,
	}
}

func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "giftterm.log")
}

func (c *Config) AuditDir() string {
	return filepath.Join(c.DataDir, "audit")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func IsDebugEnabled() bool {
	return os.Getenv("GIFTTERM_DEBUG") == "true" || os.Getenv("GIFTTERM_DEBUG") == "1"
}

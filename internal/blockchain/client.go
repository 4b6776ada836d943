package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Backend is the subset of ethclient.Client the application relies on.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type Client struct {
	backend Backend
	config  Config
	logger  *zap.Logger
	mu      sync.RWMutex
	status  NetworkStatus
}

const (
	DefaultMainnetURL     = "https://ethereum-rpc.publicnode.com"
	DefaultSepoliaURL     = "https://ethereum-sepolia-rpc.publicnode.com"
	DefaultLocalURL       = "http://127.0.0.1:8545"
	DefaultTimeout        = 30 * time.Second
	DefaultRetryCount     = 3
	DefaultRetryDelay     = 2 * time.Second
	DefaultConfirmTimeout = 3 * time.Minute
	DefaultPollInterval   = 2 * time.Second
)

func (c *Config) applyDefaults() error {
	if c.NodeURL == "" {
		switch c.Network {
		case MainNet:
			c.NodeURL = DefaultMainnetURL
		case Sepolia:
			c.NodeURL = DefaultSepoliaURL
		case Local:
			c.NodeURL = DefaultLocalURL
		default:
			return fmt.Errorf("unknown network: %s", c.Network)
		}
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.ConfirmTimeout == 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	return nil
}

// Dial connects to the JSON-RPC endpoint described by config.
func Dial(ctx context.Context, config Config, logger *zap.Logger) (*Client, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	ec, err := ethclient.DialContext(dialCtx, config.NodeURL)
	if err != nil {
		return nil, NewNodeUnavailableError(config.NodeURL, err)
	}

	return NewClient(ctx, ec, config, logger)
}

// NewClient wraps an already connected backend and probes it once.
func NewClient(ctx context.Context, backend Backend, config Config, logger *zap.Logger) (*Client, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		backend: backend,
		config:  config,
		logger:  logger.Named("chain"),
		status: NetworkStatus{
			NodeURL:     config.NodeURL,
			LastChecked: time.Now(),
		},
	}

	if err := c.checkConnection(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("connected to network",
		zap.String("network", string(config.Network)),
		zap.String("rpc", config.NodeURL),
		zap.String("chain_id", c.status.ChainID.String()))

	return c, nil
}

func (c *Client) checkConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		c.updateStatus(false, 0, nil)
		return NewNetworkError("failed to connect to network", err)
	}

	height, err := c.backend.BlockNumber(ctx)
	if err != nil {
		c.updateStatus(false, 0, chainID)
		return NewNetworkError("failed to read block height", err)
	}

	c.updateStatus(true, height, chainID)
	return nil
}

func (c *Client) updateStatus(connected bool, blockHeight uint64, chainID *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.Connected = connected
	c.status.BlockHeight = blockHeight
	if chainID != nil {
		c.status.ChainID = new(big.Int).Set(chainID)
	}
	c.status.LastChecked = time.Now()
}

func (c *Client) GetStatus() NetworkStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.status
}

// RefreshStatus re-probes the node and returns the new status.
func (c *Client) RefreshStatus(ctx context.Context) NetworkStatus {
	if err := c.checkConnection(ctx); err != nil {
		c.logger.Warn("network status check failed", zap.Error(err))
	}
	return c.GetStatus()
}

func (c *Client) Backend() Backend {
	return c.backend
}

func (c *Client) ChainID() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.status.ChainID == nil {
		return nil
	}
	return new(big.Int).Set(c.status.ChainID)
}

func (c *Client) Config() Config {
	return c.config
}

// Retry runs fn until it succeeds, fails with a non-retryable error, or the
// configured attempts are exhausted.
func (c *Client) Retry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	attempts := c.config.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ClassifyError(ctx.Err())
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		blockchainErr := ClassifyError(err)
		if !blockchainErr.IsRetryable() {
			return err
		}

		c.logger.Debug("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return lastErr
}

func (c *Client) GetTransactionStatus(ctx context.Context, txHash common.Hash) (ReceiptStatus, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return StatusPending, nil
	}
	if err != nil {
		return "", NewNetworkError("failed to get transaction status", err)
	}

	if receipt.Status == 0 {
		return StatusReverted, nil
	}
	return StatusConfirmed, nil
}

// WaitForConfirmation polls for the receipt of txHash until it is mined, it
// reverts, or the confirm timeout elapses.
func (c *Client) WaitForConfirmation(ctx context.Context, txHash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		status, err := c.GetTransactionStatus(ctx, txHash)
		if err != nil {
			c.logger.Debug("receipt lookup failed", zap.String("tx", txHash.Hex()), zap.Error(err))
		} else {
			switch status {
			case StatusConfirmed:
				c.logger.Info("transaction confirmed", zap.String("tx", txHash.Hex()))
				return nil
			case StatusReverted:
				return NewTransactionFailedError(txHash.Hex(), string(status))
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return ClassifyError(ctx.Err())
			}
			return NewTimeoutError("waiting for transaction confirmation", c.config.ConfirmTimeout)
		case <-ticker.C:
		}
	}
}

func (c *Client) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

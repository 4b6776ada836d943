package fhe

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

const (
	DefaultGatewayURL = "http://127.0.0.1:8645"
	DefaultTimeout    = 2 * time.Minute

	// Gift amounts are encrypted as euint32.
	valueBits = 32
)

type Config struct {
	URL     string
	ChainID *big.Int
	Network string
	Timeout time.Duration
}

// RPCClient implements Client against the gateway's fhe_ namespace.
type RPCClient struct {
	rpc    *rpc.Client
	config Config
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// Dial connects to the gateway. The connection is lazy for HTTP endpoints;
// failures surface on Initialize.
func Dial(ctx context.Context, config Config, logger *zap.Logger) (*RPCClient, error) {
	if config.URL == "" {
		config.URL = DefaultGatewayURL
	}

	c, err := rpc.DialContext(ctx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("dial fhe gateway %s: %w", config.URL, err)
	}
	return NewRPCClient(c, config, logger), nil
}

func NewRPCClient(c *rpc.Client, config Config, logger *zap.Logger) *RPCClient {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCClient{rpc: c, config: config, logger: logger.Named("fhe")}
}

func (c *RPCClient) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	params := InitializeParams{Network: c.config.Network}
	if c.config.ChainID != nil {
		params.ChainID = (*hexutil.Big)(c.config.ChainID)
	}

	var result InitializeResult
	if err := c.rpc.CallContext(ctx, &result, "fhe_initialize", params); err != nil {
		c.logger.Error("fhe initialization failed", zap.Error(err))
		return fmt.Errorf("initialize fhe: %w", err)
	}
	if !result.Ready {
		return errors.New("initialize fhe: gateway not ready")
	}

	c.initialized = true
	c.logger.Info("fhe initialized", zap.String("network", result.Network))
	return nil
}

func (c *RPCClient) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *RPCClient) Encrypt(ctx context.Context, contract, user common.Address, value uint32) (*Encrypted, error) {
	if !c.Initialized() {
		return nil, ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req := EncryptRequest{
		Contract: contract,
		User:     user,
		Value:    hexutil.Uint64(value),
		Bits:     valueBits,
	}

	var result EncryptResult
	if err := c.rpc.CallContext(ctx, &result, "fhe_encrypt", req); err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	if len(result.Handles) == 0 {
		return nil, errors.New("encrypt: gateway returned no handles")
	}

	c.logger.Debug("value encrypted",
		zap.String("contract", contract.Hex()),
		zap.String("handle", result.Handles[0].Hex()))

	return &Encrypted{Handle: result.Handles[0], Proof: result.InputProof}, nil
}

// VerifyDecryption asks the gateway to publicly decrypt handles, then hands
// the encoded clear values and proof to submit. An error from submit aborts
// the verification.
func (c *RPCClient) VerifyDecryption(ctx context.Context, handles []common.Hash, contract common.Address, submit SubmitFunc) (*Decryption, error) {
	if !c.Initialized() {
		return nil, ErrNotInitialized
	}
	if len(handles) == 0 {
		return nil, ErrNoHandles
	}
	if submit == nil {
		return nil, errors.New("verify decryption: submit callback is required")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result PublicDecryptResult
	req := DecryptRequest{Handles: handles, Contract: contract}
	if err := c.rpc.CallContext(callCtx, &result, "fhe_publicDecrypt", req); err != nil {
		return nil, fmt.Errorf("public decrypt: %w", err)
	}

	decryption := &Decryption{
		ClearValues:           make(map[common.Hash]*big.Int, len(result.ClearValues)),
		AbiEncodedClearValues: result.AbiEncodedClearValues,
		Proof:                 result.DecryptionProof,
	}
	for handle, value := range result.ClearValues {
		if value != nil {
			decryption.ClearValues[handle] = value.ToInt()
		}
	}
	for _, handle := range handles {
		if _, ok := decryption.ClearValues[handle]; !ok {
			return nil, fmt.Errorf("public decrypt: no clear value for handle %s", handle.Hex())
		}
	}

	if err := submit(ctx, decryption.AbiEncodedClearValues, decryption.Proof); err != nil {
		return nil, err
	}

	c.logger.Info("decryption verified",
		zap.String("contract", contract.Hex()),
		zap.Int("handles", len(handles)))

	return decryption, nil
}

func (c *RPCClient) Close() {
	c.rpc.Close()
}

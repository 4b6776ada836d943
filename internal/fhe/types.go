// Package fhe talks to the FHE gateway, the sidecar that hosts the relayer
// SDK. Ciphertexts never leave the gateway; this package only moves handles,
// proofs and clear values.
package fhe

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrNotInitialized = errors.New("fhe client not initialized")
	ErrNoHandles      = errors.New("no ciphertext handles to decrypt")
)

// Client is the narrow surface the registry needs from the FHE SDK.
type Client interface {
	// Initialize is idempotent and must succeed before Encrypt or
	// VerifyDecryption is called.
	Initialize(ctx context.Context) error
	Initialized() bool
	Encrypt(ctx context.Context, contract, user common.Address, value uint32) (*Encrypted, error)
	VerifyDecryption(ctx context.Context, handles []common.Hash, contract common.Address, submit SubmitFunc) (*Decryption, error)
}

// SubmitFunc pushes a decryption result on chain and returns once the
// transaction carrying it has been confirmed.
type SubmitFunc func(ctx context.Context, abiEncodedClearValues, proof []byte) error

// Encrypted is an input ciphertext registered with the gateway.
type Encrypted struct {
	Handle common.Hash
	Proof  []byte
}

// Decryption is the outcome of a public decryption round trip.
type Decryption struct {
	ClearValues           map[common.Hash]*big.Int
	AbiEncodedClearValues []byte
	Proof                 []byte
}

// Value returns the clear value for handle, if the gateway returned one.
func (d *Decryption) Value(handle common.Hash) (*big.Int, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.ClearValues[handle]
	return v, ok
}

// Wire types for the fhe_ JSON-RPC namespace.

type InitializeParams struct {
	ChainID *hexutil.Big `json:"chainId,omitempty"`
	Network string       `json:"network,omitempty"`
}

type InitializeResult struct {
	Ready   bool   `json:"ready"`
	Network string `json:"network"`
}

type EncryptRequest struct {
	Contract common.Address `json:"contractAddress"`
	User     common.Address `json:"userAddress"`
	Value    hexutil.Uint64 `json:"value"`
	Bits     int            `json:"bits"`
}

type EncryptResult struct {
	Handles    []common.Hash `json:"handles"`
	InputProof hexutil.Bytes `json:"inputProof"`
}

type DecryptRequest struct {
	Handles  []common.Hash  `json:"handles"`
	Contract common.Address `json:"contractAddress"`
}

type PublicDecryptResult struct {
	ClearValues           map[common.Hash]*hexutil.Big `json:"clearValues"`
	AbiEncodedClearValues hexutil.Bytes                `json:"abiEncodedClearValues"`
	DecryptionProof       hexutil.Bytes                `json:"decryptionProof"`
}

// Package chaintest provides an in-memory stand-in for an Ethereum JSON-RPC
// node, for tests that exercise contract calls without a network.
package chaintest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CallHandler answers an eth_call; data is the full calldata.
type CallHandler func(to common.Address, data []byte) ([]byte, error)

// Backend implements blockchain.Backend. Zero values behave like a healthy
// node holding code at every address; every sent transaction is mined
// successfully unless Revert says otherwise.
type Backend struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	Height       uint64
	Code         []byte
	Call         CallHandler
	EstimateErr  error
	SendErr      error
	ChainIDErr   error

	// Revert decides whether a mined transaction gets a failed receipt.
	Revert func(tx *types.Transaction) bool
	// OnSend observes every accepted transaction.
	OnSend func(tx *types.Transaction)
	// PendingPolls is how many receipt lookups answer NotFound before the
	// receipt becomes available.
	PendingPolls int

	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	polls    map[common.Hash]int
	nonce    uint64
}

func NewBackend() *Backend {
	return &Backend{
		ChainIDValue: big.NewInt(11155111),
		Height:       1,
		Code:         []byte{0x60, 0x80},
	}
}

func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*types.Transaction, len(b.sent))
	copy(out, b.sent)
	return out
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	if b.ChainIDErr != nil {
		return nil, b.ChainIDErr
	}
	return new(big.Int).Set(b.ChainIDValue), nil
}

func (b *Backend) BlockNumber(ctx context.Context) (uint64, error) {
	return b.Height, nil
}

func (b *Backend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return b.Code, nil
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.Call == nil {
		return nil, nil
	}
	to := common.Address{}
	if call.To != nil {
		to = *call.To
	}
	return b.Call(to, call.Data)
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: new(big.Int).SetUint64(b.Height)}, nil
}

func (b *Backend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return b.Code, nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *Backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return 250_000, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if b.SendErr != nil {
		return b.SendErr
	}

	status := types.ReceiptStatusSuccessful
	if b.Revert != nil && b.Revert(tx) {
		status = types.ReceiptStatusFailed
	}

	b.mu.Lock()
	if b.receipts == nil {
		b.receipts = make(map[common.Hash]*types.Receipt)
		b.polls = make(map[common.Hash]int)
	}
	b.sent = append(b.sent, tx)
	b.nonce++
	b.Height++
	b.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(b.Height),
	}
	b.mu.Unlock()

	if b.OnSend != nil {
		b.OnSend(tx)
	}
	return nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if b.polls[txHash] < b.PendingPolls {
		b.polls[txHash]++
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (b *Backend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *Backend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, ethereum.NotFound
}

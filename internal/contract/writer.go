package contract

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrUserRejected is returned when the approver refuses to sign.
var ErrUserRejected = errors.New("user rejected transaction")

// ApprovalRequest describes a transaction waiting for the user's signature.
type ApprovalRequest struct {
	From    common.Address
	To      common.Address
	Method  string
	Summary string
	Gas     uint64
	ChainID *big.Int
}

// Approver decides whether a transaction may be signed. A nil error means
// approved; a refusal should wrap ErrUserRejected.
type Approver interface {
	Approve(ctx context.Context, req ApprovalRequest) error
}

type ApproveFunc func(ctx context.Context, req ApprovalRequest) error

func (f ApproveFunc) Approve(ctx context.Context, req ApprovalRequest) error {
	return f(ctx, req)
}

// AutoApprove signs everything. Used by non-interactive commands run with --yes.
var AutoApprove = ApproveFunc(func(context.Context, ApprovalRequest) error { return nil })

// Confirmer waits for a sent transaction to be mined. *blockchain.Client
// satisfies it.
type Confirmer interface {
	WaitForConfirmation(ctx context.Context, txHash common.Hash) error
}

// CreateArgs are the createBusinessData arguments. EncryptedValue and Proof
// come from the FHE gateway.
type CreateArgs struct {
	ID             string
	Category       string
	EncryptedValue common.Hash
	Proof          []byte
	PublicValue1   *big.Int
	PublicValue2   *big.Int
	Description    string
}

// Tx is a submitted transaction.
type Tx struct {
	Hash common.Hash
	wait func(ctx context.Context) error
}

// NewTx builds a Tx whose Wait delegates to wait.
func NewTx(hash common.Hash, wait func(ctx context.Context) error) *Tx {
	return &Tx{Hash: hash, wait: wait}
}

// Wait blocks until the transaction is confirmed or fails.
func (t *Tx) Wait(ctx context.Context) error {
	if t.wait == nil {
		return nil
	}
	return t.wait(ctx)
}

type Writer struct {
	address   common.Address
	from      common.Address
	contract  *bind.BoundContract
	key       *ecdsa.PrivateKey
	chainID   *big.Int
	approver  Approver
	confirmer Confirmer
}

func NewWriter(
	address common.Address,
	backend bind.ContractBackend,
	key *ecdsa.PrivateKey,
	chainID *big.Int,
	approver Approver,
	confirmer Confirmer,
) (*Writer, error) {
	if key == nil {
		return nil, errors.New("signing key is required")
	}
	if chainID == nil {
		return nil, errors.New("chain id is required")
	}
	if approver == nil {
		approver = AutoApprove
	}

	parsed, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}

	return &Writer{
		address:   address,
		from:      crypto.PubkeyToAddress(key.PublicKey),
		contract:  bind.NewBoundContract(address, parsed, backend, backend, backend),
		key:       key,
		chainID:   new(big.Int).Set(chainID),
		approver:  approver,
		confirmer: confirmer,
	}, nil
}

func (w *Writer) Address() common.Address {
	return w.address
}

// From is the account that signs every transaction.
func (w *Writer) From() common.Address {
	return w.from
}

func (w *Writer) transactOpts(ctx context.Context, method, summary string) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, w.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	sign := opts.Signer
	opts.Signer = func(from common.Address, tx *types.Transaction) (*types.Transaction, error) {
		req := ApprovalRequest{
			From:    from,
			To:      w.address,
			Method:  method,
			Summary: summary,
			Gas:     tx.Gas(),
			ChainID: w.chainID,
		}
		if err := w.approver.Approve(ctx, req); err != nil {
			return nil, err
		}
		return sign(from, tx)
	}
	return opts, nil
}

func (w *Writer) transact(ctx context.Context, method, summary string, args ...interface{}) (*Tx, error) {
	opts, err := w.transactOpts(ctx, method, summary)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	tx, err := w.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	hash := tx.Hash()
	return NewTx(hash, func(ctx context.Context) error {
		if w.confirmer == nil {
			return nil
		}
		return w.confirmer.WaitForConfirmation(ctx, hash)
	}), nil
}

func (w *Writer) CreateBusinessData(ctx context.Context, args CreateArgs) (*Tx, error) {
	reserved1, reserved2 := args.PublicValue1, args.PublicValue2
	if reserved1 == nil {
		reserved1 = new(big.Int)
	}
	if reserved2 == nil {
		reserved2 = new(big.Int)
	}

	return w.transact(ctx, "createBusinessData",
		fmt.Sprintf("Create record %s", args.ID),
		args.ID,
		args.Category,
		[32]byte(args.EncryptedValue),
		args.Proof,
		reserved1,
		reserved2,
		args.Description,
	)
}

// VerifyDecryption submits the gateway's clear value and proof for id so the
// contract can store the decrypted amount.
func (w *Writer) VerifyDecryption(ctx context.Context, id string, clearValues, proof []byte) (*Tx, error) {
	return w.transact(ctx, "verifyDecryption",
		fmt.Sprintf("Verify decryption of %s", id),
		id, clearValues, proof)
}

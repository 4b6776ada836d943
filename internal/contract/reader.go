// Package contract binds the gift registry contract over go-ethereum's
// abi/bind package.
package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// BusinessData is one record as stored on chain. DecryptedValue is only
// meaningful when IsVerified is set.
type BusinessData struct {
	Name           string
	PublicValue1   *big.Int
	PublicValue2   *big.Int
	Description    string
	Creator        common.Address
	Timestamp      *big.Int
	DecryptedValue uint32
	IsVerified     bool
}

// Retrier re-runs read calls that fail for transient reasons.
// *blockchain.Client satisfies it.
type Retrier interface {
	Retry(ctx context.Context, operation string, fn func(ctx context.Context) error) error
}

type Reader struct {
	address  common.Address
	contract *bind.BoundContract
	retrier  Retrier
}

// NewReader binds the read-only methods of the registry at address.
// retrier may be nil, in which case each call is attempted once.
func NewReader(address common.Address, caller bind.ContractCaller, retrier Retrier) (*Reader, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}

	return &Reader{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, caller, nil, nil),
		retrier:  retrier,
	}, nil
}

func (r *Reader) Address() common.Address {
	return r.address
}

func (r *Reader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	do := func(ctx context.Context) error {
		out = nil
		return r.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	}

	var err error
	if r.retrier != nil {
		err = r.retrier.Retry(ctx, method, do)
	} else {
		err = do(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return out, nil
}

func (r *Reader) GetAllBusinessIds(ctx context.Context) ([]string, error) {
	out, err := r.call(ctx, "getAllBusinessIds")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]string)).(*[]string), nil
}

func (r *Reader) GetBusinessData(ctx context.Context, id string) (*BusinessData, error) {
	out, err := r.call(ctx, "getBusinessData", id)
	if err != nil {
		return nil, err
	}
	if len(out) != 8 {
		return nil, fmt.Errorf("getBusinessData: unexpected output count %d", len(out))
	}

	return &BusinessData{
		Name:           *abi.ConvertType(out[0], new(string)).(*string),
		PublicValue1:   *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		PublicValue2:   *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		Description:    *abi.ConvertType(out[3], new(string)).(*string),
		Creator:        *abi.ConvertType(out[4], new(common.Address)).(*common.Address),
		Timestamp:      *abi.ConvertType(out[5], new(*big.Int)).(**big.Int),
		DecryptedValue: *abi.ConvertType(out[6], new(uint32)).(*uint32),
		IsVerified:     *abi.ConvertType(out[7], new(bool)).(*bool),
	}, nil
}

// GetEncryptedValue returns the ciphertext handle stored for id.
func (r *Reader) GetEncryptedValue(ctx context.Context, id string) (common.Hash, error) {
	out, err := r.call(ctx, "getEncryptedValue", id)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Hash(*abi.ConvertType(out[0], new([32]byte)).(*[32]byte)), nil
}

func (r *Reader) IsAvailable(ctx context.Context) (bool, error) {
	out, err := r.call(ctx, "isAvailable")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

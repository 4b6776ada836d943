// Package wallet stores signing accounts in an encrypted keystore and keeps
// the unlocked one in a session that expires when idle.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darrenvechain/thorgo/crypto/hdwallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"rhystmorgan/giftterm/internal/utils"
)

// DerivationPath is the first Ethereum account of a BIP-44 wallet.
const DerivationPath = "m/44'/60'/0'/0/0"

var (
	ErrInvalidMnemonic   = errors.New("invalid mnemonic phrase")
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

type Account struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Address    common.Address    `json:"address"`
	Mnemonic   string            `json:"-"`
	PrivateKey *ecdsa.PrivateKey `json:"-"`
	CreatedAt  time.Time         `json:"created_at"`
}

// GenerateMnemonic returns a fresh 12 word phrase.
func GenerateMnemonic() (string, error) {
	return hdwallet.NewMnemonic(128)
}

func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// FromMnemonic derives the account at DerivationPath.
func FromMnemonic(name, mnemonic string) (*Account, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	path, err := hdwallet.ParseDerivationPath(DerivationPath)
	if err != nil {
		return nil, err
	}

	hd, err := hdwallet.FromMnemonicAt(mnemonic, path)
	if err != nil {
		return nil, fmt.Errorf("derive account: %w", err)
	}

	key, err := hd.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("derive account: %w", err)
	}

	account := newAccount(name, key)
	account.Mnemonic = mnemonic
	return account, nil
}

// FromPrivateKey imports a hex encoded secp256k1 key, with or without 0x.
func FromPrivateKey(name, hexKey string) (*Account, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return newAccount(name, key), nil
}

// ErrEmptySecret is returned by FromSecret for blank input.
var ErrEmptySecret = errors.New("enter a mnemonic phrase or a private key")

// FromSecret imports a pasted secret. A 64 digit hex string is a private
// key; anything else must be a valid mnemonic.
func FromSecret(name, secret string) (*Account, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	if utils.ClassifySecret(secret) {
		return FromPrivateKey(name, secret)
	}
	return FromMnemonic(name, secret)
}

func newAccount(name string, key *ecdsa.PrivateKey) *Account {
	return &Account{
		ID:         uuid.NewString(),
		Name:       name,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
		CreatedAt:  time.Now(),
	}
}

// Wipe zeroes the secret scalar and forgets the mnemonic.
func (a *Account) Wipe() {
	if a == nil {
		return
	}
	if a.PrivateKey != nil && a.PrivateKey.D != nil {
		a.PrivateKey.D.SetInt64(0)
	}
	a.PrivateKey = nil
	a.Mnemonic = ""
}

// secrets is the encrypted part of a stored account.
type secrets struct {
	Mnemonic   string `json:"mnemonic,omitempty"`
	PrivateKey string `json:"private_key"`
}

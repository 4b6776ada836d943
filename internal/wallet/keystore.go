package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const walletsFile = "wallets.json"

var ErrAccountNotFound = errors.New("wallet not found")

// StoredAccount is the on-disk form of an account. Only Data is secret.
type StoredAccount struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Address   common.Address `json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	Data      *SealedSecret  `json:"data"`
}

type walletFile struct {
	Wallets []StoredAccount `json:"wallets"`
}

// Keystore keeps accounts in a single JSON file under the data directory.
type Keystore struct {
	dataDir string
	mu      sync.Mutex
}

func NewKeystore(dataDir string) (*Keystore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Keystore{dataDir: dataDir}, nil
}

func (k *Keystore) path() string {
	return filepath.Join(k.dataDir, walletsFile)
}

// Save encrypts the account's secrets with password and stores it,
// replacing any account with the same ID.
func (k *Keystore) Save(account *Account, password string) error {
	if account.PrivateKey == nil {
		return errors.New("account has no private key")
	}
	if issues := CheckPassword(password); len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrWeakPassword, issues[0])
	}

	plain, err := json.Marshal(secrets{
		Mnemonic:   account.Mnemonic,
		PrivateKey: common.Bytes2Hex(crypto.FromECDSA(account.PrivateKey)),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	data, err := Seal(plain, password, account.Address)
	if err != nil {
		return fmt.Errorf("failed to encrypt wallet: %w", err)
	}

	stored := StoredAccount{
		ID:        account.ID,
		Name:      account.Name,
		Address:   account.Address,
		CreatedAt: account.CreatedAt,
		Data:      data,
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	file, err := k.load()
	if err != nil {
		return err
	}

	for i, existing := range file.Wallets {
		if existing.ID == account.ID {
			file.Wallets[i] = stored
			return k.save(file)
		}
		if existing.Address == account.Address {
			return fmt.Errorf("wallet %s already holds address %s", existing.Name, account.Address.Hex())
		}
	}

	file.Wallets = append(file.Wallets, stored)
	return k.save(file)
}

// Unlock decrypts the account with id.
func (k *Keystore) Unlock(id, password string) (*Account, error) {
	stored, err := k.Get(id)
	if err != nil {
		return nil, err
	}

	plain, err := Open(stored.Data, password, stored.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet: %w", err)
	}

	var s secrets
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	key, err := crypto.HexToECDSA(s.PrivateKey)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	if crypto.PubkeyToAddress(key.PublicKey) != stored.Address {
		return nil, errors.New("stored key does not match wallet address")
	}

	return &Account{
		ID:         stored.ID,
		Name:       stored.Name,
		Address:    stored.Address,
		Mnemonic:   s.Mnemonic,
		PrivateKey: key,
		CreatedAt:  stored.CreatedAt,
	}, nil
}

func (k *Keystore) List() ([]StoredAccount, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	file, err := k.load()
	if err != nil {
		return nil, err
	}
	return file.Wallets, nil
}

func (k *Keystore) Get(id string) (*StoredAccount, error) {
	wallets, err := k.List()
	if err != nil {
		return nil, err
	}
	for i := range wallets {
		if wallets[i].ID == id {
			return &wallets[i], nil
		}
	}
	return nil, ErrAccountNotFound
}

// Find resolves a wallet by ID, name or address, in that order.
func (k *Keystore) Find(ref string) (*StoredAccount, error) {
	wallets, err := k.List()
	if err != nil {
		return nil, err
	}

	for i := range wallets {
		if wallets[i].ID == ref {
			return &wallets[i], nil
		}
	}
	for i := range wallets {
		if strings.EqualFold(wallets[i].Name, ref) {
			return &wallets[i], nil
		}
	}
	if common.IsHexAddress(ref) {
		addr := common.HexToAddress(ref)
		for i := range wallets {
			if wallets[i].Address == addr {
				return &wallets[i], nil
			}
		}
	}
	return nil, ErrAccountNotFound
}

func (k *Keystore) Delete(id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	file, err := k.load()
	if err != nil {
		return err
	}

	for i, stored := range file.Wallets {
		if stored.ID == id {
			file.Wallets = append(file.Wallets[:i], file.Wallets[i+1:]...)
			return k.save(file)
		}
	}
	return ErrAccountNotFound
}

func (k *Keystore) load() (*walletFile, error) {
	data, err := os.ReadFile(k.path())
	if errors.Is(err, os.ErrNotExist) {
		return &walletFile{Wallets: []StoredAccount{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallets file: %w", err)
	}

	var file walletFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet storage: %w", err)
	}
	return &file, nil
}

func (k *Keystore) save(file *walletFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet storage: %w", err)
	}

	if err := os.WriteFile(k.path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write wallets file: %w", err)
	}
	return nil
}

package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/pbkdf2"
)

// sealVersion 1 binds the ciphertext to the wallet address. Version 0
// envelopes carry no binding and are still opened.
const sealVersion = 1

const (
	keyLength         = 32
	saltLength        = 32
	defaultIterations = 100_000
)

var (
	ErrInvalidPassword = errors.New("invalid password or corrupted data")
	ErrSealVersion     = errors.New("unsupported keystore envelope version")
)

// SealedSecret is a wallet secret sealed with AES-GCM under a PBKDF2-SHA256
// key. The KDF cost travels with the envelope so it can be raised without
// breaking existing files.
type SealedSecret struct {
	Version    int    `json:"version,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func (s *SealedSecret) iterations() int {
	if s.Iterations <= 0 {
		return defaultIterations
	}
	return s.Iterations
}

// binding is the additional data authenticated with the secret.
func (s *SealedSecret) binding(owner common.Address) []byte {
	if s.Version == 0 {
		return nil
	}
	return owner.Bytes()
}

func (s *SealedSecret) aead(password string) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), s.Salt, s.iterations(), keyLength, sha256.New)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return buf, nil
}

// Seal encrypts plain for the wallet at owner. Opening it under another
// address fails.
func Seal(plain []byte, password string, owner common.Address) (*SealedSecret, error) {
	salt, err := randomBytes(saltLength)
	if err != nil {
		return nil, err
	}
	sealed := &SealedSecret{
		Version:    sealVersion,
		Iterations: defaultIterations,
		Salt:       salt,
	}

	aead, err := sealed.aead(password)
	if err != nil {
		return nil, err
	}
	if sealed.Nonce, err = randomBytes(aead.NonceSize()); err != nil {
		return nil, err
	}
	sealed.Ciphertext = aead.Seal(nil, sealed.Nonce, plain, sealed.binding(owner))
	return sealed, nil
}

// Open reverses Seal. A wrong password, a tampered envelope and a wrong
// owner all report ErrInvalidPassword.
func Open(sealed *SealedSecret, password string, owner common.Address) ([]byte, error) {
	if sealed == nil {
		return nil, errors.New("sealed secret is nil")
	}
	if sealed.Version > sealVersion {
		return nil, fmt.Errorf("%w: %d", ErrSealVersion, sealed.Version)
	}

	aead, err := sealed.aead(password)
	if err != nil {
		return nil, err
	}
	if len(sealed.Nonce) != aead.NonceSize() {
		return nil, ErrInvalidPassword
	}

	plain, err := aead.Open(nil, sealed.Nonce, sealed.Ciphertext, sealed.binding(owner))
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plain, nil
}

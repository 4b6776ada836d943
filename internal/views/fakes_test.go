package views

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"rhystmorgan/giftterm/internal/contract"
	"rhystmorgan/giftterm/internal/fhe"
	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/wallet"
)

const (
	testPassword = "hunter22"
	testKey      = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	otherGuest   = common.HexToAddress("0x1234000000000000000000000000000000005678")
)

type fakeChain struct {
	mu        sync.Mutex
	ids       []string
	records   map[string]*contract.BusinessData
	handles   map[string]common.Hash
	from      common.Address
	createErr error
	available bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		records:   make(map[string]*contract.BusinessData),
		handles:   make(map[string]common.Hash),
		available: true,
	}
}

func (c *fakeChain) add(id string, data contract.BusinessData, value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	c.records[id] = &data
	c.handles[id] = common.BigToHash(big.NewInt(int64(value)))
}

func (c *fakeChain) record(id string) contract.BusinessData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.records[id]
}

// settle marks a record verified as if another wallet had decrypted it.
func (c *fakeChain) settle(id string, value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[id].IsVerified = true
	c.records[id].DecryptedValue = value
}

func (c *fakeChain) Address() common.Address { return testContract }

func (c *fakeChain) GetAllBusinessIds(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...), nil
}

func (c *fakeChain) GetBusinessData(ctx context.Context, id string) (*contract.BusinessData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.records[id]
	if !ok {
		return nil, errors.New("execution reverted: unknown id")
	}
	out := *data
	return &out, nil
}

func (c *fakeChain) GetEncryptedValue(ctx context.Context, id string) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handles[id], nil
}

func (c *fakeChain) IsAvailable(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available, nil
}

func (c *fakeChain) From() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.from
}

func (c *fakeChain) CreateBusinessData(ctx context.Context, args contract.CreateArgs) (*contract.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.ids = append(c.ids, args.ID)
	c.records[args.ID] = &contract.BusinessData{
		Name:        args.Category,
		Description: args.Description,
		Creator:     c.from,
		Timestamp:   big.NewInt(1_700_000_000),
	}
	c.handles[args.ID] = args.EncryptedValue
	return contract.NewTx(common.BytesToHash([]byte(args.ID)), nil), nil
}

func (c *fakeChain) VerifyDecryption(ctx context.Context, id string, clearValues, proof []byte) (*contract.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data := c.records[id]
	data.IsVerified = true
	data.DecryptedValue = uint32(new(big.Int).SetBytes(clearValues).Uint64())
	return contract.NewTx(common.BytesToHash([]byte("verify-"+id)), nil), nil
}

// fakeFHE keeps the clear value in the handle.
type fakeFHE struct {
	mu       sync.Mutex
	initErr  error
	ready    bool
	decrypts int
}

func (f *fakeFHE) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initErr != nil {
		return f.initErr
	}
	f.ready = true
	return nil
}

func (f *fakeFHE) Initialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeFHE) Encrypt(ctx context.Context, contractAddr, user common.Address, value uint32) (*fhe.Encrypted, error) {
	return &fhe.Encrypted{Handle: common.BigToHash(big.NewInt(int64(value))), Proof: []byte{0x01}}, nil
}

func (f *fakeFHE) VerifyDecryption(ctx context.Context, handles []common.Hash, contractAddr common.Address, submit fhe.SubmitFunc) (*fhe.Decryption, error) {
	f.mu.Lock()
	f.decrypts++
	f.mu.Unlock()

	values := map[common.Hash]*big.Int{handles[0]: handles[0].Big()}
	if err := submit(ctx, handles[0].Bytes(), []byte{0x02}); err != nil {
		return nil, err
	}
	return &fhe.Decryption{ClearValues: values, AbiEncodedClearValues: handles[0].Bytes()}, nil
}

func (f *fakeFHE) setInitErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initErr = err
}

func (f *fakeFHE) decryptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decrypts
}

type harness struct {
	chain    *fakeChain
	fhe      *fakeFHE
	keystore *wallet.Keystore
	sessions *wallet.SessionManager
	broker   *wallet.ApprovalBroker
	stored   wallet.StoredAccount
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	keystore, err := wallet.NewKeystore(t.TempDir())
	require.NoError(t, err)
	account, err := wallet.FromPrivateKey("Guest", testKey)
	require.NoError(t, err)
	require.NoError(t, keystore.Save(account, testPassword))
	stored, err := keystore.Get(account.ID)
	require.NoError(t, err)

	sessions := wallet.NewSessionManager(wallet.SessionConfig{Timeout: time.Hour, CheckInterval: time.Hour})
	t.Cleanup(sessions.Shutdown)

	chain := newFakeChain()
	chain.add("gift-1", contract.BusinessData{
		Name:           registry.Category,
		Description:    "Best wishes",
		Creator:        otherGuest,
		Timestamp:      big.NewInt(1_690_000_000),
		IsVerified:     true,
		DecryptedValue: 250,
	}, 250)
	chain.add("gift-2", contract.BusinessData{
		Name:        registry.Category,
		Description: "Congrats on the wedding",
		Creator:     otherGuest,
		Timestamp:   big.NewInt(1_695_000_000),
	}, 300)

	return &harness{
		chain:    chain,
		fhe:      &fakeFHE{},
		keystore: keystore,
		sessions: sessions,
		broker:   wallet.NewApprovalBroker(),
		stored:   *stored,
	}
}

func (h *harness) connect(ctx context.Context, account *wallet.Account) (*registry.Service, error) {
	h.chain.mu.Lock()
	h.chain.from = account.Address
	h.chain.mu.Unlock()

	return registry.NewService(registry.Options{
		Reader: h.chain,
		Writer: h.chain,
		FHE:    h.fhe,
		Cache:  registry.NewRecordCache(time.Minute),
	}), nil
}

func (h *harness) app(t *testing.T) AppModel {
	t.Helper()

	app, err := NewAppModel(Options{
		Keystore: h.keystore,
		Sessions: h.sessions,
		Broker:   h.broker,
		Connect:  h.connect,
		Network:  "local",
	})
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)

	m, _ := update(t, *app, tea.WindowSizeMsg{Width: 160, Height: 48})
	return m
}

// connected returns an app that has unlocked the stored wallet and loaded
// the registry.
func (h *harness) connected(t *testing.T) AppModel {
	t.Helper()

	account, err := h.keystore.Unlock(h.stored.ID, testPassword)
	require.NoError(t, err)

	m, cmd := update(t, h.app(t), WalletUnlockedMsg{Account: account})
	m, cmd = update(t, m, expect[connectedMsg](t, cmd))
	require.Equal(t, registry.Initializing, m.machine.State())
	m, cmd = update(t, m, expect[initResultMsg](t, cmd))
	require.Equal(t, registry.Loading, m.machine.State())
	m, _ = update(t, m, expect[giftsLoadedMsg](t, cmd))
	require.Equal(t, registry.Ready, m.machine.State())
	return m
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	app, ok := next.(AppModel)
	require.True(t, ok)
	return app, cmd
}

// expect runs cmd, expanding batches, and returns the first message of type
// T. Commands that block, like timers and listeners, are left running.
func expect[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	require.NotNil(t, cmd, "expected a command")

	out := make(chan tea.Msg, 64)
	var run func(c tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, inner := range batch {
					run(inner)
				}
				return
			}
			select {
			case out <- msg:
			default:
			}
		}()
	}
	run(cmd)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-out:
			if typed, ok := msg.(T); ok {
				return typed
			}
		case <-deadline:
			var zero T
			t.Fatalf("no %T produced", zero)
			return zero
		}
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
	sendKey  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

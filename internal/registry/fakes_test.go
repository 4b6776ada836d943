package registry

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"rhystmorgan/giftterm/internal/audit"
	"rhystmorgan/giftterm/internal/contract"
	"rhystmorgan/giftterm/internal/fhe"
)

var (
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testAccount  = common.HexToAddress("0xAbCd00000000000000000000000000000000ef12")
)

type fakeReader struct {
	mu        sync.Mutex
	ids       []string
	records   map[string]*contract.BusinessData
	handles   map[string]common.Hash
	failing   map[string]bool
	listErr   error
	available bool
	detailHit int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		records:   make(map[string]*contract.BusinessData),
		handles:   make(map[string]common.Hash),
		failing:   make(map[string]bool),
		available: true,
	}
}

func (r *fakeReader) add(id string, data contract.BusinessData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.records[id] = &data
}

func (r *fakeReader) Address() common.Address { return testContract }

func (r *fakeReader) GetAllBusinessIds(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]string(nil), r.ids...), nil
}

func (r *fakeReader) GetBusinessData(ctx context.Context, id string) (*contract.BusinessData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detailHit++
	if r.failing[id] {
		return nil, errors.New("execution reverted: bad record")
	}
	data, ok := r.records[id]
	if !ok {
		return nil, errors.New("execution reverted: unknown id")
	}
	out := *data
	return &out, nil
}

func (r *fakeReader) GetEncryptedValue(ctx context.Context, id string) (common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[id], nil
}

func (r *fakeReader) IsAvailable(ctx context.Context) (bool, error) {
	return r.available, nil
}

func (r *fakeReader) hits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detailHit
}

// fakeWriter mines transactions straight into the fake reader.
type fakeWriter struct {
	reader    *fakeReader
	from      common.Address
	createErr error
	verifyErr error
	// racedBy, when set, lands another verification before verifyErr is
	// returned.
	racedBy   uint32
	verifies  int
	created   []contract.CreateArgs
	timestamp int64
}

func (w *fakeWriter) From() common.Address { return w.from }

func (w *fakeWriter) CreateBusinessData(ctx context.Context, args contract.CreateArgs) (*contract.Tx, error) {
	if w.createErr != nil {
		return nil, w.createErr
	}
	w.created = append(w.created, args)
	w.reader.add(args.ID, contract.BusinessData{
		Name:         args.Category,
		PublicValue1: args.PublicValue1,
		PublicValue2: args.PublicValue2,
		Description:  args.Description,
		Creator:      w.from,
		Timestamp:    big.NewInt(w.timestamp),
	})
	w.reader.mu.Lock()
	w.reader.handles[args.ID] = args.EncryptedValue
	w.reader.mu.Unlock()
	return contract.NewTx(common.BytesToHash([]byte(args.ID)), nil), nil
}

func (w *fakeWriter) VerifyDecryption(ctx context.Context, id string, clearValues, proof []byte) (*contract.Tx, error) {
	w.verifies++
	if w.verifyErr != nil {
		if w.racedBy != 0 {
			w.reader.mu.Lock()
			w.reader.records[id].IsVerified = true
			w.reader.records[id].DecryptedValue = w.racedBy
			w.reader.mu.Unlock()
		}
		return nil, w.verifyErr
	}
	value := new(big.Int).SetBytes(clearValues)

	w.reader.mu.Lock()
	data := w.reader.records[id]
	data.IsVerified = true
	data.DecryptedValue = uint32(value.Uint64())
	w.reader.mu.Unlock()

	return contract.NewTx(common.BytesToHash([]byte("verify-"+id)), nil), nil
}

// fakeFHE "encrypts" by storing the clear value in the handle.
type fakeFHE struct {
	initialized bool
	initErr     error
	inits       int
	encrypts    int
	decrypts    int
	decryptErr  error
}

func (f *fakeFHE) Initialize(ctx context.Context) error {
	f.inits++
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeFHE) Initialized() bool { return f.initialized }

func (f *fakeFHE) Encrypt(ctx context.Context, contractAddr, user common.Address, value uint32) (*fhe.Encrypted, error) {
	if !f.initialized {
		return nil, fhe.ErrNotInitialized
	}
	f.encrypts++
	return &fhe.Encrypted{
		Handle: common.BigToHash(new(big.Int).SetUint64(uint64(value))),
		Proof:  []byte{0x01},
	}, nil
}

func (f *fakeFHE) VerifyDecryption(ctx context.Context, handles []common.Hash, contractAddr common.Address, submit fhe.SubmitFunc) (*fhe.Decryption, error) {
	if !f.initialized {
		return nil, fhe.ErrNotInitialized
	}
	f.decrypts++
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}

	values := make(map[common.Hash]*big.Int, len(handles))
	for _, h := range handles {
		values[h] = h.Big()
	}
	encoded := handles[0].Bytes()
	if err := submit(ctx, encoded, []byte{0x02}); err != nil {
		return nil, err
	}
	return &fhe.Decryption{ClearValues: values, AbiEncodedClearValues: encoded, Proof: []byte{0x02}}, nil
}

type fakeJournal struct {
	actions []string
}

func (j *fakeJournal) LogGiftAction(action audit.AuditAction, giftID, account, txHash string, details map[string]interface{}) error {
	j.actions = append(j.actions, string(action)+":"+giftID)
	return nil
}

package registry

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rhystmorgan/giftterm/internal/audit"
	"rhystmorgan/giftterm/internal/contract"
	"rhystmorgan/giftterm/internal/fhe"
)

// Reader is the read-only registry binding.
type Reader interface {
	Address() common.Address
	GetAllBusinessIds(ctx context.Context) ([]string, error)
	GetBusinessData(ctx context.Context, id string) (*contract.BusinessData, error)
	GetEncryptedValue(ctx context.Context, id string) (common.Hash, error)
	IsAvailable(ctx context.Context) (bool, error)
}

// Writer is the signer-bound registry binding.
type Writer interface {
	From() common.Address
	CreateBusinessData(ctx context.Context, args contract.CreateArgs) (*contract.Tx, error)
	VerifyDecryption(ctx context.Context, id string, clearValues, proof []byte) (*contract.Tx, error)
}

// Journal records gift actions. *audit.GiftAuditor satisfies it.
type Journal interface {
	LogGiftAction(action audit.AuditAction, giftID, account, txHash string, details map[string]interface{}) error
}

type Options struct {
	Reader Reader
	// Writer is nil until a wallet is unlocked.
	Writer  Writer
	FHE     fhe.Client
	Cache   *RecordCache
	Journal Journal
	Logger  *zap.Logger
	Now     func() time.Time
}

// Service runs the registry flows against the contract and the FHE gateway.
// Its methods block and are meant to run off the UI loop.
type Service struct {
	reader  Reader
	writer  Writer
	fhe     fhe.Client
	cache   *RecordCache
	journal Journal
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		reader:  opts.Reader,
		writer:  opts.Writer,
		fhe:     opts.FHE,
		cache:   opts.Cache,
		journal: opts.Journal,
		logger:  logger.Named("registry"),
		now:     now,
	}
}

func (s *Service) Connected() bool {
	return s.writer != nil
}

// Account is the connected wallet address, zero when disconnected.
func (s *Service) Account() common.Address {
	if s.writer == nil {
		return common.Address{}
	}
	return s.writer.From()
}

func (s *Service) ContractAddress() common.Address {
	return s.reader.Address()
}

// Initialize prepares the FHE client. It is safe to call repeatedly.
func (s *Service) Initialize(ctx context.Context) error {
	if s.writer == nil {
		return ErrNotConnected
	}
	return s.fhe.Initialize(ctx)
}

// ensureFHE initializes the FHE client on first use.
func (s *Service) ensureFHE(ctx context.Context) error {
	if s.FHEReady() {
		return nil
	}
	if err := s.fhe.Initialize(ctx); err != nil {
		s.logger.Error("fhe initialization failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrFHEInit, err)
	}
	return nil
}

func (s *Service) FHEReady() bool {
	return s.fhe != nil && s.fhe.Initialized()
}

// LoadGifts fetches every gift in contract order. A record that fails to
// load is logged and left out; only a failure to list ids is returned.
func (s *Service) LoadGifts(ctx context.Context) ([]Gift, error) {
	s.cache.Cleanup()

	ids, err := s.reader.GetAllBusinessIds(ctx)
	if err != nil {
		s.logger.Error("failed to list gift ids", zap.Error(err))
		return nil, fmt.Errorf("list gifts: %w", err)
	}

	gifts := make([]Gift, 0, len(ids))
	for _, id := range ids {
		data, ok := s.cache.Get(id)
		if !ok {
			data, err = s.reader.GetBusinessData(ctx, id)
			if err != nil {
				s.logger.Warn("skipping gift that failed to load", zap.String("gift_id", id), zap.Error(err))
				continue
			}
			s.cache.Set(id, data)
		}
		gifts = append(gifts, GiftFromRecord(id, data))
	}

	s.logger.Debug("gifts loaded",
		zap.Int("ids", len(ids)),
		zap.Int("gifts", len(gifts)),
		zap.Int("cached", s.cache.Size()))
	return gifts, nil
}

// GetGift reads one gift from the contract, bypassing the cache.
func (s *Service) GetGift(ctx context.Context, id string) (Gift, error) {
	data, err := s.readRecord(ctx, id)
	if err != nil {
		return Gift{}, fmt.Errorf("get gift %s: %w", id, err)
	}
	s.cache.Set(id, data)
	return GiftFromRecord(id, data), nil
}

// readRecord fetches a record. The contract answers an unknown id with an
// empty record, which has no creator.
func (s *Service) readRecord(ctx context.Context, id string) (*contract.BusinessData, error) {
	data, err := s.reader.GetBusinessData(ctx, id)
	if err != nil {
		return nil, err
	}
	if data.Creator == (common.Address{}) {
		return nil, ErrNotFound
	}
	return data, nil
}

// ClearCache forces the next LoadGifts to refetch every record.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// CheckAvailability asks the contract whether it accepts gifts.
func (s *Service) CheckAvailability(ctx context.Context) (bool, error) {
	available, err := s.reader.IsAvailable(ctx)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return available, nil
}

// GiftID derives a new gift identifier from the creation time.
func GiftID(t time.Time) string {
	return fmt.Sprintf("gift-%d", t.UnixMilli())
}

type CreateResult struct {
	ID     string
	Amount uint32
	TxHash common.Hash
}

// HistoryEntry is the line appended to the session history.
func (r *CreateResult) HistoryEntry() string {
	return SentEntry(r.Amount)
}

// CreateGift encrypts the draft amount for the connected account, submits
// the record and waits for it to be mined.
func (s *Service) CreateGift(ctx context.Context, draft Draft) (*CreateResult, error) {
	if s.writer == nil {
		return nil, ErrNotConnected
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	amount, err := draft.ParseAmount()
	if err != nil {
		return nil, err
	}

	from := s.writer.From()
	id := GiftID(s.now())
	logger := s.logger.With(zap.String("gift_id", id), zap.String("account", from.Hex()))

	if err := s.ensureFHE(ctx); err != nil {
		return nil, err
	}

	encrypted, err := s.fhe.Encrypt(ctx, s.reader.Address(), from, amount)
	if err != nil {
		logger.Error("encryption failed", zap.Error(err))
		s.journalFailure(id, from, "", err)
		return nil, fmt.Errorf("encrypt amount: %w", err)
	}

	tx, err := s.writer.CreateBusinessData(ctx, contract.CreateArgs{
		ID:             id,
		Category:       Category,
		EncryptedValue: encrypted.Handle,
		Proof:          encrypted.Proof,
		PublicValue1:   new(big.Int),
		PublicValue2:   new(big.Int),
		Description:    draft.Message,
	})
	if err != nil {
		logger.Warn("send gift failed", zap.Error(err))
		s.journalFailure(id, from, "", err)
		return nil, fmt.Errorf("send gift: %w", err)
	}

	logger.Info("gift submitted", zap.String("tx", tx.Hash.Hex()))

	if err := tx.Wait(ctx); err != nil {
		logger.Error("gift transaction failed", zap.String("tx", tx.Hash.Hex()), zap.Error(err))
		s.journalFailure(id, from, tx.Hash.Hex(), err)
		return nil, fmt.Errorf("confirm gift: %w", err)
	}

	s.record(audit.AuditActionSend, id, from, tx.Hash.Hex(), nil)
	return &CreateResult{ID: id, Amount: amount, TxHash: tx.Hash}, nil
}

type DecryptResult struct {
	ID      string
	Creator common.Address
	Amount  uint32
	// HasAmount is false when a concurrent verification won and the
	// reloaded record did not carry the value yet.
	HasAmount bool
	// AlreadyVerified is set when no verification was submitted by this call.
	AlreadyVerified bool
}

func (r *DecryptResult) HistoryEntry() string {
	return DecryptedEntry(r.Creator.Hex())
}

// Decrypt returns the clear amount of a gift. A gift already verified on
// chain returns its stored value without a decryption round trip. Otherwise
// the gateway decrypts the handle and the proof is submitted through the
// signer. Losing a race to another verification counts as success.
func (s *Service) Decrypt(ctx context.Context, id string) (*DecryptResult, error) {
	if s.writer == nil {
		return nil, ErrNotConnected
	}

	from := s.writer.From()
	logger := s.logger.With(zap.String("gift_id", id), zap.String("account", from.Hex()))

	data, err := s.readRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read gift %s: %w", id, err)
	}
	if data.IsVerified {
		s.cache.Set(id, data)
		return &DecryptResult{
			ID:              id,
			Creator:         data.Creator,
			Amount:          data.DecryptedValue,
			HasAmount:       true,
			AlreadyVerified: true,
		}, nil
	}

	if err := s.ensureFHE(ctx); err != nil {
		return nil, err
	}

	gift := GiftFromRecord(id, data)
	handle, err := s.reader.GetEncryptedValue(ctx, gift.EncryptedAmount)
	if err != nil {
		return nil, fmt.Errorf("read ciphertext handle: %w", err)
	}

	var txHash common.Hash
	submit := func(ctx context.Context, clearValues, proof []byte) error {
		tx, err := s.writer.VerifyDecryption(ctx, id, clearValues, proof)
		if err != nil {
			return err
		}
		txHash = tx.Hash
		logger.Info("decryption proof submitted", zap.String("tx", tx.Hash.Hex()))
		return tx.Wait(ctx)
	}

	decryption, err := s.fhe.VerifyDecryption(ctx, []common.Hash{handle}, s.reader.Address(), submit)
	s.cache.Invalidate(id)
	if err != nil {
		if IsAlreadyVerified(err) {
			logger.Info("gift was verified concurrently")
			s.record(audit.AuditActionAlreadyVerified, id, from, "", nil)
			return s.settledResult(ctx, id, data.Creator), nil
		}
		if isReverted(err) {
			if settled, ok := s.verifiedMeanwhile(ctx, id, data.Creator); ok {
				logger.Info("verification reverted after a concurrent verification", zap.Error(err))
				s.record(audit.AuditActionAlreadyVerified, id, from, hashHex(txHash), nil)
				return settled, nil
			}
		}
		logger.Error("decryption failed", zap.Error(err))
		s.journalFailure(id, from, hashHex(txHash), err)
		return nil, fmt.Errorf("decrypt gift: %w", err)
	}

	value, ok := decryption.Value(handle)
	if !ok || !value.IsUint64() || value.Uint64() > math.MaxUint32 {
		return nil, fmt.Errorf("decrypt gift: unusable clear value for handle %s", handle.Hex())
	}

	s.record(audit.AuditActionDecrypt, id, from, hashHex(txHash), nil)
	return &DecryptResult{
		ID:        id,
		Creator:   data.Creator,
		Amount:    uint32(value.Uint64()),
		HasAmount: true,
	}, nil
}

// settledResult rereads a gift that someone else verified.
func (s *Service) settledResult(ctx context.Context, id string, creator common.Address) *DecryptResult {
	result := &DecryptResult{ID: id, Creator: creator, AlreadyVerified: true}

	gift, err := s.GetGift(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reload verified gift", zap.String("gift_id", id), zap.Error(err))
		return result
	}
	if amount, ok := gift.Amount(); ok {
		result.Amount = amount
		result.HasAmount = true
	}
	return result
}

// verifiedMeanwhile rereads a gift after a failed verification and reports
// whether another verification landed first.
func (s *Service) verifiedMeanwhile(ctx context.Context, id string, creator common.Address) (*DecryptResult, bool) {
	gift, err := s.GetGift(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reread gift after revert", zap.String("gift_id", id), zap.Error(err))
		return nil, false
	}
	if !gift.Verified {
		return nil, false
	}
	return &DecryptResult{
		ID:              id,
		Creator:         creator,
		Amount:          gift.DecryptedAmount,
		HasAmount:       true,
		AlreadyVerified: true,
	}, true
}

func (s *Service) record(action audit.AuditAction, id string, account common.Address, txHash string, details map[string]interface{}) {
	if s.journal == nil {
		return
	}
	if err := s.journal.LogGiftAction(action, id, account.Hex(), txHash, details); err != nil {
		s.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}

func (s *Service) journalFailure(id string, account common.Address, txHash string, err error) {
	action := audit.AuditActionFailed
	if IsUserRejected(err) {
		action = audit.AuditActionRejected
	}
	s.record(action, id, account, txHash, map[string]interface{}{"error": err.Error()})
}

func hashHex(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}

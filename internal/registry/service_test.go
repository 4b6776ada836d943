package registry

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"rhystmorgan/giftterm/internal/blockchain"
	"rhystmorgan/giftterm/internal/contract"
)

type harness struct {
	reader  *fakeReader
	writer  *fakeWriter
	fhe     *fakeFHE
	journal *fakeJournal
	service *Service
}

func newHarness(t *testing.T, connected bool) *harness {
	t.Helper()
	h := &harness{
		reader:  newFakeReader(),
		fhe:     &fakeFHE{},
		journal: &fakeJournal{},
	}
	h.writer = &fakeWriter{reader: h.reader, from: testAccount, timestamp: 1_760_000_000}

	opts := Options{
		Reader:  h.reader,
		FHE:     h.fhe,
		Cache:   NewRecordCache(time.Minute),
		Journal: h.journal,
		Logger:  zaptest.NewLogger(t),
		Now:     func() time.Time { return time.UnixMilli(1_760_000_000_123) },
	}
	if connected {
		opts.Writer = h.writer
	}
	h.service = NewService(opts)
	return h
}

func record(creator common.Address, message string, verified bool, amount uint32) contract.BusinessData {
	return contract.BusinessData{
		Name:           Category,
		PublicValue1:   big.NewInt(0),
		PublicValue2:   big.NewInt(0),
		Description:    message,
		Creator:        creator,
		Timestamp:      big.NewInt(1_700_000_000),
		DecryptedValue: amount,
		IsVerified:     verified,
	}
}

func TestLoadGiftsIsolatesFailures(t *testing.T) {
	h := newHarness(t, true)
	alice := common.HexToAddress("0x1111111111111111111111111111111111111111")
	for i := 1; i <= 4; i++ {
		h.reader.add(fmt.Sprintf("gift-%d", i), record(alice, fmt.Sprintf("message %d", i), false, 0))
	}
	h.reader.failing["gift-3"] = true

	gifts, err := h.service.LoadGifts(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(gifts))
	for _, g := range gifts {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"gift-1", "gift-2", "gift-4"}, ids)
	assert.Equal(t, alice, gifts[0].Sender)
	assert.Equal(t, "message 1", gifts[0].Message)
	assert.Equal(t, int64(1_700_000_000), gifts[0].Timestamp.Unix())
}

func TestLoadGiftsListFailure(t *testing.T) {
	h := newHarness(t, true)
	h.reader.listErr = errors.New("connection refused")

	_, err := h.service.LoadGifts(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgLoadFailed, UserMessage(err, MsgLoadFailed))
}

func TestLoadGiftsUsesCache(t *testing.T) {
	h := newHarness(t, true)
	h.reader.add("gift-1", record(testAccount, "hi", false, 0))
	ctx := context.Background()

	_, err := h.service.LoadGifts(ctx)
	require.NoError(t, err)
	_, err = h.service.LoadGifts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.reader.hits())

	h.service.ClearCache()
	_, err = h.service.LoadGifts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.reader.hits())
}

func TestLoadGiftsDropsExpiredRecords(t *testing.T) {
	h := newHarness(t, true)
	clock := time.Unix(1_760_000_000, 0)
	h.service.cache.now = func() time.Time { return clock }
	h.reader.add("gift-1", record(testAccount, "hi", false, 0))
	h.service.cache.Set("gift-gone", &contract.BusinessData{Creator: testAccount})
	ctx := context.Background()

	_, err := h.service.LoadGifts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.service.cache.Size())

	clock = clock.Add(2 * time.Minute)
	_, err = h.service.LoadGifts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.service.cache.Size())
	assert.Equal(t, 2, h.reader.hits())
}

func TestUnknownGift(t *testing.T) {
	h := newHarness(t, true)
	h.reader.add("gift-9", contract.BusinessData{})
	ctx := context.Background()

	_, err := h.service.GetGift(ctx, "gift-9")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.service.Decrypt(ctx, "gift-9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, MsgDecryptFailed, UserMessage(err, MsgDecryptFailed))
	assert.Zero(t, h.fhe.inits)
	assert.Zero(t, h.writer.verifies)
}

func TestFHEInitializedOnDemand(t *testing.T) {
	t.Run("verified gift needs no client", func(t *testing.T) {
		h := newHarness(t, true)
		h.fhe.initErr = errors.New("relayer unreachable")
		h.reader.add("gift-1", record(testAccount, "hi", true, 80))

		result, err := h.service.Decrypt(context.Background(), "gift-1")
		require.NoError(t, err)
		assert.Equal(t, uint32(80), result.Amount)
		assert.Zero(t, h.fhe.inits)
	})

	t.Run("decrypt", func(t *testing.T) {
		h := newHarness(t, true)
		h.reader.add("gift-1", record(testAccount, "hi", false, 0))
		h.reader.handles["gift-1"] = common.BigToHash(big.NewInt(12))

		result, err := h.service.Decrypt(context.Background(), "gift-1")
		require.NoError(t, err)
		assert.Equal(t, uint32(12), result.Amount)
		assert.Equal(t, 1, h.fhe.inits)
	})

	t.Run("send", func(t *testing.T) {
		h := newHarness(t, true)
		ctx := context.Background()

		_, err := h.service.CreateGift(ctx, Draft{Amount: "5", Message: "hi"})
		require.NoError(t, err)
		_, err = h.service.CreateGift(ctx, Draft{Amount: "6", Message: "again"})
		require.NoError(t, err)
		assert.Equal(t, 1, h.fhe.inits)
	})

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t, true)
		h.fhe.initErr = errors.New("relayer unreachable")
		h.reader.add("gift-1", record(testAccount, "hi", false, 0))

		_, err := h.service.Decrypt(context.Background(), "gift-1")
		assert.ErrorIs(t, err, ErrFHEInit)
		assert.Equal(t, MsgInitFailed, UserMessage(err, MsgDecryptFailed))
		assert.Zero(t, h.writer.verifies)
	})
}

func TestDisconnectedOperations(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	assert.False(t, h.service.Connected())
	assert.Equal(t, common.Address{}, h.service.Account())

	_, err := h.service.CreateGift(ctx, Draft{Amount: "5", Message: "hi"})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, MsgConnectFirst, UserMessage(err, MsgSendFailed))

	_, err = h.service.Decrypt(ctx, "gift-1")
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.ErrorIs(t, h.service.Initialize(ctx), ErrNotConnected)
}

func TestCreateGiftRejected(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Initialize(context.Background()))
	h.writer.createErr = fmt.Errorf("createBusinessData: %w", contract.ErrUserRejected)

	_, err := h.service.CreateGift(context.Background(), Draft{Amount: "10", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, MsgRejected, UserMessage(err, MsgSendFailed))
	assert.Equal(t, []string{"rejected:gift-1760000000123"}, h.journal.actions)
}

func TestCreateGiftOtherFailure(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Initialize(context.Background()))
	h.writer.createErr = errors.New("insufficient funds for gas * price + value")

	_, err := h.service.CreateGift(context.Background(), Draft{Amount: "10", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, MsgSendFailed, UserMessage(err, MsgSendFailed))
}

func TestCreateGiftRejectsInvalidDraft(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Initialize(context.Background()))

	_, err := h.service.CreateGift(context.Background(), Draft{Amount: "", Message: "hi"})
	assert.ErrorIs(t, err, ErrEmptyAmount)
	_, err = h.service.CreateGift(context.Background(), Draft{Amount: "10", Message: "  "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, h.fhe.encrypts)
}

func TestDecryptVerifiedGiftIsIdempotent(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Initialize(context.Background()))
	h.reader.add("gift-1", record(testAccount, "hi", true, 750))

	for i := 0; i < 2; i++ {
		result, err := h.service.Decrypt(context.Background(), "gift-1")
		require.NoError(t, err)
		assert.Equal(t, uint32(750), result.Amount)
		assert.True(t, result.HasAmount)
		assert.True(t, result.AlreadyVerified)
	}
	assert.Zero(t, h.fhe.decrypts)
	assert.Zero(t, h.writer.verifies)
}

func TestDecryptSubmitsProof(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	require.NoError(t, h.service.Initialize(ctx))

	_, err := h.service.CreateGift(ctx, Draft{Amount: "42", Message: "hi"})
	require.NoError(t, err)
	id := h.writer.created[0].ID

	result, err := h.service.Decrypt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), result.Amount)
	assert.False(t, result.AlreadyVerified)
	assert.Equal(t, 1, h.writer.verifies)
	assert.Equal(t, "decrypted gift from 0xabcd", strings.ToLower(result.HistoryEntry()))

	// The record now carries the stored value, so a second call skips the
	// decryption round trip.
	again, err := h.service.Decrypt(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), again.Amount)
	assert.Equal(t, 1, h.fhe.decrypts)

	gifts, err := h.service.LoadGifts(ctx)
	require.NoError(t, err)
	require.Len(t, gifts, 1)
	assert.True(t, gifts[0].Verified)
}

func TestDecryptAlreadyVerifiedRace(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.service.Initialize(context.Background()))
	h.reader.add("gift-1", record(testAccount, "hi", false, 0))
	h.fhe.decryptErr = errors.New("execution reverted: Data already verified")

	result, err := h.service.Decrypt(context.Background(), "gift-1")
	require.NoError(t, err)
	assert.True(t, result.AlreadyVerified)
	assert.False(t, result.HasAmount)
	assert.Contains(t, h.journal.actions, "already_verified:gift-1")
}

func TestDecryptRevertedAfterConcurrentVerification(t *testing.T) {
	h := newHarness(t, true)
	h.reader.add("gift-1", record(testAccount, "hi", false, 0))
	h.reader.handles["gift-1"] = common.BigToHash(big.NewInt(40))
	h.writer.verifyErr = blockchain.NewTransactionFailedError("0xbeef", "status 0")
	h.writer.racedBy = 40

	result, err := h.service.Decrypt(context.Background(), "gift-1")
	require.NoError(t, err)
	assert.True(t, result.AlreadyVerified)
	assert.True(t, result.HasAmount)
	assert.Equal(t, uint32(40), result.Amount)
	assert.Equal(t, []string{"already_verified:gift-1"}, h.journal.actions)
}

func TestDecryptFailures(t *testing.T) {
	t.Run("rejected signature", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.service.Initialize(context.Background()))
		h.reader.add("gift-1", record(testAccount, "hi", false, 0))
		h.writer.verifyErr = contract.ErrUserRejected

		_, err := h.service.Decrypt(context.Background(), "gift-1")
		require.Error(t, err)
		assert.Equal(t, MsgRejected, UserMessage(err, MsgDecryptFailed))
	})

	t.Run("gateway failure", func(t *testing.T) {
		h := newHarness(t, true)
		require.NoError(t, h.service.Initialize(context.Background()))
		h.reader.add("gift-1", record(testAccount, "hi", false, 0))
		h.fhe.decryptErr = errors.New("relayer unavailable")

		_, err := h.service.Decrypt(context.Background(), "gift-1")
		require.Error(t, err)
		assert.Equal(t, MsgDecryptFailed, UserMessage(err, MsgDecryptFailed))
	})

	t.Run("reverted and still encrypted", func(t *testing.T) {
		h := newHarness(t, true)
		h.reader.add("gift-1", record(testAccount, "hi", false, 0))
		h.writer.verifyErr = errors.New("execution reverted: invalid proof")

		_, err := h.service.Decrypt(context.Background(), "gift-1")
		require.Error(t, err)
		assert.Equal(t, MsgDecryptFailed, UserMessage(err, MsgDecryptFailed))
		assert.Equal(t, []string{"failed:gift-1"}, h.journal.actions)
	})
}

func TestCheckAvailability(t *testing.T) {
	h := newHarness(t, false)
	available, err := h.service.CheckAvailability(context.Background())
	require.NoError(t, err)
	assert.True(t, available)
}

func TestGiftID(t *testing.T) {
	assert.Equal(t, "gift-1760000000123", GiftID(time.UnixMilli(1_760_000_000_123)))
}

// Connect, initialize, send "500" with "Congrats!", reload and check the
// list and the history.
func TestSendGiftScenario(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	machine := NewMachine()
	var banner Banner
	var history History

	_, err := machine.Fire(EventConnect)
	require.NoError(t, err)
	require.NoError(t, h.service.Initialize(ctx))
	_, err = machine.Fire(EventInitialized)
	require.NoError(t, err)

	gifts, err := h.service.LoadGifts(ctx)
	require.NoError(t, err)
	assert.Empty(t, gifts)
	_, err = machine.Fire(EventLoaded)
	require.NoError(t, err)

	draft := Draft{Amount: SanitizeAmount("500"), Message: "Congrats!"}
	require.True(t, draft.CanSubmit(machine.State().Busy()))

	_, err = machine.Fire(EventCreate)
	require.NoError(t, err)
	assert.False(t, draft.CanSubmit(machine.State().Busy()))
	banner.Pending(MsgSendPending)

	result, err := h.service.CreateGift(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, 1, h.fhe.encrypts)
	require.Len(t, h.writer.created, 1)
	assert.Equal(t, Category, h.writer.created[0].Category)
	assert.Equal(t, int64(0), h.writer.created[0].PublicValue1.Int64())
	assert.Equal(t, int64(0), h.writer.created[0].PublicValue2.Int64())

	status := banner.Success(MsgSendSuccess)
	assert.Equal(t, SuccessDismissDelay, DismissDelay(status.Kind))

	_, err = machine.Fire(EventFinished)
	require.NoError(t, err)
	_, err = machine.Fire(EventReload)
	require.NoError(t, err)

	gifts, err = h.service.LoadGifts(ctx)
	require.NoError(t, err)
	_, err = machine.Fire(EventLoaded)
	require.NoError(t, err)
	history.Add(result.HistoryEntry())

	require.Len(t, gifts, 1)
	assert.Equal(t, "Congrats!", gifts[0].Message)
	assert.False(t, gifts[0].Verified)
	assert.Equal(t, testAccount, gifts[0].Sender)

	entries := history.Entries()
	require.Len(t, entries, 1)
	assert.True(t, strings.Contains(entries[0], "500"))
	assert.Equal(t, Ready, machine.State())

	assert.True(t, banner.Expire(status.Seq))
	assert.False(t, banner.Current().Visible)
}

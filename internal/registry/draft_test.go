package registry

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"rhystmorgan/giftterm/internal/contract"
)

func TestSanitizeAmount(t *testing.T) {
	assert.Equal(t, "500", SanitizeAmount("500"))
	assert.Equal(t, "1000", SanitizeAmount("1,000"))
	assert.Equal(t, "12", SanitizeAmount("-1.2e"))
	assert.Equal(t, "", SanitizeAmount("abc"))
}

func TestDraftCanSubmit(t *testing.T) {
	tests := []struct {
		draft Draft
		busy  bool
		want  bool
	}{
		{Draft{Amount: "500", Message: "Congrats!"}, false, true},
		{Draft{Amount: "", Message: "Congrats!"}, false, false},
		{Draft{Amount: "500", Message: ""}, false, false},
		{Draft{Amount: "500", Message: "   "}, false, false},
		{Draft{Amount: "500", Message: "Congrats!"}, true, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.draft.CanSubmit(tt.busy), "%+v busy=%v", tt.draft, tt.busy)
	}
}

func TestDraftParseAmount(t *testing.T) {
	v, err := Draft{Amount: "4294967295"}.ParseAmount()
	assert.NoError(t, err)
	assert.Equal(t, uint32(4294967295), v)

	_, err = Draft{Amount: "4294967296"}.ParseAmount()
	assert.ErrorIs(t, err, ErrAmountTooLarge)

	_, err = Draft{}.ParseAmount()
	assert.ErrorIs(t, err, ErrEmptyAmount)

	d := Draft{Amount: "1", Message: "m"}
	d.Reset()
	assert.Equal(t, Draft{}, d)
}

func TestFilter(t *testing.T) {
	alice := common.HexToAddress("0xA11ce00000000000000000000000000000000001")
	bob := common.HexToAddress("0xb0b0000000000000000000000000000000000002")
	gifts := []Gift{
		{ID: "1", Sender: alice, Message: "Congratulations!"},
		{ID: "2", Sender: bob, Message: "Best wishes"},
		{ID: "3", Sender: alice, Message: "Another one"},
	}

	ids := func(gs []Gift) []string {
		out := make([]string, 0, len(gs))
		for _, g := range gs {
			out = append(out, g.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter(gifts, "")))
	assert.Equal(t, []string{"1"}, ids(Filter(gifts, "CONGRAT")))
	assert.Equal(t, []string{"1", "3"}, ids(Filter(gifts, "0xa11CE")))
	assert.Equal(t, []string{"2"}, ids(Filter(gifts, "wishes")))
	assert.Empty(t, Filter(gifts, "nothing matches"))
	assert.Empty(t, Filter(nil, "x"))
}

func TestHistory(t *testing.T) {
	var h History
	h.Add(SentEntry(500))
	h.Add(DecryptedEntry("0x1234567890"))

	assert.Equal(t, []string{"Sent gift to couple (500)", "Decrypted gift from 0x1234"}, h.Entries())

	h.Reset()
	assert.Empty(t, h.Entries())
}

func TestRecordCache(t *testing.T) {
	now := time.Unix(1_000, 0)
	cache := NewRecordCache(time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set("gift-1", &contract.BusinessData{Description: "hi"})
	data, ok := cache.Get("gift-1")
	assert.True(t, ok)
	assert.Equal(t, "hi", data.Description)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("gift-1")
	assert.False(t, ok)
	cache.Cleanup()
	assert.Zero(t, cache.Size())

	cache.Set("gift-2", &contract.BusinessData{})
	cache.Invalidate("gift-2")
	_, ok = cache.Get("gift-2")
	assert.False(t, ok)

	disabled := NewRecordCache(0)
	disabled.Set("gift-3", &contract.BusinessData{})
	_, ok = disabled.Get("gift-3")
	assert.False(t, ok)

	var nilCache *RecordCache
	_, ok = nilCache.Get("x")
	assert.False(t, ok)
}

func TestGiftFromRecord(t *testing.T) {
	creator := common.HexToAddress("0x1")
	gift := GiftFromRecord("gift-1", &contract.BusinessData{Creator: creator, Description: "hi", IsVerified: true, DecryptedValue: 9})

	assert.Equal(t, creator, gift.Sender)
	assert.Equal(t, "gift-1", gift.EncryptedAmount)
	assert.True(t, gift.Timestamp.IsZero())
	amount, ok := gift.Amount()
	assert.True(t, ok)
	assert.Equal(t, uint32(9), amount)
}

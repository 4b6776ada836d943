package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhystmorgan/giftterm/internal/contract"
	"rhystmorgan/giftterm/internal/registry"
)

func TestConnectLoadsRegistry(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	assert.Equal(t, ViewRegistry, m.state)
	require.Len(t, m.giftList.Filtered(), 2)

	view := m.View()
	assert.Contains(t, view, "✅ Verified")
	assert.Contains(t, view, "🔓 Encrypted")
	assert.Contains(t, view, "0x1234...5678")
	assert.Contains(t, view, "No recent actions")
	assert.Contains(t, view, "send gift")
}

func TestSelectorUnlocksWallet(t *testing.T) {
	h := newHarness(t)
	m := h.app(t)
	assert.Contains(t, m.View(), "Guest")

	m, cmd := update(t, m, enterKey)
	m, _ = update(t, m, expect[NavigateMsg](t, cmd))
	require.Equal(t, ViewPasswordPrompt, m.state)

	m, _ = update(t, m, runes("wrong-pass1"))
	m, cmd = update(t, m, enterKey)
	m, _ = update(t, m, expect[PasswordVerificationMsg](t, cmd))
	assert.Contains(t, m.View(), "Incorrect password (1/3 attempts)")

	m, _ = update(t, m, runes(testPassword))
	m, cmd = update(t, m, enterKey)
	m, cmd = update(t, m, expect[PasswordVerificationMsg](t, cmd))
	unlocked := expect[WalletUnlockedMsg](t, cmd)
	require.NotNil(t, unlocked.Account)

	m, cmd = update(t, m, unlocked)
	m, _ = update(t, m, expect[connectedMsg](t, cmd))
	assert.Equal(t, ViewRegistry, m.state)
	assert.Equal(t, registry.Initializing, m.machine.State())

	_, ok := h.sessions.Current()
	assert.True(t, ok)
}

func TestSendGiftScenario(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	m, cmd := update(t, m, runes("n"))
	m, _ = update(t, m, expect[OpenCreateMsg](t, cmd))
	require.Equal(t, modalCreate, m.modal)

	// Submitting an empty form does nothing.
	_, cmd = update(t, m, sendKey)
	assert.Nil(t, cmd)

	m, _ = update(t, m, runes("5a00"))
	assert.Equal(t, "500", m.createModal.Draft().Amount)

	_, cmd = update(t, m, sendKey)
	assert.Nil(t, cmd, "message is still empty")

	m, _ = update(t, m, tabKey)
	m, _ = update(t, m, runes("Congrats!"))

	m, cmd = update(t, m, sendKey)
	submit := expect[SubmitGiftMsg](t, cmd)
	assert.Equal(t, registry.Draft{Amount: "500", Message: "Congrats!"}, submit.Draft)

	m, cmd = update(t, m, submit)
	assert.Equal(t, registry.Creating, m.machine.State())
	assert.Contains(t, m.View(), "Encrypting...")
	assert.Equal(t, registry.MsgSendPending, m.banner.Current().Message)

	// A second submit while busy is ignored.
	_, again := update(t, m, submit)
	assert.Nil(t, again)

	m, cmd = update(t, m, expect[giftCreatedMsg](t, cmd))
	assert.Equal(t, registry.Loading, m.machine.State())
	assert.Equal(t, modalNone, m.modal)
	assert.Equal(t, registry.StatusSuccess, m.banner.Current().Kind)
	assert.Equal(t, registry.MsgSendSuccess, m.banner.Current().Message)

	m, _ = update(t, m, expect[giftsLoadedMsg](t, cmd))
	assert.Equal(t, registry.Ready, m.machine.State())

	gifts := m.giftList.Filtered()
	require.Len(t, gifts, 3)
	assert.Equal(t, "Congrats!", gifts[2].Message)
	assert.False(t, gifts[2].Verified)

	entries := m.history.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "500")
	assert.Contains(t, m.View(), "Sent gift to couple (500)")

	// The form was reset for the next gift.
	assert.Empty(t, m.createModal.Draft().Amount)
}

func TestSendGiftRejected(t *testing.T) {
	h := newHarness(t)
	h.chain.createErr = fmt.Errorf("createBusinessData: %w", contract.ErrUserRejected)
	m := h.connected(t)

	m, _ = update(t, m, OpenCreateMsg{})
	m, cmd := update(t, m, SubmitGiftMsg{Draft: registry.Draft{Amount: "10", Message: "hi"}})
	m, _ = update(t, m, expect[giftCreatedMsg](t, cmd))

	assert.Equal(t, registry.Ready, m.machine.State())
	assert.Equal(t, registry.StatusError, m.banner.Current().Kind)
	assert.Equal(t, registry.MsgRejected, m.banner.Current().Message)
	assert.Equal(t, modalCreate, m.modal, "the form stays open after a failure")
	assert.Empty(t, m.history.Entries())
}

func TestSendGiftFailure(t *testing.T) {
	h := newHarness(t)
	h.chain.createErr = errors.New("insufficient funds for gas")
	m := h.connected(t)

	m, cmd := update(t, m, SubmitGiftMsg{Draft: registry.Draft{Amount: "10", Message: "hi"}})
	m, _ = update(t, m, expect[giftCreatedMsg](t, cmd))
	assert.Equal(t, registry.MsgSendFailed, m.banner.Current().Message)
}

func TestDecryptFromDetail(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	m, _ = update(t, m, runes("j"))
	m, cmd := update(t, m, enterKey)
	m, _ = update(t, m, expect[OpenDetailMsg](t, cmd))
	require.Equal(t, modalDetail, m.modal)
	assert.Equal(t, "gift-2", m.detailModal.Gift().ID)
	assert.Equal(t, "🔒 FHE Encrypted", m.detailModal.AmountLine())
	assert.True(t, m.detailModal.CanDecrypt())

	m, cmd = update(t, m, runes("d"))
	m, cmd = update(t, m, expect[DecryptGiftMsg](t, cmd))
	assert.Equal(t, registry.Decrypting, m.machine.State())
	assert.False(t, m.detailModal.CanDecrypt())
	assert.Equal(t, registry.MsgDecryptPending, m.banner.Current().Message)

	m, cmd = update(t, m, expect[giftDecryptedMsg](t, cmd))
	assert.Equal(t, "300 (Decrypted)", m.detailModal.AmountLine())
	assert.Equal(t, registry.MsgDecryptSuccess, m.banner.Current().Message)
	require.Len(t, m.history.Entries(), 1)
	assert.Equal(t, "Decrypted gift from 0x1234", m.history.Entries()[0])

	m, _ = update(t, m, expect[giftsLoadedMsg](t, cmd))
	assert.Equal(t, "300 (Verified)", m.detailModal.AmountLine())
	assert.False(t, m.detailModal.CanDecrypt())
	assert.True(t, h.chain.record("gift-2").IsVerified)
	assert.Equal(t, 1, h.fhe.decryptCount())
}

func TestDecryptVerifiedGiftSkipsProtocol(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	for i := 0; i < 2; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, runes("d"))
		m, cmd = update(t, m, expect[DecryptGiftMsg](t, cmd))
		result := expect[giftDecryptedMsg](t, cmd)
		require.NoError(t, result.err)
		assert.True(t, result.result.AlreadyVerified)
		assert.Equal(t, uint32(250), result.result.Amount)

		m, cmd = update(t, m, result)
		assert.Equal(t, registry.MsgAlreadyVerified, m.banner.Current().Message)
		m, _ = update(t, m, expect[giftsLoadedMsg](t, cmd))
	}

	assert.Zero(t, h.fhe.decryptCount())
	assert.Empty(t, m.history.Entries())
}

func TestSearchFiltersList(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	m, _ = update(t, m, runes("/"))
	require.True(t, m.giftList.Searching())

	m, _ = update(t, m, runes("CONGRATS"))
	require.Len(t, m.giftList.Filtered(), 1)
	assert.Equal(t, "gift-2", m.giftList.Filtered()[0].ID)

	// q is text while searching.
	m, _ = update(t, m, runes("q"))
	assert.Empty(t, m.giftList.Filtered())
	assert.Contains(t, m.View(), "No gifts match your search.")

	m, _ = update(t, m, escKey)
	assert.False(t, m.giftList.Searching())
	m, _ = update(t, m, escKey)
	assert.Len(t, m.giftList.Filtered(), 2)
}

func TestInitFailureRetries(t *testing.T) {
	h := newHarness(t)
	h.fhe.setInitErr(errors.New("gateway down"))

	account, err := h.keystore.Unlock(h.stored.ID, testPassword)
	require.NoError(t, err)

	m, cmd := update(t, h.app(t), WalletUnlockedMsg{Account: account})
	m, cmd = update(t, m, expect[connectedMsg](t, cmd))
	m, _ = update(t, m, expect[initResultMsg](t, cmd))

	assert.Equal(t, registry.Initializing, m.machine.State())
	assert.Equal(t, registry.MsgInitFailed, m.banner.Current().Message)
	assert.Contains(t, m.View(), "Initializing FHE")

	h.fhe.setInitErr(nil)
	m, cmd = update(t, m, runes("r"))
	m, cmd = update(t, m, expect[ReloadMsg](t, cmd))
	m, _ = update(t, m, expect[initResultMsg](t, cmd))
	assert.Equal(t, registry.Loading, m.machine.State())
}

func TestCheckSystem(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	m, cmd := update(t, m, runes("a"))
	m, cmd = update(t, m, expect[CheckSystemMsg](t, cmd))
	m, _ = update(t, m, expect[availabilityMsg](t, cmd))
	assert.Equal(t, registry.MsgAvailable, m.banner.Current().Message)

	h.chain.mu.Lock()
	h.chain.available = false
	h.chain.mu.Unlock()

	m, cmd = update(t, m, CheckSystemMsg{})
	m, _ = update(t, m, expect[availabilityMsg](t, cmd))
	assert.Equal(t, registry.MsgUnavailable, m.banner.Current().Message)
	assert.Equal(t, registry.Ready, m.machine.State())
}

func TestDisconnectDropsLateResults(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)
	m.history.Add("Sent gift to couple (1)")

	m, cmd := update(t, m, ReloadMsg{})
	require.Equal(t, registry.Loading, m.machine.State())
	late := expect[giftsLoadedMsg](t, cmd)

	m, cmd = update(t, m, runes("x"))
	m, _ = update(t, m, expect[DisconnectMsg](t, cmd))
	assert.Equal(t, ViewWalletSelector, m.state)
	assert.Equal(t, registry.Disconnected, m.machine.State())
	assert.Empty(t, m.history.Entries())
	_, ok := h.sessions.Current()
	assert.False(t, ok)

	m, _ = update(t, m, late)
	assert.Equal(t, registry.Disconnected, m.machine.State())
	assert.Empty(t, m.giftList.Filtered())

	m, _ = update(t, m, OpenCreateMsg{})
	assert.Equal(t, registry.MsgConnectFirst, m.banner.Current().Message)
}

func TestDisconnectClearsPendingBanner(t *testing.T) {
	t.Run("decrypt", func(t *testing.T) {
		h := newHarness(t)
		m := h.connected(t)

		m, _ = update(t, m, runes("j"))
		m, cmd := update(t, m, runes("d"))
		m, _ = update(t, m, expect[DecryptGiftMsg](t, cmd))
		require.Equal(t, registry.Decrypting, m.machine.State())
		require.Equal(t, registry.StatusPending, m.banner.Current().Kind)

		m, cmd = update(t, m, runes("x"))
		m, _ = update(t, m, expect[DisconnectMsg](t, cmd))
		assert.Equal(t, registry.Disconnected, m.machine.State())
		assert.False(t, m.banner.Current().Visible)
		assert.NotContains(t, m.View(), registry.MsgDecryptPending)
	})

	t.Run("send", func(t *testing.T) {
		h := newHarness(t)
		m := h.connected(t)

		m, _ = update(t, m, SubmitGiftMsg{Draft: registry.Draft{Amount: "10", Message: "Cheers"}})
		require.Equal(t, registry.Creating, m.machine.State())
		require.Equal(t, registry.MsgSendPending, m.banner.Current().Message)

		m, _ = update(t, m, DisconnectMsg{})
		assert.False(t, m.banner.Current().Visible)
	})

	t.Run("error banner survives", func(t *testing.T) {
		h := newHarness(t)
		m := h.connected(t)

		m, _ = update(t, m, sessionExpiredMsg{token: "expired"})
		assert.True(t, m.banner.Current().Visible)
		assert.Equal(t, registry.StatusError, m.banner.Current().Kind)
	})
}

func TestReloadAfterSendSkipsStaleRecords(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	// Another guest decrypts gift-2 while this session holds it cached.
	h.chain.settle("gift-2", 300)

	m, cmd := update(t, m, SubmitGiftMsg{Draft: registry.Draft{Amount: "10", Message: "Cheers"}})
	m, cmd = update(t, m, expect[giftCreatedMsg](t, cmd))
	m, _ = update(t, m, expect[giftsLoadedMsg](t, cmd))

	var found bool
	for _, gift := range m.giftList.Filtered() {
		if gift.ID == "gift-2" {
			found = true
			assert.True(t, gift.Verified)
			assert.Equal(t, uint32(300), gift.DecryptedAmount)
		}
	}
	assert.True(t, found)
}

func TestSessionExpiryDisconnects(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	m, _ = update(t, m, sessionExpiredMsg{token: "expired"})
	assert.Equal(t, ViewWalletSelector, m.state)
	assert.Equal(t, registry.Disconnected, m.machine.State())
	assert.Equal(t, msgSessionExpired, m.banner.Current().Message)
}

func TestApprovalPrompt(t *testing.T) {
	h := newHarness(t)
	m := h.connected(t)

	errc := make(chan error, 1)
	go func() {
		errc <- h.broker.Approve(context.Background(), contract.ApprovalRequest{
			From:    h.chain.From(),
			To:      testContract,
			Method:  "createBusinessData",
			Summary: "Send an encrypted gift",
			Gas:     210000,
		})
	}()

	request := expect[approvalRequestMsg](t, waitForApproval(h.broker))
	m, _ = update(t, m, request)
	require.NotNil(t, m.approval)
	view := m.View()
	assert.Contains(t, view, "Signature Request")
	assert.Contains(t, view, "createBusinessData")

	// While the prompt is up q is not quit.
	m, cmd := update(t, m, runes("q"))
	assert.Nil(t, cmd)

	m, cmd = update(t, m, runes("n"))
	m, _ = update(t, m, expect[ApprovalDoneMsg](t, cmd))
	assert.Nil(t, m.approval)

	err := <-errc
	assert.ErrorIs(t, err, contract.ErrUserRejected)
	assert.Equal(t, registry.MsgRejected, registry.UserMessage(err, registry.MsgSendFailed))
}

func TestStatusBannerDismissal(t *testing.T) {
	h := newHarness(t)
	m := h.app(t)

	assert.Nil(t, showStatus(m.banner, registry.StatusPending, registry.MsgSendPending))
	first := m.banner.Current()

	assert.NotNil(t, showStatus(m.banner, registry.StatusSuccess, registry.MsgSendSuccess))
	success := m.banner.Current()
	assert.True(t, strings.Contains(m.View(), registry.MsgSendSuccess))

	// A dismissal scheduled for an older status leaves the newer one.
	m, _ = update(t, m, statusExpiredMsg{seq: first.Seq})
	assert.True(t, m.banner.Current().Visible)

	m, _ = update(t, m, statusExpiredMsg{seq: success.Seq})
	assert.False(t, m.banner.Current().Visible)
	assert.NotContains(t, m.View(), registry.MsgSendSuccess)

	assert.NotNil(t, showStatus(m.banner, registry.StatusError, registry.MsgDecryptFailed))
	failed := m.banner.Current()
	m, _ = update(t, m, statusExpiredMsg{seq: failed.Seq})
	assert.False(t, m.banner.Current().Visible)
}

func TestCopySender(t *testing.T) {
	var copied string
	original := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { copyToClipboard = original })

	h := newHarness(t)
	m := h.connected(t)

	m, _ = update(t, m, OpenDetailMsg{Gift: m.giftList.Filtered()[0]})
	m, cmd := update(t, m, runes("c"))
	m, _ = update(t, m, expect[CopiedMsg](t, cmd))

	assert.Equal(t, otherGuest.Hex(), copied)
	assert.Equal(t, msgCopied, m.banner.Current().Message)
}

func TestImportWalletConnects(t *testing.T) {
	const hardhatKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	h := newHarness(t)
	m := h.app(t)

	m, _ = update(t, m, runes("j"))
	m, _ = update(t, m, runes("j"))
	m, cmd := update(t, m, enterKey)
	m, _ = update(t, m, expect[NavigateMsg](t, cmd))
	require.Equal(t, ViewWalletImport, m.state)

	m, _ = update(t, m, runes("Bride Side"))
	m, _ = update(t, m, enterKey)
	m, _ = update(t, m, runes("not a phrase"))
	m, _ = update(t, m, enterKey)
	assert.Contains(t, m.View(), "invalid mnemonic phrase")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m, _ = update(t, m, runes(hardhatKey))
	m, _ = update(t, m, enterKey)
	m, _ = update(t, m, runes(testPassword))
	m, _ = update(t, m, enterKey)
	m, _ = update(t, m, runes(testPassword))
	m, cmd = update(t, m, enterKey)

	m, cmd = update(t, m, expect[walletImportResultMsg](t, cmd))
	saved := expect[WalletSavedMsg](t, cmd)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", saved.Account.Address.Hex())

	m, cmd = update(t, m, saved)
	m, _ = update(t, m, expect[connectedMsg](t, cmd))
	assert.Equal(t, ViewRegistry, m.state)

	wallets, err := h.keystore.List()
	require.NoError(t, err)
	assert.Len(t, wallets, 2)
}

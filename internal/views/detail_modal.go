package views

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/utils"
)

// copyToClipboard is swapped out in tests; headless machines have no
// clipboard.
var copyToClipboard = clipboard.WriteAll

// GiftDetailModel shows one gift and offers to decrypt its amount.
type GiftDetailModel struct {
	gift      registry.Gift
	decrypted *uint32
	busy      bool
}

func NewGiftDetailModel(gift registry.Gift) *GiftDetailModel {
	return &GiftDetailModel{gift: gift}
}

func (m GiftDetailModel) Gift() registry.Gift {
	return m.gift
}

// SetGift refreshes the record after a reload. A locally decrypted amount
// survives the refresh.
func (m *GiftDetailModel) SetGift(gift registry.Gift) {
	m.gift = gift
}

func (m *GiftDetailModel) SetDecrypted(amount uint32) {
	m.decrypted = &amount
}

func (m *GiftDetailModel) SetBusy(busy bool) {
	m.busy = busy
}

// CanDecrypt reports whether the decrypt action is enabled.
func (m GiftDetailModel) CanDecrypt() bool {
	return !m.gift.Verified && !m.busy
}

// AmountLine renders the amount the way the detail view shows it.
func (m GiftDetailModel) AmountLine() string {
	if amount, ok := m.gift.Amount(); ok {
		return fmt.Sprintf("%d (Verified)", amount)
	}
	if m.decrypted != nil {
		return fmt.Sprintf("%d (Decrypted)", *m.decrypted)
	}
	return "🔒 FHE Encrypted"
}

func (m GiftDetailModel) Update(msg tea.Msg) (GiftDetailModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc", "q":
		return m, send(CloseModalMsg{})
	case "d", "enter":
		if m.decrypted != nil {
			// A second press hides the decrypted amount again.
			m.decrypted = nil
			return m, nil
		}
		if !m.CanDecrypt() {
			return m, nil
		}
		return m, send(DecryptGiftMsg{ID: m.gift.ID})
	case "c":
		address := m.gift.Sender.Hex()
		return m, func() tea.Msg {
			return CopiedMsg{Err: copyToClipboard(address)}
		}
	}
	return m, nil
}

func (m GiftDetailModel) View() string {
	var content strings.Builder

	content.WriteString(titleStyle.Render("Gift Details"))
	content.WriteString("\n")

	rows := []struct{ label, value string }{
		{"From", m.gift.Sender.Hex()},
		{"Date", utils.FormatDate(m.gift.Timestamp)},
		{"Message", m.gift.Message},
		{"Amount", m.AmountLine()},
	}
	for _, row := range rows {
		content.WriteString(labelStyle.Render(fmt.Sprintf("%-8s", row.label)))
		content.WriteString(" ")
		content.WriteString(textStyle.Render(row.value))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	var label string
	switch {
	case m.busy:
		label = "Decrypting..."
	case m.gift.Verified:
		label = "✅ Verified"
	case m.decrypted != nil:
		label = "Hide Amount"
	default:
		label = "🔓 Decrypt Amount"
	}
	content.WriteString(button(label, m.CanDecrypt(), true))
	content.WriteString("\n\n")
	content.WriteString(helpStyle.Render("d: decrypt • c: copy sender • Esc: close"))

	return modalStyle.Render(content.String())
}

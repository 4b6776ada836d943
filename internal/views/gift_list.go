package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/utils"
)

const maxMessageWidth = 36

// GiftListModel is the registry screen body: the search box and the
// filtered gift list.
type GiftListModel struct {
	keys     registryKeys
	search   textinput.Model
	gifts    []registry.Gift
	filtered []registry.Gift
	cursor   int
}

func NewGiftListModel() *GiftListModel {
	search := textinput.New()
	search.Placeholder = "search by sender or message"
	search.Prompt = "🔍 "
	search.CharLimit = 64
	search.Width = 40

	return &GiftListModel{
		keys:   newRegistryKeys(),
		search: search,
	}
}

// SetGifts replaces the list and reapplies the current search term.
func (m *GiftListModel) SetGifts(gifts []registry.Gift) {
	m.gifts = gifts
	m.refilter()
}

func (m *GiftListModel) refilter() {
	var selectedID string
	if gift, ok := m.Selected(); ok {
		selectedID = gift.ID
	}

	m.filtered = registry.Filter(m.gifts, m.search.Value())

	m.cursor = 0
	for i, gift := range m.filtered {
		if gift.ID == selectedID {
			m.cursor = i
			break
		}
	}
}

func (m GiftListModel) Filtered() []registry.Gift {
	return m.filtered
}

func (m GiftListModel) Selected() (registry.Gift, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return registry.Gift{}, false
	}
	return m.filtered[m.cursor], true
}

// Searching reports whether keystrokes go to the search box.
func (m GiftListModel) Searching() bool {
	return m.search.Focused()
}

func (m *GiftListModel) SetBusy(busy bool) {
	m.keys.setBusy(busy)
}

func (m GiftListModel) Update(msg tea.Msg) (GiftListModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.search.Focused() {
		switch keyMsg.String() {
		case "esc", "enter":
			m.search.Blur()
			return m, nil
		}
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(keyMsg)
		if m.search.Value() != before {
			m.refilter()
		}
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Search):
		return m, m.search.Focus()
	case key.Matches(keyMsg, m.keys.Send):
		return m, send(OpenCreateMsg{})
	case key.Matches(keyMsg, m.keys.Details):
		if gift, ok := m.Selected(); ok {
			return m, send(OpenDetailMsg{Gift: gift})
		}
	case key.Matches(keyMsg, m.keys.Decrypt):
		if gift, ok := m.Selected(); ok {
			return m, send(DecryptGiftMsg{ID: gift.ID})
		}
	case key.Matches(keyMsg, m.keys.Refresh):
		return m, send(ReloadMsg{})
	case key.Matches(keyMsg, m.keys.Check):
		return m, send(CheckSystemMsg{})
	case key.Matches(keyMsg, m.keys.Disconnect):
		return m, send(DisconnectMsg{})
	case keyMsg.String() == "esc" && m.search.Value() != "":
		m.search.Reset()
		m.refilter()
	}

	return m, nil
}

func (m GiftListModel) View() string {
	var content strings.Builder

	content.WriteString(labelStyle.Render("Wedding Gift Registry"))
	content.WriteString("\n")
	content.WriteString(subtitleStyle.Render("Send an encrypted gift to the couple. Amounts stay private until the gift is decrypted and verified on chain."))
	content.WriteString("\n\n")

	style := inputStyle
	if m.search.Focused() {
		style = focusedInputStyle
	}
	content.WriteString(style.Render(m.search.View()))
	content.WriteString("\n\n")

	if len(m.filtered) == 0 {
		if len(m.gifts) == 0 {
			content.WriteString(subtitleStyle.Render("No gifts yet. Press n to send the first one."))
		} else {
			content.WriteString(subtitleStyle.Render("No gifts match your search."))
		}
		return content.String()
	}

	content.WriteString(subtitleStyle.Render(fmt.Sprintf("%d of %d gifts", len(m.filtered), len(m.gifts))))
	content.WriteString("\n")
	for i, gift := range m.filtered {
		row := giftRow(gift)
		if i == m.cursor {
			content.WriteString(selectedStyle.Render("> " + row))
		} else {
			content.WriteString(itemStyle.Render("  " + row))
		}
		content.WriteString("\n")
	}

	return content.String()
}

func giftRow(gift registry.Gift) string {
	return fmt.Sprintf("%-13s  %s  %-*s  %s",
		utils.ShortAddress(gift.Sender.Hex()),
		giftStatus(gift),
		maxMessageWidth,
		utils.TruncateString(gift.Message, maxMessageWidth),
		utils.FormatDate(gift.Timestamp),
	)
}

func giftStatus(gift registry.Gift) string {
	if gift.Verified {
		return verifiedStyle.Render("✅ Verified ")
	}
	return encryptedStyle.Render("🔓 Encrypted")
}

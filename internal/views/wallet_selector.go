package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

// WalletSelectorModel is the connect screen: pick a stored wallet, or add one.
type WalletSelectorModel struct {
	wallets []wallet.StoredAccount
	cursor  int
}

func NewWalletSelectorModel(wallets []wallet.StoredAccount) *WalletSelectorModel {
	return &WalletSelectorModel{wallets: wallets}
}

func (m WalletSelectorModel) Init() tea.Cmd {
	return nil
}

func (m WalletSelectorModel) Update(msg tea.Msg) (WalletSelectorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.wallets)+1 {
				m.cursor++
			}
		case "enter", " ":
			switch {
			case m.cursor < len(m.wallets):
				selected := m.wallets[m.cursor]
				return m, NavigateTo(ViewPasswordPrompt, &selected)
			case m.cursor == len(m.wallets):
				return m, NavigateTo(ViewWalletCreate, nil)
			default:
				return m, NavigateTo(ViewWalletImport, nil)
			}
		}
	}
	return m, nil
}

func (m WalletSelectorModel) View() string {
	var content string
	content += titleStyle.Render("💍 GiftTerm - Private Wedding Gift Registry") + "\n"
	content += subtitleStyle.Render("Gift amounts are encrypted with FHE before they leave this terminal.") + "\n\n"

	if len(m.wallets) == 0 {
		content += subtitleStyle.Render("No wallets found. Create or import a wallet to connect.") + "\n\n"
	} else {
		content += textStyle.Render("Connect a wallet:") + "\n\n"

		for i, w := range m.wallets {
			content += m.row(i, fmt.Sprintf("%s (%s)", w.Name, utils.ShortAddress(w.Address.Hex()))) + "\n"
		}
		content += "\n"
	}

	content += m.row(len(m.wallets), "Create New Wallet") + "\n"
	content += m.row(len(m.wallets)+1, "Import Wallet") + "\n\n"

	content += helpStyle.Render("Use ↑/↓ to navigate, Enter to select, q to quit")
	return content
}

func (m WalletSelectorModel) row(index int, label string) string {
	if m.cursor == index {
		return selectedStyle.Render("> " + label)
	}
	return itemStyle.Render("  " + label)
}

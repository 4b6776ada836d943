package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

type WalletCreateStep int

const (
	StepCreateName WalletCreateStep = iota
	StepShowMnemonic
	StepCreatePassword
	StepCreateConfirm
	StepCreating
)

// WalletCreateModel generates a new mnemonic, shows it once and stores the
// derived account.
type WalletCreateModel struct {
	keystore *wallet.Keystore
	step     WalletCreateStep

	name     textinput.Model
	password textinput.Model
	confirm  textinput.Model

	account *wallet.Account
	error   string
}

type walletCreateResultMsg struct {
	account *wallet.Account
	err     error
}

func NewWalletCreateModel(keystore *wallet.Keystore) *WalletCreateModel {
	m := &WalletCreateModel{
		keystore: keystore,
		name:     newField("Wedding guest", 50, false),
		password: newField("at least 8 characters, a letter and a digit", 128, true),
		confirm:  newField("repeat password", 128, true),
	}
	m.name.Focus()
	return m
}

func (m WalletCreateModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m WalletCreateModel) Update(msg tea.Msg) (WalletCreateModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.step == StepCreating {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			switch m.step {
			case StepCreateName:
				return m, NavigateTo(ViewWalletSelector, nil)
			case StepShowMnemonic:
				m.account.Wipe()
				m.account = nil
				m.step = StepCreateName
				return m, m.name.Focus()
			default:
				m.error = ""
				return m, m.focus(m.step - 1)
			}

		case "enter":
			return m.handleEnter()
		}

	case walletCreateResultMsg:
		if msg.err != nil {
			m.error = msg.err.Error()
			return m, m.focus(StepCreatePassword)
		}
		return m, func() tea.Msg { return WalletSavedMsg{Account: msg.account} }
	}

	var cmd tea.Cmd
	if field := m.field(m.step); field != nil {
		*field, cmd = field.Update(msg)
	}
	return m, cmd
}

func (m WalletCreateModel) handleEnter() (WalletCreateModel, tea.Cmd) {
	m.error = ""

	switch m.step {
	case StepCreateName:
		if issues := utils.ValidateWalletName(m.name.Value()); len(issues) > 0 {
			m.error = issues[0]
			return m, nil
		}
		mnemonic, err := wallet.GenerateMnemonic()
		if err != nil {
			m.error = fmt.Sprintf("Failed to generate mnemonic: %v", err)
			return m, nil
		}
		account, err := wallet.FromMnemonic(strings.TrimSpace(m.name.Value()), mnemonic)
		if err != nil {
			m.error = err.Error()
			return m, nil
		}
		m.account = account
		return m, m.focus(StepShowMnemonic)

	case StepShowMnemonic:
		return m, m.focus(StepCreatePassword)

	case StepCreatePassword:
		if issues := wallet.CheckPassword(m.password.Value()); len(issues) > 0 {
			m.error = issues[0]
			return m, nil
		}
		return m, m.focus(StepCreateConfirm)

	case StepCreateConfirm:
		if m.confirm.Value() != m.password.Value() {
			m.error = "Passwords do not match"
			return m, nil
		}
		m.step = StepCreating
		return m, saveAccount(m.keystore, m.account, m.password.Value(), func(a *wallet.Account, err error) tea.Msg {
			return walletCreateResultMsg{account: a, err: err}
		})
	}

	return m, nil
}

func (m *WalletCreateModel) field(step WalletCreateStep) *textinput.Model {
	switch step {
	case StepCreateName:
		return &m.name
	case StepCreatePassword:
		return &m.password
	case StepCreateConfirm:
		return &m.confirm
	}
	return nil
}

func (m *WalletCreateModel) focus(step WalletCreateStep) tea.Cmd {
	if current := m.field(m.step); current != nil {
		current.Blur()
	}
	m.step = step
	if next := m.field(step); next != nil {
		return next.Focus()
	}
	return nil
}

func (m WalletCreateModel) View() string {
	var content strings.Builder

	content.WriteString(titleStyle.Render("Create New Wallet"))
	content.WriteString("\n")

	switch m.step {
	case StepCreateName:
		content.WriteString(labelStyle.Render("Wallet name"))
		content.WriteString("\n")
		content.WriteString(focusedInputStyle.Render(m.name.View()))

	case StepShowMnemonic:
		content.WriteString(textStyle.Render("Write down these words in order. They are the only way to recover this wallet."))
		content.WriteString("\n\n")
		content.WriteString(mnemonicGrid(m.account.Mnemonic))
		content.WriteString("\n")
		content.WriteString(subtitleStyle.Render("Address: " + m.account.Address.Hex()))

	default:
		content.WriteString(labelStyle.Render("Password"))
		content.WriteString("\n")
		content.WriteString(m.styleFor(StepCreatePassword).Render(m.password.View()))
		if m.step >= StepCreateConfirm {
			content.WriteString("\n")
			content.WriteString(labelStyle.Render("Confirm password"))
			content.WriteString("\n")
			content.WriteString(m.styleFor(StepCreateConfirm).Render(m.confirm.View()))
		}
		if m.step == StepCreating {
			content.WriteString("\n\n")
			content.WriteString(pendingStyle.Render("Encrypting and saving wallet..."))
		}
	}

	if m.error != "" {
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.error))
	}

	content.WriteString("\n\n")
	if m.step == StepShowMnemonic {
		content.WriteString(helpStyle.Render("Enter: I have saved it • Esc: back"))
	} else {
		content.WriteString(helpStyle.Render("Enter: next • Esc: back"))
	}
	return content.String()
}

func (m WalletCreateModel) styleFor(step WalletCreateStep) lipgloss.Style {
	if m.step == step {
		return focusedInputStyle
	}
	return inputStyle
}

func mnemonicGrid(mnemonic string) string {
	var b strings.Builder
	for i, word := range strings.Fields(mnemonic) {
		b.WriteString(textStyle.Render(fmt.Sprintf("%2d. %-10s", i+1, word)))
		if (i+1)%4 == 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

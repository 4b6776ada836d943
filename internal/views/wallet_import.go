package views

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

type WalletImportStep int

const (
	StepImportName WalletImportStep = iota
	StepSecretInput
	StepImportPassword
	StepImportConfirm
	StepImporting
)

// WalletImportModel imports an account from a mnemonic phrase or a hex
// private key and stores it encrypted.
type WalletImportModel struct {
	keystore *wallet.Keystore
	step     WalletImportStep

	name     textinput.Model
	secret   textinput.Model
	password textinput.Model
	confirm  textinput.Model

	account *wallet.Account
	error   string
}

type walletImportResultMsg struct {
	account *wallet.Account
	err     error
}

func NewWalletImportModel(keystore *wallet.Keystore) *WalletImportModel {
	m := &WalletImportModel{
		keystore: keystore,
		name:     newField("Wedding guest", 50, false),
		secret:   newField("twelve word phrase or 0x private key", 512, true),
		password: newField("at least 8 characters, a letter and a digit", 128, true),
		confirm:  newField("repeat password", 128, true),
	}
	m.name.Focus()
	return m
}

func newField(placeholder string, limit int, masked bool) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = limit
	input.Width = 48
	if masked {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
	}
	return input
}

func (m WalletImportModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m WalletImportModel) Update(msg tea.Msg) (WalletImportModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.step == StepImporting {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			if m.step == StepImportName {
				return m, NavigateTo(ViewWalletSelector, nil)
			}
			m.error = ""
			return m, m.focus(m.step - 1)

		case "enter":
			return m.handleEnter()
		}

	case walletImportResultMsg:
		if msg.err != nil {
			m.error = msg.err.Error()
			return m, m.focus(StepImportPassword)
		}
		return m, func() tea.Msg { return WalletSavedMsg{Account: msg.account} }
	}

	var cmd tea.Cmd
	if field := m.field(m.step); field != nil {
		*field, cmd = field.Update(msg)
	}
	return m, cmd
}

func (m WalletImportModel) handleEnter() (WalletImportModel, tea.Cmd) {
	m.error = ""

	switch m.step {
	case StepImportName:
		if issues := utils.ValidateWalletName(m.name.Value()); len(issues) > 0 {
			m.error = issues[0]
			return m, nil
		}
		return m, m.focus(StepSecretInput)

	case StepSecretInput:
		account, err := wallet.FromSecret(strings.TrimSpace(m.name.Value()), m.secret.Value())
		if err != nil {
			m.error = err.Error()
			return m, nil
		}
		m.account = account
		return m, m.focus(StepImportPassword)

	case StepImportPassword:
		if issues := wallet.CheckPassword(m.password.Value()); len(issues) > 0 {
			m.error = issues[0]
			return m, nil
		}
		return m, m.focus(StepImportConfirm)

	case StepImportConfirm:
		if m.confirm.Value() != m.password.Value() {
			m.error = "Passwords do not match"
			return m, nil
		}
		m.step = StepImporting
		return m, saveAccount(m.keystore, m.account, m.password.Value(), func(a *wallet.Account, err error) tea.Msg {
			return walletImportResultMsg{account: a, err: err}
		})
	}

	return m, nil
}

func saveAccount(keystore *wallet.Keystore, account *wallet.Account, password string, done func(*wallet.Account, error) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if keystore == nil || account == nil {
			return done(nil, errors.New("nothing to save"))
		}
		if err := keystore.Save(account, password); err != nil {
			return done(nil, err)
		}
		return done(account, nil)
	}
}

func (m *WalletImportModel) field(step WalletImportStep) *textinput.Model {
	switch step {
	case StepImportName:
		return &m.name
	case StepSecretInput:
		return &m.secret
	case StepImportPassword:
		return &m.password
	case StepImportConfirm:
		return &m.confirm
	}
	return nil
}

func (m *WalletImportModel) focus(step WalletImportStep) tea.Cmd {
	if current := m.field(m.step); current != nil {
		current.Blur()
	}
	m.step = step
	if next := m.field(step); next != nil {
		return next.Focus()
	}
	return nil
}

func (m WalletImportModel) View() string {
	var content strings.Builder

	content.WriteString(titleStyle.Render("Import Wallet"))
	content.WriteString("\n")

	steps := []struct {
		step  WalletImportStep
		label string
		input textinput.Model
	}{
		{StepImportName, "Wallet name", m.name},
		{StepSecretInput, "Mnemonic or private key", m.secret},
		{StepImportPassword, "Password", m.password},
		{StepImportConfirm, "Confirm password", m.confirm},
	}

	for _, s := range steps {
		if s.step > m.step {
			break
		}
		content.WriteString(labelStyle.Render(s.label))
		content.WriteString("\n")
		style := inputStyle
		if s.step == m.step {
			style = focusedInputStyle
		}
		content.WriteString(style.Render(s.input.View()))
		content.WriteString("\n")

		if s.step == StepSecretInput && m.account != nil && m.step > StepSecretInput {
			content.WriteString(subtitleStyle.Render("Address: " + m.account.Address.Hex()))
			content.WriteString("\n")
		}
	}

	if m.step == StepImporting {
		content.WriteString("\n")
		content.WriteString(pendingStyle.Render("Encrypting and saving wallet..."))
	}

	if m.error != "" {
		content.WriteString("\n")
		content.WriteString(errorStyle.Render(m.error))
	}

	content.WriteString("\n\n")
	content.WriteString(helpStyle.Render("Enter: next • Esc: back"))
	return content.String()
}

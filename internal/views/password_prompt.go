package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

const maxPasswordAttempts = 3

// PasswordPromptModel unlocks a stored wallet. Unlocking is what connecting
// means here.
type PasswordPromptModel struct {
	keystore *wallet.Keystore
	target   *wallet.StoredAccount

	input    textinput.Model
	attempts int
	loading  bool
	error    string
}

type PasswordVerificationMsg struct {
	Account *wallet.Account
	Err     error
}

func NewPasswordPromptModel(keystore *wallet.Keystore) *PasswordPromptModel {
	input := textinput.New()
	input.Placeholder = "wallet password"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.CharLimit = 128
	input.Width = 40

	return &PasswordPromptModel{
		keystore: keystore,
		input:    input,
	}
}

// Show resets the prompt for target and focuses the input.
func (m *PasswordPromptModel) Show(target *wallet.StoredAccount) tea.Cmd {
	m.target = target
	m.attempts = 0
	m.loading = false
	m.error = ""
	m.input.Reset()
	return m.input.Focus()
}

func (m PasswordPromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m PasswordPromptModel) Update(msg tea.Msg) (PasswordPromptModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.String() {
		case "esc":
			m.input.Reset()
			return m, NavigateTo(ViewWalletSelector, nil)

		case "enter":
			if m.input.Value() == "" {
				m.error = "Password cannot be empty"
				return m, nil
			}
			if m.attempts >= maxPasswordAttempts {
				m.error = "Too many failed attempts"
				return m, nil
			}

			m.loading = true
			m.error = ""
			return m, m.verifyPassword(m.input.Value())

		case "ctrl+u":
			m.input.Reset()
			return m, nil
		}

	case PasswordVerificationMsg:
		m.loading = false
		if msg.Err == nil {
			m.input.Reset()
			return m, func() tea.Msg { return WalletUnlockedMsg{Account: msg.Account} }
		}

		m.input.Reset()
		if !errors.Is(msg.Err, wallet.ErrInvalidPassword) {
			m.error = msg.Err.Error()
			return m, nil
		}
		m.attempts++
		if m.attempts >= maxPasswordAttempts {
			m.error = "Too many failed attempts. Press Esc to pick another wallet."
		} else {
			m.error = fmt.Sprintf("Incorrect password (%d/%d attempts)", m.attempts, maxPasswordAttempts)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PasswordPromptModel) View() string {
	var content strings.Builder

	content.WriteString(titleStyle.Render("Connect Wallet"))
	content.WriteString("\n")
	if m.target != nil {
		content.WriteString(textStyle.Render(fmt.Sprintf("%s (%s)", m.target.Name, utils.ShortAddress(m.target.Address.Hex()))))
		content.WriteString("\n\n")
	}

	if m.loading {
		content.WriteString(focusedInputStyle.Render("Unlocking..."))
	} else {
		content.WriteString(focusedInputStyle.Render(m.input.View()))
	}
	content.WriteString("\n\n")

	if m.error != "" {
		content.WriteString(errorStyle.Render(m.error))
		content.WriteString("\n\n")
	}

	if !m.loading {
		content.WriteString(helpStyle.Render("Enter: connect • Esc: back • Ctrl+U: clear"))
	}

	return content.String()
}

func (m PasswordPromptModel) verifyPassword(password string) tea.Cmd {
	keystore, target := m.keystore, m.target
	return func() tea.Msg {
		if keystore == nil || target == nil {
			return PasswordVerificationMsg{Err: errors.New("no wallet selected")}
		}
		account, err := keystore.Unlock(target.ID, password)
		return PasswordVerificationMsg{Account: account, Err: err}
	}
}

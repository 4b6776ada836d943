package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/giftterm/internal/registry"
)

type createField int

const (
	fieldAmount createField = iota
	fieldMessage
	fieldSubmit
)

// CreateGiftModel is the send-gift form. The draft lives only while the
// modal is open.
type CreateGiftModel struct {
	amount  textinput.Model
	message textarea.Model
	focus   createField
	busy    bool
}

func NewCreateGiftModel() *CreateGiftModel {
	amount := textinput.New()
	amount.Placeholder = "amount"
	amount.CharLimit = 10
	amount.Width = 20

	message := textarea.New()
	message.Placeholder = "A message for the couple"
	message.ShowLineNumbers = false
	message.CharLimit = 280
	message.SetWidth(54)
	message.SetHeight(4)

	m := &CreateGiftModel{amount: amount, message: message}
	m.amount.Focus()
	return m
}

func (m CreateGiftModel) Draft() registry.Draft {
	return registry.Draft{
		Amount:  m.amount.Value(),
		Message: m.message.Value(),
	}
}

// SetBusy reflects whether a send is in flight.
func (m *CreateGiftModel) SetBusy(busy bool) {
	m.busy = busy
}

func (m *CreateGiftModel) Reset() {
	m.amount.Reset()
	m.message.Reset()
	m.setFocus(fieldAmount)
}

func (m CreateGiftModel) Update(msg tea.Msg) (CreateGiftModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, send(CloseModalMsg{})
		case "tab":
			return m, m.setFocus((m.focus + 1) % 3)
		case "shift+tab":
			return m, m.setFocus((m.focus + 2) % 3)
		case "ctrl+s":
			return m, m.submit()
		case "enter":
			switch m.focus {
			case fieldAmount:
				return m, m.setFocus(fieldMessage)
			case fieldSubmit:
				return m, m.submit()
			}
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldAmount:
		m.amount, cmd = m.amount.Update(msg)
		if clean := registry.SanitizeAmount(m.amount.Value()); clean != m.amount.Value() {
			m.amount.SetValue(clean)
		}
	case fieldMessage:
		m.message, cmd = m.message.Update(msg)
	}
	return m, cmd
}

// submit emits the draft when the form allows it; otherwise the key is a
// no-op, like a disabled button.
func (m CreateGiftModel) submit() tea.Cmd {
	draft := m.Draft()
	if !draft.CanSubmit(m.busy) {
		return nil
	}
	return send(SubmitGiftMsg{Draft: draft})
}

func (m *CreateGiftModel) setFocus(field createField) tea.Cmd {
	m.amount.Blur()
	m.message.Blur()
	m.focus = field

	switch field {
	case fieldAmount:
		return m.amount.Focus()
	case fieldMessage:
		return m.message.Focus()
	}
	return nil
}

func (m CreateGiftModel) View() string {
	var content strings.Builder

	content.WriteString(titleStyle.Render("Send Wedding Gift"))
	content.WriteString("\n")
	content.WriteString(subtitleStyle.Render("🔐 The amount is encrypted with FHE before it is sent. Only the message is public."))
	content.WriteString("\n\n")

	content.WriteString(labelStyle.Render("Amount"))
	content.WriteString("\n")
	content.WriteString(m.fieldStyle(fieldAmount).Render(m.amount.View()))
	content.WriteString("\n")

	content.WriteString(labelStyle.Render("Message"))
	content.WriteString("\n")
	content.WriteString(m.fieldStyle(fieldMessage).Render(m.message.View()))
	content.WriteString("\n\n")

	label := "Send Gift"
	if m.busy {
		label = "Encrypting..."
	}
	content.WriteString(button(label, m.Draft().CanSubmit(m.busy), m.focus == fieldSubmit))
	content.WriteString("\n\n")
	content.WriteString(helpStyle.Render("Tab: next field • Ctrl+S: send • Esc: close"))

	return modalStyle.Render(content.String())
}

func (m CreateGiftModel) fieldStyle(field createField) lipgloss.Style {
	if m.focus == field {
		return focusedInputStyle
	}
	return inputStyle
}

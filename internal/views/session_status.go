package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

// SessionStatusModel is the header indicator for the unlocked wallet.
type SessionStatusModel struct {
	sessions    *wallet.SessionManager
	showDetails bool
}

func NewSessionStatusModel(sessions *wallet.SessionManager) *SessionStatusModel {
	return &SessionStatusModel{sessions: sessions, showDetails: true}
}

func (m SessionStatusModel) Update(msg tea.Msg) (SessionStatusModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "s" {
		m.showDetails = !m.showDetails
	}
	return m, nil
}

func (m SessionStatusModel) View() string {
	if m.sessions == nil {
		return ""
	}

	status := m.sessions.Status()

	var colour string
	dot := "●"
	switch status {
	case wallet.SessionStatusActive:
		colour = utils.Colours.Green
	case wallet.SessionStatusExpiring:
		colour = utils.Colours.Yellow
	case wallet.SessionStatusExpired:
		colour = utils.Colours.Red
	default:
		colour = utils.Colours.Surface1
		dot = "○"
	}

	indicator := lipgloss.NewStyle().Foreground(lipgloss.Color(colour)).Bold(true).Render(dot)
	if !m.showDetails {
		return indicator
	}

	detail := string(status)
	if remaining := m.sessions.TimeRemaining(); remaining > 0 {
		detail = fmt.Sprintf("%s, locks in %s", status, utils.FormatDuration(remaining))
	}
	if status == wallet.SessionStatusExpiring {
		return indicator + " " + pendingStyle.Render("⚠ "+detail)
	}
	return indicator + " " + subtitleStyle.Render(detail)
}

package views

import (
	"github.com/charmbracelet/lipgloss"

	"rhystmorgan/giftterm/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Pink)).
			Bold(true).
			Padding(1, 0)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Subtext0))

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Text))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Lavender)).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Green)).
			Background(lipgloss.Color(utils.Colours.Surface0)).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Subtext0)).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Red)).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Green)).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Yellow)).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(utils.Colours.Surface1)).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Width(64).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(utils.Colours.Mauve)).
			Padding(1, 2)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(utils.Colours.Surface1)).
			Padding(0, 1)

	focusedInputStyle = inputStyle.
				BorderForeground(lipgloss.Color(utils.Colours.Blue))

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Base)).
			Background(lipgloss.Color(utils.Colours.Pink)).
			Padding(0, 2)

	focusedButtonStyle = buttonStyle.
				Background(lipgloss.Color(utils.Colours.Green))

	disabledButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(utils.Colours.Overlay0)).
				Background(lipgloss.Color(utils.Colours.Surface0)).
				Padding(0, 2)

	verifiedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Green))

	encryptedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(utils.Colours.Peach))
)

func button(label string, enabled, focused bool) string {
	switch {
	case !enabled:
		return disabledButtonStyle.Render(label)
	case focused:
		return focusedButtonStyle.Render(label)
	default:
		return buttonStyle.Render(label)
	}
}

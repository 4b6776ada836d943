package views

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/registry"
)

// showStatus puts a status on the banner and schedules its dismissal.
func showStatus(banner *registry.Banner, kind registry.StatusKind, message string) tea.Cmd {
	status := banner.Show(kind, message)
	delay := registry.DismissDelay(kind)
	if delay <= 0 {
		return nil
	}
	return dismissAfter(status.Seq, delay)
}

func dismissAfter(seq uint64, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

func renderStatus(status registry.Status, spin string) string {
	if !status.Visible {
		return ""
	}

	switch status.Kind {
	case registry.StatusSuccess:
		return panelStyle.Render(successStyle.Render("✓ " + status.Message))
	case registry.StatusError:
		return panelStyle.Render(errorStyle.Render("✗ " + status.Message))
	default:
		return panelStyle.Render(pendingStyle.Render(spin + " " + status.Message))
	}
}

package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

// ApprovalModel asks the user to sign a transaction. It stands where a
// browser wallet would show its confirmation popup.
type ApprovalModel struct {
	pending *wallet.PendingApproval
}

func NewApprovalModel(pending *wallet.PendingApproval) *ApprovalModel {
	return &ApprovalModel{pending: pending}
}

func (m ApprovalModel) Update(msg tea.Msg) (ApprovalModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y", "enter":
		m.pending.Approve()
		return m, send(ApprovalDoneMsg{})
	case "n", "N", "esc":
		m.pending.Reject()
		return m, send(ApprovalDoneMsg{})
	}
	return m, nil
}

// Reject refuses the request without user input, used when the session ends.
func (m ApprovalModel) Reject() {
	m.pending.Reject()
}

func (m ApprovalModel) View() string {
	req := m.pending.Request

	var content strings.Builder
	content.WriteString(titleStyle.Render("Signature Request"))
	content.WriteString("\n")
	content.WriteString(textStyle.Render(req.Summary))
	content.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Method", req.Method},
		{"From", utils.ShortAddress(req.From.Hex())},
		{"Contract", utils.ShortAddress(req.To.Hex())},
		{"Gas", fmt.Sprintf("%d", req.Gas)},
	}
	if req.ChainID != nil {
		rows = append(rows, struct{ label, value string }{"Chain", req.ChainID.String()})
	}
	for _, row := range rows {
		content.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", row.label)))
		content.WriteString(" ")
		content.WriteString(textStyle.Render(row.value))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(button("Sign (y)", true, true))
	content.WriteString("  ")
	content.WriteString(button("Reject (n)", true, false))

	return modalStyle.Render(content.String())
}

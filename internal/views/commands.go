package views

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/wallet"
)

// Each command captures what it needs when it is created, so it never reads
// the model from the worker goroutine.

func connectCmd(ctx context.Context, conn uint64, connect ConnectFunc, account *wallet.Account) tea.Cmd {
	return func() tea.Msg {
		service, err := connect(ctx, account)
		return connectedMsg{conn: conn, service: service, err: err}
	}
}

func initCmd(ctx context.Context, conn uint64, service *registry.Service) tea.Cmd {
	return func() tea.Msg {
		return initResultMsg{conn: conn, err: service.Initialize(ctx)}
	}
}

func loadCmd(ctx context.Context, conn uint64, service *registry.Service) tea.Cmd {
	return func() tea.Msg {
		gifts, err := service.LoadGifts(ctx)
		return giftsLoadedMsg{conn: conn, gifts: gifts, err: err}
	}
}

func createCmd(ctx context.Context, conn uint64, service *registry.Service, draft registry.Draft) tea.Cmd {
	return func() tea.Msg {
		result, err := service.CreateGift(ctx, draft)
		return giftCreatedMsg{conn: conn, result: result, err: err}
	}
}

func decryptCmd(ctx context.Context, conn uint64, service *registry.Service, id string) tea.Cmd {
	return func() tea.Msg {
		result, err := service.Decrypt(ctx, id)
		return giftDecryptedMsg{conn: conn, id: id, result: result, err: err}
	}
}

func checkCmd(ctx context.Context, conn uint64, service *registry.Service) tea.Cmd {
	return func() tea.Msg {
		available, err := service.CheckAvailability(ctx)
		return availabilityMsg{conn: conn, available: available, err: err}
	}
}

// waitForApproval blocks until the signer asks for approval.
func waitForApproval(broker *wallet.ApprovalBroker) tea.Cmd {
	if broker == nil {
		return nil
	}
	return func() tea.Msg {
		return approvalRequestMsg{pending: <-broker.Requests()}
	}
}

func waitForExpiry(sessions *wallet.SessionManager) tea.Cmd {
	if sessions == nil {
		return nil
	}
	return func() tea.Msg {
		return sessionExpiredMsg{token: <-sessions.Expired()}
	}
}

package views

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/wallet"
)

type NavigateMsg struct {
	State ViewState
	Data  interface{}
}

type ErrorMsg struct {
	Err error
}

// WalletUnlockedMsg carries an account whose key is in memory. The app
// connects with it.
type WalletUnlockedMsg struct {
	Account *wallet.Account
}

// WalletSavedMsg is sent once an imported or generated account is stored.
type WalletSavedMsg struct {
	Account *wallet.Account
}

// Requests raised by the registry screen and its modals.
type (
	OpenCreateMsg    struct{}
	OpenDetailMsg    struct{ Gift registry.Gift }
	CloseModalMsg    struct{}
	SubmitGiftMsg    struct{ Draft registry.Draft }
	DecryptGiftMsg   struct{ ID string }
	ReloadMsg        struct{}
	CheckSystemMsg   struct{}
	DisconnectMsg    struct{}
	CopiedMsg        struct{ Err error }
	ApprovalDoneMsg  struct{}
)

// Results of background work. conn ties a result to the connection that
// started it so that late results from a closed session are dropped.
type (
	connectedMsg struct {
		conn    uint64
		service *registry.Service
		err     error
	}
	initResultMsg struct {
		conn uint64
		err  error
	}
	giftsLoadedMsg struct {
		conn  uint64
		gifts []registry.Gift
		err   error
	}
	giftCreatedMsg struct {
		conn   uint64
		result *registry.CreateResult
		err    error
	}
	giftDecryptedMsg struct {
		conn   uint64
		id     string
		result *registry.DecryptResult
		err    error
	}
	availabilityMsg struct {
		conn      uint64
		available bool
		err       error
	}
	statusExpiredMsg struct {
		seq uint64
	}
	approvalRequestMsg struct {
		pending *wallet.PendingApproval
	}
	sessionExpiredMsg struct {
		token string
	}
)

func NavigateTo(state ViewState, data interface{}) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{State: state, Data: data}
	}
}

func ShowError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

func newSpinner() spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(pendingStyle),
	)
}

package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rhystmorgan/giftterm/internal/audit"
	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

type ViewState int

const (
	ViewWalletSelector ViewState = iota
	ViewPasswordPrompt
	ViewWalletCreate
	ViewWalletImport
	ViewRegistry
)

type modal int

const (
	modalNone modal = iota
	modalCreate
	modalDetail
)

const (
	msgConnectFailed  = "Failed to connect wallet"
	msgSessionExpired = "Session expired, wallet locked"
	msgCopied         = "Sender address copied"
	msgCopyFailed     = "Copy failed"
)

// ConnectFunc binds the registry to an unlocked account. The returned
// service signs with the account's key.
type ConnectFunc func(ctx context.Context, account *wallet.Account) (*registry.Service, error)

type Options struct {
	Keystore *wallet.Keystore
	Sessions *wallet.SessionManager
	// Broker receives every signature request; nil signs without asking.
	Broker  *wallet.ApprovalBroker
	Connect ConnectFunc
	Journal registry.Journal
	Network string
	Logger  *zap.Logger
}

type AppModel struct {
	state  ViewState
	width  int
	height int

	keystore *wallet.Keystore
	sessions *wallet.SessionManager
	broker   *wallet.ApprovalBroker
	connect  ConnectFunc
	journal  registry.Journal
	network  string
	logger   *zap.Logger

	machine *registry.Machine
	banner  *registry.Banner
	history *registry.History

	// Connection scoped state. conn increases on every connect and
	// disconnect; results carrying an older value are dropped.
	service *registry.Service
	account common.Address
	conn    uint64
	ctx     context.Context
	cancel  context.CancelFunc

	root context.Context
	stop context.CancelFunc

	walletSelector *WalletSelectorModel
	passwordPrompt *PasswordPromptModel
	walletCreate   *WalletCreateModel
	walletImport   *WalletImportModel
	sessionStatus  *SessionStatusModel
	giftList       *GiftListModel
	createModal    *CreateGiftModel
	detailModal    *GiftDetailModel
	approval       *ApprovalModel
	modal          modal

	spinner spinner.Model
	help    help.Model

	err error
}

func NewAppModel(opts Options) (*AppModel, error) {
	if opts.Keystore == nil || opts.Connect == nil {
		return nil, fmt.Errorf("keystore and connect function are required")
	}

	wallets, err := opts.Keystore.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	root, stop := context.WithCancel(context.Background())

	app := &AppModel{
		state:    ViewWalletSelector,
		keystore: opts.Keystore,
		sessions: opts.Sessions,
		broker:   opts.Broker,
		connect:  opts.Connect,
		journal:  opts.Journal,
		network:  opts.Network,
		logger:   logger.Named("tui"),
		machine:  registry.NewMachine(),
		banner:   &registry.Banner{},
		history:  &registry.History{},
		root:     root,
		stop:     stop,
		spinner:  newSpinner(),
		help:     help.New(),
	}

	app.walletSelector = NewWalletSelectorModel(wallets)
	app.passwordPrompt = NewPasswordPromptModel(opts.Keystore)
	app.sessionStatus = NewSessionStatusModel(opts.Sessions)
	app.giftList = NewGiftListModel()

	return app, nil
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForApproval(m.broker),
		waitForExpiry(m.sessions),
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.approval != nil {
			*m.approval, cmd = m.approval.Update(msg)
			return m, cmd
		}
		if m.service != nil && m.sessions != nil {
			m.sessions.Touch()
		}
		if m.onListScreen() {
			switch msg.String() {
			case "q":
				return m.quit()
			case "?":
				m.help.ShowAll = !m.help.ShowAll
				return m, nil
			case "s":
				*m.sessionStatus, cmd = m.sessionStatus.Update(msg)
				return m, cmd
			}
		}
		if m.state == ViewWalletSelector && msg.String() == "q" {
			return m.quit()
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case NavigateMsg:
		return m.navigateTo(msg.State, msg.Data)

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case WalletUnlockedMsg:
		return m.connectWallet(msg.Account)

	case WalletSavedMsg:
		m.refreshWallets()
		return m.connectWallet(msg.Account)

	case connectedMsg:
		return m.handleConnected(msg)

	case initResultMsg:
		return m.handleInitResult(msg)

	case giftsLoadedMsg:
		return m.handleGiftsLoaded(msg)

	case OpenCreateMsg:
		return m.openCreate()

	case OpenDetailMsg:
		m.detailModal = NewGiftDetailModel(msg.Gift)
		m.detailModal.SetBusy(m.machine.State().Busy())
		m.modal = modalDetail
		return m, nil

	case CloseModalMsg:
		m.modal = modalNone
		m.detailModal = nil
		return m, nil

	case SubmitGiftMsg:
		return m.submitGift(msg.Draft)

	case giftCreatedMsg:
		return m.handleGiftCreated(msg)

	case DecryptGiftMsg:
		return m.decryptGift(msg.ID)

	case giftDecryptedMsg:
		return m.handleGiftDecrypted(msg)

	case ReloadMsg:
		return m.reload()

	case CheckSystemMsg:
		if m.service == nil {
			return m, showStatus(m.banner, registry.StatusError, registry.MsgConnectFirst)
		}
		return m, checkCmd(m.ctx, m.conn, m.service)

	case availabilityMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		switch {
		case msg.err != nil:
			m.logger.Warn("availability check failed", zap.Error(msg.err))
			return m, showStatus(m.banner, registry.StatusError, registry.MsgCheckFailed)
		case msg.available:
			return m, showStatus(m.banner, registry.StatusSuccess, registry.MsgAvailable)
		default:
			return m, showStatus(m.banner, registry.StatusError, registry.MsgUnavailable)
		}

	case CopiedMsg:
		if msg.Err != nil {
			m.logger.Warn("clipboard write failed", zap.Error(msg.Err))
			return m, showStatus(m.banner, registry.StatusError, msgCopyFailed)
		}
		return m, showStatus(m.banner, registry.StatusSuccess, msgCopied)

	case DisconnectMsg:
		if m.service == nil {
			return m, nil
		}
		m.disconnect()
		return m, nil

	case sessionExpiredMsg:
		next := waitForExpiry(m.sessions)
		if m.service == nil {
			return m, next
		}
		m.logger.Info("session expired")
		m.disconnect()
		return m, tea.Batch(next, showStatus(m.banner, registry.StatusError, msgSessionExpired))

	case approvalRequestMsg:
		m.approval = NewApprovalModel(msg.pending)
		return m, waitForApproval(m.broker)

	case ApprovalDoneMsg:
		m.approval = nil
		return m, nil

	case statusExpiredMsg:
		m.banner.Expire(msg.seq)
		return m, nil
	}

	busy := m.machine.State().Busy()

	switch m.state {
	case ViewWalletSelector:
		*m.walletSelector, cmd = m.walletSelector.Update(msg)
	case ViewPasswordPrompt:
		*m.passwordPrompt, cmd = m.passwordPrompt.Update(msg)
	case ViewWalletCreate:
		if m.walletCreate != nil {
			*m.walletCreate, cmd = m.walletCreate.Update(msg)
		}
	case ViewWalletImport:
		if m.walletImport != nil {
			*m.walletImport, cmd = m.walletImport.Update(msg)
		}
	case ViewRegistry:
		switch m.modal {
		case modalCreate:
			m.createModal.SetBusy(busy)
			*m.createModal, cmd = m.createModal.Update(msg)
		case modalDetail:
			m.detailModal.SetBusy(busy)
			*m.detailModal, cmd = m.detailModal.Update(msg)
		default:
			m.giftList.SetBusy(busy)
			*m.giftList, cmd = m.giftList.Update(msg)
		}
	}

	return m, cmd
}

// onListScreen reports whether single letter keys are commands rather than
// text input.
func (m AppModel) onListScreen() bool {
	return m.state == ViewRegistry && m.modal == modalNone && !m.giftList.Searching()
}

func (m AppModel) quit() (tea.Model, tea.Cmd) {
	m.Shutdown()
	return m, tea.Quit
}

func (m AppModel) navigateTo(state ViewState, data interface{}) (tea.Model, tea.Cmd) {
	m.state = state
	m.err = nil

	var cmd tea.Cmd
	switch state {
	case ViewWalletSelector:
		m.refreshWallets()
	case ViewPasswordPrompt:
		target, ok := data.(*wallet.StoredAccount)
		if !ok {
			m.state = ViewWalletSelector
			return m, nil
		}
		cmd = m.passwordPrompt.Show(target)
	case ViewWalletCreate:
		m.walletCreate = NewWalletCreateModel(m.keystore)
	case ViewWalletImport:
		m.walletImport = NewWalletImportModel(m.keystore)
	}

	return m, cmd
}

func (m *AppModel) refreshWallets() {
	wallets, err := m.keystore.List()
	if err != nil {
		m.logger.Warn("failed to list wallets", zap.Error(err))
		return
	}
	m.walletSelector = NewWalletSelectorModel(wallets)
}

// connectWallet opens a session for an unlocked account and binds the
// registry to it.
func (m AppModel) connectWallet(account *wallet.Account) (tea.Model, tea.Cmd) {
	if account == nil {
		return m, nil
	}
	if m.service != nil {
		m.disconnect()
	}

	m.conn++
	m.ctx, m.cancel = context.WithCancel(m.root)
	if m.sessions != nil {
		m.sessions.Open(account)
	}
	m.account = account.Address

	return m, connectCmd(m.ctx, m.conn, m.connect, account)
}

func (m AppModel) handleConnected(msg connectedMsg) (tea.Model, tea.Cmd) {
	if msg.conn != m.conn {
		return m, nil
	}
	if msg.err != nil {
		m.logger.Error("connect failed", zap.Error(msg.err))
		m.disconnect()
		return m, showStatus(m.banner, registry.StatusError, registry.UserMessage(msg.err, msgConnectFailed))
	}

	if _, err := m.machine.Fire(registry.EventConnect); err != nil {
		m.logger.Debug("connect ignored", zap.Error(err))
		return m, nil
	}
	m.service = msg.service
	m.state = ViewRegistry
	m.giftList = NewGiftListModel()
	m.journalAction(audit.AuditActionConnect)
	m.logger.Info("wallet connected", zap.String("account", m.account.Hex()))

	return m, initCmd(m.ctx, m.conn, m.service)
}

func (m AppModel) handleInitResult(msg initResultMsg) (tea.Model, tea.Cmd) {
	if msg.conn != m.conn || m.machine.State() != registry.Initializing {
		return m, nil
	}
	if msg.err != nil {
		m.logger.Error("fhe initialization failed", zap.Error(msg.err))
		m.machine.Fire(registry.EventInitFailed)
		return m, showStatus(m.banner, registry.StatusError, registry.MsgInitFailed)
	}

	m.machine.Fire(registry.EventInitialized)
	return m, loadCmd(m.ctx, m.conn, m.service)
}

func (m AppModel) handleGiftsLoaded(msg giftsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.conn != m.conn || m.machine.State() != registry.Loading {
		return m, nil
	}
	if msg.err != nil {
		m.machine.Fire(registry.EventLoadFailed)
		return m, showStatus(m.banner, registry.StatusError, registry.MsgLoadFailed)
	}

	m.machine.Fire(registry.EventLoaded)
	m.giftList.SetGifts(msg.gifts)
	if m.detailModal != nil {
		for _, gift := range msg.gifts {
			if gift.ID == m.detailModal.Gift().ID {
				m.detailModal.SetGift(gift)
				break
			}
		}
	}
	return m, nil
}

func (m AppModel) reload() (tea.Model, tea.Cmd) {
	switch m.machine.State() {
	case registry.Initializing:
		// Retry a failed initialization.
		return m, initCmd(m.ctx, m.conn, m.service)
	case registry.Ready:
		m.machine.Fire(registry.EventReload)
		m.service.ClearCache()
		return m, loadCmd(m.ctx, m.conn, m.service)
	}
	return m, nil
}

func (m AppModel) openCreate() (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, showStatus(m.banner, registry.StatusError, registry.MsgConnectFirst)
	}
	state := m.machine.State()
	if state != registry.Ready && !state.Busy() {
		return m, nil
	}
	if m.createModal == nil {
		m.createModal = NewCreateGiftModel()
	}
	m.createModal.SetBusy(state.Busy())
	m.modal = modalCreate
	return m, nil
}

func (m AppModel) submitGift(draft registry.Draft) (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, showStatus(m.banner, registry.StatusError, registry.MsgConnectFirst)
	}
	if !draft.CanSubmit(m.machine.State().Busy()) {
		return m, nil
	}
	if _, err := m.machine.Fire(registry.EventCreate); err != nil {
		return m, nil
	}
	if m.createModal != nil {
		m.createModal.SetBusy(true)
	}

	return m, tea.Batch(
		showStatus(m.banner, registry.StatusPending, registry.MsgSendPending),
		createCmd(m.ctx, m.conn, m.service, draft),
	)
}

func (m AppModel) handleGiftCreated(msg giftCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.conn != m.conn {
		return m, nil
	}
	m.machine.Fire(registry.EventFinished)
	if m.createModal != nil {
		m.createModal.SetBusy(false)
	}

	if msg.err != nil {
		return m, showStatus(m.banner, registry.StatusError, registry.UserMessage(msg.err, registry.MsgSendFailed))
	}

	m.history.Add(msg.result.HistoryEntry())
	if m.createModal != nil {
		m.createModal.Reset()
	}
	if m.modal == modalCreate {
		m.modal = modalNone
	}

	m.machine.Fire(registry.EventReload)
	m.service.ClearCache()
	return m, tea.Batch(
		showStatus(m.banner, registry.StatusSuccess, registry.MsgSendSuccess),
		loadCmd(m.ctx, m.conn, m.service),
	)
}

func (m AppModel) decryptGift(id string) (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, showStatus(m.banner, registry.StatusError, registry.MsgConnectFirst)
	}
	if _, err := m.machine.Fire(registry.EventDecrypt); err != nil {
		return m, nil
	}
	if m.detailModal != nil {
		m.detailModal.SetBusy(true)
	}

	return m, tea.Batch(
		showStatus(m.banner, registry.StatusPending, registry.MsgDecryptPending),
		decryptCmd(m.ctx, m.conn, m.service, id),
	)
}

func (m AppModel) handleGiftDecrypted(msg giftDecryptedMsg) (tea.Model, tea.Cmd) {
	if msg.conn != m.conn {
		return m, nil
	}
	m.machine.Fire(registry.EventFinished)
	if m.detailModal != nil {
		m.detailModal.SetBusy(false)
	}

	if msg.err != nil {
		return m, showStatus(m.banner, registry.StatusError, registry.UserMessage(msg.err, registry.MsgDecryptFailed))
	}

	result := msg.result
	status := registry.MsgDecryptSuccess
	if result.AlreadyVerified {
		status = registry.MsgAlreadyVerified
	} else {
		m.history.Add(result.HistoryEntry())
	}
	if m.detailModal != nil && m.detailModal.Gift().ID == msg.id && result.HasAmount {
		m.detailModal.SetDecrypted(result.Amount)
	}

	m.machine.Fire(registry.EventReload)
	m.service.ClearCache()
	return m, tea.Batch(
		showStatus(m.banner, registry.StatusSuccess, status),
		loadCmd(m.ctx, m.conn, m.service),
	)
}

// disconnect drops everything tied to the wallet: the session, the bound
// service, open dialogs and the action history.
func (m *AppModel) disconnect() {
	if m.service != nil {
		m.journalAction(audit.AuditActionDisconnect)
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.approval != nil {
		m.approval.Reject()
		m.approval = nil
	}
	if m.machine.Can(registry.EventDisconnect) {
		m.machine.Fire(registry.EventDisconnect)
	}
	if m.sessions != nil {
		m.sessions.Close()
	}
	// A pending banner has no timer; its result will never arrive.
	if cur := m.banner.Current(); cur.Visible && cur.Kind == registry.StatusPending {
		m.banner.Expire(cur.Seq)
	}

	m.conn++
	m.service = nil
	m.account = common.Address{}
	m.modal = modalNone
	m.createModal = nil
	m.detailModal = nil
	m.giftList = NewGiftListModel()
	m.history.Reset()
	m.state = ViewWalletSelector
	m.refreshWallets()
}

func (m *AppModel) journalAction(action audit.AuditAction) {
	if m.journal == nil {
		return
	}
	details := map[string]interface{}{"network": m.network}
	if err := m.journal.LogGiftAction(action, "", m.account.Hex(), "", details); err != nil {
		m.logger.Warn("failed to write audit entry", zap.Error(err))
	}
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content string

	switch m.state {
	case ViewWalletSelector:
		content = m.walletSelector.View()
	case ViewPasswordPrompt:
		content = m.passwordPrompt.View()
	case ViewWalletCreate:
		if m.walletCreate != nil {
			content = m.walletCreate.View()
		}
	case ViewWalletImport:
		if m.walletImport != nil {
			content = m.walletImport.View()
		}
	case ViewRegistry:
		content = m.registryView()
	default:
		content = "Unknown view"
	}

	if status := renderStatus(m.banner.Current(), m.spinner.View()); status != "" {
		content = status + "\n" + content
	}

	if m.err != nil {
		content += "\n" + errorStyle.Padding(1).Render(fmt.Sprintf("Error: %s", m.err.Error()))
	}

	var overlay string
	switch {
	case m.approval != nil:
		overlay = m.approval.View()
	case m.state == ViewRegistry && m.modal == modalCreate:
		overlay = m.createModal.View()
	case m.state == ViewRegistry && m.modal == modalDetail:
		overlay = m.detailModal.View()
	}
	if overlay != "" {
		content = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
		if status := renderStatus(m.banner.Current(), m.spinner.View()); status != "" {
			content = status + "\n" + content
		}
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m AppModel) registryView() string {
	var b strings.Builder

	header := titleStyle.Render("💍 GiftTerm")
	account := textStyle.Render(utils.ShortAddress(m.account.Hex()))
	network := subtitleStyle.Render(m.network)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, header, "   ", account, "  ", network, "  ", m.sessionStatus.View()))
	b.WriteString("\n")

	switch state := m.machine.State(); state {
	case registry.Initializing:
		b.WriteString(pendingStyle.Render(m.spinner.View() + " Initializing FHE..."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r: retry • x: disconnect • q: quit"))
		return b.String()
	case registry.Loading:
		if len(m.giftList.Filtered()) == 0 {
			b.WriteString(pendingStyle.Render(m.spinner.View() + " Loading gifts..."))
			b.WriteString("\n")
			return b.String()
		}
	}

	list := m.giftList.View()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.historyPanel()))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.giftList.keys))
	return b.String()
}

func (m AppModel) historyPanel() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Your Recent Actions"))
	b.WriteString("\n")

	entries := m.history.Entries()
	if len(entries) == 0 {
		b.WriteString(subtitleStyle.Render("No recent actions"))
	}
	for _, entry := range entries {
		b.WriteString(textStyle.Render("• " + entry))
		b.WriteString("\n")
	}
	return panelStyle.Width(34).Render(b.String())
}

// Shutdown cancels outstanding work and locks the wallet.
func (m *AppModel) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.stop != nil {
		m.stop()
	}
	if m.sessions != nil {
		m.sessions.Close()
	}
}

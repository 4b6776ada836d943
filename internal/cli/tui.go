package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"rhystmorgan/giftterm/internal/views"
	"rhystmorgan/giftterm/internal/wallet"
)

func runTUI(cmd *cobra.Command, env *environment) error {
	sessions := wallet.NewSessionManager(wallet.SessionConfig{Timeout: env.cfg.SessionTimeout})
	defer sessions.Shutdown()

	// Signature requests are answered in the UI.
	broker := wallet.NewApprovalBroker()

	app, err := views.NewAppModel(views.Options{
		Keystore: env.keystore,
		Sessions: sessions,
		Broker:   broker,
		Connect:  env.connector(broker),
		Journal:  env.journal,
		Network:  env.cfg.Network,
		Logger:   env.logger,
	})
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	p := tea.NewProgram(*app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	final, err := p.Run()
	if m, ok := final.(views.AppModel); ok {
		m.Shutdown()
	}
	if err != nil {
		return fmt.Errorf("run application: %w", err)
	}
	return nil
}

package views

import "github.com/charmbracelet/bubbles/key"

// registryKeys are the bindings of the gift list.
type registryKeys struct {
	Up         key.Binding
	Down       key.Binding
	Send       key.Binding
	Details    key.Binding
	Decrypt    key.Binding
	Search     key.Binding
	Refresh    key.Binding
	Check      key.Binding
	Disconnect key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newRegistryKeys() registryKeys {
	return registryKeys{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Send: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "send gift"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Decrypt: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "decrypt"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Check: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "check system"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "disconnect"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k registryKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Details, k.Decrypt, k.Search, k.Help, k.Quit}
}

func (k registryKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Details},
		{k.Send, k.Decrypt, k.Search},
		{k.Refresh, k.Check, k.Disconnect, k.Quit},
	}
}

// setBusy disables the bindings that start an operation.
func (k *registryKeys) setBusy(busy bool) {
	k.Send.SetEnabled(!busy)
	k.Decrypt.SetEnabled(!busy)
	k.Refresh.SetEnabled(!busy)
}

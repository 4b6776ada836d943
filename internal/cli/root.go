// Package cli is the giftterm command tree. With no subcommand it runs the
// terminal UI; the subcommands drive the same registry flows headlessly.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"rhystmorgan/giftterm/internal/config"
)

type rootFlags struct {
	network    string
	rpc        string
	contract   string
	fheGateway string
	envFile    string

	env *environment
}

type envKey struct{}

// newRootCmd builds the command tree. The returned flags own the
// environment opened by whichever command runs; close them afterwards.
func newRootCmd() (*cobra.Command, *rootFlags) {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "giftterm",
		Short: "GiftTerm - private wedding gift registry",
		Long: `GiftTerm sends wedding gifts whose amounts are encrypted with FHE and
stored in a registry contract. Only the sender and the couple can decrypt an
amount; once decrypted the clear value is verified on chain.

Run without a subcommand to open the terminal UI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.environment()
			if err != nil {
				return err
			}
			flags.env = env
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, env))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, envFrom(cmd))
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.network, "network", "", "network to use: mainnet, sepolia or local (env GIFTTERM_NETWORK)")
	pf.StringVar(&flags.rpc, "rpc", "", "JSON-RPC endpoint of the node (env GIFTTERM_RPC_URL)")
	pf.StringVar(&flags.contract, "contract", "", "registry contract address (env GIFTTERM_CONTRACT)")
	pf.StringVar(&flags.fheGateway, "fhe-gateway", "", "FHE gateway endpoint (env GIFTTERM_FHE_GATEWAY)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file read before the environment")

	cmd.AddCommand(
		newListCmd(),
		newCheckCmd(),
		newSendCmd(),
		newDecryptCmd(),
		newWalletCmd(),
	)

	return cmd, flags
}

// Execute runs the command tree. It is called by main.main.
func Execute() error {
	cmd, flags := newRootCmd()
	defer flags.close()
	return cmd.Execute()
}

func (f *rootFlags) close() {
	if f.env != nil {
		f.env.Close()
		f.env = nil
	}
}

// config loads the environment and applies the flags on top.
func (f *rootFlags) config() (*config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return nil, err
	}

	if f.network != "" {
		cfg.Network = f.network
	}
	if f.rpc != "" {
		cfg.NodeURL = f.rpc
	}
	if f.contract != "" {
		cfg.ContractAddress = f.contract
	}
	if f.fheGateway != "" {
		cfg.FHEGatewayURL = f.fheGateway
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *rootFlags) environment() (*environment, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	return newEnvironment(cfg)
}

func envFrom(cmd *cobra.Command) *environment {
	env, _ := cmd.Context().Value(envKey{}).(*environment)
	return env
}

var errUnavailable = errors.New("registry reports the system unavailable")

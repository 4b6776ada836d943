package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the wallets in the local keystore",
	}
	cmd.AddCommand(newWalletListCmd(), newWalletNewCmd(), newWalletImportCmd())
	return cmd
}

func newWalletListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wallets, err := envFrom(cmd).keystore.List()
			if err != nil {
				return err
			}
			if len(wallets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No wallets yet. Run 'giftterm wallet new' or 'giftterm wallet import'.")
				return nil
			}

			rows := make([][]string, 0, len(wallets))
			for _, w := range wallets {
				rows = append(rows, []string{w.Name, w.Address.Hex(), utils.FormatDate(w.CreatedAt), w.ID})
			}
			fmt.Fprintln(cmd.OutOrStdout(), table.New().
				Border(lipgloss.NormalBorder()).
				Headers("NAME", "ADDRESS", "CREATED", "ID").
				Rows(rows...).
				String())
			return nil
		},
	}
}

func checkName(name string) error {
	if issues := utils.ValidateWalletName(name); len(issues) > 0 {
		return errors.New(strings.Join(issues, "; "))
	}
	return nil
}

func newWalletNewCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a wallet from a fresh recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkName(name); err != nil {
				return err
			}

			mnemonic, err := wallet.GenerateMnemonic()
			if err != nil {
				return fmt.Errorf("generate mnemonic: %w", err)
			}
			account, err := wallet.FromMnemonic(strings.TrimSpace(name), mnemonic)
			if err != nil {
				return err
			}
			defer account.Wipe()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Recovery phrase. Write it down; it is the only way to restore this wallet:")
			for i, word := range strings.Fields(mnemonic) {
				fmt.Fprintf(out, "%2d. %s\n", i+1, word)
			}
			fmt.Fprintln(out)

			return saveWallet(cmd, account)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "wallet name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newWalletImportCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a wallet from a recovery phrase or private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkName(name); err != nil {
				return err
			}

			secret, err := promptSecret(cmd.OutOrStdout(), "Recovery phrase or private key: ")
			if err != nil {
				return err
			}
			account, err := wallet.FromSecret(strings.TrimSpace(name), secret)
			if err != nil {
				return err
			}
			defer account.Wipe()

			return saveWallet(cmd, account)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "wallet name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func saveWallet(cmd *cobra.Command, account *wallet.Account) error {
	password, err := promptNewPassword(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	keystore := envFrom(cmd).keystore
	if err := keystore.Save(account, password); err != nil {
		return fmt.Errorf("save wallet: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", account.Name, account.Address.Hex())
	return nil
}

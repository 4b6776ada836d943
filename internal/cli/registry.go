package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"rhystmorgan/giftterm/internal/contract"
	"rhystmorgan/giftterm/internal/registry"
	"rhystmorgan/giftterm/internal/utils"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every gift in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFrom(cmd)
			svc, err := env.registry(cmd.Context(), nil, nil)
			if err != nil {
				return err
			}

			gifts, err := svc.LoadGifts(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", registry.MsgLoadFailed, err)
			}
			if len(gifts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No gifts yet.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), giftTable(gifts))
			return nil
		},
	}
}

func giftTable(gifts []registry.Gift) string {
	rows := make([][]string, 0, len(gifts))
	for _, gift := range gifts {
		amount := "encrypted"
		if value, ok := gift.Amount(); ok {
			amount = fmt.Sprintf("%d", value)
		}
		status := "Encrypted"
		if gift.Verified {
			status = "Verified"
		}
		rows = append(rows, []string{
			gift.ID,
			utils.ShortAddress(gift.Sender.Hex()),
			status,
			amount,
			utils.TruncateString(gift.Message, 40),
			utils.FormatDate(gift.Timestamp),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "FROM", "STATUS", "AMOUNT", "MESSAGE", "DATE").
		Rows(rows...).
		String()
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ask the registry whether it accepts gifts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := envFrom(cmd)
			svc, err := env.registry(cmd.Context(), nil, nil)
			if err != nil {
				return err
			}

			available, err := svc.CheckAvailability(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", registry.MsgCheckFailed, err)
			}

			status := env.chain.RefreshStatus(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "network %s (chain %s, block %d)\n", env.cfg.Network, status.ChainID, status.BlockHeight)
			if !available {
				fmt.Fprintln(cmd.OutOrStdout(), registry.MsgUnavailable)
				return errUnavailable
			}
			fmt.Fprintln(cmd.OutOrStdout(), registry.MsgAvailable)
			return nil
		},
	}
}

type txFlags struct {
	wallet string
	yes    bool
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.wallet, "wallet", "w", "", "wallet name, ID or address")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "sign without asking")
	_ = cmd.MarkFlagRequired("wallet")
}

func (f *txFlags) approver(cmd *cobra.Command) contract.Approver {
	if f.yes {
		return contract.AutoApprove
	}
	return confirmApprover(cmd.InOrStdin(), cmd.OutOrStdout())
}

// connect unlocks the wallet and binds a signing registry. The FHE client is
// initialized by the first operation that needs it.
func (f *txFlags) connect(cmd *cobra.Command) (*registry.Service, func(), error) {
	env := envFrom(cmd)

	account, err := unlock(cmd.OutOrStdout(), env.keystore, f.wallet)
	if err != nil {
		return nil, nil, err
	}

	svc, err := env.registry(cmd.Context(), account, f.approver(cmd))
	if err != nil {
		account.Wipe()
		return nil, nil, err
	}
	return svc, account.Wipe, nil
}

func newSendCmd() *cobra.Command {
	var (
		tx    txFlags
		draft registry.Draft
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an encrypted gift to the couple",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Amount = registry.SanitizeAmount(draft.Amount)
			if err := draft.Validate(); err != nil {
				return err
			}

			svc, done, err := tx.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			fmt.Fprintln(cmd.OutOrStdout(), registry.MsgSendPending)
			result, err := svc.CreateGift(cmd.Context(), draft)
			if err != nil {
				return fmt.Errorf("%s: %w", registry.UserMessage(err, registry.MsgSendFailed), err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), registry.MsgSendSuccess)
			fmt.Fprintf(cmd.OutOrStdout(), "  gift: %s\n  tx:   %s\n", result.ID, result.TxHash.Hex())
			return nil
		},
	}

	tx.register(cmd)
	cmd.Flags().StringVarP(&draft.Amount, "amount", "a", "", "gift amount, a whole number")
	cmd.Flags().StringVarP(&draft.Message, "message", "m", "", "message for the couple")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newDecryptCmd() *cobra.Command {
	var tx txFlags

	cmd := &cobra.Command{
		Use:   "decrypt <gift-id>",
		Short: "Decrypt a gift amount and verify it on chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := tx.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			fmt.Fprintln(cmd.OutOrStdout(), registry.MsgDecryptPending)
			result, err := svc.Decrypt(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", registry.UserMessage(err, registry.MsgDecryptFailed), err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), decryptSummary(result))
			return nil
		},
	}

	tx.register(cmd)
	return cmd
}

func decryptSummary(result *registry.DecryptResult) string {
	status := registry.MsgDecryptSuccess
	if result.AlreadyVerified {
		status = registry.MsgAlreadyVerified
	}
	if !result.HasAmount {
		return fmt.Sprintf("%s %s is verified; the amount is not readable yet", status, result.ID)
	}
	return fmt.Sprintf("%s %s from %s: %d", status, result.ID, utils.ShortAddress(result.Creator.Hex()), result.Amount)
}

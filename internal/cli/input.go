package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"rhystmorgan/giftterm/internal/contract"
	"rhystmorgan/giftterm/internal/utils"
	"rhystmorgan/giftterm/internal/wallet"
)

// readPassword is replaced in tests so they never touch the terminal.
var readPassword = term.ReadPassword

func promptSecret(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(strings.TrimSuffix(prompt, ": ")), err)
	}
	return string(secret), nil
}

// promptNewPassword asks for a keystore password twice and checks its strength.
func promptNewPassword(w io.Writer) (string, error) {
	password, err := promptSecret(w, "New password: ")
	if err != nil {
		return "", err
	}
	if issues := wallet.CheckPassword(password); len(issues) > 0 {
		return "", fmt.Errorf("%w: %s", wallet.ErrWeakPassword, strings.Join(issues, "; "))
	}

	confirm, err := promptSecret(w, "Confirm password: ")
	if err != nil {
		return "", err
	}
	if confirm != password {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

// unlock resolves ref in the keystore and decrypts it with a prompted password.
func unlock(w io.Writer, keystore *wallet.Keystore, ref string) (*wallet.Account, error) {
	stored, err := keystore.Find(ref)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}

	password, err := promptSecret(w, fmt.Sprintf("Password for %s (%s): ", stored.Name, utils.ShortAddress(stored.Address.Hex())))
	if err != nil {
		return nil, err
	}
	return keystore.Unlock(stored.ID, password)
}

// confirmApprover shows each transaction and waits for y or n on r.
func confirmApprover(r io.Reader, w io.Writer) contract.Approver {
	reader := bufio.NewReader(r)
	return contract.ApproveFunc(func(ctx context.Context, req contract.ApprovalRequest) error {
		fmt.Fprintf(w, "\n%s\n", req.Summary)
		fmt.Fprintf(w, "  method:   %s\n", req.Method)
		fmt.Fprintf(w, "  from:     %s\n", req.From.Hex())
		fmt.Fprintf(w, "  contract: %s\n", req.To.Hex())
		fmt.Fprintf(w, "  gas:      %d\n", req.Gas)
		fmt.Fprint(w, "Sign this transaction? [y/N] ")

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return fmt.Errorf("%w: %v", contract.ErrUserRejected, err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return nil
		}
		return contract.ErrUserRejected
	})
}

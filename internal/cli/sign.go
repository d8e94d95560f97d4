package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"landlocked/internal/ledger/keys"
	"landlocked/internal/txn"
)

var (
	signKey      string
	signAccounts string
	signArgs     string
	signValidFor time.Duration
)

func init() {
	SignCmd.Flags().StringVar(&signKey, "key", "", "Hex private key of the signer")
	SignCmd.Flags().StringVar(&signAccounts, "accounts", "{}", "Account set as a JSON object")
	SignCmd.Flags().StringVar(&signArgs, "args", "", "Instruction arguments as JSON")
	SignCmd.Flags().DurationVar(&signValidFor, "valid-for", txn.DefaultValidity, "How long the node accepts the transaction; at most replay.ttl")
}

// SignCmd prints a signed transaction envelope ready to POST to
// /v1/transactions.
var SignCmd = &cobra.Command{
	Use:   "sign <instruction>",
	Short: "Sign a transaction envelope",
	Args:  cobra.ExactArgs(1),
	RunE:  sign,
}

func sign(cmd *cobra.Command, args []string) error {
	if signKey == "" {
		return errors.New("--key is required")
	}
	key, err := keys.FromHex(signKey)
	if err != nil {
		return err
	}
	if !json.Valid([]byte(signAccounts)) {
		return errors.New("--accounts must be valid JSON")
	}
	var txArgs any
	if signArgs != "" {
		if !json.Valid([]byte(signArgs)) {
			return errors.New("--args must be valid JSON")
		}
		txArgs = json.RawMessage(signArgs)
	}
	if signValidFor <= 0 {
		return errors.New("--valid-for must be positive")
	}

	tx, err := txn.New(txn.Instruction(args[0]), json.RawMessage(signAccounts), txArgs)
	if err != nil {
		return err
	}
	tx.ExpiresAt = time.Now().Add(signValidFor).Unix()
	if err := tx.Sign(key); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(tx, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return err
}

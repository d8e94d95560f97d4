package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"landlocked/internal/ledger/keys"
)

var KeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing key and print its identity",
	Args:  cobra.NoArgs,
	RunE:  keygen,
}

func keygen(cmd *cobra.Command, _ []string) error {
	key, err := keys.Generate()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "private_key: %s\n", key.Hex())
	fmt.Fprintf(out, "public_key:  %s\n", hex.EncodeToString(key.PublicKey()))
	fmt.Fprintf(out, "identity:    %s\n", key.Identity())
	return nil
}

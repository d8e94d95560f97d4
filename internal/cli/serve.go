package cli

import (
	"github.com/spf13/cobra"

	"landlocked/internal/node"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry node and its HTTP API",
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	n, err := node.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Error("close node", "error", err)
		}
	}()

	if err := n.Run(ctx); err != nil {
		return err
	}
	log.Info("node stopped")
	return nil
}

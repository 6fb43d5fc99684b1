package main

import (
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/skedule/server/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the schedule tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, _ []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		if owner == "" {
			return errors.New("--owner is required")
		}
		p, err := loadProfile()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := newApp(ctx, p)
		if err != nil {
			return err
		}
		defer a.Close()
		return mcp.NewServer(a.dispatcher, owner, version).Run(ctx)
	},
}

func init() {
	mcpCmd.Flags().String("owner", "", "caller identity every tool call acts as")
}

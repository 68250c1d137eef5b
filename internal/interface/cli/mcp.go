package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicksanford/sanding-monitoring-web-app/cmd/sandmon/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server for assistant integration",
	Long: `Start an MCP (Model Context Protocol) server that exposes sanding
passes, step videos, and notes as tools.

Configure in an MCP client's config file:
  {
    "mcpServers": {
      "sandmon": {
        "command": "sandmon",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := mcp.StartServer(cfg); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

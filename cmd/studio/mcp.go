package main

import (
	"github.com/spf13/cobra"
)

// mcpCmd serves the studio tools to an MCP client over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the studio tools over MCP stdio",
	Long: `Serve import, deploy and listing tools to an MCP client over stdio. Tool calls act
as STUDIO_IDENTITY (or --identity).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.NewMCPServer(Version).Start()
	},
}

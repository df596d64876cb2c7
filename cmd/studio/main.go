package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func printVersionInfo() {
	fmt.Printf("Table Studio %s\n", Version)
	fmt.Printf("Built: %s, from commit: %s\n", BuildTime, CommitHash)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Import and deploy on-chain tables into project environments",
	Long: "Table Studio keeps the definitions of a project in sync with the tables deployed " +
		"for them on-chain. Configuration is read from the environment, .env and studio.yaml.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("version") != nil && cmd.Flags().Lookup("version").Changed {
			printVersionInfo()
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "Show version information and exit")
	rootCmd.PersistentFlags().String("identity", "", "Identity to act as (defaults to STUDIO_IDENTITY)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importCSVCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(deploymentsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	Execute()
}

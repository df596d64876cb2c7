package main

import (
	"fmt"

	"github.com/rxtech-lab/table-studio/internal/services"
	"github.com/spf13/cobra"
)

// deployCmd creates a new on-chain table for a definition
var deployCmd = &cobra.Command{
	Use:   "deploy [definition-id]",
	Short: "Deploy a definition as a new on-chain table",
	Long: `Create a table on-chain from the definition's schema and record it in the environment.
Requires SIGNER_PRIVATE_KEY and an RPC endpoint for the chain (RPC_URLS).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		project, _ := cmd.Flags().GetString("project")
		environment, _ := cmd.Flags().GetString("environment")
		chainID, _ := cmd.Flags().GetInt64("chain")

		fmt.Fprintf(cmd.OutOrStdout(), "deploying to chain %d, waiting up to %s for confirmation...\n",
			chainID, a.Config.ConfirmationTimeout)
		deployment, err := a.Deploys.Deploy(cmd.Context(), services.DeployRequest{
			ProjectID:     project,
			EnvironmentID: environment,
			DefinitionID:  args[0],
			ChainID:       chainID,
			Identity:      a.Config.Identity,
		})
		if err != nil {
			return describeError(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deployed %s", deployment.TableName)
		if deployment.TxnHash != nil {
			fmt.Fprintf(cmd.OutOrStdout(), " in %s", *deployment.TxnHash)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	deployCmd.Flags().String("project", "", "Project ID (required)")
	deployCmd.Flags().String("environment", "", "Environment ID (required)")
	deployCmd.Flags().Int64("chain", 0, "Chain ID to create the table on (required)")
	_ = deployCmd.MarkFlagRequired("project")
	_ = deployCmd.MarkFlagRequired("environment")
	_ = deployCmd.MarkFlagRequired("chain")
}

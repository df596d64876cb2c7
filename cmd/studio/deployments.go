package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rxtech-lab/table-studio/internal/models"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"github.com/spf13/cobra"
)

// deploymentsCmd groups read-only deployment commands
var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "Inspect recorded deployments",
}

// listDeploymentsCmd lists deployments of a project or environment
var listDeploymentsCmd = &cobra.Command{
	Use:   "list",
	Short: "List deployments of a project or an environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		environment, _ := cmd.Flags().GetString("environment")
		asJSON, _ := cmd.Flags().GetBool("json")
		if project == "" && environment == "" {
			return fmt.Errorf("one of --project or --environment is required")
		}

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if environment != "" {
			env, err := a.Projects.GetEnvironmentByID(ctx, environment)
			if err != nil {
				return describeError(err)
			}
			project = env.ProjectID
		}
		ok, err := a.Authorizer.IsAuthorizedForProject(ctx, a.Config.Identity, project)
		if err != nil {
			return err
		}
		if !ok {
			return describeError(appErr.Newf(appErr.CodeUnauthorized, "%q is not a member of this project's team", a.Config.Identity))
		}

		var deployments []models.Deployment
		if environment != "" {
			deployments, err = a.Deployments.ListDeploymentsByEnvironment(ctx, environment)
		} else {
			deployments, err = a.Deployments.ListDeploymentsByProject(ctx, project)
		}
		if err != nil {
			return describeError(err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(deployments)
		}
		return printDeployments(cmd.OutOrStdout(), deployments)
	},
}

func printDeployments(w io.Writer, deployments []models.Deployment) error {
	if len(deployments) == 0 {
		_, err := fmt.Fprintln(w, "No deployments found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCHAIN\tENVIRONMENT\tDEFINITION\tCREATED")
	for _, d := range deployments {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			d.TableName, d.ChainID, d.EnvironmentID, d.DefID, d.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func init() {
	listDeploymentsCmd.Flags().String("project", "", "List deployments across the project's environments")
	listDeploymentsCmd.Flags().String("environment", "", "List deployments of one environment")
	listDeploymentsCmd.Flags().Bool("json", false, "Print JSON instead of a table")

	deploymentsCmd.AddCommand(listDeploymentsCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"github.com/spf13/cobra"
)

// importCmd attaches one existing on-chain table
var importCmd = &cobra.Command{
	Use:   "import [table-name]",
	Short: "Import an existing on-chain table",
	Long: `Import a table that already exists on-chain into an environment. The table name
has the form {prefix}_{chainId}_{tableId}, for example users_80002_7.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		project, _ := cmd.Flags().GetString("project")
		environment, _ := cmd.Flags().GetString("environment")
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		result, err := a.Imports.ImportOne(cmd.Context(), services.ImportRequest{
			ProjectID:      project,
			EnvironmentID:  environment,
			TableName:      args[0],
			DefinitionName: name,
			Description:    description,
			Identity:       a.Config.Identity,
		})
		if err != nil {
			if appErr.Informational(err) {
				fmt.Fprintln(cmd.OutOrStdout(), appErr.UserMessage(err))
				return nil
			}
			return describeError(err)
		}

		verb := "created"
		if result.ReusedDefinition {
			verb = "reused"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s (definition %q %s)\n",
			result.Deployment.TableName, result.Definition.Name, verb)
		return nil
	},
}

// importCSVCmd imports every row of a CSV file
var importCSVCmd = &cobra.Command{
	Use:   "import-csv [file]",
	Short: "Import on-chain tables listed in a CSV file",
	Long: `Import every table listed in a CSV file. The header must contain a tableName column
and may contain description and definitionName columns. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readRowsFromPath(args[0])
		if err != nil {
			return err
		}

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		project, _ := cmd.Flags().GetString("project")
		environment, _ := cmd.Flags().GetString("environment")
		strict, _ := cmd.Flags().GetBool("strict")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		out := cmd.OutOrStdout()
		if dryRun {
			problems := a.Imports.ValidateBatch(rows)
			for _, p := range problems {
				fmt.Fprintf(out, "line %d: %s: %s\n", p.Row.Line, p.Row.TableName, appErr.UserMessage(p.Err))
			}
			fmt.Fprintf(out, "%d of %d rows are valid\n", len(rows)-len(problems), len(rows))
			if len(problems) > 0 {
				return fmt.Errorf("%d invalid rows", len(problems))
			}
			return nil
		}

		result, err := a.Imports.ImportBatch(cmd.Context(), services.BatchRequest{
			ProjectID:     project,
			EnvironmentID: environment,
			Identity:      a.Config.Identity,
			Rows:          rows,
			Strict:        strict,
		}, progressPrinter(out))
		if result == nil {
			return describeError(err)
		}

		fmt.Fprintln(out, result.Summary())
		if err != nil {
			return describeError(err)
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d rows failed", result.Failed, result.Total)
		}
		return nil
	},
}

func readRowsFromPath(path string) ([]services.ImportRow, error) {
	if path == "-" {
		return readImportRows(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readImportRows(f)
}

func init() {
	for _, c := range []*cobra.Command{importCmd, importCSVCmd} {
		c.Flags().String("project", "", "Project ID (required)")
		c.Flags().String("environment", "", "Environment ID (required)")
		_ = c.MarkFlagRequired("project")
		_ = c.MarkFlagRequired("environment")
	}
	importCmd.Flags().String("name", "", "Definition name (defaults to the table prefix)")
	importCmd.Flags().String("description", "", "Definition description")

	importCSVCmd.Flags().Bool("strict", false, "Reject the whole file when any row is invalid")
	importCSVCmd.Flags().Bool("dry-run", false, "Only validate the rows")
}

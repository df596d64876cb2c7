package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadImportRows(t *testing.T) {
	t.Run("Header variants and optional columns", func(t *testing.T) {
		input := "\ufeffTable_Name,Description,definition name\n" +
			"users_80002_7,All users,Users\n" +
			"\n" +
			"orders_1_12,,\n"

		rows, err := readImportRows(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, services.ImportRow{Line: 2, TableName: "users_80002_7", Description: "All users", DefinitionName: "Users"}, rows[0])
		assert.Equal(t, services.ImportRow{Line: 4, TableName: "orders_1_12"}, rows[1])
	})

	t.Run("Only tableName column", func(t *testing.T) {
		rows, err := readImportRows(strings.NewReader("tableName\nusers_80002_7\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "users_80002_7", rows[0].TableName)
		assert.Empty(t, rows[0].Description)
	})

	t.Run("Short rows keep empty fields", func(t *testing.T) {
		rows, err := readImportRows(strings.NewReader("description,tableName\nonly description\n"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Empty(t, rows[0].TableName)
		assert.Equal(t, "only description", rows[0].Description)
	})

	t.Run("Unknown header names use column order", func(t *testing.T) {
		rows, err := readImportRows(strings.NewReader("table,desc,name\nusers_80002_7,All users,Users\norders_1_12\n"))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, services.ImportRow{Line: 2, TableName: "users_80002_7", Description: "All users", DefinitionName: "Users"}, rows[0])
		assert.Equal(t, services.ImportRow{Line: 3, TableName: "orders_1_12"}, rows[1])
	})

	t.Run("Missing header column", func(t *testing.T) {
		_, err := readImportRows(strings.NewReader("name,description\nusers_80002_7,x\n"))
		assert.ErrorContains(t, err, "tableName")
	})

	t.Run("Empty file", func(t *testing.T) {
		_, err := readImportRows(strings.NewReader(""))
		assert.ErrorContains(t, err, "empty")
	})
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	printer := progressPrinter(&buf)

	printer(services.BatchEvent{Index: 1, Total: 2, Outcome: services.RowOutcome{
		Index:  1,
		Row:    services.ImportRow{TableName: "bad"},
		Status: services.RowStatusInvalid,
		Err:    appErr.New(appErr.CodeInvalidName, "table name bad is not valid"),
	}})
	printer(services.BatchEvent{Index: 0, Total: 2, Outcome: services.RowOutcome{
		Index:  0,
		Row:    services.ImportRow{TableName: "users_80002_7"},
		Status: services.RowStatusImported,
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[1/2] invalid"))
	assert.Contains(t, lines[0], "table name bad is not valid")
	assert.Equal(t, "[2/2] imported users_80002_7", lines[1])
}

func TestDescribeError(t *testing.T) {
	assert.NoError(t, describeError(nil))

	err := describeError(&services.ImportError{
		State: services.ImportStateFetchingRegistry,
		Err:   appErr.New(appErr.CodeUnavailable, "registry returned status 503"),
	})
	assert.Equal(t, "registry returned status 503 (temporary failure, try again) (while fetching_registry)", err.Error())

	err = describeError(appErr.New(appErr.CodeAlreadyDeployed, "users is already deployed in this environment as users_80002_42"))
	assert.Equal(t, "already recorded: users is already deployed in this environment as users_80002_42", err.Error())

	err = describeError(errors.New("plain"))
	assert.Equal(t, "plain", err.Error())
}

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rxtech-lab/table-studio/internal/services"
)

const (
	columnTableName      = "tablename"
	columnDescription    = "description"
	columnDefinitionName = "definitionname"
)

// readImportRows parses a CSV with a header row. Header names are matched
// case-insensitively, ignoring underscores and spaces. A header with none of
// the known names falls back to the order tableName, description,
// definitionName. Row lines are the file's line numbers.
func readImportRows(r io.Reader) ([]services.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := map[string]int{}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		key = strings.NewReplacer("_", "", " ", "").Replace(key)
		switch key {
		case columnTableName, columnDescription, columnDefinitionName:
			index[key] = i
		}
	}
	if len(index) == 0 {
		// unrecognized header names: columns are taken in their documented order
		index = map[string]int{columnTableName: 0, columnDescription: 1, columnDefinitionName: 2}
	}
	if _, ok := index[columnTableName]; !ok {
		return nil, fmt.Errorf("csv header must contain a tableName column")
	}

	field := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []services.ImportRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, services.ImportRow{
			Line:           line,
			TableName:      field(record, columnTableName),
			Description:    field(record, columnDescription),
			DefinitionName: field(record, columnDefinitionName),
		})
	}
	return rows, nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"go.uber.org/zap"
)

// ImportRow is one table of a batch import
type ImportRow struct {
	// Line is the position of the row in its source, for reporting
	Line           int    `json:"line"`
	TableName      string `json:"table_name"`
	Description    string `json:"description,omitempty"`
	DefinitionName string `json:"definition_name,omitempty"`
}

// RowProblem is a row rejected before any write
type RowProblem struct {
	Index int
	Row   ImportRow
	Err   error
}

type RowStatus string

const (
	RowStatusImported RowStatus = "imported"
	// RowStatusSkipped marks rows whose table was already imported
	RowStatusSkipped RowStatus = "skipped"
	RowStatusFailed  RowStatus = "failed"
	RowStatusInvalid RowStatus = "invalid"
)

type RowOutcome struct {
	Index  int           `json:"index"`
	Row    ImportRow     `json:"row"`
	Status RowStatus     `json:"status"`
	Result *ImportResult `json:"result,omitempty"`
	Err    error         `json:"-"`
}

type BatchRequest struct {
	ProjectID     string `validate:"required"`
	EnvironmentID string `validate:"required"`
	Identity      string
	Rows          []ImportRow
	// Strict aborts the whole batch before any write when a row is invalid
	Strict bool
}

// BatchEvent is reported once per row, in the order rows are settled
type BatchEvent struct {
	Index   int
	Total   int
	Outcome RowOutcome
}

type BatchResult struct {
	Total    int          `json:"total"`
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Rows     []RowOutcome `json:"rows"`
}

func (r *BatchResult) record(outcome RowOutcome) {
	r.Rows[outcome.Index] = outcome
	switch outcome.Status {
	case RowStatusImported:
		r.Imported++
	case RowStatusSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// ValidateBatch checks every row without touching the registry or the database
func (s *importService) ValidateBatch(rows []ImportRow) []RowProblem {
	var problems []RowProblem
	seenNames := map[string]int{}
	seenSlugs := map[string]int{}

	for i, row := range rows {
		reject := func(err error) {
			problems = append(problems, RowProblem{Index: i, Row: row, Err: err})
		}

		if strings.TrimSpace(row.TableName) == "" {
			reject(appErr.New(appErr.CodeInvalid, "table name is required").WithMeta("line", row.Line))
			continue
		}
		name, err := s.codec.Parse(row.TableName)
		if err != nil {
			reject(err)
			continue
		}

		canonical := name.String()
		if first, ok := seenNames[canonical]; ok {
			reject(appErr.Newf(appErr.CodeInvalid, "table %s is listed more than once (first at row %d)", canonical, first+1).
				WithMeta("table_name", canonical))
			continue
		}

		slug := Slugify(definitionName(ImportRequest{DefinitionName: row.DefinitionName}, name))
		if slug == "" {
			reject(appErr.Newf(appErr.CodeInvalid, "definition name for %s has no usable characters", canonical))
			continue
		}
		if first, ok := seenSlugs[slug]; ok {
			reject(appErr.Newf(appErr.CodeInvalid, "definition name %q is used more than once (first at row %d)", slug, first+1).
				WithMeta("slug", slug))
			continue
		}

		seenNames[canonical] = i
		seenSlugs[slug] = i
	}
	return problems
}

// ImportBatch authorizes once, reports invalid rows, then imports the rest
// one at a time. A failing row does not stop the batch.
func (s *importService) ImportBatch(ctx context.Context, req BatchRequest, progress func(BatchEvent)) (*BatchResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, invalidInput(err)
	}
	if progress == nil {
		progress = func(BatchEvent) {}
	}
	if err := authorize(ctx, s.authorizer, req.Identity, req.ProjectID); err != nil {
		return nil, err
	}
	if _, err := s.projects.GetProjectEnvironment(ctx, req.ProjectID, req.EnvironmentID); err != nil {
		return nil, err
	}

	total := len(req.Rows)
	result := &BatchResult{Total: total, Rows: make([]RowOutcome, total)}
	settle := func(outcome RowOutcome) {
		result.record(outcome)
		progress(BatchEvent{Index: outcome.Index, Total: total, Outcome: outcome})
	}

	problems := s.ValidateBatch(req.Rows)
	invalid := make(map[int]bool, len(problems))
	for _, p := range problems {
		invalid[p.Index] = true
		settle(RowOutcome{Index: p.Index, Row: p.Row, Status: RowStatusInvalid, Err: p.Err})
	}

	if req.Strict && len(problems) > 0 {
		for i, row := range req.Rows {
			if !invalid[i] {
				result.Rows[i] = RowOutcome{Index: i, Row: row, Status: RowStatusFailed,
					Err: appErr.New(appErr.CodeInvalid, "not attempted: batch has invalid rows")}
				result.Failed++
			}
		}
		return result, appErr.Newf(appErr.CodeInvalid, "batch rejected: %d of %d rows are invalid", len(problems), total)
	}

	for i, row := range req.Rows {
		if invalid[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			settle(RowOutcome{Index: i, Row: row, Status: RowStatusFailed,
				Err: appErr.Wrap(err, appErr.CodeUnavailable, "batch cancelled")})
			continue
		}

		imported, err := s.run(ctx, ImportRequest{
			ProjectID:      req.ProjectID,
			EnvironmentID:  req.EnvironmentID,
			TableName:      row.TableName,
			DefinitionName: row.DefinitionName,
			Description:    row.Description,
			Identity:       req.Identity,
		}, false)

		switch {
		case err == nil:
			settle(RowOutcome{Index: i, Row: row, Status: RowStatusImported, Result: imported})
		case appErr.Informational(err):
			settle(RowOutcome{Index: i, Row: row, Status: RowStatusSkipped, Err: err})
		default:
			settle(RowOutcome{Index: i, Row: row, Status: RowStatusFailed, Err: err})
		}
	}

	s.logger.Info("batch import finished",
		zap.String("project_id", req.ProjectID),
		zap.String("environment_id", req.EnvironmentID),
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// Summary renders the final counts of a batch
func (r *BatchResult) Summary() string {
	return fmt.Sprintf("%d imported, %d skipped, %d failed of %d", r.Imported, r.Skipped, r.Failed, r.Total)
}

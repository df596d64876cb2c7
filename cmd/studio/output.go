package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rxtech-lab/table-studio/internal/services"
	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
)

// progressPrinter reports each settled row as "[i/total] status name"
func progressPrinter(w io.Writer) func(services.BatchEvent) {
	settled := 0
	return func(e services.BatchEvent) {
		settled++
		line := fmt.Sprintf("[%d/%d] %-8s %s", settled, e.Total, e.Outcome.Status, e.Outcome.Row.TableName)
		if e.Outcome.Err != nil {
			line += ": " + appErr.UserMessage(e.Outcome.Err)
		}
		fmt.Fprintln(w, line)
	}
}

// describeError turns a service error into the message shown to the operator
func describeError(err error) error {
	if err == nil {
		return nil
	}
	message := appErr.UserMessage(err)
	if state, ok := services.FailedState(err); ok {
		message = fmt.Sprintf("%s (while %s)", message, state)
	}
	return errors.New(message)
}

package cmd

import (
	"context"
	"io"

	"github.com/Iron-Ham/monologue/internal/console"
	"github.com/Iron-Ham/monologue/internal/errors"
)

// Process exit codes.
const (
	exitFailure     = 1
	exitInvalid     = 2
	exitInterrupted = 130
)

const (
	internalErrorMessage = "the completion service request failed"
	logsHint             = "Run 'monologue logs --level warn' for details."
	retryHint            = "This may be temporary; run the command again."
)

// errorReport is what the user sees for a failed command.
type errorReport struct {
	message  string
	hints    []string
	exitCode int
}

// classify decides how err is presented. Typed errors that are not meant
// for end users are replaced by a generic message; their detail stays in
// the debug log. Untyped errors, such as flag parsing failures, are shown
// as they are.
func classify(err error) errorReport {
	if errors.Is(err, context.Canceled) || errors.Is(err, errors.ErrCanceled) {
		msg := errors.ErrCanceled.Error()
		if errors.Is(err, errors.ErrCanceled) {
			msg = err.Error()
		}
		return errorReport{message: msg, exitCode: exitInterrupted}
	}

	report := errorReport{message: err.Error(), exitCode: exitFailure}

	var monoErr errors.MonologueError
	if errors.As(err, &monoErr) && !errors.IsUserFacing(err) {
		report.message = internalErrorMessage
		report.hints = append(report.hints, logsHint)
	}
	if errors.Is(err, errors.ErrInvalidInput) {
		report.exitCode = exitInvalid
	}
	if errors.IsRetryable(err) {
		report.hints = append(report.hints, retryHint)
	}
	return report
}

// ReportError prints err to w and returns the process exit code for it.
func ReportError(w io.Writer, err error) int {
	report := classify(err)
	printer := console.NewPrinter(w, console.WithColor(!noColor && console.IsTerminal(w)))
	printer.PrintError(errors.New(report.message))
	for _, hint := range report.hints {
		printer.Println(hint)
	}
	return report.exitCode
}

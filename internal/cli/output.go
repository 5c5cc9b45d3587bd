package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Invalid database file, failed save, failed scenario
	ExitCommandError = 2 // Command error (bad flags, missing files, no storage directory)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E005" // Database or scenario path not found
	ErrCodeWriteFailed   = "E007" // Database save or export write failed
	ErrCodeInvalidFormat = "E010" // Database file has the wrong shape
	ErrCodeStorageDir    = "E011" // Storage directory not configured
	ErrCodeInvalidInput  = "E012" // Malformed flag value or task name
	ErrCodeScenario      = "E013" // Scenario failed
)

// ExitError is returned by commands that already reported their failure.
// main exits with Code.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	ErrCode string // reported error code, empty when none was reported
	Message string
}

func (e *ExitError) Error() string {
	if e.ErrCode == "" {
		return e.Message
	}
	return e.ErrCode + ": " + e.Message
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope written by --format json.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // command result
	Error  *CLIError `json:"error,omitempty"` // set when Status is "error"
}

// CLIError is the error part of a CLIResponse. Details holds the partial
// result of a command that failed after doing its work, such as the
// scenario summary.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// textResult is implemented by every command result. The text form is what
// a person reads; the JSON form is the struct itself.
type textResult interface {
	writeText(w io.Writer) error
}

// OutputFormatter writes command results as text or as a CLIResponse.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// Success writes a command result.
func (f *OutputFormatter) Success(result textResult) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: result})
	}
	return result.writeText(f.Writer)
}

// Failure writes an error. partial may be nil; otherwise it is written
// ahead of the error line in text and as the error details in JSON.
func (f *OutputFormatter) Failure(code, message string, partial textResult) error {
	if f.Format == "json" {
		cliErr := &CLIError{Code: code, Message: message}
		if partial != nil {
			cliErr.Details = partial
		}
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: cliErr})
	}

	if partial != nil {
		if err := partial.writeText(f.Writer); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return err
}

// fail reports an error through the formatter and returns the ExitError
// for cobra.
func fail(f *OutputFormatter, exitCode int, code, message string) error {
	_ = f.Failure(code, message, nil)
	return &ExitError{Code: exitCode, ErrCode: code, Message: message}
}

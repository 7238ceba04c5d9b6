package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/morph/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // rule warnings fail validation
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                        `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.Warning         `json:"warnings,omitempty"`
	Cycles   []compiler.CycleWarning    `json:"cycles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <tables>",
		Short: "Check rule tables for consistency",
		Long: `Compile rule tables and check them for cross-reference and shape problems.

Reports rule sets that record nothing, references to undefined rule sets
or named rules, and reference cycles between them. Cycles are reported as
warnings: the engine bounds recursion depth, so they terminate.

Exit codes:
  0 - Tables are valid
  1 - Validation errors (or rule warnings with --strict)
  2 - Tables could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat rule warnings as errors")

	return cmd
}

func runValidate(opts *ValidateOptions, tablesPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.NewLogger(formatter.Diagnostics())
	defer func() { _ = logger.Sync() }()

	result, err := ValidateTables(tablesPath, logger)
	if err != nil {
		code, message := parseCompileError(err)
		return outputValidateError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Checked %s: %d error(s), %d warning(s), %d cycle(s)",
		tablesPath, len(result.Errors), len(result.Warnings), len(result.Cycles))

	if opts.Strict && len(result.Warnings) > 0 {
		result.Valid = false
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateTables compiles the tables at path and runs every consistency
// check on them. Load and compile errors are returned as errors; problems
// in the compiled tables are reported in the result.
func ValidateTables(path string, logger *zap.Logger) (*ValidationResult, error) {
	tables, warnings, err := LoadTables(path, logger)
	if err != nil {
		return nil, err
	}

	errs := compiler.Validate(tables)
	return &ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Cycles:   compiler.AnalyzeCycles(tables),
	}, nil
}

func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Tables valid")
	writeValidationWarnings(formatter, result)
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs a failed validation.
func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	failed := len(result.Errors)
	if failed == 0 {
		failed = len(result.Warnings)
	}

	if formatter.Format == "json" {
		response := CLIResponse{Status: "error", Data: result}
		if len(result.Errors) > 0 {
			response.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		} else {
			response.Error = &CLIError{Code: result.Warnings[0].Code, Message: result.Warnings[0].Message}
		}
		if err := formatter.writeIndented(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", failed))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range result.Errors {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	writeValidationWarnings(formatter, result)

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", failed))
}

func writeValidationWarnings(formatter *OutputFormatter, result *ValidationResult) {
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning %s\n", w.Error())
	}
	for _, c := range result.Cycles {
		fmt.Fprintf(formatter.Writer, "  cycle: %s\n", strings.Join(c.Path, " → "))
	}
}

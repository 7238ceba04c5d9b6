package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios...>",
		Short: "Run scenario harness",
		Long: `Run analysis scenarios with the harness.

Each argument is a scenario file or a directory of *.yaml scenarios. Every
scenario compiles its own tables, seeds its own lexicon into an in-memory
database, runs its flow, and checks its assertions.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  morph test ./testdata/scenarios
  morph test ./testdata/scenarios --filter "comp*"
  morph test ./testdata/scenarios/inflections.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.NewLogger(formatter.Diagnostics())
	defer func() { _ = logger.Sync() }()

	paths, err := harness.ResolveScenarios(args)
	if err != nil {
		var notFound *harness.ScenarioNotFoundError
		if errors.As(err, &notFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	paths, err = filterScenarios(paths, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	if len(paths) == 0 {
		if opts.Format == "json" {
			return formatter.writeIndented(CLIResponse{Status: "ok", Data: harness.SuiteResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	for _, p := range paths {
		formatter.VerboseLog("Running scenario: %s", p)
	}

	result, err := harness.RunSuite(commandContext(cmd), paths, harness.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario run interrupted", err)
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// filterScenarios keeps the paths whose base name without extension matches
// the glob pattern. An empty pattern keeps everything.
func filterScenarios(paths []string, pattern string) ([]string, error) {
	if pattern == "" {
		return paths, nil
	}
	var kept []string
	for _, p := range paths {
		base := filepath.Base(p)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(formatter *OutputFormatter, result *harness.SuiteResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := formatter.writeIndented(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the suite result as text.
func outputTestText(formatter *OutputFormatter, result *harness.SuiteResult) error {
	w := formatter.Writer

	for _, f := range result.Failures {
		name := f.Scenario
		if name == "" {
			name = filepath.Base(f.ScenarioPath)
		}
		fmt.Fprintf(w, "✗ %s\n", name)
		fmt.Fprintf(w, "  %s\n", f.Error)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.TotalScenarios)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledRuleSet is the serialized form of one compiled rule set.
type CompiledRuleSet struct {
	*ir.RuleSet
	CategoryName string `json:"category,omitempty"`
	RootName     string `json:"root,omitempty"`
	Default      bool   `json:"default,omitempty"`
}

// CompilationResult holds the compiled tables in serializable form.
type CompilationResult struct {
	RuleSets      []CompiledRuleSet  `json:"rule_sets"`
	NamedRules    []*ir.Rule         `json:"named_rules"`
	CompoundRules []string           `json:"compound_rules"`
	Categories    int                `json:"categories"`
	Warnings      []compiler.Warning `json:"warnings"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	RuleSetCount  int
	RuleCount     int
	NamedRules    int
	CompoundRules int
	WarningCount  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <tables>",
		Short: "Compile CUE rule tables",
		Long: `Compile CUE rule tables to their internal form.

The compiler parses the category hierarchy, rule sets, named rules and
compound rules. Malformed rules are dropped with a warning; structural
problems such as unknown categories stop compilation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, tablesPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.NewLogger(formatter.Diagnostics())
	defer func() { _ = logger.Sync() }()

	tables, warnings, err := LoadTables(tablesPath, logger)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	result := buildCompilationResult(tables, warnings)
	for _, rs := range result.RuleSets {
		formatter.VerboseLog("Compiled rule set: %s (%d rules)", rs.Name, len(rs.Rules))
	}

	stats := calculateStats(result)

	if opts.Output != "" {
		if err := writeTablesToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// buildCompilationResult flattens tables into their serializable form.
func buildCompilationResult(tables *ir.Tables, warnings []compiler.Warning) *CompilationResult {
	result := &CompilationResult{
		RuleSets:      []CompiledRuleSet{},
		NamedRules:    []*ir.Rule{},
		CompoundRules: []string{},
		Categories:    tables.Hierarchy().Len(),
		Warnings:      warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []compiler.Warning{}
	}

	sets := tables.RuleSets()
	def := tables.Default()
	if def != nil {
		sets = append(sets, def)
	}
	for _, rs := range sets {
		c := CompiledRuleSet{RuleSet: rs, Default: rs == def}
		if rs.Category != nil {
			c.CategoryName = rs.Category.Name()
		}
		if rs.Root != nil {
			c.RootName = rs.Root.Name()
		}
		result.RuleSets = append(result.RuleSets, c)
	}

	for _, name := range tables.RuleNames() {
		r, _ := tables.Rule(name)
		result.NamedRules = append(result.NamedRules, r)
	}
	for _, cr := range tables.Compound().Rules {
		result.CompoundRules = append(result.CompoundRules, cr.Source)
	}
	return result
}

// calculateStats computes summary statistics from compilation result.
func calculateStats(result *CompilationResult) CompilationStats {
	stats := CompilationStats{
		RuleSetCount:  len(result.RuleSets),
		NamedRules:    len(result.NamedRules),
		CompoundRules: len(result.CompoundRules),
		WarningCount:  len(result.Warnings),
	}

	for _, rs := range result.RuleSets {
		stats.RuleCount += len(rs.Rules)
	}

	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d rule set(s), %d rule(s), %d named rule(s), %d compound rule(s)\n\n",
		stats.RuleSetCount, stats.RuleCount, stats.NamedRules, stats.CompoundRules)

	if len(result.RuleSets) > 0 {
		fmt.Fprintln(w, "Rule sets:")
		for _, rs := range result.RuleSets {
			key := rs.Suffix
			if rs.Default {
				key = "(default)"
			} else if key == "" {
				key = "(by name)"
			}
			fmt.Fprintf(w, "  %s: %s, %d rule(s)", rs.Name, key, len(rs.Rules))
			if rs.CategoryName != "" {
				fmt.Fprintf(w, " → %s", rs.CategoryName)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "  %s\n", warn.Error())
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled tables to %s\n", outputFile)
	}

	return nil
}

// outputCompileError reports a load or compile error.
func outputCompileError(formatter *OutputFormatter, err error) error {
	code, message := parseCompileError(err)
	if formatter.Format == "json" {
		_ = formatter.Error(code, message, nil)
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
		fmt.Fprintln(formatter.Writer)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeTablesToFile writes the compilation result to a file as indented JSON.
func writeTablesToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tables: %w", err)
	}
	return os.WriteFile(filename, append(data, '\n'), 0o644)
}

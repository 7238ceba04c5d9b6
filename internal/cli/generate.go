package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/engine"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	EngineOptions
	RuleSet string
}

// GenerateView is the output form of one generation.
type GenerateView struct {
	Word    string   `json:"word"`
	RuleSet string   `json:"rule_set"`
	Forms   []string `json:"forms"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{EngineOptions: EngineOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "generate <words...>",
		Short: "Generate forms with a named rule set",
		Long: `Run a named rule set over each word and print the forms proposed by the
first rule that fires. Generation checks nothing against the lexicon and
records nothing.

Examples:
  morph generate --tables tables.cue --rule-set conjugate walk`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.RuleSet, "rule-set", "", "rule set to run (required)")
	_ = cmd.MarkFlagRequired("rule-set")

	return cmd
}

func runGenerate(opts *GenerateOptions, words []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.NewLogger(formatter.Diagnostics())
	defer func() { _ = logger.Sync() }()

	in, err := LoadInputs(opts.Tables, opts.Lexicon, logger)
	if err != nil {
		return formatter.Fail(err)
	}
	eng := engine.New(in.Tables, in.Lexicon, opts.engineOptions(logger)...)

	views := make([]GenerateView, 0, len(words))
	for _, word := range words {
		forms, err := eng.Generate(word, opts.RuleSet)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "generation failed", err)
		}
		if forms == nil {
			forms = []string{}
		}
		views = append(views, GenerateView{Word: word, RuleSet: opts.RuleSet, Forms: forms})
	}

	if opts.Format == "json" {
		return formatter.Success(views)
	}

	for _, v := range views {
		if len(v.Forms) == 0 {
			fmt.Fprintf(formatter.Writer, "%s: no rule fired\n", v.Word)
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s: %s\n", v.Word, strings.Join(v.Forms, ", "))
	}
	return nil
}

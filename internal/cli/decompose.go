package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/engine"
)

// SplitView is the output form of one decomposition.
type SplitView struct {
	Word          string        `json:"word"`
	Split         *engine.Split `json:"split,omitempty"`
	Rule          string        `json:"rule,omitempty"`
	LeftCategory  string        `json:"left_category,omitempty"`
	RightCategory string        `json:"right_category,omitempty"`
}

// NewDecomposeCommand creates the decompose command.
func NewDecomposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EngineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decompose <words...>",
		Short: "Split compound words",
		Long: `Try to explain each word as two known words joined by a compound rule.

Decomposition only reports the split; it records nothing on either half or
the word itself.

Examples:
  morph decompose --tables tables.cue --lexicon lexicon.yaml horseshoe`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose(opts, args, cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runDecompose(opts *EngineOptions, words []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.NewLogger(formatter.Diagnostics())
	defer func() { _ = logger.Sync() }()

	in, err := LoadInputs(opts.Tables, opts.Lexicon, logger)
	if err != nil {
		return formatter.Fail(err)
	}
	eng := engine.New(in.Tables, in.Lexicon, opts.engineOptions(logger)...)

	views := make([]SplitView, 0, len(words))
	for _, word := range words {
		v := SplitView{Word: word}
		if s, ok := eng.Decompose(word); ok {
			v.Split = &s
			if s.Rule != nil {
				v.Rule = s.Rule.Source
			}
			if s.LeftCategory != nil {
				v.LeftCategory = s.LeftCategory.Name()
			}
			if s.RightCategory != nil {
				v.RightCategory = s.RightCategory.Name()
			}
		}
		views = append(views, v)
	}

	if opts.Format == "json" {
		return formatter.Success(views)
	}

	for _, v := range views {
		if v.Split == nil {
			fmt.Fprintf(formatter.Writer, "%s: no split\n", v.Word)
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s: %s+%s (pass %d, %s + %s, rule %q)\n",
			v.Word, v.Split.Left, v.Split.Right, v.Split.Pass, v.LeftCategory, v.RightCategory, v.Rule)
	}
	return nil
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/lexicon"
	"github.com/roach88/morph/internal/store"
)

// EngineOptions holds the flags shared by commands that build an engine.
type EngineOptions struct {
	*RootOptions
	Tables   string
	Lexicon  string
	MaxDepth int
	MaxSteps int
}

func (o *EngineOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Tables, "tables", "", "path to CUE rule tables (required)")
	_ = cmd.MarkFlagRequired("tables")
	cmd.Flags().StringVar(&o.Lexicon, "lexicon", "", "path to YAML seed lexicon")
	cmd.Flags().IntVar(&o.MaxDepth, "max-depth", engine.DefaultMaxDepth, "nested dispatch limit")
	cmd.Flags().IntVar(&o.MaxSteps, "max-steps", engine.DefaultMaxSteps, "step quota of one match attempt")
}

func (o *EngineOptions) engineOptions(logger *zap.Logger) []engine.Option {
	return []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxDepth(o.MaxDepth),
		engine.WithMaxSteps(o.MaxSteps),
	}
}

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	EngineOptions
	Database    string
	Limit       int
	MarkGuessed bool
}

// AnalysisView is the output form of one analysis.
type AnalysisView struct {
	Word string `json:"word"`
	engine.Result
	Entry lexicon.Entry `json:"entry"`
}

// AnalyzeResult holds the analyze command output.
type AnalyzeResult struct {
	Analyses []AnalysisView `json:"analyses"`
	Matched  int            `json:"matched"`
	Compound int            `json:"compound"`
	Unknown  int            `json:"unresolved"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{EngineOptions: EngineOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "analyze [words...]",
		Short: "Analyze words against rule tables",
		Long: `Analyze words against compiled rule tables and a lexicon.

Each word is matched against the rule sets selected by its ending, then the
default rule set, then compound decomposition. Words are read from
standard input, one per line, when none are given.

With --db, the seed lexicon is imported into the database on first use,
the database becomes the lexicon, and every analyzed word and its result
are written back, so later runs know what earlier runs learned.

Examples:
  morph analyze --tables tables.cue --lexicon lexicon.yaml cats walked
  morph analyze --tables tables.cue --lexicon lexicon.yaml --db morph.db horseshoe
  morph analyze --tables tables.cue --lexicon lexicon.yaml --format json < words.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			words := args
			if len(words) == 0 {
				var err error
				if words, err = readWords(cmd.InOrStdin()); err != nil {
					return WrapExitError(ExitCommandError, "failed to read words", err)
				}
			}
			return runAnalyze(opts, words, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum concurrent analyses (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.MarkGuessed, "mark-guessed", false, "mark unresolved words as guessed")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, words []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.NewLogger(formatter.Diagnostics())
	defer func() { _ = logger.Sync() }()

	in, err := LoadInputs(opts.Tables, opts.Lexicon, logger)
	if err != nil {
		return formatter.Fail(err)
	}

	var lex lexicon.Lexicon = in.Lexicon
	engineOpts := append(opts.engineOptions(logger), engine.WithMarkGuessed(opts.MarkGuessed))

	var st *store.Store
	if opts.Database != "" {
		st, err = openLearningStore(ctx, opts.Database, in, logger, formatter)
		if err != nil {
			return err
		}
		defer st.Close()

		seq, err := st.MaxSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read analysis log", err)
		}
		lex = st
		engineOpts = append(engineOpts, engine.WithSeqAfter(seq))
	}

	eng := engine.New(in.Tables, lex, engineOpts...)
	results, err := eng.AnalyzeAll(ctx, words, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "analysis interrupted", err)
	}

	if st != nil {
		for _, res := range results {
			if err := persistAnalysis(ctx, st, res); err != nil {
				return WrapExitError(ExitCommandError, "failed to write analysis", err)
			}
		}
		formatter.VerboseLog("Wrote %d analyses to %s (log now at seq %d)", len(results), opts.Database, eng.LastSeq())
	}

	out := AnalyzeResult{Analyses: make([]AnalysisView, 0, len(results))}
	for _, res := range results {
		out.Analyses = append(out.Analyses, viewOf(res))
		switch res.Status {
		case engine.StatusMatched:
			out.Matched++
		case engine.StatusCompound:
			out.Compound++
		default:
			out.Unknown++
		}
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	return outputAnalyzeText(formatter.Writer, out, opts.Verbose)
}

// openLearningStore opens the database at path and seeds it from the loaded
// lexicon when it holds no words yet.
func openLearningStore(ctx context.Context, path string, in *Inputs, logger *zap.Logger, formatter *OutputFormatter) (*store.Store, error) {
	st, err := store.Open(path, in.Tables.Hierarchy(), store.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	n, err := st.CountWords(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to count stored words", err)
	}
	if n == 0 && in.Lexicon.Len() > 0 {
		imported, err := st.ImportLexicon(ctx, in.Lexicon)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to import lexicon", err)
		}
		formatter.VerboseLog("Imported %d word(s) into %s", imported, path)
	}
	return st, nil
}

// persistAnalysis writes the analyzed word and its log record.
func persistAnalysis(ctx context.Context, st *store.Store, res engine.Result) error {
	if res.Word != nil {
		if err := st.PutWord(ctx, res.Word); err != nil {
			return err
		}
	}
	return st.WriteAnalysis(ctx, store.RecordOf(res))
}

func viewOf(res engine.Result) AnalysisView {
	v := AnalysisView{Result: res}
	if res.Word != nil {
		v.Word = res.Word.Name()
		v.Entry = res.Word.Crush()
	}
	return v
}

var levelNames = [lexicon.NumLevels]string{"likely", "plausible", "possible", "unlikely"}

func outputAnalyzeText(w io.Writer, out AnalyzeResult, verbose bool) error {
	for _, a := range out.Analyses {
		switch a.Status {
		case engine.StatusMatched:
			fmt.Fprintf(w, "%s: %s %s (%s)", a.Word, a.Status, a.RuleSet, a.Rule)
			if len(a.Roots) > 0 {
				fmt.Fprintf(w, " roots=%s", strings.Join(a.Roots, ","))
			}
		case engine.StatusCompound:
			fmt.Fprintf(w, "%s: %s %s+%s (pass %d)", a.Word, a.Status, a.Split.Left, a.Split.Right, a.Split.Pass)
		default:
			fmt.Fprintf(w, "%s: %s", a.Word, a.Status)
			if a.Entry.Guessed {
				fmt.Fprint(w, " (guessed)")
			}
		}
		fmt.Fprintln(w)

		for l := lexicon.Likely; l < lexicon.NumLevels; l++ {
			if cats := a.Entry.Categories[l]; len(cats) > 0 {
				fmt.Fprintf(w, "  %s: %s\n", levelNames[l], strings.Join(cats, ", "))
			}
		}
		if verbose {
			for _, h := range a.Hypotheses {
				fmt.Fprintf(w, "  hypothesis %s from %s", h.Form, h.Rule)
				if h.Via != "" {
					fmt.Fprintf(w, " via %s", h.Via)
				}
				fmt.Fprintln(w)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d matched, %d compound, %d unresolved\n", out.Matched, out.Compound, out.Unknown)
	return nil
}

// readWords reads one word per line, skipping blank lines and lines
// starting with "#".
func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

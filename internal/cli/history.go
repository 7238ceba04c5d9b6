package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/lexicon"
	"github.com/roach88/morph/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Tables   string // optional - enables stored entry output
}

// WordHistory holds the analysis log of one word.
type WordHistory struct {
	Word     string                 `json:"word"`
	Analyses []store.AnalysisRecord `json:"analyses"`
	Entry    *lexicon.Entry         `json:"entry,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <words...>",
		Short: "Show the analysis log of words",
		Long: `Show every recorded analysis of each word, oldest first.

With --tables, the word as currently stored in the database is shown too.

Examples:
  morph history --db morph.db horseshoe
  morph history --db morph.db --tables tables.cue cats --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Tables, "tables", "", "path to CUE rule tables")

	return cmd
}

func runHistory(opts *HistoryOptions, words []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.NewLogger(formatter.Diagnostics())
	defer func() { _ = logger.Sync() }()

	h := lexicon.NewHierarchy(nil)
	if opts.Tables != "" {
		tables, _, err := LoadTables(opts.Tables, logger)
		if err != nil {
			return formatter.Fail(err)
		}
		h = tables.Hierarchy()
	}

	st, err := store.Open(opts.Database, h, store.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	histories := make([]WordHistory, 0, len(words))
	for _, word := range words {
		name := lexicon.Normalize(word)
		records, err := st.ReadAnalyses(ctx, name)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read analyses", err)
		}
		wh := WordHistory{Word: name, Analyses: records}
		if opts.Tables != "" {
			w, ok, err := st.LookupWord(ctx, name)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read word", err)
			}
			if ok {
				e := w.Crush()
				wh.Entry = &e
			}
		}
		histories = append(histories, wh)
	}

	if opts.Format == "json" {
		return formatter.Success(histories)
	}

	w := formatter.Writer
	for _, wh := range histories {
		if len(wh.Analyses) == 0 {
			fmt.Fprintf(w, "%s: no analyses recorded\n", wh.Word)
		} else {
			fmt.Fprintf(w, "%s: %d analysis(es)\n", wh.Word, len(wh.Analyses))
		}
		for _, rec := range wh.Analyses {
			fmt.Fprintf(w, "  [%d] %s", rec.Seq, rec.Status)
			switch {
			case rec.Rule != "":
				fmt.Fprintf(w, " %s (%s)", rec.RuleSet, rec.Rule)
			case rec.Split != "":
				fmt.Fprintf(w, " %s", rec.Split)
			}
			if len(rec.Roots) > 0 {
				fmt.Fprintf(w, " roots=%s", strings.Join(rec.Roots, ","))
			}
			if opts.Verbose {
				fmt.Fprintf(w, " id=%s", rec.ID)
			}
			fmt.Fprintln(w)
		}
		if wh.Entry != nil {
			for l := lexicon.Likely; l < lexicon.NumLevels; l++ {
				if cats := wh.Entry.Categories[l]; len(cats) > 0 {
					fmt.Fprintf(w, "  %s: %s\n", levelNames[l], strings.Join(cats, ", "))
				}
			}
		}
	}
	return nil
}

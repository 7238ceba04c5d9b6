package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
)

// DefaultMaxDepth is the default limit on nested rule-set and TRY dispatch.
const DefaultMaxDepth = 8

// Status is the outcome of one analysis.
type Status string

const (
	// StatusMatched means a rule set recorded a category.
	StatusMatched Status = "matched"
	// StatusCompound means a compound split recorded a category.
	StatusCompound Status = "compound"
	// StatusUnresolved means neither rules nor decomposition explained the
	// word.
	StatusUnresolved Status = "unresolved"
)

// Result describes one analysis. The categories, roots and links it found
// are recorded on Word.
type Result struct {
	ID     string        `json:"id"`
	Seq    int64         `json:"seq"`
	Word   *lexicon.Word `json:"-"`
	Status Status        `json:"status"`
	// RuleSet and Rule identify the rule that recorded the category.
	RuleSet string `json:"rule_set,omitempty"`
	Rule    string `json:"rule,omitempty"`
	// Roots are the accepted hypothesis forms.
	Roots []string `json:"roots,omitempty"`
	// Hypotheses are all forms the firing rule proposed, accepted or not.
	Hypotheses []Hypothesis `json:"hypotheses,omitempty"`
	Split      *Split       `json:"split,omitempty"`
}

// Engine analyzes words against immutable tables and a lexicon.
//
// Thread-safety model:
//   - Analyze, Generate, Decompose and AnalyzeAll are safe from any
//     goroutine; each analysis owns its state and session cache.
//   - Words returned by the lexicon are shared; category updates on them are
//     atomic snapshot swaps.
type Engine struct {
	tables      *ir.Tables
	lexicon     lexicon.Lexicon
	logger      *zap.Logger
	ids         IDGenerator
	// seq is the last sequence number stamped on a Result.
	seq         atomic.Int64
	maxDepth    int
	maxSteps    int
	markGuessed bool
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithMaxDepth sets the nested dispatch limit.
//
// Default: 8 (DefaultMaxDepth)
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithMaxSteps sets the step quota of one match attempt.
//
// Default: 10000 (DefaultMaxSteps)
func WithMaxSteps(steps int) Option {
	return func(e *Engine) {
		e.maxSteps = steps
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIDGenerator sets the analysis ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithSeqAfter makes the first analysis seq last+1, so an engine working
// over a stored analysis log continues its numbering.
//
// Default: 0
func WithSeqAfter(last int64) Option {
	return func(e *Engine) {
		e.seq.Store(last)
	}
}

// WithMarkGuessed makes Analyze mark unresolved words as guessed.
func WithMarkGuessed(mark bool) Option {
	return func(e *Engine) {
		e.markGuessed = mark
	}
}

// New creates an Engine over tables and lex.
func New(tables *ir.Tables, lex lexicon.Lexicon, opts ...Option) *Engine {
	e := &Engine{
		tables:   tables,
		lexicon:  lex,
		logger:   zap.NewNop(),
		ids:      UUIDv7Generator{},
		maxDepth: DefaultMaxDepth,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LastSeq returns the seq of the most recent analysis, or the WithSeqAfter
// value when nothing has been analyzed yet.
func (e *Engine) LastSeq() int64 {
	return e.seq.Load()
}

// Tables returns the tables the engine runs against.
func (e *Engine) Tables() *ir.Tables {
	return e.tables
}

// Analyze categorizes word. The word is normalized first; if the lexicon
// has no entry for it, the analysis records onto a scratch word that the
// caller may keep or discard.
//
// Rule sets whose suffix key ends the word are tried longest key first,
// then the default set. The first rule of a set whose hypotheses include an
// acceptable root ends the set, and the first set that records anything
// ends the search. Otherwise compound decomposition runs.
func (e *Engine) Analyze(word string) Result {
	name := lexicon.Normalize(word)
	w, ok := e.lexicon.GetWord(name)
	if !ok {
		w = lexicon.NewScratchWord(name)
	}

	res := e.analyzeWord(newSession(name), w, 0)
	res.ID = e.ids.Generate()
	res.Seq = e.seq.Add(1)

	if res.Status == StatusUnresolved && e.markGuessed && w.Guessable() {
		w.MarkGuessed()
	}
	e.logger.Debug("analyzed",
		zap.String("id", res.ID),
		zap.String("word", name),
		zap.String("status", string(res.Status)),
		zap.String("rule", res.Rule))
	return res
}

// analyzeWord runs the rule loop and then compound decomposition on w.
// depth counts compound recursion through resolveHalf.
func (e *Engine) analyzeWord(sess *session, w *lexicon.Word, depth int) Result {
	word := w.Name()
	res := Result{Word: w, Status: StatusUnresolved}

	for _, rs := range e.tables.Candidates(word) {
		for _, rule := range rs.Rules {
			st := newState(sess, 0)
			m, fired := e.fire(st, word, rule)
			if !fired {
				continue
			}
			roots := e.accept(word, rs, st.results)
			if len(roots) == 0 {
				continue
			}

			w.Promote(rs.Category, rs.Penalty)
			for _, r := range roots {
				w.AddRoot(r)
			}
			w.AddPrefix(m.Prefix)
			w.AddSuffix(m.Suffix)

			res.Status = StatusMatched
			res.RuleSet = rs.Name
			res.Rule = rule.ID()
			res.Roots = roots
			res.Hypotheses = st.Results()
			return res
		}
	}

	if s, ok := e.decompose(sess, word, depth); ok {
		recordSplit(w, s)
		res.Status = StatusCompound
		res.Split = &s
	}
	return res
}

// accept returns the hypothesis forms that name a known word whose
// categories satisfy the root constraint. The constraint is that of the
// rule set that produced the form: the nested set for forms reached through
// "(:name)", rs otherwise.
func (e *Engine) accept(word string, rs *ir.RuleSet, hyps []Hypothesis) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, h := range hyps {
		if h.Form == word || seen[h.Form] {
			continue
		}
		rw, ok := e.lexicon.GetWord(h.Form)
		if !ok || !rw.Known() {
			continue
		}
		root := rs.Root
		if h.Via != "" {
			if via, ok := e.tables.RuleSet(h.Via); ok && via.Root != nil {
				root = via.Root
			}
		}
		if root != nil && !lexicon.SubsumesAny(root, rw.AllCategories()) {
			continue
		}
		seen[h.Form] = true
		roots = append(roots, h.Form)
	}
	return roots
}

// Generate runs the named rule set on word and returns the forms proposed
// by the first rule that fires. It records nothing.
func (e *Engine) Generate(word, ruleSet string) ([]string, error) {
	rs, ok := e.tables.RuleSet(ruleSet)
	if !ok {
		return nil, NewUnknownRuleSetError(word, "", ruleSet)
	}
	word = lexicon.Normalize(word)
	st := newState(newSession(word), 0)
	if _, fired := e.runRuleSet(st, word, rs); !fired {
		return nil, nil
	}
	return st.Forms(), nil
}

// AnalyzeAll analyzes words concurrently with at most limit analyses in
// flight (limit <= 0 means no limit). Results are returned in input order.
func (e *Engine) AnalyzeAll(ctx context.Context, words []string, limit int) ([]Result, error) {
	results := make([]Result, len(words))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, word := range words {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("analyze %q: %w", word, err)
			}
			results[i] = e.Analyze(word)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

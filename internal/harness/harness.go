package harness

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
	"github.com/roach88/morph/internal/store"
	"github.com/roach88/morph/internal/testutil"
)

// Harness is the test execution engine for one scenario.
// It owns a fresh store and an engine with deterministic IDs.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	tables *ir.Tables
	logger *zap.Logger
}

type runConfig struct {
	logger    *zap.Logger
	catalogue ir.Catalogue
}

// Option configures Run.
type Option func(*runConfig)

// WithLogger sets the logger handed to the compiler, store and engine.
// Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCatalogue sets the operation catalogue the tables compile against.
// Default: engine.DefaultCatalogue().
func WithCatalogue(cat ir.Catalogue) Option {
	return func(c *runConfig) {
		c.catalogue = cat
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the tables and load the seed lexicon into the store
// 2. Store the setup words
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: zap.NewNop(), catalogue: engine.DefaultCatalogue()}
	for _, opt := range opts {
		opt(&cfg)
	}

	tables, warnings, err := compiler.LoadTables(scenario.Tables, compiler.Options{
		Catalogue: cfg.catalogue,
		Logger:    cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	lex, err := lexicon.LoadSeedFile(scenario.Lexicon, tables.Hierarchy())
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}

	st, err := store.Open(":memory:", tables.Hierarchy(), store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if _, err := st.ImportLexicon(ctx, lex); err != nil {
		return nil, fmt.Errorf("failed to import lexicon: %w", err)
	}

	engOpts := []engine.Option{
		engine.WithLogger(cfg.logger),
		engine.WithIDGenerator(testutil.NewSequentialIDs(scenario.IDPrefix)),
		engine.WithMarkGuessed(scenario.Options.MarkGuessed),
	}
	if scenario.Options.MaxDepth > 0 {
		engOpts = append(engOpts, engine.WithMaxDepth(scenario.Options.MaxDepth))
	}
	if scenario.Options.MaxSteps > 0 {
		engOpts = append(engOpts, engine.WithMaxSteps(scenario.Options.MaxSteps))
	}

	h := &Harness{
		store:  st,
		engine: engine.New(tables, st, engOpts...),
		tables: tables,
		logger: cfg.logger,
	}

	result := NewResult()
	for _, w := range warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store:  st,
		Tables: tables,
		Ctx:    ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSetup stores the setup words. A category the tables do not define
// fails the scenario.
func (h *Harness) executeSetup(ctx context.Context, setup []lexicon.Entry) error {
	for i, e := range setup {
		w, err := lexicon.Reconstitute(e, h.tables.Hierarchy())
		if err != nil {
			return fmt.Errorf("setup word %d: %w", i, err)
		}
		if err := h.store.PutWord(ctx, w); err != nil {
			return fmt.Errorf("setup word %d: %w", i, err)
		}
		h.logger.Debug("setup word stored", zap.Int("step", i), zap.String("word", e.Word))
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each analysis is logged to the store and its word written back, so
// final_state assertions see both the analyses and the updated words.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	var seq int64
	for i, step := range flow {
		seq++
		op, word := step.Op()
		ev := TraceEvent{Seq: seq, Op: op, Word: lexicon.Normalize(word)}

		switch op {
		case OpAnalyze:
			res := h.engine.Analyze(word)
			ev.ID = res.ID
			ev.Status = string(res.Status)
			ev.RuleSet = res.RuleSet
			ev.Rule = res.Rule
			ev.Roots = res.Roots
			if res.Split != nil {
				ev.Split = res.Split.Left + "+" + res.Split.Right
				ev.Pass = res.Split.Pass
			}
			ev.Categories = res.Word.Crush().Categories

			if err := h.store.WriteAnalysis(ctx, store.RecordOf(res)); err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			if err := h.store.PutWord(ctx, res.Word); err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			result.Words[ev.Word] = res.Word

		case OpGenerate:
			forms, err := h.engine.Generate(word, step.RuleSet)
			if err != nil {
				result.AddError(fmt.Sprintf("flow[%d]: generate %q: %v", i, word, err))
			}
			ev.RuleSet = step.RuleSet
			ev.Forms = forms

		case OpDecompose:
			if s, ok := h.engine.Decompose(word); ok {
				ev.Split = s.Left + "+" + s.Right
				ev.Pass = s.Pass
			}
		}

		result.AddTrace(ev)
		if step.Expect != nil {
			for _, msg := range checkExpect(ev, step.Expect) {
				result.AddError(fmt.Sprintf("flow[%d] %s %q: %s", i, op, word, msg))
			}
		}

		h.logger.Debug("flow step completed",
			zap.Int("step", i),
			zap.String("op", op),
			zap.String("word", ev.Word),
			zap.String("status", ev.Status))
	}

	return nil
}

// checkExpect compares a step outcome with its expect clause (subset
// semantics) and returns one message per mismatch.
func checkExpect(ev TraceEvent, exp *ExpectClause) []string {
	var msgs []string
	mismatch := func(field string, want, got any) {
		msgs = append(msgs, fmt.Sprintf("%s: expected %v, got %v", field, want, got))
	}

	if exp.Status != "" && exp.Status != ev.Status {
		mismatch("status", exp.Status, ev.Status)
	}
	if exp.RuleSet != "" && exp.RuleSet != ev.RuleSet {
		mismatch("rule_set", exp.RuleSet, ev.RuleSet)
	}
	if exp.Rule != "" && exp.Rule != ev.Rule {
		mismatch("rule", exp.Rule, ev.Rule)
	}
	if exp.Roots != nil && !slices.Equal(exp.Roots, ev.Roots) {
		mismatch("roots", exp.Roots, ev.Roots)
	}
	if exp.Forms != nil && !slices.Equal(*exp.Forms, ev.Forms) {
		mismatch("forms", *exp.Forms, ev.Forms)
	}
	switch {
	case exp.Split == "none":
		if ev.Split != "" {
			mismatch("split", "none", ev.Split)
		}
	case exp.Split != "" && exp.Split != ev.Split:
		mismatch("split", exp.Split, ev.Split)
	}
	if exp.Pass != 0 && exp.Pass != ev.Pass {
		mismatch("pass", exp.Pass, ev.Pass)
	}
	return msgs
}

package engine

import (
	"go.uber.org/zap"

	"github.com/roach88/morph/internal/ir"
)

// opContext is the view of a match that catalogue operations receive.
type opContext struct {
	m  Match
	st *State
}

var _ ir.OpContext = (*opContext)(nil)

func (c *opContext) Word() string   { return c.m.Word }
func (c *opContext) Stem() string   { return c.m.Stem }
func (c *opContext) Prefix() string { return c.m.Prefix }
func (c *opContext) Suffix() string { return c.m.Suffix }

func (c *opContext) Propose(form string) {
	if form == "" {
		return
	}
	c.st.add(Hypothesis{Form: form, Rule: c.m.Rule.ID()})
}

// fire matches rule against word and, on a match, runs its actions into
// st. It reports whether the rule fired: matched and proposed at least one
// hypothesis.
func (e *Engine) fire(st *State, word string, rule *ir.Rule) (Match, bool) {
	m, ok, err := MatchRule(word, rule, e.maxSteps)
	if err != nil {
		e.logger.Warn("match abandoned",
			zap.String("word", word),
			zap.String("rule", rule.ID()),
			zap.Error(err))
		return Match{}, false
	}
	if !ok {
		return Match{}, false
	}

	before := st.Len()
	e.execute(st, m)
	return m, st.Len() > before
}

// execute runs the actions of a matched rule in declared order. A failing
// action is logged and skipped; the remaining actions still run.
func (e *Engine) execute(st *State, m Match) {
	ruleID := m.Rule.ID()
	for _, a := range m.Rule.Actions {
		form := m.Stem + a.Suffix
		switch a.Kind {
		case ir.SuffixAction:
			if form != "" {
				st.add(Hypothesis{Form: form, Rule: ruleID})
			}

		case ir.RuleSetAction:
			rs, ok := e.tables.RuleSet(a.Target)
			if !ok {
				e.logRuntime(NewUnknownRuleSetError(m.Word, ruleID, a.Target))
				continue
			}
			e.dispatch(st, m, a.Target, form, a.Target, func(child *State) {
				e.runRuleSet(child, form, rs)
			})

		case ir.TryAction:
			rule, ok := e.tables.Rule(a.Target)
			if !ok {
				e.logRuntime(NewUnknownRuleError(m.Word, ruleID, a.Target))
				continue
			}
			e.dispatch(st, m, "!"+a.Target, form, "", func(child *State) {
				e.fire(child, form, rule)
			})

		case ir.OpAction:
			if err := a.Op(&opContext{m: m, st: st}, a.Arg); err != nil {
				e.logRuntime(NewOperationError(m.Word, ruleID, a.Target, err))
			}
		}
	}
}

// dispatch runs a nested analysis of form in a child state and copies its
// hypotheses into st. Hypotheses not already attributed to a deeper rule
// set are tagged with via when via is set.
func (e *Engine) dispatch(st *State, m Match, target, form, via string, run func(child *State)) {
	if st.depth+1 > e.maxDepth {
		e.logRuntime(NewDepthError(m.Word, st.depth+1, e.maxDepth))
		return
	}
	cycles := st.sess.cycles
	if cycles.WouldCycle(target, form) {
		e.logger.Debug("nested dispatch skipped: cycle",
			zap.String("target", target),
			zap.String("form", form))
		return
	}
	cycles.Enter(target, form)
	defer cycles.Leave(target, form)

	child := st.child()
	run(child)
	for _, h := range child.results {
		if h.Via == "" {
			h.Via = via
		}
		st.add(h)
	}
}

// runRuleSet fires the rules of rs against word in order and stops at the
// first rule that fires.
func (e *Engine) runRuleSet(st *State, word string, rs *ir.RuleSet) (Match, bool) {
	for _, rule := range rs.Rules {
		if m, ok := e.fire(st, word, rule); ok {
			return m, true
		}
	}
	return Match{}, false
}

func (e *Engine) logRuntime(err *RuntimeError) {
	level := e.logger.Warn
	if err.Code == ErrCodeDepthExceeded {
		level = e.logger.Debug
	}
	level("analysis step skipped",
		zap.String("code", string(err.Code)),
		zap.String("word", err.Word),
		zap.String("rule", err.Rule),
		zap.Error(err))
}

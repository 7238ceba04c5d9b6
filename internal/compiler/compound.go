package compiler

import (
	"strconv"
	"strings"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
)

// CompileCompoundRule compiles a compound rule:
//
//	<left-category> <right-category> -> <result>,<result>,...
//
// A result is a category name or "$1"/"$2" (the category the left/right half
// matched with), optionally followed by ":<penalty>". "*" as a half's
// category accepts any categorized word. A rule whose halves cannot be
// resolved is dropped with a warning.
func CompileCompoundRule(expr string, h *lexicon.Hierarchy) (*ir.CompoundRule, []Warning) {
	c := &ruleCompiler{rc: RuleContext{RuleSet: "compound"}, source: strings.TrimSpace(expr)}

	patText, actText, found := strings.Cut(c.source, "->")
	halves := strings.Fields(patText)
	if !found || len(halves) != 2 {
		c.warn(WarnMalformedCompound, "compound rule needs two categories and \"->\"; rule dropped")
		return nil, c.warnings
	}

	rule := &ir.CompoundRule{Source: c.source}
	var ok bool
	if rule.Left, ok = c.half(halves[0], h); !ok {
		return nil, c.warnings
	}
	if rule.Right, ok = c.half(halves[1], h); !ok {
		return nil, c.warnings
	}

	for _, item := range strings.Split(actText, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if res, ok := c.compoundResult(item, h); ok {
			rule.Results = append(rule.Results, res)
		}
	}
	return rule, c.warnings
}

func (c *ruleCompiler) half(name string, h *lexicon.Hierarchy) (*lexicon.Category, bool) {
	if name == "*" {
		return nil, true
	}
	cat, ok := h.Lookup(name)
	if !ok {
		c.warn(WarnUnknownCategory, "unknown category %q; rule dropped", name)
		return nil, false
	}
	return cat, true
}

func (c *ruleCompiler) compoundResult(item string, h *lexicon.Hierarchy) (ir.CompoundResult, bool) {
	var res ir.CompoundResult
	name, penalty, hasPenalty := strings.Cut(item, ":")
	if hasPenalty {
		n, err := strconv.Atoi(penalty)
		if err != nil || !lexicon.Level(n).Valid() {
			c.warn(WarnMalformedCompound, "bad penalty in %q; using 0", item)
		} else {
			res.Penalty = lexicon.Level(n)
		}
	}
	switch name {
	case "$1":
		res.Binding = 1
	case "$2":
		res.Binding = 2
	default:
		cat, ok := h.Lookup(name)
		if !ok {
			c.warn(WarnUnknownCategory, "unknown result category %q dropped", name)
			return res, false
		}
		res.Category = cat
	}
	return res, true
}

package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/morph/internal/ir"
)

// Rule warning codes (W300-W399). Warnings never stop compilation; the rule
// is compiled with the fallback the message describes.
const (
	WarnUnknownClass      = "W301" // unknown $Class: element matches any character
	WarnTrailingRepeat    = "W302" // repeatable rightmost element of unanchored pattern: matched once
	WarnDuplicateMarker   = "W303" // second "+" or "-": ignored
	WarnMisplacedAnchor   = "W304" // "#" between elements: ignored
	WarnMissingArrow      = "W305" // no "->": rule has no actions
	WarnUnknownOperation  = "W306" // "@name" not in catalogue: action dropped
	WarnEmptyPattern      = "W307" // no pattern elements: rule dropped
	WarnMalformedAction   = "W308" // unbalanced action item: action dropped
	WarnWildcardRepeat    = "W309" // "*" or "+" on a wildcard: reduced
	WarnUnknownCategory   = "W310" // compound rule names an unknown category
	WarnMalformedCompound = "W311" // compound rule shape is wrong: rule dropped
)

// Warning is a recoverable problem found while compiling one rule.
type Warning struct {
	RuleSet string `json:"rule_set,omitempty"`
	Rule    string `json:"rule"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) Error() string {
	if w.RuleSet != "" {
		return fmt.Sprintf("[%s] %s: %q: %s", w.Code, w.RuleSet, w.Rule, w.Message)
	}
	return fmt.Sprintf("[%s] %q: %s", w.Code, w.Rule, w.Message)
}

// RuleContext carries what a rule is compiled against.
type RuleContext struct {
	// RuleSet names the owning set, for diagnostics.
	RuleSet string
	// Index is the rule's position within its set.
	Index int
	// Name is set for named single rules.
	Name string
	// Classes maps class variable names, with or without the leading "$",
	// to their member characters.
	Classes map[string]string
	// Catalogue resolves "@name" actions.
	Catalogue ir.Catalogue
}

func (rc RuleContext) class(name string) (string, bool) {
	if set, ok := rc.Classes[name]; ok {
		return set, true
	}
	set, ok := rc.Classes[strings.TrimPrefix(name, "$")]
	return set, ok
}

type ruleCompiler struct {
	rc       RuleContext
	source   string
	warnings []Warning
}

func (c *ruleCompiler) warn(code, format string, args ...any) {
	c.warnings = append(c.warnings, Warning{
		RuleSet: c.rc.RuleSet,
		Rule:    c.source,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// CompileRule compiles one rule expression:
//
//	<pattern-elements> -> <action>,<action>,...
//
// A nil rule is returned only when there is nothing to match (an empty
// pattern). Every other problem is reported as a warning and compiled with
// a permissive fallback.
func CompileRule(expr string, rc RuleContext) (*ir.Rule, []Warning) {
	c := &ruleCompiler{rc: rc, source: strings.TrimSpace(expr)}

	patText, actText, found := strings.Cut(c.source, "->")
	if !found {
		c.warn(WarnMissingArrow, "missing \"->\"; rule has no actions")
	}

	rule := &ir.Rule{
		Name:    rc.Name,
		RuleSet: rc.RuleSet,
		Index:   rc.Index,
		Source:  c.source,
	}
	c.compilePattern(rule, strings.Fields(patText))
	if len(rule.Pattern) == 0 {
		c.warn(WarnEmptyPattern, "pattern has no elements; rule dropped")
		return nil, c.warnings
	}
	if found {
		rule.Actions = c.compileActions(actText)
	}
	return rule, c.warnings
}

func (c *ruleCompiler) compilePattern(rule *ir.Rule, tokens []string) {
	rightMark, leftMark := -1, -1

	lastElement := -1
	for i, tok := range tokens {
		if !isMarker(tok) {
			lastElement = i
		}
	}

	for i, tok := range tokens {
		switch tok {
		case "#":
			switch {
			case len(rule.Pattern) == 0:
				rule.LeftAnchor = true
			case i > lastElement:
				rule.RightAnchor = true
			default:
				c.warn(WarnMisplacedAnchor, "\"#\" between pattern elements ignored")
			}
		case "+":
			if rightMark >= 0 {
				c.warn(WarnDuplicateMarker, "duplicate \"+\" ignored")
				continue
			}
			rightMark = len(rule.Pattern)
			rule.RightAnchor = true
		case "-":
			if leftMark >= 0 {
				c.warn(WarnDuplicateMarker, "duplicate \"-\" ignored")
				continue
			}
			leftMark = len(rule.Pattern)
			rule.LeftAnchor = true
		default:
			rule.Pattern = append(rule.Pattern, c.compileElement(tok))
		}
	}

	if rightMark >= 0 {
		rule.KillNum = len(rule.Pattern) - rightMark
	}
	if leftMark >= 0 {
		rule.LeftKillNum = leftMark
	}

	if n := len(rule.Pattern); n > 0 && !rule.RightAnchor {
		last := &rule.Pattern[n-1]
		if last.Repeat != ir.Once {
			c.warn(WarnTrailingRepeat, "%q is the rightmost element of an unanchored pattern; matched exactly once", last.Token)
			last.Repeat = ir.Once
		}
	}
}

func isMarker(tok string) bool {
	return tok == "#" || tok == "+" || tok == "-"
}

func (c *ruleCompiler) compileElement(tok string) ir.Element {
	el := ir.Element{Kind: ir.Literal, Token: tok}
	rest := tok

	switch rest[0] {
	case '?':
		el.Repeat = ir.Optional
		rest = rest[1:]
	case '*':
		el.Repeat = ir.Star
		rest = rest[1:]
	case '+':
		el.Repeat = ir.Plus
		rest = rest[1:]
	}

	if rest == "&" {
		el.Kind = ir.Double
		return el
	}

	if strings.HasPrefix(rest, ".") {
		el.Kind = ir.Wildcard
		rest = rest[1:]
		switch el.Repeat {
		case ir.Star:
			c.warn(WarnWildcardRepeat, "%q: \"*\" on a wildcard treated as \"?\"", tok)
			el.Repeat = ir.Optional
		case ir.Plus:
			c.warn(WarnWildcardRepeat, "%q: \"+\" on a wildcard ignored", tok)
			el.Repeat = ir.Once
		}
	}

	switch {
	case rest == "":
		el.Any = true
	case strings.HasPrefix(rest, "$"):
		el.Class = rest
		set, ok := c.rc.class(rest)
		if !ok {
			c.warn(WarnUnknownClass, "unknown class variable %s; matching any character", rest)
			el.Any = true
		} else {
			el.Set = set
		}
	default:
		el.Set = strings.ReplaceAll(rest, "|", "")
	}
	return el
}

// compileActions parses the text after "->". An empty list is a single
// empty suffix: the stem itself is the hypothesis.
func (c *ruleCompiler) compileActions(text string) []ir.Action {
	if strings.TrimSpace(text) == "" {
		return []ir.Action{{Kind: ir.SuffixAction}}
	}
	var actions []ir.Action
	for _, item := range splitActions(text) {
		if a, ok := c.compileAction(strings.TrimSpace(item)); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// splitActions splits on commas outside parentheses.
func splitActions(text string) []string {
	var items []string
	depth, start := 0, 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				items = append(items, text[start:i])
				start = i + 1
			}
		}
	}
	return append(items, text[start:])
}

func (c *ruleCompiler) compileAction(item string) (ir.Action, bool) {
	switch {
	case strings.HasPrefix(item, "(:"):
		target, suffix, ok := strings.Cut(item[2:], ")")
		if !ok || target == "" {
			c.warn(WarnMalformedAction, "malformed rule-set action %q dropped", item)
			return ir.Action{}, false
		}
		return ir.Action{Kind: ir.RuleSetAction, Target: target, Suffix: suffix}, true

	case strings.HasPrefix(item, "TRY("):
		target, suffix, ok := strings.Cut(item[4:], ")")
		target = strings.TrimPrefix(target, "!")
		if !ok || target == "" {
			c.warn(WarnMalformedAction, "malformed TRY action %q dropped", item)
			return ir.Action{}, false
		}
		return ir.Action{Kind: ir.TryAction, Target: target, Suffix: suffix}, true

	case strings.HasPrefix(item, "@"):
		name, arg := item[1:], ""
		if open := strings.IndexByte(name, '('); open >= 0 {
			if !strings.HasSuffix(name, ")") {
				c.warn(WarnMalformedAction, "malformed operation %q dropped", item)
				return ir.Action{}, false
			}
			name, arg = name[:open], name[open+1:len(name)-1]
		}
		op, ok := c.rc.Catalogue[name]
		if !ok {
			c.warn(WarnUnknownOperation, "unknown operation @%s dropped", name)
			return ir.Action{}, false
		}
		return ir.Action{Kind: ir.OpAction, Target: name, Arg: arg, Op: op}, true

	default:
		return ir.Action{Kind: ir.SuffixAction, Suffix: item}, true
	}
}

package compiler

import (
	"fmt"

	"github.com/roach88/morph/internal/ir"
)

// Table validation error codes (E200-E299). Unlike rule warnings these mark
// tables that load but cannot behave as written.
const (
	ErrUnknownRuleSetRef = "E201" // (:name) names no rule set
	ErrUnknownRuleRef    = "E202" // TRY(!name) names no rule
	ErrEmptyRuleSet      = "E203" // rule set compiled to zero rules
	ErrMissingCategory   = "E204" // suffix-selected set records nothing
	ErrCompoundNoResults = "E205" // compound rule records nothing
	ErrPenaltyOutOfRange = "E206" // rule set penalty outside 0-3
)

// ValidationError represents a table validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled tables for cross-references and shape problems.
// Returns all errors found (does not fail-fast), in declaration order.
func Validate(t *ir.Tables) []ValidationError {
	var errs []ValidationError

	sets := t.RuleSets()
	if def := t.Default(); def != nil {
		sets = append(sets, def)
	}

	for _, s := range sets {
		field := "ruleset." + s.Name

		if len(s.Rules) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".rules",
				Message: fmt.Sprintf("rule set %q has no usable rules", s.Name),
				Code:    ErrEmptyRuleSet,
			})
		}

		if s.Suffix != "" && s.Category == nil {
			errs = append(errs, ValidationError{
				Field:   field + ".category",
				Message: fmt.Sprintf("rule set %q is selected by suffix %q but records no category", s.Name, s.Suffix),
				Code:    ErrMissingCategory,
			})
		}

		if !s.Penalty.Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".penalty",
				Message: fmt.Sprintf("penalty %d out of range 0-3", s.Penalty),
				Code:    ErrPenaltyOutOfRange,
			})
		}

		for i, r := range s.Rules {
			errs = append(errs, validateRefs(t, fmt.Sprintf("%s.rules[%d]", field, i), r)...)
		}
	}

	for _, name := range t.RuleNames() {
		r, _ := t.Rule(name)
		errs = append(errs, validateRefs(t, "rule."+name, r)...)
	}

	for i, cr := range t.Compound().Rules {
		if len(cr.Results) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("compound.rules[%d]", i),
				Message: fmt.Sprintf("compound rule %q records no category", cr.Source),
				Code:    ErrCompoundNoResults,
			})
		}
	}

	return errs
}

func validateRefs(t *ir.Tables, field string, r *ir.Rule) []ValidationError {
	var errs []ValidationError
	for j, a := range r.Actions {
		switch a.Kind {
		case ir.RuleSetAction:
			if _, ok := t.RuleSet(a.Target); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.actions[%d]", field, j),
					Message: fmt.Sprintf("unknown rule set %q", a.Target),
					Code:    ErrUnknownRuleSetRef,
				})
			}
		case ir.TryAction:
			if _, ok := t.Rule(a.Target); !ok {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.actions[%d]", field, j),
					Message: fmt.Sprintf("unknown rule %q", a.Target),
					Code:    ErrUnknownRuleRef,
				})
			}
		}
	}
	return errs
}

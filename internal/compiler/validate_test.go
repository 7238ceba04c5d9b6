package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/ir"
)

func compileSource(t *testing.T, src string) *ir.Tables {
	t.Helper()
	tables, _, err := CompileTablesSource("t.cue", []byte(src), Options{Catalogue: testCatalogue})
	require.NoError(t, err)
	return tables
}

func TestValidate_English(t *testing.T) {
	assert.Empty(t, Validate(loadEnglish(t)))
}

func TestValidate_Problems(t *testing.T) {
	tables := compileSource(t, `
categories: {
	word: {root: true, subs: ["noun"]}
}
ruleset: {
	refs: {
		suffix:   "s"
		category: "noun"
		rules: ["+ s -> (:nowhere)", "+ s -> TRY(!missing)"]
	}
	empty: {
		suffix:   "x"
		category: "noun"
		rules: []
	}
	bare: {
		suffix: "q"
		rules: ["+ q ->"]
	}
}
rule: {
	loose: "+ z -> (:gone)"
}
compound: rules: ["noun noun ->"]
`)

	errs := Validate(tables)
	got := make(map[string]string, len(errs))
	for _, e := range errs {
		got[e.Field] = e.Code
	}

	assert.Equal(t, map[string]string{
		"ruleset.refs.rules[0].actions[0]": ErrUnknownRuleSetRef,
		"ruleset.refs.rules[1].actions[0]": ErrUnknownRuleRef,
		"ruleset.empty.rules":              ErrEmptyRuleSet,
		"ruleset.bare.category":            ErrMissingCategory,
		"rule.loose.actions[0]":            ErrUnknownRuleSetRef,
		"compound.rules[0]":                ErrCompoundNoResults,
	}, got)
}

func TestValidate_PenaltyOutOfRange(t *testing.T) {
	set := &ir.RuleSet{Name: "odd", Penalty: 9, Rules: []*ir.Rule{{RuleSet: "odd"}}}
	tables := ir.NewTables(nil, []*ir.RuleSet{set}, nil, nil, nil)

	errs := Validate(tables)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrPenaltyOutOfRange, errs[0].Code)
	assert.Equal(t, "ruleset.odd.penalty", errs[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	withLine := ValidationError{Field: "ruleset.a", Message: "bad", Code: ErrEmptyRuleSet, Line: 4}
	assert.Equal(t, "[E203] line 4: ruleset.a: bad", withLine.Error())

	noLine := ValidationError{Field: "default", Message: "bad", Code: ErrUnknownRuleSetRef}
	assert.Equal(t, "[E201] default: bad", noLine.Error())
}

package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/ir"
)

func noopOp(ir.OpContext, string) error { return nil }

var testCatalogue = ir.Catalogue{
	"undouble": noopOp,
	"prefix":   noopOp,
}

func compile(t *testing.T, expr string, classes map[string]string) (*ir.Rule, []Warning) {
	t.Helper()
	return CompileRule(expr, RuleContext{
		RuleSet:   "test",
		Classes:   classes,
		Catalogue: testCatalogue,
	})
}

func codes(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

func TestCompileRule_VowelWildcardKill(t *testing.T) {
	rule, warnings := compile(t, ".$Vowel + t -> t,st", map[string]string{"$Vowel": "aeiou"})
	require.Empty(t, warnings)
	require.NotNil(t, rule)

	require.Len(t, rule.Pattern, 2)
	assert.Equal(t, ir.Wildcard, rule.Pattern[0].Kind)
	assert.Equal(t, "aeiou", rule.Pattern[0].Set)
	assert.Equal(t, "$Vowel", rule.Pattern[0].Class)
	assert.Equal(t, ir.Literal, rule.Pattern[1].Kind)
	assert.Equal(t, "t", rule.Pattern[1].Set)
	assert.Equal(t, 1, rule.KillNum)
	assert.True(t, rule.RightAnchor)
	assert.False(t, rule.LeftAnchor)

	want := []ir.Action{
		{Kind: ir.SuffixAction, Suffix: "t"},
		{Kind: ir.SuffixAction, Suffix: "st"},
	}
	assert.Empty(t, cmp.Diff(want, rule.Actions))
}

func TestCompileRule_TrailingAnchorInlineSet(t *testing.T) {
	rule, warnings := compile(t, "e l|r # -> e,st,t,en,n", nil)
	require.Empty(t, warnings)

	require.Len(t, rule.Pattern, 2)
	assert.Equal(t, "e", rule.Pattern[0].Set)
	assert.Equal(t, "lr", rule.Pattern[1].Set, "| separators are dropped")
	assert.True(t, rule.RightAnchor)
	assert.Equal(t, 0, rule.KillNum)
	assert.Len(t, rule.Actions, 5)
	assert.Equal(t, `{e} {lr} # -> "e", "st", "t", "en", "n"`, rule.String())
}

func TestCompileRule_LeftKill(t *testing.T) {
	rule, warnings := compile(t, "u n - . ->", nil)
	require.Empty(t, warnings)

	require.Len(t, rule.Pattern, 3)
	assert.True(t, rule.LeftAnchor)
	assert.False(t, rule.RightAnchor)
	assert.Equal(t, 2, rule.LeftKillNum)
	assert.True(t, rule.Pattern[2].Any)
	assert.Equal(t, ir.Wildcard, rule.Pattern[2].Kind)
	assert.True(t, rule.InLeftKill(1))
	assert.False(t, rule.InLeftKill(2))

	require.Len(t, rule.Actions, 1, "empty action list is the bare stem")
	assert.Equal(t, ir.Action{Kind: ir.SuffixAction}, rule.Actions[0])
}

func TestCompileRule_LeadingAnchor(t *testing.T) {
	rule, warnings := compile(t, "# a b -> x", nil)
	require.Empty(t, warnings)
	assert.True(t, rule.LeftAnchor)
	assert.False(t, rule.RightAnchor)
	assert.Equal(t, 0, rule.LeftKillNum)
}

func TestCompileRule_ElementKinds(t *testing.T) {
	rule, warnings := compile(t, "?a *b +c & + e d ->", nil)
	require.Empty(t, warnings)
	require.Len(t, rule.Pattern, 6)

	assert.Equal(t, ir.Optional, rule.Pattern[0].Repeat)
	assert.Equal(t, ir.Star, rule.Pattern[1].Repeat)
	assert.Equal(t, ir.Plus, rule.Pattern[2].Repeat)
	assert.Equal(t, "c", rule.Pattern[2].Set)
	assert.Equal(t, ir.Double, rule.Pattern[3].Kind)
	assert.Equal(t, 2, rule.KillNum)
}

func TestCompileRule_ClassNameWithoutDollar(t *testing.T) {
	rule, warnings := compile(t, "$Vowel + s ->", map[string]string{"Vowel": "aeiou"})
	require.Empty(t, warnings)
	assert.Equal(t, "aeiou", rule.Pattern[0].Set)
}

func TestCompileRule_Actions(t *testing.T) {
	rule, warnings := compile(t, "+ s -> (:verb)e, TRY(!iy)ing, @prefix(ge), @undouble, x", nil)
	require.Empty(t, warnings)
	require.Len(t, rule.Actions, 5)

	assert.Equal(t, ir.RuleSetAction, rule.Actions[0].Kind)
	assert.Equal(t, "verb", rule.Actions[0].Target)
	assert.Equal(t, "e", rule.Actions[0].Suffix)

	assert.Equal(t, ir.TryAction, rule.Actions[1].Kind)
	assert.Equal(t, "iy", rule.Actions[1].Target)
	assert.Equal(t, "ing", rule.Actions[1].Suffix)

	assert.Equal(t, ir.OpAction, rule.Actions[2].Kind)
	assert.Equal(t, "prefix", rule.Actions[2].Target)
	assert.Equal(t, "ge", rule.Actions[2].Arg)
	assert.NotNil(t, rule.Actions[2].Op)

	assert.Equal(t, ir.OpAction, rule.Actions[3].Kind)
	assert.Empty(t, rule.Actions[3].Arg)

	assert.Equal(t, ir.SuffixAction, rule.Actions[4].Kind)
	assert.Equal(t, "x", rule.Actions[4].Suffix)
}

func TestSplitActions_ParenthesesProtectCommas(t *testing.T) {
	assert.Equal(t, []string{"@prefix(a,b)", " x", ""}, splitActions("@prefix(a,b), x,"))
}

func TestCompileRule_Warnings(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		code  string
		check func(t *testing.T, r *ir.Rule)
	}{
		{
			name: "unknown class matches anything",
			expr: "$Nope + s ->",
			code: WarnUnknownClass,
			check: func(t *testing.T, r *ir.Rule) {
				assert.True(t, r.Pattern[0].Any)
			},
		},
		{
			name: "trailing repeat matched once",
			expr: "a *b -> x",
			code: WarnTrailingRepeat,
			check: func(t *testing.T, r *ir.Rule) {
				assert.Equal(t, ir.Once, r.Pattern[1].Repeat)
			},
		},
		{
			name: "duplicate kill marker ignored",
			expr: "+ a + b ->",
			code: WarnDuplicateMarker,
			check: func(t *testing.T, r *ir.Rule) {
				assert.Equal(t, 2, r.KillNum)
			},
		},
		{
			name: "misplaced anchor ignored",
			expr: "a # b -> x",
			code: WarnMisplacedAnchor,
			check: func(t *testing.T, r *ir.Rule) {
				assert.False(t, r.LeftAnchor)
				assert.False(t, r.RightAnchor)
				assert.Len(t, r.Pattern, 2)
			},
		},
		{
			name: "missing arrow gives no actions",
			expr: "a b",
			code: WarnMissingArrow,
			check: func(t *testing.T, r *ir.Rule) {
				assert.Empty(t, r.Actions)
			},
		},
		{
			name: "unknown operation dropped",
			expr: "+ s -> @nope, x",
			code: WarnUnknownOperation,
			check: func(t *testing.T, r *ir.Rule) {
				require.Len(t, r.Actions, 1)
				assert.Equal(t, "x", r.Actions[0].Suffix)
			},
		},
		{
			name: "malformed rule-set action dropped",
			expr: "+ s -> (:)x",
			code: WarnMalformedAction,
			check: func(t *testing.T, r *ir.Rule) {
				assert.Empty(t, r.Actions)
			},
		},
		{
			name: "star on wildcard becomes optional",
			expr: "*.a + s ->",
			code: WarnWildcardRepeat,
			check: func(t *testing.T, r *ir.Rule) {
				assert.Equal(t, ir.Wildcard, r.Pattern[0].Kind)
				assert.Equal(t, ir.Optional, r.Pattern[0].Repeat)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, warnings := compile(t, tt.expr, nil)
			require.NotNil(t, rule)
			assert.Equal(t, []string{tt.code}, codes(warnings))
			assert.Equal(t, "test", warnings[0].RuleSet)
			assert.Equal(t, tt.expr, warnings[0].Rule)
			tt.check(t, rule)
		})
	}
}

func TestCompileRule_EmptyPatternDropped(t *testing.T) {
	rule, warnings := compile(t, "# -> x", nil)
	assert.Nil(t, rule)
	assert.Equal(t, []string{WarnEmptyPattern}, codes(warnings))
}

func TestWarning_Error(t *testing.T) {
	w := Warning{RuleSet: "past", Rule: "a b", Code: WarnMissingArrow, Message: "no arrow"}
	assert.Equal(t, `[W305] past: "a b": no arrow`, w.Error())

	w.RuleSet = ""
	assert.Equal(t, `[W305] "a b": no arrow`, w.Error())
}

package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/lexicon"
)

func TestElement_MatchesAndMin(t *testing.T) {
	vowel := Element{Kind: Literal, Set: "aeiou"}
	anyChar := Element{Kind: Wildcard, Any: true}

	assert.True(t, vowel.Matches('e'))
	assert.False(t, vowel.Matches('t'))
	assert.True(t, anyChar.Matches('x'))

	assert.Equal(t, 1, vowel.Min())
	assert.Equal(t, 0, Element{Repeat: Optional}.Min())
	assert.Equal(t, 0, Element{Repeat: Star}.Min())
	assert.Equal(t, 1, Element{Repeat: Plus}.Min())
	assert.True(t, Element{Repeat: Star}.Repeatable())
	assert.False(t, Element{Repeat: Optional}.Repeatable())
}

func TestRule_StringAndKillRegions(t *testing.T) {
	r := &Rule{
		RuleSet: "past",
		Index:   2,
		Pattern: []Element{
			{Kind: Wildcard, Set: "aeiou"},
			{Kind: Literal, Set: "t"},
		},
		RightAnchor: true,
		KillNum:     1,
		Actions: []Action{
			{Kind: SuffixAction, Suffix: "t"},
			{Kind: RuleSetAction, Target: "verb", Suffix: "e"},
			{Kind: TryAction, Target: "double", Suffix: ""},
			{Kind: OpAction, Target: "mark", Arg: "x"},
		},
	}

	assert.Equal(t, `.{aeiou} + {t} -> "t", (:verb)"e", TRY(!double)"", @mark(x)`, r.String())
	assert.Equal(t, "past#2", r.ID())
	assert.False(t, r.InRightKill(0))
	assert.True(t, r.InRightKill(1))
	assert.False(t, r.InLeftKill(0))

	r.Name = "dbl"
	assert.Equal(t, "!dbl", r.ID())
}

func TestRule_JSONRoundTrip(t *testing.T) {
	r := &Rule{
		RuleSet:     "past",
		Index:       1,
		Source:      "+ e d -> @undouble(ed), (:verb), TRY(!iy), e",
		Pattern:     []Element{{Kind: Literal, Set: "e", Token: "e"}, {Kind: Literal, Set: "d", Token: "d"}},
		RightAnchor: true,
		KillNum:     2,
		Actions: []Action{
			{Kind: OpAction, Target: "undouble", Arg: "ed"},
			{Kind: RuleSetAction, Target: "verb"},
			{Kind: TryAction, Target: "iy"},
			{Kind: SuffixAction, Suffix: "e"},
		},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"ruleset"`)

	var got Rule
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *r, got)
}

func TestActionKind_UnmarshalTextRejectsUnknown(t *testing.T) {
	var k ActionKind
	err := json.Unmarshal([]byte(`"jump"`), &k)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action kind "jump"`)
}

func TestTables_CandidatesLongestSuffixFirst(t *testing.T) {
	h := lexicon.NewHierarchy(nil)
	s := &RuleSet{Name: "s", Suffix: "s"}
	ies := &RuleSet{Name: "ies", Suffix: "ies"}
	ing := &RuleSet{Name: "ing", Suffix: "ing"}
	def := &RuleSet{Name: "default"}

	tbl := NewTables(h, []*RuleSet{s, ies, ing}, def, nil, nil)

	assert.Equal(t, []*RuleSet{ies, s, def}, tbl.Candidates("ponies"))
	assert.Equal(t, []*RuleSet{def}, tbl.Candidates("walk"))
	assert.Equal(t, []*RuleSet{s, ies, ing}, tbl.RuleSets())

	got, ok := tbl.RuleSet("default")
	require.True(t, ok)
	assert.Same(t, def, got)
	assert.NotNil(t, tbl.Compound())
}

func TestCompoundConfig_Plausible(t *testing.T) {
	c := &CompoundConfig{
		Vowels:          "aeiouy",
		IllegalPrefixes: []string{"ng"},
		IllegalSuffixes: []string{"q"},
		IllegalRoots:    map[string]struct{}{"ee": {}},
		LeftExceptions:  map[string]struct{}{"a": {}},
	}

	assert.True(t, c.Plausible("horse"))
	assert.True(t, c.Plausible("shy"))
	assert.False(t, c.Plausible("hrs"), "no vowel")
	assert.False(t, c.Plausible("ngaio"))
	assert.False(t, c.Plausible("iraq"))
	assert.False(t, c.Plausible("ee"))
	assert.False(t, c.Plausible(""))

	assert.True(t, c.LeftException("a"))
	assert.False(t, c.RightException("a"))
	assert.Equal(t, DefaultCompoundMinLength, c.MinLen())
}

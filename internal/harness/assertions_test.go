package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/lexicon"
	"github.com/roach88/morph/internal/store"
	"github.com/roach88/morph/internal/testutil"
)

// assertionFixture analyzes a few words and stores them the way Run does.
func assertionFixture(t *testing.T) (*Result, *AssertionContext) {
	t.Helper()
	ctx := context.Background()
	tables, lex := testutil.LoadEnglish(t, engine.DefaultCatalogue())

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), tables.Hierarchy())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, err = st.ImportLexicon(ctx, lex)
	require.NoError(t, err)

	e := engine.New(tables, st, engine.WithIDGenerator(testutil.NewSequentialIDs("t")))
	result := NewResult()
	for i, word := range []string{"stopped", "horseshoe", "xyzzy"} {
		res := e.Analyze(word)
		require.NoError(t, st.WriteAnalysis(ctx, store.RecordOf(res)))
		require.NoError(t, st.PutWord(ctx, res.Word))
		result.Words[word] = res.Word
		result.AddTrace(TraceEvent{Seq: int64(i + 1), Op: OpAnalyze, Word: word, Status: string(res.Status)})
	}
	return result, &AssertionContext{Store: st, Tables: tables, Ctx: ctx}
}

func level(l lexicon.Level) *lexicon.Level { return &l }

func TestEvaluateAssertions_Pass(t *testing.T) {
	result, actx := assertionFixture(t)

	assertions := []Assertion{
		{Type: AssertCategory, Word: "stopped", Category: "verb", Level: level(lexicon.Likely)},
		{Type: AssertCategory, Word: "horseshoe", Category: "noun"},
		{Type: AssertCategory, Word: "care", Category: "verb", Level: level(lexicon.Plausible)}, // from the store
		{Type: AssertNotCategory, Word: "stopped", Category: "noun"},
		{Type: AssertRoots, Word: "stopped", Roots: []string{"stop"}},
		{Type: AssertRoots, Word: "xyzzy"},
		{Type: AssertCompoundOf, Word: "horseshoe", Parts: []string{"horse", "shoe"}},
		{Type: AssertStatusCount, Status: "matched", Count: 1},
		{Type: AssertStatusCount, Status: "guessed", Count: 0},
		{Type: AssertFinalState, Table: "analyses", Where: map[string]interface{}{"word": "horseshoe"},
			Expect: map[string]interface{}{"id": "t-2", "seq": 2, "split": "horse+shoe"}},
		{Type: AssertFinalState, Table: "words", Where: map[string]interface{}{"name": "horse"},
			Expect: map[string]interface{}{"revision": int64(1)}},
	}

	assert.Empty(t, EvaluateAssertions(result, assertions, actx))
}

func TestEvaluateAssertions_Fail(t *testing.T) {
	result, actx := assertionFixture(t)

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"category level too likely", Assertion{Type: AssertCategory, Word: "horseshoe", Category: "adj"}, "Assertion failed: category"},
		{"category unknown word", Assertion{Type: AssertCategory, Word: "nowhere", Category: "noun"}, "word not found"},
		{"category unknown category", Assertion{Type: AssertCategory, Word: "stopped", Category: "gadget"}, `unknown category "gadget"`},
		{"not_category", Assertion{Type: AssertNotCategory, Word: "stopped", Category: "past"}, "stopped is not a past"},
		{"roots", Assertion{Type: AssertRoots, Word: "stopped", Roots: []string{"stopp"}}, "roots [stop]"},
		{"compound_of", Assertion{Type: AssertCompoundOf, Word: "horseshoe", Parts: []string{"hor", "seshoe"}}, "compound_of [[horse shoe]]"},
		{"compound_of unknown word", Assertion{Type: AssertCompoundOf, Word: "nowhere", Parts: []string{"a", "b"}}, "word not found"},
		{"status_count", Assertion{Type: AssertStatusCount, Status: "unresolved", Count: 2}, "1 analyses"},
		{"final_state missing row", Assertion{Type: AssertFinalState, Table: "words", Where: map[string]interface{}{"name": "nowhere"}, Expect: map[string]interface{}{"revision": 1}}, "row not found"},
		{"final_state ambiguous", Assertion{Type: AssertFinalState, Table: "analyses", Expect: map[string]interface{}{"status": "matched"}}, "multiple rows matched"},
		{"final_state wrong value", Assertion{Type: AssertFinalState, Table: "analyses", Where: map[string]interface{}{"id": "t-1"}, Expect: map[string]interface{}{"status": "compound"}}, `field "status" = matched`},
		{"final_state missing column", Assertion{Type: AssertFinalState, Table: "analyses", Where: map[string]interface{}{"id": "t-1"}, Expect: map[string]interface{}{"color": "red"}}, `field "color" not present`},
		{"final_state bad table", Assertion{Type: AssertFinalState, Table: "words; DROP TABLE words", Expect: map[string]interface{}{"x": 1}}, "invalid table name"},
		{"final_state bad column", Assertion{Type: AssertFinalState, Table: "words", Where: map[string]interface{}{"name = name OR 1": 1}, Expect: map[string]interface{}{"x": 1}}, "invalid column name"},
		{"unknown type", Assertion{Type: "magic"}, `unknown assertion type "magic"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, actx)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_MissingContext(t *testing.T) {
	result := NewResult()
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertCategory, Word: "a", Category: "noun"},
		{Type: AssertFinalState, Table: "words", Expect: map[string]interface{}{"x": 1}},
	}, nil)
	assert.Equal(t, []string{
		"assertion[0]: category requires tables",
		"assertion[1]: final_state requires database context",
	}, errs)
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{
		Type:     AssertStatusCount,
		Expected: "2 analyses with status matched",
		Actual:   "1 analyses",
		Trace:    []TraceEvent{{Op: OpAnalyze, Word: "cats", Status: "matched"}},
	}

	want := "Assertion failed: status_count\n" +
		"  Expected: 2 analyses with status matched\n" +
		"  Actual: 1 analyses\n" +
		"\nFull trace:\n" +
		"  [1] analyze cats matched\n"
	assert.Equal(t, want, err.Error())
}

func TestStateValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected interface{}
		actual   interface{}
		want     bool
	}{
		{"nil both", nil, nil, true},
		{"nil one", "x", nil, false},
		{"string", "a", "a", true},
		{"string bytes", "a", []byte("a"), true},
		{"string mismatch", "a", "b", false},
		{"int vs int64", 3, int64(3), true},
		{"int64", int64(3), int64(4), false},
		{"bool vs int64", true, int64(1), true},
		{"bool false", false, int64(0), true},
		{"string vs int", "3", int64(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateValuesEqual(tt.expected, tt.actual))
		})
	}
}

func TestBuildWhereClause(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]interface{}{"word": "cats", "seq": 2})
	require.NoError(t, err)
	assert.Equal(t, "seq = ? AND word = ?", sql)
	assert.Equal(t, []interface{}{2, "cats"}, args)

	sql, args, err = buildWhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Nil(t, args)
}


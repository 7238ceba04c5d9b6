package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/lexicon"
	"github.com/roach88/morph/internal/testutil"
)

// validScenario returns scenario YAML whose paths resolve against
// testutil.EnglishDir().
const validScenario = `
name: minimal
description: "One analysis"
tables: tables.cue
lexicon: lexicon.yaml
flow:
  - analyze: cats
    expect:
      status: matched
assertions:
  - type: status_count
    status: matched
    count: 1
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario), testutil.EnglishDir())
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, testutil.EnglishTablesPath(), s.Tables)
	assert.Equal(t, testutil.EnglishLexiconPath(), s.Lexicon)
	require.Len(t, s.Flow, 1)
	op, word := s.Flow[0].Op()
	assert.Equal(t, OpAnalyze, op)
	assert.Equal(t, "cats", word)
	assert.Equal(t, "matched", s.Flow[0].Expect.Status)
}

func TestLoadScenario_ResolvesRelativeToFile(t *testing.T) {
	s, err := LoadScenario(filepath.Join("..", "..", "testdata", "scenarios", "learning.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "learn", s.IDPrefix)
	assert.True(t, s.Options.MarkGuessed)
	require.Len(t, s.Setup, 2)
	assert.Equal(t, "lamp", s.Setup[0].Word)
	assert.Equal(t, []string{"count-noun"}, s.Setup[0].Categories[lexicon.Likely])
	assert.FileExists(t, s.Tables)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	src := validScenario + "assertion: []\n"
	_, err := ParseScenario([]byte(src), testutil.EnglishDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	head := "name: n\ndescription: d\ntables: tables.cue\nlexicon: lexicon.yaml\n"

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing name", "description: d\ntables: tables.cue\nlexicon: lexicon.yaml\nflow: [{analyze: a}]\n", "name is required"},
		{"missing description", "name: n\ntables: tables.cue\nlexicon: lexicon.yaml\nflow: [{analyze: a}]\n", "description is required"},
		{"missing tables", "name: n\ndescription: d\nlexicon: lexicon.yaml\nflow: [{analyze: a}]\n", "tables is required"},
		{"missing lexicon", "name: n\ndescription: d\ntables: tables.cue\nflow: [{analyze: a}]\n", "lexicon is required"},
		{"empty flow", head + "flow: []\n", "flow list is required"},
		{"tables not found", "name: n\ndescription: d\ntables: gone.cue\nlexicon: lexicon.yaml\nflow: [{analyze: a}]\n", "file not found"},
		{"no operation", head + "flow: [{expect: {status: matched}}]\n", "flow[0]: exactly one of"},
		{"two operations", head + "flow: [{analyze: a, decompose: a}]\n", "flow[0]: exactly one of"},
		{"generate without rule set", head + "flow: [{generate: a}]\n", "rule_set is required for generate"},
		{"rule set without generate", head + "flow: [{analyze: a, rule_set: past}]\n", "rule_set is only valid with generate"},
		{"forms without generate", head + "flow: [{analyze: a, expect: {forms: [x]}}]\n", "forms is only valid with generate"},
		{"setup without word", head + "setup: [{roots: [x]}]\nflow: [{analyze: a}]\n", "setup[0]: word is required"},
		{"assertion without type", head + "flow: [{analyze: a}]\nassertions: [{word: a}]\n", "type is required"},
		{"unknown assertion", head + "flow: [{analyze: a}]\nassertions: [{type: magic}]\n", `unknown assertion type "magic"`},
		{"category without word", head + "flow: [{analyze: a}]\nassertions: [{type: category, category: noun}]\n", "word and category are required"},
		{"category bad level", head + "flow: [{analyze: a}]\nassertions: [{type: category, word: a, category: noun, level: 7}]\n", "level 7 out of range"},
		{"compound_of one part", head + "flow: [{analyze: a}]\nassertions: [{type: compound_of, word: a, parts: [x]}]\n", "parts must name two words"},
		{"status_count negative", head + "flow: [{analyze: a}]\nassertions: [{type: status_count, status: matched, count: -1}]\n", "count must be non-negative"},
		{"final_state without expect", head + "flow: [{analyze: a}]\nassertions: [{type: final_state, table: words}]\n", "expect is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src), testutil.EnglishDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFlowStep_Op(t *testing.T) {
	tests := []struct {
		step FlowStep
		op   string
		word string
	}{
		{FlowStep{Analyze: "cats"}, OpAnalyze, "cats"},
		{FlowStep{Generate: "wander", RuleSet: "conjugate"}, OpGenerate, "wander"},
		{FlowStep{Decompose: "horseshoe"}, OpDecompose, "horseshoe"},
		{FlowStep{}, "", ""},
	}
	for _, tt := range tests {
		op, word := tt.step.Op()
		assert.Equal(t, tt.op, op)
		assert.Equal(t, tt.word, word)
	}
}

func TestResolveScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yaml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	single := filepath.Join(dir, "notes.txt")

	paths, err := ResolveScenarios([]string{dir, single})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yaml"),
		single,
	}, paths)
}

func TestResolveScenarios_NotFound(t *testing.T) {
	_, err := ResolveScenarios([]string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)

	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Error(), "does not exist")
}

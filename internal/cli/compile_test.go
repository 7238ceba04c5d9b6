package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEnglishTables(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, englishTables)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 10 rule set(s), 22 rule(s), 1 named rule(s), 4 compound rule(s)")
	assert.Contains(t, out, "plural: s, 3 rule(s) → plural")
	assert.Contains(t, out, "prefixes: (default), 1 rule(s) → adj")
	assert.Contains(t, out, "conjugate: (by name), 2 rule(s)")
	assert.NotContains(t, out, "Warnings")
}

func TestCompileEnglishTablesJSON(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	out, _, err := execute(t, cmd, englishTables)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.RuleSets, 10)
	assert.Equal(t, []string{"name name -> name:2", "noun noun -> noun", "adj noun -> noun:1", "verb noun -> $2:1"},
		resp.Data.CompoundRules)
	require.Len(t, resp.Data.NamedRules, 1)
	assert.Equal(t, "iy", resp.Data.NamedRules[0].Name)
	assert.Empty(t, resp.Data.Warnings)
}

func TestCompileOutputToFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "tables.json")

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, englishTables, "--output", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled tables to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.RuleSets, 10)

	var plural *CompiledRuleSet
	for i := range result.RuleSets {
		if result.RuleSets[i].Name == "plural" {
			plural = &result.RuleSets[i]
		}
	}
	require.NotNil(t, plural)
	assert.Equal(t, "plural", plural.CategoryName)
	assert.Equal(t, "noun", plural.RootName)
	assert.Len(t, plural.Rules, 3)
}

func TestCompileNonExistentTables(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, "/nonexistent/tables.cue")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
	assert.Contains(t, out, "tables not found")
}

func TestCompileUnknownCategory(t *testing.T) {
	path := writeFile(t, "tables.cue", `
categories: {
	word: {root: true, subs: ["noun"]}
}
ruleset: {
	plural: {
		suffix:   "s"
		category: "plural"
		rules: ["+ s ->"]
	}
}
`)

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, _, err := execute(t, cmd, path)
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "E101")
	assert.Contains(t, out, `unknown category "plural"`)
	assert.Contains(t, out, "tables.cue:", "position is reported")
}

func TestCompileSyntaxErrorJSON(t *testing.T) {
	path := writeFile(t, "broken.cue", "ruleset: {")

	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	out, _, err := execute(t, cmd, path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeLoadFailed, resp.Error.Code)
}

func TestCompileWarningsReported(t *testing.T) {
	path := writeFile(t, "tables.cue", minimalTables+`
rule: {
	odd: "+ s -> @nope, x"
}
`)

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, stderr, err := execute(t, cmd, path)
	require.NoError(t, err)

	assert.Contains(t, out, "Warnings (1):")
	assert.Contains(t, out, "[W306]")
	assert.Contains(t, stderr, "rule compiled with fallback", "warnings are logged")
}

func TestCompileVerboseOutput(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text", Verbose: true})
	_, stderr, err := execute(t, cmd, englishTables)
	require.NoError(t, err)

	assert.Contains(t, stderr, "Compiled rule set: plural (3 rules)")
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"cue", ErrCodeLoadFailed},
		{"default", ErrCodeDefaultSet},
		{"ruleset.plural.penalty", ErrCodePenalty},
		{"ruleset.plural.category", ErrCodeUnknownCategory},
		{"ruleset.plural.root", ErrCodeUnknownCategory},
		{"inflections", ErrCodeCategoryList},
		{"names", ErrCodeCategoryList},
		{"compound.rules", ErrCodeCompound},
		{"something", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field))
		})
	}
}

func TestCalculateStats(t *testing.T) {
	tables, _, err := LoadTables(englishTables, nil)
	require.NoError(t, err)

	stats := calculateStats(buildCompilationResult(tables, nil))
	assert.Equal(t, CompilationStats{
		RuleSetCount:  10,
		RuleCount:     22,
		NamedRules:    1,
		CompoundRules: 4,
	}, stats)
}

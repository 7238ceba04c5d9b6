package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/testutil"
)

var (
	englishTables  = testutil.EnglishTablesPath()
	englishLexicon = testutil.EnglishLexiconPath()
	scenariosDir   = filepath.Join("..", "..", "testdata", "scenarios")
)

// minimalTables compiles cleanly and validates without errors.
const minimalTables = `
categories: {
	word: {root: true, subs: ["noun", "verb"]}
	noun: {subs: ["plural"]}
}
ruleset: {
	plural: {
		suffix:   "s"
		category: "plural"
		root:     "noun"
		rules: ["+ s ->"]
	}
}
`

// execute runs cmd with args and returns what it wrote to stdout and
// stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeFile writes content to name in a fresh temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

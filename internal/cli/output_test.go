package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"matched": 2}))

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data["matched"])
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := map[string]string{"file": "tables.cue", "line": "12"}
	require.NoError(t, formatter.Error(ErrCodeUnknownCategory, `unknown category "plural"`, details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E101", resp.Error.Code)
	assert.Equal(t, `unknown category "plural"`, resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E005", "tables not found: x.cue", map[string]string{"path": "x.cue"}))
			assert.Contains(t, buf.String(), "Error [E005]: tables not found: x.cue")
			assert.Equal(t, tt.wantDetails, bytes.Contains(buf.Bytes(), []byte("Details:")))
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Compiled rule set: %s", "plural")

			assert.Empty(t, out.String(), "verbose logs never touch stdout")
			if tt.wantLog {
				assert.Equal(t, "Compiled rule set: plural\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_DiagnosticsFallsBack(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	assert.Same(t, buf, formatter.Diagnostics())
}

func TestOutputFormatter_WriteIndented(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.writeIndented(CLIResponse{Status: "ok", Data: []string{"a"}}))
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"data\": [\n    \"a\"\n  ]\n}\n", buf.String())
}

func TestOutputFormatter_FailReportsPosition(t *testing.T) {
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
	_, _, loadErr := LoadTables(path, nil)
	require.Error(t, loadErr)

	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}
	err := formatter.Fail(loadErr)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeUnknownCategory)

	var resp struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeUnknownCategory, resp.Error.Code)
	assert.Contains(t, resp.Error.Details["file"], "tables.cue")
	assert.NotZero(t, resp.Error.Details["line"])
}

func TestOutputFormatter_FailWithoutPosition(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(&LoadError{Code: ErrCodeNotFound, Message: "lexicon not found: x.yaml"})
	assert.Equal(t, "E005: lexicon not found: x.yaml", err.Error())
	assert.Equal(t, "Error [E005]: lexicon not found: x.yaml\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"exit error", NewExitError(ExitCommandError, "bad path"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "failed")), ExitFailure},
		{"plain error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestWrapExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to write analysis", cause)

	assert.Equal(t, "failed to write analysis: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad path", NewExitError(ExitCommandError, "bad path").Error())
}

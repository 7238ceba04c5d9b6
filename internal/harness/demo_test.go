package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenariosDir is the shared scenario directory at the project root.
var scenariosDir = filepath.Join("..", "..", "testdata", "scenarios")

func scenarioPath(name string) string {
	return filepath.Join(scenariosDir, name+".yaml")
}

// TestScenarios runs the shared scenarios that the CLI test command also
// runs. They double as worked examples of the scenario format.
func TestScenarios(t *testing.T) {
	for _, name := range []string{"english_inflections", "english_compounds", "learning"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(scenarioPath(name))
			require.NoError(t, err, "failed to load scenario %s", name)

			assert.Equal(t, name, s.Name, "scenario name mismatch")
			assert.NotEmpty(t, s.Description, "scenario should have description")

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed: %v", result.Errors)
			assert.Len(t, result.Trace, len(s.Flow))
		})
	}
}

func TestRunSuite(t *testing.T) {
	paths, err := ResolveScenarios([]string{scenariosDir})
	require.NoError(t, err)
	require.Len(t, paths, 3)

	result, err := RunSuite(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalScenarios)
	assert.Equal(t, 3, result.Passed, "failures: %v", result.Failures)
	assert.Zero(t, result.Failed)
}

func TestRunSuite_CountsFailures(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	result, err := RunSuite(context.Background(), []string{scenarioPath("learning"), bad})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalScenarios)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad, result.Failures[0].ScenarioPath)
	assert.Contains(t, result.Failures[0].Error, "failed to load scenario")
}

func TestRunSuite_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := RunSuite(ctx, []string{scenarioPath("learning")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.TotalScenarios)
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/lexicon"
)

func TestMarshalSnapshot(t *testing.T) {
	data, err := MarshalSnapshot(TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{{
			Seq:        1,
			Op:         OpAnalyze,
			Word:       "cats",
			Status:     "matched",
			Roots:      []string{"cat"},
			Categories: map[lexicon.Level][]string{lexicon.Likely: {"plural"}},
		}},
	})
	require.NoError(t, err)

	want := `{
  "scenario_name": "tiny",
  "trace": [
    {
      "seq": 1,
      "op": "analyze",
      "word": "cats",
      "status": "matched",
      "roots": [
        "cat"
      ],
      "categories": {
        "0": [
          "plural"
        ]
      }
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "levels",
		Trace: []TraceEvent{{
			Categories: map[lexicon.Level][]string{
				lexicon.Unlikely: {"adj"},
				lexicon.Likely:   {"noun"},
				lexicon.Possible: {"verb"},
			},
		}},
	}

	first, err := MarshalSnapshot(snap)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalSnapshot(snap)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestRunWithGolden_Learning(t *testing.T) {
	s, err := LoadScenario(scenarioPath("learning"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

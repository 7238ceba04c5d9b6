package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/morph/internal/lexicon"
)

// Scenario defines a conformance test scenario.
// Scenarios run a flow of analyses against one set of tables and assert on
// the resulting trace, words and analysis log.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tables is the CUE table file to compile.
	Tables string `yaml:"tables"`

	// Lexicon is the YAML seed lexicon.
	Lexicon string `yaml:"lexicon"`

	// Options tune the engine for this scenario.
	Options RunOptions `yaml:"options,omitempty"`

	// Setup contains extra words stored before the flow, on top of the
	// seed lexicon.
	Setup []lexicon.Entry `yaml:"setup,omitempty"`

	// Flow contains the main test flow, one operation per step.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final words and store state.
	Assertions []Assertion `yaml:"assertions"`

	// IDPrefix prefixes the sequential analysis IDs.
	// If empty, IDs are "analysis-1", "analysis-2", ...
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// RunOptions configures the engine a scenario runs on.
type RunOptions struct {
	// MaxDepth limits nested dispatch. Zero keeps the engine default.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// MaxSteps limits one match attempt. Zero keeps the engine default.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// MarkGuessed marks unresolved guessable words as guessed.
	MarkGuessed bool `yaml:"mark_guessed,omitempty"`
}

// FlowStep is a single engine operation. Exactly one of Analyze, Generate
// and Decompose is set.
type FlowStep struct {
	// Analyze names a word to analyze.
	Analyze string `yaml:"analyze,omitempty"`

	// Generate names a word to inflect with RuleSet.
	Generate string `yaml:"generate,omitempty"`

	// RuleSet is the rule set Generate runs.
	RuleSet string `yaml:"rule_set,omitempty"`

	// Decompose names a word to split without recording.
	Decompose string `yaml:"decompose,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Op returns the step's operation name and word.
func (s FlowStep) Op() (op, word string) {
	switch {
	case s.Analyze != "":
		return OpAnalyze, s.Analyze
	case s.Generate != "":
		return OpGenerate, s.Generate
	case s.Decompose != "":
		return OpDecompose, s.Decompose
	}
	return "", ""
}

// ExpectClause specifies an expected step outcome.
// This is a subset match - only specified fields are validated.
type ExpectClause struct {
	// Status is the analysis status (matched, compound, unresolved).
	Status string `yaml:"status,omitempty"`

	// RuleSet and Rule identify the rule that recorded the category.
	RuleSet string `yaml:"rule_set,omitempty"`
	Rule    string `yaml:"rule,omitempty"`

	// Roots are the accepted hypothesis forms, in order.
	Roots []string `yaml:"roots,omitempty"`

	// Forms are the generated forms, in order. An explicit empty list
	// expects no forms.
	Forms *[]string `yaml:"forms,omitempty"`

	// Split is "left+right" for a compound outcome. "none" expects no
	// split.
	Split string `yaml:"split,omitempty"`

	// Pass is the decomposition pass that accepted the split.
	Pass int `yaml:"pass,omitempty"`
}

// Assertion validates final words or store state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "category": Check the word holds a category
	// - "not_category": Check the word lacks a category
	// - "roots": Check the word's roots
	// - "compound_of": Check the word's compound parts
	// - "status_count": Check how many analyses ended with a status
	// - "final_state": Query table and verify expected values
	Type string `yaml:"type"`

	// Word is the word checked (used by category, not_category, roots,
	// compound_of).
	Word string `yaml:"word,omitempty"`

	// Category names the expected category (used by category and
	// not_category).
	Category string `yaml:"category,omitempty"`

	// Level is the least likely acceptable level (used by category).
	// Defaults to 3, any level.
	Level *lexicon.Level `yaml:"level,omitempty"`

	// Roots are the expected roots (used by roots).
	Roots []string `yaml:"roots,omitempty"`

	// Parts are the expected compound halves (used by compound_of).
	Parts []string `yaml:"parts,omitempty"`

	// Status and Count are used by status_count.
	Status string `yaml:"status,omitempty"`
	Count  int    `yaml:"count,omitempty"`

	// Table is the store table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Flow operation names.
const (
	OpAnalyze   = "analyze"
	OpGenerate  = "generate"
	OpDecompose = "decompose"
)

// Assertion type constants.
const (
	AssertCategory    = "category"
	AssertNotCategory = "not_category"
	AssertRoots       = "roots"
	AssertCompoundOf  = "compound_of"
	AssertStatusCount = "status_count"
	AssertFinalState  = "final_state"
)

// LoadScenario reads and parses a scenario YAML file, resolving table and
// lexicon paths relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving table and lexicon paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario parses scenario YAML, resolving relative paths against
// basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths relative to base path BEFORE validation
	scenario.Tables = resolvePath(basePath, scenario.Tables)
	scenario.Lexicon = resolvePath(basePath, scenario.Lexicon)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Tables == "" {
		return fmt.Errorf("tables is required")
	}

	if s.Lexicon == "" {
		return fmt.Errorf("lexicon is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for _, p := range []string{s.Tables, s.Lexicon} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	for i, e := range s.Setup {
		if e.Word == "" {
			return fmt.Errorf("setup[%d]: word is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateFlowStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateFlowStep(index int, step FlowStep) error {
	n := 0
	for _, w := range []string{step.Analyze, step.Generate, step.Decompose} {
		if w != "" {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("flow[%d]: exactly one of analyze, generate, decompose is required", index)
	}
	if step.Generate != "" && step.RuleSet == "" {
		return fmt.Errorf("flow[%d]: rule_set is required for generate", index)
	}
	if step.Generate == "" && step.RuleSet != "" {
		return fmt.Errorf("flow[%d]: rule_set is only valid with generate", index)
	}
	if step.Expect != nil && step.Expect.Forms != nil && step.Generate == "" {
		return fmt.Errorf("flow[%d].expect: forms is only valid with generate", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCategory, AssertNotCategory:
		if a.Word == "" || a.Category == "" {
			return fmt.Errorf("assertions[%d]: word and category are required for %s", index, a.Type)
		}
		if a.Level != nil && !a.Level.Valid() {
			return fmt.Errorf("assertions[%d]: level %d out of range", index, *a.Level)
		}
	case AssertRoots:
		if a.Word == "" {
			return fmt.Errorf("assertions[%d]: word is required for roots", index)
		}
	case AssertCompoundOf:
		if a.Word == "" {
			return fmt.Errorf("assertions[%d]: word is required for compound_of", index)
		}
		if len(a.Parts) != 2 {
			return fmt.Errorf("assertions[%d]: parts must name two words for compound_of", index)
		}
	case AssertStatusCount:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for status_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for status_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

package harness

import "github.com/roach88/morph/internal/lexicon"

// TraceEvent records one flow step's outcome.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Op   string `json:"op"` // "analyze", "generate" or "decompose"
	Word string `json:"word"`
	ID   string `json:"id,omitempty"`

	Status  string   `json:"status,omitempty"`
	RuleSet string   `json:"rule_set,omitempty"`
	Rule    string   `json:"rule,omitempty"`
	Roots   []string `json:"roots,omitempty"`
	Forms   []string `json:"forms,omitempty"`
	Split   string   `json:"split,omitempty"`
	Pass    int      `json:"pass,omitempty"`

	// Categories is the word's category set after an analysis.
	Categories map[lexicon.Level][]string `json:"categories,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Warnings are the table compile warnings.
	Warnings []string `json:"warnings,omitempty"`

	// Words holds the analyzed words by name, for word assertions.
	Words map[string]*lexicon.Word `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Words:  make(map[string]*lexicon.Word),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

package engine

import (
	"github.com/roach88/morph/internal/lexicon"
)

// Hypothesis is one candidate form proposed by a fired rule.
type Hypothesis struct {
	// Form is the proposed root or generated form.
	Form string `json:"form"`
	// Rule is the ID of the rule that proposed it.
	Rule string `json:"rule"`
	// Via names the rule set of the nested dispatch that produced the form,
	// empty when the form came from the rule directly.
	Via string `json:"via,omitempty"`
}

// session is shared by every state of one top-level analysis.
type session struct {
	// cache holds halves analyzed during compound decomposition.
	cache  map[string]*lexicon.Word
	cycles *CycleDetector
	// compoundLimit bounds compound recursion: half the analyzed word's length.
	compoundLimit int
}

func newSession(word string) *session {
	return &session{
		cache:         make(map[string]*lexicon.Word),
		cycles:        NewCycleDetector(),
		compoundLimit: len([]rune(word)) / 2,
	}
}

// State is the working state of one rule firing: the hypothesis set its
// actions build and the nesting depth it runs at. Nested dispatches run in
// child states that share the session.
type State struct {
	sess    *session
	depth   int
	results []Hypothesis
	seen    map[Hypothesis]struct{}
}

func newState(sess *session, depth int) *State {
	return &State{sess: sess, depth: depth, seen: make(map[Hypothesis]struct{})}
}

func (s *State) child() *State {
	return newState(s.sess, s.depth+1)
}

// Depth returns the nesting depth, 0 for a top-level firing.
func (s *State) Depth() int {
	return s.depth
}

// Results returns the hypotheses in discovery order.
func (s *State) Results() []Hypothesis {
	return append([]Hypothesis(nil), s.results...)
}

// Forms returns the distinct hypothesis forms in discovery order.
func (s *State) Forms() []string {
	seen := make(map[string]struct{}, len(s.results))
	var forms []string
	for _, h := range s.results {
		if _, dup := seen[h.Form]; dup {
			continue
		}
		seen[h.Form] = struct{}{}
		forms = append(forms, h.Form)
	}
	return forms
}

// Len returns the number of hypotheses.
func (s *State) Len() int {
	return len(s.results)
}

func (s *State) add(h Hypothesis) {
	if _, dup := s.seen[h]; dup {
		return
	}
	s.seen[h] = struct{}{}
	s.results = append(s.results, h)
}

package ir

import (
	"fmt"
	"strconv"
)

// ActionKind is the closed set of things a rule can do when it fires.
type ActionKind int

const (
	// SuffixAction proposes stem+Suffix as a hypothesis.
	SuffixAction ActionKind = iota
	// RuleSetAction analyzes stem+Suffix with the rule set named Target.
	RuleSetAction
	// TryAction matches stem+Suffix against the single rule named Target.
	TryAction
	// OpAction calls the catalogue operation named Target with Arg.
	OpAction
)

func (k ActionKind) String() string {
	switch k {
	case SuffixAction:
		return "suffix"
	case RuleSetAction:
		return "ruleset"
	case TryAction:
		return "try"
	case OpAction:
		return "op"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON dumps.
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText reads a kind written by MarshalText.
func (k *ActionKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "suffix":
		*k = SuffixAction
	case "ruleset":
		*k = RuleSetAction
	case "try":
		*k = TryAction
	case "op":
		*k = OpAction
	default:
		return fmt.Errorf("unknown action kind %q", b)
	}
	return nil
}

// OpContext is the view of a successful match that catalogue operations get.
type OpContext interface {
	// Word is the string the rule matched.
	Word() string
	// Stem is Word with the killed prefix and suffix removed.
	Stem() string
	// Prefix is the killed prefix string.
	Prefix() string
	// Suffix is the killed suffix string.
	Suffix() string
	// Propose adds a hypothesis form to the result set.
	Propose(form string)
}

// Operation is one entry of the action catalogue.
type Operation func(ctx OpContext, arg string) error

// Catalogue is the closed set of named operations rules may reference with
// "@name". Names are resolved when a rule is compiled.
type Catalogue map[string]Operation

// Action is one compiled action item.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Suffix string     `json:"suffix,omitempty"`
	Target string     `json:"target,omitempty"`
	Arg    string     `json:"arg,omitempty"`
	Op     Operation  `json:"-"`
}

func (a Action) String() string {
	switch a.Kind {
	case RuleSetAction:
		return "(:" + a.Target + ")" + strconv.Quote(a.Suffix)
	case TryAction:
		return "TRY(!" + a.Target + ")" + strconv.Quote(a.Suffix)
	case OpAction:
		if a.Arg != "" {
			return "@" + a.Target + "(" + a.Arg + ")"
		}
		return "@" + a.Target
	default:
		return strconv.Quote(a.Suffix)
	}
}

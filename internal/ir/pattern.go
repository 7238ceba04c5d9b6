package ir

import (
	"fmt"
	"strings"
)

// ElementKind distinguishes the three kinds of pattern element.
type ElementKind int

const (
	// Literal matches one character from Set at the current position.
	Literal ElementKind = iota
	// Wildcard matches a character from Set at the current position or
	// anywhere further left, skipping the characters in between.
	Wildcard
	// Double matches a character equal to its left neighbour.
	Double
)

// Repeat is the repetition prefix of an element.
type Repeat int

const (
	Once     Repeat = iota
	Optional        // ?x  zero or one
	Star            // *x  zero or more
	Plus            // +x  one or more
)

// Element is one compiled pattern position.
type Element struct {
	Kind   ElementKind `json:"kind"`
	Set    string      `json:"set,omitempty"`
	Any    bool        `json:"any,omitempty"`
	Repeat Repeat      `json:"repeat,omitempty"`
	Class  string      `json:"class,omitempty"`
	Token  string      `json:"token"`
}

// Matches reports whether r belongs to the element's character set.
func (e Element) Matches(r rune) bool {
	if e.Any {
		return true
	}
	return strings.ContainsRune(e.Set, r)
}

// Min is the fewest characters the element may consume.
func (e Element) Min() int {
	switch e.Repeat {
	case Optional, Star:
		return 0
	default:
		return 1
	}
}

// Repeatable reports whether the element may consume more than one character.
func (e Element) Repeatable() bool {
	return e.Repeat == Star || e.Repeat == Plus
}

func (e Element) String() string {
	var b strings.Builder
	switch e.Repeat {
	case Optional:
		b.WriteByte('?')
	case Star:
		b.WriteByte('*')
	case Plus:
		b.WriteByte('+')
	}
	switch e.Kind {
	case Double:
		b.WriteByte('&')
		return b.String()
	case Wildcard:
		b.WriteByte('.')
	}
	if e.Any {
		b.WriteString("{*}")
	} else {
		b.WriteString("{" + e.Set + "}")
	}
	return b.String()
}

// Rule is a compiled pattern plus its actions.
//
// KillNum counts the pattern elements to the right of the "+" marker and
// LeftKillNum those to the left of the "-" marker. The matcher adjusts both
// by the number of extra characters repeatable and wildcard elements in those
// regions actually consumed.
type Rule struct {
	Name        string    `json:"name,omitempty"`
	RuleSet     string    `json:"rule_set"`
	Index       int       `json:"index"`
	Source      string    `json:"source"`
	Pattern     []Element `json:"pattern"`
	LeftAnchor  bool      `json:"left_anchor,omitempty"`
	RightAnchor bool      `json:"right_anchor,omitempty"`
	KillNum     int       `json:"kill_num,omitempty"`
	LeftKillNum int       `json:"left_kill_num,omitempty"`
	Actions     []Action  `json:"actions"`
}

// InRightKill reports whether pattern element i lies right of the "+" marker.
func (r *Rule) InRightKill(i int) bool {
	return r.KillNum > 0 && i >= len(r.Pattern)-r.KillNum
}

// InLeftKill reports whether pattern element i lies left of the "-" marker.
func (r *Rule) InLeftKill(i int) bool {
	return i < r.LeftKillNum
}

// ID names the rule for diagnostics: "ruleset#index" or its own name.
func (r *Rule) ID() string {
	if r.Name != "" {
		return "!" + r.Name
	}
	return fmt.Sprintf("%s#%d", r.RuleSet, r.Index)
}

func (r *Rule) String() string {
	var b strings.Builder
	if r.LeftAnchor {
		b.WriteString("# ")
	}
	for i, e := range r.Pattern {
		if i == r.LeftKillNum && r.LeftKillNum > 0 {
			b.WriteString("- ")
		}
		if r.KillNum > 0 && i == len(r.Pattern)-r.KillNum {
			b.WriteString("+ ")
		}
		b.WriteString(e.String())
		b.WriteByte(' ')
	}
	if r.RightAnchor && r.KillNum == 0 {
		b.WriteString("# ")
	}
	b.WriteString("->")
	for i, a := range r.Actions {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(' ')
		b.WriteString(a.String())
	}
	return b.String()
}

package engine

import (
	"github.com/roach88/morph/internal/ir"
)

// Match describes a successful pattern match: the matched word split into
// the killed prefix, the stem and the killed suffix.
type Match struct {
	Rule   *ir.Rule
	Word   string
	Prefix string
	Stem   string
	Suffix string
}

// stepResult is the tagged outcome of one matcher step.
type stepResult int

const (
	stepContinue stepResult = iota
	stepMatched
	stepFailed
	stepNeedsBacktrack
)

// savePoint is one resumable matcher position. count is the number of
// characters the current element has consumed so far; for a wildcard it
// includes the characters skipped to reach its match. leftKillAdj and
// rightKillAdj accumulate how many more (or fewer) characters the elements
// of each kill region consumed than their element count.
type savePoint struct {
	pos           int
	pi            int
	count         int
	leftKillAdj   int
	rightKillAdj  int
	anchorStarted bool
}

// matcher runs one rule against one word, right to left, with an explicit
// alternatives stack instead of recursion.
type matcher struct {
	rule  *ir.Rule
	word  []rune
	cur   savePoint
	alts  []savePoint
	quota *QuotaEnforcer
}

// MatchRule matches rule against word. It reports false when the pattern
// does not match; the error is non-nil only when the step quota ran out.
func MatchRule(word string, rule *ir.Rule, maxSteps int) (Match, bool, error) {
	m := &matcher{
		rule:  rule,
		word:  []rune(word),
		quota: NewQuotaEnforcer(maxSteps),
	}
	m.cur = savePoint{pos: len(m.word) - 1, pi: len(rule.Pattern) - 1}

	for {
		if err := m.quota.Check(word, rule.ID()); err != nil {
			return Match{}, false, err
		}
		res := m.step()
		if res == stepNeedsBacktrack {
			res = m.backtrack()
		}
		switch res {
		case stepMatched:
			return m.result(), true, nil
		case stepFailed:
			return Match{}, false, nil
		}
	}
}

func (m *matcher) push(sp savePoint) {
	m.alts = append(m.alts, sp)
}

func (m *matcher) backtrack() stepResult {
	if len(m.alts) == 0 {
		return stepFailed
	}
	m.cur = m.alts[len(m.alts)-1]
	m.alts = m.alts[:len(m.alts)-1]
	return stepContinue
}

// finished returns the current save-point with its element completed after
// consuming n characters, leaving the next element to start at pos.
func (m *matcher) finished(pos, n int) savePoint {
	sp := m.cur
	if m.rule.InRightKill(sp.pi) {
		sp.rightKillAdj += n - 1
	}
	if m.rule.InLeftKill(sp.pi) {
		sp.leftKillAdj += n - 1
	}
	sp.pos = pos
	sp.pi--
	sp.count = 0
	sp.anchorStarted = true
	return sp
}

// canSlide reports whether the current element may move left past a
// mismatch: only the rightmost element of a pattern with no right anchor,
// before anything has matched.
func (m *matcher) canSlide() bool {
	return !m.cur.anchorStarted && !m.rule.RightAnchor
}

func (m *matcher) step() stepResult {
	c := &m.cur
	if c.pi < 0 {
		if m.rule.LeftAnchor && c.pos >= 0 {
			return stepNeedsBacktrack
		}
		return stepMatched
	}

	el := m.rule.Pattern[c.pi]
	if el.Kind == ir.Wildcard {
		return m.stepWildcard(el)
	}

	if c.pos >= 0 && m.matches(el, c.pos) {
		if m.canSlide() {
			slide := *c
			slide.pos--
			m.push(slide)
		}
		switch el.Repeat {
		case ir.Once:
			*c = m.finished(c.pos-1, 1)
		case ir.Optional:
			m.push(m.finished(c.pos, 0))
			*c = m.finished(c.pos-1, 1)
		default:
			if c.count >= el.Min() {
				m.push(m.finished(c.pos, c.count))
			}
			c.pos--
			c.count++
			c.anchorStarted = true
		}
		return stepContinue
	}

	// Mismatch or out of string.
	if c.count >= el.Min() {
		*c = m.finished(c.pos, c.count)
		return stepContinue
	}
	if c.pos >= 0 && m.canSlide() {
		c.pos--
		return stepContinue
	}
	return stepNeedsBacktrack
}

// stepWildcard matches a character of the element's set at the current
// position or anywhere further left. Each character skipped on the way is
// counted as consumed by the wildcard.
func (m *matcher) stepWildcard(el ir.Element) stepResult {
	c := &m.cur
	if c.count == 0 && el.Repeat == ir.Optional {
		m.push(m.finished(c.pos, 0))
	}
	if c.pos < 0 {
		return stepNeedsBacktrack
	}
	if el.Matches(m.word[c.pos]) {
		skip := *c
		skip.pos--
		skip.count++
		m.push(skip)
		*c = m.finished(c.pos-1, c.count+1)
		return stepContinue
	}
	c.pos--
	c.count++
	return stepContinue
}

func (m *matcher) matches(el ir.Element, pos int) bool {
	if el.Kind == ir.Double {
		return pos > 0 && m.word[pos] == m.word[pos-1]
	}
	return el.Matches(m.word[pos])
}

func (m *matcher) result() Match {
	n := len(m.word)
	left := max(m.rule.LeftKillNum+m.cur.leftKillAdj, 0)
	right := max(m.rule.KillNum+m.cur.rightKillAdj, 0)
	left = min(left, n)
	right = min(right, n-left)
	return Match{
		Rule:   m.rule,
		Word:   string(m.word),
		Prefix: string(m.word[:left]),
		Stem:   string(m.word[left : n-right]),
		Suffix: string(m.word[n-right:]),
	}
}

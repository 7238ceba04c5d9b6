package engine

import (
	"go.uber.org/zap"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
)

// Split is a successful compound decomposition.
type Split struct {
	// Index is the rune offset of the split: Left is word[:Index].
	Index int    `json:"index"`
	Left  string `json:"left"`
	Right string `json:"right"`
	// Pass is the decomposition pass (1-3) that accepted the split.
	Pass int              `json:"pass"`
	Rule *ir.CompoundRule `json:"-"`
	// LeftCategory and RightCategory are the half categories the rule
	// matched; they bind "$1" and "$2".
	LeftCategory  *lexicon.Category `json:"-"`
	RightCategory *lexicon.Category `json:"-"`
}

// passOptions relax the half screens of later passes.
type passOptions struct {
	allowInflected bool
	allowNames     bool
}

// passFlags records why an earlier pass skipped a split.
type passFlags struct {
	wantInflected bool
	wantNames     bool
}

// Decompose tries to explain word as two known words. It only splits; it
// records nothing on any word.
func (e *Engine) Decompose(word string) (Split, bool) {
	word = lexicon.Normalize(word)
	return e.decompose(newSession(word), word, 0)
}

// decompose runs the compound passes. Pass 2 runs only if pass 1 skipped a
// split for an inflected half; pass 3 only if an earlier pass skipped a
// split whose halves were both names. The first accepted split wins.
func (e *Engine) decompose(sess *session, word string, depth int) (Split, bool) {
	cfg := e.tables.Compound()
	runes := []rune(word)
	if len(runes) < cfg.MinLen() || len(cfg.Rules) == 0 {
		return Split{}, false
	}

	var flags passFlags
	if s, ok := e.compoundPass(sess, runes, depth, passOptions{}, &flags); ok {
		s.Pass = 1
		return s, true
	}
	if flags.wantInflected {
		if s, ok := e.compoundPass(sess, runes, depth, passOptions{allowInflected: true}, &flags); ok {
			s.Pass = 2
			return s, true
		}
	}
	if flags.wantNames {
		if s, ok := e.compoundPass(sess, runes, depth, passOptions{allowInflected: true, allowNames: true}, &flags); ok {
			s.Pass = 3
			return s, true
		}
	}
	return Split{}, false
}

// compoundPass scans split points from len-3 down to 2.
func (e *Engine) compoundPass(sess *session, runes []rune, depth int, opts passOptions, flags *passFlags) (Split, bool) {
	cfg := e.tables.Compound()
	for i := len(runes) - 3; i >= 2; i-- {
		left, right := string(runes[:i]), string(runes[i:])
		if cfg.LeftException(left) || cfg.RightException(right) {
			continue
		}
		if !cfg.Plausible(left) || !cfg.Plausible(right) {
			continue
		}

		lw := e.resolveHalf(sess, left, depth)
		if lw == nil {
			continue
		}
		rw := e.resolveHalf(sess, right, depth)
		if rw == nil {
			continue
		}

		if !opts.allowInflected && (e.inflected(lw) || e.inflected(rw)) {
			flags.wantInflected = true
			continue
		}
		if !opts.allowNames && e.isName(lw) && e.isName(rw) {
			flags.wantNames = true
			continue
		}

		rule, lc, rc := matchCompoundRule(cfg.Rules, lw, rw)
		if rule == nil {
			continue
		}
		e.logger.Debug("compound split",
			zap.String("left", left),
			zap.String("right", right),
			zap.String("rule", rule.Source))
		return Split{
			Index:         i,
			Left:          left,
			Right:         right,
			Rule:          rule,
			LeftCategory:  lc,
			RightCategory: rc,
		}, true
	}
	return Split{}, false
}

// resolveHalf returns a categorized word for s: the lexicon entry if it is
// known, otherwise the result of a full recursive analysis cached for the
// session. It returns nil when s stays uncategorized or the recursion bound
// is reached.
func (e *Engine) resolveHalf(sess *session, s string, depth int) *lexicon.Word {
	if w, ok := e.lexicon.GetWord(s); ok && w.Known() {
		return w
	}
	if w, ok := sess.cache[s]; ok {
		if w.Known() {
			return w
		}
		return nil
	}
	if depth+1 > sess.compoundLimit {
		return nil
	}

	w := lexicon.NewScratchWord(s)
	// Cached before analysis so a half that splits back into itself
	// resolves to the empty word.
	sess.cache[s] = w
	e.analyzeWord(sess, w, depth+1)
	if !w.Known() {
		return nil
	}
	return w
}

func (e *Engine) inflected(w *lexicon.Word) bool {
	for _, infl := range e.tables.Compound().Inflections {
		if w.IsA(infl, lexicon.Unlikely) {
			return true
		}
	}
	return false
}

func (e *Engine) isName(w *lexicon.Word) bool {
	names := e.tables.Compound().Names
	return names != nil && w.IsA(names, lexicon.Unlikely)
}

// matchCompoundRule returns the first rule whose half patterns subsume a
// category of each half, with the categories that matched. A nil half
// pattern accepts the half's most likely category.
func matchCompoundRule(rules []*ir.CompoundRule, lw, rw *lexicon.Word) (*ir.CompoundRule, *lexicon.Category, *lexicon.Category) {
	lcats, rcats := lw.AllCategories(), rw.AllCategories()
	for _, r := range rules {
		lc := firstSubsumed(r.Left, lcats)
		if lc == nil {
			continue
		}
		rc := firstSubsumed(r.Right, rcats)
		if rc == nil {
			continue
		}
		return r, lc, rc
	}
	return nil, nil, nil
}

func firstSubsumed(parent *lexicon.Category, cats []*lexicon.Category) *lexicon.Category {
	for _, c := range cats {
		if parent == nil || lexicon.Subsumes(parent, c) {
			return c
		}
	}
	return nil
}

// recordSplit applies the split's rule results to w.
func recordSplit(w *lexicon.Word, s Split) {
	for _, res := range s.Rule.Results {
		cat := res.Category
		switch res.Binding {
		case 1:
			cat = s.LeftCategory
		case 2:
			cat = s.RightCategory
		}
		w.Promote(cat, res.Penalty)
	}
	w.AddCompound(s.Left, s.Right)
}

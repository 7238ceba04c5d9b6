package engine

// CycleDetector tracks the nested dispatches in progress for one analysis.
//
// A cycle occurs when a "(:ruleset)" or "TRY(!rule)" action dispatches the
// same string to a target that is already working on it further up the
// dispatch path, for example two rule sets that strip and restore the same
// ending. The depth limit would stop such a loop eventually; the detector
// stops it at the first repetition.
//
// Example cycle:
//
//	(:a)"x" on "walkx" -> rule in a strips "x" and proposes (:b)"x"
//	-> rule in b proposes (:a)"x" on "walkx" again  <- CYCLE DETECTED
//
// A detector belongs to one analysis session and is not safe for concurrent
// use.
type CycleDetector struct {
	active map[string]int
}

// NewCycleDetector creates a new cycle detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{active: make(map[string]int)}
}

func cycleKey(target, form string) string {
	return target + "\x00" + form
}

// WouldCycle reports whether dispatching form to target would repeat a
// dispatch that is still in progress.
func (c *CycleDetector) WouldCycle(target, form string) bool {
	return c.active[cycleKey(target, form)] > 0
}

// Enter marks the dispatch of form to target as in progress.
func (c *CycleDetector) Enter(target, form string) {
	c.active[cycleKey(target, form)]++
}

// Leave ends a dispatch started with Enter.
func (c *CycleDetector) Leave(target, form string) {
	key := cycleKey(target, form)
	if c.active[key] <= 1 {
		delete(c.active, key)
		return
	}
	c.active[key]--
}

// Active returns the number of dispatches in progress.
func (c *CycleDetector) Active() int {
	return len(c.active)
}

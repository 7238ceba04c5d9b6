package testutil

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... without limit.
//
// Unlike engine.FixedGenerator, which panics once its list is used up,
// SequentialIDs suits batch tests whose analysis count varies.
//
// Thread-safety: SequentialIDs is safe for concurrent use.
type SequentialIDs struct {
	prefix string
	n      atomic.Int64
}

// NewSequentialIDs creates a generator. An empty prefix uses "analysis".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "analysis"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// Package engine implements the morphological analysis engine.
//
// The engine explains a word by rules and, failing that, as a compound of
// two known words. It records what it finds on the word: categories at a
// penalty level, roots, killed prefixes and suffixes, and compound parts.
//
// ARCHITECTURE:
//
// Rule loop:
// 1. The word is normalized and looked up (or given a scratch word)
// 2. Rule sets are selected by suffix key, longest first, then the default
// 3. Each rule is matched right to left by an explicit step function
// 4. A matched rule's actions build a hypothesis set; nested "(:set)" and
// "TRY(!rule)" actions run in child states up to a depth limit
// 5. Hypotheses naming a known word that satisfies the rule set's root
// category are accepted and recorded
//
// Compound decomposition:
// Split points are scanned right to left in up to three passes; later
// passes relax the inflection and proper-name screens only when an earlier
// pass asked for it. Unknown halves are analyzed recursively and cached for
// the session.
//
// Tables are immutable and shared. Each analysis owns its session (cache
// and cycle detector), so analyses run concurrently without locks; the only
// shared mutable data are lexicon words, whose updates are atomic.
package engine

// Package lexicon provides the word and category model shared by the rule
// compiler and the analysis engine.
//
// The package has three layers:
//
//   - Atoms: interned symbols with an optional numeric value and a property map.
//   - Categories: atoms arranged in a rooted hierarchy. Each category owns a
//     list of immediate sub-categories and, once the hierarchy is frozen with
//     Hierarchy.AssignBits, a pair of bit-vectors that make subsumption a
//     single AND.
//   - Words: penalty-leveled category sets plus derivational links. Updates
//     swap an immutable snapshot so multi-field changes are atomic.
//
// Nothing in this package keeps process-global state. Callers own their
// AtomTable, Hierarchy and Lexicon values and pass them by reference.
package lexicon

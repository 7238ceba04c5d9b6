// Package ir holds the compiled, immutable form of morphology tables.
//
// The compiler package produces these values; the engine package consumes
// them. Nothing here parses text or runs a match. Once a Tables value has
// been built it is never modified, so any number of analyses may share it.
//
// Key design constraints:
//   - Patterns are stored left to right; the matcher walks them right to left
//   - Actions are a closed set of kinds resolved at compile time
//   - Category references are resolved pointers, never names
package ir

// Package harness runs conformance scenarios against compiled tables.
//
// A scenario names a table file and a seed lexicon, then analyzes, generates
// and decomposes words, checking each outcome and finally asserting on the
// recorded words and the analysis log.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	tables: ../english/tables.cue
//	lexicon: ../english/lexicon.yaml
//	setup:
//	  - word: lamp
//	    categories: {0: [count-noun]}
//	flow:
//	  - analyze: stopped
//	    expect:
//	      status: matched
//	      rule: past#0
//	      roots: [stop]
//	  - generate: wander
//	    rule_set: conjugate
//	    expect:
//	      forms: [wandere, wanderst, wandert, wanderen, wandern]
//	  - decompose: horseshoe
//	    expect:
//	      split: horse+shoe
//	      pass: 1
//	assertions:
//	  - type: category
//	    word: stopped
//	    category: verb
//	  - type: final_state
//	    table: analyses
//	    where: { word: stopped }
//	    expect: { status: matched }
//
// Table and lexicon paths are relative to the scenario file.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - category: The word holds a category subsumed by the named one, at the
//     given level or a more likely one
//   - not_category: The word holds no category subsumed by the named one
//   - roots: The word's recorded roots, in order
//   - compound_of: The word records the given compound parts
//   - status_count: Exactly N analyses ended with the given status
//   - final_state: Queries a store table and verifies expected values
//
// # Execution
//
// Each scenario runs against a fresh in-memory store seeded from the
// lexicon file. The engine looks words up through the store, and every
// analyzed word is written back after its analysis, so later steps see what
// earlier steps learned. Analysis IDs are sequential and deterministic,
// which keeps traces stable for golden file comparison.
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/english.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness

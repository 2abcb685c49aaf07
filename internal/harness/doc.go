// Package harness runs end-to-end translation scenarios.
//
// A scenario names a handful of Python sources, runs them through the full
// pipeline (discovery, compilation, emission, artifact writes) and checks
// assertions against the artifacts and diagnostics that come out. Every run
// is also recorded in an in-memory report and read back, so the report
// layer is exercised by each scenario.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	strict: false
//	types:
//	  Lovelace: { name: Int }
//	sources:
//	  vault.py: |
//	    @spend
//	    def vault(datum, redeemer, ctx):
//	        return True
//	assertions:
//	  - type: emits
//	    file: vault.py
//	    artifact: vault.ak
//	  - type: contains
//	    file: vault.py
//	    text: "validator vault {"
//	  - type: diagnostic
//	    kind: UnknownType
//	    function: scale
//	    count: 1
//
// # Assertion Types
//
//   - emits: the file produced an artifact (optionally at a given path)
//   - omits: the file produced no artifact
//   - contains: the file's artifact contains text
//   - excludes: the file's artifact does not contain text
//   - diagnostic: diagnostics matching kind, file, function and severity
//     exist; count makes the match exact
//   - no_diagnostics: nothing was reported (for one file when file is set)
//
// # Golden Files
//
// RunWithGolden snapshots every artifact and diagnostic of a scenario into
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness

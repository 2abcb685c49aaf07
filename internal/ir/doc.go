// Package ir provides the intermediate representation shared by every pyken
// stage: validator and helper specs, the expression-oriented node tree the
// translator builds, type references and declarations.
//
// This package contains type definitions and pure functions only. The
// compiler builds IR, the emitter consumes it; ir imports nothing internal
// except diag.
//
// Key design constraints:
//   - Every node yields a value; there are no statement nodes
//   - Nodes are immutable once constructed
//   - Integers are carried as decimal text, never floats
//   - Canonical JSON (sorted keys, NFC strings) is the only serialization
//     used for fingerprints
package ir

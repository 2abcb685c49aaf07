// Package emit renders compiled modules as Aiken source text.
//
// Render produces one .ak module per source file: a generated-code header,
// the use statements the body needs, type declarations, helpers, validator
// blocks and tests, in that order. Identifiers are renamed where Aiken
// would reject them; each rename is reported as an info diagnostic.
//
// Output is a pure function of the module, so a rebuild over unchanged
// sources is byte-identical. ArtifactPath and Paths map source paths to
// artifact paths.
package emit

// Package document provides an ordered, format-neutral document model.
//
// Go's map types do not preserve key order, but node identities, child
// ordering and line estimates all depend on the order keys appear in the
// source. [Value] therefore stores object members as a slice, and the
// parsers in this package ([ParseJSON], [ParseYAML], [ParseTOML]) build it
// directly from the token stream.
//
// # Kinds
//
// Every value has exactly one [Kind]: object, array, string, number, boolean
// or null. Numbers keep their literal text so large integers and exact
// decimals survive unchanged into labels.
//
// # Duplicate Keys
//
// JSON objects with repeated keys keep the position of the first occurrence
// and the value of the last one, matching the behavior of most JSON parsers.
//
// # Source Lines
//
// The YAML parser records the real 1-based source line of every value in
// [Value.Line]. JSON and TOML values carry Line 0; consumers fall back to a
// bracket-counting estimate for those.
//
// # Shared Values
//
// Values built by parsers form trees. YAML aliases are the exception: every
// alias of an anchor resolves to the same *Value, so consumers that walk the
// model must tolerate a value being reachable from more than one parent.
package document

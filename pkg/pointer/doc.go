// Package pointer encodes and decodes structural node identities.
//
// Identities are RFC 6901 JSON Pointers with one deviation: the document root
// is written as "/" ([Root]) instead of the empty string. Every node derived
// from document content gets a pointer built from its parent's pointer and
// its own key, so identities are deterministic and collision-free.
//
// # Escaping
//
// Key segments escape "~" as "~0" and "/" as "~1". Order matters: encoding
// replaces "~" first and decoding unescapes "~1" first, otherwise a key such
// as "~1" would corrupt into "/".
//
//	pointer.EncodeSegment("a/b~c")     // "a~1b~0c"
//	pointer.Build("/", "a/b")          // "/a~1b"
//	pointer.Parse("/a~1b/c~0d")        // ["a/b", "c~d"]
//
// # Identity Domains
//
// [Root] addresses the document root, but it also equals the pointer of a key
// named "" under the root ("/" + ""). Graph structure therefore uses a
// separate sentinel for its root node (tree.RootID), which never starts with
// "/" and can never collide with a pointer. The two constants live in
// different packages on purpose and must not be used for each other.
//
// All functions are pure and safe for concurrent use.
package pointer

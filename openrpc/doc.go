// Package openrpc builds OpenRPC documents from a methodmap.Map.
//
// Build assembles the full document — info block, method descriptors,
// component schemas — in a single pass over the map. Named composite types
// render into components.schemas exactly once and every other occurrence is
// a $ref, so shared types are never duplicated and recursive types close
// correctly.
//
// The output is deterministic: equal maps and configs produce byte-identical
// JSON, which keeps generated artifacts diffable in review.
//
// All failure modes (duplicate identifiers, unresolved references, missing
// documentation under StrictDocs) surface from Build; a built Document is
// immutable and safe to share across concurrent readers.
package openrpc

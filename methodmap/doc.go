// Package methodmap defines the structured catalog of JSON-RPC method
// signatures consumed by the OpenRPC document builder.
//
// A Map is typically produced at build time by a source-language front end
// (a code scanner, an IDL compiler, or plain hand-written Go) and handed to
// the runtime as a value or as an on-disk artifact. The package only cares
// about the shape of the catalog, not how it was obtained.
//
// # Building a Map in code
//
//	m := &methodmap.Map{
//	    Methods: []methodmap.Method{{
//	        Name:        "getblock",
//	        Description: "Returns block data for the given hash.",
//	        Params: []methodmap.Param{{
//	            Name:        "hash",
//	            Type:        methodmap.String(),
//	            Description: "Block hash, hex-encoded.",
//	            Required:    true,
//	        }},
//	        Result: &methodmap.Result{
//	            Type:        methodmap.Named("BlockResult"),
//	            Description: "The requested block.",
//	        },
//	    }},
//	    Types: []methodmap.TypeDef{{
//	        Name: "BlockResult",
//	        Fields: []methodmap.Field{
//	            {Name: "height", Type: methodmap.Integer("uint64"), Required: true},
//	        },
//	    }},
//	}
//	if err := m.Validate(); err != nil { ... }
//
// # Artifact form
//
// Maps round-trip through JSON and CBOR (see Encode/Decode and
// Load/WriteFile). Decoding always validates, so a malformed artifact is
// rejected before a document can be built from it.
//
// # Invariants
//
// Method names are unique across the map and parameter order is significant:
// it defines the positional-call contract even when requests use named
// params. A named composite identifier always denotes one shape; two
// definitions under the same identifier with different shapes are a fatal
// integrity error, detected by structural fingerprinting.
package methodmap

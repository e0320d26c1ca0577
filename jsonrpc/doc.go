// Package jsonrpc provides a JSON-RPC 2.0 server endpoint integrated with the
// endpoint processor chain. It is the transport host for the discovery
// responder in package discover.
//
// This package implements the JSON-RPC 2.0 specification (https://www.jsonrpc.org/specification)
// and JSON-RPC over HTTP (https://www.simple-is-better.org/json-rpc/transport_http.html).
//
// # Basic Usage
//
// Create an endpoint, register methods, and serve via HTTP:
//
//	e := jsonrpc.NewEndpoint()
//	if err := e.Register("chain", &ChainMethods{}); err != nil {
//	    log.Fatal(err)
//	}
//	http.Handle("/rpc", endpoint.Handler(e.Endpoint))
//	http.ListenAndServe(":8080", nil)
//
// Methods are defined on a struct with a params type:
//
//	type ChainMethods struct{}
//
//	type GetBlockParams struct {
//	    Hash string `json:"hash"`
//	}
//
//	func (c *ChainMethods) GetBlock(ctx context.Context, params GetBlockParams) (*Block, error) {
//	    ...
//	}
//
// # Method Signatures
//
// Reflected methods must have this signature:
//
//	func(ctx context.Context, params <StructType>) (result, error)
//
// The params struct uses json tags to define parameter names. Use an empty
// struct for methods with no parameters. Methods support both positional
// (array) and named (object) parameters; positional order follows field
// declaration order, matching the parameter order a method catalog declares.
//
// # Raw Handlers
//
// Handle registers a function under an exact wire name, without reflection:
//
//	e.Handle("rpc.discover", func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
//	    return doc, nil
//	})
//
// A raw handler returning json.RawMessage has its bytes emitted verbatim,
// so a pre-serialized document cannot drift between requests.
//
// # Namespaces and Name Overrides
//
// The namespace prefixes reflected method names; a `_` params field with a
// `jsonrpc` tag overrides the name segment:
//
//	type DiscoverParams struct {
//	    _ struct{} `jsonrpc:"discover"` // "rpc" namespace -> "rpc.discover"
//	}
//
// # Error Handling
//
// Registration collisions and invalid receivers return errors; registration
// happens at startup, and a server must refuse to start on any of them.
// Handlers return JSONRPCError for protocol-level failures:
//
//	return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "unknown block hash")
//
// Standard error codes are defined as constants:
//   - CodeParseError (-32700)
//   - CodeInvalidRequest (-32600)
//   - CodeMethodNotFound (-32601)
//   - CodeInvalidParams (-32602)
//   - CodeInternalError (-32603)
//
// # Processor Integration
//
// Processors can be passed to endpoint.Handler for cross-cutting concerns:
//
//	http.Handle("/rpc", endpoint.Handler(e.Endpoint, authProcessor, headersProcessor))
//
// Processor errors return HTTP error responses (not JSON-RPC errors).
package jsonrpc

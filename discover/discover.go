// Package discover serves a built OpenRPC document through the conventional
// rpc.discover JSON-RPC method and an optional plain HTTP endpoint.
//
// A Responder is constructed exactly once, at startup, from a validated
// method map and document settings. Construction failing means the server
// must refuse to start; once constructed, the document and its serialized
// form are immutable and the serving path is a pure read with no locking.
package discover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/mnehpets/openrpcserve/endpoint"
	"github.com/mnehpets/openrpcserve/jsonrpc"
	"github.com/mnehpets/openrpcserve/methodmap"
	"github.com/mnehpets/openrpcserve/openrpc"
)

// MethodName is the wire name of the discovery method.
const MethodName = "rpc.discover"

// Responder holds an immutable OpenRPC document and serves it verbatim.
type Responder struct {
	m   *methodmap.Map
	doc *openrpc.Document
	raw json.RawMessage
}

// New builds the document from the map and settings. Any map integrity
// violation or build failure is returned here and nowhere else: a Responder
// that exists can always serve.
func New(m *methodmap.Map, cfg openrpc.Config) (*Responder, error) {
	doc, err := openrpc.Build(m, cfg)
	if err != nil {
		return nil, err
	}
	raw, err := doc.MarshalCompact()
	if err != nil {
		return nil, err
	}
	return &Responder{m: m, doc: doc, raw: raw}, nil
}

// Document returns the built document. The caller must treat it as
// read-only; it is shared with every concurrent request handler.
func (r *Responder) Document() *openrpc.Document {
	return r.doc
}

// JSON returns a copy of the document's serialized form.
func (r *Responder) JSON() json.RawMessage {
	return append(json.RawMessage(nil), r.raw...)
}

// Attach registers the rpc.discover method on a JSON-RPC endpoint. The
// handler returns the pre-serialized document, so the response bytes are
// identical across requests and across restarts with an unchanged map.
func (r *Responder) Attach(e *jsonrpc.Endpoint) error {
	return e.Handle(MethodName, func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		return r.raw, nil
	})
}

// CheckCoverage verifies the totality contract between the method map and a
// dispatch surface: every method the endpoint will dispatch must be
// described by the map, and every described method must be dispatchable.
// The discovery method itself is exempt. Call it after Attach and all
// Register/Handle calls, and refuse to start on error.
func (r *Responder) CheckCoverage(registered []string) error {
	described := make(map[string]bool, len(r.m.Methods))
	for _, name := range r.m.MethodNames() {
		described[name] = false
	}

	var undescribed []string
	for _, name := range registered {
		if name == MethodName {
			continue
		}
		if _, ok := described[name]; !ok {
			undescribed = append(undescribed, name)
			continue
		}
		described[name] = true
	}

	var unregistered []string
	for name, seen := range described {
		if !seen {
			unregistered = append(unregistered, name)
		}
	}
	sort.Strings(undescribed)
	sort.Strings(unregistered)

	if len(undescribed) > 0 {
		return fmt.Errorf("discover: methods dispatched but not described: %v", undescribed)
	}
	if len(unregistered) > 0 {
		return fmt.Errorf("discover: methods described but not dispatched: %v", unregistered)
	}
	return nil
}

// documentParams are the request parameters of the HTTP document endpoint.
type documentParams struct {
	// Pretty re-indents the served document (e.g. ?pretty=true).
	Pretty bool `query:"pretty"`
}

// Endpoint serves the document itself over plain HTTP (conventionally at
// GET /openrpc.json). Pass to endpoint.Handler() to create an http.Handler.
func (r *Responder) Endpoint(w http.ResponseWriter, req *http.Request, params documentParams) (endpoint.Renderer, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil, endpoint.Error(http.StatusMethodNotAllowed, "document endpoint requires GET", nil)
	}
	body := []byte(r.raw)
	if params.Pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err != nil {
			return nil, endpoint.Error(http.StatusInternalServerError, "", err)
		}
		body = buf.Bytes()
	}
	return &endpoint.RawJSONRenderer{Body: body}, nil
}

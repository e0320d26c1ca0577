// A JSON-RPC server whose methods are described by an in-code method map
// and discoverable through rpc.discover.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/mnehpets/openrpcserve/discover"
	"github.com/mnehpets/openrpcserve/endpoint"
	"github.com/mnehpets/openrpcserve/jsonrpc"
	"github.com/mnehpets/openrpcserve/methodmap"
	"github.com/mnehpets/openrpcserve/openrpc"
)

type NodeMethods struct{}

type InfoResult struct {
	Version string `json:"version"`
	Height  uint64 `json:"height"`
}

func (n *NodeMethods) Getinfo(ctx context.Context, params struct {
	_ struct{} `jsonrpc:"getinfo"`
}) (*InfoResult, error) {
	return &InfoResult{Version: "1.0.0", Height: 42}, nil
}

func (n *NodeMethods) Ping(ctx context.Context, params struct {
	_ struct{} `jsonrpc:"ping"`
}) (string, error) {
	return "pong", nil
}

func describeMethods() *methodmap.Map {
	return &methodmap.Map{
		Methods: []methodmap.Method{
			{
				Name:        "node.getinfo",
				Description: "Returns node version and chain height.",
				Result:      &methodmap.Result{Type: methodmap.Named("InfoResult")},
			},
			{
				Name:        "node.ping",
				Description: "Liveness check.",
				Result:      &methodmap.Result{Type: methodmap.String()},
			},
		},
		Types: []methodmap.TypeDef{
			{
				Name: "InfoResult",
				Fields: []methodmap.Field{
					{Name: "version", Type: methodmap.String(), Required: true},
					{Name: "height", Type: methodmap.Integer("uint64"), Required: true},
				},
			},
		},
	}
}

func main() {
	e := jsonrpc.NewEndpoint()
	if err := e.Register("node", &NodeMethods{}); err != nil {
		log.Fatal(err)
	}

	responder, err := discover.New(describeMethods(), openrpc.Config{
		Title:   "Node API",
		Version: "1.0.0",
		Servers: []openrpc.Server{{Name: "local", URL: "http://localhost:8080/rpc"}},
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := responder.Attach(e); err != nil {
		log.Fatal(err)
	}
	if err := responder.CheckCoverage(e.Names()); err != nil {
		log.Fatal(err)
	}

	http.Handle("/rpc", endpoint.Handler(e.Endpoint))
	http.Handle("/openrpc.json", endpoint.Handler(responder.Endpoint))

	log.Println("Starting server on :8080")
	log.Fatal(http.ListenAndServe(":8080", nil))
}

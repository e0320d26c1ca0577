// Writes a method-map artifact and the OpenRPC document built from it.
// The artifact is what a build pipeline would hand to "openrpcd serve".
package main

import (
	"log"
	"os"

	"github.com/mnehpets/openrpcserve/methodmap"
	"github.com/mnehpets/openrpcserve/openrpc"
)

func main() {
	m := &methodmap.Map{
		Methods: []methodmap.Method{
			{
				Name:        "wallet.balance",
				Description: "Returns the confirmed balance of an address.",
				Params: []methodmap.Param{
					{Name: "address", Type: methodmap.String(), Description: "Address to query.", Required: true},
					{Name: "minconf", Type: methodmap.OptionalOf(methodmap.Integer("uint32")), Description: "Minimum confirmations."},
				},
				Result: &methodmap.Result{Type: methodmap.Named("Balance")},
			},
		},
		Types: []methodmap.TypeDef{
			{
				Name:        "Balance",
				Description: "Confirmed and pending funds.",
				Fields: []methodmap.Field{
					{Name: "confirmed", Type: methodmap.Integer("uint64"), Required: true},
					{Name: "pending", Type: methodmap.Integer("uint64"), Required: true},
				},
			},
		},
	}

	if err := m.WriteFile("wallet.map.json"); err != nil {
		log.Fatal(err)
	}

	doc, err := openrpc.Build(m, openrpc.Config{Title: "Wallet API", Version: "0.3.0"})
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create("wallet.openrpc.json")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if err := doc.EncodeJSON(f); err != nil {
		log.Fatal(err)
	}

	log.Println("wrote wallet.map.json and wallet.openrpc.json")
}

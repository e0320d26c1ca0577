package openrpc

import "encoding/json"

// Version is the OpenRPC specification version the generated documents
// conform to.
const Version = "1.3.2"

// Document is the root object of an OpenRPC document.
type Document struct {
	OpenRPC    string     `json:"openrpc"`
	Info       Info       `json:"info"`
	Servers    []Server   `json:"servers,omitempty"`
	Methods    []Method   `json:"methods"`
	Components Components `json:"components"`
}

// Info provides metadata about the API.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Server is one endpoint the described API is reachable at.
type Server struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Method describes a single JSON-RPC method.
type Method struct {
	Name        string               `json:"name"`
	Tags        []Tag                `json:"tags,omitempty"`
	Summary     string               `json:"summary,omitempty"`
	Description string               `json:"description,omitempty"`
	Params      []*ContentDescriptor `json:"params"`
	Result      *ContentDescriptor   `json:"result,omitempty"`
	Deprecated  bool                 `json:"deprecated,omitempty"`
}

// Tag is a category label attached to a method.
type Tag struct {
	Name string `json:"name"`
}

// ContentDescriptor describes a method parameter or result: a name, prose,
// and the JSON Schema constraining its value.
type ContentDescriptor struct {
	Name        string  `json:"name"`
	Summary     string  `json:"summary,omitempty"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
	Schema      *Schema `json:"schema"`
	Deprecated  bool    `json:"deprecated,omitempty"`
}

// Components holds the schemas shared across the document. Every named
// composite referenced anywhere in the map appears here exactly once, keyed
// by its stable identifier.
type Components struct {
	Schemas map[string]*Schema `json:"schemas"`
}

// Schema is the subset of JSON Schema (draft-07) the type mapping emits.
//
// A Schema with raw set serializes as that fragment verbatim, bypassing the
// structured fields; this is the escape hatch for shapes the TypeRef
// vocabulary cannot express.
type Schema struct {
	Ref                  string             `json:"$ref,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Format               string             `json:"format,omitempty"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Default              json.RawMessage    `json:"default,omitempty"`

	raw json.RawMessage
}

// RawFragment wraps a pre-rendered JSON Schema fragment in a Schema.
func RawFragment(fragment json.RawMessage) *Schema {
	return &Schema{raw: fragment}
}

// MarshalJSON emits the raw fragment verbatim when present.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.raw != nil {
		return s.raw, nil
	}
	type plain Schema // drop methods to avoid recursion
	return json.Marshal((*plain)(s))
}

// UnmarshalJSON decodes into the structured fields; unknown keywords from
// raw fragments are dropped. Parsed documents are for inspection, not
// re-serialization.
func (s *Schema) UnmarshalJSON(b []byte) error {
	type plain Schema
	return json.Unmarshal(b, (*plain)(s))
}

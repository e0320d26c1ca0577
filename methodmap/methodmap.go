package methodmap

import (
	"encoding/json"
)

// Kind discriminates the variants of a TypeRef.
type Kind string

const (
	// Primitive kinds map 1:1 to a JSON Schema "type" keyword.
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"

	// KindNamed references a TypeDef by its stable identifier.
	KindNamed Kind = "named"

	// Container kinds wrap an element TypeRef.
	KindArray    Kind = "array"
	KindMap      Kind = "map"
	KindOptional Kind = "optional"

	// KindRaw carries a pre-rendered JSON Schema fragment verbatim.
	KindRaw Kind = "raw"
)

// TypeRef is a reference to a semantic type. It is a tagged union: Kind
// selects the variant and determines which of the remaining fields are
// meaningful. Use the constructor functions rather than filling the struct
// by hand.
type TypeRef struct {
	Kind Kind `json:"kind"`

	// Name is the stable identifier of a named composite (KindNamed only).
	Name string `json:"name,omitempty"`

	// Format optionally narrows a numeric primitive: int32, int64, uint32,
	// uint64 for integers; float, double for numbers.
	Format string `json:"format,omitempty"`

	// Elem is the element type for arrays, the value type for maps, and the
	// inner type for optionals.
	Elem *TypeRef `json:"elem,omitempty"`

	// Raw is a pre-rendered JSON Schema fragment (KindRaw only).
	Raw json.RawMessage `json:"raw,omitempty"`
}

// String returns a TypeRef for the JSON string primitive.
func String() TypeRef { return TypeRef{Kind: KindString} }

// Integer returns a TypeRef for a JSON integer. format may be empty or one
// of int32, int64, uint32, uint64; unsigned formats render with a zero
// minimum since JSON Schema has no native signedness.
func Integer(format string) TypeRef { return TypeRef{Kind: KindInteger, Format: format} }

// Number returns a TypeRef for a JSON number. format may be empty, "float"
// or "double".
func Number(format string) TypeRef { return TypeRef{Kind: KindNumber, Format: format} }

// Boolean returns a TypeRef for the JSON boolean primitive.
func Boolean() TypeRef { return TypeRef{Kind: KindBoolean} }

// Null returns a TypeRef for the JSON null type.
func Null() TypeRef { return TypeRef{Kind: KindNull} }

// Named returns a TypeRef referencing the TypeDef with the given stable
// identifier.
func Named(name string) TypeRef { return TypeRef{Kind: KindNamed, Name: name} }

// ArrayOf returns a TypeRef for an array of elem.
func ArrayOf(elem TypeRef) TypeRef { return TypeRef{Kind: KindArray, Elem: &elem} }

// MapOf returns a TypeRef for an object with arbitrary string keys and
// values of the given type.
func MapOf(value TypeRef) TypeRef { return TypeRef{Kind: KindMap, Elem: &value} }

// OptionalOf returns a TypeRef that accepts either the inner type or null.
func OptionalOf(inner TypeRef) TypeRef { return TypeRef{Kind: KindOptional, Elem: &inner} }

// RawSchema returns a TypeRef carrying a pre-rendered JSON Schema fragment.
// The fragment is emitted verbatim; it is the escape hatch for shapes the
// TypeRef vocabulary cannot express.
func RawSchema(fragment json.RawMessage) TypeRef {
	return TypeRef{Kind: KindRaw, Raw: fragment}
}

// Field is one member of an object-shaped TypeDef.
type Field struct {
	Name        string  `json:"name"`
	Type        TypeRef `json:"type"`
	Description string  `json:"description,omitempty"`
	Required    bool    `json:"required,omitempty"`
}

// TypeDef is the shape bound to a named composite identifier. Exactly one of
// Fields, Enum, or Raw should be set: Fields describes an object, Enum a
// string enumeration, Raw a verbatim schema fragment. A TypeDef with none of
// the three renders as an unconstrained object.
type TypeDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Fields      []Field         `json:"fields,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Param is one parameter of a Method. Description must come from the
// producing front end's documentation source; the builder never invents
// prose from identifiers.
type Param struct {
	Name        string          `json:"name"`
	Type        TypeRef         `json:"type"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
}

// Result describes a Method's return value. Name is optional; the builder
// falls back to "<method>_result".
type Result struct {
	Name        string  `json:"name,omitempty"`
	Type        TypeRef `json:"type"`
	Description string  `json:"description,omitempty"`
}

// Method is one RPC method. Name is the wire method name and must be unique
// across the Map. Params order is significant: it defines the positional
// parameter contract. A Method with no params and a nil Result is valid
// (notification-shaped).
type Method struct {
	Name        string   `json:"name"`
	Summary     string   `json:"summary,omitempty"`
	Description string   `json:"description,omitempty"`
	Params      []Param  `json:"params"`
	Result      *Result  `json:"result,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Map is the complete method catalog: methods in declaration order plus the
// named composite definitions their TypeRefs reference. It is the single
// artifact handed from build time to runtime and must be treated as
// immutable once validated.
type Map struct {
	Methods []Method  `json:"methods"`
	Types   []TypeDef `json:"types,omitempty"`
}

// Lookup returns the method with the given wire name.
func (m *Map) Lookup(name string) (*Method, bool) {
	for i := range m.Methods {
		if m.Methods[i].Name == name {
			return &m.Methods[i], true
		}
	}
	return nil, false
}

// TypeDef returns the definition bound to a named composite identifier.
func (m *Map) TypeDef(name string) (*TypeDef, bool) {
	for i := range m.Types {
		if m.Types[i].Name == name {
			return &m.Types[i], true
		}
	}
	return nil, false
}

// MethodNames returns the wire names of all methods in declaration order.
func (m *Map) MethodNames() []string {
	names := make([]string, len(m.Methods))
	for i, mm := range m.Methods {
		names[i] = mm.Name
	}
	return names
}

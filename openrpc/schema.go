package openrpc

import (
	"fmt"
	"strings"

	"github.com/mnehpets/openrpcserve/methodmap"
)

// componentsPath is the JSON pointer prefix for hoisted schemas.
const componentsPath = "#/components/schemas/"

// generator maps TypeRefs to JSON Schema fragments, memoizing named
// composites by identifier. It is used single-threaded during Build and
// discarded afterwards.
type generator struct {
	defs    map[string]*methodmap.TypeDef
	schemas map[string]*Schema
}

func newGenerator(m *methodmap.Map) *generator {
	defs := make(map[string]*methodmap.TypeDef, len(m.Types))
	for i := range m.Types {
		defs[m.Types[i].Name] = &m.Types[i]
	}
	return &generator{
		defs:    defs,
		schemas: make(map[string]*Schema, len(m.Types)),
	}
}

// schemaFor renders the schema for a TypeRef. Named composites render their
// full definition into the components cache on first encounter and come back
// as a $ref from then on.
func (g *generator) schemaFor(t methodmap.TypeRef) (*Schema, error) {
	switch t.Kind {
	case methodmap.KindString:
		return &Schema{Type: "string"}, nil
	case methodmap.KindBoolean:
		return &Schema{Type: "boolean"}, nil
	case methodmap.KindNull:
		return &Schema{Type: "null"}, nil
	case methodmap.KindInteger:
		s := &Schema{Type: "integer", Format: t.Format}
		if strings.HasPrefix(t.Format, "uint") {
			zero := 0.0
			s.Minimum = &zero
		}
		return s, nil
	case methodmap.KindNumber:
		return &Schema{Type: "number", Format: t.Format}, nil
	case methodmap.KindArray:
		items, err := g.schemaFor(*t.Elem)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case methodmap.KindMap:
		values, err := g.schemaFor(*t.Elem)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: values}, nil
	case methodmap.KindOptional:
		inner, err := g.schemaFor(*t.Elem)
		if err != nil {
			return nil, err
		}
		// anyOf-with-null works uniformly, including for $ref targets where
		// draft-07 ignores sibling keywords.
		return &Schema{AnyOf: []*Schema{inner, {Type: "null"}}}, nil
	case methodmap.KindRaw:
		return RawFragment(t.Raw), nil
	case methodmap.KindNamed:
		return g.named(t.Name)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", methodmap.ErrInvalidTypeRef, t.Kind)
	}
}

func (g *generator) named(name string) (*Schema, error) {
	if _, done := g.schemas[name]; done {
		return &Schema{Ref: componentsPath + name}, nil
	}
	def, ok := g.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", methodmap.ErrUndefinedType, name)
	}

	// Reserve the components slot before descending into the definition so a
	// self- or mutually-recursive field resolves to a $ref instead of
	// recursing forever. The slot is filled in place below.
	slot := &Schema{}
	g.schemas[name] = slot

	if err := g.renderDef(def, slot); err != nil {
		delete(g.schemas, name)
		return nil, fmt.Errorf("type %q: %w", name, err)
	}
	return &Schema{Ref: componentsPath + name}, nil
}

// renderDef fills slot with the schema for a composite definition.
func (g *generator) renderDef(def *methodmap.TypeDef, slot *Schema) error {
	switch {
	case len(def.Raw) > 0:
		*slot = *RawFragment(def.Raw)
	case len(def.Enum) > 0:
		slot.Type = "string"
		slot.Enum = def.Enum
	default:
		slot.Type = "object"
		if len(def.Fields) > 0 {
			slot.Properties = make(map[string]*Schema, len(def.Fields))
		}
		for _, f := range def.Fields {
			fs, err := g.schemaFor(f.Type)
			if err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
			if f.Description != "" {
				fs = describe(fs, f.Description)
			}
			slot.Properties[f.Name] = fs
			if f.Required {
				slot.Required = append(slot.Required, f.Name)
			}
		}
	}
	slot.Description = def.Description
	return nil
}

// describe attaches a description to a schema. $ref and raw schemas cannot
// carry sibling keywords in draft-07, so they are wrapped in a single-branch
// anyOf instead.
func describe(s *Schema, desc string) *Schema {
	if s.Ref != "" || s.raw != nil {
		return &Schema{AnyOf: []*Schema{s}, Description: desc}
	}
	s.Description = desc
	return s
}

// withDefault attaches a default literal, wrapping $ref/raw schemas the same
// way describe does.
func withDefault(s *Schema, def []byte) *Schema {
	if len(def) == 0 {
		return s
	}
	if s.Ref != "" || s.raw != nil {
		return &Schema{AnyOf: []*Schema{s}, Default: def}
	}
	s.Default = def
	return s
}

// components returns the rendered schema cache keyed by type identifier.
func (g *generator) components() map[string]*Schema {
	return g.schemas
}

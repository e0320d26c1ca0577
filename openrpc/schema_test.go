package openrpc

import (
	"testing"

	"github.com/mnehpets/openrpcserve/methodmap"
)

func TestSchemaForPrimitives(t *testing.T) {
	g := newGenerator(&methodmap.Map{})

	tests := []struct {
		name       string
		ref        methodmap.TypeRef
		wantType   string
		wantFormat string
	}{
		{"string", methodmap.String(), "string", ""},
		{"boolean", methodmap.Boolean(), "boolean", ""},
		{"null", methodmap.Null(), "null", ""},
		{"integer", methodmap.Integer(""), "integer", ""},
		{"integer int64", methodmap.Integer("int64"), "integer", "int64"},
		{"number", methodmap.Number(""), "number", ""},
		{"number double", methodmap.Number("double"), "number", "double"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := g.schemaFor(tt.ref)
			if err != nil {
				t.Fatal(err)
			}
			if s.Type != tt.wantType || s.Format != tt.wantFormat {
				t.Errorf("got type=%q format=%q, want type=%q format=%q", s.Type, s.Format, tt.wantType, tt.wantFormat)
			}
		})
	}
}

func TestSchemaForUnsignedMinimum(t *testing.T) {
	g := newGenerator(&methodmap.Map{})
	for _, format := range []string{"uint32", "uint64"} {
		s, err := g.schemaFor(methodmap.Integer(format))
		if err != nil {
			t.Fatal(err)
		}
		if s.Minimum == nil || *s.Minimum != 0 {
			t.Errorf("%s: minimum = %v, want 0", format, s.Minimum)
		}
	}

	s, err := g.schemaFor(methodmap.Integer("int64"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Minimum != nil {
		t.Errorf("int64: unexpected minimum %v", *s.Minimum)
	}
}

func TestSchemaForContainers(t *testing.T) {
	g := newGenerator(&methodmap.Map{})

	arr, err := g.schemaFor(methodmap.ArrayOf(methodmap.String()))
	if err != nil {
		t.Fatal(err)
	}
	if arr.Type != "array" || arr.Items.Type != "string" {
		t.Errorf("array schema = %+v", arr)
	}

	mp, err := g.schemaFor(methodmap.MapOf(methodmap.Integer("uint64")))
	if err != nil {
		t.Fatal(err)
	}
	if mp.Type != "object" || mp.AdditionalProperties.Type != "integer" {
		t.Errorf("map schema = %+v", mp)
	}
}

func TestSchemaForOptional(t *testing.T) {
	g := newGenerator(&methodmap.Map{})

	s, err := g.schemaFor(methodmap.OptionalOf(methodmap.String()))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.AnyOf) != 2 {
		t.Fatalf("anyOf branches = %d, want 2", len(s.AnyOf))
	}
	if s.AnyOf[0].Type != "string" || s.AnyOf[1].Type != "null" {
		t.Errorf("anyOf = [%+v, %+v]", s.AnyOf[0], s.AnyOf[1])
	}
}

func TestSchemaForOptionalNamed(t *testing.T) {
	m := &methodmap.Map{
		Types: []methodmap.TypeDef{
			{Name: "Info", Fields: []methodmap.Field{{Name: "version", Type: methodmap.String()}}},
		},
	}
	g := newGenerator(m)

	s, err := g.schemaFor(methodmap.OptionalOf(methodmap.Named("Info")))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.AnyOf) != 2 || s.AnyOf[0].Ref != "#/components/schemas/Info" || s.AnyOf[1].Type != "null" {
		t.Errorf("optional named schema = %+v", s)
	}
	if _, ok := g.components()["Info"]; !ok {
		t.Error("Info not hoisted into components")
	}
}

func TestSchemaForUndefinedNamed(t *testing.T) {
	g := newGenerator(&methodmap.Map{})
	if _, err := g.schemaFor(methodmap.Named("Ghost")); err == nil {
		t.Fatal("undefined type accepted")
	}
}

func TestDescribeWrapsRef(t *testing.T) {
	ref := &Schema{Ref: "#/components/schemas/Info"}
	s := describe(ref, "Node status.")
	if s.Ref != "" {
		t.Fatal("description set as $ref sibling; want anyOf wrapper")
	}
	if len(s.AnyOf) != 1 || s.AnyOf[0] != ref || s.Description != "Node status." {
		t.Errorf("wrapper = %+v", s)
	}

	plain := &Schema{Type: "string"}
	s = describe(plain, "A name.")
	if s != plain || s.Description != "A name." {
		t.Errorf("plain schema wrapped unnecessarily: %+v", s)
	}
}

func TestFieldDescriptions(t *testing.T) {
	m := &methodmap.Map{
		Methods: []methodmap.Method{
			{Name: "getinfo", Result: &methodmap.Result{Type: methodmap.Named("Info")}},
		},
		Types: []methodmap.TypeDef{
			{
				Name:        "Info",
				Description: "Node status.",
				Fields: []methodmap.Field{
					{Name: "version", Type: methodmap.String(), Description: "Software version.", Required: true},
				},
			},
		},
	}

	doc, err := Build(m, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	info := doc.Components.Schemas["Info"]
	if info.Description != "Node status." {
		t.Errorf("type description = %q", info.Description)
	}
	version := info.Properties["version"]
	if version.Description != "Software version." {
		t.Errorf("field description = %q", version.Description)
	}
	if len(info.Required) != 1 || info.Required[0] != "version" {
		t.Errorf("required = %v", info.Required)
	}
}

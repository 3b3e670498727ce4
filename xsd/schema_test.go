package xsd

import (
	"strings"
	"testing"

	"github.com/agentflare-ai/go-xmldom"
)

func parseSchema(t *testing.T, doc string) *Schema {
	t.Helper()
	parsed, err := xmldom.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Failed to parse schema document: %v", err)
	}
	schema, err := Parse(parsed)
	if err != nil {
		t.Fatalf("Failed to compile schema: %v", err)
	}
	return schema
}

func TestElementDeclParsing(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/shop"
           xmlns:s="http://example.com/shop">
  <xs:element name="catalog" type="s:CatalogType">
    <xs:annotation>
      <xs:documentation>The root catalog.</xs:documentation>
    </xs:annotation>
  </xs:element>
  <xs:complexType name="CatalogType">
    <xs:sequence>
      <xs:element name="item" type="xs:string" maxOccurs="unbounded"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`)

	decl := schema.ElementByName(QName{Namespace: "http://example.com/shop", Local: "catalog"})
	if decl == nil {
		t.Fatal("catalog element not found")
	}
	if decl.Documentation != "The root catalog." {
		t.Errorf("documentation = %q, want %q", decl.Documentation, "The root catalog.")
	}

	ct, ok := decl.Type.(*ComplexType)
	if !ok {
		t.Fatalf("catalog type = %T, want *ComplexType", decl.Type)
	}
	mg, ok := ct.Content.(*ModelGroup)
	if !ok {
		t.Fatalf("content = %T, want *ModelGroup", ct.Content)
	}
	if mg.Kind != SequenceGroup {
		t.Errorf("group kind = %q, want sequence", mg.Kind)
	}
	if len(mg.Particles) != 1 {
		t.Fatalf("particles = %d, want 1", len(mg.Particles))
	}
	item, ok := mg.Particles[0].(*ElementDecl)
	if !ok {
		t.Fatalf("particle = %T, want *ElementDecl", mg.Particles[0])
	}
	if item.MaxOccurs() != -1 {
		t.Errorf("item maxOccurs = %d, want -1 (unbounded)", item.MaxOccurs())
	}
}

func TestSubstitutionGroups(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/shapes"
           xmlns:sh="http://example.com/shapes">
  <xs:element name="shape" abstract="true" type="xs:string"/>
  <xs:element name="circle" substitutionGroup="sh:shape" type="xs:string"/>
  <xs:element name="square" substitutionGroup="sh:shape" type="xs:string"/>
</xs:schema>`)

	head := QName{Namespace: "http://example.com/shapes", Local: "shape"}
	members := schema.SubstitutionsFor(head)
	if len(members) != 2 {
		t.Fatalf("substitution members = %d, want 2", len(members))
	}
	found := map[string]bool{}
	for _, m := range members {
		found[m.Local] = true
	}
	if !found["circle"] || !found["square"] {
		t.Errorf("members = %v, want circle and square", members)
	}

	headDecl := schema.ElementByName(head)
	if headDecl == nil || !headDecl.Abstract {
		t.Error("head element should be abstract")
	}
}

func TestEnumerationFacetsWithDocumentation(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/colors">
  <xs:simpleType name="ColorType">
    <xs:restriction base="xs:string">
      <xs:enumeration value="red">
        <xs:annotation>
          <xs:documentation>Stop.</xs:documentation>
        </xs:annotation>
      </xs:enumeration>
      <xs:enumeration value="green"/>
    </xs:restriction>
  </xs:simpleType>
</xs:schema>`)

	st, ok := schema.TypeByName(QName{Namespace: "http://example.com/colors", Local: "ColorType"}).(*SimpleType)
	if !ok {
		t.Fatal("ColorType not found or not simple")
	}
	if st.Restriction == nil {
		t.Fatal("ColorType has no restriction")
	}
	values := EnumerationValues(st.Restriction.Facets)
	if len(values) != 2 {
		t.Fatalf("enumeration values = %d, want 2", len(values))
	}
	if values[0].Value != "red" || values[0].Documentation != "Stop." {
		t.Errorf("first value = %+v, want red with documentation", values[0])
	}
	if values[1].Value != "green" || values[1].Documentation != "" {
		t.Errorf("second value = %+v, want green without documentation", values[1])
	}
}

func TestAttributeUseParsing(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/attrs"
           xmlns:a="http://example.com/attrs">
  <xs:complexType name="BaseType">
    <xs:attribute name="id" type="xs:string" use="required"/>
    <xs:attribute name="legacy" type="xs:string"/>
  </xs:complexType>
  <xs:complexType name="DerivedType">
    <xs:complexContent>
      <xs:restriction base="a:BaseType">
        <xs:attribute name="legacy" use="prohibited"/>
      </xs:restriction>
    </xs:complexContent>
  </xs:complexType>
</xs:schema>`)

	base, ok := schema.TypeByName(QName{Namespace: "http://example.com/attrs", Local: "BaseType"}).(*ComplexType)
	if !ok {
		t.Fatal("BaseType not found")
	}
	if len(base.Attributes) != 2 {
		t.Fatalf("BaseType attributes = %d, want 2", len(base.Attributes))
	}
	if base.Attributes[0].Use != RequiredUse {
		t.Errorf("id use = %q, want required", base.Attributes[0].Use)
	}

	derived, ok := schema.TypeByName(QName{Namespace: "http://example.com/attrs", Local: "DerivedType"}).(*ComplexType)
	if !ok {
		t.Fatal("DerivedType not found")
	}
	cc, ok := derived.Content.(*ComplexContent)
	if !ok || cc.Restriction == nil {
		t.Fatalf("DerivedType content = %T, want restriction", derived.Content)
	}
	if len(cc.Restriction.Attributes) != 1 || cc.Restriction.Attributes[0].Use != ProhibitedUse {
		t.Errorf("restriction attributes = %+v, want one prohibited", cc.Restriction.Attributes)
	}
}

func TestAttributeGroupResolution(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/groups"
           xmlns:g="http://example.com/groups">
  <xs:attributeGroup name="common">
    <xs:attribute name="id" type="xs:string"/>
    <xs:attributeGroup ref="g:extra"/>
  </xs:attributeGroup>
  <xs:attributeGroup name="extra">
    <xs:attribute name="version" type="xs:string"/>
  </xs:attributeGroup>
  <xs:complexType name="ThingType">
    <xs:attributeGroup ref="g:common"/>
  </xs:complexType>
</xs:schema>`)

	ag := schema.AttributeGroupByName(QName{Namespace: "http://example.com/groups", Local: "common"})
	if ag == nil {
		t.Fatal("common attribute group not found")
	}
	if len(ag.Attributes) != 1 || ag.Attributes[0].Name.Local != "id" {
		t.Errorf("common attributes = %+v, want id", ag.Attributes)
	}
	if len(ag.Groups) != 1 || ag.Groups[0].Local != "extra" {
		t.Errorf("nested groups = %+v, want extra", ag.Groups)
	}

	ct, ok := schema.TypeByName(QName{Namespace: "http://example.com/groups", Local: "ThingType"}).(*ComplexType)
	if !ok {
		t.Fatal("ThingType not found")
	}
	if len(ct.AttributeGroup) != 1 || ct.AttributeGroup[0].Local != "common" {
		t.Errorf("ThingType attribute group refs = %+v, want common", ct.AttributeGroup)
	}
}

func TestListAndUnionTypes(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/lu"
           xmlns:lu="http://example.com/lu">
  <xs:simpleType name="SizeType">
    <xs:restriction base="xs:string">
      <xs:enumeration value="small"/>
      <xs:enumeration value="large"/>
    </xs:restriction>
  </xs:simpleType>
  <xs:simpleType name="SizeListType">
    <xs:list itemType="lu:SizeType"/>
  </xs:simpleType>
  <xs:simpleType name="SizeOrNumberType">
    <xs:union memberTypes="lu:SizeType xs:int"/>
  </xs:simpleType>
</xs:schema>`)

	ns := "http://example.com/lu"
	list, ok := schema.TypeByName(QName{Namespace: ns, Local: "SizeListType"}).(*SimpleType)
	if !ok || list.List == nil {
		t.Fatal("SizeListType not parsed as list")
	}
	if list.List.ItemType.Local != "SizeType" {
		t.Errorf("item type = %v, want SizeType", list.List.ItemType)
	}

	union, ok := schema.TypeByName(QName{Namespace: ns, Local: "SizeOrNumberType"}).(*SimpleType)
	if !ok || union.Union == nil {
		t.Fatal("SizeOrNumberType not parsed as union")
	}
	if len(union.Union.MemberTypes) != 2 {
		t.Fatalf("union members = %d, want 2", len(union.Union.MemberTypes))
	}
	if union.Union.MemberTypes[1] != (QName{Namespace: XSDNamespace, Local: "int"}) {
		t.Errorf("second member = %v, want xs:int", union.Union.MemberTypes[1])
	}
}

func TestModelGroupReference(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/mg"
           xmlns:m="http://example.com/mg">
  <xs:group name="nameGroup">
    <xs:sequence>
      <xs:element name="first" type="xs:string"/>
      <xs:element name="last" type="xs:string"/>
    </xs:sequence>
  </xs:group>
  <xs:complexType name="PersonType">
    <xs:group ref="m:nameGroup"/>
  </xs:complexType>
</xs:schema>`)

	g := schema.GroupByName(QName{Namespace: "http://example.com/mg", Local: "nameGroup"})
	if g == nil {
		t.Fatal("nameGroup not found")
	}
	if len(g.Particles) != 2 {
		t.Fatalf("group particles = %d, want 2", len(g.Particles))
	}

	ct, ok := schema.TypeByName(QName{Namespace: "http://example.com/mg", Local: "PersonType"}).(*ComplexType)
	if !ok {
		t.Fatal("PersonType not found")
	}
	ref, ok := ct.Content.(*GroupRef)
	if !ok {
		t.Fatalf("PersonType content = %T, want *GroupRef", ct.Content)
	}
	if ref.Ref.Local != "nameGroup" {
		t.Errorf("group ref = %v, want nameGroup", ref.Ref)
	}
}

func TestTopLevelAttributeAndXMLRef(t *testing.T) {
	schema := parseSchema(t, `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/xmlref"
           xmlns:x="http://example.com/xmlref">
  <xs:attribute name="unit" type="xs:string"/>
  <xs:complexType name="TextType">
    <xs:attribute ref="xml:lang"/>
    <xs:attribute ref="x:unit"/>
  </xs:complexType>
</xs:schema>`)

	attr := schema.AttributeByName(QName{Namespace: "http://example.com/xmlref", Local: "unit"})
	if attr == nil {
		t.Fatal("top-level attribute unit not found")
	}

	ct, ok := schema.TypeByName(QName{Namespace: "http://example.com/xmlref", Local: "TextType"}).(*ComplexType)
	if !ok {
		t.Fatal("TextType not found")
	}
	if len(ct.Attributes) != 2 {
		t.Fatalf("TextType attributes = %d, want 2", len(ct.Attributes))
	}
	lang := ct.Attributes[0]
	if lang.Ref != (QName{Namespace: XMLNamespace, Local: "lang"}) {
		t.Errorf("first attribute ref = %v, want xml:lang", lang.Ref)
	}
}

func TestLoadSchemaFromString(t *testing.T) {
	schema, err := LoadSchemaFromString(`<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/str">
  <xs:element name="note" type="xs:string"/>
</xs:schema>`, "")
	if err != nil {
		t.Fatalf("LoadSchemaFromString failed: %v", err)
	}
	if schema.TargetNamespace != "http://example.com/str" {
		t.Errorf("target namespace = %q", schema.TargetNamespace)
	}
	if schema.ElementByName(QName{Namespace: "http://example.com/str", Local: "note"}) == nil {
		t.Error("note element not found")
	}
}

func TestBuiltinTypes(t *testing.T) {
	if !IsBuiltin(QName{Namespace: XSDNamespace, Local: "string"}) {
		t.Error("xs:string should be builtin")
	}
	if IsBuiltin(QName{Namespace: "http://example.com", Local: "string"}) {
		t.Error("foreign string should not be builtin")
	}
	if !IsBooleanType(QName{Namespace: XSDNamespace, Local: "boolean"}) {
		t.Error("xs:boolean should be boolean")
	}
	want := []string{"true", "false", "1", "0"}
	if len(BooleanValues) != len(want) {
		t.Fatalf("boolean values = %v", BooleanValues)
	}
	for i, v := range want {
		if BooleanValues[i] != v {
			t.Errorf("boolean value %d = %q, want %q", i, BooleanValues[i], v)
		}
	}
}

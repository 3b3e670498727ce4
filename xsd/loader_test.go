package xsd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSchemaFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadSchemaWithImports(t *testing.T) {
	tempDir := t.TempDir()

	writeSchemaFile(t, tempDir, "main.xsd", `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/main"
           xmlns:main="http://example.com/main"
           xmlns:types="http://example.com/types">
  <xs:import namespace="http://example.com/types" schemaLocation="types.xsd"/>
  <xs:element name="document" type="main:DocumentType"/>
  <xs:complexType name="DocumentType">
    <xs:sequence>
      <xs:element name="title" type="xs:string"/>
      <xs:element name="author" type="types:PersonType"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`)

	writeSchemaFile(t, tempDir, "types.xsd", `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/types">
  <xs:complexType name="PersonType">
    <xs:sequence>
      <xs:element name="name" type="xs:string"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`)

	loader := NewSchemaLoader(tempDir)
	schema, err := loader.LoadSchemaWithImports("main.xsd")
	if err != nil {
		t.Fatalf("Failed to load schema with imports: %v", err)
	}

	if schema.TargetNamespace != "http://example.com/main" {
		t.Errorf("target namespace = %q", schema.TargetNamespace)
	}
	if schema.ElementByName(QName{Namespace: "http://example.com/main", Local: "document"}) == nil {
		t.Error("document element not found in combined schema")
	}
	if schema.TypeByName(QName{Namespace: "http://example.com/types", Local: "PersonType"}) == nil {
		t.Error("imported PersonType not found in combined schema")
	}
}

func TestLoadSchemaWithInclude(t *testing.T) {
	tempDir := t.TempDir()

	writeSchemaFile(t, tempDir, "main.xsd", `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/inc"
           xmlns:inc="http://example.com/inc">
  <xs:include schemaLocation="parts.xsd"/>
  <xs:element name="order" type="inc:OrderType"/>
</xs:schema>`)

	writeSchemaFile(t, tempDir, "parts.xsd", `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/inc">
  <xs:complexType name="OrderType">
    <xs:sequence>
      <xs:element name="line" type="xs:string" maxOccurs="unbounded"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`)

	loader := NewSchemaLoader(tempDir)
	schema, err := loader.LoadSchemaWithImports("main.xsd")
	if err != nil {
		t.Fatalf("Failed to load schema with include: %v", err)
	}

	ct, ok := schema.TypeByName(QName{Namespace: "http://example.com/inc", Local: "OrderType"}).(*ComplexType)
	if !ok {
		t.Fatal("included OrderType not found in combined schema")
	}
	if _, ok := ct.Content.(*ModelGroup); !ok {
		t.Errorf("OrderType content = %T, want *ModelGroup", ct.Content)
	}
}

func TestLoadSchemaMissingIncludeFails(t *testing.T) {
	tempDir := t.TempDir()

	writeSchemaFile(t, tempDir, "main.xsd", `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/missing">
  <xs:include schemaLocation="nosuch.xsd"/>
  <xs:element name="thing" type="xs:string"/>
</xs:schema>`)

	loader := NewSchemaLoader(tempDir)
	if _, err := loader.LoadSchemaWithImports("main.xsd"); err == nil {
		t.Error("expected error for missing include")
	}
}

func TestSchemaCache(t *testing.T) {
	tempDir := t.TempDir()

	writeSchemaFile(t, tempDir, "cached.xsd", `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/cached">
  <xs:element name="thing" type="xs:string"/>
</xs:schema>`)

	cache := NewSchemaCache(tempDir)
	first, err := cache.Get("cached.xsd")
	if err != nil {
		t.Fatalf("cache load failed: %v", err)
	}
	second, err := cache.Get("cached.xsd")
	if err != nil {
		t.Fatalf("cached load failed: %v", err)
	}
	if first != second {
		t.Error("cache returned different schema instances for same location")
	}

	cache.Remove("cached.xsd")
	third, err := cache.Get("cached.xsd")
	if err != nil {
		t.Fatalf("reload after remove failed: %v", err)
	}
	if third == first {
		t.Error("remove did not evict the cached schema")
	}
}

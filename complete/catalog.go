package complete

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/faticalabs/xmledit/xsd"
)

// CatalogEntry binds a namespace to the schema document declaring it.
type CatalogEntry struct {
	Namespace string `yaml:"namespace"`
	Location  string `yaml:"location"`
}

// Catalog is the on-disk description of a completion session's schemas.
type Catalog struct {
	// Default names the namespace whose schema answers unqualified names.
	Default string         `yaml:"default,omitempty"`
	Schemas []CatalogEntry `yaml:"schemas"`
}

// LoadCatalog reads a YAML catalog file and compiles every schema it lists
// into a Collection. Schema locations are resolved relative to the catalog
// file. Any unreadable or uncompilable schema fails the whole load; this is
// the one place schema errors surface.
func LoadCatalog(path string) (*Collection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog")
	}

	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, errors.Wrapf(err, "parsing catalog %s", path)
	}

	baseDir := filepath.Dir(path)
	cache := xsd.NewSchemaCache(baseDir)

	coll := NewCollection()
	for _, entry := range cat.Schemas {
		schema, err := cache.Get(entry.Location)
		if err != nil {
			return nil, errors.Wrapf(err, "loading schema %s", entry.Location)
		}
		data := NewSchemaData(schema)
		coll.Add(data)
		if cat.Default != "" && entry.Namespace == cat.Default {
			coll.SetDefault(data)
		}
	}
	if cat.Default != "" && coll.Default() == nil {
		if data := coll.ByNamespace(cat.Default); data != nil {
			coll.SetDefault(data)
		} else {
			return nil, errors.Errorf("catalog default namespace %q not among schemas", cat.Default)
		}
	}
	return coll, nil
}

// LoadSchemas compiles the given schema files into a Collection without a
// catalog. When defaultNS is non-empty the matching schema becomes the
// default; otherwise a single schema serves as its own default.
func LoadSchemas(locations []string, defaultNS string) (*Collection, error) {
	coll := NewCollection()
	var only *SchemaData
	for _, location := range locations {
		loader := xsd.NewSchemaLoader(filepath.Dir(location))
		schema, err := loader.LoadSchemaWithImports(filepath.Base(location))
		if err != nil {
			return nil, errors.Wrapf(err, "loading schema %s", location)
		}
		data := NewSchemaData(schema)
		coll.Add(data)
		only = data
		if defaultNS != "" && data.Namespace() == defaultNS {
			coll.SetDefault(data)
		}
	}
	if defaultNS == "" && len(locations) == 1 && coll.Default() == nil {
		coll.SetDefault(only)
	}
	if defaultNS != "" && coll.Default() == nil {
		return nil, errors.Errorf("default namespace %q not among schemas", defaultNS)
	}
	return coll, nil
}

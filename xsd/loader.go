package xsd

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agentflare-ai/go-xmldom"
)

// SchemaLoader handles loading schemas with import/include support
type SchemaLoader struct {
	// Base directory for resolving relative paths
	BaseDir string

	// Map of loaded schemas by location
	loaded map[string]*Schema

	// Map of schemas being loaded (for cycle detection)
	loading map[string]bool

	// Combined schema with all imports/includes merged
	combined *Schema

	// Whether to allow remote schema loading
	AllowRemote bool

	// HTTP client for remote loading
	httpClient *http.Client

	mu sync.Mutex
}

// NewSchemaLoader creates a new schema loader
func NewSchemaLoader(baseDir string) *SchemaLoader {
	return &SchemaLoader{
		BaseDir:     baseDir,
		loaded:      make(map[string]*Schema),
		loading:     make(map[string]bool),
		AllowRemote: false, // Disabled by default
		httpClient:  &http.Client{},
	}
}

// LoadSchemaWithImports loads a schema and all its imports and includes into
// a single combined schema. This is the one step that may fail; every query
// against the result afterwards misses silently.
func (sl *SchemaLoader) LoadSchemaWithImports(location string) (*Schema, error) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.combined = &Schema{
		ElementDecls:       make(map[QName]*ElementDecl),
		AttributeDecls:     make(map[QName]*AttributeDecl),
		TypeDefs:           make(map[QName]Type),
		AttributeGroups:    make(map[QName]*AttributeGroup),
		Groups:             make(map[QName]*ModelGroup),
		SubstitutionGroups: make(map[QName][]QName),
		ImportedSchemas:    make(map[string]*Schema),
	}

	mainSchema, err := sl.loadSchemaRecursive(location)
	if err != nil {
		return nil, err
	}

	sl.combined.TargetNamespace = mainSchema.TargetNamespace
	sl.combined.doc = mainSchema.doc

	for loc, schema := range sl.loaded {
		sl.mergeSchema(schema, loc)
	}

	sl.combined.resolveReferences()

	return sl.combined, nil
}

// loadSchemaRecursive loads a schema and processes its imports/includes
func (sl *SchemaLoader) loadSchemaRecursive(location string) (*Schema, error) {
	absLocation, err := sl.resolveLocation(location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve location %s: %w", location, err)
	}

	if schema, ok := sl.loaded[absLocation]; ok {
		return schema, nil
	}

	if sl.loading[absLocation] {
		return nil, fmt.Errorf("circular dependency detected: %s", absLocation)
	}
	sl.loading[absLocation] = true
	defer func() {
		delete(sl.loading, absLocation)
	}()

	doc, err := sl.loadDocument(absLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema from %s: %w", absLocation, err)
	}

	schema, err := Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema from %s: %w", absLocation, err)
	}

	sl.loaded[absLocation] = schema

	for _, imp := range schema.Imports {
		if imp.SchemaLocation == "" {
			continue
		}
		impLocation := sl.resolveRelative(imp.SchemaLocation, absLocation)
		if _, err := sl.loadSchemaRecursive(impLocation); err != nil {
			// Import failures are often non-fatal
			slog.Warn("failed to import schema", "location", imp.SchemaLocation, "error", err)
		}
	}

	for _, includeLocation := range sl.findIncludes(doc) {
		incLocation := sl.resolveRelative(includeLocation, absLocation)
		if _, err := sl.loadSchemaRecursive(incLocation); err != nil {
			return nil, fmt.Errorf("failed to include %s: %w", includeLocation, err)
		}
	}

	return schema, nil
}

// findIncludes finds all xs:include elements in the document
func (sl *SchemaLoader) findIncludes(doc xmldom.Document) []string {
	var includes []string

	root := doc.DocumentElement()
	if root == nil {
		return includes
	}

	children := root.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil {
			continue
		}

		if string(child.NamespaceURI()) == XSDNamespace &&
			string(child.LocalName()) == "include" {
			if location := child.GetAttribute("schemaLocation"); location != "" {
				includes = append(includes, string(location))
			}
		}
	}

	return includes
}

// resolveLocation resolves a location to an absolute path or URL
func (sl *SchemaLoader) resolveLocation(location string) (string, error) {
	if filepath.IsAbs(location) {
		return location, nil
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if !sl.AllowRemote {
			return "", fmt.Errorf("remote schema loading is disabled")
		}
		return location, nil
	}

	if sl.BaseDir != "" {
		return filepath.Abs(filepath.Join(sl.BaseDir, location))
	}

	return filepath.Abs(location)
}

// resolveRelative resolves a relative location based on a base location
func (sl *SchemaLoader) resolveRelative(relative, base string) string {
	if filepath.IsAbs(relative) {
		return relative
	}

	if strings.HasPrefix(relative, "http://") || strings.HasPrefix(relative, "https://") {
		return relative
	}

	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		baseURL, err := url.Parse(base)
		if err != nil {
			return relative
		}
		relURL, err := baseURL.Parse(relative)
		if err != nil {
			return relative
		}
		return relURL.String()
	}

	baseDir := filepath.Dir(base)
	return filepath.Join(baseDir, relative)
}

// loadDocument loads an XML document from a location
func (sl *SchemaLoader) loadDocument(location string) (xmldom.Document, error) {
	var reader io.ReadCloser

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		resp, err := sl.httpClient.Get(location)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, location)
		}
		reader = resp.Body
	} else {
		file, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", location, err)
		}
		reader = file
	}

	defer reader.Close()

	doc, err := xmldom.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	return doc, nil
}

// mergeSchema merges a loaded schema into the combined schema. Included
// schemas (same target namespace) contribute their components directly;
// imported schemas stay reachable through ImportedSchemas with their own
// namespace intact.
func (sl *SchemaLoader) mergeSchema(source *Schema, location string) {
	sl.combined.ImportedSchemas[location] = source
	sl.mergeComponents(source, sl.combined)
}

// mergeComponents merges schema components, first declaration winning
func (sl *SchemaLoader) mergeComponents(source, target *Schema) {
	for qname, elem := range source.ElementDecls {
		if _, exists := target.ElementDecls[qname]; !exists {
			target.ElementDecls[qname] = elem
		}
	}

	for qname, attr := range source.AttributeDecls {
		if _, exists := target.AttributeDecls[qname]; !exists {
			target.AttributeDecls[qname] = attr
		}
	}

	for qname, typ := range source.TypeDefs {
		if _, exists := target.TypeDefs[qname]; !exists {
			target.TypeDefs[qname] = typ
		}
	}

	for qname, ag := range source.AttributeGroups {
		if _, exists := target.AttributeGroups[qname]; !exists {
			target.AttributeGroups[qname] = ag
		}
	}

	for qname, mg := range source.Groups {
		if _, exists := target.Groups[qname]; !exists {
			target.Groups[qname] = mg
		}
	}

	target.Imports = append(target.Imports, source.Imports...)
}

// LoadSchemaFromString compiles a schema held in memory, resolving its
// imports and includes relative to baseDir.
func LoadSchemaFromString(content string, baseDir string) (*Schema, error) {
	decoder := xmldom.NewDecoderFromBytes([]byte(content))
	doc, err := decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	schema, err := Parse(doc)
	if err != nil {
		return nil, err
	}

	if len(schema.Imports) > 0 || baseDir != "" {
		sl := NewSchemaLoader(baseDir)
		schema.ImportedSchemas = make(map[string]*Schema)
		for _, imp := range schema.Imports {
			if imp.SchemaLocation == "" {
				continue
			}
			loc := sl.resolveRelative(imp.SchemaLocation, filepath.Join(baseDir, "schema.xsd"))
			imported, err := sl.LoadSchemaWithImports(loc)
			if err != nil {
				slog.Warn("failed to import schema", "location", imp.SchemaLocation, "error", err)
				continue
			}
			schema.ImportedSchemas[loc] = imported
		}
		schema.resolveReferences()
	}

	return schema, nil
}

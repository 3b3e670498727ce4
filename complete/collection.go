package complete

import (
	"sort"

	"github.com/faticalabs/xmledit/xmlpath"
)

// Collection holds the schemas known to a completion session, keyed by
// target namespace, with an optional default schema for documents that use
// unqualified names.
type Collection struct {
	byNamespace map[string]*SchemaData
	def         *SchemaData
}

// NewCollection returns an empty schema collection.
func NewCollection() *Collection {
	return &Collection{byNamespace: make(map[string]*SchemaData)}
}

// Add registers a schema under its target namespace. A schema with an empty
// target namespace also becomes the default when none is set.
func (c *Collection) Add(data *SchemaData) {
	c.byNamespace[data.Namespace()] = data
	if data.Namespace() == "" && c.def == nil {
		c.def = data
	}
}

// SetDefault marks the schema consulted for unqualified element names.
func (c *Collection) SetDefault(data *SchemaData) {
	c.def = data
	c.byNamespace[data.Namespace()] = data
}

// Default returns the default schema, or nil.
func (c *Collection) Default() *SchemaData {
	return c.def
}

// ByNamespace returns the schema registered for a namespace, or nil.
func (c *Collection) ByNamespace(ns string) *SchemaData {
	return c.byNamespace[ns]
}

// Namespaces returns the registered target namespaces in sorted order.
func (c *Collection) Namespaces() []string {
	out := make([]string, 0, len(c.byNamespace))
	for ns := range c.byNamespace {
		if ns != "" {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}

// NamespaceCompletions returns the registered namespaces as quoted-value
// completion items, for use after an xmlns declaration.
func (c *Collection) NamespaceCompletions() []Item {
	var items []Item
	for _, ns := range c.Namespaces() {
		items = append(items, Item{Text: ns, Kind: KindNamespaceURI})
	}
	return items
}

// Find selects the schema governing a path and returns the path adjusted to
// it. The root entry's namespace decides; when the root is unqualified and a
// default schema is configured, every unqualified entry is rewritten to the
// default's target namespace so that lookups inside the schema resolve,
// without mutating the caller's path.
func (c *Collection) Find(path xmlpath.ElementPath) (*SchemaData, xmlpath.ElementPath) {
	if len(path) == 0 {
		return c.def, path
	}
	ns := path[0].Namespace
	if ns != "" {
		if data, ok := c.byNamespace[ns]; ok {
			return data, path
		}
		return nil, path
	}
	if c.def == nil {
		return nil, path
	}
	if c.def.Namespace() == "" {
		return c.def, path
	}
	adjusted := path.Clone()
	for i := range adjusted {
		if adjusted[i].Namespace == "" {
			adjusted[i].Namespace = c.def.Namespace()
		}
	}
	return c.def, adjusted
}

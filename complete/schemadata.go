package complete

import (
	"sort"

	"github.com/faticalabs/xmledit/xmlpath"
	"github.com/faticalabs/xmledit/xsd"
)

// SchemaData answers completion queries against one compiled schema. Every
// query is a pure function of the schema and its arguments; named type and
// group lookups are memoized since the schema is immutable after load.
type SchemaData struct {
	schema *xsd.Schema
	types  map[xsd.QName]xsd.Type
	groups map[xsd.QName]*xsd.ModelGroup
}

// NewSchemaData wraps a compiled schema for completion queries.
func NewSchemaData(schema *xsd.Schema) *SchemaData {
	return &SchemaData{
		schema: schema,
		types:  make(map[xsd.QName]xsd.Type),
		groups: make(map[xsd.QName]*xsd.ModelGroup),
	}
}

// Namespace returns the schema's target namespace.
func (d *SchemaData) Namespace() string {
	return d.schema.TargetNamespace
}

// Schema exposes the underlying compiled schema.
func (d *SchemaData) Schema() *xsd.Schema {
	return d.schema
}

func qnameOf(q xmlpath.QualifiedName) xsd.QName {
	return xsd.QName{Namespace: q.Namespace, Local: q.Name}
}

// matches compares a declared name against a wanted one. An unqualified
// wanted name matches on the local part alone.
func matches(decl, want xsd.QName) bool {
	if decl == want {
		return true
	}
	return want.Namespace == "" && decl.Local == want.Local
}

// ElementCompletions returns the root-eligible elements of the schema,
// qualified with prefix when non-empty, sorted by text for a stable order.
func (d *SchemaData) ElementCompletions(prefix string) []Item {
	var items []Item
	for _, decl := range d.schema.ElementDecls {
		if decl.Abstract {
			continue
		}
		text := decl.Name.Local
		if prefix != "" {
			text = prefix + ":" + text
		}
		items = append(items, Item{
			Text:        text,
			Description: decl.Documentation,
			Kind:        KindElement,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Text < items[j].Text })
	return items
}

// FindElement resolves an ancestor path to the element declaration at its
// end. The first entry must be a top-level declaration; every further entry
// resolves as a child of the previous element's complex type, through
// groups, nesting, derivation and substitution groups. Nil on any miss.
func (d *SchemaData) FindElement(path xmlpath.ElementPath) *xsd.ElementDecl {
	if len(path) == 0 {
		return nil
	}
	decl := d.element(qnameOf(path[0]))
	if decl == nil {
		return nil
	}
	for _, step := range path[1:] {
		ct := d.complexTypeOf(decl)
		if ct == nil {
			return nil
		}
		decl = d.findInContent(ct.Content, qnameOf(step), newWalk())
		if decl == nil {
			return nil
		}
	}
	return decl
}

// ChildElementCompletions returns the flattened set of legal child elements
// for the element the path resolves to. Duplicate names keep their first
// occurrence.
func (d *SchemaData) ChildElementCompletions(path xmlpath.ElementPath) []Item {
	decl := d.FindElement(path)
	if decl == nil {
		return nil
	}
	ct := d.complexTypeOf(decl)
	if ct == nil {
		return nil
	}
	var items []Item
	d.collectChildren(ct.Content, path.Last().Prefix, &items, newWalk())
	return dedupe(items)
}

// AttributeCompletions returns the legal attributes for the element the path
// resolves to, excluding any names in excluding. Attributes marked
// use="prohibited" anywhere in the derivation chain never appear and
// suppress same-named inherited candidates; use="required" marks the item
// mandatory.
func (d *SchemaData) AttributeCompletions(path xmlpath.ElementPath, excluding []string) []Item {
	decl := d.FindElement(path)
	if decl == nil {
		return nil
	}
	ct := d.complexTypeOf(decl)
	if ct == nil {
		return nil
	}

	// The prohibited set lives for exactly one call: it is threaded through
	// the recursion, never stored.
	prohibited := make(map[string]bool)
	var attrs []*xsd.AttributeDecl
	d.collectAttributes(ct, prohibited, &attrs, newWalk())

	skip := make(map[string]bool, len(excluding))
	for _, name := range excluding {
		skip[name] = true
	}

	var items []Item
	seen := make(map[string]bool)
	for _, attr := range attrs {
		name := attributeText(attr)
		if prohibited[name] || skip[name] || seen[name] {
			continue
		}
		seen[name] = true
		items = append(items, Item{
			Text:        name,
			Description: attr.Documentation,
			Kind:        KindAttribute,
			Mandatory:   attr.Use == xsd.RequiredUse,
		})
	}
	return items
}

// AttributeValueCompletions returns the legal value tokens for the named
// attribute of the element the path resolves to. Only enumerated value
// spaces contribute; an attribute with no enumeration facets (directly or
// through its base-type chain) completes to nothing.
func (d *SchemaData) AttributeValueCompletions(path xmlpath.ElementPath, attrName string) []Item {
	decl := d.FindElement(path)
	if decl == nil {
		return nil
	}
	ct := d.complexTypeOf(decl)
	if ct == nil {
		return nil
	}

	attr := d.findAttribute(ct, attrName, newWalk())
	if attr == nil {
		return nil
	}

	t := attr.Type
	if t == nil && attr.Ref != (xsd.QName{}) {
		if top := d.schema.AttributeByName(attr.Ref); top != nil {
			t = top.Type
		}
	}
	if t == nil {
		return nil
	}

	var items []Item
	d.collectValues(t, &items, newWalk())
	return dedupe(items)
}

// attributeText renders an attribute's completion text. References into the
// reserved xml namespace keep their literal prefix.
func attributeText(attr *xsd.AttributeDecl) string {
	if attr.Ref.Namespace == xsd.XMLNamespace {
		return "xml:" + attr.Ref.Local
	}
	return attr.Name.Local
}

// walk guards the recursive traversals against reference cycles.
type walk struct {
	groups map[xsd.QName]bool
	types  map[xsd.QName]bool
}

func newWalk() *walk {
	return &walk{groups: map[xsd.QName]bool{}, types: map[xsd.QName]bool{}}
}

func (w *walk) enterGroup(q xsd.QName) bool {
	if w.groups[q] {
		return false
	}
	w.groups[q] = true
	return true
}

func (w *walk) leaveGroup(q xsd.QName) { delete(w.groups, q) }

func (w *walk) enterType(q xsd.QName) bool {
	if w.types[q] {
		return false
	}
	w.types[q] = true
	return true
}

// element resolves a top-level element declaration, searching included and
// imported schemas transitively.
func (d *SchemaData) element(q xsd.QName) *xsd.ElementDecl {
	if decl := d.schema.ElementByName(q); decl != nil {
		return decl
	}
	if q.Namespace == "" {
		return d.schema.ElementByName(xsd.QName{Namespace: d.schema.TargetNamespace, Local: q.Local})
	}
	return nil
}

// typeByName resolves a named type with memoization.
func (d *SchemaData) typeByName(q xsd.QName) xsd.Type {
	if t, ok := d.types[q]; ok {
		return t
	}
	t := d.schema.TypeByName(q)
	d.types[q] = t
	return t
}

// groupByName resolves a named model group with memoization.
func (d *SchemaData) groupByName(q xsd.QName) *xsd.ModelGroup {
	if g, ok := d.groups[q]; ok {
		return g
	}
	g := d.schema.GroupByName(q)
	d.groups[q] = g
	return g
}

// complexTypeOf returns the complex type governing an element declaration:
// inline, or resolved by name, or nil for simple-typed elements.
func (d *SchemaData) complexTypeOf(decl *xsd.ElementDecl) *xsd.ComplexType {
	if decl == nil || decl.Type == nil {
		return nil
	}
	switch t := decl.Type.(type) {
	case *xsd.ComplexType:
		return t
	case *xsd.SimpleType:
		// A placeholder left unresolved at parse time may name a complex
		// type declared in another schema document.
		if t.Restriction == nil && t.List == nil && t.Union == nil {
			if ct, ok := d.typeByName(t.QName).(*xsd.ComplexType); ok {
				return ct
			}
		}
	}
	return nil
}

// findInContent searches a content model for the declaration of a wanted
// child element.
func (d *SchemaData) findInContent(content xsd.Content, want xsd.QName, w *walk) *xsd.ElementDecl {
	switch c := content.(type) {
	case *xsd.ModelGroup:
		return d.findInParticles(c.Particles, want, w)
	case *xsd.GroupRef:
		if !w.enterGroup(c.Ref) {
			return nil
		}
		defer w.leaveGroup(c.Ref)
		if g := d.groupByName(c.Ref); g != nil {
			return d.findInParticles(g.Particles, want, w)
		}
	case *xsd.ComplexContent:
		if c.Extension != nil {
			if c.Extension.Content != nil {
				if found := d.findInContent(c.Extension.Content, want, w); found != nil {
					return found
				}
			}
			return d.findInBase(c.Extension.Base, want, w)
		}
		if c.Restriction != nil && c.Restriction.Content != nil {
			// The restricted shape replaces the base's content model.
			return d.findInContent(c.Restriction.Content, want, w)
		}
	case *xsd.SimpleContent:
		// Simple content has no element children.
	}
	return nil
}

// findInBase continues a child search in a derivation base type.
func (d *SchemaData) findInBase(base xsd.QName, want xsd.QName, w *walk) *xsd.ElementDecl {
	if base == (xsd.QName{}) || !w.enterType(base) {
		return nil
	}
	if baseCT, ok := d.typeByName(base).(*xsd.ComplexType); ok {
		return d.findInContent(baseCT.Content, want, w)
	}
	return nil
}

func (d *SchemaData) findInParticles(particles []xsd.Particle, want xsd.QName, w *walk) *xsd.ElementDecl {
	for _, p := range particles {
		switch pt := p.(type) {
		case *xsd.ElementDecl:
			if matches(pt.Name, want) {
				return pt
			}
		case *xsd.ElementRef:
			target := d.element(pt.Ref)
			if target == nil {
				continue
			}
			if target.Abstract {
				// An abstract head stands for its substitution group.
				for _, member := range d.schema.SubstitutionsFor(target.Name) {
					if matches(member, want) {
						return d.element(member)
					}
				}
				continue
			}
			if matches(target.Name, want) {
				return target
			}
		case *xsd.ModelGroup:
			if found := d.findInParticles(pt.Particles, want, w); found != nil {
				return found
			}
		case *xsd.GroupRef:
			if !w.enterGroup(pt.Ref) {
				continue
			}
			g := d.groupByName(pt.Ref)
			if g != nil {
				if found := d.findInParticles(g.Particles, want, w); found != nil {
					w.leaveGroup(pt.Ref)
					return found
				}
			}
			w.leaveGroup(pt.Ref)
		}
	}
	return nil
}

// collectChildren flattens a content model into element completion items.
// Extension unions the base type's children with the extension's own;
// restriction contributes only the restricted particle.
func (d *SchemaData) collectChildren(content xsd.Content, prefix string, items *[]Item, w *walk) {
	switch c := content.(type) {
	case *xsd.ModelGroup:
		d.collectParticleChildren(c.Particles, prefix, items, w)
	case *xsd.GroupRef:
		if !w.enterGroup(c.Ref) {
			return
		}
		defer w.leaveGroup(c.Ref)
		if g := d.groupByName(c.Ref); g != nil {
			d.collectParticleChildren(g.Particles, prefix, items, w)
		}
	case *xsd.ComplexContent:
		if c.Extension != nil {
			// Base children first, then the extension's own particle.
			if c.Extension.Base != (xsd.QName{}) && w.enterType(c.Extension.Base) {
				if baseCT, ok := d.typeByName(c.Extension.Base).(*xsd.ComplexType); ok {
					d.collectChildren(baseCT.Content, prefix, items, w)
				}
			}
			if c.Extension.Content != nil {
				d.collectChildren(c.Extension.Content, prefix, items, w)
			}
			return
		}
		if c.Restriction != nil && c.Restriction.Content != nil {
			d.collectChildren(c.Restriction.Content, prefix, items, w)
		}
	case *xsd.SimpleContent:
		// No element children.
	}
}

func (d *SchemaData) collectParticleChildren(particles []xsd.Particle, prefix string, items *[]Item, w *walk) {
	for _, p := range particles {
		switch pt := p.(type) {
		case *xsd.ElementDecl:
			if !pt.Abstract {
				*items = append(*items, d.childItem(pt, prefix))
			}
		case *xsd.ElementRef:
			target := d.element(pt.Ref)
			if target == nil {
				continue
			}
			if target.Abstract {
				// Offer the members, never the abstract head itself.
				for _, member := range d.schema.SubstitutionsFor(target.Name) {
					if memberDecl := d.element(member); memberDecl != nil && !memberDecl.Abstract {
						*items = append(*items, d.childItem(memberDecl, prefix))
					}
				}
				continue
			}
			*items = append(*items, d.childItem(target, prefix))
		case *xsd.ModelGroup:
			d.collectParticleChildren(pt.Particles, prefix, items, w)
		case *xsd.GroupRef:
			if !w.enterGroup(pt.Ref) {
				continue
			}
			if g := d.groupByName(pt.Ref); g != nil {
				d.collectParticleChildren(g.Particles, prefix, items, w)
			}
			w.leaveGroup(pt.Ref)
		}
	}
}

func (d *SchemaData) childItem(decl *xsd.ElementDecl, prefix string) Item {
	text := decl.Name.Local
	if prefix != "" {
		text = prefix + ":" + text
	}
	return Item{
		Text:        text,
		Description: decl.Documentation,
		Kind:        KindElement,
	}
}

// collectAttributes gathers the attribute declarations reachable from a
// complex type: its own, its attribute groups and its derivation chain.
// Prohibited declarations go into the prohibited accumulator instead of the
// result; since the derived type is walked before its base, a derived
// prohibition shadows the inherited candidate.
func (d *SchemaData) collectAttributes(ct *xsd.ComplexType, prohibited map[string]bool, out *[]*xsd.AttributeDecl, w *walk) {
	d.addAttributes(ct.Attributes, prohibited, out)
	for _, ref := range ct.AttributeGroup {
		d.collectAttributeGroup(ref, prohibited, out, w)
	}

	switch c := ct.Content.(type) {
	case *xsd.SimpleContent:
		if c.Extension != nil {
			d.addAttributes(c.Extension.Attributes, prohibited, out)
			for _, ref := range c.Extension.AttributeGroups {
				d.collectAttributeGroup(ref, prohibited, out, w)
			}
			d.collectBaseAttributes(c.Extension.Base, prohibited, out, w)
		}
		if c.Restriction != nil {
			d.addAttributes(c.Restriction.Attributes, prohibited, out)
			for _, ref := range c.Restriction.AttributeGroups {
				d.collectAttributeGroup(ref, prohibited, out, w)
			}
			d.collectBaseAttributes(c.Restriction.Base, prohibited, out, w)
		}
	case *xsd.ComplexContent:
		if c.Extension != nil {
			d.addAttributes(c.Extension.Attributes, prohibited, out)
			for _, ref := range c.Extension.AttributeGroups {
				d.collectAttributeGroup(ref, prohibited, out, w)
			}
			d.collectBaseAttributes(c.Extension.Base, prohibited, out, w)
		}
		if c.Restriction != nil {
			d.addAttributes(c.Restriction.Attributes, prohibited, out)
			for _, ref := range c.Restriction.AttributeGroups {
				d.collectAttributeGroup(ref, prohibited, out, w)
			}
			d.collectBaseAttributes(c.Restriction.Base, prohibited, out, w)
		}
	}
}

func (d *SchemaData) collectBaseAttributes(base xsd.QName, prohibited map[string]bool, out *[]*xsd.AttributeDecl, w *walk) {
	if base == (xsd.QName{}) || !w.enterType(base) {
		return
	}
	if baseCT, ok := d.typeByName(base).(*xsd.ComplexType); ok {
		d.collectAttributes(baseCT, prohibited, out, w)
	}
}

func (d *SchemaData) collectAttributeGroup(ref xsd.QName, prohibited map[string]bool, out *[]*xsd.AttributeDecl, w *walk) {
	if !w.enterGroup(ref) {
		return
	}
	defer w.leaveGroup(ref)
	ag := d.schema.AttributeGroupByName(ref)
	if ag == nil {
		return
	}
	d.addAttributes(ag.Attributes, prohibited, out)
	for _, nested := range ag.Groups {
		d.collectAttributeGroup(nested, prohibited, out, w)
	}
}

func (d *SchemaData) addAttributes(attrs []*xsd.AttributeDecl, prohibited map[string]bool, out *[]*xsd.AttributeDecl) {
	for _, attr := range attrs {
		if attr.Use == xsd.ProhibitedUse {
			prohibited[attributeText(attr)] = true
			continue
		}
		*out = append(*out, attr)
	}
}

// findAttribute resolves the named attribute within a complex type, walking
// the same surface as collectAttributes and returning the first match.
func (d *SchemaData) findAttribute(ct *xsd.ComplexType, name string, w *walk) *xsd.AttributeDecl {
	prohibited := make(map[string]bool)
	var attrs []*xsd.AttributeDecl
	d.collectAttributes(ct, prohibited, &attrs, w)
	for _, attr := range attrs {
		if attributeText(attr) == name || attr.Name.Local == name {
			return attr
		}
	}
	return nil
}

// collectValues gathers the enumerated value space of a type. Restriction
// facets win over the base type's; list types contribute their item type's
// values; union members concatenate; xs:boolean contributes its lexical set.
func (d *SchemaData) collectValues(t xsd.Type, items *[]Item, w *walk) {
	switch st := t.(type) {
	case *xsd.SimpleType:
		switch {
		case st.Restriction != nil:
			values := xsd.EnumerationValues(st.Restriction.Facets)
			if len(values) > 0 {
				for _, v := range values {
					*items = append(*items, Item{
						Text:        v.Value,
						Description: v.Documentation,
						Kind:        KindAttributeValue,
					})
				}
				return
			}
			d.collectValuesOf(st.Restriction.Base, items, w)
		case st.List != nil:
			d.collectValuesOf(st.List.ItemType, items, w)
		case st.Union != nil:
			for _, member := range st.Union.MemberTypes {
				d.collectValuesOf(member, items, w)
			}
		default:
			// Placeholder for a named (possibly built-in) type.
			d.collectValuesOf(st.QName, items, w)
		}
	case *xsd.ComplexType:
		if sc, ok := st.Content.(*xsd.SimpleContent); ok {
			if sc.Restriction != nil {
				values := xsd.EnumerationValues(sc.Restriction.Facets)
				if len(values) > 0 {
					for _, v := range values {
						*items = append(*items, Item{
							Text:        v.Value,
							Description: v.Documentation,
							Kind:        KindAttributeValue,
						})
					}
					return
				}
				d.collectValuesOf(sc.Restriction.Base, items, w)
			}
			if sc.Extension != nil {
				d.collectValuesOf(sc.Extension.Base, items, w)
			}
		}
	}
}

// collectValuesOf resolves a type name and gathers its values. The built-in
// boolean type short-circuits to its fixed lexical set.
func (d *SchemaData) collectValuesOf(q xsd.QName, items *[]Item, w *walk) {
	if q == (xsd.QName{}) {
		return
	}
	if xsd.IsBooleanType(q) {
		for _, v := range xsd.BooleanValues {
			*items = append(*items, Item{Text: v, Kind: KindAttributeValue})
		}
		return
	}
	if xsd.IsBuiltin(q) {
		// Other built-ins have open lexical spaces.
		return
	}
	if !w.enterType(q) {
		return
	}
	if t := d.typeByName(q); t != nil {
		d.collectValues(t, items, w)
	}
}

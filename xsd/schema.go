// Package xsd compiles XML Schema documents into an in-memory object graph
// suitable for structural queries: element declarations, complex and simple
// types, model groups, attribute groups, substitution groups and facets.
// The package does not validate instance documents; it only answers what a
// schema declares.
package xsd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/agentflare-ai/go-xmldom"
)

// XSDNamespace is the XML Schema namespace
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// XMLNamespace is the namespace bound to the reserved xml prefix
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Schema represents a compiled XSD schema
type Schema struct {
	mu                 sync.RWMutex
	TargetNamespace    string
	ElementDecls       map[QName]*ElementDecl
	AttributeDecls     map[QName]*AttributeDecl
	TypeDefs           map[QName]Type
	AttributeGroups    map[QName]*AttributeGroup
	Groups             map[QName]*ModelGroup
	Imports            []*Import
	ImportedSchemas    map[string]*Schema // Map of imported schemas by location
	SubstitutionGroups map[QName][]QName  // Maps head element to list of substitutable elements
	doc                xmldom.Document
}

// QName represents a qualified XML name
type QName struct {
	Namespace string
	Local     string
}

// String returns the string representation of a QName
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return fmt.Sprintf("{%s}%s", q.Namespace, q.Local)
}

// ElementDecl represents an element declaration
type ElementDecl struct {
	Name              QName
	Type              Type
	MinOcc            int
	MaxOcc            int // -1 for unbounded
	Nillable          bool
	Abstract          bool
	SubstitutionGroup QName // Head element this element can substitute for
	Default           string
	Fixed             string
	Documentation     string
}

// Type is the interface for all XSD types
type Type interface {
	Name() QName
}

// SimpleType represents an XSD simple type
type SimpleType struct {
	QName       QName
	Base        QName
	Restriction *Restriction
	List        *List
	Union       *Union
}

// ComplexType represents an XSD complex type
type ComplexType struct {
	QName          QName
	Content        Content
	Attributes     []*AttributeDecl
	AttributeGroup []QName
	AnyAttribute   *AnyAttribute
	Mixed          bool
	Abstract       bool
}

// Content represents element content model
type Content interface {
	contentModel()
}

func (*SimpleContent) contentModel()  {}
func (*ComplexContent) contentModel() {}
func (*ModelGroup) contentModel()     {}
func (*GroupRef) contentModel()       {}

// SimpleContent represents simple content in a complex type
type SimpleContent struct {
	Extension   *Extension
	Restriction *Restriction
}

// ComplexContent represents complex content
type ComplexContent struct {
	Mixed       bool
	Extension   *Extension
	Restriction *Restriction
}

// ModelGroup represents a group of elements
type ModelGroup struct {
	Kind      ModelGroupKind // sequence, choice, all
	Particles []Particle
	MinOcc    int
	MaxOcc    int
}

// ModelGroupKind represents the kind of model group
type ModelGroupKind string

const (
	SequenceGroup ModelGroupKind = "sequence"
	ChoiceGroup   ModelGroupKind = "choice"
	AllGroup      ModelGroupKind = "all"
)

// Particle represents a particle in a content model
type Particle interface {
	MinOccurs() int
	MaxOccurs() int
}

func (d *ElementDecl) MinOccurs() int { return d.MinOcc }
func (d *ElementDecl) MaxOccurs() int { return d.MaxOcc }
func (r *ElementRef) MinOccurs() int  { return r.MinOcc }
func (r *ElementRef) MaxOccurs() int  { return r.MaxOcc }
func (r *GroupRef) MinOccurs() int    { return r.MinOcc }
func (r *GroupRef) MaxOccurs() int    { return r.MaxOcc }
func (g *ModelGroup) MinOccurs() int  { return g.MinOcc }
func (g *ModelGroup) MaxOccurs() int  { return g.MaxOcc }
func (a *AnyElement) MinOccurs() int  { return a.MinOcc }
func (a *AnyElement) MaxOccurs() int  { return a.MaxOcc }

// ElementRef represents a reference to an element
type ElementRef struct {
	Ref    QName
	MinOcc int
	MaxOcc int
}

// GroupRef represents a reference to a model group
type GroupRef struct {
	Ref    QName
	MinOcc int
	MaxOcc int
}

// AnyElement represents xs:any wildcard
type AnyElement struct {
	Namespace       string
	ProcessContents string
	MinOcc          int
	MaxOcc          int
}

// AttributeDecl represents an attribute declaration. Either Name or Ref is
// set; a Ref into the reserved xml namespace (xml:lang, xml:space, ...) is
// rendered with the literal xml: prefix by completion.
type AttributeDecl struct {
	Name          QName
	Ref           QName
	Type          Type
	Use           AttributeUse
	Default       string
	Fixed         string
	Documentation string
}

// AttributeUse represents attribute use
type AttributeUse string

const (
	OptionalUse   AttributeUse = "optional"
	RequiredUse   AttributeUse = "required"
	ProhibitedUse AttributeUse = "prohibited"
)

// AttributeGroup represents a group of attributes
type AttributeGroup struct {
	Name       QName
	Attributes []*AttributeDecl
	// Nested attributeGroup references
	Groups []QName
}

// Restriction represents a restriction on a type. For simple types only the
// base and facets matter; a complexContent restriction additionally carries
// the restricted particle and attribute declarations.
type Restriction struct {
	Base            QName
	Facets          []Facet
	Content         *ModelGroup
	Attributes      []*AttributeDecl
	AttributeGroups []QName
}

// List represents a list type
type List struct {
	ItemType QName
}

// Union represents a union type
type Union struct {
	MemberTypes []QName
}

// Extension represents type extension
type Extension struct {
	Base            QName
	Attributes      []*AttributeDecl
	AttributeGroups []QName
	Content         Content
	AnyAttribute    *AnyAttribute
}

// AnyAttribute represents xs:anyAttribute
type AnyAttribute struct {
	Namespace       string
	ProcessContents string
}

// Import represents an xs:import
type Import struct {
	Namespace      string
	SchemaLocation string
}

// LoadSchema loads and parses an XSD schema from a file
func LoadSchema(filename string) (*Schema, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	doc, err := xmldom.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML file: %w", err)
	}

	return Parse(doc)
}

// Parse parses an XSD schema from an XML document
func Parse(doc xmldom.Document) (*Schema, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}

	if string(root.NamespaceURI()) != XSDNamespace || string(root.LocalName()) != "schema" {
		return nil, fmt.Errorf("not an XSD schema document")
	}

	schema := &Schema{
		ElementDecls:       make(map[QName]*ElementDecl),
		AttributeDecls:     make(map[QName]*AttributeDecl),
		TypeDefs:           make(map[QName]Type),
		AttributeGroups:    make(map[QName]*AttributeGroup),
		Groups:             make(map[QName]*ModelGroup),
		SubstitutionGroups: make(map[QName][]QName),
		doc:                doc,
	}

	if tns := root.GetAttribute("targetNamespace"); tns != "" {
		schema.TargetNamespace = string(tns)
	}

	children := root.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil {
			continue
		}

		if string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "element":
			if err := schema.parseElement(child); err != nil {
				return nil, err
			}
		case "attribute":
			if attr := schema.parseAttribute(child); attr != nil {
				schema.AttributeDecls[attr.Name] = attr
			}
		case "simpleType":
			if err := schema.parseSimpleType(child); err != nil {
				return nil, err
			}
		case "complexType":
			if err := schema.parseComplexType(child); err != nil {
				return nil, err
			}
		case "attributeGroup":
			if err := schema.parseAttributeGroup(child); err != nil {
				return nil, err
			}
		case "group":
			if err := schema.parseGroup(child); err != nil {
				return nil, err
			}
		case "import":
			if err := schema.parseImport(child); err != nil {
				return nil, err
			}
		}
	}

	// Second pass: resolve type references
	schema.resolveReferences()

	return schema, nil
}

// resolveReferences performs a second pass resolving placeholder types and
// group references. Type derivation (extension/restriction) is deliberately
// left unflattened: completion walks the derivation chain itself so that
// restricted shapes and prohibited attributes stay visible.
func (s *Schema) resolveReferences() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, decl := range s.ElementDecls {
		decl.Type = s.resolvePlaceholder(decl.Type)
	}
	for _, attr := range s.AttributeDecls {
		attr.Type = s.resolvePlaceholder(attr.Type)
	}

	for _, typeDef := range s.TypeDefs {
		ct, ok := typeDef.(*ComplexType)
		if !ok {
			continue
		}

		// A GroupRef content model stays a reference; consumers resolve
		// group references lazily, with their own cycle guards.
		if mg, ok := ct.Content.(*ModelGroup); ok {
			mg.Particles = s.resolveParticles(mg.Particles)
			s.resolveInlineElementTypes(mg.Particles)
		}

		for _, attr := range ct.Attributes {
			attr.Type = s.resolvePlaceholder(attr.Type)
		}
	}

	for _, group := range s.Groups {
		group.Particles = s.resolveParticles(group.Particles)
		s.resolveInlineElementTypes(group.Particles)
	}

	for _, attrGroup := range s.AttributeGroups {
		for _, attr := range attrGroup.Attributes {
			attr.Type = s.resolvePlaceholder(attr.Type)
		}
	}

	s.buildSubstitutionGroups()
}

// resolvePlaceholder swaps a bare placeholder SimpleType for the real named
// type once the whole document has been parsed.
func (s *Schema) resolvePlaceholder(t Type) Type {
	st, ok := t.(*SimpleType)
	if !ok || st.Restriction != nil || st.List != nil || st.Union != nil {
		return t
	}
	if actual, exists := s.TypeDefs[st.QName]; exists {
		return actual
	}
	return t
}

// buildSubstitutionGroups builds the substitution group registry
func (s *Schema) buildSubstitutionGroups() {
	for _, decl := range s.ElementDecls {
		if decl.SubstitutionGroup.Local != "" {
			headQName := decl.SubstitutionGroup
			if headQName.Namespace == "" {
				headQName.Namespace = s.TargetNamespace
			}
			s.SubstitutionGroups[headQName] = append(s.SubstitutionGroups[headQName], decl.Name)
		}
	}

	for _, importedSchema := range s.ImportedSchemas {
		for headQName, members := range importedSchema.SubstitutionGroups {
			existing := s.SubstitutionGroups[headQName]
			s.SubstitutionGroups[headQName] = append(existing, members...)
		}
	}
}

// SubstitutionsFor returns the declared members of headName's substitution
// group, searching imported schemas as well. Nil when the head has none.
func (s *Schema) SubstitutionsFor(headName QName) []QName {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if members, exists := s.SubstitutionGroups[headName]; exists {
		return members
	}
	for _, importedSchema := range s.ImportedSchemas {
		if members := importedSchema.SubstitutionsFor(headName); members != nil {
			return members
		}
	}
	return nil
}

// parseElement parses a top-level element declaration
func (s *Schema) parseElement(elem xmldom.Element) error {
	if decl := s.parseElementDecl(elem); decl != nil {
		s.mu.Lock()
		s.ElementDecls[decl.Name] = decl
		s.mu.Unlock()
	}
	return nil
}

// parseElementDecl parses an element declaration, top-level or inline
func (s *Schema) parseElementDecl(elem xmldom.Element) *ElementDecl {
	name := string(elem.GetAttribute("name"))
	if name == "" {
		// Could be a reference
		return nil
	}

	decl := &ElementDecl{
		Name: QName{
			Namespace: s.TargetNamespace,
			Local:     name,
		},
		MinOcc: s.parseOccurs(elem, "minOccurs", 1),
		MaxOcc: s.parseOccurs(elem, "maxOccurs", 1),
	}

	if nillable := string(elem.GetAttribute("nillable")); nillable == "true" {
		decl.Nillable = true
	}

	if abstract := string(elem.GetAttribute("abstract")); abstract == "true" {
		decl.Abstract = true
	}

	if substGroup := string(elem.GetAttribute("substitutionGroup")); substGroup != "" {
		decl.SubstitutionGroup = s.parseQName(substGroup)
	}

	decl.Default = string(elem.GetAttribute("default"))
	decl.Fixed = string(elem.GetAttribute("fixed"))

	if typeName := string(elem.GetAttribute("type")); typeName != "" {
		decl.Type = s.resolveType(typeName)
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "annotation":
			decl.Documentation = documentationOf(child)
		case "simpleType":
			if st := s.parseInlineSimpleType(child); st != nil {
				decl.Type = st
			}
		case "complexType":
			if ct := s.parseInlineComplexType(child); ct != nil {
				decl.Type = ct
			}
		}
	}

	return decl
}

// parseInlineSimpleType parses an inline (anonymous) simple type definition
func (s *Schema) parseInlineSimpleType(elem xmldom.Element) *SimpleType {
	st := &SimpleType{
		QName: QName{
			Namespace: s.TargetNamespace,
			Local:     "_anonymous",
		},
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "restriction":
			st.Restriction = s.parseRestriction(child)
			st.Base = st.Restriction.Base
		case "list":
			st.List = s.parseList(child)
		case "union":
			st.Union = s.parseUnion(child)
		}
	}

	return st
}

// parseSimpleType parses a named simple type definition
func (s *Schema) parseSimpleType(elem xmldom.Element) error {
	name := string(elem.GetAttribute("name"))
	if name == "" {
		return nil // Anonymous type
	}

	st := s.parseInlineSimpleType(elem)
	st.QName = QName{
		Namespace: s.TargetNamespace,
		Local:     name,
	}

	s.mu.Lock()
	s.TypeDefs[st.QName] = st
	s.mu.Unlock()

	return nil
}

// parseInlineComplexType parses an inline (anonymous) complex type definition
func (s *Schema) parseInlineComplexType(elem xmldom.Element) *ComplexType {
	ct := &ComplexType{
		QName: QName{
			Namespace: s.TargetNamespace,
			Local:     "_anonymous",
		},
		Attributes: make([]*AttributeDecl, 0),
	}

	if mixed := string(elem.GetAttribute("mixed")); mixed == "true" {
		ct.Mixed = true
	}

	if abstract := string(elem.GetAttribute("abstract")); abstract == "true" {
		ct.Abstract = true
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "simpleContent":
			ct.Content = s.parseSimpleContent(child)
		case "complexContent":
			ct.Content = s.parseComplexContent(child)
		case "sequence", "choice", "all":
			ct.Content = s.parseModelGroup(child)
		case "group":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ct.Content = &GroupRef{
					Ref:    s.parseQName(ref),
					MinOcc: s.parseOccurs(child, "minOccurs", 1),
					MaxOcc: s.parseOccurs(child, "maxOccurs", 1),
				}
			}
		case "attribute":
			if attr := s.parseAttribute(child); attr != nil {
				ct.Attributes = append(ct.Attributes, attr)
			}
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ct.AttributeGroup = append(ct.AttributeGroup, s.parseQName(ref))
			}
		case "anyAttribute":
			ct.AnyAttribute = s.parseAnyAttribute(child)
		}
	}

	return ct
}

// parseComplexType parses a named complex type definition
func (s *Schema) parseComplexType(elem xmldom.Element) error {
	name := string(elem.GetAttribute("name"))
	if name == "" {
		return nil // Anonymous type
	}

	ct := s.parseInlineComplexType(elem)
	ct.QName = QName{
		Namespace: s.TargetNamespace,
		Local:     name,
	}

	s.mu.Lock()
	s.TypeDefs[ct.QName] = ct
	s.mu.Unlock()

	return nil
}

// parseRestriction parses an xs:restriction, for simple types (facets) and
// complexContent alike (restricted particle + attributes).
func (s *Schema) parseRestriction(elem xmldom.Element) *Restriction {
	r := &Restriction{
		Facets: make([]Facet, 0),
	}

	if base := string(elem.GetAttribute("base")); base != "" {
		r.Base = s.parseQName(base)
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		childName := string(child.LocalName())

		switch childName {
		case "annotation":
			continue
		case "simpleType":
			// Inline simpleType as base
			if r.Base == (QName{}) {
				st := s.parseInlineSimpleType(child)
				if st != nil {
					st.QName = QName{
						Namespace: s.TargetNamespace,
						Local:     fmt.Sprintf("_restriction_base_%d", i),
					}
					s.mu.Lock()
					s.TypeDefs[st.QName] = st
					s.mu.Unlock()
					r.Base = st.QName
				}
			}
			continue
		case "sequence", "choice", "all":
			r.Content = s.parseModelGroup(child)
			continue
		case "group":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				r.Content = &ModelGroup{
					Kind:   SequenceGroup,
					MinOcc: 1,
					MaxOcc: 1,
					Particles: []Particle{&GroupRef{
						Ref:    s.parseQName(ref),
						MinOcc: s.parseOccurs(child, "minOccurs", 1),
						MaxOcc: s.parseOccurs(child, "maxOccurs", 1),
					}},
				}
			}
			continue
		case "attribute":
			if attr := s.parseAttribute(child); attr != nil {
				r.Attributes = append(r.Attributes, attr)
			}
			continue
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				r.AttributeGroups = append(r.AttributeGroups, s.parseQName(ref))
			}
			continue
		}

		value := string(child.GetAttribute("value"))
		if facet := ParseFacet(childName, value, documentationOfChild(child)); facet != nil {
			// Enumeration values accumulate into a single facet
			if childName == "enumeration" {
				var found bool
				for _, existing := range r.Facets {
					if enum, ok := existing.(*EnumerationFacet); ok {
						enum.Values = append(enum.Values, EnumerationValue{
							Value:         value,
							Documentation: documentationOfChild(child),
						})
						found = true
						break
					}
				}
				if !found {
					r.Facets = append(r.Facets, facet)
				}
			} else {
				r.Facets = append(r.Facets, facet)
			}
		}
	}

	return r
}

func (s *Schema) parseList(elem xmldom.Element) *List {
	list := &List{}

	if itemType := string(elem.GetAttribute("itemType")); itemType != "" {
		list.ItemType = s.parseQName(itemType)
		return list
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		if string(child.LocalName()) == "simpleType" {
			if st := s.parseInlineSimpleType(child); st != nil {
				st.QName = QName{
					Namespace: s.TargetNamespace,
					Local:     fmt.Sprintf("_list_item_%d", i),
				}
				s.mu.Lock()
				s.TypeDefs[st.QName] = st
				s.mu.Unlock()
				list.ItemType = st.QName
				break
			}
		}
	}

	return list
}

func (s *Schema) parseUnion(elem xmldom.Element) *Union {
	u := &Union{
		MemberTypes: make([]QName, 0),
	}

	if memberTypes := string(elem.GetAttribute("memberTypes")); memberTypes != "" {
		for _, t := range strings.Fields(memberTypes) {
			u.MemberTypes = append(u.MemberTypes, s.parseQName(t))
		}
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		if string(child.LocalName()) == "simpleType" {
			if st := s.parseInlineSimpleType(child); st != nil {
				st.QName = QName{
					Namespace: s.TargetNamespace,
					Local:     fmt.Sprintf("_union_member_%d", i),
				}
				s.mu.Lock()
				s.TypeDefs[st.QName] = st
				s.mu.Unlock()
				u.MemberTypes = append(u.MemberTypes, st.QName)
			}
		}
	}

	return u
}

func (s *Schema) parseSimpleContent(elem xmldom.Element) *SimpleContent {
	sc := &SimpleContent{}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "extension":
			sc.Extension = s.parseExtension(child)
		case "restriction":
			sc.Restriction = s.parseRestriction(child)
		}
	}

	return sc
}

func (s *Schema) parseComplexContent(elem xmldom.Element) *ComplexContent {
	cc := &ComplexContent{}

	if mixed := string(elem.GetAttribute("mixed")); mixed == "true" {
		cc.Mixed = true
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "extension":
			cc.Extension = s.parseExtension(child)
		case "restriction":
			cc.Restriction = s.parseRestriction(child)
		}
	}

	return cc
}

func (s *Schema) parseModelGroup(elem xmldom.Element) *ModelGroup {
	mg := &ModelGroup{
		MinOcc:    s.parseOccurs(elem, "minOccurs", 1),
		MaxOcc:    s.parseOccurs(elem, "maxOccurs", 1),
		Particles: make([]Particle, 0),
	}

	switch string(elem.LocalName()) {
	case "sequence":
		mg.Kind = SequenceGroup
	case "choice":
		mg.Kind = ChoiceGroup
	case "all":
		mg.Kind = AllGroup
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "element":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				mg.Particles = append(mg.Particles, &ElementRef{
					Ref:    s.parseQName(ref),
					MinOcc: s.parseOccurs(child, "minOccurs", 1),
					MaxOcc: s.parseOccurs(child, "maxOccurs", 1),
				})
			} else if inline := s.parseElementDecl(child); inline != nil {
				mg.Particles = append(mg.Particles, inline)
			}
		case "group":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				mg.Particles = append(mg.Particles, &GroupRef{
					Ref:    s.parseQName(ref),
					MinOcc: s.parseOccurs(child, "minOccurs", 1),
					MaxOcc: s.parseOccurs(child, "maxOccurs", 1),
				})
			}
		case "choice", "sequence", "all":
			mg.Particles = append(mg.Particles, s.parseModelGroup(child))
		case "any":
			mg.Particles = append(mg.Particles, &AnyElement{
				Namespace:       string(child.GetAttribute("namespace")),
				ProcessContents: string(child.GetAttribute("processContents")),
				MinOcc:          s.parseOccurs(child, "minOccurs", 1),
				MaxOcc:          s.parseOccurs(child, "maxOccurs", 1),
			})
		}
	}

	return mg
}

// parseOccurs parses minOccurs/maxOccurs attributes
func (s *Schema) parseOccurs(elem xmldom.Element, attr string, defaultValue int) int {
	value := string(elem.GetAttribute(xmldom.DOMString(attr)))
	if value == "" {
		return defaultValue
	}
	if value == "unbounded" {
		return -1
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}

func (s *Schema) parseAttribute(elem xmldom.Element) *AttributeDecl {
	attr := &AttributeDecl{Use: OptionalUse}

	if ref := string(elem.GetAttribute("ref")); ref != "" {
		attr.Ref = s.parseQName(ref)
		attr.Name = attr.Ref
	} else if name := string(elem.GetAttribute("name")); name != "" {
		attr.Name = QName{
			Namespace: s.TargetNamespace,
			Local:     name,
		}
	} else {
		return nil
	}

	if use := string(elem.GetAttribute("use")); use != "" {
		attr.Use = AttributeUse(use)
	}

	attr.Default = string(elem.GetAttribute("default"))
	attr.Fixed = string(elem.GetAttribute("fixed"))

	if typeName := string(elem.GetAttribute("type")); typeName != "" {
		attr.Type = s.resolveType(typeName)
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "annotation":
			attr.Documentation = documentationOf(child)
		case "simpleType":
			if st := s.parseInlineSimpleType(child); st != nil {
				attr.Type = st
			}
		}
	}

	return attr
}

func (s *Schema) parseAnyAttribute(elem xmldom.Element) *AnyAttribute {
	return &AnyAttribute{
		Namespace:       string(elem.GetAttribute("namespace")),
		ProcessContents: string(elem.GetAttribute("processContents")),
	}
}

func (s *Schema) parseExtension(elem xmldom.Element) *Extension {
	ext := &Extension{
		Base:       s.parseQName(string(elem.GetAttribute("base"))),
		Attributes: make([]*AttributeDecl, 0),
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "attribute":
			if attr := s.parseAttribute(child); attr != nil {
				ext.Attributes = append(ext.Attributes, attr)
			}
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ext.AttributeGroups = append(ext.AttributeGroups, s.parseQName(ref))
			}
		case "sequence", "choice", "all":
			ext.Content = s.parseModelGroup(child)
		case "group":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ext.Content = &GroupRef{
					Ref:    s.parseQName(ref),
					MinOcc: s.parseOccurs(child, "minOccurs", 1),
					MaxOcc: s.parseOccurs(child, "maxOccurs", 1),
				}
			}
		case "anyAttribute":
			ext.AnyAttribute = s.parseAnyAttribute(child)
		}
	}

	return ext
}

func (s *Schema) parseAttributeGroup(elem xmldom.Element) error {
	name := string(elem.GetAttribute("name"))
	if name == "" {
		return nil // Could be a reference
	}

	ag := &AttributeGroup{
		Name: QName{
			Namespace: s.TargetNamespace,
			Local:     name,
		},
		Attributes: make([]*AttributeDecl, 0),
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "attribute":
			if attr := s.parseAttribute(child); attr != nil {
				ag.Attributes = append(ag.Attributes, attr)
			}
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ag.Groups = append(ag.Groups, s.parseQName(ref))
			}
		}
	}

	s.mu.Lock()
	s.AttributeGroups[ag.Name] = ag
	s.mu.Unlock()

	return nil
}

func (s *Schema) parseGroup(elem xmldom.Element) error {
	name := string(elem.GetAttribute("name"))
	if name == "" {
		return nil // Could be a reference
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}

		switch string(child.LocalName()) {
		case "sequence", "choice", "all":
			mg := s.parseModelGroup(child)
			s.mu.Lock()
			s.Groups[QName{Namespace: s.TargetNamespace, Local: name}] = mg
			s.mu.Unlock()
			return nil
		}
	}

	return nil
}

func (s *Schema) parseImport(elem xmldom.Element) error {
	imp := &Import{
		Namespace:      string(elem.GetAttribute("namespace")),
		SchemaLocation: string(elem.GetAttribute("schemaLocation")),
	}

	s.Imports = append(s.Imports, imp)
	return nil
}

func (s *Schema) parseQName(name string) QName {
	if name == "" {
		return QName{}
	}

	parts := strings.SplitN(name, ":", 2)
	if len(parts) == 2 {
		prefix := parts[0]
		local := parts[1]

		if prefix == "xs" || prefix == "xsd" {
			return QName{
				Namespace: XSDNamespace,
				Local:     local,
			}
		}

		if prefix == "xml" {
			return QName{
				Namespace: XMLNamespace,
				Local:     local,
			}
		}

		// Resolve the prefix from the schema document's root element
		if s.doc != nil {
			root := s.doc.DocumentElement()
			if root != nil {
				attrs := root.Attributes()
				for i := uint(0); i < attrs.Length(); i++ {
					attr := attrs.Item(i)
					if attr == nil {
						continue
					}
					if string(attr.NodeName()) == "xmlns:"+prefix {
						return QName{
							Namespace: string(attr.NodeValue()),
							Local:     local,
						}
					}
				}

				// Common case: a prefix bound to the target namespace that
				// the DOM did not surface as an attribute node.
				return QName{
					Namespace: s.TargetNamespace,
					Local:     local,
				}
			}
		}

		return QName{
			Local: name,
		}
	}

	return QName{
		Namespace: s.TargetNamespace,
		Local:     name,
	}
}

func (s *Schema) resolveType(name string) Type {
	qname := s.parseQName(name)

	s.mu.RLock()
	if t, ok := s.TypeDefs[qname]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	if s.ImportedSchemas != nil {
		for _, importedSchema := range s.ImportedSchemas {
			importedSchema.mu.RLock()
			if t, ok := importedSchema.TypeDefs[qname]; ok {
				importedSchema.mu.RUnlock()
				return t
			}
			importedSchema.mu.RUnlock()
		}
	}

	// Placeholder resolved in the second pass
	return &SimpleType{QName: qname}
}

// TypeByName looks up a named type here and then transitively through
// imported/included schemas. Nil when unknown.
func (s *Schema) TypeByName(qname QName) Type {
	return s.typeByName(qname, map[*Schema]bool{})
}

func (s *Schema) typeByName(qname QName, visited map[*Schema]bool) Type {
	if visited[s] {
		return nil
	}
	visited[s] = true

	s.mu.RLock()
	t, ok := s.TypeDefs[qname]
	s.mu.RUnlock()
	if ok {
		return t
	}
	for _, imported := range s.ImportedSchemas {
		if t := imported.typeByName(qname, visited); t != nil {
			return t
		}
	}
	return nil
}

// ElementByName looks up a top-level element declaration here and then
// transitively through imported/included schemas. Nil when unknown.
func (s *Schema) ElementByName(qname QName) *ElementDecl {
	return s.elementByName(qname, map[*Schema]bool{})
}

func (s *Schema) elementByName(qname QName, visited map[*Schema]bool) *ElementDecl {
	if visited[s] {
		return nil
	}
	visited[s] = true

	s.mu.RLock()
	decl, ok := s.ElementDecls[qname]
	s.mu.RUnlock()
	if ok {
		return decl
	}
	for _, imported := range s.ImportedSchemas {
		if decl := imported.elementByName(qname, visited); decl != nil {
			return decl
		}
	}
	return nil
}

// GroupByName looks up a named model group transitively. Nil when unknown.
func (s *Schema) GroupByName(qname QName) *ModelGroup {
	return s.groupByName(qname, map[*Schema]bool{})
}

func (s *Schema) groupByName(qname QName, visited map[*Schema]bool) *ModelGroup {
	if visited[s] {
		return nil
	}
	visited[s] = true

	s.mu.RLock()
	g, ok := s.Groups[qname]
	s.mu.RUnlock()
	if ok {
		return g
	}
	for _, imported := range s.ImportedSchemas {
		if g := imported.groupByName(qname, visited); g != nil {
			return g
		}
	}
	return nil
}

// AttributeGroupByName looks up a named attribute group transitively.
func (s *Schema) AttributeGroupByName(qname QName) *AttributeGroup {
	return s.attributeGroupByName(qname, map[*Schema]bool{})
}

func (s *Schema) attributeGroupByName(qname QName, visited map[*Schema]bool) *AttributeGroup {
	if visited[s] {
		return nil
	}
	visited[s] = true

	s.mu.RLock()
	g, ok := s.AttributeGroups[qname]
	s.mu.RUnlock()
	if ok {
		return g
	}
	for _, imported := range s.ImportedSchemas {
		if g := imported.attributeGroupByName(qname, visited); g != nil {
			return g
		}
	}
	return nil
}

// AttributeByName looks up a top-level attribute declaration transitively.
func (s *Schema) AttributeByName(qname QName) *AttributeDecl {
	s.mu.RLock()
	a, ok := s.AttributeDecls[qname]
	s.mu.RUnlock()
	if ok {
		return a
	}
	for _, imported := range s.ImportedSchemas {
		if a := imported.AttributeByName(qname); a != nil {
			return a
		}
	}
	return nil
}

// resolveInlineElementTypes resolves placeholder types for inline
// ElementDecl particles after all named types are known.
func (s *Schema) resolveInlineElementTypes(particles []Particle) {
	for _, p := range particles {
		switch pt := p.(type) {
		case *ElementDecl:
			if pt.Type != nil {
				if st, ok := pt.Type.(*SimpleType); ok && st.Restriction == nil && st.List == nil && st.Union == nil {
					if actualType, exists := s.TypeDefs[st.QName]; exists {
						pt.Type = actualType
					} else if st.QName.Namespace == "" && strings.Contains(st.QName.Local, ":") {
						resolvedQName := s.parseQName(st.QName.Local)
						if actualType, exists := s.TypeDefs[resolvedQName]; exists {
							pt.Type = actualType
						}
					}
				}
			}
		case *ModelGroup:
			s.resolveInlineElementTypes(pt.Particles)
		}
	}
}

// resolveParticles recursively inlines GroupRef particles with cycle detection
func (s *Schema) resolveParticles(particles []Particle) []Particle {
	return s.resolveParticlesWithVisited(particles, make(map[QName]bool))
}

func (s *Schema) resolveParticlesWithVisited(particles []Particle, visited map[QName]bool) []Particle {
	var resolved []Particle

	for _, p := range particles {
		switch pt := p.(type) {
		case *GroupRef:
			if visited[pt.Ref] {
				// Cycle: keep the unresolved reference
				resolved = append(resolved, pt)
				continue
			}
			visited[pt.Ref] = true

			if group, exists := s.Groups[pt.Ref]; exists {
				resolvedGroup := &ModelGroup{
					Kind:      group.Kind,
					Particles: s.resolveParticlesWithVisited(group.Particles, visited),
					MinOcc:    pt.MinOcc,
					MaxOcc:    pt.MaxOcc,
				}
				if pt.MinOcc == 0 && pt.MaxOcc == 0 {
					resolvedGroup.MinOcc = group.MinOcc
					resolvedGroup.MaxOcc = group.MaxOcc
				}
				resolved = append(resolved, resolvedGroup)
			} else {
				resolved = append(resolved, pt)
			}

			delete(visited, pt.Ref)

		case *ModelGroup:
			pt.Particles = s.resolveParticlesWithVisited(pt.Particles, visited)
			resolved = append(resolved, pt)
		default:
			resolved = append(resolved, p)
		}
	}

	return resolved
}

// Type interface implementations

func (st *SimpleType) Name() QName {
	return st.QName
}

func (ct *ComplexType) Name() QName {
	return ct.QName
}

// documentationOf concatenates the text of all xs:documentation children of
// an xs:annotation element.
func documentationOf(annotation xmldom.Element) string {
	var parts []string
	children := annotation.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		if string(child.LocalName()) == "documentation" {
			if text := strings.TrimSpace(string(child.TextContent())); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// documentationOfChild finds an xs:annotation child and returns its
// documentation text, for nodes like xs:enumeration.
func documentationOfChild(elem xmldom.Element) string {
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		if string(child.LocalName()) == "annotation" {
			return documentationOf(child)
		}
	}
	return ""
}

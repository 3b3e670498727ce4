package complete

import (
	"strings"

	"github.com/faticalabs/xmledit/xmlpath"
)

// Completer turns a keystroke into completion items. It owns no per-request
// state: every call is a pure function of the document text, the caret
// offset, the typed character and the schema collection.
type Completer struct {
	Schemas *Collection
}

// NewCompleter returns a completer over a schema collection.
func NewCompleter(schemas *Collection) *Completer {
	return &Completer{Schemas: schemas}
}

// Complete classifies the edit context at offset after typed was entered and
// returns the schema-legal completions, deduplicated and order-stable. An
// unrecognized context yields nil, never an error.
func (c *Completer) Complete(text string, offset int, typed byte) []Item {
	switch typed {
	case '<':
		return c.elementCompletions(text, offset)
	case ' ':
		return c.attributeCompletions(text, offset)
	case '=':
		if xmlpath.IsNamespaceDeclaration(text, offset) {
			return c.Schemas.NamespaceCompletions()
		}
		return c.attributeValueCompletions(text, offset)
	case '"':
		return c.attributeValueCompletions(text, offset)
	default:
		if typed != '>' && xmlpath.InsideAttributeValue(text, offset) {
			return c.attributeValueCompletions(text, offset)
		}
	}
	return nil
}

func (c *Completer) elementCompletions(text string, offset int) []Item {
	if xmlpath.InsideComment(text, offset) {
		return nil
	}
	path := xmlpath.ParentElementPath(text, offset)
	if len(path) == 0 {
		if def := c.Schemas.Default(); def != nil {
			return dedupe(def.ElementCompletions(""))
		}
		return nil
	}
	data, adjusted := c.Schemas.Find(path)
	if data == nil {
		return nil
	}
	return dedupe(data.ChildElementCompletions(adjusted))
}

func (c *Completer) attributeCompletions(text string, offset int) []Item {
	path := xmlpath.ActiveElementStartPath(text, offset)
	if len(path) == 0 {
		return nil
	}
	data, adjusted := c.Schemas.Find(path)
	if data == nil {
		return nil
	}
	present := xmlpath.PresentAttributes(text, offset)
	return dedupe(data.AttributeCompletions(adjusted, present))
}

func (c *Completer) attributeValueCompletions(text string, offset int) []Item {
	name := xmlpath.AttributeName(text, offset)
	if name == "" {
		name = xmlpath.AttributeNameAt(text, offset)
	}
	if name == "" {
		return nil
	}
	// Value completion for an xmlns declaration offers the known namespaces.
	if name == "xmlns" || strings.HasPrefix(name, "xmlns:") {
		return c.Schemas.NamespaceCompletions()
	}
	path := xmlpath.ActiveElementStartPath(text, offset)
	if len(path) == 0 {
		return nil
	}
	data, adjusted := c.Schemas.Find(path)
	if data == nil {
		return nil
	}
	return dedupe(data.AttributeValueCompletions(adjusted, name))
}

// Package complete produces schema-aware completion candidates for an XML
// document being edited. It combines the positional parser (xmlpath) with a
// compiled schema graph (xsd): the caller reports the character just typed
// and the caret position, and gets back the schema-legal elements,
// attributes or values for that spot.
package complete

import "github.com/faticalabs/xmledit/xmlpath"

// Kind discriminates what a completion item stands for.
type Kind int

const (
	KindElement Kind = iota
	KindAttribute
	KindAttributeValue
	KindNamespaceURI
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	case KindAttributeValue:
		return "attribute-value"
	case KindNamespaceURI:
		return "namespace-uri"
	}
	return "unknown"
}

// Item is one completion candidate. Items are created fresh per request and
// are immutable; Mandatory is only meaningful for attributes
// (use="required").
type Item struct {
	Text        string
	Description string
	Kind        Kind
	Mandatory   bool
}

// Apply performs the item's document mutation: the new text and the new
// caret position after accepting the item at the given caret.
//
//   - Element inserts the text verbatim.
//   - Attribute inserts `name=""` and puts the caret between the quotes, so
//     the editor can chain straight into value completion.
//   - AttributeValue replaces whatever partial value was already typed and
//     lands one position past the closing quote.
//   - NamespaceURI inserts the text wrapped in quotes.
func (it Item) Apply(doc string, caret int) (string, int) {
	if caret < 0 {
		caret = 0
	}
	if caret > len(doc) {
		caret = len(doc)
	}
	switch it.Kind {
	case KindAttribute:
		ins := it.Text + `=""`
		return doc[:caret] + ins + doc[caret:], caret + len(it.Text) + 2
	case KindAttributeValue:
		start, length := xmlpath.CurrentAttributeValueSpan(doc, caret)
		out := doc[:start] + it.Text + doc[start+length:]
		next := start + len(it.Text)
		// Land past the closing quote only when it has been typed.
		if next < len(out) && (out[next] == '"' || out[next] == '\'') {
			next++
		}
		return out, next
	case KindNamespaceURI:
		ins := `"` + it.Text + `"`
		return doc[:caret] + ins + doc[caret:], caret + len(ins)
	default:
		return doc[:caret] + it.Text + doc[caret:], caret + len(it.Text)
	}
}

// dedupe drops later duplicates by kind and text, keeping first occurrence
// order stable.
func dedupe(items []Item) []Item {
	if len(items) < 2 {
		return items
	}
	type key struct {
		kind Kind
		text string
	}
	seen := make(map[key]bool, len(items))
	out := items[:0]
	for _, it := range items {
		k := key{it.Kind, it.Text}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

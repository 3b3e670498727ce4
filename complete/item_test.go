package complete

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyElement(t *testing.T) {
	doc, caret := Item{Text: "book", Kind: KindElement}.Apply("<library><", 10)
	assert.Equal(t, "<library><book", doc)
	assert.Equal(t, 14, caret)
}

func TestApplyAttributePlacesCaretBetweenQuotes(t *testing.T) {
	doc, caret := Item{Text: "open", Kind: KindAttribute}.Apply("<library ", 9)
	assert.Equal(t, `<library open=""`, doc)
	assert.Equal(t, `<library open="`, doc[:caret])
}

func TestApplyAttributeValueReplacesPartialValue(t *testing.T) {
	// No closing quote typed yet: the caret stays inside the document.
	src := `<library open="tr`
	doc, caret := Item{Text: "true", Kind: KindAttributeValue}.Apply(src, len(src))
	assert.Equal(t, `<library open="true`, doc)
	assert.Equal(t, len(doc), caret)

	// Closing quote present: the caret lands one past it.
	src = `<library open="tr">`
	doc, caret = Item{Text: "true", Kind: KindAttributeValue}.Apply(src, 17)
	assert.Equal(t, `<library open="true">`, doc)
	assert.Equal(t, len(`<library open="true"`), caret)
}

func TestApplyNamespaceURIWrapsInQuotes(t *testing.T) {
	src := `<library xmlns=`
	doc, caret := Item{Text: "urn:x", Kind: KindNamespaceURI}.Apply(src, len(src))
	assert.Equal(t, `<library xmlns="urn:x"`, doc)
	assert.Equal(t, len(doc), caret)
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	items := dedupe([]Item{
		{Text: "a", Kind: KindElement, Description: "first"},
		{Text: "b", Kind: KindElement},
		{Text: "a", Kind: KindElement, Description: "second"},
		{Text: "a", Kind: KindAttribute},
	})
	assert.Len(t, items, 3)
	assert.Equal(t, "first", items[0].Description)
}

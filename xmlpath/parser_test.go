package xmlpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(p ElementPath) []string {
	out := make([]string, len(p))
	for i, q := range p {
		out[i] = q.Name
	}
	return out
}

func TestParentElementPath(t *testing.T) {
	for _, tc := range []struct {
		name   string
		text   string
		offset int
		want   []string
	}{
		{"open tags in order", "<a><b><c>", 9, []string{"a", "b", "c"}},
		{"closed child popped", "<a><b></b>", 10, []string{"a"}},
		{"self closing not pushed", "<a><b/>", 7, []string{"a"}},
		{"empty text", "", 0, nil},
		{"text only", "hello", 5, nil},
		{"truncated open tag ignored", "<a><b", 5, []string{"a"}},
		{"attributes on open tags", `<a x="1"><b y="2">`, 18, []string{"a", "b"}},
		{"comment skipped", "<a><!-- <ghost> --><b>", 22, []string{"a", "b"}},
		{"cdata skipped", "<a><![CDATA[<x>]]><b>", 21, []string{"a", "b"}},
		{"offset past end clamps", "<a>", 100, []string{"a"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, namesOrNil(ParentElementPath(tc.text, tc.offset)))
		})
	}
}

func namesOrNil(p ElementPath) []string {
	if len(p) == 0 {
		return nil
	}
	return names(p)
}

func TestParentElementPathNamespaces(t *testing.T) {
	text := `<r xmlns="urn:one" xmlns:t="urn:two"><t:mid><leaf>`
	path := ParentElementPath(text, len(text))
	// Compacted to the trailing run sharing leaf's namespace (urn:one).
	require.Len(t, path, 1)
	assert.Equal(t, "leaf", path[0].Name)
	assert.Equal(t, "urn:one", path[0].Namespace)

	text = `<r xmlns="urn:one"><mid><leaf>`
	path = ParentElementPath(text, len(text))
	require.Len(t, path, 3)
	for i, want := range []string{"r", "mid", "leaf"} {
		assert.Equal(t, want, path[i].Name)
		assert.Equal(t, "urn:one", path[i].Namespace)
	}
}

func TestInScopeNamespaces(t *testing.T) {
	text := `<r xmlns="urn:one" xmlns:t="urn:two"><t:mid xmlns:t="urn:three">`
	got := InScopeNamespaces(text, len(text))
	assert.Equal(t, []NamespaceBinding{
		{URI: "urn:one", Prefix: ""},
		{URI: "urn:three", Prefix: "t"},
	}, got, "innermost declaration wins per prefix")

	assert.Nil(t, InScopeNamespaces("plain text", 10))
}

func TestActiveElementStartPath(t *testing.T) {
	text := `<root xmlns="urn:a"><item `
	path := ActiveElementStartPath(text, len(text))
	require.Len(t, path, 2)
	assert.Equal(t, "item", path[1].Name)
	assert.Equal(t, "urn:a", path[1].Namespace, "open tag inherits default namespace")

	// Inline declaration on the open tag itself wins.
	text = `<root xmlns="urn:a"><p:item xmlns:p="urn:b" `
	path = ActiveElementStartPath(text, len(text))
	require.Len(t, path, 1, "compacted to the open tag's own namespace")
	assert.Equal(t, "item", path[0].Name)
	assert.Equal(t, "urn:b", path[0].Namespace)

	// Ambient prefix binding resolves an undeclared prefix.
	text = `<root xmlns:p="urn:b"><p:item `
	path = ActiveElementStartPath(text, len(text))
	require.Len(t, path, 1)
	assert.Equal(t, "urn:b", path[0].Namespace)

	// Bare '<' contributes nothing.
	path = ActiveElementStartPath("<root><", 7)
	require.Len(t, path, 1)
	assert.Equal(t, "root", path[0].Name)
}

func TestActiveElementStartPathAt(t *testing.T) {
	// Caret in the middle of the element name.
	text := `<root><item attr="v">`
	path := ActiveElementStartPathAt(text, 9)
	require.Len(t, path, 2)
	assert.Equal(t, []string{"root", "item"}, names(path))
}

func TestIsNamespaceDeclaration(t *testing.T) {
	for _, tc := range []struct {
		text   string
		offset int
		want   bool
	}{
		{"<a xmlns", 8, true},
		{"<a foo", 6, false},
		{"<a xmlns=", 9, true},
		{"<a xmlns:p", 10, true},
		{"<a xmlns:p=", 11, true},
		{"<a pxmlns", 9, false},
		{"", 0, false},
	} {
		assert.Equal(t, tc.want, IsNamespaceDeclaration(tc.text, tc.offset),
			"text %q offset %d", tc.text, tc.offset)
	}
}

func TestInsideAttributeValue(t *testing.T) {
	for _, tc := range []struct {
		text   string
		offset int
		want   bool
	}{
		{`<a b="x`, 7, true},
		{`<a b="x"`, 8, false},
		{`<a b='x`, 7, true},
		{`<a b="x" c="`, 12, true},
		{`<a>text`, 7, false},
		{``, 0, false},
		{`no tags here`, 5, false},
	} {
		assert.Equal(t, tc.want, InsideAttributeValue(tc.text, tc.offset),
			"text %q offset %d", tc.text, tc.offset)
	}
}

func TestAttributeName(t *testing.T) {
	for _, tc := range []struct {
		text   string
		offset int
		want   string
	}{
		{`<a b="x`, 7, "b"},
		{`<a name="`, 9, "name"},
		{`<a name = "`, 11, "name"},
		{`<a name=`, 8, "name"},
		// '=' bytes inside the partial value never bind the name.
		{`<a href="x=y`, 12, "href"},
		{`<a href="?k=v&x=y`, 17, "href"},
		{`<a>`, 3, ""},
		{``, 0, ""},
	} {
		assert.Equal(t, tc.want, AttributeName(tc.text, tc.offset),
			"text %q offset %d", tc.text, tc.offset)
	}
}

func TestAttributeNameAt(t *testing.T) {
	text := `<a country="us"`
	// Caret inside the word "country".
	assert.Equal(t, "country", AttributeNameAt(text, 6))
	// Caret just after the '='.
	assert.Equal(t, "country", AttributeNameAt(text, 11))
	assert.Equal(t, "", AttributeNameAt("", 0))
}

func TestAttributeValueSpan(t *testing.T) {
	text := `<a b="partial`
	start, length := CurrentAttributeValueSpan(text, len(text))
	assert.Equal(t, 6, start)
	assert.Equal(t, len("partial"), length)
	assert.Equal(t, "partial", AttributeValueAt(text, len(text)))

	// Closing quote already present: span still covers the typed value.
	text = `<a b="partial"`
	start, length = CurrentAttributeValueSpan(text, 10)
	assert.Equal(t, 6, start)
	assert.Equal(t, len("partial"), length)

	// Not inside a value: empty span at the caret.
	start, length = CurrentAttributeValueSpan("<a b", 4)
	assert.Equal(t, 4, start)
	assert.Zero(t, length)
}

func TestPresentAttributes(t *testing.T) {
	text := `<book id="1" title="go" lang='en' `
	assert.Equal(t, []string{"id", "title", "lang"}, PresentAttributes(text, len(text)))

	// Unclosed final value still counts.
	text = `<book id="1" title="go`
	assert.Equal(t, []string{"id", "title"}, PresentAttributes(text, len(text)))

	assert.Nil(t, PresentAttributes("no tag", 6))
}

func TestInsideComment(t *testing.T) {
	text := `<a><!-- note --><b>`
	assert.True(t, InsideComment(text, 10))
	assert.False(t, InsideComment(text, 16), "just past the close marker")
	assert.False(t, InsideComment(text, 3))
	assert.True(t, InsideComment("<!-- open", 9))
}

func TestCurrentUnclosedElement(t *testing.T) {
	for _, tc := range []struct {
		name   string
		text   string
		offset int
		want   string
	}{
		{"innermost open tag", "<a><b>", 6, "b"},
		{"balanced pair gives nothing", "<a><b></b>", 10, ""},
		{"self closing ignored", "<a><b/>", 7, ""},
		{"mismatched close gives up", "<a><b></c>", 10, ""},
		{"stray close gives up", "</a>", 4, ""},
		{"tag inside comment ignored", "<!-- <a> -->", 12, ""},
		{"open tag after comment", "<!-- x --><a>", 13, "a"},
		{"empty", "", 0, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurrentUnclosedElement(tc.text, tc.offset))
		})
	}
}

func TestPurity(t *testing.T) {
	// Identical inputs give identical outputs; nothing leaks across calls.
	text := `<r xmlns="urn:a"><item `
	first := ActiveElementStartPath(text, len(text))
	second := ActiveElementStartPath(text, len(text))
	assert.True(t, first.Equal(second))
}

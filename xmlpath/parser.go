package xmlpath

import (
	"regexp"
	"strings"
)

// attrPattern matches one complete name="value" attribute inside a start tag
// body. Single and double quotes are both accepted.
var attrPattern = regexp.MustCompile(`([A-Za-z_][\w.:\-]*)\s*=\s*("[^"]*"|'[^']*')`)

// presentAttrPattern additionally tolerates a value whose closing quote has
// not been typed yet.
var presentAttrPattern = regexp.MustCompile(`([A-Za-z_][\w.:\-]*)\s*=\s*("[^"]*"?|'[^']*'?)`)

var commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

// ParentElementPath returns the ancestor path of the element enclosing the
// caret, compacted to the trailing same-namespace run. The scan tolerates the
// truncated tail that is always present while the user is typing.
func ParentElementPath(text string, offset int) ElementPath {
	st := scanPrefix(clampText(text, offset))
	return st.stack.Compact()
}

// InScopeNamespaces returns the xmlns bindings in force at the caret,
// innermost declaration winning per prefix, sorted by prefix.
func InScopeNamespaces(text string, offset int) []NamespaceBinding {
	st := scanPrefix(clampText(text, offset))
	return st.bindings()
}

// ActiveElementStartPath returns the parent path extended with the start tag
// the caret currently sits in. The open tag's own name and any inline
// xmlns[:prefix] declarations are taken from the typed portion of the tag;
// an undeclared prefix resolves against the ambient bindings.
func ActiveElementStartPath(text string, offset int) ElementPath {
	if offset > len(text) {
		offset = len(text)
	}
	tagStart := strings.LastIndexByte(text[:offset], '<')
	if tagStart < 0 {
		return ParentElementPath(text, offset)
	}
	seg := normalizeSpace(text[tagStart+1 : offset])
	if end := strings.IndexByte(seg, '>'); end >= 0 {
		seg = seg[:end]
	}
	name := strings.TrimSuffix(tagName(strings.TrimSpace(seg)), "/")
	st := scanPrefix(text[:tagStart])
	if name == "" {
		return st.stack.Compact()
	}
	prefix, local := splitName(name)
	inline := xmlnsDeclarations(seg)
	ns, ok := inline[prefix]
	if !ok {
		ns = st.lookup(prefix)
	}
	path := append(st.stack.Clone(), QualifiedName{Name: local, Prefix: prefix, Namespace: ns})
	return path.Compact()
}

// ActiveElementStartPathAt behaves like ActiveElementStartPath when the
// offset may fall inside the element name itself: it first advances past the
// remaining name characters to reach the tag boundary.
func ActiveElementStartPathAt(text string, offset int) ElementPath {
	if offset < 0 {
		offset = 0
	}
	for offset < len(text) && isNameByte(text[offset]) {
		offset++
	}
	return ActiveElementStartPath(text, offset)
}

// IsNamespaceDeclaration reports whether the attribute being typed at the
// caret is an xmlns or xmlns:prefix declaration. A trailing '=' is stripped
// before the name is examined.
func IsNamespaceDeclaration(text string, offset int) bool {
	i := clampIndex(text, offset)
	if i < 0 {
		return false
	}
	if text[i] == '=' {
		i--
	}
	end := i
	for i >= 0 && isNameByte(text[i]) {
		i--
	}
	token := text[i+1 : end+1]
	return token == "xmlns" || strings.HasPrefix(token, "xmlns:")
}

// AttributeName returns the name of the attribute whose value the caret is
// in, skipping back over the partial value, its opening quote and the '='.
// Empty when no attribute name precedes the caret.
func AttributeName(text string, offset int) string {
	i := clampIndex(text, offset)
	// Inside a quoted value, jump to the opening quote first so '=' bytes
	// within the value never bind the name.
	if InsideAttributeValue(text, offset) {
		start, _ := CurrentAttributeValueSpan(text, offset)
		i = start - 2
	}
	for i >= 0 {
		c := text[i]
		if c == '=' {
			break
		}
		if c == '<' || c == '>' {
			return ""
		}
		i--
	}
	if i < 0 {
		return ""
	}
	i-- // past '='
	for i >= 0 && isSpace(text[i]) {
		i--
	}
	end := i
	for i >= 0 && isNameByte(text[i]) {
		i--
	}
	if end < 0 || i == end {
		return ""
	}
	return text[i+1 : end+1]
}

// AttributeNameAt returns the full attribute name around the caret when the
// caret sits inside (or just after) the name itself.
func AttributeNameAt(text string, offset int) string {
	i := clampIndex(text, offset)
	for i >= 0 && (text[i] == '=' || text[i] == '"' || text[i] == '\'' || isSpace(text[i])) {
		i--
	}
	if i < 0 || !isNameByte(text[i]) {
		return ""
	}
	start := i
	for start >= 0 && isNameByte(text[start]) {
		start--
	}
	end := i + 1
	for end < len(text) && isNameByte(text[end]) {
		end++
	}
	return text[start+1 : end]
}

// InsideAttributeValue reports whether the caret is between the opening
// quote of an attribute value and its (possibly not yet typed) closing
// quote, within the active tag.
func InsideAttributeValue(text string, offset int) bool {
	if offset > len(text) {
		offset = len(text)
	}
	start := strings.LastIndexByte(text[:offset], '<')
	if start < 0 {
		return false
	}
	var quote byte
	for i := start; i < offset; i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '>':
			return false
		}
	}
	return quote != 0
}

// AttributeValueAt returns the literal (possibly partial) attribute value
// the caret is inside of, or "" when the caret is not inside a value.
func AttributeValueAt(text string, offset int) string {
	start, length := CurrentAttributeValueSpan(text, offset)
	return text[start : start+length]
}

// CurrentAttributeValueSpan locates the span of the current attribute value
// so an accepted completion can replace what was already typed. The span
// runs from just after the opening quote to the closing quote, or to the end
// of what has been typed so far. When the caret is not inside a value the
// span is empty at the caret.
func CurrentAttributeValueSpan(text string, offset int) (start, length int) {
	if offset > len(text) {
		offset = len(text)
	}
	tagStart := strings.LastIndexByte(text[:offset], '<')
	if tagStart < 0 {
		return offset, 0
	}
	var quote byte
	open := -1
	for i := tagStart; i < offset; i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
				open = -1
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
			open = i
		case '>':
			return offset, 0
		}
	}
	if open < 0 {
		return offset, 0
	}
	end := open + 1
	for end < len(text) {
		c := text[end]
		if c == quote || c == '<' || c == '>' || c == '\n' {
			break
		}
		end++
	}
	return open + 1, end - open - 1
}

// PresentAttributes extracts the attribute names already present in the
// enclosing tag's raw text, in document order. Completion uses this to drop
// attributes the user already typed.
func PresentAttributes(text string, offset int) []string {
	if offset > len(text) {
		offset = len(text)
	}
	start := strings.LastIndexByte(text[:offset], '<')
	if start < 0 {
		return nil
	}
	seg := text[start:]
	if end := strings.IndexByte(seg, '>'); end >= 0 {
		seg = seg[:end]
	}
	var names []string
	for _, m := range presentAttrPattern.FindAllStringSubmatch(seg, -1) {
		names = append(names, m[1])
	}
	return names
}

// InsideComment reports whether the caret sits strictly between a "<!--"
// and its matching "-->".
func InsideComment(text string, offset int) bool {
	if offset > len(text) {
		offset = len(text)
	}
	open := strings.LastIndex(text[:offset], "<!--")
	close := strings.LastIndex(text[:offset], "-->")
	return open >= 0 && open > close
}

// CurrentUnclosedElement returns the name of the innermost element still
// open at the caret, but only when the most recent tag is an unanswered
// start tag, so the editor can offer to auto-close it. Self-closing tags
// never count. Any structural mismatch, including a close tag with nothing
// open, means the text cannot be trusted and yields "".
func CurrentUnclosedElement(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	pre := commentPattern.ReplaceAllString(text[:offset], "")
	// A trailing unterminated comment hides everything typed inside it.
	if open := strings.LastIndex(pre, "<!--"); open >= 0 {
		pre = pre[:open]
	}
	var stack []string
	justOpened := false
	i := 0
	for i < len(pre) {
		if pre[i] != '<' {
			i++
			continue
		}
		rest := pre[i:]
		switch {
		case strings.HasPrefix(rest, "</"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				i = len(pre)
				break
			}
			name := strings.TrimSpace(rest[2:end])
			if len(stack) == 0 {
				return ""
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top != name {
				return ""
			}
			justOpened = false
			i += end + 1
		case strings.HasPrefix(rest, "<!") || strings.HasPrefix(rest, "<?"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				i = len(pre)
				break
			}
			i += end + 1
		default:
			end := tagEnd(pre, i+1)
			if end < 0 {
				i = len(pre)
				break
			}
			body := strings.TrimSpace(pre[i+1 : end])
			selfClosing := strings.HasSuffix(body, "/")
			name := strings.TrimSuffix(tagName(body), "/")
			if name != "" && !selfClosing {
				stack = append(stack, name)
				justOpened = true
			} else {
				justOpened = false
			}
			i = end + 1
		}
	}
	if justOpened && len(stack) > 0 {
		return stack[len(stack)-1]
	}
	return ""
}

// clampText bounds offset into [0, len(text)] and returns the prefix.
func clampText(text string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	return text[:offset]
}

// clampIndex bounds offset to the last valid index for a backward scan, or
// -1 for empty text.
func clampIndex(text string, offset int) int {
	if len(text) == 0 || offset < 0 {
		return -1
	}
	if offset > len(text)-1 {
		return len(text) - 1
	}
	return offset
}

// normalizeSpace folds line breaks into plain spaces so tag names split the
// same way regardless of how the tag is wrapped.
func normalizeSpace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

package xmlpath

import (
	"sort"
	"strings"
)

// scanState is the outcome of a tolerant scan over a document prefix: the
// stack of still-open elements and the xmlns declarations in scope where the
// input ran out. Running out of input mid-construct is a normal terminal
// state for this scanner, never an error.
type scanState struct {
	stack  ElementPath
	scopes []map[string]string // xmlns frames, one per open element
}

// scanPrefix walks text with a forgiving start/end-tag scanner. Start tags
// push, end tags pop, self-closing tags do neither. Comments, CDATA sections,
// processing instructions and doctype declarations are skipped whole; if any
// of them (or a tag) is unterminated at the end of the input the scan simply
// stops there.
func scanPrefix(text string) scanState {
	st := scanState{}
	i := 0
	for i < len(text) {
		if text[i] != '<' {
			i++
			continue
		}
		rest := text[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest[4:], "-->")
			if end < 0 {
				return st
			}
			i += 4 + end + 3
		case strings.HasPrefix(rest, "<![CDATA["):
			end := strings.Index(rest[9:], "]]>")
			if end < 0 {
				return st
			}
			i += 9 + end + 3
		case strings.HasPrefix(rest, "<?"):
			end := strings.Index(rest[2:], "?>")
			if end < 0 {
				return st
			}
			i += 2 + end + 2
		case strings.HasPrefix(rest, "<!"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return st
			}
			i += end + 1
		case strings.HasPrefix(rest, "</"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return st
			}
			st.pop()
			i += end + 1
		default:
			end := tagEnd(text, i+1)
			if end < 0 {
				return st
			}
			st.push(text[i+1 : end])
			i = end + 1
		}
	}
	return st
}

// tagEnd locates the '>' closing a start tag, honoring quoted attribute
// values. Returns -1 when the tag is truncated.
func tagEnd(text string, from int) int {
	var quote byte
	for i := from; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i
		case c == '<':
			// Stray open bracket: the previous tag was never closed.
			return -1
		}
	}
	return -1
}

// push processes one start tag body (text between '<' and '>').
func (st *scanState) push(tag string) {
	tag = strings.TrimSpace(tag)
	selfClosing := strings.HasSuffix(tag, "/")
	if selfClosing {
		tag = strings.TrimSuffix(tag, "/")
	}
	name := tagName(tag)
	if name == "" {
		return
	}
	frame := xmlnsDeclarations(tag)
	st.scopes = append(st.scopes, frame)
	st.stack = append(st.stack, st.qualify(name))
	if selfClosing {
		st.pop()
	}
}

// pop removes the innermost open element if any. A stray close tag on an
// empty stack is ignored here; CurrentUnclosedElement applies its stricter
// give-up policy separately.
func (st *scanState) pop() {
	if n := len(st.stack); n > 0 {
		st.stack = st.stack[:n-1]
		st.scopes = st.scopes[:n-1]
	}
}

// qualify resolves name's prefix against the scopes currently in force.
func (st *scanState) qualify(name string) QualifiedName {
	prefix, local := splitName(name)
	return QualifiedName{Name: local, Prefix: prefix, Namespace: st.lookup(prefix)}
}

// lookup resolves a prefix ("" for the default namespace) innermost-first.
func (st *scanState) lookup(prefix string) string {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if uri, ok := st.scopes[i][prefix]; ok {
			return uri
		}
	}
	return ""
}

// bindings flattens the in-scope declarations, innermost wins, sorted by
// prefix for a stable result.
func (st *scanState) bindings() []NamespaceBinding {
	merged := map[string]string{}
	for _, frame := range st.scopes {
		for prefix, uri := range frame {
			merged[prefix] = uri
		}
	}
	if len(merged) == 0 {
		return nil
	}
	out := make([]NamespaceBinding, 0, len(merged))
	for prefix, uri := range merged {
		out = append(out, NamespaceBinding{URI: uri, Prefix: prefix})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

// tagName extracts the element name from a start tag body: everything up to
// the first whitespace (line breaks included).
func tagName(tag string) string {
	for i := 0; i < len(tag); i++ {
		if isSpace(tag[i]) {
			return tag[:i]
		}
	}
	return tag
}

// xmlnsDeclarations collects the xmlns and xmlns:prefix attributes declared
// inline on a start tag body.
func xmlnsDeclarations(tag string) map[string]string {
	frame := map[string]string{}
	for _, m := range attrPattern.FindAllStringSubmatch(tag, -1) {
		name, value := m[1], attrValue(m[2])
		if name == "xmlns" {
			frame[""] = value
		} else if strings.HasPrefix(name, "xmlns:") {
			frame[name[len("xmlns:"):]] = value
		}
	}
	return frame
}

// attrValue strips the surrounding quotes from a matched attribute literal.
func attrValue(lit string) string {
	if len(lit) >= 2 {
		return lit[1 : len(lit)-1]
	}
	return lit
}

func splitName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isNameByte reports whether c can appear in an XML name as typed mid-edit.
func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '.' || c == ':':
		return true
	}
	return false
}

func resolveBinding(bindings []NamespaceBinding, prefix string) string {
	for _, b := range bindings {
		if b.Prefix == prefix {
			return b.URI
		}
	}
	return ""
}

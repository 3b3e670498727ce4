// Package xmlpath recovers structural position information from partial,
// usually malformed XML text. All functions are pure: they take the document
// text and a caret offset and never keep state between calls. Truncated or
// unbalanced input is the normal case, not an error.
package xmlpath

// QualifiedName is a namespace-qualified element or attribute name. The
// prefix is carried for display only; equality is name plus namespace.
type QualifiedName struct {
	Name      string
	Namespace string
	Prefix    string
}

// Equal reports whether q and o name the same thing, ignoring the prefix.
func (q QualifiedName) Equal(o QualifiedName) bool {
	return q.Name == o.Name && q.Namespace == o.Namespace
}

// String returns the prefixed form when a prefix is present.
func (q QualifiedName) String() string {
	if q.Prefix != "" {
		return q.Prefix + ":" + q.Name
	}
	return q.Name
}

// NamespaceBinding is one in-scope xmlns declaration at the point the scan
// of the truncated document stopped.
type NamespaceBinding struct {
	URI    string
	Prefix string
}

// ElementPath is an ordered ancestor chain, outermost element first, ending
// at the element of interest.
type ElementPath []QualifiedName

// Last returns the innermost entry, or a zero QualifiedName for an empty path.
func (p ElementPath) Last() QualifiedName {
	if len(p) == 0 {
		return QualifiedName{}
	}
	return p[len(p)-1]
}

// Compact trims leading entries whose namespace differs from the namespace
// of the last entry, keeping only the trailing same-namespace run. Schema
// lookup only cares about the contextually relevant portion of the path.
func (p ElementPath) Compact() ElementPath {
	if len(p) == 0 {
		return p
	}
	ns := p[len(p)-1].Namespace
	start := len(p) - 1
	for start > 0 && p[start-1].Namespace == ns {
		start--
	}
	return p[start:]
}

// Equal reports element-wise equality of two paths.
func (p ElementPath) Equal(o ElementPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the path. Collection.Find mutates a
// working copy when assigning a default namespace, so callers that need the
// original intact copy first.
func (p ElementPath) Clone() ElementPath {
	out := make(ElementPath, len(p))
	copy(out, p)
	return out
}

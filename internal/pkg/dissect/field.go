package dissect

// Field is one node of a decoded field tree. Offset and Length are absolute
// positions in the capture buffer so a viewer can highlight the source bytes.
type Field struct {
	Label    string   `json:"label" yaml:"label"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
	Offset   int      `json:"offset" yaml:"offset"`
	Length   int      `json:"length" yaml:"length"`
	Children []*Field `json:"children,omitempty" yaml:"children,omitempty"`
}

// Add appends children and returns f.
func (f *Field) Add(children ...*Field) *Field {
	f.Children = append(f.Children, children...)
	return f
}

// Overlaps reports whether the field's byte range intersects [offset, offset+length).
func (f *Field) Overlaps(offset, length int) bool {
	if f.Length == 0 || length <= 0 {
		return false
	}
	return f.Offset < offset+length && offset < f.Offset+f.Length
}

// Walk calls fn for every node in depth-first order with its depth. Returning
// false from fn skips the node's children.
func Walk(fields []*Field, fn func(f *Field, depth int) bool) {
	var walk func([]*Field, int)
	walk = func(fs []*Field, depth int) {
		for _, f := range fs {
			if fn(f, depth) {
				walk(f.Children, depth+1)
			}
		}
	}
	walk(fields, 0)
}

// Narrow returns a copy of the tree holding only nodes whose range overlaps
// [offset, offset+length). A node is kept when it, or any descendant, overlaps.
func Narrow(fields []*Field, offset, length int) []*Field {
	var out []*Field
	for _, f := range fields {
		children := Narrow(f.Children, offset, length)
		if !f.Overlaps(offset, length) && len(children) == 0 {
			continue
		}
		c := *f
		c.Children = children
		out = append(out, &c)
	}
	return out
}

// Deepest returns the innermost node covering offset, or nil.
func Deepest(fields []*Field, offset int) *Field {
	var best *Field
	Walk(fields, func(f *Field, _ int) bool {
		if !f.Overlaps(offset, 1) {
			return len(f.Children) > 0 && f.Length == 0
		}
		best = f
		return true
	})
	return best
}

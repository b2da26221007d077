package dom

import "strings"

// NodeType is the node kind discriminator.
type NodeType uint8

const (
	ElementNode    NodeType = iota + 1 // <div>, <button>, etc.
	TextNode                           // Character data
	CommentNode                        // <!-- ... -->
	DocumentNode                       // The document itself
	FragmentNode                       // Detached grouping node
	ShadowRootNode                     // Root of an attached shadow tree
	WindowNode                         // Global object, last hop of every path
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case CommentNode:
		return "Comment"
	case DocumentNode:
		return "Document"
	case FragmentNode:
		return "Fragment"
	case ShadowRootNode:
		return "ShadowRoot"
	case WindowNode:
		return "Window"
	default:
		return "Unknown"
	}
}

// Attr is a single element attribute.
type Attr struct {
	Key string
	Val string
}

// Node is a node in the host tree.
type Node struct {
	Type  NodeType
	Tag   string // Lower-case element name
	Data  string // Text and comment content
	Attrs []Attr

	doc *Document

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	prevSibling *Node
	nextSibling *Node

	// host is set on shadow roots; shadow is set on their host element.
	host   *Node
	shadow *Node

	// assignedSlot is the <slot> a light-DOM child is rendered into.
	assignedSlot *Node

	listeners map[string][]*registration

	// values holds expando properties (handler slots, caches, hooks).
	values map[string]any
}

// OwnerDocument returns the document this node belongs to.
func (n *Node) OwnerDocument() *Document { return n.doc }

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node { return n.lastChild }

// NextSibling returns the next sibling, or nil.
func (n *Node) NextSibling() *Node { return n.nextSibling }

// PrevSibling returns the previous sibling, or nil.
func (n *Node) PrevSibling() *Node { return n.prevSibling }

// Host returns the host element of a shadow root.
func (n *Node) Host() *Node { return n.host }

// ShadowRoot returns the shadow root attached to this element, if any.
func (n *Node) ShadowRoot() *Node { return n.shadow }

// AssignedSlot returns the slot this node is assigned to, if any.
func (n *Node) AssignedSlot() *Node { return n.assignedSlot }

// Children returns a snapshot of the child list.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		out = append(out, c)
	}
	return out
}

// IsElement reports whether n is an element with the given tag.
func (n *Node) IsElement(tag string) bool {
	return n != nil && n.Type == ElementNode && n.Tag == tag
}

// AppendChild appends c to n's children, detaching it first if needed.
func (n *Node) AppendChild(c *Node) *Node {
	return n.InsertBefore(c, nil)
}

// InsertBefore inserts c before ref. A nil ref appends.
// Fragments are unpacked: their children move into n.
func (n *Node) InsertBefore(c, ref *Node) *Node {
	if c == nil {
		return nil
	}
	if ref != nil && ref.parent != n {
		panic("dom: InsertBefore reference is not a child of this node")
	}
	if c.Type == FragmentNode {
		for _, fc := range c.Children() {
			n.InsertBefore(fc, ref)
		}
		return c
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}

	c.parent = n
	c.nextSibling = ref
	if ref == nil {
		c.prevSibling = n.lastChild
		if n.lastChild != nil {
			n.lastChild.nextSibling = c
		} else {
			n.firstChild = c
		}
		n.lastChild = c
		return c
	}

	c.prevSibling = ref.prevSibling
	if ref.prevSibling != nil {
		ref.prevSibling.nextSibling = c
	} else {
		n.firstChild = c
	}
	ref.prevSibling = c
	return c
}

// RemoveChild detaches c from n. It is a no-op if c is not a child of n.
func (n *Node) RemoveChild(c *Node) *Node {
	if c == nil || c.parent != n {
		return c
	}
	if c.prevSibling != nil {
		c.prevSibling.nextSibling = c.nextSibling
	} else {
		n.firstChild = c.nextSibling
	}
	if c.nextSibling != nil {
		c.nextSibling.prevSibling = c.prevSibling
	} else {
		n.lastChild = c.prevSibling
	}
	c.parent, c.prevSibling, c.nextSibling = nil, nil, nil
	return c
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// ClearChildren removes every child of n.
func (n *Node) ClearChildren() {
	for n.firstChild != nil {
		n.RemoveChild(n.firstChild)
	}
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// AttachShadow creates (or returns) the shadow root hosted by n.
func (n *Node) AttachShadow() *Node {
	if n.shadow == nil {
		n.shadow = &Node{Type: ShadowRootNode, doc: n.doc, host: n}
	}
	return n.shadow
}

// AssignSlot renders n into slot. A nil slot clears the assignment.
func (n *Node) AssignSlot(slot *Node) {
	n.assignedSlot = slot
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// SetAttr sets or replaces an attribute.
func (n *Node) SetAttr(key, val string) {
	key = strings.ToLower(key)
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

// RemoveAttr deletes an attribute.
func (n *Node) RemoveAttr(key string) {
	for i := range n.Attrs {
		if n.Attrs[i].Key == key {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// Value returns the expando property stored under key.
func (n *Node) Value(key string) any {
	if n == nil || n.values == nil {
		return nil
	}
	return n.values[key]
}

// SetValue stores an expando property. A nil value deletes it.
func (n *Node) SetValue(key string, v any) {
	if v == nil {
		delete(n.values, key)
		return
	}
	if n.values == nil {
		n.values = make(map[string]any)
	}
	n.values[key] = v
}

// Find returns the first node in n's subtree (n included, document order)
// for which match returns true.
func (n *Node) Find(match func(*Node) bool) *Node {
	if match(n) {
		return n
	}
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in n's subtree for which match returns true.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(x *Node) {
		if match(x) {
			out = append(out, x)
		}
		for c := x.firstChild; c != nil; c = c.nextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// ByTag returns the first element with the given tag in n's subtree.
func (n *Node) ByTag(tag string) *Node {
	return n.Find(func(x *Node) bool { return x.IsElement(tag) })
}

// ByAttr returns the first element whose attribute key equals val.
func (n *Node) ByAttr(key, val string) *Node {
	return n.Find(func(x *Node) bool {
		if x.Type != ElementNode {
			return false
		}
		v, ok := x.Attr(key)
		return ok && v == val
	})
}

// Clone copies n. Listeners, expandos and slot assignments are not copied.
func (n *Node) Clone(deep bool) *Node {
	c := &Node{Type: n.Type, Tag: n.Tag, Data: n.Data, doc: n.doc}
	if len(n.Attrs) > 0 {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	if deep {
		for ch := n.firstChild; ch != nil; ch = ch.nextSibling {
			c.AppendChild(ch.Clone(true))
		}
	}
	return c
}

var formControls = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"optgroup": true,
	"option":   true,
	"fieldset": true,
}

// Disabled reports whether n is a form control carrying the disabled
// attribute. Other nodes have no disabled state.
func (n *Node) Disabled() bool {
	return n.Type == ElementNode && formControls[n.Tag] && n.HasAttr("disabled")
}

var listedElements = map[string]bool{
	"button":   true,
	"fieldset": true,
	"input":    true,
	"object":   true,
	"output":   true,
	"select":   true,
	"textarea": true,
}

// FormElements returns the listed form controls inside a <form>, in
// document order.
func (n *Node) FormElements() []*Node {
	if !n.IsElement("form") {
		return nil
	}
	return n.FindAll(func(x *Node) bool {
		return x != n && x.Type == ElementNode && listedElements[x.Tag]
	})
}

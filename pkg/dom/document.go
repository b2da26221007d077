package dom

import "log/slog"

// Document is the root of a host tree. It owns the window node and the
// event loop that every node of the tree dispatches through.
type Document struct {
	node   *Node
	window *Node
	loop   *Loop
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithLoop makes the document use an existing loop.
func WithLoop(l *Loop) DocumentOption {
	return func(d *Document) {
		d.loop = l
	}
}

// WithLogger sets the logger used by the document's loop.
func WithLogger(logger *slog.Logger) DocumentOption {
	return func(d *Document) {
		d.loop = NewLoop(logger)
	}
}

func newDocument(opts ...DocumentOption) *Document {
	d := &Document{}
	for _, opt := range opts {
		opt(d)
	}
	if d.loop == nil {
		d.loop = NewLoop(nil)
	}
	d.node = &Node{Type: DocumentNode, doc: d}
	d.window = &Node{Type: WindowNode, doc: d}
	return d
}

// NewDocument creates an empty <html><head></head><body></body></html> tree.
func NewDocument(opts ...DocumentOption) *Document {
	d := newDocument(opts...)
	html := d.CreateElement("html")
	html.AppendChild(d.CreateElement("head"))
	html.AppendChild(d.CreateElement("body"))
	d.node.AppendChild(html)
	return d
}

// Node returns the document node.
func (d *Document) Node() *Node { return d.node }

// Window returns the window node. It is the last entry of every composed
// path that reaches the document.
func (d *Document) Window() *Node { return d.window }

// Loop returns the document's event loop.
func (d *Document) Loop() *Loop { return d.loop }

// Body returns the <body> element, or nil.
func (d *Document) Body() *Node {
	return d.node.ByTag("body")
}

// IsGlobal reports whether n is the document node, the window or the body.
func (d *Document) IsGlobal(n *Node) bool {
	return n != nil && (n == d.node || n == d.window || n == d.Body())
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag, doc: d}
}

// CreateText returns a detached text node.
func (d *Document) CreateText(data string) *Node {
	return &Node{Type: TextNode, Data: data, doc: d}
}

// CreateComment returns a detached comment node.
func (d *Document) CreateComment(data string) *Node {
	return &Node{Type: CommentNode, Data: data, doc: d}
}

// CreateFragment returns an empty fragment.
func (d *Document) CreateFragment() *Node {
	return &Node{Type: FragmentNode, doc: d}
}

// Fire dispatches e at target inside a loop turn and reports whether the
// default action was not prevented. Microtasks queued while handling the
// event run before Fire returns.
func (d *Document) Fire(target *Node, e *Event) bool {
	var ok bool
	d.loop.Run(func() error {
		ok = target.DispatchEvent(e)
		return nil
	})
	return ok
}

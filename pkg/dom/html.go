package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument parses a complete HTML document.
func ParseDocument(r io.Reader, opts ...DocumentOption) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	d := newDocument(opts...)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := d.fromHTML(c); n != nil {
			d.node.AppendChild(n)
		}
	}
	return d, nil
}

// ParseFragment parses markup in the context of the element ctx and
// returns the resulting top-level nodes, detached. A nil or non-element
// ctx parses as <body> content.
func (d *Document) ParseFragment(ctx *Node, markup string) ([]*Node, error) {
	tag := "body"
	if ctx != nil && ctx.Type == ElementNode {
		tag = ctx.Tag
	}
	context := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}

	parsed, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	out := make([]*Node, 0, len(parsed))
	for _, p := range parsed {
		if n := d.fromHTML(p); n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// SetInnerHTML replaces n's children with the parsed markup.
func (n *Node) SetInnerHTML(markup string) error {
	nodes, err := n.doc.ParseFragment(n, markup)
	if err != nil {
		return err
	}
	n.ClearChildren()
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func (d *Document) fromHTML(h *html.Node) *Node {
	var n *Node
	switch h.Type {
	case html.ElementNode:
		n = d.CreateElement(strings.ToLower(h.Data))
		for _, a := range h.Attr {
			n.Attrs = append(n.Attrs, Attr{Key: a.Key, Val: a.Val})
		}
	case html.TextNode:
		return d.CreateText(h.Data)
	case html.CommentNode:
		return d.CreateComment(h.Data)
	default:
		// Doctype and error nodes have no runtime meaning.
		return nil
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if child := d.fromHTML(c); child != nil {
			n.AppendChild(child)
		}
	}
	return n
}

func toHTML(n *Node) *html.Node {
	switch n.Type {
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Data}
	case CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.Data}
	case ElementNode:
		h := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
		for _, a := range n.Attrs {
			h.Attr = append(h.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
		for c := n.firstChild; c != nil; c = c.nextSibling {
			if hc := toHTML(c); hc != nil {
				h.AppendChild(hc)
			}
		}
		return h
	default:
		return nil
	}
}

// Render writes the markup of n. Documents, fragments and shadow roots
// render their children.
func Render(w io.Writer, n *Node) error {
	switch n.Type {
	case DocumentNode, FragmentNode, ShadowRootNode:
		for c := n.firstChild; c != nil; c = c.nextSibling {
			if err := Render(w, c); err != nil {
				return err
			}
		}
		return nil
	case WindowNode:
		return nil
	}
	return html.Render(w, toHTML(n))
}

// OuterHTML returns the markup of n itself.
func (n *Node) OuterHTML() string {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML returns the markup of n's children.
func (n *Node) InnerHTML() string {
	var buf bytes.Buffer
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if err := Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

package mount

import (
	"strings"

	weferrors "github.com/weft-ui/weft/internal/errors"
	"github.com/weft-ui/weft/pkg/dom"
)

func isBlank(n *dom.Node) bool {
	return n != nil && n.Type == dom.TextNode && strings.TrimSpace(n.Data) == ""
}

func skipBlank(n *dom.Node) *dom.Node {
	for isBlank(n) {
		n = n.NextSibling()
	}
	return n
}

func (c *Controller) isMarker(n *dom.Node) bool {
	return n != nil && n.Type == dom.CommentNode &&
		(n.Data == c.startMarker || n.Data == c.endMarker)
}

// findStart returns the first start marker among target's children.
// Content before the marker is not part of the region and is left alone.
func (c *Controller) findStart(target *dom.Node) *dom.Node {
	for n := target.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Type == dom.CommentNode && n.Data == c.startMarker {
			return n
		}
	}
	return nil
}

func mismatch(expected, found *dom.Node) error {
	err := weferrors.New("W040").WithAttr("expected", describeNode(expected))
	if found == nil {
		return err.WithAttr("found", "end of parent")
	}
	return err.WithAttr("found", describeNode(found))
}

func describeNode(n *dom.Node) string {
	switch {
	case n == nil:
		return "nothing"
	case n.Type == dom.ElementNode:
		return "<" + n.Tag + ">"
	case n.Type == dom.CommentNode:
		return "<!--" + n.Data + "-->"
	case n.Type == dom.TextNode:
		return "text " + quote(n.Data)
	default:
		return n.Type.String()
	}
}

func quote(s string) string {
	if len(s) > 24 {
		s = s[:24] + "..."
	}
	return `"` + s + `"`
}

// repair is a pending content fix for a claimed text or comment node.
// Repairs are applied only once the whole region has matched, so a failed
// hydration leaves the server markup as it was.
type repair struct {
	node     *dom.Node
	from, to string
}

// applyRepairs writes the pending repairs. A node whose content changed
// since it was claimed is left alone. c.mu must not be held.
func (c *Controller) applyRepairs() {
	c.mu.Lock()
	repairs := c.repairs
	c.repairs = nil
	c.mu.Unlock()

	for _, r := range repairs {
		if r.node.Data != r.from {
			continue
		}
		if r.node.Type == dom.TextNode {
			dom.SetText(r.node, r.to)
		} else {
			r.node.Data = r.to
		}
	}
}

// claim matches the template nodes against the markup at the hydration
// cursor and advances it. Claimed nodes are the existing ones; the
// template is discarded and content differences are queued as repairs.
func (c *Controller) claim(tmpl []*dom.Node) ([]*dom.Node, error) {
	c.mu.Lock()
	cur := c.cursor
	c.mu.Unlock()

	var pending []repair
	claimed, next, err := c.claimSeq(tmpl, cur, &pending)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cursor = next
	c.repairs = append(c.repairs, pending...)
	c.mu.Unlock()
	return claimed, nil
}

// claimSeq claims tmpl against the siblings starting at cur and returns
// the claimed nodes and the first unclaimed sibling. Element types and
// tags must match. Differing text is queued on pending; whitespace-only
// text on either side is skipped.
func (c *Controller) claimSeq(tmpl []*dom.Node, cur *dom.Node, pending *[]repair) ([]*dom.Node, *dom.Node, error) {
	var claimed []*dom.Node
	for _, t := range tmpl {
		if isBlank(t) {
			continue
		}
		cur = skipBlank(cur)
		if cur == nil || cur.Type != t.Type {
			return nil, nil, mismatch(t, cur)
		}

		switch t.Type {
		case dom.ElementNode:
			if cur.Tag != t.Tag {
				return nil, nil, mismatch(t, cur)
			}
			_, rest, err := c.claimSeq(t.Children(), cur.FirstChild(), pending)
			if err != nil {
				return nil, nil, err
			}
			if rest = skipBlank(rest); rest != nil {
				return nil, nil, weferrors.New("W040").
					WithAttr("parent", describeNode(cur)).
					WithAttr("unexpected", describeNode(rest))
			}
		case dom.TextNode:
			if cur.Data != t.Data {
				*pending = append(*pending, repair{node: cur, from: cur.Data, to: t.Data})
			}
		case dom.CommentNode:
			if cur.Data != t.Data {
				if c.isMarker(cur) {
					return nil, nil, mismatch(t, cur)
				}
				*pending = append(*pending, repair{node: cur, from: cur.Data, to: t.Data})
			}
		}

		claimed = append(claimed, cur)
		cur = cur.NextSibling()
	}
	return claimed, cur, nil
}

// claimEnd checks that only whitespace separates the cursor from the end
// marker and returns the marker.
func (c *Controller) claimEnd() (*dom.Node, error) {
	c.mu.Lock()
	cur := skipBlank(c.cursor)
	c.mu.Unlock()

	if cur == nil || cur.Type != dom.CommentNode || cur.Data != c.endMarker {
		end := &dom.Node{Type: dom.CommentNode, Data: c.endMarker}
		return nil, mismatch(end, cur)
	}
	return cur, nil
}

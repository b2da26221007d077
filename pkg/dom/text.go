package dom

import "fmt"

const textCacheKey = "__t"

// SetText updates the content of a text node from value, skipping the
// write when the rendered string has not changed since the last call.
// A nil value renders as the empty string. It reports whether the node
// was written.
func SetText(n *Node, value any) bool {
	s := ""
	if value != nil {
		s = fmt.Sprint(value)
	}

	cached, ok := n.Value(textCacheKey).(string)
	if !ok {
		cached = n.Data
	}
	if s == cached {
		return false
	}
	n.SetValue(textCacheKey, s)
	n.Data = s
	return true
}

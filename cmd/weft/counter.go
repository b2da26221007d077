package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/weft-ui/weft"
	"github.com/weft-ui/weft/internal/errors"
	"github.com/weft-ui/weft/pkg/dom"
	"github.com/weft-ui/weft/pkg/store"
)

// counterMarkup is what the demo counter renders for start.
func counterMarkup(start int) string {
	return fmt.Sprintf(`<button data-hid="inc">+</button><output data-hid="count">%d</output>`, start)
}

// counter is the demo component: a button incrementing a store that the
// output element is bound to.
func counter(s *weft.Scope, _ *dom.Node, props weft.Props) (weft.Exports, error) {
	start, _ := props["start"].(int)
	nodes, err := s.Render(counterMarkup(start))
	if err != nil {
		return nil, err
	}
	button, label := nodes[0], nodes[1].FirstChild()

	count := store.NewWritable(start, nil)
	subs := s.Subscriptions()
	store.Bind[int](subs, "count", count)
	store.Cell[int](subs, "count").Observe(func(v int) { dom.SetText(label, v) })

	s.Handle(button, "click", weft.Direct(func(*dom.Node, *dom.Event) error {
		store.Set[int](count, count.Get()+1)
		return nil
	}))
	return weft.Exports{"count": count}, nil
}

// loadPage parses the HTML file at path and finds the element with the
// given id.
func loadPage(path, targetID string, logger *slog.Logger) (*dom.Document, *dom.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.New("W120").WithAttr("path", path).Wrap(err)
	}
	defer f.Close()

	doc, err := dom.ParseDocument(f, dom.WithLogger(logger))
	if err != nil {
		return nil, nil, errors.New("W120").WithAttr("path", path).Wrap(err)
	}
	target := doc.Node().ByAttr("id", targetID)
	if target == nil {
		return nil, nil, errors.New("W020").
			WithAttr("id", targetID).
			WithSuggestion("Pass --target with the id of the mount element")
	}
	return doc, target, nil
}

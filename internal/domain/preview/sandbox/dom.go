package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// DOM is a lightweight document proxy built from the parsed assembled
// document. User script reads it through document.* bindings;
// mutations are recorded rather than re-rendered.
type DOM struct {
	root      *Element
	mutations []Mutation
	mu        sync.Mutex
}

// Element represents a DOM element
type Element struct {
	TagName     string
	ID          string
	ClassName   string
	TextContent string
	Attributes  map[string]string
	Children    []*Element
	Parent      *Element

	dom *DOM
}

// Parse builds a DOM and the ordered script list from an HTML
// document. Scripts with a src attribute are skipped: external
// references are never followed.
func Parse(src string) (*DOM, []Script, error) {
	node, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}

	d := &DOM{}
	root := &Element{TagName: "document", Attributes: map[string]string{}, dom: d}
	d.root = root

	var scripts []Script
	var walk func(n *html.Node, parent *Element)
	walk = func(n *html.Node, parent *Element) {
		if n.Type == html.ElementNode {
			if n.Data == "script" {
				if attrValue(n, "src") == "" {
					scripts = append(scripts, Script{
						Source: fmt.Sprintf("inline-%d", len(scripts)+1),
						Code:   textOf(n),
					})
				}
				return
			}

			el := &Element{
				TagName:    n.Data,
				ID:         attrValue(n, "id"),
				ClassName:  attrValue(n, "class"),
				Attributes: map[string]string{},
				Parent:     parent,
				dom:        d,
			}
			for _, a := range n.Attr {
				el.Attributes[a.Key] = a.Val
			}
			el.TextContent = strings.TrimSpace(textOf(n))
			parent.Children = append(parent.Children, el)
			parent = el
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, parent)
		}
	}
	walk(node, root)

	return d, scripts, nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Query finds elements by a simple selector: #id, .class, or tag
func (d *DOM) Query(selector string) []*Element {
	switch {
	case strings.HasPrefix(selector, "#"):
		if el := d.findByID(d.root, strings.TrimPrefix(selector, "#")); el != nil {
			return []*Element{el}
		}
		return nil
	case strings.HasPrefix(selector, "."):
		return d.findByClass(d.root, strings.TrimPrefix(selector, "."))
	default:
		return d.findByTag(d.root, selector)
	}
}

// Mutations returns the recorded DOM modifications
func (d *DOM) Mutations() []Mutation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Mutation{}, d.mutations...)
}

func (d *DOM) record(m Mutation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mutations = append(d.mutations, m)
}

func (d *DOM) findByID(el *Element, id string) *Element {
	if el.ID == id {
		return el
	}
	for _, child := range el.Children {
		if found := d.findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

func (d *DOM) findByClass(el *Element, class string) []*Element {
	var result []*Element
	for _, c := range strings.Fields(el.ClassName) {
		if c == class {
			result = append(result, el)
			break
		}
	}
	for _, child := range el.Children {
		result = append(result, d.findByClass(child, class)...)
	}
	return result
}

func (d *DOM) findByTag(el *Element, tag string) []*Element {
	var result []*Element
	if strings.EqualFold(el.TagName, tag) {
		result = append(result, el)
	}
	for _, child := range el.Children {
		result = append(result, d.findByTag(child, tag)...)
	}
	return result
}

// GetAttribute retrieves an attribute value
func (e *Element) GetAttribute(name string) string {
	return e.Attributes[name]
}

// SetAttribute sets an attribute value and records the mutation
func (e *Element) SetAttribute(name, value string) {
	e.Attributes[name] = value
	if e.dom != nil {
		e.dom.record(Mutation{Kind: "set_attribute", Target: e.label(), Property: name, Value: value})
	}
}

// SetTextContent replaces the element's text and records the mutation
func (e *Element) SetTextContent(text string) {
	e.TextContent = text
	if e.dom != nil {
		e.dom.record(Mutation{Kind: "set_text", Target: e.label(), Value: text})
	}
}

func (e *Element) label() string {
	if e.ID != "" {
		return "#" + e.ID
	}
	return e.TagName
}

package feed

import (
	"io"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"
)

// canonicalPrefixes maps well-known namespace URIs to the prefix the
// normalizer looks fields up by, whatever prefix the document declared.
var canonicalPrefixes = map[string]string{
	"http://purl.org/dc/elements/1.1/":            "dc",
	"http://purl.org/rss/1.0/modules/content/":    "content",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": "rdf",
}

// Node is one element of a parsed XML document.
//
// Names are prefix-qualified ("dc:creator", "rdf:RDF"); elements in a default
// namespace carry their local name only. Text holds the element's own
// character data, CDATA sections included, with surrounding whitespace trimmed.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Child returns the first child element called name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// All returns every child element called name in document order.
// One matching element yields a one-element slice; none yields nil.
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// ParseXML reads an XML document into a tree rooted at an unnamed document
// node whose children are the top-level elements.
func ParseXML(r io.Reader) (*Node, error) {
	p := xpp.NewXMLPullParser(r, false, charset.NewReaderLabel)

	root := &Node{}
	stack := []*Node{root}
	texts := []*strings.Builder{{}}

	for {
		event, err := p.NextToken()
		if err != nil {
			return nil, err
		}

		switch event {
		case xpp.StartTag:
			n := &Node{
				Name:  qualify(p, p.Space, p.Name),
				Attrs: attributes(p),
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})

		case xpp.EndTag:
			if len(stack) == 1 {
				continue
			}
			top := len(stack) - 1
			stack[top].Text = strings.TrimSpace(texts[top].String())
			stack = stack[:top]
			texts = texts[:top]

		case xpp.Text:
			texts[len(texts)-1].WriteString(p.Text)

		case xpp.EndDocument:
			return root, nil
		}
	}
}

func attributes(p *xpp.XMLPullParser) map[string]string {
	if len(p.Attrs) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(p.Attrs))
	for _, a := range p.Attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		attrs[qualify(p, a.Name.Space, a.Name.Local)] = a.Value
	}
	return attrs
}

func qualify(p *xpp.XMLPullParser, space, local string) string {
	if space == "" {
		return local
	}
	prefix, ok := canonicalPrefixes[space]
	if !ok {
		prefix, ok = p.Spaces[space]
	}
	if !ok {
		// encoding/xml leaves undeclared prefixes in place of the URI
		prefix = space
	}
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

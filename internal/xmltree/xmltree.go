package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// xmlNamespace is the URI bound to the predeclared "xml" prefix. Decoders
// report attributes like xml:lang with either the prefix or the full URI in
// the Space field, so both are folded to the "xml:" key form.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Node is one element of a parsed metadata document. Trees are built once by
// Parse and read-only afterwards.
type Node struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []*Node
}

// Parse builds a Node tree from raw document bytes.
func Parse(data []byte) (*Node, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader builds a Node tree from a reader.
func ParseReader(r io.Reader) (*Node, error) {
	decoder := xml.NewDecoder(r)

	var root *Node
	var stack []*Node

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			node := &Node{
				Tag:   t.Name.Local,
				Attrs: make(map[string]string, len(t.Attr)),
			}
			for _, attr := range t.Attr {
				node.Attrs[attrKey(attr.Name)] = attr.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements: %q and %q", root.Tag, node.Tag)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing tag %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			// Character data is kept verbatim. Whitespace between child
			// elements accumulates on container nodes but callers only read
			// Text on leaves.
			if len(stack) > 0 {
				current := stack[len(stack)-1]
				if len(current.Children) == 0 {
					current.Text += string(t)
				}
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("document contains no elements")
	}
	return root, nil
}

func attrKey(name xml.Name) string {
	switch name.Space {
	case "":
		return name.Local
	case "xml", xmlNamespace:
		return "xml:" + name.Local
	default:
		return name.Space + ":" + name.Local
	}
}

// Attr returns the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// Find returns the first direct child with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	for _, child := range n.Children {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// FindAll returns every direct child with the given tag, in document order.
func (n *Node) FindAll(tag string) []*Node {
	var found []*Node
	for _, child := range n.Children {
		if child.Tag == tag {
			found = append(found, child)
		}
	}
	return found
}

// Descendants returns every descendant with the given tag, depth-first.
func (n *Node) Descendants(tag string) []*Node {
	var found []*Node
	for _, child := range n.Children {
		if child.Tag == tag {
			found = append(found, child)
		}
		found = append(found, child.Descendants(tag)...)
	}
	return found
}

// FindAllAttr returns every descendant with the given tag whose named
// attribute equals value. This covers queries in the shape of
// packagelist/packagereq[@type="mandatory"].
func (n *Node) FindAllAttr(tag, attr, value string) []*Node {
	var found []*Node
	for _, node := range n.Descendants(tag) {
		if node.Attrs[attr] == value {
			found = append(found, node)
		}
	}
	return found
}

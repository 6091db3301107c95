package imfxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Node is one element of a parsed inventory document. Names and attribute
// keys are local parts only; namespace prefixes and URIs are dropped during
// parsing.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// ParseFile parses the document at path into a node tree rooted at the
// document element.
func ParseFile(path string) (*Node, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	root, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return root, nil
}

// Parse reads an XML document from r and returns its root node.
func Parse(r io.Reader) (*Node, error) {
	decoder := xml.NewDecoder(r)

	var root *Node
	var stack []*Node
	for {
		token, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch tok := token.(type) {
		case xml.StartElement:
			node := &Node{Name: tok.Name.Local}
			if len(tok.Attr) > 0 {
				node.Attrs = make(map[string]string, len(tok.Attr))
				for _, attr := range tok.Attr {
					if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
						continue
					}
					node.Attrs[attr.Name.Local] = attr.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple document elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end element %s", tok.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(tok)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("truncated document")
	}
	return root, nil
}

// Find returns the first child element with the given local name, or nil.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// FindAll returns every child element with the given local name, in document
// order.
func (n *Node) FindAll(name string) []*Node {
	if n == nil {
		return nil
	}
	var matches []*Node
	for _, child := range n.Children {
		if child.Name == name {
			matches = append(matches, child)
		}
	}
	return matches
}

// Value returns the node's character data with surrounding whitespace
// trimmed. A nil node yields the empty string.
func (n *Node) Value() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text)
}

// Attr returns the named attribute value, or the empty string.
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

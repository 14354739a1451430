package circuit

import (
	"fmt"
	"strings"
)

// HierSep separates levels of a hierarchy path.
const HierSep = "."

// Node is one level of the circuit hierarchy. Parts record the node that was
// active when they were added.
type Node struct {
	Name string

	parent   *Node
	children []*Node
	names    nameSpace
	parts    []*Part
}

func newNode(name string, parent *Node) *Node {
	return &Node{Name: name, parent: parent}
}

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the nested nodes in creation order.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// Parts returns the parts added while this node was active.
func (n *Node) Parts() []*Part { return append([]*Part(nil), n.parts...) }

// Path returns the dotted path from the root to n.
func (n *Node) Path() string {
	var names []string
	for x := n; x != nil; x = x.parent {
		names = append(names, x.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, HierSep)
}

// Root returns the top of the hierarchy.
func (c *Circuit) Root() *Node { return c.root }

// Active returns the node new members are recorded under.
func (c *Circuit) Active() *Node { return c.active }

// Hierarchy returns the path of the active node.
func (c *Circuit) Hierarchy() string { return c.active.Path() }

// Enter creates a child of the active node and makes it active. Sibling
// names are kept unique: a second "amp" becomes "amp_1".
func (c *Circuit) Enter(name string) *Node {
	if name == "" {
		name = "sub"
	}
	child := newNode(c.active.names.claim(name, name), c.active)
	c.active.children = append(c.active.children, child)
	c.active = child
	return child
}

// Exit returns to the parent of the active node.
func (c *Circuit) Exit() error {
	if c.active.parent == nil {
		return fmt.Errorf("circuit: already at the top of the hierarchy")
	}
	c.active = c.active.parent
	return nil
}

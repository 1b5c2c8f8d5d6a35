// Package proptree implements the vault's plain-text, brace-delimited
// key=value tree format used for human-readable export and for
// import/merge:
//
//	node  := { entry* }
//	entry := key ( '=' value | node ) ';'?
//	key   := bare-word
//	value := quoted-string | bare-word
//
// The top level of a document is the root node; its entries may be listed
// directly or wrapped in one explicit brace pair.
package proptree

// Entry is one child of a Node: either a scalar key=value pair (Child is
// nil) or a named sub-node (Child is non-nil and Value is unused).
type Entry struct {
	Key   string
	Value string
	Child *Node
}

// Node is an ordered sequence of entries. Order is preserved from parsing
// and from construction, since snapshot sub-nodes are meaningfully ordered
// and duplicate keys (multiple snapshots) are expected.
type Node struct {
	Entries []Entry
}

// Get returns the value of the first scalar entry with the given key.
func (n *Node) Get(key string) (string, bool) {
	for _, e := range n.Entries {
		if e.Key == key && e.Child == nil {
			return e.Value, true
		}
	}
	return "", false
}

// GetNode returns the first sub-node entry with the given key.
func (n *Node) GetNode(key string) (*Node, bool) {
	for _, e := range n.Entries {
		if e.Key == key && e.Child != nil {
			return e.Child, true
		}
	}
	return nil, false
}

// Nodes returns every sub-node entry, in document order, regardless of
// key. Used to walk positionally-keyed children such as snapshot nodes
// named "0", "1", ...
func (n *Node) Nodes() []Entry {
	var out []Entry
	for _, e := range n.Entries {
		if e.Child != nil {
			out = append(out, e)
		}
	}
	return out
}

// Set appends a scalar key=value entry.
func (n *Node) Set(key, value string) {
	n.Entries = append(n.Entries, Entry{Key: key, Value: value})
}

// AppendNode appends and returns a new, empty sub-node under key.
func (n *Node) AppendNode(key string) *Node {
	child := &Node{}
	n.Entries = append(n.Entries, Entry{Key: key, Child: child})
	return child
}

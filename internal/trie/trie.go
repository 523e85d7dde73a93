// Package trie stores literal route keys in a compressed radix tree and
// answers "which stored keys are prefixes of this path" queries.
package trie

import (
	iradix "github.com/hashicorp/go-immutable-radix"
)

// Tree maps literal byte-string keys to slot handles. Inserts happen while
// a matcher is built; afterwards the tree is only read and is safe for
// concurrent use.
type Tree struct {
	tree *iradix.Tree
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{tree: iradix.New()}
}

// Insert stores handle under key, replacing any previous handle.
func (t *Tree) Insert(key string, handle int) {
	t.tree, _, _ = t.tree.Insert([]byte(key), handle)
}

// FindExact returns the handle stored under exactly key.
func (t *Tree) FindExact(key string) (int, bool) {
	v, ok := t.tree.Get([]byte(key))
	if !ok {
		return 0, false
	}
	h, ok := v.(int)
	return h, ok
}

// Len returns the number of stored keys.
func (t *Tree) Len() int {
	return t.tree.Len()
}

// Cursor walks query down the tree and returns a cursor over every stored
// key that is a prefix of query.
func (t *Tree) Cursor(query string) *Cursor {
	c := &Cursor{}
	t.tree.Root().WalkPath([]byte(query), func(_ []byte, v interface{}) bool {
		if h, ok := v.(int); ok {
			c.handles = append(c.handles, h)
		}
		return false
	})
	return c
}

// Cursor yields the handles of matched keys from the deepest (longest)
// key up to the root.
type Cursor struct {
	handles []int
}

// Ascend returns the next handle, moving one matched node closer to the
// root. It reports false once every matched node has been visited.
func (c *Cursor) Ascend() (int, bool) {
	n := len(c.handles)
	if n == 0 {
		return 0, false
	}
	h := c.handles[n-1]
	c.handles = c.handles[:n-1]
	return h, true
}

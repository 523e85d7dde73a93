package router

import (
	"sort"
	"strings"

	"github.com/vyrodovalexey/avaroute/internal/pattern"
	"github.com/vyrodovalexey/avaroute/internal/trie"
)

// keyIndex maps a literal key to a slot handle.
type keyIndex interface {
	Insert(key string, handle int)
	FindExact(key string) (int, bool)
}

// hashIndex is the keyIndex of the equals index.
type hashIndex map[string]int

func (h hashIndex) Insert(key string, handle int) {
	h[key] = handle
}

func (h hashIndex) FindExact(key string) (int, bool) {
	handle, ok := h[key]
	return handle, ok
}

// routeIndex is one of the equals, prefix and suffix indices. Slots are
// kept in an arena shared by all three indices and addressed by handle.
type routeIndex struct {
	kind  pattern.MatchType
	keys  keyIndex
	tree  *trie.Tree
	count int
}

func newHashIndex() *routeIndex {
	return &routeIndex{kind: pattern.Equals, keys: hashIndex{}}
}

func newTreeIndex(kind pattern.MatchType) *routeIndex {
	t := trie.New()
	return &routeIndex{kind: kind, keys: t, tree: t}
}

// insert appends e to the slot for its key, opening a new slot in arena
// on the first occurrence of the key.
func (ri *routeIndex) insert(arena *slotArena, e *Entry) {
	ri.count++
	if h, ok := ri.keys.FindExact(e.Pattern.Key); ok {
		arena.append(h, e)
		return
	}
	ri.keys.Insert(e.Pattern.Key, arena.open(e))
}

// slotArena owns every slot. Handles are never freed.
type slotArena struct {
	slots [][]*Entry
}

func (a *slotArena) open(e *Entry) int {
	a.slots = append(a.slots, []*Entry{e})
	return len(a.slots) - 1
}

func (a *slotArena) append(handle int, e *Entry) {
	a.slots[handle] = append(a.slots[handle], e)
}

func (a *slotArena) get(handle int) ([]*Entry, bool) {
	if handle < 0 || handle >= len(a.slots) {
		return nil, false
	}
	return a.slots[handle], true
}

// sortAll orders every slot by specificity. Ties keep insertion order.
func (a *slotArena) sortAll() {
	for _, slot := range a.slots {
		sort.SliceStable(slot, func(i, j int) bool {
			return compareEntries(slot[i], slot[j]) < 0
		})
	}
}

// compareEntries returns a negative number when a is more specific than
// b, a positive number when b is more specific, and zero otherwise. The
// method and host tie-breakers apply only when both sides declare a
// single value.
func compareEntries(a, b *Entry) int {
	if d := len(b.Pattern.Path) - len(a.Pattern.Path); d != 0 {
		return d
	}

	am, bm := a.Route.Methods, b.Route.Methods
	if len(am) == 1 && len(bm) == 1 {
		aAll, bAll := am[0] == MethodAll, bm[0] == MethodAll
		switch {
		case aAll && !bAll:
			return 1
		case !aAll && bAll:
			return -1
		}
	}

	ah, bh := a.Route.Hosts, b.Route.Hosts
	if len(ah) == 1 && len(bh) == 1 {
		aWild, bWild := strings.HasPrefix(ah[0], "*"), strings.HasPrefix(bh[0], "*")
		switch {
		case aWild && !bWild:
			return 1
		case !aWild && bWild:
			return -1
		}
	}

	return 0
}

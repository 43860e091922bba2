package schedule

import (
	"fmt"
	"time"
)

// IntervalTree is an AVL tree keyed by (start, id). Every node carries the
// latest end time found in its subtree so overlap searches can skip
// subtrees that finish before the query starts.
type IntervalTree struct {
	root *treeNode
	size int
}

type treeNode struct {
	entry       Entry
	maxEnd      time.Time
	height      int
	left, right *treeNode
}

func NewIntervalTree() *IntervalTree { return &IntervalTree{} }

func (t *IntervalTree) Insert(e Entry) {
	t.root = t.insert(t.root, e)
	t.size++
}

func (t *IntervalTree) insert(n *treeNode, e Entry) *treeNode {
	if n == nil {
		return &treeNode{entry: e, maxEnd: e.Interval.End, height: 1}
	}
	switch {
	case entryLess(e, n.entry):
		n.left = t.insert(n.left, e)
	case entryLess(n.entry, e):
		n.right = t.insert(n.right, e)
	default:
		panic(fmt.Sprintf("event %d already indexed", e.ID))
	}
	return rebalance(n)
}

func (t *IntervalTree) Remove(e Entry) bool {
	var ok bool
	t.root, ok = remove(t.root, e)
	if ok {
		t.size--
	}
	return ok
}

func remove(n *treeNode, e Entry) (*treeNode, bool) {
	if n == nil {
		return nil, false
	}
	var ok bool
	switch {
	case entryLess(e, n.entry):
		n.left, ok = remove(n.left, e)
	case entryLess(n.entry, e):
		n.right, ok = remove(n.right, e)
	default:
		if n.left == nil {
			return n.right, true
		}
		if n.right == nil {
			return n.left, true
		}
		succ := n.right
		for succ.left != nil {
			succ = succ.left
		}
		n.entry = succ.entry
		n.right, _ = remove(n.right, succ.entry)
		ok = true
	}
	return rebalance(n), ok
}

func (t *IntervalTree) FindOverlaps(iv Interval) []EventID {
	var out []EventID
	search(t.root, iv, &out)
	return out
}

func search(n *treeNode, iv Interval, out *[]EventID) {
	if n == nil || !n.maxEnd.After(iv.Start) {
		return
	}
	search(n.left, iv, out)
	if n.entry.Interval.Overlaps(iv) {
		*out = append(*out, n.entry.ID)
	}
	// Right-hand keys start no earlier than this node.
	if n.entry.Interval.Start.Before(iv.End) {
		search(n.right, iv, out)
	}
}

func (t *IntervalTree) IsEmpty() bool { return t.root == nil }

func (t *IntervalTree) All() []EventID {
	out := make([]EventID, 0, t.size)
	var walk func(*treeNode)
	walk = func(n *treeNode) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.entry.ID)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func (t *IntervalTree) Len() int { return t.size }

// Height is the number of levels in the tree.
func (t *IntervalTree) Height() int { return height(t.root) }

func height(n *treeNode) int {
	if n == nil {
		return 0
	}
	return n.height
}

func update(n *treeNode) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.maxEnd = n.entry.Interval.End
	if n.left != nil && n.left.maxEnd.After(n.maxEnd) {
		n.maxEnd = n.left.maxEnd
	}
	if n.right != nil && n.right.maxEnd.After(n.maxEnd) {
		n.maxEnd = n.right.maxEnd
	}
}

func rotateRight(y *treeNode) *treeNode {
	x := y.left
	y.left = x.right
	x.right = y
	update(y)
	update(x)
	return x
}

func rotateLeft(x *treeNode) *treeNode {
	y := x.right
	x.right = y.left
	y.left = x
	update(x)
	update(y)
	return y
}

func rebalance(n *treeNode) *treeNode {
	update(n)
	switch bf := height(n.left) - height(n.right); {
	case bf > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bf < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

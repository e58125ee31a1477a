package accounts

import (
	"context"

	"github.com/tallybook-dev/tallybook/internal/model"
)

// TreeNode is one account in a depth-first traversal of the chart.
type TreeNode struct {
	Account model.Account
	Depth   int
}

// TreeCursor walks the chart of accounts depth-first, siblings ordered by
// code. The traversal is lazy over a snapshot taken when the cursor was
// created and can be restarted with Reset.
type TreeCursor struct {
	roots    []model.Account
	children map[string][]model.Account // keyed by parent ID string
	stack    []TreeNode
}

// Tree returns a cursor over the account forest.
func (s *Service) Tree(ctx context.Context) (*TreeCursor, error) {
	all, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	c := &TreeCursor{children: make(map[string][]model.Account)}
	for _, a := range all {
		if a.ParentID == nil {
			c.roots = append(c.roots, a)
			continue
		}
		key := a.ParentID.String()
		c.children[key] = append(c.children[key], a)
	}
	c.Reset()
	return c, nil
}

// Next returns the next node in depth-first code order. The second return
// is false when the traversal is exhausted.
func (c *TreeCursor) Next() (TreeNode, bool) {
	if len(c.stack) == 0 {
		return TreeNode{}, false
	}

	node := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	// Push children in reverse so the lowest code pops first.
	kids := c.children[node.Account.ID.String()]
	for i := len(kids) - 1; i >= 0; i-- {
		c.stack = append(c.stack, TreeNode{Account: kids[i], Depth: node.Depth + 1})
	}
	return node, true
}

// Reset restarts the traversal from the beginning of the snapshot.
func (c *TreeCursor) Reset() {
	c.stack = c.stack[:0]
	for i := len(c.roots) - 1; i >= 0; i-- {
		c.stack = append(c.stack, TreeNode{Account: c.roots[i]})
	}
}

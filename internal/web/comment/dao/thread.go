package dao

import (
	"sort"

	"github.com/google/uuid"

	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
)

// BuildThread organizes the comments of one article into the rendered forest.
//
// Hidden comments are dropped, a visible comment is attached to its nearest
// visible ancestor or becomes a root when there is none. Roots are ordered
// newest first, replies oldest first.
func BuildThread(rows []*model.Comment) []*model.ThreadNode {
	byID := make(map[uuid.UUID]*model.Comment, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}

	rendered := make(map[uuid.UUID]*model.ThreadNode, len(rows))
	for _, c := range rows {
		if c.Visible {
			rendered[c.ID] = &model.ThreadNode{Comment: *c, Replies: []*model.ThreadNode{}}
		}
	}

	roots := []*model.ThreadNode{}
	for _, c := range rows {
		node, ok := rendered[c.ID]
		if !ok {
			continue
		}

		if anchor := nearestVisibleAncestor(c, byID); anchor != nil {
			parent := rendered[anchor.ID]
			parent.Replies = append(parent.Replies, node)
		} else {
			roots = append(roots, node)
		}
	}

	sortNodes(roots, true)
	for _, node := range rendered {
		sortNodes(node.Replies, false)
	}

	return roots
}

// nearestVisibleAncestor walks up the parent chain, returns nil if no visible ancestor exists
func nearestVisibleAncestor(c *model.Comment, byID map[uuid.UUID]*model.Comment) *model.Comment {
	// bounded by the number of rows, so corrupted links cannot loop forever
	for steps := 0; c.ParentID != nil && steps < len(byID); steps++ {
		parent, ok := byID[*c.ParentID]
		if !ok {
			return nil
		}
		if parent.Visible {
			return parent
		}
		c = parent
	}

	return nil
}

func sortNodes(nodes []*model.ThreadNode, newestFirst bool) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if newestFirst {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}

		if newestFirst {
			return a.ID.String() > b.ID.String()
		}
		return a.ID.String() < b.ID.String()
	})
}

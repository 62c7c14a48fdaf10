package dao

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
)

func newRow(id string, parent *model.Comment, visible bool, at time.Time) *model.Comment {
	c := &model.Comment{
		ID:        uuid.MustParse(id),
		ArticleID: 1,
		Visible:   visible,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	return c
}

func TestBuildThreadTieBreaksByID(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := newRow("00000000-0000-0000-0000-00000000000a", nil, true, at)
	b := newRow("00000000-0000-0000-0000-00000000000b", nil, true, at)
	ra := newRow("00000000-0000-0000-0000-0000000000a1", a, true, at)
	rb := newRow("00000000-0000-0000-0000-0000000000a2", a, true, at)

	thread := BuildThread([]*model.Comment{rb, a, ra, b})
	require.Len(t, thread, 2)
	require.Equal(t, b.ID, thread[0].ID)
	require.Equal(t, a.ID, thread[1].ID)
	require.Equal(t, ra.ID, thread[1].Replies[0].ID)
	require.Equal(t, rb.ID, thread[1].Replies[1].ID)
}

func TestBuildThreadPromotedNodesFollowLevelOrdering(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	root := newRow("00000000-0000-0000-0000-000000000001", nil, true, base)
	hidden := newRow("00000000-0000-0000-0000-000000000002", root, false, base.Add(time.Minute))
	late := newRow("00000000-0000-0000-0000-000000000003", hidden, true, base.Add(3*time.Minute))
	early := newRow("00000000-0000-0000-0000-000000000004", root, true, base.Add(2*time.Minute))

	thread := BuildThread([]*model.Comment{late, hidden, early, root})
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 2)
	require.Equal(t, early.ID, thread[0].Replies[0].ID)
	require.Equal(t, late.ID, thread[0].Replies[1].ID)
}

func TestBuildThreadDanglingParentBecomesRoot(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ghost := newRow("00000000-0000-0000-0000-0000000000ff", nil, true, at)
	orphan := newRow("00000000-0000-0000-0000-000000000001", ghost, true, at)

	thread := BuildThread([]*model.Comment{orphan})
	require.Len(t, thread, 1)
	require.Equal(t, orphan.ID, thread[0].ID)
}

func TestBuildThreadOnlyVisible(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	root := newRow("00000000-0000-0000-0000-000000000001", nil, false, at)
	child := newRow("00000000-0000-0000-0000-000000000002", root, false, at)

	require.Empty(t, BuildThread([]*model.Comment{root, child}))
	require.Empty(t, BuildThread(nil))
}

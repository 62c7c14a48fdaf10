package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
)

func TestEvaluate(t *testing.T) {
	cmt := &model.Comment{ID: uuid.New(), AuthorID: 10}
	author := models.Actor{ID: 10, Role: models.RoleReader}
	stranger := models.Actor{ID: 11, Role: models.RoleJournalist}
	admin := models.Actor{ID: 1, Role: models.RoleAdministrator}
	anonymous := models.Actor{}

	cases := []struct {
		name   string
		actor  models.Actor
		cmt    *model.Comment
		action Action
		want   Decision
	}{
		{name: "reader create", actor: author, action: ActionCreate, want: Allow},
		{name: "anonymous create", actor: anonymous, action: ActionCreate, want: Deny},
		{name: "author edit", actor: author, cmt: cmt, action: ActionEdit, want: Allow},
		{name: "stranger edit", actor: stranger, cmt: cmt, action: ActionEdit, want: Deny},
		{name: "admin edit", actor: admin, cmt: cmt, action: ActionEdit, want: Deny},
		{name: "author delete", actor: author, cmt: cmt, action: ActionDelete, want: Allow},
		{name: "admin delete", actor: admin, cmt: cmt, action: ActionDelete, want: Allow},
		{name: "stranger delete", actor: stranger, cmt: cmt, action: ActionDelete, want: Deny},
		{name: "anonymous delete", actor: models.Actor{ID: 0, Role: models.RoleAdministrator}, cmt: cmt, action: ActionDelete, want: Deny},
		{name: "edit without comment", actor: author, action: ActionEdit, want: Deny},
		{name: "delete without comment", actor: admin, action: ActionDelete, want: Deny},
		{name: "unknown action", actor: admin, cmt: cmt, action: Action("approve"), want: Deny},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Evaluate(tc.actor, tc.cmt, tc.action))
		})
	}
}

func TestAuthorize(t *testing.T) {
	cmt := &model.Comment{ID: uuid.New(), AuthorID: 10}

	require.NoError(t, Authorize(models.Actor{ID: 10}, cmt, ActionEdit))

	err := Authorize(models.Actor{ID: 1, Role: models.RoleAdministrator}, cmt, ActionEdit)
	require.ErrorIs(t, err, model.ErrForbidden)
	require.Contains(t, err.Error(), cmt.ID.String())

	err = Authorize(models.Actor{}, nil, ActionCreate)
	require.ErrorIs(t, err, model.ErrForbidden)
}

func TestNames(t *testing.T) {
	require.Equal(t, "allow", Allow.String())
	require.Equal(t, "deny", Deny.String())
	require.Equal(t, Action("create"), ActionCreate)
	require.Equal(t, Action("edit"), ActionEdit)
	require.Equal(t, Action("delete"), ActionDelete)
}

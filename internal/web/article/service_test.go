package article

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
)

var (
	admin      = models.Actor{ID: 1, Role: models.RoleAdministrator}
	journalist = models.Actor{ID: 2, Role: models.RoleJournalist}
	colleague  = models.Actor{ID: 3, Role: models.RoleJournalist}
	reader     = models.Actor{ID: 4, Role: models.RoleReader}
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc, err := NewService(db, nil)
	require.NoError(t, err)
	return svc
}

func newDraft(title string) CreateInput {
	return CreateInput{
		Title:    title,
		Content:  "## Lead\n\nSomething **happened** today.",
		Category: "politics",
		Images:   []string{"/uploads/a.png"},
	}
}

func TestCreateArticle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, reader, newDraft("nope"))
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(ctx, journalist, CreateInput{Title: " ", Content: "x", Category: "c"})
	require.ErrorIs(t, err, ErrInvalidInput)

	a, err := svc.Create(ctx, journalist, newDraft("Election"))
	require.NoError(t, err)
	require.True(t, a.Published)
	require.Equal(t, journalist.ID, a.AuthorID)
	require.Contains(t, a.HTML, `<h2 id="header-lead">Lead</h2>`)
	require.Equal(t, "Lead Something happened today.", a.Summary)

	got, err := svc.Get(ctx, models.Actor{}, a.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"/uploads/a.png"}, got.Images)
	require.Equal(t, int64(1), got.Views)

	got, err = svc.Get(ctx, reader, a.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Views)

	ok, err := svc.ArticleExists(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.ArticleExists(ctx, a.ID+100)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListVisibility(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, journalist, newDraft("Public story"))
	require.NoError(t, err)
	draft := newDraft("Secret draft")
	unpublished := false
	draft.Published = &unpublished
	hidden, err := svc.Create(ctx, journalist, draft)
	require.NoError(t, err)
	sports := newDraft("Match report")
	sports.Category = "sports"
	_, err = svc.Create(ctx, colleague, sports)
	require.NoError(t, err)

	list, total, err := svc.List(ctx, reader, ListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, "Match report", list[0].Title)

	_, total, err = svc.List(ctx, admin, ListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	list, _, err = svc.List(ctx, reader, ListOptions{Category: "sports"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, _, err = svc.List(ctx, reader, ListOptions{Query: "PUBLIC"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Public story", list[0].Title)

	list, total, err = svc.List(ctx, admin, ListOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, reader, hidden.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, colleague, hidden.ID)
	require.NoError(t, err)

	// drafts still accept and serve comments
	ok, err := svc.ArticleExists(ctx, hidden.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	a, err := svc.Create(ctx, journalist, newDraft("Draft"))
	require.NoError(t, err)

	title := "Final"
	_, err = svc.Update(ctx, colleague, a.ID, UpdateInput{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)

	content := "Fresh body"
	updated, err := svc.Update(ctx, journalist, a.ID, UpdateInput{Title: &title, Content: &content})
	require.NoError(t, err)
	require.Equal(t, "Final", updated.Title)
	require.Equal(t, "Fresh body", updated.Summary)
	require.Contains(t, updated.HTML, "Fresh body")

	empty := ""
	_, err = svc.Update(ctx, admin, a.ID, UpdateInput{Category: &empty})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, admin, a.ID+10, UpdateInput{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, colleague, a.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, a.ID))
	require.ErrorIs(t, svc.Delete(ctx, admin, a.ID), ErrNotFound)

	ok, err := svc.ArticleExists(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

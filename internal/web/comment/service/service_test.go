package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/internal/web/comment/dao"
	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
)

const articleA int64 = 1

type fakeArticles map[int64]bool

func (f fakeArticles) ArticleExists(_ context.Context, articleID int64) (bool, error) {
	return f[articleID], nil
}

// spyStore records whether a mutation reached the store
type spyStore struct {
	Store
	updated bool
	deleted bool
}

func (s *spyStore) Update(ctx context.Context, id uuid.UUID, content string) (*model.Comment, error) {
	s.updated = true
	return s.Store.Update(ctx, id, content)
}

func (s *spyStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	s.deleted = true
	return s.Store.SoftDelete(ctx, id)
}

func newTestService(t *testing.T) (*Service, *spyStore) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		current = current.Add(time.Second)
		return current
	}

	store, err := dao.New(db, fakeArticles{articleA: true, 2: true}, nil, clock, 0)
	require.NoError(t, err)

	spy := &spyStore{Store: store}
	svc, err := New(spy, nil)
	require.NoError(t, err)
	return svc, spy
}

var (
	u1    = models.Actor{ID: 101, Role: models.RoleReader}
	u2    = models.Actor{ID: 102, Role: models.RoleReader}
	admin = models.Actor{ID: 1, Role: models.RoleAdministrator}
)

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestCreateRootComment(t *testing.T) {
	svc, _ := newTestService(t)

	cmt, err := svc.CreateComment(context.Background(), articleA, u1.ID, "Hello", nil)
	require.NoError(t, err)
	require.True(t, cmt.Visible)
	require.Nil(t, cmt.ParentID)
	require.Equal(t, u1.ID, cmt.AuthorID)
}

func TestCreateCommentErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateComment(ctx, articleA, 0, "Hello", nil)
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.CreateComment(ctx, articleA, u1.ID, "", nil)
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.CreateComment(ctx, 99, u1.ID, "Hello", nil)
	require.ErrorIs(t, err, model.ErrNotFound)

	other, err := svc.CreateComment(ctx, 2, u1.ID, "Elsewhere", nil)
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, articleA, u2.ID, "Cross", &other.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestEditCommentAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, spy := newTestService(t)

	cmt, err := svc.CreateComment(ctx, articleA, u1.ID, "Hello", nil)
	require.NoError(t, err)

	for _, actor := range []models.Actor{u2, admin, {}} {
		_, err = svc.EditComment(ctx, cmt.ID, actor, "Hijacked")
		require.ErrorIs(t, err, model.ErrForbidden)
	}
	require.False(t, spy.updated)

	updated, err := svc.EditComment(ctx, cmt.ID, u1, "Hello there")
	require.NoError(t, err)
	require.Equal(t, "Hello there", updated.Content)
	require.True(t, spy.updated)

	_, err = svc.EditComment(ctx, cmt.ID, u1, "  ")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.EditComment(ctx, uuid.New(), u1, "x")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteCommentAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, spy := newTestService(t)

	byAuthor, err := svc.CreateComment(ctx, articleA, u1.ID, "mine", nil)
	require.NoError(t, err)
	byOther, err := svc.CreateComment(ctx, articleA, u1.ID, "moderated", nil)
	require.NoError(t, err)

	err = svc.DeleteComment(ctx, byAuthor.ID, u2)
	require.ErrorIs(t, err, model.ErrForbidden)
	require.False(t, spy.deleted)

	require.NoError(t, svc.DeleteComment(ctx, byAuthor.ID, u1))
	require.NoError(t, svc.DeleteComment(ctx, byOther.ID, admin))

	require.ErrorIs(t, svc.DeleteComment(ctx, uuid.New(), admin), model.ErrNotFound)
}

func TestDeleteCommentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cmt, err := svc.CreateComment(ctx, articleA, u1.ID, "Hello", nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.DeleteComment(ctx, cmt.ID, u1))

		got, err := svc.GetComment(ctx, cmt.ID)
		require.NoError(t, err)
		require.False(t, got.Visible)
	}
}

func TestThreadOrdering(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var roots []*model.Comment
	for _, content := range []string{"t1", "t2", "t3"} {
		cmt, err := svc.CreateComment(ctx, articleA, u1.ID, content, nil)
		require.NoError(t, err)
		roots = append(roots, cmt)
	}
	r1, err := svc.CreateComment(ctx, articleA, u2.ID, "r1", &roots[0].ID)
	require.NoError(t, err)
	r2, err := svc.CreateComment(ctx, articleA, u2.ID, "r2", &roots[0].ID)
	require.NoError(t, err)

	thread, err := svc.GetThread(ctx, articleA)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	require.Equal(t, "t3", thread[0].Content)
	require.Equal(t, "t2", thread[1].Content)
	require.Equal(t, "t1", thread[2].Content)
	require.Len(t, thread[2].Replies, 2)
	require.Equal(t, r1.ID, thread[2].Replies[0].ID)
	require.Equal(t, r2.ID, thread[2].Replies[1].ID)

	n, err := svc.CountComments(ctx, articleA)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	_, err = svc.GetThread(ctx, 404)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestHelloHiBackScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	hello, err := svc.CreateComment(ctx, articleA, u1.ID, "Hello", nil)
	require.NoError(t, err)
	hiBack, err := svc.CreateComment(ctx, articleA, u2.ID, "Hi back", &hello.ID)
	require.NoError(t, err)

	thread, err := svc.GetThread(ctx, articleA)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Equal(t, "Hello", thread[0].Content)
	require.Len(t, thread[0].Replies, 1)
	require.Equal(t, "Hi back", thread[0].Replies[0].Content)

	require.NoError(t, svc.DeleteComment(ctx, hello.ID, admin))

	thread, err = svc.GetThread(ctx, articleA)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Equal(t, hiBack.ID, thread[0].ID)
	require.Empty(t, thread[0].Replies)
	for _, node := range thread {
		require.NotEqual(t, hello.ID, node.ID)
	}
}

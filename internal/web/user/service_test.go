package user

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/library/auth"
	"github.com/Laisky/laisky-newsroom/library/jwt"
)

func newTestService(t *testing.T) (*Service, *jwt.JWT) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	signer, err := jwt.New([]byte("secret"), time.Hour, nil)
	require.NoError(t, err)

	svc, err := NewService(db, signer, nil)
	require.NoError(t, err)
	svc.hashCost = bcrypt.MinCost
	svc.clock = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc, signer
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, signer := newTestService(t)

	sess, err := svc.Register(ctx, RegisterInput{
		Email:    " Reader@Example.com ",
		Password: "secret1",
		Name:     "Juan",
	})
	require.NoError(t, err)
	require.Equal(t, "reader@example.com", sess.User.Email)
	require.Equal(t, models.RoleReader, sess.User.Role)
	require.True(t, sess.User.Active)
	require.NotEqual(t, "secret1", sess.User.PasswordHash)

	claims, err := signer.Parse(sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.User.ID, claims.UserID)
	require.Equal(t, "reader", claims.Role)

	_, err = svc.Register(ctx, RegisterInput{Email: "reader@example.com", Password: "another", Name: "Copy"})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, "reader@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	u, err := svc.Get(ctx, sess.User.ID)
	require.NoError(t, err)
	require.Equal(t, 1, u.FailedLogins)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	logged, err := svc.Login(ctx, "READER@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, sess.User.ID, logged.User.ID)
	require.NotNil(t, logged.User.LastLoginAt)

	u, err = svc.Get(ctx, sess.User.ID)
	require.NoError(t, err)
	require.Zero(t, u.FailedLogins)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	for name, in := range map[string]RegisterInput{
		"bad email":      {Email: "not-an-email", Password: "secret1", Name: "x"},
		"short password": {Email: "a@example.com", Password: "123", Name: "x"},
		"missing name":   {Email: "a@example.com", Password: "secret1", Name: " "},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAdministration(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	admin, err := svc.Bootstrap(ctx, "admin@example.com", "admin-pass", "Admin")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdministrator, admin.Role)

	again, err := svc.Bootstrap(ctx, "admin@example.com", "admin-pass", "Admin")
	require.NoError(t, err)
	require.Equal(t, admin.ID, again.ID)

	sess, err := svc.Register(ctx, RegisterInput{Email: "writer@example.com", Password: "secret1", Name: "W"})
	require.NoError(t, err)
	writer := sess.User

	_, err = svc.UpdateRole(ctx, writer.Actor(), writer.ID, "administrator")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateRole(ctx, admin.Actor(), writer.ID, "editor")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateRole(ctx, admin.Actor(), 9999, "journalist")
	require.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.UpdateRole(ctx, admin.Actor(), writer.ID, "Journalist")
	require.NoError(t, err)
	require.Equal(t, models.RoleJournalist, updated.Role)

	users, err := svc.List(ctx, admin.Actor())
	require.NoError(t, err)
	require.Len(t, users, 2)
	_, err = svc.List(ctx, writer.Actor())
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SetActive(ctx, admin.Actor(), admin.ID, false)
	require.ErrorIs(t, err, ErrInvalidInput)

	deactivated, err := svc.SetActive(ctx, admin.Actor(), writer.ID, false)
	require.NoError(t, err)
	require.False(t, deactivated.Active)

	_, err = svc.Login(ctx, "writer@example.com", "secret1")
	require.ErrorIs(t, err, ErrInactive)

	_, err = svc.SetActive(ctx, admin.Actor(), writer.ID, true)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "writer@example.com", "secret1")
	require.NoError(t, err)
}

func TestActiveActor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	admin, err := svc.Bootstrap(ctx, "admin@example.com", "admin-pass", "Admin")
	require.NoError(t, err)
	sess, err := svc.Register(ctx, RegisterInput{Email: "editor@example.com", Password: "secret1", Name: "E"})
	require.NoError(t, err)
	uid := sess.User.ID

	actor, err := svc.ActiveActor(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, models.Actor{ID: uid, Role: models.RoleReader}, actor)

	_, err = svc.UpdateRole(ctx, admin.Actor(), uid, "administrator")
	require.NoError(t, err)
	actor, err = svc.ActiveActor(ctx, uid)
	require.NoError(t, err)
	require.True(t, actor.IsAdmin())

	_, err = svc.UpdateRole(ctx, admin.Actor(), uid, "reader")
	require.NoError(t, err)
	actor, err = svc.ActiveActor(ctx, uid)
	require.NoError(t, err)
	require.False(t, actor.IsAdmin())

	_, err = svc.SetActive(ctx, admin.Actor(), uid, false)
	require.NoError(t, err)
	_, err = svc.ActiveActor(ctx, uid)
	require.ErrorIs(t, err, auth.ErrRevoked)

	_, err = svc.ActiveActor(ctx, 9999)
	require.ErrorIs(t, err, auth.ErrRevoked)
}

package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"courtreserve/internal/auth"
	"courtreserve/internal/catalog"
	"courtreserve/internal/domain"
	"courtreserve/internal/repositories/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService() AuthService {
	store := memstore.New(catalog.DefaultCourts())
	return AuthService{
		Users:           store.Users(),
		Tokens:          auth.Tokens{Secret: []byte("test-secret"), TTL: time.Hour},
		SuperAdminEmail: "Owner@Club.test",
		Notifier:        &recordingNotifier{},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterInput{Name: "Mali", Email: " Mali@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "mali@example.com", sess.User.Email)
	assert.Equal(t, domain.RoleUser, sess.User.Role)

	_, err = svc.Register(ctx, RegisterInput{Name: "Again", Email: "mali@example.com", Password: "secret2"})
	assert.True(t, domain.IsConflict(err))

	login, err := svc.Login(ctx, "MALI@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "mali@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	for _, in := range []RegisterInput{
		{Name: "", Email: "a@b.c", Password: "secret1"},
		{Name: "A", Email: "not-an-email", Password: "secret1"},
		{Name: "A", Email: "a@b.c", Password: "123"},
		{Name: "A", Email: "a@b.c", Password: strings.Repeat("a", 80)},
	} {
		_, err := svc.Register(ctx, in)
		assert.True(t, domain.IsValidation(err), "input %+v", in)
	}
}

func TestSuperAdminEmailGetsSuperAdminRole(t *testing.T) {
	svc := newAuthService()
	sess, err := svc.Register(context.Background(), RegisterInput{Name: "Owner", Email: "owner@club.test", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, sess.User.Role)
}

func TestResolveReadsCurrentProfile(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	sess, err := svc.Register(ctx, RegisterInput{Name: "Nok", Email: "nok@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Users.SetRole(ctx, sess.User.ID, domain.RoleAdmin))
	u, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	id, err := svc.Authenticate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id.UserID)

	_, err = svc.Resolve(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

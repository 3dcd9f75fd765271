package auth

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawtrail/petcare-api/internal/email"
	"github.com/pawtrail/petcare-api/internal/model"
	pkgauth "github.com/pawtrail/petcare-api/pkg/auth"
	"github.com/pawtrail/petcare-api/pkg/errors"
	"github.com/pawtrail/petcare-api/pkg/logger"
	"github.com/pawtrail/petcare-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, em string) (*model.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, em) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	f.users[u.ID] = u
	return nil
}

func newService(t *testing.T) (*Service, *fakeUserRepo) {
	t.Helper()
	users := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	jwtSvc, err := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
	require.NoError(t, err)

	svc := NewService(users, jwtSvc, security.NewBcryptHasher(4), email.NoopService{}, logger.NewLogger(nil))
	return svc, users
}

func register(t *testing.T, svc *Service) *AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:     "dana@example.com",
		Password:  "hunter2hunter2",
		FirstName: "Dana",
		LastName:  "Reyes",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)
	resp := register(t, svc)

	assert.Equal(t, "dana@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	login, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dana@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:     "dana@example.com",
		Password:  "anotherpassword",
		FirstName: "Dana",
		LastName:  "Reyes",
	})
	assert.True(t, errors.IsCode(err, errors.ErrConflict))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newService(t)
	register(t, svc)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dana@example.com",
		Password: "wrong-password",
	})
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
}

func TestLoginLockout(t *testing.T) {
	svc, _ := newService(t)
	register(t, svc)
	bad := &model.LoginRequest{Email: "dana@example.com", Password: "wrong-password"}

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), bad)
		assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
	}

	// Locked out now, even with the right password.
	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "dana@example.com",
		Password: "hunter2hunter2",
	})
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))
}

func TestRefresh(t *testing.T) {
	svc, users := newService(t)
	resp := register(t, svc)

	refreshed, err := svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)

	// Access tokens are not accepted on the refresh path.
	_, err = svc.Refresh(context.Background(), resp.Tokens.AccessToken)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))

	// A locked account stops minting tokens.
	users.users[resp.User.ID].Status = model.UserStatusLocked
	_, err = svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	assert.True(t, errors.IsCode(err, errors.ErrUnauthorized))
}

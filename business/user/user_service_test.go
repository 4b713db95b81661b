package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"abayaStore/domain"
	"abayaStore/internal/middleware"
	"abayaStore/internal/repository/redis"
	"abayaStore/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef"

type fakeUserRepo struct {
	users  map[uint]*domain.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return *u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %w", domain.ErrNotFound)
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) UpdateEmailVerification(_ context.Context, id uint, v bool) error {
	r.users[id].IsVerified = v
	return nil
}

func (r *fakeUserRepo) UpdateLoginState(_ context.Context, id uint, attempts int, lastFailed, lockedUntil *time.Time) error {
	u := r.users[id]
	u.FailedLoginAttempts = attempts
	u.LastFailedLogin = lastFailed
	u.LockedUntil = lockedUntil
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]string
}

func (r *fakeTokenRepo) StoreToken(_ context.Context, userID, token string, _ redis.TokenData, _ time.Duration) error {
	r.tokens[token] = userID
	return nil
}

func (r *fakeTokenRepo) ValidateToken(_ context.Context, token string) (string, error) {
	id, ok := r.tokens[token]
	if !ok {
		return "", errors.New("token not found or expired")
	}
	return id, nil
}

func (r *fakeTokenRepo) RevokeToken(_ context.Context, _ string, token string) error {
	delete(r.tokens, token)
	return nil
}

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) SendEmail(_, toEmail, _, message string) error {
	if m.fail {
		return errors.New("mailer down")
	}
	m.sent = append(m.sent, toEmail+"|"+message)
	return nil
}

func newTestService(t *testing.T) (*userService, *fakeUserRepo, *fakeTokenRepo, *fakeMailer) {
	t.Helper()
	utils.InitJWT("test-secret", time.Hour)

	repo := newFakeUserRepo()
	tokens := &fakeTokenRepo{tokens: map[string]string{}}
	mailer := &fakeMailer{}
	svc := NewUserService(repo, tokens, validator.New(), mailer, testKey, "http://shop.test")
	return svc, repo, tokens, mailer
}

func registerVerified(t *testing.T, svc *userService, repo *fakeUserRepo) domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), &domain.User{FullName: "Aisha", Email: "Aisha@Example.com", Password: "secret1"})
	require.NoError(t, err)
	repo.users[u.ID].IsVerified = true
	return u
}

func TestRegister(t *testing.T) {
	svc, repo, _, mailer := newTestService(t)

	u, err := svc.Register(context.Background(), &domain.User{FullName: "Aisha", Email: "Aisha@Example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, "aisha@example.com", u.Email)
	assert.Empty(t, u.Password)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.NotEqual(t, "secret1", repo.users[u.ID].Password)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0], "http://shop.test/api/v1/users/email-verification/")

	_, err = svc.Register(context.Background(), &domain.User{FullName: "Other", Email: "aisha@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), &domain.User{Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(context.Background(), &domain.User{Email: "a@b.com", Password: "123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegisterMailFailureIsNotFatal(t *testing.T) {
	svc, _, _, mailer := newTestService(t)
	mailer.fail = true

	_, err := svc.Register(context.Background(), &domain.User{FullName: "A", Email: "a@b.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestLoginSuccessStoresToken(t *testing.T) {
	svc, repo, tokens, _ := newTestService(t)
	registerVerified(t, svc, repo)

	token, u, err := svc.Login(context.Background(), "aisha@example.com", "secret1", "127.0.0.1", "test")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Empty(t, u.Password)
	assert.Equal(t, "1", tokens.tokens[token])
}

var _ middleware.TokenValidator = (*userService)(nil)

func TestAuthMiddlewareAcceptsSessionTokens(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	u := registerVerified(t, svc, repo)

	token, _, err := svc.Login(context.Background(), "aisha@example.com", "secret1", "127.0.0.1", "test")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, _ := middleware.UserID(c)
		return c.String(http.StatusOK, fmt.Sprint(id))
	}, middleware.AuthMiddlewareWithRedis(svc))

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := call()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fmt.Sprint(u.ID), rec.Body.String())

	require.NoError(t, svc.Logout(context.Background(), u.ID, token))
	assert.Equal(t, http.StatusUnauthorized, call().Code)
}

func TestLoginUnverified(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), &domain.User{FullName: "A", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "a@b.com", "secret1", "", "")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLoginLockout(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	u := registerVerified(t, svc, repo)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i := 0; i < maxLoginAttempts-1; i++ {
		_, _, err := svc.Login(context.Background(), "aisha@example.com", "wrong", "", "")
		assert.ErrorIs(t, err, ErrIncorrectPassword)
	}

	_, _, err := svc.Login(context.Background(), "aisha@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, ErrAccountLocked)

	// correct password is still refused while locked
	_, _, err = svc.Login(context.Background(), "aisha@example.com", "secret1", "", "")
	assert.ErrorIs(t, err, ErrAccountLocked)

	now = now.Add(lockoutDuration + time.Second)
	_, _, err = svc.Login(context.Background(), "aisha@example.com", "secret1", "", "")
	require.NoError(t, err)
	assert.Zero(t, repo.users[u.ID].FailedLoginAttempts)
	assert.Nil(t, repo.users[u.ID].LockedUntil)
}

func TestLoginAttemptsOutsideWindowReset(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	u := registerVerified(t, svc, repo)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i := 0; i < maxLoginAttempts-1; i++ {
		_, _, _ = svc.Login(context.Background(), "aisha@example.com", "wrong", "", "")
	}
	assert.Equal(t, maxLoginAttempts-1, repo.users[u.ID].FailedLoginAttempts)

	now = now.Add(loginAttemptWindow + time.Minute)
	_, _, err := svc.Login(context.Background(), "aisha@example.com", "wrong", "", "")
	assert.ErrorIs(t, err, ErrIncorrectPassword)
	assert.Equal(t, 1, repo.users[u.ID].FailedLoginAttempts)
}

func TestVerifyEmail(t *testing.T) {
	svc, repo, _, mailer := newTestService(t)
	u, err := svc.Register(context.Background(), &domain.User{FullName: "A", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	link := strings.SplitN(mailer.sent[0], "|", 2)[1]
	start := strings.Index(link, "email-verification/") + len("email-verification/")
	code := link[start:]
	code = code[:strings.Index(code, "</br>")]

	require.NoError(t, svc.VerifyEmail(context.Background(), code))
	assert.True(t, repo.users[u.ID].IsVerified)

	assert.ErrorIs(t, svc.VerifyEmail(context.Background(), code), ErrInvalidVerifyLink)
}

func TestLogoutAndRefresh(t *testing.T) {
	svc, repo, tokens, _ := newTestService(t)
	registerVerified(t, svc, repo)

	token, u, err := svc.Login(context.Background(), "aisha@example.com", "secret1", "", "")
	require.NoError(t, err)

	// tokens issued within the same second are identical, so step the clock
	time.Sleep(1100 * time.Millisecond)
	fresh, _, err := svc.RefreshToken(context.Background(), token, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)
	_, stillThere := tokens.tokens[token]
	assert.False(t, stillThere)

	require.NoError(t, svc.Logout(context.Background(), u.ID, fresh))
	assert.Empty(t, tokens.tokens)

	_, _, err = svc.RefreshToken(context.Background(), fresh, "", "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateUserRoleRequiresAdmin(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	u := registerVerified(t, svc, repo)

	_, err := svc.UpdateUser(context.Background(), u.ID, &domain.User{Role: domain.RoleAdmin}, domain.RoleCustomer)
	assert.ErrorIs(t, err, ErrRoleChangeNotAdmin)

	_, err = svc.UpdateUser(context.Background(), u.ID, &domain.User{Role: "SUPERUSER"}, domain.RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidRole)

	updated, err := svc.UpdateUser(context.Background(), u.ID, &domain.User{Role: domain.RoleStaff, FullName: "Aisha K"}, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, updated.Role)
	assert.Equal(t, "Aisha K", updated.FullName)
}

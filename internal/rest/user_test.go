package rest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	userService "abayaStore/business/user"
	"abayaStore/domain"
	"abayaStore/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type fakeUsers struct {
	UserService
	loginErr error
}

func (f *fakeUsers) Login(_ context.Context, email, _, _, _ string) (string, domain.User, error) {
	if f.loginErr != nil {
		return "", domain.User{}, f.loginErr
	}
	return "jwt", domain.User{ID: 42, Email: email}, nil
}

type fakeMerger struct {
	session string
	userID  uint
	err     error
}

func (f *fakeMerger) MergeGuestCart(_ context.Context, sessionKey string, userID uint) error {
	f.session, f.userID = sessionKey, userID
	return f.err
}

func TestLoginMergesGuestCart(t *testing.T) {
	merger := &fakeMerger{}
	h := NewUserHandler(&fakeUsers{}, merger)
	e := echo.New()
	e.POST("/login", h.Login)

	rec := do(e, http.MethodPost, "/login", jsonBody(`{"email":"amina@example.com","password":"secret"}`),
		http.Header{middleware.HeaderGuestID: {guestKey}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"jwt"`)
	assert.Equal(t, guestKey, merger.session)
	assert.Equal(t, uint(42), merger.userID)
}

func TestLoginIgnoresMergeFailure(t *testing.T) {
	merger := &fakeMerger{err: errors.New("db down")}
	h := NewUserHandler(&fakeUsers{}, merger)
	e := echo.New()
	e.POST("/login", h.Login)

	rec := do(e, http.MethodPost, "/login", jsonBody(`{"email":"amina@example.com","password":"secret"}`),
		http.Header{middleware.HeaderGuestID: {guestKey}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, guestKey, merger.session)
}

func TestLoginWithoutGuestHeaderSkipsMerge(t *testing.T) {
	merger := &fakeMerger{}
	h := NewUserHandler(&fakeUsers{}, merger)
	e := echo.New()
	e.POST("/login", h.Login)

	rec := do(e, http.MethodPost, "/login", jsonBody(`{"email":"amina@example.com","password":"secret"}`), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, merger.session)

	rec = do(e, http.MethodPost, "/login", jsonBody(`{"email":"amina@example.com","password":"secret"}`),
		http.Header{middleware.HeaderGuestID: {"guest-abc"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, merger.session)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"bad email", `{"email":"nope","password":"x"}`, nil, http.StatusBadRequest},
		{"wrong password", `{"email":"a@b.co","password":"x"}`, userService.ErrIncorrectPassword, http.StatusUnauthorized},
		{"locked", `{"email":"a@b.co","password":"x"}`, userService.ErrAccountLocked, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(&fakeUsers{loginErr: tt.err}, &fakeMerger{})
			e := echo.New()
			e.POST("/login", h.Login)

			rec := do(e, http.MethodPost, "/login", jsonBody(tt.body), nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

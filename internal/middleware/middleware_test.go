package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"abayaStore/domain"
	"abayaStore/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator map[string]string

func (f fakeValidator) ValidateTokenFromRedis(_ context.Context, token string) (string, error) {
	id, ok := f[token]
	if !ok {
		return "", errors.New("token not found")
	}
	return id, nil
}

func ok(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func serve(e *echo.Echo, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	utils.InitJWT("test-secret", time.Hour)
	tok, err := utils.GenerateJWT(userID, role)
	require.NoError(t, err)
	return tok
}

func bearer(tok string) http.Header {
	return http.Header{"Authorization": {"Bearer " + tok}}
}

func TestAuthMiddlewareWithRedis(t *testing.T) {
	tok := token(t, "7", domain.RoleCustomer)
	revoked := token(t, "8", domain.RoleCustomer)
	validator := fakeValidator{tok: "7"}

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, map[string]any{"id": id, "role": Role(c)})
	}, AuthMiddlewareWithRedis(validator))

	tests := []struct {
		name   string
		header http.Header
		status int
	}{
		{"valid", bearer(tok), http.StatusOK},
		{"missing header", nil, http.StatusUnauthorized},
		{"wrong scheme", http.Header{"Authorization": {"Token " + tok}}, http.StatusUnauthorized},
		{"garbage", bearer("not-a-jwt"), http.StatusUnauthorized},
		{"revoked", bearer(revoked), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tt.header)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	rec := serve(e, http.MethodGet, "/me", bearer(tok))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, domain.RoleCustomer, body["role"])
}

func TestOptionalAuth(t *testing.T) {
	tok := token(t, "3", domain.RoleCustomer)

	e := echo.New()
	e.GET("/cart", func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, map[string]uint{"id": id})
	}, OptionalAuth(fakeValidator{tok: "3"}))

	rec := serve(e, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/cart", bearer(tok))
	assert.JSONEq(t, `{"id":3}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/cart", bearer("bad"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func withRole(role string, id uint) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextRole, role)
			c.Set(ContextUserID, id)
			return next(c)
		}
	}
}

func TestRoleGuards(t *testing.T) {
	tests := []struct {
		role  string
		guard echo.MiddlewareFunc
		want  int
	}{
		{domain.RoleAdmin, AdminOnly(), http.StatusOK},
		{domain.RoleStaff, AdminOnly(), http.StatusForbidden},
		{domain.RoleStaff, StaffOrAdmin(), http.StatusOK},
		{domain.RoleAdmin, StaffOrAdmin(), http.StatusOK},
		{domain.RoleCustomer, StaffOrAdmin(), http.StatusForbidden},
	}
	for _, tt := range tests {
		e := echo.New()
		e.GET("/x", ok, withRole(tt.role, 1), tt.guard)
		assert.Equal(t, tt.want, serve(e, http.MethodGet, "/x", nil).Code, tt.role)
	}
}

func TestSelfOrAdmin(t *testing.T) {
	e := echo.New()
	e.GET("/users/:id", ok, withRole(domain.RoleCustomer, 5), SelfOrAdmin())
	e.GET("/admin/users/:id", ok, withRole(domain.RoleAdmin, 1), SelfOrAdmin())

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/users/5", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/users/6", nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/users/abc", nil).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin/users/6", nil).Code)
}

func TestGuestSession(t *testing.T) {
	e := echo.New()
	e.GET("/cart", func(c echo.Context) error {
		return c.String(http.StatusOK, GuestID(c))
	}, GuestSession())

	rec := serve(e, http.MethodGet, "/cart", nil)
	issued := rec.Header().Get(HeaderGuestID)
	assert.Len(t, issued, 36)
	assert.Equal(t, issued, rec.Body.String())

	rec = serve(e, http.MethodGet, "/cart", http.Header{HeaderGuestID: {issued}})
	assert.Equal(t, issued, rec.Body.String())

	rec = serve(e, http.MethodGet, "/cart", http.Header{HeaderGuestID: {"../../etc"}})
	assert.NotEqual(t, "../../etc", rec.Body.String())
}

func TestValidGuestID(t *testing.T) {
	assert.True(t, ValidGuestID("3f2b8c1e-9d4a-4e6b-8a7c-5d1e2f3a4b5c"))
	assert.False(t, ValidGuestID(""))
	assert.False(t, ValidGuestID("guest-1"))
}

type fakeEnforcer struct {
	allowed map[string]bool
	err     error
}

func (f fakeEnforcer) Allowed(role, resource, action string) (bool, error) {
	return f.allowed[role+":"+resource+":"+action], f.err
}

func TestAuthorize(t *testing.T) {
	enforcer := fakeEnforcer{allowed: map[string]bool{"STAFF:orders:read": true}}

	e := echo.New()
	e.GET("/staff", ok, withRole(domain.RoleStaff, 1), Authorize(enforcer, "orders", "read"))
	e.GET("/refund", ok, withRole(domain.RoleStaff, 1), Authorize(enforcer, "refunds", "write"))
	e.GET("/broken", ok, withRole(domain.RoleStaff, 1), Authorize(fakeEnforcer{err: errors.New("boom")}, "orders", "read"))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/staff", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/refund", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(e, http.MethodGet, "/broken", nil).Code)
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/boom", func(echo.Context) error { return errors.New("boom") })

	rec := serve(e, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"code":"INTERNAL_SERVER_ERROR","message":"Internal Server Error"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

type captureRecorder struct {
	entries []domain.ActivityLog
}

func (r *captureRecorder) Record(_ context.Context, entry domain.ActivityLog) {
	r.entries = append(r.entries, entry)
}

func TestActivity(t *testing.T) {
	rec := &captureRecorder{}

	e := echo.New()
	audit := Activity(rec, "order.status", "order")
	e.PUT("/orders/:id/status", ok, withRole(domain.RoleStaff, 4), audit)
	e.PUT("/orders/:id/fail", func(c echo.Context) error {
		return c.String(http.StatusConflict, "nope")
	}, withRole(domain.RoleStaff, 4), audit)
	e.GET("/orders/:id", ok, withRole(domain.RoleStaff, 4), audit)

	serve(e, http.MethodPut, "/orders/9/status", nil)
	serve(e, http.MethodPut, "/orders/9/fail", nil)
	serve(e, http.MethodGet, "/orders/9", nil)

	require.Len(t, rec.entries, 1)
	entry := rec.entries[0]
	assert.Equal(t, "order.status", entry.Action)
	assert.Equal(t, "9", entry.EntityID)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(4), *entry.UserID)
	assert.Equal(t, "order.status order 9", entry.Description)
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.GET("/login", ok, RateLimit(2, time.Minute))
	e.GET("/open", ok, RateLimit(0, time.Minute))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(e, http.MethodGet, "/login", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/open", nil).Code)
	}
}

func TestQueryToken(t *testing.T) {
	tok := token(t, "9", domain.RoleStaff)

	e := echo.New()
	e.GET("/live", func(c echo.Context) error {
		id, _ := UserID(c)
		return c.JSON(http.StatusOK, map[string]uint{"id": id})
	}, QueryToken(), AuthMiddlewareWithRedis(fakeValidator{tok: "9"}))

	rec := serve(e, http.MethodGet, "/live?token="+tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":9}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/live", nil).Code)
}

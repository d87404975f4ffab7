package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-psy/internal/auth"
	"github.com/mind-engage/mindengage-psy/internal/rbac"
)

func TestIssueAndParse(t *testing.T) {
	svc := auth.NewService("s3cret", time.Hour)

	tok, err := svc.Issue("ops@example.org", "operator")
	require.NoError(t, err)

	c, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "operator", c.Role)
	assert.Equal(t, "ops@example.org", c.Subject)
}

func TestIssue_UnknownRole(t *testing.T) {
	_, err := auth.NewService("s3cret", 0).Issue("x", "student")
	assert.ErrorContains(t, err, "unknown role")
}

func TestParse_Rejects(t *testing.T) {
	svc := auth.NewService("s3cret", time.Minute)
	tok, err := svc.Issue("x", "viewer")
	require.NoError(t, err)

	_, err = auth.NewService("other", time.Minute).Parse(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.Parse("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	now := t0
	clocked := auth.NewService("s3cret", time.Hour, auth.WithClock(func() time.Time { return now }))
	tok, err = clocked.Issue("x", "viewer")
	require.NoError(t, err)
	_, err = clocked.Parse(tok)
	require.NoError(t, err)

	now = t0.Add(2 * time.Hour)
	_, err = clocked.Parse(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	svc := auth.NewService("s3cret", time.Hour)
	var role, sub string
	h := auth.Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = rbac.RoleFromContext(r.Context())
		sub = rbac.SubjectFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := svc.Issue("alice", "author")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "author", role)
	assert.Equal(t, "alice", sub)
}

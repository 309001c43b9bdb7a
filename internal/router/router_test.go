package router

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *Router[string] {
	r := New[string]()
	r.Pattern("path", ".+")
	return r
}

func TestMatchOptionalTrailingGroup(t *testing.T) {
	r := newTestRouter()
	r.Handle(http.MethodGet, "/edit(/:path)", "edit")

	h, params, ok := r.Match(http.MethodGet, "/edit/foo/bar")
	require.True(t, ok)
	assert.Equal(t, "edit", h)
	assert.Equal(t, "foo/bar", params["path"])

	h, params, ok = r.Match(http.MethodGet, "/edit")
	require.True(t, ok)
	assert.Equal(t, "edit", h)
	assert.Empty(t, params["path"])
}

func TestMatchRegistrationOrderWins(t *testing.T) {
	r := newTestRouter()
	r.Handle(http.MethodGet, "/version/:version(/:path)", "versioned")
	r.Handle(http.MethodGet, "/(:path)", "show", Tail())

	h, params, ok := r.Match(http.MethodGet, "/version/abc123/foo")
	require.True(t, ok)
	assert.Equal(t, "versioned", h)
	assert.Equal(t, "abc123", params["version"])
	assert.Equal(t, "foo", params["path"])

	h, params, ok = r.Match(http.MethodGet, "/version/abc123")
	require.True(t, ok)
	assert.Equal(t, "versioned", h)
	assert.Empty(t, params["path"])

	h, params, ok = r.Match(http.MethodGet, "/just/a/page")
	require.True(t, ok)
	assert.Equal(t, "show", h)
	assert.Equal(t, "just/a/page", params["path"])
}

func TestMatchTailCapture(t *testing.T) {
	r := New[string]()
	r.Handle(http.MethodDelete, "/:path", "delete", Tail())

	h, params, ok := r.Match(http.MethodDelete, "/deep/nested/page")
	require.True(t, ok)
	assert.Equal(t, "delete", h)
	assert.Equal(t, "deep/nested/page", params["path"])
}

func TestMatchConstraint(t *testing.T) {
	r := newTestRouter()
	r.Handle(http.MethodGet, "/compare/:versions(/:path)", "compare",
		Constraint("versions", `\w+\.{2,3}\w+`))
	r.Handle(http.MethodGet, "/compare(/:path)", "redirect")

	h, params, ok := r.Match(http.MethodGet, "/compare/abc...def/foo")
	require.True(t, ok)
	assert.Equal(t, "compare", h)
	assert.Equal(t, "abc...def", params["versions"])
	assert.Equal(t, "foo", params["path"])

	// Constraint fails, falls through to the later route.
	h, params, ok = r.Match(http.MethodGet, "/compare/foo")
	require.True(t, ok)
	assert.Equal(t, "redirect", h)
	assert.Equal(t, "foo", params["path"])
}

func TestMatchMethodFilter(t *testing.T) {
	r := newTestRouter()
	r.Handle(http.MethodGet, "/login", "form")
	r.Handle(http.MethodPost, "/login", "auth")

	h, _, ok := r.Match(http.MethodPost, "/login")
	require.True(t, ok)
	assert.Equal(t, "auth", h)

	_, _, ok = r.Match(http.MethodPut, "/login")
	assert.False(t, ok)
}

func TestMatchNoRoute(t *testing.T) {
	r := newTestRouter()
	r.Handle(http.MethodGet, "/login", "form")

	_, _, ok := r.Match(http.MethodGet, "/logout")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/a//b", "/a/b"},
		{"a/b/../c", "/a/c"},
		{"/../../etc", "/etc"},
		{"/a/./b/", "/a/b"},
		{"", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

package wiki

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo/bar", "foo/bar"},
		{"/foo/bar/", "foo/bar"},
		{"foo//bar", "foo/bar"},
		{"foo/../bar", "bar"},
		{"../../etc/passwd", "etc/passwd"},
		{"/", ""},
		{"", ""},
		{" spaced ", "spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), "NormalizePath(%q)", tt.in)
	}
}

func TestPageNewAndRoot(t *testing.T) {
	p := NewPage("foo/bar")
	assert.True(t, p.New())
	assert.False(t, p.Root())
	assert.Equal(t, "bar", p.Title())

	root := NewPage("/")
	assert.True(t, root.Root())
	assert.Equal(t, "root", root.Title())
}

func TestPageTitleAttribute(t *testing.T) {
	p := NewPage("foo/bar")
	p.Attributes["title"] = "Front Page"
	assert.Equal(t, "Front Page", p.Title())
}

func TestPageModified(t *testing.T) {
	p := NewPage("foo")
	assert.False(t, p.Modified(), "empty new page is unmodified")

	p.Content = []byte("hello")
	assert.True(t, p.Modified(), "new page with content is modified")

	p.Loaded("v1")
	assert.False(t, p.New())
	assert.False(t, p.Modified(), "freshly loaded page is unmodified")

	p.Content = []byte("hello world")
	assert.True(t, p.Modified())

	p.Content = []byte("hello")
	assert.False(t, p.Modified(), "reverting content clears modification")

	p.Attributes["tags"] = "wiki"
	assert.True(t, p.Modified(), "attribute change counts as modification")
}

func TestUpdateAttributesDropsEmptyValues(t *testing.T) {
	p := NewPage("foo")
	p.UpdateAttributes(map[string]string{"title": "Foo", "tags": ""})
	assert.Equal(t, map[string]string{"title": "Foo"}, p.Attributes)
}

func TestReservedPathGuard(t *testing.T) {
	g, err := NewReservedPathGuard(DefaultReservedPatterns)
	require.NoError(t, err)

	reserved := []string{
		"login", "/login", "logout", "edit/foo/bar", "new", "static/app.css",
		"move/some/page", "compare", "version/abc/foo", "a/../login",
	}
	for _, p := range reserved {
		assert.True(t, g.Reserved(p), "expected %q to be reserved", p)
	}

	free := []string{"", "home", "foo/bar", "loginish", "docs/edit-guide"}
	for _, p := range free {
		assert.False(t, g.Reserved(p), "expected %q not to be reserved", p)
	}
}

func TestReservedPathGuardRejectsBadPattern(t *testing.T) {
	_, err := NewReservedPathGuard([]string{"[unterminated"})
	assert.Error(t, err)
}

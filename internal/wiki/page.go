// Package wiki defines the versioned page model and the storage contract of
// the engine. Persistence backends live elsewhere and implement Store.
package wiki

import (
	"maps"
	"path"
	"slices"
	"strings"
	"time"
)

// Version is an opaque token identifying one committed state of a page.
// It is comparable for equality only; previous/next ordering comes from the
// store. A version is immutable once assigned — only a successful commit
// produces a new one.
type Version string

// Page is a wiki document identified by a hierarchical, slash-separated
// path. A page constructed with NewPage stays new until its first
// successful commit.
type Page struct {
	Path       string
	Version    Version
	Content    []byte
	Attributes map[string]string

	// PrevVersion and NextVersion are populated by the store when a page is
	// loaded at a pinned version; empty means no such neighbor exists.
	PrevVersion Version
	NextVersion Version

	isNew bool

	savedContent    []byte
	savedAttributes map[string]string
}

// NewPage constructs an uncommitted page at the normalized path.
func NewPage(p string) *Page {
	return &Page{
		Path:       NormalizePath(p),
		Attributes: make(map[string]string),
		isNew:      true,
	}
}

// Loaded marks the page as the persisted state at the given version. Stores
// call this after reading a page so Modified can compare against the
// last-loaded snapshot.
func (p *Page) Loaded(v Version) {
	p.Version = v
	p.isNew = false
	p.savedContent = slices.Clone(p.Content)
	p.savedAttributes = maps.Clone(p.Attributes)
}

// New reports whether the page has never been committed.
func (p *Page) New() bool { return p.isNew }

// Root reports whether the page is the top-level page.
func (p *Page) Root() bool { return p.Path == "" }

// Title returns the display title: the title attribute if set, else the
// last path segment, else "root" for the top-level page.
func (p *Page) Title() string {
	if t := p.Attributes["title"]; t != "" {
		return t
	}
	if p.Root() {
		return "root"
	}
	return path.Base(p.Path)
}

// Modified reports whether the in-memory state differs from the last-loaded
// version. A new page counts as modified once it carries any content or
// attributes.
func (p *Page) Modified() bool {
	if p.isNew {
		return len(p.Content) > 0 || len(p.Attributes) > 0
	}
	if !slices.Equal(p.Content, p.savedContent) {
		return true
	}
	return !maps.Equal(p.Attributes, p.savedAttributes)
}

// UpdateAttributes replaces the page's attribute mapping. Empty values
// delete the key.
func (p *Page) UpdateAttributes(attrs map[string]string) {
	next := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if v != "" {
			next[k] = v
		}
	}
	p.Attributes = next
}

// NormalizePath resolves "." and ".." segments, collapses slashes and strips
// the leading and trailing slash. The root page is the empty path.
func NormalizePath(p string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(p))
	return strings.TrimPrefix(cleaned, "/")
}

// HistoryEntry describes one committed version of a page. Stores return
// entries newest-first.
type HistoryEntry struct {
	Version Version
	Author  string
	Date    time.Time
	Message string
}

// Hunk is one contiguous region of change in a diff.
type Hunk struct {
	Context string
	Added   string
	Removed string
}

// Diff is the change between two versions of a page, produced by the store
// and consumed read-only. A nil From means the diff starts from the empty
// page.
type Diff struct {
	From  *Version
	To    Version
	Hunks []Hunk
}

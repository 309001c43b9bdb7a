package web

import (
	"net/url"
	"strings"

	"github.com/scribewiki/scribe/internal/wiki"
)

// MenuItem is one node of the actions menu. The root item carries only a
// name; leaves carry the link target and an optional access key.
type MenuItem struct {
	Name      string
	Href      string
	AccessKey string
	Children  []*MenuItem
}

// Item appends a child and returns it so sub-menus can be built inline.
func (m *MenuItem) Item(name, href, accessKey string) *MenuItem {
	child := &MenuItem{Name: name, Href: href, AccessKey: accessKey}
	m.Children = append(m.Children, child)
	return child
}

// Find returns the direct child with the given name, or nil.
func (m *MenuItem) Find(name string) *MenuItem {
	for _, c := range m.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// buildMenu assembles the actions menu by running the menu hook chain over a
// fresh root item. A menu with no entries renders as nothing.
func (a *App) buildMenu(c *Context) *MenuItem {
	root := &MenuItem{Name: "actions"}
	c.Menu = root
	a.hooks.Invoke("menu", c)
	c.Menu = nil
	if len(root.Children) == 0 {
		return nil
	}
	return root
}

// actionsMenu populates the standard entries for the resolved page: view,
// edit (with new, and move/delete except on the root page) and history.
// Version navigation appears only when the rendering action asked for it.
func (a *App) actionsMenu(c *Context) {
	if c.Menu == nil || c.Menu.Name != "actions" || c.Page == nil || c.Page.New() {
		return
	}
	p := c.Page

	c.Menu.Item("view", pagePath(p.Path), "v")
	edit := c.Menu.Item("edit", actionPath("edit", p.Path), "e")
	edit.Item("new", actionPath("new", p.Path), "n")
	if !p.Root() {
		edit.Item("move", actionPath("move", p.Path), "m")
		edit.Item("delete", actionPath("delete", p.Path), "d")
	}
	history := c.Menu.Item("history", actionPath("history", p.Path), "h")

	if !c.menuVersions {
		return
	}
	query := c.Query()
	if p.PrevVersion != "" {
		history.Item("older", versionPath(p.Path, p.PrevVersion, query), "o")
	}
	if p.NextVersion != "" {
		// NextVersion set means a newer committed version exists, so the
		// page on display is not the head.
		history.Item("head", withQuery(pagePath(p.Path), query), "c")
		history.Item("newer", versionPath(p.Path, p.NextVersion, query), "n")
	}
}

// pagePath returns the canonical URL of a page; the root page is "/".
func pagePath(path string) string {
	return "/" + path
}

// actionPath builds "/<action>/<path>", omitting the trailing slash for the
// root page.
func actionPath(action, path string) string {
	if path == "" {
		return "/" + action
	}
	return "/" + action + "/" + path
}

// versionPath links to the page pinned at a version, carrying over the
// current query parameters.
func versionPath(path string, v wiki.Version, query url.Values) string {
	return withQuery(actionPath("version/"+string(v), path), query)
}

// withQuery appends the given query parameters to href, dropping any version
// override since the target encodes the version itself.
func withQuery(href string, query url.Values) string {
	q := url.Values{}
	for k, vs := range query {
		if k == "version" {
			continue
		}
		q[k] = vs
	}
	if encoded := q.Encode(); encoded != "" {
		return href + "?" + encoded
	}
	return href
}

// compareRangePath builds the canonical compare URL for a version range.
func compareRangePath(path string, from, to string) string {
	href := "/compare/" + from + "..." + to
	if path != "" {
		href += "/" + path
	}
	return href
}

// splitVersionRange splits a "from...to" (or "from..to") range into its
// endpoints.
func splitVersionRange(s string) (string, string) {
	if i := strings.Index(s, ".."); i >= 0 {
		from := s[:i]
		to := strings.TrimLeft(s[i:], ".")
		return from, to
	}
	return "", s
}

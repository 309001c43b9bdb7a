// Package web is the request-handling core of the wiki: the route table,
// the hook chains around every action, the transactional edit workflow and
// the error resolver that turns failures into terminal views.
package web

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/scribewiki/scribe/internal/router"
	"github.com/scribewiki/scribe/internal/session"
	"github.com/scribewiki/scribe/internal/user"
	"github.com/scribewiki/scribe/internal/wiki"
)

// ContentType is the media type of every rendered view.
const ContentType = "application/xhtml+xml;charset=utf-8"

const maxUploadMemory = 32 << 20

// Context carries the state of one request through hooks, handlers and the
// edit workflow. Everything here is strictly request-scoped; in particular
// the current user is a field, never shared process state.
type Context struct {
	Request *http.Request
	Writer  http.ResponseWriter
	Logger  *slog.Logger
	Session *session.Session

	// User is the resolved identity, nil until the routing prelude runs
	// and cleared again by its postlude.
	User *user.User

	// Page is the page the current action resolved, if any.
	Page *wiki.Page

	// Menu is the tree being assembled while the menu hook chain runs.
	Menu *MenuItem

	routeParams router.Params

	// onError names the fallback view re-rendered when the action fails
	// with a recoverable error. Empty means no fallback is configured.
	onError string

	// close requests redirect-after-success instead of re-rendering.
	close bool

	// menuVersions asks the actions menu for version navigation links.
	menuVersions bool

	status  int
	written bool
}

func newContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger, s *session.Session) *Context {
	return &Context{
		Request:     r,
		Writer:      w,
		Logger:      logger,
		Session:     s,
		routeParams: router.Params{},
		status:      http.StatusOK,
	}
}

// Ctx returns the request's context.Context.
func (c *Context) Ctx() context.Context { return c.Request.Context() }

// Param returns a parameter value: route captures win over query and form
// values.
func (c *Context) Param(name string) string {
	if v, ok := c.routeParams[name]; ok && v != "" {
		return v
	}
	c.parseForm()
	return c.Request.FormValue(name)
}

// HasParam reports whether the parameter was submitted at all, which is
// distinct from being submitted empty.
func (c *Context) HasParam(name string) bool {
	if v, ok := c.routeParams[name]; ok && v != "" {
		return true
	}
	c.parseForm()
	if _, ok := c.Request.PostForm[name]; ok {
		return true
	}
	_, ok := c.Request.Form[name]
	return ok
}

// FormFile returns the named uploaded file, or an error when absent.
func (c *Context) FormFile(name string) (multipart.File, *multipart.FileHeader, error) {
	return c.Request.FormFile(name)
}

func (c *Context) parseForm() {
	if c.Request.Form != nil {
		return
	}
	// ParseMultipartForm falls through to ParseForm for regular bodies.
	_ = c.Request.ParseMultipartForm(maxUploadMemory)
}

// Query returns the request's query parameters.
func (c *Context) Query() url.Values { return c.Request.URL.Query() }

// Redirect sends a see-other redirect and marks the response written.
func (c *Context) Redirect(location string) {
	c.written = true
	http.Redirect(c.Writer, c.Request, location, http.StatusSeeOther)
}

// Status sets the response status used by the next render.
func (c *Context) Status(code int) { c.status = code }

// Written reports whether a terminal response has been produced.
func (c *Context) Written() bool { return c.written }

// NoCache marks the response as non-cacheable, used on error pages.
func (c *Context) NoCache() {
	c.Writer.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

// CacheVersion makes the response cacheable keyed by the resolved version.
func (c *Context) CacheVersion(v wiki.Version) {
	h := c.Writer.Header()
	h.Set("Cache-Control", "public, max-age=0, must-revalidate")
	h.Set("ETag", `"`+string(v)+`"`)
}

package web

import (
	"net/http"

	apperrors "github.com/scribewiki/scribe/internal/errors"
	"github.com/scribewiki/scribe/internal/wiki"
)

// resolve turns a handler failure into a terminal view, classifying it by
// kind in order of specificity. A handled failure returns nil so the routing
// chain unwinds as a success; only a failure of the resolution itself
// propagates.
//
// Recoverable failures need a configured fallback view: the messages become
// error flashes and the form is re-rendered. Without a fallback the failure
// escalates to the generic error page.
func (a *App) resolve(c *Context, err error) error {
	ctx := c.Ctx()
	switch apperrors.Classify(err) {
	case apperrors.KindNotFound:
		c.Logger.DebugContext(ctx, "not found", "error", err, "path", c.Request.URL.Path)
		c.NoCache()
		c.Status(http.StatusNotFound)
		return a.render(c, "not_found", map[string]any{
			"Title": "not found",
			"Error": err.Error(),
			"Path":  wiki.NormalizePath(c.Request.URL.Path),
		})

	case apperrors.KindRecoverable:
		if c.onError == "" {
			break
		}
		c.Logger.ErrorContext(ctx, "action failed", "error", err, "view", c.onError)
		for _, msg := range apperrors.Messages(err) {
			c.Session.FlashError(msg)
		}
		return a.render(c, c.onError, nil)
	}

	c.Logger.ErrorContext(ctx, "unhandled error", "error", err, "path", c.Request.URL.Path)
	c.NoCache()
	c.Status(http.StatusInternalServerError)
	return a.render(c, "error", map[string]any{
		"Title": "error",
		"Error": err.Error(),
	})
}

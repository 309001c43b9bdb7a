package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/scribewiki/scribe/internal/errors"
	"github.com/scribewiki/scribe/internal/session"
	"github.com/scribewiki/scribe/internal/user"
	"github.com/scribewiki/scribe/internal/wiki"
)

func routeNotFound(r *http.Request) error {
	return apperrors.NotFound("%s %s", r.Method, r.URL.Path)
}

// signupForm is the validated signup submission.
type signupForm struct {
	Name    string `validate:"required,min=2,max=64,alphanumunicode"`
	Email   string `validate:"omitempty,email"`
	Passwd  string `validate:"required,min=6"`
	Confirm string `validate:"eqfield=Passwd"`
}

// profileUpdateForm is the validated profile submission. Password fields are
// optional; submitting a new password requires the old one and confirmation.
type profileUpdateForm struct {
	Email     string `validate:"omitempty,email"`
	Passwd    string `validate:"omitempty,min=6"`
	Confirm   string `validate:"eqfield=Passwd"`
	OldPasswd string `validate:"required_with=Passwd"`
}

// validateForm runs the struct validators and folds every violation into one
// recoverable failure so the form can show all problems at once.
func (a *App) validateForm(form any) error {
	err := a.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var check apperrors.Check
	for _, fe := range verrs {
		check.Add(fieldMessage(fe))
	}
	return check.Err()
}

var fieldLabels = map[string]string{
	"Name":      "username",
	"Email":     "email",
	"Passwd":    "password",
	"Confirm":   "password confirmation",
	"OldPasswd": "old password",
}

// fieldMessage maps a validator violation to a user-facing message.
func fieldMessage(fe validator.FieldError) string {
	field, ok := fieldLabels[fe.Field()]
	if !ok {
		field = strings.ToLower(fe.Field())
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_with":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return "invalid email address"
	case "eqfield":
		return "passwords do not match"
	case "alphanumunicode":
		return field + " may only contain letters and digits"
	default:
		return field + " is invalid"
	}
}

// loginForm remembers where the visitor came from so login can return there.
func (a *App) loginForm(c *Context) error {
	if ref := c.Request.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Path != "/login" {
			c.Session.Set(session.GotoKey, u.Path)
		}
	}
	return a.render(c, "login", map[string]any{
		"Title":         "login",
		"SignupEnabled": a.cfg.Auth.EnableSignup,
	})
}

// login authenticates and redirects to the stored goto path, defaulting to
// the root page. The routing postlude persists the identity.
func (a *App) login(c *Context) error {
	c.onError = "login"
	u, err := a.users.Authenticate(c.Ctx(), c.Param("user"), c.Param("password"))
	if err != nil {
		return err
	}
	c.User = u
	target := wiki.NormalizePath(c.Session.Delete(session.GotoKey))
	c.Redirect(pagePath(target))
	return nil
}

func (a *App) signup(c *Context) error {
	c.onError = "login"
	if !a.cfg.Auth.EnableSignup {
		return apperrors.Recoverable("sign-up is disabled")
	}
	form := signupForm{
		Name:    c.Param("user"),
		Email:   c.Param("email"),
		Passwd:  c.Param("password"),
		Confirm: c.Param("confirm"),
	}
	if err := a.validateForm(form); err != nil {
		return err
	}
	u, err := a.users.Create(c.Ctx(), form.Name, form.Passwd, form.Email)
	if err != nil {
		return err
	}
	c.User = u
	c.Redirect("/")
	return nil
}

// logout swaps the identity back to anonymous; the routing postlude clears
// the session key.
func (a *App) logout(c *Context) error {
	c.User = user.Anonymous(c.Request)
	c.Redirect("/")
	return nil
}

func (a *App) profileForm(c *Context) error {
	if !c.User.LoggedIn() {
		return apperrors.Recoverable("anonymous users have no profile")
	}
	return a.render(c, "profile", map[string]any{"Title": "profile"})
}

func (a *App) updateProfile(c *Context) error {
	if !c.User.LoggedIn() {
		return apperrors.Recoverable("anonymous users have no profile")
	}
	c.onError = "profile"
	form := profileUpdateForm{
		Email:     c.Param("email"),
		Passwd:    c.Param("password"),
		Confirm:   c.Param("confirm"),
		OldPasswd: c.Param("old_password"),
	}
	if err := a.validateForm(form); err != nil {
		return err
	}
	if form.Passwd != "" {
		if err := a.users.ChangePassword(c.Ctx(), c.User.Name, form.OldPasswd, form.Passwd); err != nil {
			return err
		}
	}
	if form.Email != c.User.Email {
		if err := a.users.UpdateEmail(c.Ctx(), c.User.Name, form.Email); err != nil {
			return err
		}
		c.User.Email = form.Email
	}
	c.Session.FlashInfo("changes saved")
	return a.render(c, "profile", map[string]any{"Title": "profile"})
}

// showPage renders a page, pinned to a version when the route carries one.
// A missing page with no pinned version redirects to the new-page form.
func (a *App) showPage(c *Context) error {
	path := wiki.NormalizePath(c.Param("path"))
	version := wiki.Version(c.routeParams["version"])

	var page *wiki.Page
	var err error
	if version == "" {
		page, err = a.store.Find(c.Ctx(), path)
	} else {
		page, err = a.store.FindVersion(c.Ctx(), path, version)
	}
	if err != nil {
		if version == "" && apperrors.Classify(err) == apperrors.KindNotFound {
			c.Redirect(actionPath("new", path))
			return nil
		}
		return err
	}

	c.Page = page
	c.menuVersions = true
	c.CacheVersion(page.Version)
	return a.render(c, "show", map[string]any{
		"Content": string(page.Content),
	})
}

// newForm shows the creation form. Reserved paths get a flash warning; an
// existing page at the path suggests creating a sub-page instead.
func (a *App) newForm(c *Context) error {
	path := wiki.NormalizePath(c.Param("path"))
	page := wiki.NewPage(path)
	c.Page = page

	suggested := page.Path
	if a.guard.Reserved(page.Path) {
		c.Session.FlashError(fmt.Sprintf("path %q is reserved", "/"+page.Path))
	} else if !page.Root() {
		if _, err := a.store.Find(c.Ctx(), page.Path); err == nil {
			suggested = page.Path + "/"
			c.Session.FlashError(fmt.Sprintf("page %q already exists", "/"+page.Path))
		}
	}
	return a.render(c, "edit", map[string]any{
		"Title": "new page",
		"New":   true,
		"Path":  suggested,
	})
}

func (a *App) editForm(c *Context) error {
	page, err := a.store.Find(c.Ctx(), wiki.NormalizePath(c.Param("path")))
	if err != nil {
		return err
	}
	c.Page = page
	return a.render(c, "edit", nil)
}

// postPage dispatches a mutating submission to the edit controller and
// finishes per the close flag: redirect to the page, or re-render the form
// with a confirmation flash.
func (a *App) postPage(c *Context) error {
	kind, closeRequested := ParseAction(c.Param("action"))
	if kind == ActionInvalid {
		return apperrors.Recoverable("invalid action")
	}
	c.close = closeRequested
	c.onError = "edit"

	if err := a.edit.Perform(c, kind); err != nil {
		return err
	}
	if c.Written() {
		// The unmodified-close short circuit already redirected.
		return nil
	}
	if c.close {
		c.Session.ClearFlash()
		c.Redirect(pagePath(c.Page.Path))
		return nil
	}
	c.Session.FlashInfo("changes saved")
	if kind == ActionDelete {
		return a.render(c, "deleted", nil)
	}
	return a.render(c, "edit", nil)
}

func (a *App) moveForm(c *Context) error {
	page, err := a.store.Find(c.Ctx(), wiki.NormalizePath(c.Param("path")))
	if err != nil {
		return err
	}
	c.Page = page
	return a.render(c, "move", nil)
}

func (a *App) movePage(c *Context) error {
	c.onError = "move"
	if err := a.edit.Perform(c, ActionMove); err != nil {
		return err
	}
	c.Redirect(pagePath(c.Page.Path))
	return nil
}

func (a *App) deleteForm(c *Context) error {
	page, err := a.store.Find(c.Ctx(), wiki.NormalizePath(c.Param("path")))
	if err != nil {
		return err
	}
	c.Page = page
	return a.render(c, "delete", nil)
}

func (a *App) deletePage(c *Context) error {
	if err := a.edit.Perform(c, ActionDelete); err != nil {
		return err
	}
	return a.render(c, "deleted", nil)
}

// history lists the committed versions of a page, paginated.
func (a *App) history(c *Context) error {
	path := wiki.NormalizePath(c.Param("path"))
	page, err := a.store.Find(c.Ctx(), path)
	if err != nil {
		return err
	}
	c.Page = page

	pageNr := historyPageNr(c.Query().Get("page"))
	entries, err := a.store.History(c.Ctx(), path, historyOffset(pageNr))
	if err != nil {
		return err
	}
	hp := paginateHistory(entries, pageNr)

	c.CacheVersion(page.Version)
	return a.render(c, "history", map[string]any{
		"History":   hp.Entries,
		"PageNr":    hp.PageNr,
		"PageCount": hp.PageCount,
	})
}

// changes shows what a single version changed relative to its predecessor;
// the first version of a page diffs against the empty page.
func (a *App) changes(c *Context) error {
	path := wiki.NormalizePath(c.Param("path"))
	version := wiki.Version(c.routeParams["version"])

	page, err := a.store.FindVersion(c.Ctx(), path, version)
	if err != nil {
		return err
	}
	diff, err := a.store.Diff(c.Ctx(), path, page.PrevVersion, version)
	if err != nil {
		return err
	}
	c.Page = page
	c.CacheVersion(diff.To)
	return a.render(c, "changes", map[string]any{"Diff": diff})
}

// compareRange diffs the two endpoints of a version range.
func (a *App) compareRange(c *Context) error {
	path := wiki.NormalizePath(c.Param("path"))
	from, to := splitVersionRange(c.routeParams["versions"])

	page, err := a.store.Find(c.Ctx(), path)
	if err != nil {
		return err
	}
	diff, err := a.store.Diff(c.Ctx(), path, wiki.Version(from), wiki.Version(to))
	if err != nil {
		return err
	}
	c.Page = page
	return a.render(c, "compare", map[string]any{"Diff": diff})
}

// compare canonicalizes a selection of versions: fewer than two goes back to
// the history listing, otherwise the first and last selected version form
// the compare range.
func (a *App) compare(c *Context) error {
	path := wiki.NormalizePath(c.Param("path"))
	versions := c.Query()["versions"]
	if len(versions) < 2 {
		c.Redirect(actionPath("history", path))
		return nil
	}
	c.Redirect(compareRangePath(path, versions[0], versions[len(versions)-1]))
	return nil
}

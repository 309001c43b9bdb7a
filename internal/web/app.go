package web

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/scribewiki/scribe/internal/config"
	"github.com/scribewiki/scribe/internal/hooks"
	"github.com/scribewiki/scribe/internal/router"
	"github.com/scribewiki/scribe/internal/session"
	"github.com/scribewiki/scribe/internal/user"
	"github.com/scribewiki/scribe/internal/view"
	"github.com/scribewiki/scribe/internal/wiki"
)

// HandlerFunc is a route handler. A returned error is resolved by kind into
// a terminal view; a nil return means the handler produced the response.
type HandlerFunc func(*Context) error

// Hook point names. Around points wrap a request segment with prelude and
// postlude pairs; plain points run callbacks in order. The core itself only
// registers on routing and menu; the rest are extension points reachable via
// Hooks().
const (
	HookRequest      = "request"
	HookRouting      = "routing"
	HookAction       = "action"
	HookTitle        = "title"
	HookFooter       = "footer"
	HookLoginButtons = "login_buttons"
	HookEditButtons  = "edit_buttons"

	HookAutoLogin = "auto_login"
	HookRender    = "render"
	HookMenu      = "menu"
	HookHead      = "head"
	HookScript    = "script"
)

// App is the wiki request core: route table, hook pipeline, stores and
// renderer. It is a plain http.Handler intended to be mounted behind the
// infrastructure middleware chain.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    wiki.Store
	users    user.Store
	sessions *session.Manager
	renderer view.Renderer
	guard    *wiki.ReservedPathGuard
	router   *router.Router[HandlerFunc]
	hooks    *hooks.Pipeline[*Context]
	edit     *EditController
	validate *validator.Validate
}

// New wires the request core. The reserved path patterns come from
// configuration, falling back to the defaults covering the route table.
func New(cfg *config.Config, logger *slog.Logger, store wiki.Store, users user.Store, sessions *session.Manager, renderer view.Renderer) (*App, error) {
	patterns := cfg.Wiki.ReservedPaths
	if len(patterns) == 0 {
		patterns = wiki.DefaultReservedPatterns
	}
	guard, err := wiki.NewReservedPathGuard(patterns)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		users:    users,
		sessions: sessions,
		renderer: renderer,
		guard:    guard,
		router:   router.New[HandlerFunc](),
		hooks: hooks.New[*Context](
			[]string{HookRequest, HookRouting, HookAction, HookTitle, HookFooter, HookLoginButtons, HookEditButtons},
			[]string{HookAutoLogin, HookRender, HookMenu, HookHead, HookScript},
		),
		edit:     NewEditController(store, guard),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	a.hooks.Around(HookRouting, a.routingPrelude, a.routingPostlude)
	a.hooks.On(HookMenu, a.actionsMenu)
	a.registerRoutes()
	return a, nil
}

// Hooks exposes the pipeline so embedders can register additional hooks
// before the first request.
func (a *App) Hooks() *hooks.Pipeline[*Context] { return a.hooks }

// registerRoutes builds the route table. Order matters: the catch-all page
// routes come last so the action routes claim their prefixes first.
func (a *App) registerRoutes() {
	r := a.router
	// Page paths may span multiple segments everywhere they appear.
	r.Pattern("path", ".+")
	r.Pattern("version", `[0-9a-f]+`)

	r.Handle(http.MethodGet, "/login", a.loginForm)
	r.Handle(http.MethodPost, "/login", a.login)
	r.Handle(http.MethodPost, "/signup", a.signup)
	r.Handle(http.MethodGet, "/logout", a.logout)
	r.Handle(http.MethodGet, "/profile", a.profileForm)
	r.Handle(http.MethodPost, "/profile", a.updateProfile)

	r.Handle(http.MethodGet, "/new(/:path)", a.newForm)
	r.Handle(http.MethodGet, "/edit(/:path)", a.editForm)
	r.Handle(http.MethodGet, "/move/:path", a.moveForm)
	r.Handle(http.MethodPost, "/move/:path", a.movePage)
	r.Handle(http.MethodGet, "/delete/:path", a.deleteForm)
	r.Handle(http.MethodPost, "/delete/:path", a.deletePage)

	r.Handle(http.MethodGet, "/history(/:path)", a.history)
	r.Handle(http.MethodGet, "/changes/:version(/:path)", a.changes,
		router.Constraint("version", `[0-9a-f]+`))
	r.Handle(http.MethodGet, "/compare/:versions(/:path)", a.compareRange,
		router.Constraint("versions", `(?:[0-9a-f]+)\.{2,3}(?:[0-9a-f]+)`))
	r.Handle(http.MethodGet, "/compare(/:path)", a.compare)

	r.Handle(http.MethodGet, "/version/:version(/:path)", a.showPage)
	r.Handle(http.MethodDelete, "/:path", a.deletePage)
	r.Handle(http.MethodPost, "/(:path)", a.postPage)
	r.Handle(http.MethodGet, "/(:path)", a.showPage)
}

// ServeHTTP runs one request through the request and routing hook chains.
// Failures the resolver could not turn into a view end up here as a plain
// 500, which only happens when rendering itself breaks.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := newContext(w, r, a.logger, a.sessions.Load(r))

	err := a.hooks.Run(HookRequest, c, func(c *Context) error {
		err := a.hooks.Run(HookRouting, c, func(c *Context) error {
			if err := a.dispatch(c); err != nil {
				return a.resolve(c, err)
			}
			return nil
		})
		// A failure out of the routing chain itself (a prelude, or a
		// resolution that broke) still gets a terminal view, but never
		// on top of a partially written response.
		if err != nil && !c.Written() {
			return a.resolve(c, err)
		}
		return err
	})
	if err != nil {
		a.logger.ErrorContext(r.Context(), "request failed terminally", "error", err)
		if !c.Written() {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

// dispatch matches the route table and runs the handler inside the action
// hook chain. No match is an ordinary not-found failure.
func (a *App) dispatch(c *Context) error {
	h, params, ok := a.router.Match(c.Request.Method, c.Request.URL.Path)
	if !ok {
		return routeNotFound(c.Request)
	}
	for k, v := range params {
		c.routeParams[k] = v
	}
	return a.hooks.Run(HookAction, c, func(c *Context) error {
		return h(c)
	})
}

// routingPrelude resolves the request identity and fixes the response
// content type. A session naming an unknown user degrades to anonymous
// rather than failing the request.
func (a *App) routingPrelude(c *Context) error {
	if name := c.Session.Get(session.UserKey); name != "" {
		if u, err := a.users.Find(c.Ctx(), name); err == nil {
			c.User = u
		}
	}
	if c.User == nil {
		a.hooks.Invoke(HookAutoLogin, c)
	}
	if c.User == nil {
		c.User = user.Anonymous(c.Request)
	}

	// The cookie must go out before any handler writes the body.
	a.sessions.Save(c.Writer, c.Session)
	c.Writer.Header().Set("Content-Type", ContentType)
	return nil
}

// routingPostlude persists the resolved identity into the session, but only
// when the segment finished without a propagating error, then drops the
// request-scoped identity. Handled failures arrive here with a nil error.
func (a *App) routingPostlude(c *Context, err error) {
	if err == nil {
		if c.User.LoggedIn() {
			c.Session.Set(session.UserKey, c.User.Name)
		} else {
			c.Session.Delete(session.UserKey)
		}
	}
	c.User = nil
}

// render writes a view with the shared locals every template expects: the
// current user, consumed flash messages, the page and the actions menu.
func (a *App) render(c *Context, viewName string, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	if _, ok := data["Title"]; !ok {
		if c.Page != nil {
			data["Title"] = c.Page.Title()
		} else {
			data["Title"] = viewName
		}
	}
	data["User"] = c.User
	data["Flash"] = c.Session.TakeFlash()
	if c.Page != nil {
		data["Page"] = c.Page
	}
	if menu := a.buildMenu(c); menu != nil {
		data["Menu"] = menu
	}

	a.hooks.Invoke(HookRender, c)

	c.written = true
	c.Writer.WriteHeader(c.status)
	return a.renderer.Render(c.Writer, viewName, data)
}

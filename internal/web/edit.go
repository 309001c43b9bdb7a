package web

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "github.com/scribewiki/scribe/internal/errors"
	"github.com/scribewiki/scribe/internal/wiki"
)

// ActionKind enumerates the mutating page actions. Dispatch is over this
// closed set; an unknown action name never reaches the controller.
type ActionKind int

const (
	ActionInvalid ActionKind = iota
	ActionEdit
	ActionUpload
	ActionAttributes
	ActionMove
	ActionDelete
)

func (k ActionKind) String() string {
	switch k {
	case ActionEdit:
		return "edit"
	case ActionUpload:
		return "upload"
	case ActionAttributes:
		return "attributes"
	case ActionMove:
		return "move"
	case ActionDelete:
		return "delete"
	default:
		return "invalid"
	}
}

// ParseAction resolves a submitted action name, which may carry a "-close"
// suffix requesting redirect-after-success instead of re-rendering the form.
func ParseAction(raw string) (ActionKind, bool) {
	name, suffix, _ := strings.Cut(raw, "-")
	close := suffix == "close"
	switch name {
	case "edit":
		return ActionEdit, close
	case "upload":
		return ActionUpload, close
	case "attributes":
		return ActionAttributes, close
	case "move":
		return ActionMove, close
	case "delete":
		return ActionDelete, close
	default:
		return ActionInvalid, false
	}
}

// EditController runs the mutating page actions. Every action is scoped in
// one store transaction: the page is loaded inside it, the mutation staged,
// and exactly one commit published on success. Any failure leaves the store
// untouched via the deferred rollback.
type EditController struct {
	store wiki.Store
	guard *wiki.ReservedPathGuard
}

// NewEditController creates the controller.
func NewEditController(store wiki.Store, guard *wiki.ReservedPathGuard) *EditController {
	return &EditController{store: store, guard: guard}
}

// Perform executes one action against the page named by the request path.
// Edit, upload and attributes create the page when it does not exist yet;
// move and delete require an existing page.
func (ec *EditController) Perform(c *Context, kind ActionKind) error {
	ctx := c.Ctx()
	path := wiki.NormalizePath(c.Param("path"))

	tx, err := ec.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	page, err := tx.Find(ctx, path)
	if err != nil {
		if apperrors.Classify(err) != apperrors.KindNotFound {
			return err
		}
		if kind == ActionMove || kind == ActionDelete {
			return err
		}
		page = wiki.NewPage(path)
	}
	c.Page = page
	if ec.guard.Reserved(page.Path) {
		return apperrors.Recoverable(fmt.Sprintf("path %q is reserved", "/"+page.Path))
	}

	switch kind {
	case ActionEdit:
		return ec.edit(c, tx, page)
	case ActionUpload:
		return ec.upload(c, tx, page)
	case ActionAttributes:
		return ec.attributes(c, tx, page)
	case ActionMove:
		return ec.move(c, tx, page)
	case ActionDelete:
		return ec.delete(c, tx, page)
	default:
		return apperrors.Recoverable("invalid action")
	}
}

func (ec *EditController) edit(c *Context, tx wiki.Tx, page *wiki.Page) error {
	if !c.HasParam("content") {
		return apperrors.Recoverable("no content submitted")
	}
	content := strings.ReplaceAll(c.Param("content"), "\r\n", "\n")

	if pos := c.Param("pos"); pos != "" {
		replaced, err := replaceRange(page.Content, pos, c.Param("len"), content)
		if err != nil {
			return err
		}
		page.Content = replaced
	} else {
		page.Content = []byte(content)
	}

	if done := ec.closeUnmodified(c, page); done {
		return nil
	}
	if err := validateSubmission(page, c.Param("version")); err != nil {
		return err
	}
	if err := tx.Save(c.Ctx(), page); err != nil {
		return err
	}
	return tx.Commit(c.Ctx(), commitMessage(c, "page %s edited", page.Title()), c.User.Name)
}

func (ec *EditController) upload(c *Context, tx wiki.Tx, page *wiki.Page) error {
	file, _, err := c.FormFile("file")
	if err != nil {
		return apperrors.Recoverable("no file uploaded")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	page.Content = content

	if done := ec.closeUnmodified(c, page); done {
		return nil
	}
	if err := validateSubmission(page, c.Param("version")); err != nil {
		return err
	}
	if err := tx.Save(c.Ctx(), page); err != nil {
		return err
	}
	return tx.Commit(c.Ctx(), commitMessage(c, "page %s uploaded", page.Title()), c.User.Name)
}

func (ec *EditController) attributes(c *Context, tx wiki.Tx, page *wiki.Page) error {
	page.UpdateAttributes(attributeParams(c))

	if done := ec.closeUnmodified(c, page); done {
		return nil
	}
	if err := validateSubmission(page, c.Param("version")); err != nil {
		return err
	}
	if err := tx.Save(c.Ctx(), page); err != nil {
		return err
	}
	return tx.Commit(c.Ctx(), commitMessage(c, "attributes of %s edited", page.Title()), c.User.Name)
}

func (ec *EditController) move(c *Context, tx wiki.Tx, page *wiki.Page) error {
	destination := wiki.NormalizePath(c.Param("destination"))
	if destination == "" {
		return apperrors.Recoverable("no destination given")
	}
	if ec.guard.Reserved(destination) {
		return apperrors.Recoverable(fmt.Sprintf("path %q is reserved", "/"+destination))
	}
	source := page.Title()
	if err := tx.Move(c.Ctx(), page, destination); err != nil {
		return err
	}
	return tx.Commit(c.Ctx(), commitMessage(c, "page %s moved to %s", source, destination), c.User.Name)
}

func (ec *EditController) delete(c *Context, tx wiki.Tx, page *wiki.Page) error {
	if err := tx.Delete(c.Ctx(), page); err != nil {
		return err
	}
	return tx.Commit(c.Ctx(), commitMessage(c, "page %s deleted", page.Title()), c.User.Name)
}

// closeUnmodified short-circuits a close submission that changed nothing:
// the client is sent back to the page with no validation and no commit.
func (ec *EditController) closeUnmodified(c *Context, page *wiki.Page) bool {
	if c.close && !page.Modified() {
		c.Redirect(pagePath(page.Path))
		return true
	}
	return false
}

// validateSubmission accumulates the concurrent-edit and no-op checks so a
// stale, unchanged submission reports both problems at once.
func validateSubmission(page *wiki.Page, submittedVersion string) error {
	var check apperrors.Check
	if !page.New() && string(page.Version) != submittedVersion {
		check.Add("the page was changed while you were editing, please merge your changes")
	}
	if !page.Modified() {
		check.Add("no changes submitted")
	}
	return check.Err()
}

// replaceRange splices content into the byte range [pos, pos+length) of old.
// Both bounds clamp to the document.
func replaceRange(old []byte, posParam, lenParam, content string) ([]byte, error) {
	pos, err := strconv.Atoi(posParam)
	if err != nil {
		return nil, apperrors.Recoverable("invalid position")
	}
	length := 0
	if lenParam != "" {
		if length, err = strconv.Atoi(lenParam); err != nil {
			return nil, apperrors.Recoverable("invalid length")
		}
	}
	pos = clamp(pos, 0, len(old))
	end := clamp(pos+length, pos, len(old))

	out := make([]byte, 0, pos+len(content)+len(old)-end)
	out = append(out, old[:pos]...)
	out = append(out, content...)
	out = append(out, old[end:]...)
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// commitMessage builds the commit message, appending the user's comment when
// one was submitted.
func commitMessage(c *Context, format string, args ...any) string {
	message := fmt.Sprintf(format, args...)
	if comment := c.Param("comment"); comment != "" {
		message += " - " + comment
	}
	return message
}

// attributeParams extracts the page attributes from the submitted form:
// every field named "attribute_<key>" becomes the attribute <key>.
func attributeParams(c *Context) map[string]string {
	c.parseForm()
	attrs := make(map[string]string)
	for name, values := range c.Request.Form {
		key, ok := strings.CutPrefix(name, "attribute_")
		if !ok || key == "" || len(values) == 0 {
			continue
		}
		attrs[key] = values[0]
	}
	return attrs
}

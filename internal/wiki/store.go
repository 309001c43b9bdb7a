package wiki

import "context"

// Store is the versioned page backend. Implementations must be safe for
// concurrent use; the request core performs no locking of its own and relies
// on optimistic concurrency at commit time.
type Store interface {
	// Find loads the current version of the page, or a not-found failure.
	Find(ctx context.Context, path string) (*Page, error)

	// FindVersion loads the page as of the given version, with its
	// previous/next version hints populated.
	FindVersion(ctx context.Context, path string, v Version) (*Page, error)

	// History returns committed versions of the page newest-first, starting
	// at the given offset. The store decides how many entries to return.
	History(ctx context.Context, path string, offset int) ([]HistoryEntry, error)

	// Diff computes the change between two versions. An empty from means
	// the diff starts at the empty page.
	Diff(ctx context.Context, path string, from, to Version) (*Diff, error)

	// Begin opens a transaction. Until Commit, no mutation is visible to
	// other readers.
	Begin(ctx context.Context) (Tx, error)
}

// Tx scopes one atomic mutation of a single page. Exactly one Commit per
// successful transaction; Rollback after Commit is a no-op.
type Tx interface {
	// Find loads the current version of the page inside the transaction.
	Find(ctx context.Context, path string) (*Page, error)

	// CurrentVersion returns the version a commit would supersede, read
	// inside the transaction immediately before committing. Empty when the
	// page does not exist.
	CurrentVersion(ctx context.Context, path string) (Version, error)

	// Save stages the page's content and attributes as a new version.
	Save(ctx context.Context, p *Page) error

	// Move stages a rename of the page to the normalized destination path.
	Move(ctx context.Context, p *Page, destination string) error

	// Delete stages removal of the page.
	Delete(ctx context.Context, p *Page) error

	// Commit atomically publishes the staged mutation with a human-readable
	// message, assigning the page its new version.
	Commit(ctx context.Context, message, author string) error

	// Rollback discards every staged mutation.
	Rollback() error
}

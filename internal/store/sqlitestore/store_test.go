package sqlitestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/scribewiki/scribe/internal/errors"
	"github.com/scribewiki/scribe/internal/wiki"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func commitPage(t *testing.T, s *Store, path, content, message string) *wiki.Page {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	p, err := tx.Find(ctx, path)
	if err != nil {
		p = wiki.NewPage(path)
	}
	p.Content = []byte(content)
	require.NoError(t, tx.Save(ctx, p))
	require.NoError(t, tx.Commit(ctx, message, "tester"))
	return p
}

func TestSaveAndFind(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := commitPage(t, s, "foo/bar", "hello", "created")
	assert.False(t, p.New(), "commit clears the new flag")
	assert.NotEmpty(t, p.Version)

	got, err := s.Find(ctx, "foo/bar")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Content)
	assert.Equal(t, p.Version, got.Version)
	assert.False(t, got.Modified())
}

func TestFindMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Find(context.Background(), "nope")
	assert.Equal(t, apperrors.KindNotFound, apperrors.Classify(err))
}

func TestCommitProducesNewVersion(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p1 := commitPage(t, s, "foo", "one", "first")
	v1 := p1.Version
	p2 := commitPage(t, s, "foo", "two", "second")
	assert.NotEqual(t, v1, p2.Version)

	got, err := s.Find(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got.Content)
}

func TestRollbackLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	p := wiki.NewPage("ghost")
	p.Content = []byte("never committed")
	require.NoError(t, tx.Save(ctx, p))
	require.NoError(t, tx.Rollback())

	_, err = s.Find(ctx, "ghost")
	assert.Equal(t, apperrors.KindNotFound, apperrors.Classify(err))
}

func TestCurrentVersion(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := commitPage(t, s, "foo", "one", "first")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	v, err := tx.CurrentVersion(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, p.Version, v)

	v, err = tx.CurrentVersion(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	commitPage(t, s, "old/place", "content", "created")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	p, err := tx.Find(ctx, "old/place")
	require.NoError(t, err)
	require.NoError(t, tx.Move(ctx, p, "new/place"))
	require.NoError(t, tx.Commit(ctx, "moved", "tester"))

	assert.Equal(t, "new/place", p.Path)

	_, err = s.Find(ctx, "old/place")
	assert.Equal(t, apperrors.KindNotFound, apperrors.Classify(err))

	got, err := s.Find(ctx, "new/place")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got.Content)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	commitPage(t, s, "doomed", "content", "created")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	p, err := tx.Find(ctx, "doomed")
	require.NoError(t, err)
	require.NoError(t, tx.Delete(ctx, p))
	require.NoError(t, tx.Commit(ctx, "deleted", "tester"))

	_, err = s.Find(ctx, "doomed")
	assert.Equal(t, apperrors.KindNotFound, apperrors.Classify(err))

	// History survives deletion.
	entries, err := s.History(ctx, "doomed", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistoryNewestFirstWithOffset(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	commitPage(t, s, "foo", "one", "first")
	commitPage(t, s, "foo", "two", "second")
	commitPage(t, s, "foo", "three", "third")

	entries, err := s.History(ctx, "foo", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "first", entries[2].Message)
	assert.Equal(t, "tester", entries[0].Author)

	entries, err = s.History(ctx, "foo", 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Message)
}

func TestFindVersionNeighbors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p1 := commitPage(t, s, "foo", "one", "first")
	p2 := commitPage(t, s, "foo", "two", "second")
	p3 := commitPage(t, s, "foo", "three", "third")

	mid, err := s.FindVersion(ctx, "foo", p2.Version)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), mid.Content)
	assert.Equal(t, p1.Version, mid.PrevVersion)
	assert.Equal(t, p3.Version, mid.NextVersion)

	head, err := s.FindVersion(ctx, "foo", p3.Version)
	require.NoError(t, err)
	assert.Empty(t, head.NextVersion)

	first, err := s.FindVersion(ctx, "foo", p1.Version)
	require.NoError(t, err)
	assert.Empty(t, first.PrevVersion)
}

func TestDiff(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p1 := commitPage(t, s, "foo", "alpha\nbeta\n", "first")
	p2 := commitPage(t, s, "foo", "alpha\ngamma\n", "second")

	d, err := s.Diff(ctx, "foo", p1.Version, p2.Version)
	require.NoError(t, err)
	require.NotNil(t, d.From)
	assert.Equal(t, p1.Version, *d.From)
	assert.Equal(t, p2.Version, d.To)
	require.Len(t, d.Hunks, 1)
	assert.Equal(t, "beta\n", d.Hunks[0].Removed)
	assert.Equal(t, "gamma\n", d.Hunks[0].Added)

	// Empty from diffs against the empty page.
	d, err = s.Diff(ctx, "foo", "", p1.Version)
	require.NoError(t, err)
	assert.Nil(t, d.From)
	require.Len(t, d.Hunks, 1)
	assert.Equal(t, "alpha\nbeta\n", d.Hunks[0].Added)
}

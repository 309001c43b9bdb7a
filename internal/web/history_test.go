package web

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scribewiki/scribe/internal/wiki"
)

func makeEntries(n int) []wiki.HistoryEntry {
	entries := make([]wiki.HistoryEntry, n)
	for i := range entries {
		entries[i] = wiki.HistoryEntry{Version: wiki.Version(fmt.Sprintf("v%d", n-i))}
	}
	return entries
}

func TestPaginateHistory(t *testing.T) {
	all := makeEntries(45)

	// First page sees everything from offset 0.
	first := paginateHistory(all, 1)
	assert.Equal(t, 1, first.PageNr)
	assert.Equal(t, 2, first.PageCount)
	assert.Len(t, first.Entries, 30)
	assert.Equal(t, all[0], first.Entries[0])
	assert.Equal(t, all[29], first.Entries[29])

	// Second page sees the 15 entries past offset 30.
	second := paginateHistory(all[30:], 2)
	assert.Equal(t, 2, second.PageNr)
	assert.Equal(t, 2, second.PageCount)
	assert.Len(t, second.Entries, 15)
	assert.Equal(t, all[30], second.Entries[0])
	assert.Equal(t, all[44], second.Entries[14])
}

func TestPaginateHistoryClampsPageNr(t *testing.T) {
	hp := paginateHistory(makeEntries(5), 0)
	assert.Equal(t, 1, hp.PageNr)
	assert.Equal(t, 1, hp.PageCount)
	assert.Len(t, hp.Entries, 5)
}

func TestPaginateHistoryEmpty(t *testing.T) {
	hp := paginateHistory(nil, 3)
	assert.Equal(t, 3, hp.PageNr)
	assert.Equal(t, 3, hp.PageCount)
	assert.Empty(t, hp.Entries)
}

func TestHistoryPageNr(t *testing.T) {
	assert.Equal(t, 1, historyPageNr(""))
	assert.Equal(t, 1, historyPageNr("garbage"))
	assert.Equal(t, 1, historyPageNr("0"))
	assert.Equal(t, 1, historyPageNr("-4"))
	assert.Equal(t, 7, historyPageNr("7"))
}

func TestHistoryOffset(t *testing.T) {
	assert.Equal(t, 0, historyOffset(1))
	assert.Equal(t, 30, historyOffset(2))
	assert.Equal(t, 120, historyOffset(5))
}

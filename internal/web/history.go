package web

import (
	"strconv"

	"github.com/scribewiki/scribe/internal/wiki"
)

// historyPageSize is the number of history entries shown per page.
const historyPageSize = 30

// HistoryPage is one page of a paginated history listing.
type HistoryPage struct {
	Entries   []wiki.HistoryEntry
	PageNr    int
	PageCount int
}

// paginateHistory trims the entries fetched at the page's offset down to one
// page. The total page count is approximated from the current page number
// plus the remaining full pages, which avoids counting the whole history up
// front and is exact whenever the caller fetched everything past the offset.
func paginateHistory(entries []wiki.HistoryEntry, pageNr int) HistoryPage {
	if pageNr < 1 {
		pageNr = 1
	}
	pageCount := pageNr + len(entries)/historyPageSize
	if len(entries) > historyPageSize {
		entries = entries[:historyPageSize]
	}
	return HistoryPage{Entries: entries, PageNr: pageNr, PageCount: pageCount}
}

// historyPageNr parses the requested page number; anything unparseable or
// below one clamps to the first page.
func historyPageNr(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// historyOffset converts a page number to the entry offset the store needs.
func historyOffset(pageNr int) int {
	return (pageNr - 1) * historyPageSize
}

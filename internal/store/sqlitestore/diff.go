package sqlitestore

import (
	"strings"

	"github.com/scribewiki/scribe/internal/wiki"
)

// diffLines computes a line-based diff between two contents using a plain
// LCS table. Pages are small enough that the quadratic table is fine.
func diffLines(from, to string) []wiki.Hunk {
	a := splitLines(from)
	b := splitLines(to)

	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var hunks []wiki.Hunk
	var cur *wiki.Hunk
	flush := func() {
		if cur != nil {
			hunks = append(hunks, *cur)
			cur = nil
		}
	}
	change := func() *wiki.Hunk {
		if cur == nil {
			cur = &wiki.Hunk{}
		}
		return cur
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			flush()
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			change().Removed += a[i] + "\n"
			i++
		default:
			change().Added += b[j] + "\n"
			j++
		}
	}
	for ; i < len(a); i++ {
		change().Removed += a[i] + "\n"
	}
	for ; j < len(b); j++ {
		change().Added += b[j] + "\n"
	}
	flush()
	return hunks
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

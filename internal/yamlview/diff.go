package yamlview

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op marks a diff line as unchanged, added or removed.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// DiffLine is one line of a line-oriented diff.
type DiffLine struct {
	Op   Op
	Text string
}

// DiffStat counts changed lines.
type DiffStat struct {
	Added   int
	Removed int
}

// LineDiff compares before and after line by line.
func LineDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var out []DiffLine
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		}
		text := strings.TrimSuffix(d.Text, "\n")
		for _, l := range strings.Split(text, "\n") {
			out = append(out, DiffLine{Op: op, Text: l})
		}
	}
	return out
}

// Stat summarizes a diff.
func Stat(lines []DiffLine) DiffStat {
	var s DiffStat
	for _, l := range lines {
		switch l.Op {
		case Insert:
			s.Added++
		case Delete:
			s.Removed++
		}
	}
	return s
}

// Changed reports whether the diff has any insertions or deletions.
func (s DiffStat) Changed() bool {
	return s.Added > 0 || s.Removed > 0
}

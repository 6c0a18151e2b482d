package core

import "slices"

// MissingDiff is the change in missing folders between two scans
type MissingDiff struct {
	Added    []string // missing now, present before
	Resolved []string // missing before, present now
}

// Empty returns true when both scans reported the same folders
func (d MissingDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Resolved) == 0
}

// DiffMissing compares the missing folders of the current scan against the
// previous one. Results keep the order of their source slice.
func DiffMissing(previous, current []string) MissingDiff {
	prevSet := buildPathSet(previous)
	curSet := buildPathSet(current)

	var d MissingDiff
	for _, p := range current {
		if !prevSet[p] {
			d.Added = append(d.Added, p)
		}
	}
	for _, p := range previous {
		if !curSet[p] {
			d.Resolved = append(d.Resolved, p)
		}
	}
	return d
}

func buildPathSet(paths []string) map[string]bool {
	m := make(map[string]bool, len(paths))
	for _, p := range paths {
		m[p] = true
	}
	return m
}

// Sorted returns a copy of d with both lists sorted
func (d MissingDiff) Sorted() MissingDiff {
	out := MissingDiff{Added: slices.Clone(d.Added), Resolved: slices.Clone(d.Resolved)}
	slices.Sort(out.Added)
	slices.Sort(out.Resolved)
	return out
}

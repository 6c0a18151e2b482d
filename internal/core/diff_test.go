package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffMissing(t *testing.T) {
	prev := []string{"/data/old", "/data/same"}
	cur := []string{"/data/same", "/data/new"}

	d := DiffMissing(prev, cur)

	assert.Equal(t, []string{"/data/new"}, d.Added)
	assert.Equal(t, []string{"/data/old"}, d.Resolved)
	assert.False(t, d.Empty())
}

func TestDiffMissingFirstScan(t *testing.T) {
	d := DiffMissing(nil, []string{"/b", "/a"})

	assert.Equal(t, []string{"/b", "/a"}, d.Added)
	assert.Empty(t, d.Resolved)
	assert.Equal(t, []string{"/a", "/b"}, d.Sorted().Added)
}

func TestDiffMissingUnchanged(t *testing.T) {
	d := DiffMissing([]string{"/a"}, []string{"/a"})
	assert.True(t, d.Empty())
}

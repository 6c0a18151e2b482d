//go:build windows

package scanner

import (
	"io/fs"
)

// platformRootInfo holds platform-specific root information
type platformRootInfo struct {
	// Windows doesn't need mount point detection - drives are separate
}

// getPlatformRootInfo returns platform-specific info about the root path
func getPlatformRootInfo(path string) platformRootInfo {
	return platformRootInfo{}
}

// sameDevice always returns true; a scan never leaves its drive on Windows
func sameDevice(info fs.FileInfo, rootInfo platformRootInfo) bool {
	return true
}

// dirIdentity is unavailable from a Windows FileInfo; fastwalk's own loop
// detection covers followed junctions and symlinks
func dirIdentity(info fs.FileInfo) (any, bool) {
	return nil, false
}

//go:build !windows

package scanner

import (
	"io/fs"
	"syscall"
)

// platformRootInfo holds platform-specific root information
type platformRootInfo struct {
	dev uint64
	ok  bool
}

// fileID identifies a directory independent of the path used to reach it
type fileID struct {
	dev uint64
	ino uint64
}

// getPlatformRootInfo returns platform-specific info about the root path
func getPlatformRootInfo(path string) platformRootInfo {
	var stat syscall.Stat_t
	if err := syscall.Stat(path, &stat); err != nil {
		return platformRootInfo{}
	}
	return platformRootInfo{dev: uint64(stat.Dev), ok: true}
}

// sameDevice returns false when info lives on another filesystem than the root
func sameDevice(info fs.FileInfo, rootInfo platformRootInfo) bool {
	if !rootInfo.ok {
		return true
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return true
	}
	return uint64(stat.Dev) == rootInfo.dev
}

// dirIdentity returns the device and inode of info
func dirIdentity(info fs.FileInfo) (any, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, false
	}
	return fileID{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true
}

package storage

import (
	"os"
	"syscall"
)

// Identity is the (inode, size) pair C6 uses to detect rotation: rename
// and recreate changes the inode, truncate-in-place shrinks the size.
type Identity struct {
	Inode uint64
	Size  int64
}

// Stat reads the current on-disk identity of path. Returns ok=false if the
// file does not exist or cannot be stat'd.
func Stat(path string) (Identity, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return Identity{}, false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Identity{Size: info.Size()}, true
	}
	return Identity{Inode: stat.Ino, Size: info.Size()}, true
}

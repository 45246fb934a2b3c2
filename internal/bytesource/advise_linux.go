// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build linux

package bytesource

import (
	"os"

	"golang.org/x/sys/unix"
)

// advise hints the kernel that [off, off+n) will be read sequentially and
// soon. FileSource.ReadTail calls it for the trailer read; no other read
// does. Best-effort: errors are ignored, matching the teacher's
// per-OS fileid helpers which degrade gracefully off Linux.
func advise(f *os.File, off, n int64) {
	fd := int(f.Fd())
	_ = unix.Fadvise(fd, off, n, unix.FADV_SEQUENTIAL)
}

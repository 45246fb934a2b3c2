// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build !linux

package bytesource

import "os"

// advise is a no-op off Linux: FADV_SEQUENTIAL has no portable equivalent
// and darwin/bsd gain little from it for the read sizes involved here.
func advise(f *os.File, off, n int64) {}

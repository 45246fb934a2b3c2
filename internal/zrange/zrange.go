// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package zrange models the half-open byte ranges that the byte source
// and the extraction pipeline trade in.
package zrange

import "fmt"

// Range is a half-open interval [Start, Start+Length) in some backing
// byte source.
type Range struct {
	Start  int64
	Length int64
}

// End returns the first offset not covered by r.
func (r Range) End() int64 { return r.Start + r.Length }

// HeaderSpec renders r as an HTTP Range header spec component, e.g. "0-99".
// The end is inclusive per RFC 7233, hence the -1.
func (r Range) HeaderSpec() string {
	if r.Length <= 0 {
		return fmt.Sprintf("%d-%d", r.Start, r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End()-1)
}

// Join renders a comma-separated "bytes=..." spec for a multi-range GET.
func Join(ranges []Range) string {
	spec := "bytes="
	for i, r := range ranges {
		if i > 0 {
			spec += ","
		}
		spec += r.HeaderSpec()
	}
	return spec
}

// Tail renders the "bytes=-n" suffix-range spec used by read_tail.
func Tail(n int64) string {
	return fmt.Sprintf("bytes=-%d", n)
}

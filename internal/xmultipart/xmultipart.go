// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package xmultipart splits a multipart/byteranges HTTP response body into
// the ordered sequence of opaque byte parts it carries. Per-part headers
// (Content-Type, Content-Range) are discarded: the byte source assumes the
// server preserves request order and does not remap parts by offset (see
// the "Multi-range order dependency" design note).
package xmultipart

import (
	"io"
	"mime"
	"mime/multipart"

	"github.com/cockroachdb/errors"
)

// Parts reads every part of a multipart/byteranges body and returns their
// raw bytes in server order. contentType is the response's Content-Type
// header, which carries the boundary parameter.
func Parts(body io.Reader, contentType string) ([][]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errors.Wrap(err, "xmultipart: missing or malformed Content-Type")
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return nil, errors.New("xmultipart: missing boundary parameter")
	}

	mr := multipart.NewReader(body, boundary)
	var out [][]byte
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "xmultipart: truncated or malformed part")
		}

		buf, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, errors.Wrap(err, "xmultipart: reading part body")
		}
		out = append(out, buf)
	}
	return out, nil
}

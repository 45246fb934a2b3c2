// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package bytesource

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"zipfetch/internal/xmultipart"
	"zipfetch/internal/zrange"
)

// HTTPSource is a Source backed by a URL that answers HTTP range requests.
// Construction of the *http.Client (timeouts, retries, auth) is the
// caller's concern; HTTPSource only shapes the Range header and parses the
// response.
type HTTPSource struct {
	ctx    context.Context
	client *http.Client
	url    string
}

// NewHTTP wraps an existing client and URL as a Source. The client is not
// owned by the HTTPSource and is not closed by Close.
func NewHTTP(ctx context.Context, client *http.Client, url string) *HTTPSource {
	return &HTTPSource{ctx: ctx, client: client, url: url}
}

func (s *HTTPSource) do(rangeSpec string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "bytesource: building range request")
	}
	req.Header.Set("Range", rangeSpec)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "bytesource: range request")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Newf("bytesource: server returned %s: %s", resp.Status, string(body))
	}
	return resp, nil
}

func (s *HTTPSource) Read(r zrange.Range) ([]byte, error) {
	resp, err := s.do("bytes=" + r.HeaderSpec())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readAllOrFail(resp.Body, r.Length)
}

func (s *HTTPSource) ReadMany(ranges []zrange.Range) ([][]byte, error) {
	if len(ranges) == 0 {
		return nil, nil
	}
	if len(ranges) == 1 {
		one, err := s.Read(ranges[0])
		if err != nil {
			return nil, err
		}
		return [][]byte{one}, nil
	}

	resp, err := s.do(zrange.Join(ranges))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/byteranges") {
		return nil, errors.Newf("bytesource: expected multipart/byteranges response for %d ranges, got Content-Type %q", len(ranges), contentType)
	}

	parts, err := xmultipart.Parts(resp.Body, contentType)
	if err != nil {
		return nil, err
	}
	if len(parts) < len(ranges) {
		return nil, errors.Newf("bytesource: server returned %d parts for %d requested ranges", len(parts), len(ranges))
	}
	return parts[:len(ranges)], nil
}

func (s *HTTPSource) ReadTail(n int64) ([]byte, error) {
	resp, err := s.do(zrange.Tail(n))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readAllOrFail(resp.Body, n)
}

func (s *HTTPSource) Close() error { return nil }

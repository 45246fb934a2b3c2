package zipfetch

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"zipfetch/internal/bytesource"
	"zipfetch/internal/zrange"
)

type fixtureFile struct {
	name string
	body []byte
}

var fixtureFiles = []fixtureFile{
	{"lorem.txt", []byte("lorem ipsum dolor sit amet, consectetur adipiscing elit")},
	{"lipsum.txt", bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 30)},
	{"folder/lorem.txt", []byte("nested lorem")},
	{"folder/lorem2.txt", []byte("another nested file with more content to make deflate worthwhile")},
}

var fixtureDirs = []string{"folder/"}

func writeFixtureZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, dir := range fixtureDirs {
		if _, err := w.Create(dir); err != nil {
			t.Fatal(err)
		}
	}
	for i, ff := range fixtureFiles {
		method := zip.Store
		if i%2 == 1 {
			method = zip.Deflate
		}
		hdr := &zip.FileHeader{Name: ff.name, Method: method}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(ff.body); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func openFixture(t *testing.T) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	writeFixtureZip(t, path)
	r, err := Open(path, WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestFilesMatchesEntrySet(t *testing.T) {
	r := openFixture(t)

	got, err := r.Files()
	if err != nil {
		t.Fatal(err)
	}

	want := make([]string, 0, len(fixtureFiles)+len(fixtureDirs))
	for _, ff := range fixtureFiles {
		want = append(want, ff.name)
	}
	want = append(want, fixtureDirs...)

	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFileStreamMatchesContentCRCAndSize(t *testing.T) {
	r := openFixture(t)

	for _, ff := range fixtureFiles {
		meta, err := r.FileMetadata(ff.name)
		if err != nil {
			t.Fatalf("%s: %v", ff.name, err)
		}
		if meta.UncompressedSize != uint64(len(ff.body)) {
			t.Errorf("%s: metadata size %d, want %d", ff.name, meta.UncompressedSize, len(ff.body))
		}

		stream, err := r.FileStream(ff.name)
		if err != nil {
			t.Fatalf("%s: %v", ff.name, err)
		}
		got, err := io.ReadAll(stream)
		stream.Close()
		if err != nil {
			t.Fatalf("%s: %v", ff.name, err)
		}
		if !bytes.Equal(got, ff.body) {
			t.Errorf("%s: content mismatch, got %d bytes want %d", ff.name, len(got), len(ff.body))
		}
		if crc32.ChecksumIEEE(got) != meta.CRC32 {
			t.Errorf("%s: CRC32 mismatch", ff.name)
		}
	}
}

func TestFileStreamsReturnsEveryRequestedName(t *testing.T) {
	r := openFixture(t)

	names := []string{fixtureFiles[2].name, fixtureFiles[0].name}
	streams, err := r.FileStreams(names)
	if err != nil {
		t.Fatal(err)
	}
	if len(streams) != len(names) {
		t.Fatalf("got %d streams, want %d", len(streams), len(names))
	}
	for _, n := range names {
		if _, ok := streams[n]; !ok {
			t.Errorf("missing stream for %s", n)
		}
	}
}

func TestFileStreamNotFound(t *testing.T) {
	r := openFixture(t)
	if _, err := r.FileStream("does-not-exist.txt"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCloseRejectsFurtherOperations(t *testing.T) {
	r := openFixture(t)
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Files(); err != ErrClosed {
		t.Fatalf("got %v", err)
	}
}

// countingSource wraps an in-memory archive buffer and counts ReadMany
// calls, standing in for the on-disk FileSource so CacheFiles idempotence
// (spec.md §8 property 6) can be observed without touching the real
// filesystem's page cache.
type countingSource struct {
	buf           []byte
	readManyCalls int
}

func (c *countingSource) Read(r zrange.Range) ([]byte, error) {
	return c.buf[r.Start:r.End()], nil
}

func (c *countingSource) ReadMany(ranges []zrange.Range) ([][]byte, error) {
	c.readManyCalls++
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		out[i] = c.buf[r.Start:r.End()]
	}
	return out, nil
}

func (c *countingSource) ReadTail(n int64) ([]byte, error) {
	return c.buf[int64(len(c.buf))-n:], nil
}

func (c *countingSource) Close() error { return nil }

var _ bytesource.Source = (*countingSource)(nil)

func TestCacheFilesIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, ff := range fixtureFiles {
		fw, err := w.Create(ff.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(ff.body)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	src := &countingSource{buf: buf.Bytes()}
	r, err := newReader(src, []Option{WithLogger(slog.New(slog.DiscardHandler))})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	names := []string{fixtureFiles[0].name, fixtureFiles[1].name}
	if err := r.CacheFiles(names); err != nil {
		t.Fatal(err)
	}
	if src.readManyCalls != 1 {
		t.Fatalf("expected 1 ReadMany call, got %d", src.readManyCalls)
	}

	if err := r.CacheFiles(names); err != nil {
		t.Fatal(err)
	}
	if src.readManyCalls != 1 {
		t.Fatalf("expected no additional ReadMany call, got %d total", src.readManyCalls)
	}
}

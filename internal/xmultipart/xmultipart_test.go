package xmultipart

import (
	"strings"
	"testing"
)

const boundary = "SEP"

func buildBody(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: application/octet-stream\r\n")
		b.WriteString("Content-Range: bytes 0-0/10\r\n\r\n")
		b.WriteString(p)
		b.WriteString("\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return b.String()
}

func TestParts(t *testing.T) {
	body := buildBody("hello", "world!!")
	parts, err := Parts(strings.NewReader(body), `multipart/byteranges; boundary=`+boundary)
	if err != nil {
		t.Fatalf("Parts() error = %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if string(parts[0]) != "hello" || string(parts[1]) != "world!!" {
		t.Errorf("got parts %q, %q", parts[0], parts[1])
	}
}

func TestPartsMissingBoundary(t *testing.T) {
	_, err := Parts(strings.NewReader(buildBody("x")), "multipart/byteranges")
	if err == nil {
		t.Fatal("expected error for missing boundary")
	}
}

func TestPartsTruncated(t *testing.T) {
	_, err := Parts(strings.NewReader("--"+boundary+"\r\nContent-Type: x\r\n\r\nincomplete"), `multipart/byteranges; boundary=`+boundary)
	if err == nil {
		t.Fatal("expected error for truncated part")
	}
}

func TestPartsNoParts(t *testing.T) {
	parts, err := Parts(strings.NewReader(buildBody()), `multipart/byteranges; boundary=`+boundary)
	if err != nil {
		t.Fatalf("Parts() error = %v", err)
	}
	if len(parts) != 0 {
		t.Errorf("got %d parts, want 0", len(parts))
	}
}

// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command zipfetch is a small inspection tool for zipfetch archives: list
// entries, dump Central Directory metadata, or stream a file to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"

	"zipfetch"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  zipfetch ls <path-or-url>
  zipfetch stat <path-or-url> <entry>
  zipfetch cat <path-or-url> <entry>
`)
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		usage()
	}
	cmd, target := args[0], args[1]

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	r, err := open(target, logger)
	if err != nil {
		fatal(err)
	}
	defer r.Close()

	switch cmd {
	case "ls":
		lsCmd(r)
	case "stat":
		if len(args) < 3 {
			usage()
		}
		statCmd(r, args[2])
	case "cat":
		if len(args) < 3 {
			usage()
		}
		catCmd(r, args[2])
	default:
		usage()
	}
}

func open(target string, logger *slog.Logger) (*zipfetch.Reader, error) {
	opt := zipfetch.WithLogger(logger)
	if isURL(target) {
		return zipfetch.OpenHTTP(context.Background(), http.DefaultClient, target, opt)
	}
	return zipfetch.Open(target, opt)
}

func isURL(s string) bool {
	return len(s) > 7 && (s[:7] == "http://" || s[:8] == "https://")
}

func lsCmd(r *zipfetch.Reader) {
	names, err := r.Files()
	if err != nil {
		fatal(err)
	}
	sort.Strings(names)
	appx, err := r.IsAppx()
	if err != nil {
		fatal(err)
	}
	if appx {
		fmt.Println("# AppX package")
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func statCmd(r *zipfetch.Reader, name string) {
	m, err := r.FileMetadata(name)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("name=%s\n", m.Name)
	fmt.Printf("dir=%v\n", m.IsDirectory)
	fmt.Printf("size=%d compressed=%d crc32=%08x\n", m.UncompressedSize, m.CompressedSize, m.CRC32)
	fmt.Printf("modified=%s\n", m.LastModified.Format("2006-01-02T15:04:05"))
	if m.LastAccess != nil {
		fmt.Printf("accessed=%s\n", m.LastAccess.Format("2006-01-02T15:04:05"))
	}
	if m.Creation != nil {
		fmt.Printf("created=%s\n", m.Creation.Format("2006-01-02T15:04:05"))
	}
}

func catCmd(r *zipfetch.Reader, name string) {
	stream, err := r.FileStream(name)
	if err != nil {
		fatal(err)
	}
	defer stream.Close()
	if _, err := io.Copy(os.Stdout, stream); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "zipfetch:", err)
	os.Exit(1)
}

package storage

import (
	"context"
	"io"
	"os"
	"strings"
)

type ReaderAtSeeker interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// Open returns a random access reader for a local path, an http(s) url, or a
// blob url (s3://, gs://, azblob://, file://).
func Open(ctx context.Context, name string) (ReaderAtSeeker, error) {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return NewHttpReader(name)
	}
	if strings.Contains(name, "://") {
		return NewBlobReader(ctx, name)
	}
	return os.Open(name)
}

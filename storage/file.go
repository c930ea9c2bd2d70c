package storage

import (
	"io"
	"time"
)

// File contents plus the info needed to serve it over HTTP.
type File struct {
	io.ReadSeekCloser

	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

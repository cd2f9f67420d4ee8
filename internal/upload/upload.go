package upload

import (
	"context"
	"fmt"
	"time"
)

const octetStream = "application/octet-stream"

// Request is a single object transfer.
type Request struct {
	Dir         string // Expanded destination folder, may be empty
	Name        string // Sanitized file name
	Key         string // Dir/Name
	Body        []byte
	ContentType string
}

// NewRequest builds the transfer for a local file named name. The destination
// folder is pathTemplate expanded at now.
func NewRequest(name string, body []byte, pathTemplate string, now time.Time) Request {
	dir := ExpandPath(pathTemplate, now)
	safe := SanitizeFilename(name)
	return Request{
		Dir:         dir,
		Name:        safe,
		Key:         JoinKey(dir, safe),
		Body:        body,
		ContentType: octetStream,
	}
}

// Result describes a stored object.
type Result struct {
	Key string
	URL string // Public CDN URL
}

// Backend stores objects and knows their public URL.
type Backend interface {
	Upload(ctx context.Context, req Request) (*Result, error)
	PublicURL(key string) string
}

// TransferError is returned when the remote store answers outside 2xx.
type TransferError struct {
	StatusCode int
	Message    string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload failed (%d): %s", e.StatusCode, e.Message)
}

func cdnURL(host, key string) string {
	return fmt.Sprintf("https://%s/%s", host, key)
}

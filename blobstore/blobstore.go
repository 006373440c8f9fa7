package blobstore

import (
	"context"
	"io"
)

// UploadResult is the stored location of an uploaded blob
type UploadResult struct {
	URL    string
	BlobID string
}

// Store is the boundary to the image blob store. Delete is best-effort for
// callers: a failed delete must never abort the mutation that requested it.
type Store interface {
	Upload(ctx context.Context, r io.Reader, folder string) (*UploadResult, error)
	Delete(ctx context.Context, blobID string) error
}

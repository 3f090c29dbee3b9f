package delivery

import (
	"context"

	"acquisition-pdf-pipeline/internal/domain"
)

// BlobStore is the slice of the blob layer the storage channel needs.
type BlobStore interface {
	PutRendered(ctx context.Context, submissionID int64, filename string, content []byte) (string, string, error)
}

// StorageChannel pushes rendered documents to the shared remote folder.
// Every run uploads a fresh object; the blob layer guarantees the key is
// never reused.
type StorageChannel struct {
	blob    BlobStore
	enabled bool
}

func NewStorageChannel(blob BlobStore, enabled bool) *StorageChannel {
	return &StorageChannel{blob: blob, enabled: enabled}
}

func (c *StorageChannel) Enabled() bool { return c.enabled }

// Upload stores the document and returns its stable external link.
func (c *StorageChannel) Upload(ctx context.Context, sub domain.Submission, doc domain.RenderedDocument) (string, error) {
	_, link, err := c.blob.PutRendered(ctx, sub.ID, doc.Filename, doc.Content)
	if err != nil {
		return "", &domain.StorageError{Op: "upload", Err: err}
	}
	return link, nil
}

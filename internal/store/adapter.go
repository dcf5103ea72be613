// Package store implements the remote store adapter: vault records in
// PostgreSQL and attachment content in S3-compatible object storage.
package store

import (
	"context"
	"fmt"

	"github.com/codevault/codevault/internal/logging"
	"github.com/codevault/codevault/internal/models"
	"github.com/codevault/codevault/internal/store/records"
)

// BlobStore is the object storage used for attachments.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, name, contentType string) (*models.Attachment, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// Adapter joins the record repository and blob storage.
type Adapter struct {
	records records.Repository
	blobs   BlobStore
	logger  logging.Logger
}

func NewAdapter(recs records.Repository, blobs BlobStore, logger logging.Logger) *Adapter {
	return &Adapter{
		records: recs,
		blobs:   blobs,
		logger:  logger.With("module", "store"),
	}
}

// ListRecords returns every record, newest first.
func (a *Adapter) ListRecords(ctx context.Context) ([]models.Record, error) {
	return a.records.List(ctx)
}

// CreateRecord persists a new record and returns its id.
func (a *Adapter) CreateRecord(ctx context.Context, fields models.RecordFields) (string, error) {
	return a.records.Create(ctx, fields)
}

// UpdateRecord applies patch to record id.
func (a *Adapter) UpdateRecord(ctx context.Context, id string, patch models.RecordPatch) error {
	dropped, err := a.records.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	a.logOrphan(ctx, id, dropped)
	return nil
}

// DeleteRecord removes record id; an absent record is not an error.
func (a *Adapter) DeleteRecord(ctx context.Context, id string) error {
	dropped, err := a.records.Delete(ctx, id)
	if err != nil {
		return err
	}
	a.logOrphan(ctx, id, dropped)
	return nil
}

// UploadBlob stores data and returns its attachment metadata.
func (a *Adapter) UploadBlob(ctx context.Context, data []byte, name, contentType string) (*models.Attachment, error) {
	att, err := a.blobs.Upload(ctx, data, name, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}
	a.logger.Debug(ctx, "blob uploaded", "path", att.StoragePath, "size", att.SizeBytes)
	return att, nil
}

// PresignAttachment returns a short-lived download URL for storagePath.
func (a *Adapter) PresignAttachment(ctx context.Context, storagePath string) (string, error) {
	return a.blobs.PresignGet(ctx, storagePath)
}

// Blob content is never removed when a record stops referencing it.
func (a *Adapter) logOrphan(ctx context.Context, id, path string) {
	if path == "" {
		return
	}
	a.logger.Warn(ctx, "attachment blob left unreferenced", "record", id, "path", path)
}

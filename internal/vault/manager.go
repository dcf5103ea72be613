// Package vault holds the in-memory snapshot of vault records for a session
// and mediates every write to the remote store.
//
// The snapshot is only ever replaced as a whole by Refresh; create, update
// and delete never patch it locally and instead re-fetch after the store
// confirms the write.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/codevault/codevault/internal/common"
	"github.com/codevault/codevault/internal/logging"
	"github.com/codevault/codevault/internal/models"
)

// RemoteStore is the persistence contract the manager depends on.
type RemoteStore interface {
	ListRecords(ctx context.Context) ([]models.Record, error)
	CreateRecord(ctx context.Context, fields models.RecordFields) (string, error)
	UpdateRecord(ctx context.Context, id string, patch models.RecordPatch) error
	DeleteRecord(ctx context.Context, id string) error
	UploadBlob(ctx context.Context, data []byte, name, contentType string) (*models.Attachment, error)
}

// Input is untrimmed user input for create and update.
type Input struct {
	Platform string
	Username string
	Password string
	Comment  string

	// File is nil when no new attachment was chosen.
	File *models.AttachmentFile
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxAttachmentSize overrides the attachment size limit. Non-positive
// values are ignored.
func WithMaxAttachmentSize(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttachmentSize = n
		}
	}
}

// Manager owns the record snapshot.
type Manager struct {
	store  RemoteStore
	logger logging.Logger

	maxAttachmentSize int64

	mu      sync.RWMutex
	records []models.Record
	loading int
	lastErr error
}

func NewManager(store RemoteStore, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:             store,
		logger:            logger.With("module", "vault"),
		maxAttachmentSize: common.MaxAttachmentSize,
		records:           []models.Record{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Records returns a copy of the current snapshot, newest first.
func (m *Manager) Records() []models.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRecords(m.records)
}

// IsLoading reports whether a refresh is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading > 0
}

// LastError returns the failure recorded by the most recent store-touching
// operation, or nil if it succeeded.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Refresh re-reads every record and replaces the snapshot. On failure the
// previous snapshot is kept.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.loading++
	m.lastErr = nil
	m.mu.Unlock()

	recs, err := m.store.ListRecords(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading--

	if err != nil {
		m.lastErr = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		m.logger.Error(ctx, "refresh failed", "error", err)
		return m.lastErr
	}

	m.records = cloneRecords(recs)
	m.logger.Debug(ctx, "snapshot replaced", "records", len(recs))
	return nil
}

// Create validates in, uploads its file if any, writes the record and
// refreshes. The new id is returned even if the follow-up refresh fails;
// that failure is visible through LastError.
func (m *Manager) Create(ctx context.Context, in Input) (string, error) {
	fields, err := m.normalize(in)
	if err != nil {
		return "", err
	}

	rf := models.RecordFields{
		Platform: fields.Platform,
		Username: fields.Username,
		Password: fields.Password,
		Comment:  fields.Comment,
	}
	if in.File != nil {
		att, err := m.upload(ctx, in.File)
		if err != nil {
			return "", err
		}
		rf.Attachment = att
	}

	id, err := m.store.CreateRecord(ctx, rf)
	if err != nil {
		return "", m.fail(ctx, "create failed", fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}
	m.logger.Info(ctx, "record created", "id", id, "attachment", rf.Attachment != nil)

	_ = m.Refresh(ctx)
	return id, nil
}

// Update overwrites the text fields of record id. With a new file the
// attachment is replaced; without one it is kept when keepExisting is true
// and cleared otherwise.
func (m *Manager) Update(ctx context.Context, id string, in Input, keepExisting bool) error {
	fields, err := m.normalize(in)
	if err != nil {
		return err
	}

	patch := models.RecordPatch{
		Platform: fields.Platform,
		Username: fields.Username,
		Password: fields.Password,
		Comment:  fields.Comment,
	}
	switch {
	case in.File != nil:
		att, err := m.upload(ctx, in.File)
		if err != nil {
			return err
		}
		patch.AttachmentAction = models.AttachmentSet
		patch.Attachment = att
	case keepExisting:
		patch.AttachmentAction = models.AttachmentKeep
	default:
		patch.AttachmentAction = models.AttachmentClear
	}

	if err := m.store.UpdateRecord(ctx, id, patch); err != nil {
		kind := ErrWriteFailed
		if errors.Is(err, common.ErrorNotFound) {
			kind = ErrNotFound
		}
		return m.fail(ctx, "update failed", fmt.Errorf("%w: %w", kind, err), "id", id)
	}
	m.logger.Info(ctx, "record updated", "id", id, "attachment", patch.AttachmentAction.String())

	_ = m.Refresh(ctx)
	return nil
}

// Delete removes record id from the store. The attachment blob, if any, is
// left in storage.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteRecord(ctx, id); err != nil {
		return m.fail(ctx, "delete failed", fmt.Errorf("%w: %w", ErrDeleteFailed, err), "id", id)
	}
	m.logger.Info(ctx, "record deleted", "id", id)

	_ = m.Refresh(ctx)
	return nil
}

// normalize trims the text fields and checks the required ones. The
// password is checked trimmed but kept verbatim.
func (m *Manager) normalize(in Input) (Input, error) {
	out := Input{
		Platform: strings.TrimSpace(in.Platform),
		Username: strings.TrimSpace(in.Username),
		Password: in.Password,
		Comment:  strings.TrimSpace(in.Comment),
		File:     in.File,
	}
	if out.Platform == "" {
		return Input{}, fmt.Errorf("%w: platform is required", ErrValidationFailed)
	}
	if strings.TrimSpace(out.Password) == "" {
		return Input{}, fmt.Errorf("%w: password is required", ErrValidationFailed)
	}
	if out.File != nil && out.File.Size() > m.maxAttachmentSize {
		return Input{}, fmt.Errorf("%w: attachment exceeds %d bytes", ErrValidationFailed, m.maxAttachmentSize)
	}
	return out, nil
}

func (m *Manager) upload(ctx context.Context, f *models.AttachmentFile) (*models.Attachment, error) {
	att, err := m.store.UploadBlob(ctx, f.Data, f.Name, f.ContentType)
	if err != nil {
		return nil, m.fail(ctx, "attachment upload failed", fmt.Errorf("%w: %w", ErrAttachmentUploadFailed, err), "file", f.Name)
	}
	if att == nil {
		return nil, m.fail(ctx, "attachment upload failed", fmt.Errorf("%w: store returned no metadata", ErrAttachmentUploadFailed), "file", f.Name)
	}
	return att, nil
}

func (m *Manager) fail(ctx context.Context, msg string, err error, args ...any) error {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()

	m.logger.Error(ctx, msg, append(args, "error", err)...)
	return err
}

func cloneRecords(in []models.Record) []models.Record {
	out := make([]models.Record, len(in))
	copy(out, in)
	for i := range out {
		if out[i].Attachment != nil {
			att := *out[i].Attachment
			out[i].Attachment = &att
		}
	}
	return out
}

package vault

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codevault/codevault/internal/common"
	"github.com/codevault/codevault/internal/models"
)

// memStore is an in-memory RemoteStore that counts calls and can be told to
// fail individual operations.
type memStore struct {
	mu      sync.Mutex
	records map[string]models.Record
	seq     int
	clock   time.Time

	listErr, createErr, updateErr, deleteErr, uploadErr error

	lists, creates, updates, deletes, uploads int
	lastPatch                                 models.RecordPatch
}

func newMemStore() *memStore {
	return &memStore{
		records: map[string]models.Record{},
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) ListRecords(ctx context.Context) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) CreateRecord(ctx context.Context, f models.RecordFields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return "", s.createErr
	}
	s.seq++
	id := fmt.Sprintf("rec-%d", s.seq)
	now := s.tick()
	s.records[id] = models.Record{
		ID: id, Platform: f.Platform, Username: f.Username, Password: f.Password, Comment: f.Comment,
		Attachment: f.Attachment, CreatedAt: now, UpdatedAt: now,
	}
	return id, nil
}

func (s *memStore) UpdateRecord(ctx context.Context, id string, p models.RecordPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	s.lastPatch = p
	if s.updateErr != nil {
		return s.updateErr
	}
	r, ok := s.records[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.Platform, r.Username, r.Password, r.Comment = p.Platform, p.Username, p.Password, p.Comment
	switch p.AttachmentAction {
	case models.AttachmentSet:
		r.Attachment = p.Attachment
	case models.AttachmentClear:
		r.Attachment = nil
	}
	r.UpdatedAt = s.tick()
	s.records[id] = r
	return nil
}

func (s *memStore) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.records, id)
	return nil
}

func (s *memStore) UploadBlob(ctx context.Context, data []byte, name, contentType string) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	path := fmt.Sprintf("vault-files/%d_%s", s.tick().UnixMilli(), name)
	return &models.Attachment{
		URL:         "http://blobs/vault/" + path,
		StoragePath: path,
		FileName:    name,
		MimeType:    contentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

func (s *memStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates + s.updates + s.deletes
}

func (s *memStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists + s.creates + s.updates + s.deletes + s.uploads
}

// Package models defines the vault domain types shared by the store adapter,
// the vault state manager and the presentation layers.
package models

import "time"

// Record is one stored secret entry.
type Record struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Username string `json:"username"`
	Password string `json:"password"`
	Comment  string `json:"comment"`

	// Attachment is nil when no file is attached.
	Attachment *Attachment `json:"attachment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment describes a file stored in blob storage and referenced by a record.
// It is either fully present or absent.
type Attachment struct {
	URL         string `json:"url"`
	StoragePath string `json:"storage_path"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// RecordFields is the full set of writable fields for a new record.
type RecordFields struct {
	Platform   string
	Username   string
	Password   string
	Comment    string
	Attachment *Attachment
}

// AttachmentAction selects what an update does with the attachment columns.
type AttachmentAction int

const (
	// AttachmentKeep leaves the stored attachment untouched.
	AttachmentKeep AttachmentAction = iota
	// AttachmentSet replaces the stored attachment with RecordPatch.Attachment.
	AttachmentSet
	// AttachmentClear unsets every attachment field.
	AttachmentClear
)

func (a AttachmentAction) String() string {
	switch a {
	case AttachmentKeep:
		return "keep"
	case AttachmentSet:
		return "set"
	case AttachmentClear:
		return "clear"
	default:
		return "unknown"
	}
}

// RecordPatch is an update of an existing record. Text fields are always
// overwritten; the attachment is handled according to AttachmentAction.
type RecordPatch struct {
	Platform string
	Username string
	Password string
	Comment  string

	AttachmentAction AttachmentAction
	Attachment       *Attachment
}

// AttachmentFile is raw file input coming from a presentation layer.
type AttachmentFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the length of the file content in bytes.
func (f *AttachmentFile) Size() int64 {
	return int64(len(f.Data))
}

package vault

import (
	"errors"

	"github.com/codevault/codevault/internal/common"
)

var (
	// ErrValidationFailed is returned before any I/O when a required field is
	// empty or the attachment is too large.
	ErrValidationFailed = errors.New("validation failed")

	// ErrAttachmentUploadFailed means the blob upload failed and no record
	// write was attempted.
	ErrAttachmentUploadFailed = errors.New("attachment upload failed")

	// ErrFetchFailed wraps read path failures of Refresh.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrStoreUnavailable is the store's transport failure. It is matched in
	// addition to the operation kind when the cause was a lost connection.
	ErrStoreUnavailable = common.ErrStoreUnavailable

	ErrWriteFailed  = errors.New("write failed")
	ErrNotFound     = errors.New("record not found")
	ErrDeleteFailed = errors.New("delete failed")
)

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codevault/codevault/internal/vault"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// vaultStatus maps a vault failure onto an HTTP status and a short code.
func vaultStatus(err error) (int, string) {
	switch {
	case errors.Is(err, vault.ErrValidationFailed):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, vault.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, vault.ErrAttachmentUploadFailed):
		return http.StatusBadGateway, "attachment_upload_failed"
	case errors.Is(err, vault.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, vault.ErrFetchFailed):
		return http.StatusInternalServerError, "fetch_failed"
	case errors.Is(err, vault.ErrWriteFailed):
		return http.StatusInternalServerError, "write_failed"
	case errors.Is(err, vault.ErrDeleteFailed):
		return http.StatusInternalServerError, "delete_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeVaultError(w http.ResponseWriter, err error) {
	status, code := vaultStatus(err)
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}

// errorCode is the short code reported for a recorded vault error, or nil.
func errorCode(err error) *string {
	if err == nil {
		return nil
	}
	_, code := vaultStatus(err)
	return &code
}

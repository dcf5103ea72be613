package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/codevault/codevault/internal/auth"
	"github.com/codevault/codevault/internal/common"
	"github.com/codevault/codevault/internal/logging"
	"github.com/codevault/codevault/internal/models"
	"github.com/codevault/codevault/internal/vault"
	"github.com/go-chi/chi/v5"
)

// formOverhead is allowed on top of the attachment for the text fields and
// multipart framing.
const formOverhead = 1 << 20

// Vault is the state manager surface used by the handlers.
type Vault interface {
	Refresh(ctx context.Context) error
	Create(ctx context.Context, in vault.Input) (string, error)
	Update(ctx context.Context, id string, in vault.Input, keepExisting bool) error
	Delete(ctx context.Context, id string) error
	Records() []models.Record
	IsLoading() bool
	LastError() error
}

// Authenticator logs the owner in and checks session tokens.
type Authenticator interface {
	TokenValidator
	Login(ctx context.Context, identity, secret string) (*auth.Session, error)
}

// AttachmentLinker issues download links for stored attachments.
type AttachmentLinker interface {
	PresignAttachment(ctx context.Context, storagePath string) (string, error)
}

// Options tunes the handlers.
type Options struct {
	MaxAttachmentSize int64
	SessionValidity   time.Duration
	SecureCookie      bool
}

type Handler struct {
	vault  Vault
	auth   Authenticator
	links  AttachmentLinker
	opts   Options
	logger logging.Logger
}

func NewHandler(v Vault, a Authenticator, links AttachmentLinker, opts Options, logger logging.Logger) *Handler {
	if opts.MaxAttachmentSize <= 0 {
		opts.MaxAttachmentSize = common.MaxAttachmentSize
	}
	if opts.SessionValidity <= 0 {
		opts.SessionValidity = common.SessionValidity
	}
	return &Handler{
		vault:  v,
		auth:   a,
		links:  links,
		opts:   opts,
		logger: logger.With("module", "httpapi"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "malformed login request"})
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var ae *auth.Error
		if !errors.As(err, &ae) {
			ae = &auth.Error{Kind: auth.KindInternalError, Err: fmt.Errorf("%w: %w", common.ErrorInternal, err)}
		}
		status := http.StatusUnauthorized
		if errors.Is(ae, common.ErrorInternal) {
			h.logger.Error(r.Context(), "login failed", "error", ae)
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorBody{Error: string(ae.Kind), Message: ae.Message()})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionValidity / time.Second),
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{ExpiresAt: sess.ExpiresAt})
}

type sessionResponse struct {
	OwnerID string `json:"owner_id"`
}

// session reports the owner behind a valid session cookie.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerIDFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "no session"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{OwnerID: owner})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

type recordsResponse struct {
	Records []models.Record `json:"records"`
	Loading bool            `json:"loading"`
	Error   *string         `json:"error"`
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	recs := vault.Search(r.URL.Query().Get("q"), h.vault.Records())
	writeJSON(w, http.StatusOK, recordsResponse{
		Records: recs,
		Loading: h.vault.IsLoading(),
		Error:   errorCode(h.vault.LastError()),
	})
}

func (h *Handler) refreshRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.vault.Refresh(r.Context()); err != nil {
		writeVaultError(w, err)
		return
	}
	h.listRecords(w, r)
}

type createResponse struct {
	ID string `json:"id"`
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInput(w, r)
	if err != nil {
		writeVaultError(w, err)
		return
	}

	id, err := h.vault.Create(r.Context(), in)
	if err != nil {
		writeVaultError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{ID: id})
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	in, err := h.readInput(w, r)
	if err != nil {
		writeVaultError(w, err)
		return
	}

	keep := true
	if v := r.FormValue("keep_attachment"); v != "" {
		keep, err = strconv.ParseBool(v)
		if err != nil {
			writeVaultError(w, fmt.Errorf("%w: keep_attachment must be a boolean", vault.ErrValidationFailed))
			return
		}
	}

	if err := h.vault.Update(r.Context(), chi.URLParam(r, "id"), in, keep); err != nil {
		writeVaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.vault.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeVaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, ok := findRecord(h.vault.Records(), id)
	if !ok {
		if err := h.vault.Refresh(r.Context()); err == nil {
			rec, ok = findRecord(h.vault.Records(), id)
		}
	}
	if !ok || rec.Attachment == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no attachment for this record"})
		return
	}

	link, err := h.links.PresignAttachment(r.Context(), rec.Attachment.StoragePath)
	if err != nil {
		h.logger.Error(r.Context(), "presign failed", "id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "presign_failed", Message: "could not create a download link"})
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

type platformsResponse struct {
	Platforms []string `json:"platforms"`
}

func (h *Handler) listPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms := vault.UniquePlatforms(h.vault.Records())
	if q := r.URL.Query().Get("q"); q != "" {
		platforms = vault.SuggestPlatforms(q, platforms)
		if platforms == nil {
			platforms = []string{}
		}
	}
	writeJSON(w, http.StatusOK, platformsResponse{Platforms: platforms})
}

// readInput parses a multipart or urlencoded record form. The attachment
// is read up to one byte past the limit so the vault rejects oversize files.
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (vault.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxAttachmentSize+formOverhead)

	err := r.ParseMultipartForm(formOverhead)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return vault.Input{}, fmt.Errorf("%w: %w", vault.ErrValidationFailed, err)
	}

	in := vault.Input{
		Platform: r.FormValue("platform"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		Comment:  r.FormValue("comment"),
	}

	if r.MultipartForm == nil {
		return in, nil
	}
	f, fh, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return vault.Input{}, fmt.Errorf("%w: %w", vault.ErrValidationFailed, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.opts.MaxAttachmentSize+1))
	if err != nil {
		return vault.Input{}, fmt.Errorf("%w: %w", vault.ErrValidationFailed, err)
	}
	in.File = &models.AttachmentFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	return in, nil
}

func findRecord(recs []models.Record, id string) (models.Record, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return models.Record{}, false
}

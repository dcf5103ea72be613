package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/codevault/codevault/internal/auth"
	"github.com/codevault/codevault/internal/common"
	"github.com/codevault/codevault/internal/logging"
	"github.com/codevault/codevault/internal/models"
	"github.com/codevault/codevault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{}

func (fakeAuth) Login(ctx context.Context, identity, secret string) (*auth.Session, error) {
	if identity == "owner@example.com" && secret == "pw" {
		return &auth.Session{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return nil, &auth.Error{Kind: auth.KindInvalidCredential}
}

type memStore struct {
	records map[string]models.Record
	seq     int
	listErr error
}

func newMemStore() *memStore { return &memStore{records: map[string]models.Record{}} }

func (s *memStore) ListRecords(ctx context.Context) ([]models.Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) CreateRecord(ctx context.Context, f models.RecordFields) (string, error) {
	s.seq++
	id := fmt.Sprintf("r%d", s.seq)
	s.records[id] = models.Record{ID: id, Platform: f.Platform, Username: f.Username, Password: f.Password, Comment: f.Comment, Attachment: f.Attachment}
	return id, nil
}

func (s *memStore) UpdateRecord(ctx context.Context, id string, p models.RecordPatch) error {
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
	s.records[id] = r
	return nil
}

func (s *memStore) DeleteRecord(ctx context.Context, id string) error {
	delete(s.records, id)
	return nil
}

func (s *memStore) UploadBlob(ctx context.Context, data []byte, name, contentType string) (*models.Attachment, error) {
	return &models.Attachment{URL: "http://b/" + name, StoragePath: "vault-files/1_" + name, FileName: name, MimeType: "text/plain", SizeBytes: int64(len(data))}, nil
}

type harness struct {
	app   *App
	store *memStore
	out   *bytes.Buffer
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	st := newMemStore()
	var out bytes.Buffer
	m := vault.NewManager(st, logging.Nop())
	a := newApp(m, fakeAuth{}, logging.Nop(), rdr(input), &out)
	return &harness{app: a, store: st, out: &out}
}

func stubFiles(t *testing.T, files map[string]string) {
	t.Helper()
	old := readFile
	t.Cleanup(func() { readFile = old })
	readFile = func(name string) ([]byte, error) {
		if body, ok := files[name]; ok {
			return []byte(body), nil
		}
		return nil, os.ErrNotExist
	}
}

func TestLogin_SuccessLoadsVault(t *testing.T) {
	stubPasswords(t, "pw")
	h := newHarness(t, "owner@example.com\n")
	h.store.records["r9"] = models.Record{ID: "r9", Platform: "Mail", Password: "x"}

	require.NoError(t, h.app.Login(context.Background()))
	assert.True(t, h.app.isLoggedIn())
	assert.Len(t, h.app.vault.Records(), 1)
	assert.Contains(t, h.app.status(), "owner@example.com")
}

func TestLogin_FailurePrintsMessage(t *testing.T) {
	stubPasswords(t, "wrong")
	h := newHarness(t, "owner@example.com\n")

	err := h.app.Login(context.Background())
	require.Error(t, err)
	assert.False(t, h.app.isLoggedIn())
	assert.Contains(t, h.out.String(), auth.Message(auth.KindInvalidCredential))
	assert.Equal(t, "(not logged in)", h.app.status())
}

func TestAdd_WithAttachmentAndList(t *testing.T) {
	stubPasswords(t, " secret ")
	stubFiles(t, map[string]string{"/tmp/codes.txt": "123"})
	h := newHarness(t, "GitHub\nme\nwork account\n/tmp/codes.txt\n")

	require.NoError(t, h.app.Add(context.Background()))
	assert.Contains(t, h.out.String(), "Record r1 created.")

	recs := h.app.vault.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, " secret ", recs[0].Password)
	require.NotNil(t, recs[0].Attachment)
	assert.Equal(t, "codes.txt", recs[0].Attachment.FileName)

	h.out.Reset()
	require.NoError(t, h.app.List(context.Background()))
	assert.Contains(t, h.out.String(), "GitHub")
	assert.Contains(t, h.out.String(), "codes.txt")
	assert.NotContains(t, h.out.String(), "secret")
}

func TestAdd_ValidationError(t *testing.T) {
	stubPasswords(t, "")
	h := newHarness(t, "GitHub\n\n\n\n")

	err := h.app.Add(context.Background())
	require.ErrorIs(t, err, vault.ErrValidationFailed)
	assert.Empty(t, h.store.records)
}

func TestAdd_MissingFile(t *testing.T) {
	stubPasswords(t, "pw")
	stubFiles(t, nil)
	h := newHarness(t, "GitHub\n\n\n/nope\n")

	err := h.app.Add(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, h.store.records)
}

func TestAdd_SuggestsSimilarPlatforms(t *testing.T) {
	stubPasswords(t, "pw")
	h := newHarness(t, "git\n\n\n\n")
	h.store.records["r0"] = models.Record{ID: "r0", Platform: "GitHub", Password: "x"}
	require.NoError(t, h.app.vault.Refresh(context.Background()))

	require.NoError(t, h.app.Add(context.Background()))
	assert.Contains(t, h.out.String(), "Similar platforms: GitHub")
}

func TestEdit_DefaultsAndClearAttachment(t *testing.T) {
	stubPasswords(t, "")
	ctx := context.Background()
	h := newHarness(t, "\nnew-user\n\n\nn\n")
	h.store.records["r1"] = models.Record{
		ID: "r1", Platform: "GitHub", Username: "old", Password: "pw", Comment: "c",
		Attachment: &models.Attachment{FileName: "a.txt", StoragePath: "p"},
	}
	require.NoError(t, h.app.vault.Refresh(ctx))

	require.NoError(t, h.app.Edit(ctx, "r1"))

	rec := h.store.records["r1"]
	assert.Equal(t, "GitHub", rec.Platform)
	assert.Equal(t, "new-user", rec.Username)
	assert.Equal(t, "pw", rec.Password)
	assert.Equal(t, "c", rec.Comment)
	assert.Nil(t, rec.Attachment)
}

func TestEdit_KeepAttachmentByDefault(t *testing.T) {
	stubPasswords(t, "")
	ctx := context.Background()
	h := newHarness(t, "\n\n\n\n\n")
	h.store.records["r1"] = models.Record{
		ID: "r1", Platform: "GitHub", Password: "pw",
		Attachment: &models.Attachment{FileName: "a.txt", StoragePath: "p"},
	}
	require.NoError(t, h.app.vault.Refresh(ctx))

	require.NoError(t, h.app.Edit(ctx, "r1"))
	assert.NotNil(t, h.store.records["r1"].Attachment)
}

func TestEdit_DashClearsOptionalFields(t *testing.T) {
	stubPasswords(t, "")
	ctx := context.Background()
	h := newHarness(t, "\n-\n-\n\n")
	h.store.records["r1"] = models.Record{ID: "r1", Platform: "GitHub", Username: "old", Password: "pw", Comment: "c"}
	require.NoError(t, h.app.vault.Refresh(ctx))

	require.NoError(t, h.app.Edit(ctx, "r1"))

	rec := h.store.records["r1"]
	assert.Equal(t, "GitHub", rec.Platform)
	assert.Empty(t, rec.Username)
	assert.Empty(t, rec.Comment)
	assert.Equal(t, "pw", rec.Password)
	assert.Contains(t, h.out.String(), "'-' clears")
}

func TestAdd_DashIsLiteralValue(t *testing.T) {
	stubPasswords(t, "pw")
	h := newHarness(t, "GitHub\n-\n\n\n")

	require.NoError(t, h.app.Add(context.Background()))
	assert.Equal(t, "-", h.store.records["r1"].Username)
}

func TestEdit_UnknownID(t *testing.T) {
	h := newHarness(t, "")
	err := h.app.Edit(context.Background(), "missing")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestDelete_ConfirmAndCancel(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t, "n\n")
	h.store.records["r1"] = models.Record{ID: "r1", Platform: "GitHub", Password: "pw"}
	require.NoError(t, h.app.vault.Refresh(ctx))
	require.NoError(t, h.app.Delete(ctx, "r1"))
	assert.Contains(t, h.out.String(), "Cancelled.")
	assert.Len(t, h.store.records, 1)

	h = newHarness(t, "y\n")
	h.store.records["r1"] = models.Record{ID: "r1", Platform: "GitHub", Password: "pw"}
	require.NoError(t, h.app.vault.Refresh(ctx))
	require.NoError(t, h.app.Delete(ctx, "r1"))
	assert.Empty(t, h.store.records)
	assert.Empty(t, h.app.vault.Records())
}

func TestShow_PrintsPassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "")
	h.store.records["r1"] = models.Record{ID: "r1", Platform: "GitHub", Password: "hunter2",
		Attachment: &models.Attachment{FileName: "a.png", MimeType: "image/png", SizeBytes: 3, URL: "http://b/a.png"}}
	require.NoError(t, h.app.vault.Refresh(ctx))

	require.NoError(t, h.app.Show(ctx, "r1"))
	assert.Contains(t, h.out.String(), "hunter2")
	assert.Contains(t, h.out.String(), "a.png (image/png, 3 bytes)")

	assert.ErrorIs(t, h.app.Show(ctx, "nope"), vault.ErrNotFound)
}

func TestSearchAndPlatforms(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "")
	h.store.records["r1"] = models.Record{ID: "r1", Platform: "Zebra", Password: "p"}
	h.store.records["r2"] = models.Record{ID: "r2", Platform: "apple", Password: "p", Comment: "fruit"}
	h.store.records["r3"] = models.Record{ID: "r3", Platform: "Zebra", Password: "p"}
	require.NoError(t, h.app.vault.Refresh(ctx))

	require.NoError(t, h.app.Search(ctx, "FRUIT"))
	assert.Contains(t, h.out.String(), "apple")
	assert.NotContains(t, h.out.String(), "Zebra")

	h.out.Reset()
	require.NoError(t, h.app.Platforms(ctx))
	assert.Equal(t, "Zebra\napple\n", h.out.String())
}

func TestRefresh_ReportsFailure(t *testing.T) {
	h := newHarness(t, "")
	h.store.listErr = errors.New("db down")

	err := h.app.Refresh(context.Background())
	require.ErrorIs(t, err, vault.ErrFetchFailed)
	assert.Contains(t, h.out.String(), "Error:")

	h.out.Reset()
	require.NoError(t, h.app.List(context.Background()))
	assert.Contains(t, h.out.String(), "No records.")
	assert.Contains(t, h.out.String(), "Last error")
}

func TestPrintHash(t *testing.T) {
	stubPasswords(t, "pw", "pw")
	var out bytes.Buffer
	require.NoError(t, PrintHash(&out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "$2a$"))

	stubPasswords(t, "a", "b")
	assert.Error(t, PrintHash(&out))
}

func Test_truncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "a b", truncate("a\nb", 5))
}

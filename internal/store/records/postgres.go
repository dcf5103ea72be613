package records

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/codevault/codevault/internal/common"
	"github.com/codevault/codevault/internal/dbx"
	"github.com/codevault/codevault/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalid_text_representation, raised for a malformed UUID literal.
const pgInvalidTextRepresentation = "22P02"

const selectColumns = `id, platform, username, password, comment,
	file_url, file_path, file_name, file_type, file_size,
	created_at, updated_at`

// PostgresRepository implements Repository over a *sql.DB.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns every record, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM vault_items ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	result := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, classify(err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

// Create inserts a record and returns the id assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, f models.RecordFields) (string, error) {
	query := `
		INSERT INTO vault_items (platform, username, password, comment,
			file_url, file_path, file_name, file_type, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	args := append([]any{f.Platform, f.Username, f.Password, f.Comment}, attachmentArgs(f.Attachment)...)

	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return "", classify(err)
	}
	return id, nil
}

// Update overwrites the text fields of record id and applies the attachment
// action. The row is locked first so the replaced storage path reported back
// belongs to the version being overwritten.
func (r *PostgresRepository) Update(ctx context.Context, id string, p models.RecordPatch) (string, error) {
	var dropped string

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var path sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT file_path FROM vault_items WHERE id = $1 FOR UPDATE`, id).Scan(&path)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if err != nil {
			return err
		}

		query, args := updateStatement(id, p)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected error: %w", err)
		}
		if n == 0 {
			return common.ErrorNotFound
		}

		if p.AttachmentAction != models.AttachmentKeep && path.Valid {
			if p.Attachment == nil || p.Attachment.StoragePath != path.String {
				dropped = path.String
			}
		}
		return nil
	})
	if err != nil {
		return "", classify(err)
	}
	return dropped, nil
}

// Delete removes record id. Deleting an absent record is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (string, error) {
	var path sql.NullString
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM vault_items WHERE id = $1 RETURNING file_path`, id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		err = classify(err)
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil
		}
		return "", err
	}
	return path.String, nil
}

func updateStatement(id string, p models.RecordPatch) (string, []any) {
	args := []any{id, p.Platform, p.Username, p.Password, p.Comment}

	var b strings.Builder
	b.WriteString(`UPDATE vault_items SET platform = $2, username = $3, password = $4, comment = $5`)

	switch p.AttachmentAction {
	case models.AttachmentSet:
		b.WriteString(`, file_url = $6, file_path = $7, file_name = $8, file_type = $9, file_size = $10`)
		args = append(args, attachmentArgs(p.Attachment)...)
	case models.AttachmentClear:
		b.WriteString(`, file_url = NULL, file_path = NULL, file_name = NULL, file_type = NULL, file_size = NULL`)
	}

	b.WriteString(`, updated_at = now() WHERE id = $1`)
	return b.String(), args
}

func attachmentArgs(a *models.Attachment) []any {
	if a == nil {
		return []any{nil, nil, nil, nil, nil}
	}
	return []any{a.URL, a.StoragePath, a.FileName, a.MimeType, a.SizeBytes}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (models.Record, error) {
	var (
		rec                           models.Record
		fileURL, filePath, name, mime sql.NullString
		size                          sql.NullInt64
	)
	err := s.Scan(
		&rec.ID, &rec.Platform, &rec.Username, &rec.Password, &rec.Comment,
		&fileURL, &filePath, &name, &mime, &size,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return models.Record{}, err
	}
	if filePath.Valid {
		rec.Attachment = &models.Attachment{
			URL:         fileURL.String,
			StoragePath: filePath.String,
			FileName:    name.String,
			MimeType:    mime.String,
			SizeBytes:   size.Int64,
		}
	}
	return rec, nil
}

// classify maps driver errors onto the shared sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrStoreUnavailable) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgInvalidTextRepresentation:
			return common.ErrorNotFound
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("db error: %w", err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("db error: %w", err)
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codevault/codevault/internal/config"
	"github.com/codevault/codevault/internal/dbx"
	"github.com/codevault/codevault/internal/logging"
	"github.com/codevault/codevault/internal/store/blobs"
	"github.com/codevault/codevault/internal/store/records"
)

// seams for tests
var (
	openPostgres  = dbx.OpenPostgres
	runMigrations = RunMigrations
	newBlobStore  = func(ctx context.Context, opts blobs.Options) (BlobStore, error) {
		return blobs.NewS3Store(ctx, opts)
	}
)

// Connect opens the database, applies migrations, connects object storage
// and returns the adapter over both. The caller owns the returned *sql.DB.
func Connect(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Adapter, *sql.DB, error) {
	db, err := openPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}

	bs, err := newBlobStore(ctx, blobs.Options{
		AccessKey:    cfg.S3RootUser,
		SecretKey:    cfg.S3RootPassword,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		Bucket:       cfg.S3Bucket,
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("blob storage init error: %w", err)
	}

	return NewAdapter(records.NewPostgresRepository(db), bs, logger), db, nil
}

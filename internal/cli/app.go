package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/codevault/codevault/internal/auth"
	"github.com/codevault/codevault/internal/config"
	"github.com/codevault/codevault/internal/logging"
	"github.com/codevault/codevault/internal/models"
	"github.com/codevault/codevault/internal/store"
	"github.com/codevault/codevault/internal/vault"
)

// Vault is the state manager surface used by the commands.
type Vault interface {
	Refresh(ctx context.Context) error
	Create(ctx context.Context, in vault.Input) (string, error)
	Update(ctx context.Context, id string, in vault.Input, keepExisting bool) error
	Delete(ctx context.Context, id string) error
	Records() []models.Record
	LastError() error
}

// Authenticator signs the owner in.
type Authenticator interface {
	Login(ctx context.Context, identity, secret string) (*auth.Session, error)
}

type App struct {
	vault   Vault
	auth    Authenticator
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	db      *sql.DB
	email   string
	session *auth.Session
}

// NewApp connects to the backend described by c. Logs go to stderr so they
// do not interleave with prompts.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stderr, c.LogLevel)

	adapter, db, err := store.Connect(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	a := newApp(
		vault.NewManager(adapter, logger, vault.WithMaxAttachmentSize(c.MaxAttachmentSize)),
		auth.NewService(c, logger),
		logger,
		bufio.NewReader(os.Stdin),
		os.Stdout,
	)
	a.db = db
	return a, nil
}

func newApp(v Vault, au Authenticator, logger logging.Logger, reader *bufio.Reader, out io.Writer) *App {
	return &App{
		vault:  v,
		auth:   au,
		logger: logger.With("module", "cli"),
		reader: reader,
		out:    out,
	}
}

// Run starts the REPL and releases the database connection when it ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	fmt.Fprintln(a.out, "codevault CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) status() string {
	if !a.isLoggedIn() {
		return "(not logged in)"
	}
	return fmt.Sprintf("(%s, %d records)", a.email, len(a.vault.Records()))
}

// Login asks for the owner email and password and loads the vault.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return a.report(err)
	}

	sess, err := a.auth.Login(ctx, email, password)
	if err != nil {
		var ae *auth.Error
		if errors.As(err, &ae) {
			fmt.Fprintln(a.out, ae.Message())
			return err
		}
		return a.report(err)
	}

	a.session = sess
	a.email = email
	fmt.Fprintf(a.out, "Logged in. Session valid until %s.\n", sess.ExpiresAt.Local().Format("15:04"))

	if err := a.vault.Refresh(ctx); err != nil {
		return a.report(err)
	}
	return nil
}

// report prints err for the user and returns it.
func (a *App) report(err error) error {
	fmt.Fprintf(a.out, "Error: %v\n", err)
	return err
}

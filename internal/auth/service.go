// Package auth authenticates the single vault owner and issues session
// tokens.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/codevault/codevault/internal/common"
	"github.com/codevault/codevault/internal/config"
	"github.com/codevault/codevault/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Service verifies owner credentials. Failed attempts drain a token bucket;
// once it is empty further attempts are refused without checking the
// password.
type Service struct {
	ownerID      string
	ownerEmail   string
	passwordHash []byte
	disabled     bool

	secret   []byte
	validity time.Duration
	limiter  *rate.Limiter
	logger   logging.Logger
}

func NewService(cfg *config.Config, logger logging.Logger) *Service {
	limit := rate.Inf
	if cfg.LoginAttemptsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.LoginAttemptsPerMinute) / 60)
	}
	burst := cfg.LoginBurst
	if burst < 1 {
		burst = 1
	}

	email := normalizeEmail(cfg.OwnerEmail)
	return &Service{
		ownerID:      OwnerID(email),
		ownerEmail:   email,
		passwordHash: []byte(cfg.OwnerPasswordHash),
		disabled:     cfg.OwnerDisabled,
		secret:       []byte(cfg.SecretKey),
		validity:     cfg.SessionValidityDuration,
		limiter:      rate.NewLimiter(limit, burst),
		logger:       logger.With("module", "auth"),
	}
}

// OwnerID derives a stable id for the owner from their email address.
func OwnerID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+normalizeEmail(email))).String()
}

// Login checks identity and secret against the configured owner. Failures
// are *Error values.
func (s *Service) Login(ctx context.Context, identity, secret string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail(KindNetworkRequestFailed, err)
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(identity))
	if err != nil {
		return nil, fail(KindInvalidEmail, err)
	}

	if s.limiter.Tokens() < 1 {
		s.logger.Warn(ctx, "login throttled", "identity", addr.Address)
		return nil, fail(KindTooManyRequests, nil)
	}

	if len(s.passwordHash) == 0 {
		s.logger.Error(ctx, "login attempted but no owner password hash is configured")
		return nil, fail(KindInternalError, errors.New("owner password hash not configured"))
	}

	// Compared whatever the identity.
	cmpErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(secret))
	if cmpErr != nil && !errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
		s.logger.Error(ctx, "owner password hash unusable", "error", cmpErr)
		return nil, fail(KindInternalError, cmpErr)
	}

	if cmpErr != nil || normalizeEmail(addr.Address) != s.ownerEmail {
		s.limiter.Allow()
		s.logger.Info(ctx, "login failed", "identity", addr.Address)
		return nil, fail(KindInvalidCredential, nil)
	}

	if s.disabled {
		return nil, fail(KindUserDisabled, nil)
	}

	token, expires, err := GenerateToken(s.ownerID, s.secret, s.validity)
	if err != nil {
		return nil, fail(KindInternalError, err)
	}

	s.logger.Info(ctx, "owner logged in")
	return &Session{Token: token, ExpiresAt: expires}, nil
}

// Validate returns the owner id carried by a valid session token.
func (s *Service) Validate(token string) (string, error) {
	id, err := GetUserIDFromToken(token, s.secret)
	if err != nil {
		return "", err
	}
	if id != s.ownerID {
		return "", common.ErrInvalidToken
	}
	return id, nil
}

// HashPassword produces the bcrypt hash stored in the owner configuration.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

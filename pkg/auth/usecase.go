package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/accounts/pkg/apperr"
	"github.com/artem13815/accounts/pkg/audit"
	"github.com/artem13815/accounts/pkg/metrics"
)

// DefaultMaxStorageBytes is the credential store budget when none is configured.
const DefaultMaxStorageBytes int64 = 10 << 20

// Public error messages.
const (
	msgMissingFields = "Email and password are required"
	msgInvalidEmail  = "Invalid email format"
	msgEmptyPassword = "Password cannot be empty"
	msgEmailTaken    = "Email already exists"
	msgDatabaseFull  = "Error registering user: Database full."
	msgRegisterError = "Error registering user."
	msgBadLogin      = "Invalid email or password"
	msgLoginError    = "Error logging in."
)

// AuthUseCase describes authentication/registration behavior.
type AuthUseCase interface {
	Register(ctx context.Context, email, password string) (Identity, error)
	Login(ctx context.Context, email, password string) (Session, error)
}

// Config holds the limits the use cases enforce.
type Config struct {
	// MaxStorageBytes is the credential store footprint at which new
	// registrations are refused.
	MaxStorageBytes int64
}

type authService struct {
	repo    UserRepository
	hasher  PasswordHasher
	tokens  TokenGenerator
	events  EventRecorder
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(s *authService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *authService) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *authService) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *authService) {
		s.now = now
	}
}

// NewAuthService returns default implementation of AuthUseCase.
func NewAuthService(repo UserRepository, hasher PasswordHasher, tokens TokenGenerator, events EventRecorder, cfg Config, opts ...Option) AuthUseCase {
	if cfg.MaxStorageBytes <= 0 {
		cfg.MaxStorageBytes = DefaultMaxStorageBytes
	}
	s := &authService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		events: events,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authService) Register(ctx context.Context, email, password string) (Identity, error) {
	user, err := s.register(ctx, email, password)
	s.metrics.ObserveRegistration(outcome(err))
	if err != nil {
		if errors.Is(err, apperr.ErrInternal) {
			s.logger.ErrorContext(ctx, "registration failed", slog.String("email", email), slog.Any("error", err))
		}
		return Identity{}, err
	}
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))
	return user.Identity(), nil
}

func (s *authService) register(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, apperr.New(apperr.ErrInvalidInput, msgMissingFields)
	}
	if !ValidEmail(email) {
		return User{}, apperr.New(apperr.ErrInvalidInput, msgInvalidEmail)
	}
	if strings.TrimSpace(password) == "" {
		return User{}, apperr.New(apperr.ErrInvalidInput, msgEmptyPassword)
	}

	// Best-effort check; Create closes the race with the unique constraint.
	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return User{}, apperr.New(apperr.ErrConflict, msgEmailTaken)
	case !errors.Is(err, ErrNotFound):
		return User{}, apperr.Wrap(apperr.ErrInternal, msgRegisterError, err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, apperr.Wrap(apperr.ErrInternal, msgRegisterError, err)
	}

	used, err := s.repo.CurrentStorageBytes(ctx)
	if err != nil {
		return User{}, apperr.Wrap(apperr.ErrInternal, msgRegisterError, err)
	}
	if used >= s.cfg.MaxStorageBytes {
		return User{}, apperr.New(apperr.ErrCapacity, msgDatabaseFull)
	}

	user := User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return User{}, apperr.New(apperr.ErrConflict, msgEmailTaken)
		}
		return User{}, apperr.Wrap(apperr.ErrInternal, msgRegisterError, err)
	}

	s.record(ctx, user, audit.EventRegistration)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (Session, error) {
	session, err := s.login(ctx, email, password)
	s.metrics.ObserveLogin(outcome(err))
	if err != nil {
		if errors.Is(err, apperr.ErrInternal) {
			s.logger.ErrorContext(ctx, "login failed", slog.String("email", email), slog.Any("error", err))
		}
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", session.User.ID.String()))
	return session, nil
}

func (s *authService) login(ctx context.Context, email, password string) (Session, error) {
	if email == "" || password == "" {
		return Session{}, apperr.New(apperr.ErrInvalidInput, msgMissingFields)
	}
	if !ValidEmail(email) {
		return Session{}, apperr.New(apperr.ErrInvalidInput, msgInvalidEmail)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, apperr.New(apperr.ErrAuthentication, msgBadLogin)
		}
		return Session{}, apperr.Wrap(apperr.ErrInternal, msgLoginError, err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.ErrInternal, msgLoginError, err)
	}
	if !ok {
		return Session{}, apperr.New(apperr.ErrAuthentication, msgBadLogin)
	}

	s.record(ctx, user, audit.EventLogin)

	token, err := s.tokens.Generate(ctx, user)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.ErrInternal, msgLoginError, err)
	}
	return Session{
		AccessToken: token.Value,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
		User:        user.Identity(),
	}, nil
}

// record appends an audit event. A failure is logged and swallowed: the
// account change it describes has already happened.
func (s *authService) record(ctx context.Context, user User, event string) {
	_, err := s.events.Append(ctx, audit.Entry{
		Email:  user.Email,
		UserID: user.ID.String(),
		Event:  event,
	})
	if err != nil {
		s.metrics.ObserveAuditFailure()
		s.logger.ErrorContext(ctx, "audit append failed",
			slog.String("event", event),
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return metrics.OutcomeInvalid
	case errors.Is(err, apperr.ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, apperr.ErrAuthentication):
		return metrics.OutcomeDenied
	case errors.Is(err, apperr.ErrCapacity):
		return metrics.OutcomeCapacity
	default:
		return metrics.OutcomeError
	}
}

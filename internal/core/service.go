package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hunghnUIT/seft-203/internal/database"
	"github.com/hunghnUIT/seft-203/internal/middleware"
	"github.com/hunghnUIT/seft-203/internal/models"
)

// Store is the storage-gateway surface the services depend on.
type Store interface {
	Get(ctx context.Context, pk, sk string, out any) (bool, error)
	Put(ctx context.Context, pk, sk string, item any) error
	Patch(ctx context.Context, pk, sk string, fields map[string]any, out any) error
	Delete(ctx context.Context, pk, sk string) error
	QueryPrefix(ctx context.Context, pk, skPrefix string, out any) error
	QueryIndexPrefix(ctx context.Context, pk, indexPrefix string, out any) error
}

// Mailer is the email transport boundary.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service owns the user lifecycle: registration, email verification,
// credential checks and the single-active-session token scheme.
type Service struct {
	store          Store
	mailer         Mailer
	jwtSecret      []byte
	accessTokenTTL time.Duration
	verifyTokenTTL time.Duration
	logger         *zap.Logger
}

func NewService(store Store, mailer Mailer, jwtSecret string, accessTokenTTL, verifyTokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:          store,
		mailer:         mailer,
		jwtSecret:      []byte(jwtSecret),
		accessTokenTTL: accessTokenTTL,
		verifyTokenTTL: verifyTokenTTL,
		logger:         logger,
	}
}

// Register creates an unverified user and emails a verification token.
// A verified user under the same email is a conflict; an unverified one
// is overwritten so the flow can be retried. A mail transport failure
// fails the whole registration.
func (s *Service) Register(ctx context.Context, email, name, password string) error {
	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.IsVerified {
		return ErrConflict
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:      email,
		Name:       name,
		Password:   string(hashed),
		IsVerified: false,
	}
	if err := s.store.Put(ctx, database.UserPartition, database.UserKey(email), user); err != nil {
		return err
	}

	token, err := middleware.CreateToken(models.Claims{Email: email}, s.jwtSecret, s.verifyTokenTTL)
	if err != nil {
		return fmt.Errorf("sign verification token: %w", err)
	}

	body := fmt.Sprintf("Hi %s,\n\nUse the token below to verify your email address. It expires in %s.\n\n%s\n", name, s.verifyTokenTTL, token)
	if err := s.mailer.Send(ctx, email, "Verify your email", body); err != nil {
		return fmt.Errorf("%w: %s", ErrTransport, err)
	}

	s.logger.Info("registration pending verification", zap.String("email", email))
	return nil
}

// VerifyEmail validates a verification token and flips the user to
// verified. Re-verifying an already verified user is harmless.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := middleware.VerifyToken(token, s.jwtSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no user for verification token", ErrNotFound)
	}

	user.IsVerified = true
	if err := s.store.Put(ctx, database.UserPartition, database.UserKey(user.Email), user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues an access token bound to a fresh
// session id. Storing the new id supersedes every token issued before
// this call; that is the single-active-session contract.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", ErrNotVerified
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, err := middleware.CreateToken(models.Claims{Email: email, SessionID: sessionID}, s.jwtSecret, s.accessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	user.SessionID = sessionID
	if err := s.store.Put(ctx, database.UserPartition, database.UserKey(email), user); err != nil {
		return "", err
	}

	s.logger.Info("login", zap.String("email", email))
	return token, nil
}

// Logout clears the active session id so no outstanding token passes
// the authorizer's session check.
func (s *Service) Logout(ctx context.Context, email string) error {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user", ErrNotFound)
	}

	user.SessionID = ""
	return s.store.Put(ctx, database.UserPartition, database.UserKey(email), user)
}

// GetUserByEmail returns nil without error when no such user exists.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found, err := s.store.Get(ctx, database.UserPartition, database.UserKey(email), &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &user, nil
}

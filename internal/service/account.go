package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/dishdash-server/internal/apperror"
	"github.com/sakif/dishdash-server/internal/auth"
	"github.com/sakif/dishdash-server/internal/model"
	"github.com/sakif/dishdash-server/internal/repository"
)

// AccountService handles the users and gallery collections plus the
// credential flows layered on users.
//
// The plain collection operations keep the verbatim contract: whatever
// document the client sends is inserted as-is, duplicates and all. Only the
// register/login/OAuth paths interpret user fields.
type AccountService struct {
	users     repository.UserRepository
	gallery   repository.DocumentRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(users repository.UserRepository, gallery repository.DocumentRepository, passwords *auth.PasswordService, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:     users,
		gallery:   gallery,
		passwords: passwords,
		logger:    logger,
	}
}

// ListUsers returns every user document unmodified.
func (s *AccountService) ListUsers(ctx context.Context) ([]model.Document, error) {
	docs, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return docs, nil
}

// CreateUser inserts a user document verbatim and returns the generated id.
func (s *AccountService) CreateUser(ctx context.Context, doc model.Document) (string, error) {
	id, err := s.users.Insert(ctx, doc)
	if err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return "", fmt.Errorf("creating user: %w", err)
	}
	return id, nil
}

// ListGallery returns every gallery document unmodified.
func (s *AccountService) ListGallery(ctx context.Context) ([]model.Document, error) {
	docs, err := s.gallery.List(ctx)
	if err != nil {
		s.logger.Error("failed to list gallery", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing gallery: %w", err)
	}
	return docs, nil
}

// CreateGalleryItem inserts a gallery document verbatim and returns the
// generated id.
func (s *AccountService) CreateGalleryItem(ctx context.Context, doc model.Document) (string, error) {
	id, err := s.gallery.Insert(ctx, doc)
	if err != nil {
		s.logger.Error("failed to create gallery item", slog.String("error", err.Error()))
		return "", fmt.Errorf("creating gallery item: %w", err)
	}
	return id, nil
}

// Register stores a credential-based account: the password is bcrypt-hashed
// and the user document written with the same field names the schemaless
// collection already holds.
func (s *AccountService) Register(ctx context.Context, name, email, password string) error {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("registering user: %w", err)
	}

	doc := model.Document{
		"name":      name,
		"email":     email,
		"password":  hash,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.users.Insert(ctx, doc); err != nil {
		s.logger.Error("failed to register user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered", slog.String("email", email))
	return nil
}

// Login verifies an email/password pair against the stored hash. A missing
// user, a passwordless account (OAuth or verbatim signup), and a wrong
// password all fail the same way, so a caller cannot probe which emails
// exist.
func (s *AccountService) Login(ctx context.Context, email, password string) error {
	invalid := apperror.Unauthorized("invalid email or password")

	doc, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return invalid
		}
		s.logger.Error("login lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("logging in: %w", err)
	}

	hash, ok := doc["password"].(string)
	if !ok || hash == "" {
		return invalid
	}
	if err := s.passwords.Verify(hash, password); err != nil {
		return invalid
	}
	return nil
}

// OAuthLogin upserts the account for a verified Google profile, keyed by
// email so repeat logins reuse the same document.
func (s *AccountService) OAuthLogin(ctx context.Context, user *auth.GoogleUser) error {
	doc := model.Document{
		"name":     user.Name,
		"email":    user.Email,
		"photoURL": user.Picture,
		"googleId": user.ID,
	}
	if err := s.users.UpsertByEmail(ctx, user.Email, doc); err != nil {
		s.logger.Error("oauth upsert failed",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("oauth login: %w", err)
	}

	s.logger.Info("user authenticated via google", slog.String("email", user.Email))
	return nil
}

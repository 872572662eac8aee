// Package account manages identity records outside of the session lifecycle:
// registration, password change, profile updates and public channel lookups.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/access"
	"github.com/iudanet/vidtube/internal/server/apperr"
	"github.com/iudanet/vidtube/internal/server/storage"
	"github.com/iudanet/vidtube/internal/validation"
)

// Hasher hashes new passwords and verifies existing ones.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// RegisterInput holds the fields of a new identity.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	FullName string
	Email    string
}

// Channel is the public view of an identity for a given viewer.
type Channel struct {
	User    *models.PublicUser
	IsOwner bool
}

// Service implements account operations.
type Service struct {
	logger *slog.Logger
	store  storage.UserStorage
	hasher Hasher
	now    func() time.Time
}

// New creates an account service.
func New(logger *slog.Logger, store storage.UserStorage, hasher Hasher) *Service {
	return &Service{
		logger: logger,
		store:  store,
		hasher: hasher,
		now:    time.Now,
	}
}

// Register validates the input, hashes the password once and stores the identity.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	username := validation.NormalizeIdentifier(in.Username)
	email := validation.NormalizeIdentifier(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return nil, apperr.New(apperr.KindBadRequest, "all fields are required")
	}
	if err := validateAll(
		validation.ValidateUsername(username),
		validation.ValidateEmail(email),
		validation.ValidateFullName(fullName),
		validation.ValidatePassword(in.Password),
	); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			s.logger.WarnContext(ctx, "user already exists", slog.String("username", username))
			return nil, apperr.New(apperr.KindConflict, "user with email or username already exists")
		}
		return nil, apperr.Internal("failed to create user", err)
	}

	s.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", username),
		slog.String("user_id", user.ID))

	return user.Public(), nil
}

// ChangePassword replaces the password after verifying the current one.
// The session of the identity is left untouched.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.New(apperr.KindBadRequest, "old and new password are required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, err.Error(), err)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.ErrUnauthorized
		}
		return apperr.Internal("failed to load user", err)
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return apperr.New(apperr.KindInvalidCredentials, "invalid old password")
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}

	if err := s.store.UpdatePassword(ctx, userID, digest); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.ErrUnauthorized
		}
		return apperr.Internal("failed to update password", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))
	return nil
}

// UpdateProfile changes the name and email of targetID on behalf of caller.
// Only the identity itself may do so.
func (s *Service) UpdateProfile(ctx context.Context, caller *models.PublicUser, targetID string, in ProfileUpdate) (*models.PublicUser, error) {
	if err := access.RequireOwner(caller, targetID); err != nil {
		return nil, err
	}

	email := validation.NormalizeIdentifier(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || fullName == "" {
		return nil, apperr.New(apperr.KindBadRequest, "all fields are required")
	}
	if err := validateAll(validation.ValidateEmail(email), validation.ValidateFullName(fullName)); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProfile(ctx, targetID, fullName, email); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			return nil, apperr.New(apperr.KindConflict, "email is already in use")
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, apperr.New(apperr.KindNotFound, "user does not exist")
		default:
			return nil, apperr.Internal("failed to update profile", err)
		}
	}

	user, err := s.store.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, apperr.Internal("failed to reload user", err)
	}

	s.logger.InfoContext(ctx, "account details updated", slog.String("user_id", targetID))
	return user.Public(), nil
}

// Channel returns the public profile of username. viewer may be nil.
func (s *Service) Channel(ctx context.Context, username string, viewer *models.PublicUser) (*Channel, error) {
	username = validation.NormalizeIdentifier(username)
	if username == "" {
		return nil, apperr.New(apperr.KindBadRequest, "username is missing")
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "channel does not exist")
		}
		return nil, apperr.Internal("failed to load channel", err)
	}

	return &Channel{
		User:    user.Public(),
		IsOwner: access.CanMutate(viewer, user.ID),
	}, nil
}

func validateAll(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return apperr.Wrap(apperr.KindBadRequest, err.Error(), err)
		}
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/AnshRaj112/multilink-backend/internal/apperrors"
	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/internal/repository"
	"github.com/AnshRaj112/multilink-backend/pkg/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=30,username"`
	Email    *string `json:"email" validate:"omitnil,email"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
}

// UserService manages the caller's own account.
type UserService struct {
	users    UserStore
	validate *validator.Validate
	log      *zap.Logger
}

func NewUserService(users UserStore, v *validator.Validate, log *zap.Logger) *UserService {
	return &UserService{users: users, validate: v, log: log}
}

// Me returns the caller's record.
func (s *UserService) Me(ctx context.Context, id auth.Identity) (*models.User, error) {
	return s.load(ctx, id)
}

// UpdateProfile renames the caller or changes their email, rejecting values
// held by another user.
func (s *UserService) UpdateProfile(ctx context.Context, id auth.Identity, in ProfileUpdate) (*models.User, error) {
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		in.Username = &v
	}
	if in.Email != nil {
		v := normalizeEmail(*in.Email)
		in.Email = &v
	}
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var username, email *string
	if in.Username != nil && *in.Username != user.Username {
		taken, err := s.users.ExistsOther(ctx, "username", *in.Username, user.ID)
		if err != nil {
			return nil, apperrors.Wrap(err, "check username")
		}
		if taken {
			return nil, apperrors.NewConflict("Username already taken")
		}
		username = in.Username
	}
	if in.Email != nil && *in.Email != user.Email {
		taken, err := s.users.ExistsOther(ctx, "email", *in.Email, user.ID)
		if err != nil {
			return nil, apperrors.Wrap(err, "check email")
		}
		if taken {
			return nil, apperrors.NewConflict("Email already taken")
		}
		email = in.Email
	}
	if username == nil && email == nil {
		return user, nil
	}

	user, err = s.users.UpdateProfile(ctx, user.ID, username, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, apperrors.NewConflict("Username or email already taken")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, apperrors.Wrap(err, "update user")
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id auth.Identity, in PasswordChange) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return apperrors.NewValidation("Current password and new password are required")
	}
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	ok, err := utils.VerifyPassword(in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return apperrors.Wrap(err, "verify password")
	}
	if !ok {
		return apperrors.New(apperrors.InvalidCredentials, "Current password is incorrect")
	}

	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return apperrors.Wrap(err, "hash password")
	}
	// A concurrent change that landed first invalidates the password checked above.
	if err := s.users.SetPassword(ctx, user.ID, user.PasswordHash, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.New(apperrors.InvalidCredentials, "Current password is incorrect")
		}
		return apperrors.Wrap(err, "update password")
	}

	s.log.Info("password changed", zap.String("user_id", user.ID.Hex()))
	return nil
}

func (s *UserService) load(ctx context.Context, id auth.Identity) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, apperrors.Wrap(err, "find user")
	}
	return user, nil
}

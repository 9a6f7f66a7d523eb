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

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput carries credentials and, for MFA-enabled accounts, the current
// TOTP code in Token.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Token    string `json:"token"`
}

// AuthResult is returned by every operation that authenticates a user.
type AuthResult struct {
	User   models.UserSummary
	Tokens TokenPair
}

// AuthService drives the register/login/MFA flow. A login moves from
// credentials checked to either authenticated or MFA required; tokens are only
// issued on the authenticated branch.
type AuthService struct {
	users    UserStore
	tokens   *TokenIssuer
	totp     *TOTP
	cipher   *utils.Cipher
	validate *validator.Validate
	log      *zap.Logger
}

func NewAuthService(users UserStore, tokens *TokenIssuer, totp *TOTP, cipher *utils.Cipher, v *validator.Validate, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		totp:     totp,
		cipher:   cipher,
		validate: v,
		log:      log,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return AuthResult{}, err
	}

	_, err := s.users.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil:
		return AuthResult{}, apperrors.NewConflict("User already exists")
	case !errors.Is(err, repository.ErrNotFound):
		return AuthResult{}, apperrors.Wrap(err, "find user")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, apperrors.Wrap(err, "hash password")
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return AuthResult{}, apperrors.NewConflict("User already exists")
		}
		return AuthResult{}, apperrors.Wrap(err, "create user")
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return s.authenticated(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Token = strings.TrimSpace(in.Token)
	if err := validateStruct(s.validate, in); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, apperrors.NewInvalidCredentials()
		}
		return AuthResult{}, apperrors.Wrap(err, "find user")
	}

	ok, err := utils.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		return AuthResult{}, apperrors.Wrap(err, "verify password")
	}
	if !ok {
		return AuthResult{}, apperrors.NewInvalidCredentials()
	}

	if user.MfaEnabled {
		if in.Token == "" {
			return AuthResult{}, apperrors.NewMfaRequired()
		}
		if err := s.checkCode(user, in.Token); err != nil {
			return AuthResult{}, err
		}
		s.reseal(ctx, user)
	}

	return s.authenticated(user)
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// stays valid until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if refreshToken == "" {
		return AuthResult{}, apperrors.NewInvalidToken("Refresh token required")
	}

	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return AuthResult{}, apperrors.NewExpiredToken()
		}
		return AuthResult{}, apperrors.NewInvalidToken("Invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, apperrors.NewInvalidToken("Invalid refresh token")
		}
		return AuthResult{}, apperrors.Wrap(err, "find user")
	}

	return s.authenticated(user)
}

// EnrollMfa stores a new pending secret on the caller's record. Login is not
// gated until ConfirmMfa succeeds. A second enrollment replaces the pending
// secret.
func (s *AuthService) EnrollMfa(ctx context.Context, id auth.Identity) (TOTPSecret, error) {
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TOTPSecret{}, apperrors.NewNotFound("User not found")
		}
		return TOTPSecret{}, apperrors.Wrap(err, "find user")
	}
	if user.MfaEnabled {
		return TOTPSecret{}, apperrors.NewConflict("MFA already enabled")
	}

	secret, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		return TOTPSecret{}, apperrors.Wrap(err, "generate mfa secret")
	}
	sealed, err := s.cipher.Seal(secret.Secret)
	if err != nil {
		return TOTPSecret{}, apperrors.Wrap(err, "seal mfa secret")
	}

	if err := s.users.SetMfaSecret(ctx, user.ID, sealed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TOTPSecret{}, apperrors.NewConflict("MFA already enabled")
		}
		return TOTPSecret{}, apperrors.Wrap(err, "save mfa secret")
	}
	return secret, nil
}

// ConfirmMfa enables MFA once code matches the pending secret. A bad code
// leaves the pending secret in place, and so does a confirmation that raced a
// re-enrollment: the code was checked against a secret no longer stored.
func (s *AuthService) ConfirmMfa(ctx context.Context, id auth.Identity, code string) error {
	user, err := s.mfaUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkCode(user, code); err != nil {
		return err
	}

	if err := s.users.EnableMfa(ctx, user.ID, user.MfaSecret); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewInvalidMfaCode()
		}
		return apperrors.Wrap(err, "enable mfa")
	}
	s.log.Info("mfa enabled", zap.String("user_id", user.ID.Hex()))
	return nil
}

// DisableMfa requires a valid current code, then clears the secret.
func (s *AuthService) DisableMfa(ctx context.Context, id auth.Identity, code string) error {
	user, err := s.mfaUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkCode(user, code); err != nil {
		return err
	}

	if err := s.users.DisableMfa(ctx, user.ID, user.MfaSecret); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewInvalidMfaCode()
		}
		return apperrors.Wrap(err, "disable mfa")
	}
	s.log.Info("mfa disabled", zap.String("user_id", user.ID.Hex()))
	return nil
}

func (s *AuthService) mfaUser(ctx context.Context, id auth.Identity) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewMfaNotSetUp()
		}
		return nil, apperrors.Wrap(err, "find user")
	}
	if user.MfaSecret == "" {
		return nil, apperrors.NewMfaNotSetUp()
	}
	return user, nil
}

func (s *AuthService) checkCode(user *models.User, code string) error {
	secret, err := s.cipher.Open(user.MfaSecret)
	if err != nil {
		return apperrors.Wrap(err, "open mfa secret")
	}
	if !s.totp.Verify(secret, strings.TrimSpace(code)) {
		return apperrors.NewInvalidMfaCode()
	}
	return nil
}

// reseal encrypts a secret stored before an encryption key was configured.
// The login has already succeeded, so failures are only logged.
func (s *AuthService) reseal(ctx context.Context, user *models.User) {
	if s.cipher == nil || utils.IsSealed(user.MfaSecret) {
		return
	}
	sealed, err := s.cipher.Seal(user.MfaSecret)
	if err == nil {
		err = s.users.ReplaceMfaSecret(ctx, user.ID, user.MfaSecret, sealed)
	}
	if err != nil {
		s.log.Warn("reseal mfa secret", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return
	}
	user.MfaSecret = sealed
}

func (s *AuthService) authenticated(user *models.User) (AuthResult, error) {
	pair, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return AuthResult{}, apperrors.Wrap(err, "issue tokens")
	}
	return AuthResult{User: user.Summary(), Tokens: pair}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

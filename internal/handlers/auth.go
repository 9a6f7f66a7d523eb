package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/internal/services"
	"go.uber.org/zap"
)

// AuthAPI is implemented by services.AuthService.
type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (services.AuthResult, error)
	EnrollMfa(ctx context.Context, id auth.Identity) (services.TOTPSecret, error)
	ConfirmMfa(ctx context.Context, id auth.Identity, code string) error
	DisableMfa(ctx context.Context, id auth.Identity, code string) error
}

// Auth Response
type AuthResponse struct {
	Success      bool               `json:"success"`
	Token        string             `json:"token"`
	RefreshToken string             `json:"refreshToken"`
	User         models.UserSummary `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// MfaCodeRequest carries a TOTP code in "token", matching the login body.
type MfaCodeRequest struct {
	Token string `json:"token"`
}

type MfaSetupResponse struct {
	Success   bool   `json:"success"`
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qrCodeUrl"`
}

type AuthHandler struct {
	svc AuthAPI
	log *zap.Logger
}

func NewAuthHandler(svc AuthAPI, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func authResponse(res services.AuthResult) AuthResponse {
	return AuthResponse{
		Success:      true,
		Token:        res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		User:         res.User,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse(res))
}

// Login handles POST /api/auth/login. MFA-enabled accounts must send the
// current code as "token"; without it the response is 400 "MFA token required".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse(res))
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse(res))
}

// SetupMfa handles POST /api/auth/setup-mfa
func (h *AuthHandler) SetupMfa(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	secret, err := h.svc.EnrollMfa(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MfaSetupResponse{
		Success:   true,
		Secret:    secret.Secret,
		QRCodeURL: secret.ProvisioningURI,
	})
}

// VerifyMfa handles POST /api/auth/verify-mfa
func (h *AuthHandler) VerifyMfa(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req MfaCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ConfirmMfa(r.Context(), id, req.Token); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "MFA enabled successfully"})
}

// DisableMfa handles POST /api/auth/disable-mfa
func (h *AuthHandler) DisableMfa(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req MfaCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.DisableMfa(r.Context(), id, req.Token); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "MFA disabled successfully"})
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AnshRaj112/multilink-backend/internal/apperrors"
	"github.com/AnshRaj112/multilink-backend/internal/auth"
	"github.com/AnshRaj112/multilink-backend/internal/models"
	"github.com/AnshRaj112/multilink-backend/internal/services"
)

const callerHex = "64b7f0c2a1b2c3d4e5f60718"

type stubAuth struct {
	login   func(services.LoginInput) (services.AuthResult, error)
	refresh func(string) (services.AuthResult, error)
	enroll  func(auth.Identity) (services.TOTPSecret, error)
	confirm func(auth.Identity, string) error
}

func (s *stubAuth) Register(_ context.Context, in services.RegisterInput) (services.AuthResult, error) {
	return services.AuthResult{
		User:   models.UserSummary{ID: callerHex, Username: in.Username, Email: in.Email},
		Tokens: services.TokenPair{AccessToken: "access", RefreshToken: "refresh"},
	}, nil
}

func (s *stubAuth) Login(_ context.Context, in services.LoginInput) (services.AuthResult, error) {
	return s.login(in)
}

func (s *stubAuth) Refresh(_ context.Context, token string) (services.AuthResult, error) {
	return s.refresh(token)
}

func (s *stubAuth) EnrollMfa(_ context.Context, id auth.Identity) (services.TOTPSecret, error) {
	return s.enroll(id)
}

func (s *stubAuth) ConfirmMfa(_ context.Context, id auth.Identity, code string) error {
	return s.confirm(id, code)
}

func (s *stubAuth) DisableMfa(_ context.Context, id auth.Identity, code string) error {
	return s.confirm(id, code)
}

type stubLinks struct {
	links     []models.Link
	err       error
	gotID     string
	gotUpdate services.LinkUpdate
	reordered int
}

func (s *stubLinks) List(context.Context, auth.Identity) ([]models.Link, error) {
	return s.links, s.err
}

func (s *stubLinks) Public(_ context.Context, username string) ([]models.Link, error) {
	s.gotID = username
	return s.links, s.err
}

func (s *stubLinks) Create(_ context.Context, _ auth.Identity, in services.LinkInput) (*models.Link, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Link{Title: in.Title, URL: in.URL, IsActive: true}, nil
}

func (s *stubLinks) Update(_ context.Context, _ auth.Identity, linkID string, in services.LinkUpdate) (*models.Link, error) {
	s.gotID, s.gotUpdate = linkID, in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Link{Title: *in.Title}, nil
}

func (s *stubLinks) Delete(_ context.Context, _ auth.Identity, linkID string) error {
	s.gotID = linkID
	return s.err
}

func (s *stubLinks) Reorder(_ context.Context, _ auth.Identity, in services.ReorderInput) (int, error) {
	return s.reordered, s.err
}

type stubUploader struct {
	folder string
	err    error
}

func (s *stubUploader) UploadFileFromHeader(_ context.Context, _ *multipart.FileHeader, folder string) (string, error) {
	s.folder = folder
	if s.err != nil {
		return "", s.err
	}
	return "https://res.cloudinary.com/demo/image/upload/x.png", nil
}

func do(h http.HandlerFunc, method, target, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: callerHex}))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// withParam routes a request through chi so URL params resolve.
func withParam(h http.HandlerFunc, method, pattern, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: callerHex})))
		})
	})
	r.Method(method, pattern, h)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthHandler_Register(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())

	rec := do(h.Register, http.MethodPost, "/api/auth/register", `{"username":"alice","email":"a@example.com","password":"secret1"}`, false)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode[AuthResponse](t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "access", body.Token)
	assert.Equal(t, "refresh", body.RefreshToken)
	assert.Equal(t, "alice", body.User.Username)
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		code    string
	}{
		{"mfa required", apperrors.NewMfaRequired(), http.StatusBadRequest, "MFA token required", "mfa_required"},
		{"bad code", apperrors.NewInvalidMfaCode(), http.StatusBadRequest, "Invalid MFA token", "invalid_mfa_code"},
		{"bad password", apperrors.NewInvalidCredentials(), http.StatusBadRequest, "Invalid credentials", "invalid_credentials"},
		{"validation", apperrors.NewValidation("email is required"), http.StatusBadRequest, "Validation error", "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&stubAuth{login: func(services.LoginInput) (services.AuthResult, error) {
				return services.AuthResult{}, tt.err
			}}, zap.NewNop())

			rec := do(h.Login, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"x"}`, false)

			assert.Equal(t, tt.status, rec.Code)
			body := decode[ErrorResponse](t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestAuthHandler_LoginPassesToken(t *testing.T) {
	var got services.LoginInput
	h := NewAuthHandler(&stubAuth{login: func(in services.LoginInput) (services.AuthResult, error) {
		got = in
		return services.AuthResult{Tokens: services.TokenPair{AccessToken: "a", RefreshToken: "r"}}, nil
	}}, zap.NewNop())

	rec := do(h.Login, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"pw","token":"123456"}`, false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123456", got.Token)
	assert.Equal(t, "pw", got.Password)
}

func TestAuthHandler_ValidationLists(t *testing.T) {
	h := NewAuthHandler(&stubAuth{login: func(services.LoginInput) (services.AuthResult, error) {
		return services.AuthResult{}, apperrors.NewValidation("email is required", "password is required")
	}}, zap.NewNop())

	rec := do(h.Login, http.MethodPost, "/api/auth/login", `{}`, false)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, []string{"email is required", "password is required"}, body.Errors)
}

func TestAuthHandler_InternalErrorIsHidden(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewAuthHandler(&stubAuth{refresh: func(string) (services.AuthResult, error) {
		return services.AuthResult{}, apperrors.Wrap(errors.New("connection reset"), "find user")
	}}, zap.New(core))

	rec := do(h.Refresh, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"x"}`, false)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Server Error", body.Message)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "connection reset")
}

func TestAuthHandler_RefreshExpired(t *testing.T) {
	h := NewAuthHandler(&stubAuth{refresh: func(string) (services.AuthResult, error) {
		return services.AuthResult{}, apperrors.NewExpiredToken()
	}}, zap.NewNop())

	rec := do(h.Refresh, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"x"}`, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token expired", decode[ErrorResponse](t, rec).Message)
}

func TestAuthHandler_BadBody(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())

	rec := do(h.Register, http.MethodPost, "/api/auth/register", `{"username":`, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, rec).Message)
}

func TestAuthHandler_MfaFlow(t *testing.T) {
	var gotCode string
	h := NewAuthHandler(&stubAuth{
		enroll: func(id auth.Identity) (services.TOTPSecret, error) {
			assert.Equal(t, callerHex, id.UserID)
			return services.TOTPSecret{Secret: "JBSWY3DPEHPK3PXP", ProvisioningURI: "otpauth://totp/x"}, nil
		},
		confirm: func(_ auth.Identity, code string) error {
			gotCode = code
			return nil
		},
	}, zap.NewNop())

	rec := do(h.SetupMfa, http.MethodPost, "/api/auth/setup-mfa", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	setup := decode[MfaSetupResponse](t, rec)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", setup.Secret)
	assert.Equal(t, "otpauth://totp/x", setup.QRCodeURL)

	rec = do(h.VerifyMfa, http.MethodPost, "/api/auth/verify-mfa", `{"token":"654321"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MFA enabled successfully", decode[MessageResponse](t, rec).Message)
	assert.Equal(t, "654321", gotCode)

	rec = do(h.DisableMfa, http.MethodPost, "/api/auth/disable-mfa", `{"token":"111111"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MFA disabled successfully", decode[MessageResponse](t, rec).Message)
}

func TestAuthHandler_SetupRequiresIdentity(t *testing.T) {
	h := NewAuthHandler(&stubAuth{}, zap.NewNop())

	rec := do(h.SetupMfa, http.MethodPost, "/api/auth/setup-mfa", "", false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token, authorization denied", decode[ErrorResponse](t, rec).Message)
}

func TestAuthHandler_MfaNotSetUp(t *testing.T) {
	h := NewAuthHandler(&stubAuth{confirm: func(auth.Identity, string) error {
		return apperrors.NewMfaNotSetUp()
	}}, zap.NewNop())

	rec := do(h.VerifyMfa, http.MethodPost, "/api/auth/verify-mfa", `{"token":"1"}`, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MFA not set up", decode[ErrorResponse](t, rec).Message)
}

func TestLinkHandler_List(t *testing.T) {
	svc := &stubLinks{links: []models.Link{{Title: "a"}, {Title: "b"}}}
	h := NewLinkHandler(svc, zap.NewNop())

	rec := do(h.List, http.MethodGet, "/api/links", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Success bool          `json:"success"`
		Count   int           `json:"count"`
		Data    []models.Link `json:"data"`
	}](t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Count)
	assert.Len(t, body.Data, 2)
}

func TestLinkHandler_PublicUsesUsername(t *testing.T) {
	svc := &stubLinks{}
	h := NewLinkHandler(svc, zap.NewNop())

	rec := withParam(h.Public, http.MethodGet, "/public/{username}", "/public/alice", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.gotID)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestLinkHandler_PublicUnknownUser(t *testing.T) {
	svc := &stubLinks{err: apperrors.NewNotFound("User not found")}
	h := NewLinkHandler(svc, zap.NewNop())

	rec := withParam(h.Public, http.MethodGet, "/public/{username}", "/public/ghost", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode[ErrorResponse](t, rec).Message)
}

func TestLinkHandler_Create(t *testing.T) {
	h := NewLinkHandler(&stubLinks{}, zap.NewNop())

	rec := do(h.Create, http.MethodPost, "/api/links", `{"title":"Blog","url":"https://example.com"}`, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Blog"`)
}

func TestLinkHandler_UpdatePartial(t *testing.T) {
	svc := &stubLinks{}
	h := NewLinkHandler(svc, zap.NewNop())

	rec := withParam(h.Update, http.MethodPut, "/{id}", "/abc", `{"title":"New"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", svc.gotID)
	require.NotNil(t, svc.gotUpdate.Title)
	assert.Equal(t, "New", *svc.gotUpdate.Title)
	assert.Nil(t, svc.gotUpdate.URL)
	assert.Nil(t, svc.gotUpdate.IsActive)
}

func TestLinkHandler_DeleteForbidden(t *testing.T) {
	svc := &stubLinks{err: apperrors.NewForbidden()}
	h := NewLinkHandler(svc, zap.NewNop())

	rec := withParam(h.Delete, http.MethodDelete, "/{id}", "/abc", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized", decode[ErrorResponse](t, rec).Message)
}

func TestLinkHandler_Reorder(t *testing.T) {
	h := NewLinkHandler(&stubLinks{reordered: 2}, zap.NewNop())

	rec := do(h.Reorder, http.MethodPut, "/api/links/reorder", `{"links":[{"id":"a","order":1},{"id":"b","order":0}]}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[ReorderResponse](t, rec)
	assert.Equal(t, "Links reordered successfully", body.Message)
	assert.Equal(t, 2, body.Updated)
}

func multipartBody(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="icon.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(h *UploadHandler, body *bytes.Buffer, contentType, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: callerHex}))
	rec := httptest.NewRecorder()
	h.UploadFile(rec, req)
	return rec
}

func TestUploadHandler(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		h := NewUploadHandler(nil, zap.NewNop())
		body, ct := multipartBody(t, "image/png", []byte("png"))

		rec := upload(h, body, ct, "/api/upload")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("image into folder", func(t *testing.T) {
		up := &stubUploader{}
		h := NewUploadHandler(up, zap.NewNop())
		body, ct := multipartBody(t, "image/png", []byte("png"))

		rec := upload(h, body, ct, "/api/upload?folder=icons")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "multilink/icons", up.folder)
		assert.Contains(t, decode[UploadResponse](t, rec).URL, "res.cloudinary.com")
	})

	t.Run("unknown folder uses default", func(t *testing.T) {
		up := &stubUploader{}
		h := NewUploadHandler(up, zap.NewNop())
		body, ct := multipartBody(t, "image/jpeg", []byte("jpg"))

		rec := upload(h, body, ct, "/api/upload?folder=../etc")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, up.folder)
	})

	t.Run("non image", func(t *testing.T) {
		h := NewUploadHandler(&stubUploader{}, zap.NewNop())
		body, ct := multipartBody(t, "application/pdf", []byte("%PDF"))

		rec := upload(h, body, ct, "/api/upload")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		h := NewUploadHandler(&stubUploader{err: errors.New("cloudinary down")}, zap.NewNop())
		body, ct := multipartBody(t, "image/png", []byte("png"))

		rec := upload(h, body, ct, "/api/upload")

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHealthAndNotFound(t *testing.T) {
	started := time.Now().Add(-time.Minute)

	rec := do(Health(started), http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[HealthResponse](t, rec)
	assert.Equal(t, "OK", body.Status)
	assert.GreaterOrEqual(t, body.Uptime, 60.0)

	rec = do(NotFound, http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode[ErrorResponse](t, rec).Message)
}

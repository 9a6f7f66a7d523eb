package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/AnshRaj112/multilink-backend/internal/services"
	"go.uber.org/zap"
)

// MaxUploadSize bounds a single uploaded image.
const MaxUploadSize = 5 << 20

// Uploader is implemented by services.CloudinaryService.
type Uploader interface {
	UploadFileFromHeader(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error)
}

var uploadFolders = map[string]string{
	"icons":    services.DefaultUploadFolder + "/icons",
	"products": services.DefaultUploadFolder + "/products",
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

type UploadHandler struct {
	uploader Uploader
	log      *zap.Logger
}

// NewUploadHandler accepts a nil uploader; uploads then answer 503.
func NewUploadHandler(uploader Uploader, log *zap.Logger) *UploadHandler {
	return &UploadHandler{uploader: uploader, log: log}
}

// UploadFile handles POST /api/upload for link icons and product images.
func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if h.uploader == nil {
		writeMessage(w, http.StatusServiceUnavailable, "File uploads are not available")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	file.Close()

	if fileHeader.Size > MaxUploadSize {
		writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	if !strings.HasPrefix(fileHeader.Header.Get("Content-Type"), "image/") {
		writeMessage(w, http.StatusBadRequest, "Only image uploads are allowed")
		return
	}

	folder := uploadFolders[r.URL.Query().Get("folder")]

	url, err := h.uploader.UploadFileFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		h.log.Error("upload failed", zap.String("user_id", id.UserID), zap.Error(err))
		writeMessage(w, http.StatusBadGateway, "Failed to upload file")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Message: "File uploaded successfully",
		URL:     url,
	})
}

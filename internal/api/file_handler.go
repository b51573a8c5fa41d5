package api

import (
	"alcyxob/anyshare/internal/service"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	files     service.FileService
	qr        *service.QRService
	publicURL string
	logger    *slog.Logger
}

// NewFileHandler wires the share endpoints. publicURL is the origin put into share links;
// when empty it is derived from each request.
func NewFileHandler(files service.FileService, qr *service.QRService, publicURL string, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		files:     files,
		qr:        qr,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.With(slog.String("component", "file_handler")),
	}
}

// --- DTOs ---

type UploadResponse struct {
	ID        string    `json:"id"`
	ShareURL  string    `json:"shareUrl"`
	FileName  string    `json:"name"`
	FileSize  int64     `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
	QRCode    string    `json:"qrCode,omitempty"` // data:image/png;base64,...
}

type DownloadResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"name"`
	FileSize  int64     `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Upload godoc
// @Summary Upload a file and get a share link
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to share"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} gin.H "No file in the request"
// @Failure 500 {object} gin.H "Internal server error"
// @Router /upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	f, err := header.Open()
	if err != nil {
		h.logger.Error("open multipart file", slog.String("error", err.Error()))
		abortWithError(c, http.StatusInternalServerError, msgInternal)
		return
	}
	defer f.Close()

	rec, err := h.files.Upload(c.Request.Context(), service.UploadInput{
		Body:        f,
		FileName:    header.Filename,
		FileSize:    header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		abortWithServiceError(c, h.logger, err)
		return
	}

	shareURL := service.ShareURL(h.origin(c), rec.ID)
	resp := UploadResponse{
		ID:        rec.ID,
		ShareURL:  shareURL,
		FileName:  rec.FileName,
		FileSize:  rec.FileSize,
		ExpiresAt: rec.ExpiresAt,
	}
	// The link works without the QR code, so a render failure does not fail the upload.
	if qr, err := h.qr.DataURL(shareURL); err != nil {
		h.logger.Warn("qr render failed", slog.String("file_id", rec.ID), slog.String("error", err.Error()))
	} else {
		resp.QRCode = qr
	}

	c.JSON(http.StatusCreated, resp)
}

// Download godoc
// @Summary Resolve a share link to a short-lived download URL
// @Produce json
// @Param fileId path string true "File ID"
// @Success 200 {object} DownloadResponse
// @Failure 404 {object} gin.H "File not found"
// @Failure 410 {object} gin.H "File has expired"
// @Failure 500 {object} gin.H "Internal server error"
// @Router /download/{fileId} [get]
func (h *FileHandler) Download(c *gin.Context) {
	dl, err := h.files.Resolve(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		abortWithServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, DownloadResponse{
		URL:       dl.URL,
		FileName:  dl.FileName,
		FileSize:  dl.FileSize,
		ExpiresAt: dl.ExpiresAt,
	})
}

// QRCode godoc
// @Summary QR code of the share link, while the file is live
// @Produce png
// @Param fileId path string true "File ID"
// @Success 200 {file} binary
// @Failure 404 {object} gin.H "File not found"
// @Failure 410 {object} gin.H "File has expired"
// @Router /download/{fileId}/qr [get]
func (h *FileHandler) QRCode(c *gin.Context) {
	rec, err := h.files.Lookup(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		abortWithServiceError(c, h.logger, err)
		return
	}

	png, err := h.qr.PNG(service.ShareURL(h.origin(c), rec.ID))
	if err != nil {
		abortWithServiceError(c, h.logger, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// origin is the scheme://host share links are built on.
func (h *FileHandler) origin(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + c.Request.Host
}

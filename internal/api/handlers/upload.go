// upload.go — обработчики /api/upload endpoints.
// POST /api/upload      — загрузка изображения на локальный диск
// GET  /api/upload/list — список загруженных изображений
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/cyberanytime/backend/internal/api/errors"
	"github.com/cyberanytime/backend/internal/storage/imagestore"
)

// uploadResponse — ответ успешной загрузки.
type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// imageInfoResponse — элемент списка изображений.
type imageInfoResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// imageListResponse — ответ /api/upload/list.
type imageListResponse struct {
	Images []imageInfoResponse `json:"images"`
}

// UploadImage — POST /api/upload. Требует auth guard.
// Порядок проверок: content-type, расширение, затем размер после
// полного чтения тела файла.
func (h *APIHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "No file provided")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := h.images.Validate(contentType, header.Filename); err != nil {
		switch {
		case errors.Is(err, imagestore.ErrInvalidType):
			apierrors.ValidationError(w, fmt.Sprintf("File type '%s' not allowed. Only images are accepted", contentType))
		case errors.Is(err, imagestore.ErrInvalidExtension):
			apierrors.ValidationError(w, "File extension not allowed")
		default:
			apierrors.ValidationError(w, err.Error())
		}
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Ошибка чтения загружаемого файла", slog.String("error", err.Error()))
		apierrors.InternalError(w, fmt.Sprintf("Failed to save file: %v", err))
		return
	}

	saved, err := h.images.Save(content, header.Filename)
	if err != nil {
		if errors.Is(err, imagestore.ErrTooLarge) {
			apierrors.PayloadTooLarge(w, fmt.Sprintf("File too large. Maximum size is %d bytes", h.images.MaxSize()))
			return
		}
		h.logger.Error("Ошибка записи файла на диск",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, fmt.Sprintf("Failed to save file: %v", err))
		return
	}

	h.logger.Info("Файл загружен",
		slog.String("filename", saved.Filename),
		slog.Int64("size", saved.Size),
	)

	writeJSON(w, http.StatusOK, uploadResponse{
		URL:      saved.URL,
		Filename: saved.Filename,
		Size:     saved.Size,
	})
}

// ListImages — GET /api/upload/list. Требует auth guard.
func (h *APIHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.List()
	if err != nil {
		h.logger.Error("Ошибка чтения каталога загрузок", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to list images")
		return
	}

	resp := imageListResponse{Images: make([]imageInfoResponse, 0, len(images))}
	for _, img := range images {
		resp.Images = append(resp.Images, imageInfoResponse{
			Filename: img.Filename,
			URL:      img.URL,
			Size:     img.Size,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

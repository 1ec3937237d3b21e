package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"docqa-backend/internal/models"
	"docqa-backend/internal/services"
	"docqa-backend/internal/storage"
)

const multipartMemory = 32 << 20

type AskHandler struct {
	qa             *services.QAService
	storagePath    string
	maxUploadBytes int64
	maxFiles       int
	logger         *zap.Logger
}

func NewAskHandler(qa *services.QAService, storagePath string, maxUploadMB, maxFiles int, logger *zap.Logger) *AskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AskHandler{
		qa:             qa,
		storagePath:    storagePath,
		maxUploadBytes: int64(maxUploadMB) << 20,
		maxFiles:       maxFiles,
		logger:         logger,
	}
}

// Ask answers a question about zero or more uploaded files. Every scratch
// file written for the request is removed before the handler returns,
// whatever the outcome.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	scratch := storage.NewScratch(h.storagePath)
	defer func() {
		removed, err := scratch.Release()
		if err != nil {
			h.logger.Warn("scratch cleanup incomplete",
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				zap.Error(err))
		}
		if removed > 0 {
			h.logger.Debug("scratch files removed", zap.Int("count", removed))
		}
	}()
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if rec == http.ErrAbortHandler {
			panic(rec)
		}
		h.logger.Error("panic in ask handler", zap.Stack("stack"))
		handleServiceError(w, r, h.logger, fmt.Errorf("panic: %v", rec))
	}()

	files, question, err := h.readRequest(w, r, scratch)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	answer, err := h.qa.Answer(r.Context(), files, question)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AskResponse{Response: answer})
}

func (h *AskHandler) SupportedFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"formats":   services.SupportedFormats(),
		"max_files": h.maxFiles,
	})
}

func (h *AskHandler) readRequest(w http.ResponseWriter, r *http.Request, scratch *storage.Scratch) ([]models.UploadedFile, string, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req models.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			if h.tooLarge(err) {
				return nil, "", h.tooLargeError()
			}
			return nil, "", &services.ValidationError{Message: "Invalid request body"}
		}
		return nil, req.Question, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if h.tooLarge(err) {
			return nil, "", h.tooLargeError()
		}
		return nil, "", &services.ValidationError{Message: "Invalid multipart form"}
	}
	defer r.MultipartForm.RemoveAll()

	question := r.FormValue("question")

	headers := append(append([]*multipart.FileHeader{}, r.MultipartForm.File["file"]...), r.MultipartForm.File["files"]...)
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		return nil, "", &services.ValidationError{
			Message: fmt.Sprintf("At most %d files may be uploaded", h.maxFiles),
		}
	}

	files := make([]models.UploadedFile, 0, len(headers))
	for _, hdr := range headers {
		path, err := scratch.Save(hdr)
		if err != nil {
			return nil, "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("read scratch file: %w", err)
		}
		files = append(files, models.UploadedFile{
			MediaType: services.NormalizeMediaType(hdr.Header.Get("Content-Type"), data),
			Filename:  hdr.Filename,
			Path:      path,
			Data:      data,
		})
	}

	return files, question, nil
}

func (h *AskHandler) tooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func (h *AskHandler) tooLargeError() error {
	return &services.ValidationError{
		Message: fmt.Sprintf("Upload exceeds %dMB limit", h.maxUploadBytes>>20),
	}
}

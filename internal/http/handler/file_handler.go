package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

type FileHandler struct {
	fileService *service.FileService
	logger      *zap.Logger
}

func NewFileHandler(fileService *service.FileService, logger *zap.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// Upload godoc
// @Summary Upload file
// @Description Upload a delivery note attachment or verification photo (multipart form, field "file"). Optional form field "equipmentId" links the file to a unit.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param equipmentId formData string false "Equipment to link the file to" format(uuid)
// @Success 201 {object} domain.FileResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /files [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(service.MaxFileSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Form field 'file' is required")
		return
	}
	defer file.Close()

	var equipmentID *uuid.UUID
	if eid := r.FormValue("equipmentId"); eid != "" {
		id, err := uuid.Parse(eid)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
			return
		}
		equipmentID = &id
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploaded, err := h.fileService.Upload(r.Context(), header.Filename, contentType, file, equipmentID)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File exceeds maximum allowed size")
			return
		}
		h.logger.Error("failed to upload file", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	w.Header().Set("Location", "/api/v1/files/"+uploaded.ID.String())
	respondJSON(w, http.StatusCreated, uploaded)
}

// Download godoc
// @Summary Download file
// @Description Stream the content of an uploaded file
// @Tags Files
// @Produce octet-stream
// @Param id path string true "File ID" format(uuid)
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /files/{id} [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file ID: must be a valid UUID")
		return
	}

	file, reader, err := h.fileService.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("failed to download file", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to download file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("failed to stream file content",
			zap.String("file_id", id.String()),
			zap.Error(err))
	}
}

// Delete godoc
// @Summary Delete file
// @Description Remove a file's content and metadata
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "File ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file ID: must be a valid UUID")
		return
	}

	if err := h.fileService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("failed to delete file", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// ListByEquipment godoc
// @Summary List files of an equipment unit
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID" format(uuid)
// @Success 200 {array} domain.FileResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /equipment/{id}/files [get]
func (h *FileHandler) ListByEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid equipment ID: must be a valid UUID")
		return
	}

	files, err := h.fileService.ListByEquipment(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list files", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}

	respondJSON(w, http.StatusOK, files)
}

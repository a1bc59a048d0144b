package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/synchub/backend/internal/server/catalog"
	"github.com/synchub/backend/internal/server/models"
)

const (
	maxUploadBytes    = 100 * 1024 * 1024
	multipartMemLimit = 32 * 1024 * 1024
)

type fileResponse struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FolderType  string `json:"folder_type"`
	Size        int64  `json:"size"`
	DeviceName  string `json:"device_name"`
	CreatedAt   string `json:"created_at"`
}

func toFileResponse(f *models.FileRecord) fileResponse {
	return fileResponse{
		ID:          f.ID,
		Filename:    f.Filename,
		Title:       f.Title,
		Description: f.Description,
		FolderType:  f.Folder,
		Size:        f.Size,
		DeviceName:  f.DeviceName,
		CreatedAt:   f.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toFileResponses(list []*models.FileRecord) []fileResponse {
	result := make([]fileResponse, 0, len(list))
	for _, f := range list {
		result = append(result, toFileResponse(f))
	}
	return result
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(list))
}

func (s *Server) handleListByFolder(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")
	list, err := s.catalog.ListByFolder(r.Context(), userIDFromContext(r.Context()), folder)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(list))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read file: %v", err))
		return
	}

	req := &catalog.UploadRequest{
		Data:        data,
		Filename:    header.Filename,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Folder:      r.FormValue("folder_type"),
		DeviceName:  r.FormValue("device_name"),
		ContentType: header.Header.Get("Content-Type"),
	}

	record, err := s.catalog.Upload(r.Context(), userIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFileResponse(record))
}

func (s *Server) handleFileDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.catalog.GetDetails(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(record))
}

type moveRequest struct {
	FolderType string `json:"folder_type"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FolderType == "" {
		writeError(w, http.StatusBadRequest, "new folder type required")
		return
	}

	record, err := s.catalog.Move(r.Context(), id, userIDFromContext(r.Context()), req.FolderType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(record))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.catalog.Delete(r.Context(), id, userIDFromContext(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, chi.URLParam(r, "id"), "attachment")
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, chi.URLParam(r, "id"), "inline")
}

// serveFile writes the file bytes with the stored content type. Download and
// stream differ only in the Content-Disposition.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, id, disposition string) {
	result, err := s.catalog.Download(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	if disposition == "attachment" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	} else {
		w.Header().Set("Content-Disposition", "inline")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

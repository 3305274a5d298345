package api

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"repairdesk/internal/db"
	"repairdesk/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
)

const maxUploadBytes = 32 << 20

// signFile validates a planned upload against the attachment policy and
// returns where to PUT it and where it will be readable.
func (d Dependencies) signFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	contentType := r.URL.Query().Get("contentType")
	requestID := r.URL.Query().Get("requestId")
	fileSizeStr := r.URL.Query().Get("size")

	if name == "" || requestID == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name and requestId parameters required", d.Log)
		return
	}

	if _, err := d.DB.Queries.GetRepairRequestByID(r.Context(), requestID); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	var fileSize int64
	if fileSizeStr != "" {
		var err error
		fileSize, err = strconv.ParseInt(fileSizeStr, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_size", "Invalid file size parameter", d.Log)
			return
		}
	}
	if err := d.Policy.ValidateFile(name, contentType, fileSize); err != nil {
		WriteError(w, http.StatusBadRequest, "policy_violation", err.Error(), d.Log)
		return
	}

	objectName := storage.ObjectName(requestID, ulid.Make().String(), name)

	putURL, err := d.Storage.PresignPut(r.Context(), objectName, contentType, 15*time.Minute)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "url_generation_failed", "Failed to generate presigned URL", d.Log)
		return
	}

	getURL, err := d.Storage.PresignGet(r.Context(), objectName, 24*time.Hour)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "url_generation_failed", "Failed to generate presigned URL", d.Log)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"objectName": objectName,
		"putUrl":     putURL,
		"getUrl":     getURL,
	})
}

// uploadAttachment takes the file body directly, stores it and records the
// attachment row. Name and content type come from query parameters; the
// body is the raw file.
func (d Dependencies) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	name := r.URL.Query().Get("name")
	contentType := r.Header.Get("Content-Type")

	if name == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "name parameter required", d.Log)
		return
	}

	if _, err := d.DB.Queries.GetRepairRequestByID(r.Context(), requestID); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Failed to read upload body", d.Log)
		return
	}

	if err := d.Policy.ValidateFile(name, contentType, int64(len(body))); err != nil {
		WriteError(w, http.StatusBadRequest, "policy_violation", err.Error(), d.Log)
		return
	}

	sha, err := storage.CalculateSHA256(bytes.NewReader(body))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "upload_failed", "Failed to hash upload", d.Log)
		return
	}

	attachmentID := ulid.Make().String()
	objectName := storage.ObjectName(requestID, attachmentID, name)

	if err := d.Storage.Put(r.Context(), objectName, bytes.NewReader(body)); err != nil {
		WriteError(w, http.StatusInternalServerError, "upload_failed", "Failed to store file", d.Log)
		return
	}

	attachment, err := d.DB.Queries.CreateAttachment(r.Context(), db.CreateAttachmentParams{
		ID:          attachmentID,
		RequestID:   requestID,
		FileName:    name,
		ObjectName:  objectName,
		ContentType: contentType,
		SizeBytes:   int64(len(body)),
		SHA256:      sha,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "upload_failed", "Failed to record attachment", d.Log)
		return
	}

	getURL, _ := d.Storage.PresignGet(r.Context(), objectName, 24*time.Hour)

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         attachment.ID,
		"objectName": attachment.ObjectName,
		"sha256":     attachment.SHA256,
		"sizeBytes":  attachment.SizeBytes,
		"getUrl":     getURL,
	})
}

// putFile is the upload target of presigned put URLs on the local backend.
// The object name is the wildcard path segment.
func (d Dependencies) putFile(w http.ResponseWriter, r *http.Request) {
	objectName := chi.URLParam(r, "*")
	if objectName == "" || strings.Contains(objectName, "..") {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid object name", d.Log)
		return
	}

	if err := d.Policy.ValidateFile(filepath.Base(objectName), r.Header.Get("Content-Type"), r.ContentLength); err != nil {
		WriteError(w, http.StatusBadRequest, "policy_violation", err.Error(), d.Log)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := d.Storage.Put(r.Context(), objectName, body); err != nil {
		WriteError(w, http.StatusInternalServerError, "upload_failed", "Failed to store file", d.Log)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"objectName": objectName})
}

// getFile serves a stored object on the local backend.
func (d Dependencies) getFile(w http.ResponseWriter, r *http.Request) {
	objectName := chi.URLParam(r, "*")
	if objectName == "" || strings.Contains(objectName, "..") {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid object name", d.Log)
		return
	}

	reader, err := d.Storage.Get(r.Context(), objectName)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "File not found", d.Log)
		return
	}
	defer reader.Close()

	if ct := mime.TypeByExtension(filepath.Ext(objectName)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, reader)
}

func (d Dependencies) listAttachments(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")

	if _, err := d.DB.Queries.GetRepairRequestByID(r.Context(), requestID); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	rows, err := d.DB.Queries.ListAttachmentsByRequest(r.Context(), requestID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal", "Failed to list attachments", d.Log)
		return
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, a := range rows {
		getURL, _ := d.Storage.PresignGet(r.Context(), a.ObjectName, 24*time.Hour)
		out = append(out, map[string]interface{}{
			"id":          a.ID,
			"fileName":    a.FileName,
			"contentType": a.ContentType,
			"sizeBytes":   a.SizeBytes,
			"sha256":      a.SHA256,
			"getUrl":      getURL,
			"createdAt":   a.CreatedAt.Format(time.RFC3339),
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"attachments": out})
}

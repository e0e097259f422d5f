package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/services"
)

type DocumentHandler struct {
	documents *services.DocumentService
}

func NewDocumentHandler(documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type uploadRequest struct {
	File      string `json:"file"`
	Name      string `json:"name"`
	Format    string `json:"format"`
	ProjectID int64  `json:"projectId"`
}

// UploadDocument accepts a base64 PDF, archives it and starts ingestion.
// The response is returned as soon as the parsing job is enqueued; progress
// is visible through the project's processing stage.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", errs.ErrInvalidArgument))
		return
	}
	if req.ProjectID <= 0 {
		writeError(w, fmt.Errorf("%w: projectId required", errs.ErrInvalidArgument))
		return
	}

	result, err := h.documents.Upload(r.Context(), req.ProjectID, req.Name, req.Format, req.File)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/querygenie/querygenie/internal/core"
	"github.com/querygenie/querygenie/internal/core/errs"
	"github.com/querygenie/querygenie/internal/services"
)

type QueryHandler struct {
	queries *services.QueryService
}

func NewQueryHandler(queries *services.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

type queryRequest struct {
	ProjectID int64  `json:"projectId"`
	Question  string `json:"question"`
}

type queryResponse struct {
	Answer  string           `json:"answer"`
	Sources []core.SearchHit `json:"sources"`
}

func (h *QueryHandler) AnswerQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", errs.ErrInvalidArgument))
		return
	}
	if req.ProjectID <= 0 {
		writeError(w, fmt.Errorf("%w: projectId required", errs.ErrInvalidArgument))
		return
	}

	answer, hits, err := h.queries.Answer(r.Context(), req.ProjectID, req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Answer: answer, Sources: hits})
}

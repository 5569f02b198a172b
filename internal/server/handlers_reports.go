package server

import (
	"encoding/json"
	"net/http"

	"github.com/dmarsh/docketmind/internal/report"
	"github.com/dmarsh/docketmind/internal/server/middleware"
)

// handleGenerateReport assembles a report from a document's stored agent
// output. Branding fields are echoed back untouched.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	payload, err := s.reports.Build(r.Context(), userID, req.DocumentID, report.Options{
		Template:       req.Template,
		Format:         req.Format,
		IncludeSummary: req.IncludeSummary,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	response := map[string]any{
		"format":       payload.Format,
		"data":         payload,
		"download_url": nil,
	}
	if req.Branding != nil {
		response["branding"] = req.Branding
	}

	s.jsonResponse(w, http.StatusOK, response)
}

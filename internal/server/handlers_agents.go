package server

import (
	"encoding/json"
	"net/http"

	"github.com/dmarsh/docketmind/internal/agents"
)

// handleListAgents returns the compiled-in agent registry, optionally
// filtered by division.
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if division := r.URL.Query().Get("division"); division != "" {
		div := agents.Division(division)
		if !agents.ValidDivision(div) {
			s.errorResponse(w, http.StatusBadRequest, "Unknown division: "+division)
			return
		}
		s.jsonResponse(w, http.StatusOK, agents.ByDivision(div))
		return
	}

	s.jsonResponse(w, http.StatusOK, agents.All())
}

// handleDispatchAgent routes input to a single agent persona.
func (s *Server) handleDispatchAgent(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	result, err := s.dispatcher.Dispatch(r.Context(), req.AgentID, req.Input)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/dmarsh/docketmind/internal/db"
	"github.com/dmarsh/docketmind/internal/server/middleware"
)

// handleListIntegrations returns the caller's integration connections.
func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conns, err := s.db.ListIntegrations(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list integrations")
		return
	}
	if conns == nil {
		conns = []db.IntegrationConnection{}
	}
	s.jsonResponse(w, http.StatusOK, conns)
}

// handleCreateIntegration links the caller to an external provider account.
func (s *Server) handleCreateIntegration(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req IntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	if err := s.db.UpsertIntegration(r.Context(), userID, req.Provider, req.ExternalID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save integration")
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{
		"provider":    req.Provider,
		"external_id": req.ExternalID,
	})
}

// handleDeleteIntegration removes the caller's link to a provider.
func (s *Server) handleDeleteIntegration(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	provider := r.PathValue("provider")
	if provider == "" {
		s.errorResponse(w, http.StatusBadRequest, "Provider is required")
		return
	}

	deleted, err := s.db.DeleteIntegration(r.Context(), userID, provider)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete integration")
		return
	}
	if !deleted {
		s.errorResponse(w, http.StatusNotFound, "Integration not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAccount removes the caller's account and everything attached
// to it: blobs first, then the user row whose deletion cascades through
// documents, agent outputs, payments, subscription, and integrations.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	keys, err := s.db.DeleteDocumentsForOwner(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete documents")
		return
	}
	for _, key := range keys {
		if err := s.blobs.Delete(key); err != nil {
			log.Printf("[account] failed to delete blob %s: %v", key, err)
		}
	}

	if err := s.db.DeleteUser(r.Context(), userID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

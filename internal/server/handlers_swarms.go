package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/agents"
	"github.com/dmarsh/docketmind/internal/ingestion"
	"github.com/dmarsh/docketmind/internal/server/middleware"
	"github.com/dmarsh/docketmind/internal/swarm"
)

// swarmStreamInterval paces SSE snapshots while a swarm runs.
const swarmStreamInterval = time.Second

// handleStartSwarm fans the caller's document out to every agent in a
// division.
func (s *Server) handleStartSwarm(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req StartSwarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	division := agents.Division(req.Division)
	if !agents.ValidDivision(division) {
		s.errorResponse(w, http.StatusBadRequest, "Unknown division: "+req.Division)
		return
	}

	// The swarm reads the stored document text, so ownership is checked
	// here at the boundary.
	doc, err := s.db.GetDocument(r.Context(), userID, req.DocumentID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get document")
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}

	text, err := s.documentText(doc.FileKey, doc.MimeType)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sessionID, err := s.swarms.Start(userID, doc.ID, division, text)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, StartSwarmResponse{SwarmSessionID: sessionID})
}

// documentText loads and extracts the stored blob for swarm input.
func (s *Server) documentText(fileKey, mimeType string) (string, error) {
	content, err := s.blobs.Get(fileKey)
	if err != nil {
		return "", err
	}
	return ingestion.Extract(content, mimeType)
}

// handleGetSwarm returns the current session snapshot for polling.
func (s *Server) handleGetSwarm(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := s.swarmSessionID(w, r)
	if !ok {
		return
	}

	session, err := s.swarms.Snapshot(userID, sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SwarmSessionResponse{Session: session})
}

// handleStreamSwarm streams session snapshots over SSE until the session
// reaches a terminal status.
func (s *Server) handleStreamSwarm(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := s.swarmSessionID(w, r)
	if !ok {
		return
	}

	// Resolve once before committing to the SSE content type.
	session, err := s.swarms.Snapshot(userID, sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	stream, err := newSwarmStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ticker := time.NewTicker(swarmStreamInterval)
	defer ticker.Stop()

	for {
		if err := stream.writeSnapshot(session); err != nil {
			log.Printf("[swarm] failed to write SSE snapshot for %s: %v", sessionID, err)
			return
		}
		if session.Status != swarm.StatusProcessing {
			stream.writeComplete(sessionID, session.Status)
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		session, err = s.swarms.Snapshot(userID, sessionID)
		if err != nil {
			stream.writeError(err.Error())
			return
		}
	}
}

func (s *Server) swarmSessionID(w http.ResponseWriter, r *http.Request) (userID, sessionID uuid.UUID, ok bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	idStr := r.PathValue("id")
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, "Session ID is required")
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err = uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}

package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/db"
	"github.com/dmarsh/docketmind/internal/ingestion"
	"github.com/dmarsh/docketmind/internal/server/middleware"
)

// handleUploadDocument stores the uploaded blob and creates a pending
// document record.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes*2) // base64 overhead
	var req UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.FileContent)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "file_content is not valid base64")
		return
	}
	if int64(len(content)) > s.maxUploadBytes {
		s.errorResponse(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUploadBytes))
		return
	}

	key, url, err := s.blobs.Save(userID, req.FileName, content)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	doc, err := s.db.CreateDocument(r.Context(), &db.DocumentCreateInput{
		OwnerID:  userID,
		FileName: req.FileName,
		FileKey:  key,
		FileURL:  url,
		MimeType: req.MimeType,
		FileSize: int64(len(content)),
	})
	if err != nil {
		// Orphaned blobs are cheaper than dangling records.
		if cleanupErr := s.blobs.Delete(key); cleanupErr != nil {
			log.Printf("[documents] failed to clean up blob %s: %v", key, cleanupErr)
		}
		s.errorResponse(w, http.StatusInternalServerError, "Failed to create document")
		return
	}

	s.jsonResponse(w, http.StatusCreated, doc)
}

// handleListDocuments returns the caller's documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	docs, err := s.db.ListDocuments(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []db.Document{}
	}
	s.jsonResponse(w, http.StatusOK, docs)
}

// handleGetDocument returns one document with its agent output, if any.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	userID, docID, ok := s.documentRequest(w, r)
	if !ok {
		return
	}

	doc, err := s.db.GetDocument(r.Context(), userID, docID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get document")
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}

	output, err := s.db.GetAgentOutput(r.Context(), docID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get agent output")
		return
	}

	s.jsonResponse(w, http.StatusOK, DocumentDetailResponse{Document: doc, Output: output})
}

// handleDeleteDocument removes one document, its output row, and its blob.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, docID, ok := s.documentRequest(w, r)
	if !ok {
		return
	}

	doc, err := s.db.GetDocument(r.Context(), userID, docID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get document")
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}

	deleted, err := s.db.DeleteDocument(r.Context(), userID, docID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}
	if !deleted {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}

	if err := s.blobs.Delete(doc.FileKey); err != nil {
		log.Printf("[documents] failed to delete blob %s: %v", doc.FileKey, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAllDocuments removes every document the caller owns.
func (s *Server) handleDeleteAllDocuments(w http.ResponseWriter, r *http.Request) {
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
			log.Printf("[documents] failed to delete blob %s: %v", key, err)
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]int{"deleted": len(keys)})
}

// handleProcessDocument runs the three-persona structured processing flow.
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	userID, docID, ok := s.documentRequest(w, r)
	if !ok {
		return
	}

	var req ProcessDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	result, err := s.processor.Process(r.Context(), userID, docID, req.DocumentText)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ProcessDocumentResponse{Success: true, Summary: result.Summary})
}

// handleExtractDocument extracts plain text from the stored blob for
// supported mime types.
func (s *Server) handleExtractDocument(w http.ResponseWriter, r *http.Request) {
	userID, docID, ok := s.documentRequest(w, r)
	if !ok {
		return
	}

	doc, err := s.db.GetDocument(r.Context(), userID, docID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get document")
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}

	if !ingestion.Supported(doc.MimeType) {
		s.errorResponse(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("text extraction not supported for %s", doc.MimeType))
		return
	}

	content, err := s.blobs.Get(doc.FileKey)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	text, err := ingestion.Extract(content, doc.MimeType)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ExtractResponse{
		DocumentID: doc.ID,
		MimeType:   doc.MimeType,
		Text:       text,
	})
}

// documentRequest resolves the caller and the {id} path value.
func (s *Server) documentRequest(w http.ResponseWriter, r *http.Request) (userID, docID uuid.UUID, ok bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	idStr := r.PathValue("id")
	if idStr == "" {
		s.errorResponse(w, http.StatusBadRequest, "Document ID is required")
		return uuid.Nil, uuid.Nil, false
	}
	docID, err = uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid document ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, docID, true
}

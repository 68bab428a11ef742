package api

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"github.com/wallet-insight/internal/models"
)

// Field limits match the notes table columns.
const (
	maxNoteTitleChars       = 100
	maxNoteDescriptionChars = 500
	maxNoteContentChars     = 1000
)

// CreateNoteRequest is the note creation payload. The owning user comes
// from the X-User-ID header.
type CreateNoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// validateNote checks the field limits, returning an empty string when
// the payload is acceptable.
func validateNote(req *CreateNoteRequest) string {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return "Title is required"
	case utf8.RuneCountInString(req.Title) > maxNoteTitleChars:
		return fmt.Sprintf("Title must be at most %d characters", maxNoteTitleChars)
	case utf8.RuneCountInString(req.Description) > maxNoteDescriptionChars:
		return fmt.Sprintf("Description must be at most %d characters", maxNoteDescriptionChars)
	case utf8.RuneCountInString(req.Content) > maxNoteContentChars:
		return fmt.Sprintf("Content must be at most %d characters", maxNoteContentChars)
	}
	return ""
}

// requireUserID reads the caller identity header, writing a 401 when
// absent.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header is required", nil)
		return "", false
	}
	return userID, true
}

// handleCreateNote stores a new note for the calling user.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if msg := validateNote(&req); msg != "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, msg, nil)
		return
	}

	note := &models.Note{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
	}
	if err := s.notes.Create(r.Context(), note); err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}

	respondJSON(w, http.StatusCreated, note)
}

// handleListNotes returns the calling user's notes, newest first.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notes, err := s.notes.ListByUser(r.Context(), userID)
	if err != nil {
		status, code, message := mapServiceError(err)
		respondError(w, status, code, message, nil)
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}

	respondJSON(w, http.StatusOK, notes)
}

// handleDeleteNote removes one of the calling user's notes.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := s.notes.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Note not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

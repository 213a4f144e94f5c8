package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studymate/studymate-backend/internal/middleware"
	"github.com/studymate/studymate-backend/internal/model"
	"github.com/studymate/studymate-backend/internal/response"
	"github.com/studymate/studymate-backend/internal/service"
	"github.com/studymate/studymate-backend/internal/validator"
)

// NoteHandler handles note authoring endpoints.
type NoteHandler struct {
	noteService *service.NoteService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// ListMine godoc
// GET /api/v1/notes
// Lists the caller's own notes.
func (h *NoteHandler) ListMine(c *gin.Context) {
	notes, err := h.noteService.ListMine(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notes": notes})
}

// ListShared godoc
// GET /api/v1/notes/shared
// Lists every shared note.
func (h *NoteHandler) ListShared(c *gin.Context) {
	notes, err := h.noteService.ListShared(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notes": notes})
}

// Get godoc
// GET /api/v1/notes/:id
// Returns a note with its ordered questions and choices.
func (h *NoteHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	note, err := h.noteService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// Create godoc
// POST /api/v1/notes
// Creates a note owned by the caller.
func (h *NoteHandler) Create(c *gin.Context) {
	var req model.CreateNoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	note, err := h.noteService.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"note": note})
}

// Update godoc
// PUT /api/v1/notes/:id
// Updates note fields; questions are replaced in full when provided.
func (h *NoteHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateNoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	note, err := h.noteService.Update(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"note": note})
}

// Delete godoc
// DELETE /api/v1/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.noteService.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "note deleted"})
}

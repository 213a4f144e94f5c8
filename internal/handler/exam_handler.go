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

// ExamHandler handles exam session endpoints.
type ExamHandler struct {
	sessionService *service.ExamSessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessionService *service.ExamSessionService) *ExamHandler {
	return &ExamHandler{sessionService: sessionService}
}

// StartExam godoc
// POST /api/v1/notes/:id/exam?timer=<ms>&batch=<index>
// Starts an exam on a note, or resumes the caller's live one.
// Malformed timer or batch values fall back to no countdown and the whole note.
func (h *ExamHandler) StartExam(c *gin.Context) {
	noteID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var q model.StartExamQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Start(c.Request.Context(), middleware.GetActor(c), noteID, q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": view})
}

// GetSession godoc
// GET /api/v1/exams/:session_id
// Returns the shuffled batch questions, selections, clock, state and score.
func (h *ExamHandler) GetSession(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	view, err := h.sessionService.View(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// RecordSelection godoc
// PUT /api/v1/exams/:session_id/selections
// Replaces the selected choices of one question.
func (h *ExamHandler) RecordSelection(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	var req model.RecordSelectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.RecordSelection(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// Submit godoc
// POST /api/v1/exams/:session_id/submit
// Submits the exam and waits for the report to be accepted.
// On failure the session stays open and may be submitted again.
func (h *ExamHandler) Submit(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failSubmit(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Abandon godoc
// DELETE /api/v1/exams/:session_id
// Stops the session without submitting. The clock is kept for a later resume.
func (h *ExamHandler) Abandon(c *gin.Context) {
	id, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	if err := h.sessionService.Abandon(middleware.GetActor(c), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "exam session closed"})
}

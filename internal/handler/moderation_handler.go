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

// ModerationHandler handles question bookmarks and moderation comments.
type ModerationHandler struct {
	moderationService *service.ModerationService
}

// NewModerationHandler creates a new ModerationHandler.
func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// ListFlagged godoc
// GET /api/v1/moderation/flagged
// Lists flagged questions. Non-admins only see questions of shared notes.
func (h *ModerationHandler) ListFlagged(c *gin.Context) {
	questions, err := h.moderationService.ListFlagged(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListQuestions godoc
// GET /api/v1/moderation/questions
// Lists questions for the edit view with the same visibility rule.
func (h *ModerationHandler) ListQuestions(c *gin.Context) {
	questions, err := h.moderationService.ListQuestions(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Moderate godoc
// PATCH /api/v1/moderation/questions/:id
// Sets the flag and comment of a question. Only admins may clear a flag.
func (h *ModerationHandler) Moderate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.ModerateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.moderationService.Moderate(c.Request.Context(), middleware.GetActor(c), id, &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

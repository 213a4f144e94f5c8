package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/middleware"
	"github.com/studymate/studymate-backend/internal/model"
	"github.com/studymate/studymate-backend/internal/response"
	"github.com/studymate/studymate-backend/internal/service"
	"github.com/studymate/studymate-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles exam report endpoints.
type ReportHandler struct {
	reportService *service.ReportService
	log           zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		log:           log.With().Str("component", "report_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/reports
// Queues a finished exam. With reportListId the report joins that list,
// otherwise it joins the list of (userId, noteId), creating it if needed.
func (h *ReportHandler) Create(c *gin.Context) {
	var req model.Submission
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.reportService.SubmitAs(c.Request.Context(), middleware.GetActor(c), &req); err != nil {
		status, code := failure(err)
		if code == response.ErrInternal {
			h.log.Error().Err(err).Msg("Queue report failed")
			status, code = http.StatusServiceUnavailable, response.ErrReportUnavailable
		}
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"message": "report queued"})
}

// List godoc
// GET /api/v1/reports?page=&per_page=&note_title=
// Lists the caller's reports, newest first.
func (h *ReportHandler) List(c *gin.Context) {
	var q model.ReportListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	reports, pagination, err := h.reportService.List(c.Request.Context(), middleware.GetActor(c), q)
	if err != nil {
		fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"reports": reports}, pagination)
}

// Export godoc
// GET /api/v1/reports/export
// Downloads the caller's report history as an xlsx workbook.
func (h *ReportHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reportService.Export(c.Request.Context(), middleware.GetActor(c), &buf); err != nil {
		h.log.Error().Err(err).Msg("Export reports failed")
		fail(c, err)
		return
	}

	filename := fmt.Sprintf("reports-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

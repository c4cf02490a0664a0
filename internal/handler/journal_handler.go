// internal/handler/journal_handler.go
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fiscal-hub/internal/repository"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/utils"
)

const maxJournalLimit = 500

// JournalHandler lists journaled print attempts and report requests
type JournalHandler struct {
	documents *service.DocumentService
	reports   *service.ReportService
	logger    *utils.ServiceLogger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(documents *service.DocumentService, reports *service.ReportService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{
		documents: documents,
		reports:   reports,
		logger:    utils.NewServiceLogger(logger, "journal-handler"),
	}
}

// RegisterRoutes registers journal routes
func (h *JournalHandler) RegisterRoutes(router *gin.RouterGroup) {
	journal := router.Group("/journal")
	{
		journal.GET("/documents", h.ListDocuments)
		journal.GET("/reports", h.ListReports)
	}
}

// ListDocuments lists print attempts
// @Summary Document journal
// @Description List print attempts, newest first
// @Tags Journal
// @Produce json
// @Param status query string false "PRINTED, REJECTED, TRANSPORT_FAULT or NOT_PRINTABLE"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {object} utils.APIResponse{data=[]model.PrintOutcome}
// @Failure 400 {object} utils.APIResponse
// @Router /api/v1/journal/documents [get]
func (h *JournalHandler) ListDocuments(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	outcomes, err := h.documents.History(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Documents retrieved", outcomes)
}

// ListReports lists report requests
// @Summary Report journal
// @Description List report requests, newest first
// @Tags Journal
// @Produce json
// @Param status query string false "Report kind (X, Z, Z_COPY, Z_BY_DATE, Z_BY_NUMBER, Z_BY_RANGE, REPRINT, CANCEL)"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {object} utils.APIResponse{data=[]model.ReportResult}
// @Failure 400 {object} utils.APIResponse
// @Router /api/v1/journal/reports [get]
func (h *JournalHandler) ListReports(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	results, err := h.reports.History(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list reports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list reports", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Reports retrieved", results)
}

func (h *JournalHandler) parseFilter(c *gin.Context) (*repository.JournalFilter, bool) {
	filter := &repository.JournalFilter{Status: c.Query("status")}
	errs := make(map[string]string)

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errs["since"] = "must be an RFC3339 timestamp"
		} else {
			filter.Since = &since
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxJournalLimit {
			errs["limit"] = "must be between 1 and " + strconv.Itoa(maxJournalLimit)
		} else {
			filter.Limit = limit
		}
	}

	if len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs)
		return nil, false
	}
	return filter, true
}

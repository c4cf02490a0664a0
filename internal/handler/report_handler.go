// internal/handler/report_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/utils"
)

// ReportHandler prints X and Z reports and reprints documents
type ReportHandler struct {
	reports *service.ReportService
	logger  *utils.ServiceLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  utils.NewServiceLogger(logger, "report-handler"),
	}
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.POST("/x", h.PrintXReport)
		reports.POST("/z", h.PrintZReport)
		reports.POST("/z/copy", h.PrintZReportCopy)
		reports.POST("/z/date-range", h.PrintZByDate)
		reports.POST("/z/number", h.PrintZByNumber)
		reports.POST("/z/number-range", h.PrintZByNumberRange)
	}

	router.POST("/documents/:number/reprint", h.ReprintDocument)
}

// PrintXReport prints the shift report
// @Summary X report
// @Description Print the shift summary without closing the fiscal day
// @Tags Reports
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 409 {object} utils.APIResponse{data=model.ReportResult} "Nothing to report"
// @Failure 503 {object} utils.APIResponse{data=model.ReportResult} "Printer offline"
// @Router /api/v1/reports/x [post]
func (h *ReportHandler) PrintXReport(c *gin.Context) {
	result, err := h.reports.PrintXReport(c.Request.Context())
	respondReport(c, result, err)
}

// PrintZReport closes the fiscal day
// @Summary Z report
// @Description Print the end-of-day report. With {"copy": true} a copy is printed and the day stays open.
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body model.ZReportRequest false "Copy only"
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 409 {object} utils.APIResponse{data=model.ReportResult} "Fiscal day already closed"
// @Failure 503 {object} utils.APIResponse{data=model.ReportResult} "Printer offline"
// @Router /api/v1/reports/z [post]
func (h *ReportHandler) PrintZReport(c *gin.Context) {
	var req model.ZReportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ValidationErrorResponse(c, map[string]string{"body": err.Error()})
			return
		}
	}

	if !req.Copy {
		h.logger.Info("Closing fiscal day", zap.String("client_ip", c.ClientIP()))
	}
	result, err := h.reports.PrintZReport(c.Request.Context(), req.Copy)
	respondReport(c, result, err)
}

// PrintZReportCopy prints a copy of the last Z report
// @Summary Z report copy
// @Tags Reports
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 503 {object} utils.APIResponse{data=model.ReportResult}
// @Router /api/v1/reports/z/copy [post]
func (h *ReportHandler) PrintZReportCopy(c *gin.Context) {
	result, err := h.reports.PrintZReport(c.Request.Context(), true)
	respondReport(c, result, err)
}

// PrintZByDate prints every Z report between two days
// @Summary Z reports by date
// @Description Print the Z reports of a date range (YYYY-MM-DD, end defaults to start)
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body model.DateRangeRequest true "Date range"
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse{data=model.ReportResult} "No reports found"
// @Router /api/v1/reports/z/date-range [post]
func (h *ReportHandler) PrintZByDate(c *gin.Context) {
	var req model.DateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"start_date": err.Error()})
		return
	}

	result, err := h.reports.PrintZByDate(c.Request.Context(), req)
	respondReport(c, result, err)
}

// PrintZByNumber prints one Z report by sequence number
// @Summary Z report by number
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body model.NumberRequest true "Report number (1-9999)"
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse{data=model.ReportResult}
// @Router /api/v1/reports/z/number [post]
func (h *ReportHandler) PrintZByNumber(c *gin.Context) {
	var req model.NumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"number": err.Error()})
		return
	}

	result, err := h.reports.PrintZByNumber(c.Request.Context(), req.Number)
	respondReport(c, result, err)
}

// PrintZByNumberRange prints the Z reports of a sequence range
// @Summary Z reports by number range
// @Tags Reports
// @Accept json
// @Produce json
// @Param request body model.NumberRangeRequest true "Report number range (1-9999)"
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse{data=model.ReportResult}
// @Router /api/v1/reports/z/number-range [post]
func (h *ReportHandler) PrintZByNumberRange(c *gin.Context) {
	var req model.NumberRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"range": err.Error()})
		return
	}

	result, err := h.reports.PrintZByNumberRange(c.Request.Context(), req)
	respondReport(c, result, err)
}

// ReprintDocument reprints a fiscal document
// @Summary Reprint document
// @Description Reprint a document by its device number; every document type is probed in turn
// @Tags Reports
// @Produce json
// @Param number path string true "Document number"
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse{data=model.ReportResult}
// @Router /api/v1/documents/{number}/reprint [post]
func (h *ReportHandler) ReprintDocument(c *gin.Context) {
	result, err := h.reports.ReprintDocument(c.Request.Context(), c.Param("number"))
	respondReport(c, result, err)
}

// respondReport writes a report result with the status its error maps to
func respondReport(c *gin.Context, result *model.ReportResult, err error) {
	if err == nil {
		utils.SuccessResponse(c, http.StatusOK, result.Message, result)
		return
	}
	utils.ErrorResponseWithData(c, errorStatus(err), result.Error, err, result)
}

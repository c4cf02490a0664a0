// internal/handler/document_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/utils"
)

// maxExportSize bounds an uploaded POS export
const maxExportSize = 4 << 20

// DocumentHandler prints POS exports posted over HTTP
type DocumentHandler struct {
	intake *service.IntakeService
	logger *utils.ServiceLogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(intake *service.IntakeService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		intake: intake,
		logger: utils.NewServiceLogger(logger, "document-handler"),
	}
}

// RegisterRoutes registers document routes
func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/documents", h.PrintExport)
}

// PrintExport prints the POS export in the request body
// @Summary Print POS export
// @Description Parse, transform and print one TCPOS transaction export. The export is journaled like a watched file.
// @Tags Documents
// @Accept xml
// @Produce json
// @Param export body string true "TCPOS transaction export"
// @Success 200 {object} utils.APIResponse{data=model.PrintOutcome}
// @Failure 409 {object} utils.APIResponse{data=model.PrintOutcome} "Rejected by the printer"
// @Failure 422 {object} utils.APIResponse{data=model.PrintOutcome} "Not printable"
// @Failure 503 {object} utils.APIResponse{data=model.PrintOutcome} "Printer offline"
// @Router /api/v1/documents [post]
func (h *DocumentHandler) PrintExport(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxExportSize)
	source := "http:" + c.GetString("request_id")

	outcome, err := h.intake.Process(c.Request.Context(), body, source)

	switch outcome.Status {
	case model.PrintStatusPrinted:
		utils.SuccessResponse(c, http.StatusOK, "Document printed", outcome)
	case model.PrintStatusNotPrintable:
		utils.ErrorResponseWithData(c, http.StatusUnprocessableEntity, "Transaction not printable", err, outcome)
	case model.PrintStatusTransportFault:
		utils.ErrorResponseWithData(c, http.StatusServiceUnavailable, "Printer unavailable", err, outcome)
	default:
		utils.ErrorResponseWithData(c, errorStatus(err), "Document rejected by printer", err, outcome)
	}
}

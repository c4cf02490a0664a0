// internal/handler/printer_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fiscal-hub/internal/model"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/utils"
	"fiscal-hub/pkg/driver"
)

// PrinterHandler exposes device queries and maintenance commands
type PrinterHandler struct {
	printers *service.PrinterManager
	reports  *service.ReportService
	logger   *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printers *service.PrinterManager, reports *service.ReportService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printers: printers,
		reports:  reports,
		logger:   utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printer := router.Group("/printer")
	{
		printer.GET("", h.GetPrinter)
		printer.GET("/state", h.GetState)
		printer.GET("/status", h.GetStatus)
		printer.GET("/datetime", h.GetDateTime)
		printer.PUT("/datetime", h.SetDateTime)
		printer.GET("/fiscal-info", h.GetFiscalInfo)
		printer.GET("/ports", h.ListPorts)
		printer.POST("/diagnose", h.Diagnose)
		printer.POST("/cancel", h.CancelDocument)
	}
}

// PrinterOverview is the binding and link quality of the printer
type PrinterOverview struct {
	Connection *model.PrinterConnection `json:"connection"`
	Health     *driver.HealthMetrics    `json:"health,omitempty"`
}

// SetDateTimeRequest sets the device clock. Without a datetime the clock
// is synchronized with the host.
type SetDateTimeRequest struct {
	DateTime *time.Time `json:"datetime" example:"2024-09-30T18:45:00-04:00"`
}

// DateTimeResponse carries the device clock
type DateTimeResponse struct {
	DateTime time.Time `json:"datetime"`
	HostTime time.Time `json:"host_time"`
	Drift    string    `json:"drift"`
}

// GetPrinter returns the current binding without touching the device
// @Summary Printer binding
// @Description Get the bound serial endpoint and exchange statistics
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=PrinterOverview}
// @Router /api/v1/printer [get]
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer retrieved", &PrinterOverview{
		Connection: h.printers.Connection(),
		Health:     h.printers.Health(),
	})
}

// GetState queries the document state
// @Summary Printer state
// @Description Query the device state (document lifecycle and fiscal status)
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.PrinterState}
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/printer/state [get]
func (h *PrinterHandler) GetState(c *gin.Context) {
	state, err := h.printers.State(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to query printer state", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer state retrieved", state)
}

// GetStatus queries the sensor register
// @Summary Printer status
// @Description Query the status register (paper, cover, drawer and error flags)
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.PrinterStatus}
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/printer/status [get]
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	status, err := h.printers.Status(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to query printer status", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer status retrieved", status)
}

// GetDateTime reads the device clock
// @Summary Printer clock
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=DateTimeResponse}
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/printer/datetime [get]
func (h *PrinterHandler) GetDateTime(c *gin.Context) {
	deviceTime, err := h.printers.DateTime(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to read printer clock", err)
		return
	}

	now := time.Now()
	utils.SuccessResponse(c, http.StatusOK, "Printer clock retrieved", &DateTimeResponse{
		DateTime: deviceTime,
		HostTime: now,
		Drift:    now.Sub(deviceTime).Round(time.Second).String(),
	})
}

// SetDateTime sets the device clock
// @Summary Set printer clock
// @Description Set the device clock to the given time, or to the host time when none is given
// @Tags Printer
// @Accept json
// @Produce json
// @Param request body SetDateTimeRequest false "Target time"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/printer/datetime [put]
func (h *PrinterHandler) SetDateTime(c *gin.Context) {
	var req SetDateTimeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ValidationErrorResponse(c, map[string]string{"datetime": err.Error()})
			return
		}
	}

	var err error
	if req.DateTime == nil {
		err = h.printers.SyncClock(c.Request.Context())
	} else {
		err = h.printers.SetDateTime(c.Request.Context(), *req.DateTime)
	}
	if err != nil {
		h.fail(c, "Failed to set printer clock", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer clock set", nil)
}

// GetFiscalInfo reads the fiscal configuration
// @Summary Fiscal configuration
// @Description Read the business identity and tax rates stored in the device
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.FiscalInfo}
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/printer/fiscal-info [get]
func (h *PrinterHandler) GetFiscalInfo(c *gin.Context) {
	info, err := h.printers.FiscalInfo(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to read fiscal configuration", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Fiscal configuration retrieved", info)
}

// ListPorts lists serial endpoints
// @Summary Serial ports
// @Description List serial endpoints with their USB details
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]model.PortInfo}
// @Failure 500 {object} utils.APIResponse
// @Router /api/v1/printer/ports [get]
func (h *PrinterHandler) ListPorts(c *gin.Context) {
	ports, err := h.printers.Ports()
	if err != nil {
		h.fail(c, "Failed to list serial ports", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Serial ports retrieved", ports)
}

// Diagnose runs the startup diagnostics on demand
// @Summary Diagnose printer
// @Description Read state, status, fiscal configuration and clock; synchronize the clock when configured
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.Diagnosis}
// @Failure 503 {object} utils.APIResponse
// @Router /api/v1/printer/diagnose [post]
func (h *PrinterHandler) Diagnose(c *gin.Context) {
	diagnosis, err := h.printers.Diagnose(c.Request.Context())
	if err != nil {
		h.fail(c, "Printer diagnosis failed", err)
		return
	}

	message := "Printer healthy"
	if len(diagnosis.Warnings) > 0 {
		message = "Printer needs attention"
	}
	utils.SuccessResponse(c, http.StatusOK, message, diagnosis)
}

// CancelDocument cancels the open document
// @Summary Cancel document
// @Description Cancel the document left open on the device; succeeds when none is open
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.ReportResult}
// @Failure 503 {object} utils.APIResponse{data=model.ReportResult}
// @Router /api/v1/printer/cancel [post]
func (h *PrinterHandler) CancelDocument(c *gin.Context) {
	result, err := h.reports.CancelDocument(c.Request.Context())
	respondReport(c, result, err)
}

func (h *PrinterHandler) fail(c *gin.Context, message string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Error(err))
	} else {
		h.logger.Warn(message, zap.Error(err))
	}
	utils.ErrorResponse(c, status, message, err)
}

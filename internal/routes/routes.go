// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"fiscal-hub/internal/config"
	"fiscal-hub/internal/handler"
	"fiscal-hub/internal/middleware"
	"fiscal-hub/internal/service"
	"fiscal-hub/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config    *config.Config
	logger    *zap.Logger
	db        handler.DatabaseChecker
	printers  *service.PrinterManager
	documents *service.DocumentService
	reports   *service.ReportService
	intake    *service.IntakeService
	websocket *handler.WebSocketHandler
}

// NewRouter creates a new router instance. db is nil when the journal is
// kept in memory.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db handler.DatabaseChecker,
	printers *service.PrinterManager,
	documents *service.DocumentService,
	reports *service.ReportService,
	intake *service.IntakeService,
	websocket *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:    config,
		logger:    logger,
		db:        db,
		printers:  printers,
		documents: documents,
		reports:   reports,
		intake:    intake,
		websocket: websocket,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsDebugEnabled() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	// request id first so recovery and access logs carry it
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(r.logger))

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.printers, r.config, r.logger)
	printerHandler := handler.NewPrinterHandler(r.printers, r.reports, r.logger)
	reportHandler := handler.NewReportHandler(r.reports, r.logger)
	journalHandler := handler.NewJournalHandler(r.documents, r.reports, r.logger)
	documentHandler := handler.NewDocumentHandler(r.intake, r.logger)

	healthHandler.RegisterRoutes(&router.RouterGroup)

	apiV1 := router.Group("/api/v1")
	printerHandler.RegisterRoutes(apiV1)
	reportHandler.RegisterRoutes(apiV1)
	journalHandler.RegisterRoutes(apiV1)
	documentHandler.RegisterRoutes(apiV1)

	if r.websocket != nil {
		r.websocket.RegisterRoutes(router.Group("/ws"))
	}

	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}

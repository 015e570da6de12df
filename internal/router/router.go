package router

import (
	"github.com/gin-gonic/gin"

	"parsemybill/internal/config"
	"parsemybill/internal/handler"
	"parsemybill/internal/middleware"
	"parsemybill/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	authSvc service.AuthService,
	authH *handler.AuthHandler,
	invoiceH *handler.InvoiceHandler,
	uploadH *handler.UploadHandler,
	publicH *handler.PublicHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// Public share endpoints: open CORS, no auth, flat JSON shapes.
	public := r.Group("/invoices")
	public.Use(middleware.PublicCORS())
	public.GET("/:id", publicH.GetInvoice)
	public.POST("/extract", publicH.ExtractInvoice)
	// Preflight is answered by PublicCORS before the handler runs.
	public.OPTIONS("/:id", func(c *gin.Context) {})
	public.OPTIONS("/extract", func(c *gin.Context) {})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.GET("/verify-email", authH.VerifyEmail)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	invoices := protected.Group("/invoices")
	invoices.POST("/upload", uploadH.Upload)
	invoices.GET("", invoiceH.List)
	invoices.GET("/export", invoiceH.Export)
	invoices.GET("/:id", invoiceH.Get)
	invoices.PATCH("/:id", invoiceH.Update)
	invoices.DELETE("/:id", invoiceH.Delete)
	invoices.GET("/:id/qr", invoiceH.QRCode)
	invoices.GET("/:id/download", invoiceH.Download)

	return r
}

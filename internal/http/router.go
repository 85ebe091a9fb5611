package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/periodicals/internal/auth"
	"github.com/mrlokans/periodicals/internal/entities"
	"github.com/mrlokans/periodicals/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	// Every route outside the middleware's public list needs a session token.
	middleware := cfg.AuthMiddleware
	if middleware == nil {
		middleware = auth.NewMiddleware(cfg.AuthService)
	}
	router.Use(middleware.Handler())
	adminOnly := middleware.RequireRole(entities.UserRoleAdmin)

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	if queue, ok := cfg.Tasks.(Pinger); ok {
		health.WithProbe("task_queue", queue)
	}
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")

	// Session protocol and the caller's own account
	account := NewAccountController(cfg.AuthService, cfg.RateLimiter)
	api.POST("/auth/sign-up", account.SignUp)
	api.POST("/auth/sign-in", account.SignIn)
	api.POST("/auth/sign-out", account.SignOut)
	api.GET("/me", account.Me)
	api.PUT("/me", account.UpdateProfile)
	api.PUT("/me/password", account.ChangePassword)
	api.DELETE("/me", account.DeleteAccount)

	// Journal catalog
	journalsController := NewJournalsController(cfg.Journals, cfg.Audit)
	api.GET("/journals", journalsController.List)
	api.GET("/journals/lookup", journalsController.Lookup)
	api.GET("/journals/:id", journalsController.Get)
	api.POST("/journals", adminOnly, journalsController.Create)
	api.PUT("/journals/:id", adminOnly, journalsController.Update)
	api.DELETE("/journals/:id", adminOnly, journalsController.Delete)

	// Holdings
	holdingsController := NewHoldingsController(cfg.Ledger, cfg.Audit)
	api.GET("/journals/:id/subscriptions", holdingsController.ListSubscriptions)
	api.POST("/journals/:id/subscriptions", adminOnly, holdingsController.AddSubscription)
	api.DELETE("/subscriptions/:id", adminOnly, holdingsController.RemoveSubscription)
	api.GET("/journals/:id/storage", holdingsController.ListStorage)
	api.POST("/journals/:id/storage", adminOnly, holdingsController.ReceiveIssue)
	api.GET("/storage/:id", holdingsController.GetStorage)
	api.DELETE("/storage/:id", adminOnly, holdingsController.RemoveIssue)
	api.POST("/storage/:id/articles", adminOnly, holdingsController.CatalogArticle)
	api.GET("/articles", holdingsController.FindArticles)
	api.GET("/articles/:id", holdingsController.GetArticle)
	api.DELETE("/articles/:id", adminOnly, holdingsController.DeleteArticle)

	// Circulation
	borrowingsController := NewBorrowingsController(cfg.Ledger)
	api.GET("/me/borrowings", borrowingsController.Mine)
	api.POST("/borrowings", adminOnly, borrowingsController.Borrow)
	api.GET("/borrowings/overdue", adminOnly, borrowingsController.Overdue)
	api.GET("/borrowings/:id", adminOnly, borrowingsController.Get)
	api.POST("/borrowings/:id/return", adminOnly, borrowingsController.Return)

	// Audit log
	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		api.GET("/audit", adminOnly, auditController.List)
		api.GET("/audit/:id", adminOnly, auditController.Get)
		api.GET("/audit/history/:entity/:id", adminOnly, auditController.History)
	}

	// Manual task triggers
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		api.GET("/tasks/types", adminOnly, tasksController.ListTaskTypes)
		api.GET("/tasks/:id", adminOnly, tasksController.GetTask)
		api.POST("/tasks/:type/run", adminOnly, tasksController.RunTask)
	}

	return router
}

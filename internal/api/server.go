package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/textmint/textmint/config"
	"github.com/textmint/textmint/internal/domain"
	"github.com/textmint/textmint/internal/reconcile"
	"github.com/textmint/textmint/internal/storage"
	"github.com/textmint/textmint/internal/wasender"
	"github.com/textmint/textmint/internal/webserver"
	"gorm.io/gorm"
)

// Server carries every handler dependency explicitly; handlers are methods
// on it and keep no ambient state.
type Server struct {
	cfg      *config.AppConfig
	db       *gorm.DB
	sessions *reconcile.Service
	gateway  *wasender.Client
	media    *storage.MediaStore
}

func NewServer(cfg *config.AppConfig, db *gorm.DB, sessions *reconcile.Service,
	gateway *wasender.Client, media *storage.MediaStore) *Server {
	return &Server{cfg: cfg, db: db, sessions: sessions, gateway: gateway, media: media}
}

// RegisterRoutes attaches all handlers to the router. Auth endpoints stay
// open; everything under /api requires a resolved identity.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.getHealth)
	e.POST("/api/auth/register", s.postRegister)
	e.POST("/api/auth/login", s.postLogin)

	api := e.Group("/api", webserver.AuthMiddleware(s.cfg.Web.JwtSecret, s.db))

	api.GET("/user/profile", s.getProfile)

	admin := api.Group("/users", webserver.RequireRole(domain.RoleAdmin))
	admin.GET("", s.listUsers)
	admin.GET("/:id", s.getUser)
	admin.PUT("/:id", s.updateUser)
	admin.DELETE("/:id", s.deleteUser)

	api.GET("/plans", s.listPlans)
	api.GET("/plans/:id", s.getPlan)
	api.POST("/plans/:id/subscribe", s.subscribePlan)
	planAdmin := api.Group("/plans", webserver.RequireRole(domain.RoleAdmin))
	planAdmin.POST("", s.createPlan)
	planAdmin.PUT("/:id", s.updatePlan)
	planAdmin.DELETE("/:id", s.deletePlan)

	api.GET("/sessions", s.listSessions)
	api.POST("/sessions", s.createSession)
	api.POST("/sessions/:id/connect", s.connectSession)
	api.GET("/sessions/:id/qrcode", s.getSessionQR)
	api.GET("/sessions/:id/status", s.getSessionStatus)
	api.POST("/sessions/:id/disconnect", s.disconnectSession)
	api.DELETE("/sessions/:id", s.deleteSession)

	api.POST("/media", s.uploadMedia)
	api.GET("/media", s.listMedia)
	api.DELETE("/media/:id", s.deleteMedia)

	api.POST("/messages/send", s.sendMessage)
	api.GET("/campaigns", s.listCampaigns)
	api.POST("/campaigns", s.createCampaign)
	api.GET("/campaigns/:id", s.getCampaign)
}

func (s *Server) getHealth(c echo.Context) error {
	return webserver.Ok(c, map[string]interface{}{"status": "ok"})
}

// gatewayFail maps a reconciler/gateway error to the right response. Gateway
// failures pass their body text through; everything else stays generic.
func gatewayFail(c echo.Context, err error) error {
	var apiErr *wasender.APIError
	if errors.As(err, &apiErr) {
		return webserver.Fail(c, http.StatusBadGateway, "GATEWAY_ERROR",
			"Remote gateway call failed", apiErr.Body)
	}
	if errors.Is(err, reconcile.ErrNotFound) {
		return webserver.Fail(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
	}
	if errors.Is(err, reconcile.ErrQuotaExceeded) {
		return webserver.Fail(c, http.StatusForbidden, "QUOTA_EXCEEDED",
			"Plan session limit reached", nil)
	}
	return webserver.Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

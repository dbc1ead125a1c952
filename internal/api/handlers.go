// Package api exposes the link registry and the redirect path over HTTP.
package api

import (
	"errors"
	"net/http"

	apperrors "github.com/axellelanca/linkforge/internal/errors"
	"github.com/axellelanca/linkforge/internal/models"
	"github.com/axellelanca/linkforge/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP routes.
type Handler struct {
	links     *services.LinkService
	redirects *services.RedirectService
	logger    *zap.Logger
}

func NewHandler(links *services.LinkService, redirects *services.RedirectService, logger *zap.Logger) *Handler {
	return &Handler{links: links, redirects: redirects, logger: logger}
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	JWTSecret      string
	AllowAnonymous bool // let unauthenticated callers create links
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), ZapLogger(logger), Metrics())
	SetupRoutes(router, h, NewAuthenticator(opts.JWTSecret), opts.AllowAnonymous, logger)
	return router
}

// SetupRoutes registers the routes on router.
func SetupRoutes(router *gin.Engine, h *Handler, auth *Authenticator, allowAnonymous bool, logger *zap.Logger) {
	router.GET("/health", HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	urls := router.Group("/api/v1/urls", ErrorHandler(logger), auth.Identify())
	{
		create := []gin.HandlerFunc{h.CreateURL}
		if !allowAnonymous {
			create = append([]gin.HandlerFunc{RequireOwner()}, create...)
		}
		urls.POST("", create...)
		urls.GET("", RequireOwner(), h.ListURLs)
		urls.GET("/:shortCode", RequireOwner(), h.GetURL)
		urls.PUT("/:shortCode", RequireOwner(), h.UpdateURL)
		urls.DELETE("/:shortCode", RequireOwner(), h.DeleteURL)
		urls.GET("/:shortCode/logs", RequireOwner(), h.ClickLogs)
	}

	router.GET("/:shortCode", h.Redirect)
}

// HealthCheckHandler handles the /health route.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateURLRequest is the body of POST /api/v1/urls.
type CreateURLRequest struct {
	LongURL     string `json:"longUrl" binding:"required"`
	Title       string `json:"title" binding:"max=255"`
	Description string `json:"description" binding:"max=1024"`
}

// UpdateURLRequest is the body of PUT /api/v1/urls/:shortCode.
type UpdateURLRequest struct {
	LongURL string `json:"longUrl" binding:"required"`
}

func (h *Handler) CreateURL(c *gin.Context) {
	var req CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInput("api.create", "request body must contain a longUrl"))
		return
	}

	res, err := h.links.Create(c.Request.Context(), services.CreateInput{
		LongURL:     req.LongURL,
		OwnerID:     ownerID(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	if res.Existing {
		c.JSON(http.StatusOK, OK(toView(res.Link), "Provided Url already exists"))
		return
	}
	c.JSON(http.StatusCreated, OK(toView(res.Link), "short url created"))
}

func (h *Handler) ListURLs(c *gin.Context) {
	links, err := h.links.List(c.Request.Context(), ownerID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	views := make([]LinkView, 0, len(links))
	for i := range links {
		views = append(views, toView(&links[i]))
	}
	c.JSON(http.StatusOK, OK(views, ""))
}

func (h *Handler) GetURL(c *gin.Context) {
	link, err := h.links.Get(c.Request.Context(), c.Param("shortCode"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OK(toView(link), ""))
}

func (h *Handler) UpdateURL(c *gin.Context) {
	var req UpdateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.InvalidInput("api.update", "request body must contain a longUrl"))
		return
	}
	link, err := h.links.Update(c.Request.Context(), c.Param("shortCode"), ownerID(c), req.LongURL)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OK(toView(link), "short url updated"))
}

func (h *Handler) DeleteURL(c *gin.Context) {
	if err := h.links.Delete(c.Request.Context(), c.Param("shortCode"), ownerID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OK[any](nil, "short url deleted"))
}

func (h *Handler) ClickLogs(c *gin.Context) {
	logs, err := h.links.ClickLogs(c.Request.Context(), c.Param("shortCode"), ownerID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, OK(logs, ""))
}

// Redirect answers a visit with a 302 to the original URL. Failures get a
// bare status with no details about the mapping.
func (h *Handler) Redirect(c *gin.Context) {
	target, err := h.redirects.Resolve(c.Request.Context(), c.Param("shortCode"), c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	// The destination can be edited, so browsers must not cache it.
	c.Header("Cache-Control", "private, no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, target)
}

func toView(l *models.ShortLink) LinkView {
	return LinkView{
		Code:        l.Code,
		LongURL:     l.OriginalURL,
		ShortURL:    l.ShortURL,
		Clicks:      l.Clicks,
		Title:       l.Title,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

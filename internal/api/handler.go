package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"sweetshop/internal/cart"
	"sweetshop/internal/session"
	"sweetshop/internal/storefront"
	"sweetshop/internal/util"
	"sweetshop/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "sid"
	visitKey      = "visit"
)

// ReadyFunc reports whether backing infrastructure is reachable
type ReadyFunc func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	registry *storefront.Registry
	ready    ReadyFunc
}

// NewHandler creates a new HTTP handler. ready may be nil.
func NewHandler(registry *storefront.Registry, ready ReadyFunc) *Handler {
	return &Handler{
		registry: registry,
		ready:    ready,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(h.sessionMiddleware())
	{
		v1.GET("/products", h.listProducts)

		v1.GET("/cart", h.getCart)
		v1.GET("/cart/text", h.getCartText)
		v1.POST("/cart/items/:id", h.addToCart)
		v1.DELETE("/cart/items/:id", h.removeFromCart)
		v1.POST("/cart/checkout", h.checkout)

		v1.GET("/session", h.getSession)
		v1.POST("/session/toggle", h.toggleSession)
		v1.POST("/session/login", h.login)
		v1.POST("/session/logout", h.logout)
		v1.POST("/session/register", h.register)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"details": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// sessionMiddleware resolves the browsing session from the header or cookie,
// minting a new id when neither is present
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(sessionHeader)
		if sid == "" {
			sid, _ = c.Cookie(sessionCookie)
		}
		if sid == "" {
			sid = uuid.New().String()
			c.SetCookie(sessionCookie, sid, 0, "/", "", false, true)
		}
		c.Header(sessionHeader, sid)

		c.Set(visitKey, h.registry.Get(sid))
		c.Next()
	}
}

func visitFrom(c *gin.Context) *storefront.Visit {
	return c.MustGet(visitKey).(*storefront.Visit)
}

// listProducts returns the catalog
func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items": visitFrom(c).Store.Items(),
	})
}

// getCart returns the cart as last rendered
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cart": visitFrom(c).View.Cart(),
	})
}

// getCartText returns the cart in the plain text layout
func (h *Handler) getCartText(c *gin.Context) {
	cv := visitFrom(c).View.Cart()
	c.String(http.StatusOK, view.FormatCart(cv.Lines, cv.Total))
}

// addToCart handles adding one unit of an item
func (h *Handler) addToCart(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}

	visit := visitFrom(c)
	if err := visit.Store.OnAddToCart(id); err != nil {
		if errors.Is(err, cart.ErrUnknownItem) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Item not found",
				"details": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to add item",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": visit.View.Cart(),
	})
}

// removeFromCart handles removing one unit of an item
func (h *Handler) removeFromCart(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}

	visit := visitFrom(c)
	visit.Store.OnRemoveFromCart(id)

	c.JSON(http.StatusOK, gin.H{
		"cart": visit.View.Cart(),
	})
}

// checkout handles finalizing the purchase
func (h *Handler) checkout(c *gin.Context) {
	visit := visitFrom(c)

	receipt, notice, err := visit.Store.OnCheckout(c.Request.Context())
	if errors.Is(err, cart.ErrEmptyCart) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Cart is empty",
			"notice": notice,
			"cart":   visit.View.Cart(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to checkout",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt": receipt,
		"notice":  notice,
		"cart":    visit.View.Cart(),
	})
}

// getSession reports the authentication state
func (h *Handler) getSession(c *gin.Context) {
	visit := visitFrom(c)

	user, ok, err := visit.Store.CurrentUser(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read session",
			"details": err.Error(),
		})
		return
	}

	resp := gin.H{
		"session_id":    visit.Store.ID(),
		"authenticated": ok,
	}
	if ok {
		resp["user"] = user
	}
	c.JSON(http.StatusOK, resp)
}

// credentialsRequest carries prompt answers; an absent field means the user
// cancelled that prompt
type credentialsRequest struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Cancelled bool    `json:"cancelled"`
}

func (h *Handler) toggleSession(c *gin.Context) {
	h.withPrompt(c, visitFrom(c).Store.OnSessionToggle)
}

func (h *Handler) login(c *gin.Context) {
	h.withPrompt(c, visitFrom(c).Store.OnLogin)
}

func (h *Handler) register(c *gin.Context) {
	h.withPrompt(c, visitFrom(c).Store.OnRegister)
}

func (h *Handler) logout(c *gin.Context) {
	notice, err := visitFrom(c).Store.OnLogout(c.Request.Context())
	respondNotice(c, notice, err)
}

func (h *Handler) withPrompt(c *gin.Context, action func(context.Context, storefront.CredentialPrompt) (storefront.Notice, error)) {
	// An empty body, chunked or not, is a dismissed prompt
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	prompt := storefront.Credentials{Username: req.Username, Password: req.Password}
	if req.Cancelled {
		prompt = storefront.Credentials{}
	}

	notice, err := action(c.Request.Context(), prompt)
	respondNotice(c, notice, err)
}

func respondNotice(c *gin.Context, notice storefront.Notice, err error) {
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, storefront.ErrCancelled):
		c.JSON(http.StatusOK, gin.H{"notice": notice, "cancelled": true})
		return
	case errors.Is(err, session.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, session.ErrDuplicateUsername):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	if err != nil {
		c.JSON(status, gin.H{
			"error":  err.Error(),
			"notice": notice,
		})
		return
	}

	c.JSON(status, gin.H{"notice": notice})
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID",
		})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

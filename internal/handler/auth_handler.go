package handler

import (
	"errors"
	"log"
	"net/http"

	"admin_panel/internal/metrics"
	"admin_panel/internal/middleware"
	"admin_panel/internal/model"
	"admin_panel/internal/service"

	"github.com/gin-gonic/gin"
)

// CookieSettings controls the session cookie issued on login
type CookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	cookie  CookieSettings
	metrics *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, cookie CookieSettings, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{service: s, cookie: cookie, metrics: m}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	files, ok := h.uploads(c)
	if !ok {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req, files)
	if err != nil {
		respondError(c, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User registered successfully",
		"id":      user.ID,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `form:"email" json:"email" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}

	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	h.observeLogin(model.PrincipalUser, err)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error during login [%s]: %v", middleware.RequestIDFrom(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user_id": user.ID,
		"token":   token,
	})
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req struct {
		Username string `form:"username" json:"username" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}

	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	_, token, err := h.service.AdminLogin(c.Request.Context(), req.Username, req.Password)
	h.observeLogin(model.PrincipalAdmin, err)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		log.Printf("Error during admin login [%s]: %v", middleware.RequestIDFrom(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.service.Logout(c.Request.Context(), principal.SessionID); err != nil {
		log.Printf("Error during logout [%s]: %v", middleware.RequestIDFrom(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// setSessionCookie sets a browser-session cookie; the token inside carries
// its own expiry.
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, 0, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) observeLogin(kind string, err error) {
	if h.metrics != nil {
		h.metrics.ObserveLogin(kind, err == nil)
	}
}

func (h *AuthHandler) uploads(c *gin.Context) (service.Uploads, bool) {
	return readUploads(c, h.metrics)
}

// RegisterAuthRoutes registers auth routes. authMW guards logout.
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/admin/login", h.AdminLogin)
	rg.GET("/logout", authMW, h.Logout)
}

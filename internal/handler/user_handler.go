package handler

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"admin_panel/internal/filestore"
	"admin_panel/internal/metrics"
	"admin_panel/internal/model"
	"admin_panel/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles user record requests
type UserHandler struct {
	service service.UserService
	metrics *metrics.Metrics
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(s service.UserService, m *metrics.Metrics) *UserHandler {
	return &UserHandler{service: s, metrics: m}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	files, ok := readUploads(c, h.metrics)
	if !ok {
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req, files)
	if err != nil {
		respondError(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID})
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	files, ok := readUploads(c, h.metrics)
	if !ok {
		return
	}

	if _, err := h.service.UpdateUser(c.Request.Context(), id, req, files); err != nil {
		respondError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// fileDownload serves the file a user references in slot
func (h *UserHandler) fileDownload(slot filestore.Slot) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}

		rc, name, err := h.service.OpenUserFile(c.Request.Context(), id, slot)
		if err != nil {
			respondError(c, err, "Failed to retrieve file")
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
			"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
		})
	}
}

// RegisterUserRoutes registers the user routes behind authMW
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/users", authMW, h.ListUsers)

	userGroup := rg.Group("/user")
	userGroup.Use(authMW)
	{
		userGroup.POST("", h.CreateUser)
		userGroup.GET("/:id", h.GetUser)
		userGroup.PUT("/:id", h.UpdateUser)
		userGroup.DELETE("/:id", h.DeleteUser)
		userGroup.GET("/:id/profile_pic", h.fileDownload(filestore.SlotPicture))
		userGroup.GET("/:id/description_file", h.fileDownload(filestore.SlotDocument))
	}
}

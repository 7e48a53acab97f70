package handler

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"admin_panel/internal/filestore"
	"admin_panel/internal/metrics"
	"admin_panel/internal/middleware"
	"admin_panel/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	profilePicField      = "profile_pic"
	descriptionFileField = "description_file"
)

// respondError maps service and file store errors to a status code. A
// PartialWriteError reports the status of its cause when the client caused
// it, and 500 otherwise. Unexpected errors are logged and hidden behind
// fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var status int
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, filestore.ErrInvalidFilename),
		errors.Is(err, filestore.ErrFileTooLarge),
		errors.Is(err, filestore.ErrUnknownSlot):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrFileReferenceAbsent),
		errors.Is(err, filestore.ErrFileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmailAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	}

	var pwErr *service.PartialWriteError
	if errors.As(err, &pwErr) {
		if status == 0 {
			log.Printf("Error [%s]: %v", middleware.RequestIDFrom(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":       fallback,
				"rolled_back": pwErr.RolledBack,
			})
			return
		}
		c.JSON(status, gin.H{"error": pwErr.Err.Error(), "rolled_back": pwErr.RolledBack})
		return
	}

	if status == 0 {
		log.Printf("Error [%s]: %v", middleware.RequestIDFrom(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// readUploads collects the optional profile_pic and description_file parts.
// A request that is not multipart simply carries no files.
func readUploads(c *gin.Context, m *metrics.Metrics) (service.Uploads, bool) {
	var files service.Uploads
	targets := []struct {
		field string
		dst   **multipart.FileHeader
	}{
		{profilePicField, &files.ProfilePic},
		{descriptionFileField, &files.DescriptionFile},
	}

	for _, t := range targets {
		fh, err := c.FormFile(t.field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				continue
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s upload: %v", t.field, err)})
			return service.Uploads{}, false
		}
		*t.dst = fh
		if m != nil {
			m.UploadsTotal.WithLabelValues(t.field).Inc()
		}
	}
	return files, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return id, true
}

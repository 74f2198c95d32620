package controllers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/restaurant-pos-api/utils"
)

// UploadController serves menu images kept on local disk
type UploadController struct {
	dir string
}

// NewUploadController serves files from dir
func NewUploadController(dir string) *UploadController {
	return &UploadController{dir: dir}
}

// GetUploadedImage handles GET /api/uploads/:filename - serves uploaded menu images
func (uc *UploadController) GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Validate filename is not empty
	if filename == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Security: Prevent directory traversal attacks
	filePath, ok := utils.SafeUploadPath(uc.dir, filename)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	contentType, ok := utils.ImageContentType(filename)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only image files are supported")
		return
	}

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	// Serve the file with appropriate headers
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}

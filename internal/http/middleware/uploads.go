package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/metrics"
	"github.com/iyhunko/product-catalog/internal/model"
)

const (
	// ImagesField is the multipart field carrying product images.
	ImagesField = "images"

	uploadedFilesKey = "uploadedFiles"
)

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Uploads parses multipart requests, writes every file sent under field into dir
// with a unique name and stores the ordered descriptors in the context.
// Requests that are not multipart pass through untouched.
func Uploads(dir, field string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != gin.MIMEMultipartPOSTForm {
			c.Next()
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid multipart form", "error": err.Error()})
			return
		}

		headers := form.File[field]
		for _, header := range headers {
			ext := strings.ToLower(filepath.Ext(header.Filename))
			if !allowedImageExtensions[ext] {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"message": "Unsupported image type",
					"error":   "file " + header.Filename + " must be one of .jpg, .jpeg, .png, .gif, .webp",
				})
				return
			}
		}

		if len(headers) > 0 {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				slog.Error("failed to create upload directory", slog.String("dir", dir), slog.Any("err", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error storing images", "error": err.Error()})
				return
			}
		}

		files := make([]model.UploadedFile, 0, len(headers))
		for _, header := range headers {
			filename := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
			path := filepath.ToSlash(filepath.Join(dir, filename))
			if err := c.SaveUploadedFile(header, path); err != nil {
				slog.Error("failed to store uploaded image", slog.String("file", header.Filename), slog.Any("err", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Error storing images", "error": err.Error()})
				return
			}
			files = append(files, model.UploadedFile{Path: path, Filename: filename})
			metrics.ImagesUploaded.Inc()
		}

		c.Set(uploadedFilesKey, files)
		c.Next()
	}
}

// UploadedFiles returns the files stored by Uploads for this request, in upload order.
func UploadedFiles(c *gin.Context) []model.UploadedFile {
	value, ok := c.Get(uploadedFilesKey)
	if !ok {
		return nil
	}
	files, _ := value.([]model.UploadedFile)
	return files
}

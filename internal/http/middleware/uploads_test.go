package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testFile struct {
	name    string
	content string
}

func multipartRequest(t *testing.T, fields map[string]string, files []testFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(ImagesField, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func uploadRouter(dir string, captured *[]model.UploadedFile) *gin.Engine {
	router := gin.New()
	router.POST("/products", Uploads(dir, ImagesField), func(c *gin.Context) {
		*captured = UploadedFiles(c)
		c.Status(http.StatusCreated)
	})
	return router
}

func TestUploads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("stores files in upload order", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "uploads")
		var captured []model.UploadedFile

		req := multipartRequest(t, map[string]string{"name": "Linen Shirt"}, []testFile{
			{name: "front.PNG", content: "front"},
			{name: "back.jpg", content: "back"},
		})
		w := httptest.NewRecorder()
		uploadRouter(dir, &captured).ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, captured, 2)

		for i, want := range []struct{ ext, content string }{{".png", "front"}, {".jpg", "back"}} {
			file := captured[i]
			assert.True(t, strings.HasSuffix(file.Filename, want.ext), file.Filename)
			assert.Equal(t, filepath.ToSlash(filepath.Join(dir, file.Filename)), file.Path)

			data, err := os.ReadFile(file.Path)
			require.NoError(t, err)
			assert.Equal(t, want.content, string(data))
		}
		assert.NotEqual(t, captured[0].Filename, captured[1].Filename)
	})

	t.Run("multipart without files yields empty list", func(t *testing.T) {
		var captured []model.UploadedFile

		req := multipartRequest(t, map[string]string{"name": "Cap"}, nil)
		w := httptest.NewRecorder()
		uploadRouter(t.TempDir(), &captured).ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.NotNil(t, captured)
		assert.Empty(t, captured)
	})

	t.Run("non multipart requests pass through", func(t *testing.T) {
		captured := []model.UploadedFile{{Path: "sentinel"}}

		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"Cap"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		uploadRouter(t.TempDir(), &captured).ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Nil(t, captured)
	})

	t.Run("rejects files that are not images", func(t *testing.T) {
		dir := t.TempDir()
		var captured []model.UploadedFile

		req := multipartRequest(t, nil, []testFile{{name: "notes.txt", content: "hello"}})
		w := httptest.NewRecorder()
		uploadRouter(dir, &captured).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Unsupported image type")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

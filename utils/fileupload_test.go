package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestFileHeader creates a mock multipart.FileHeader for testing
func createTestFileHeader(filename string, size int64, content []byte) *multipart.FileHeader {
	// Create a buffer to write our multipart form
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// Create form file
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/png")
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	// Parse the multipart form
	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content)) + 1024)
	defer form.RemoveAll()

	if len(form.File["file"]) > 0 {
		fileHeader := form.File["file"][0]
		// Override size for testing purposes
		fileHeader.Size = size
		return fileHeader
	}

	return nil
}

func TestValidateImageFile_Success(t *testing.T) {
	for _, name := range []string{"chips.png", "burger.jpg", "wings.jpeg", "cola.webp", "SHOUTY.PNG"} {
		t.Run(name, func(t *testing.T) {
			content := []byte("fake image content")
			fileHeader := createTestFileHeader(name, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			assert.NoError(t, ValidateImageFile(fileHeader))
		})
	}
}

func TestValidateImageFile_FileTooLarge(t *testing.T) {
	// 6MB is over the limit
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("large.png", 6*1024*1024, content)
	require.NotNil(t, fileHeader)

	err := ValidateImageFile(fileHeader)
	assert.Error(t, err)

	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
	assert.Contains(t, fileErr.Message, "File size exceeds maximum allowed size")
}

func TestValidateImageFile_InvalidFormat(t *testing.T) {
	for _, name := range []string{"menu.gif", "menu.pdf", "menu", "png"} {
		t.Run(name, func(t *testing.T) {
			content := []byte("fake content")
			fileHeader := createTestFileHeader(name, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			err := ValidateImageFile(fileHeader)
			require.Error(t, err)

			fileErr, ok := err.(*FileUploadError)
			require.True(t, ok, "Error should be of type FileUploadError")
			assert.Equal(t, "INVALID_FILE_FORMAT", fileErr.Code)
		})
	}
}

func TestImageContentType(t *testing.T) {
	ct, ok := ImageContentType("a.JPG")
	assert.True(t, ok)
	assert.Equal(t, "image/jpeg", ct)

	_, ok = ImageContentType("a.txt")
	assert.False(t, ok)
}

func TestImageKey(t *testing.T) {
	key := ImageKey("menu-items", "Chips.PNG")
	assert.True(t, strings.HasPrefix(key, "menu-items/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ImageKey("menu-items", "Chips.PNG"))

	assert.NotContains(t, ImageKey("", "a.webp"), "/")
}

func TestSaveUploadedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("chips.png", int64(len(content)), content)
	require.NotNil(t, fileHeader)

	filename, err := SaveUploadedFile(fileHeader, dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".png"))

	saved, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestSafeUploadPath(t *testing.T) {
	path, ok := SafeUploadPath("/srv/uploads", "abc.png")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/srv/uploads", "abc.png"), path)

	for _, bad := range []string{"", "../secret", "a/b.png", `a\b.png`, "..png", ".env"} {
		_, ok := SafeUploadPath("/srv/uploads", bad)
		assert.False(t, ok, bad)
	}
}

func TestGetImageURL(t *testing.T) {
	assert.Equal(t, "/api/uploads/abc.png", GetImageURL("abc.png"))
	assert.Equal(t, "", GetImageURL(""))
}

func TestFileUploadError_Error(t *testing.T) {
	err := &FileUploadError{
		Code:    "TEST_CODE",
		Message: "Test error message",
	}

	assert.Equal(t, "Test error message", err.Error())
}

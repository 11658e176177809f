package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
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
	tests := []string{"test.png", "photo.jpg", "photo.jpeg", "render.webp"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			content := []byte("fake image content")
			fileHeader := createTestFileHeader(name, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			assert.NoError(t, ValidateImageFile(fileHeader))
		})
	}
}

func TestValidateImageFile_FileTooLarge(t *testing.T) {
	// Test with file exceeding size limit (6MB)
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("large.png", 6*1024*1024, content)
	require.NotNil(t, fileHeader)

	err := ValidateImageFile(fileHeader)
	assert.Error(t, err)

	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
	assert.Contains(t, fileErr.Message, "File size exceeds maximum allowed size of 5 MB")
}

func TestValidateImageFile_ExactlyAtLimit(t *testing.T) {
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("limit.png", MaxFileSize, content)
	require.NotNil(t, fileHeader)

	assert.NoError(t, ValidateImageFile(fileHeader))
}

func TestValidateImageFile_EmptyFile(t *testing.T) {
	content := []byte("x")
	fileHeader := createTestFileHeader("empty.png", 0, content)
	require.NotNil(t, fileHeader)

	err := ValidateImageFile(fileHeader)
	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "EMPTY_FILE", fileErr.Code)
}

func TestValidateImageFile_NilHeader(t *testing.T) {
	err := ValidateImageFile(nil)
	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "NO_FILE", fileErr.Code)
}

func TestValidateImageFile_InvalidFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"gif", "test.gif"},
		{"bmp", "test.bmp"},
		{"stl model", "model.stl"},
		{"no extension", "testfile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := []byte("fake content")
			fileHeader := createTestFileHeader(tt.filename, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			err := ValidateImageFile(fileHeader)
			assert.Error(t, err)

			fileErr, ok := err.(*FileUploadError)
			require.True(t, ok, "Error should be of type FileUploadError")
			assert.Equal(t, "INVALID_FILE_FORMAT", fileErr.Code)
			assert.Contains(t, fileErr.Message, "Only .jpeg, .jpg, .png, .webp files are allowed")
		})
	}
}

func TestValidateImageFile_CaseInsensitive(t *testing.T) {
	// Test with uppercase extension
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("test.PNG", int64(len(content)), content)
	require.NotNil(t, fileHeader)

	err := ValidateImageFile(fileHeader)
	assert.NoError(t, err, "Validation should be case-insensitive")
}

func TestImageContentType(t *testing.T) {
	assert.Equal(t, "image/png", ImageContentType("a.png"))
	assert.Equal(t, "image/jpeg", ImageContentType("a.JPG"))
	assert.Equal(t, "image/jpeg", ImageContentType("a.jpeg"))
	assert.Equal(t, "image/webp", ImageContentType("a.webp"))
	assert.Equal(t, "application/octet-stream", ImageContentType("a.txt"))
}

func TestFileUploadError_Error(t *testing.T) {
	err := &FileUploadError{
		Code:    "TEST_CODE",
		Message: "Test error message",
	}

	assert.Equal(t, "Test error message", err.Error())
}

package validation

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		platform string
		wantErr  string
	}{
		{"png image", "photo.png", pngHeader, "instagram", ""},
		{"mp4 by extension", "clip.mp4", []byte("\x00\x00\x00\x18ftypmp42"), "linkedin", ""},
		{"mov by extension", "clip.MOV", []byte("anything"), "instagram", ""},
		{"renamed text posing as png", "photo.png", []byte("hello world"), "instagram", "invalid file"},
		{"pdf not accepted for posts", "deck.pdf", []byte("%PDF-1.4"), "linkedin", "invalid file"},
		{"image not accepted for youtube", "photo.png", pngHeader, "youtube", "invalid file extension"},
		{"youtube video", "vlog.webm", []byte("\x1a\x45\xdf\xa3"), "youtube", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(fileHeader(t, tt.filename, tt.content), MediaConstraints(tt.platform)...)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateFileSize(t *testing.T) {
	header := fileHeader(t, "notes.txt", []byte("x"))
	header.Size = ChatConstraints.MaxSize + 1

	err := ValidateFile(header, ChatConstraints)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size is 50 MB")

	assert.NoError(t, ValidateFile(fileHeader(t, "anything.bin", []byte("x")), ChatConstraints))
	assert.Error(t, ValidateFile(header))
}

func TestValidatePostText(t *testing.T) {
	assert.NoError(t, ValidatePostText("linkedin", "Hello", false))
	assert.NoError(t, ValidatePostText("instagram", "", true))
	assert.EqualError(t, ValidatePostText("linkedin", "   ", false), "content or media is required")
	assert.Error(t, ValidatePostText("instagram", strings.Repeat("a", 2201), true))
	assert.NoError(t, ValidatePostText("instagram", strings.Repeat("é", 2200), true))
}

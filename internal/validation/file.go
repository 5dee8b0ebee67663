package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool // empty allows any content
	AllowedExtensions map[string]bool // empty allows any extension
	MaxSize           int64
}

var (
	// ChatConstraints accepts any attachment; unsupported kinds degrade to a filename placeholder.
	ChatConstraints = FileConstraints{
		MaxSize: 50 << 20, // 50MB
	}

	// ImageConstraints covers still images for LinkedIn and Instagram posts
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".gif":  true,
			".webp": true,
		},
		MaxSize: 8 << 20, // 8MB
	}

	// VideoConstraints covers LinkedIn video and Instagram reels.
	// QuickTime sniffs as octet-stream, so video content is checked by extension.
	VideoConstraints = FileConstraints{
		AllowedExtensions: map[string]bool{
			".mp4":  true,
			".mov":  true,
			".webm": true,
		},
		MaxSize: 100 << 20, // 100MB
	}

	// YouTubeConstraints allows larger uploads since they stream straight to the API
	YouTubeConstraints = FileConstraints{
		AllowedExtensions: VideoConstraints.AllowedExtensions,
		MaxSize:           256 << 20, // 256MB
	}
)

// MediaConstraints returns the constraint sets an upload for platform must satisfy (OR logic).
func MediaConstraints(platform string) []FileConstraints {
	if platform == "youtube" {
		return []FileConstraints{YouTubeConstraints}
	}
	return []FileConstraints{ImageConstraints, VideoConstraints}
}

// ValidateFile validates a file upload against one or more constraint sets
// If multiple constraints are provided, file must match at least one (OR logic)
// Example: ValidateFile(header, ImageConstraints, VideoConstraints) allows images OR videos
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	if len(constraints) == 0 {
		return fmt.Errorf("no file constraints provided")
	}

	var lastErr error
	for _, constraint := range constraints {
		err := validateAgainstConstraint(header, constraint)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}

// validateAgainstConstraint validates a file against a single constraint set
func validateAgainstConstraint(header *multipart.FileHeader, constraints FileConstraints) error {
	// Check file size first (before reading content)
	if header.Size > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if len(constraints.AllowedExtensions) > 0 && !constraints.AllowedExtensions[ext] {
		return fmt.Errorf("invalid file extension: %q", ext)
	}

	if len(constraints.AllowedMimeTypes) == 0 {
		return nil
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Detected from magic numbers, so a renamed file is still caught
	detectedType := http.DetectContentType(buffer[:n])
	if !constraints.AllowedMimeTypes[detectedType] {
		return fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	return nil
}

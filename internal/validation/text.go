package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Caption limits enforced by the platforms themselves.
var captionLimits = map[string]int{
	"linkedin":  3000,
	"instagram": 2200,
	"youtube":   5000, // description; the title is derived and truncated separately
}

// ValidatePostText checks the post body before any upstream call.
// Text may be empty only when media is attached.
func ValidatePostText(platform, text string, hasMedia bool) error {
	trimmed := strings.TrimSpace(text)

	if trimmed == "" && !hasMedia {
		return errors.New("content or media is required")
	}

	if limit, ok := captionLimits[platform]; ok && utf8.RuneCountInString(trimmed) > limit {
		return fmt.Errorf("content is too long for %s (max %d characters)", platform, limit)
	}

	return nil
}

package service

import (
	"strings"

	"vaultdl/internal/core/domain"
)

// fallbackFilename is used when nothing sanitizes to a usable name.
const fallbackFilename = "download.zip"

// ResolveFilename picks the final on-disk name for a delivered payload:
// the server-suggested name when one was offered, otherwise the sanitized
// page title with a .zip extension, otherwise the media id.
func ResolveFilename(suggested string, meta domain.PageMetadata) string {
	if name := SanitizeFilename(suggested); name != "" {
		return name
	}
	if name := SanitizeFilename(meta.Title); name != "" {
		return name + ".zip"
	}
	if meta.MediaID != "" {
		return "media-" + meta.MediaID + ".zip"
	}
	return fallbackFilename
}

// SanitizeFilename strips control characters and anything outside a safe
// filename character set, collapses runs of spaces, and trims the result.
// Path separators never survive. The empty string means the input had
// nothing usable.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			// control characters dropped
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-' || r == '(' || r == ')' || r == ' ':
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	cleaned = strings.Trim(cleaned, ". ")
	return cleaned
}

package vaultsite

import (
	"fmt"
	"regexp"
	"strings"

	"vaultdl/internal/core/domain"
)

// The vault serves one download page per title. Three fixed fields are pulled
// out with targeted patterns instead of a full HTML parse:
//
//   - media id:    name="mediaId" value="12345"   (required)
//   - page title:  <title>Vault: Some Game</title> (site prefix stripped)
//   - form action: action attribute of the form with id="dl_form" (optional)
var (
	mediaIDRe = regexp.MustCompile(`name="mediaId"\s+value="(\d+)"`)
	titleRe   = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	dlFormRe  = regexp.MustCompile(`(?is)<form\b[^>]*\bid="dl_form"[^>]*>`)
	actionRe  = regexp.MustCompile(`action="([^"]*)"`)
)

var entityDecoder = strings.NewReplacer(
	"&#039;", "'",
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

// ExtractionError indicates a page the pipeline cannot act on. It is a
// per-item failure; the run continues with the next work item.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("page extraction failed: %s", e.Reason)
}

// ExtractMetadata scrapes the media id, title and optional download-form
// action out of raw page text. The media id is mandatory; an empty title is a
// valid degraded value.
func ExtractMetadata(page, siteName string) (domain.PageMetadata, string, error) {
	m := mediaIDRe.FindStringSubmatch(page)
	if m == nil {
		return domain.PageMetadata{}, "", &ExtractionError{Reason: "media id not found"}
	}

	meta := domain.PageMetadata{
		MediaID: m[1],
		Title:   extractTitle(page, siteName),
	}
	return meta, extractFormAction(page), nil
}

func extractTitle(page, siteName string) string {
	m := titleRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	title := strings.TrimSpace(m[1])
	if siteName != "" {
		title = strings.TrimSpace(strings.TrimPrefix(title, siteName+":"))
	}
	return entityDecoder.Replace(title)
}

func extractFormAction(page string) string {
	tag := dlFormRe.FindString(page)
	if tag == "" {
		return ""
	}
	m := actionRe.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Package detector decides whether a rendered page is a not-found page by
// looking for well-known phrases in its title and visible text.
package detector

import (
	"strings"

	"github.com/user/deadpage-hunter/internal/entity"
)

// Indicators are matched as plain substrings, so prose that merely mentions
// "404" is flagged too.
var Indicators = []string{
	"404",
	"not found",
	"page not found",
	"tidak ditemukan",
	"halaman tidak ditemukan",
	"error 404",
	"page doesn't exist",
	"content not available",
}

// IsDeadPage reports whether any indicator occurs in title or bodyText.
// Inputs must already be lower-cased.
func IsDeadPage(title, bodyText string) bool {
	return firstMatch(title, bodyText) != ""
}

// Detect lower-cases the page text and runs the indicator match.
func Detect(page entity.PageText) entity.DetectionResult {
	ind := firstMatch(strings.ToLower(page.Title), strings.ToLower(page.Body))
	return entity.DetectionResult{IsDeadPage: ind != "", Indicator: ind}
}

func firstMatch(title, bodyText string) string {
	for _, ind := range Indicators {
		if strings.Contains(title, ind) || strings.Contains(bodyText, ind) {
			return ind
		}
	}
	return ""
}

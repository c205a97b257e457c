// Package validation holds input validation helpers shared by handlers and
// services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9-]{1,128}$`)

// Slugify derives a URL-safe identifier from free-form text: trim, lowercase,
// collapse every run of characters outside [a-z0-9] into a single hyphen, and
// strip hyphens from both ends. The transform is idempotent, so re-applying it
// to a hand-edited slug is safe.
func Slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))

	var b strings.Builder
	b.Grow(len(value))
	pendingHyphen := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// ValidateSlug checks a derived slug for storage: non-empty, bounded length,
// lowercase alphanumerics and hyphens only, no leading/trailing hyphen.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is empty")
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 1-128 characters and contain only lowercase letters, numbers, and hyphens")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}
	return nil
}

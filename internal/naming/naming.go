// Package naming derives deterministic, filesystem-safe paths for card artwork.
package naming

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/masteraset/cardfetch/internal/models"
)

const (
	// Fallback replaces segments that sanitize to nothing.
	Fallback = "unknown"

	// MaxSegmentLength bounds a sanitized segment in bytes.
	MaxSegmentLength = 180

	// DefaultExtension is used when the image URL has no recognised suffix.
	DefaultExtension = ".jpg"

	defaultCardName = "card"
)

var (
	disallowedRun = regexp.MustCompile(`[^a-z0-9._-]+`)
	underscoreRun = regexp.MustCompile(`_+`)

	allowedExtensions = map[string]struct{}{
		".jpg":  {},
		".jpeg": {},
		".png":  {},
		".webp": {},
	}
)

// SanitizeSegment lowercases s and keeps only [a-z0-9._-], collapsing every run of
// other characters into a single underscore. The result is at most MaxSegmentLength
// bytes; empty or all-disallowed input yields Fallback.
func SanitizeSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = disallowedRun.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	if len(s) > MaxSegmentLength {
		s = s[:MaxSegmentLength]
	}
	if strings.Trim(s, "_") == "" {
		return Fallback
	}
	return s
}

// NumberSegment zero-pads purely numeric card numbers to three digits so files sort
// in set order. Anything else is sanitized as-is.
func NumberSegment(number string) string {
	number = strings.TrimSpace(number)
	if isDigits(number) {
		if len(number) < 3 {
			return strings.Repeat("0", 3-len(number)) + number
		}
		return number
	}
	return SanitizeSegment(number)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ImageExtension returns the lowercase extension of the URL path when it is an allowed
// image type, or DefaultExtension otherwise.
func ImageExtension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if _, ok := allowedExtensions[ext]; ok {
		return ext
	}
	return DefaultExtension
}

// FileName builds "{number}_{name}_{id}{ext}" for a card, e.g.
// "072_devolution_spray_base1-72.png".
func FileName(card models.Card, imageURL string) string {
	name := card.Name
	if name == "" {
		name = defaultCardName
	}
	return NumberSegment(card.Number) + "_" +
		SanitizeSegment(name) + "_" +
		SanitizeSegment(card.ID) +
		ImageExtension(imageURL)
}

// DestinationPath is the full local path of a card image:
// {root}/{set}/{size}/{FileName}.
func DestinationPath(root, setID, sizeLabel string, card models.Card, imageURL string) string {
	return filepath.Join(root, SanitizeSegment(setID), sizeLabel, FileName(card, imageURL))
}

package policy

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s, folds accents, collapses every run of characters
// outside [a-z0-9] into one hyphen and trims hyphens at both ends.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	slug := nonAlnumRun.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// SlugExistsFunc reports whether slug is taken by a record other than excludeID.
type SlugExistsFunc func(ctx context.Context, slug, excludeID string) (bool, error)

// MaxSlugLen matches the width of the slug columns.
const MaxSlugLen = 255

// collisionSuffixLen is "-" plus a 13 digit unix millisecond timestamp.
const collisionSuffixLen = 14

func clip(slug string, n int) string {
	if len(slug) <= n {
		return slug
	}
	return strings.TrimRight(slug[:n], "-")
}

// UniqueSlug derives a slug from text. When it collides with another record
// the current unix time in milliseconds is appended, shortening the base so
// the result still fits MaxSlugLen. An empty derivation falls back to fallback.
func UniqueSlug(ctx context.Context, text, fallback, excludeID string, exists SlugExistsFunc, now func() time.Time) (string, error) {
	slug := clip(Slugify(text), MaxSlugLen)
	if slug == "" {
		slug = fallback
	}
	taken, err := exists(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if !taken {
		return slug, nil
	}
	if now == nil {
		now = time.Now
	}
	return clip(slug, MaxSlugLen-collisionSuffixLen) + "-" + strconv.FormatInt(now().UnixMilli(), 10), nil
}

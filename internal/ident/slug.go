package ident

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultSlug replaces titles that slugify to nothing (e.g. "!!!" or pure CJK).
const DefaultSlug = "untitled"

// Slugify folds title to ASCII (NFKD, non-ASCII dropped), lower-cases it, removes
// characters other than letters, digits, underscore, hyphen and whitespace, collapses
// runs of hyphens/whitespace into one hyphen and trims leading/trailing '-' and '_'.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingDash := false
	for _, r := range norm.NFKD.String(title) {
		if r > unicode.MaxASCII {
			continue
		}
		r = unicode.ToLower(r)
		switch {
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		case r == '_' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_")
}

// NextSlug returns the slug of title, or the first of slug-1, slug-2, ... not yet
// used in scope. Suffixes are tried in ascending order; the lowest free one wins.
func NextSlug(ctx context.Context, src SlugSource, scope Scope, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = DefaultSlug
	}

	existing, err := src.SlugsLike(ctx, scope, base)
	if err != nil {
		return "", fmt.Errorf("sibling slugs %s: %w", scope, err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}

	if _, ok := taken[base]; !ok {
		return base, nil
	}
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate, nil
		}
	}
}

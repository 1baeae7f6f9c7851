package recipe

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// SlugFallback is returned when a title contains nothing sluggable.
const SlugFallback = "recipe"

var hyphenRuns = regexp.MustCompile(`-+`)

// Slugify derives the filesystem- and URL-safe identifier for a title.
// The transform is per-character with no lookback: CJK ideographs become
// their primary pinyin reading, ASCII alphanumerics are lowercased, and
// everything else becomes a hyphen. Hyphen runs collapse to one and are
// trimmed from the ends. The result uses only lowercase ASCII letters,
// digits, and single hyphens and is never empty.
//
// Distinct titles can legitimately collide (punctuation-only differences,
// characters outside the handled scripts); resolving collisions is the
// store's job, not Slugify's.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 0x4E00 && r <= 0x9FFF:
			if p := pinyin.LazyConvert(string(r), nil); len(p) > 0 {
				b.WriteString(strings.ToLower(p[0]))
			}
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}

	slug := strings.Trim(hyphenRuns.ReplaceAllString(b.String(), "-"), "-")
	if slug == "" {
		return SlugFallback
	}
	return slug
}

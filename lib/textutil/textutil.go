package textutil

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// country names drift between registry pages (stray whitespace, accents
// rendered differently, "the" prefixes), exact equality misses those. the
// threshold must keep sibling names apart: "Niger" vs "Nigeria" scores
// roughly 0.94 and they are different countries
const sameNameSimilarity = 0.95

// SameName reports whether two scraped names refer to the same entity,
// falling back to Jaro-Winkler similarity when normalized forms differ.
func SameName(a, b string) bool {
	na := NormalizeName(a)
	nb := NormalizeName(b)
	if na == nb {
		return true
	}
	return matchr.JaroWinkler(na, nb, false) >= sameNameSimilarity
}

// PaddingSplitter segments cell text at runs of spaces at least
// `threshold` long.
type PaddingSplitter struct {
	threshold int
	runs      *regexp.Regexp
}

func NewPaddingSplitter(threshold int) PaddingSplitter {
	if threshold < 1 {
		threshold = 1
	}
	return PaddingSplitter{
		threshold: threshold,
		runs:      regexp.MustCompile(fmt.Sprintf(` {%d,}`, threshold)),
	}
}

// Split returns the non-empty segments of s separated by qualifying space
// runs. A string with no qualifying run comes back as a single segment.
func (p PaddingSplitter) Split(s string) []string {
	parts := p.runs.Split(s, -1)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, " ")
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) == 0 {
		return []string{""}
	}
	return segments
}

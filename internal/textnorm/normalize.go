// Package textnorm converts upstream bill markup into clean plain text
// and scans the result for likely normalization damage.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
)

// Specific numeric entities get ASCII equivalents before the generic
// decode runs, so curly punctuation flattens instead of surviving as
// Unicode. Order matters: entity decoding must finish before tags are
// stripped, since entities sit inside and against tags.
var entityReplacements = []struct {
	pattern *regexp.Regexp
	with    string
}{
	{regexp.MustCompile(`(?i)&#x2019;`), "'"},
	{regexp.MustCompile(`(?i)&#x201C;`), `"`},
	{regexp.MustCompile(`(?i)&#x201D;`), `"`},
	{regexp.MustCompile(`(?i)&#x2013;`), "-"},
	{regexp.MustCompile(`(?i)&#x2014;`), "--"},
	{regexp.MustCompile(`(?i)&#xA0;`), " "},
}

var (
	genericEntityRe = regexp.MustCompile(`(?i)&#x([0-9a-f]{4});`)
	tagRe           = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Normalize decodes numeric character entities and strips markup,
// returning trimmed plain text with single spaces between words. It is
// total: malformed input degrades to garbled output, never an error.
// Normalize is idempotent on its own output.
func Normalize(raw string) string {
	text := raw
	for _, r := range entityReplacements {
		text = r.pattern.ReplaceAllString(text, r.with)
	}
	text = genericEntityRe.ReplaceAllStringFunc(text, decodeEntity)
	text = tagRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func decodeEntity(entity string) string {
	hex := genericEntityRe.FindStringSubmatch(entity)[1]
	code, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return entity
	}
	return string(rune(code))
}

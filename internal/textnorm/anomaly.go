package textnorm

import (
	"regexp"
	"strings"
)

// Anomaly is one suspected broken-spacing site, captured with enough
// surrounding context for manual review. Anomalies never reject text;
// they are a diagnostic aid only.
type Anomaly struct {
	Span    string
	Start   int
	End     int
	Context string
}

const contextRadius = 30

var (
	honorificRe  = regexp.MustCompile(`\b(?:Mrs|Mr|Ms|Dr|Jr|Sr)\.`)
	initialRe    = regexp.MustCompile(`\b[A-Z]\.`)
	nameSuffixRe = regexp.MustCompile(`\b(?:Jr|Sr)\.`)
)

// honorifics that legitimately end in a bare letter before a period.
var honorifics = map[string]struct{}{
	"mr": {}, "ms": {}, "mrs": {}, "dr": {}, "jr": {}, "sr": {},
}

// shortWords are two-letter words a displaced space splits across a word
// gap: when markup stripping eats a space, a short word migrates ("This
// is broken" -> "Thisi sbroken") and the letters flanking the false gap
// rejoin into it. Restricted to words opening with i/u, since almost no
// English word legitimately ends in a bare i or u; wider lists flag
// ordinary prose ("from you" would trip on "my").
var shortWords = map[string]struct{}{
	"if": {}, "in": {}, "is": {}, "it": {}, "up": {}, "us": {},
}

// ScanForAnomalies flags "letter, whitespace, letter" junctions that look
// like incorrectly removed inter-word spacing. Two shapes are reported:
// isolated single letters on both sides of the gap, and gaps whose
// flanking letters rejoin into a common short word. Honorific
// abbreviations, single-letter initials followed by a period, and letters
// immediately preceded by either pattern are suppressed; the check is an
// explicit preceding-window classification because RE2 lacks lookbehind.
func ScanForAnomalies(text string) []Anomaly {
	var out []Anomaly
	// Candidates are scanned at every position; regex matching would
	// consume overlapping junctions like the middle of "i n half".
	for i := 0; i+2 < len(text); i++ {
		if !isLetter(text[i]) || !isSpace(text[i+1]) || !isLetter(text[i+2]) {
			continue
		}
		start, end := i, i+3
		if suppressed(text, start, end) {
			continue
		}
		if !looksBroken(text, start, end) {
			continue
		}
		out = append(out, Anomaly{
			Span:    text[start:end],
			Start:   start,
			End:     end,
			Context: contextWindow(text, start, end),
		})
	}
	return out
}

// FindHonorifics reports title abbreviations (Mr., Mrs., Dr., ...). It
// exists to calibrate the suppression rules, not to accept or reject
// text.
func FindHonorifics(text string) []string {
	return honorificRe.FindAllString(text, -1)
}

// FindInitials reports single-letter initials followed by a period, as
// in "J. Smith". Calibration aid only.
func FindInitials(text string) []string {
	var out []string
	for _, loc := range initialRe.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isLetter(text[loc[0]-1]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

// FindNameSuffixes reports generational suffixes (Jr., Sr.). Calibration
// aid only.
func FindNameSuffixes(text string) []string {
	return nameSuffixRe.FindAllString(text, -1)
}

// suppressed classifies the characters around a candidate and drops
// matches explained by legitimate abbreviation patterns.
func suppressed(text string, start, end int) bool {
	// Second letter is an initial: "to D. C." matches "o D" but the D
	// belongs to "D.".
	if end < len(text) && text[end] == '.' {
		return true
	}
	// First letter terminates an honorific written without its period.
	if word := strings.ToLower(wordEndingAt(text, start+1)); len(word) > 1 {
		if _, ok := honorifics[word]; ok {
			return true
		}
	}
	// Letter immediately preceded by an initial or honorific pattern,
	// e.g. the S in "J. Smith" or "Mr. Smith".
	if precededByAbbreviation(text, start) {
		return true
	}
	return false
}

// looksBroken decides whether a non-suppressed candidate indicates a
// displaced space rather than an ordinary word gap.
func looksBroken(text string, start, end int) bool {
	leftIsolated := start == 0 || !isLetter(text[start-1])
	rightIsolated := end >= len(text) || !isLetter(text[end])
	if leftIsolated && rightIsolated {
		// Two orphaned letters in a row never occur in clean prose.
		return true
	}
	if leftIsolated || rightIsolated {
		// One orphan is ordinary text ("a report", trailing initials).
		return false
	}
	// Both letters are embedded mid-word: flag the gap when they rejoin
	// into a short word the false space would have split.
	joined := strings.ToLower(string(text[start]) + string(text[end-1]))
	_, ok := shortWords[joined]
	return ok
}

// precededByAbbreviation walks back over whitespace and one period, then
// classifies the 1-3 letters before it.
func precededByAbbreviation(text string, pos int) bool {
	i := pos
	for i > 0 && isSpace(text[i-1]) {
		i--
	}
	if i == 0 || text[i-1] != '.' {
		return false
	}
	word := wordEndingAt(text, i-1)
	if len(word) == 1 {
		return true // single-letter initial
	}
	_, ok := honorifics[strings.ToLower(word)]
	return ok
}

// wordEndingAt returns the maximal letter run ending just before pos.
func wordEndingAt(text string, pos int) string {
	i := pos
	for i > 0 && isLetter(text[i-1]) {
		i--
	}
	return text[i:pos]
}

func contextWindow(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

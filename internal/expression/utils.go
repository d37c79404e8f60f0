package expression

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	nonWordRegex    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_]+`)
	whitespaceRegex = regexp.MustCompile(`[\s\p{Z}]+`)
)

// splitWords splits text into words, either on any run of non-word
// characters or only on whitespace. Empty pieces are dropped.
func splitWords(text string, bySpaces bool) []string {
	re := nonWordRegex
	if bySpaces {
		re = whitespaceRegex
	}

	var words []string
	for _, w := range re.Split(text, -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// slice returns items[start:stop] where negative indexes count from the end,
// a nil stop means through the end and out of range bounds are clamped.
func slice[T any](items []T, start int, stop *int) []T {
	size := len(items)

	clamp := func(i int) int {
		if i < 0 {
			i += size
			if i < 0 {
				return 0
			}
		}
		if i > size {
			return size
		}
		return i
	}

	from := clamp(start)
	to := size
	if stop != nil {
		to = clamp(*stop)
	}

	if from >= to {
		return nil
	}
	return items[from:to]
}

// urlQuote percent-encodes text for use in a URL, encoding spaces as %20
func urlQuote(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// groupThousands inserts commas between groups of three integer digits of
// a plain decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + fracPart
}

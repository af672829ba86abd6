package source

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// AutoGeneratedDurationFactor scales the duration of machine-generated
// caption snippets, whose reported durations run long.
const AutoGeneratedDurationFactor = 0.45

// segmentEnd computes the end time of a provider snippet.
func segmentEnd(start, duration float64, generated bool) float64 {
	if generated {
		return start + duration*AutoGeneratedDurationFactor
	}
	return start + duration
}

// cleanText unescapes HTML entities and collapses whitespace, including line breaks.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// splitWords breaks caption text into words with trailing punctuation split off.
// A token made only of punctuation is folded into the previous word.
func splitWords(text string) []types.Word {
	fields := strings.Fields(text)
	words := make([]types.Word, 0, len(fields))
	for _, f := range fields {
		cut := strings.LastIndexFunc(f, func(r rune) bool { return !unicode.IsPunct(r) })
		var w types.Word
		if cut < 0 {
			w.Punctuation = f
		} else {
			_, size := utf8.DecodeRuneInString(f[cut:])
			end := cut + size
			w.Text = f[:end]
			w.Punctuation = f[end:]
		}
		if w.Text == "" {
			if n := len(words); n > 0 {
				words[n-1].Punctuation += w.Punctuation
			}
			continue
		}
		words = append(words, w)
	}
	return words
}

// newSegment builds a normalized caption segment. Empty text yields ok=false.
func newSegment(start, end float64, text string) (types.CaptionSegment, bool) {
	text = cleanText(text)
	if text == "" {
		return types.CaptionSegment{}, false
	}
	if end < start {
		end = start
	}
	return types.CaptionSegment{
		Start: start,
		End:   end,
		Text:  text,
		Words: splitWords(text),
	}, true
}

func captionType(generated bool) types.CaptionType {
	if generated {
		return types.CaptionAutoGenerated
	}
	return types.CaptionManual
}

// isGeneratedType reads the subtitle_type values the local server reports.
func isGeneratedType(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "auto") || s == "asr" || s == "generated"
}

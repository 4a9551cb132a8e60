package gtranslate

import (
	"strings"
	"unicode"
)

// splitText cuts text into pieces of at most limit runes. It prefers to cut
// after sentence punctuation, then at whitespace, and only splits inside a
// word when a single word is longer than limit.
func splitText(text string, limit int) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := cutPoint(runes[:limit+1])
		if cut <= 0 {
			cut = limit
		}
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = []rune(strings.TrimLeftFunc(string(runes[cut:]), unicode.IsSpace))
	}
	if piece := strings.TrimSpace(string(runes)); piece != "" {
		chunks = append(chunks, piece)
	}
	return chunks
}

// cutPoint returns the index to cut window at, or 0 when there is no boundary.
func cutPoint(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if strings.ContainsRune(".!?;:…", window[i-1]) && unicode.IsSpace(window[i]) {
			return i
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return 0
}
